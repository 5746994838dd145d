package pause

import (
	"sync"
	"testing"
	"time"

	"wordflash/internal/testutil"

	"github.com/stretchr/testify/assert"
)

func newTestCoordinator(clock *testutil.Clock, opts ...Option) *Coordinator {
	opts = append([]Option{WithClock(clock.Now), WithStrict(true)}, opts...)
	return NewCoordinator(testutil.NewTestLogger(), opts...)
}

func TestCoordinator_BalancedCounter(t *testing.T) {
	clock := testutil.NewClock(time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC))
	c := newTestCoordinator(clock)

	assert.False(t, c.IsPaused())

	const n = 3
	for i := 0; i < n; i++ {
		c.PauseActivity(ReasonOperation, "")
	}
	assert.True(t, c.IsPaused())
	assert.Equal(t, n, c.GetPauseInfo(ReasonOperation).Count)

	clock.Advance(5 * time.Minute)
	for i := 0; i < n; i++ {
		assert.True(t, c.IsPausedBy(ReasonOperation))
		c.ResumeActivity(ReasonOperation)
	}

	assert.False(t, c.IsPaused())
	assert.False(t, c.IsPausedBy(ReasonOperation))
	assert.Equal(t, 5*time.Minute, c.GetPauseInfo(ReasonOperation).GetPauseTime())
}

func TestCoordinator_AccumulatesIntervals(t *testing.T) {
	clock := testutil.NewClock(time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC))
	c := newTestCoordinator(clock)

	c.PauseActivity(ReasonCardVisible, "hello")
	clock.Advance(2 * time.Minute)
	c.ResumeActivity(ReasonCardVisible)

	clock.Advance(time.Hour)

	c.PauseActivity(ReasonCardVisible, "world")
	clock.Advance(3 * time.Minute)

	// In-progress interval is included
	info := c.GetPauseInfo(ReasonCardVisible)
	assert.True(t, info.IsActive())
	assert.Equal(t, 5*time.Minute, info.GetPauseTime())

	c.ResumeActivity(ReasonCardVisible)
	clock.Advance(time.Hour)
	assert.Equal(t, 5*time.Minute, c.GetPauseInfo(ReasonCardVisible).GetPauseTime())
}

func TestCoordinator_GetPauseReasons(t *testing.T) {
	clock := testutil.NewClock(time.Now())
	c := newTestCoordinator(clock)

	assert.Equal(t, "", c.GetPauseReasons())

	c.PauseActivity(ReasonOperation, "import")
	c.PauseActivity(ReasonCardVisible, "apple")
	c.PauseActivity(ReasonOperation, "")

	assert.Equal(t, "card_visible (apple); operation_in_progress x2 (import)", c.GetPauseReasons())

	c.ResumeActivity(ReasonCardVisible)
	assert.Equal(t, "operation_in_progress x2 (import)", c.GetPauseReasons())
}

func TestCoordinator_UnbalancedResume(t *testing.T) {
	clock := testutil.NewClock(time.Now())

	strict := newTestCoordinator(clock)
	assert.Panics(t, func() { strict.ResumeActivity(ReasonInactive) })

	lenient := newTestCoordinator(clock, WithStrict(false))
	assert.NotPanics(t, func() { lenient.ResumeActivity(ReasonInactive) })
	assert.False(t, lenient.IsPaused())

	lenient.PauseActivity(ReasonInactive, "")
	lenient.ResumeActivity(ReasonInactive)
	lenient.ResumeActivity(ReasonInactive)
	assert.Equal(t, 0, lenient.GetPauseInfo(ReasonInactive).Count)
	assert.False(t, lenient.IsPaused())
}

func TestCoordinator_OnChange(t *testing.T) {
	clock := testutil.NewClock(time.Now())
	var flips []bool
	c := newTestCoordinator(clock, WithOnChange(func(paused bool) { flips = append(flips, paused) }))

	c.PauseActivity(ReasonCardVisible, "")
	c.PauseActivity(ReasonOperation, "")
	c.ResumeActivity(ReasonCardVisible)
	c.ResumeActivity(ReasonOperation)

	assert.Equal(t, []bool{true, false}, flips)
}

func TestCoordinator_OnChangeSettlesOnFinalState(t *testing.T) {
	var (
		mu   sync.Mutex
		last *bool
	)
	c := NewCoordinator(testutil.NewTestLogger(), WithStrict(true), WithOnChange(func(paused bool) {
		mu.Lock()
		last = &paused
		mu.Unlock()
	}))

	reasons := []Reason{ReasonCardVisible, ReasonOperation, ReasonUserRequest, ReasonInactive}
	var wg sync.WaitGroup
	for _, reason := range reasons {
		wg.Add(1)
		go func(reason Reason) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				c.PauseActivity(reason, "")
				c.ResumeActivity(reason)
			}
		}(reason)
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.False(t, c.IsPaused())
	if assert.NotNil(t, last) {
		assert.False(t, *last)
	}
}

func TestCoordinator_PausedTimeCountsOverlapOnce(t *testing.T) {
	clock := testutil.NewClock(time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC))
	c := newTestCoordinator(clock)

	c.PauseActivity(ReasonCardVisible, "cat")
	clock.Advance(time.Minute)
	c.PauseActivity(ReasonUserRequest, "")
	clock.Advance(2 * time.Minute)
	c.ResumeActivity(ReasonCardVisible)
	clock.Advance(time.Minute)

	// still paused by user_request, in-progress interval included
	assert.Equal(t, 4*time.Minute, c.PausedTime())

	c.ResumeActivity(ReasonUserRequest)
	clock.Advance(10 * time.Minute)
	assert.Equal(t, 4*time.Minute, c.PausedTime())

	c.PauseActivity(ReasonOperation, "import")
	clock.Advance(30 * time.Second)
	c.ResumeActivity(ReasonOperation)
	assert.Equal(t, 4*time.Minute+30*time.Second, c.PausedTime())
}

func TestCoordinator_ConcurrentProducers(t *testing.T) {
	c := NewCoordinator(testutil.NewTestLogger(), WithStrict(true))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.PauseActivity(ReasonOperation, "")
				_ = c.IsPaused()
				c.ResumeActivity(ReasonOperation)
			}
		}()
	}
	wg.Wait()

	assert.False(t, c.IsPaused())
	assert.Equal(t, 0, c.GetPauseInfo(ReasonOperation).Count)
}

func TestCoordinator_Close(t *testing.T) {
	clock := testutil.NewClock(time.Now())
	c := newTestCoordinator(clock)

	c.PauseActivity(ReasonUserRequest, "")
	clock.Advance(time.Minute)
	c.Close()
	clock.Advance(time.Minute)

	assert.Equal(t, 2*time.Minute, c.GetPauseInfo(ReasonUserRequest).GetPauseTime())
}
