package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"wordflash/internal/assessment"
	"wordflash/internal/domain"
	"wordflash/internal/events"
	"wordflash/internal/metrics"
	"wordflash/internal/pause"
	"wordflash/internal/service"
	"wordflash/internal/testutil"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type recordingPresenter struct {
	mu    sync.Mutex
	cards []*Card
	err   error
}

func (p *recordingPresenter) Present(_ context.Context, card *Card) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cards = append(p.cards, card)
	return p.err
}

func (p *recordingPresenter) last() *Card {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.cards) == 0 {
		return nil
	}
	return p.cards[len(p.cards)-1]
}

func (p *recordingPresenter) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.cards)
}

type fixture struct {
	clock     *testutil.Clock
	store     *testutil.MemoryStore
	settings  *testutil.StaticSettings
	pause     *pause.Coordinator
	bus       *events.Bus
	presenter *recordingPresenter
	metrics   *metrics.Metrics
	scheduler *Scheduler
}

func newFixture(t *testing.T, cfg domain.Settings) *fixture {
	t.Helper()

	f := &fixture{
		clock:     testutil.NewClock(testNow),
		store:     testutil.NewMemoryStore(),
		settings:  testutil.NewStaticSettings(cfg),
		bus:       events.NewBus(),
		presenter: &recordingPresenter{},
		metrics:   metrics.New(prometheus.NewRegistry()),
	}
	logger := testutil.NewTestLogger()
	f.pause = pause.NewCoordinator(logger, pause.WithStrict(true), pause.WithClock(f.clock.Now))

	learning := service.NewLearningService(f.store, f.bus, f.clock.Now, true, logger)
	selector := assessment.NewSelector(f.settings, f.store, testutil.NewRand(0), logger)

	f.scheduler = New(Deps{
		Entries:   f.store,
		Learning:  learning,
		Selector:  selector,
		Presenter: f.presenter,
		Pause:     f.pause,
		Settings:  f.settings,
		Bus:       f.bus,
		Metrics:   f.metrics,
		Logger:    logger,
		Now:       f.clock.Now,
	}, DefaultConfig())
	return f
}

func forwardOnly() domain.Settings {
	return domain.Settings{
		CardShowFrequency:  10 * time.Minute,
		ReverseTranslation: false,
		RandomTranslation:  false,
		Active:             true,
	}
}

func (f *fixture) addEntry(t *testing.T, text string, variants ...domain.TranslationVariant) domain.TranslationEntryKey {
	t.Helper()
	entry := testutil.NewTestEntry(text, domain.PartOfSpeechNoun, variants...)
	require.NoError(t, f.store.Save(context.Background(), entry))
	return entry.Key
}

func TestRescheduleOnFrequencyChange(t *testing.T) {
	tests := []struct {
		name     string
		elapsed  time.Duration
		paused   time.Duration
		interval time.Duration
		expected time.Duration
	}{
		{name: "shorter interval already elapsed", elapsed: 4 * time.Minute, interval: 2 * time.Minute, expected: 0},
		{name: "longer interval keeps elapsed part", elapsed: 4 * time.Minute, interval: 15 * time.Minute, expected: 11 * time.Minute},
		{name: "exactly elapsed", elapsed: 5 * time.Minute, interval: 5 * time.Minute, expected: 0},
		{name: "paused time does not count", elapsed: 2 * time.Hour, paused: 2 * time.Hour, interval: 10 * time.Minute, expected: 10 * time.Minute},
		{name: "partly paused", elapsed: 30 * time.Minute, paused: 25 * time.Minute, interval: 10 * time.Minute, expected: 5 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RescheduleOnFrequencyChange(testNow, testNow.Add(-tt.elapsed), tt.interval, tt.paused)
			assert.Equal(t, testNow.Add(tt.expected), got)
		})
	}

	assert.Equal(t, testNow, RescheduleOnFrequencyChange(testNow, time.Time{}, time.Hour, 0))
}

func TestScheduler_FrequencyChangedEvent(t *testing.T) {
	f := newFixture(t, forwardOnly())
	last := testNow.Add(-4 * time.Minute)
	info := domain.NewLearningInfo(testutil.NewTestKey("cat"), testNow.Add(-time.Hour))
	info.LastCardShowTime = &last
	f.store.PutLearningInfo(info)

	f.scheduler.Start(context.Background())
	assert.Equal(t, testNow.Add(6*time.Minute), f.scheduler.Status().NextShow)

	f.bus.Publish(events.FrequencyChanged{Old: 10 * time.Minute, New: 2 * time.Minute})

	status := f.scheduler.Status()
	assert.Equal(t, testNow, status.NextShow)
	assert.Equal(t, 2*time.Minute, status.Frequency)
}

func TestScheduler_CorrectAnswerPromotes(t *testing.T) {
	f := newFixture(t, forwardOnly())
	key := f.addEntry(t, "cat", testutil.Variant("кот"))

	last := testNow.Add(-2 * time.Hour)
	info := domain.NewLearningInfo(key, testNow.Add(-24*time.Hour))
	info.RepeatType = domain.RepeatTypeBeginner
	info.LastCardShowTime = &last
	info.NextCardShowTime = last.Add(domain.RepeatTypeBeginner.Interval())
	f.store.PutLearningInfo(info)

	f.scheduler.Start(context.Background())
	f.scheduler.Tick(context.Background())

	card := f.presenter.last()
	require.NotNil(t, card)
	assert.Equal(t, "cat", card.Assessment.Word)
	assert.Equal(t, StateShowing, f.scheduler.Status().State)
	assert.True(t, f.pause.IsPausedBy(pause.ReasonCardVisible))

	verdict, err := card.Submit(context.Background(), "кот")
	require.NoError(t, err)
	assert.True(t, verdict.Accepted)
	assert.Equal(t, "кот", verdict.CorrectAnswer)

	stored, err := f.store.GetByID(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, domain.RepeatTypeNovice, stored.RepeatType)
	assert.Equal(t, testNow.Add(3*time.Hour), stored.NextCardShowTime)
	assert.Equal(t, 1, stored.ShowCount)

	assert.False(t, f.pause.IsPaused())
	assert.Equal(t, StateWaiting, f.scheduler.Status().State)
	assert.Equal(t, 1.0, promtest.ToFloat64(f.metrics.CardsShown))
	assert.Equal(t, 1.0, promtest.ToFloat64(f.metrics.Answers.WithLabelValues("accepted")))
}

func TestScheduler_WrongAnswerDemotes(t *testing.T) {
	f := newFixture(t, forwardOnly())
	key := f.addEntry(t, "cat", testutil.Variant("кот"))

	info := domain.NewLearningInfo(key, testNow.Add(-time.Hour))
	info.RepeatType = domain.RepeatTypeNovice
	f.store.PutLearningInfo(info)

	f.scheduler.Start(context.Background())
	f.scheduler.Tick(context.Background())

	card := f.presenter.last()
	require.NotNil(t, card)

	verdict, err := card.Submit(context.Background(), "собака")
	require.NoError(t, err)
	assert.False(t, verdict.Accepted)

	stored, err := f.store.GetByID(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, domain.RepeatTypeBeginner, stored.RepeatType)
	assert.Equal(t, testNow.Add(time.Hour), stored.NextCardShowTime)
}

func TestScheduler_CardClosesOnce(t *testing.T) {
	f := newFixture(t, forwardOnly())
	f.addEntry(t, "cat", testutil.Variant("кот"))

	f.scheduler.Start(context.Background())
	f.scheduler.Tick(context.Background())
	card := f.presenter.last()
	require.NotNil(t, card)

	require.NoError(t, card.Dismiss(context.Background()))

	_, err := card.Submit(context.Background(), "кот")
	assert.True(t, errors.Is(err, domain.ErrCardNotActive))
	assert.True(t, errors.Is(card.Dismiss(context.Background()), domain.ErrCardNotActive))

	// strict coordinator would panic on a second resume
	assert.False(t, f.pause.IsPaused())

	stored, err := f.store.GetByID(context.Background(), card.Key)
	require.NoError(t, err)
	assert.Equal(t, domain.RepeatTypeElementary, stored.RepeatType)
}

func TestScheduler_GlobalGate(t *testing.T) {
	f := newFixture(t, forwardOnly())
	f.addEntry(t, "cat", testutil.Variant("кот"))
	f.addEntry(t, "dog", testutil.Variant("собака"))

	f.scheduler.Start(context.Background())
	f.scheduler.Tick(context.Background())
	require.Equal(t, 1, f.presenter.count())
	require.NoError(t, f.presenter.last().Dismiss(context.Background()))

	f.clock.Advance(9 * time.Minute)
	f.scheduler.Tick(context.Background())
	assert.Equal(t, 1, f.presenter.count())
	assert.Equal(t, StateWaiting, f.scheduler.Status().State)

	f.clock.Advance(time.Minute)
	f.scheduler.Tick(context.Background())
	require.Equal(t, 2, f.presenter.count())
	assert.Equal(t, "dog", f.presenter.last().Assessment.Word)
}

func TestScheduler_NoSecondCardWhileShowing(t *testing.T) {
	f := newFixture(t, forwardOnly())
	f.addEntry(t, "cat", testutil.Variant("кот"))
	f.addEntry(t, "dog", testutil.Variant("собака"))

	f.scheduler.Start(context.Background())
	f.scheduler.Tick(context.Background())
	f.clock.Advance(time.Hour)
	f.scheduler.Tick(context.Background())

	assert.Equal(t, 1, f.presenter.count())
}

func TestScheduler_PausedDoesNotShow(t *testing.T) {
	f := newFixture(t, forwardOnly())
	f.addEntry(t, "cat", testutil.Variant("кот"))

	f.scheduler.Start(context.Background())
	f.pause.PauseActivity(pause.ReasonOperation, "import")
	f.scheduler.Tick(context.Background())

	assert.Equal(t, 0, f.presenter.count())
	assert.Equal(t, StatePaused, f.scheduler.Status().State)

	f.pause.ResumeActivity(pause.ReasonOperation)
	f.scheduler.Tick(context.Background())
	assert.Equal(t, 1, f.presenter.count())
}

func TestScheduler_InactiveMode(t *testing.T) {
	cfg := forwardOnly()
	cfg.Active = false
	f := newFixture(t, cfg)
	f.addEntry(t, "cat", testutil.Variant("кот"))

	f.scheduler.Start(context.Background())
	assert.True(t, f.pause.IsPausedBy(pause.ReasonInactive))

	f.scheduler.Tick(context.Background())
	assert.Equal(t, 0, f.presenter.count())

	f.bus.Publish(events.ActiveChanged{Active: true})
	// repeated events stay balanced
	f.bus.Publish(events.ActiveChanged{Active: true})
	assert.False(t, f.pause.IsPaused())

	f.scheduler.Tick(context.Background())
	assert.Equal(t, 1, f.presenter.count())
}

func TestScheduler_SkipsEntryWithoutTranslations(t *testing.T) {
	f := newFixture(t, forwardOnly())
	f.addEntry(t, "empty")
	f.addEntry(t, "cat", testutil.Variant("кот"))

	f.scheduler.Start(context.Background())

	f.scheduler.Tick(context.Background())
	assert.Equal(t, 0, f.presenter.count())
	assert.Equal(t, StateIdle, f.scheduler.Status().State)
	assert.Equal(t, 1.0, promtest.ToFloat64(f.metrics.TickFailures.WithLabelValues("no_translations")))

	f.scheduler.Tick(context.Background())
	require.Equal(t, 1, f.presenter.count())
	assert.Equal(t, "cat", f.presenter.last().Assessment.Word)
}

func TestScheduler_RepositoryErrorRetries(t *testing.T) {
	f := newFixture(t, forwardOnly())
	f.addEntry(t, "cat", testutil.Variant("кот"))
	f.store.EligibleErr = fmt.Errorf("connection refused")

	f.scheduler.Start(context.Background())
	f.scheduler.Tick(context.Background())
	assert.Equal(t, 0, f.presenter.count())
	assert.False(t, f.pause.IsPaused())

	f.store.EligibleErr = nil
	f.scheduler.Tick(context.Background())
	assert.Equal(t, 1, f.presenter.count())
}

func TestScheduler_PresenterErrorReleasesPause(t *testing.T) {
	f := newFixture(t, forwardOnly())
	f.addEntry(t, "cat", testutil.Variant("кот"))
	f.presenter.err = fmt.Errorf("telegram down")

	f.scheduler.Start(context.Background())
	f.scheduler.Tick(context.Background())

	assert.Equal(t, 1, f.presenter.count())
	assert.False(t, f.pause.IsPaused())
	assert.Nil(t, f.scheduler.Status().Current)
}

func TestScheduler_RunAndStop(t *testing.T) {
	f := newFixture(t, forwardOnly())
	f.scheduler.cfg.TickInterval = time.Millisecond

	done := make(chan error, 1)
	go func() { done <- f.scheduler.Run(context.Background()) }()

	require.Eventually(t, func() bool {
		return f.bus.Len() == 1
	}, time.Second, time.Millisecond)

	f.scheduler.Stop()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
	assert.Equal(t, 0, f.bus.Len())
}

func TestScheduler_PauseHeldAcrossInterval(t *testing.T) {
	tests := []struct {
		name string
		hold func(t *testing.T, f *fixture, card *Card)
	}{
		{
			name: "user pause after the card closed",
			hold: func(t *testing.T, f *fixture, card *Card) {
				require.NoError(t, card.Dismiss(context.Background()))
				f.pause.PauseActivity(pause.ReasonUserRequest, "alice")
				f.clock.Advance(2 * time.Hour)
				f.pause.ResumeActivity(pause.ReasonUserRequest)
			},
		},
		{
			name: "card left open",
			hold: func(t *testing.T, f *fixture, card *Card) {
				f.clock.Advance(2 * time.Hour)
				require.NoError(t, card.Dismiss(context.Background()))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, forwardOnly())
			f.addEntry(t, "cat", testutil.Variant("кот"))
			f.addEntry(t, "dog", testutil.Variant("собака"))

			f.scheduler.Start(context.Background())
			f.scheduler.Tick(context.Background())
			card := f.presenter.last()
			require.NotNil(t, card)

			tt.hold(t, f, card)

			f.scheduler.Tick(context.Background())
			assert.Equal(t, 1, f.presenter.count())
			status := f.scheduler.Status()
			assert.Equal(t, StateWaiting, status.State)
			assert.Equal(t, f.clock.Now().Add(10*time.Minute), status.NextShow)

			f.clock.Advance(9 * time.Minute)
			f.scheduler.Tick(context.Background())
			assert.Equal(t, 1, f.presenter.count())

			f.clock.Advance(time.Minute)
			f.scheduler.Tick(context.Background())
			assert.Equal(t, 2, f.presenter.count())
		})
	}
}

func TestScheduler_FrequencyChangeIgnoresPausedTime(t *testing.T) {
	f := newFixture(t, forwardOnly())
	f.addEntry(t, "cat", testutil.Variant("кот"))

	f.scheduler.Start(context.Background())
	f.scheduler.Tick(context.Background())
	require.NoError(t, f.presenter.last().Dismiss(context.Background()))

	f.clock.Advance(4 * time.Minute)
	f.pause.PauseActivity(pause.ReasonOperation, "import")
	f.clock.Advance(time.Hour)
	f.pause.ResumeActivity(pause.ReasonOperation)

	// 4 minutes of the new 15 minute interval are already used up
	f.bus.Publish(events.FrequencyChanged{Old: 10 * time.Minute, New: 15 * time.Minute})
	assert.Equal(t, f.clock.Now().Add(11*time.Minute), f.scheduler.Status().NextShow)
}

// gatedLearning blocks ApplyGrade until release is closed
type gatedLearning struct {
	Learning
	grading chan struct{}
	release chan struct{}
}

func (l *gatedLearning) ApplyGrade(ctx context.Context, key domain.TranslationEntryKey, accepted bool) (*domain.LearningInfo, error) {
	close(l.grading)
	<-l.release
	return l.Learning.ApplyGrade(ctx, key, accepted)
}

func TestScheduler_StopWaitsForGrading(t *testing.T) {
	f := newFixture(t, forwardOnly())
	key := f.addEntry(t, "cat", testutil.Variant("кот"))

	learning := &gatedLearning{
		Learning: f.scheduler.deps.Learning,
		grading:  make(chan struct{}),
		release:  make(chan struct{}),
	}
	deps := f.scheduler.deps
	deps.Learning = learning
	f.scheduler = New(deps, Config{TickInterval: time.Millisecond})

	go func() { _ = f.scheduler.Run(context.Background()) }()
	require.Eventually(t, func() bool {
		return f.presenter.count() == 1
	}, time.Second, time.Millisecond)

	type result struct {
		verdict domain.Verdict
		err     error
	}
	submitted := make(chan result, 1)
	go func() {
		v, err := f.presenter.last().Submit(context.Background(), "кот")
		submitted <- result{v, err}
	}()
	<-learning.grading

	stopped := make(chan struct{})
	go func() {
		f.scheduler.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("stop returned while grading was in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(learning.release)

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after grading finished")
	}

	res := <-submitted
	require.NoError(t, res.err)
	assert.True(t, res.verdict.Accepted)
	assert.False(t, f.pause.IsPaused())

	stored, err := f.store.GetByID(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, domain.RepeatTypeBeginner, stored.RepeatType)
}
