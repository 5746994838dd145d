package pause

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Reason is a named cause for suspending card pop-ups
type Reason string

const (
	ReasonCardVisible Reason = "card_visible"
	ReasonOperation   Reason = "operation_in_progress"
	ReasonInactive    Reason = "inactive_mode"
	ReasonUserRequest Reason = "user_request"
)

// Info is a snapshot of one reason's pause state
type Info struct {
	Reason      Reason
	Count       int
	Labels      []string
	ActiveSince *time.Time
	Total       time.Duration
	takenAt     time.Time
}

// IsActive reports whether the reason held at least one registration
func (i Info) IsActive() bool {
	return i.Count > 0
}

// GetPauseTime returns the accumulated paused duration including the
// in-progress interval
func (i Info) GetPauseTime() time.Duration {
	total := i.Total
	if i.ActiveSince != nil {
		total += i.takenAt.Sub(*i.ActiveSince)
	}
	return total
}

type reasonState struct {
	count       int
	labels      []string
	activeSince time.Time
	total       time.Duration
}

// Coordinator is a reference-counted, reason-keyed suspension registry
type Coordinator struct {
	mu      sync.Mutex
	reasons map[Reason]*reasonState
	active  int // number of reasons with count > 0

	// time during which at least one reason was active
	pausedSince time.Time
	pausedTotal time.Duration

	now      func() time.Time
	strict   bool
	logger   *zap.Logger
	onChange func(paused bool)

	notifyMu sync.Mutex
	notified bool
}

// Option configures a Coordinator
type Option func(*Coordinator)

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// WithStrict makes unbalanced resumes panic instead of being ignored
func WithStrict(strict bool) Option {
	return func(c *Coordinator) { c.strict = strict }
}

// WithOnChange registers a callback invoked when the aggregate paused flag flips
func WithOnChange(fn func(paused bool)) Option {
	return func(c *Coordinator) { c.onChange = fn }
}

// NewCoordinator creates a coordinator with nothing paused
func NewCoordinator(logger *zap.Logger, opts ...Option) *Coordinator {
	c := &Coordinator{
		reasons: make(map[Reason]*reasonState),
		now:     time.Now,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PauseActivity registers one more pause for reason. The start time is
// recorded when the count goes from zero to one.
func (c *Coordinator) PauseActivity(reason Reason, label string) {
	c.mu.Lock()
	st, ok := c.reasons[reason]
	if !ok {
		st = &reasonState{}
		c.reasons[reason] = st
	}
	st.count++
	if label != "" {
		st.labels = append(st.labels, label)
	}
	flipped := false
	if st.count == 1 {
		now := c.now()
		st.activeSince = now
		c.active++
		if c.active == 1 {
			c.pausedSince = now
			flipped = true
		}
	}
	count := st.count
	c.mu.Unlock()

	c.logger.Debug("Activity paused",
		zap.String("reason", string(reason)),
		zap.String("label", label),
		zap.Int("count", count),
	)
	if flipped {
		c.notify()
	}
}

// ResumeActivity releases one pause registration for reason. When the count
// reaches zero the elapsed time is added to the reason's total. A resume
// without a matching pause never drives the count negative.
func (c *Coordinator) ResumeActivity(reason Reason) {
	c.mu.Lock()
	st, ok := c.reasons[reason]
	if !ok || st.count == 0 {
		c.mu.Unlock()
		if c.strict {
			panic(fmt.Sprintf("pause: resume of %q without matching pause", reason))
		}
		c.logger.Warn("Resume without matching pause ignored", zap.String("reason", string(reason)))
		return
	}

	st.count--
	if len(st.labels) > 0 {
		st.labels = st.labels[1:]
	}
	flipped := false
	if st.count == 0 {
		now := c.now()
		st.total += now.Sub(st.activeSince)
		st.activeSince = time.Time{}
		st.labels = nil
		c.active--
		if c.active == 0 {
			c.pausedTotal += now.Sub(c.pausedSince)
			c.pausedSince = time.Time{}
			flipped = true
		}
	}
	count := st.count
	c.mu.Unlock()

	c.logger.Debug("Activity resumed",
		zap.String("reason", string(reason)),
		zap.Int("count", count),
	)
	if flipped {
		c.notify()
	}
}

// notify reports the current aggregate flag. Flips racing each other may
// collapse, but the last delivered value always matches the final state.
func (c *Coordinator) notify() {
	if c.onChange == nil {
		return
	}
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	paused := c.IsPaused()
	if paused == c.notified {
		return
	}
	c.notified = paused
	c.onChange(paused)
}

// IsPaused reports whether any reason is active
func (c *Coordinator) IsPaused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active > 0
}

// PausedTime returns how long anything has been paused in total, including
// the in-progress interval. Overlapping reasons are counted once.
func (c *Coordinator) PausedTime() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := c.pausedTotal
	if c.active > 0 {
		total += c.now().Sub(c.pausedSince)
	}
	return total
}

// IsPausedBy reports whether reason is active
func (c *Coordinator) IsPausedBy(reason Reason) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.reasons[reason]
	return ok && st.count > 0
}

// GetPauseInfo returns a snapshot for reason
func (c *Coordinator) GetPauseInfo(reason Reason) Info {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked(reason, c.now())
}

func (c *Coordinator) snapshotLocked(reason Reason, now time.Time) Info {
	info := Info{Reason: reason, takenAt: now}
	st, ok := c.reasons[reason]
	if !ok {
		return info
	}
	info.Count = st.count
	info.Total = st.total
	info.Labels = append([]string(nil), st.labels...)
	if st.count > 0 {
		since := st.activeSince
		info.ActiveSince = &since
	}
	return info
}

// Snapshot returns the state of every reason ever registered, sorted by reason
func (c *Coordinator) Snapshot() []Info {
	c.mu.Lock()
	now := c.now()
	infos := make([]Info, 0, len(c.reasons))
	for reason := range c.reasons {
		infos = append(infos, c.snapshotLocked(reason, now))
	}
	c.mu.Unlock()

	sort.Slice(infos, func(i, j int) bool { return infos[i].Reason < infos[j].Reason })
	return infos
}

// GetPauseReasons returns a human-readable summary of the active reasons
func (c *Coordinator) GetPauseReasons() string {
	var parts []string
	for _, info := range c.Snapshot() {
		if !info.IsActive() {
			continue
		}
		part := string(info.Reason)
		if info.Count > 1 {
			part += fmt.Sprintf(" x%d", info.Count)
		}
		if len(info.Labels) > 0 {
			part += " (" + strings.Join(info.Labels, ", ") + ")"
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, "; ")
}

// Close finalizes every open interval and logs the totals
func (c *Coordinator) Close() {
	c.mu.Lock()
	now := c.now()
	if c.active > 0 {
		c.pausedTotal += now.Sub(c.pausedSince)
		c.pausedSince = now
	}
	for reason, st := range c.reasons {
		if st.count > 0 {
			st.total += now.Sub(st.activeSince)
			st.activeSince = now
		}
		c.logger.Info("Pause totals",
			zap.String("reason", string(reason)),
			zap.Int("open", st.count),
			zap.Duration("paused", st.total),
		)
	}
	c.mu.Unlock()
}
