package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"wordflash/internal/assessment"
	"wordflash/internal/domain"
	"wordflash/internal/events"
	"wordflash/internal/metrics"
	"wordflash/internal/pause"
	"wordflash/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// State of the card show loop
type State int

const (
	StateIdle State = iota
	StateWaiting
	StatePaused
	StateShowing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateWaiting:
		return "waiting"
	case StatePaused:
		return "paused"
	case StateShowing:
		return "showing"
	default:
		return "unknown"
	}
}

// Learning is the learning progress store used by the scheduler
type Learning interface {
	MarkShown(ctx context.Context, key domain.TranslationEntryKey, now time.Time) (*domain.LearningInfo, error)
	ApplyGrade(ctx context.Context, key domain.TranslationEntryKey, accepted bool) (*domain.LearningInfo, error)
	LatestShowTime(ctx context.Context) (*time.Time, error)
}

// AssessmentProvider builds quizzes for entries
type AssessmentProvider interface {
	ProvideAssessmentInfo(ctx context.Context, entry *domain.TranslationEntry) (*domain.AssessmentInfo, error)
}

// Config holds the scheduler tunables
type Config struct {
	TickInterval time.Duration
	SkipCooldown time.Duration // how long an entry without candidates is left out
}

// DefaultConfig returns the default tunables
func DefaultConfig() Config {
	return Config{
		TickInterval: 5 * time.Second,
		SkipCooldown: time.Hour,
	}
}

// Deps are the collaborators of the scheduler
type Deps struct {
	Entries   repository.TranslationEntryRepository
	Learning  Learning
	Selector  AssessmentProvider
	Presenter Presenter
	Pause     *pause.Coordinator
	Settings  repository.SettingsRepository
	Bus       *events.Bus
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
	Now       func() time.Time
}

// Status is a snapshot of the scheduler state
type Status struct {
	State     State
	NextShow  time.Time
	LastShow  time.Time
	Frequency time.Duration
	Current   *Card
}

// Scheduler decides when the next card may appear and drives the show loop
type Scheduler struct {
	deps Deps
	cfg  Config

	mu        sync.Mutex
	state     State
	current   *Card
	lastShow  time.Time
	nextShow  time.Time
	pauseMark time.Duration // coordinator paused time at lastShow
	frequency time.Duration
	inactive  bool
	skipped   map[domain.TranslationEntryKey]time.Time
	stopping  bool

	inflight    sync.WaitGroup
	unsubscribe func()
	stop        chan struct{}
	stopOnce    sync.Once
	done        chan struct{}
}

// New creates a scheduler in the idle state
func New(deps Deps, cfg Config) *Scheduler {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.New(nil)
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultConfig().TickInterval
	}
	if cfg.SkipCooldown <= 0 {
		cfg.SkipCooldown = DefaultConfig().SkipCooldown
	}
	return &Scheduler{
		deps:    deps,
		cfg:     cfg,
		state:   StateIdle,
		skipped: make(map[domain.TranslationEntryKey]time.Time),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Start seeds the global gate from the newest persisted show time and
// subscribes to settings events
func (s *Scheduler) Start(ctx context.Context) {
	now := s.deps.Now()
	cfg := s.deps.Settings.Settings()

	latest, err := s.deps.Learning.LatestShowTime(ctx)
	if err != nil {
		s.deps.Logger.Warn("Failed to load last card show time", zap.Error(err))
	}

	s.mu.Lock()
	s.frequency = cfg.CardShowFrequency
	if latest != nil {
		s.lastShow = *latest
	}
	s.pauseMark = s.deps.Pause.PausedTime()
	s.nextShow = RescheduleOnFrequencyChange(now, s.lastShow, s.frequency, 0)
	s.state = StateWaiting
	s.mu.Unlock()

	if !cfg.Active {
		s.setActive(false)
	}

	if s.deps.Bus != nil {
		s.unsubscribe = s.deps.Bus.Subscribe(s.handleEvent)
	}

	s.deps.Logger.Info("Scheduler started",
		zap.Duration("frequency", cfg.CardShowFrequency),
		zap.Time("next_show", s.Status().NextShow),
	)
}

// Run starts the scheduler and ticks until ctx is done or Stop is called
func (s *Scheduler) Run(ctx context.Context) error {
	defer close(s.done)

	s.Start(ctx)
	defer s.shutdown()

	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.stop:
			return nil
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Stop halts the ticker and waits until in-flight work has completed.
// Only valid after Run has been called.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	<-s.done
}

func (s *Scheduler) shutdown() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}

	s.mu.Lock()
	s.stopping = true
	s.mu.Unlock()

	s.inflight.Wait()
	s.deps.Logger.Info("Scheduler stopped")
}

// Tick tries to show a card. It never blocks on the presenter.
func (s *Scheduler) Tick(ctx context.Context) {
	now := s.deps.Now()

	s.mu.Lock()
	if s.stopping || s.state == StateShowing {
		s.mu.Unlock()
		return
	}
	if s.deps.Pause.IsPaused() {
		s.state = StatePaused
		s.mu.Unlock()
		return
	}
	s.nextShow = RescheduleOnFrequencyChange(now, s.lastShow, s.frequency, s.pausedSinceShowLocked())
	if now.Before(s.nextShow) {
		s.state = StateWaiting
		s.mu.Unlock()
		return
	}
	exclude := s.excludedLocked(now)
	// Reserve the slot so a concurrent tick cannot show a second card
	s.state = StateShowing
	s.inflight.Add(1)
	s.mu.Unlock()
	defer s.inflight.Done()

	if !s.show(ctx, now, exclude) {
		s.mu.Lock()
		if s.state == StateShowing && s.current == nil {
			s.state = StateIdle
		}
		s.mu.Unlock()
	}
}

func (s *Scheduler) show(ctx context.Context, now time.Time, exclude []domain.TranslationEntryKey) bool {
	entry, err := s.deps.Entries.GetCurrentEligible(ctx, now, exclude)
	if err != nil {
		s.deps.Logger.Warn("Failed to get eligible entry, retrying next tick", zap.Error(err))
		s.deps.Metrics.TickFailures.WithLabelValues("eligible").Inc()
		return false
	}
	if entry == nil {
		return false
	}

	info, err := s.deps.Selector.ProvideAssessmentInfo(ctx, entry)
	if errors.Is(err, domain.ErrNoTranslations) {
		s.deps.Logger.Warn("Entry has no translation candidates, skipping",
			zap.String("entry", entry.Key.String()),
		)
		s.deps.Metrics.TickFailures.WithLabelValues("no_translations").Inc()
		s.mu.Lock()
		s.skipped[entry.Key] = now.Add(s.cfg.SkipCooldown)
		s.mu.Unlock()
		return false
	}
	if err != nil {
		s.deps.Logger.Warn("Failed to build assessment", zap.String("entry", entry.Key.String()), zap.Error(err))
		s.deps.Metrics.TickFailures.WithLabelValues("assessment").Inc()
		return false
	}

	if _, err := s.deps.Learning.MarkShown(ctx, entry.Key, now); err != nil {
		s.deps.Logger.Warn("Failed to record card show", zap.String("entry", entry.Key.String()), zap.Error(err))
		s.deps.Metrics.TickFailures.WithLabelValues("persist").Inc()
		return false
	}

	card := &Card{
		ID:         uuid.New(),
		Key:        entry.Key,
		Assessment: *info,
		ShownAt:    now,
		scheduler:  s,
	}

	s.mu.Lock()
	s.current = card
	s.lastShow = now
	s.pauseMark = s.deps.Pause.PausedTime()
	s.nextShow = now.Add(s.frequency)
	s.mu.Unlock()

	s.deps.Pause.PauseActivity(pause.ReasonCardVisible, info.Word)

	s.deps.Metrics.CardsShown.Inc()
	s.deps.Logger.Info("Showing card",
		zap.String("card_id", card.ID.String()),
		zap.String("entry", entry.Key.String()),
		zap.String("prompt", info.Word),
		zap.Bool("reverse", info.IsReverse),
	)

	if err := s.deps.Presenter.Present(ctx, card); err != nil {
		s.deps.Logger.Warn("Presenter failed, closing card", zap.String("card_id", card.ID.String()), zap.Error(err))
		s.deps.Metrics.TickFailures.WithLabelValues("present").Inc()
		if release, ok := s.claim(card); ok {
			release()
		}
	}
	return true
}

func (s *Scheduler) submit(ctx context.Context, card *Card, text string) (domain.Verdict, error) {
	release, ok := s.claim(card)
	if !ok {
		return domain.Verdict{}, domain.ErrCardNotActive
	}
	defer release()

	res := assessment.GradeText(text, card.Assessment.AcceptedAnswers)
	verdict := domain.Verdict{
		Accepted:      res.Accepted,
		BestMatch:     res.BestMatch,
		CorrectAnswer: card.Assessment.CorrectAnswer,
		Submitted:     text,
	}
	s.deps.Metrics.ObserveAnswer(res.Accepted)

	info, err := s.deps.Learning.ApplyGrade(ctx, card.Key, res.Accepted)
	if err != nil {
		s.deps.Logger.Error("Failed to persist grade",
			zap.String("card_id", card.ID.String()),
			zap.Bool("accepted", res.Accepted),
			zap.Error(err),
		)
		return verdict, err
	}

	s.deps.Logger.Info("Card graded",
		zap.String("card_id", card.ID.String()),
		zap.Bool("accepted", res.Accepted),
		zap.Stringer("repeat_type", info.RepeatType),
		zap.Time("next_show", info.NextCardShowTime),
	)
	return verdict, nil
}

func (s *Scheduler) dismiss(_ context.Context, card *Card) error {
	release, ok := s.claim(card)
	if !ok {
		return domain.ErrCardNotActive
	}
	defer release()

	s.deps.Logger.Info("Card dismissed", zap.String("card_id", card.ID.String()))
	return nil
}

// claim closes card exactly once. Closing work started before shutdown is
// tracked as in-flight; the returned release must be called when it is done.
func (s *Scheduler) claim(card *Card) (release func(), ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil || s.current.ID != card.ID {
		return nil, false
	}
	s.current = nil
	tracked := !s.stopping
	if tracked {
		s.inflight.Add(1)
	}
	return func() { s.release(tracked) }, true
}

// release resumes card pop-ups after a card closed
func (s *Scheduler) release(tracked bool) {
	s.deps.Pause.ResumeActivity(pause.ReasonCardVisible)

	s.mu.Lock()
	if s.state == StateShowing {
		s.state = StateWaiting
	}
	s.mu.Unlock()

	if tracked {
		s.inflight.Done()
	}
}

// OnFrequencyChanged recomputes the global gate keeping the elapsed part
// of the interval in flight
func (s *Scheduler) OnFrequencyChanged(frequency time.Duration) {
	now := s.deps.Now()

	s.mu.Lock()
	old := s.frequency
	s.frequency = frequency
	s.nextShow = RescheduleOnFrequencyChange(now, s.lastShow, frequency, s.pausedSinceShowLocked())
	next := s.nextShow
	s.mu.Unlock()

	s.deps.Logger.Info("Card show frequency changed",
		zap.Duration("old", old),
		zap.Duration("new", frequency),
		zap.Time("next_show", next),
	)
}

// RescheduleOnFrequencyChange returns now + max(0, interval - elapsed)
// where elapsed is the unpaused time since lastShow
func RescheduleOnFrequencyChange(now, lastShow time.Time, interval, paused time.Duration) time.Time {
	if lastShow.IsZero() {
		return now
	}
	remaining := interval - (now.Sub(lastShow) - paused)
	if remaining < 0 {
		remaining = 0
	}
	return now.Add(remaining)
}

func (s *Scheduler) handleEvent(e events.Event) {
	switch ev := e.(type) {
	case events.FrequencyChanged:
		s.OnFrequencyChanged(ev.New)
	case events.ActiveChanged:
		s.setActive(ev.Active)
	case events.LearningInfoChanged:
		// An edited entry gets another chance right away
		s.mu.Lock()
		delete(s.skipped, ev.Info.Key)
		s.mu.Unlock()
	}
}

// setActive maps the inactive mode onto its pause reason
func (s *Scheduler) setActive(active bool) {
	s.mu.Lock()
	changed := s.inactive == active
	s.inactive = !active
	s.mu.Unlock()

	if !changed {
		return
	}
	if active {
		s.deps.Pause.ResumeActivity(pause.ReasonInactive)
	} else {
		s.deps.Pause.PauseActivity(pause.ReasonInactive, "settings")
	}
}

// pausedSinceShowLocked returns how long card pop-ups were paused since the last show
func (s *Scheduler) pausedSinceShowLocked() time.Duration {
	if d := s.deps.Pause.PausedTime() - s.pauseMark; d > 0 {
		return d
	}
	return 0
}

func (s *Scheduler) excludedLocked(now time.Time) []domain.TranslationEntryKey {
	var keys []domain.TranslationEntryKey
	for key, until := range s.skipped {
		if now.Before(until) {
			keys = append(keys, key)
		} else {
			delete(s.skipped, key)
		}
	}
	return keys
}

// Status returns a snapshot of the scheduler state
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		State:     s.state,
		NextShow:  s.nextShow,
		LastShow:  s.lastShow,
		Frequency: s.frequency,
		Current:   s.current,
	}
}
