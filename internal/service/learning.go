package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"wordflash/internal/domain"
	"wordflash/internal/events"
	"wordflash/internal/repository"

	"go.uber.org/zap"
)

// LearningService serializes read-modify-write of LearningInfo per entry
type LearningService struct {
	repo   repository.LearningInfoRepository
	bus    *events.Bus
	now    func() time.Time
	strict bool
	logger *zap.Logger

	// Per-entry locks, dropped once nobody holds or waits on them
	locks   map[domain.TranslationEntryKey]*entryLock
	locksMu sync.Mutex
}

type entryLock struct {
	mu   sync.Mutex
	refs int
}

// NewLearningService creates a new learning service. In strict mode a
// stored RepeatType outside the ladder panics instead of being clamped.
func NewLearningService(
	repo repository.LearningInfoRepository,
	bus *events.Bus,
	now func() time.Time,
	strict bool,
	logger *zap.Logger,
) *LearningService {
	if now == nil {
		now = time.Now
	}
	return &LearningService{
		repo:   repo,
		bus:    bus,
		now:    now,
		strict: strict,
		logger: logger,
		locks:  make(map[domain.TranslationEntryKey]*entryLock),
	}
}

// GetOrInsert returns the learning info of key, creating it at the ladder floor
func (s *LearningService) GetOrInsert(ctx context.Context, key domain.TranslationEntryKey) (*domain.LearningInfo, error) {
	unlock := s.lock(key)
	defer unlock()

	info, err := s.repo.GetOrInsert(ctx, key, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to get learning info: %w", err)
	}
	s.checkRepeatType(info)
	return info, nil
}

// MarkShown records a card show at now
func (s *LearningService) MarkShown(ctx context.Context, key domain.TranslationEntryKey, now time.Time) (*domain.LearningInfo, error) {
	return s.mutate(ctx, key, func(info *domain.LearningInfo) {
		info.MarkShown(now)
	})
}

// ApplyGrade promotes on an accepted answer and demotes otherwise
func (s *LearningService) ApplyGrade(ctx context.Context, key domain.TranslationEntryKey, accepted bool) (*domain.LearningInfo, error) {
	now := s.now()
	return s.mutate(ctx, key, func(info *domain.LearningInfo) {
		if accepted {
			info.Promote(now)
		} else {
			info.Demote(now)
		}
	})
}

// Promote moves the entry one level up
func (s *LearningService) Promote(ctx context.Context, key domain.TranslationEntryKey) (*domain.LearningInfo, error) {
	return s.ApplyGrade(ctx, key, true)
}

// Demote moves the entry one level down
func (s *LearningService) Demote(ctx context.Context, key domain.TranslationEntryKey) (*domain.LearningInfo, error) {
	return s.ApplyGrade(ctx, key, false)
}

// ToggleFavorite flips the favorite flag
func (s *LearningService) ToggleFavorite(ctx context.Context, key domain.TranslationEntryKey) (*domain.LearningInfo, error) {
	now := s.now()
	return s.mutate(ctx, key, func(info *domain.LearningInfo) {
		info.ToggleFavorite(now)
	})
}

// LatestShowTime returns the newest persisted card show time
func (s *LearningService) LatestShowTime(ctx context.Context) (*time.Time, error) {
	return s.repo.LatestShowTime(ctx)
}

// mutate applies fn to the latest stored state of key and persists it
func (s *LearningService) mutate(ctx context.Context, key domain.TranslationEntryKey, fn func(*domain.LearningInfo)) (*domain.LearningInfo, error) {
	unlock := s.lock(key)
	defer unlock()

	info, err := s.repo.GetOrInsert(ctx, key, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to get learning info: %w", err)
	}
	s.checkRepeatType(info)

	before := info.RepeatType
	fn(info)

	if err := s.repo.Update(ctx, info); err != nil {
		return nil, fmt.Errorf("failed to update learning info: %w", err)
	}

	s.logger.Debug("Learning info updated",
		zap.String("entry", key.String()),
		zap.Stringer("from", before),
		zap.Stringer("to", info.RepeatType),
		zap.Time("next_show", info.NextCardShowTime),
	)

	if s.bus != nil {
		s.bus.Publish(events.LearningInfoChanged{Info: *info})
	}
	return info, nil
}

func (s *LearningService) checkRepeatType(info *domain.LearningInfo) {
	rt, err := domain.ParseRepeatType(int(info.RepeatType))
	if err == nil {
		return
	}
	if s.strict {
		panic(fmt.Sprintf("learning info %s: %v", info.Key, err))
	}
	s.logger.Warn("Clamping repeat type",
		zap.String("entry", info.Key.String()),
		zap.Int("stored", int(info.RepeatType)),
		zap.Stringer("clamped", rt),
	)
	info.RepeatType = rt
}

// lock acquires the mutex of key and returns its release function
func (s *LearningService) lock(key domain.TranslationEntryKey) func() {
	s.locksMu.Lock()
	l, exists := s.locks[key]
	if !exists {
		l = &entryLock{}
		s.locks[key] = l
	}
	l.refs++
	s.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		s.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, key)
		}
		s.locksMu.Unlock()
	}
}
