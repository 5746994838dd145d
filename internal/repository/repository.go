package repository

import (
	"context"
	"time"

	"wordflash/internal/domain"
)

// UserRepository defines user data operations
type UserRepository interface {
	// Upsert returns the user, registering it unauthorized on first contact
	Upsert(ctx context.Context, userID int64) (*domain.User, error)
	Authorize(ctx context.Context, userID int64) error
	ListAuthorized(ctx context.Context) ([]int64, error)
}

// LearningInfoRepository defines learning progress operations
type LearningInfoRepository interface {
	// GetByID returns nil, nil when the entry has no learning info yet
	GetByID(ctx context.Context, key domain.TranslationEntryKey) (*domain.LearningInfo, error)
	GetOrInsert(ctx context.Context, key domain.TranslationEntryKey, now time.Time) (*domain.LearningInfo, error)
	Update(ctx context.Context, info *domain.LearningInfo) error
	LatestShowTime(ctx context.Context) (*time.Time, error)
	CountByRepeatType(ctx context.Context) (map[domain.RepeatType]int, error)
	CountFavorites(ctx context.Context) (int, error)
}

// TranslationEntryRepository defines vocabulary entry operations
type TranslationEntryRepository interface {
	// GetCurrentEligible returns the least recently shown visible entry whose
	// next show time is not after now, or nil, nil when none is due
	GetCurrentEligible(ctx context.Context, now time.Time, exclude []domain.TranslationEntryKey) (*domain.TranslationEntry, error)
	GetByKey(ctx context.Context, key domain.TranslationEntryKey) (*domain.TranslationEntry, error)
	Save(ctx context.Context, entry *domain.TranslationEntry) error
	Hide(ctx context.Context, key domain.TranslationEntryKey, until time.Time) error
	HideForever(ctx context.Context, key domain.TranslationEntryKey) error
}

// PriorityWordRepository defines pinned translation word operations
type PriorityWordRepository interface {
	List(ctx context.Context, key domain.TranslationEntryKey) ([]string, error)
	Add(ctx context.Context, key domain.TranslationEntryKey, word string) error
	Remove(ctx context.Context, key domain.TranslationEntryKey, word string) error
}

// SettingsRepository gives read-only access to the learning settings
type SettingsRepository interface {
	Settings() domain.Settings
}
