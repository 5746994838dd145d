package testutil

import (
	"context"
	"sync"
	"time"

	"wordflash/internal/domain"

	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock for UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Upsert(ctx context.Context, userID int64) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) Authorize(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockUserRepository) ListAuthorized(ctx context.Context) ([]int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

// MockLearningInfoRepository is a mock for LearningInfoRepository
type MockLearningInfoRepository struct {
	mock.Mock
}

func (m *MockLearningInfoRepository) GetByID(ctx context.Context, key domain.TranslationEntryKey) (*domain.LearningInfo, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LearningInfo), args.Error(1)
}

func (m *MockLearningInfoRepository) GetOrInsert(ctx context.Context, key domain.TranslationEntryKey, now time.Time) (*domain.LearningInfo, error) {
	args := m.Called(ctx, key, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LearningInfo), args.Error(1)
}

func (m *MockLearningInfoRepository) Update(ctx context.Context, info *domain.LearningInfo) error {
	args := m.Called(ctx, info)
	return args.Error(0)
}

func (m *MockLearningInfoRepository) LatestShowTime(ctx context.Context) (*time.Time, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*time.Time), args.Error(1)
}

func (m *MockLearningInfoRepository) CountByRepeatType(ctx context.Context) (map[domain.RepeatType]int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[domain.RepeatType]int), args.Error(1)
}

func (m *MockLearningInfoRepository) CountFavorites(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// MockTranslationEntryRepository is a mock for TranslationEntryRepository
type MockTranslationEntryRepository struct {
	mock.Mock
}

func (m *MockTranslationEntryRepository) GetCurrentEligible(ctx context.Context, now time.Time, exclude []domain.TranslationEntryKey) (*domain.TranslationEntry, error) {
	args := m.Called(ctx, now, exclude)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TranslationEntry), args.Error(1)
}

func (m *MockTranslationEntryRepository) GetByKey(ctx context.Context, key domain.TranslationEntryKey) (*domain.TranslationEntry, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TranslationEntry), args.Error(1)
}

func (m *MockTranslationEntryRepository) Save(ctx context.Context, entry *domain.TranslationEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockTranslationEntryRepository) Hide(ctx context.Context, key domain.TranslationEntryKey, until time.Time) error {
	args := m.Called(ctx, key, until)
	return args.Error(0)
}

func (m *MockTranslationEntryRepository) HideForever(ctx context.Context, key domain.TranslationEntryKey) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// MockPriorityWordRepository is a mock for PriorityWordRepository
type MockPriorityWordRepository struct {
	mock.Mock
}

func (m *MockPriorityWordRepository) List(ctx context.Context, key domain.TranslationEntryKey) ([]string, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockPriorityWordRepository) Add(ctx context.Context, key domain.TranslationEntryKey, word string) error {
	args := m.Called(ctx, key, word)
	return args.Error(0)
}

func (m *MockPriorityWordRepository) Remove(ctx context.Context, key domain.TranslationEntryKey, word string) error {
	args := m.Called(ctx, key, word)
	return args.Error(0)
}

// StaticSettings implements SettingsRepository with fixed values
type StaticSettings struct {
	mu  sync.Mutex
	cfg domain.Settings
}

// NewStaticSettings creates a settings source returning cfg
func NewStaticSettings(cfg domain.Settings) *StaticSettings {
	return &StaticSettings{cfg: cfg}
}

func (s *StaticSettings) Settings() domain.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// Set replaces the returned settings
func (s *StaticSettings) Set(cfg domain.Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
}
