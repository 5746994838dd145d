package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"wordflash/internal/domain"
)

// MemoryStore is an in-memory implementation of the learning, entry and
// priority word repositories for scenario tests
type MemoryStore struct {
	mu       sync.Mutex
	entries  map[domain.TranslationEntryKey]*domain.TranslationEntry
	learning map[domain.TranslationEntryKey]*domain.LearningInfo
	priority map[domain.TranslationEntryKey][]string
	order    []domain.TranslationEntryKey

	// EligibleErr is returned by GetCurrentEligible when set
	EligibleErr error
	// Updates counts Update calls
	Updates int
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries:  make(map[domain.TranslationEntryKey]*domain.TranslationEntry),
		learning: make(map[domain.TranslationEntryKey]*domain.LearningInfo),
		priority: make(map[domain.TranslationEntryKey][]string),
	}
}

// PutLearningInfo stores a copy of info
func (s *MemoryStore) PutLearningInfo(info *domain.LearningInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *info
	s.learning[info.Key] = &cp
}

func (s *MemoryStore) GetByID(_ context.Context, key domain.TranslationEntryKey) (*domain.LearningInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	info, ok := s.learning[key]
	if !ok {
		return nil, nil
	}
	cp := *info
	return &cp, nil
}

func (s *MemoryStore) GetOrInsert(_ context.Context, key domain.TranslationEntryKey, now time.Time) (*domain.LearningInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	info, ok := s.learning[key]
	if !ok {
		info = domain.NewLearningInfo(key, now)
		s.learning[key] = info
	}
	cp := *info
	return &cp, nil
}

func (s *MemoryStore) Update(_ context.Context, info *domain.LearningInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *info
	s.learning[info.Key] = &cp
	s.Updates++
	return nil
}

func (s *MemoryStore) LatestShowTime(_ context.Context) (*time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *time.Time
	for _, info := range s.learning {
		if info.LastCardShowTime != nil && (latest == nil || info.LastCardShowTime.After(*latest)) {
			t := *info.LastCardShowTime
			latest = &t
		}
	}
	return latest, nil
}

func (s *MemoryStore) CountByRepeatType(_ context.Context) (map[domain.RepeatType]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[domain.RepeatType]int)
	for _, info := range s.learning {
		counts[info.RepeatType]++
	}
	return counts, nil
}

func (s *MemoryStore) CountFavorites(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, info := range s.learning {
		if info.IsFavorited {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) GetCurrentEligible(_ context.Context, now time.Time, exclude []domain.TranslationEntryKey) (*domain.TranslationEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.EligibleErr != nil {
		return nil, s.EligibleErr
	}

	skip := make(map[domain.TranslationEntryKey]bool, len(exclude))
	for _, k := range exclude {
		skip[k] = true
	}

	var candidates []domain.TranslationEntryKey
	for _, key := range s.order {
		e := s.entries[key]
		if skip[key] || e.HiddenForever || (e.HiddenUntil != nil && e.HiddenUntil.After(now)) {
			continue
		}
		if info, ok := s.learning[key]; ok && !info.IsDue(now) {
			continue
		}
		candidates = append(candidates, key)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	// least recently shown first, never shown before everything else
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := s.learning[candidates[i]], s.learning[candidates[j]]
		switch {
		case a == nil || a.LastCardShowTime == nil:
			return b != nil && b.LastCardShowTime != nil
		case b == nil || b.LastCardShowTime == nil:
			return false
		default:
			return a.LastCardShowTime.Before(*b.LastCardShowTime)
		}
	})

	cp := *s.entries[candidates[0]]
	return &cp, nil
}

func (s *MemoryStore) GetByKey(_ context.Context, key domain.TranslationEntryKey) (*domain.TranslationEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (s *MemoryStore) Save(_ context.Context, entry *domain.TranslationEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[entry.Key]; !ok {
		s.order = append(s.order, entry.Key)
	}
	cp := *entry
	s.entries[entry.Key] = &cp
	return nil
}

func (s *MemoryStore) Hide(_ context.Context, key domain.TranslationEntryKey, until time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[key]; ok {
		e.HiddenUntil = &until
	}
	return nil
}

func (s *MemoryStore) HideForever(_ context.Context, key domain.TranslationEntryKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[key]; ok {
		e.HiddenForever = true
	}
	return nil
}

func (s *MemoryStore) List(_ context.Context, key domain.TranslationEntryKey) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.priority[key]...), nil
}

func (s *MemoryStore) Add(_ context.Context, key domain.TranslationEntryKey, word string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range s.priority[key] {
		if w == word {
			return nil
		}
	}
	s.priority[key] = append(s.priority[key], word)
	return nil
}

func (s *MemoryStore) Remove(_ context.Context, key domain.TranslationEntryKey, word string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	words := s.priority[key][:0]
	for _, w := range s.priority[key] {
		if w != word {
			words = append(words, w)
		}
	}
	s.priority[key] = words
	return nil
}
