package service

import (
	"context"
	"fmt"
	"strings"

	"wordflash/internal/domain"
	"wordflash/internal/repository"
)

// PriorityService manages pinned translation words
type PriorityService struct {
	priorityRepo repository.PriorityWordRepository
	entryRepo    repository.TranslationEntryRepository
}

// NewPriorityService creates a new priority service
func NewPriorityService(priorityRepo repository.PriorityWordRepository, entryRepo repository.TranslationEntryRepository) *PriorityService {
	return &PriorityService{
		priorityRepo: priorityRepo,
		entryRepo:    entryRepo,
	}
}

// List returns the pinned words of an entry
func (s *PriorityService) List(ctx context.Context, key domain.TranslationEntryKey) ([]string, error) {
	return s.priorityRepo.List(ctx, key)
}

// Toggle pins word when it is not pinned and unpins it otherwise.
// Returns whether the word is pinned afterwards.
func (s *PriorityService) Toggle(ctx context.Context, key domain.TranslationEntryKey, word string) (bool, error) {
	word = strings.TrimSpace(word)

	pinned, err := s.priorityRepo.List(ctx, key)
	if err != nil {
		return false, err
	}
	if domain.NewPriorityWords(pinned...).Contains(word) {
		return false, s.Unmark(ctx, key, word)
	}
	return true, s.Mark(ctx, key, word)
}

// Mark pins a translation word of an entry
func (s *PriorityService) Mark(ctx context.Context, key domain.TranslationEntryKey, word string) error {
	entry, err := s.entryRepo.GetByKey(ctx, key)
	if err != nil {
		return err
	}
	if entry == nil {
		return fmt.Errorf("%s: %w", key, domain.ErrNotFound)
	}

	variant, ok := findVariant(entry, word)
	if !ok {
		return fmt.Errorf("translation %q of %s: %w", word, key, domain.ErrNotFound)
	}
	return s.priorityRepo.Add(ctx, key, variant)
}

// Unmark unpins a translation word. Removing the last pinned word restores
// the unfiltered candidate set.
func (s *PriorityService) Unmark(ctx context.Context, key domain.TranslationEntryKey, word string) error {
	pinned, err := s.priorityRepo.List(ctx, key)
	if err != nil {
		return err
	}
	for _, p := range pinned {
		if strings.EqualFold(p, strings.TrimSpace(word)) {
			return s.priorityRepo.Remove(ctx, key, p)
		}
	}
	return nil
}

// findVariant returns the stored spelling of a translation variant
func findVariant(entry *domain.TranslationEntry, word string) (string, bool) {
	for _, pos := range entry.Translations {
		for _, v := range pos.Variants {
			if strings.EqualFold(strings.TrimSpace(v.Text), strings.TrimSpace(word)) {
				return v.Text, true
			}
		}
	}
	return "", false
}
