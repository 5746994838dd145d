package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"wordflash/internal/domain"
	"wordflash/internal/pause"
	"wordflash/internal/repository"

	"go.uber.org/zap"
)

// WordService handles vocabulary entry business logic
type WordService struct {
	entryRepo  repository.TranslationEntryRepository
	pause      *pause.Coordinator
	sourceLang string
	targetLang string
	now        func() time.Time
	logger     *zap.Logger
}

// NewWordService creates a new word service
func NewWordService(
	entryRepo repository.TranslationEntryRepository,
	coordinator *pause.Coordinator,
	sourceLang, targetLang string,
	logger *zap.Logger,
) *WordService {
	return &WordService{
		entryRepo:  entryRepo,
		pause:      coordinator,
		sourceLang: sourceLang,
		targetLang: targetLang,
		now:        time.Now,
		logger:     logger,
	}
}

// Key builds an entry key in the configured language pair
func (s *WordService) Key(word string) domain.TranslationEntryKey {
	return domain.TranslationEntryKey{
		Text:       strings.TrimSpace(word),
		SourceLang: s.sourceLang,
		TargetLang: s.targetLang,
	}
}

// SaveWordPair saves a word with comma separated translations
func (s *WordService) SaveWordPair(ctx context.Context, word, translations string) error {
	word = strings.TrimSpace(word)
	variants := ParseVariants(translations)
	if word == "" || len(variants) == 0 {
		return fmt.Errorf("word and translation cannot be empty")
	}

	return s.AddEntry(ctx, &domain.TranslationEntry{
		Key: s.Key(word),
		Translations: []domain.PartOfSpeechTranslation{
			{PartOfSpeech: domain.PartOfSpeechUnknown, Text: word, Variants: variants},
		},
	})
}

// AddEntry stores a translation entry
func (s *WordService) AddEntry(ctx context.Context, entry *domain.TranslationEntry) error {
	if strings.TrimSpace(entry.Key.Text) == "" {
		return fmt.Errorf("entry text cannot be empty")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now()
	}
	if err := s.entryRepo.Save(ctx, entry); err != nil {
		return fmt.Errorf("failed to save entry: %w", err)
	}
	return nil
}

// GetEntry returns the entry stored for word
func (s *WordService) GetEntry(ctx context.Context, word string) (*domain.TranslationEntry, error) {
	entry, err := s.entryRepo.GetByKey(ctx, s.Key(word))
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, fmt.Errorf("%q: %w", word, domain.ErrNotFound)
	}
	return entry, nil
}

// Import stores every "word - t1, t2" line. Card pop-ups stay paused while
// the import runs. Returns the number of stored entries.
func (s *WordService) Import(ctx context.Context, text string) (int, error) {
	s.pause.PauseActivity(pause.ReasonOperation, "import")
	defer s.pause.ResumeActivity(pause.ReasonOperation)

	imported := 0
	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		word, translations, ok := splitImportLine(line)
		if !ok {
			s.logger.Warn("Skipping malformed import line", zap.Int("line", i+1), zap.String("text", line))
			continue
		}

		if err := s.SaveWordPair(ctx, word, translations); err != nil {
			return imported, fmt.Errorf("line %d: %w", i+1, err)
		}
		imported++
	}

	s.logger.Info("Import completed", zap.Int("imported", imported))
	return imported, nil
}

// HideWordFor7Days hides an entry from rotation for 7 days
func (s *WordService) HideWordFor7Days(ctx context.Context, key domain.TranslationEntryKey) error {
	return s.entryRepo.Hide(ctx, key, s.now().Add(7*24*time.Hour))
}

// HideWordForever permanently hides an entry from rotation
func (s *WordService) HideWordForever(ctx context.Context, key domain.TranslationEntryKey) error {
	return s.entryRepo.HideForever(ctx, key)
}

// ParseVariants splits comma or semicolon separated translations.
// "a / b" marks b as a synonym of a.
func ParseVariants(text string) []domain.TranslationVariant {
	var variants []domain.TranslationVariant
	for _, part := range strings.FieldsFunc(text, func(r rune) bool { return r == ',' || r == ';' }) {
		words := strings.Split(part, "/")
		main := strings.TrimSpace(words[0])
		if main == "" {
			continue
		}
		v := domain.TranslationVariant{Text: main}
		for _, syn := range words[1:] {
			if syn = strings.TrimSpace(syn); syn != "" {
				v.Synonyms = append(v.Synonyms, syn)
			}
		}
		variants = append(variants, v)
	}
	return variants
}

func splitImportLine(line string) (string, string, bool) {
	for _, sep := range []string{" - ", "\t", " — ", "="} {
		if word, rest, found := strings.Cut(line, sep); found {
			word, rest = strings.TrimSpace(word), strings.TrimSpace(rest)
			if word != "" && rest != "" {
				return word, rest, true
			}
		}
	}
	return "", "", false
}
