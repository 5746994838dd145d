package assessment

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"
	"unicode"

	"wordflash/internal/domain"
	"wordflash/internal/repository"

	"go.uber.org/zap"
)

// Rand is the random source used for direction and prompt choices
type Rand interface {
	Intn(n int) int
}

// lockedRand makes math/rand sources safe for concurrent use
type lockedRand struct {
	mu  sync.Mutex
	src *rand.Rand
}

// NewRand returns a concurrency-safe random source seeded with seed
func NewRand(seed int64) Rand {
	return &lockedRand{src: rand.New(rand.NewSource(seed))}
}

func (r *lockedRand) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.src.Intn(n)
}

// group is one candidate translation variant with its synonyms
type group struct {
	source       string
	partOfSpeech domain.PartOfSpeech
	display      string
	words        []string
}

// Selector builds quizzes for translation entries
type Selector struct {
	settings repository.SettingsRepository
	priority repository.PriorityWordRepository
	rand     Rand
	logger   *zap.Logger
}

// NewSelector creates a new selector. A nil rnd falls back to a time-seeded source.
func NewSelector(
	settings repository.SettingsRepository,
	priority repository.PriorityWordRepository,
	rnd Rand,
	logger *zap.Logger,
) *Selector {
	if rnd == nil {
		rnd = NewRand(time.Now().UnixNano())
	}
	return &Selector{
		settings: settings,
		priority: priority,
		rand:     rnd,
		logger:   logger,
	}
}

// ProvideAssessmentInfo picks the quiz direction, prompt and accepted answers
// for entry. Returns domain.ErrNoTranslations when no candidate remains.
func (s *Selector) ProvideAssessmentInfo(ctx context.Context, entry *domain.TranslationEntry) (*domain.AssessmentInfo, error) {
	cfg := s.settings.Settings()

	pinned, err := s.priority.List(ctx, entry.Key)
	if err != nil {
		return nil, fmt.Errorf("failed to load priority words: %w", err)
	}

	groups := filterPriority(buildGroups(entry), domain.NewPriorityWords(pinned...))
	if len(groups) == 0 {
		return nil, fmt.Errorf("%s: %w", entry.Key, domain.ErrNoTranslations)
	}

	reverse := cfg.ReverseTranslation && s.rand.Intn(2) == 1

	var info *domain.AssessmentInfo
	if reverse {
		info = s.reverse(entry, groups, cfg.RandomTranslation)
	} else {
		info = forward(entry, groups)
	}

	s.logger.Debug("Assessment prepared",
		zap.String("entry", entry.Key.String()),
		zap.String("prompt", info.Word),
		zap.Bool("reverse", info.IsReverse),
		zap.Int("accepted", len(info.AcceptedAnswers)),
	)
	return info, nil
}

func forward(entry *domain.TranslationEntry, groups []group) *domain.AssessmentInfo {
	first := groups[0]

	seen := make(map[string]struct{})
	var accepted []string
	for _, g := range groups {
		for _, w := range g.words {
			k := Normalize(w)
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			accepted = append(accepted, w)
		}
	}

	prompt := first.source
	if entry.Key.SourceLang == domain.LanguageEnglish && first.partOfSpeech == domain.PartOfSpeechVerb {
		prompt = FormatVerb(prompt)
	}

	return &domain.AssessmentInfo{
		Word:            prompt,
		CorrectAnswer:   first.display,
		AcceptedAnswers: accepted,
		PartOfSpeech:    first.partOfSpeech,
	}
}

func (s *Selector) reverse(entry *domain.TranslationEntry, groups []group, random bool) *domain.AssessmentInfo {
	chosen := groups[0]
	if random && len(groups) > 1 {
		chosen = groups[s.rand.Intn(len(groups))]
	}

	return &domain.AssessmentInfo{
		Word:            chosen.display,
		CorrectAnswer:   chosen.source,
		AcceptedAnswers: []string{chosen.source},
		IsReverse:       true,
		PartOfSpeech:    chosen.partOfSpeech,
	}
}

// buildGroups flattens the part of speech translations into variant groups
func buildGroups(entry *domain.TranslationEntry) []group {
	var groups []group
	for _, pos := range entry.Translations {
		source := entry.SourceText(pos)
		for _, v := range pos.Variants {
			text := strings.TrimSpace(v.Text)
			if text == "" {
				continue
			}
			words := []string{text}
			for _, syn := range v.Synonyms {
				if syn = strings.TrimSpace(syn); syn != "" {
					words = append(words, syn)
				}
			}
			groups = append(groups, group{
				source:       source,
				partOfSpeech: pos.PartOfSpeech,
				display:      text,
				words:        words,
			})
		}
	}
	return groups
}

// filterPriority keeps only pinned groups when any group is pinned
func filterPriority(groups []group, pinned domain.PriorityWords) []group {
	if len(pinned) == 0 {
		return groups
	}

	var kept []group
	for _, g := range groups {
		if pinned.Contains(g.display) {
			kept = append(kept, g)
		}
	}
	if len(kept) == 0 {
		return groups
	}
	return kept
}

// FormatVerb prefixes an English verb with "to", capitalized unless the
// word already carries capitals
func FormatVerb(word string) string {
	for _, r := range word {
		if unicode.IsUpper(r) {
			return "to " + word
		}
	}
	return "To " + word
}
