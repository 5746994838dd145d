package domain

import (
	"strings"
	"time"
)

// PartOfSpeech of a translated word form
type PartOfSpeech string

const (
	PartOfSpeechUnknown     PartOfSpeech = "unknown"
	PartOfSpeechNoun        PartOfSpeech = "noun"
	PartOfSpeechVerb        PartOfSpeech = "verb"
	PartOfSpeechAdjective   PartOfSpeech = "adjective"
	PartOfSpeechAdverb      PartOfSpeech = "adverb"
	PartOfSpeechPhrase      PartOfSpeech = "phrase"
	PartOfSpeechPreposition PartOfSpeech = "preposition"
)

// LanguageEnglish is the code of the language verb prompts are formatted for
const LanguageEnglish = "en"

// TranslationVariant is one target-side translation and its synonyms
type TranslationVariant struct {
	Text     string   `json:"text"`
	Synonyms []string `json:"synonyms,omitempty"`
}

// PartOfSpeechTranslation groups translation variants by part of speech
type PartOfSpeechTranslation struct {
	PartOfSpeech PartOfSpeech         `json:"part_of_speech"`
	Text         string               `json:"text"`
	Variants     []TranslationVariant `json:"variants"`
}

// TranslationEntry is a vocabulary entry with its translations
type TranslationEntry struct {
	Key           TranslationEntryKey
	Translations  []PartOfSpeechTranslation
	CreatedAt     time.Time
	HiddenUntil   *time.Time
	HiddenForever bool
}

// SourceText returns the source-side word for a part of speech group
func (e *TranslationEntry) SourceText(pos PartOfSpeechTranslation) string {
	if strings.TrimSpace(pos.Text) != "" {
		return pos.Text
	}
	return e.Key.Text
}

// PriorityWords is the set of pinned translation words of one entry
type PriorityWords map[string]struct{}

// NewPriorityWords builds a set from words, ignoring case
func NewPriorityWords(words ...string) PriorityWords {
	set := make(PriorityWords, len(words))
	for _, w := range words {
		set.Add(w)
	}
	return set
}

// Add pins a word
func (p PriorityWords) Add(word string) {
	p[strings.ToLower(strings.TrimSpace(word))] = struct{}{}
}

// Remove unpins a word
func (p PriorityWords) Remove(word string) {
	delete(p, strings.ToLower(strings.TrimSpace(word)))
}

// Contains reports whether word is pinned
func (p PriorityWords) Contains(word string) bool {
	_, ok := p[strings.ToLower(strings.TrimSpace(word))]
	return ok
}
