package testutil

import (
	"time"

	"wordflash/internal/domain"

	"go.uber.org/zap"
)

// NewTestLogger creates a no-op logger for tests
func NewTestLogger() *zap.Logger {
	return zap.NewNop()
}

// NewTestUser creates a test user
func NewTestUser(userID int64, authorized bool) *domain.User {
	return &domain.User{
		UserID:     userID,
		Authorized: authorized,
		CreatedAt:  time.Now(),
	}
}

// NewTestKey creates an en->ru entry key
func NewTestKey(text string) domain.TranslationEntryKey {
	return domain.TranslationEntryKey{Text: text, SourceLang: "en", TargetLang: "ru"}
}

// NewTestEntry creates an entry with a single part of speech group
func NewTestEntry(text string, pos domain.PartOfSpeech, variants ...domain.TranslationVariant) *domain.TranslationEntry {
	return &domain.TranslationEntry{
		Key: NewTestKey(text),
		Translations: []domain.PartOfSpeechTranslation{
			{PartOfSpeech: pos, Text: text, Variants: variants},
		},
		CreatedAt: time.Now(),
	}
}

// Variant creates a translation variant
func Variant(text string, synonyms ...string) domain.TranslationVariant {
	return domain.TranslationVariant{Text: text, Synonyms: synonyms}
}
