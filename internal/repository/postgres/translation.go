package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"wordflash/internal/domain"

	"github.com/lib/pq"
)

// TranslationEntryRepo implements repository.TranslationEntryRepository
type TranslationEntryRepo struct {
	db *sql.DB
}

// NewTranslationEntryRepo creates a new translation entry repository
func NewTranslationEntryRepo(db *sql.DB) *TranslationEntryRepo {
	return &TranslationEntryRepo{db: db}
}

const entryColumns = `e.text, e.source_lang, e.target_lang, e.translations, e.created_at, e.hidden_until, e.hidden_forever`

// GetCurrentEligible returns the least recently shown visible entry that is due.
// Entries without learning info have never been shown and come first.
func (r *TranslationEntryRepo) GetCurrentEligible(ctx context.Context, now time.Time, exclude []domain.TranslationEntryKey) (*domain.TranslationEntry, error) {
	skip := make([]string, 0, len(exclude))
	for _, key := range exclude {
		skip = append(skip, key.String())
	}

	query := `
		SELECT ` + entryColumns + `
		FROM translation_entries e
		LEFT JOIN learning_info li
			ON li.text = e.text AND li.source_lang = e.source_lang AND li.target_lang = e.target_lang
		WHERE e.hidden_forever = FALSE
			AND (e.hidden_until IS NULL OR e.hidden_until <= $1)
			AND (li.next_card_show_time IS NULL OR li.next_card_show_time <= $1)
			AND NOT (e.text || '|' || e.source_lang || '|' || e.target_lang = ANY($2))
		ORDER BY li.last_card_show_time ASC NULLS FIRST, e.created_at ASC
		LIMIT 1
	`
	entry, err := scanEntry(r.db.QueryRowContext(ctx, query, now, pq.Array(skip)))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// GetByKey returns nil, nil when the entry does not exist
func (r *TranslationEntryRepo) GetByKey(ctx context.Context, key domain.TranslationEntryKey) (*domain.TranslationEntry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM translation_entries e
		WHERE e.text = $1 AND e.source_lang = $2 AND e.target_lang = $3
	`
	entry, err := scanEntry(r.db.QueryRowContext(ctx, query, key.Text, key.SourceLang, key.TargetLang))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Save inserts the entry or replaces its translations
func (r *TranslationEntryRepo) Save(ctx context.Context, entry *domain.TranslationEntry) error {
	translations, err := json.Marshal(entry.Translations)
	if err != nil {
		return fmt.Errorf("failed to encode translations: %w", err)
	}

	query := `
		INSERT INTO translation_entries (text, source_lang, target_lang, translations, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (text, source_lang, target_lang)
		DO UPDATE SET translations = EXCLUDED.translations
	`
	_, err = r.db.ExecContext(ctx, query,
		entry.Key.Text, entry.Key.SourceLang, entry.Key.TargetLang, translations, entry.CreatedAt,
	)
	return err
}

// Hide keeps the entry out of rotation until the given time
func (r *TranslationEntryRepo) Hide(ctx context.Context, key domain.TranslationEntryKey, until time.Time) error {
	query := `
		UPDATE translation_entries
		SET hidden_until = $4
		WHERE text = $1 AND source_lang = $2 AND target_lang = $3
	`
	_, err := r.db.ExecContext(ctx, query, key.Text, key.SourceLang, key.TargetLang, until)
	return err
}

// HideForever permanently removes the entry from rotation
func (r *TranslationEntryRepo) HideForever(ctx context.Context, key domain.TranslationEntryKey) error {
	query := `
		UPDATE translation_entries
		SET hidden_forever = TRUE
		WHERE text = $1 AND source_lang = $2 AND target_lang = $3
	`
	_, err := r.db.ExecContext(ctx, query, key.Text, key.SourceLang, key.TargetLang)
	return err
}

func scanEntry(row *sql.Row) (*domain.TranslationEntry, error) {
	var e domain.TranslationEntry
	var translations []byte
	var hiddenUntil sql.NullTime

	err := row.Scan(
		&e.Key.Text, &e.Key.SourceLang, &e.Key.TargetLang,
		&translations, &e.CreatedAt, &hiddenUntil, &e.HiddenForever,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(translations, &e.Translations); err != nil {
		return nil, fmt.Errorf("failed to decode translations of %s: %w", e.Key, err)
	}
	if hiddenUntil.Valid {
		e.HiddenUntil = &hiddenUntil.Time
	}

	return &e, nil
}
