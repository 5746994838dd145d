package postgres

import (
	"context"
	"database/sql"
	"strings"

	"wordflash/internal/domain"
)

// PriorityWordRepo implements repository.PriorityWordRepository
type PriorityWordRepo struct {
	db *sql.DB
}

// NewPriorityWordRepo creates a new priority word repository
func NewPriorityWordRepo(db *sql.DB) *PriorityWordRepo {
	return &PriorityWordRepo{db: db}
}

// List returns the pinned words of an entry in pin order
func (r *PriorityWordRepo) List(ctx context.Context, key domain.TranslationEntryKey) ([]string, error) {
	query := `
		SELECT word
		FROM priority_words
		WHERE text = $1 AND source_lang = $2 AND target_lang = $3
		ORDER BY created_at, word
	`
	rows, err := r.db.QueryContext(ctx, query, key.Text, key.SourceLang, key.TargetLang)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var words []string
	for rows.Next() {
		var w string
		if err := rows.Scan(&w); err != nil {
			return nil, err
		}
		words = append(words, w)
	}

	return words, rows.Err()
}

// Add pins word, pinning it twice is a no-op
func (r *PriorityWordRepo) Add(ctx context.Context, key domain.TranslationEntryKey, word string) error {
	query := `
		INSERT INTO priority_words (text, source_lang, target_lang, word)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (text, source_lang, target_lang, word) DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, query, key.Text, key.SourceLang, key.TargetLang, normalizeWord(word))
	return err
}

// Remove unpins word
func (r *PriorityWordRepo) Remove(ctx context.Context, key domain.TranslationEntryKey, word string) error {
	query := `
		DELETE FROM priority_words
		WHERE text = $1 AND source_lang = $2 AND target_lang = $3 AND word = $4
	`
	_, err := r.db.ExecContext(ctx, query, key.Text, key.SourceLang, key.TargetLang, normalizeWord(word))
	return err
}

func normalizeWord(word string) string {
	return strings.ToLower(strings.TrimSpace(word))
}
