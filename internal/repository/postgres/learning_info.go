package postgres

import (
	"context"
	"database/sql"
	"time"

	"wordflash/internal/domain"
)

// LearningInfoRepo implements repository.LearningInfoRepository
type LearningInfoRepo struct {
	db *sql.DB
}

// NewLearningInfoRepo creates a new learning info repository
func NewLearningInfoRepo(db *sql.DB) *LearningInfoRepo {
	return &LearningInfoRepo{db: db}
}

const learningInfoColumns = `text, source_lang, target_lang, repeat_type, show_count, is_favorited,
	last_card_show_time, next_card_show_time, created_date, modified_date`

// GetByID returns nil, nil when the entry has no learning info yet
func (r *LearningInfoRepo) GetByID(ctx context.Context, key domain.TranslationEntryKey) (*domain.LearningInfo, error) {
	query := `
		SELECT ` + learningInfoColumns + `
		FROM learning_info
		WHERE text = $1 AND source_lang = $2 AND target_lang = $3
	`
	info, err := scanLearningInfo(r.db.QueryRowContext(ctx, query, key.Text, key.SourceLang, key.TargetLang))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return info, err
}

// GetOrInsert returns the stored learning info, creating a floor level
// record due at now when there is none
func (r *LearningInfoRepo) GetOrInsert(ctx context.Context, key domain.TranslationEntryKey, now time.Time) (*domain.LearningInfo, error) {
	fresh := domain.NewLearningInfo(key, now)

	// The no-op update makes RETURNING yield the existing row on conflict
	query := `
		INSERT INTO learning_info (text, source_lang, target_lang, repeat_type, show_count, is_favorited,
			next_card_show_time, created_date, modified_date)
		VALUES ($1, $2, $3, $4, 0, FALSE, $5, $5, $5)
		ON CONFLICT (text, source_lang, target_lang)
		DO UPDATE SET text = EXCLUDED.text
		RETURNING ` + learningInfoColumns
	return scanLearningInfo(r.db.QueryRowContext(ctx, query,
		key.Text, key.SourceLang, key.TargetLang, int(fresh.RepeatType), now,
	))
}

// Update persists every mutable field of info
func (r *LearningInfoRepo) Update(ctx context.Context, info *domain.LearningInfo) error {
	var lastShow sql.NullTime
	if info.LastCardShowTime != nil {
		lastShow = sql.NullTime{Time: *info.LastCardShowTime, Valid: true}
	}

	query := `
		UPDATE learning_info
		SET repeat_type = $4, show_count = $5, is_favorited = $6,
			last_card_show_time = $7, next_card_show_time = $8, modified_date = $9
		WHERE text = $1 AND source_lang = $2 AND target_lang = $3
	`
	result, err := r.db.ExecContext(ctx, query,
		info.Key.Text, info.Key.SourceLang, info.Key.TargetLang,
		int(info.RepeatType), info.ShowCount, info.IsFavorited,
		lastShow, info.NextCardShowTime, info.ModifiedDate,
	)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// LatestShowTime returns the newest show time over all entries, nil if none was shown
func (r *LearningInfoRepo) LatestShowTime(ctx context.Context) (*time.Time, error) {
	var latest sql.NullTime
	err := r.db.QueryRowContext(ctx, `SELECT MAX(last_card_show_time) FROM learning_info`).Scan(&latest)
	if err != nil {
		return nil, err
	}
	if !latest.Valid {
		return nil, nil
	}
	return &latest.Time, nil
}

// CountByRepeatType returns the number of entries per level
func (r *LearningInfoRepo) CountByRepeatType(ctx context.Context) (map[domain.RepeatType]int, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT repeat_type, COUNT(*)
		FROM learning_info
		GROUP BY repeat_type
		ORDER BY repeat_type
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.RepeatType]int)
	for rows.Next() {
		var level, count int
		if err := rows.Scan(&level, &count); err != nil {
			return nil, err
		}
		counts[domain.RepeatType(level)] = count
	}

	return counts, rows.Err()
}

// CountFavorites returns the number of favorited entries
func (r *LearningInfoRepo) CountFavorites(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM learning_info WHERE is_favorited = TRUE`).Scan(&count)
	return count, err
}

func scanLearningInfo(row *sql.Row) (*domain.LearningInfo, error) {
	var info domain.LearningInfo
	var level int
	var lastShow sql.NullTime

	err := row.Scan(
		&info.Key.Text, &info.Key.SourceLang, &info.Key.TargetLang,
		&level, &info.ShowCount, &info.IsFavorited,
		&lastShow, &info.NextCardShowTime, &info.CreatedDate, &info.ModifiedDate,
	)
	if err != nil {
		return nil, err
	}

	// Out of range levels are left for the learning service to reject or clamp
	info.RepeatType = domain.RepeatType(level)
	if lastShow.Valid {
		info.LastCardShowTime = &lastShow.Time
	}
	return &info, nil
}
