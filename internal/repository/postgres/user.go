package postgres

import (
	"context"
	"database/sql"

	"wordflash/internal/domain"
)

// UserRepo implements repository.UserRepository
type UserRepo struct {
	db *sql.DB
}

// NewUserRepo creates a new user repository
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

// Upsert registers the user on first contact and returns the stored row
func (r *UserRepo) Upsert(ctx context.Context, userID int64) (*domain.User, error) {
	// The no-op update makes RETURNING yield the existing row on conflict
	query := `
		INSERT INTO users (user_id, authorized)
		VALUES ($1, FALSE)
		ON CONFLICT (user_id)
		DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING user_id, authorized, created_at
	`
	var u domain.User
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&u.UserID, &u.Authorized, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Authorize grants the user access to cards and commands
func (r *UserRepo) Authorize(ctx context.Context, userID int64) error {
	query := `
		INSERT INTO users (user_id, authorized)
		VALUES ($1, TRUE)
		ON CONFLICT (user_id)
		DO UPDATE SET authorized = TRUE
	`
	_, err := r.db.ExecContext(ctx, query, userID)
	return err
}

// ListAuthorized returns the ids of all authorized users
func (r *UserRepo) ListAuthorized(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT user_id FROM users WHERE authorized = TRUE ORDER BY user_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}
