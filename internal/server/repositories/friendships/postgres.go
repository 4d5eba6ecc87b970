// Package friendships provides the PostgreSQL-backed friendship store.
// Rows are kept in canonical order (user_a_id < user_b_id).
package friendships

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophfriends/internal/common"
	"github.com/dmitrijs2005/gophfriends/internal/dbx"
	"github.com/dmitrijs2005/gophfriends/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Exists(ctx context.Context, a, b string) (bool, error) {
	low, high := models.OrderedPair(a, b)
	query := `SELECT EXISTS (SELECT 1 FROM friendships WHERE user_a_id = $1 AND user_b_id = $2)`

	var ok bool
	if err := r.db.QueryRowContext(ctx, query, low, high).Scan(&ok); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return ok, nil
}

func (r *PostgresRepository) Get(ctx context.Context, a, b string) (*models.Friendship, error) {
	low, high := models.OrderedPair(a, b)
	query :=
		`SELECT id, user_a_id, user_a_username, user_b_id, user_b_username, created_at FROM friendships
		 WHERE user_a_id = $1 AND user_b_id = $2
		 `

	f := &models.Friendship{}
	err := r.db.QueryRowContext(ctx, query, low, high).
		Scan(&f.ID, &f.UserAID, &f.UserAName, &f.UserBID, &f.UserBName, &f.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return f, nil
}

func (r *PostgresRepository) Upsert(ctx context.Context, f *models.Friendship) (*models.Friendship, bool, error) {
	// callers build f with models.NewFriendship; reorder anyway
	if f.UserBID < f.UserAID {
		f.UserAID, f.UserBID = f.UserBID, f.UserAID
		f.UserAName, f.UserBName = f.UserBName, f.UserAName
	}

	query := `
		INSERT INTO friendships (id, user_a_id, user_a_username, user_b_id, user_b_username, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_a_id, user_b_id) DO NOTHING
	`
	res, err := r.db.ExecContext(ctx, query, f.ID, f.UserAID, f.UserAName, f.UserBID, f.UserBName, f.CreatedAt)
	if err != nil {
		return nil, false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("rows affected error: %w", err)
	}
	if n == 1 {
		return f, true, nil
	}

	existing, err := r.Get(ctx, f.UserAID, f.UserBID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, a, b string) (bool, error) {
	low, high := models.OrderedPair(a, b)
	query := `DELETE FROM friendships WHERE user_a_id = $1 AND user_b_id = $2`

	res, err := r.db.ExecContext(ctx, query, low, high)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected error: %w", err)
	}
	return n > 0, nil
}

func (r *PostgresRepository) ListForUser(ctx context.Context, userID string) ([]*models.Friendship, error) {
	query := `SELECT id, user_a_id, user_a_username, user_b_id, user_b_username, created_at FROM friendships
		 WHERE user_a_id = $1 OR user_b_id = $1
		 ORDER BY created_at DESC, id`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select friendships: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Friendship, 0)
	for rows.Next() {
		var f models.Friendship
		if err := rows.Scan(&f.ID, &f.UserAID, &f.UserAName, &f.UserBID, &f.UserBName, &f.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) CountForUser(ctx context.Context, userID string) (int, error) {
	query := `SELECT COUNT(*) FROM friendships WHERE user_a_id = $1 OR user_b_id = $1`

	var n int
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
