// Package friendrequests provides the PostgreSQL-backed store of friend
// requests.
package friendrequests

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophfriends/internal/common"
	"github.com/dmitrijs2005/gophfriends/internal/dbx"
	"github.com/dmitrijs2005/gophfriends/internal/server/models"
)

const columns = `id, sender_id, sender_username, recipient_id, recipient_username, status, payload, updated_at`

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRequest(s scanner) (*models.FriendRequest, error) {
	var (
		r       models.FriendRequest
		status  string
		payload []byte
	)
	if err := s.Scan(&r.ID, &r.SenderID, &r.SenderName, &r.RecipientID, &r.RecipientName,
		&status, &payload, &r.UpdatedAt); err != nil {
		return nil, err
	}
	r.Status = models.RequestStatus(status)
	r.Payload = payload
	return &r, nil
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, args ...any) (*models.FriendRequest, error) {
	req, err := scanRequest(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return req, nil
}

func (r *PostgresRepository) GetForPair(ctx context.Context, a, b string) (*models.FriendRequest, error) {
	low, high := models.OrderedPair(a, b)
	query := `SELECT ` + columns + ` FROM friend_requests
		 WHERE pair_low = $1 AND pair_high = $2
		 FOR UPDATE`
	return r.getOne(ctx, query, low, high)
}

func (r *PostgresRepository) GetDirected(ctx context.Context, senderID, recipientID string) (*models.FriendRequest, error) {
	query := `SELECT ` + columns + ` FROM friend_requests
		 WHERE sender_id = $1 AND recipient_id = $2
		 FOR UPDATE`
	return r.getOne(ctx, query, senderID, recipientID)
}

func (r *PostgresRepository) GetReceivedByID(ctx context.Context, id, recipientID string) (*models.FriendRequest, error) {
	query := `SELECT ` + columns + ` FROM friend_requests
		 WHERE id = $1 AND recipient_id = $2`
	return r.getOne(ctx, query, id, recipientID)
}

func (r *PostgresRepository) Upsert(ctx context.Context, req *models.FriendRequest) error {
	low, high := models.OrderedPair(req.SenderID, req.RecipientID)
	query := `
		INSERT INTO friend_requests (id, sender_id, sender_username, recipient_id, recipient_username,
			pair_low, pair_high, status, payload, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (pair_low, pair_high)
		DO UPDATE SET
			sender_id = EXCLUDED.sender_id,
			sender_username = EXCLUDED.sender_username,
			recipient_id = EXCLUDED.recipient_id,
			recipient_username = EXCLUDED.recipient_username,
			status = EXCLUDED.status,
			payload = EXCLUDED.payload,
			updated_at = EXCLUDED.updated_at
		WHERE friend_requests.status = 'accepted'
		RETURNING id
	`
	var id string
	err := r.db.QueryRowContext(ctx, query,
		req.ID, req.SenderID, req.SenderName, req.RecipientID, req.RecipientName,
		low, high, string(req.Status), []byte(req.Payload), req.UpdatedAt).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrRequestPending
		}
		return fmt.Errorf("db error: %w", err)
	}
	req.ID = id
	return nil
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, status models.RequestStatus, at time.Time) error {
	query := `UPDATE friend_requests SET status = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, string(status), at)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrorNotFound
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}

func (r *PostgresRepository) list(ctx context.Context, column, userID string, status models.RequestStatus, limit, offset int) ([]*models.FriendRequest, error) {
	query := `SELECT ` + columns + ` FROM friend_requests
		 WHERE ` + column + ` = $1 AND ($2 = '' OR status = $2)
		 ORDER BY updated_at DESC, id
		 LIMIT $3 OFFSET $4`

	rows, err := r.db.QueryContext(ctx, query, userID, string(status), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to select friend requests: %w", err)
	}
	defer rows.Close()

	result := make([]*models.FriendRequest, 0)
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, req)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) count(ctx context.Context, column, userID string, status models.RequestStatus) (int, error) {
	query := `SELECT COUNT(*) FROM friend_requests
		 WHERE ` + column + ` = $1 AND ($2 = '' OR status = $2)`

	var n int
	if err := r.db.QueryRowContext(ctx, query, userID, string(status)).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) countByStatus(ctx context.Context, column, userID string) (models.StatusCounts, error) {
	query := `SELECT status, COUNT(*) FROM friend_requests
		 WHERE ` + column + ` = $1
		 GROUP BY status`

	var counts models.StatusCounts

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return counts, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return counts, err
		}
		counts.Add(models.RequestStatus(status), n)
	}
	return counts, rows.Err()
}

func (r *PostgresRepository) ListReceived(ctx context.Context, recipientID string, status models.RequestStatus, limit, offset int) ([]*models.FriendRequest, error) {
	return r.list(ctx, "recipient_id", recipientID, status, limit, offset)
}

func (r *PostgresRepository) CountReceived(ctx context.Context, recipientID string, status models.RequestStatus) (int, error) {
	return r.count(ctx, "recipient_id", recipientID, status)
}

func (r *PostgresRepository) ListSent(ctx context.Context, senderID string, status models.RequestStatus, limit, offset int) ([]*models.FriendRequest, error) {
	return r.list(ctx, "sender_id", senderID, status, limit, offset)
}

func (r *PostgresRepository) CountSent(ctx context.Context, senderID string, status models.RequestStatus) (int, error) {
	return r.count(ctx, "sender_id", senderID, status)
}

func (r *PostgresRepository) CountReceivedByStatus(ctx context.Context, recipientID string) (models.StatusCounts, error) {
	return r.countByStatus(ctx, "recipient_id", recipientID)
}

func (r *PostgresRepository) CountSentByStatus(ctx context.Context, senderID string) (models.StatusCounts, error) {
	return r.countByStatus(ctx, "sender_id", senderID)
}
