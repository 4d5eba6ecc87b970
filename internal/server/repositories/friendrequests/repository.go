package friendrequests

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophfriends/internal/server/models"
)

// Repository stores one request row per unordered pair of accounts.
// A zero status argument means "any status".
type Repository interface {
	// GetForPair returns the row of the pair in either direction and locks it
	// for the rest of the transaction.
	GetForPair(ctx context.Context, a, b string) (*models.FriendRequest, error)
	// GetDirected returns the row only when senderID is the stored sender,
	// locked like GetForPair.
	GetDirected(ctx context.Context, senderID, recipientID string) (*models.FriendRequest, error)
	// Upsert inserts req or overwrites the accepted row of its pair. On
	// overwrite the existing id is kept; req.ID is updated to the stored one.
	// A row in any other status is left alone and common.ErrRequestPending
	// is returned.
	Upsert(ctx context.Context, req *models.FriendRequest) error
	UpdateStatus(ctx context.Context, id string, status models.RequestStatus, at time.Time) error

	ListReceived(ctx context.Context, recipientID string, status models.RequestStatus, limit, offset int) ([]*models.FriendRequest, error)
	CountReceived(ctx context.Context, recipientID string, status models.RequestStatus) (int, error)
	ListSent(ctx context.Context, senderID string, status models.RequestStatus, limit, offset int) ([]*models.FriendRequest, error)
	CountSent(ctx context.Context, senderID string, status models.RequestStatus) (int, error)
	GetReceivedByID(ctx context.Context, id, recipientID string) (*models.FriendRequest, error)

	CountReceivedByStatus(ctx context.Context, recipientID string) (models.StatusCounts, error)
	CountSentByStatus(ctx context.Context, senderID string) (models.StatusCounts, error)
}
