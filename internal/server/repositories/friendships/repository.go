package friendships

import (
	"context"

	"github.com/dmitrijs2005/gophfriends/internal/server/models"
)

// Repository stores at most one friendship per unordered pair. Pair
// arguments may be given in any order.
type Repository interface {
	Exists(ctx context.Context, a, b string) (bool, error)
	Get(ctx context.Context, a, b string) (*models.Friendship, error)
	// Upsert creates f unless the pair already has a row, in which case the
	// stored row is returned and created is false.
	Upsert(ctx context.Context, f *models.Friendship) (stored *models.Friendship, created bool, err error)
	Delete(ctx context.Context, a, b string) (bool, error)
	ListForUser(ctx context.Context, userID string) ([]*models.Friendship, error)
	CountForUser(ctx context.Context, userID string) (int, error)
}
