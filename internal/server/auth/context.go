package auth

import (
	"context"

	"github.com/dmitrijs2005/gophfriends/internal/server/models"
)

type ctxKey string

const identityKey ctxKey = "identity"

// WithIdentity stores the verified caller in ctx.
func WithIdentity(ctx context.Context, id *models.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the caller stored by WithIdentity.
func IdentityFromContext(ctx context.Context) (*models.Identity, bool) {
	id, ok := ctx.Value(identityKey).(*models.Identity)
	return id, ok && id != nil
}
