package users

import (
	"context"

	"github.com/dmitrijs2005/gophfriends/internal/server/models"
)

// Repository is the directory and credential store. Accounts are created
// elsewhere; this side only reads.
type Repository interface {
	ResolveUsername(ctx context.Context, userName string) (*models.Account, error)
	ResolveAccount(ctx context.Context, id string) (*models.Account, error)
	GetCredential(ctx context.Context, accountID string) (*models.Credential, error)
}
