package users

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

func (r *PostgresRepository) ResolveUsername(ctx context.Context, userName string) (*models.Account, error) {
	query :=
		`SELECT id, username FROM users
		 WHERE username = $1
		 `

	return r.getAccount(ctx, query, userName)
}

func (r *PostgresRepository) ResolveAccount(ctx context.Context, id string) (*models.Account, error) {
	query :=
		`SELECT id, username FROM users
		 WHERE id = $1
		 `

	return r.getAccount(ctx, query, id)
}

func (r *PostgresRepository) getAccount(ctx context.Context, query string, arg string) (*models.Account, error) {
	account := &models.Account{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&account.ID, &account.UserName)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return account, nil
}

func (r *PostgresRepository) GetCredential(ctx context.Context, accountID string) (*models.Credential, error) {
	query :=
		`SELECT id, password_hash, totp_secret FROM users
		 WHERE id = $1
		 `

	c := &models.Credential{}
	err := r.db.QueryRowContext(ctx, query, accountID).Scan(&c.AccountID, &c.PasswordHash, &c.TOTPSecret)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return c, nil
}
