// Package repomanager provides a concrete RepositoryManager for PostgreSQL,
// wiring together repository constructors and database migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/gophfriends/internal/dbx"
	"github.com/dmitrijs2005/gophfriends/internal/server/migrations"
	"github.com/dmitrijs2005/gophfriends/internal/server/repositories/friendrequests"
	"github.com/dmitrijs2005/gophfriends/internal/server/repositories/friendships"
	"github.com/dmitrijs2005/gophfriends/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repository implementations
// and exposes a schema migration hook.
type PostgresRepositoryManager struct{}

// Users returns the directory and credential store bound to db.
func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

// FriendRequests returns the request store bound to db.
func (m *PostgresRepositoryManager) FriendRequests(db dbx.DBTX) friendrequests.Repository {
	return friendrequests.NewPostgresRepository(db)
}

// Friendships returns the friendship store bound to db.
func (m *PostgresRepositoryManager) Friendships(db dbx.DBTX) friendships.Repository {
	return friendships.NewPostgresRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the provided database connection. The same migration set is
// applied to every store so any DSN may host any collection.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return err
	}
	return nil
}

// NewPostgresRepositoryManager constructs a PostgreSQL-backed RepositoryManager.
func NewPostgresRepositoryManager() RepositoryManager {
	return &PostgresRepositoryManager{}
}
