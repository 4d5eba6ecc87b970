package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/gophfriends/internal/dbx"
	"github.com/dmitrijs2005/gophfriends/internal/server/repositories/friendrequests"
	"github.com/dmitrijs2005/gophfriends/internal/server/repositories/friendships"
	"github.com/dmitrijs2005/gophfriends/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a handle, so services can
// bind them to a transaction of the right store.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	FriendRequests(db dbx.DBTX) friendrequests.Repository
	Friendships(db dbx.DBTX) friendships.Repository
}
