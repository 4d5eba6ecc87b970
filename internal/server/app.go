// Package server wires configuration, the three stores, the services and
// both transports, and runs them until a termination signal arrives.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/gophfriends/internal/dbx"
	"github.com/dmitrijs2005/gophfriends/internal/logging"
	"github.com/dmitrijs2005/gophfriends/internal/server/auth"
	"github.com/dmitrijs2005/gophfriends/internal/server/config"
	"github.com/dmitrijs2005/gophfriends/internal/server/httpapi"
	"github.com/dmitrijs2005/gophfriends/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophfriends/internal/server/services"

	gs "github.com/dmitrijs2005/gophfriends/internal/server/grpc"
)

// sqlOpen is a seam for tests.
var sqlOpen = func(dsn string) (*sql.DB, error) {
	return sql.Open("pgx", dsn)
}

type App struct {
	config      *config.Config
	logger      logging.Logger
	dbs         []*sql.DB
	authService *services.AuthService
	relService  *services.RelationshipService
	verifier    *auth.Verifier
}

// openStores opens one pool per distinct DSN and migrates each pool once.
func openStores(ctx context.Context, c *config.Config, m repomanager.RepositoryManager) (services.Stores, []*sql.DB, error) {
	pools := map[string]*sql.DB{}
	var dbs []*sql.DB

	open := func(dsn string) (*sql.DB, error) {
		if db, ok := pools[dsn]; ok {
			return db, nil
		}
		db, err := sqlOpen(dsn)
		if err != nil {
			return nil, fmt.Errorf("db open error: %w", err)
		}
		dbs = append(dbs, db)
		if err := m.RunMigrations(ctx, db); err != nil {
			return nil, fmt.Errorf("db migration error: %w", err)
		}
		pools[dsn] = db
		return db, nil
	}

	var stores services.Stores
	for _, s := range []struct {
		dsn string
		dst *dbx.Transactor
	}{
		{c.DatabaseDSN, &stores.Accounts},
		{c.RequestsDSN(), &stores.Requests},
		{c.FriendshipsDSN(), &stores.Friendships},
	} {
		db, err := open(s.dsn)
		if err != nil {
			closeAll(dbs)
			return services.Stores{}, nil, err
		}
		*s.dst = dbx.NewSQLTransactor(db, nil)
	}

	return stores, dbs, nil
}

func closeAll(dbs []*sql.DB) error {
	var errs []error
	for _, db := range dbs {
		errs = append(errs, db.Close())
	}
	return errors.Join(errs...)
}

func NewApp(c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, slog.LevelInfo)

	return newApp(context.Background(), c, logger, repomanager.NewPostgresRepositoryManager())
}

func newApp(ctx context.Context, c *config.Config, logger logging.Logger, m repomanager.RepositoryManager) (*App, error) {
	stores, dbs, err := openStores(ctx, c, m)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	issuer := auth.NewTokenIssuer([]byte(c.SecretKey), c.TokenIssuer, c.TokenValidityDuration)

	as, err := services.NewAuthService(stores.Accounts, m, issuer, logger)
	if err != nil {
		closeAll(dbs)
		return nil, fmt.Errorf("auth service init error: %w", err)
	}
	rs := services.NewRelationshipService(stores, m, c, logger)

	return &App{
		config:      c,
		logger:      logger,
		dbs:         dbs,
		authService: as,
		relService:  rs,
		verifier:    auth.NewVerifier([]byte(c.SecretKey), c.TokenIssuer),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.config.RequestTimeout, app.logger,
		app.authService, app.relService, app.verifier)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s := httpapi.NewHTTPServer(app.config.EndpointAddrHTTP, app.config.RequestTimeout, app.logger,
		app.authService, app.relService, app.verifier)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves both transports until ctx is cancelled, a signal arrives or
// either server fails, then closes the databases.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := closeAll(app.dbs); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
