// Package httpapi serves the relationship API as JSON over HTTP.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophfriends/internal/logging"
	"github.com/dmitrijs2005/gophfriends/internal/server/models"
	"github.com/gorilla/mux"
)

// Authenticator checks login factors and opens a session.
type Authenticator interface {
	Authenticate(ctx context.Context, userName, password, code string) (*models.Session, error)
}

// TokenVerifier turns an Authorization header into the caller identity.
type TokenVerifier interface {
	Verify(header string) (*models.Identity, error)
}

// Relationships is the relationship API consumed by the handlers.
type Relationships interface {
	SendRequest(ctx context.Context, caller *models.Identity, targetUserName, message string) (*models.FriendRequest, error)
	RespondRequest(ctx context.Context, caller *models.Identity, senderUserName, action string) (*models.Transition, error)
	ListRequests(ctx context.Context, caller *models.Identity, status string, limit, offset int) (*models.RequestPage, error)
	ListSentRequests(ctx context.Context, caller *models.Identity, status string, limit, offset int) (*models.RequestPage, error)
	GetRequest(ctx context.Context, caller *models.Identity, id string) (*models.FriendRequest, error)
	RequestStats(ctx context.Context, caller *models.Identity) (*models.RequestStats, error)
	ListFriendships(ctx context.Context, caller *models.Identity) ([]*models.Friend, error)
	CheckFriendship(ctx context.Context, caller *models.Identity, userName string) (bool, error)
	Unfriend(ctx context.Context, caller *models.Identity, userName string) (bool, error)
}

type HTTPServer struct {
	address  string
	timeout  time.Duration
	auth     Authenticator
	rel      Relationships
	verifier TokenVerifier
	logger   logging.Logger
}

func NewHTTPServer(a string, timeout time.Duration, l logging.Logger, as Authenticator, rs Relationships, v TokenVerifier) *HTTPServer {
	return &HTTPServer{
		address:  a,
		timeout:  timeout,
		logger:   l.With("module", "http_server"),
		auth:     as,
		rel:      rs,
		verifier: v,
	}
}

// Handler returns the routed API.
func (s *HTTPServer) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(s.accessLog, s.withTimeout)

	r.HandleFunc("/api/ping", s.ping).Methods(http.MethodGet)
	r.HandleFunc("/api/login", s.login).Methods(http.MethodPost)

	p := r.PathPrefix("/api").Subrouter()
	p.Use(s.requireBearer)

	p.HandleFunc("/verify-token", s.verifyToken).Methods(http.MethodPost)

	p.HandleFunc("/friend-requests", s.sendRequest).Methods(http.MethodPost)
	p.HandleFunc("/friend-requests", s.listRequests).Methods(http.MethodGet)
	p.HandleFunc("/friend-requests/respond", s.respondRequest).Methods(http.MethodPost)
	p.HandleFunc("/friend-requests/sent", s.listSentRequests).Methods(http.MethodGet)
	p.HandleFunc("/friend-requests/stats", s.requestStats).Methods(http.MethodGet)
	p.HandleFunc("/friend-requests/{id}", s.getRequest).Methods(http.MethodGet)

	p.HandleFunc("/friends", s.listFriends).Methods(http.MethodGet)
	p.HandleFunc("/friends/{username}", s.checkFriendship).Methods(http.MethodGet)
	p.HandleFunc("/friends/{username}", s.removeFriend).Methods(http.MethodDelete)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return r
}

// Run serves on the configured address until ctx is done.
func (s *HTTPServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is done.
func (s *HTTPServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
