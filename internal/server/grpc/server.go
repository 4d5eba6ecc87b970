// Package grpc exposes the relationship API as the gophfriends.Relationships
// gRPC service.
package grpc

import (
	"context"
	"net"
	"time"

	"github.com/dmitrijs2005/gophfriends/internal/api"
	"github.com/dmitrijs2005/gophfriends/internal/logging"
	"github.com/dmitrijs2005/gophfriends/internal/server/models"
	"google.golang.org/grpc"
)

// Authenticator checks login factors and opens a session.
type Authenticator interface {
	Authenticate(ctx context.Context, userName, password, code string) (*models.Session, error)
}

// TokenVerifier turns an authorization value into the caller identity.
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

type GRPCServer struct {
	address  string
	timeout  time.Duration
	auth     Authenticator
	rel      Relationships
	verifier TokenVerifier
	logger   logging.Logger
}

var _ api.RelationshipsServer = (*GRPCServer)(nil)

func NewGRPCServer(a string, timeout time.Duration, l logging.Logger, as Authenticator, rs Relationships, v TokenVerifier) *GRPCServer {
	return &GRPCServer{
		address:  a,
		timeout:  timeout,
		logger:   l.With("module", "grpc_server"),
		auth:     as,
		rel:      rs,
		verifier: v,
	}
}

func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(
		s.loggingInterceptor,
		s.timeoutInterceptor,
		s.accessTokenInterceptor,
	))
	api.RegisterRelationshipsServer(srv, s)
	return srv
}

// Run listens on the configured address and serves until ctx is done.
func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is done.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(lis); err != nil {
		return err
	}

	return nil
}
