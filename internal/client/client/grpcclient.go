package client

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/gophfriends/internal/api"
	"github.com/dmitrijs2005/gophfriends/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      *api.RelationshipsClient

	mu          sync.RWMutex
	accessToken string
}

var _ Client = (*GRPCClient)(nil)

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

func (s *GRPCClient) setToken(token string) {
	s.mu.Lock()
	s.accessToken = token
	s.mu.Unlock()
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {

	if token := s.token(); token != "" {
		ctx = withAccessToken(ctx, token)
	}

	err := invoker(ctx, method, req, reply, cc, opts...)

	// expired sessions are dropped
	if status.Code(err) == codes.Unauthenticated && status.Convert(err).Message() == common.ErrTokenExpired.Error() {
		s.setToken("")
	}

	return err
}

// NewGRPCClient connects lazily to endpointURL. Extra dial options are
// appended after the defaults.
func NewGRPCClient(endpointURL string, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL}

	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(endpointURL, dialOpts...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	c.client = api.NewRelationshipsClient(conn)
	return c, nil
}

func (s *GRPCClient) mapError(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	switch st.Code() {
	case codes.Unavailable:
		return fmt.Errorf("%w: %s", ErrUnavailable, st.Message())
	case codes.Unauthenticated:
		return fmt.Errorf("%w: %s", ErrUnauthorized, st.Message())
	}
	return fmt.Errorf("%s", st.Message())
}

// authed fails fast when there is no session to send.
func (s *GRPCClient) authed() error {
	if s.token() == "" {
		return ErrNotLoggedIn
	}
	return nil
}

func (s *GRPCClient) Close() error {
	return s.conn.Close()
}

func (s *GRPCClient) Ping(ctx context.Context) error {
	if _, err := s.client.Ping(ctx, &api.PingRequest{}); err != nil {
		return s.mapError(err)
	}
	return nil
}

func (s *GRPCClient) Login(ctx context.Context, username, password, code string) (*api.LoginResponse, error) {

	req := &api.LoginRequest{Username: username, Password: password, OTPCode: code}

	resp, err := s.client.Login(ctx, req)
	if err != nil {
		return nil, s.mapError(err)
	}

	s.setToken(resp.AccessToken)
	return resp, nil
}

// Logout forgets the session token. Tokens are not revocable server side.
func (s *GRPCClient) Logout() {
	s.setToken("")
}

func (s *GRPCClient) WhoAmI(ctx context.Context) (*api.VerifyTokenResponse, error) {
	if err := s.authed(); err != nil {
		return nil, err
	}
	resp, err := s.client.VerifyToken(ctx, &api.VerifyTokenRequest{})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp, nil
}

func (s *GRPCClient) SendRequest(ctx context.Context, username, message string) (*api.FriendRequest, error) {
	if err := s.authed(); err != nil {
		return nil, err
	}
	resp, err := s.client.SendRequest(ctx, &api.SendFriendRequest{Username: username, Message: message})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp, nil
}

func (s *GRPCClient) RespondRequest(ctx context.Context, username, action string) (*api.RespondResponse, error) {
	if err := s.authed(); err != nil {
		return nil, err
	}
	resp, err := s.client.RespondRequest(ctx, &api.RespondFriendRequest{Username: username, Action: action})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp, nil
}

func (s *GRPCClient) ListRequests(ctx context.Context, filter string, limit, offset int) (*api.ListRequestsResponse, error) {
	if err := s.authed(); err != nil {
		return nil, err
	}
	resp, err := s.client.ListRequests(ctx, &api.ListRequestsRequest{Status: filter, Limit: limit, Offset: offset})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp, nil
}

func (s *GRPCClient) ListSentRequests(ctx context.Context, filter string, limit, offset int) (*api.ListRequestsResponse, error) {
	if err := s.authed(); err != nil {
		return nil, err
	}
	resp, err := s.client.ListSentRequests(ctx, &api.ListRequestsRequest{Status: filter, Limit: limit, Offset: offset})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp, nil
}

func (s *GRPCClient) GetRequest(ctx context.Context, id string) (*api.FriendRequest, error) {
	if err := s.authed(); err != nil {
		return nil, err
	}
	resp, err := s.client.GetRequest(ctx, &api.GetRequestRequest{ID: id})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp, nil
}

func (s *GRPCClient) RequestStats(ctx context.Context) (*api.RequestStatsResponse, error) {
	if err := s.authed(); err != nil {
		return nil, err
	}
	resp, err := s.client.RequestStats(ctx, &api.RequestStatsRequest{})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp, nil
}

func (s *GRPCClient) ListFriends(ctx context.Context) (*api.ListFriendsResponse, error) {
	if err := s.authed(); err != nil {
		return nil, err
	}
	resp, err := s.client.ListFriends(ctx, &api.ListFriendsRequest{})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp, nil
}

func (s *GRPCClient) CheckFriendship(ctx context.Context, username string) (*api.CheckFriendshipResponse, error) {
	if err := s.authed(); err != nil {
		return nil, err
	}
	resp, err := s.client.CheckFriendship(ctx, &api.UsernameRequest{Username: username})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp, nil
}

func (s *GRPCClient) RemoveFriend(ctx context.Context, username string) (*api.RemoveFriendResponse, error) {
	if err := s.authed(); err != nil {
		return nil, err
	}
	resp, err := s.client.RemoveFriend(ctx, &api.UsernameRequest{Username: username})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp, nil
}
