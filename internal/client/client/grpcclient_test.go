package client

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophfriends/internal/api"
	"github.com/dmitrijs2005/gophfriends/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

// fakeServer records the authorization metadata of each call.
type fakeServer struct {
	gotAuth []string
	err     error
	req     any
}

func (f *fakeServer) auth(ctx context.Context) {
	md, _ := metadata.FromIncomingContext(ctx)
	f.gotAuth = append(f.gotAuth, md.Get(common.AuthorizationHeaderName)...)
}

func (f *fakeServer) Login(ctx context.Context, in *api.LoginRequest) (*api.LoginResponse, error) {
	f.req = in
	if f.err != nil {
		return nil, f.err
	}
	return &api.LoginResponse{AccessToken: "tok-" + in.Username, TokenType: api.TokenType, Username: in.Username}, nil
}

func (f *fakeServer) Ping(ctx context.Context, in *api.PingRequest) (*api.PingResponse, error) {
	return &api.PingResponse{Status: "OK"}, f.err
}

func (f *fakeServer) VerifyToken(ctx context.Context, in *api.VerifyTokenRequest) (*api.VerifyTokenResponse, error) {
	f.auth(ctx)
	if f.err != nil {
		return nil, f.err
	}
	return &api.VerifyTokenResponse{Valid: true, Username: "alice"}, nil
}

func (f *fakeServer) SendRequest(ctx context.Context, in *api.SendFriendRequest) (*api.FriendRequest, error) {
	f.auth(ctx)
	f.req = in
	if f.err != nil {
		return nil, f.err
	}
	return &api.FriendRequest{ID: "r1", RecipientUsername: in.Username, Status: "pending"}, nil
}

func (f *fakeServer) RespondRequest(ctx context.Context, in *api.RespondFriendRequest) (*api.RespondResponse, error) {
	f.auth(ctx)
	f.req = in
	return &api.RespondResponse{Status: "accepted"}, f.err
}

func (f *fakeServer) ListRequests(ctx context.Context, in *api.ListRequestsRequest) (*api.ListRequestsResponse, error) {
	f.auth(ctx)
	f.req = in
	return &api.ListRequestsResponse{Limit: in.Limit, Offset: in.Offset}, f.err
}

func (f *fakeServer) ListSentRequests(ctx context.Context, in *api.ListRequestsRequest) (*api.ListRequestsResponse, error) {
	f.auth(ctx)
	f.req = in
	return &api.ListRequestsResponse{Limit: in.Limit}, f.err
}

func (f *fakeServer) GetRequest(ctx context.Context, in *api.GetRequestRequest) (*api.FriendRequest, error) {
	f.auth(ctx)
	f.req = in
	return &api.FriendRequest{ID: in.ID}, f.err
}

func (f *fakeServer) RequestStats(ctx context.Context, in *api.RequestStatsRequest) (*api.RequestStatsResponse, error) {
	f.auth(ctx)
	return &api.RequestStatsResponse{Friends: 2}, f.err
}

func (f *fakeServer) ListFriends(ctx context.Context, in *api.ListFriendsRequest) (*api.ListFriendsResponse, error) {
	f.auth(ctx)
	return &api.ListFriendsResponse{Friends: []api.Friend{{Username: "bob"}}, Count: 1}, f.err
}

func (f *fakeServer) CheckFriendship(ctx context.Context, in *api.UsernameRequest) (*api.CheckFriendshipResponse, error) {
	f.auth(ctx)
	return &api.CheckFriendshipResponse{Username: in.Username, AreFriends: true}, f.err
}

func (f *fakeServer) RemoveFriend(ctx context.Context, in *api.UsernameRequest) (*api.RemoveFriendResponse, error) {
	f.auth(ctx)
	return &api.RemoveFriendResponse{Username: in.Username, Removed: true}, f.err
}

func newTestClient(t *testing.T, srv api.RelationshipsServer) *GRPCClient {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	gs := grpc.NewServer()
	api.RegisterRelationshipsServer(gs, srv)
	go func() { _ = gs.Serve(lis) }()

	c, err := NewGRPCClient("passthrough:///bufnet", grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	}))
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = c.Close()
		gs.Stop()
	})
	return c
}

func ctxT(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestLogin_StoresTokenAndSendsBearer(t *testing.T) {
	fs := &fakeServer{}
	c := newTestClient(t, fs)
	ctx := ctxT(t)

	_, err := c.SendRequest(ctx, "bob", "")
	require.ErrorIs(t, err, ErrNotLoggedIn)

	resp, err := c.Login(ctx, "alice", "pw", "123456")
	require.NoError(t, err)
	assert.Equal(t, "tok-alice", resp.AccessToken)
	assert.Equal(t, &api.LoginRequest{Username: "alice", Password: "pw", OTPCode: "123456"}, fs.req)

	fr, err := c.SendRequest(ctx, "bob", "hi")
	require.NoError(t, err)
	assert.Equal(t, "bob", fr.RecipientUsername)
	assert.Equal(t, []string{"Bearer tok-alice"}, fs.gotAuth)

	c.Logout()
	_, err = c.ListFriends(ctx)
	require.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestAllCalls(t *testing.T) {
	fs := &fakeServer{}
	c := newTestClient(t, fs)
	ctx := ctxT(t)

	require.NoError(t, c.Ping(ctx))
	_, err := c.Login(ctx, "alice", "pw", "123456")
	require.NoError(t, err)

	who, err := c.WhoAmI(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alice", who.Username)

	tr, err := c.RespondRequest(ctx, "bob", "accept")
	require.NoError(t, err)
	assert.Equal(t, "accepted", tr.Status)

	page, err := c.ListRequests(ctx, "pending", 5, 10)
	require.NoError(t, err)
	assert.Equal(t, 10, page.Offset)
	assert.Equal(t, &api.ListRequestsRequest{Status: "pending", Limit: 5, Offset: 10}, fs.req)

	_, err = c.ListSentRequests(ctx, "", 3, 0)
	require.NoError(t, err)

	got, err := c.GetRequest(ctx, "r9")
	require.NoError(t, err)
	assert.Equal(t, "r9", got.ID)

	st, err := c.RequestStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, st.Friends)

	fl, err := c.ListFriends(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, fl.Count)

	chk, err := c.CheckFriendship(ctx, "bob")
	require.NoError(t, err)
	assert.True(t, chk.AreFriends)

	rm, err := c.RemoveFriend(ctx, "bob")
	require.NoError(t, err)
	assert.True(t, rm.Removed)
}

func TestMapError(t *testing.T) {
	fs := &fakeServer{}
	c := newTestClient(t, fs)
	ctx := ctxT(t)

	_, err := c.Login(ctx, "alice", "pw", "123456")
	require.NoError(t, err)

	fs.err = status.Error(codes.Unavailable, "store unavailable")
	_, err = c.SendRequest(ctx, "bob", "")
	require.ErrorIs(t, err, ErrUnavailable)

	fs.err = status.Error(codes.AlreadyExists, "already friends")
	_, err = c.SendRequest(ctx, "bob", "")
	require.Error(t, err)
	assert.Equal(t, "already friends", err.Error())

	fs.err = status.Error(codes.Unauthenticated, "invalid credentials")
	_, err = c.Login(ctx, "alice", "pw", "000000")
	require.ErrorIs(t, err, ErrUnauthorized)

	plain := errors.New("plain")
	assert.Same(t, plain, c.mapError(plain))
}

func TestExpiredTokenIsDropped(t *testing.T) {
	fs := &fakeServer{}
	c := newTestClient(t, fs)
	ctx := ctxT(t)

	_, err := c.Login(ctx, "alice", "pw", "123456")
	require.NoError(t, err)

	fs.err = status.Error(codes.Unauthenticated, common.ErrTokenExpired.Error())
	_, err = c.WhoAmI(ctx)
	require.ErrorIs(t, err, ErrUnauthorized)

	_, err = c.WhoAmI(ctx)
	require.ErrorIs(t, err, ErrNotLoggedIn)
}
