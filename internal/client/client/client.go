package client

import (
	"context"

	"github.com/dmitrijs2005/gophfriends/internal/api"
)

// Client is the API surface the CLI needs.
type Client interface {
	Close() error
	Ping(ctx context.Context) error
	Login(ctx context.Context, username, password, code string) (*api.LoginResponse, error)
	Logout()
	WhoAmI(ctx context.Context) (*api.VerifyTokenResponse, error)
	SendRequest(ctx context.Context, username, message string) (*api.FriendRequest, error)
	RespondRequest(ctx context.Context, username, action string) (*api.RespondResponse, error)
	ListRequests(ctx context.Context, status string, limit, offset int) (*api.ListRequestsResponse, error)
	ListSentRequests(ctx context.Context, status string, limit, offset int) (*api.ListRequestsResponse, error)
	GetRequest(ctx context.Context, id string) (*api.FriendRequest, error)
	RequestStats(ctx context.Context) (*api.RequestStatsResponse, error)
	ListFriends(ctx context.Context) (*api.ListFriendsResponse, error)
	CheckFriendship(ctx context.Context, username string) (*api.CheckFriendshipResponse, error)
	RemoveFriend(ctx context.Context, username string) (*api.RemoveFriendResponse, error)
}
