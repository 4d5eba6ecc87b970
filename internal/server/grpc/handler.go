package grpc

import (
	"context"

	"github.com/dmitrijs2005/gophfriends/internal/api"
	"github.com/dmitrijs2005/gophfriends/internal/common"
	"github.com/dmitrijs2005/gophfriends/internal/server/auth"
	"github.com/dmitrijs2005/gophfriends/internal/server/models"
)

func identity(ctx context.Context) (*models.Identity, error) {
	id, ok := auth.IdentityFromContext(ctx)
	if !ok {
		return nil, common.ErrInvalidToken
	}
	return id, nil
}

func (s *GRPCServer) Login(ctx context.Context, req *api.LoginRequest) (*api.LoginResponse, error) {

	session, err := s.auth.Authenticate(ctx, req.Username, req.Password, req.OTPCode)
	if err != nil {
		s.logger.Info(ctx, "Login rejected", "username", req.Username)
		return nil, s.toStatus(ctx, "login", err)
	}

	s.logger.Info(ctx, "Logged in", "username", session.UserName)
	return api.FromSession(session), nil
}

func (s *GRPCServer) Ping(ctx context.Context, req *api.PingRequest) (*api.PingResponse, error) {

	return &api.PingResponse{Status: "OK"}, nil

}

func (s *GRPCServer) VerifyToken(ctx context.Context, req *api.VerifyTokenRequest) (*api.VerifyTokenResponse, error) {
	id, err := identity(ctx)
	if err != nil {
		return nil, s.toStatus(ctx, "verify token", err)
	}
	return api.FromIdentity(id), nil
}

func (s *GRPCServer) SendRequest(ctx context.Context, req *api.SendFriendRequest) (*api.FriendRequest, error) {
	id, _ := identity(ctx)

	fr, err := s.rel.SendRequest(ctx, id, req.Username, req.Message)
	if err != nil {
		return nil, s.toStatus(ctx, "send request", err)
	}

	out := api.FromFriendRequest(fr)
	return &out, nil
}

func (s *GRPCServer) RespondRequest(ctx context.Context, req *api.RespondFriendRequest) (*api.RespondResponse, error) {
	id, _ := identity(ctx)

	t, err := s.rel.RespondRequest(ctx, id, req.Username, req.Action)
	if err != nil {
		return nil, s.toStatus(ctx, "respond request", err)
	}

	return api.FromTransition(t), nil
}

func (s *GRPCServer) ListRequests(ctx context.Context, req *api.ListRequestsRequest) (*api.ListRequestsResponse, error) {
	id, _ := identity(ctx)

	page, err := s.rel.ListRequests(ctx, id, req.Status, req.Limit, req.Offset)
	if err != nil {
		return nil, s.toStatus(ctx, "list requests", err)
	}

	return api.FromRequestPage(page), nil
}

func (s *GRPCServer) ListSentRequests(ctx context.Context, req *api.ListRequestsRequest) (*api.ListRequestsResponse, error) {
	id, _ := identity(ctx)

	page, err := s.rel.ListSentRequests(ctx, id, req.Status, req.Limit, req.Offset)
	if err != nil {
		return nil, s.toStatus(ctx, "list sent requests", err)
	}

	return api.FromRequestPage(page), nil
}

func (s *GRPCServer) GetRequest(ctx context.Context, req *api.GetRequestRequest) (*api.FriendRequest, error) {
	id, _ := identity(ctx)

	fr, err := s.rel.GetRequest(ctx, id, req.ID)
	if err != nil {
		return nil, s.toStatus(ctx, "get request", err)
	}

	out := api.FromFriendRequest(fr)
	return &out, nil
}

func (s *GRPCServer) RequestStats(ctx context.Context, req *api.RequestStatsRequest) (*api.RequestStatsResponse, error) {
	id, _ := identity(ctx)

	stats, err := s.rel.RequestStats(ctx, id)
	if err != nil {
		return nil, s.toStatus(ctx, "request stats", err)
	}

	return api.FromRequestStats(stats), nil
}

func (s *GRPCServer) ListFriends(ctx context.Context, req *api.ListFriendsRequest) (*api.ListFriendsResponse, error) {
	id, _ := identity(ctx)

	friends, err := s.rel.ListFriendships(ctx, id)
	if err != nil {
		return nil, s.toStatus(ctx, "list friends", err)
	}

	return api.FromFriends(friends), nil
}

func (s *GRPCServer) CheckFriendship(ctx context.Context, req *api.UsernameRequest) (*api.CheckFriendshipResponse, error) {
	id, _ := identity(ctx)

	ok, err := s.rel.CheckFriendship(ctx, id, req.Username)
	if err != nil {
		return nil, s.toStatus(ctx, "check friendship", err)
	}

	return &api.CheckFriendshipResponse{Username: req.Username, AreFriends: ok}, nil
}

func (s *GRPCServer) RemoveFriend(ctx context.Context, req *api.UsernameRequest) (*api.RemoveFriendResponse, error) {
	id, _ := identity(ctx)

	removed, err := s.rel.Unfriend(ctx, id, req.Username)
	if err != nil {
		return nil, s.toStatus(ctx, "remove friend", err)
	}

	if removed {
		s.logger.Info(ctx, "Friendship removed", "user_id", id.UserID, "friend", req.Username)
	}
	return &api.RemoveFriendResponse{Username: req.Username, Removed: removed}, nil
}
