package grpc

import (
	"context"

	"github.com/dmitrijs2005/gophfriends/internal/common"
	"github.com/dmitrijs2005/gophfriends/internal/server/models"
)

type fakeAuth struct {
	session *models.Session
	err     error

	gotUser, gotPassword, gotCode string
}

func (f *fakeAuth) Authenticate(ctx context.Context, userName, password, code string) (*models.Session, error) {
	f.gotUser, f.gotPassword, f.gotCode = userName, password, code
	return f.session, f.err
}

// fakeVerifier accepts exactly one header value.
type fakeVerifier struct {
	header string
	id     *models.Identity
}

func (f *fakeVerifier) Verify(header string) (*models.Identity, error) {
	if f.header == "" || header != f.header {
		return nil, common.ErrInvalidToken
	}
	return f.id, nil
}

type fakeRelationships struct {
	err error

	request *models.FriendRequest
	trans   *models.Transition
	page    *models.RequestPage
	stats   *models.RequestStats
	friends []*models.Friend
	ok      bool

	gotCaller *models.Identity
	gotArgs   []any
}

func (f *fakeRelationships) record(caller *models.Identity, args ...any) {
	f.gotCaller = caller
	f.gotArgs = args
}

func (f *fakeRelationships) SendRequest(ctx context.Context, caller *models.Identity, target, message string) (*models.FriendRequest, error) {
	f.record(caller, target, message)
	return f.request, f.err
}

func (f *fakeRelationships) RespondRequest(ctx context.Context, caller *models.Identity, sender, action string) (*models.Transition, error) {
	f.record(caller, sender, action)
	return f.trans, f.err
}

func (f *fakeRelationships) ListRequests(ctx context.Context, caller *models.Identity, status string, limit, offset int) (*models.RequestPage, error) {
	f.record(caller, status, limit, offset)
	return f.page, f.err
}

func (f *fakeRelationships) ListSentRequests(ctx context.Context, caller *models.Identity, status string, limit, offset int) (*models.RequestPage, error) {
	f.record(caller, "sent", status, limit, offset)
	return f.page, f.err
}

func (f *fakeRelationships) GetRequest(ctx context.Context, caller *models.Identity, id string) (*models.FriendRequest, error) {
	f.record(caller, id)
	return f.request, f.err
}

func (f *fakeRelationships) RequestStats(ctx context.Context, caller *models.Identity) (*models.RequestStats, error) {
	f.record(caller)
	return f.stats, f.err
}

func (f *fakeRelationships) ListFriendships(ctx context.Context, caller *models.Identity) ([]*models.Friend, error) {
	f.record(caller)
	return f.friends, f.err
}

func (f *fakeRelationships) CheckFriendship(ctx context.Context, caller *models.Identity, userName string) (bool, error) {
	f.record(caller, userName)
	return f.ok, f.err
}

func (f *fakeRelationships) Unfriend(ctx context.Context, caller *models.Identity, userName string) (bool, error) {
	f.record(caller, userName)
	return f.ok, f.err
}
