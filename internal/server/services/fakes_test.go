package services

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophfriends/internal/common"
	"github.com/dmitrijs2005/gophfriends/internal/dbx"
	"github.com/dmitrijs2005/gophfriends/internal/server/models"
	"github.com/dmitrijs2005/gophfriends/internal/server/repositories/friendrequests"
	"github.com/dmitrijs2005/gophfriends/internal/server/repositories/friendships"
	"github.com/dmitrijs2005/gophfriends/internal/server/repositories/users"
)

// --- transactor ---

type noopTransactor struct {
	mu  sync.Mutex
	txs int
	err error
}

func (n *noopTransactor) Conn() dbx.DBTX { return nil }

func (n *noopTransactor) WithTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	n.mu.Lock()
	n.txs++
	err := n.err
	n.mu.Unlock()
	if err != nil {
		return err
	}
	return fn(ctx, nil)
}

// --- directory ---

type fakeUsers struct {
	mu       sync.Mutex
	accounts map[string]*models.Account
	creds    map[string]*models.Credential
	err      error
	credErr  error
}

func newFakeUsers(accounts ...models.Account) *fakeUsers {
	f := &fakeUsers{accounts: map[string]*models.Account{}, creds: map[string]*models.Credential{}}
	for i := range accounts {
		a := accounts[i]
		f.accounts[a.ID] = &a
	}
	return f
}

func (f *fakeUsers) rename(id, name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts[id].UserName = name
}

func (f *fakeUsers) ResolveUsername(_ context.Context, userName string) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, a := range f.accounts {
		if a.UserName == userName {
			cp := *a
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsers) ResolveAccount(_ context.Context, id string) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	a, ok := f.accounts[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeUsers) GetCredential(_ context.Context, accountID string) (*models.Credential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.credErr != nil {
		return nil, f.credErr
	}
	c, ok := f.creds[accountID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *c
	return &cp, nil
}

// --- friend requests ---

type fakeRequests struct {
	mu        sync.Mutex
	rows      map[string]*models.FriendRequest
	getErr    error
	upsertErr error
	updateErr error
	listErr   error
	// raced is stored right before the next Upsert, as another server
	// process inserting the same pair would.
	raced *models.FriendRequest
}

func newFakeRequests() *fakeRequests {
	return &fakeRequests{rows: map[string]*models.FriendRequest{}}
}

func clone(r *models.FriendRequest) *models.FriendRequest {
	cp := *r
	return &cp
}

func (f *fakeRequests) put(r *models.FriendRequest) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[models.PairKey(r.SenderID, r.RecipientID)] = clone(r)
}

func (f *fakeRequests) forPair(a, b string) *models.FriendRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[models.PairKey(a, b)]
	if !ok {
		return nil
	}
	return clone(r)
}

func (f *fakeRequests) GetForPair(_ context.Context, a, b string) (*models.FriendRequest, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if r := f.forPair(a, b); r != nil {
		return r, nil
	}
	return nil, common.ErrorNotFound
}

func (f *fakeRequests) GetDirected(_ context.Context, senderID, recipientID string) (*models.FriendRequest, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	r := f.forPair(senderID, recipientID)
	if r == nil || r.SenderID != senderID {
		return nil, common.ErrorNotFound
	}
	return r, nil
}

func (f *fakeRequests) Upsert(_ context.Context, req *models.FriendRequest) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	key := models.PairKey(req.SenderID, req.RecipientID)
	if f.raced != nil {
		f.rows[key] = clone(f.raced)
		f.raced = nil
	}
	if old, ok := f.rows[key]; ok {
		if old.Status != models.StatusAccepted {
			return common.ErrRequestPending
		}
		req.ID = old.ID
	}
	f.rows[key] = clone(req)
	return nil
}

func (f *fakeRequests) UpdateStatus(_ context.Context, id string, status models.RequestStatus, at time.Time) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.ID == id {
			r.Status = status
			r.UpdatedAt = at
			return nil
		}
	}
	return common.ErrorNotFound
}

func (f *fakeRequests) filter(match func(r *models.FriendRequest) bool) []*models.FriendRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.FriendRequest, 0)
	for _, r := range f.rows {
		if match(r) {
			out = append(out, clone(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out
}

func page(rows []*models.FriendRequest, limit, offset int) []*models.FriendRequest {
	if offset >= len(rows) {
		return []*models.FriendRequest{}
	}
	end := offset + limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[offset:end]
}

func matchStatus(status models.RequestStatus, r *models.FriendRequest) bool {
	return status == "" || r.Status == status
}

func (f *fakeRequests) ListReceived(_ context.Context, recipientID string, status models.RequestStatus, limit, offset int) ([]*models.FriendRequest, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	rows := f.filter(func(r *models.FriendRequest) bool { return r.RecipientID == recipientID && matchStatus(status, r) })
	return page(rows, limit, offset), nil
}

func (f *fakeRequests) CountReceived(_ context.Context, recipientID string, status models.RequestStatus) (int, error) {
	return len(f.filter(func(r *models.FriendRequest) bool { return r.RecipientID == recipientID && matchStatus(status, r) })), nil
}

func (f *fakeRequests) ListSent(_ context.Context, senderID string, status models.RequestStatus, limit, offset int) ([]*models.FriendRequest, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	rows := f.filter(func(r *models.FriendRequest) bool { return r.SenderID == senderID && matchStatus(status, r) })
	return page(rows, limit, offset), nil
}

func (f *fakeRequests) CountSent(_ context.Context, senderID string, status models.RequestStatus) (int, error) {
	return len(f.filter(func(r *models.FriendRequest) bool { return r.SenderID == senderID && matchStatus(status, r) })), nil
}

func (f *fakeRequests) GetReceivedByID(_ context.Context, id, recipientID string) (*models.FriendRequest, error) {
	rows := f.filter(func(r *models.FriendRequest) bool { return r.ID == id && r.RecipientID == recipientID })
	if len(rows) == 0 {
		return nil, common.ErrorNotFound
	}
	return rows[0], nil
}

func (f *fakeRequests) countBy(match func(r *models.FriendRequest) bool) models.StatusCounts {
	var c models.StatusCounts
	for _, r := range f.filter(match) {
		c.Add(r.Status, 1)
	}
	return c
}

func (f *fakeRequests) CountReceivedByStatus(_ context.Context, recipientID string) (models.StatusCounts, error) {
	if f.listErr != nil {
		return models.StatusCounts{}, f.listErr
	}
	return f.countBy(func(r *models.FriendRequest) bool { return r.RecipientID == recipientID }), nil
}

func (f *fakeRequests) CountSentByStatus(_ context.Context, senderID string) (models.StatusCounts, error) {
	if f.listErr != nil {
		return models.StatusCounts{}, f.listErr
	}
	return f.countBy(func(r *models.FriendRequest) bool { return r.SenderID == senderID }), nil
}

// --- friendships ---

type fakeFriendships struct {
	mu        sync.Mutex
	rows      map[string]*models.Friendship
	existsErr error
	upsertErr error
	deleteErr error
}

func newFakeFriendships() *fakeFriendships {
	return &fakeFriendships{rows: map[string]*models.Friendship{}}
}

func (f *fakeFriendships) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

func (f *fakeFriendships) has(a, b string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.rows[models.PairKey(a, b)]
	return ok
}

func (f *fakeFriendships) Exists(_ context.Context, a, b string) (bool, error) {
	if f.existsErr != nil {
		return false, f.existsErr
	}
	return f.has(a, b), nil
}

func (f *fakeFriendships) Get(_ context.Context, a, b string) (*models.Friendship, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[models.PairKey(a, b)]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeFriendships) Upsert(_ context.Context, fr *models.Friendship) (*models.Friendship, bool, error) {
	if f.upsertErr != nil {
		return nil, false, f.upsertErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	key := models.PairKey(fr.UserAID, fr.UserBID)
	if old, ok := f.rows[key]; ok {
		cp := *old
		return &cp, false, nil
	}
	cp := *fr
	f.rows[key] = &cp
	return fr, true, nil
}

func (f *fakeFriendships) Delete(_ context.Context, a, b string) (bool, error) {
	if f.deleteErr != nil {
		return false, f.deleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	key := models.PairKey(a, b)
	_, ok := f.rows[key]
	delete(f.rows, key)
	return ok, nil
}

func (f *fakeFriendships) ListForUser(_ context.Context, userID string) ([]*models.Friendship, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.Friendship, 0)
	for _, r := range f.rows {
		if r.UserAID == userID || r.UserBID == userID {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeFriendships) CountForUser(ctx context.Context, userID string) (int, error) {
	rows, _ := f.ListForUser(ctx, userID)
	return len(rows), nil
}

// --- repository manager ---

type fakeRepoManager struct {
	u  *fakeUsers
	fr *fakeRequests
	fs *fakeFriendships
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error      { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository                   { return m.u }
func (m *fakeRepoManager) FriendRequests(dbx.DBTX) friendrequests.Repository { return m.fr }
func (m *fakeRepoManager) Friendships(dbx.DBTX) friendships.Repository       { return m.fs }

// stepClock returns a clock that advances by one second per call.
func stepClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	t := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}
