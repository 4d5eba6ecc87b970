package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/gophfriends/internal/common"
	"github.com/dmitrijs2005/gophfriends/internal/dbx"
	"github.com/dmitrijs2005/gophfriends/internal/logging"
	"github.com/dmitrijs2005/gophfriends/internal/server/config"
	"github.com/dmitrijs2005/gophfriends/internal/server/models"
	"github.com/dmitrijs2005/gophfriends/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// MaxMessageLength bounds the optional note attached to a friend request.
const MaxMessageLength = 280

// Transition messages reported by RespondRequest.
const (
	MsgAccepted        = "friend request accepted"
	MsgRejected        = "friend request rejected"
	MsgReAccepted      = "previously rejected friend request accepted"
	MsgReRejected      = "friend request was already rejected"
	MsgFriendshipEnded = "friendship ended"
)

const requestPayloadType = "friend_request"

// Stores groups the three independently owned stores. Requests and
// Friendships may point at the same database as Accounts.
type Stores struct {
	Accounts    dbx.Transactor
	Requests    dbx.Transactor
	Friendships dbx.Transactor
}

// RelationshipService runs the friend request state machine and keeps the
// request store and the friendship store in agreement for every pair.
//
// Writes touching a pair hold an in-process lock on that pair for their whole
// duration. Within the request store the row is also locked (FOR UPDATE).
// RespondRequest commits the status change first and the friendship change
// second; the two are not atomic.
type RelationshipService struct {
	stores      Stores
	repomanager repomanager.RepositoryManager
	locks       *pairLocks
	logger      logging.Logger
	now         func() time.Time
	newID       func() string

	defaultPageSize int
	maxPageSize     int
}

// NewRelationshipService constructs a RelationshipService using repositories and server config.
func NewRelationshipService(stores Stores, m repomanager.RepositoryManager, cfg *config.Config, logger logging.Logger) *RelationshipService {
	return &RelationshipService{
		stores:          stores,
		repomanager:     m,
		locks:           newPairLocks(),
		logger:          logger.With("module", "relationships"),
		now:             time.Now,
		newID:           uuid.NewString,
		defaultPageSize: cfg.DefaultPageSize,
		maxPageSize:     cfg.MaxPageSize,
	}
}

func callerAccount(caller *models.Identity) (models.Account, error) {
	if caller == nil || caller.UserID == "" {
		return models.Account{}, common.ErrInvalidToken
	}
	return models.Account{ID: caller.UserID, UserName: caller.UserName}, nil
}

func (s *RelationshipService) resolve(ctx context.Context, userName string) (*models.Account, error) {
	userName = strings.TrimSpace(userName)
	if userName == "" {
		return nil, common.ErrMalformedInput
	}
	account, err := s.repomanager.Users(s.stores.Accounts.Conn()).ResolveUsername(ctx, userName)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrUserNotFound
		}
		return nil, storeErr("resolve username", err)
	}
	return account, nil
}

func (s *RelationshipService) lockPair(ctx context.Context, a, b string) (func(), error) {
	unlock, err := s.locks.Lock(ctx, models.PairKey(a, b))
	if err != nil {
		return nil, storeErr("lock pair", err)
	}
	return unlock, nil
}

// SendRequest creates or re-opens the pending request from caller to the
// account named targetUserName and returns it.
func (s *RelationshipService) SendRequest(ctx context.Context, caller *models.Identity, targetUserName, message string) (*models.FriendRequest, error) {
	sender, err := callerAccount(caller)
	if err != nil {
		return nil, err
	}
	if utf8.RuneCountInString(message) > MaxMessageLength {
		return nil, common.ErrMalformedInput
	}

	target, err := s.resolve(ctx, targetUserName)
	if err != nil {
		return nil, err
	}
	if target.ID == sender.ID {
		return nil, common.ErrSelfRequest
	}

	unlock, err := s.lockPair(ctx, sender.ID, target.ID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	friends, err := s.repomanager.Friendships(s.stores.Friendships.Conn()).Exists(ctx, sender.ID, target.ID)
	if err != nil {
		return nil, storeErr("check friendship", err)
	}
	if friends {
		return nil, common.ErrAlreadyFriends
	}

	now := s.now().UTC()
	payload, err := json.Marshal(models.RequestPayload{
		Type:      requestPayloadType,
		From:      sender.UserName,
		To:        target.UserName,
		Message:   message,
		CreatedAt: now,
	})
	if err != nil {
		return nil, err
	}

	req := &models.FriendRequest{
		ID:            s.newID(),
		SenderID:      sender.ID,
		SenderName:    sender.UserName,
		RecipientID:   target.ID,
		RecipientName: target.UserName,
		Status:        models.StatusPending,
		Payload:       payload,
		UpdatedAt:     now,
	}

	err = s.stores.Requests.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.FriendRequests(tx)

		existing, err := repo.GetForPair(ctx, sender.ID, target.ID)
		switch {
		case errors.Is(err, common.ErrorNotFound):
		case err != nil:
			return storeErr("get request", err)
		case existing.Status == models.StatusPending:
			return common.ErrRequestPending
		case existing.Status == models.StatusRejected:
			return common.ErrRequestPreviouslyRejected
		}
		// an accepted row without a friendship is re-opened as pending

		return storeErr("save request", repo.Upsert(ctx, req))
	})
	if err != nil {
		return nil, storeErr("send request", err)
	}

	s.logger.Info(ctx, "friend request sent", "request_id", req.ID, "sender_id", sender.ID, "recipient_id", target.ID)
	return req, nil
}

// RespondRequest answers the request that senderUserName sent to caller.
func (s *RelationshipService) RespondRequest(ctx context.Context, caller *models.Identity, senderUserName, action string) (*models.Transition, error) {
	recipient, err := callerAccount(caller)
	if err != nil {
		return nil, err
	}
	act, ok := models.ParseAction(action)
	if !ok {
		return nil, common.ErrMalformedInput
	}

	sender, err := s.resolve(ctx, senderUserName)
	if err != nil {
		return nil, err
	}

	unlock, err := s.lockPair(ctx, sender.ID, recipient.ID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	now := s.now().UTC()
	tr := &models.Transition{Sender: *sender, Action: act, RespondedAt: now}

	// set when accept meets an accepted row; only a missing friendship is
	// repaired then
	var reaccept bool

	err = s.stores.Requests.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.FriendRequests(tx)

		req, err := repo.GetDirected(ctx, sender.ID, recipient.ID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrRequestNotFound
			}
			return storeErr("get request", err)
		}

		tr.RequestID = req.ID
		tr.PreviousStatus = req.Status
		tr.NewStatus = targetStatus(act)

		if req.Status == models.StatusAccepted && act == models.ActionAccept {
			reaccept = true
			return nil
		}

		return storeErr("update request", repo.UpdateStatus(ctx, req.ID, tr.NewStatus, now))
	})
	if err != nil {
		return nil, storeErr("respond request", err)
	}

	// The status change is committed. From here on a failure leaves the two
	// stores disagreeing for this pair until the next respond.
	err = s.stores.Friendships.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Friendships(tx)

		if act == models.ActionAccept {
			f := models.NewFriendship(s.newID(), *sender, recipient)
			f.CreatedAt = now

			f, created, err := repo.Upsert(ctx, f)
			if err != nil {
				return err
			}
			if reaccept && !created {
				return common.ErrAlreadyFriends
			}
			tr.FriendshipID = f.ID
			tr.FriendshipChanged = created
			return nil
		}

		removed, err := repo.Delete(ctx, sender.ID, recipient.ID)
		if err != nil {
			return err
		}
		tr.FriendshipChanged = removed
		return nil
	})
	if errors.Is(err, common.ErrAlreadyFriends) {
		return nil, err
	}
	if err != nil {
		s.logger.Error(ctx, "friendship store out of sync with request store",
			"request_id", tr.RequestID,
			"sender_id", sender.ID,
			"recipient_id", recipient.ID,
			"request_status", tr.NewStatus,
			"error", err)
		return nil, storeErr("update friendship", err)
	}

	if reaccept {
		s.logger.Warn(ctx, "missing friendship restored for accepted request", "request_id", tr.RequestID)
	}
	tr.Message = transitionMessage(tr.PreviousStatus, act)

	s.logger.Info(ctx, "friend request answered",
		"request_id", tr.RequestID,
		"from", tr.PreviousStatus,
		"to", tr.NewStatus,
		"friendship_changed", tr.FriendshipChanged)

	return tr, nil
}

func targetStatus(act models.Action) models.RequestStatus {
	if act == models.ActionAccept {
		return models.StatusAccepted
	}
	return models.StatusRejected
}

func transitionMessage(prev models.RequestStatus, act models.Action) string {
	switch {
	case prev == models.StatusRejected && act == models.ActionAccept:
		return MsgReAccepted
	case prev == models.StatusRejected:
		return MsgReRejected
	case prev == models.StatusAccepted && act == models.ActionReject:
		return MsgFriendshipEnded
	case act == models.ActionAccept:
		return MsgAccepted
	default:
		return MsgRejected
	}
}

// clampPage applies the default and maximum page size and floors offset at 0.
func (s *RelationshipService) clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = s.defaultPageSize
	}
	if limit > s.maxPageSize {
		limit = s.maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func parseStatusFilter(status string) (models.RequestStatus, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if status == "" {
		return "", nil
	}
	st, ok := models.ParseRequestStatus(status)
	if !ok {
		return "", common.ErrMalformedInput
	}
	return st, nil
}

// ListRequests returns requests received by caller, newest first.
func (s *RelationshipService) ListRequests(ctx context.Context, caller *models.Identity, status string, limit, offset int) (*models.RequestPage, error) {
	me, err := callerAccount(caller)
	if err != nil {
		return nil, err
	}
	st, err := parseStatusFilter(status)
	if err != nil {
		return nil, err
	}
	limit, offset = s.clampPage(limit, offset)

	repo := s.repomanager.FriendRequests(s.stores.Requests.Conn())

	items, err := repo.ListReceived(ctx, me.ID, st, limit, offset)
	if err != nil {
		return nil, storeErr("list received requests", err)
	}
	total, err := repo.CountReceived(ctx, me.ID, st)
	if err != nil {
		return nil, storeErr("count received requests", err)
	}
	return &models.RequestPage{Requests: items, Total: total, Limit: limit, Offset: offset}, nil
}

// ListSentRequests returns requests sent by caller, newest first.
func (s *RelationshipService) ListSentRequests(ctx context.Context, caller *models.Identity, status string, limit, offset int) (*models.RequestPage, error) {
	me, err := callerAccount(caller)
	if err != nil {
		return nil, err
	}
	st, err := parseStatusFilter(status)
	if err != nil {
		return nil, err
	}
	limit, offset = s.clampPage(limit, offset)

	repo := s.repomanager.FriendRequests(s.stores.Requests.Conn())

	items, err := repo.ListSent(ctx, me.ID, st, limit, offset)
	if err != nil {
		return nil, storeErr("list sent requests", err)
	}
	total, err := repo.CountSent(ctx, me.ID, st)
	if err != nil {
		return nil, storeErr("count sent requests", err)
	}
	return &models.RequestPage{Requests: items, Total: total, Limit: limit, Offset: offset}, nil
}

// GetRequest returns one request addressed to caller.
func (s *RelationshipService) GetRequest(ctx context.Context, caller *models.Identity, id string) (*models.FriendRequest, error) {
	me, err := callerAccount(caller)
	if err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrMalformedInput
	}

	req, err := s.repomanager.FriendRequests(s.stores.Requests.Conn()).GetReceivedByID(ctx, id, me.ID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrRequestNotFound
		}
		return nil, storeErr("get request", err)
	}
	return req, nil
}

// RequestStats counts caller's received and sent requests per status and
// caller's friendships.
func (s *RelationshipService) RequestStats(ctx context.Context, caller *models.Identity) (*models.RequestStats, error) {
	me, err := callerAccount(caller)
	if err != nil {
		return nil, err
	}

	repo := s.repomanager.FriendRequests(s.stores.Requests.Conn())

	received, err := repo.CountReceivedByStatus(ctx, me.ID)
	if err != nil {
		return nil, storeErr("count received", err)
	}
	sent, err := repo.CountSentByStatus(ctx, me.ID)
	if err != nil {
		return nil, storeErr("count sent", err)
	}
	friends, err := s.repomanager.Friendships(s.stores.Friendships.Conn()).CountForUser(ctx, me.ID)
	if err != nil {
		return nil, storeErr("count friends", err)
	}

	return &models.RequestStats{Received: received, Sent: sent, Friends: friends}, nil
}

// ListFriendships returns caller's friends with their current usernames.
// A friend missing from the directory keeps the name stored with the
// friendship.
func (s *RelationshipService) ListFriendships(ctx context.Context, caller *models.Identity) ([]*models.Friend, error) {
	me, err := callerAccount(caller)
	if err != nil {
		return nil, err
	}

	rows, err := s.repomanager.Friendships(s.stores.Friendships.Conn()).ListForUser(ctx, me.ID)
	if err != nil {
		return nil, storeErr("list friendships", err)
	}

	directory := s.repomanager.Users(s.stores.Accounts.Conn())

	result := make([]*models.Friend, 0, len(rows))
	for _, f := range rows {
		other := f.Other(me.ID)

		account, err := directory.ResolveAccount(ctx, other.ID)
		switch {
		case err == nil:
			other.UserName = account.UserName
		case errors.Is(err, common.ErrorNotFound):
			s.logger.Warn(ctx, "friend missing from directory", "friendship_id", f.ID, "user_id", other.ID)
		default:
			return nil, storeErr("resolve account", err)
		}

		result = append(result, &models.Friend{
			FriendshipID: f.ID,
			UserID:       other.ID,
			UserName:     other.UserName,
			Since:        f.CreatedAt,
		})
	}
	return result, nil
}

// AreFriends reports whether a friendship row exists for the pair.
func (s *RelationshipService) AreFriends(ctx context.Context, a, b string) (bool, error) {
	ok, err := s.repomanager.Friendships(s.stores.Friendships.Conn()).Exists(ctx, a, b)
	if err != nil {
		return false, storeErr("check friendship", err)
	}
	return ok, nil
}

// CheckFriendship reports whether caller and userName are friends.
func (s *RelationshipService) CheckFriendship(ctx context.Context, caller *models.Identity, userName string) (bool, error) {
	me, err := callerAccount(caller)
	if err != nil {
		return false, err
	}
	other, err := s.resolve(ctx, userName)
	if err != nil {
		return false, err
	}
	if other.ID == me.ID {
		return false, nil
	}
	return s.AreFriends(ctx, me.ID, other.ID)
}

// RemoveFriendship deletes the friendship of the pair, if any, and reports
// whether a row was removed. The request row is left as is.
func (s *RelationshipService) RemoveFriendship(ctx context.Context, a, b string) (bool, error) {
	unlock, err := s.lockPair(ctx, a, b)
	if err != nil {
		return false, err
	}
	defer unlock()

	var removed bool
	err = s.stores.Friendships.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		removed, err = s.repomanager.Friendships(tx).Delete(ctx, a, b)
		return err
	})
	if err != nil {
		return false, storeErr("remove friendship", err)
	}

	if removed {
		s.logger.Info(ctx, "friendship removed", "user_a", a, "user_b", b)
	}
	return removed, nil
}

// Unfriend removes the friendship between caller and userName.
func (s *RelationshipService) Unfriend(ctx context.Context, caller *models.Identity, userName string) (bool, error) {
	me, err := callerAccount(caller)
	if err != nil {
		return false, err
	}
	other, err := s.resolve(ctx, userName)
	if err != nil {
		return false, err
	}
	if other.ID == me.ID {
		return false, common.ErrSelfRequest
	}
	return s.RemoveFriendship(ctx, me.ID, other.ID)
}
