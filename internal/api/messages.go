package api

import (
	"encoding/json"
	"time"

	"github.com/dmitrijs2005/gophfriends/internal/server/models"
)

// TokenType is reported alongside every issued token.
const TokenType = "bearer"

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	OTPCode  string `json:"otp_code"`
}

type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	UserID      string    `json:"user_id"`
	Username    string    `json:"username"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type VerifyTokenRequest struct{}

type VerifyTokenResponse struct {
	Valid     bool      `json:"valid"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expires_at"`
}

type PingRequest struct{}

type PingResponse struct {
	Status string `json:"status"`
}

type SendFriendRequest struct {
	Username string `json:"username"`
	Message  string `json:"message,omitempty"`
}

type RespondFriendRequest struct {
	Username string `json:"username"`
	Action   string `json:"action"`
}

type ListRequestsRequest struct {
	Status string `json:"status,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

type GetRequestRequest struct {
	ID string `json:"id"`
}

type RequestStatsRequest struct{}

type ListFriendsRequest struct{}

type UsernameRequest struct {
	Username string `json:"username"`
}

type FriendRequest struct {
	ID                string          `json:"id"`
	SenderID          string          `json:"sender_id"`
	SenderUsername    string          `json:"sender_username"`
	RecipientID       string          `json:"recipient_id"`
	RecipientUsername string          `json:"recipient_username"`
	Status            string          `json:"status"`
	Payload           json.RawMessage `json:"payload,omitempty"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

type User struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

type RespondResponse struct {
	RequestID         string    `json:"request_id"`
	Sender            User      `json:"sender"`
	Action            string    `json:"action"`
	PreviousStatus    string    `json:"previous_status"`
	Status            string    `json:"status"`
	FriendshipID      string    `json:"friendship_id,omitempty"`
	FriendshipChanged bool      `json:"friendship_changed"`
	Message           string    `json:"message"`
	RespondedAt       time.Time `json:"responded_at"`
}

type ListRequestsResponse struct {
	Requests []FriendRequest `json:"requests"`
	Total    int             `json:"total"`
	Limit    int             `json:"limit"`
	Offset   int             `json:"offset"`
	HasMore  bool            `json:"has_more"`
}

type StatusCounts struct {
	Pending  int `json:"pending"`
	Accepted int `json:"accepted"`
	Rejected int `json:"rejected"`
	Total    int `json:"total"`
}

type RequestStatsResponse struct {
	Received StatusCounts `json:"received"`
	Sent     StatusCounts `json:"sent"`
	Friends  int          `json:"friends"`
}

type Friend struct {
	FriendshipID string    `json:"friendship_id"`
	UserID       string    `json:"user_id"`
	Username     string    `json:"username"`
	Since        time.Time `json:"since"`
}

type ListFriendsResponse struct {
	Friends []Friend `json:"friends"`
	Count   int      `json:"count"`
}

type CheckFriendshipResponse struct {
	Username   string `json:"username"`
	AreFriends bool   `json:"are_friends"`
}

type RemoveFriendResponse struct {
	Username string `json:"username"`
	Removed  bool   `json:"removed"`
}

// ErrorResponse is the HTTP error body.
type ErrorResponse struct {
	Error string `json:"error"`
}

func FromFriendRequest(r *models.FriendRequest) FriendRequest {
	return FriendRequest{
		ID:                r.ID,
		SenderID:          r.SenderID,
		SenderUsername:    r.SenderName,
		RecipientID:       r.RecipientID,
		RecipientUsername: r.RecipientName,
		Status:            string(r.Status),
		Payload:           r.Payload,
		UpdatedAt:         r.UpdatedAt,
	}
}

func FromRequestPage(p *models.RequestPage) *ListRequestsResponse {
	out := &ListRequestsResponse{
		Requests: make([]FriendRequest, 0, len(p.Requests)),
		Total:    p.Total,
		Limit:    p.Limit,
		Offset:   p.Offset,
		HasMore:  p.HasMore(),
	}
	for _, r := range p.Requests {
		out.Requests = append(out.Requests, FromFriendRequest(r))
	}
	return out
}

func FromTransition(t *models.Transition) *RespondResponse {
	return &RespondResponse{
		RequestID:         t.RequestID,
		Sender:            User{UserID: t.Sender.ID, Username: t.Sender.UserName},
		Action:            string(t.Action),
		PreviousStatus:    string(t.PreviousStatus),
		Status:            string(t.NewStatus),
		FriendshipID:      t.FriendshipID,
		FriendshipChanged: t.FriendshipChanged,
		Message:           t.Message,
		RespondedAt:       t.RespondedAt,
	}
}

func fromCounts(c models.StatusCounts) StatusCounts {
	return StatusCounts{Pending: c.Pending, Accepted: c.Accepted, Rejected: c.Rejected, Total: c.Total()}
}

func FromRequestStats(s *models.RequestStats) *RequestStatsResponse {
	return &RequestStatsResponse{Received: fromCounts(s.Received), Sent: fromCounts(s.Sent), Friends: s.Friends}
}

func FromFriends(friends []*models.Friend) *ListFriendsResponse {
	out := &ListFriendsResponse{Friends: make([]Friend, 0, len(friends)), Count: len(friends)}
	for _, f := range friends {
		out.Friends = append(out.Friends, Friend{
			FriendshipID: f.FriendshipID,
			UserID:       f.UserID,
			Username:     f.UserName,
			Since:        f.Since,
		})
	}
	return out
}

func FromSession(s *models.Session) *LoginResponse {
	return &LoginResponse{
		AccessToken: s.Token,
		TokenType:   TokenType,
		UserID:      s.UserID,
		Username:    s.UserName,
		ExpiresAt:   s.ExpiresAt,
	}
}

func FromIdentity(id *models.Identity) *VerifyTokenResponse {
	return &VerifyTokenResponse{Valid: true, UserID: id.UserID, Username: id.UserName, ExpiresAt: id.ExpiresAt}
}
