package models

import (
	"encoding/json"
	"time"
)

type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusAccepted RequestStatus = "accepted"
	StatusRejected RequestStatus = "rejected"
)

// ParseRequestStatus accepts the three status names only.
func ParseRequestStatus(s string) (RequestStatus, bool) {
	switch st := RequestStatus(s); st {
	case StatusPending, StatusAccepted, StatusRejected:
		return st, true
	}
	return "", false
}

type Action string

const (
	ActionAccept Action = "accept"
	ActionReject Action = "reject"
)

func ParseAction(s string) (Action, bool) {
	switch a := Action(s); a {
	case ActionAccept, ActionReject:
		return a, true
	}
	return "", false
}

// FriendRequest is the single request row of an unordered pair.
type FriendRequest struct {
	ID            string
	SenderID      string
	SenderName    string
	RecipientID   string
	RecipientName string
	Status        RequestStatus
	// Payload is free-form JSON describing the request.
	Payload   json.RawMessage
	UpdatedAt time.Time
}

// RequestPayload is what the service stores in FriendRequest.Payload.
type RequestPayload struct {
	Type      string    `json:"type"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// RequestPage is one page of received requests.
type RequestPage struct {
	Requests []*FriendRequest
	Total    int
	Limit    int
	Offset   int
}

func (p *RequestPage) HasMore() bool {
	return p.Offset+len(p.Requests) < p.Total
}

// StatusCounts counts requests per status.
type StatusCounts struct {
	Pending  int
	Accepted int
	Rejected int
}

func (c StatusCounts) Total() int {
	return c.Pending + c.Accepted + c.Rejected
}

// Add increments the counter for status by n. Unknown statuses are ignored.
func (c *StatusCounts) Add(status RequestStatus, n int) {
	switch status {
	case StatusPending:
		c.Pending += n
	case StatusAccepted:
		c.Accepted += n
	case StatusRejected:
		c.Rejected += n
	}
}

// RequestStats summarises one account's relationships.
type RequestStats struct {
	Received StatusCounts
	Sent     StatusCounts
	Friends  int
}

// Transition reports the outcome of answering a request.
type Transition struct {
	RequestID      string
	Sender         Account
	Action         Action
	PreviousStatus RequestStatus
	NewStatus      RequestStatus
	// FriendshipID is set after an accept.
	FriendshipID string
	// FriendshipChanged is true when a friendship row was created or removed.
	FriendshipChanged bool
	Message           string
	RespondedAt       time.Time
}
