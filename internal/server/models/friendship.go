package models

import "time"

// Friendship is stored with UserAID < UserBID so that every unordered pair
// maps to exactly one row.
type Friendship struct {
	ID        string
	UserAID   string
	UserAName string
	UserBID   string
	UserBName string
	CreatedAt time.Time
}

// NewFriendship orders the two parties canonically.
func NewFriendship(id string, x, y Account) *Friendship {
	if y.ID < x.ID {
		x, y = y, x
	}
	return &Friendship{ID: id, UserAID: x.ID, UserAName: x.UserName, UserBID: y.ID, UserBName: y.UserName}
}

// Other returns the party that is not userID, as stored.
func (f *Friendship) Other(userID string) Account {
	if f.UserAID == userID {
		return Account{ID: f.UserBID, UserName: f.UserBName}
	}
	return Account{ID: f.UserAID, UserName: f.UserAName}
}

// Friend is a friendship seen from one side, with the other party's current
// username.
type Friend struct {
	FriendshipID string
	UserID       string
	UserName     string
	Since        time.Time
}

// OrderedPair returns a and b sorted. It is the key of both the request and
// the friendship collections.
func OrderedPair(a, b string) (low, high string) {
	if b < a {
		return b, a
	}
	return a, b
}

// PairKey is OrderedPair joined into one string.
func PairKey(a, b string) string {
	low, high := OrderedPair(a, b)
	return low + "|" + high
}
