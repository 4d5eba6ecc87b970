// Package models defines server-side data models persisted in the database
// or carried between layers.
package models

import "time"

// Account is a directory entry. Owned by the directory, immutable here.
type Account struct {
	ID       string
	UserName string
}

// Credential holds the login secrets of one account.
type Credential struct {
	AccountID    string
	PasswordHash string
	// TOTPSecret is base32 encoded.
	TOTPSecret string
}

// Identity is the verified caller produced by token verification. Every
// relationship operation trusts it without consulting the directory.
type Identity struct {
	UserID    string
	UserName  string
	ExpiresAt time.Time
}

// Session is the result of a successful authentication.
type Session struct {
	Token     string
	UserID    string
	UserName  string
	ExpiresAt time.Time
}
