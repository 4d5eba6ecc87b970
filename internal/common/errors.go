// Package common defines shared constants and sentinel errors used across
// client and server layers of GophFriends. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Validation errors.
	ErrMalformedInput = errors.New("malformed input")

	// Authentication errors. Transports must not tell these two apart.
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrInvalidOrExpiredCode = errors.New("invalid or expired code")

	// Token verification errors.
	ErrInvalidToken        = errors.New("invalid token")
	ErrTokenExpired        = errors.New("token expired")
	ErrMalformedAuthHeader = errors.New("authorization header must start with Bearer")

	// Relationship errors.
	ErrUserNotFound              = errors.New("user not found")
	ErrSelfRequest               = errors.New("cannot send friend request to yourself")
	ErrAlreadyFriends            = errors.New("already friends")
	ErrRequestPending            = errors.New("friend request already pending")
	ErrRequestPreviouslyRejected = errors.New("previous friend request was rejected")
	ErrRequestNotFound           = errors.New("friend request not found")

	// Infrastructure errors. Retryable.
	ErrStoreUnavailable = errors.New("store unavailable")
)
