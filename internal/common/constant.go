// Package common contains shared constants and sentinel errors used across
// GophFriends components.
package common

// AuthorizationHeaderName is the HTTP header / gRPC metadata key carrying the
// session token.
const AuthorizationHeaderName = "authorization"

// BearerPrefix is the literal scheme prefix required on the authorization
// value.
const BearerPrefix = "Bearer "
