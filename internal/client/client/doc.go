// Package client talks to the GophFriends gRPC API.
//
// GRPCClient manages one connection, attaches the session token to every
// call through a unary interceptor and maps gRPC status codes to the
// sentinel errors ErrUnavailable and ErrUnauthorized. Other failures keep
// the server's message.
package client
