// Package cli provides the interactive GophFriends command-line client.
//
// The REPL logs in with username, password and a one-time code, then sends
// and answers friend requests, lists requests and friends, and removes
// friendships through the gRPC API. The totp command prints the current
// login code for a base32 secret.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
