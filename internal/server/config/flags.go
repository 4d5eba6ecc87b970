package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/gophfriends/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-g string   gRPC bind address (e.g., ":50051")
//	-d string   PostgreSQL DSN of the account store
//	-q string   PostgreSQL DSN of the request store
//	-f string   PostgreSQL DSN of the friendship store
//	-s string   JWT HMAC secret key
//	-i string   JWT issuer
//	-t int      token validity, minutes
//	-o int      request timeout, seconds
//
// Notes:
//   - The function first filters os.Args to only the flags it recognizes using
//     flagx.FilterArgs, avoiding collisions with other components.
//   - Duration flags are accepted as integers and then converted to
//     time.Duration values.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-g", "-d", "-q", "-f", "-s", "-i", "-t", "-o"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "HTTP address and port")
	fs.StringVar(&config.EndpointAddrGRPC, "g", config.EndpointAddrGRPC, "gRPC address and port")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "account database DSN")
	fs.StringVar(&config.RequestsDatabaseDSN, "q", config.RequestsDatabaseDSN, "friend request database DSN")
	fs.StringVar(&config.FriendshipsDatabaseDSN, "f", config.FriendshipsDatabaseDSN, "friendship database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.StringVar(&config.TokenIssuer, "i", config.TokenIssuer, "token issuer")

	tokenValidity := fs.Int("t", int(config.TokenValidityDuration.Minutes()), "token_validity_duration (in minutes)")
	requestTimeout := fs.Int("o", int(config.RequestTimeout.Seconds()), "request_timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.TokenValidityDuration = time.Duration(*tokenValidity) * time.Minute
	config.RequestTimeout = time.Duration(*requestTimeout) * time.Second
}
