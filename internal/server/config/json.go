package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/gophfriends/internal/flagx"
	"github.com/dmitrijs2005/gophfriends/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations use
// timex.Duration so both "24h" and integer nanoseconds are accepted.
type JsonConfig struct {
	EndpointAddrHTTP       string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC       string         `json:"endpoint_addr_grpc"`
	DatabaseDSN            string         `json:"database_dsn"`
	RequestsDatabaseDSN    string         `json:"requests_database_dsn"`
	FriendshipsDatabaseDSN string         `json:"friendships_database_dsn"`
	SecretKey              string         `json:"secret_key"`
	TokenIssuer            string         `json:"token_issuer"`
	TokenValidityDuration  timex.Duration `json:"token_validity_duration"`
	RequestTimeout         timex.Duration `json:"request_timeout"`
	DefaultPageSize        int            `json:"default_page_size"`
	MaxPageSize            int            `json:"max_page_size"`
}

// parseJson overlays values from the file named by -c / -config. Keys that
// are absent or zero leave the current value untouched. A missing or
// malformed file panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigFilePath()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.RequestsDatabaseDSN, c.RequestsDatabaseDSN)
	setString(&config.FriendshipsDatabaseDSN, c.FriendshipsDatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.TokenIssuer, c.TokenIssuer)

	if c.TokenValidityDuration.Duration > 0 {
		config.TokenValidityDuration = c.TokenValidityDuration.Duration
	}
	if c.RequestTimeout.Duration > 0 {
		config.RequestTimeout = c.RequestTimeout.Duration
	}
	if c.DefaultPageSize > 0 {
		config.DefaultPageSize = c.DefaultPageSize
	}
	if c.MaxPageSize > 0 {
		config.MaxPageSize = c.MaxPageSize
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
