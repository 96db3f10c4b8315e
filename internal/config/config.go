// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const defaultScope = "https://www.googleapis.com/auth/gmail.modify"

// Config holds the application configuration loaded from environment variables.
type Config struct {
	TokenPath      string
	ClientFilePath string
	Scopes         []string
	RefreshTimeout time.Duration
	ListenAddr     string
	DBPath         string
	MaxResultsCap  int64
}

// HasClientCredentials returns true when the OAuth client file path is set.
// Used by the composition root to decide whether to create a token refresher
// at startup or run without one until the file is provided.
func (c *Config) HasClientCredentials() bool {
	return c.ClientFilePath != ""
}

// Load reads configuration from environment variables and returns a validated Config.
// The OAuth client file (MAILBRIDGE_CLIENT_FILE) is optional; without it the app
// starts but cannot refresh expired tokens or build a mail client until the stored
// credential is usable. Optional variables with defaults:
// MAILBRIDGE_TOKEN_PATH (token.json), MAILBRIDGE_SCOPES (gmail.modify),
// MAILBRIDGE_REFRESH_TIMEOUT (30s), MAILBRIDGE_LISTEN_ADDR (127.0.0.1:8080),
// MAILBRIDGE_DB_PATH (mailbridge.db), MAILBRIDGE_MAX_RESULTS (100).
func Load() (*Config, error) {
	tokenPath := "token.json"
	if v, ok := os.LookupEnv("MAILBRIDGE_TOKEN_PATH"); ok {
		tokenPath = v
	}

	clientFilePath := os.Getenv("MAILBRIDGE_CLIENT_FILE")

	scopes := []string{defaultScope}
	if v, ok := os.LookupEnv("MAILBRIDGE_SCOPES"); ok && v != "" {
		scopes = nil
		for _, scope := range strings.Split(v, ",") {
			scope = strings.TrimSpace(scope)
			if scope != "" {
				scopes = append(scopes, scope)
			}
		}
		if len(scopes) == 0 {
			return nil, fmt.Errorf("MAILBRIDGE_SCOPES is set but contains no scopes")
		}
	}

	refreshTimeout := 30 * time.Second
	if v, ok := os.LookupEnv("MAILBRIDGE_REFRESH_TIMEOUT"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("MAILBRIDGE_REFRESH_TIMEOUT has invalid duration %q: %w", v, err)
		}
		if parsed <= 0 {
			return nil, fmt.Errorf("MAILBRIDGE_REFRESH_TIMEOUT must be positive, got %q", v)
		}
		refreshTimeout = parsed
	}

	listenAddr := "127.0.0.1:8080"
	if v, ok := os.LookupEnv("MAILBRIDGE_LISTEN_ADDR"); ok {
		listenAddr = v
	}

	dbPath := "mailbridge.db"
	if v, ok := os.LookupEnv("MAILBRIDGE_DB_PATH"); ok {
		dbPath = v
	}

	var maxResultsCap int64 = 100
	if v, ok := os.LookupEnv("MAILBRIDGE_MAX_RESULTS"); ok {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("MAILBRIDGE_MAX_RESULTS must be a positive integer, got %q", v)
		}
		maxResultsCap = parsed
	}

	return &Config{
		TokenPath:      tokenPath,
		ClientFilePath: clientFilePath,
		Scopes:         scopes,
		RefreshTimeout: refreshTimeout,
		ListenAddr:     listenAddr,
		DBPath:         dbPath,
		MaxResultsCap:  maxResultsCap,
	}, nil
}
