package config

import (
	"sync"
	"time"

	"github.com/deepgram/oppositegpt/internal/logger"
)

// minSecretLength is the HS256 key size below which a warning is logged
const minSecretLength = 32

// DefaultTokenLifetime bounds bearer tokens when OPPOSITEGPT_TOKEN_LIFETIME is unset
const DefaultTokenLifetime = time.Hour

var (
	authMu        sync.RWMutex
	jwtSecret     = loadJWTSecret()
	tokenLifetime = parseEnvDuration("OPPOSITEGPT_TOKEN_LIFETIME", DefaultTokenLifetime)
)

func loadJWTSecret() []byte {
	secret := GetEnvOrDefault("OPPOSITEGPT_JWT_SECRET", "")
	if secret != "" && len(secret) < minSecretLength {
		logger.Warn(logger.CONFIG, "OPPOSITEGPT_JWT_SECRET is shorter than %d bytes", minSecretLength)
	}
	return []byte(secret)
}

// GetJWTSecret returns the key bearer tokens are signed with. Empty means the
// backend is reached without authentication.
func GetJWTSecret() []byte {
	authMu.RLock()
	defer authMu.RUnlock()
	return jwtSecret
}

// SetJWTSecret swaps the signing key and returns a func that puts the old one back
func SetJWTSecret(secret []byte) func() {
	authMu.Lock()
	previous := jwtSecret
	jwtSecret = secret
	authMu.Unlock()

	return func() {
		authMu.Lock()
		jwtSecret = previous
		authMu.Unlock()
	}
}

// GetSessionTokenLifetime returns how long a minted bearer token stays valid
func GetSessionTokenLifetime() time.Duration {
	authMu.RLock()
	defer authMu.RUnlock()
	return tokenLifetime
}

// SetSessionTokenLifetime swaps the token lifetime and returns a func that restores it
func SetSessionTokenLifetime(d time.Duration) func() {
	authMu.Lock()
	previous := tokenLifetime
	tokenLifetime = d
	authMu.Unlock()

	return func() {
		authMu.Lock()
		tokenLifetime = previous
		authMu.Unlock()
	}
}

func parseEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := GetEnvOrDefault(key, "")
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		logger.Warn(logger.CONFIG, "Ignoring %s=%q, using %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}
