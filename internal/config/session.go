package config

import (
	"sync"

	"github.com/matteolinarello/Web-App-SIGEP/pkg/logger"
)

const defaultJWTSecret = "sigep-dev-secret-change-me"

var (
	jwtSecretMu sync.RWMutex
	// JWTSecret signs the panel session cookie. It is read from the
	// environment on first use so a .env file loaded at startup applies.
	JWTSecret []byte
)

func loadJWTSecret() string {
	value := GetEnvOrDefault("JWT_SECRET", "")
	if value == "" {
		logger.Warn(logger.CONFIG, "JWT_SECRET not set - using development secret")
		return defaultJWTSecret
	}
	return value
}

// SetJWTSecret temporarily changes the JWT secret and returns a function to restore it
func SetJWTSecret(secret []byte) func() {
	jwtSecretMu.Lock()
	previous := JWTSecret
	JWTSecret = secret
	jwtSecretMu.Unlock()

	return func() {
		jwtSecretMu.Lock()
		JWTSecret = previous
		jwtSecretMu.Unlock()
	}
}

// GetJWTSecret returns the current JWT secret in a thread-safe manner
func GetJWTSecret() []byte {
	jwtSecretMu.RLock()
	secret := JWTSecret
	jwtSecretMu.RUnlock()
	if secret != nil {
		return secret
	}

	jwtSecretMu.Lock()
	defer jwtSecretMu.Unlock()
	if JWTSecret == nil {
		JWTSecret = []byte(loadJWTSecret())
	}
	return JWTSecret
}

// GetSessionCookieName defaults to "sigep_session" if not set in environment
func GetSessionCookieName() string {
	return GetEnvOrDefault("SESSION_COOKIE_NAME", "sigep_session")
}
