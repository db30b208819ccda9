package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/matteolinarello/Web-App-SIGEP/internal/config"
	"github.com/matteolinarello/Web-App-SIGEP/internal/infrastructure/redis"
	"github.com/matteolinarello/Web-App-SIGEP/pkg/logger"
)

const (
	cookieLifetime = 1 * time.Hour
	keyPrefix      = "sigep:panel:"
)

// SessionClaims bind a browser to one assistant panel
type SessionClaims struct {
	jwt.RegisteredClaims
	SessionID string `json:"sid"`
}

type SessionStore interface {
	Set(ctx context.Context, sessionID string, claims *SessionClaims) error
	Get(ctx context.Context, sessionID string) (*SessionClaims, error)
	Delete(ctx context.Context, sessionID string) error
}

type RedisStore struct {
	redisService *redis.Service
}

type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*SessionClaims
}

type Service struct {
	store SessionStore
	now   func() time.Time
}

// NewService keeps panel cookies in Redis when a connection is available and
// in memory otherwise.
func NewService(redisService *redis.Service) *Service {
	var store SessionStore
	if redisService != nil {
		logger.Info(logger.SESSION, "Panel sessions stored in Redis")
		store = &RedisStore{redisService: redisService}
	} else {
		logger.Info(logger.SESSION, "Panel sessions stored in memory")
		store = NewMemoryStore()
	}

	return NewServiceWithStore(store)
}

func NewServiceWithStore(store SessionStore) *Service {
	return &Service{store: store, now: time.Now}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*SessionClaims),
	}
}

// Redis Store implementation
func (rs *RedisStore) Set(ctx context.Context, sessionID string, claims *SessionClaims) error {
	data, err := json.Marshal(claims)
	if err != nil {
		return err
	}

	return rs.redisService.Set(ctx, keyPrefix+sessionID, string(data), cookieLifetime)
}

func (rs *RedisStore) Get(ctx context.Context, sessionID string) (*SessionClaims, error) {
	data, err := rs.redisService.Get(ctx, keyPrefix+sessionID)
	if errors.Is(err, redis.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var claims SessionClaims
	if err := json.Unmarshal([]byte(data), &claims); err != nil {
		return nil, err
	}

	return &claims, nil
}

func (rs *RedisStore) Delete(ctx context.Context, sessionID string) error {
	return rs.redisService.Delete(ctx, keyPrefix+sessionID)
}

// Memory Store implementation
func (ms *MemoryStore) Set(_ context.Context, sessionID string, claims *SessionClaims) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.sessions[sessionID] = claims
	return nil
}

func (ms *MemoryStore) Get(_ context.Context, sessionID string) (*SessionClaims, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	claims, exists := ms.sessions[sessionID]
	if !exists {
		return nil, nil
	}
	return claims, nil
}

func (ms *MemoryStore) Delete(_ context.Context, sessionID string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	delete(ms.sessions, sessionID)
	return nil
}

// CreateSession records the panel and sets a signed cookie naming it
func (s *Service) CreateSession(ctx context.Context, w http.ResponseWriter, sessionID string) error {
	now := s.now()
	claims := &SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(cookieLifetime)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        sessionID,
		},
		SessionID: sessionID,
	}

	if err := s.store.Set(ctx, sessionID, claims); err != nil {
		return err
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(config.GetJWTSecret())
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     config.GetSessionCookieName(),
		Value:    signedToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
		Expires:  now.Add(cookieLifetime),
	})
	return nil
}

// ValidateSession returns the claims of a valid panel cookie, or nil when the
// request carries none or its panel is no longer stored.
func (s *Service) ValidateSession(r *http.Request) (*SessionClaims, error) {
	cookie, err := r.Cookie(config.GetSessionCookieName())
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return nil, nil
		}
		return nil, err
	}

	claims, err := parseClaims(cookie.Value)
	if err != nil {
		return nil, err
	}

	storedClaims, err := s.store.Get(r.Context(), claims.SessionID)
	if err != nil {
		return nil, err
	}
	if storedClaims == nil {
		return nil, nil
	}

	return claims, nil
}

// BoundTo reports whether the request's cookie is a valid token for the panel
func (s *Service) BoundTo(r *http.Request, sessionID string) bool {
	cookie, err := r.Cookie(config.GetSessionCookieName())
	if err != nil {
		return false
	}
	claims, err := parseClaims(cookie.Value)
	return err == nil && claims.SessionID == sessionID
}

// ClearSession removes the panel from storage and expires its cookie
func (s *Service) ClearSession(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(config.GetSessionCookieName()); err == nil {
		if claims, err := parseClaims(cookie.Value); err == nil {
			if err := s.store.Delete(r.Context(), claims.SessionID); err != nil {
				logger.Warn(logger.SESSION, "Failed to delete panel session %s: %v", claims.SessionID, err)
			}
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     config.GetSessionCookieName(),
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
		Expires:  s.now().Add(-1 * time.Hour),
		MaxAge:   -1,
	})
}

func parseClaims(value string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(value, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		return config.GetJWTSecret(), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid || claims.SessionID == "" {
		return nil, errors.New("invalid session token")
	}
	return claims, nil
}
