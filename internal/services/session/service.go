package session

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/deepgram/oppositegpt/internal/config"
	"github.com/deepgram/oppositegpt/internal/logger"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrAuthDisabled is returned when a token is requested without a configured secret
var ErrAuthDisabled = errors.New("session authentication disabled")

type SessionClaims struct {
	jwt.RegisteredClaims
	SessionID string `json:"sid"`
}

// Service owns the identifier of one client session. The identifier correlates
// turns on the streaming transport and lives as long as the process.
type Service struct {
	id       string
	secret   []byte
	lifetime time.Duration
	now      func() time.Time
}

// NewService creates a session with a fresh random identifier, signing tokens with
// the configured JWT secret when one is set
func NewService() *Service {
	return NewServiceWithSecret(config.GetJWTSecret())
}

// NewServiceWithSecret creates a session that signs tokens with secret.
// An empty secret disables authentication.
func NewServiceWithSecret(secret []byte) *Service {
	s := &Service{
		id:       uuid.New().String(),
		secret:   secret,
		lifetime: config.GetSessionTokenLifetime(),
		now:      time.Now,
	}
	logger.Debug(logger.SESSION, "Created session %s (auth enabled: %t)", s.id, s.AuthEnabled())
	return s
}

// ID returns the session identifier
func (s *Service) ID() string {
	return s.id
}

// AuthEnabled reports whether requests carry a bearer token
func (s *Service) AuthEnabled() bool {
	return len(s.secret) > 0
}

// Token mints a short-lived HS256 token whose sid claim is the session identifier
func (s *Service) Token() (string, error) {
	if !s.AuthEnabled() {
		return "", ErrAuthDisabled
	}

	now := s.now()
	claims := &SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.lifetime)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
			Subject:   s.id,
		},
		SessionID: s.id,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// AuthHeader returns the headers that authenticate this session. Without a
// secret the header set is empty.
func (s *Service) AuthHeader() (http.Header, error) {
	header := http.Header{}
	if !s.AuthEnabled() {
		return header, nil
	}

	token, err := s.Token()
	if err != nil {
		return nil, err
	}
	header.Set("Authorization", "Bearer "+token)
	return header, nil
}
