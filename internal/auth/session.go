package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/tmorgan-dev/authgate/internal/models"
)

// SessionConfig configures session token issuance. A nil Clock means
// wall-clock time; tests inject a fake clock to simulate expiry.
type SessionConfig struct {
	Secret string
	TTL    time.Duration
	Clock  func() time.Time
}

// SessionManager mints and verifies the admin session token: an
// HS256-signed structure carrying subject, role and expiry. The token is
// opaque to clients and tamper-evident; invalidation is by expiry only.
type SessionManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSessionManager(cfg SessionConfig) *SessionManager {
	now := cfg.Clock
	if now == nil {
		now = time.Now
	}
	return &SessionManager{
		secret: []byte(cfg.Secret),
		ttl:    cfg.TTL,
		now:    now,
	}
}

// Issue mints a fresh session token expiring TTL from now.
func (sm *SessionManager) Issue(subjectID, role string) (string, time.Time, error) {
	if len(sm.secret) == 0 {
		return "", time.Time{}, models.ErrNotConfigured
	}

	now := sm.now()
	expiresAt := now.Add(sm.ttl)

	claims := &models.SessionClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			ID:        uuid.New().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(sm.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign session token: %w", err)
	}

	return signed, expiresAt, nil
}

// Verify parses and validates a session token. Tampered, expired and
// malformed tokens all collapse to ErrSessionInvalid so callers cannot
// tell which check failed.
func (sm *SessionManager) Verify(tokenString string) (*models.SessionClaims, error) {
	if tokenString == "" || len(sm.secret) == 0 {
		return nil, models.ErrSessionInvalid
	}

	claims := &models.SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return sm.secret, nil
	}, jwt.WithTimeFunc(sm.now))

	if err != nil || !token.Valid {
		return nil, models.ErrSessionInvalid
	}

	return claims, nil
}
