package auth_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmorgan-dev/authgate/internal/auth"
	"github.com/tmorgan-dev/authgate/internal/models"
)

const testSigningSecret = "unit-test-signing-secret-32-chars"

func newSessionManager(ttl time.Duration, clock func() time.Time) *auth.SessionManager {
	return auth.NewSessionManager(auth.SessionConfig{
		Secret: testSigningSecret,
		TTL:    ttl,
		Clock:  clock,
	})
}

func TestSessionManager_IssueAndVerify(t *testing.T) {
	issued := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	sm := newSessionManager(24*time.Hour, func() time.Time { return issued })

	token, expiresAt, err := sm.Issue("admin@example.com", models.RoleAdmin)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Equal(t, issued.Add(24*time.Hour), expiresAt)

	claims, err := sm.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", claims.Subject)
	assert.Equal(t, models.RoleAdmin, claims.Role)
	assert.NotEmpty(t, claims.ID)
	assert.True(t, claims.ExpiresAt.After(claims.IssuedAt.Time))
}

func TestSessionManager_TokensAreUnique(t *testing.T) {
	sm := newSessionManager(time.Hour, nil)

	first, _, err := sm.Issue("admin@example.com", models.RoleAdmin)
	require.NoError(t, err)
	second, _, err := sm.Issue("admin@example.com", models.RoleAdmin)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestSessionManager_ExpiredTokenIsInvalid(t *testing.T) {
	current := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	sm := newSessionManager(time.Hour, func() time.Time { return current })

	token, _, err := sm.Issue("admin@example.com", models.RoleAdmin)
	require.NoError(t, err)

	current = current.Add(time.Hour + time.Second)
	_, err = sm.Verify(token)

	assert.ErrorIs(t, err, models.ErrSessionInvalid)
}

func TestSessionManager_TokenValidUntilExpiry(t *testing.T) {
	current := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	sm := newSessionManager(time.Hour, func() time.Time { return current })

	token, _, err := sm.Issue("admin@example.com", models.RoleAdmin)
	require.NoError(t, err)

	current = current.Add(59 * time.Minute)
	_, err = sm.Verify(token)

	assert.NoError(t, err)
}

func TestSessionManager_TamperedTokenIsInvalid(t *testing.T) {
	sm := newSessionManager(time.Hour, nil)

	token, _, err := sm.Issue("admin@example.com", models.RoleAdmin)
	require.NoError(t, err)

	// Corrupt the payload segment; the signature no longer matches.
	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	tampered := parts[0] + "." + parts[1][:len(parts[1])-2] + "xx." + parts[2]

	_, err = sm.Verify(tampered)
	assert.ErrorIs(t, err, models.ErrSessionInvalid)
}

func TestSessionManager_WrongKeyIsInvalid(t *testing.T) {
	sm := newSessionManager(time.Hour, nil)
	other := auth.NewSessionManager(auth.SessionConfig{
		Secret: "a-completely-different-signing-key",
		TTL:    time.Hour,
	})

	token, _, err := other.Issue("admin@example.com", models.RoleAdmin)
	require.NoError(t, err)

	_, err = sm.Verify(token)
	assert.ErrorIs(t, err, models.ErrSessionInvalid)
}

func TestSessionManager_MalformedTokensAreInvalid(t *testing.T) {
	sm := newSessionManager(time.Hour, nil)

	for _, token := range []string{"", "garbage", "a.b", "a.b.c.d", "...."} {
		_, err := sm.Verify(token)
		assert.ErrorIs(t, err, models.ErrSessionInvalid, "token %q", token)
	}
}

func TestSessionManager_IssueWithoutSecretFails(t *testing.T) {
	sm := auth.NewSessionManager(auth.SessionConfig{TTL: time.Hour})

	_, _, err := sm.Issue("admin@example.com", models.RoleAdmin)

	assert.ErrorIs(t, err, models.ErrNotConfigured)
}
