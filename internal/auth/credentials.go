package auth

import (
	"crypto/subtle"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// CredentialConfig holds the single configured admin identity.
// PasswordHash, when present, is a bcrypt hash and wins over Password.
type CredentialConfig struct {
	Email        string
	Password     string
	PasswordHash string
}

// CredentialValidator compares submitted credentials against the one
// configured admin identity. It is stateless and fails closed: with no
// configured pair, verification never succeeds.
type CredentialValidator struct {
	email        string
	password     []byte
	passwordHash []byte
}

func NewCredentialValidator(cfg CredentialConfig) *CredentialValidator {
	return &CredentialValidator{
		email:        strings.ToLower(strings.TrimSpace(cfg.Email)),
		password:     []byte(cfg.Password),
		passwordHash: []byte(cfg.PasswordHash),
	}
}

// Configured reports whether a usable credential pair is provisioned.
func (v *CredentialValidator) Configured() bool {
	return v.email != "" && (len(v.password) > 0 || len(v.passwordHash) > 0)
}

// Verify checks the submitted pair. The identifier comparison is
// case-insensitive; the secret comparison is exact and constant-time.
// Both comparisons run regardless of the identifier outcome so a wrong
// identifier is not distinguishable by response time.
func (v *CredentialValidator) Verify(identifier, secret string) bool {
	if !v.Configured() {
		return false
	}

	emailOK := strings.EqualFold(strings.TrimSpace(identifier), v.email)

	var secretOK bool
	if len(v.passwordHash) > 0 {
		secretOK = bcrypt.CompareHashAndPassword(v.passwordHash, []byte(secret)) == nil
	} else {
		secretOK = subtle.ConstantTimeCompare(v.password, []byte(secret)) == 1
	}

	return emailOK && secretOK
}
