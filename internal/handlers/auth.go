package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/tmorgan-dev/authgate/internal/auth"
	"github.com/tmorgan-dev/authgate/internal/models"
	"github.com/tmorgan-dev/authgate/internal/services"
	pkghttp "github.com/tmorgan-dev/authgate/pkg/http"
)

// AuthGateway defines the interface for the login transaction
type AuthGateway interface {
	Login(ctx context.Context, email, password, clientKey string) (*services.LoginResult, error)
}

// AuthHandler handles the admin authentication HTTP surface
type AuthHandler struct {
	service   AuthGateway
	keyConfig *pkghttp.ClientKeyConfig
	cookies   auth.CookieConfig
}

func NewAuthHandler(service AuthGateway, keyConfig *pkghttp.ClientKeyConfig, cookies auth.CookieConfig) *AuthHandler {
	return &AuthHandler{
		service:   service,
		keyConfig: keyConfig,
		cookies:   cookies,
	}
}

// LoginRequest represents the request body for login. Shape validation
// happens inside the gate, after the attempt has been counted.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse represents a successful login
type LoginResponse struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// SessionResponse describes the authenticated session for the caller
type SessionResponse struct {
	Subject   string    `json:"subject"`
	Role      string    `json:"role"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Login handles the admin login transaction
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest

	// A body that fails to decode still goes through the gate with zero
	// values, so probing with garbage bodies consumes attempt budget.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		req = LoginRequest{}
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	clientKey := pkghttp.ClientKey(r, h.keyConfig)

	result, err := h.service.Login(r.Context(), req.Email, req.Password, clientKey)
	if err != nil {
		h.writeLoginError(w, err)
		return
	}

	auth.SetSessionCookie(w, result.Token, result.ExpiresAt, h.cookies)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(LoginResponse{
		Success:   true,
		Message:   "Login successful",
		ExpiresAt: result.ExpiresAt.UTC(),
	})
}

func (h *AuthHandler) writeLoginError(w http.ResponseWriter, err error) {
	var rateErr *models.RateLimitError
	var valErr *models.ValidationError
	var credErr *models.InvalidCredentialsError

	switch {
	case errors.Is(err, models.ErrNotConfigured):
		pkghttp.WriteInternalError(w, "Authentication is not configured")
	case errors.As(err, &rateErr):
		pkghttp.WriteTooManyRequests(w,
			"Too many failed login attempts. Please try again later.",
			retryAfterSeconds(rateErr.RetryAfter))
	case errors.As(err, &valErr):
		pkghttp.WriteBadRequest(w, "Invalid request body", valErr.Details...)
	case errors.As(err, &credErr):
		// Generic message - never indicate whether the email or the
		// password was wrong.
		pkghttp.WriteAuthFailure(w, "Invalid credentials", credErr.Remaining)
	default:
		pkghttp.WriteInternalError(w, "Internal server error")
	}
}

// Session returns the claims of the current admin session.
// Requires the RequireSession middleware.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetSessionFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(SessionResponse{
		Subject:   claims.Subject,
		Role:      claims.Role,
		IssuedAt:  claims.IssuedAt.Time.UTC(),
		ExpiresAt: claims.ExpiresAt.Time.UTC(),
	})
}

// Logout clears the session cookie. Tokens are invalidated by expiry
// only, so this removes the client's copy rather than revoking it.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSessionCookie(w, h.cookies)
	w.WriteHeader(http.StatusNoContent)
}

// retryAfterSeconds rounds up so a sub-second lockout remainder still
// tells the client to wait.
func retryAfterSeconds(d time.Duration) int {
	secs := int(math.Ceil(d.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return secs
}
