package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/tmorgan-dev/authgate/internal/auth"
	"github.com/tmorgan-dev/authgate/internal/models"
	pkglogger "github.com/tmorgan-dev/authgate/pkg/logger"
)

// RateLimiter is the throttling dependency of the login transaction.
type RateLimiter interface {
	CheckAndRecord(ctx context.Context, clientKey string) (models.Decision, error)
	ClearOnSuccess(ctx context.Context, clientKey string) error
}

// CredentialChecker validates the submitted pair against the configured
// admin identity.
type CredentialChecker interface {
	Configured() bool
	Verify(identifier, secret string) bool
}

// SessionIssuer mints the session token on successful login.
type SessionIssuer interface {
	Issue(subjectID, role string) (string, time.Time, error)
}

// LoginResult is the successful outcome of a login transaction.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
}

// loginInput is validated after the attempt is recorded, so malformed
// probes cannot bypass the limiter.
type loginInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8"`
}

// AuthService runs the login transaction in a fixed order:
// configuration check, rate limit, request-shape validation, credential
// check, session issuance. Misconfiguration never consumes attempt
// budget; every rejection after the rate-limit step has been counted.
type AuthService struct {
	credentials CredentialChecker
	limiter     RateLimiter
	sessions    SessionIssuer
	timing      *auth.TimingDelay
	validate    *validator.Validate
	logger      *slog.Logger
	audit       *pkglogger.AuditLogger
}

func NewAuthService(
	credentials CredentialChecker,
	limiter RateLimiter,
	sessions SessionIssuer,
	timing *auth.TimingDelay,
	logger *slog.Logger,
	audit *pkglogger.AuditLogger,
) *AuthService {
	return &AuthService{
		credentials: credentials,
		limiter:     limiter,
		sessions:    sessions,
		timing:      timing,
		validate:    validator.New(),
		logger:      logger,
		audit:       audit,
	}
}

// Login authenticates one submission from clientKey. Email is expected
// pre-normalized (lowercased, trimmed) by the caller.
func (s *AuthService) Login(ctx context.Context, email, password, clientKey string) (*LoginResult, error) {
	if !s.credentials.Configured() {
		s.logger.Error("admin credentials are not provisioned")
		s.audit.LogLoginAttempt(pkglogger.AuditEvent{
			ClientKey: clientKey,
			Outcome:   pkglogger.OutcomeNotConfigured,
		})
		return nil, models.ErrNotConfigured
	}

	decision, err := s.limiter.CheckAndRecord(ctx, clientKey)
	if err != nil {
		return nil, fmt.Errorf("rate limit check failed: %w", err)
	}
	if !decision.Allowed {
		s.audit.LogLoginAttempt(pkglogger.AuditEvent{
			ClientKey: clientKey,
			Email:     email,
			Outcome:   pkglogger.OutcomeRateLimited,
		})
		return nil, &models.RateLimitError{RetryAfter: decision.RetryAfter}
	}

	if err := s.validate.Struct(loginInput{Email: email, Password: password}); err != nil {
		s.timing.Wait(false)
		s.audit.LogLoginAttempt(pkglogger.AuditEvent{
			ClientKey: clientKey,
			Email:     email,
			Outcome:   pkglogger.OutcomeInvalidRequest,
		})
		return nil, &models.ValidationError{Details: validationDetails(err)}
	}

	if !s.credentials.Verify(email, password) {
		s.timing.Wait(false)
		s.audit.LogLoginAttempt(pkglogger.AuditEvent{
			ClientKey: clientKey,
			Email:     email,
			Outcome:   pkglogger.OutcomeInvalidCredentials,
		})
		return nil, &models.InvalidCredentialsError{Remaining: decision.Remaining}
	}

	if err := s.limiter.ClearOnSuccess(ctx, clientKey); err != nil {
		// Best effort; the stale record expires on its own.
		s.logger.Warn("attempt record not cleared after successful login",
			slog.String("client_key", clientKey))
	}

	token, expiresAt, err := s.sessions.Issue(email, models.RoleAdmin)
	if err != nil {
		s.logger.Error("failed to issue session token", slog.Any("error", err))
		return nil, models.ErrNotConfigured
	}

	s.audit.LogLoginAttempt(pkglogger.AuditEvent{
		ClientKey: clientKey,
		Email:     email,
		Outcome:   pkglogger.OutcomeSuccess,
		Success:   true,
	})

	return &LoginResult{Token: token, ExpiresAt: expiresAt}, nil
}

// validationDetails converts validator errors into user-facing
// field/message strings.
func validationDetails(err error) []string {
	ve, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{"invalid request"}
	}

	details := make([]string, 0, len(ve))
	for _, fieldError := range ve {
		details = append(details, fmt.Sprintf("%s: %s",
			fieldError.Field(), formatValidationError(fieldError)))
	}
	return details
}

func formatValidationError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must have a minimum of %s characters", fe.Param())
	default:
		return fmt.Sprintf("failed validation: %s", fe.Tag())
	}
}
