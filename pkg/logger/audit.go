package logger

import (
	"context"
	"log/slog"
	"time"
)

// Login outcomes recorded by the audit trail.
const (
	OutcomeSuccess            = "success"
	OutcomeRateLimited        = "rate_limited"
	OutcomeInvalidRequest     = "invalid_request"
	OutcomeInvalidCredentials = "invalid_credentials"
	OutcomeNotConfigured      = "not_configured"
)

// AuditEvent is one login transaction outcome. The submitted secret is
// never part of the event; the email is masked before logging.
type AuditEvent struct {
	ClientKey string
	Email     string
	Outcome   string
	Success   bool
}

// AuditLogger records authentication outcomes for the admin gate.
type AuditLogger struct {
	logger *slog.Logger
}

func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return &AuditLogger{logger: logger}
}

// LogLoginAttempt records a login outcome with client key and timestamp.
func (al *AuditLogger) LogLoginAttempt(event AuditEvent) {
	attrs := []slog.Attr{
		slog.String("audit_type", "admin_login"),
		slog.String("outcome", event.Outcome),
		slog.Bool("success", event.Success),
		slog.String("client_key", event.ClientKey),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}

	if event.Email != "" {
		attrs = append(attrs, slog.String("email", SanitizedEmail(event.Email)))
	}

	level := slog.LevelWarn
	if event.Success {
		level = slog.LevelInfo
	}
	al.logger.LogAttrs(context.Background(), level, "audit", attrs...)
}
