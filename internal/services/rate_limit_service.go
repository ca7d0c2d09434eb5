package services

import (
	"context"
	"log/slog"

	"github.com/tmorgan-dev/authgate/internal/models"
	"github.com/tmorgan-dev/authgate/internal/repositories"
)

// RateLimitService throttles login attempts per client key. The policy
// itself lives in the attempt store so the check-and-increment stays a
// single atomic operation; this service adds failure handling and
// logging around it.
type RateLimitService struct {
	store  repositories.AttemptStore
	logger *slog.Logger
}

func NewRateLimitService(store repositories.AttemptStore, logger *slog.Logger) *RateLimitService {
	return &RateLimitService{
		store:  store,
		logger: logger,
	}
}

// CheckAndRecord counts the attempt and returns the verdict. Every call
// that returns an allowed decision has already consumed one slot of the
// client's budget, whatever happens to the rest of the transaction.
func (s *RateLimitService) CheckAndRecord(ctx context.Context, clientKey string) (models.Decision, error) {
	decision, err := s.store.Hit(ctx, clientKey)
	if err != nil {
		s.logger.Error("failed to record login attempt",
			slog.String("client_key", clientKey),
			slog.Any("error", err))
		// Fail open for availability - store outages shouldn't lock the
		// admin out. Exceeded budgets still fail closed above.
		return models.Decision{Allowed: true}, nil
	}

	if !decision.Allowed {
		s.logger.Warn("client locked out",
			slog.String("client_key", clientKey),
			slog.Duration("retry_after", decision.RetryAfter))
	}

	return decision, nil
}

// ClearOnSuccess deletes the attempt record so a legitimate login is
// never penalized for prior failures.
func (s *RateLimitService) ClearOnSuccess(ctx context.Context, clientKey string) error {
	if err := s.store.Clear(ctx, clientKey); err != nil {
		s.logger.Error("failed to clear attempt record",
			slog.String("client_key", clientKey),
			slog.Any("error", err))
		return err
	}
	return nil
}
