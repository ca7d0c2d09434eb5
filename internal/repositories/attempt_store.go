package repositories

import (
	"context"

	"github.com/tmorgan-dev/authgate/internal/models"
)

// AttemptStore is the injectable backend for per-client attempt records.
// Hit performs the whole check-and-increment of the fixed-window/lockout
// policy as one atomic operation: two concurrent hits for the same key
// can never both be allowed past the attempt budget.
type AttemptStore interface {
	Hit(ctx context.Context, clientKey string) (models.Decision, error)
	Clear(ctx context.Context, clientKey string) error
}

var (
	_ AttemptStore = (*MemoryAttemptStore)(nil)
	_ AttemptStore = (*RedisAttemptStore)(nil)
)
