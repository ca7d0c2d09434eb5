package repositories_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmorgan-dev/authgate/internal/models"
	"github.com/tmorgan-dev/authgate/internal/repositories"
)

var testPolicy = models.AttemptPolicy{
	MaxAttempts: 5,
	Window:      15 * time.Minute,
	Lockout:     30 * time.Minute,
}

// fakeClock returns a clock function and a pointer for advancing it.
func fakeClock(start time.Time) (func() time.Time, *time.Time) {
	current := start
	return func() time.Time { return current }, &current
}

func TestMemoryAttemptStore_FirstHitStartsWindow(t *testing.T) {
	clock, _ := fakeClock(time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC))
	store := repositories.NewMemoryAttemptStore(testPolicy, clock)

	decision, err := store.Hit(context.Background(), "203.0.113.1")
	require.NoError(t, err)

	assert.True(t, decision.Allowed)
	assert.Equal(t, 4, decision.Remaining)
	assert.Zero(t, decision.RetryAfter)
}

func TestMemoryAttemptStore_RemainingDecrementsPerHit(t *testing.T) {
	clock, _ := fakeClock(time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC))
	store := repositories.NewMemoryAttemptStore(testPolicy, clock)
	ctx := context.Background()

	for want := 4; want >= 0; want-- {
		decision, err := store.Hit(ctx, "203.0.113.1")
		require.NoError(t, err)
		assert.True(t, decision.Allowed)
		assert.Equal(t, want, decision.Remaining)
	}
}

func TestMemoryAttemptStore_LocksOutAfterMaxAttempts(t *testing.T) {
	start := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	clock, now := fakeClock(start)
	store := repositories.NewMemoryAttemptStore(testPolicy, clock)
	ctx := context.Background()

	for i := 0; i < testPolicy.MaxAttempts; i++ {
		_, err := store.Hit(ctx, "203.0.113.1")
		require.NoError(t, err)
	}

	*now = start.Add(time.Minute)
	decision, err := store.Hit(ctx, "203.0.113.1")
	require.NoError(t, err)

	assert.False(t, decision.Allowed)
	assert.Equal(t, 0, decision.Remaining)
	assert.Equal(t, 29*time.Minute, decision.RetryAfter)
}

func TestMemoryAttemptStore_LockoutDoesNotExtend(t *testing.T) {
	start := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	clock, now := fakeClock(start)
	store := repositories.NewMemoryAttemptStore(testPolicy, clock)
	ctx := context.Background()

	for i := 0; i < testPolicy.MaxAttempts; i++ {
		_, err := store.Hit(ctx, "203.0.113.1")
		require.NoError(t, err)
	}

	// Hammering during lockout must not push the expiry out.
	*now = start.Add(10 * time.Minute)
	first, err := store.Hit(ctx, "203.0.113.1")
	require.NoError(t, err)
	require.False(t, first.Allowed)
	assert.Equal(t, 20*time.Minute, first.RetryAfter)

	*now = start.Add(20 * time.Minute)
	second, err := store.Hit(ctx, "203.0.113.1")
	require.NoError(t, err)
	require.False(t, second.Allowed)
	assert.Equal(t, 10*time.Minute, second.RetryAfter)
}

func TestMemoryAttemptStore_FreshWindowAfterLockoutExpires(t *testing.T) {
	start := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	clock, now := fakeClock(start)
	store := repositories.NewMemoryAttemptStore(testPolicy, clock)
	ctx := context.Background()

	for i := 0; i < testPolicy.MaxAttempts; i++ {
		_, err := store.Hit(ctx, "203.0.113.1")
		require.NoError(t, err)
	}

	*now = start.Add(testPolicy.Lockout + time.Second)
	decision, err := store.Hit(ctx, "203.0.113.1")
	require.NoError(t, err)

	assert.True(t, decision.Allowed)
	assert.Equal(t, 4, decision.Remaining)
}

func TestMemoryAttemptStore_WindowExpiryResetsCount(t *testing.T) {
	start := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	clock, now := fakeClock(start)
	store := repositories.NewMemoryAttemptStore(testPolicy, clock)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := store.Hit(ctx, "203.0.113.1")
		require.NoError(t, err)
	}

	*now = start.Add(testPolicy.Window + time.Second)
	decision, err := store.Hit(ctx, "203.0.113.1")
	require.NoError(t, err)

	assert.True(t, decision.Allowed)
	assert.Equal(t, 4, decision.Remaining)
}

func TestMemoryAttemptStore_ClearResetsBudget(t *testing.T) {
	clock, _ := fakeClock(time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC))
	store := repositories.NewMemoryAttemptStore(testPolicy, clock)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := store.Hit(ctx, "203.0.113.1")
		require.NoError(t, err)
	}

	require.NoError(t, store.Clear(ctx, "203.0.113.1"))

	decision, err := store.Hit(ctx, "203.0.113.1")
	require.NoError(t, err)
	assert.Equal(t, 4, decision.Remaining)
}

func TestMemoryAttemptStore_KeysAreIndependent(t *testing.T) {
	start := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	clock, now := fakeClock(start)
	store := repositories.NewMemoryAttemptStore(testPolicy, clock)
	ctx := context.Background()

	for i := 0; i < testPolicy.MaxAttempts; i++ {
		_, err := store.Hit(ctx, "203.0.113.1")
		require.NoError(t, err)
	}

	*now = start.Add(time.Minute)
	locked, err := store.Hit(ctx, "203.0.113.1")
	require.NoError(t, err)
	require.False(t, locked.Allowed)

	other, err := store.Hit(ctx, "198.51.100.2")
	require.NoError(t, err)
	assert.True(t, other.Allowed)
	assert.Equal(t, 4, other.Remaining)
}

func TestMemoryAttemptStore_SingleAttemptPolicyLocksImmediately(t *testing.T) {
	start := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	clock, now := fakeClock(start)
	policy := models.AttemptPolicy{MaxAttempts: 1, Window: time.Minute, Lockout: time.Hour}
	store := repositories.NewMemoryAttemptStore(policy, clock)
	ctx := context.Background()

	first, err := store.Hit(ctx, "203.0.113.1")
	require.NoError(t, err)
	assert.True(t, first.Allowed)
	assert.Equal(t, 0, first.Remaining)

	*now = start.Add(time.Second)
	second, err := store.Hit(ctx, "203.0.113.1")
	require.NoError(t, err)
	assert.False(t, second.Allowed)
	assert.Equal(t, time.Hour-time.Second, second.RetryAfter)
}

func TestMemoryAttemptStore_ConcurrentHitsNeverExceedBudget(t *testing.T) {
	clock, _ := fakeClock(time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC))
	store := repositories.NewMemoryAttemptStore(testPolicy, clock)
	ctx := context.Background()

	const goroutines = 50
	var wg sync.WaitGroup
	results := make(chan models.Decision, goroutines)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			decision, err := store.Hit(ctx, "203.0.113.1")
			assert.NoError(t, err)
			results <- decision
		}()
	}
	wg.Wait()
	close(results)

	allowed := 0
	for decision := range results {
		if decision.Allowed {
			allowed++
		}
	}
	assert.Equal(t, testPolicy.MaxAttempts, allowed)
}

func TestMemoryAttemptStore_SweepEvictsStaleRecords(t *testing.T) {
	start := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	clock, now := fakeClock(start)
	store := repositories.NewMemoryAttemptStore(testPolicy, clock)
	ctx := context.Background()

	_, err := store.Hit(ctx, "stale-client")
	require.NoError(t, err)

	*now = start.Add(testPolicy.Staleness() - time.Minute)
	_, err = store.Hit(ctx, "recent-client")
	require.NoError(t, err)

	*now = start.Add(testPolicy.Staleness() + time.Second)
	removed, err := store.Sweep(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, removed)
}

func TestMemoryAttemptStore_SweepKeepsActiveRecords(t *testing.T) {
	clock, _ := fakeClock(time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC))
	store := repositories.NewMemoryAttemptStore(testPolicy, clock)
	ctx := context.Background()

	_, err := store.Hit(ctx, "203.0.113.1")
	require.NoError(t, err)

	removed, err := store.Sweep(ctx)
	require.NoError(t, err)

	assert.Equal(t, 0, removed)
}
