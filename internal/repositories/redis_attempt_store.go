package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tmorgan-dev/authgate/internal/models"
)

const attemptKeyPrefix = "authgate:attempts:"

// hitScript runs the whole fixed-window/lockout policy server-side so
// the check-and-increment is atomic across process instances. Times are
// unix milliseconds; the reply is {allowed, remaining, retry_after_ms}.
var hitScript = redis.NewScript(`
local now = tonumber(ARGV[1])
local max = tonumber(ARGV[2])
local window = tonumber(ARGV[3])
local lockout = tonumber(ARGV[4])

local function start_window()
  redis.call('HSET', KEYS[1], 'count', 1, 'window_start', now, 'last_attempt', now)
  redis.call('PEXPIRE', KEYS[1], window + lockout)
  local rem = max - 1
  if rem < 0 then rem = 0 end
  return {1, rem, 0}
end

local count = tonumber(redis.call('HGET', KEYS[1], 'count'))
if not count then
  return start_window()
end

local last = tonumber(redis.call('HGET', KEYS[1], 'last_attempt'))
if count >= max then
  local lockout_end = last + lockout
  if now < lockout_end then
    return {0, 0, lockout_end - now}
  end
  return start_window()
end

local window_start = tonumber(redis.call('HGET', KEYS[1], 'window_start'))
if now - window_start >= window then
  return start_window()
end

count = count + 1
redis.call('HSET', KEYS[1], 'count', count, 'last_attempt', now)
redis.call('PEXPIRE', KEYS[1], window + lockout)
local rem = max - count
if rem < 0 then rem = 0 end
return {1, rem, 0}
`)

// RedisAttemptStore keeps attempt records in a shared redis instance so
// the budget holds across load-balanced replicas. Record TTLs make a
// background sweep unnecessary for this backend.
type RedisAttemptStore struct {
	client *redis.Client
	policy models.AttemptPolicy
	now    func() time.Time
}

// NewRedisAttemptStore creates a redis-backed store. A nil clock means
// wall-clock time.
func NewRedisAttemptStore(client *redis.Client, policy models.AttemptPolicy, clock func() time.Time) *RedisAttemptStore {
	if clock == nil {
		clock = time.Now
	}
	return &RedisAttemptStore{client: client, policy: policy, now: clock}
}

func (s *RedisAttemptStore) Hit(ctx context.Context, clientKey string) (models.Decision, error) {
	reply, err := hitScript.Run(ctx, s.client,
		[]string{attemptKeyPrefix + clientKey},
		s.now().UnixMilli(),
		s.policy.MaxAttempts,
		s.policy.Window.Milliseconds(),
		s.policy.Lockout.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return models.Decision{}, fmt.Errorf("attempt hit script failed: %w", err)
	}
	if len(reply) != 3 {
		return models.Decision{}, fmt.Errorf("unexpected attempt script reply length %d", len(reply))
	}

	return models.Decision{
		Allowed:    reply[0] == 1,
		Remaining:  int(reply[1]),
		RetryAfter: time.Duration(reply[2]) * time.Millisecond,
	}, nil
}

func (s *RedisAttemptStore) Clear(ctx context.Context, clientKey string) error {
	if err := s.client.Del(ctx, attemptKeyPrefix+clientKey).Err(); err != nil {
		return fmt.Errorf("failed to clear attempt record: %w", err)
	}
	return nil
}

// Ping reports backend reachability for health checks.
func (s *RedisAttemptStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
