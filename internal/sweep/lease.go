package sweep

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Lease serializes sweep runs across replicas. Acquire returns false when
// another holder owns the lease.
type Lease interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context)
}

// Deleting only our own token keeps a slow run from releasing a lease that
// already expired and was re-acquired elsewhere.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLease is a SET NX PX lease. The TTL caps how long a crashed holder
// can block other replicas.
type RedisLease struct {
	client redis.UniversalClient
	key    string
	ttl    time.Duration
	token  string
}

func NewRedisLease(client redis.UniversalClient, key string, ttl time.Duration) *RedisLease {
	if key == "" {
		key = "sweep:lease"
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisLease{client: client, key: key, ttl: ttl}
}

func (l *RedisLease) Acquire(ctx context.Context) (bool, error) {
	token := uuid.New().String()
	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return false, err
	}
	if ok {
		l.token = token
	}
	return ok, nil
}

func (l *RedisLease) Release(ctx context.Context) {
	if l.token == "" {
		return
	}
	if err := releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Err(); err != nil && err != redis.Nil {
		slog.WarnContext(ctx, "sweep lease release failed", "key", l.key, "error", err)
	}
	l.token = ""
}
