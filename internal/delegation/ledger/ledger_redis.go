package ledger

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	id "github.com/shbaek1997/Elice-SW2-Project-Goodbye/pkg/domain"
	"github.com/shbaek1997/Elice-SW2-Project-Goodbye/pkg/platform/sentinel"
)

var markDurationMs = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "goodbye_invitation_mark_duration_ms",
	Help:    "Latency of invitation redemption claims in milliseconds",
	Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
})

const (
	// Redis key prefix for redeemed invitation tokens
	redeemedKeyPrefix = "invite:jti:"
)

// RedisLedger is a Redis-backed Ledger shared across instances. Invitation
// tokens never expire, so claims are stored without TTL.
type RedisLedger struct {
	client *redis.Client
}

func NewRedisLedger(client *redis.Client) *RedisLedger {
	return &RedisLedger{client: client}
}

// Mark claims jti with SETNX; on a lost race it compares the stored holder
// so an idempotent retry by the same user still succeeds.
func (l *RedisLedger) Mark(ctx context.Context, jti string, userID id.UserID) error {
	start := time.Now()
	defer func() {
		markDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	key := redeemedKeyPrefix + jti
	set, err := l.client.SetNX(ctx, key, userID.String(), 0).Result()
	if err != nil {
		return err
	}
	if set {
		return nil
	}

	holder, err := l.client.Get(ctx, key).Result()
	if err != nil {
		return err
	}
	if holder == userID.String() {
		return nil
	}
	return sentinel.ErrAlreadyUsed
}
