package stats

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRecorder increments hash counters so several processes can share totals.
//
// Keys:
//
//	<prefix>:total           kind -> count
//	<prefix>:minute:<bucket> kind -> count, expires after ttl
//	<prefix>:source_failed   source -> count
type RedisRecorder struct {
	rdb           *redis.Client
	prefix        string
	ttl           time.Duration
	recordTimeout time.Duration
}

// DefaultRecordTimeout bounds one Record round-trip. Record runs on stage
// workers, so a slow or unreachable Redis must not hold them up for long.
const DefaultRecordTimeout = 200 * time.Millisecond

type RedisOption func(*RedisRecorder)

func WithPrefix(prefix string) RedisOption {
	return func(r *RedisRecorder) {
		if p := strings.Trim(prefix, ":"); p != "" {
			r.prefix = p
		}
	}
}

func WithTTL(d time.Duration) RedisOption {
	return func(r *RedisRecorder) { r.ttl = d }
}

// WithRecordTimeout caps each Record call; d <= 0 leaves only the caller's ctx.
// The client needs ContextTimeoutEnabled for the cap to cut socket reads short.
func WithRecordTimeout(d time.Duration) RedisOption {
	return func(r *RedisRecorder) { r.recordTimeout = d }
}

func NewRedisRecorder(rdb *redis.Client, opts ...RedisOption) *RedisRecorder {
	r := &RedisRecorder{
		rdb:    rdb,
		prefix:        "carrent:stats",
		ttl:           24 * time.Hour,
		recordTimeout: DefaultRecordTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *RedisRecorder) Prefix() string {
	return r.prefix
}

func (r *RedisRecorder) Record(ctx context.Context, ev Event) error {
	if r == nil || r.rdb == nil {
		return nil
	}

	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	field := string(ev.Kind)

	if r.recordTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.recordTimeout)
		defer cancel()
	}

	pipe := r.rdb.Pipeline()
	pipe.HIncrBy(ctx, r.prefix+":total", field, ev.delta())

	bucketKey := fmt.Sprintf("%s:minute:%s", r.prefix, at.UTC().Format("200601021504"))
	pipe.HIncrBy(ctx, bucketKey, field, ev.delta())
	if r.ttl > 0 {
		pipe.Expire(ctx, bucketKey, r.ttl)
	}

	if ev.Kind == KindSourceFailed && ev.Source != "" {
		pipe.HIncrBy(ctx, r.prefix+":source_failed", ev.Source, ev.delta())
	}

	_, err := pipe.Exec(ctx)
	return err
}

// Totals reads back <prefix>:total.
func (r *RedisRecorder) Totals(ctx context.Context) (map[string]string, error) {
	if r == nil || r.rdb == nil {
		return map[string]string{}, nil
	}
	return r.rdb.HGetAll(ctx, r.prefix+":total").Result()
}

func (r *RedisRecorder) Ping(ctx context.Context) error {
	if r == nil || r.rdb == nil {
		return nil
	}
	return r.rdb.Ping(ctx).Err()
}

func (r *RedisRecorder) Close() error {
	if r == nil || r.rdb == nil {
		return nil
	}
	return r.rdb.Close()
}
