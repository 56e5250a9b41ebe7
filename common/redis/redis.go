// common/redis/redis.go
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/campushub/session-system/common/backoff"
	"github.com/campushub/session-system/common/logger"
)

var (
	kvMetrics = struct {
		OpErrors         *prometheus.CounterVec
		OperationLatency prometheus.Histogram
	}{
		OpErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "common", Subsystem: "redis", Name: "op_errors_total",
			Help: "Total number of failed Redis operations",
		}, []string{"op"}),
		OperationLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: "common", Subsystem: "redis", Name: "operation_latency_seconds",
			Help:    "Latency of Redis operations",
			Buckets: prometheus.DefBuckets,
		}),
	}
	tracer = otel.Tracer("redis-kv")
)

// ErrNotFound возвращается, если ключ отсутствует.
var ErrNotFound = fmt.Errorf("redis: key not found")

// casScript заменяет значение, только если оно не изменилось с момента
// чтения. Выполняется на сервере одним шагом, поэтому две конкурирующие
// ротации не могут обе выиграть.
var casScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3]) and 1
end
return 0
`)

// redisKV — продакшен-реализация KV через go-redis/v8.
type redisKV struct {
	client     *redis.Client
	opTimeout  time.Duration
	log        *logger.Logger
	backoffCfg backoff.Config
}

// New создает KV, соединяется с Redis, с retry и метриками.
func New(ctx context.Context, cfg Config, log *logger.Logger) (KV, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log = log.Named("redis")

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("redis: parse URL: %w", err)
	}
	client := redis.NewClient(opts)

	op := func(ctx context.Context) error { return client.Ping(ctx).Err() }
	ctxConn, span := tracer.Start(ctx, "Connect", trace.WithAttributes(attribute.String("url", cfg.URL)))
	if err := backoff.Execute(ctxConn, cfg.Backoff, log, op); err != nil {
		span.RecordError(err)
		span.End()
		return nil, fmt.Errorf("redis connect: %w", err)
	}
	span.End()
	log.Info("redis: connected", zap.String("url", cfg.URL))

	return &redisKV{
		client:     client,
		opTimeout:  cfg.OpTimeout,
		log:        log,
		backoffCfg: cfg.Backoff,
	}, nil
}

func (r *redisKV) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.opTimeout)
}

func (r *redisKV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	ctxOp, span := tracer.Start(ctx, "Set", trace.WithAttributes(attribute.String("key", key)))
	defer span.End()
	ctxOp, cancel := r.withTimeout(ctxOp)
	defer cancel()

	if ttl <= 0 {
		// Ключ без TTL никогда не будет вычищен; минимальный TTL
		// превращает запись в немедленно устаревающий no-op.
		ttl = time.Second
	}

	start := time.Now()
	op := func(ctx context.Context) error {
		return r.client.Set(ctx, key, value, ttl).Err()
	}
	if err := backoff.Execute(ctxOp, r.backoffCfg, r.log, op); err != nil {
		kvMetrics.OpErrors.WithLabelValues("set").Inc()
		r.log.WithContext(ctx).Error("redis SET failed", zap.String("key", key), zap.Error(err))
		span.RecordError(err)
		return err
	}
	kvMetrics.OperationLatency.Observe(time.Since(start).Seconds())
	return nil
}

func (r *redisKV) Get(ctx context.Context, key string) (string, error) {
	ctxOp, span := tracer.Start(ctx, "Get", trace.WithAttributes(attribute.String("key", key)))
	defer span.End()
	ctxOp, cancel := r.withTimeout(ctxOp)
	defer cancel()

	start := time.Now()

	var data string
	op := func(ctx context.Context) error {
		val, err := r.client.Get(ctx, key).Result()
		if err == redis.Nil {
			return backoff.Permanent(ErrNotFound)
		}
		if err != nil {
			return err
		}
		data = val
		return nil
	}
	if err := backoff.Execute(ctxOp, r.backoffCfg, r.log, op); err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", ErrNotFound
		}
		kvMetrics.OpErrors.WithLabelValues("get").Inc()
		r.log.WithContext(ctx).Error("redis GET failed", zap.String("key", key), zap.Error(err))
		span.RecordError(err)
		return "", err
	}
	kvMetrics.OperationLatency.Observe(time.Since(start).Seconds())
	return data, nil
}

func (r *redisKV) Delete(ctx context.Context, key string) error {
	ctxOp, span := tracer.Start(ctx, "Delete", trace.WithAttributes(attribute.String("key", key)))
	defer span.End()
	ctxOp, cancel := r.withTimeout(ctxOp)
	defer cancel()

	start := time.Now()
	op := func(ctx context.Context) error {
		_, err := r.client.Del(ctx, key).Result()
		return err
	}
	if err := backoff.Execute(ctxOp, r.backoffCfg, r.log, op); err != nil {
		kvMetrics.OpErrors.WithLabelValues("delete").Inc()
		r.log.WithContext(ctx).Error("redis DEL failed", zap.String("key", key), zap.Error(err))
		span.RecordError(err)
		return err
	}
	kvMetrics.OperationLatency.Observe(time.Since(start).Seconds())
	return nil
}

func (r *redisKV) CompareAndSwap(ctx context.Context, key, oldValue, newValue string, ttl time.Duration) (bool, error) {
	ctxOp, span := tracer.Start(ctx, "CompareAndSwap", trace.WithAttributes(attribute.String("key", key)))
	defer span.End()
	ctxOp, cancel := r.withTimeout(ctxOp)
	defer cancel()

	if ttl <= 0 {
		ttl = time.Second
	}

	start := time.Now()
	// CAS не ретраится: после неудачной попытки значение могло смениться,
	// и повторный прогон скрипта дал бы ложный проигрыш или выигрыш.
	res, err := casScript.Run(ctxOp, r.client, []string{key}, oldValue, newValue, ttl.Milliseconds()).Int()
	if err != nil {
		kvMetrics.OpErrors.WithLabelValues("cas").Inc()
		r.log.WithContext(ctx).Error("redis CAS failed", zap.String("key", key), zap.Error(err))
		span.RecordError(err)
		return false, err
	}
	kvMetrics.OperationLatency.Observe(time.Since(start).Seconds())
	return res == 1, nil
}

func (r *redisKV) Ping(ctx context.Context) error {
	ctxOp, cancel := r.withTimeout(ctx)
	defer cancel()
	return r.client.Ping(ctxOp).Err()
}

func (r *redisKV) Close() error {
	return r.client.Close()
}
