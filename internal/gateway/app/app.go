// internal/gateway/app/app.go
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/campushub/session-system/common/httpserver"
	"github.com/campushub/session-system/common/logger"
	"github.com/campushub/session-system/common/redis"
	"github.com/campushub/session-system/common/serviceid"
	"github.com/campushub/session-system/common/telemetry"

	"github.com/campushub/session-system/internal/gateway/authfilter"
	"github.com/campushub/session-system/internal/gateway/config"
	transport "github.com/campushub/session-system/internal/gateway/transport/http"
	"github.com/campushub/session-system/internal/session"
	"github.com/campushub/session-system/internal/token"
)

func Run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	serviceid.InitServiceName(cfg.ServiceName)

	// === Telemetry ===
	cfg.Telemetry.ServiceName = cfg.ServiceName
	cfg.Telemetry.ServiceVersion = cfg.ServiceVersion
	shutdownTracer, err := telemetry.InitTracer(ctx, cfg.Telemetry, log)
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	defer shutdownSafe(ctx, "telemetry", shutdownTracer, log)

	// === Redis / SessionStore ===
	// Шлюз читает тот же blacklist, который пишет auth-сервис.
	kv, err := redis.New(ctx, cfg.Redis, log)
	if err != nil {
		return fmt.Errorf("redis connect: %w", err)
	}
	defer shutdownSafe(ctx, "redis", func(context.Context) error { return kv.Close() }, log)
	sessions := session.NewStore(kv)

	// === Token codec (verify-only на периметре) ===
	codec, err := token.NewCodec(cfg.Token)
	if err != nil {
		return fmt.Errorf("token codec: %w", err)
	}

	// === Routes ===
	filter := authfilter.New(codec, sessions, log)
	router, err := transport.Routes(filter, cfg.Routes, log)
	if err != nil {
		return fmt.Errorf("routes: %w", err)
	}
	extraRoutes := map[string]http.Handler{"/": router}

	readiness := func() error {
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		return kv.Ping(ctxPing)
	}

	httpSrv, err := httpserver.New(cfg.HTTP, readiness, log, extraRoutes,
		httpserver.RecoverMiddleware,
		httpserver.CORSMiddleware(),
	)
	if err != nil {
		return fmt.Errorf("httpserver init: %w", err)
	}

	log.WithContext(ctx).Info("api-gateway: starting")
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return httpSrv.Run(ctx) })

	if err := g.Wait(); err != nil {
		if ctx.Err() == context.Canceled {
			log.WithContext(ctx).Info("api-gateway shut down cleanly")
			return nil
		}
		log.WithContext(ctx).Error("api-gateway exited with error", zap.Error(err))
		return err
	}

	log.WithContext(ctx).Info("api-gateway shut down complete")
	return nil
}

func shutdownSafe(ctx context.Context, name string, fn func(context.Context) error, log *logger.Logger) {
	if err := fn(ctx); err != nil {
		log.WithContext(ctx).Error(name+" shutdown failed", zap.Error(err))
	} else {
		log.WithContext(ctx).Info(name + ": shutdown complete")
	}
}
