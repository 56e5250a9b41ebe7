// internal/auth/app/app.go
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

	"github.com/campushub/session-system/internal/auth/config"
	"github.com/campushub/session-system/internal/auth/identity"
	transport "github.com/campushub/session-system/internal/auth/transport/http"
	"github.com/campushub/session-system/internal/auth/usecase"
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
	kv, err := redis.New(ctx, cfg.Redis, log)
	if err != nil {
		return fmt.Errorf("redis connect: %w", err)
	}
	defer kv.Close()
	sessions := session.NewStore(kv)

	// === Token codec ===
	codec, err := token.NewCodec(cfg.Token)
	if err != nil {
		return fmt.Errorf("token codec: %w", err)
	}

	// === Identity provider ===
	provider, err := identity.New(cfg.OAuth)
	if err != nil {
		return fmt.Errorf("identity provider: %w", err)
	}

	// === Usecases ===
	uc := usecase.NewHandler(
		usecase.NewLoginHandler(codec, sessions, log),
		usecase.NewReissueHandler(codec, sessions, cfg.RotationThreshold, log),
		usecase.NewLogoutHandler(codec, sessions, log),
	)

	// === HTTP ===
	handler := transport.NewHandler(uc, provider, cfg.Cookie, log)
	extraRoutes := map[string]http.Handler{
		"/auth/": transport.Routes(handler, log),
	}

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

	log.WithContext(ctx).Info("auth: starting services")
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return httpSrv.Run(ctx) })

	if err := g.Wait(); err != nil {
		if ctx.Err() == context.Canceled {
			log.WithContext(ctx).Info("auth shut down cleanly")
			return nil
		}
		log.WithContext(ctx).Error("auth exited with error", zap.Error(err))
		return err
	}

	log.WithContext(ctx).Info("auth shut down complete")
	return nil
}

func shutdownSafe(ctx context.Context, name string, fn func(context.Context) error, log *logger.Logger) {
	log.WithContext(ctx).Info(name + ": shutting down")
	if err := fn(ctx); err != nil {
		log.WithContext(ctx).Error(name+" shutdown failed", zap.Error(err))
	} else {
		log.WithContext(ctx).Info(name + ": shutdown complete")
	}
}
