// internal/meeting/app/app.go
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
	"github.com/campushub/session-system/common/serviceid"
	"github.com/campushub/session-system/common/telemetry"

	"github.com/campushub/session-system/internal/meeting/authz"
	"github.com/campushub/session-system/internal/meeting/config"
	"github.com/campushub/session-system/internal/meeting/storage/postgres"
	transport "github.com/campushub/session-system/internal/meeting/transport/http"
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

	// === Postgres ===
	repo, err := postgres.New(ctx, cfg.Postgres, log)
	if err != nil {
		return fmt.Errorf("postgres connect: %w", err)
	}
	defer shutdownSafe(ctx, "postgres", func(context.Context) error {
		repo.Close()
		return nil
	}, log)

	// === Routes ===
	interceptor := authz.New(repo, log)
	handler := transport.NewHandler(repo, log)
	extraRoutes := map[string]http.Handler{
		"/meetings/": transport.Routes(handler, interceptor, log),
	}

	readiness := func() error {
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		return repo.Ping(ctxPing)
	}

	httpSrv, err := httpserver.New(cfg.HTTP, readiness, log, extraRoutes,
		httpserver.RecoverMiddleware,
		httpserver.CORSMiddleware(),
	)
	if err != nil {
		return fmt.Errorf("httpserver init: %w", err)
	}

	log.WithContext(ctx).Info("meeting: starting")
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return httpSrv.Run(ctx) })

	if err := g.Wait(); err != nil {
		if ctx.Err() == context.Canceled {
			log.WithContext(ctx).Info("meeting shut down cleanly")
			return nil
		}
		log.WithContext(ctx).Error("meeting exited with error", zap.Error(err))
		return err
	}

	log.WithContext(ctx).Info("meeting shut down complete")
	return nil
}

func shutdownSafe(ctx context.Context, name string, fn func(context.Context) error, log *logger.Logger) {
	if err := fn(ctx); err != nil {
		log.WithContext(ctx).Error(name+" shutdown failed", zap.Error(err))
	} else {
		log.WithContext(ctx).Info(name + ": shutdown complete")
	}
}
