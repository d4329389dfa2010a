// Package app bundles the wired runtime pieces and owns the shutdown order:
// HTTP drain first, then the sweeper, then telemetry flush, then connections.
package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/moveout-labs/moveout-backend/internal/config"
	"github.com/moveout-labs/moveout-backend/internal/health"
	"github.com/moveout-labs/moveout-backend/internal/observability"
	"github.com/moveout-labs/moveout-backend/internal/sweep"
)

type App struct {
	Config        *config.Config
	Logger        *slog.Logger
	Server        *http.Server
	Observability *observability.Runtime
	DB            *gorm.DB
	Redis         redis.UniversalClient
	Sweeper       *sweep.Sweeper
	Readiness     *health.ProbeRunner
}

func New(
	cfg *config.Config,
	logger *slog.Logger,
	server *http.Server,
	runtime *observability.Runtime,
	db *gorm.DB,
	redisClient redis.UniversalClient,
	sweeper *sweep.Sweeper,
	readiness *health.ProbeRunner,
) *App {
	return &App{
		Config:        cfg,
		Logger:        logger,
		Server:        server,
		Observability: runtime,
		DB:            db,
		Redis:         redisClient,
		Sweeper:       sweeper,
		Readiness:     readiness,
	}
}

// Shutdown drains the server and releases every resource. The ctx bounds the
// whole sequence; individual stages get their own slices of it.
func (a *App) Shutdown(ctx context.Context) {
	httpCtx, httpCancel := context.WithTimeout(ctx, 10*time.Second)
	if err := a.Server.Shutdown(httpCtx); err != nil {
		a.Logger.Error("http server shutdown", "error", err)
	}
	httpCancel()

	if a.Observability != nil {
		obsCtx, obsCancel := context.WithTimeout(ctx, 8*time.Second)
		if err := a.Observability.Shutdown(obsCtx); err != nil {
			a.Logger.Error("observability shutdown", "error", err)
		}
		obsCancel()
	}

	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Logger.Error("redis close", "error", err)
		}
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				a.Logger.Error("database close", "error", err)
			}
		}
	}
}
