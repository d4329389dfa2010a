package di

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/moveout-labs/moveout-backend/internal/app"
	"github.com/moveout-labs/moveout-backend/internal/config"
	"github.com/moveout-labs/moveout-backend/internal/database"
	"github.com/moveout-labs/moveout-backend/internal/health"
	"github.com/moveout-labs/moveout-backend/internal/http/handler"
	"github.com/moveout-labs/moveout-backend/internal/http/middleware"
	"github.com/moveout-labs/moveout-backend/internal/http/router"
	"github.com/moveout-labs/moveout-backend/internal/mailer"
	"github.com/moveout-labs/moveout-backend/internal/observability"
	"github.com/moveout-labs/moveout-backend/internal/repository"
	"github.com/moveout-labs/moveout-backend/internal/security"
	"github.com/moveout-labs/moveout-backend/internal/service"
	"github.com/moveout-labs/moveout-backend/internal/sweep"
)

var ConfigSet = wire.NewSet(config.Load)

var ObservabilitySet = wire.NewSet(
	provideObservabilityRuntime,
	provideAppLogger,
)

var RuntimeInfraSet = wire.NewSet(
	provideRuntimeDB,
	provideRedisClient,
	provideReadinessProbeRunner,
)

var RepositorySet = wire.NewSet(
	repository.NewUserRepository,
	repository.NewBoxRepository,
	repository.NewBoxContentRepository,
	repository.NewInsuranceLabelRepository,
	repository.NewContactRepository,
	repository.NewSessionRepository,
	repository.NewLocalCredentialRepository,
	repository.NewVerificationTokenRepository,
)

var SecuritySet = wire.NewSet(provideJWTManager)

var ServiceSet = wire.NewSet(
	provideMailer,
	provideStorageService,
	provideAuthService,
	service.NewActivityService,
	service.NewLifecycleService,
	service.NewBoxService,
)

var SweepSet = wire.NewSet(provideSweeper)

var HTTPSet = wire.NewSet(
	handler.NewAuthHandler,
	handler.NewUserHandler,
	handler.NewAdminHandler,
	handler.NewBoxHandler,
	provideRouterDependencies,
	router.NewRouter,
	provideHTTPServer,
)

var AppSet = wire.NewSet(provideApp)

type MigrationRunner struct {
	cfg *config.Config
	db  *gorm.DB
}

func NewMigrationRunner(cfg *config.Config, db *gorm.DB) *MigrationRunner {
	return &MigrationRunner{cfg: cfg, db: db}
}

func (m *MigrationRunner) Run() error {
	if err := database.Migrate(m.db); err != nil {
		return err
	}
	if err := database.Seed(m.db, m.cfg.BootstrapAdminEmail); err != nil {
		return err
	}
	fmt.Println("migration complete")
	return nil
}

func provideObservabilityRuntime(cfg *config.Config) (*observability.Runtime, error) {
	bootstrapLogger := observability.NewBootstrapLogger(cfg)
	return observability.InitRuntime(context.Background(), cfg, bootstrapLogger)
}

func provideAppLogger(cfg *config.Config, runtime *observability.Runtime) *slog.Logger {
	return observability.InitLogger(cfg, runtime.LoggerProvider)
}

func provideOpenDB(cfg *config.Config) (*gorm.DB, error) {
	return database.Open(cfg)
}

func provideRuntimeDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	if err := database.Seed(db, cfg.BootstrapAdminEmail); err != nil {
		return nil, err
	}
	return db, nil
}

func provideRedisClient(cfg *config.Config, logger *slog.Logger) redis.UniversalClient {
	if !cfg.RedisEnabled {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	observability.InstrumentRedisClient(client, logger)
	return client
}

func provideJWTManager(cfg *config.Config) *security.JWTManager {
	return security.NewJWTManager(cfg.JWTAccessSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTAccessTTL)
}

func provideMailer(cfg *config.Config, logger *slog.Logger) mailer.Mailer {
	if cfg.SMTPEnabled {
		return mailer.NewSMTPMailer(cfg)
	}
	return mailer.NewDevMailer(logger)
}

func provideStorageService(cfg *config.Config) (service.StorageService, error) {
	return service.NewMinIOStorageService(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
}

func provideAuthService(
	cfg *config.Config,
	users repository.UserRepository,
	creds repository.LocalCredentialRepository,
	sessions repository.SessionRepository,
	verifTokens repository.VerificationTokenRepository,
	jwt *security.JWTManager,
	mail mailer.Mailer,
) service.AuthService {
	return service.NewAuthService(users, creds, sessions, verifTokens, jwt, mail,
		cfg.RefreshTokenPepper, cfg.JWTAccessTTL, cfg.JWTRefreshTTL, cfg.VerificationTokenTTL)
}

func provideSweeper(cfg *config.Config, users repository.UserRepository, mail mailer.Mailer, redisClient redis.UniversalClient) *sweep.Sweeper {
	var lease sweep.Lease
	if redisClient != nil {
		// Lease TTL tracks the run timeout so a crashed holder cannot block
		// other replicas much longer than a run would have taken.
		lease = sweep.NewRedisLease(redisClient, cfg.RedisKeyPrefix+":sweep:lease", cfg.SweepTimeout+time.Minute)
	}
	return sweep.NewSweeper(users, mail, lease, sweep.Config{
		InactivityThreshold: cfg.InactivityThreshold,
		WarnLeadTime:        cfg.WarnLeadTime,
		Interval:            cfg.SweepInterval,
		Timeout:             cfg.SweepTimeout,
	})
}

func provideRouterDependencies(
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	adminHandler *handler.AdminHandler,
	boxHandler *handler.BoxHandler,
	jwt *security.JWTManager,
	readiness *health.ProbeRunner,
	redisClient redis.UniversalClient,
	cfg *config.Config,
) router.Dependencies {
	dep := router.Dependencies{
		AuthHandler:        authHandler,
		UserHandler:        userHandler,
		AdminHandler:       adminHandler,
		BoxHandler:         boxHandler,
		JWTManager:         jwt,
		CORSOrigins:        cfg.CORSAllowedOrigins,
		APIRateLimitRPM:    cfg.APIRateLimitPerMin,
		AuthRateLimitRPM:   cfg.AuthRateLimitPerMin,
		ActivityRateWindow: cfg.ActivityRateWindow,
		Readiness:          readiness,
		EnableOTelHTTP:     cfg.OTELMetricsEnabled || cfg.OTELTracingEnabled,
	}
	if redisClient != nil {
		prefix := cfg.RedisKeyPrefix + ":rl"
		dep.GlobalRateLimiter = middleware.NewDistributedRateLimiter(
			middleware.NewRedisFixedWindowLimiter(redisClient, prefix+":api"),
			cfg.APIRateLimitPerMin, time.Minute, middleware.FailOpen, "api").Middleware()
		dep.AuthRateLimiter = middleware.NewDistributedRateLimiter(
			middleware.NewRedisFixedWindowLimiter(redisClient, prefix+":auth"),
			cfg.AuthRateLimitPerMin, time.Minute, middleware.FailClosed, "auth").Middleware()
		dep.ActivityRateLimiter = middleware.NewDistributedRateLimiter(
			middleware.NewRedisFixedWindowLimiter(redisClient, prefix+":activity"),
			1, cfg.ActivityRateWindow, middleware.FailOpen, "activity").
			WithKeyFunc(middleware.UserKey).Middleware()
	}
	return dep
}

func provideHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           h,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      35 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func provideReadinessProbeRunner(cfg *config.Config, db *gorm.DB, redisClient redis.UniversalClient) *health.ProbeRunner {
	return health.NewProbeRunner(cfg.ReadinessProbeTimeout, cfg.ServerStartGracePeriod,
		health.NewDBChecker(db),
		health.NewRedisChecker(redisClient),
	)
}

func provideApp(
	cfg *config.Config,
	logger *slog.Logger,
	server *http.Server,
	runtime *observability.Runtime,
	db *gorm.DB,
	redisClient redis.UniversalClient,
	sweeper *sweep.Sweeper,
	readiness *health.ProbeRunner,
) *app.App {
	return app.New(cfg, logger, server, runtime, db, redisClient, sweeper, readiness)
}
