package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env      string
	HTTPPort string

	DatabaseURL string

	JWTIssuer          string
	JWTAudience        string
	JWTAccessSecret    string
	JWTAccessTTL       time.Duration
	JWTRefreshTTL      time.Duration
	RefreshTokenPepper string

	VerificationTokenTTL time.Duration

	CORSAllowedOrigins  []string
	BootstrapAdminEmail string

	APIRateLimitPerMin  int
	AuthRateLimitPerMin int
	ActivityRateWindow  time.Duration

	// Account lifecycle thresholds. The sweeper deactivates accounts idle
	// longer than InactivityThreshold and warns WarnLeadTime before that.
	InactivityThreshold time.Duration
	WarnLeadTime        time.Duration
	SweepInterval       time.Duration
	SweepTimeout        time.Duration
	SweepEnabled        bool

	RedisEnabled   bool
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RedisKeyPrefix string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	SMTPEnabled  bool
	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	MailFrom     string
	AppBaseURL   string

	ReadinessProbeTimeout  time.Duration
	ServerStartGracePeriod time.Duration
	ShutdownTimeout        time.Duration

	OTELServiceName           string
	OTELEnvironment           string
	OTELExporterOTLPEndpoint  string
	OTELExporterOTLPInsecure  bool
	OTELMetricsExportInterval time.Duration
	OTELTraceSamplingRatio    float64
	OTELMetricsEnabled        bool
	OTELTracingEnabled        bool
	OTELLogsEnabled           bool
	OTELLogLevel              string
}

func Load() (*Config, error) {
	env := getEnv("APP_ENV", "development")

	cfg := &Config{
		Env:                 env,
		HTTPPort:            getEnv("HTTP_PORT", "8080"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		JWTIssuer:           getEnv("JWT_ISSUER", "moveout-backend"),
		JWTAudience:         getEnv("JWT_AUDIENCE", "moveout-api"),
		JWTAccessSecret:     os.Getenv("JWT_ACCESS_SECRET"),
		RefreshTokenPepper:  os.Getenv("REFRESH_TOKEN_PEPPER"),
		CORSAllowedOrigins:  splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		BootstrapAdminEmail: strings.TrimSpace(strings.ToLower(os.Getenv("BOOTSTRAP_ADMIN_EMAIL"))),
		APIRateLimitPerMin:  getEnvInt("API_RATE_LIMIT_PER_MIN", 120),
		AuthRateLimitPerMin: getEnvInt("AUTH_RATE_LIMIT_PER_MIN", 30),
		SweepEnabled:        getEnvBool("SWEEP_ENABLED", true),

		RedisEnabled:   getEnvBool("REDIS_ENABLED", false),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		RedisDB:        getEnvInt("REDIS_DB", 0),
		RedisKeyPrefix: getEnv("REDIS_KEY_PREFIX", "moveout"),

		MinioEndpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    getEnv("MINIO_BUCKET", "moveout"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),

		SMTPEnabled:  getEnvBool("SMTP_ENABLED", false),
		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     getEnv("SMTP_PORT", "587"),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		MailFrom:     getEnv("MAIL_FROM", "MoveOut <noreply@moveout.app>"),
		AppBaseURL:   getEnv("APP_BASE_URL", "http://localhost:3000"),

		OTELServiceName:          getEnv("OTEL_SERVICE_NAME", "moveout-backend"),
		OTELEnvironment:          getEnv("OTEL_ENVIRONMENT", env),
		OTELExporterOTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTELExporterOTLPInsecure: getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", true),
		OTELTraceSamplingRatio:   getEnvFloat("OTEL_TRACE_SAMPLING_RATIO", 1.0),
		OTELMetricsEnabled:       getEnvBool("OTEL_METRICS_ENABLED", true),
		OTELTracingEnabled:       getEnvBool("OTEL_TRACING_ENABLED", true),
		OTELLogsEnabled:          getEnvBool("OTEL_LOGS_ENABLED", true),
		OTELLogLevel:             strings.ToLower(getEnv("OTEL_LOG_LEVEL", "info")),
	}

	durations := []struct {
		key  string
		def  string
		dest *time.Duration
	}{
		{"JWT_ACCESS_TTL", "15m", &cfg.JWTAccessTTL},
		{"JWT_REFRESH_TTL", "168h", &cfg.JWTRefreshTTL},
		{"VERIFICATION_TOKEN_TTL", "48h", &cfg.VerificationTokenTTL},
		{"ACTIVITY_RATE_WINDOW", "30s", &cfg.ActivityRateWindow},
		{"LIFECYCLE_INACTIVITY_THRESHOLD", "720h", &cfg.InactivityThreshold},
		{"LIFECYCLE_WARN_LEAD", "168h", &cfg.WarnLeadTime},
		{"SWEEP_INTERVAL", "1h", &cfg.SweepInterval},
		{"SWEEP_TIMEOUT", "30s", &cfg.SweepTimeout},
		{"READINESS_PROBE_TIMEOUT", "1s", &cfg.ReadinessProbeTimeout},
		{"SERVER_START_GRACE_PERIOD", "0s", &cfg.ServerStartGracePeriod},
		{"SHUTDOWN_TIMEOUT", "20s", &cfg.ShutdownTimeout},
		{"OTEL_METRICS_EXPORT_INTERVAL", "10s", &cfg.OTELMetricsExportInterval},
	}
	for _, d := range durations {
		v, err := time.ParseDuration(getEnv(d.key, d.def))
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", d.key, err)
		}
		*d.dest = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []string
	if c.DatabaseURL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}
	if len(c.JWTAccessSecret) < 32 {
		errs = append(errs, "JWT_ACCESS_SECRET must be at least 32 chars")
	}
	if len(c.RefreshTokenPepper) < 16 {
		errs = append(errs, "REFRESH_TOKEN_PEPPER must be at least 16 chars")
	}
	if c.JWTAccessTTL <= 0 || c.JWTAccessTTL > time.Hour {
		errs = append(errs, "JWT_ACCESS_TTL must be between 1s and 1h")
	}
	if c.JWTRefreshTTL <= 0 || c.JWTRefreshTTL > (30*24*time.Hour) {
		errs = append(errs, "JWT_REFRESH_TTL must be between 1s and 30d")
	}
	if c.VerificationTokenTTL <= 0 {
		errs = append(errs, "VERIFICATION_TOKEN_TTL must be > 0")
	}
	if c.APIRateLimitPerMin <= 0 {
		errs = append(errs, "API_RATE_LIMIT_PER_MIN must be > 0")
	}
	if c.AuthRateLimitPerMin <= 0 {
		errs = append(errs, "AUTH_RATE_LIMIT_PER_MIN must be > 0")
	}
	if c.ActivityRateWindow <= 0 {
		errs = append(errs, "ACTIVITY_RATE_WINDOW must be > 0")
	}
	if c.InactivityThreshold <= 0 {
		errs = append(errs, "LIFECYCLE_INACTIVITY_THRESHOLD must be > 0")
	}
	if c.WarnLeadTime <= 0 || c.WarnLeadTime >= c.InactivityThreshold {
		errs = append(errs, "LIFECYCLE_WARN_LEAD must be > 0 and shorter than LIFECYCLE_INACTIVITY_THRESHOLD")
	}
	if c.SweepInterval <= 0 {
		errs = append(errs, "SWEEP_INTERVAL must be > 0")
	}
	if c.SweepTimeout <= 0 {
		errs = append(errs, "SWEEP_TIMEOUT must be > 0")
	}
	if c.SMTPEnabled && c.SMTPHost == "" {
		errs = append(errs, "SMTP_HOST is required when SMTP_ENABLED=true")
	}
	if (c.OTELMetricsEnabled || c.OTELTracingEnabled || c.OTELLogsEnabled) && c.OTELExporterOTLPEndpoint == "" {
		errs = append(errs, "OTEL_EXPORTER_OTLP_ENDPOINT is required when OTel is enabled")
	}
	if c.OTELTraceSamplingRatio < 0 || c.OTELTraceSamplingRatio > 1 {
		errs = append(errs, "OTEL_TRACE_SAMPLING_RATIO must be between 0 and 1")
	}
	if c.OTELMetricsExportInterval <= 0 {
		errs = append(errs, "OTEL_METRICS_EXPORT_INTERVAL must be > 0")
	}
	if !isValidLogLevel(c.OTELLogLevel) {
		errs = append(errs, "OTEL_LOG_LEVEL must be one of debug, info, warn, error")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	switch strings.ToLower(strings.TrimSpace(c.Env)) {
	case "development", "dev", "local", "test":
		return true
	default:
		return false
	}
}

func isValidLogLevel(v string) bool {
	switch strings.ToLower(v) {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

func getEnv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trim := strings.TrimSpace(p)
		if trim != "" {
			out = append(out, trim)
		}
	}
	return out
}
