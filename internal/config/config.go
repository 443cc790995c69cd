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

	JWTIssuer   string
	JWTAudience string
	JWTSecret   string
	JWTTTL      time.Duration

	AuthRateLimitPerMin int
	APIRateLimitPerMin  int

	AbuseGuardFreeAttempts int
	AbuseGuardBaseDelay    time.Duration
	AbuseGuardMaxDelay     time.Duration
	AbuseGuardResetWindow  time.Duration

	RateLimitRedisEnabled bool
	RateLimitRedisPrefix  string
	RedisAddr             string
	RedisPassword         string
	RedisDB               int

	CORSAllowedOrigins []string

	BootstrapUserEmail    string
	BootstrapUserPassword string
	BootstrapUserName     string
	BootstrapUserNickname string

	ReadinessProbeTimeout  time.Duration
	ServerStartGracePeriod time.Duration

	ShutdownTimeout              time.Duration
	ShutdownHTTPDrainTimeout     time.Duration
	ShutdownObservabilityTimeout time.Duration

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
		Env:         env,
		HTTPPort:    getEnv("HTTP_PORT", "8080"),
		DatabaseURL: getEnv("DATABASE_URL", "file:accounts.db"),

		JWTIssuer:   getEnv("JWT_ISSUER", "accounts-api"),
		JWTAudience: getEnv("JWT_AUDIENCE", "accounts-api-clients"),
		JWTSecret:   os.Getenv("JWT_SECRET"),

		AuthRateLimitPerMin: getEnvInt("AUTH_RATE_LIMIT_PER_MIN", 30),
		APIRateLimitPerMin:  getEnvInt("API_RATE_LIMIT_PER_MIN", 120),

		AbuseGuardFreeAttempts: getEnvInt("AUTH_ABUSE_FREE_ATTEMPTS", 5),

		RateLimitRedisEnabled: getEnvBool("RATE_LIMIT_REDIS_ENABLED", false),
		RateLimitRedisPrefix:  getEnv("RATE_LIMIT_REDIS_PREFIX", "accounts"),
		RedisAddr:             getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:         os.Getenv("REDIS_PASSWORD"),
		RedisDB:               getEnvInt("REDIS_DB", 0),

		CORSAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),

		BootstrapUserEmail:    strings.TrimSpace(os.Getenv("BOOTSTRAP_USER_EMAIL")),
		BootstrapUserPassword: os.Getenv("BOOTSTRAP_USER_PASSWORD"),
		BootstrapUserName:     getEnv("BOOTSTRAP_USER_NAME", "Bootstrap User"),
		BootstrapUserNickname: getEnv("BOOTSTRAP_USER_NICKNAME", "bootstrap"),

		OTELServiceName:          getEnv("OTEL_SERVICE_NAME", "accounts-api"),
		OTELEnvironment:          getEnv("OTEL_ENVIRONMENT", env),
		OTELExporterOTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTELExporterOTLPInsecure: getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", true),
		OTELTraceSamplingRatio:   getEnvFloat("OTEL_TRACE_SAMPLING_RATIO", 1.0),
		OTELMetricsEnabled:       getEnvBool("OTEL_METRICS_ENABLED", false),
		OTELTracingEnabled:       getEnvBool("OTEL_TRACING_ENABLED", false),
		OTELLogsEnabled:          getEnvBool("OTEL_LOGS_ENABLED", false),
		OTELLogLevel:             strings.ToLower(getEnv("OTEL_LOG_LEVEL", "info")),
	}

	ttlMinutes := getEnvInt("JWT_TTL_MINUTES", 60)
	cfg.JWTTTL = time.Duration(ttlMinutes) * time.Minute

	var err error
	if cfg.AbuseGuardBaseDelay, err = time.ParseDuration(getEnv("AUTH_ABUSE_BASE_DELAY", "2s")); err != nil {
		return nil, fmt.Errorf("parse AUTH_ABUSE_BASE_DELAY: %w", err)
	}
	if cfg.AbuseGuardMaxDelay, err = time.ParseDuration(getEnv("AUTH_ABUSE_MAX_DELAY", "5m")); err != nil {
		return nil, fmt.Errorf("parse AUTH_ABUSE_MAX_DELAY: %w", err)
	}
	if cfg.AbuseGuardResetWindow, err = time.ParseDuration(getEnv("AUTH_ABUSE_RESET_WINDOW", "30m")); err != nil {
		return nil, fmt.Errorf("parse AUTH_ABUSE_RESET_WINDOW: %w", err)
	}
	if cfg.ReadinessProbeTimeout, err = time.ParseDuration(getEnv("READINESS_PROBE_TIMEOUT", "2s")); err != nil {
		return nil, fmt.Errorf("parse READINESS_PROBE_TIMEOUT: %w", err)
	}
	if cfg.ServerStartGracePeriod, err = time.ParseDuration(getEnv("SERVER_START_GRACE_PERIOD", "0s")); err != nil {
		return nil, fmt.Errorf("parse SERVER_START_GRACE_PERIOD: %w", err)
	}
	if cfg.ShutdownTimeout, err = time.ParseDuration(getEnv("SHUTDOWN_TIMEOUT", "20s")); err != nil {
		return nil, fmt.Errorf("parse SHUTDOWN_TIMEOUT: %w", err)
	}
	if cfg.ShutdownHTTPDrainTimeout, err = time.ParseDuration(getEnv("SHUTDOWN_HTTP_DRAIN_TIMEOUT", "10s")); err != nil {
		return nil, fmt.Errorf("parse SHUTDOWN_HTTP_DRAIN_TIMEOUT: %w", err)
	}
	if cfg.ShutdownObservabilityTimeout, err = time.ParseDuration(getEnv("SHUTDOWN_OBSERVABILITY_TIMEOUT", "8s")); err != nil {
		return nil, fmt.Errorf("parse SHUTDOWN_OBSERVABILITY_TIMEOUT: %w", err)
	}
	if cfg.OTELMetricsExportInterval, err = time.ParseDuration(getEnv("OTEL_METRICS_EXPORT_INTERVAL", "10s")); err != nil {
		return nil, fmt.Errorf("parse OTEL_METRICS_EXPORT_INTERVAL: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the service must not start with. A
// missing or weak signing secret in particular is a startup failure, never
// a per-request one.
func (c *Config) Validate() error {
	var errs []string
	if c.DatabaseURL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}
	if len(c.JWTSecret) < 32 {
		errs = append(errs, "JWT_SECRET must be at least 32 chars")
	}
	if c.JWTTTL <= 0 || c.JWTTTL > 24*time.Hour {
		errs = append(errs, "JWT_TTL_MINUTES must be between 1 minute and 24h")
	}
	if c.AuthRateLimitPerMin <= 0 {
		errs = append(errs, "AUTH_RATE_LIMIT_PER_MIN must be > 0")
	}
	if c.APIRateLimitPerMin <= 0 {
		errs = append(errs, "API_RATE_LIMIT_PER_MIN must be > 0")
	}
	if c.RateLimitRedisEnabled && c.RedisAddr == "" {
		errs = append(errs, "REDIS_ADDR is required when RATE_LIMIT_REDIS_ENABLED=true")
	}
	if (c.OTELMetricsEnabled || c.OTELTracingEnabled || c.OTELLogsEnabled) && c.OTELExporterOTLPEndpoint == "" {
		errs = append(errs, "OTEL_EXPORTER_OTLP_ENDPOINT is required when OTel is enabled")
	}
	if c.OTELTraceSamplingRatio < 0 || c.OTELTraceSamplingRatio > 1 {
		errs = append(errs, "OTEL_TRACE_SAMPLING_RATIO must be between 0 and 1")
	}
	if !isValidLogLevel(c.OTELLogLevel) {
		errs = append(errs, "OTEL_LOG_LEVEL must be one of debug, info, warn, error")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
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
