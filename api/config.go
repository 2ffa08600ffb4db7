package main

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

type config struct {
	port        int
	env         string
	storage     string
	autoMigrate bool
	db          struct {
		dsn                string
		maxOpenConnections int
		maxIdleConnections int
		maxIdleTime        time.Duration
	}
	smtp struct {
		host     string
		port     int
		username string
		password string
		sender   string
	}
	jwt struct {
		secret string
		ttl    time.Duration
	}
	limiter struct {
		enabled             bool
		maxRequestPerSecond float64
		burst               int
	}
	cors struct {
		trustedOrigins []string
	}
	activation struct {
		required bool
		ttl      time.Duration
	}
	redis struct {
		url string
	}
	nats struct {
		url string
	}
}

func getEnvAsString(key string, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return strings.Fields(value)
}

// bindDBFlags registers the flags shared by every command that talks to the
// database.
func bindDBFlags(fs *pflag.FlagSet, cfg *config) {
	fs.StringVar(&cfg.env, "env", getEnvAsString("APP_ENV", "development"), "Environment [development|staging|production]")
	fs.StringVar(&cfg.storage, "storage", getEnvAsString("STORAGE", "postgres"), "Storage backend [postgres|memory]")
	fs.StringVar(&cfg.db.dsn, "db-dsn", os.Getenv("DB_DSN"), "PostgreSQL DSN")
	fs.IntVar(&cfg.db.maxOpenConnections, "db-max-open-conns", getEnvAsInt("DB_MAX_OPEN_CONNS", 25), "PostgreSQL max open connections")
	fs.IntVar(&cfg.db.maxIdleConnections, "db-max-idle-conns", getEnvAsInt("DB_MAX_IDLE_CONNS", 25), "PostgreSQL max idle connections")
	fs.DurationVar(&cfg.db.maxIdleTime, "db-max-idle-time", getEnvAsDuration("DB_MAX_IDLE_TIME", 15*time.Minute), "PostgreSQL max connection idle time")
}

func bindServeFlags(fs *pflag.FlagSet, cfg *config) {
	fs.IntVar(&cfg.port, "port", getEnvAsInt("PORT", 3000), "Server port")
	fs.BoolVar(&cfg.autoMigrate, "auto-migrate", getEnvAsBool("AUTO_MIGRATE", false), "Apply the database schema on start")

	fs.StringVar(&cfg.smtp.host, "smtp-host", os.Getenv("SMTP_HOST"), "SMTP host")
	fs.IntVar(&cfg.smtp.port, "smtp-port", getEnvAsInt("SMTP_PORT", 25), "SMTP port")
	fs.StringVar(&cfg.smtp.username, "smtp-username", os.Getenv("SMTP_USERNAME"), "SMTP username")
	fs.StringVar(&cfg.smtp.password, "smtp-password", os.Getenv("SMTP_PASSWORD"), "SMTP password")
	fs.StringVar(&cfg.smtp.sender, "smtp-sender", getEnvAsString("SMTP_SENDER", "Taskboard <no-reply@taskboard.local>"), "SMTP sender")

	fs.StringVar(&cfg.jwt.secret, "jwt-secret", os.Getenv("JWT_SECRET"), "JWT secret")
	fs.DurationVar(&cfg.jwt.ttl, "jwt-ttl", getEnvAsDuration("JWT_TTL", 24*time.Hour), "JWT lifetime")

	fs.BoolVar(&cfg.limiter.enabled, "limiter-enabled", getEnvAsBool("LIMITER_ENABLED", true), "Enable per-IP rate limiting")
	fs.Float64Var(&cfg.limiter.maxRequestPerSecond, "limiter-rps", getEnvAsFloat("LIMITER_RPS", 4), "Rate limiter maximum requests per second")
	fs.IntVar(&cfg.limiter.burst, "limiter-burst", getEnvAsInt("LIMITER_BURST", 8), "Rate limiter maximum burst")

	fs.StringSliceVar(&cfg.cors.trustedOrigins, "cors-trusted-origins", getEnvAsList("CORS_TRUSTED_ORIGINS", nil), "Trusted CORS origins")

	fs.BoolVar(&cfg.activation.required, "require-activation", getEnvAsBool("REQUIRE_ACTIVATION", false), "Reject requests from accounts that are not activated")
	fs.DurationVar(&cfg.activation.ttl, "activation-ttl", getEnvAsDuration("ACTIVATION_TTL", 15*time.Minute), "Activation code lifetime")

	fs.StringVar(&cfg.redis.url, "redis-url", os.Getenv("REDIS_URL"), "Redis URL for activation codes (in-memory when empty)")
	fs.StringVar(&cfg.nats.url, "nats-url", os.Getenv("NATS_URL"), "NATS URL for domain events (disabled when empty)")
}
