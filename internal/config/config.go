package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App        AppConfig
	Postgres   PostgresConfig
	Redis      RedisConfig
	Logger     LoggerConfig
	Auth       AuthConfig
	SMS        SMSConfig
	Push       PushConfig
	Escalation EscalationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
}

// SMSConfig carries the SMS provider endpoint and credentials. Credentials
// are explicit configuration handed to the adapter at construction, never
// ambient lookups.
type SMSConfig struct {
	APIURL         string
	AccountSID     string
	AuthToken      string
	TimeoutSeconds int
}

// PushConfig carries the push gateway endpoint and API key.
type PushConfig struct {
	APIURL         string
	APIKey         string
	TimeoutSeconds int
}

// EscalationConfig holds default timer values used when a client row does
// not override them. Zero disables the corresponding timer.
type EscalationConfig struct {
	DefaultReminderTimeoutMillis int
	DefaultFallbackTimeoutMillis int
	// ResetPhrase is the keyword a responder can text to reset a session.
	// Empty disables the reset keyword entirely.
	ResetPhrase string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "alert-escalation-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		SMS: SMSConfig{
			APIURL:         os.Getenv("SMS_API_URL"),
			AccountSID:     os.Getenv("SMS_ACCOUNT_SID"),
			AuthToken:      os.Getenv("SMS_AUTH_TOKEN"),
			TimeoutSeconds: getEnvAsInt("SMS_TIMEOUT_SECONDS", 10),
		},
		Push: PushConfig{
			APIURL:         os.Getenv("PUSH_API_URL"),
			APIKey:         os.Getenv("PUSH_API_KEY"),
			TimeoutSeconds: getEnvAsInt("PUSH_TIMEOUT_SECONDS", 10),
		},
		Escalation: EscalationConfig{
			DefaultReminderTimeoutMillis: getEnvAsInt("ESCALATION_REMINDER_TIMEOUT_MILLIS", 60000),
			DefaultFallbackTimeoutMillis: getEnvAsInt("ESCALATION_FALLBACK_TIMEOUT_MILLIS", 300000),
			ResetPhrase:                  os.Getenv("ESCALATION_RESET_PHRASE"),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// ReminderTimeout converts the default reminder timeout to a duration.
func (e EscalationConfig) ReminderTimeout() time.Duration {
	return time.Duration(e.DefaultReminderTimeoutMillis) * time.Millisecond
}

// FallbackTimeout converts the default fallback timeout to a duration.
func (e EscalationConfig) FallbackTimeout() time.Duration {
	return time.Duration(e.DefaultFallbackTimeoutMillis) * time.Millisecond
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
