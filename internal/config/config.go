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
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Classifier   ClassifierConfig
	Intake       IntakeConfig
	Notification NotificationConfig
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
	MigrationsDir  string
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr            string
	Password        string
	DB              int
	StatsTTLSeconds int
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

// ClassifierConfig points the intake pipeline at the hosted language model.
type ClassifierConfig struct {
	APIKey          string
	BaseURL         string
	Model           string
	TimeoutSeconds  int
	Temperature     float64
	MaxOutputTokens int
}

// IntakeConfig tunes ticket creation from chat messages.
type IntakeConfig struct {
	DefaultUsername  string
	DedupEnabled     bool
	DedupWindowHours int
}

// NotificationConfig holds stub notification endpoints.
type NotificationConfig struct {
	EmailFrom  string
	WebhookURL string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	temperature, err := strconv.ParseFloat(getEnv("CLASSIFIER_TEMPERATURE", "0.2"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid CLASSIFIER_TEMPERATURE: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "complaint-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "5000"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			MigrationsDir:  getEnv("POSTGRES_MIGRATIONS_DIR", "migrations"),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:            getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password:        os.Getenv("REDIS_PASSWORD"),
			DB:              redisDB,
			StatsTTLSeconds: getEnvAsInt("REDIS_STATS_TTL_SECONDS", 30),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 7*24*60),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		Classifier: ClassifierConfig{
			APIKey:          getEnv("CLASSIFIER_API_KEY", os.Getenv("GEMINI_API_KEY")),
			BaseURL:         getEnv("CLASSIFIER_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
			Model:           getEnv("CLASSIFIER_MODEL", "gemini-1.5-flash-latest"),
			TimeoutSeconds:  getEnvAsInt("CLASSIFIER_TIMEOUT_SECONDS", 20),
			Temperature:     temperature,
			MaxOutputTokens: getEnvAsInt("CLASSIFIER_MAX_OUTPUT_TOKENS", 400),
		},
		Intake: IntakeConfig{
			DefaultUsername:  getEnv("INTAKE_DEFAULT_USERNAME", "Anonymous User"),
			DedupEnabled:     getEnvAsBool("INTAKE_DEDUP_ENABLED", true),
			DedupWindowHours: getEnvAsInt("INTAKE_DEDUP_WINDOW_HOURS", 24),
		},
		Notification: NotificationConfig{
			EmailFrom:  getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
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

// Timeout returns the upper bound for one classifier call.
func (c ClassifierConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 20 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// DedupWindow returns how far back duplicate suppression looks.
func (i IntakeConfig) DedupWindow() time.Duration {
	if i.DedupWindowHours <= 0 {
		return 0
	}
	return time.Duration(i.DedupWindowHours) * time.Hour
}

// StatsTTL returns how long cached admin stats stay valid.
func (r RedisConfig) StatsTTL() time.Duration {
	if r.StatsTTLSeconds <= 0 {
		return 0
	}
	return time.Duration(r.StatsTTLSeconds) * time.Second
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
