package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Environment string
	Port        string
	LogLevel    slog.Level

	DatabaseURL   string
	RunMigrations bool
	MigrationsDir string

	RedisURL string

	// ClientURL is the base URL of the web client; used for CORS and email links.
	ClientURL string

	JWT       JWTConfig
	Email     EmailConfig
	Kafka     KafkaConfig
	RateLimit RateLimitConfig
}

type JWTConfig struct {
	Secret          string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	ResetTokenTTL   time.Duration
}

type EmailConfig struct {
	ResendAPIKey string
	From         string
}

type KafkaConfig struct {
	Brokers       []string
	TopicPrefix   string
	ConsumerGroup string
}

type RateLimitConfig struct {
	LoginWindow   time.Duration
	LoginMaxQuota int
}

// LoadConfig reads configuration from the environment. A .env file in the
// working directory is loaded first when present.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	cfg := &Config{
		Environment:   v.GetString("ENVIRONMENT"),
		Port:          v.GetString("PORT"),
		LogLevel:      parseLogLevel(v.GetString("LOG_LEVEL")),
		DatabaseURL:   v.GetString("DATABASE_URL"),
		RunMigrations: v.GetBool("RUN_MIGRATIONS"),
		MigrationsDir: v.GetString("MIGRATIONS_DIR"),
		RedisURL:      v.GetString("REDIS_URL"),
		ClientURL:     strings.TrimRight(v.GetString("CLIENT_URL"), "/"),
		JWT: JWTConfig{
			Secret:          v.GetString("JWT_SECRET_KEY"),
			AccessTokenTTL:  time.Duration(v.GetInt("ACCESS_TOKEN_EXPIRE_MINUTES")) * time.Minute,
			RefreshTokenTTL: time.Duration(v.GetInt("REFRESH_TOKEN_EXPIRE_DAYS")) * 24 * time.Hour,
			ResetTokenTTL:   time.Duration(v.GetInt("RESET_TOKEN_EXPIRE_HOURS")) * time.Hour,
		},
		Email: EmailConfig{
			ResendAPIKey: v.GetString("RESEND_API_KEY"),
			From:         v.GetString("EMAIL_FROM"),
		},
		Kafka: KafkaConfig{
			Brokers:       splitList(v.GetString("KAFKA_BROKERS")),
			TopicPrefix:   v.GetString("KAFKA_TOPIC_PREFIX"),
			ConsumerGroup: v.GetString("KAFKA_CONSUMER_GROUP"),
		},
		RateLimit: RateLimitConfig{
			LoginWindow:   time.Duration(v.GetInt("LOGIN_RATE_WINDOW_SECONDS")) * time.Second,
			LoginMaxQuota: v.GetInt("LOGIN_RATE_MAX_ATTEMPTS"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("PORT", "8000")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("RUN_MIGRATIONS", true)
	v.SetDefault("MIGRATIONS_DIR", "migrations")
	v.SetDefault("CLIENT_URL", "http://localhost:3000")
	v.SetDefault("ACCESS_TOKEN_EXPIRE_MINUTES", 30)
	v.SetDefault("REFRESH_TOKEN_EXPIRE_DAYS", 7)
	v.SetDefault("RESET_TOKEN_EXPIRE_HOURS", 4)
	v.SetDefault("EMAIL_FROM", "The Hazelton Clinic <no-reply@hazeltonclinic.com>")
	v.SetDefault("KAFKA_TOPIC_PREFIX", "assessment-service")
	v.SetDefault("KAFKA_CONSUMER_GROUP", "assessment-service-notifications")
	v.SetDefault("LOGIN_RATE_WINDOW_SECONDS", 60)
	v.SetDefault("LOGIN_RATE_MAX_ATTEMPTS", 10)
}

// Validate checks the settings the service cannot start without.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if c.JWT.AccessTokenTTL <= 0 || c.JWT.RefreshTokenTTL <= 0 {
		return fmt.Errorf("token lifetimes must be positive")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
