// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultDBPassword = "password"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	MailDriverLog  = "log"
	MailDriverSMTP = "smtp"

	ClassifierDriverStatic = "static"
	ClassifierDriverHTTP   = "http"
)

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Port           string `mapstructure:"PORT"`
	Env            string `mapstructure:"APP_ENV"`
	LogLevel       string `mapstructure:"LOG_LEVEL"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`

	DBDriver   string `mapstructure:"DB_DRIVER"`
	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     string `mapstructure:"DB_PORT"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`
	DBSSLMode  string `mapstructure:"DB_SSLMODE"`
	DBReadHost string `mapstructure:"DB_READ_HOST"`
	SQLitePath string `mapstructure:"SQLITE_PATH"`

	RedisURL string `mapstructure:"REDIS_URL"`

	BcryptCost         int           `mapstructure:"BCRYPT_COST"`
	ResetCodeTTL       time.Duration `mapstructure:"RESET_CODE_TTL"`
	ResetVerifiedTTL   time.Duration `mapstructure:"RESET_VERIFIED_TTL"`
	LoginAttemptLimit  int           `mapstructure:"LOGIN_ATTEMPT_LIMIT"`
	LoginAttemptWindow time.Duration `mapstructure:"LOGIN_ATTEMPT_WINDOW"`
	ResetAttemptLimit  int           `mapstructure:"RESET_ATTEMPT_LIMIT"`

	MailDriver   string `mapstructure:"MAIL_DRIVER"`
	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     int    `mapstructure:"SMTP_PORT"`
	SMTPUsername string `mapstructure:"SMTP_USERNAME"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
	MailFrom     string `mapstructure:"MAIL_FROM"`

	ClassifierDriver   string        `mapstructure:"CLASSIFIER_DRIVER"`
	ImageClassifierURL string        `mapstructure:"IMAGE_CLASSIFIER_URL"`
	TextClassifierURL  string        `mapstructure:"TEXT_CLASSIFIER_URL"`
	ClassifierTimeout  time.Duration `mapstructure:"CLASSIFIER_TIMEOUT"`

	FeatureFlags string `mapstructure:"FEATURE_FLAGS"`

	TracingEnabled  bool    `mapstructure:"TRACING_ENABLED"`
	TracingExporter string  `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint    string  `mapstructure:"OTLP_ENDPOINT"`
	TracingSampler  float64 `mapstructure:"TRACING_SAMPLER_RATIO"`
}

// IsProduction reports whether the production rules apply.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8375")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")

	v.SetDefault("DB_DRIVER", DriverPostgres)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "user")
	v.SetDefault("DB_PASSWORD", defaultDBPassword)
	v.SetDefault("DB_NAME", "positiveonly")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_READ_HOST", "")
	v.SetDefault("SQLITE_PATH", "positiveonly.db")

	v.SetDefault("REDIS_URL", "localhost:6379")

	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("RESET_CODE_TTL", "15m")
	v.SetDefault("RESET_VERIFIED_TTL", "10m")
	v.SetDefault("LOGIN_ATTEMPT_LIMIT", 10)
	v.SetDefault("LOGIN_ATTEMPT_WINDOW", "15m")
	v.SetDefault("RESET_ATTEMPT_LIMIT", 5)

	v.SetDefault("MAIL_DRIVER", MailDriverLog)
	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USERNAME", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("MAIL_FROM", "no-reply@positiveonly.social")

	v.SetDefault("CLASSIFIER_DRIVER", ClassifierDriverStatic)
	v.SetDefault("IMAGE_CLASSIFIER_URL", "")
	v.SetDefault("TEXT_CLASSIFIER_URL", "")
	v.SetDefault("CLASSIFIER_TIMEOUT", "5s")

	v.SetDefault("FEATURE_FLAGS", "activity_notifications=on,remember_me=on")

	v.SetDefault("TRACING_ENABLED", false)
	v.SetDefault("TRACING_EXPORTER", "stdout")
	v.SetDefault("OTLP_ENDPOINT", "localhost:4318")
	v.SetDefault("TRACING_SAMPLER_RATIO", 1.0)
}

// LoadConfig loads application configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	v.AddConfigPath(".")
	v.AddConfigPath("..")
	v.AddConfigPath("../..")
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.AutomaticEnv()
	setDefaults(v)

	// The base config file is optional; defaults and env cover everything.
	_ = v.ReadInConfig()

	env := v.GetString("APP_ENV")
	if env != "development" && env != "" {
		v.SetConfigName("config." + env)
		if err := v.MergeInConfig(); err == nil {
			slog.Info("Loaded profile-specific configuration", slog.String("file", "config."+env+".yml"))
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	config.normalize()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func (c *Config) normalize() {
	c.DBDriver = strings.ToLower(strings.TrimSpace(c.DBDriver))
	c.DBSSLMode = strings.ToLower(strings.TrimSpace(c.DBSSLMode))
	c.MailDriver = strings.ToLower(strings.TrimSpace(c.MailDriver))
	c.ClassifierDriver = strings.ToLower(strings.TrimSpace(c.ClassifierDriver))
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}

	switch c.DBDriver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("DB_DRIVER must be %q or %q", DriverPostgres, DriverSQLite)
	}
	switch c.MailDriver {
	case MailDriverLog, MailDriverSMTP:
	default:
		return fmt.Errorf("MAIL_DRIVER must be %q or %q", MailDriverLog, MailDriverSMTP)
	}
	switch c.ClassifierDriver {
	case ClassifierDriverStatic, ClassifierDriverHTTP:
	default:
		return fmt.Errorf("CLASSIFIER_DRIVER must be %q or %q", ClassifierDriverStatic, ClassifierDriverHTTP)
	}

	if c.ResetCodeTTL <= 0 || c.ResetVerifiedTTL <= 0 {
		return errors.New("RESET_CODE_TTL and RESET_VERIFIED_TTL must be positive")
	}
	if c.LoginAttemptLimit <= 0 || c.ResetAttemptLimit <= 0 || c.LoginAttemptWindow <= 0 {
		return errors.New("attempt limits and LOGIN_ATTEMPT_WINDOW must be positive")
	}

	if c.MailDriver == MailDriverSMTP && (c.SMTPHost == "" || c.SMTPPort == 0 || c.MailFrom == "") {
		return errors.New("SMTP_HOST, SMTP_PORT and MAIL_FROM are required when MAIL_DRIVER is smtp")
	}
	if c.ClassifierDriver == ClassifierDriverHTTP && (c.ImageClassifierURL == "" || c.TextClassifierURL == "") {
		return errors.New("IMAGE_CLASSIFIER_URL and TEXT_CLASSIFIER_URL are required when CLASSIFIER_DRIVER is http")
	}

	if c.IsProduction() {
		if c.DBDriver == DriverSQLite {
			return errors.New("DB_DRIVER sqlite is not allowed in production")
		}
		if c.DBPassword == defaultDBPassword || c.DBPassword == "" {
			return errors.New("a strong DB_PASSWORD is required in production")
		}
		if c.ClassifierDriver == ClassifierDriverStatic {
			return errors.New("static classifiers are not allowed in production")
		}
		if c.DBSSLMode == "disable" || c.DBSSLMode == "" {
			slog.Warn("DB_SSLMODE is 'disable' in production. It is highly recommended to use SSL for database connections.")
		}
		if c.AllowedOrigins == "*" {
			slog.Warn("ALLOWED_ORIGINS is set to '*' in production. This is insecure.")
		}
	}

	return nil
}
