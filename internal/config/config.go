// Package config provides application configuration loaded from environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	App       AppConfig
	Log       LogConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Twilio    TwilioConfig
	SMTP      SMTPConfig
	Documents DocumentsConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string
	ReadTimeout  int // seconds
	WriteTimeout int // seconds
	IdleTimeout  int // seconds
}

// DatabaseConfig holds connection settings. Driver is "postgres" or "sqlite".
// DSNOverride, when set, wins over the individual fields.
type DatabaseConfig struct {
	Driver         string
	DSNOverride    string
	Host           string
	Port           int
	User           string
	Password       string
	DBName         string
	SSLMode        string
	Debug          bool
	MigrationsPath string
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Dev               bool
	Migrations        bool
	Seed              bool
	StockPolicy       string
	DefaultTaxRate    float64
	LowStockThreshold int
	Timezone          string
	CurrencySymbol    string
}

type LogConfig struct {
	Level  string
	Pretty bool
}

// RedisConfig enables the dashboard cache when Addr is set.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	CacheTTL time.Duration
}

// KafkaConfig enables the outbox publisher when Brokers is non-empty.
type KafkaConfig struct {
	Brokers        []string
	Topic          string
	OutboxInterval    time.Duration
	OutboxBatch       int
	OutboxMaxAttempts int
}

type TwilioConfig struct {
	AccountSID         string
	AuthToken          string
	FromNumber         string
	DefaultCountryCode string
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// DocumentsConfig selects where rendered PDFs are kept: "local" or "s3".
type DocumentsConfig struct {
	Backend  string
	Dir      string
	S3Bucket string
	S3Region string
	S3Prefix string
}

// DSN returns the connection string for the configured driver.
func (d DatabaseConfig) DSN() string {
	if d.DSNOverride != "" {
		return d.DSNOverride
	}
	if d.Driver == "sqlite" {
		return d.DBName + ".db"
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// Location resolves the Timezone used for calendar-day boundaries.
func (a AppConfig) Location() (*time.Location, error) {
	return time.LoadLocation(a.Timezone)
}

// SMSEnabled reports whether Twilio credentials are complete.
func (t TwilioConfig) SMSEnabled() bool {
	return t.AccountSID != "" && t.AuthToken != "" && t.FromNumber != ""
}

// Enabled reports whether an SMTP relay is configured.
func (s SMTPConfig) Enabled() bool {
	return s.Host != "" && s.From != ""
}

// Addr is host:port of the relay.
func (s SMTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Load reads configuration from the environment.
// It uses sensible defaults for local development.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		Server: ServerConfig{
			Port:         v.GetString("PORT"),
			ReadTimeout:  v.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout: v.GetInt("SERVER_WRITE_TIMEOUT"),
			IdleTimeout:  v.GetInt("SERVER_IDLE_TIMEOUT"),
		},
		Database: DatabaseConfig{
			Driver:         strings.ToLower(v.GetString("DB_DRIVER")),
			DSNOverride:    v.GetString("DATABASE_DSN"),
			Host:           v.GetString("DB_HOST"),
			Port:           v.GetInt("DB_PORT"),
			User:           v.GetString("DB_USER"),
			Password:       v.GetString("DB_PASSWORD"),
			DBName:         v.GetString("DB_NAME"),
			SSLMode:        v.GetString("DB_SSLMODE"),
			Debug:          flag(v, "DB_DEBUG"),
			MigrationsPath: v.GetString("MIGRATIONS_PATH"),
		},
		App: AppConfig{
			Dev:               flag(v, "DEV"),
			Migrations:        flag(v, "MIGRATIONS"),
			Seed:              flag(v, "DB_SEED"),
			StockPolicy:       strings.ToLower(v.GetString("STOCK_POLICY")),
			DefaultTaxRate:    v.GetFloat64("DEFAULT_TAX_RATE"),
			LowStockThreshold: v.GetInt("LOW_STOCK_THRESHOLD"),
			Timezone:          v.GetString("TIMEZONE"),
			CurrencySymbol:    v.GetString("CURRENCY_SYMBOL"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Pretty: flag(v, "LOG_PRETTY"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			CacheTTL: v.GetDuration("DASHBOARD_CACHE_TTL"),
		},
		Kafka: KafkaConfig{
			Brokers:        splitList(v.GetString("KAFKA_BROKERS")),
			Topic:          v.GetString("KAFKA_TOPIC"),
			OutboxInterval:    v.GetDuration("OUTBOX_INTERVAL"),
			OutboxBatch:       v.GetInt("OUTBOX_BATCH"),
			OutboxMaxAttempts: v.GetInt("OUTBOX_MAX_ATTEMPTS"),
		},
		Twilio: TwilioConfig{
			AccountSID:         v.GetString("TWILIO_ACCOUNT_SID"),
			AuthToken:          v.GetString("TWILIO_AUTH_TOKEN"),
			FromNumber:         v.GetString("TWILIO_PHONE_NUMBER"),
			DefaultCountryCode: v.GetString("DEFAULT_COUNTRY_CODE"),
		},
		SMTP: SMTPConfig{
			Host:     v.GetString("SMTP_HOST"),
			Port:     v.GetInt("SMTP_PORT"),
			Username: v.GetString("SMTP_USERNAME"),
			Password: v.GetString("SMTP_PASSWORD"),
			From:     v.GetString("SMTP_FROM"),
		},
		Documents: DocumentsConfig{
			Backend:  strings.ToLower(v.GetString("DOCUMENTS_BACKEND")),
			Dir:      v.GetString("DOCUMENTS_DIR"),
			S3Bucket: v.GetString("S3_BUCKET"),
			S3Region: v.GetString("AWS_REGION"),
			S3Prefix: v.GetString("S3_PREFIX"),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("SERVER_READ_TIMEOUT", 15)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 15)
	v.SetDefault("SERVER_IDLE_TIMEOUT", 60)

	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "retail")
	v.SetDefault("DB_PASSWORD", "retail123")
	v.SetDefault("DB_NAME", "retail")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("MIGRATIONS_PATH", "migrations")

	v.SetDefault("DEV", "1")
	v.SetDefault("STOCK_POLICY", "permissive")
	v.SetDefault("DEFAULT_TAX_RATE", 18)
	v.SetDefault("LOW_STOCK_THRESHOLD", 5)
	v.SetDefault("TIMEZONE", "UTC")
	v.SetDefault("CURRENCY_SYMBOL", "₹")

	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("DASHBOARD_CACHE_TTL", "30s")

	v.SetDefault("KAFKA_TOPIC", "retail.invoices")
	v.SetDefault("OUTBOX_INTERVAL", "5s")
	v.SetDefault("OUTBOX_BATCH", 50)
	v.SetDefault("OUTBOX_MAX_ATTEMPTS", 10)

	v.SetDefault("DEFAULT_COUNTRY_CODE", "+91")

	v.SetDefault("SMTP_PORT", 587)

	v.SetDefault("DOCUMENTS_BACKEND", "local")
	v.SetDefault("DOCUMENTS_DIR", "invoices")
}

// Validate rejects settings the process cannot start with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("config: unsupported DB_DRIVER %q", c.Database.Driver)
	}
	switch c.App.StockPolicy {
	case "permissive", "strict":
	default:
		return fmt.Errorf("config: STOCK_POLICY must be permissive or strict, got %q", c.App.StockPolicy)
	}
	switch c.Documents.Backend {
	case "local":
	case "s3":
		if c.Documents.S3Bucket == "" {
			return fmt.Errorf("config: S3_BUCKET is required when DOCUMENTS_BACKEND=s3")
		}
	default:
		return fmt.Errorf("config: unsupported DOCUMENTS_BACKEND %q", c.Documents.Backend)
	}
	if _, err := c.App.Location(); err != nil {
		return fmt.Errorf("config: TIMEZONE: %w", err)
	}
	return nil
}

// flag accepts "1", "true", "yes" as true; everything else is false.
func flag(v *viper.Viper, key string) bool {
	switch strings.ToLower(strings.TrimSpace(v.GetString(key))) {
	case "1", "true", "yes":
		return true
	}
	return false
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
