// Package config reads the application settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	MailTransportMailgun = "mailgun"
	MailTransportSMTP    = "smtp"
)

// Config holds all settings of the server.
type Config struct {
	Port          string
	Environment   string
	LogLevel      string
	BaseURL       string
	SecretKey     []byte
	TokenMaxAge   time.Duration
	SessionMaxAge time.Duration
	CORSOrigins   []string
	VerifyEmailMX bool

	Database DatabaseConfig
	Mail     MailConfig
	Redis    RedisConfig
}

// DatabaseConfig holds the PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

// DSN returns the connection string understood by pgxpool.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable", d.Host, d.Port, d.User, d.Password, d.Name)
}

// MailConfig holds the settings of the outgoing mail transport.
type MailConfig struct {
	Transport     string
	From          string
	Timeout       time.Duration
	MailgunDomain string
	MailgunAPIKey string
	MailgunEU     bool
	SMTPHost      string
	SMTPPort      int
	SMTPUser      string
	SMTPPassword  string
	SMTPSSL       bool
}

// RedisConfig holds the settings of the optional token denylist.
// Revocation is disabled when Addr is empty.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// IsProduction reports whether mails are actually delivered.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "INFO"),
		BaseURL:     strings.TrimSuffix(getEnv("BASE_URL", "http://localhost:8080"), "/"),
		SecretKey:   []byte(os.Getenv("SECRET_KEY")),
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		Database: DatabaseConfig{
			Host:     os.Getenv("DB_HOST"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASS"),
			Name:     os.Getenv("DB_NAME"),
		},
		Mail: MailConfig{
			Transport:     getEnv("MAIL_TRANSPORT", MailTransportMailgun),
			From:          getEnv("MAIL_FROM", "Graveyard Manager <graveyard_manager@o2.pl>"),
			MailgunDomain: os.Getenv("MAILGUN_DOMAIN"),
			MailgunAPIKey: os.Getenv("MAILGUN_API_KEY"),
			SMTPHost:      os.Getenv("SMTP_HOST"),
			SMTPUser:      os.Getenv("SMTP_USER"),
			SMTPPassword:  os.Getenv("SMTP_PASS"),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASS"),
		},
	}

	var err error
	if cfg.TokenMaxAge, err = getDuration("TOKEN_MAX_AGE", time.Hour); err != nil {
		return nil, err
	}
	if cfg.SessionMaxAge, err = getDuration("SESSION_MAX_AGE", 7*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.Mail.Timeout, err = getDuration("MAIL_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.VerifyEmailMX, err = getBool("VERIFY_EMAIL_MX", false); err != nil {
		return nil, err
	}
	if cfg.Mail.MailgunEU, err = getBool("MAILGUN_EU", true); err != nil {
		return nil, err
	}
	if cfg.Mail.SMTPSSL, err = getBool("SMTP_SSL", true); err != nil {
		return nil, err
	}
	if cfg.Mail.SMTPPort, err = getInt("SMTP_PORT", 465); err != nil {
		return nil, err
	}
	if cfg.Redis.DB, err = getInt("REDIS_DB", 0); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if len(c.SecretKey) < 32 {
		return errors.New("SECRET_KEY must be at least 32 bytes long")
	}
	d := c.Database
	if d.Host == "" || d.Port == "" || d.User == "" || d.Password == "" || d.Name == "" {
		return errors.New("database environment variables not set")
	}
	switch c.Mail.Transport {
	case MailTransportMailgun, MailTransportSMTP:
	default:
		return fmt.Errorf("unknown MAIL_TRANSPORT %q", c.Mail.Transport)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	// Plain numbers are seconds.
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getBool(key string, fallback bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func getInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return i, nil
}

func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
