package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration required by the api and worker processes.
// Values come from the environment; a .env file is loaded first when present.
type Config struct {
	App     AppConfig
	DB      DBConfig
	Redis   RedisConfig
	Auth    AuthConfig
	Quota   QuotaConfig
	Notify  NotifyConfig
	Billing BillingConfig
	Intake  IntakeConfig
	Queue   QueueConfig
}

type AppConfig struct {
	Env  string
	Port int
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string

	// Accepts: disable, require, verify-ca, verify-full
	SSLMode string

	AutoMigrate bool
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
}

type AuthConfig struct {
	JWTSecret       string
	JWTIssuer       string
	JWTAudience     string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// QuotaConfig selects where the per-day lead counters live.
type QuotaConfig struct {
	// Backend is "redis" or "postgres".
	Backend  string
	Timezone string
}

type NotifyConfig struct {
	// Channels is a subset of smtp, ses, sns. Empty disables delivery (logged only).
	Channels []string
	// Async dispatches notifications through the task queue instead of inline.
	Async bool

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	FromEmail    string
	FromName     string

	AWSRegion string
	// SMSSenderID is passed to SNS as the sender id attribute when set.
	SMSSenderID string
}

type BillingConfig struct {
	StripeSecretKey     string
	StripeWebhookSecret string
	Currency            string
	DefaultLeadPrice    int64
}

type IntakeConfig struct {
	RatePerMinute  float64
	Burst          int
	AllowedOrigins []string
}

type QueueConfig struct {
	Name        string
	Concurrency int
	MaxRetry    int
}

func Load() (Config, error) {
	_ = godotenv.Load()

	c := Config{}
	var parseErrs []error

	c.App.Env = strings.TrimSpace(os.Getenv("APP_ENV"))
	c.App.Port, parseErrs = requiredInt(parseErrs, "APP_PORT")

	c.DB.Host = strings.TrimSpace(os.Getenv("DB_HOST"))
	c.DB.Port, parseErrs = requiredInt(parseErrs, "DB_PORT")
	c.DB.User = strings.TrimSpace(os.Getenv("DB_USER"))
	c.DB.Password = os.Getenv("DB_PASSWORD")
	c.DB.Name = strings.TrimSpace(os.Getenv("DB_NAME"))
	c.DB.SSLMode = strings.TrimSpace(os.Getenv("DB_SSLMODE"))
	c.DB.AutoMigrate = boolEnv("DB_AUTO_MIGRATE", true)

	c.Redis.Host = strings.TrimSpace(os.Getenv("REDIS_HOST"))
	c.Redis.Port, parseErrs = requiredInt(parseErrs, "REDIS_PORT")
	c.Redis.Password = os.Getenv("REDIS_PASSWORD")

	c.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	c.Auth.JWTIssuer = strings.TrimSpace(os.Getenv("JWT_ISSUER"))
	c.Auth.JWTAudience = strings.TrimSpace(os.Getenv("JWT_AUDIENCE"))
	// Duration env vars are optional; defaults applied in Validate().
	c.Auth.AccessTokenTTL = optionalDuration("JWT_ACCESS_TTL")
	c.Auth.RefreshTokenTTL = optionalDuration("JWT_REFRESH_TTL")

	c.Quota.Backend = strings.ToLower(strings.TrimSpace(os.Getenv("QUOTA_BACKEND")))
	c.Quota.Timezone = strings.TrimSpace(os.Getenv("QUOTA_TIMEZONE"))

	c.Notify.Channels = listEnv("NOTIFY_CHANNELS")
	c.Notify.Async = boolEnv("NOTIFY_ASYNC", true)
	c.Notify.SMTPHost = strings.TrimSpace(os.Getenv("SMTP_HOST"))
	c.Notify.SMTPPort, parseErrs = optionalInt(parseErrs, "SMTP_PORT")
	c.Notify.SMTPUsername = strings.TrimSpace(os.Getenv("SMTP_USERNAME"))
	c.Notify.SMTPPassword = os.Getenv("SMTP_PASSWORD")
	c.Notify.FromEmail = strings.TrimSpace(os.Getenv("NOTIFY_FROM_EMAIL"))
	c.Notify.FromName = strings.TrimSpace(os.Getenv("NOTIFY_FROM_NAME"))
	c.Notify.AWSRegion = strings.TrimSpace(os.Getenv("AWS_REGION"))
	c.Notify.SMSSenderID = strings.TrimSpace(os.Getenv("SMS_SENDER_ID"))

	c.Billing.StripeSecretKey = os.Getenv("STRIPE_SECRET_KEY")
	c.Billing.StripeWebhookSecret = os.Getenv("STRIPE_WEBHOOK_SECRET")
	c.Billing.Currency = strings.ToLower(strings.TrimSpace(os.Getenv("BILLING_CURRENCY")))
	{
		var n int
		n, parseErrs = optionalInt(parseErrs, "DEFAULT_LEAD_PRICE_CENTS")
		c.Billing.DefaultLeadPrice = int64(n)
	}

	if v := strings.TrimSpace(os.Getenv("INTAKE_RATE_PER_MINUTE")); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			parseErrs = append(parseErrs, fmt.Errorf("INTAKE_RATE_PER_MINUTE must be a number, got %q", v))
		}
		c.Intake.RatePerMinute = f
	}
	c.Intake.Burst, parseErrs = optionalInt(parseErrs, "INTAKE_BURST")
	c.Intake.AllowedOrigins = listEnv("INTAKE_ALLOWED_ORIGINS")

	c.Queue.Name = strings.TrimSpace(os.Getenv("QUEUE_NAME"))
	c.Queue.Concurrency, parseErrs = optionalInt(parseErrs, "QUEUE_CONCURRENCY")
	c.Queue.MaxRetry, parseErrs = optionalInt(parseErrs, "QUEUE_MAX_RETRY")

	if err := joinErrors(parseErrs); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks required values and fills defaults in place.
func (c *Config) Validate() error {
	var errs []error

	if c.App.Env == "" {
		errs = append(errs, errors.New("APP_ENV is required"))
	} else if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}

	if c.DB.Host == "" {
		errs = append(errs, errors.New("DB_HOST is required"))
	}
	if c.DB.Port <= 0 || c.DB.Port > 65535 {
		errs = append(errs, fmt.Errorf("DB_PORT must be a valid port, got %d", c.DB.Port))
	}
	if c.DB.User == "" {
		errs = append(errs, errors.New("DB_USER is required"))
	}
	if c.DB.Name == "" {
		errs = append(errs, errors.New("DB_NAME is required"))
	}
	if c.DB.SSLMode == "" {
		if c.IsProduction() {
			errs = append(errs, errors.New("DB_SSLMODE is required in production"))
		} else {
			c.DB.SSLMode = "disable"
		}
	}
	if c.DB.SSLMode != "" && !isValidSSLMode(c.DB.SSLMode) {
		errs = append(errs, fmt.Errorf("DB_SSLMODE must be one of disable, require, verify-ca, verify-full, got %q", c.DB.SSLMode))
	}

	if c.Redis.Host == "" {
		errs = append(errs, errors.New("REDIS_HOST is required"))
	}
	if c.Redis.Port <= 0 || c.Redis.Port > 65535 {
		errs = append(errs, fmt.Errorf("REDIS_PORT must be a valid port, got %d", c.Redis.Port))
	}

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.IsProduction() {
		if c.Auth.JWTIssuer == "" {
			errs = append(errs, errors.New("JWT_ISSUER is required in production"))
		}
		if c.Auth.JWTAudience == "" {
			errs = append(errs, errors.New("JWT_AUDIENCE is required in production"))
		}
	}
	if c.Auth.AccessTokenTTL <= 0 {
		c.Auth.AccessTokenTTL = 15 * time.Minute
	}
	if c.Auth.RefreshTokenTTL <= 0 {
		c.Auth.RefreshTokenTTL = 30 * 24 * time.Hour
	}
	if c.Auth.RefreshTokenTTL <= c.Auth.AccessTokenTTL {
		errs = append(errs, errors.New("JWT_REFRESH_TTL must be greater than JWT_ACCESS_TTL"))
	}

	if c.Quota.Backend == "" {
		c.Quota.Backend = "redis"
	}
	if c.Quota.Backend != "redis" && c.Quota.Backend != "postgres" {
		errs = append(errs, fmt.Errorf("QUOTA_BACKEND must be redis or postgres, got %q", c.Quota.Backend))
	}
	if c.Quota.Timezone == "" {
		c.Quota.Timezone = "America/Chicago"
	}
	if _, err := time.LoadLocation(c.Quota.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("QUOTA_TIMEZONE is not a known zone: %q", c.Quota.Timezone))
	}

	for _, ch := range c.Notify.Channels {
		switch ch {
		case "smtp":
			if c.Notify.SMTPHost == "" {
				errs = append(errs, errors.New("SMTP_HOST is required for the smtp channel"))
			}
			if c.Notify.SMTPPort == 0 {
				c.Notify.SMTPPort = 587
			}
			if c.Notify.FromEmail == "" {
				errs = append(errs, errors.New("NOTIFY_FROM_EMAIL is required for email channels"))
			}
		case "ses":
			if c.Notify.AWSRegion == "" {
				errs = append(errs, errors.New("AWS_REGION is required for the ses channel"))
			}
			if c.Notify.FromEmail == "" {
				errs = append(errs, errors.New("NOTIFY_FROM_EMAIL is required for email channels"))
			}
		case "sns":
			if c.Notify.AWSRegion == "" {
				errs = append(errs, errors.New("AWS_REGION is required for the sns channel"))
			}
		default:
			errs = append(errs, fmt.Errorf("NOTIFY_CHANNELS contains unknown channel %q", ch))
		}
	}
	if c.Notify.FromName == "" {
		c.Notify.FromName = "GarageLeadly"
	}

	if c.Billing.Currency == "" {
		c.Billing.Currency = "usd"
	}
	if c.Billing.DefaultLeadPrice < 0 {
		errs = append(errs, errors.New("DEFAULT_LEAD_PRICE_CENTS must be >= 0"))
	}
	if c.Billing.DefaultLeadPrice == 0 {
		c.Billing.DefaultLeadPrice = 4500
	}
	if c.IsProduction() && c.Billing.StripeSecretKey != "" && c.Billing.StripeWebhookSecret == "" {
		errs = append(errs, errors.New("STRIPE_WEBHOOK_SECRET is required in production when billing is enabled"))
	}

	if c.Intake.RatePerMinute <= 0 {
		c.Intake.RatePerMinute = 10
	}
	if c.Intake.Burst <= 0 {
		c.Intake.Burst = 5
	}

	if c.Queue.Name == "" {
		c.Queue.Name = "default"
	}
	if c.Queue.Concurrency <= 0 {
		c.Queue.Concurrency = 10
	}
	if c.Queue.MaxRetry <= 0 {
		c.Queue.MaxRetry = 5
	}

	return joinErrors(errs)
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

func (c Config) PostgresDSN() string {
	// Avoid logging this string; it contains secrets.
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host,
		c.DB.Port,
		c.DB.User,
		c.DB.Password,
		c.DB.Name,
		c.DB.SSLMode,
	)
}

func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// Location returns the business timezone used to bucket leads into days.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Quota.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// BillingEnabled reports whether per-lead charges go to the payment processor.
func (c Config) BillingEnabled() bool {
	return c.Billing.StripeSecretKey != ""
}

func requiredInt(errs []error, key string) (int, []error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, append(errs, fmt.Errorf("%s is required", key))
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, append(errs, fmt.Errorf("%s must be an integer, got %q", key, v))
	}
	return n, errs
}

func optionalInt(errs []error, key string) (int, []error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, errs
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, append(errs, fmt.Errorf("%s must be an integer, got %q", key, v))
	}
	return n, errs
}

func optionalDuration(key string) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0
	}
	return d
}

func boolEnv(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func listEnv(key string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func isValidSSLMode(v string) bool {
	switch v {
	case "disable", "require", "verify-ca", "verify-full":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
