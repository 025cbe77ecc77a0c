package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration required by the API process.
// All values must come from env (or env-file loaded by the process runner).
// No business logic should depend on raw environment variables.
type Config struct {
	App    AppConfig
	DB     DBConfig
	Redis  RedisConfig
	Auth   AuthConfig
	Source SourceConfig
	Alerts AlertConfig
	SMTP   SMTPConfig
	Slack  SlackConfig
	Stripe StripeConfig
}

type AppConfig struct {
	Env  string
	Port int

	// PollSchedule is a cron expression for the background ingestion poller.
	PollSchedule string
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string

	// SSLMode is kept explicit. Accepts: disable, require, verify-ca, verify-full
	SSLMode string
}

type RedisConfig struct {
	Host string
	Port int
}

type AuthConfig struct {
	JWTSecret      string
	JWTIssuer      string
	JWTAudience    string
	AccessTokenTTL time.Duration
}

// SourceConfig points at the external call source API.
// Per-tenant bearer tokens are stored on the tenant record, not here.
type SourceConfig struct {
	BaseURL string
	Timeout time.Duration
}

// AlertConfig holds the monitoring thresholds, both ratios in [0,1].
// CRITICAL takes precedence over HIGH when both are crossed.
type AlertConfig struct {
	UsageThresholdHigh     float64
	UsageThresholdCritical float64
}

type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromEmail string
	FromName  string
}

type SlackConfig struct {
	BotToken string
}

type StripeConfig struct {
	APIKey string
}

func Load() (Config, error) {
	c := Config{}
	var parseErrs []error

	c.App.Env = strings.TrimSpace(os.Getenv("APP_ENV"))
	{
		n, err := mustInt("APP_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.App.Port = n
	}
	c.App.PollSchedule = strings.TrimSpace(os.Getenv("POLL_SCHEDULE"))

	c.DB.Host = strings.TrimSpace(os.Getenv("DB_HOST"))
	{
		n, err := mustInt("DB_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.DB.Port = n
	}
	c.DB.User = strings.TrimSpace(os.Getenv("DB_USER"))
	c.DB.Password = os.Getenv("DB_PASSWORD")
	c.DB.Name = strings.TrimSpace(os.Getenv("DB_NAME"))
	c.DB.SSLMode = strings.TrimSpace(os.Getenv("DB_SSLMODE"))

	c.Redis.Host = strings.TrimSpace(os.Getenv("REDIS_HOST"))
	{
		n, err := mustInt("REDIS_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.Redis.Port = n
	}

	c.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	c.Auth.JWTIssuer = strings.TrimSpace(os.Getenv("JWT_ISSUER"))
	c.Auth.JWTAudience = strings.TrimSpace(os.Getenv("JWT_AUDIENCE"))
	c.Auth.AccessTokenTTL = mustDuration("JWT_ACCESS_TTL")

	c.Source.BaseURL = strings.TrimSpace(os.Getenv("SOURCE_API_BASE_URL"))
	c.Source.Timeout = mustDuration("SOURCE_API_TIMEOUT")

	c.Alerts.UsageThresholdHigh = mustFloat("USAGE_THRESHOLD_HIGH", &parseErrs)
	c.Alerts.UsageThresholdCritical = mustFloat("USAGE_THRESHOLD_CRITICAL", &parseErrs)

	c.SMTP.Host = strings.TrimSpace(os.Getenv("SMTP_HOST"))
	if v := strings.TrimSpace(os.Getenv("SMTP_PORT")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			parseErrs = append(parseErrs, fmt.Errorf("SMTP_PORT must be an integer, got %q", v))
		}
		c.SMTP.Port = n
	}
	c.SMTP.Username = strings.TrimSpace(os.Getenv("SMTP_USERNAME"))
	c.SMTP.Password = os.Getenv("SMTP_PASSWORD")
	c.SMTP.FromEmail = strings.TrimSpace(os.Getenv("SMTP_FROM_EMAIL"))
	c.SMTP.FromName = strings.TrimSpace(os.Getenv("SMTP_FROM_NAME"))

	c.Slack.BotToken = os.Getenv("SLACK_BOT_TOKEN")
	c.Stripe.APIKey = os.Getenv("STRIPE_API_KEY")

	if err := joinErrors(parseErrs); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

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
	if c.App.PollSchedule == "" {
		// Matches the legacy poller cadence.
		c.App.PollSchedule = "*/9 * * * *"
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
	if strings.TrimSpace(c.DB.SSLMode) == "" {
		if c.IsProduction() {
			errs = append(errs, errors.New("DB_SSLMODE is required in production"))
		} else {
			// Local-friendly default; production must be explicit.
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

	if c.Source.BaseURL == "" {
		errs = append(errs, errors.New("SOURCE_API_BASE_URL is required"))
	}
	if c.Source.Timeout <= 0 {
		// Bound worst-case poll latency; the source enforces no timeout itself.
		c.Source.Timeout = 30 * time.Second
	}

	if c.Alerts.UsageThresholdHigh <= 0 || c.Alerts.UsageThresholdHigh > 1 {
		errs = append(errs, fmt.Errorf("USAGE_THRESHOLD_HIGH must be in (0,1], got %v", c.Alerts.UsageThresholdHigh))
	}
	if c.Alerts.UsageThresholdCritical <= 0 || c.Alerts.UsageThresholdCritical > 1 {
		errs = append(errs, fmt.Errorf("USAGE_THRESHOLD_CRITICAL must be in (0,1], got %v", c.Alerts.UsageThresholdCritical))
	}
	if c.Alerts.UsageThresholdCritical <= c.Alerts.UsageThresholdHigh {
		errs = append(errs, errors.New("USAGE_THRESHOLD_CRITICAL must be greater than USAGE_THRESHOLD_HIGH"))
	}

	if c.IsProduction() {
		if c.SMTP.Host == "" || c.SMTP.FromEmail == "" {
			errs = append(errs, errors.New("SMTP_HOST and SMTP_FROM_EMAIL are required in production"))
		}
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

func mustInt(key string) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

func mustFloat(key string, errs *[]error) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		*errs = append(*errs, fmt.Errorf("%s is required", key))
		return 0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s must be a number, got %q", key, v))
		return 0
	}
	return f
}

func mustDuration(key string) time.Duration {
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

func appendParseErr(errs []error, n int, err error) (int, []error) {
	if err != nil {
		errs = append(errs, err)
	}
	return n, errs
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
