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
	App     AppConfig
	DB      DBConfig
	Redis   RedisConfig
	Auth    AuthConfig
	Twilio  TwilioConfig
	Catalog CatalogConfig
	Notify  NotifyConfig
	Call    CallConfig
	Voice   VoiceConfig
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

	// SSLMode must be explicit in production.
	// Accepts: disable, require, verify-ca, verify-full
	SSLMode string
}

type RedisConfig struct {
	Host string
	Port int
}

type AuthConfig struct {
	JWTSecret       string
	JWTIssuer       string
	JWTAudience     string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

type TwilioConfig struct {
	// AccountSID, when set, is cross-checked against the AccountSid
	// field Twilio posts with every webhook.
	AccountSID string
	AuthToken  string
	// PublicURL is the origin Twilio signs webhook requests against,
	// e.g. "https://careline.example.com".
	PublicURL string
	// ValidateSignature turns webhook signature checks off for local
	// development. Production refuses to run without them.
	ValidateSignature bool
}

// CatalogConfig points at the agency's scheduling backend, where
// employees, jobs and shift occurrences live.
type CatalogConfig struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	RetryCount int
}

// NotifyConfig points at the SMS backend used for confirmation texts.
// An empty BaseURL disables notifications.
type NotifyConfig struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	RetryCount int
}

// CallConfig tunes the conversation engine. Zero values fall back to
// the engine's own defaults.
type CallConfig struct {
	AttemptLimit         int
	MinConfidence        float64
	VoiceMode            bool
	MaxListedJobs        int
	MaxListedOccurrences int
	GatherTimeoutSeconds int
	DialTimeoutSeconds   int
	// MaxConcurrent caps simultaneous calls; 0 means uncapped.
	MaxConcurrent int
	// EscalationNumber is where calls land when the bot gives up.
	EscalationNumber string
	// Timezone is the agency's local zone, e.g. "America/Chicago".
	// Spoken dates and the past-time check resolve in it.
	Timezone string
	// StateTTL bounds how long an abandoned call's state survives in
	// Redis.
	StateTTL time.Duration
	// PromptsFile optionally overrides spoken prompt texts from YAML.
	PromptsFile string
}

// VoiceConfig shapes the TwiML the webhooks answer with.
type VoiceConfig struct {
	// Variant selects the response style: simple, gather-confirm or
	// adaptive-stream. Empty means simple.
	Variant  string
	Name     string
	Language string
	// StreamURL is the websocket endpoint adaptive-stream connects to.
	StreamURL string
	// HoldMusicURL plays to parked callers; empty keeps the provider
	// default.
	HoldMusicURL string
}

type QueueConfig struct {
	// HoldName names the provider-side hold queue callers park in.
	HoldName         string
	AvgHandleSeconds int
	// MaxHoldAge is how long an entry may sit before the sweeper drops
	// it as abandoned.
	MaxHoldAge    time.Duration
	SweepInterval time.Duration
}

func Load() (Config, error) {
	var l envLoader
	c := Config{}

	c.App.Env = l.str("APP_ENV")
	c.App.Port = l.mustInt("APP_PORT")

	c.DB.Host = l.str("DB_HOST")
	c.DB.Port = l.mustInt("DB_PORT")
	c.DB.User = l.str("DB_USER")
	c.DB.Password = os.Getenv("DB_PASSWORD")
	c.DB.Name = l.str("DB_NAME")
	c.DB.SSLMode = l.str("DB_SSLMODE")

	c.Redis.Host = l.str("REDIS_HOST")
	c.Redis.Port = l.mustInt("REDIS_PORT")

	c.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	c.Auth.JWTIssuer = l.str("JWT_ISSUER")
	c.Auth.JWTAudience = l.str("JWT_AUDIENCE")
	c.Auth.AccessTokenTTL = l.durationOr("JWT_ACCESS_TTL", 0)
	c.Auth.RefreshTokenTTL = l.durationOr("JWT_REFRESH_TTL", 0)

	c.Twilio.AccountSID = l.str("TWILIO_ACCOUNT_SID")
	c.Twilio.AuthToken = os.Getenv("TWILIO_AUTH_TOKEN")
	c.Twilio.PublicURL = strings.TrimRight(l.str("TWILIO_PUBLIC_URL"), "/")
	c.Twilio.ValidateSignature = l.boolOr("TWILIO_VALIDATE_SIGNATURE", true)

	c.Catalog.BaseURL = l.str("CATALOG_BASE_URL")
	c.Catalog.APIKey = os.Getenv("CATALOG_API_KEY")
	c.Catalog.Timeout = l.durationOr("CATALOG_TIMEOUT", 0)
	c.Catalog.RetryCount = l.intOr("CATALOG_RETRY_COUNT", 0)

	c.Notify.BaseURL = l.str("NOTIFY_BASE_URL")
	c.Notify.APIKey = os.Getenv("NOTIFY_API_KEY")
	c.Notify.Timeout = l.durationOr("NOTIFY_TIMEOUT", 0)
	c.Notify.RetryCount = l.intOr("NOTIFY_RETRY_COUNT", 0)

	c.Call.AttemptLimit = l.intOr("CALL_ATTEMPT_LIMIT", 0)
	c.Call.MinConfidence = l.floatOr("CALL_MIN_CONFIDENCE", 0)
	c.Call.VoiceMode = l.boolOr("CALL_VOICE_MODE", false)
	c.Call.MaxListedJobs = l.intOr("CALL_MAX_LISTED_JOBS", 0)
	c.Call.MaxListedOccurrences = l.intOr("CALL_MAX_LISTED_OCCURRENCES", 0)
	c.Call.GatherTimeoutSeconds = l.intOr("CALL_GATHER_TIMEOUT_SECONDS", 0)
	c.Call.DialTimeoutSeconds = l.intOr("CALL_DIAL_TIMEOUT_SECONDS", 0)
	c.Call.MaxConcurrent = l.intOr("CALL_MAX_CONCURRENT", 0)
	c.Call.EscalationNumber = l.str("CALL_ESCALATION_NUMBER")
	c.Call.Timezone = l.str("CALL_TIMEZONE")
	c.Call.StateTTL = l.durationOr("CALL_STATE_TTL", 0)
	c.Call.PromptsFile = l.str("CALL_PROMPTS_FILE")

	c.Voice.Variant = l.str("VOICE_VARIANT")
	c.Voice.Name = l.str("VOICE_NAME")
	c.Voice.Language = l.str("VOICE_LANGUAGE")
	c.Voice.StreamURL = l.str("VOICE_STREAM_URL")
	c.Voice.HoldMusicURL = l.str("VOICE_HOLD_MUSIC_URL")

	c.Queue.HoldName = l.str("QUEUE_HOLD_NAME")
	c.Queue.AvgHandleSeconds = l.intOr("QUEUE_AVG_HANDLE_SECONDS", 0)
	c.Queue.MaxHoldAge = l.durationOr("QUEUE_MAX_HOLD_AGE", 0)
	c.Queue.SweepInterval = l.durationOr("QUEUE_SWEEP_INTERVAL", 0)

	if err := l.err(); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate fills defaults and reports every problem it finds at once,
// so a bad deploy surfaces one complete error instead of a guessing
// game.
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

	if c.IsProduction() && !c.Twilio.ValidateSignature {
		errs = append(errs, errors.New("TWILIO_VALIDATE_SIGNATURE must stay on in production"))
	}
	if c.Twilio.ValidateSignature {
		if c.Twilio.AuthToken == "" {
			errs = append(errs, errors.New("TWILIO_AUTH_TOKEN is required when signature validation is on"))
		}
		if c.Twilio.PublicURL == "" {
			errs = append(errs, errors.New("TWILIO_PUBLIC_URL is required when signature validation is on"))
		}
	}

	if c.Catalog.BaseURL == "" {
		errs = append(errs, errors.New("CATALOG_BASE_URL is required"))
	}
	if c.Catalog.RetryCount < 0 {
		errs = append(errs, fmt.Errorf("CATALOG_RETRY_COUNT must not be negative, got %d", c.Catalog.RetryCount))
	}
	if c.Notify.RetryCount < 0 {
		errs = append(errs, fmt.Errorf("NOTIFY_RETRY_COUNT must not be negative, got %d", c.Notify.RetryCount))
	}

	if c.Call.MinConfidence < 0 || c.Call.MinConfidence > 1 {
		errs = append(errs, fmt.Errorf("CALL_MIN_CONFIDENCE must be between 0 and 1, got %g", c.Call.MinConfidence))
	}
	if c.Call.MaxConcurrent < 0 {
		errs = append(errs, fmt.Errorf("CALL_MAX_CONCURRENT must not be negative, got %d", c.Call.MaxConcurrent))
	}
	if c.Call.EscalationNumber == "" {
		errs = append(errs, errors.New("CALL_ESCALATION_NUMBER is required"))
	}
	if c.Call.Timezone != "" {
		if _, err := time.LoadLocation(c.Call.Timezone); err != nil {
			errs = append(errs, fmt.Errorf("CALL_TIMEZONE is not a known zone: %q", c.Call.Timezone))
		}
	}

	if !isValidVariant(c.Voice.Variant) {
		errs = append(errs, fmt.Errorf("VOICE_VARIANT must be one of simple, gather-confirm, adaptive-stream, got %q", c.Voice.Variant))
	}
	if c.Voice.Variant == "adaptive-stream" && c.Voice.StreamURL == "" {
		errs = append(errs, errors.New("VOICE_STREAM_URL is required for the adaptive-stream variant"))
	}

	if c.Queue.MaxHoldAge <= 0 {
		c.Queue.MaxHoldAge = 2 * time.Hour
	}
	if c.Queue.SweepInterval <= 0 {
		c.Queue.SweepInterval = time.Minute
	}
	if c.Queue.SweepInterval > c.Queue.MaxHoldAge {
		errs = append(errs, errors.New("QUEUE_SWEEP_INTERVAL must not exceed QUEUE_MAX_HOLD_AGE"))
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

// CallLocation resolves the configured timezone. Empty means UTC.
func (c Config) CallLocation() (*time.Location, error) {
	if c.Call.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Call.Timezone)
}

// envLoader reads env vars and collects every parse failure so Load can
// report them together.
type envLoader struct {
	errs []error
}

func (l *envLoader) str(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func (l *envLoader) mustInt(key string) int {
	v := l.str(key)
	if v == "" {
		l.errs = append(l.errs, fmt.Errorf("%s is required", key))
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		l.errs = append(l.errs, fmt.Errorf("%s must be an integer, got %q", key, v))
		return 0
	}
	return n
}

func (l *envLoader) intOr(key string, def int) int {
	v := l.str(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		l.errs = append(l.errs, fmt.Errorf("%s must be an integer, got %q", key, v))
		return def
	}
	return n
}

func (l *envLoader) floatOr(key string, def float64) float64 {
	v := l.str(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		l.errs = append(l.errs, fmt.Errorf("%s must be a number, got %q", key, v))
		return def
	}
	return f
}

func (l *envLoader) boolOr(key string, def bool) bool {
	v := l.str(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		l.errs = append(l.errs, fmt.Errorf("%s must be a boolean, got %q", key, v))
		return def
	}
	return b
}

func (l *envLoader) durationOr(key string, def time.Duration) time.Duration {
	v := l.str(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		l.errs = append(l.errs, fmt.Errorf("%s must be a duration like 30s or 5m, got %q", key, v))
		return def
	}
	return d
}

func (l *envLoader) err() error {
	return joinErrors(l.errs)
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

func isValidVariant(v string) bool {
	switch v {
	case "", "simple", "gather-confirm", "adaptive-stream":
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
