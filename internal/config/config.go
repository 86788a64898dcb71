package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultHTTPAddr       = ":8080"
	defaultDatabaseURL    = "workspots.db"
	defaultJWTAccessTTL   = "15m"
	defaultRefreshTTL     = "168h"
	defaultActionTokenTTL = "24h"
	defaultCookieSecure   = "false"
	defaultCookieSameSite = "Lax"
	defaultCookiePath     = "/api/v1/auth"
	defaultJWTSecret      = "change-me-jwt-secret"
	defaultTokenPepper    = "change-me-token-pepper"
	defaultUploadsDir     = "./uploads"
	defaultStaticURLBase  = "/static/uploads"
	defaultPublicBaseURL  = "http://localhost:3000"
	defaultGeolocationURL = "https://ipapi.co"
	defaultGeocodingURL   = "https://nominatim.openstreetmap.org/search"
	defaultOutboundTO     = "5s"
	defaultNATSPrefix     = "workspots.changes"
	defaultSubmitRate     = "5"
	defaultAPIRate        = "120"
)

type Config struct {
	AppEnv   string
	HTTPAddr string
	LogLevel string

	DatabaseURL string

	JWTSecret      string
	JWTAccessTTL   time.Duration
	RefreshTTL     time.Duration
	ActionTokenTTL time.Duration
	TokenPepper    string
	CookieSecure   bool
	CookieSameSite string
	CookiePath     string

	UploadsDir    string
	StaticURLBase string
	PublicBaseURL string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	NATSURL           string
	NATSSubjectPrefix string

	GeolocationURL  string
	GeocodingURL    string
	OutboundTimeout time.Duration

	SubmitRatePerMinute int
	APIRatePerMinute    int

	CORSAllowedOrigins []string
}

// GoogleEnabled reports whether federated sign-in is configured.
func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != ""
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("could not read .env file", "err", err)
	}

	cfg := &Config{}
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = strings.TrimSpace(os.Getenv("ENV"))
	}
	if appEnv == "" {
		appEnv = "dev"
	}
	cfg.AppEnv = strings.ToLower(appEnv)

	cfg.HTTPAddr = strings.TrimSpace(getEnv("HTTP_ADDR", defaultHTTPAddr))
	cfg.LogLevel = strings.TrimSpace(getEnv("LOG_LEVEL", "info"))
	cfg.DatabaseURL = strings.TrimSpace(getEnv("DATABASE_URL", defaultDatabaseURL))

	cfg.JWTSecret = strings.TrimSpace(getEnv("JWT_SECRET", defaultJWTSecret))
	cfg.TokenPepper = strings.TrimSpace(getEnv("TOKEN_PEPPER", defaultTokenPepper))
	cfg.CookieSecure = parseBoolEnv("COOKIE_SECURE", defaultCookieSecure)
	cfg.CookieSameSite = strings.TrimSpace(getEnv("COOKIE_SAMESITE", defaultCookieSameSite))
	cfg.CookiePath = strings.TrimSpace(getEnv("COOKIE_PATH", defaultCookiePath))

	var err error
	if cfg.JWTAccessTTL, err = parseDurationEnv("JWT_ACCESS_TTL", defaultJWTAccessTTL); err != nil {
		return nil, err
	}
	if cfg.RefreshTTL, err = parseDurationEnv("REFRESH_TTL", defaultRefreshTTL); err != nil {
		return nil, err
	}
	if cfg.ActionTokenTTL, err = parseDurationEnv("ACTION_TOKEN_TTL", defaultActionTokenTTL); err != nil {
		return nil, err
	}
	if cfg.OutboundTimeout, err = parseDurationEnv("OUTBOUND_TIMEOUT", defaultOutboundTO); err != nil {
		return nil, err
	}

	cfg.UploadsDir = strings.TrimSpace(getEnv("UPLOADS_DIR", defaultUploadsDir))
	cfg.StaticURLBase = strings.TrimRight(strings.TrimSpace(getEnv("STATIC_URL_BASE", defaultStaticURLBase)), "/")
	cfg.PublicBaseURL = strings.TrimRight(strings.TrimSpace(getEnv("PUBLIC_BASE_URL", defaultPublicBaseURL)), "/")

	cfg.GoogleClientID = strings.TrimSpace(os.Getenv("GOOGLE_CLIENT_ID"))
	cfg.GoogleClientSecret = strings.TrimSpace(os.Getenv("GOOGLE_CLIENT_SECRET"))
	cfg.GoogleRedirectURL = strings.TrimSpace(os.Getenv("GOOGLE_REDIRECT_URL"))

	cfg.NATSURL = strings.TrimSpace(os.Getenv("NATS_URL"))
	cfg.NATSSubjectPrefix = strings.TrimSpace(getEnv("NATS_SUBJECT_PREFIX", defaultNATSPrefix))

	cfg.GeolocationURL = strings.TrimRight(strings.TrimSpace(getEnv("GEOLOCATION_URL", defaultGeolocationURL)), "/")
	cfg.GeocodingURL = strings.TrimSpace(getEnv("GEOCODING_URL", defaultGeocodingURL))

	if cfg.SubmitRatePerMinute, err = parseIntEnv("SUBMIT_RATE_PER_MINUTE", defaultSubmitRate); err != nil {
		return nil, err
	}
	if cfg.APIRatePerMinute, err = parseIntEnv("API_RATE_PER_MINUTE", defaultAPIRate); err != nil {
		return nil, err
	}

	cfg.CORSAllowedOrigins = splitList(os.Getenv("CORS_ALLOWED_ORIGINS"))

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	slog.Info("config loaded",
		"env", cfg.AppEnv,
		"addr", cfg.HTTPAddr,
		"google", cfg.GoogleEnabled(),
		"nats", cfg.NATSURL != "",
		"cookie_secure", cfg.CookieSecure,
	)

	return cfg, nil
}

func validateConfig(cfg *Config) error {
	if cfg.JWTAccessTTL <= 0 {
		return fmt.Errorf("JWT_ACCESS_TTL must be > 0")
	}
	if cfg.RefreshTTL <= 0 {
		return fmt.Errorf("REFRESH_TTL must be > 0")
	}
	if cfg.ActionTokenTTL <= 0 {
		return fmt.Errorf("ACTION_TOKEN_TTL must be > 0")
	}
	if cfg.OutboundTimeout <= 0 {
		return fmt.Errorf("OUTBOUND_TIMEOUT must be > 0")
	}
	if cfg.SubmitRatePerMinute <= 0 || cfg.APIRatePerMinute <= 0 {
		return fmt.Errorf("rate limits must be > 0")
	}
	if cfg.CookiePath == "" {
		return fmt.Errorf("COOKIE_PATH must not be empty")
	}
	sameSite := strings.ToLower(cfg.CookieSameSite)
	if sameSite != "lax" && sameSite != "none" && sameSite != "strict" {
		return fmt.Errorf("COOKIE_SAMESITE must be one of: Lax, None, Strict")
	}
	if sameSite == "none" && !cfg.CookieSecure {
		return fmt.Errorf("COOKIE_SECURE must be true when COOKIE_SAMESITE=None")
	}
	if cfg.GoogleClientID != "" && (cfg.GoogleClientSecret == "" || cfg.GoogleRedirectURL == "") {
		return fmt.Errorf("GOOGLE_CLIENT_SECRET and GOOGLE_REDIRECT_URL are required with GOOGLE_CLIENT_ID")
	}

	if isProdLike(cfg.AppEnv) {
		if isEmptyOrDefault(cfg.JWTSecret, defaultJWTSecret) {
			return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
		}
		if isEmptyOrDefault(cfg.TokenPepper, defaultTokenPepper) {
			return fmt.Errorf("in prod/release TOKEN_PEPPER must be set and not default")
		}
		if !cfg.CookieSecure {
			return fmt.Errorf("in prod/release COOKIE_SECURE must be true")
		}
	}

	return nil
}

func isProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}

func parseDurationEnv(name, fallback string) (time.Duration, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}

func parseIntEnv(name, fallback string) (int, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return n, nil
}

func parseBoolEnv(name, fallback string) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(name, fallback)))
	return value == "1" || value == "true" || value == "yes" || value == "on"
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

// splitList parses "a, b,,c" into [a b c].
func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
