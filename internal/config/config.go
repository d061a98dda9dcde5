package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv            string
	Addr              string
	DbDriver          string
	DbDsn             string
	JwtSecret         string
	JwtAccessMinutes  int
	AdminPasswordHash string
	AdminEmail        string
	TimezoneName      string
	AllowedOriginsRaw string
	GeocoderURL       string
	GeocoderUserAgent string
	GeocoderTimeout   int
	SmtpHost          string
	SmtpPort          int
	SmtpUser          string
	SmtpPass          string
	SmtpFrom          string
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		AppEnv:            getEnv("APP_ENV", "local"),
		Addr:              getEnv("APP_ADDR", ":8080"),
		DbDriver:          strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
		DbDsn:             os.Getenv("DB_DSN"),
		JwtSecret:         os.Getenv("JWT_SECRET"),
		JwtAccessMinutes:  getEnvInt("JWT_ACCESS_MINUTES", 720),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
		AdminEmail:        getEnv("ADMIN_EMAIL", "admin@erosecurity.com"),
		TimezoneName:      getEnv("TIMEZONE", "Local"),
		AllowedOriginsRaw: getEnv("ALLOWED_ORIGINS", ""),
		GeocoderURL:       os.Getenv("GEOCODER_URL"),
		GeocoderUserAgent: getEnv("GEOCODER_USER_AGENT", "guards-schedule-app"),
		GeocoderTimeout:   getEnvInt("GEOCODER_TIMEOUT_SECONDS", 5),
		SmtpHost:          os.Getenv("SMTP_HOST"),
		SmtpPort:          getEnvInt("SMTP_PORT", 587),
		SmtpUser:          os.Getenv("SMTP_USER"),
		SmtpPass:          os.Getenv("SMTP_PASS"),
		SmtpFrom:          os.Getenv("SMTP_FROM"),
	}

	if cfg.DbDriver == "sqlite" && cfg.DbDsn == "" {
		cfg.DbDsn = "guards.db"
	}

	missing := []string{}
	switch cfg.DbDriver {
	case "sqlite", "mysql", "postgres":
	default:
		return cfg, errors.New("unsupported DB_DRIVER: " + cfg.DbDriver)
	}
	if cfg.DbDsn == "" {
		missing = append(missing, "DB_DSN")
	}
	if _, err := time.LoadLocation(cfg.TimezoneName); err != nil {
		return cfg, errors.New("invalid TIMEZONE: " + cfg.TimezoneName)
	}

	if len(missing) > 0 {
		return cfg, errors.New("missing env: " + strings.Join(missing, ", "))
	}

	return cfg, nil
}

// RequireServer reports the keys the HTTP server cannot start without.
func (c Config) RequireServer() error {
	missing := []string{}
	if c.JwtSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if c.AdminPasswordHash == "" {
		missing = append(missing, "ADMIN_PASSWORD_HASH")
	}
	if len(missing) > 0 {
		return errors.New("missing env: " + strings.Join(missing, ", "))
	}
	return nil
}

// Release reports whether APP_ENV names a release deployment. "production"
// is accepted as an alias.
func (c Config) Release() bool {
	switch strings.ToLower(c.AppEnv) {
	case "release", "production":
		return true
	}
	return false
}

func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimezoneName)
	if err != nil {
		return time.Local
	}
	return loc
}

func (c Config) SmtpEnabled() bool {
	return c.SmtpHost != "" && c.SmtpFrom != ""
}

func (c Config) GeocoderTimeoutDuration() time.Duration {
	return time.Duration(c.GeocoderTimeout) * time.Second
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
