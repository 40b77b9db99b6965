package cs4teachers

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// SiteConfig holds all configuration for a cs4teachers site.
type SiteConfig struct {
	Name        string // Site name (default "CS4Teachers")
	URL         string // Canonical URL (default "http://localhost:3000")
	Description string // Site description for RSS and meta tags

	Addr         string // Listen address (default ":3000")
	DatabasePath string // SQLite path (default "data/cs4teachers.db")
	UploadDir    string // Root for uploaded media, served under /media (default "media")
	TimeZone     string // IANA zone used to decide "today" (default "Pacific/Auckland")

	AdminPassword string // Required: admin login password
	SessionSecret string // Required: session encryption secret
	CookieSecure  bool   // Set true for HTTPS

	MapsAPIKey string        // Google Maps key for the address widget and location maps
	CacheTTL   time.Duration // Public content cache TTL (default 5min)

	Logging LoggingConfig
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "CS4Teachers"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/cs4teachers.db"
	}
	if c.UploadDir == "" {
		c.UploadDir = "media"
	}
	if c.TimeZone == "" {
		c.TimeZone = "Pacific/Auckland"
	}
	if c.CacheTTL == 0 {
		c.CacheTTL = 5 * time.Minute
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
}

// Validate checks the settings Start cannot run without.
func (c SiteConfig) Validate() error {
	if c.AdminPassword == "" {
		return errors.New("cs4teachers: AdminPassword is required")
	}
	if c.SessionSecret == "" {
		return errors.New("cs4teachers: SessionSecret is required")
	}
	_, err := c.Location()
	return err
}

// Location resolves the configured time zone.
func (c SiteConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("cs4teachers: time zone %q: %w", c.TimeZone, err)
	}
	return loc, nil
}

// LoadConfig builds a SiteConfig from environment variables, first loading
// a .env file from the working directory when one exists.
func LoadConfig() (SiteConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return SiteConfig{}, fmt.Errorf("load .env: %w", err)
	}
	ttl, err := envDuration("CACHE_TTL", 0)
	if err != nil {
		return SiteConfig{}, err
	}
	cfg := SiteConfig{
		Name:          os.Getenv("SITE_NAME"),
		URL:           strings.TrimRight(os.Getenv("SITE_URL"), "/"),
		Description:   os.Getenv("SITE_DESCRIPTION"),
		Addr:          os.Getenv("ADDR"),
		DatabasePath:  os.Getenv("DATABASE_PATH"),
		UploadDir:     os.Getenv("UPLOAD_DIR"),
		TimeZone:      os.Getenv("TIME_ZONE"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		SessionSecret: os.Getenv("ADMIN_SESSION_SECRET"),
		CookieSecure:  envBool("COOKIE_SECURE"),
		MapsAPIKey:    os.Getenv("GOOGLE_MAPS_API_KEY"),
		CacheTTL:      ttl,
		Logging: LoggingConfig{
			Level:  os.Getenv("LOG_LEVEL"),
			Format: os.Getenv("LOG_FORMAT"),
		},
	}
	cfg.setDefaults()
	return cfg, nil
}

func envBool(key string) bool {
	v, _ := strconv.ParseBool(os.Getenv(key))
	return v
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App before the server starts.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir sets the directory for static assets (default "public").
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.staticDir = dir
	}
}

// WithAdminSite replaces the default admin configuration.
func WithAdminSite(site *AdminSite) Option {
	return func(a *App) {
		a.Admin = site
	}
}

// WithLogger replaces the logger built from SiteConfig.Logging.
func WithLogger(l zerolog.Logger) Option {
	return func(a *App) {
		a.Logger = l
		a.loggerSet = true
	}
}

// WithClock sets the source of the current time. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(a *App) {
		a.now = now
	}
}
