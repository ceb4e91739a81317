/**
 * @description
 * Configuration loader for the PriceWatch backend.
 * Responsible for reading environment variables, setting defaults, and performing strict validation.
 *
 * @dependencies
 * - github.com/joho/godotenv: For loading .env files
 * - standard "os": For reading env vars
 * - standard "fmt": For error reporting
 *
 * @notes
 * - Fails fast if critical variables (Database URL, cron secret) are missing.
 * - Scraper retry policy is configurable: fixed delay (default) or exponential backoff.
 */

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Renderer backends for the extractor.
const (
	RendererBrowser = "browser"
	RendererAPI     = "api"
)

// Backoff strategies for the extractor retry policy.
const (
	BackoffFixed       = "fixed"
	BackoffExponential = "exponential"
)

// Config holds all configuration for the application
type Config struct {
	Server  ServerConfig
	DB      DBConfig
	Redis   RedisConfig
	Scraper ScraperConfig
	Refresh RefreshConfig
	SMTP    SMTPConfig
	Cron    CronConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port string
	Env  string // "development" or "production"
}

// DBConfig holds PostgreSQL settings
type DBConfig struct {
	URL string
}

// RedisConfig holds Redis settings
type RedisConfig struct {
	URL string
}

// ScraperConfig holds extraction settings for the Amazon product scraper
type ScraperConfig struct {
	Renderer          string        // "browser" (chromedp) or "api" (rendering API)
	MaxAttempts       int           // attempts per product before giving up
	RetryDelay        time.Duration // base delay between attempts
	Backoff           string        // "fixed" or "exponential"
	NavigationTimeout time.Duration // hard cap on page load
	ElementTimeout    time.Duration // wait budget for the title element
	ScrapingAntURL    string        // rendering API endpoint (api renderer only)
	ScrapingAntKey    string        // rendering API key (api renderer only)
}

// RefreshConfig holds batch refresh settings
type RefreshConfig struct {
	Concurrency int           // max extractions in flight at once
	TaskTimeout time.Duration // deadline per product refresh
}

// SMTPConfig holds email alert transport settings
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// CronConfig holds settings for the token-authenticated refresh trigger
type CronConfig struct {
	Secret string
}

// Load reads .env file and populates the Config struct
func Load() (*Config, error) {
	// Attempt to load .env, but don't crash if it fails (prod might inject env vars directly)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Env:  getEnv("GO_ENV", "development"),
		},
		DB: DBConfig{
			URL: getEnv("DATABASE_URL", ""),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Scraper: ScraperConfig{
			Renderer:          getEnv("SCRAPER_RENDERER", RendererBrowser),
			MaxAttempts:       getEnvAsInt("SCRAPER_MAX_ATTEMPTS", 3),
			RetryDelay:        getEnvAsDuration("SCRAPER_RETRY_DELAY", 2*time.Second),
			Backoff:           getEnv("SCRAPER_BACKOFF", BackoffFixed),
			NavigationTimeout: getEnvAsDuration("SCRAPER_NAV_TIMEOUT", 60*time.Second),
			ElementTimeout:    getEnvAsDuration("SCRAPER_ELEMENT_TIMEOUT", 10*time.Second),
			ScrapingAntURL:    getEnv("SCRAPINGANT_URL", "https://api.scrapingant.com/v2/general"),
			ScrapingAntKey:    sanitizeCredential(getEnv("SCRAPINGANT_API_KEY", "")),
		},
		Refresh: RefreshConfig{
			Concurrency: getEnvAsInt("REFRESH_CONCURRENCY", 3),
			TaskTimeout: getEnvAsDuration("REFRESH_TASK_TIMEOUT", 5*time.Minute),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_SERVER", ""),
			Port:     getEnvAsInt("SMTP_PORT", 587),
			Username: sanitizeCredential(getEnv("EMAIL_ID", "")),
			Password: sanitizeCredential(getEnv("EMAIL_PASSWORD", "")),
			From:     getEnv("EMAIL_FROM", getEnv("EMAIL_ID", "")),
		},
		Cron: CronConfig{
			Secret: sanitizeCredential(getEnv("CRON_SECRET", "")),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate checks for required variables
func validate(cfg *Config) error {
	if cfg.DB.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.Cron.Secret == "" {
		return fmt.Errorf("CRON_SECRET is required")
	}
	if cfg.Scraper.Renderer != RendererBrowser && cfg.Scraper.Renderer != RendererAPI {
		return fmt.Errorf("SCRAPER_RENDERER must be %q or %q, got %q", RendererBrowser, RendererAPI, cfg.Scraper.Renderer)
	}
	if cfg.Scraper.Renderer == RendererAPI && cfg.Scraper.ScrapingAntKey == "" {
		return fmt.Errorf("SCRAPINGANT_API_KEY is required when SCRAPER_RENDERER=%s", RendererAPI)
	}
	if cfg.Scraper.Backoff != BackoffFixed && cfg.Scraper.Backoff != BackoffExponential {
		return fmt.Errorf("SCRAPER_BACKOFF must be %q or %q, got %q", BackoffFixed, BackoffExponential, cfg.Scraper.Backoff)
	}
	if cfg.Scraper.MaxAttempts < 1 {
		return fmt.Errorf("SCRAPER_MAX_ATTEMPTS must be at least 1")
	}
	if cfg.Refresh.Concurrency < 1 {
		return fmt.Errorf("REFRESH_CONCURRENCY must be at least 1")
	}
	if cfg.SMTP.Host == "" && cfg.Server.Env != "test" {
		// Warning: alerts will be skipped without a mail transport
		fmt.Println("Warning: SMTP_SERVER is missing. Price drop emails will fail.")
	}
	return nil
}

// Helper to get env var with default
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func sanitizeCredential(value string) string {
	trimmed := strings.TrimSpace(value)
	return strings.Trim(trimmed, "\"")
}

// Helper to get env var as int
func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

// Helper to get env var as duration; accepts Go duration strings ("30s") or plain seconds ("30")
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	if secs, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
