package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/angeli-sliit/AirSense/internal/airquality"
)

// AppConfig is the immutable configuration constructed once at
// startup and passed to components explicitly.
type AppConfig struct {
	// APIKey guards every data endpoint via the X-API-KEY header.
	APIKey string

	// DefaultPlan applies when a request carries no X-PLAN header.
	DefaultPlan airquality.Plan

	// Tiers is the per-plan cap table.
	Tiers airquality.TierTable

	// AllowedOrigins feeds the CORS middleware.
	AllowedOrigins []string

	// Database connection.
	DBDriver string // "sqlite" or "mysql"
	DBDSN    string

	// HTTPTimeout bounds outbound provider calls.
	HTTPTimeout time.Duration

	// GeocoderAPIKey selects the Google geocoding backend when set;
	// otherwise the keyless Open-Meteo search is used.
	GeocoderAPIKey string

	// Background refresh of tracked cities; empty RefreshCities
	// disables the scheduler.
	RefreshCities   []string
	RefreshInterval time.Duration
	RefreshDays     int

	Port string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.APIKey = getenvDefault("API_KEY", "dev-key-123")
	cfg.DefaultPlan = airquality.ParsePlan(os.Getenv("DEFAULT_PLAN"), airquality.PlanFree)
	cfg.Tiers = airquality.DefaultTiers()

	cfg.AllowedOrigins = splitNonEmpty(getenvDefault("ALLOWED_ORIGINS", "http://localhost:5173"))

	cfg.DBDriver = getenvDefault("DB_DRIVER", "sqlite")
	cfg.DBDSN = getenvDefault("DB_DSN", "airsense.db")

	timeoutStr := getenvDefault("HTTP_TIMEOUT", "30s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = timeout

	cfg.GeocoderAPIKey = os.Getenv("GEOCODER_API_KEY")

	cfg.RefreshCities = splitNonEmpty(os.Getenv("REFRESH_CITIES"))

	intervalStr := getenvDefault("REFRESH_INTERVAL", "1h")
	interval, err := time.ParseDuration(intervalStr)
	if err != nil {
		return nil, fmt.Errorf("invalid REFRESH_INTERVAL: %w", err)
	}
	cfg.RefreshInterval = interval
	cfg.RefreshDays = getenvInt("REFRESH_DAYS", 2)

	cfg.Port = getenvDefault("PORT", "8080")

	return cfg, nil
}

func splitNonEmpty(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}
