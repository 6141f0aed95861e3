package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all application configuration
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Places      PlacesConfig
	Search      SearchConfig
	Geolocation GeolocationConfig
	OTEL        OTELConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string
	Port int
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// PlacesConfig holds configuration for the metered places API and its
// monthly budget enforcement
type PlacesConfig struct {
	Provider string
	APIKey   string
	Region   string

	// MonthlyCeilingUSD is the hard spend ceiling shared by all operations
	MonthlyCeilingUSD float64

	// Per-operation price per 1000 calls and monthly free-tier allowance
	TextSearchPricePer1000   float64
	TextSearchFreeCalls      int
	PlaceDetailsPricePer1000 float64
	PlaceDetailsFreeCalls    int

	// Per-operation cache freshness windows
	TextSearchTTLDays   int
	PlaceDetailsTTLDays int
}

// SearchConfig holds store search tuning parameters
type SearchConfig struct {
	DefaultRadiusMiles  float64
	ResultLimit         int
	SimilarityThreshold float64

	// SimilarityTieDelta is the similarity gap under which two fuzzy-search
	// rows are considered tied and ordered by distance instead
	SimilarityTieDelta float64

	TrendingWindowDays       int
	TrendingClickRadiusMiles float64
	TrendingDecayFloor       float64

	QueryCacheTTLMinutes int
}

// GeolocationConfig holds IP geolocation provider configuration
type GeolocationConfig struct {
	Provider        string
	Endpoint        string
	SessionTTLHours int
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	return &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "storefinder"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Places: PlacesConfig{
			Provider:                 getEnv("PLACES_PROVIDER", "mock"),
			APIKey:                   getEnv("PLACES_API_KEY", ""),
			Region:                   getEnv("PLACES_REGION", "us"),
			MonthlyCeilingUSD:        getEnvAsFloat("PLACES_MONTHLY_CEILING_USD", 200.0),
			TextSearchPricePer1000:   getEnvAsFloat("PLACES_TEXT_SEARCH_PRICE_PER_1000", 32.0),
			TextSearchFreeCalls:      getEnvAsInt("PLACES_TEXT_SEARCH_FREE_CALLS", 1000),
			PlaceDetailsPricePer1000: getEnvAsFloat("PLACES_DETAILS_PRICE_PER_1000", 17.0),
			PlaceDetailsFreeCalls:    getEnvAsInt("PLACES_DETAILS_FREE_CALLS", 1000),
			TextSearchTTLDays:        getEnvAsInt("PLACES_TEXT_SEARCH_TTL_DAYS", 7),
			PlaceDetailsTTLDays:      getEnvAsInt("PLACES_DETAILS_TTL_DAYS", 14),
		},
		Search: SearchConfig{
			DefaultRadiusMiles:       getEnvAsFloat("SEARCH_DEFAULT_RADIUS_MILES", 25.0),
			ResultLimit:              getEnvAsInt("SEARCH_RESULT_LIMIT", 60),
			SimilarityThreshold:      getEnvAsFloat("SEARCH_SIMILARITY_THRESHOLD", 0.3),
			SimilarityTieDelta:       getEnvAsFloat("SEARCH_SIMILARITY_TIE_DELTA", 0.1),
			TrendingWindowDays:       getEnvAsInt("SEARCH_TRENDING_WINDOW_DAYS", 30),
			TrendingClickRadiusMiles: getEnvAsFloat("SEARCH_TRENDING_CLICK_RADIUS_MILES", 25.0),
			TrendingDecayFloor:       getEnvAsFloat("SEARCH_TRENDING_DECAY_FLOOR", 0.1),
			QueryCacheTTLMinutes:     getEnvAsInt("SEARCH_QUERY_CACHE_TTL_MINUTES", 5),
		},
		Geolocation: GeolocationConfig{
			Provider:        getEnv("GEOLOCATION_PROVIDER", "mock"),
			Endpoint:        getEnv("GEOLOCATION_ENDPOINT", "http://ip-api.com/json"),
			SessionTTLHours: getEnvAsInt("GEOLOCATION_SESSION_TTL_HOURS", 12),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "storefinder"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
	}, nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
