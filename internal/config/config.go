package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string
	LogLevel    string

	Tax TaxConfig

	Avalara ProviderConfig
	TaxJar  ProviderConfig
	Vertex  ProviderConfig

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int
}

// TaxConfig controls tax calculation defaults.
type TaxConfig struct {
	// DefaultProvider is used when a calculation request does not name one.
	// Read once at startup; changing it affects subsequent processes only.
	DefaultProvider string
	// BusinessCountry is the seller country used for reverse-charge checks.
	BusinessCountry string
	BatchSize       int
	BatchDelay      time.Duration
}

// ProviderConfig holds connection settings for an external tax service.
type ProviderConfig struct {
	Enabled bool
	BaseURL string
	APIKey  string
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:     getenv("APP_SERVICE", "taxengine"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),
		LogLevel:    getenv("LOG_LEVEL", "info"),
		Tax: TaxConfig{
			DefaultProvider: strings.ToLower(getenv("TAX_DEFAULT_PROVIDER", "manual")),
			BusinessCountry: strings.ToUpper(getenv("TAX_BUSINESS_COUNTRY", "DE")),
			BatchSize:       getenvInt("TAX_BATCH_SIZE", 25),
			BatchDelay:      time.Duration(getenvInt("TAX_BATCH_DELAY_MS", 200)) * time.Millisecond,
		},
		Avalara: ProviderConfig{
			Enabled: getenvBool("AVALARA_ENABLED", false),
			BaseURL: getenv("AVALARA_BASE_URL", "https://rest.avatax.com/api/v2"),
			APIKey:  strings.TrimSpace(getenv("AVALARA_API_KEY", "")),
		},
		TaxJar: ProviderConfig{
			Enabled: getenvBool("TAXJAR_ENABLED", false),
			BaseURL: getenv("TAXJAR_BASE_URL", "https://api.taxjar.com/v2"),
			APIKey:  strings.TrimSpace(getenv("TAXJAR_API_KEY", "")),
		},
		Vertex: ProviderConfig{
			Enabled: getenvBool("VERTEX_ENABLED", false),
			BaseURL: getenv("VERTEX_BASE_URL", ""),
			APIKey:  strings.TrimSpace(getenv("VERTEX_API_KEY", "")),
		},
		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "postgres"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 2),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 10),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 3600),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 600),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}
