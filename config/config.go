package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string
	PostgresEnabled  bool

	ScanCategory string
	ScanSources  []string

	FetchTimeout   time.Duration
	RenderTimeout  time.Duration
	MaxRetries     int
	RatePerSecond  float64
	RateBurst      int
	MaxConcurrency int

	OpenAIKey         string
	OpenAIModel       string
	OpenAIBaseURL     string
	OpenAITemperature float64
	OpenAIMaxTokens   int

	AlertWebhookURL string

	CSVOutputPath string
	ChromeBin     string
	Headless      bool
	Debug         bool
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "artscan"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "artscan123"),
		PostgresDB:       getEnv("POSTGRES_DB", "artscan_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		PostgresEnabled:  getEnvBool("POSTGRES_ENABLED", false),

		ScanCategory: getEnv("SCAN_CATEGORY", "painting"),
		ScanSources:  getEnvList("SCAN_SOURCES", "catawiki,invaluable,bukowskis,liveauctioneers"),

		FetchTimeout:   time.Duration(getEnvInt("FETCH_TIMEOUT_MS", 15000)) * time.Millisecond,
		RenderTimeout:  time.Duration(getEnvInt("RENDER_TIMEOUT_MS", 30000)) * time.Millisecond,
		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		RatePerSecond:  getEnvFloat("RATE_PER_SECOND", 1.0),
		RateBurst:      getEnvInt("RATE_BURST", 2),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 4),

		OpenAIKey:         getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:     getEnv("OPENAI_BASE_URL", ""),
		OpenAITemperature: getEnvFloat("OPENAI_TEMPERATURE", 0.2),
		OpenAIMaxTokens:   getEnvInt("OPENAI_MAX_TOKENS", 2000),

		AlertWebhookURL: getEnv("ALERT_WEBHOOK_URL", ""),

		CSVOutputPath: getEnv("CSV_OUTPUT_PATH", "./output/raw_listings.csv"),
		ChromeBin:     getEnv("CHROME_BIN", ""),
		Headless:      getEnvBool("HEADLESS", true),
		Debug:         getEnvBool("DEBUG", false),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}

func getEnvList(key, fallback string) []string {
	raw := getEnv(key, fallback)
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
