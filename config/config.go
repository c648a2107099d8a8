package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"offer-harvester/models"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	DataDir      string
	OutputFormat string

	Headless           bool
	ChromeBin          string
	PageTimeout        time.Duration
	AdapterDelay       time.Duration
	MaxRetries         int
	ConcurrentAdapters bool

	ClickBankURL     string
	ClickBankMaxRows int

	HotmartLoginURL    string
	HotmartListingURLs []string
	HotmartMaxCards    int

	TrendsURL     string
	TrendsAuxURLs []string
	TrendsMaxRows int

	SelectorsConfigPath string

	HotmartEmail    string
	HotmartPassword string

	PostgresEnabled  bool
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	MetricsTextfile string

	TextgenProvider    string
	TextgenModel       string
	TextgenTemperature float64
	OpenAIKey          string
	GoogleAPIKey       string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		DataDir:      getEnv("DATA_DIR", "data"),
		OutputFormat: strings.ToLower(getEnv("OUTPUT_FORMAT", "csv")),

		Headless:           getEnvBool("HEADLESS", true),
		ChromeBin:          getEnv("CHROME_BIN", ""),
		PageTimeout:        time.Duration(getEnvInt("PAGE_TIMEOUT_SEC", 15)) * time.Second,
		AdapterDelay:       time.Duration(getEnvInt("ADAPTER_DELAY_MS", 2000)) * time.Millisecond,
		MaxRetries:         getEnvInt("MAX_RETRIES", 2),
		ConcurrentAdapters: getEnvBool("CONCURRENT_ADAPTERS", false),

		ClickBankURL:     getEnv("CLICKBANK_URL", "https://www.clickbank.com/marketplace/"),
		ClickBankMaxRows: getEnvInt("CLICKBANK_MAX_ROWS", 20),

		HotmartLoginURL: getEnv("HOTMART_LOGIN_URL", "https://sso.hotmart.com/login"),
		HotmartListingURLs: getEnvList("HOTMART_LISTING_URLS", []string{
			"https://app.hotmart.com/tools/affiliates",
			"https://app.hotmart.com/marketplace",
		}),
		HotmartMaxCards: getEnvInt("HOTMART_MAX_CARDS", 10),

		TrendsURL: getEnv("TRENDS_URL", "https://cbengine.com/"),
		TrendsAuxURLs: getEnvList("TRENDS_AUX_URLS", []string{
			"https://cbengine.com/top-gravity",
			"https://cbengine.com/new-products",
		}),
		TrendsMaxRows: getEnvInt("TRENDS_MAX_ROWS", 30),

		SelectorsConfigPath: getEnv("SELECTORS_CONFIG_PATH", ""),

		HotmartEmail:    getEnv("HOTMART_EMAIL", ""),
		HotmartPassword: getEnv("HOTMART_PASSWORD", ""),

		PostgresEnabled:  getEnvBool("POSTGRES_ENABLED", false),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "harvester"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", ""),
		PostgresDB:       getEnv("POSTGRES_DB", "offers"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		MetricsTextfile: getEnv("METRICS_TEXTFILE", ""),

		TextgenProvider:    strings.ToLower(getEnv("TEXTGEN_PROVIDER", "openai")),
		TextgenModel:       getEnv("TEXTGEN_MODEL", ""),
		TextgenTemperature: getEnvFloat("TEXTGEN_TEMPERATURE", 0.7),
		OpenAIKey:          getEnv("OPENAI_API_KEY", ""),
		GoogleAPIKey:       getEnv("GOOGLE_API_KEY", ""),
	}
}

// Credentials returns the per-source login pairs. Only Hotmart needs one;
// without it Hotmart runs in placeholder mode.
func (c *Config) Credentials() map[models.Source]models.Credentials {
	return map[models.Source]models.Credentials{
		models.SourceHotmart: {Key: c.HotmartEmail, Secret: c.HotmartPassword},
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

// getEnvList splits a comma-separated value, dropping empty items.
func getEnvList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(val, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
