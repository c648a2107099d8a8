package config

import (
	"testing"
	"time"

	"offer-harvester/models"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATA_DIR", "")
	t.Setenv("OUTPUT_FORMAT", "")
	t.Setenv("HEADLESS", "")
	t.Setenv("PAGE_TIMEOUT_SEC", "")
	t.Setenv("CLICKBANK_MAX_ROWS", "")
	t.Setenv("TRENDS_AUX_URLS", "")

	cfg := Load()

	if cfg.DataDir != "data" {
		t.Errorf("DataDir: got %q, want data", cfg.DataDir)
	}
	if cfg.OutputFormat != "csv" {
		t.Errorf("OutputFormat: got %q, want csv", cfg.OutputFormat)
	}
	if !cfg.Headless {
		t.Error("Headless should default to true")
	}
	if cfg.PageTimeout != 15*time.Second {
		t.Errorf("PageTimeout: got %v", cfg.PageTimeout)
	}
	if cfg.ClickBankMaxRows != 20 {
		t.Errorf("ClickBankMaxRows: got %d, want 20", cfg.ClickBankMaxRows)
	}
	if len(cfg.TrendsAuxURLs) != 2 {
		t.Errorf("TrendsAuxURLs: got %v", cfg.TrendsAuxURLs)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("OUTPUT_FORMAT", "XLSX")
	t.Setenv("HEADLESS", "false")
	t.Setenv("ADAPTER_DELAY_MS", "250")
	t.Setenv("TRENDS_AUX_URLS", " https://a.example/top , ,https://a.example/new")
	t.Setenv("TEXTGEN_TEMPERATURE", "0.2")

	cfg := Load()

	if cfg.OutputFormat != "xlsx" {
		t.Errorf("OutputFormat: got %q, want xlsx", cfg.OutputFormat)
	}
	if cfg.Headless {
		t.Error("Headless should be false")
	}
	if cfg.AdapterDelay != 250*time.Millisecond {
		t.Errorf("AdapterDelay: got %v", cfg.AdapterDelay)
	}
	want := []string{"https://a.example/top", "https://a.example/new"}
	if len(cfg.TrendsAuxURLs) != 2 || cfg.TrendsAuxURLs[0] != want[0] || cfg.TrendsAuxURLs[1] != want[1] {
		t.Errorf("TrendsAuxURLs: got %v, want %v", cfg.TrendsAuxURLs, want)
	}
	if cfg.TextgenTemperature != 0.2 {
		t.Errorf("TextgenTemperature: got %v", cfg.TextgenTemperature)
	}
}

func TestLoadInvalidNumberFallsBack(t *testing.T) {
	t.Setenv("MAX_RETRIES", "lots")
	t.Setenv("CONCURRENT_ADAPTERS", "maybe")

	cfg := Load()
	if cfg.MaxRetries != 2 {
		t.Errorf("MaxRetries: got %d, want 2", cfg.MaxRetries)
	}
	if cfg.ConcurrentAdapters {
		t.Error("ConcurrentAdapters should fall back to false")
	}
}

func TestCredentials(t *testing.T) {
	t.Setenv("HOTMART_EMAIL", "me@example.com")
	t.Setenv("HOTMART_PASSWORD", "secret")

	creds := Load().Credentials()
	if !creds[models.SourceHotmart].Present() {
		t.Error("Hotmart credentials should be present")
	}
	if _, ok := creds[models.SourceClickBank]; ok {
		t.Error("ClickBank is public and takes no credentials")
	}
}

func TestDSN(t *testing.T) {
	cfg := &Config{PostgresHost: "db", PostgresPort: "5433", PostgresUser: "u", PostgresPassword: "p", PostgresDB: "offers", PostgresSSLMode: "disable"}
	want := "host=db port=5433 user=u password=p dbname=offers sslmode=disable"
	if got := cfg.DSN(); got != want {
		t.Errorf("DSN: got %q, want %q", got, want)
	}
}
