package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.AppName != "clearfund" {
		t.Errorf("AppName = %q, want clearfund", cfg.AppName)
	}
	if got := cfg.Address(); got != "0.0.0.0:8080" {
		t.Errorf("Address() = %q, want 0.0.0.0:8080", got)
	}
	if !cfg.HTTP.EnableMetrics {
		t.Error("EnableMetrics default = false, want true")
	}
	if cfg.Journal.Path != "./data/journal.db" {
		t.Errorf("Journal.Path = %q", cfg.Journal.Path)
	}
	if cfg.Journal.FlushInterval != 15*time.Second {
		t.Errorf("Journal.FlushInterval = %v, want 15s", cfg.Journal.FlushInterval)
	}
	if cfg.Transfer.Mode != "noop" {
		t.Errorf("Transfer.Mode = %q, want noop", cfg.Transfer.Mode)
	}
	if cfg.Database.URL == "" {
		t.Error("Database.URL was not derived from components")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9001")
	t.Setenv("JOURNAL_BATCH_SIZE", "250")
	t.Setenv("JOURNAL_FLUSH_INTERVAL", "5s")
	t.Setenv("REQUEST_TIMEOUT_SECONDS", "30")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/ledger?sslmode=require")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.HTTP.Port != "9001" {
		t.Errorf("Port = %q, want 9001", cfg.HTTP.Port)
	}
	if cfg.Journal.BatchSize != 250 {
		t.Errorf("BatchSize = %d, want 250", cfg.Journal.BatchSize)
	}
	if cfg.Journal.FlushInterval != 5*time.Second {
		t.Errorf("FlushInterval = %v, want 5s", cfg.Journal.FlushInterval)
	}
	// bare integers are treated as seconds
	if cfg.Context.RequestTimeout != 30*time.Second {
		t.Errorf("RequestTimeout = %v, want 30s", cfg.Context.RequestTimeout)
	}
	if cfg.Database.URL != "postgres://u:p@db:5432/ledger?sslmode=require" {
		t.Errorf("Database.URL = %q", cfg.Database.URL)
	}
}

func TestLoadRejectsHTTPTransferWithoutEndpoint(t *testing.T) {
	t.Setenv("TRANSFER_MODE", "http")
	t.Setenv("TRANSFER_ENDPOINT", "")

	if _, err := Load(); err == nil {
		t.Fatal("Load accepted TRANSFER_MODE=http without an endpoint")
	}

	t.Setenv("TRANSFER_ENDPOINT", "https://disburse.internal/orders")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Transfer.Endpoint == "" {
		t.Error("Transfer.Endpoint not picked up")
	}
}
