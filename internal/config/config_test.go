package config

import (
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("API_KEY", "secret")
	t.Setenv("GEMINI_API_KEY", "gk")
	t.Setenv("NOTION_API_TOKEN", "nt")
	t.Setenv("NOTION_DATABASE_ID", "db")
	t.Setenv("NOTION_TXN_DATABASE_ID", "txn-db")
	t.Setenv("BQ_PROJECT_ID", "proj")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Server.Addr() != ":8080" {
		t.Errorf("Addr() = %q", cfg.Server.Addr())
	}
	if cfg.Gemini.Model != "gemini-2.0-flash" {
		t.Errorf("Model = %q", cfg.Gemini.Model)
	}
	if cfg.Gemini.MaxIterations != 10 {
		t.Errorf("MaxIterations = %d, want 10", cfg.Gemini.MaxIterations)
	}
	if cfg.Gemini.CallTimeout != 60*time.Second {
		t.Errorf("CallTimeout = %v, want 60s", cfg.Gemini.CallTimeout)
	}
	if cfg.Store.DatasetID != "finance" {
		t.Errorf("DatasetID = %q", cfg.Store.DatasetID)
	}
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("AGENT_MAX_ITERATIONS", "5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("Port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Gemini.MaxIterations != 5 {
		t.Errorf("MaxIterations = %d, want 5", cfg.Gemini.MaxIterations)
	}
}
