package cfg

import (
	"testing"
)

func TestGetVersion(t *testing.T) {
	if GetVersion() == "" {
		t.Error("GetVersion should never return empty string")
	}
}

func TestConfigFields(t *testing.T) {
	cfg := &Cfg{
		DBPath:            "./test.db",
		BatchSize:         50,
		FetchWorkers:      8,
		ParseWorkers:      4,
		FetchTimeout:      10,
		RefreshInterval:   3600,
		Port:              "8080",
		BaseUrl:           "https://posts.example.com",
		SchedulerInterval: 300,
		APIAccessKey:      "test-key",
		UserAgent:         "Test Agent",
		Timezone:          "UTC",
		Debug:             true,
		Version:           "test-version",
	}

	if cfg.DBPath != "./test.db" {
		t.Errorf("Expected DB path './test.db', got '%s'", cfg.DBPath)
	}
	if cfg.BatchSize != 50 {
		t.Errorf("Expected batch size 50, got %d", cfg.BatchSize)
	}
	if cfg.FetchWorkers != 8 {
		t.Errorf("Expected fetch workers 8, got %d", cfg.FetchWorkers)
	}
	if cfg.ParseWorkers != 4 {
		t.Errorf("Expected parse workers 4, got %d", cfg.ParseWorkers)
	}
	if cfg.FetchTimeout != 10 {
		t.Errorf("Expected fetch timeout 10, got %d", cfg.FetchTimeout)
	}
	if cfg.Port != "8080" {
		t.Errorf("Expected port '8080', got '%s'", cfg.Port)
	}
	if cfg.BaseUrl != "https://posts.example.com" {
		t.Errorf("Expected base URL 'https://posts.example.com', got '%s'", cfg.BaseUrl)
	}
	if cfg.APIAccessKey != "test-key" {
		t.Errorf("Expected API key 'test-key', got '%s'", cfg.APIAccessKey)
	}
	if cfg.Version != "test-version" {
		t.Errorf("Expected version 'test-version', got '%s'", cfg.Version)
	}
}
