package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Server.Addr != ":8080" {
		t.Errorf("expected default server addr :8080, got %s", cfg.Server.Addr)
	}
	if cfg.Ingest.Workers != 4 {
		t.Errorf("expected default workers 4, got %d", cfg.Ingest.Workers)
	}
	if cfg.Trend.MaxRecords != 100000 {
		t.Errorf("expected default max records 100000, got %d", cfg.Trend.MaxRecords)
	}
	if cfg.Trend.MovingAverageWindow != 7 {
		t.Errorf("expected default moving average window 7, got %d", cfg.Trend.MovingAverageWindow)
	}
	if cfg.NATS.URL != "" {
		t.Errorf("expected persistence disabled by default, got NATS URL %s", cfg.NATS.URL)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "missing server addr",
			modify:  func(c *Config) { c.Server.Addr = "" },
			wantErr: true,
		},
		{
			name:    "zero workers",
			modify:  func(c *Config) { c.Ingest.Workers = 0 },
			wantErr: true,
		},
		{
			name:    "negative max records",
			modify:  func(c *Config) { c.Trend.MaxRecords = -1 },
			wantErr: true,
		},
		{
			name:    "window too small",
			modify:  func(c *Config) { c.Trend.MovingAverageWindow = 1 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	// Create temp file with config
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `
server:
  addr: ":9090"
nats:
  url: "nats://test:4222"
ingest:
  workers: 8
trend:
  max_records: 50000
  moving_average_window: 14
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if cfg.Server.Addr != ":9090" {
		t.Errorf("expected server addr :9090, got %s", cfg.Server.Addr)
	}
	if cfg.NATS.URL != "nats://test:4222" {
		t.Errorf("expected NATS URL nats://test:4222, got %s", cfg.NATS.URL)
	}
	if cfg.Ingest.Workers != 8 {
		t.Errorf("expected 8 workers, got %d", cfg.Ingest.Workers)
	}
	if cfg.Trend.MaxRecords != 50000 {
		t.Errorf("expected max records 50000, got %d", cfg.Trend.MaxRecords)
	}
	if cfg.Trend.MovingAverageWindow != 14 {
		t.Errorf("expected moving average window 14, got %d", cfg.Trend.MovingAverageWindow)
	}
}

func TestConfigMerge(t *testing.T) {
	base := DefaultConfig()
	override := &Config{
		Server: ServerConfig{
			Addr: ":7070",
		},
		Ingest: IngestConfig{
			Workers: 16,
		},
	}

	base.Merge(override)

	if base.Server.Addr != ":7070" {
		t.Errorf("expected server addr :7070, got %s", base.Server.Addr)
	}
	if base.Ingest.Workers != 16 {
		t.Errorf("expected 16 workers, got %d", base.Ingest.Workers)
	}
	// Trend settings should remain from base since override didn't set them
	if base.Trend.MaxRecords != 100000 {
		t.Errorf("expected max records to remain default, got %d", base.Trend.MaxRecords)
	}
}

func TestConfigSaveToFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "subdir", "config.yaml")

	cfg := DefaultConfig()
	cfg.Server.Addr = ":6060"

	if err := cfg.SaveToFile(configPath); err != nil {
		t.Fatalf("SaveToFile() error = %v", err)
	}

	// Verify file was created
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Error("config file was not created")
	}

	// Load and verify
	loaded, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("failed to load saved config: %v", err)
	}
	if loaded.Server.Addr != ":6060" {
		t.Errorf("expected server addr :6060, got %s", loaded.Server.Addr)
	}
}
