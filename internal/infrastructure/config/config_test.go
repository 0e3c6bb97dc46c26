package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	configPath := writeConfig(t, `
home_assistant:
  url: "http://ha.local:8123"
  token: "test-token"
  request_timeout: 5s
cache:
  ttl: 10m
  capacity: 50
api:
  enabled: true
  host: "0.0.0.0"
  port: 8090
  jwt_secret: "test-secret-key-at-least-32-chars!"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.HomeAssistant.URL != "http://ha.local:8123" {
		t.Errorf("HomeAssistant.URL = %q, want %q", cfg.HomeAssistant.URL, "http://ha.local:8123")
	}
	if cfg.HomeAssistant.RequestTimeout != 5*time.Second {
		t.Errorf("HomeAssistant.RequestTimeout = %v, want 5s", cfg.HomeAssistant.RequestTimeout)
	}
	if cfg.Cache.TTL != 10*time.Minute {
		t.Errorf("Cache.TTL = %v, want 10m", cfg.Cache.TTL)
	}
	if cfg.Cache.Capacity != 50 {
		t.Errorf("Cache.Capacity = %d, want 50", cfg.Cache.Capacity)
	}
}

func TestLoad_DefaultsApplied(t *testing.T) {
	configPath := writeConfig(t, `
home_assistant:
  url: "http://ha.local:8123"
  token: "test-token"
api:
  enabled: false
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Suggest.MaxChoices != 25 {
		t.Errorf("Suggest.MaxChoices = %d, want default 25", cfg.Suggest.MaxChoices)
	}
	if cfg.Suggest.Tolerance != 0.2 {
		t.Errorf("Suggest.Tolerance = %v, want default 0.2", cfg.Suggest.Tolerance)
	}
	if cfg.Sessions.Capacity != 256 {
		t.Errorf("Sessions.Capacity = %d, want default 256", cfg.Sessions.Capacity)
	}
	if cfg.Cache.TTL != 15*time.Minute {
		t.Errorf("Cache.TTL = %v, want default 15m", cfg.Cache.TTL)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := writeConfig(t, "invalid: [yaml: content")

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "missing token",
			content: `
home_assistant:
  url: "http://ha.local:8123"
api:
  enabled: false
`,
		},
		{
			name: "api enabled without secret",
			content: `
home_assistant:
  url: "http://ha.local:8123"
  token: "test-token"
api:
  enabled: true
  port: 8090
`,
		},
		{
			name: "bad tolerance",
			content: `
home_assistant:
  url: "http://ha.local:8123"
  token: "test-token"
api:
  enabled: false
suggest:
  tolerance: 1.5
`,
		},
		{
			name: "mqtt enabled without host",
			content: `
home_assistant:
  url: "http://ha.local:8123"
  token: "test-token"
api:
  enabled: false
mqtt:
  enabled: true
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := writeConfig(t, tt.content)
			if _, err := Load(configPath); err == nil {
				t.Error("Load() expected validation error, got nil")
			}
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	configPath := writeConfig(t, `
home_assistant:
  url: "http://ha.local:8123"
  token: "file-token"
api:
  enabled: false
`)

	t.Setenv("HASSBRIDGE_HOMEASSISTANT_TOKEN", "env-token")
	t.Setenv("HASSBRIDGE_API_PORT", "9999")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.HomeAssistant.Token != "env-token" {
		t.Errorf("HomeAssistant.Token = %q, want env override", cfg.HomeAssistant.Token)
	}
	if cfg.API.Port != 9999 {
		t.Errorf("API.Port = %d, want env override 9999", cfg.API.Port)
	}
}
