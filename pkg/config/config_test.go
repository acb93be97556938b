package config

import (
	"reflect"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ServerPort != 8080 || cfg.StorageBackend != BackendMemory {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.TokenTTL != 24*time.Hour || cfg.IdleTimeout != 10*time.Minute || cfg.IdleWarning != time.Minute {
		t.Errorf("unexpected durations: %+v", cfg)
	}
	if cfg.DocumentKey != "internhub_db" {
		t.Errorf("DocumentKey = %q", cfg.DocumentKey)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("STORAGE_BACKEND", "File")
	t.Setenv("STORAGE_DIR", "/tmp/ih")
	t.Setenv("IDLE_TIMEOUT", "5m")
	t.Setenv("IDLE_WARNING", "30s")
	t.Setenv("MOCK_LATENCY", "200ms")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ServerPort != 9090 || cfg.StorageBackend != BackendFile || cfg.StorageDir != "/tmp/ih" {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.IdleTimeout != 5*time.Minute || cfg.IdleWarning != 30*time.Second || cfg.MockLatency != 200*time.Millisecond {
		t.Errorf("unexpected durations: %+v", cfg)
	}
	want := []string{"https://a.example", "https://b.example"}
	if !reflect.DeepEqual(cfg.CORSAllowedOrigins, want) {
		t.Errorf("CORSAllowedOrigins = %v, want %v", cfg.CORSAllowedOrigins, want)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad port", map[string]string{"SERVER_PORT": "http"}},
		{"bad backend", map[string]string{"STORAGE_BACKEND": "mongo"}},
		{"postgres without url", map[string]string{"STORAGE_BACKEND": "postgres"}},
		{"bad duration", map[string]string{"TOKEN_TTL": "forever"}},
		{"negative duration", map[string]string{"MOCK_LATENCY": "-1s"}},
		{"warning after timeout", map[string]string{"IDLE_TIMEOUT": "1m", "IDLE_WARNING": "2m"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
