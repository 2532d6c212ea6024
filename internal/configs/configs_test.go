package configs

import (
	"strings"
	"testing"
)

// clearEnv blanks every variable LoadConfig reads so tests start clean.
func clearEnv(t *testing.T) {
	t.Helper()

	for _, name := range []string{
		"ENVIRONMENT", "PORT", "ALLOWED_ORIGINS", "JWT_SECRET",
		"DATABASE_URL", "HISTORY_PER_ROOM", "HISTORY_LIST_LIMIT",
		"S3_BUCKET_NAME", "S3_ENDPOINT", "S3_ACCESS_KEY_ID", "S3_SECRET_ACCESS_KEY",
	} {
		t.Setenv(name, "")
	}
}

func TestLoadConfigDevelopmentDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Environment != "development" {
		t.Errorf("Environment = %q, want development", cfg.Environment)
	}
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.JWTSecret == "" {
		t.Error("development JWTSecret not defaulted")
	}
	if cfg.HistoryPerRoom != 200 {
		t.Errorf("HistoryPerRoom = %d, want 200", cfg.HistoryPerRoom)
	}
	if cfg.HistoryListLimit != 50 {
		t.Errorf("HistoryListLimit = %d, want 50", cfg.HistoryListLimit)
	}
	if cfg.StorageEnabled() {
		t.Error("StorageEnabled() = true with no bucket configured")
	}
}

func TestLoadConfigProductionRequiresSecret(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENVIRONMENT", "production")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("LoadConfig succeeded without JWT_SECRET in production")
	}

	t.Setenv("JWT_SECRET", "prod-secret")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed with JWT_SECRET set: %v", err)
	}
	if cfg.JWTSecret != "prod-secret" {
		t.Errorf("JWTSecret = %q, want prod-secret", cfg.JWTSecret)
	}
}

func TestLoadConfigPortValidation(t *testing.T) {
	tests := []struct {
		port    string
		wantErr bool
	}{
		{"8080", false},
		{"1024", false},
		{"65535", false},
		{"80", true},
		{"70000", true},
		{"not-a-number", true},
	}

	for _, tt := range tests {
		t.Run(tt.port, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("PORT", tt.port)

			_, err := LoadConfig()
			if (err != nil) != tt.wantErr {
				t.Errorf("PORT=%s: err = %v, wantErr = %v", tt.port, err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfigAllowedOrigins(t *testing.T) {
	clearEnv(t)
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example ,,")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if len(cfg.AllowedOrigins) != 2 {
		t.Fatalf("AllowedOrigins = %v, want 2 entries", cfg.AllowedOrigins)
	}
	if cfg.AllowedOrigins[0] != "https://a.example" || cfg.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("AllowedOrigins = %v, want trimmed entries", cfg.AllowedOrigins)
	}
}

func TestLoadConfigStorageGroup(t *testing.T) {
	clearEnv(t)
	t.Setenv("S3_BUCKET_NAME", "relay-files")

	_, err := LoadConfig()
	if err == nil || !strings.Contains(err.Error(), "S3_ENDPOINT") {
		t.Fatalf("err = %v, want missing S3_ENDPOINT error", err)
	}

	t.Setenv("S3_ENDPOINT", "https://s3.local")
	t.Setenv("S3_ACCESS_KEY_ID", "key")
	t.Setenv("S3_SECRET_ACCESS_KEY", "secret")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed with full S3 group: %v", err)
	}
	if !cfg.StorageEnabled() {
		t.Error("StorageEnabled() = false with bucket configured")
	}
}

func TestLoadConfigHistoryOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("HISTORY_PER_ROOM", "500")
	t.Setenv("HISTORY_LIST_LIMIT", "25")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.HistoryPerRoom != 500 {
		t.Errorf("HistoryPerRoom = %d, want 500", cfg.HistoryPerRoom)
	}
	if cfg.HistoryListLimit != 25 {
		t.Errorf("HistoryListLimit = %d, want 25", cfg.HistoryListLimit)
	}

	t.Setenv("HISTORY_PER_ROOM", "many")
	if _, err := LoadConfig(); err == nil {
		t.Error("LoadConfig accepted non-numeric HISTORY_PER_ROOM")
	}
}
