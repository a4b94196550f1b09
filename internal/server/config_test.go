package server

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"
)

func TestNewConfigFromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("ALLOWED_ORIGINS", " https://a.example.com, ,http://b.example.com ")
	t.Setenv("MAX_MESSAGE_SIZE", "1024")
	t.Setenv("SEND_BUFFER_SIZE", "16")
	t.Setenv("RATE_LIMIT_BURST", "3")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "500ms")

	cfg := NewConfigFromEnv()

	if cfg.Port != "9090" {
		t.Errorf("Expected raw port 9090, got %q", cfg.Port)
	}
	if want := []string{"https://a.example.com", "http://b.example.com"}; !slices.Equal(cfg.AllowedOrigins, want) {
		t.Errorf("Expected origins %v, got %v", want, cfg.AllowedOrigins)
	}
	if cfg.MaxMessageSize != 1024 || cfg.SendBufferSize != 16 {
		t.Errorf("Unexpected sizes: %+v", cfg)
	}
	if cfg.RateLimit.Burst != 3 || cfg.RateLimit.RefillInterval != 500*time.Millisecond {
		t.Errorf("Unexpected rate limit: %+v", cfg.RateLimit)
	}
}

func TestNewConfigFromEnvInvalidValues(t *testing.T) {
	t.Setenv("MAX_MESSAGE_SIZE", "huge")
	t.Setenv("SEND_BUFFER_SIZE", "-1")
	t.Setenv("RATE_LIMIT_BURST", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "soon")

	cfg := NewConfigFromEnv()
	def := defaultConfig()

	if cfg.MaxMessageSize != def.MaxMessageSize || cfg.SendBufferSize != def.SendBufferSize {
		t.Errorf("Expected default sizes, got %+v", cfg)
	}
	if cfg.RateLimit != def.RateLimit {
		t.Errorf("Expected default rate limit, got %+v", cfg.RateLimit)
	}
}

func TestParseRefillInterval(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"2s", 2 * time.Second},
		{"250ms", 250 * time.Millisecond},
		{"5", 5 * time.Second},
		{"0", time.Minute},
		{"-1s", time.Minute},
		{"later", time.Minute},
	}
	for _, tt := range tests {
		if got := parseRefillInterval(tt.in, time.Minute); got != tt.want {
			t.Errorf("parseRefillInterval(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSetConfigSanitizes(t *testing.T) {
	t.Cleanup(func() { SetConfig(nil) })

	got := SetConfig(&Config{
		Port:           "7000",
		AllowedOrigins: []string{"HTTP://Example.COM", "ftp://files.example.com", "*"},
	})

	if got.Port != ":7000" {
		t.Errorf("Expected port :7000, got %q", got.Port)
	}
	if got.MaxMessageSize != defaultMaxMessageSize || got.SendBufferSize != defaultSendBufferSize {
		t.Errorf("Expected default sizes, got %+v", got)
	}
	if got.RateLimit.Burst != defaultRateBurst || got.RateLimit.RefillInterval != time.Second {
		t.Errorf("Expected default rate limit, got %+v", got.RateLimit)
	}
	if want := []string{"http://example.com"}; !slices.Equal(got.AllowedOrigins, want) {
		t.Errorf("Expected origins %v, got %v", want, got.AllowedOrigins)
	}
	if current := CurrentConfig(); current.Port != got.Port {
		t.Errorf("CurrentConfig does not reflect SetConfig: %+v", current)
	}

	configMu.RLock()
	allowAll := allowAllOrigins
	configMu.RUnlock()
	if !allowAll {
		t.Error("Expected * to allow all origins")
	}
}

func TestSetConfigCopiesOrigins(t *testing.T) {
	t.Cleanup(func() { SetConfig(nil) })

	origins := []string{"http://a.example.com"}
	SetConfig(&Config{AllowedOrigins: origins})
	origins[0] = "http://mutated.example.com"

	if got := CurrentConfig().AllowedOrigins; got[0] != "http://a.example.com" {
		t.Errorf("Config shares the caller's slice: %v", got)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	if err := os.WriteFile(path, []byte("ROOMCHAT_DOTENV_TEST=loaded\n"), 0o600); err != nil {
		t.Fatalf("Failed to write env file: %v", err)
	}
	t.Setenv("ROOMCHAT_DOTENV_TEST", "")
	if err := os.Unsetenv("ROOMCHAT_DOTENV_TEST"); err != nil {
		t.Fatalf("Failed to unset variable: %v", err)
	}

	if err := LoadDotEnv(filepath.Join(dir, "missing.env"), path); err != nil {
		t.Fatalf("LoadDotEnv failed: %v", err)
	}
	if got := os.Getenv("ROOMCHAT_DOTENV_TEST"); got != "loaded" {
		t.Errorf("Expected variable from file, got %q", got)
	}
}
