package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	if cfg.Store.Dir != "data" {
		t.Errorf("Store.Dir = %q", cfg.Store.Dir)
	}
	if cfg.Resolver.Threshold != 0.70 || cfg.Resolver.TieMargin != 0.10 {
		t.Errorf("resolver defaults = %+v", cfg.Resolver)
	}
	if cfg.Timeout() != 30*time.Second {
		t.Errorf("Timeout() = %v", cfg.Timeout())
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tutorcc.toml")
	content := `
[store]
dir = "/var/lib/tutorcc"
watch = false

[llm]
model = "gemini-2.5-pro"
api_key_env = "TUTOR_GEMINI_KEY"
timeout = 45

[resolver]
threshold = 0.8

[server]
addr = ":9090"

[logging]
debug = true
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.Store.Dir != "/var/lib/tutorcc" || cfg.Store.Watch {
		t.Errorf("Store = %+v", cfg.Store)
	}
	if cfg.LLM.Model != "gemini-2.5-pro" || cfg.Timeout() != 45*time.Second {
		t.Errorf("LLM = %+v", cfg.LLM)
	}
	if cfg.Resolver.Threshold != 0.8 {
		t.Errorf("Threshold = %v", cfg.Resolver.Threshold)
	}
	// Unset keys keep their defaults.
	if cfg.Resolver.TieMargin != 0.10 {
		t.Errorf("TieMargin = %v, want default", cfg.Resolver.TieMargin)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("Addr = %q", cfg.Server.Addr)
	}
	if !cfg.Logging.Debug {
		t.Error("Logging.Debug not set")
	}
}

func TestLoadFile_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("[store\ndir ="), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Error("LoadFile() accepted malformed TOML")
	}
}

func TestGetAPIKey(t *testing.T) {
	cfg := Default()
	cfg.LLM.APIKeyEnv = "TUTORCC_TEST_KEY"
	t.Setenv("TUTORCC_TEST_KEY", "secret")
	if got := cfg.GetAPIKey(); got != "secret" {
		t.Errorf("GetAPIKey() = %q", got)
	}
}
