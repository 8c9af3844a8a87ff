package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"VOICE_MODE", "LISTEN_ADDR", "VOICE_PATH", "REDIS_URL", "DATABASE_URL", "SESSION_TTL_SEC", "MESSAGES_DIR", "ALLOWED_ORIGINS", "CONSOLE_SESSION"} {
		t.Setenv(k, "")
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Mode != ModeWebSocket || cfg.ListenAddr != ":8080" || cfg.VoicePath != "/voice" || cfg.ConsoleSession != "console" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.SessionTTL() != time.Hour || cfg.RedisURL != "" || len(cfg.AllowedOrigins) != 0 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("VOICE_MODE", "Console")
	t.Setenv("LISTEN_ADDR", "127.0.0.1:9000")
	t.Setenv("SESSION_TTL_SEC", "120")
	t.Setenv("ALLOWED_ORIGINS", " example.com , ,*.local ")
	t.Setenv("REDIS_URL", "redis://localhost:6379/1")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Mode != ModeConsole || cfg.ListenAddr != "127.0.0.1:9000" || cfg.SessionTTL() != 2*time.Minute {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "*.local" {
		t.Fatalf("origins = %v", cfg.AllowedOrigins)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"VOICE_MODE":      "telepathy",
		"SESSION_TTL_SEC": "-1",
		"VOICE_PATH":      "voice",
	}
	for k, v := range cases {
		t.Run(k, func(t *testing.T) {
			t.Setenv(k, v)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%q", k, v)
			}
		})
	}
}
