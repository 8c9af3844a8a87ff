package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	ModeWebSocket = "ws"
	ModeConsole   = "console"
)

type AppConfig struct {
	Mode string

	ListenAddr string
	VoicePath  string

	// AllowedOrigins are extra websocket origin host patterns.
	AllowedOrigins []string

	RedisURL    string
	DatabaseURL string

	SessionTTLSec int

	// MessagesDir overrides embedded notice templates when set.
	MessagesDir string

	// ConsoleSession is the game session id used by the console host.
	ConsoleSession string
}

// SessionTTL is the Redis expiry for stored games.
func (c *AppConfig) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLSec) * time.Second
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		Mode:           ModeWebSocket,
		ListenAddr:     ":8080",
		VoicePath:      "/voice",
		SessionTTLSec:  3600,
		ConsoleSession: "console",
	}

	if v := strings.ToLower(strings.TrimSpace(os.Getenv("VOICE_MODE"))); v != "" {
		cfg.Mode = v
	}
	if v := strings.TrimSpace(os.Getenv("LISTEN_ADDR")); v != "" {
		cfg.ListenAddr = v
	}
	if v := strings.TrimSpace(os.Getenv("VOICE_PATH")); v != "" {
		cfg.VoicePath = v
	}
	if v := strings.TrimSpace(os.Getenv("CONSOLE_SESSION")); v != "" {
		cfg.ConsoleSession = v
	}

	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	cfg.MessagesDir = strings.TrimSpace(os.Getenv("MESSAGES_DIR"))

	if v := strings.TrimSpace(os.Getenv("ALLOWED_ORIGINS")); v != "" {
		for _, p := range strings.Split(v, ",") {
			s := strings.TrimSpace(p)
			if s != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, s)
			}
		}
	}

	if v := strings.TrimSpace(os.Getenv("SESSION_TTL_SEC")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("SESSION_TTL_SEC must be a positive integer, got %q", v)
		}
		cfg.SessionTTLSec = n
	}

	if cfg.Mode != ModeWebSocket && cfg.Mode != ModeConsole {
		return nil, fmt.Errorf("VOICE_MODE must be %q or %q, got %q", ModeWebSocket, ModeConsole, cfg.Mode)
	}
	if !strings.HasPrefix(cfg.VoicePath, "/") {
		return nil, errors.New("VOICE_PATH must start with /")
	}

	return cfg, nil
}
