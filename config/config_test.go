package config

import (
	"strings"
	"testing"
	"time"

	"github.com/example/nextalk-server/modules/history"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != 3001 {
		t.Errorf("expected Port 3001, got %d", cfg.Port)
	}
	if cfg.HistoryLimit != 50 {
		t.Errorf("expected HistoryLimit 50, got %d", cfg.HistoryLimit)
	}
	if cfg.HistoryBackend != history.BackendSQLite {
		t.Errorf("expected HistoryBackend %q, got %q", history.BackendSQLite, cfg.HistoryBackend)
	}
	if cfg.ShutdownTimeout != 30*time.Second {
		t.Errorf("expected ShutdownTimeout 30s, got %v", cfg.ShutdownTimeout)
	}
	if cfg.SendBuffer != 64 {
		t.Errorf("expected SendBuffer 64, got %d", cfg.SendBuffer)
	}
	if cfg.Addr() != ":3001" {
		t.Errorf("expected Addr :3001, got %s", cfg.Addr())
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("HISTORY_LIMIT", "20")
	t.Setenv("HISTORY_BACKEND", "memory")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != 8080 || cfg.HistoryLimit != 20 || cfg.HistoryBackend != history.BackendMemory {
		t.Errorf("overrides not applied: %+v", cfg)
	}
}

func TestParseEnvError(t *testing.T) {
	t.Setenv("PORT", "not-an-int")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	base := Config{
		Port:           3001,
		HistoryLimit:   50,
		HistoryBackend: history.BackendMemory,
		SendBuffer:     64,
		BcryptCost:     12,
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "bad port", mutate: func(c *Config) { c.Port = 0 }, wantErr: "PORT"},
		{name: "zero history limit", mutate: func(c *Config) { c.HistoryLimit = 0 }, wantErr: "HISTORY_LIMIT"},
		{name: "zero send buffer", mutate: func(c *Config) { c.SendBuffer = 0 }, wantErr: "WS_SEND_BUFFER"},
		{name: "unknown backend", mutate: func(c *Config) { c.HistoryBackend = "mongo" }, wantErr: "HISTORY_BACKEND"},
		{name: "postgres without url", mutate: func(c *Config) { c.HistoryBackend = history.BackendPostgres }, wantErr: "DATABASE_URL"},
		{name: "redis without addr", mutate: func(c *Config) { c.HistoryBackend = history.BackendRedis }, wantErr: "REDIS_ADDR"},
		{name: "sqlite without path", mutate: func(c *Config) { c.HistoryBackend = history.BackendSQLite }, wantErr: "SQLITE_PATH"},
		{name: "bcrypt cost too low", mutate: func(c *Config) { c.BcryptCost = 2 }, wantErr: "BCRYPT_COST"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestAllowedOrigins(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "", want: "*"},
		{in: "*", want: "*"},
		{in: "http://a.test, http://b.test ,", want: "http://a.test,http://b.test"},
	}
	for _, tt := range tests {
		got := Config{CORSOrigins: tt.in}.AllowedOrigins()
		if got != tt.want {
			t.Errorf("AllowedOrigins(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidateAcceptsEveryHistoryBackend(t *testing.T) {
	for _, backend := range []string{
		history.BackendMemory,
		history.BackendSQLite,
		history.BackendPostgres,
		history.BackendRedis,
	} {
		t.Run(backend, func(t *testing.T) {
			cfg := Config{
				Port:           3001,
				HistoryLimit:   50,
				HistoryBackend: backend,
				SendBuffer:     64,
				BcryptCost:     12,
				SQLitePath:     "x.db",
				DatabaseURL:    "postgres://localhost/x",
				RedisAddr:      "localhost:6379",
			}
			if err := cfg.Validate(); err != nil {
				t.Errorf("Validate() error = %v", err)
			}
		})
	}
}
