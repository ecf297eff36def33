package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Database.Driver != "sqlite" {
		t.Errorf("Database.Driver = %q, expected %q", cfg.Database.Driver, "sqlite")
	}
	if cfg.Auth.LoginPath != "/auth/login" {
		t.Errorf("Auth.LoginPath = %q, expected %q", cfg.Auth.LoginPath, "/auth/login")
	}
	if len(cfg.Auth.ProtectedPaths) != 2 {
		t.Fatalf("expected 2 protected paths, got %d", len(cfg.Auth.ProtectedPaths))
	}
	if cfg.Auth.ProtectedPaths[0] != "/dashboard" || cfg.Auth.ProtectedPaths[1] != "/profile" {
		t.Errorf("unexpected protected paths: %v", cfg.Auth.ProtectedPaths)
	}
	if cfg.Redis.Enabled {
		t.Error("Redis should be disabled by default")
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("Server.Port = %q, expected %q", cfg.Server.Port, "8080")
	}
	if GlobalConfig != cfg {
		t.Error("GlobalConfig should point at the loaded config")
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "server:\n  port: \"9090\"\nauth:\n  login_path: /signin\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Errorf("Server.Port = %q, expected %q", cfg.Server.Port, "9090")
	}
	if cfg.Auth.LoginPath != "/signin" {
		t.Errorf("Auth.LoginPath = %q, expected %q", cfg.Auth.LoginPath, "/signin")
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("Database.Driver = %q, expected default %q", cfg.Database.Driver, "sqlite")
	}
}

func TestOverrideFromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "7000")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("AUTH_PROTECTED_PATHS", "/a, /b ,,/c")
	t.Setenv("SCHEDULER_ENABLED", "false")
	t.Setenv("CORS_ORIGINS", "https://club.example.com")

	cfg := DefaultConfig()
	cfg.overrideFromEnv()

	if cfg.Server.Port != "7000" {
		t.Errorf("Server.Port = %q, expected %q", cfg.Server.Port, "7000")
	}
	if cfg.Database.Driver != "postgres" {
		t.Errorf("Database.Driver = %q, expected %q", cfg.Database.Driver, "postgres")
	}
	want := []string{"/a", "/b", "/c"}
	if len(cfg.Auth.ProtectedPaths) != len(want) {
		t.Fatalf("ProtectedPaths = %v, expected %v", cfg.Auth.ProtectedPaths, want)
	}
	for i := range want {
		if cfg.Auth.ProtectedPaths[i] != want[i] {
			t.Errorf("ProtectedPaths[%d] = %q, expected %q", i, cfg.Auth.ProtectedPaths[i], want[i])
		}
	}
	if cfg.Scheduler.Enabled {
		t.Error("Scheduler should be disabled by env override")
	}
	if len(cfg.Server.CORSOrigins) != 1 || cfg.Server.CORSOrigins[0] != "https://club.example.com" {
		t.Errorf("CORSOrigins = %v", cfg.Server.CORSOrigins)
	}
}

func TestParseRedisURL(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		addr     string
		password string
		db       int
	}{
		{"host only", "redis://localhost:6379", "localhost:6379", "", 0},
		{"with password", "redis://:secret@cache:6380", "cache:6380", "secret", 0},
		{"with db", "redis://:pw@cache:6379/3", "cache:6379", "pw", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.parseRedisURL(tt.url)
			if cfg.Redis.Addr != tt.addr {
				t.Errorf("Addr = %q, expected %q", cfg.Redis.Addr, tt.addr)
			}
			if cfg.Redis.Password != tt.password {
				t.Errorf("Password = %q, expected %q", cfg.Redis.Password, tt.password)
			}
			if cfg.Redis.DB != tt.db {
				t.Errorf("DB = %d, expected %d", cfg.Redis.DB, tt.db)
			}
		})
	}
}

func TestAppConfig_Location(t *testing.T) {
	if loc := (AppConfig{}).Location(); loc != time.Local {
		t.Errorf("empty timezone should resolve to time.Local, got %v", loc)
	}
	if loc := (AppConfig{Timezone: "UTC"}).Location(); loc.String() != "UTC" {
		t.Errorf("expected UTC, got %v", loc)
	}
	if loc := (AppConfig{Timezone: "Not/AZone"}).Location(); loc != time.Local {
		t.Errorf("unknown timezone should fall back to time.Local, got %v", loc)
	}
}
