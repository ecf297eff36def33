package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	App       AppConfig       `yaml:"app"`
	Database  DatabaseConfig  `yaml:"database"`
	JWT       JWTConfig       `yaml:"jwt"`
	Auth      AuthConfig      `yaml:"auth"`
	LDAP      LDAPConfig      `yaml:"ldap"`
	Redis     RedisConfig     `yaml:"redis"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Log       LogConfig       `yaml:"log"`
}

type ServerConfig struct {
	Host        string   `yaml:"host"`
	Port        string   `yaml:"port"`
	Mode        string   `yaml:"mode"` // debug, release, test
	CORSOrigins []string `yaml:"cors_origins"`
}

// AppConfig holds settings for the run registration workflow.
type AppConfig struct {
	// Timezone in which run date/time strings are interpreted.
	Timezone string `yaml:"timezone"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // sqlite, mysql, postgres
	DSN    string `yaml:"dsn"`
	Debug  bool   `yaml:"debug"`
}

type JWTConfig struct {
	Secret     string `yaml:"secret"`
	ExpireHour int    `yaml:"expire_hour"`
}

// AuthConfig drives the authentication gate.
type AuthConfig struct {
	ProtectedPaths []string `yaml:"protected_paths"`
	LoginPath      string   `yaml:"login_path"`
	CookieName     string   `yaml:"cookie_name"`
	CookieSecure   bool     `yaml:"cookie_secure"`
}

type LDAPConfig struct {
	Enabled      bool   `yaml:"enabled"`
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	BaseDN       string `yaml:"base_dn"`
	BindDN       string `yaml:"bind_dn"`
	BindPassword string `yaml:"bind_password"`
	UserFilter   string `yaml:"user_filter"`
	UseSSL       bool   `yaml:"use_ssl"`
}

// RedisConfig for optional async task queue
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type SchedulerConfig struct {
	Enabled           bool   `yaml:"enabled"`
	TallySpec         string `yaml:"tally_spec"`
	CleanupSpec       string `yaml:"cleanup_spec"`
	LogRetentionDays  int    `yaml:"log_retention_days"`
	InstanceID        string `yaml:"instance_id"`
	LockTTLMinutes    int    `yaml:"lock_ttl_minutes"`
	TallyBatchSize    int    `yaml:"tally_batch_size"`
	SessionGraceHours int    `yaml:"session_grace_hours"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

var GlobalConfig *Config

func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
	}

	var cfg *Config

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg = DefaultConfig()
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, err
		}

		// Start from defaults so a partial file keeps sane values.
		fileCfg := DefaultConfig()
		if err := yaml.Unmarshal(data, fileCfg); err != nil {
			return nil, err
		}
		cfg = fileCfg
	}

	cfg.overrideFromEnv()
	GlobalConfig = cfg
	return cfg, nil
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: "8080",
			Mode: "debug",
		},
		App: AppConfig{
			Timezone: "Local",
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "runclub.db",
		},
		JWT: JWTConfig{
			Secret:     "runclub-secret-key-change-in-production",
			ExpireHour: 24 * 7,
		},
		Auth: AuthConfig{
			ProtectedPaths: []string{"/dashboard", "/profile"},
			LoginPath:      "/auth/login",
			CookieName:     "session_token",
		},
		LDAP: LDAPConfig{
			Enabled:    false,
			Port:       389,
			UserFilter: "(uid=%s)",
		},
		Redis: RedisConfig{
			Enabled: false,
			Addr:    "localhost:6379",
			DB:      0,
		},
		Scheduler: SchedulerConfig{
			Enabled:           true,
			TallySpec:         "@every 15m",
			CleanupSpec:       "0 3 * * *",
			LogRetentionDays:  30,
			LockTTLMinutes:    10,
			TallyBatchSize:    50,
			SessionGraceHours: 24,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Location resolves the configured timezone, falling back to time.Local.
func (a AppConfig) Location() *time.Location {
	if a.Timezone == "" || strings.EqualFold(a.Timezone, "local") {
		return time.Local
	}
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func (c *Config) overrideFromEnv() {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		c.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		c.Server.Port = port
	}
	if mode := os.Getenv("SERVER_MODE"); mode != "" {
		c.Server.Mode = mode
	}
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		c.Server.CORSOrigins = splitList(origins)
	}
	if tz := os.Getenv("APP_TIMEZONE"); tz != "" {
		c.App.Timezone = tz
	}
	if driver := os.Getenv("DB_DRIVER"); driver != "" {
		c.Database.Driver = driver
	}
	if dsn := os.Getenv("DB_DSN"); dsn != "" {
		c.Database.DSN = dsn
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		c.JWT.Secret = secret
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
	if paths := os.Getenv("AUTH_PROTECTED_PATHS"); paths != "" {
		c.Auth.ProtectedPaths = splitList(paths)
	}
	if enabled := os.Getenv("SCHEDULER_ENABLED"); enabled != "" {
		if v, err := strconv.ParseBool(enabled); err == nil {
			c.Scheduler.Enabled = v
		}
	}
	// Redis URL override (format: redis://:password@host:port/db)
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		c.Redis.Enabled = true
		c.parseRedisURL(redisURL)
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseRedisURL parses a Redis URL and sets config values
// Format: redis://:password@host:port/db
func (c *Config) parseRedisURL(redisURL string) {
	url := strings.TrimPrefix(redisURL, "redis://")

	if atIdx := strings.Index(url, "@"); atIdx != -1 {
		authPart := url[:atIdx]
		url = url[atIdx+1:]
		// Password format: :password or user:password
		if colonIdx := strings.Index(authPart, ":"); colonIdx != -1 {
			c.Redis.Password = authPart[colonIdx+1:]
		}
	}

	if slashIdx := strings.LastIndex(url, "/"); slashIdx != -1 {
		dbStr := url[slashIdx+1:]
		url = url[:slashIdx]
		if db, err := strconv.Atoi(dbStr); err == nil {
			c.Redis.DB = db
		}
	}

	c.Redis.Addr = url
}

func (c *Config) Save(configPath string) error {
	if configPath == "" {
		configPath = "config.yaml"
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0644)
}
