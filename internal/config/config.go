package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Auth struct {
		AccessSecret  string `yaml:"access_secret"`
		RefreshSecret string `yaml:"refresh_secret"`
		AccessTTL     string `yaml:"access_ttl"`
		RefreshTTL    string `yaml:"refresh_ttl"`
	} `yaml:"auth"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
	Classes struct {
		CodeAttempts int `yaml:"code_attempts"`
	} `yaml:"classes"`
}

// Load reads YAML config from path, then applies environment overrides.
// A .env file in the working directory is loaded first when present.
func Load(path string) (Config, error) {
	cfg := Config{}
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	override(&c.Postgres.URL, "DATABASE_URL")
	override(&c.Redis.Addr, "REDIS_ADDR")
	override(&c.Redis.Password, "REDIS_PASSWORD")
	override(&c.Auth.AccessSecret, "JWT_SECRET")
	override(&c.Auth.RefreshSecret, "JWT_REFRESH_SECRET")
	override(&c.Log.Level, "LOG_LEVEL")
}

func (c *Config) validate() error {
	if c.Auth.AccessSecret == "" {
		return errors.New("auth.access_secret (JWT_SECRET) is required")
	}
	if c.Auth.RefreshSecret == "" {
		return errors.New("auth.refresh_secret (JWT_REFRESH_SECRET) is required")
	}
	return nil
}

func override(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		*dst = v
	}
}

// TTLDuration parses a duration string or returns the fallback if empty.
// A "d" suffix counts whole days.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if days, ok := strings.CutSuffix(raw, "d"); ok {
		var n int
		if _, err := fmt.Sscanf(days, "%d", &n); err == nil && n > 0 {
			return time.Duration(n) * 24 * time.Hour
		}
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
