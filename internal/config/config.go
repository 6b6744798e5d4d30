package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config defines server configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	DB      DBConfig      `yaml:"db"`
	Log     LogConfig     `yaml:"log"`
	Auth    AuthConfig    `yaml:"auth"`
	Session SessionConfig `yaml:"session"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type AuthConfig struct {
	// Token enables bearer authentication on the webhook when non-empty.
	Token string `yaml:"token"`
}

type SessionConfig struct {
	// Capacity is the maximum number of live sessions before LRU eviction.
	Capacity int `yaml:"capacity"`
	// HistoryWindow is the number of conversation turns retained per session.
	HistoryWindow int `yaml:"history_window"`
	// LockWaitMS bounds the wait for a contended session, in milliseconds.
	LockWaitMS int `yaml:"lock_wait_ms"`
}

// LockWait returns the configured lock wait as a duration.
func (s SessionConfig) LockWait() time.Duration {
	return time.Duration(s.LockWaitMS) * time.Millisecond
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		DB: DBConfig{
			Path: "pii_audit.db",
		},
		Log: LogConfig{
			Level: "info",
		},
		Session: SessionConfig{
			Capacity:      100,
			HistoryWindow: 10,
			LockWaitMS:    5000,
		},
	}

	if path := os.Getenv("PII_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if host := os.Getenv("PII_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("PII_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid PII_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if dbPath := os.Getenv("PII_DB_PATH"); dbPath != "" {
		cfg.DB.Path = dbPath
	}
	if level := os.Getenv("PII_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if token := os.Getenv("PII_AUTH_TOKEN"); token != "" {
		cfg.Auth.Token = token
	}
	if capStr := os.Getenv("PII_SESSION_CAPACITY"); capStr != "" {
		capacity, err := strconv.Atoi(capStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid PII_SESSION_CAPACITY: %w", err)
		}
		cfg.Session.Capacity = capacity
	}
	if winStr := os.Getenv("PII_HISTORY_WINDOW"); winStr != "" {
		window, err := strconv.Atoi(winStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid PII_HISTORY_WINDOW: %w", err)
		}
		cfg.Session.HistoryWindow = window
	}
	if waitStr := os.Getenv("PII_LOCK_WAIT_MS"); waitStr != "" {
		wait, err := strconv.Atoi(waitStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid PII_LOCK_WAIT_MS: %w", err)
		}
		cfg.Session.LockWaitMS = wait
	}

	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
