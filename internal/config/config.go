package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"log"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		TTL string `yaml:"ttl"`
	} `yaml:"quiz"`
	Session Session `yaml:"session"`
}

// Session holds the live-session defaults and limits.
type Session struct {
	DefaultTimerSeconds int    `yaml:"defaultTimerSeconds"`
	DefaultAutoClose    *bool  `yaml:"defaultAutoClose"`
	JoinCodeAttempts    int    `yaml:"joinCodeAttempts"`
	TickInterval        string `yaml:"tickInterval"`
	MaxTimerSeconds     int    `yaml:"maxTimerSeconds"`
}

// AutoClose returns the configured auto-close default (true when unset).
func (s Session) AutoClose() bool {
	return s.DefaultAutoClose == nil || *s.DefaultAutoClose
}

// Load reads YAML config from path. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return cfg, err
	}
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}
	applyDefaults(&cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Session.DefaultTimerSeconds <= 0 {
		cfg.Session.DefaultTimerSeconds = 30
	}
	if cfg.Session.JoinCodeAttempts <= 0 {
		cfg.Session.JoinCodeAttempts = 10
	}
	if cfg.Session.MaxTimerSeconds <= 0 {
		cfg.Session.MaxTimerSeconds = 300
	}
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
