package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied when the file and environment leave a field unset.
const (
	DefaultPollInterval  = time.Second
	DefaultDrainInterval = 2 * time.Second
	DefaultDispatchEvery = 500 * time.Millisecond
	DefaultBatchLimit    = 500
	DefaultRecentEvents  = 50
	DefaultQueueCapacity = 1024
	DefaultMaxImageBytes = 8 << 20
)

// Load reads the YAML config at path (optional), overlays TALKBRIDGE_*
// environment variables, and fills defaults. A missing file is not an error;
// a malformed one is.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	applyEnv(cfg)
	applyDefaults(cfg)
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("TALKBRIDGE_ADDR"); v != "" {
		cfg.Server.Address = v
	}
	if v := os.Getenv("TALKBRIDGE_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = p
		}
	}
	if v := os.Getenv("TALKBRIDGE_DB"); v != "" {
		cfg.Source.DBPath = v
	}
	if v := os.Getenv("TALKBRIDGE_STATE"); v != "" {
		cfg.Source.StatePath = v
	}
	if v := os.Getenv("TALKBRIDGE_WEBHOOK_URL"); v != "" {
		cfg.Bridge.Webhook.URL = v
	}
	if v := os.Getenv("TALKBRIDGE_ACTION_ENDPOINT"); v != "" {
		cfg.Actions.Endpoint = v
	}
	if v := os.Getenv("TALKBRIDGE_API_KEYS"); v != "" {
		for _, k := range strings.Split(v, ",") {
			if k = strings.TrimSpace(k); k != "" {
				cfg.Security.APIKeys = append(cfg.Security.APIKeys, k)
			}
		}
	}
	if v := os.Getenv("TALKBRIDGE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Address == "" {
		cfg.Server.Address = "127.0.0.1"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 3000
	}
	if cfg.Source.StatePath == "" {
		cfg.Source.StatePath = "./state"
	}
	if cfg.Bridge.PollInterval.Duration() <= 0 {
		cfg.Bridge.PollInterval = Duration(DefaultPollInterval)
	}
	if cfg.Bridge.DrainInterval.Duration() <= 0 {
		cfg.Bridge.DrainInterval = Duration(DefaultDrainInterval)
	}
	if cfg.Bridge.BatchLimit <= 0 {
		cfg.Bridge.BatchLimit = DefaultBatchLimit
	}
	if cfg.Bridge.RecentEvents <= 0 {
		cfg.Bridge.RecentEvents = DefaultRecentEvents
	}
	if cfg.Bridge.Webhook.Timeout.Duration() <= 0 {
		cfg.Bridge.Webhook.Timeout = Duration(5 * time.Second)
	}
	if cfg.Actions.DispatchEvery.Duration() <= 0 {
		cfg.Actions.DispatchEvery = Duration(DefaultDispatchEvery)
	}
	if cfg.Actions.QueueCapacity <= 0 {
		cfg.Actions.QueueCapacity = DefaultQueueCapacity
	}
	if cfg.Actions.MaxImageBytes <= 0 {
		cfg.Actions.MaxImageBytes = SizeBytes(DefaultMaxImageBytes)
	}
	if cfg.Maintenance.Cron == "" {
		cfg.Maintenance.Cron = "0 4 * * *"
	}
	if cfg.Maintenance.PruneAge.Duration() <= 0 {
		cfg.Maintenance.PruneAge = Duration(24 * time.Hour)
	}
}

func validate(cfg *Config) error {
	if cfg.Source.DBPath == "" {
		return fmt.Errorf("source.db_path is required")
	}
	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", cfg.Server.Port)
	}
	return nil
}

// Addr returns the listen address in host:port form.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}
