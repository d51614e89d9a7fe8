package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

// Config is the main configuration struct, loaded from YAML and overlaid
// with environment variables.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Source      SourceConfig      `yaml:"source"`
	Bridge      BridgeConfig      `yaml:"bridge"`
	Actions     ActionsConfig     `yaml:"actions"`
	Security    SecurityConfig    `yaml:"security"`
	Logging     LoggingConfig     `yaml:"logging"`
	Maintenance MaintenanceConfig `yaml:"maintenance"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Address string `yaml:"address"`
	Port    int    `yaml:"port"`
}

// SourceConfig locates the messenger database and the bridge state folder.
type SourceConfig struct {
	DBPath    string `yaml:"db_path"`
	StatePath string `yaml:"state_path"`
}

// BridgeConfig holds the poll/drain loops and event fan-out settings. The
// interval values seed the hot-reloadable Runtime; they are not read again
// after startup.
type BridgeConfig struct {
	PollInterval  Duration      `yaml:"poll_interval"`
	DrainInterval Duration      `yaml:"drain_interval"`
	BatchLimit    int           `yaml:"batch_limit"`
	RecentEvents  int           `yaml:"recent_events"`
	Webhook       WebhookConfig `yaml:"webhook"`
}

// WebhookConfig configures the optional per-event HTTP forwarder.
type WebhookConfig struct {
	URL     string   `yaml:"url"`
	Timeout Duration `yaml:"timeout"`
}

// ActionsConfig holds the outbound dispatch settings.
type ActionsConfig struct {
	Endpoint      string    `yaml:"endpoint"`
	DispatchEvery Duration  `yaml:"dispatch_every"`
	QueueCapacity int       `yaml:"queue_capacity"`
	MaxImageBytes SizeBytes `yaml:"max_image_bytes"`
}

// SecurityConfig holds API access settings.
type SecurityConfig struct {
	APIKeys   []string `yaml:"api_keys"`
	RateLimit struct {
		RPS   float64 `yaml:"rps"`
		Burst int     `yaml:"burst"`
	} `yaml:"rate_limit"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// MaintenanceConfig controls the cron-scheduled housekeeping runner.
type MaintenanceConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Cron     string   `yaml:"cron"`
	PruneAge Duration `yaml:"prune_age"`
}

// SizeBytes represents a number of bytes, unmarshaled from human-friendly
// strings like "8MB" or plain integers.
type SizeBytes int64

func (s *SizeBytes) UnmarshalYAML(node *yaml.Node) error {
	if node == nil {
		*s = 0
		return nil
	}
	raw := strings.TrimSpace(node.Value)
	if raw == "" {
		*s = 0
		return nil
	}
	if v, err := humanize.ParseBytes(raw); err == nil {
		*s = SizeBytes(v)
		return nil
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		*s = SizeBytes(i)
		return nil
	}
	return fmt.Errorf("invalid size value: %q", node.Value)
}

func (s SizeBytes) Int64() int64 { return int64(s) }

// Duration is a wrapper around time.Duration that supports YAML parsing from
// strings like "500ms" or plain numbers (interpreted as seconds).
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node == nil {
		*d = Duration(0)
		return nil
	}
	raw := strings.TrimSpace(node.Value)
	if raw == "" {
		*d = Duration(0)
		return nil
	}
	if td, err := time.ParseDuration(raw); err == nil {
		*d = Duration(td)
		return nil
	}
	// allow numeric seconds
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		*d = Duration(time.Duration(f * float64(time.Second)))
		return nil
	}
	return fmt.Errorf("invalid duration value: %q", node.Value)
}

func (d Duration) Duration() time.Duration { return time.Duration(d) }
