package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dokzlo13/irlightd/internal/driver"
	"github.com/dokzlo13/irlightd/internal/transmitter"
)

// Config represents the application configuration
type Config struct {
	Log             LogConfig           `yaml:"log"`
	Database        DatabaseConfig      `yaml:"database"`
	LoopInterval    Duration            `yaml:"loop_interval"`
	ShutdownTimeout Duration            `yaml:"shutdown_timeout"`
	Transmitters    []TransmitterConfig `yaml:"transmitters"`
	Lights          []LightConfig       `yaml:"lights"`
	Webhook         WebhookConfig       `yaml:"webhook"`
	Healthcheck     HealthcheckConfig   `yaml:"healthcheck"`
	Ledger          LedgerConfig        `yaml:"ledger"`
	EventBus        EventBusConfig      `yaml:"eventbus"`
	Script          string              `yaml:"script"` // optional Lua automation script
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`
	Colors bool   `yaml:"colors"`
	JSON   bool   `yaml:"json"`
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// TransmitterConfig describes one IR emitter
type TransmitterConfig struct {
	ID                 string  `yaml:"id"`
	Backend            string  `yaml:"backend"` // gpio | mode2 | log | recorder
	Pin                string  `yaml:"pin"`
	CarrierDutyPercent int     `yaml:"carrier_duty_percent"`
	Path               string  `yaml:"path"` // mode2 output file
	Policy             string  `yaml:"policy"`
	QueueSize          int     `yaml:"queue_size"`
	RateLimit          float64 `yaml:"rate_limit"` // sequences per second, 0 = unlimited
}

// LightConfig describes one IR light
type LightConfig struct {
	Name          string  `yaml:"name"`
	Platform      string  `yaml:"platform"`
	TransmitterID string  `yaml:"transmitter_id"`
	Channel       int     `yaml:"channel"`
	GammaCorrect  float64 `yaml:"gamma_correct"`
	Restore       bool    `yaml:"restore"`
}

// WebhookConfig contains the HTTP API settings
type WebhookConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
}

// LedgerConfig contains transmit ledger settings
type LedgerConfig struct {
	CleanupInterval Duration `yaml:"cleanup_interval"`
	RetentionDays   int      `yaml:"retention_days"`
}

// HealthcheckConfig contains health check server settings
type HealthcheckConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
}

// EventBusConfig contains event bus settings
type EventBusConfig struct {
	Workers   int `yaml:"workers"`
	QueueSize int `yaml:"queue_size"`
}

// GetWorkers returns worker count with default
func (c *EventBusConfig) GetWorkers() int {
	if c.Workers <= 0 {
		return 4
	}
	return c.Workers
}

// GetQueueSize returns queue size with default
func (c *EventBusConfig) GetQueueSize() int {
	if c.QueueSize <= 0 {
		return 100
	}
	return c.QueueSize
}

// Retention returns the ledger retention as a duration
func (c *LedgerConfig) Retention() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}

func (c *HealthcheckConfig) Addr() string { return fmt.Sprintf("%s:%d", c.Host, c.Port) }
func (c *WebhookConfig) Addr() string     { return fmt.Sprintf("%s:%d", c.Host, c.Port) }

// Duration is a wrapper around time.Duration for YAML unmarshalling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML writes the duration back in Go notation
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Load reads, parses, defaults and validates the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse is Load without the file read
func Parse(data []byte) (*Config, error) {
	expanded := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "./irlightd.sqlite"
	}
	if cfg.LoopInterval == 0 {
		cfg.LoopInterval = Duration(time.Second)
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = Duration(5 * time.Second)
	}

	for i := range cfg.Transmitters {
		t := &cfg.Transmitters[i]
		if t.Backend == "" {
			t.Backend = "log"
		}
		if t.CarrierDutyPercent == 0 {
			t.CarrierDutyPercent = 50
		}
		if t.Policy == "" {
			t.Policy = string(transmitter.PolicyQueue)
		}
		if t.QueueSize == 0 {
			t.QueueSize = transmitter.DefaultQueueSize
		}
	}

	// A single transmitter is the implicit target of every light
	if len(cfg.Transmitters) == 1 {
		for i := range cfg.Lights {
			if cfg.Lights[i].TransmitterID == "" {
				cfg.Lights[i].TransmitterID = cfg.Transmitters[0].ID
			}
		}
	}
	for i := range cfg.Lights {
		if cfg.Lights[i].GammaCorrect == 0 {
			cfg.Lights[i].GammaCorrect = 2.8
		}
	}

	if cfg.Webhook.Host == "" {
		cfg.Webhook.Host = "0.0.0.0"
	}
	if cfg.Webhook.Port == 0 {
		cfg.Webhook.Port = 8080
	}

	if cfg.Ledger.CleanupInterval == 0 {
		cfg.Ledger.CleanupInterval = Duration(24 * time.Hour)
	}
	if cfg.Ledger.RetentionDays == 0 {
		cfg.Ledger.RetentionDays = 30
	}

	if cfg.Healthcheck.Port == 0 {
		cfg.Healthcheck.Port = 9090
	}
	if cfg.Healthcheck.Host == "" {
		cfg.Healthcheck.Host = "0.0.0.0"
	}
}

// Validate reports the first configuration problem. Light problems are
// returned as *driver.ConfigError.
func (cfg *Config) Validate() error {
	if cfg.LoopInterval <= 0 {
		return fmt.Errorf("loop_interval must be positive")
	}
	if cfg.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown_timeout must be positive")
	}
	if cfg.Ledger.CleanupInterval <= 0 {
		return fmt.Errorf("ledger: cleanup_interval must be positive")
	}
	if cfg.Ledger.RetentionDays < 0 {
		return fmt.Errorf("ledger: retention_days must not be negative")
	}

	ids := make(map[string]bool, len(cfg.Transmitters))
	for i, t := range cfg.Transmitters {
		if t.ID == "" {
			return fmt.Errorf("transmitters[%d]: id is required", i)
		}
		if ids[t.ID] {
			return fmt.Errorf("transmitters[%d]: duplicate id %q", i, t.ID)
		}
		ids[t.ID] = true

		switch t.Backend {
		case "gpio":
			if t.Pin == "" {
				return fmt.Errorf("transmitter %q: gpio backend requires pin", t.ID)
			}
		case "mode2", "log", "recorder":
		default:
			return fmt.Errorf("transmitter %q: unknown backend %q", t.ID, t.Backend)
		}
		if t.CarrierDutyPercent < 1 || t.CarrierDutyPercent > 100 {
			return fmt.Errorf("transmitter %q: carrier_duty_percent must be 1..100", t.ID)
		}
		if _, err := transmitter.ParsePolicy(t.Policy); err != nil {
			return fmt.Errorf("transmitter %q: %w", t.ID, err)
		}
		if t.RateLimit < 0 {
			return fmt.Errorf("transmitter %q: rate_limit must not be negative", t.ID)
		}
	}

	names := make(map[string]bool, len(cfg.Lights))
	for i := range cfg.Lights {
		l := &cfg.Lights[i]
		if names[l.Name] && l.Name != "" {
			return &driver.ConfigError{Light: l.Name, Field: "name", Reason: "duplicate light name"}
		}
		names[l.Name] = true

		if _, err := driver.NewConfig(l.Name, l.Platform, l.Channel); err != nil {
			return err
		}

		switch {
		case l.TransmitterID == "" && len(cfg.Transmitters) == 0:
			return &driver.ConfigError{Light: l.Name, Field: "transmitter_id", Reason: "no transmitters configured"}
		case l.TransmitterID == "":
			return &driver.ConfigError{Light: l.Name, Field: "transmitter_id", Reason: "required when more than one transmitter is configured"}
		case !ids[l.TransmitterID]:
			return &driver.ConfigError{Light: l.Name, Field: "transmitter_id", Reason: fmt.Sprintf("unknown transmitter %q", l.TransmitterID)}
		}
		if l.GammaCorrect < 0 {
			return &driver.ConfigError{Light: l.Name, Field: "gamma_correct", Reason: "must not be negative"}
		}
	}
	return nil
}

// GetShutdownTimeout returns shutdown timeout with default
func (cfg *Config) GetShutdownTimeout() time.Duration {
	if cfg.ShutdownTimeout <= 0 {
		return 5 * time.Second
	}
	return cfg.ShutdownTimeout.Duration()
}

// expandEnvVars expands environment variables in the format ${VAR} or ${VAR:default}
func expandEnvVars(input string) string {
	re := regexp.MustCompile(`\$\{([^}:]+)(?::([^}]*))?\}`)

	return re.ReplaceAllStringFunc(input, func(match string) string {
		parts := re.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		varName := parts[1]
		defaultVal := ""
		if len(parts) >= 3 {
			defaultVal = parts[2]
		}

		if val := os.Getenv(varName); val != "" {
			return val
		}
		return defaultVal
	})
}
