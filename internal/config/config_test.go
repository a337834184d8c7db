package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dokzlo13/irlightd/internal/driver"
)

const sample = `
log:
  level: debug
database:
  path: ${IRLIGHTD_TEST_DB:/tmp/irlightd.sqlite}
transmitters:
  - id: ir0
    backend: gpio
    pin: GPIO18
lights:
  - name: bedroom
    platform: nec_light
    channel: 2
    restore: true
  - name: box
    platform: photo_light
`

func TestParse_DefaultsAndSingleTransmitter(t *testing.T) {
	cfg, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if cfg.Database.Path != "/tmp/irlightd.sqlite" {
		t.Errorf("database path = %q", cfg.Database.Path)
	}
	if cfg.LoopInterval.Duration() != time.Second || cfg.GetShutdownTimeout() != 5*time.Second {
		t.Errorf("timing defaults not applied: %v %v", cfg.LoopInterval, cfg.ShutdownTimeout)
	}
	tx := cfg.Transmitters[0]
	if tx.Policy != "queue" || tx.QueueSize != 16 || tx.CarrierDutyPercent != 50 {
		t.Errorf("transmitter defaults not applied: %+v", tx)
	}
	for _, l := range cfg.Lights {
		if l.TransmitterID != "ir0" {
			t.Errorf("light %s transmitter = %q, want ir0", l.Name, l.TransmitterID)
		}
		if l.GammaCorrect != 2.8 {
			t.Errorf("light %s gamma = %v", l.Name, l.GammaCorrect)
		}
	}
	if cfg.Webhook.Addr() != "0.0.0.0:8080" || cfg.Ledger.Retention() != 30*24*time.Hour {
		t.Errorf("webhook/ledger defaults: %s %v", cfg.Webhook.Addr(), cfg.Ledger.Retention())
	}
}

func TestParse_EnvExpansion(t *testing.T) {
	t.Setenv("IRLIGHTD_TEST_DB", "/var/lib/ir.sqlite")
	cfg, err := Parse([]byte(sample))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Database.Path != "/var/lib/ir.sqlite" {
		t.Errorf("database path = %q", cfg.Database.Path)
	}
}

func TestParse_LightErrors(t *testing.T) {
	tests := []struct {
		name  string
		yaml  string
		field string
	}{
		{
			name:  "channel 3",
			yaml:  "transmitters: [{id: ir0}]\nlights: [{name: a, platform: nec_light, channel: 3}]",
			field: "channel",
		},
		{
			name:  "channel on photo",
			yaml:  "transmitters: [{id: ir0}]\nlights: [{name: a, platform: photo_light, channel: 1}]",
			field: "channel",
		},
		{
			name:  "unknown platform",
			yaml:  "transmitters: [{id: ir0}]\nlights: [{name: a, platform: zigbee}]",
			field: "platform",
		},
		{
			name:  "unknown transmitter",
			yaml:  "transmitters: [{id: ir0}]\nlights: [{name: a, platform: sara_light, transmitter_id: ir9}]",
			field: "transmitter_id",
		},
		{
			name:  "ambiguous transmitter",
			yaml:  "transmitters: [{id: ir0}, {id: ir1}]\nlights: [{name: a, platform: sara_light}]",
			field: "transmitter_id",
		},
		{
			name:  "no transmitter",
			yaml:  "lights: [{name: a, platform: sara_light}]",
			field: "transmitter_id",
		},
		{
			name:  "duplicate light",
			yaml:  "transmitters: [{id: ir0}]\nlights: [{name: a, platform: sara_light}, {name: a, platform: nec_light}]",
			field: "name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			var ce *driver.ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("expected ConfigError, got %v", err)
			}
			if ce.Field != tt.field {
				t.Errorf("field = %q, want %q (%v)", ce.Field, tt.field, err)
			}
		})
	}
}

func TestParse_TransmitterErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{name: "missing id", yaml: "transmitters: [{backend: log}]", want: "id is required"},
		{name: "duplicate id", yaml: "transmitters: [{id: a}, {id: a}]", want: "duplicate id"},
		{name: "gpio without pin", yaml: "transmitters: [{id: a, backend: gpio}]", want: "requires pin"},
		{name: "bad backend", yaml: "transmitters: [{id: a, backend: serial}]", want: "unknown backend"},
		{name: "bad policy", yaml: "transmitters: [{id: a, policy: lifo}]", want: "unknown transmit policy"},
		{name: "bad duty", yaml: "transmitters: [{id: a, carrier_duty_percent: 120}]", want: "carrier_duty_percent"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestParse_RecorderBackend(t *testing.T) {
	cfg, err := Parse([]byte("transmitters: [{id: dry, backend: recorder}]"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Transmitters[0].Backend != "recorder" {
		t.Errorf("backend = %q", cfg.Transmitters[0].Backend)
	}
}

func TestParse_DurationErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{name: "negative cleanup interval", yaml: "ledger: {cleanup_interval: -1h}", want: "cleanup_interval"},
		{name: "negative retention", yaml: "ledger: {retention_days: -3}", want: "retention_days"},
		{name: "negative loop interval", yaml: "loop_interval: -1s", want: "loop_interval"},
		{name: "negative shutdown timeout", yaml: "shutdown_timeout: -5s", want: "shutdown_timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("loop_interval: 250ms\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LoopInterval.Duration() != 250*time.Millisecond {
		t.Errorf("loop interval = %v", cfg.LoopInterval.Duration())
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
