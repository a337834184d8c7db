package driver

import (
	"errors"
	"fmt"

	"github.com/dokzlo13/irlightd/internal/codec"
)

// ConfigError reports an invalid light configuration. It is returned at
// construction time, never at write time.
type ConfigError struct {
	Light  string
	Field  string
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Light == "" {
		return fmt.Sprintf("invalid light config: %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid light config %q: %s: %s", e.Light, e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Config is the immutable configuration of one driver.
type Config struct {
	Name    string
	Variant codec.Variant
	Channel int
}

// NewConfig validates and normalizes a light configuration. A zero
// channel on a model with channel selection resolves to channel 1.
func NewConfig(name string, platform string, channel int) (Config, error) {
	if name == "" {
		return Config{}, &ConfigError{Field: "name", Reason: "must not be empty"}
	}
	variant, err := codec.ParseVariant(platform)
	if err != nil {
		return Config{}, &ConfigError{Light: name, Field: "platform", Reason: err.Error(), Err: err}
	}
	ch, err := variant.ResolveChannel(channel)
	if err != nil {
		return Config{}, &ConfigError{Light: name, Field: "channel", Reason: err.Error(), Err: err}
	}
	return Config{Name: name, Variant: variant, Channel: ch}, nil
}

// IsConfigError reports whether err carries a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
