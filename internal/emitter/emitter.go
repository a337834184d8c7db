// Package emitter provides the sinks a transmitter puts pulses on: a GPIO
// pin, a LIRC mode2 stream, the log, or memory.
package emitter

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dokzlo13/irlightd/internal/transmitter"
)

// Backend names accepted by Open.
const (
	BackendGPIO     = "gpio"
	BackendMode2    = "mode2"
	BackendLog      = "log"
	// BackendRecorder keeps sequences in memory and never touches hardware.
	BackendRecorder = "recorder"
)

// Config selects and parameterizes a backend.
type Config struct {
	Backend     string
	Pin         string
	DutyPercent int
	// Path is the mode2 output file; "-" or empty writes to stdout.
	Path string
	Name string
}

// Open builds the emitter described by cfg.
func Open(cfg Config) (transmitter.Emitter, error) {
	switch strings.ToLower(cfg.Backend) {
	case BackendGPIO:
		if cfg.Pin == "" {
			return nil, fmt.Errorf("gpio backend requires a pin")
		}
		return OpenGPIO(cfg.Pin, cfg.DutyPercent)
	case BackendMode2:
		return OpenMode2(cfg.Path)
	case "", BackendLog:
		return NewLog(cfg.Name), nil
	case BackendRecorder:
		return NewRecorder(), nil
	default:
		return nil, fmt.Errorf("unknown emitter backend %q", cfg.Backend)
	}
}

// OpenMode2 appends mode2 text to the file at path.
func OpenMode2(path string) (*Mode2, error) {
	if path == "" || path == "-" {
		return NewMode2(nopCloser{os.Stdout}), nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open mode2 output: %w", err)
	}
	return NewMode2(f), nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
