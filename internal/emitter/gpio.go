package emitter

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/dokzlo13/irlightd/internal/remote"
)

// DefaultDutyPercent is the carrier duty cycle used when none is configured.
const DefaultDutyPercent = 50

// GPIO drives an IR LED from a GPIO pin. Marks run the pin as PWM at the
// carrier frequency, spaces hold it low.
type GPIO struct {
	pin  gpio.PinOut
	duty gpio.Duty

	mu    sync.Mutex
	sleep func(ctx context.Context, d time.Duration) error
}

// NewGPIO wraps an already resolved pin.
func NewGPIO(pin gpio.PinOut, dutyPercent int) (*GPIO, error) {
	if pin == nil {
		return nil, fmt.Errorf("gpio emitter: nil pin")
	}
	if dutyPercent == 0 {
		dutyPercent = DefaultDutyPercent
	}
	if dutyPercent < 1 || dutyPercent > 100 {
		return nil, fmt.Errorf("gpio emitter: duty %d%% out of range", dutyPercent)
	}
	if err := pin.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("gpio emitter: reset %s: %w", pin, err)
	}
	return &GPIO{
		pin:   pin,
		duty:  gpio.DutyMax * gpio.Duty(dutyPercent) / 100,
		sleep: sleepCtx,
	}, nil
}

// OpenGPIO initializes the host drivers and resolves the pin by name.
func OpenGPIO(name string, dutyPercent int) (*GPIO, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("gpio emitter: host init: %w", err)
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("gpio emitter: no pin named %q", name)
	}
	log.Info().Str("pin", p.Name()).Int("duty_percent", dutyPercent).Msg("GPIO IR emitter ready")
	return NewGPIO(p, dutyPercent)
}

// Emit plays the sequence on the pin. The pin is left low, also when ctx
// is cancelled halfway.
func (g *GPIO) Emit(ctx context.Context, seq remote.Sequence) (err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	defer func() {
		if lerr := g.pin.Out(gpio.Low); lerr != nil && err == nil {
			err = lerr
		}
	}()

	for _, f := range seq.Frames {
		for _, p := range f.Expand() {
			if err := g.mark(f); err != nil {
				return err
			}
			if err := g.sleep(ctx, p.Mark); err != nil {
				return err
			}
			if p.Space <= 0 {
				continue
			}
			if err := g.pin.Out(gpio.Low); err != nil {
				return err
			}
			if err := g.sleep(ctx, p.Space); err != nil {
				return err
			}
		}
	}
	return nil
}

func (g *GPIO) mark(f remote.Frame) error {
	if f.Carrier == 0 {
		return g.pin.Out(gpio.High)
	}
	return g.pin.PWM(g.duty, f.Carrier)
}

// Close parks the pin low.
func (g *GPIO) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.pin.Out(gpio.Low); err != nil {
		return err
	}
	return g.pin.Halt()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
