package emitter

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/physic"

	"github.com/dokzlo13/irlightd/internal/remote"
)

type pinCall struct {
	pwm  bool
	duty gpio.Duty
	freq physic.Frequency
	lvl  gpio.Level
}

// tracePin records every output call on top of the periph test pin.
type tracePin struct {
	*gpiotest.Pin
	mu    sync.Mutex
	calls []pinCall
}

func (p *tracePin) Out(l gpio.Level) error {
	p.mu.Lock()
	p.calls = append(p.calls, pinCall{lvl: l})
	p.mu.Unlock()
	return p.Pin.Out(l)
}

func (p *tracePin) PWM(duty gpio.Duty, f physic.Frequency) error {
	p.mu.Lock()
	p.calls = append(p.calls, pinCall{pwm: true, duty: duty, freq: f})
	p.mu.Unlock()
	return p.Pin.PWM(duty, f)
}

func newTracePin() *tracePin {
	return &tracePin{Pin: &gpiotest.Pin{N: "GPIO18", Num: 18}}
}

func TestGPIO_EmitsCarrierAndSpaces(t *testing.T) {
	pin := newTracePin()
	g, err := NewGPIO(pin, 0)
	require.NoError(t, err)

	var slept []time.Duration
	g.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	pin.calls = nil

	seq := remote.Sequence{Frames: []remote.Frame{{
		Carrier: remote.NECCarrier,
		Pulses:  []remote.Pulse{{Mark: 9 * time.Millisecond, Space: 4500 * time.Microsecond}, {Mark: 560 * time.Microsecond}},
		Pause:   10 * time.Millisecond,
	}}}
	require.NoError(t, g.Emit(context.Background(), seq))

	half := gpio.DutyMax / 2
	assert.Equal(t, []pinCall{
		{pwm: true, duty: half, freq: remote.NECCarrier},
		{lvl: gpio.Low},
		{pwm: true, duty: half, freq: remote.NECCarrier},
		{lvl: gpio.Low},
		{lvl: gpio.Low},
	}, pin.calls)
	assert.Equal(t, []time.Duration{
		9 * time.Millisecond, 4500 * time.Microsecond,
		560 * time.Microsecond, 10 * time.Millisecond,
	}, slept)
	assert.Equal(t, gpio.Low, pin.Pin.L)
}

func TestGPIO_CancelLeavesPinLow(t *testing.T) {
	pin := newTracePin()
	g, err := NewGPIO(pin, 33)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = g.Emit(ctx, remote.Sequence{Frames: []remote.Frame{remote.EncodeNEC(remote.NECData{Address: 1, Command: 2})}})
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, gpio.Low, pin.calls[len(pin.calls)-1].lvl)
	assert.False(t, pin.calls[len(pin.calls)-1].pwm)
}

func TestNewGPIO_Validation(t *testing.T) {
	_, err := NewGPIO(nil, 50)
	assert.Error(t, err)

	_, err = NewGPIO(newTracePin(), 150)
	assert.Error(t, err)
}
