// Package driver implements the IR light driver: it turns a light state
// into a pulse sequence and hands it to a shared transmitter.
package driver

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/irlightd/internal/codec"
	"github.com/dokzlo13/irlightd/internal/light"
	"github.com/dokzlo13/irlightd/internal/remote"
	"github.com/dokzlo13/irlightd/internal/transmitter"
)

// Transmitter is the part of a transmitter a driver uses. The driver does
// not own it and never closes it.
type Transmitter interface {
	ID() string
	Transmit(ctx context.Context, req transmitter.Request) error
}

// Driver is one IR-controlled light. It keeps no state between writes.
type Driver struct {
	cfg     Config
	encoder codec.Encoder
	tx      Transmitter
}

var (
	_ light.Output    = (*Driver)(nil)
	_ light.Component = (*Driver)(nil)
)

// New binds a validated config to a transmitter.
func New(cfg Config, tx Transmitter) (*Driver, error) {
	if t, ok := tx.(*transmitter.Transmitter); tx == nil || (ok && t == nil) {
		return nil, &ConfigError{Light: cfg.Name, Field: "transmitter", Reason: "missing transmitter reference"}
	}
	enc, err := codec.New(cfg.Variant, cfg.Channel)
	if err != nil {
		return nil, &ConfigError{Light: cfg.Name, Field: "platform", Reason: err.Error(), Err: err}
	}
	return &Driver{cfg: cfg, encoder: enc, tx: tx}, nil
}

func (d *Driver) Name() string         { return d.cfg.Name }
func (d *Driver) Config() Config       { return d.cfg }
func (d *Driver) Traits() light.Traits { return d.encoder.Traits() }

// Encode computes the sequence for v without sending it.
func (d *Driver) Encode(v light.Values) (remote.Sequence, error) {
	if err := v.Validate(); err != nil {
		return remote.Sequence{}, fmt.Errorf("%s: %w", d.cfg.Name, err)
	}
	return d.encoder.Encode(v)
}

// WriteState encodes v and submits it. A busy transmitter is reported to
// the caller as is; nothing is retried.
func (d *Driver) WriteState(ctx context.Context, v light.Values) error {
	seq, err := d.Encode(v)
	if err != nil {
		return err
	}

	ct, brightness := v.AsColorTemperature()
	log.Debug().
		Str("light", d.cfg.Name).
		Str("platform", string(d.cfg.Variant)).
		Int("channel", d.cfg.Channel).
		Float64("brightness", brightness).
		Float64("color_temperature", ct).
		Int("frames", len(seq.Frames)).
		Msg("Writing light state")

	return d.tx.Transmit(ctx, transmitter.Request{
		ID:       uuid.NewString(),
		Source:   d.cfg.Name,
		Channel:  d.cfg.Channel,
		Sequence: seq,
	})
}

// Setup has nothing to prepare; the transmitter is set up by its owner.
func (d *Driver) Setup(ctx context.Context) error { return nil }

func (d *Driver) Loop(ctx context.Context) {}

func (d *Driver) DumpConfig() {
	t := d.Traits()
	log.Info().
		Str("light", d.cfg.Name).
		Str("platform", string(d.cfg.Variant)).
		Int("channel", d.cfg.Channel).
		Str("transmitter", d.tx.ID()).
		Float64("min_mireds", t.MinMireds).
		Float64("max_mireds", t.MaxMireds).
		Msg("IR light")
}
