// Package codec holds the encoding strategies that turn a light state
// into the IR commands a particular light model understands.
package codec

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dokzlo13/irlightd/internal/light"
	"github.com/dokzlo13/irlightd/internal/remote"
)

// Variant selects the light model.
type Variant string

const (
	VariantNEC   Variant = "nec_light"
	VariantPhoto Variant = "photo_light"
	VariantSara  Variant = "sara_light"
)

var (
	ErrUnknownVariant = errors.New("unknown platform")
	ErrInvalidChannel = errors.New("invalid channel")
)

// Variants lists every supported platform.
func Variants() []Variant {
	return []Variant{VariantNEC, VariantPhoto, VariantSara}
}

// ParseVariant maps a platform name to a Variant.
func ParseVariant(s string) (Variant, error) {
	v := Variant(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Variants() {
		if v == known {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownVariant, s)
}

// Traits returns what the light model can display.
func (v Variant) Traits() light.Traits {
	ct := []light.ColorMode{light.ColorModeColorTemperature}
	switch v {
	case VariantPhoto:
		// stretched cold side so that "white" lines up with 182 mireds
		return light.Traits{Modes: ct, MinMireds: 50, MaxMireds: 370}
	default:
		return light.Traits{Modes: ct, MinMireds: 154, MaxMireds: 370}
	}
}

// HasChannels reports whether the model's remote has a channel switch.
func (v Variant) HasChannels() bool {
	return v == VariantNEC
}

// ResolveChannel validates a configured channel and fills in the default.
// Models without a channel switch only accept 0.
func (v Variant) ResolveChannel(ch int) (int, error) {
	if !v.HasChannels() {
		if ch != 0 {
			return 0, fmt.Errorf("%w: %s has no channel selection, got %d", ErrInvalidChannel, v, ch)
		}
		return 0, nil
	}
	switch ch {
	case 0:
		return 1, nil
	case 1, 2:
		return ch, nil
	default:
		return 0, fmt.Errorf("%w: %s supports channels 1 and 2, got %d", ErrInvalidChannel, v, ch)
	}
}

// Encoder turns a light state into a pulse sequence. Implementations are
// pure: the same state always yields the same sequence.
type Encoder interface {
	Traits() light.Traits
	Encode(v light.Values) (remote.Sequence, error)
}

// New returns the encoder for the variant bound to a channel.
func New(variant Variant, channel int) (Encoder, error) {
	ch, err := variant.ResolveChannel(channel)
	if err != nil {
		return nil, err
	}
	switch variant {
	case VariantNEC:
		return &necEncoder{channel: ch}, nil
	case VariantPhoto:
		return &photoEncoder{}, nil
	case VariantSara:
		return &saraEncoder{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownVariant, string(variant))
	}
}

// plan accumulates frames for one state change.
type plan struct {
	address uint16
	frames  []remote.Frame
}

func (p *plan) send(cmd uint16) {
	p.frames = append(p.frames, remote.EncodeNEC(remote.NECData{Address: p.address, Command: cmd}))
}

func (p *plan) add(f remote.Frame) {
	f.Pulses = append([]remote.Pulse(nil), f.Pulses...)
	p.frames = append(p.frames, f)
}

// wait extends the silence after the last frame.
func (p *plan) wait(d time.Duration) {
	if len(p.frames) == 0 {
		return
	}
	p.frames[len(p.frames)-1].Pause += d
}

func (p *plan) sequence() remote.Sequence {
	return remote.Sequence{Frames: p.frames}
}

// Interpolation points between the five white levels of the ceiling
// lights, linear in Kelvin: 6250, 5750, 4800 and 3400 K.
var ctThresholds = [...]float64{160, 174, 208, 294}

func selectColorLevel(mireds float64) int {
	for i, t := range ctThresholds {
		if mireds < t {
			return i
		}
	}
	return len(ctThresholds)
}

// tenLevels maps brightness to one of ten steps, 0..9.
func tenLevels(b float64) int {
	l := int(b * 10)
	if l > 9 {
		return 9
	}
	return l
}
