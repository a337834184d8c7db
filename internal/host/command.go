// Package host is the small lighting framework the IR drivers plug into:
// it keeps the user-facing state of each light, turns commands into
// light values and drives component lifecycles.
package host

import (
	"errors"
	"fmt"
	"math"

	"github.com/dokzlo13/irlightd/internal/light"
)

// ErrInvalidCommand is returned for commands that cannot be clamped into
// range, such as NaN values.
var ErrInvalidCommand = errors.New("invalid light command")

// DefaultGamma is applied to brightness when a light does not configure one.
const DefaultGamma = 2.8

// Command is a partial update. Nil fields keep their current value.
// ColorTemperature is in mireds.
type Command struct {
	State            *bool       `json:"state,omitempty"`
	Brightness       *float64    `json:"brightness,omitempty"`
	ColorTemperature *float64    `json:"color_temperature,omitempty"`
	RGB              *[3]float64 `json:"rgb,omitempty"`
}

// IsEmpty reports whether the command changes nothing.
func (c Command) IsEmpty() bool {
	return c.State == nil && c.Brightness == nil && c.ColorTemperature == nil && c.RGB == nil
}

// RemoteState is what a user sees and sets: on/off, linear brightness
// and color in the mode last chosen.
type RemoteState struct {
	On               bool            `json:"on"`
	Brightness       float64         `json:"brightness"`
	ColorMode        light.ColorMode `json:"color_mode"`
	ColorTemperature float64         `json:"color_temperature"`
	RGB              [3]float64      `json:"rgb"`
}

// InitialState is the state of a light nobody has set yet: off, full
// brightness, neutral white.
func InitialState(t light.Traits) RemoteState {
	return RemoteState{
		Brightness:       1,
		ColorMode:        light.ColorModeColorTemperature,
		ColorTemperature: (t.MinMireds + t.MaxMireds) / 2,
		RGB:              [3]float64{1, 1, 1},
	}
}

// Merge applies the command to the state, clamping every field into the
// supported range. Setting any color or brightness without an explicit
// state turns the light on.
func (s RemoteState) Merge(cmd Command, t light.Traits) (RemoteState, error) {
	next := s
	if cmd.Brightness != nil {
		b, err := clampUnit("brightness", *cmd.Brightness)
		if err != nil {
			return s, err
		}
		next.Brightness = b
	}
	if cmd.ColorTemperature != nil {
		m := *cmd.ColorTemperature
		if math.IsNaN(m) {
			return s, fmt.Errorf("%w: color_temperature is NaN", ErrInvalidCommand)
		}
		next.ColorTemperature = t.ClampMireds(m)
		next.ColorMode = light.ColorModeColorTemperature
	}
	if cmd.RGB != nil {
		for i, name := range [3]string{"red", "green", "blue"} {
			v, err := clampUnit(name, cmd.RGB[i])
			if err != nil {
				return s, err
			}
			next.RGB[i] = v
		}
		next.ColorMode = light.ColorModeRGB
	}

	switch {
	case cmd.State != nil:
		next.On = *cmd.State
	case !cmd.IsEmpty():
		next.On = true
	}
	return next, nil
}

// Values converts the state into what the output receives, with gamma
// correction applied to brightness.
func (s RemoteState) Values(t light.Traits, gamma float64) light.Values {
	if !s.On || s.Brightness == 0 {
		return light.Off()
	}
	if gamma <= 0 {
		gamma = DefaultGamma
	}
	b := math.Pow(s.Brightness, gamma)

	if s.ColorMode == light.ColorModeRGB {
		return light.Values{
			Mode:       light.ColorModeRGB,
			Brightness: b,
			Red:        s.RGB[0],
			Green:      s.RGB[1],
			Blue:       s.RGB[2],
		}
	}
	return light.ColorTemperature(t.Normalize(s.ColorTemperature), b)
}

// Command returns the command that recreates the state.
func (s RemoteState) Command() Command {
	on := s.On
	b := s.Brightness
	cmd := Command{State: &on, Brightness: &b}
	if s.ColorMode == light.ColorModeRGB {
		rgb := s.RGB
		cmd.RGB = &rgb
	} else {
		ct := s.ColorTemperature
		cmd.ColorTemperature = &ct
	}
	return cmd
}

func clampUnit(field string, v float64) (float64, error) {
	if math.IsNaN(v) {
		return 0, fmt.Errorf("%w: %s is NaN", ErrInvalidCommand, field)
	}
	return math.Max(0, math.Min(1, v)), nil
}
