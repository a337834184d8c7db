// Package light defines the state a light output receives and the
// capability interfaces a light driver implements for the host.
package light

import (
	"errors"
	"fmt"
	"math"
)

// ErrOutOfRange is returned when a state carries a channel outside [0,1].
// The host clamps before writing, so seeing this means an upstream bug.
var ErrOutOfRange = errors.New("light state out of range")

// ColorMode selects which channels of Values are meaningful
type ColorMode string

const (
	ColorModeColorTemperature ColorMode = "color_temperature"
	ColorModeRGB              ColorMode = "rgb"
)

// Values is a snapshot of the normalized channels written to an output.
// Every channel is in [0,1]. ColorTemperature is 0 for the coldest white
// the output supports and 1 for the warmest.
type Values struct {
	Mode             ColorMode `json:"mode"`
	Brightness       float64   `json:"brightness"`
	ColorTemperature float64   `json:"color_temperature"`
	Red              float64   `json:"red"`
	Green            float64   `json:"green"`
	Blue             float64   `json:"blue"`
}

// Off returns the all-zero state.
func Off() Values {
	return Values{Mode: ColorModeColorTemperature}
}

// ColorTemperature returns a white state.
func ColorTemperature(ct, brightness float64) Values {
	return Values{Mode: ColorModeColorTemperature, Brightness: brightness, ColorTemperature: ct}
}

// RGB returns a full brightness RGB state.
func RGB(r, g, b float64) Values {
	return Values{Mode: ColorModeRGB, Brightness: 1, Red: r, Green: g, Blue: b}
}

// Validate reports the first channel outside [0,1]. It never clamps.
func (v Values) Validate() error {
	channels := []struct {
		name string
		val  float64
	}{
		{"brightness", v.Brightness},
		{"color_temperature", v.ColorTemperature},
		{"red", v.Red},
		{"green", v.Green},
		{"blue", v.Blue},
	}
	for _, c := range channels {
		if math.IsNaN(c.val) || c.val < 0 || c.val > 1 {
			return fmt.Errorf("%w: %s=%v", ErrOutOfRange, c.name, c.val)
		}
	}
	switch v.Mode {
	case ColorModeColorTemperature, ColorModeRGB, "":
	default:
		return fmt.Errorf("%w: unknown color mode %q", ErrOutOfRange, v.Mode)
	}
	return nil
}

// AsColorTemperature reduces the state to a white point and a brightness.
// RGB states map red to the warmest white and blue to the coldest.
func (v Values) AsColorTemperature() (ct, brightness float64) {
	if v.Mode != ColorModeRGB {
		return v.ColorTemperature, v.Brightness
	}
	peak := math.Max(v.Red, math.Max(v.Green, v.Blue))
	if peak == 0 {
		return 0.5, 0
	}
	ct = clamp01(0.5 + (v.Red-v.Blue)/(2*peak))
	return ct, v.Brightness * peak
}

// IsOff reports whether the state turns the light off.
func (v Values) IsOff() bool {
	_, b := v.AsColorTemperature()
	return b == 0
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
