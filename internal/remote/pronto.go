package remote

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"periph.io/x/conn/v3/physic"
)

// ErrInvalidPronto is returned for malformed Pronto hex codes.
var ErrInvalidPronto = errors.New("invalid pronto code")

// prontoClock is the Pronto reference clock period in microseconds.
const prontoClock = 0.241246

// ParsePronto decodes a learned Pronto code ("0000 FFFF N1 N2 ...") into a
// frame holding the once-burst followed by the repeat-burst.
func ParsePronto(code string) (Frame, error) {
	fields := strings.Fields(code)
	if len(fields) < 4 {
		return Frame{}, fmt.Errorf("%w: %d words", ErrInvalidPronto, len(fields))
	}

	words := make([]uint16, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseUint(f, 16, 16)
		if err != nil {
			return Frame{}, fmt.Errorf("%w: word %d %q", ErrInvalidPronto, i, f)
		}
		words[i] = uint16(v)
	}

	if words[0] != 0 {
		return Frame{}, fmt.Errorf("%w: unsupported preamble %04X", ErrInvalidPronto, words[0])
	}
	if words[1] == 0 {
		return Frame{}, fmt.Errorf("%w: zero frequency word", ErrInvalidPronto)
	}

	once, repeat := int(words[2]), int(words[3])
	if len(words) != 4+2*(once+repeat) {
		return Frame{}, fmt.Errorf("%w: expected %d words, got %d", ErrInvalidPronto, 4+2*(once+repeat), len(words))
	}

	periodUs := float64(words[1]) * prontoClock
	cycles := func(n uint16) time.Duration {
		return time.Duration(math.Round(float64(n)*periodUs*1000)) * time.Nanosecond
	}

	pulses := make([]Pulse, 0, once+repeat)
	for i := 4; i < len(words); i += 2 {
		pulses = append(pulses, Pulse{Mark: cycles(words[i]), Space: cycles(words[i+1])})
	}

	carrier := physic.Frequency(math.Round(1e6 / periodUs * float64(physic.Hertz)))
	return Frame{Carrier: carrier, Pulses: pulses}, nil
}

// FormatPronto encodes the pulses of a frame as a learned Pronto code with
// every burst pair in the once-sequence.
func FormatPronto(f Frame) (string, error) {
	if f.Carrier <= 0 {
		return "", fmt.Errorf("%w: frame has no carrier", ErrInvalidPronto)
	}
	hz := float64(f.Carrier) / float64(physic.Hertz)
	freqWord := math.Round(1e6 / (hz * prontoClock))
	if freqWord < 1 || freqWord > math.MaxUint16 {
		return "", fmt.Errorf("%w: carrier %v out of range", ErrInvalidPronto, f.Carrier)
	}
	periodUs := freqWord * prontoClock

	words := []string{"0000", fmt.Sprintf("%04X", int(freqWord)), fmt.Sprintf("%04X", len(f.Pulses)), "0000"}
	for _, p := range f.Pulses {
		for _, d := range []time.Duration{p.Mark, p.Space} {
			n := math.Round(float64(d.Nanoseconds()) / 1000 / periodUs)
			if n > math.MaxUint16 {
				return "", fmt.Errorf("%w: duration %v too long", ErrInvalidPronto, d)
			}
			words = append(words, fmt.Sprintf("%04X", int(n)))
		}
	}
	return strings.Join(words, " "), nil
}

// ProntoCopies encodes every copy the frame sends as its own Pronto code.
// The silence after a copy (SendWait between copies, Pause after the last)
// is folded into that copy's final space, so replaying the codes back to
// back reproduces the frame's airtime.
func ProntoCopies(f Frame) ([]string, error) {
	if len(f.Pulses) == 0 {
		return nil, nil
	}
	times := f.Times()
	codes := make([]string, 0, times)
	for i := 0; i < times; i++ {
		copyFrame := Frame{Carrier: f.Carrier, Pulses: append([]Pulse(nil), f.Pulses...)}
		last := &copyFrame.Pulses[len(copyFrame.Pulses)-1]
		if i+1 < times {
			last.Space += f.SendWait
		} else {
			last.Space += f.Pause
		}
		code, err := FormatPronto(copyFrame)
		if err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	return codes, nil
}
