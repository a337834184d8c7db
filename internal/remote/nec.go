package remote

import (
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3/physic"
)

// NEC timings.
const (
	NECCarrier = 38 * physic.KiloHertz

	necHeaderMark  = 9000 * time.Microsecond
	necHeaderSpace = 4500 * time.Microsecond
	necRepeatSpace = 2250 * time.Microsecond
	necBitMark     = 560 * time.Microsecond
	necOneSpace    = 1690 * time.Microsecond
	necZeroSpace   = 560 * time.Microsecond

	// decoder tolerance in percent
	necTolerance = 25
)

// ErrNotNEC is returned when a frame does not carry an NEC message.
var ErrNotNEC = errors.New("not an NEC frame")

// NECData is the payload of an extended NEC message.
type NECData struct {
	Address uint16
	Command uint16
}

func (d NECData) String() string {
	return fmt.Sprintf("NEC(address=0x%04X, command=0x%04X)", d.Address, d.Command)
}

// EncodeNEC builds the frame for one NEC message: header, 16 address bits
// and 16 command bits LSB first, trailing mark.
func EncodeNEC(d NECData) Frame {
	pulses := make([]Pulse, 0, 34)
	pulses = append(pulses, Pulse{Mark: necHeaderMark, Space: necHeaderSpace})
	pulses = appendBits(pulses, d.Address)
	pulses = appendBits(pulses, d.Command)
	pulses = append(pulses, Pulse{Mark: necBitMark})
	return Frame{Carrier: NECCarrier, Pulses: pulses}
}

func appendBits(pulses []Pulse, v uint16) []Pulse {
	for mask := uint16(1); mask != 0; mask <<= 1 {
		space := necZeroSpace
		if v&mask != 0 {
			space = necOneSpace
		}
		pulses = append(pulses, Pulse{Mark: necBitMark, Space: space})
	}
	return pulses
}

// DecodeNEC recovers the payload of a frame built by EncodeNEC or
// captured from a receiver. Only the first copy of a repeated frame is read.
func DecodeNEC(f Frame) (NECData, error) {
	p := f.Pulses
	if len(p) < 34 {
		return NECData{}, fmt.Errorf("%w: %d pulses", ErrNotNEC, len(p))
	}
	if !within(p[0].Mark, necHeaderMark) || !within(p[0].Space, necHeaderSpace) {
		return NECData{}, fmt.Errorf("%w: bad header %v/%v", ErrNotNEC, p[0].Mark, p[0].Space)
	}

	var bits [32]bool
	for i := 0; i < 32; i++ {
		bit := p[1+i]
		if !within(bit.Mark, necBitMark) {
			return NECData{}, fmt.Errorf("%w: bad mark at bit %d", ErrNotNEC, i)
		}
		switch {
		case within(bit.Space, necOneSpace):
			bits[i] = true
		case within(bit.Space, necZeroSpace):
			bits[i] = false
		default:
			return NECData{}, fmt.Errorf("%w: bad space at bit %d", ErrNotNEC, i)
		}
	}
	if !within(p[33].Mark, necBitMark) {
		return NECData{}, fmt.Errorf("%w: missing trailing mark", ErrNotNEC)
	}

	var d NECData
	for i := 0; i < 16; i++ {
		if bits[i] {
			d.Address |= 1 << i
		}
		if bits[16+i] {
			d.Command |= 1 << i
		}
	}
	return d, nil
}

// IsNECRepeat reports whether the frame is the short NEC repeat burst.
func IsNECRepeat(f Frame) bool {
	p := f.Pulses
	if len(p) != 2 {
		return false
	}
	return within(p[0].Mark, necHeaderMark) && within(p[0].Space, necRepeatSpace) && within(p[1].Mark, necBitMark)
}

func within(actual, expected time.Duration) bool {
	lo := expected * (100 - necTolerance) / 100
	hi := expected * (100 + necTolerance) / 100
	return actual >= lo && actual <= hi
}
