// Package remote models timed carrier-modulated signals and the IR
// protocols the light platforms speak on top of them.
package remote

import (
	"time"

	"periph.io/x/conn/v3/physic"
)

// Pulse is one mark (carrier on) followed by one space (carrier off).
type Pulse struct {
	Mark  time.Duration
	Space time.Duration
}

// Frame is one protocol message.
//
// The pulses are sent SendTimes times (0 means once) with SendWait of
// silence between copies, then the line stays idle for Pause before the
// next frame.
type Frame struct {
	Carrier   physic.Frequency
	Pulses    []Pulse
	SendTimes int
	SendWait  time.Duration
	Pause     time.Duration
}

// Times returns the effective number of copies sent.
func (f Frame) Times() int {
	if f.SendTimes < 1 {
		return 1
	}
	return f.SendTimes
}

// Expand returns the pulses exactly as they go on the line, with repeats
// and the trailing pause folded into spaces.
func (f Frame) Expand() []Pulse {
	times := f.Times()
	out := make([]Pulse, 0, len(f.Pulses)*times)
	for i := 0; i < times; i++ {
		out = append(out, f.Pulses...)
		if i+1 < times && len(out) > 0 {
			out[len(out)-1].Space += f.SendWait
		}
	}
	if len(out) > 0 {
		out[len(out)-1].Space += f.Pause
	}
	return out
}

// Duration is the airtime of the frame including repeats and pause.
func (f Frame) Duration() time.Duration {
	var d time.Duration
	for _, p := range f.Expand() {
		d += p.Mark + p.Space
	}
	return d
}

// Sequence is the ordered list of frames produced for one state change.
type Sequence struct {
	Frames []Frame
}

// IsEmpty reports whether there is nothing to send.
func (s Sequence) IsEmpty() bool {
	for _, f := range s.Frames {
		if len(f.Pulses) > 0 {
			return false
		}
	}
	return true
}

// Pulses flattens the sequence into mark/space pairs.
func (s Sequence) Pulses() []Pulse {
	var out []Pulse
	for _, f := range s.Frames {
		out = append(out, f.Expand()...)
	}
	return out
}

// Duration is the total airtime of the sequence.
func (s Sequence) Duration() time.Duration {
	var d time.Duration
	for _, f := range s.Frames {
		d += f.Duration()
	}
	return d
}

// Split cuts a flat pulse train into frames wherever a space reaches gap.
// The separating space becomes the frame's Pause.
func Split(carrier physic.Frequency, pulses []Pulse, gap time.Duration) []Frame {
	var frames []Frame
	cur := Frame{Carrier: carrier}
	for _, p := range pulses {
		if p.Space >= gap {
			cur.Pulses = append(cur.Pulses, Pulse{Mark: p.Mark})
			cur.Pause = p.Space
			frames = append(frames, cur)
			cur = Frame{Carrier: carrier}
			continue
		}
		cur.Pulses = append(cur.Pulses, p)
	}
	if len(cur.Pulses) > 0 {
		frames = append(frames, cur)
	}
	return frames
}
