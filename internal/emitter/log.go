package emitter

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/irlightd/internal/remote"
)

// Log emits nothing but a log line per frame. Used when no IR hardware
// is attached.
type Log struct {
	name string
}

func NewLog(name string) *Log {
	return &Log{name: name}
}

func (l *Log) Emit(ctx context.Context, seq remote.Sequence) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for i, f := range seq.Frames {
		ev := log.Info().
			Str("transmitter", l.name).
			Int("frame", i).
			Int("pulses", len(f.Pulses)).
			Int("times", f.Times()).
			Dur("pause", f.Pause)

		if remote.IsNECRepeat(f) {
			ev.Str("nec", "repeat")
		} else if d, err := remote.DecodeNEC(f); err == nil {
			ev.Str("address", fmt.Sprintf("0x%04X", d.Address)).Str("command", fmt.Sprintf("0x%04X", d.Command))
		}
		ev.Msg("IR frame")
	}
	return nil
}

func (l *Log) Close() error { return nil }
