package codec

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/irlightd/internal/light"
	"github.com/dokzlo13/irlightd/internal/remote"
)

const saraAddress = 0xC580

// SaraOff turns both halves of the Sara light off.
const SaraOff uint16 = 0xF708

// The Sara light is two independent lamps, one cool and one warm, each
// with ten brightness levels.
var (
	SaraCool = [10]uint16{0xA758, 0xA55A, 0xA35C, 0xA15E, 0x9F60, 0x9D62, 0x9B64, 0x9966, 0x9768, 0x956A}
	SaraWarm = [10]uint16{0x936C, 0x916E, 0x8F70, 0x8D72, 0x8B74, 0x8976, 0x8778, 0x857A, 0x837C, 0x817E}
)

// Color levels of the Sara light, coldest first.
const (
	saraCool = iota
	saraCooler
	saraWhite
	saraWarmer
	saraWarm
)

const saraCommandDelay = 255 * time.Millisecond

type saraEncoder struct{}

func (saraEncoder) Traits() light.Traits { return VariantSara.Traits() }

// saraSplit divides brightness between the cool and warm lamps.
func saraSplit(b float64, color int) (cool, warm float64) {
	switch color {
	case saraCool:
		return b, 0
	case saraCooler:
		return b, b / 2
	case saraWhite:
		return b, b
	case saraWarmer:
		return b / 2, b
	default:
		return 0, b
	}
}

func (e saraEncoder) Encode(v light.Values) (remote.Sequence, error) {
	if err := v.Validate(); err != nil {
		return remote.Sequence{}, err
	}

	p := &plan{address: saraAddress}
	ct, brightness := v.AsColorTemperature()
	if brightness == 0 {
		p.send(SaraOff)
		return p.sequence(), nil
	}

	color := selectColorLevel(e.Traits().Mireds(ct))
	coolB, warmB := saraSplit(brightness, color)
	cool, warm := tenLevels(coolB), tenLevels(warmB)

	log.Debug().
		Int("color_level", color).
		Int("cool_level", cool).
		Int("warm_level", warm).
		Msg("Sara light levels selected")

	p.send(SaraCool[cool])
	p.wait(saraCommandDelay)
	p.send(SaraWarm[warm])
	return p.sequence(), nil
}
