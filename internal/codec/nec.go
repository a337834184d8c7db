package codec

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/irlightd/internal/light"
	"github.com/dokzlo13/irlightd/internal/remote"
)

const necAddress = 0x6D82

// NEC ceiling light commands (channel 1).
const (
	NECOn       uint16 = 0x42BD
	NECOff      uint16 = 0x41BE
	NECMaxWarm  uint16 = 0x51AE
	NECMaxWhite uint16 = 0x52AD
	NECMidWhite uint16 = 0x5DA2
	NECMaxCool  uint16 = 0x53AC
	NECBrighter uint16 = 0x45BA
	NECDimmer   uint16 = 0x44BB
	NECDimmest  uint16 = 0x1DE2
	NECWarmer   uint16 = 0x57A8
	NECCooler   uint16 = 0x58A7
)

// Color levels of the NEC ceiling light, coldest first.
const (
	necActive  = iota // 6500K
	necRefresh        // 6000K
	necNatural        // 5500K
	necUnwind         // 4100K
	necRelax          // 2700K
)

const (
	necBrightnessMid = 5
	necBrightnessMax = 9
)

// NECCommandDelay separates consecutive commands to the ceiling light.
const NECCommandDelay = 255 * time.Millisecond

// NECChannel2 rewrites a channel 1 command for a remote set to channel 2.
func NECChannel2(cmd uint16) uint16 {
	cmd |= 0x8000
	cmd &^= 0x0080
	return cmd
}

type necEncoder struct {
	channel int
}

func (e *necEncoder) Traits() light.Traits { return VariantNEC.Traits() }

func (e *necEncoder) command(cmd uint16) uint16 {
	if e.channel == 2 {
		return NECChannel2(cmd)
	}
	return cmd
}

// Encode maps the state onto an absolute code when one exists. Otherwise
// the light is anchored at mid white and stepped from there, so the
// result never depends on what was sent before.
func (e *necEncoder) Encode(v light.Values) (remote.Sequence, error) {
	if err := v.Validate(); err != nil {
		return remote.Sequence{}, err
	}

	p := &plan{address: necAddress}
	send := func(cmd uint16) {
		if len(p.frames) > 0 {
			p.wait(NECCommandDelay)
		}
		p.send(e.command(cmd))
	}

	ct, brightness := v.AsColorTemperature()
	if brightness == 0 {
		send(NECOff)
		return p.sequence(), nil
	}

	level := tenLevels(brightness)
	color := selectColorLevel(e.Traits().Mireds(ct))

	log.Debug().
		Int("channel", e.channel).
		Int("brightness_level", level).
		Int("color_level", color).
		Msg("NEC light levels selected")

	switch {
	case level == necBrightnessMax && color == necActive:
		send(NECMaxCool)
	case level == necBrightnessMax && color == necNatural:
		send(NECMaxWhite)
	case level == necBrightnessMid && color == necNatural:
		send(NECMidWhite)
	case level == necBrightnessMax && color == necRelax:
		send(NECMaxWarm)
	default:
		send(NECMidWhite)
		steps(color-necNatural, NECWarmer, NECCooler, send)
		steps(level-necBrightnessMid, NECBrighter, NECDimmer, send)
	}
	return p.sequence(), nil
}

func steps(delta int, up, down uint16, send func(uint16)) {
	cmd := up
	if delta < 0 {
		cmd, delta = down, -delta
	}
	for i := 0; i < delta; i++ {
		send(cmd)
	}
}
