package codec

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/irlightd/internal/light"
	"github.com/dokzlo13/irlightd/internal/remote"
)

const photoAddress = 0xFE01

// Photo bulb commands.
const (
	PhotoToggle   uint16 = 0xFF00
	PhotoBrt100   uint16 = 0xF40B
	PhotoBrt50    uint16 = 0xF807
	PhotoBrt20    uint16 = 0xFC03
	PhotoBrtSleep uint16 = 0xF906
	PhotoCTCold   uint16 = 0xB748
	PhotoCTWhite  uint16 = 0xBB44
	PhotoCTWarm   uint16 = 0xBF40
	PhotoCTWarmer uint16 = 0xF50A
	PhotoCTCooler uint16 = 0xFD02
)

// learned NEC repeat burst
const photoRepeatHex = "0000 006D 0002 0000 0159 0057 0015 06C3"

const (
	photoDelay       = 25 * time.Millisecond
	photoRepeatTimes = 8
	photoRepeatWait  = 50 * time.Millisecond
)

type photoColor struct {
	threshold  float64
	base       uint16
	adjustment uint16
	name       string
}

// first entry whose threshold is >= ct wins
var photoColors = [...]photoColor{
	{0.08, PhotoCTCold, 0, "Cold"},
	{0.25, PhotoCTCold, PhotoCTWarmer, "Cold+"},
	{0.42, PhotoCTWhite, PhotoCTCooler, "White-"},
	{0.59, PhotoCTWhite, 0, "White"},
	{0.76, PhotoCTWhite, PhotoCTWarmer, "White+"},
	{0.93, PhotoCTWarm, PhotoCTCooler, "Warm-"},
	{1.00, PhotoCTWarm, 0, "Warm"},
}

type photoBrightness struct {
	threshold float64
	command   uint16
	name      string
}

var photoBrightnesses = [...]photoBrightness{
	{0.2, 0, "Off"},
	{0.5, PhotoBrtSleep, "Sleep"},
	{0.8, PhotoBrt50, "50%"},
	{1.0, PhotoBrt100, "100%"},
}

var photoRepeat = mustPronto(photoRepeatHex)

func mustPronto(code string) remote.Frame {
	f, err := remote.ParsePronto(code)
	if err != nil {
		panic(err)
	}
	return f
}

type photoEncoder struct{}

func (photoEncoder) Traits() light.Traits { return VariantPhoto.Traits() }

func (photoEncoder) Encode(v light.Values) (remote.Sequence, error) {
	if err := v.Validate(); err != nil {
		return remote.Sequence{}, err
	}

	ct, brightness := v.AsColorTemperature()
	color := photoColors[0]
	for _, c := range photoColors {
		if ct <= c.threshold {
			color = c
			break
		}
	}
	bri := photoBrightnesses[0]
	for _, b := range photoBrightnesses {
		if brightness <= b.threshold {
			bri = b
			break
		}
	}

	log.Debug().
		Str("brightness_setting", bri.name).
		Str("color_setting", color.name).
		Msg("Photo bulb settings selected")

	p := &plan{address: photoAddress}
	if bri.command == 0 {
		p.send(PhotoBrtSleep)
		p.wait(photoDelay)
		p.send(PhotoToggle)
		return p.sequence(), nil
	}

	// base color commands force full brightness, so brightness goes second
	p.send(color.base)
	p.wait(photoDelay)
	p.send(bri.command)

	if color.adjustment != 0 {
		p.wait(photoDelay)
		p.send(color.adjustment)
		repeat := photoRepeat
		repeat.SendTimes = photoRepeatTimes
		repeat.SendWait = photoRepeatWait
		p.add(repeat)
	}
	return p.sequence(), nil
}
