// Command irencode prints the IR signal a light platform would send for a
// given state, without touching any hardware.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/irlightd/internal/codec"
	"github.com/dokzlo13/irlightd/internal/light"
	"github.com/dokzlo13/irlightd/internal/remote"
)

func main() {
	platform := flag.String("platform", string(codec.VariantNEC), "Light platform: "+variantList())
	channel := flag.Int("channel", 0, "Remote channel (nec_light only)")
	brightness := flag.Float64("brightness", 1, "Brightness in [0,1], 0 turns the light off")
	mireds := flag.Float64("mireds", 0, "Color temperature in mireds (default: middle of the range)")
	rgb := flag.String("rgb", "", "RGB color as r,g,b in [0,1]; overrides -mireds")
	format := flag.String("format", "summary", "Output: summary, mode2 or pronto")
	verbose := flag.Bool("v", false, "Log encoder decisions")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	if err := run(os.Stdout, *platform, *channel, *brightness, *mireds, *rgb, *format); err != nil {
		fmt.Fprintln(os.Stderr, "irencode:", err)
		os.Exit(1)
	}
}

func run(w io.Writer, platform string, channel int, brightness, mireds float64, rgb, format string) error {
	variant, err := codec.ParseVariant(platform)
	if err != nil {
		return err
	}
	enc, err := codec.New(variant, channel)
	if err != nil {
		return err
	}

	v, err := values(enc.Traits(), brightness, mireds, rgb)
	if err != nil {
		return err
	}
	seq, err := enc.Encode(v)
	if err != nil {
		return err
	}

	switch format {
	case "summary":
		return writeSummary(w, seq)
	case "mode2":
		return remote.WriteMode2(w, seq)
	case "pronto":
		return writePronto(w, seq)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func values(t light.Traits, brightness, mireds float64, rgb string) (light.Values, error) {
	if brightness <= 0 {
		return light.Off(), nil
	}
	if rgb != "" {
		parts := strings.Split(rgb, ",")
		if len(parts) != 3 {
			return light.Values{}, fmt.Errorf("-rgb wants r,g,b")
		}
		var c [3]float64
		for i, p := range parts {
			f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
			if err != nil {
				return light.Values{}, fmt.Errorf("-rgb: %w", err)
			}
			c[i] = f
		}
		v := light.RGB(c[0], c[1], c[2])
		v.Brightness = brightness
		return v, nil
	}
	if mireds == 0 {
		mireds = (t.MinMireds + t.MaxMireds) / 2
	}
	return light.ColorTemperature(t.Normalize(mireds), brightness), nil
}

func writeSummary(w io.Writer, seq remote.Sequence) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FRAME\tADDRESS\tCOMMAND\tTIMES\tPAUSE")
	for i, f := range seq.Frames {
		addr, cmd := "-", "-"
		if remote.IsNECRepeat(f) {
			cmd = "repeat"
		} else if d, err := remote.DecodeNEC(f); err == nil {
			addr = fmt.Sprintf("0x%04X", d.Address)
			cmd = fmt.Sprintf("0x%04X", d.Command)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\n", i, addr, cmd, f.Times(), f.Pause)
	}
	fmt.Fprintf(tw, "\ntotal airtime\t%s\n", seq.Duration())
	return tw.Flush()
}

func writePronto(w io.Writer, seq remote.Sequence) error {
	for _, f := range seq.Frames {
		codes, err := remote.ProntoCopies(f)
		if err != nil {
			return err
		}
		for _, code := range codes {
			if _, err := fmt.Fprintln(w, code); err != nil {
				return err
			}
		}
	}
	return nil
}

func variantList() string {
	names := make([]string, 0, len(codec.Variants()))
	for _, v := range codec.Variants() {
		names = append(names, string(v))
	}
	return strings.Join(names, ", ")
}
