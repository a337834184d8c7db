package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/dokzlo13/irlightd/internal/codec"
)

func TestRun_Summary(t *testing.T) {
	var buf bytes.Buffer
	if err := run(&buf, "nec_light", 2, 1, 0, "1,0,0", "summary"); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "0xD12E") {
		t.Errorf("channel 2 red should send 0xD12E:\n%s", out)
	}
}

func TestRun_Formats(t *testing.T) {
	var buf bytes.Buffer
	if err := run(&buf, "sara_light", 0, 0.5, 250, "", "mode2"); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(buf.String(), "carrier 38000\n") {
		t.Errorf("unexpected mode2 output:\n%s", buf.String())
	}

	buf.Reset()
	if err := run(&buf, "photo_light", 0, 0, 0, "", "pronto"); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "0000 ") {
		t.Errorf("photo off should be two pronto codes, got:\n%s", buf.String())
	}
}

func TestRun_ProntoRepeatsEveryCopy(t *testing.T) {
	enc, err := codec.New(codec.VariantPhoto, 0)
	if err != nil {
		t.Fatal(err)
	}
	tr := enc.Traits()
	// cold with a warmer adjustment, followed by the repeat burst
	mireds := tr.MinMireds + 0.2*(tr.MaxMireds-tr.MinMireds)

	var buf bytes.Buffer
	if err := run(&buf, "photo_light", 0, 1, mireds, "", "pronto"); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	repeats := 0
	for _, l := range lines {
		if strings.HasPrefix(l, "0000 006D 0002 0000 0159 0057 0015 ") {
			repeats++
		}
	}
	if repeats != 8 || len(lines) != 11 {
		t.Errorf("want 3 commands and 8 repeat copies, got %d lines (%d repeats):\n%s", len(lines), repeats, buf.String())
	}
	if last := lines[len(lines)-1]; last != "0000 006D 0002 0000 0159 0057 0015 06C3" {
		t.Errorf("last repeat copy = %q", last)
	}
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name     string
		platform string
		channel  int
		rgb      string
		format   string
	}{
		{"unknown platform", "zigbee", 0, "", "summary"},
		{"bad channel", "nec_light", 3, "", "summary"},
		{"bad rgb", "nec_light", 1, "1,0", "summary"},
		{"bad format", "nec_light", 1, "", "json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := run(&buf, tt.platform, tt.channel, 1, 0, tt.rgb, tt.format); err == nil {
				t.Error("expected error")
			}
		})
	}
}
