package remote

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"periph.io/x/conn/v3/physic"
)

// WriteMode2 writes the sequence in LIRC mode2 text form: a carrier line
// whenever the carrier changes, then alternating pulse/space lines in
// microseconds. Zero-length spaces are omitted.
func WriteMode2(w io.Writer, s Sequence) error {
	bw := bufio.NewWriter(w)
	var carrier physic.Frequency
	for _, f := range s.Frames {
		if f.Carrier != carrier {
			carrier = f.Carrier
			fmt.Fprintf(bw, "carrier %d\n", int64(carrier/physic.Hertz))
		}
		for _, p := range f.Expand() {
			fmt.Fprintf(bw, "pulse %d\n", p.Mark.Microseconds())
			if p.Space > 0 {
				fmt.Fprintf(bw, "space %d\n", p.Space.Microseconds())
			}
		}
	}
	return bw.Flush()
}

// ReadMode2 parses LIRC mode2 text back into pulses. Leading spaces and
// unknown lines (timeouts, comments) are skipped. The carrier defaults to
// the NEC carrier when the stream does not declare one.
func ReadMode2(r io.Reader) (physic.Frequency, []Pulse, error) {
	carrier := NECCarrier
	var pulses []Pulse

	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) != 2 {
			continue
		}
		n, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return 0, nil, fmt.Errorf("mode2 line %d: %w", line, err)
		}
		switch fields[0] {
		case "carrier":
			carrier = physic.Frequency(n) * physic.Hertz
		case "pulse":
			pulses = append(pulses, Pulse{Mark: time.Duration(n) * time.Microsecond})
		case "space":
			if len(pulses) > 0 {
				pulses[len(pulses)-1].Space += time.Duration(n) * time.Microsecond
			}
		}
	}
	if err := sc.Err(); err != nil {
		return 0, nil, err
	}
	return carrier, pulses, nil
}
