package remote

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/physic"
)

func approx(t *testing.T, want, got time.Duration) {
	t.Helper()
	diff := want - got
	if diff < 0 {
		diff = -diff
	}
	if diff > time.Microsecond {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestParsePronto_NECRepeat(t *testing.T) {
	f, err := ParsePronto("0000 006D 0002 0000 0159 0057 0015 06C3")
	require.NoError(t, err)

	require.Len(t, f.Pulses, 2)
	assert.InDelta(t, 38029, float64(f.Carrier/physic.Hertz), 1)
	approx(t, 9072*time.Microsecond, f.Pulses[0].Mark)
	approx(t, 2288*time.Microsecond, f.Pulses[0].Space)
	approx(t, 552*time.Microsecond, f.Pulses[1].Mark)
	approx(t, 45518*time.Microsecond, f.Pulses[1].Space)

	assert.True(t, IsNECRepeat(f))
}

func TestParsePronto_Errors(t *testing.T) {
	tests := []struct {
		name string
		code string
	}{
		{name: "too short", code: "0000 006D"},
		{name: "not hex", code: "0000 006D 0001 0000 00ZZ 0010"},
		{name: "raw preamble only", code: "0100 006D 0001 0000 0010 0010"},
		{name: "zero frequency", code: "0000 0000 0001 0000 0010 0010"},
		{name: "count mismatch", code: "0000 006D 0002 0000 0010 0010"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePronto(tt.code)
			if !errors.Is(err, ErrInvalidPronto) {
				t.Fatalf("expected ErrInvalidPronto, got %v", err)
			}
		})
	}
}

func TestFormatPronto_ReproducesLearnedCode(t *testing.T) {
	const code = "0000 006D 0002 0000 0159 0057 0015 06C3"
	f, err := ParsePronto(code)
	require.NoError(t, err)

	got, err := FormatPronto(f)
	require.NoError(t, err)
	assert.Equal(t, code, got)
}

func TestFormatPronto_NoCarrier(t *testing.T) {
	_, err := FormatPronto(Frame{Pulses: []Pulse{{Mark: time.Millisecond}}})
	assert.True(t, errors.Is(err, ErrInvalidPronto))
}

func TestProntoCopies_FoldsGaps(t *testing.T) {
	const code = "0000 006D 0002 0000 0159 0057 0015 06C3"
	f, err := ParsePronto(code)
	require.NoError(t, err)
	f.SendTimes = 3
	f.SendWait = 50 * time.Millisecond

	codes, err := ProntoCopies(f)
	require.NoError(t, err)
	require.Len(t, codes, 3)
	assert.NotEqual(t, code, codes[0])
	assert.Equal(t, codes[0], codes[1])
	assert.Equal(t, code, codes[2], "last copy has no pause to fold")

	back, err := ParsePronto(codes[0])
	require.NoError(t, err)
	assert.InDelta(t, float64(f.Pulses[1].Space+f.SendWait), float64(back.Pulses[1].Space), float64(30*time.Microsecond))

	f.Pause = 25 * time.Millisecond
	codes, err = ProntoCopies(f)
	require.NoError(t, err)
	back, err = ParsePronto(codes[2])
	require.NoError(t, err)
	assert.InDelta(t, float64(f.Pulses[1].Space+f.Pause), float64(back.Pulses[1].Space), float64(30*time.Microsecond))
}
