package driver

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/dokzlo13/irlightd/internal/codec"
	"github.com/dokzlo13/irlightd/internal/emitter"
	"github.com/dokzlo13/irlightd/internal/light"
	"github.com/dokzlo13/irlightd/internal/remote"
	"github.com/dokzlo13/irlightd/internal/transmitter"
)

type fakeTx struct {
	mu   sync.Mutex
	reqs []transmitter.Request
	err  error
}

func (f *fakeTx) ID() string { return "fake" }

func (f *fakeTx) Transmit(ctx context.Context, req transmitter.Request) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	return f.err
}

func mustDriver(t *testing.T, name, platform string, channel int, tx Transmitter) *Driver {
	t.Helper()
	cfg, err := NewConfig(name, platform, channel)
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	d, err := New(cfg, tx)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return d
}

func TestNewConfig(t *testing.T) {
	tests := []struct {
		name      string
		light     string
		platform  string
		channel   int
		wantField string
		want      Config
	}{
		{name: "nec default channel", light: "bed", platform: "nec_light", want: Config{Name: "bed", Variant: codec.VariantNEC, Channel: 1}},
		{name: "nec channel 2", light: "bed", platform: "nec_light", channel: 2, want: Config{Name: "bed", Variant: codec.VariantNEC, Channel: 2}},
		{name: "nec channel 3", light: "bed", platform: "nec_light", channel: 3, wantField: "channel"},
		{name: "photo with channel", light: "box", platform: "photo_light", channel: 1, wantField: "channel"},
		{name: "sara", light: "hall", platform: "sara_light", want: Config{Name: "hall", Variant: codec.VariantSara}},
		{name: "unknown platform", light: "x", platform: "hue", wantField: "platform"},
		{name: "empty name", platform: "nec_light", wantField: "name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewConfig(tt.light, tt.platform, tt.channel)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if got != tt.want {
					t.Errorf("got %+v, want %+v", got, tt.want)
				}
				return
			}
			var ce *ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("expected ConfigError, got %v", err)
			}
			if ce.Field != tt.wantField {
				t.Errorf("field = %q, want %q", ce.Field, tt.wantField)
			}
		})
	}
}

func TestNew_RequiresTransmitter(t *testing.T) {
	cfg, _ := NewConfig("bed", "nec_light", 1)
	_, err := New(cfg, nil)
	if !IsConfigError(err) {
		t.Fatalf("expected ConfigError, got %v", err)
	}

	var unset *transmitter.Transmitter
	_, err = New(cfg, unset)
	if !IsConfigError(err) {
		t.Fatalf("expected ConfigError for a nil *Transmitter, got %v", err)
	}

	// hand-built config bypassing NewConfig is still checked
	_, err = New(Config{Name: "bed", Variant: codec.VariantNEC, Channel: 7}, &fakeTx{})
	if !IsConfigError(err) {
		t.Fatalf("expected ConfigError for channel 7, got %v", err)
	}
}

func TestWriteState_RedOnChannel2(t *testing.T) {
	rec := emitter.NewRecorder()
	tx := transmitter.New("ir0", rec, transmitter.Options{})
	defer tx.Close(context.Background())

	d := mustDriver(t, "bedroom", "nec_light", 2, tx)
	if err := d.WriteState(context.Background(), light.RGB(1, 0, 0)); err != nil {
		t.Fatalf("WriteState: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := tx.Flush(ctx); err != nil {
		t.Fatal(err)
	}

	want := []remote.NECData{{Address: 0x6D82, Command: 0xD12E}}
	if got := rec.Commands(); !reflect.DeepEqual(got, want) {
		t.Errorf("emitted %v, want %v", got, want)
	}
}

func TestWriteState_RequestShape(t *testing.T) {
	tx := &fakeTx{}
	d := mustDriver(t, "hall", "sara_light", 0, tx)

	state := light.ColorTemperature(0.4, 0.6)
	for i := 0; i < 2; i++ {
		if err := d.WriteState(context.Background(), state); err != nil {
			t.Fatalf("WriteState: %v", err)
		}
	}

	if len(tx.reqs) != 2 {
		t.Fatalf("got %d requests, want 2", len(tx.reqs))
	}
	a, b := tx.reqs[0], tx.reqs[1]
	if a.Source != "hall" || a.Channel != 0 {
		t.Errorf("unexpected request %+v", a)
	}
	if a.ID == "" || a.ID == b.ID {
		t.Errorf("request IDs must be unique, got %q and %q", a.ID, b.ID)
	}
	if !reflect.DeepEqual(a.Sequence, b.Sequence) {
		t.Error("same state produced different sequences")
	}
}

func TestWriteState_OutOfRangeIsNotSent(t *testing.T) {
	tx := &fakeTx{}
	d := mustDriver(t, "box", "photo_light", 0, tx)

	err := d.WriteState(context.Background(), light.ColorTemperature(-0.1, 0.5))
	if !errors.Is(err, light.ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
	if len(tx.reqs) != 0 {
		t.Errorf("out of range state reached the transmitter")
	}
}

func TestWriteState_BusyPropagates(t *testing.T) {
	rec := emitter.NewRecorder()
	rec.Hold()
	tx := transmitter.New("ir0", rec, transmitter.Options{QueueSize: 1})
	defer tx.Close(context.Background())

	d := mustDriver(t, "bedroom", "nec_light", 1, tx)
	ctx := context.Background()

	if err := d.WriteState(ctx, light.Off()); err != nil {
		t.Fatal(err)
	}
	// wait until the first write is on the line
	deadline := time.Now().Add(2 * time.Second)
	for !tx.Stats().Busy {
		if time.Now().After(deadline) {
			t.Fatal("first write never started")
		}
		time.Sleep(time.Millisecond)
	}
	if err := d.WriteState(ctx, light.ColorTemperature(1, 1)); err != nil {
		t.Fatal(err)
	}

	err := d.WriteState(ctx, light.ColorTemperature(0, 1))
	if !errors.Is(err, transmitter.ErrResourceBusy) {
		t.Fatalf("expected ErrResourceBusy, got %v", err)
	}

	rec.Release()
	fctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := tx.Flush(fctx); err != nil {
		t.Fatal(err)
	}

	want := []remote.NECData{{Address: 0x6D82, Command: codec.NECOff}, {Address: 0x6D82, Command: codec.NECMaxWarm}}
	if got := rec.Commands(); !reflect.DeepEqual(got, want) {
		t.Errorf("emitted %v, want %v", got, want)
	}
}

func TestWriteState_FakeBusy(t *testing.T) {
	tx := &fakeTx{err: transmitter.ErrResourceBusy}
	d := mustDriver(t, "bed", "nec_light", 1, tx)

	if err := d.WriteState(context.Background(), light.Off()); !errors.Is(err, transmitter.ErrResourceBusy) {
		t.Fatalf("expected busy, got %v", err)
	}
	if len(tx.reqs) != 1 {
		t.Errorf("driver retried: %d submissions", len(tx.reqs))
	}
}
