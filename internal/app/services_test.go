package app

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dokzlo13/irlightd/internal/config"
	"github.com/dokzlo13/irlightd/internal/host"
	"github.com/dokzlo13/irlightd/internal/transmitter"
)

func testConfig(t *testing.T, dir string) *config.Config {
	t.Helper()
	yaml := fmt.Sprintf(`
database:
  path: %s
loop_interval: 50ms
shutdown_timeout: 2s
transmitters:
  - id: ir0
    backend: mode2
    path: %s
lights:
  - name: bedroom
    platform: nec_light
    channel: 2
    restore: true
  - name: ceiling
    platform: sara_light
`, filepath.Join(dir, "irlightd.sqlite"), filepath.Join(dir, "ir.mode2"))

	cfg, err := config.Parse([]byte(yaml))
	require.NoError(t, err)
	return cfg
}

func ptr[T any](v T) *T { return &v }

func TestServices_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t, dir)

	s, err := NewServices(cfg, dir)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Start(ctx))

	c, ok := s.Lights.Lights.Get("bedroom")
	require.True(t, ok)
	_, err = c.Apply(ctx, host.Command{State: ptr(true), Brightness: ptr(1.0), ColorTemperature: ptr(154.0)})
	require.NoError(t, err)

	tx, _ := s.Transmitters.Get("ir0")
	require.NoError(t, tx.Flush(ctx))

	assert.Eventually(t, func() bool {
		entries, err := s.Ledger.GetBySource("bedroom", 10)
		if err != nil {
			return false
		}
		for _, e := range entries {
			if e.EventType == transmitter.EventCompleted {
				return true
			}
		}
		return false
	}, time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, s.Stop())

	data, err := os.ReadFile(filepath.Join(dir, "ir.mode2"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "carrier 38000\npulse 9000\nspace 4500\n"), "mode2 output:\n%s", data)
}

func TestServices_RestoreAndClearState(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t, dir)

	s, err := NewServices(cfg, dir)
	require.NoError(t, err)
	require.NoError(t, s.LightState.Set("bedroom", host.RemoteState{
		On: true, Brightness: 0.4, ColorMode: "color_temperature", ColorTemperature: 300, RGB: [3]float64{1, 1, 1},
	}))

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Start(ctx))

	c, _ := s.Lights.Lights.Get("bedroom")
	st := c.State()
	assert.True(t, st.On)
	assert.Equal(t, 0.4, st.Brightness)
	assert.Equal(t, 300.0, st.ColorTemperature)

	require.NoError(t, s.ClearState())
	_, version, err := s.LightState.Get("bedroom")
	require.NoError(t, err)
	assert.Zero(t, version)

	cancel()
	require.NoError(t, s.Stop())
}

func TestHealthService_Ready(t *testing.T) {
	h := NewHealthService(&config.Config{})
	srv := httptest.NewServer(h.handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/ready")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	h.SetReady(true)
	resp, err = http.Get(srv.URL + "/ready")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLedgerService_NonPositiveIntervalIsIdle(t *testing.T) {
	cfg := config.LedgerConfig{CleanupInterval: config.Duration(-time.Hour), RetentionDays: 30}
	s := NewLedgerService(cfg, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.runCleanup(context.Background())
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cleanup loop kept running with a negative interval")
	}
}
