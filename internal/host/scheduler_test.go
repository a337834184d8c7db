package host

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeComponent struct {
	name     string
	log      *[]string
	mu       *sync.Mutex
	setupErr error
	loops    chan struct{}
}

func (c *fakeComponent) record(s string) {
	c.mu.Lock()
	*c.log = append(*c.log, s)
	c.mu.Unlock()
}

func (c *fakeComponent) Name() string { return c.name }

func (c *fakeComponent) Setup(ctx context.Context) error {
	c.record("setup " + c.name)
	return c.setupErr
}

func (c *fakeComponent) Loop(ctx context.Context) {
	select {
	case c.loops <- struct{}{}:
	default:
	}
}

func (c *fakeComponent) DumpConfig() { c.record("dump " + c.name) }

func TestScheduler_SetupOrder(t *testing.T) {
	var log []string
	var mu sync.Mutex
	a := &fakeComponent{name: "a", log: &log, mu: &mu}
	b := &fakeComponent{name: "b", log: &log, mu: &mu}

	s := NewScheduler(0)
	s.Register(a, b)
	if err := s.Setup(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := s.Setup(context.Background()); err != nil {
		t.Fatal(err)
	}

	want := []string{"setup a", "setup b", "dump a", "dump b"}
	if len(log) != len(want) {
		t.Fatalf("log = %v, want %v", log, want)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Errorf("log[%d] = %q, want %q", i, log[i], want[i])
		}
	}
}

func TestScheduler_SetupFailureAborts(t *testing.T) {
	var log []string
	var mu sync.Mutex
	boom := errors.New("boom")
	a := &fakeComponent{name: "a", log: &log, mu: &mu, setupErr: boom}
	b := &fakeComponent{name: "b", log: &log, mu: &mu}

	s := NewScheduler(0)
	s.Register(a, b)
	if err := s.Setup(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if len(log) != 1 {
		t.Errorf("components after the failure ran: %v", log)
	}
}

func TestScheduler_RunLoops(t *testing.T) {
	var log []string
	var mu sync.Mutex
	c := &fakeComponent{name: "a", log: &log, mu: &mu, loops: make(chan struct{}, 1)}

	s := NewScheduler(5 * time.Millisecond)
	s.Register(c)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	select {
	case <-c.loops:
	case <-time.After(time.Second):
		t.Fatal("Loop was never called")
	}
	cancel()
	<-done
}
