package host

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/irlightd/internal/light"
)

// DefaultLoopInterval is the tick used when none is configured.
const DefaultLoopInterval = time.Second

// Scheduler drives component lifecycles: Setup once in registration
// order, then Loop on every tick.
type Scheduler struct {
	interval   time.Duration
	components []light.Component
	ready      bool
}

func NewScheduler(interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = DefaultLoopInterval
	}
	return &Scheduler{interval: interval}
}

func (s *Scheduler) Register(components ...light.Component) {
	s.components = append(s.components, components...)
}

// Setup runs every component's Setup and then DumpConfig. The first
// failure aborts. Calling it again is a no-op.
func (s *Scheduler) Setup(ctx context.Context) error {
	if s.ready {
		return nil
	}
	for _, c := range s.components {
		if err := c.Setup(ctx); err != nil {
			return fmt.Errorf("setup %s: %w", c.Name(), err)
		}
	}
	for _, c := range s.components {
		c.DumpConfig()
	}
	s.ready = true
	log.Info().Int("components", len(s.components)).Msg("Components set up")
	return nil
}

// Run calls Loop on every component until ctx is done.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, c := range s.components {
				c.Loop(ctx)
			}
		}
	}
}
