package host

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/irlightd/internal/light"
)

// StateStore persists remote state per light.
type StateStore interface {
	Get(id string) (RemoteState, int64, error)
	Set(id string, v RemoteState) error
}

// Info describes where a light is attached, for listings.
type Info struct {
	Platform    string `json:"platform"`
	Channel     int    `json:"channel"`
	Transmitter string `json:"transmitter"`
}

// ControllerOptions configures a LightController.
type ControllerOptions struct {
	Gamma   float64
	Restore bool
	Store   StateStore
	Info    Info
}

// Snapshot is the externally visible view of a light.
type Snapshot struct {
	Name      string      `json:"name"`
	Info      Info        `json:"info"`
	MinMireds float64     `json:"min_mireds"`
	MaxMireds float64     `json:"max_mireds"`
	State     RemoteState `json:"state"`
}

// LightController owns the user-facing state of one output. The state
// only changes when the output accepted the write.
type LightController struct {
	name string
	out  light.Output
	opts ControllerOptions

	mu    sync.Mutex
	state RemoteState
}

func NewLightController(name string, out light.Output, opts ControllerOptions) *LightController {
	if opts.Gamma <= 0 {
		opts.Gamma = DefaultGamma
	}
	return &LightController{
		name:  name,
		out:   out,
		opts:  opts,
		state: InitialState(out.Traits()),
	}
}

func (c *LightController) Name() string { return c.name }

func (c *LightController) State() RemoteState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *LightController) Snapshot() Snapshot {
	t := c.out.Traits()
	return Snapshot{
		Name:      c.name,
		Info:      c.opts.Info,
		MinMireds: t.MinMireds,
		MaxMireds: t.MaxMireds,
		State:     c.State(),
	}
}

// Apply merges cmd into the current state and writes the result. On any
// error the previous state is kept and returned.
func (c *LightController) Apply(ctx context.Context, cmd Command) (RemoteState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	traits := c.out.Traits()
	next, err := c.state.Merge(cmd, traits)
	if err != nil {
		return c.state, err
	}

	if err := c.out.WriteState(ctx, next.Values(traits, c.opts.Gamma)); err != nil {
		log.Warn().Err(err).Str("light", c.name).Msg("Light write rejected")
		return c.state, err
	}
	c.state = next

	if c.opts.Store != nil {
		if err := c.opts.Store.Set(c.name, next); err != nil {
			log.Error().Err(err).Str("light", c.name).Msg("Failed to persist light state")
		}
	}
	return next, nil
}

// Restore re-applies the persisted state when the light is configured to.
func (c *LightController) Restore(ctx context.Context) error {
	if !c.opts.Restore || c.opts.Store == nil {
		return nil
	}
	saved, version, err := c.opts.Store.Get(c.name)
	if err != nil {
		return err
	}
	if version == 0 {
		log.Debug().Str("light", c.name).Msg("No saved state to restore")
		return nil
	}

	log.Info().Str("light", c.name).Bool("on", saved.On).Float64("brightness", saved.Brightness).Msg("Restoring light state")
	_, err = c.Apply(ctx, saved.Command())
	return err
}

// LightSet looks controllers up by name, keeping registration order.
type LightSet struct {
	mu     sync.RWMutex
	order  []string
	byName map[string]*LightController
}

func NewLightSet() *LightSet {
	return &LightSet{byName: make(map[string]*LightController)}
}

// Add registers a controller. A second controller with the same name
// replaces the first.
func (s *LightSet) Add(c *LightController) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byName[c.Name()]; !ok {
		s.order = append(s.order, c.Name())
	}
	s.byName[c.Name()] = c
}

func (s *LightSet) Get(name string) (*LightController, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.byName[name]
	return c, ok
}

func (s *LightSet) List() []*LightController {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*LightController, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.byName[name])
	}
	return out
}

// RestoreAll restores every light, logging failures.
func (s *LightSet) RestoreAll(ctx context.Context) {
	for _, c := range s.List() {
		if err := c.Restore(ctx); err != nil {
			log.Error().Err(err).Str("light", c.Name()).Msg("Failed to restore light state")
		}
	}
}
