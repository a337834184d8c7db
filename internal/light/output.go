package light

import "context"

// Output is the capability a light driver offers to the host: accept a
// new state and turn it into light.
type Output interface {
	Traits() Traits
	WriteState(ctx context.Context, v Values) error
}

// Component is the lifecycle the host scheduler drives. Setup runs once
// before the first Loop; Loop runs on every scheduler tick.
type Component interface {
	Name() string
	Setup(ctx context.Context) error
	Loop(ctx context.Context)
	DumpConfig()
}
