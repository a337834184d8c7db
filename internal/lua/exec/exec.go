// Package exec provides the Executor interface for thread-safe Lua execution.
// This package is separate from lua to avoid import cycles with event handlers.
package exec

import (
	"context"
	"fmt"

	glua "github.com/yuin/gopher-lua"

	"github.com/dokzlo13/irlightd/internal/lua/modules"
)

// Executor provides thread-safe Lua execution and state access.
// This interface is implemented by Runtime and used by all event handlers.
type Executor interface {
	// Do queues work to be executed on the Lua VM
	Do(ctx context.Context, work func(ctx context.Context)) bool
	// LState returns the underlying Lua state (for use within Do callbacks only)
	LState() *glua.LState
}

// CallHandler calls a script callback with one table argument built from
// args. MUST be called from within an Executor.Do() callback.
func CallHandler(L *glua.LState, fn *glua.LFunction, args map[string]any) error {
	L.Push(fn)
	L.Push(modules.MapToLuaTable(L, args))
	if err := L.PCall(1, 0, nil); err != nil {
		return fmt.Errorf("lua handler failed: %w", err)
	}
	return nil
}
