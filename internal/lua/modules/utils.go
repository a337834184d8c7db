package modules

import (
	"context"
	"time"

	"github.com/google/uuid"
	lua "github.com/yuin/gopher-lua"
)

// UtilsModule provides utility functions to Lua
type UtilsModule struct{}

// NewUtilsModule creates a new utils module
func NewUtilsModule() *UtilsModule {
	return &UtilsModule{}
}

// Loader is the module loader for Lua
func (m *UtilsModule) Loader(L *lua.LState) int {
	mod := L.NewTable()

	L.SetField(mod, "sleep", L.NewFunction(m.sleep))
	L.SetField(mod, "now", L.NewFunction(m.now))
	L.SetField(mod, "uuid", L.NewFunction(m.uuid))

	L.Push(mod)
	return 1
}

// sleep(ms) blocks the Lua worker; it returns early when the work
// context ends.
func (m *UtilsModule) sleep(L *lua.LState) int {
	d := time.Duration(L.CheckInt(1)) * time.Millisecond
	ctx := L.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
	return 0
}

// now() returns unix time in seconds with millisecond precision
func (m *UtilsModule) now(L *lua.LState) int {
	L.Push(lua.LNumber(float64(time.Now().UnixMilli()) / 1000))
	return 1
}

func (m *UtilsModule) uuid(L *lua.LState) int {
	L.Push(lua.LString(uuid.NewString()))
	return 1
}
