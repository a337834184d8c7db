package modules

import (
	"context"

	"github.com/rs/zerolog/log"
	lua "github.com/yuin/gopher-lua"

	"github.com/dokzlo13/irlightd/internal/host"
)

// LightModule exposes the configured lights to scripts.
type LightModule struct {
	lights *host.LightSet
}

func NewLightModule(lights *host.LightSet) *LightModule {
	return &LightModule{lights: lights}
}

// Loader is the module loader for Lua
func (m *LightModule) Loader(L *lua.LState) int {
	mod := L.NewTable()

	L.SetField(mod, "set", L.NewFunction(m.set))
	L.SetField(mod, "get", L.NewFunction(m.get))
	L.SetField(mod, "list", L.NewFunction(m.list))

	L.Push(mod)
	return 1
}

// set(name, command) -> true | nil, err
func (m *LightModule) set(L *lua.LState) int {
	name := L.CheckString(1)
	tbl := L.CheckTable(2)

	c, ok := m.lights.Get(name)
	if !ok {
		L.Push(lua.LNil)
		L.Push(lua.LString("unknown light: " + name))
		return 2
	}
	cmd, err := TableToCommand(tbl)
	if err != nil {
		L.ArgError(2, err.Error())
		return 0
	}

	ctx := L.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if _, err := c.Apply(ctx, cmd); err != nil {
		log.Warn().Err(err).Str("light", name).Str("source", "lua").Msg("Light command failed")
		L.Push(lua.LNil)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	L.Push(lua.LTrue)
	return 1
}

// get(name) -> table | nil
func (m *LightModule) get(L *lua.LState) int {
	c, ok := m.lights.Get(L.CheckString(1))
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(SnapshotToTable(L, c.Snapshot()))
	return 1
}

// list() -> {name, ...}
func (m *LightModule) list(L *lua.LState) int {
	tbl := L.NewTable()
	for i, c := range m.lights.List() {
		tbl.RawSetInt(i+1, lua.LString(c.Name()))
	}
	L.Push(tbl)
	return 1
}
