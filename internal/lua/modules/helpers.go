package modules

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/dokzlo13/irlightd/internal/host"
)

// LuaToGo converts a Lua value to a Go value
func LuaToGo(v lua.LValue) interface{} {
	switch val := v.(type) {
	case lua.LString:
		return string(val)
	case lua.LNumber:
		return float64(val)
	case lua.LBool:
		return bool(val)
	case *lua.LTable:
		if n := val.MaxN(); n > 0 && n == tableLen(val) {
			arr := make([]interface{}, n)
			for i := 1; i <= n; i++ {
				arr[i-1] = LuaToGo(val.RawGetInt(i))
			}
			return arr
		}
		obj := make(map[string]interface{})
		val.ForEach(func(k, v lua.LValue) {
			obj[lua.LVAsString(k)] = LuaToGo(v)
		})
		return obj
	case *lua.LNilType:
		return nil
	default:
		return v.String()
	}
}

func tableLen(t *lua.LTable) int {
	n := 0
	t.ForEach(func(lua.LValue, lua.LValue) { n++ })
	return n
}

// GoToLuaValue converts a Go value to a Lua value
func GoToLuaValue(L *lua.LState, v interface{}) lua.LValue {
	switch val := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(val)
	case int:
		return lua.LNumber(val)
	case int64:
		return lua.LNumber(val)
	case uint64:
		return lua.LNumber(val)
	case float64:
		return lua.LNumber(val)
	case string:
		return lua.LString(val)
	case []interface{}:
		tbl := L.NewTable()
		for i, item := range val {
			tbl.RawSetInt(i+1, GoToLuaValue(L, item))
		}
		return tbl
	case []string:
		tbl := L.NewTable()
		for i, item := range val {
			tbl.RawSetInt(i+1, lua.LString(item))
		}
		return tbl
	case []float64:
		tbl := L.NewTable()
		for i, item := range val {
			tbl.RawSetInt(i+1, lua.LNumber(item))
		}
		return tbl
	case map[string]string:
		tbl := L.NewTable()
		for k, v := range val {
			tbl.RawSetString(k, lua.LString(v))
		}
		return tbl
	case map[string]interface{}:
		tbl := L.NewTable()
		for k, v := range val {
			tbl.RawSetString(k, GoToLuaValue(L, v))
		}
		return tbl
	default:
		return lua.LString(fmt.Sprintf("%v", v))
	}
}

// MapToLuaTable converts a Go map to a Lua table
func MapToLuaTable(L *lua.LState, m map[string]any) *lua.LTable {
	tbl := L.NewTable()
	for k, v := range m {
		L.SetField(tbl, k, GoToLuaValue(L, v))
	}
	return tbl
}

// LuaTableToMap converts a Lua table to a Go map
func LuaTableToMap(tbl *lua.LTable) map[string]any {
	m := make(map[string]any)
	tbl.ForEach(func(k, v lua.LValue) {
		if ks, ok := k.(lua.LString); ok {
			m[string(ks)] = LuaToGo(v)
		}
	})
	return m
}

// TableToCommand reads {state=, brightness=, color_temperature=, rgb={r,g,b}}.
func TableToCommand(tbl *lua.LTable) (host.Command, error) {
	var cmd host.Command
	var err error
	tbl.ForEach(func(k, v lua.LValue) {
		if err != nil {
			return
		}
		key := lua.LVAsString(k)
		switch key {
		case "state":
			b, ok := v.(lua.LBool)
			if !ok {
				err = fmt.Errorf("state must be a boolean")
				return
			}
			on := bool(b)
			cmd.State = &on
		case "brightness", "color_temperature":
			n, ok := v.(lua.LNumber)
			if !ok {
				err = fmt.Errorf("%s must be a number", key)
				return
			}
			f := float64(n)
			if key == "brightness" {
				cmd.Brightness = &f
			} else {
				cmd.ColorTemperature = &f
			}
		case "rgb":
			t, ok := v.(*lua.LTable)
			if !ok || t.MaxN() != 3 {
				err = fmt.Errorf("rgb must be a list of three numbers")
				return
			}
			var rgb [3]float64
			for i := range rgb {
				n, ok := t.RawGetInt(i + 1).(lua.LNumber)
				if !ok {
					err = fmt.Errorf("rgb must be a list of three numbers")
					return
				}
				rgb[i] = float64(n)
			}
			cmd.RGB = &rgb
		default:
			err = fmt.Errorf("unknown field %q", key)
		}
	})
	return cmd, err
}

// SnapshotToTable exposes a light snapshot to scripts.
func SnapshotToTable(L *lua.LState, s host.Snapshot) *lua.LTable {
	return MapToLuaTable(L, map[string]any{
		"name":              s.Name,
		"platform":          s.Info.Platform,
		"channel":           s.Info.Channel,
		"transmitter":       s.Info.Transmitter,
		"min_mireds":        s.MinMireds,
		"max_mireds":        s.MaxMireds,
		"on":                s.State.On,
		"brightness":        s.State.Brightness,
		"color_mode":        string(s.State.ColorMode),
		"color_temperature": s.State.ColorTemperature,
		"rgb":               s.State.RGB[:],
	})
}
