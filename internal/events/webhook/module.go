package webhook

import (
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	lua "github.com/yuin/gopher-lua"
)

// Module provides the events.webhook Lua module
type Module struct {
	enabled bool

	mu       sync.RWMutex
	handlers []Handler
}

// NewModule creates a new webhook module
func NewModule(enabled bool) *Module {
	return &Module{enabled: enabled}
}

// Loader is the module loader for Lua
func (m *Module) Loader(L *lua.LState) int {
	if !m.enabled {
		L.RaiseError("events.webhook module is disabled (webhook.enabled: false in config)")
		return 0
	}

	mod := L.NewTable()
	L.SetField(mod, "on", L.NewFunction(m.on))

	L.Push(mod)
	return 1
}

// on(method, path, fn) - Register a webhook handler. Paths are relative
// to /hooks unless they already start with it.
func (m *Module) on(L *lua.LState) int {
	method := strings.ToUpper(L.CheckString(1))
	path := L.CheckString(2)
	fn := L.CheckFunction(3)

	if !strings.HasPrefix(path, "/hooks/") {
		path = "/hooks/" + strings.TrimPrefix(path, "/")
	}

	m.mu.Lock()
	m.handlers = append(m.handlers, Handler{Method: method, Path: path, Fn: fn})
	m.mu.Unlock()

	log.Info().
		Str("method", method).
		Str("path", path).
		Msg("Registered webhook handler")
	return 0
}

// FindHandler finds the first handler registered for method and path.
func (m *Module) FindHandler(method, path string) *MatchResult {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := range m.handlers {
		h := &m.handlers[i]
		if h.Method != "*" && h.Method != method {
			continue
		}
		if params, ok := MatchPath(h.Path, path); ok {
			return &MatchResult{Handler: h, PathParams: params}
		}
	}
	return nil
}
