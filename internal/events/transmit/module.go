package transmit

import (
	"sync"

	"github.com/rs/zerolog/log"
	lua "github.com/yuin/gopher-lua"
)

// Handler is a script callback for transmitter events
type Handler struct {
	Kind   Matcher
	Source Matcher
	Fn     *lua.LFunction
}

// Module provides the events.transmit Lua module
type Module struct {
	mu       sync.RWMutex
	handlers []Handler
}

func NewModule() *Module {
	return &Module{}
}

// Loader is the module loader for Lua
func (m *Module) Loader(L *lua.LState) int {
	mod := L.NewTable()
	L.SetField(mod, "on", L.NewFunction(m.on))
	L.Push(mod)
	return 1
}

// on(kind, [source,] fn) - kind and source are matcher patterns such as
// "failed|superseded" or "*".
func (m *Module) on(L *lua.LState) int {
	kind := L.CheckString(1)
	source := "*"
	var fn *lua.LFunction
	if L.GetTop() >= 3 {
		source = L.CheckString(2)
		fn = L.CheckFunction(3)
	} else {
		fn = L.CheckFunction(2)
	}

	h := Handler{Kind: ParseMatcher(kind), Source: ParseMatcher(source), Fn: fn}
	m.mu.Lock()
	m.handlers = append(m.handlers, h)
	m.mu.Unlock()

	log.Info().
		Str("kind", h.Kind.String()).
		Str("source", h.Source.String()).
		Msg("Registered transmit handler")
	return 0
}

// FindHandlers returns every handler matching the event.
func (m *Module) FindHandlers(kind, source string) []*Handler {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Handler
	for i := range m.handlers {
		h := &m.handlers[i]
		if h.Kind.Matches(kind) && h.Source.Matches(source) {
			out = append(out, h)
		}
	}
	return out
}
