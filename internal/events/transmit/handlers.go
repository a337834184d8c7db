package transmit

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/irlightd/internal/eventbus"
	"github.com/dokzlo13/irlightd/internal/lua/exec"
	"github.com/dokzlo13/irlightd/internal/transmitter"
)

// HandlerRegistry provides handler lookup functions
type HandlerRegistry interface {
	FindHandlers(kind, source string) []*Handler
}

// Publisher returns an observer that puts transmitter events on the bus.
// Accepted events are left out; they follow every successful command.
func Publisher(bus *eventbus.Bus) transmitter.Observer {
	return transmitter.ObserverFunc(func(e transmitter.Event) {
		if e.Kind == transmitter.EventAccepted {
			return
		}
		data := map[string]interface{}{
			"transmitter": e.Transmitter,
			"kind":        string(e.Kind),
			"request_id":  e.Request.ID,
			"source":      e.Request.Source,
			"channel":     e.Request.Channel,
			"elapsed_ms":  e.Duration.Milliseconds(),
		}
		if e.Err != nil {
			data["error"] = e.Err.Error()
		}
		bus.Publish(eventbus.Event{Type: eventbus.EventTypeTransmit, Data: data})
	})
}

// RegisterHandlers subscribes to transmit events on the event bus and
// runs every matching script handler on the Lua worker.
func RegisterHandlers(ctx context.Context, registry HandlerRegistry, bus *eventbus.Bus, luaExec exec.Executor) {
	bus.Subscribe(eventbus.EventTypeTransmit, func(event eventbus.Event) {
		kind, _ := event.Data["kind"].(string)
		source, _ := event.Data["source"].(string)

		handlers := registry.FindHandlers(kind, source)
		if len(handlers) == 0 {
			return
		}

		luaExec.Do(ctx, func(context.Context) {
			for _, h := range handlers {
				if err := exec.CallHandler(luaExec.LState(), h.Fn, event.Data); err != nil {
					log.Error().Err(err).Str("kind", kind).Str("source", source).Msg("Transmit handler failed")
				}
			}
		})
	})
}
