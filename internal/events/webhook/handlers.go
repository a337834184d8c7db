package webhook

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/irlightd/internal/eventbus"
	"github.com/dokzlo13/irlightd/internal/lua/exec"
)

// HandlerRegistry provides handler lookup functions
type HandlerRegistry interface {
	FindHandler(method, path string) *MatchResult
}

// RegisterHandlers subscribes to webhook events on the event bus and
// runs the matching script handler on the Lua worker.
func RegisterHandlers(ctx context.Context, registry HandlerRegistry, bus *eventbus.Bus, luaExec exec.Executor) {
	bus.Subscribe(eventbus.EventTypeWebhook, func(event eventbus.Event) {
		method, _ := event.Data["method"].(string)
		path, _ := event.Data["path"].(string)

		match := registry.FindHandler(method, path)
		if match == nil {
			log.Debug().
				Str("method", method).
				Str("path", path).
				Msg("No webhook handler found for request")
			return
		}

		args := make(map[string]any, len(event.Data)+1)
		for k, v := range event.Data {
			args[k] = v
		}
		args["path_params"] = match.PathParams

		luaExec.Do(ctx, func(context.Context) {
			if err := exec.CallHandler(luaExec.LState(), match.Handler.Fn, args); err != nil {
				log.Error().Err(err).Str("method", method).Str("path", path).Msg("Webhook handler failed")
			}
		})
	})
}
