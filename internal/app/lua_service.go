package app

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/irlightd/internal/config"
	"github.com/dokzlo13/irlightd/internal/eventbus"
	"github.com/dokzlo13/irlightd/internal/events/transmit"
	"github.com/dokzlo13/irlightd/internal/events/webhook"
	"github.com/dokzlo13/irlightd/internal/host"
	luart "github.com/dokzlo13/irlightd/internal/lua"
)

// LuaService wraps the Lua runtime. Without a configured script it does
// nothing.
type LuaService struct {
	cfg     *config.Config
	Runtime *luart.Runtime
}

// NewLuaService creates a new LuaService.
func NewLuaService(cfg *config.Config, configDir string, lights *host.LightSet) *LuaService {
	if cfg.Script == "" {
		return &LuaService{cfg: cfg}
	}
	return &LuaService{
		cfg: cfg,
		Runtime: luart.NewRuntime(luart.RuntimeDeps{
			Lights:         lights,
			WebhookEnabled: cfg.Webhook.Enabled,
			BaseDir:        configDir,
		}),
	}
}

// Enabled reports whether a script is configured.
func (s *LuaService) Enabled() bool {
	return s.Runtime != nil
}

// LoadScript loads and executes the Lua script.
// Must be called before Start().
func (s *LuaService) LoadScript() error {
	if !s.Enabled() {
		log.Debug().Msg("No Lua script configured")
		return nil
	}
	return s.Runtime.LoadScript(s.cfg.Script)
}

// Start registers the script's event handlers on the bus and starts the
// Lua worker goroutine.
func (s *LuaService) Start(ctx context.Context, bus *eventbus.Bus) {
	if !s.Enabled() {
		return
	}
	if s.cfg.Webhook.Enabled {
		webhook.RegisterHandlers(ctx, s.Runtime.WebhookModule(), bus, s.Runtime)
	}
	transmit.RegisterHandlers(ctx, s.Runtime.TransmitModule(), bus, s.Runtime)

	go s.Runtime.Run(ctx)
}

// Close closes the Lua runtime.
func (s *LuaService) Close(ctx context.Context) {
	if s.Runtime != nil {
		s.Runtime.Close(ctx)
	}
}
