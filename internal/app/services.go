package app

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/irlightd/internal/config"
	"github.com/dokzlo13/irlightd/internal/db"
	"github.com/dokzlo13/irlightd/internal/eventbus"
	"github.com/dokzlo13/irlightd/internal/events/transmit"
	"github.com/dokzlo13/irlightd/internal/host"
	"github.com/dokzlo13/irlightd/internal/ledger"
	"github.com/dokzlo13/irlightd/internal/storage"
	"github.com/dokzlo13/irlightd/internal/transmitter"
	"github.com/dokzlo13/irlightd/internal/webhook"
)

// lightStateKind is the resource_state kind for persisted light state.
const lightStateKind = "light"

// Services holds every component of the daemon in start order.
type Services struct {
	cfg *config.Config

	// storage and messaging
	DB         *db.DB
	Ledger     *ledger.Ledger
	Store      *storage.Store
	LightState *storage.TypedStore[host.RemoteState]
	Bus        *eventbus.Bus

	// lifecycle-managed services
	Transmitters *TransmitterService
	Lights       *LightService
	Lua          *LuaService
	Health       *HealthService
	Webhook      *WebhookService
	LedgerClean  *LedgerService
}

// NewServices opens the database and emitters and binds lights to them.
func NewServices(cfg *config.Config, configDir string) (*Services, error) {
	s := &Services{cfg: cfg}

	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	s.DB = database

	s.Ledger = ledger.New(database.DB)
	s.Store = storage.NewStore(database.DB)
	s.LightState = storage.NewTypedStore[host.RemoteState](s.Store, lightStateKind)
	s.Bus = eventbus.NewWithConfig(cfg.EventBus.GetWorkers(), cfg.EventBus.GetQueueSize())

	// Every transmitter event goes to the ledger and to script handlers
	observer := transmitter.Observers{s.Ledger, transmit.Publisher(s.Bus)}
	s.Transmitters, err = NewTransmitterService(cfg.Transmitters, observer)
	if err != nil {
		s.Close(context.Background())
		return nil, err
	}

	s.Lights, err = NewLightService(cfg, s.Transmitters, s.LightState)
	if err != nil {
		s.Close(context.Background())
		return nil, err
	}

	s.Lua = NewLuaService(cfg, configDir, s.Lights.Lights)
	s.Health = NewHealthService(cfg)

	stats := make([]webhook.StatsSource, 0, len(cfg.Transmitters))
	for _, t := range s.Transmitters.All() {
		stats = append(stats, t)
	}
	s.Webhook = NewWebhookService(cfg, webhook.Options{
		Lights:       s.Lights.Lights,
		Transmitters: stats,
		History:      s.Ledger,
		Bus:          s.Bus,
	})
	s.LedgerClean = NewLedgerService(cfg.Ledger, s.Ledger)

	return s, nil
}

// Start restores lights, then starts scripts and the HTTP servers.
func (s *Services) Start(ctx context.Context) error {
	// Health first so /ready reports "starting" during setup
	s.Health.Start(ctx)

	if err := s.Lights.Start(ctx); err != nil {
		return err
	}

	// script handlers must be registered before the runtime loop starts
	if err := s.Lua.LoadScript(); err != nil {
		return err
	}
	s.Lua.Start(ctx, s.Bus)

	s.Webhook.Start(ctx)
	s.LedgerClean.Start(ctx)
	s.Health.SetReady(true)

	return nil
}

// ClearState drops every persisted light state.
func (s *Services) ClearState() error {
	return s.LightState.Clear()
}

// Stop shuts the services down in reverse order.
func (s *Services) Stop() error {
	s.Health.SetReady(false)

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.GetShutdownTimeout())
	defer cancel()
	s.Close(ctx)
	return nil
}

// Close releases all resources. Pending IR work is drained until ctx ends.
func (s *Services) Close(ctx context.Context) {
	if s.Lua != nil {
		s.Lua.Close(ctx)
	}
	if s.Transmitters != nil {
		s.Transmitters.Close(ctx)
	}
	if s.Bus != nil {
		s.Bus.Close(ctx)
	}
	if s.DB != nil {
		if err := s.DB.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close database")
		}
	}
}
