package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/irlightd/internal/config"
	"github.com/dokzlo13/irlightd/internal/driver"
	"github.com/dokzlo13/irlightd/internal/host"
)

// LightService builds one driver and controller per configured light and
// runs their lifecycle.
type LightService struct {
	Lights    *host.LightSet
	Scheduler *host.Scheduler
}

// NewLightService wires each light to its transmitter.
func NewLightService(cfg *config.Config, txs *TransmitterService, store host.StateStore) (*LightService, error) {
	s := &LightService{
		Lights:    host.NewLightSet(),
		Scheduler: host.NewScheduler(cfg.LoopInterval.Duration()),
	}

	for _, lc := range cfg.Lights {
		dcfg, err := driver.NewConfig(lc.Name, lc.Platform, lc.Channel)
		if err != nil {
			return nil, err
		}
		tx, ok := txs.Get(lc.TransmitterID)
		if !ok {
			return nil, &driver.ConfigError{Light: lc.Name, Field: "transmitter_id", Reason: fmt.Sprintf("unknown transmitter %q", lc.TransmitterID)}
		}
		d, err := driver.New(dcfg, tx)
		if err != nil {
			return nil, err
		}

		s.Scheduler.Register(d)
		s.Lights.Add(host.NewLightController(lc.Name, d, host.ControllerOptions{
			Gamma:   lc.GammaCorrect,
			Restore: lc.Restore,
			Store:   store,
			Info: host.Info{
				Platform:    string(dcfg.Variant),
				Channel:     dcfg.Channel,
				Transmitter: tx.ID(),
			},
		}))
	}
	return s, nil
}

// Start runs component setup, restores persisted state and starts the
// loop. A setup failure is returned and nothing is started.
func (s *LightService) Start(ctx context.Context) error {
	if err := s.Scheduler.Setup(ctx); err != nil {
		return fmt.Errorf("light setup failed: %w", err)
	}
	s.Lights.RestoreAll(ctx)
	go s.Scheduler.Run(ctx)

	log.Info().Int("lights", len(s.Lights.List())).Msg("Lights ready")
	return nil
}
