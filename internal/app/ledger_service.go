package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/irlightd/internal/config"
	"github.com/dokzlo13/irlightd/internal/ledger"
)

// LedgerService applies the ledger retention policy.
type LedgerService struct {
	cfg    config.LedgerConfig
	ledger *ledger.Ledger
}

func NewLedgerService(cfg config.LedgerConfig, l *ledger.Ledger) *LedgerService {
	return &LedgerService{cfg: cfg, ledger: l}
}

// Start runs a cleanup now and then on every interval.
func (s *LedgerService) Start(ctx context.Context) {
	go s.runCleanup(ctx)
}

func (s *LedgerService) runCleanup(ctx context.Context) {
	retention := s.cfg.Retention()
	interval := s.cfg.CleanupInterval.Duration()
	if retention <= 0 || interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		deleted, err := s.ledger.DeleteOlderThan(retention)
		if err != nil {
			log.Error().Err(err).Msg("Failed to cleanup old ledger entries")
		} else if deleted > 0 {
			log.Info().Int64("deleted", deleted).Dur("retention", retention).Msg("Cleaned up old ledger entries")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
