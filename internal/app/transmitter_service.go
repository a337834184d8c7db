package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/irlightd/internal/config"
	"github.com/dokzlo13/irlightd/internal/emitter"
	"github.com/dokzlo13/irlightd/internal/transmitter"
)

// TransmitterService owns one transmitter per configured emitter.
type TransmitterService struct {
	order []string
	byID  map[string]*transmitter.Transmitter
}

// NewTransmitterService opens every emitter and starts its transmitter.
// Each transmitter reports to observer.
func NewTransmitterService(cfgs []config.TransmitterConfig, observer transmitter.Observer) (*TransmitterService, error) {
	s := &TransmitterService{byID: make(map[string]*transmitter.Transmitter, len(cfgs))}

	for _, c := range cfgs {
		em, err := emitter.Open(emitter.Config{
			Backend:     c.Backend,
			Pin:         c.Pin,
			DutyPercent: c.CarrierDutyPercent,
			Path:        c.Path,
			Name:        c.ID,
		})
		if err != nil {
			s.Close(context.Background())
			return nil, fmt.Errorf("transmitter %q: %w", c.ID, err)
		}
		policy, err := transmitter.ParsePolicy(c.Policy)
		if err != nil {
			em.Close()
			s.Close(context.Background())
			return nil, fmt.Errorf("transmitter %q: %w", c.ID, err)
		}

		s.byID[c.ID] = transmitter.New(c.ID, em, transmitter.Options{
			Policy:    policy,
			QueueSize: c.QueueSize,
			RateLimit: c.RateLimit,
			Observer:  observer,
		})
		s.order = append(s.order, c.ID)

		log.Info().
			Str("id", c.ID).
			Str("backend", c.Backend).
			Str("policy", string(policy)).
			Int("queue_size", c.QueueSize).
			Msg("Transmitter ready")
	}
	return s, nil
}

// Get returns the transmitter with the given id.
func (s *TransmitterService) Get(id string) (*transmitter.Transmitter, bool) {
	t, ok := s.byID[id]
	return t, ok
}

// All returns the transmitters in configuration order.
func (s *TransmitterService) All() []*transmitter.Transmitter {
	out := make([]*transmitter.Transmitter, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}

// Close drains and closes every transmitter in parallel within ctx.
func (s *TransmitterService) Close(ctx context.Context) {
	var wg sync.WaitGroup
	for _, t := range s.byID {
		wg.Add(1)
		go func(t *transmitter.Transmitter) {
			defer wg.Done()
			if err := t.Close(ctx); err != nil {
				log.Warn().Err(err).Str("id", t.ID()).Msg("Transmitter closed with error")
			}
		}(t)
	}
	wg.Wait()
}
