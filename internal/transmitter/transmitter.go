// Package transmitter serializes IR transmissions from every light that
// shares one physical emitter.
package transmitter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/dokzlo13/irlightd/internal/remote"
)

var (
	// ErrResourceBusy is returned when the transmitter cannot accept work.
	ErrResourceBusy = errors.New("transmitter busy")
	// ErrClosed is returned after Close. It matches ErrResourceBusy.
	ErrClosed = fmt.Errorf("%w: transmitter closed", ErrResourceBusy)
	// ErrEmptySequence is returned for a request without pulses.
	ErrEmptySequence = errors.New("empty pulse sequence")
)

// DefaultQueueSize is used when Options.QueueSize is not set.
const DefaultQueueSize = 16

// Emitter puts a pulse sequence on the line. Emit blocks until the
// sequence was sent and should return early when ctx is cancelled.
type Emitter interface {
	Emit(ctx context.Context, seq remote.Sequence) error
	Close() error
}

// Request is one unit of work: a complete sequence from one light.
type Request struct {
	ID        string
	Source    string
	Channel   int
	Sequence  remote.Sequence
	Submitted time.Time
}

// Policy decides what happens to pending work when a source submits again.
type Policy string

const (
	// PolicyQueue emits every accepted request in FIFO order.
	PolicyQueue Policy = "queue"
	// PolicySupersede replaces a source's pending request with its newer one.
	PolicySupersede Policy = "supersede"
)

// ParsePolicy maps a config value to a Policy. Empty means queue.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyQueue:
		return PolicyQueue, nil
	case PolicySupersede:
		return PolicySupersede, nil
	default:
		return "", fmt.Errorf("unknown transmit policy %q", s)
	}
}

// Options configures a Transmitter.
type Options struct {
	Policy    Policy
	QueueSize int
	// RateLimit caps emitted sequences per second. Zero disables pacing.
	RateLimit float64
	Observer  Observer
}

// Stats is a snapshot of the transmitter counters.
type Stats struct {
	Accepted   uint64 `json:"accepted"`
	Superseded uint64 `json:"superseded"`
	Rejected   uint64 `json:"rejected"`
	Completed  uint64 `json:"completed"`
	Failed     uint64 `json:"failed"`
	Pending    int    `json:"pending"`
	Busy       bool   `json:"busy"`
}

// Transmitter owns one emitter. A single worker goroutine drains the
// request queue, so sequences never interleave on the line.
type Transmitter struct {
	id      string
	emitter Emitter
	opts    Options
	limiter *rate.Limiter

	// notifyMu orders observer delivery: a request's accepted event is
	// delivered before any event the worker reports for it. Taken before mu.
	notifyMu sync.Mutex

	mu         sync.Mutex
	pending    []Request
	active     bool
	closed     bool
	idle       chan struct{}
	idleClosed bool
	stats      Stats

	wake      chan struct{}
	runCtx    context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// New starts a transmitter for the emitter.
func New(id string, emitter Emitter, opts Options) *Transmitter {
	if opts.Policy == "" {
		opts.Policy = PolicyQueue
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}

	ctx, cancel := context.WithCancel(context.Background())
	idle := make(chan struct{})
	close(idle)

	t := &Transmitter{
		id:         id,
		emitter:    emitter,
		opts:       opts,
		idle:       idle,
		idleClosed: true,
		wake:       make(chan struct{}, 1),
		runCtx:     ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
	if opts.RateLimit > 0 {
		burst := int(opts.RateLimit)
		if burst < 1 {
			burst = 1
		}
		t.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	go t.run()

	log.Debug().
		Str("transmitter", id).
		Str("policy", string(opts.Policy)).
		Int("queue_size", opts.QueueSize).
		Float64("rate_limit", opts.RateLimit).
		Msg("Transmitter started")
	return t
}

// ID returns the transmitter identifier.
func (t *Transmitter) ID() string { return t.id }

// Policy returns the active pending-work policy.
func (t *Transmitter) Policy() Policy { return t.opts.Policy }

// Transmit hands a request to the worker. It returns as soon as the
// request is queued; it never waits for emission.
func (t *Transmitter) Transmit(ctx context.Context, req Request) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if req.Sequence.IsEmpty() {
		return ErrEmptySequence
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.Submitted.IsZero() {
		req.Submitted = time.Now()
	}

	t.notifyMu.Lock()
	defer t.notifyMu.Unlock()

	t.mu.Lock()
	if t.closed {
		t.stats.Rejected++
		t.mu.Unlock()
		t.notify(Event{Kind: EventRejected, Request: req, Err: ErrClosed})
		return ErrClosed
	}

	if t.opts.Policy == PolicySupersede && req.Source != "" {
		for i := range t.pending {
			if t.pending[i].Source != req.Source {
				continue
			}
			stale := t.pending[i]
			t.pending[i] = req
			t.stats.Superseded++
			t.stats.Accepted++
			t.mu.Unlock()

			t.notify(Event{Kind: EventSuperseded, Request: stale})
			t.notify(Event{Kind: EventAccepted, Request: req})
			return nil
		}
	}

	if len(t.pending) >= t.opts.QueueSize {
		t.stats.Rejected++
		t.mu.Unlock()
		err := fmt.Errorf("%w: %s has %d pending", ErrResourceBusy, t.id, t.opts.QueueSize)
		t.notify(Event{Kind: EventRejected, Request: req, Err: err})
		return err
	}

	t.pending = append(t.pending, req)
	t.stats.Accepted++
	if t.idleClosed {
		t.idle = make(chan struct{})
		t.idleClosed = false
	}
	t.mu.Unlock()

	t.kick()
	t.notify(Event{Kind: EventAccepted, Request: req})
	return nil
}

// Flush waits until every accepted request has been emitted.
func (t *Transmitter) Flush(ctx context.Context) error {
	t.mu.Lock()
	idle := t.idle
	t.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops intake and drains pending work. When ctx expires first the
// in-flight emission is cancelled and the remaining requests fail.
func (t *Transmitter) Close(ctx context.Context) error {
	t.closeOnce.Do(func() {
		t.mu.Lock()
		t.closed = true
		t.mu.Unlock()
		t.kick()

		var err error
		select {
		case <-t.done:
		case <-ctx.Done():
			log.Warn().Str("transmitter", t.id).Msg("Transmitter shutdown timed out, cancelling pending work")
			t.cancel()
			<-t.done
			err = ctx.Err()
		}
		t.cancel()

		if cerr := t.emitter.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close emitter: %w", cerr)
		}
		t.closeErr = err
		log.Debug().Str("transmitter", t.id).Msg("Transmitter stopped")
	})
	return t.closeErr
}

// Stats returns a snapshot of the counters.
func (t *Transmitter) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := t.stats
	s.Pending = len(t.pending)
	s.Busy = t.active
	return s
}

func (t *Transmitter) kick() {
	select {
	case t.wake <- struct{}{}:
	default:
	}
}

func (t *Transmitter) run() {
	defer close(t.done)
	for {
		req, ok := t.next()
		if !ok {
			return
		}
		t.emit(req)
	}
}

// next blocks until there is work. It returns false once the transmitter
// is closed and drained, or cancelled.
func (t *Transmitter) next() (Request, bool) {
	for {
		if t.runCtx.Err() != nil {
			t.dropPending(t.runCtx.Err())
			return Request{}, false
		}

		t.mu.Lock()
		if len(t.pending) > 0 {
			req := t.pending[0]
			t.pending[0] = Request{}
			t.pending = t.pending[1:]
			t.active = true
			t.mu.Unlock()
			return req, true
		}
		t.active = false
		if !t.idleClosed {
			close(t.idle)
			t.idleClosed = true
		}
		closed := t.closed
		t.mu.Unlock()

		if closed {
			return Request{}, false
		}
		select {
		case <-t.wake:
		case <-t.runCtx.Done():
		}
	}
}

func (t *Transmitter) emit(req Request) {
	start := time.Now()
	var err error
	if t.limiter != nil {
		err = t.limiter.Wait(t.runCtx)
	}
	if err == nil {
		err = t.emitter.Emit(t.runCtx, req.Sequence)
	}
	elapsed := time.Since(start)

	t.mu.Lock()
	if err != nil {
		t.stats.Failed++
	} else {
		t.stats.Completed++
	}
	t.mu.Unlock()

	if err != nil {
		log.Warn().
			Err(err).
			Str("transmitter", t.id).
			Str("source", req.Source).
			Str("request_id", req.ID).
			Msg("Transmission failed")
		t.report(Event{Kind: EventFailed, Request: req, Err: err, Duration: elapsed})
		return
	}

	log.Debug().
		Str("transmitter", t.id).
		Str("source", req.Source).
		Str("request_id", req.ID).
		Int("frames", len(req.Sequence.Frames)).
		Dur("airtime", req.Sequence.Duration()).
		Dur("elapsed", elapsed).
		Msg("Transmission completed")
	t.report(Event{Kind: EventCompleted, Request: req, Duration: elapsed})
}

func (t *Transmitter) dropPending(cause error) {
	t.mu.Lock()
	dropped := t.pending
	t.pending = nil
	t.stats.Failed += uint64(len(dropped))
	t.active = false
	if !t.idleClosed {
		close(t.idle)
		t.idleClosed = true
	}
	t.mu.Unlock()

	t.notifyMu.Lock()
	defer t.notifyMu.Unlock()
	for _, req := range dropped {
		t.notify(Event{Kind: EventFailed, Request: req, Err: cause})
	}
}

// report delivers a worker event after any submitter still
// reporting the same request.
func (t *Transmitter) report(e Event) {
	t.notifyMu.Lock()
	defer t.notifyMu.Unlock()
	t.notify(e)
}

// notify must run with notifyMu held. Observers must not call back into
// the transmitter.
func (t *Transmitter) notify(e Event) {
	if t.opts.Observer == nil {
		return
	}
	e.Transmitter = t.id
	if e.At.IsZero() {
		e.At = time.Now()
	}
	t.opts.Observer.OnTransmit(e)
}
