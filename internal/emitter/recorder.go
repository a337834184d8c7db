package emitter

import (
	"context"
	"sync"

	"github.com/dokzlo13/irlightd/internal/remote"
)

// Recorder keeps every emitted sequence in memory. While held, Emit
// blocks until Release or cancellation, which lets callers observe a
// transmitter with work in flight.
type Recorder struct {
	mu     sync.Mutex
	seqs   []remote.Sequence
	hold   chan struct{}
	closed bool
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

// Hold makes subsequent emissions block.
func (r *Recorder) Hold() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.hold == nil {
		r.hold = make(chan struct{})
	}
}

// Release unblocks held emissions.
func (r *Recorder) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.hold != nil {
		close(r.hold)
		r.hold = nil
	}
}

func (r *Recorder) Emit(ctx context.Context, seq remote.Sequence) error {
	r.mu.Lock()
	gate := r.hold
	r.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	r.mu.Lock()
	r.seqs = append(r.seqs, seq)
	r.mu.Unlock()
	return nil
}

func (r *Recorder) Close() error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	r.Release()
	return nil
}

// Sequences returns what was emitted so far.
func (r *Recorder) Sequences() []remote.Sequence {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]remote.Sequence(nil), r.seqs...)
}

// Commands decodes the NEC frames of every recorded sequence in order.
// Repeat bursts and foreign frames are skipped.
func (r *Recorder) Commands() []remote.NECData {
	var out []remote.NECData
	for _, s := range r.Sequences() {
		for _, f := range s.Frames {
			if d, err := remote.DecodeNEC(f); err == nil {
				out = append(out, d)
			}
		}
	}
	return out
}

// Closed reports whether Close was called.
func (r *Recorder) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seqs = nil
}
