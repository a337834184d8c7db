package emitter

import (
	"context"
	"io"
	"sync"

	"github.com/dokzlo13/irlightd/internal/remote"
)

// Mode2 writes every sequence as LIRC mode2 text, for replay with
// ir-ctl or inspection.
type Mode2 struct {
	mu sync.Mutex
	w  io.WriteCloser
}

// NewMode2 takes ownership of w.
func NewMode2(w io.WriteCloser) *Mode2 {
	return &Mode2{w: w}
}

func (m *Mode2) Emit(ctx context.Context, seq remote.Sequence) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return remote.WriteMode2(m.w, seq)
}

func (m *Mode2) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.w.Close()
}
