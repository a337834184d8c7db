// Package lua hosts the automation script. All Lua execution happens on
// one worker goroutine fed by a bounded queue.
package lua

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	lua "github.com/yuin/gopher-lua"

	"github.com/dokzlo13/irlightd/internal/events/transmit"
	"github.com/dokzlo13/irlightd/internal/events/webhook"
	"github.com/dokzlo13/irlightd/internal/lua/exec"
	"github.com/dokzlo13/irlightd/internal/lua/modules"
)

// ErrRuntimeClosed is returned when the Lua runtime is closed
var ErrRuntimeClosed = fmt.Errorf("lua runtime closed")

// LuaWork represents work to be executed on the Lua VM
// All Lua execution MUST go through this to ensure thread safety
type LuaWork = func(ctx context.Context)

const workQueueSize = 100

// Runtime manages the Lua VM with single-threaded execution
type Runtime struct {
	L    *lua.LState
	deps RuntimeDeps

	webhookModule  *webhook.Module
	transmitModule *transmit.Module

	workQueue chan LuaWork

	// Shutdown signaling - closing this channel signals senders to stop
	closing   chan struct{}
	closeOnce sync.Once
	running   atomic.Bool
	stopped   chan struct{}
}

var _ exec.Executor = (*Runtime)(nil)

// NewRuntime creates a new Lua runtime
func NewRuntime(deps RuntimeDeps) *Runtime {
	r := &Runtime{
		L:         lua.NewState(),
		deps:      deps,
		workQueue: make(chan LuaWork, workQueueSize),
		closing:   make(chan struct{}),
		stopped:   make(chan struct{}),
	}

	r.registerModules()

	return r
}

// LState returns the Lua state. Only for use inside work callbacks or
// before Run starts.
func (r *Runtime) LState() *lua.LState {
	return r.L
}

// Close signals the runtime to stop accepting new work, waits for the
// worker to drain if it is running, and closes the Lua state.
func (r *Runtime) Close(ctx context.Context) {
	r.closeOnce.Do(func() {
		close(r.closing)
	})
	if !r.running.Load() {
		r.L.Close()
		return
	}
	select {
	case <-r.stopped:
	case <-ctx.Done():
		log.Warn().Msg("Lua runtime did not stop in time")
		return
	}
	r.L.Close()
}

// Do queues work to be executed on the Lua VM (thread-safe, non-blocking)
// Returns false if the runtime is closing, queue is full, or context is cancelled.
func (r *Runtime) Do(ctx context.Context, work func(ctx context.Context)) bool {
	select {
	case <-r.closing:
		log.Warn().Msg("Lua runtime closing, dropping work")
		return false
	case <-ctx.Done():
		log.Warn().Msg("Context cancelled, dropping Lua work")
		return false
	default:
	}
	select {
	case r.workQueue <- work:
		return true
	default:
		log.Warn().Msg("Lua work queue full, dropping work")
		return false
	}
}

// DoSync queues work and blocks until there's space (thread-safe, blocking)
// Returns error if the runtime is closing or context is cancelled.
func (r *Runtime) DoSync(ctx context.Context, work LuaWork) error {
	select {
	case <-r.closing:
		return ErrRuntimeClosed
	case <-ctx.Done():
		return ctx.Err()
	case r.workQueue <- work:
		return nil
	}
}

// DoSyncWithResult queues work, waits for space, and waits for the result.
func (r *Runtime) DoSyncWithResult(ctx context.Context, work func(context.Context) error) error {
	done := make(chan error, 1)
	if err := r.DoSync(ctx, func(c context.Context) { done <- work(c) }); err != nil {
		return err
	}

	select {
	case <-r.stopped:
		// the drain may still have run it
		select {
		case err := <-done:
			return err
		default:
			return ErrRuntimeClosed
		}
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}

// registerModules registers all Lua modules
func (r *Runtime) registerModules() {
	r.L.PreloadModule("log", modules.NewLogModule().Loader)
	r.L.PreloadModule("utils", modules.NewUtilsModule().Loader)
	r.L.PreloadModule("light", modules.NewLightModule(r.deps.Lights).Loader)

	// Event source modules with dotted namespace
	r.webhookModule = webhook.NewModule(r.deps.WebhookEnabled)
	r.L.PreloadModule("events.webhook", r.webhookModule.Loader)

	r.transmitModule = transmit.NewModule()
	r.L.PreloadModule("events.transmit", r.transmitModule.Loader)
}

// Run starts the Lua worker goroutine - this is the ONLY goroutine that touches Lua
// Exits when context is cancelled or runtime is closed.
func (r *Runtime) Run(ctx context.Context) {
	r.running.Store(true)
	defer close(r.stopped)
	for {
		select {
		case <-ctx.Done():
			r.drainQueue(ctx)
			return
		case <-r.closing:
			r.drainQueue(ctx)
			return
		case work := <-r.workQueue:
			r.executeWork(ctx, work)
		}
	}
}

// drainQueue processes any remaining work in the queue before exiting
func (r *Runtime) drainQueue(ctx context.Context) {
	for {
		select {
		case work := <-r.workQueue:
			r.executeWork(ctx, work)
		default:
			return
		}
	}
}

// executeWork runs a single work item with panic recovery
func (r *Runtime) executeWork(ctx context.Context, work LuaWork) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().
				Interface("panic", rec).
				Msg("Lua work panicked - worker continuing")
		}
	}()
	// Set context on LState so modules can access it via L.Context()
	r.L.SetContext(ctx)
	work(ctx)
}

// LoadScript loads and executes a Lua script (must be called before Run)
func (r *Runtime) LoadScript(path string) error {
	if !filepath.IsAbs(path) && r.deps.BaseDir != "" {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			path = filepath.Join(r.deps.BaseDir, path)
		}
	}

	log.Info().Str("path", path).Msg("Loading Lua script")

	if err := r.L.DoFile(path); err != nil {
		return fmt.Errorf("failed to execute Lua script: %w", err)
	}

	log.Info().Msg("Lua script loaded successfully")
	return nil
}

// LoadString executes inline Lua source (must be called before Run)
func (r *Runtime) LoadString(src string) error {
	if err := r.L.DoString(src); err != nil {
		return fmt.Errorf("failed to execute Lua script: %w", err)
	}
	return nil
}

// WebhookModule returns the webhook module for handler registration
func (r *Runtime) WebhookModule() *webhook.Module {
	return r.webhookModule
}

// TransmitModule returns the transmit module for handler registration
func (r *Runtime) TransmitModule() *transmit.Module {
	return r.transmitModule
}
