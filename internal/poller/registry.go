package poller

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Registry supervises the detached poller goroutines so they can be
// enumerated and drained during shutdown instead of being fire-and-forget.
type Registry struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	logger *slog.Logger

	mu       sync.Mutex
	inflight map[uuid.UUID]struct{}
}

// NewRegistry creates a Registry. Spawned pollers run under the registry's
// own context and are cancelled as a group on Shutdown.
func NewRegistry(logger *slog.Logger) *Registry {
	ctx, cancel := context.WithCancel(context.Background())
	return &Registry{
		ctx:      ctx,
		cancel:   cancel,
		logger:   logger.With("component", "poller_registry"),
		inflight: make(map[uuid.UUID]struct{}),
	}
}

// Spawn runs the poller in a supervised goroutine keyed by task ID.
func (r *Registry) Spawn(taskID uuid.UUID, p *Poller) {
	r.mu.Lock()
	r.inflight[taskID] = struct{}{}
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			r.mu.Lock()
			delete(r.inflight, taskID)
			r.mu.Unlock()
		}()

		state := p.Run(r.ctx)
		r.logger.Debug("poller finished", "task_id", taskID, "state", state)
	}()
}

// InFlight returns the number of pollers currently running.
func (r *Registry) InFlight() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.inflight)
}

// Shutdown cancels all pollers and waits for them to exit, giving up when
// ctx expires.
func (r *Registry) Shutdown(ctx context.Context) error {
	r.cancel()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("all pollers drained")
		return nil
	case <-ctx.Done():
		r.logger.Warn("shutdown deadline reached with pollers still running",
			"in_flight", r.InFlight())
		return ctx.Err()
	}
}
