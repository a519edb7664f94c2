package projector

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Registry hands out at most one live projector per booking id. Two
// independent projections of the same booking could diverge and double-fire
// the OTP hook, so every consumer in the process acquires through here.
type Registry struct {
	deps   Deps
	logger *zap.Logger

	mu   sync.Mutex
	live map[string]*registryEntry
}

type registryEntry struct {
	proj *Projector
	refs int
}

func NewRegistry(deps Deps, logger *zap.Logger) *Registry {
	return &Registry{
		deps:   deps,
		logger: logger,
		live:   make(map[string]*registryEntry),
	}
}

// Acquire returns the live projector for the booking, starting one if
// none exists. The release func must be called when the consumer is done;
// the projector is closed once the last reference is released.
func (r *Registry) Acquire(ctx context.Context, bookingID string) (*Projector, func(), error) {
	r.mu.Lock()
	e, ok := r.live[bookingID]
	if !ok {
		e = &registryEntry{proj: New(bookingID, r.deps, r.logger)}
		r.live[bookingID] = e
	}
	e.refs++
	r.mu.Unlock()

	if err := e.proj.Start(ctx); err != nil {
		r.release(bookingID, e)
		return nil, nil, err
	}

	released := false
	release := func() {
		if released {
			return
		}
		released = true
		r.release(bookingID, e)
	}
	return e.proj, release, nil
}

func (r *Registry) release(bookingID string, e *registryEntry) {
	r.mu.Lock()
	e.refs--
	done := e.refs <= 0
	if done {
		delete(r.live, bookingID)
	}
	r.mu.Unlock()
	if done {
		e.proj.Close()
	}
}

// Len reports how many bookings currently have a live projector.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.live)
}
