// Package lifecycle collects work that must run after setup and before the
// service starts accepting traffic.
package lifecycle

import (
	"context"
	"fmt"
	"sync"
)

type action struct {
	name string
	fn   func(ctx context.Context) error
}

// Hooks is an ordered list of before-start actions. The zero value is ready
// to use.
type Hooks struct {
	mu      sync.Mutex
	pending []action
}

// OnBeforeStart queues fn to run on the next RunBeforeStart.
func (h *Hooks) OnBeforeStart(name string, fn func(ctx context.Context) error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pending = append(h.pending, action{name: name, fn: fn})
}

// Pending returns the names of queued actions in run order.
func (h *Hooks) Pending() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	names := make([]string, len(h.pending))
	for i, a := range h.pending {
		names[i] = a.name
	}
	return names
}

// RunBeforeStart runs queued actions in registration order and stops at the
// first failure. Each action runs at most once; actions after a failure stay
// queued.
func (h *Hooks) RunBeforeStart(ctx context.Context) error {
	for {
		h.mu.Lock()
		if len(h.pending) == 0 {
			h.mu.Unlock()
			return nil
		}
		if err := ctx.Err(); err != nil {
			h.mu.Unlock()
			return err
		}
		next := h.pending[0]
		h.pending = h.pending[1:]
		h.mu.Unlock()

		if err := next.fn(ctx); err != nil {
			return fmt.Errorf("before-start action %s failed: %w", next.name, err)
		}
	}
}
