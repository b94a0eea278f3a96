// Package readiness provides a one-shot gate that lets any number of waiters
// block on a single future event, with a timeout fallback.
//
//	gate := readiness.New()
//	go func() { preload(); gate.Signal() }()
//
//	// Proceeds after the preload or after 5s, whichever comes first.
//	gate.Wait(ctx, 5*time.Second)
package readiness

import (
	"context"
	"sync"
	"time"
)

// Gate is a monotonic flag: it starts closed and opens exactly once.
// The zero value is not usable, use New.
type Gate struct {
	once sync.Once
	done chan struct{}
}

// New returns a closed gate.
func New() *Gate {
	return &Gate{done: make(chan struct{})}
}

// Signal opens the gate and releases every waiter. It returns true only for
// the call that actually opened it.
func (g *Gate) Signal() bool {
	opened := false
	g.once.Do(func() {
		close(g.done)
		opened = true
	})
	return opened
}

// Ready reports whether the gate has been opened.
func (g *Gate) Ready() bool {
	select {
	case <-g.done:
		return true
	default:
		return false
	}
}

// Done returns a channel that is closed once the gate opens.
func (g *Gate) Done() <-chan struct{} {
	return g.done
}

// Wait blocks until the gate opens, the timeout elapses or ctx ends. It
// returns true if the gate is open. A timeout is not an error: callers
// proceed without whatever the gate was guarding. A timeout <= 0 waits on
// the gate and ctx only.
func (g *Gate) Wait(ctx context.Context, timeout time.Duration) bool {
	if g.Ready() {
		return true
	}

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case <-g.done:
		return true
	case <-expired:
		return false
	case <-ctx.Done():
		return false
	}
}
