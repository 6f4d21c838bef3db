package download

import (
	"container/list"
	"context"
	"sync"
)

// Gate bounds how many tasks download at once. Waiters are admitted in
// arrival order and the capacity can be changed while tasks are waiting or
// running. Lowering the capacity never interrupts permit holders; it only
// delays new admissions until enough permits are released.
type Gate struct {
	mu       sync.Mutex
	capacity int
	inUse    int
	waiters  list.List // of *gateWaiter, front is the oldest
}

type gateWaiter struct {
	ready chan struct{} // closed once the permit is granted
}

// Permit is a granted slot. Release returns it to the gate.
type Permit struct {
	gate *Gate
	once sync.Once
}

// NewGate creates a gate with the given capacity (at least 1)
func NewGate(capacity int) *Gate {
	return &Gate{capacity: max(capacity, 1)}
}

// Acquire blocks until a permit is available or ctx is done.
// A new caller never overtakes callers that are already waiting.
func (g *Gate) Acquire(ctx context.Context) (*Permit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g.mu.Lock()
	if g.waiters.Len() == 0 && g.inUse < g.capacity {
		g.inUse++
		g.mu.Unlock()
		return &Permit{gate: g}, nil
	}

	w := &gateWaiter{ready: make(chan struct{})}
	elem := g.waiters.PushBack(w)
	g.mu.Unlock()

	select {
	case <-w.ready:
		return &Permit{gate: g}, nil
	case <-ctx.Done():
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	select {
	case <-w.ready:
		// Granted while we were giving up: hand the slot to the next waiter.
		g.inUse--
		g.grantLocked()
	default:
		g.waiters.Remove(elem)
	}
	return nil, ctx.Err()
}

// SetCapacity changes the number of permits. Growing wakes queued waiters
// right away; shrinking takes effect as running holders release.
func (g *Gate) SetCapacity(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.capacity = max(n, 1)
	g.grantLocked()
}

// Capacity returns the current capacity
func (g *Gate) Capacity() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.capacity
}

// InUse returns the number of granted permits not yet released
func (g *Gate) InUse() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.inUse
}

// Waiting returns the number of queued Acquire calls
func (g *Gate) Waiting() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.waiters.Len()
}

func (g *Gate) release() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.inUse--
	g.grantLocked()
}

// grantLocked admits waiters from the front while there is slack
func (g *Gate) grantLocked() {
	for g.inUse < g.capacity {
		front := g.waiters.Front()
		if front == nil {
			return
		}
		g.waiters.Remove(front)
		g.inUse++
		close(front.Value.(*gateWaiter).ready)
	}
}

// Release returns the permit. Calling it more than once is a no-op.
func (p *Permit) Release() {
	if p == nil {
		return
	}
	p.once.Do(p.gate.release)
}
