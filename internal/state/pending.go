package state

import (
	"errors"
	"sync"
)

// ErrPending is returned when the same mutation is already in progress.
var ErrPending = errors.New("request already in progress")

// PendingGuard allows one in-flight mutation per key.
type PendingGuard struct {
	mu       sync.Mutex
	inFlight map[string]struct{}
}

func NewPendingGuard() *PendingGuard {
	return &PendingGuard{inFlight: make(map[string]struct{})}
}

// TryAcquire marks key busy. The returned func releases it and is safe to
// call more than once.
func (g *PendingGuard) TryAcquire(key string) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.inFlight[key]; busy {
		return nil, ErrPending
	}
	g.inFlight[key] = struct{}{}
	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.inFlight, key)
			g.mu.Unlock()
		})
	}, nil
}

// Busy reports whether key is held.
func (g *PendingGuard) Busy(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, busy := g.inFlight[key]
	return busy
}
