// Package sequence tags asynchronous work with monotonically increasing numbers so that
// results from superseded work can be discarded.
package sequence

import "sync"

// Ticket identifies one unit of work started for a key.
type Ticket struct {
	Key   string
	Seq   uint64
	Epoch uint64
}

// Guard tracks the latest issued ticket per key. Supersede retires every key at once.
type Guard struct {
	mu     sync.Mutex
	latest map[string]uint64
	epoch  uint64
}

// NewGuard constructs an empty guard.
func NewGuard() *Guard {
	return &Guard{latest: make(map[string]uint64)}
}

// Begin issues a new ticket for key, superseding earlier tickets for the same key only.
func (g *Guard) Begin(key string) Ticket {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.latest[key]++
	return Ticket{Key: key, Seq: g.latest[key], Epoch: g.epoch}
}

// Supersede retires every ticket issued so far, for all keys.
func (g *Guard) Supersede() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.epoch++
}

// IsLatest reports whether t is still the newest ticket for its key.
func (g *Guard) IsLatest(t Ticket) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.latest[t.Key] == t.Seq && g.epoch == t.Epoch
}

// Commit runs write if t is current and reports whether the write stands. write runs
// without the guard held, so slow writes for different keys proceed in parallel. If t
// is superseded while write runs, undo runs and Commit reports false.
func (g *Guard) Commit(t Ticket, write, undo func()) bool {
	if !g.IsLatest(t) {
		return false
	}
	if write != nil {
		write()
	}
	if g.IsLatest(t) {
		return true
	}
	if undo != nil {
		undo()
	}
	return false
}
