package session

import (
	"context"
	"sync"
)

// MemoryPersister keeps snapshots in process, for tests and callers that
// have no database.
type MemoryPersister struct {
	mu    sync.Mutex
	snaps map[string]Snapshot
}

func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{snaps: make(map[string]Snapshot)}
}

func (p *MemoryPersister) Load(_ context.Context, user string) (Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	snap, ok := p.snaps[user]
	if !ok {
		return Snapshot{}, ErrNoState
	}
	return snap, nil
}

func (p *MemoryPersister) Save(_ context.Context, user string, snap Snapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snaps[user] = snap
	return nil
}

// SaveChanges merges the difference between base and next into what is
// held for user.
func (p *MemoryPersister) SaveChanges(_ context.Context, user string, base, next Snapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snaps[user] = Merge(p.snaps[user], base, next)
	return nil
}

var _ DeltaPersister = (*MemoryPersister)(nil)
