package ws

import "sync"

// Registry is the process-wide set of live connections. Sessions register
// on open and deregister on close; the health endpoint reads the count.
type Registry struct {
	mu    sync.Mutex
	conns map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]struct{})}
}

func (r *Registry) Add(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[id] = struct{}{}
}

// Remove deregisters a connection. Removing an unknown or already-removed
// id is a no-op, so cleanup paths may call it unconditionally.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[id]; !ok {
		return false
	}
	delete(r.conns, id)
	return true
}

func (r *Registry) IsAlive(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.conns[id]
	return ok
}

func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns)
}
