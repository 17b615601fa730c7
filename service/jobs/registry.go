package jobs

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Registry keeps one Container per owner. The first Get for an owner loads
// the owner's rows.
type Registry struct {
	deps Deps

	mu         sync.Mutex
	containers map[uuid.UUID]*Container
}

func NewRegistry(deps Deps) *Registry {
	return &Registry{deps: deps, containers: make(map[uuid.UUID]*Container)}
}

// Get returns the owner's container. A load failure is returned together with
// the container so callers can still serve what is cached; the next Get
// retries the load.
func (r *Registry) Get(ctx context.Context, owner uuid.UUID) (*Container, error) {
	if owner == uuid.Nil {
		return nil, ErrNoOwner
	}

	r.mu.Lock()
	c, ok := r.containers[owner]
	if !ok {
		c = NewContainer(owner, r.deps)
		r.containers[owner] = c
	}
	r.mu.Unlock()

	if c.Loaded() {
		return c, nil
	}
	return c, c.LoadAll(ctx)
}

// Drop forgets the owner's container, e.g. on logout.
func (r *Registry) Drop(owner uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.containers, owner)
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.containers)
}
