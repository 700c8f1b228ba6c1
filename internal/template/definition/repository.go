package definition

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Repository stores templates by key.
type Repository interface {
	// Get returns the template stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) (*Template, error)
	// List returns the templates of group sorted by key. An empty group
	// lists every template.
	List(ctx context.Context, group string) ([]*Template, error)
	// Put stores t, replacing any template with the same key.
	Put(ctx context.Context, t *Template) error
	// Delete removes the template stored under key, or returns ErrNotFound.
	Delete(ctx context.Context, key string) error
}

// MemoryRepository is an in-memory Repository safe for concurrent use.
type MemoryRepository struct {
	mu        sync.RWMutex
	templates map[string]*Template
}

// NewMemoryRepository creates a repository holding templates.
func NewMemoryRepository(templates ...*Template) *MemoryRepository {
	r := &MemoryRepository{templates: make(map[string]*Template, len(templates))}
	for _, t := range templates {
		r.templates[t.Key()] = t
	}
	return r
}

func (r *MemoryRepository) Get(ctx context.Context, key string) (*Template, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.templates[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	return t, nil
}

func (r *MemoryRepository) List(ctx context.Context, group string) ([]*Template, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Template
	for _, t := range r.templates {
		if group == "" || t.Group() == group {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out, nil
}

func (r *MemoryRepository) Put(ctx context.Context, t *Template) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if t == nil {
		return fmt.Errorf("%w: nil template", ErrInvalidTemplate)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates[t.Key()] = t
	return nil
}

func (r *MemoryRepository) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.templates[key]; !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	delete(r.templates, key)
	return nil
}
