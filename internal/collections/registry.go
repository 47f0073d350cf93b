package collections

import (
	"fmt"

	"github.com/Panchalparth471/app-backend/internal/models"
)

// Registry resolves collection keys to their descriptors. It is read-only
// after construction and safe for concurrent use.
type Registry struct {
	keys        []string
	descriptors map[string]models.CollectionDescriptor
}

// Option adjusts descriptors while the registry is being built.
type Option func(*models.CollectionDescriptor)

// WithTargetCount sets the target for every descriptor that does not define its own.
func WithTargetCount(n int) Option {
	return func(d *models.CollectionDescriptor) {
		if d.TargetCount <= 0 && n > 0 {
			d.TargetCount = n
		}
	}
}

// NewRegistry copies descriptors into a registry. Keys must be unique and non-empty.
func NewRegistry(descriptors []models.CollectionDescriptor, opts ...Option) (*Registry, error) {
	r := &Registry{
		keys:        make([]string, 0, len(descriptors)),
		descriptors: make(map[string]models.CollectionDescriptor, len(descriptors)),
	}
	for _, d := range descriptors {
		if d.Key == "" {
			return nil, fmt.Errorf("collection descriptor without key (label %q)", d.Label)
		}
		if _, dup := r.descriptors[d.Key]; dup {
			return nil, fmt.Errorf("duplicate collection key %q", d.Key)
		}
		for _, opt := range opts {
			opt(&d)
		}
		if d.TargetCount <= 0 {
			d.TargetCount = 1
		}
		r.keys = append(r.keys, d.Key)
		r.descriptors[d.Key] = d
	}
	return r, nil
}

// Describe returns the descriptor for key.
func (r *Registry) Describe(key string) (models.CollectionDescriptor, bool) {
	d, ok := r.descriptors[key]
	return d, ok
}

// Keys lists all keys in declaration order.
func (r *Registry) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// All lists all descriptors in declaration order.
func (r *Registry) All() []models.CollectionDescriptor {
	out := make([]models.CollectionDescriptor, 0, len(r.keys))
	for _, k := range r.keys {
		out = append(out, r.descriptors[k])
	}
	return out
}
