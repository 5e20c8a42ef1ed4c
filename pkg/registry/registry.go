package registry

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/mitchellh/mapstructure"
)

// Saveable is implemented by story objects that choose their own saved
// fields. The fields must themselves be encodable.
type Saveable interface {
	SaveFields() map[string]any
}

// Factory rebuilds an object from the fields it was saved with.
type Factory func(fields map[string]any) (any, error)

// Registry maps saved type names to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// Register adds a factory for the type saved as name.
// If a factory with the same name exists, it is overwritten.
func (r *Registry) Register(name string, fn Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = fn
}

// RegisterStruct registers a factory that decodes saved fields into a new
// *T. The type is registered under its Go type name, which is the name
// Encode records for it.
func RegisterStruct[T any](r *Registry) {
	name := reflect.TypeFor[T]().Name()
	r.Register(name, func(fields map[string]any) (any, error) {
		out := new(T)
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           out,
		})
		if err != nil {
			return nil, err
		}
		if err := dec.Decode(fields); err != nil {
			return nil, fmt.Errorf("restore %s: %w", name, err)
		}
		return out, nil
	})
}

// Lookup returns the factory registered for name.
func (r *Registry) Lookup(name string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.factories[name]
	return fn, ok
}

// Names returns the registered type names sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
