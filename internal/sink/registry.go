package sink

import (
	"fmt"
	"slices"
	"sync"
)

// Opener creates a sink writing to path.
type Opener func(path string) (Sink, error)

// Registry maps sink kinds to openers. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	openers map[string]Opener
}

func newRegistry() *Registry {
	return &Registry{openers: make(map[string]Opener)}
}

// Register adds an opener under kind. Kinds must be non-empty and unique.
func (r *Registry) Register(kind string, open Opener) error {
	if kind == "" {
		return fmt.Errorf("sink kind must not be empty")
	}
	if open == nil {
		return fmt.Errorf("sink %q has nil opener", kind)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.openers[kind]; exists {
		return fmt.Errorf("sink %q already registered", kind)
	}
	r.openers[kind] = open
	return nil
}

// Open creates a sink of the given kind writing to path.
func (r *Registry) Open(kind, path string) (Sink, error) {
	r.mu.RLock()
	open, ok := r.openers[kind]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown sink %q (registered: %v)", kind, r.Kinds())
	}

	s, err := open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s sink: %w", kind, err)
	}
	return s, nil
}

// Has reports whether kind is registered.
func (r *Registry) Has(kind string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.openers[kind]
	return ok
}

// Kinds returns the registered kinds, sorted.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]string, 0, len(r.openers))
	for k := range r.openers {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}

// Registration is a deferred sink registration. Packages providing a sink
// expose a value of this type and callers opt in explicitly:
//
//	r, _ := sink.NewRegistry(sink.CSVKind, sink.JSONLKind)
type Registration func(r *Registry) error

// NewKind wraps a typed constructor into a Registration.
func NewKind[S Sink](kind string, open func(path string) (S, error)) Registration {
	return func(r *Registry) error {
		return r.Register(kind, func(path string) (Sink, error) {
			s, err := open(path)
			if err != nil {
				return nil, err
			}
			return s, nil
		})
	}
}

// Group groups multiple registrations into one.
func Group(regs ...Registration) Registration {
	return func(r *Registry) error { return Apply(r, regs...) }
}

// Apply applies registrations to r in order, stopping at the first error.
func Apply(r *Registry, regs ...Registration) error {
	for _, reg := range regs {
		if err := reg(r); err != nil {
			return err
		}
	}
	return nil
}

// NewRegistry constructs a registry and applies the provided registrations.
func NewRegistry(regs ...Registration) (*Registry, error) {
	r := newRegistry()
	if err := Apply(r, regs...); err != nil {
		return nil, err
	}
	return r, nil
}

var (
	CSVKind    = NewKind(CSV, OpenCSV)
	SQLiteKind = NewKind(SQLite, OpenSQLite)
	JSONLKind  = NewKind(JSONL, OpenJSONL)
)

// Builtin groups the sinks shipped with this package.
func Builtin() Registration {
	return Group(CSVKind, SQLiteKind, JSONLKind)
}

// Default holds the builtin sinks.
var Default = mustRegistry(Builtin())

func mustRegistry(regs ...Registration) *Registry {
	r, err := NewRegistry(regs...)
	if err != nil {
		panic(err)
	}
	return r
}
