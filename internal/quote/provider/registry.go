package provider

import (
	"fmt"
)

// Entry pairs an adapter with its static metadata. Priority breaks ties in
// the decision engine; higher wins.
type Entry struct {
	Adapter   Adapter
	Priority  int
	Heuristic Heuristic
}

// Registry holds the ordered, read-only set of configured providers.
type Registry struct {
	entries []Entry
	byName  map[string]int
}

// NewRegistry validates the configured entries. Provider names must be
// unique and every entry needs a heuristic so fallback is always possible.
func NewRegistry(entries ...Entry) (*Registry, error) {
	byName := make(map[string]int, len(entries))
	for i, entry := range entries {
		if entry.Adapter == nil {
			return nil, fmt.Errorf("registry entry %d has no adapter", i)
		}
		if entry.Heuristic == nil {
			return nil, fmt.Errorf("provider %q has no fallback heuristic", entry.Adapter.Name())
		}
		name := entry.Adapter.Name()
		if _, exists := byName[name]; exists {
			return nil, fmt.Errorf("duplicate provider name %q", name)
		}
		byName[name] = i
	}
	return &Registry{entries: entries, byName: byName}, nil
}

// Entries returns providers in configuration order.
func (r *Registry) Entries() []Entry {
	return r.entries
}

// Lookup finds an entry by provider name.
func (r *Registry) Lookup(name string) (Entry, bool) {
	i, ok := r.byName[name]
	if !ok {
		return Entry{}, false
	}
	return r.entries[i], true
}
