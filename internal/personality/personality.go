// Package personality holds the commentator personalities: the system
// prompt and voice selected by an identifier.
package personality

import "slices"

// DefaultID names the entry used when an identifier is unknown.
const DefaultID = "default"

// Personality is an immutable commentator configuration.
type Personality struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Prompt      string `json:"-"`
	// Voice is the ElevenLabs voice id used for speech.
	Voice string `json:"voice,omitempty"`
}

// Registry resolves personality identifiers. Lookups never fail: unknown
// identifiers resolve to the first entry.
type Registry struct {
	entries []Personality
	byID    map[string]int
}

// NewRegistry returns a registry with the built-in personalities followed by
// extra. An extra entry with a built-in id replaces the built-in in place.
func NewRegistry(extra ...Personality) *Registry {
	r := &Registry{byID: make(map[string]int)}
	for _, p := range Builtins() {
		r.add(p)
	}
	for _, p := range extra {
		r.add(p)
	}
	return r
}

func (r *Registry) add(p Personality) {
	if i, ok := r.byID[p.ID]; ok {
		r.entries[i] = p
		return
	}
	r.byID[p.ID] = len(r.entries)
	r.entries = append(r.entries, p)
}

// Get returns the personality for id, or the default entry.
func (r *Registry) Get(id string) Personality {
	if p, ok := r.Lookup(id); ok {
		return p
	}
	return r.entries[0]
}

// Lookup reports whether id is registered.
func (r *Registry) Lookup(id string) (Personality, bool) {
	i, ok := r.byID[id]
	if !ok {
		return Personality{}, false
	}
	return r.entries[i], true
}

// List returns every personality in registration order.
func (r *Registry) List() []Personality {
	return slices.Clone(r.entries)
}

// IDs returns every identifier in registration order.
func (r *Registry) IDs() []string {
	ids := make([]string, len(r.entries))
	for i, p := range r.entries {
		ids[i] = p.ID
	}
	return ids
}

// Next returns the identifier after id, wrapping around.
func (r *Registry) Next(id string) string {
	i, ok := r.byID[id]
	if !ok {
		return r.entries[0].ID
	}
	return r.entries[(i+1)%len(r.entries)].ID
}
