// SPDX-License-Identifier: Apache-2.0

package evidence

// Map is the evidence collected during one run, keyed by normalized citation.
// The first reference stored for a citation wins; insertion order is kept.
type Map struct {
	order   []string
	entries map[string]Reference
}

// NewMap returns an empty Map.
func NewMap() *Map {
	return &Map{entries: make(map[string]Reference)}
}

// Add stores ref unless its citation is already present. It reports whether
// ref was stored.
func (m *Map) Add(ref Reference) bool {
	key := NormalizeCitation(ref.Citation)
	if key == "" {
		return false
	}
	if _, exists := m.entries[key]; exists {
		return false
	}
	ref.Citation = key
	m.entries[key] = ref
	m.order = append(m.order, key)
	return true
}

// Merge adds every ref and returns how many were new.
func (m *Map) Merge(refs []Reference) int {
	added := 0
	for _, ref := range refs {
		if m.Add(ref) {
			added++
		}
	}
	return added
}

// Len returns the number of distinct citations.
func (m *Map) Len() int {
	return len(m.order)
}

// First returns the earliest stored reference.
func (m *Map) First() (Reference, bool) {
	if len(m.order) == 0 {
		return Reference{}, false
	}
	return m.entries[m.order[0]], true
}

// List returns the references in insertion order.
func (m *Map) List() []Reference {
	out := make([]Reference, 0, len(m.order))
	for _, key := range m.order {
		out = append(out, m.entries[key])
	}
	return out
}

// Find returns the first reference, in insertion order, accepted by match.
func (m *Map) Find(match func(Reference) bool) (Reference, bool) {
	for _, key := range m.order {
		if ref := m.entries[key]; match(ref) {
			return ref, true
		}
	}
	return Reference{}, false
}
