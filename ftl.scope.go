package ftl

import (
	"sort"
	"strings"
	"sync"
)

// LookupSeparator separates the segments of a Lookup path.
const LookupSeparator = "."

// Scope is one layer of variables in a chain. Reads fall through to the
// parent when a key is not set locally; writes always go to the local layer.
type Scope struct {
	vars   map[string]any
	parent *Scope
	mu     sync.RWMutex
}

// NewScope creates an empty scope chained to parent, which may be nil.
func NewScope(parent *Scope) *Scope {
	return &Scope{
		vars:   make(map[string]any),
		parent: parent,
	}
}

// NewScopeWith creates a scope holding a copy of data, chained to parent.
func NewScopeWith(data map[string]any, parent *Scope) *Scope {
	s := NewScope(parent)
	for k, v := range data {
		s.vars[k] = v
	}
	return s
}

// Get returns the nearest visible value of key.
func (s *Scope) Get(key string) (any, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		cur.mu.RLock()
		val, ok := cur.vars[key]
		cur.mu.RUnlock()
		if ok {
			return val, true
		}
	}
	return nil, false
}

// GetString returns the visible value of key if it is a string.
// Returns empty string if not found or not a string.
func (s *Scope) GetString(key string) string {
	val, ok := s.Get(key)
	if !ok {
		return ""
	}
	if str, ok := val.(string); ok {
		return str
	}
	return ""
}

// GetDefault returns the visible value of key or defaultVal.
func (s *Scope) GetDefault(key string, defaultVal any) any {
	val, ok := s.Get(key)
	if !ok {
		return defaultVal
	}
	return val
}

// Has reports whether key is visible from this scope.
func (s *Scope) Has(key string) bool {
	_, ok := s.Get(key)
	return ok
}

// Set writes key in this layer only.
func (s *Scope) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.vars[key] = value
}

// SetAll writes every entry of data in this layer.
func (s *Scope) SetAll(data map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k, v := range data {
		s.vars[k] = v
	}
}

// Unset removes key from this layer. A value of the same key in an ancestor
// becomes visible again.
func (s *Scope) Unset(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.vars, key)
}

// Parent returns the parent scope, or nil for a root scope.
func (s *Scope) Parent() *Scope {
	return s.parent
}

// Depth returns the number of ancestors.
func (s *Scope) Depth() int {
	depth := 0
	for cur := s.parent; cur != nil; cur = cur.parent {
		depth++
	}
	return depth
}

// Local returns a copy of this layer's variables.
func (s *Scope) Local() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]any, len(s.vars))
	for k, v := range s.vars {
		result[k] = v
	}
	return result
}

// Flatten returns every visible variable; inner layers shadow outer ones.
func (s *Scope) Flatten() map[string]any {
	var chain []*Scope
	for cur := s; cur != nil; cur = cur.parent {
		chain = append(chain, cur)
	}

	result := make(map[string]any)
	for i := len(chain) - 1; i >= 0; i-- {
		chain[i].mu.RLock()
		for k, v := range chain[i].vars {
			result[k] = v
		}
		chain[i].mu.RUnlock()
	}
	return result
}

// Keys returns the sorted names of all visible variables.
func (s *Scope) Keys() []string {
	flat := s.Flatten()
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Lookup resolves a dot-notation path (e.g., "user.profile.name"). The first
// segment is found through the chain, the rest walk nested maps.
func (s *Scope) Lookup(path string) (any, bool) {
	if path == "" {
		return nil, false
	}

	parts := strings.Split(path, LookupSeparator)
	current, ok := s.Get(parts[0])
	if !ok {
		return nil, false
	}

	for _, part := range parts[1:] {
		if part == "" {
			continue
		}
		switch v := current.(type) {
		case map[string]any:
			current, ok = v[part]
		case map[string]string:
			current, ok = v[part]
		case map[any]any:
			current, ok = v[part]
		default:
			return nil, false
		}
		if !ok {
			return nil, false
		}
	}
	return current, true
}
