package internal

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// ErrInvalidDefinition is the sentinel wrapped by every DefinitionError.
var ErrInvalidDefinition = errors.New("invalid definition")

// Registry maps qualified tag paths ("parent:child") to handlers.
// Redefining a path replaces its handler (last writer wins) but keeps the
// rank the path got when it was first defined. It is safe for concurrent use.
type Registry[H any] struct {
	entries map[string]*registryEntry[H]
	order   []string
	mu      sync.RWMutex
	logger  *zap.Logger
}

type registryEntry[H any] struct {
	handler  H
	segments []string
	rank     int
}

// NewRegistry creates an empty registry.
func NewRegistry[H any](logger *zap.Logger) *Registry[H] {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Debug(LogMsgRegistryCreated)
	return &Registry[H]{
		entries: make(map[string]*registryEntry[H]),
		logger:  logger,
	}
}

// Define stores handler under path.
func (r *Registry[H]) Define(path string, handler H) error {
	segments, err := SplitPath(path)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.entries[path]; ok {
		existing.handler = handler
		r.logger.Debug(LogMsgHandlerRedefined, zap.String(LogFieldPath, path))
		return nil
	}

	r.entries[path] = &registryEntry[H]{handler: handler, segments: segments, rank: len(r.order)}
	r.order = append(r.order, path)
	r.logger.Debug(LogMsgHandlerDefined, zap.String(LogFieldPath, path))
	return nil
}

// Lookup returns the handler registered under exactly path.
func (r *Registry[H]) Lookup(path string) (H, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[path]
	if !ok {
		var zero H
		return zero, false
	}
	return entry.handler, true
}

// Has checks if a handler is registered under path.
func (r *Registry[H]) Has(path string) bool {
	_, ok := r.Lookup(path)
	return ok
}

// Paths returns all registered paths in registration order.
func (r *Registry[H]) Paths() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	paths := make([]string, len(r.order))
	copy(paths, r.order)
	return paths
}

// Names returns the distinct last segments of all registered paths, in
// registration order.
func (r *Registry[H]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool, len(r.order))
	names := make([]string, 0, len(r.order))
	for _, path := range r.order {
		segments := r.entries[path].segments
		name := segments[len(segments)-1]
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}

// Len returns the number of registered paths.
func (r *Registry[H]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.order)
}

// SplitPath validates a qualified path and returns its segments.
func SplitPath(path string) ([]string, error) {
	if path == StringValueEmpty {
		return nil, NewDefinitionError(ErrMsgEmptyPath, path)
	}
	segments := strings.Split(path, StrPathSeparator)
	for _, segment := range segments {
		if segment == StringValueEmpty {
			return nil, NewDefinitionError(ErrMsgEmptySegment, path)
		}
		for i := 0; i < len(segment); i++ {
			if !isWordChar(segment[i]) {
				return nil, NewDefinitionError(ErrMsgInvalidSegment, path)
			}
		}
	}
	return segments, nil
}

// JoinPath joins segments into a qualified path.
func JoinPath(segments []string) string {
	return strings.Join(segments, StrPathSeparator)
}

// DefinitionError reports an invalid tag path, prefix or handler.
type DefinitionError struct {
	Message string
	Value   string
}

// NewDefinitionError creates a new definition error.
func NewDefinitionError(message, value string) *DefinitionError {
	return &DefinitionError{Message: message, Value: value}
}

// NewPrefixError creates an error for an unusable tag prefix.
func NewPrefixError(message, prefix string) *DefinitionError {
	return NewDefinitionError(message, prefix)
}

// Error implements the error interface.
func (e *DefinitionError) Error() string {
	if e.Value != StringValueEmpty {
		return fmt.Sprintf(ErrFmtTagMessage, e.Message, e.Value)
	}
	return e.Message
}

// Unwrap returns ErrInvalidDefinition.
func (e *DefinitionError) Unwrap() error {
	return ErrInvalidDefinition
}
