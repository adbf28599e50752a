package ftl

import (
	"go.uber.org/zap"
)

// Option is a functional option for configuring the Engine.
type Option func(*engineConfig)

// engineConfig holds the internal configuration for an Engine.
type engineConfig struct {
	tagPrefix       string
	maxDepth        int
	missingStrategy MissingStrategy
	missingFunc     MissingFunc
	globals         map[string]any
	store           DocumentStore
	logger          *zap.Logger
}

// defaultEngineConfig returns the default engine configuration.
func defaultEngineConfig() *engineConfig {
	return &engineConfig{
		tagPrefix:       DefaultTagPrefix,
		maxDepth:        DefaultMaxDepth,
		missingStrategy: MissingStrategyThrow,
		logger:          nil,
	}
}

// WithTagPrefix sets the markup prefix.
// Default: "t" (<t:name>...</t:name>)
func WithTagPrefix(prefix string) Option {
	return func(c *engineConfig) {
		c.tagPrefix = prefix
	}
}

// WithMaxDepth sets the maximum dispatch nesting depth.
// Use 0 for unlimited depth.
// Default: 256
func WithMaxDepth(depth int) Option {
	return func(c *engineConfig) {
		c.maxDepth = depth
	}
}

// WithMissingStrategy sets what happens when no handler resolves.
// Default: MissingStrategyThrow
func WithMissingStrategy(strategy MissingStrategy) Option {
	return func(c *engineConfig) {
		c.missingStrategy = strategy
	}
}

// WithMissingFunc installs a custom tag-missing handler. It takes precedence
// over the missing strategy.
func WithMissingFunc(fn MissingFunc) Option {
	return func(c *engineConfig) {
		c.missingFunc = fn
	}
}

// WithGlobals seeds the global scope. Repeated use merges the maps.
func WithGlobals(globals map[string]any) Option {
	return func(c *engineConfig) {
		if c.globals == nil {
			c.globals = make(map[string]any, len(globals))
		}
		for k, v := range globals {
			c.globals[k] = v
		}
	}
}

// WithStore attaches a document store used by RenderNamed and include tags.
func WithStore(store DocumentStore) Option {
	return func(c *engineConfig) {
		c.store = store
	}
}

// WithLogger sets the logger for the engine.
// Default: nil (no logging)
func WithLogger(logger *zap.Logger) Option {
	return func(c *engineConfig) {
		c.logger = logger
	}
}
