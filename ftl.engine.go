package ftl

import (
	"context"

	"github.com/itsatony/go-cuserr"
	"go.uber.org/zap"

	"github.com/itsatony/go-ftl/internal"
)

// Engine is the main entry point for the ftl templating system.
// It owns the tag registry, the global scope and the optional document store.
type Engine struct {
	registry *internal.Registry[Handler]
	scanner  *internal.Scanner
	builder  *internal.Builder
	globals  *Scope
	config   *engineConfig
	logger   *zap.Logger
}

// New creates a new ftl Engine with the given options.
func New(opts ...Option) (*Engine, error) {
	config := defaultEngineConfig()
	for _, opt := range opts {
		opt(config)
	}

	logger := config.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	scanner, err := internal.NewScanner(config.tagPrefix)
	if err != nil {
		return nil, NewDefinitionError(ErrMsgInvalidPrefix, config.tagPrefix, err)
	}
	if config.maxDepth < 0 {
		config.maxDepth = 0
	}

	logger.Debug(LogMsgEngineCreated,
		zap.String(LogFieldPrefix, config.tagPrefix),
		zap.Int(LogFieldDepth, config.maxDepth),
		zap.String(LogFieldStrategy, config.missingStrategy.String()))

	return &Engine{
		registry: internal.NewRegistry[Handler](logger),
		scanner:  scanner,
		builder:  internal.NewBuilder(scanner, logger),
		globals:  NewScopeWith(config.globals, nil),
		config:   config,
		logger:   logger,
	}, nil
}

// MustNew creates a new Engine and panics if there's an error.
func MustNew(opts ...Option) *Engine {
	engine, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return engine
}

// Define registers h under a colon-joined path such as "list:item".
// Redefining a path replaces its handler and keeps its registration rank.
func (e *Engine) Define(path string, h Handler) error {
	if isNilHandler(h) {
		return NewDefinitionError(ErrMsgNilHandler, path, nil)
	}
	if err := e.registry.Define(path, h); err != nil {
		return NewDefinitionError(ErrMsgInvalidDefinition, path, err)
	}
	return nil
}

// DefineFunc registers a function handler.
func (e *Engine) DefineFunc(path string, fn func(b *Binding) (string, error)) error {
	if fn == nil {
		return NewDefinitionError(ErrMsgNilHandler, path, nil)
	}
	return e.Define(path, HandlerFunc(fn))
}

// MustDefine registers h and panics if registration fails.
func (e *Engine) MustDefine(path string, h Handler) {
	if err := e.Define(path, h); err != nil {
		panic(err)
	}
}

// Defined reports whether path is registered.
func (e *Engine) Defined(path string) bool {
	return e.registry.Has(path)
}

// Paths returns the registered paths in registration order.
func (e *Engine) Paths() []string {
	return e.registry.Paths()
}

// Resolve returns the registered path that would handle name when rendered
// inside stack.
func (e *Engine) Resolve(name string, stack []string) (string, bool) {
	res, ok := e.registry.Qualify(name, stack)
	if !ok {
		return "", false
	}
	return res.Path, true
}

// Globals returns the root scope every top-level dispatch chains to.
func (e *Engine) Globals() *Scope {
	return e.globals
}

// Store returns the attached document store, or nil.
func (e *Engine) Store() DocumentStore {
	return e.config.store
}

// TagPrefix returns the markup prefix.
func (e *Engine) TagPrefix() string {
	return e.scanner.Prefix()
}

// MaxDepth returns the dispatch depth limit; 0 means unlimited.
func (e *Engine) MaxDepth() int {
	return e.config.maxDepth
}

// Logger returns the engine logger.
func (e *Engine) Logger() *zap.Logger {
	return e.logger
}

// Parse runs the structural pass over source. The returned Document can be
// rendered multiple times.
func (e *Engine) Parse(source string) (*Document, error) {
	nodes, err := e.builder.Build(source)
	if err != nil {
		return nil, NewUnbalancedTagError(err)
	}
	return &Document{Source: source, Nodes: nodes, engine: e}, nil
}

// Render is a convenience method that parses and renders in one step.
func (e *Engine) Render(ctx context.Context, source string) (string, error) {
	doc, err := e.Parse(source)
	if err != nil {
		return "", err
	}
	return doc.Render(ctx)
}

// RenderNodes renders an already built tree with an empty active stack.
func (e *Engine) RenderNodes(ctx context.Context, nodes []Node) (string, error) {
	e.logger.Debug(LogMsgRenderStart, zap.Int(LogFieldNodes, len(nodes)))

	out, err := e.renderNodes(ctx, frame{}, nodes)
	if err != nil {
		return "", err
	}

	e.logger.Debug(LogMsgRenderEnd, zap.Int(LogFieldOutput, len(out)))
	return out, nil
}

// RenderNamed loads a document from the store and renders it.
func (e *Engine) RenderNamed(ctx context.Context, name string) (string, error) {
	doc, err := e.Load(ctx, name)
	if err != nil {
		return "", err
	}
	return doc.Render(ctx)
}

// Load fetches and parses a stored document.
func (e *Engine) Load(ctx context.Context, name string) (*Document, error) {
	if e.config.store == nil {
		return nil, cuserr.WrapStdError(ErrNoStore, ErrCodeStore, ErrMsgNoStore).
			WithMetadata(MetaKeyDocument, name)
	}

	stored, err := e.config.store.Get(ctx, name)
	if err != nil {
		return nil, err
	}

	e.logger.Debug(LogMsgDocumentLoaded,
		zap.String(LogFieldDocument, name),
		zap.Int(LogFieldSource, len(stored.Source)))
	return e.Parse(stored.Source)
}

// suggest returns registered tag names similar to name.
func (e *Engine) suggest(name string) []string {
	return internal.FindSimilarNames(name, e.registry.Names(), internal.DefaultMaxSuggestions)
}

// Document is a parsed source ready to render.
type Document struct {
	Source string
	Nodes  []Node
	engine *Engine
}

// Render renders the document with its engine.
func (d *Document) Render(ctx context.Context) (string, error) {
	return d.engine.RenderNodes(ctx, d.Nodes)
}

// String returns an indented outline of the tree.
func (d *Document) String() string {
	return Dump(d.Nodes)
}
