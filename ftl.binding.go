package ftl

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// frame is the per-dispatch call state: the active stack, the local scope
// that nested dispatches chain to, and the dispatch depth.
type frame struct {
	stack  []string
	locals *Scope
	depth  int
}

// enter returns the frame for dispatching name below f. The stack is copied
// so frames never share a backing array.
func (f frame) enter(name string, globals *Scope) frame {
	stack := make([]string, len(f.stack), len(f.stack)+1)
	copy(stack, f.stack)
	stack = append(stack, name)

	parent := f.locals
	if parent == nil {
		parent = globals
	}
	return frame{
		stack:  stack,
		locals: NewScope(parent),
		depth:  f.depth + 1,
	}
}

// Binding is what a handler sees of one tag occurrence.
type Binding struct {
	// Name is the dispatched tag name. For a compound request "a:b" the
	// outer dispatch is named "a" and the synthetic child "b".
	Name string
	// Attr holds the tag attributes; never nil.
	Attr Attributes
	// Block is the tag's content; nil for a single tag.
	Block []Node
	// Locals is this dispatch's scope. Values set here are visible to the
	// tags rendered from Block.
	Locals *Scope
	// Globals is the engine-wide root scope.
	Globals *Scope
	// Path is the registered path that resolved, empty when missing.
	Path string
	// Pos is the source position of the tag, when known.
	Pos Position

	ctx    context.Context
	engine *Engine
	frame  frame
}

// Stack returns a copy of the active stack, outermost first, including this
// tag.
func (b *Binding) Stack() []string {
	stack := make([]string, len(b.frame.stack))
	copy(stack, b.frame.stack)
	return stack
}

// Nesting returns the colon-joined active stack including this tag.
func (b *Binding) Nesting() string {
	return strings.Join(b.frame.stack, PathSeparator)
}

// callerNesting returns the nesting string of the enclosing tags.
func (b *Binding) callerNesting() string {
	if len(b.frame.stack) == 0 {
		return ""
	}
	return strings.Join(b.frame.stack[:len(b.frame.stack)-1], PathSeparator)
}

// IsSingle reports whether the tag has no block.
func (b *Binding) IsSingle() bool {
	return b.Block == nil
}

// IsDouble reports whether the tag has a block, possibly empty.
func (b *Binding) IsDouble() bool {
	return b.Block != nil
}

// Expand renders the block with this tag on the stack.
func (b *Binding) Expand() (string, error) {
	if b.IsSingle() {
		return "", NewNoBlockError(b.Name, b.Nesting())
	}
	return b.engine.renderNodes(b.ctx, b.frame, b.Block)
}

// Render dispatches another tag as if it appeared inside this one.
// Pass a nil block for a single tag.
func (b *Binding) Render(name string, attrs Attributes, block []Node) (string, error) {
	return b.engine.dispatch(b.ctx, b.frame, name, attrs, block, b.Pos)
}

// ParseAsNested parses text and renders it with an empty active stack. Tags in
// text see this binding's locals; the registry and globals are shared and the
// depth guard keeps counting.
func (b *Binding) ParseAsNested(text string) (string, error) {
	b.engine.logger.Debug(LogMsgNestedParse,
		zap.String(LogFieldTag, b.Name),
		zap.Int(LogFieldSource, len(text)))

	doc, err := b.engine.Parse(text)
	if err != nil {
		return "", err
	}
	return b.engine.renderNodes(b.ctx, frame{depth: b.frame.depth, locals: b.frame.locals}, doc.Nodes)
}

// Missing applies the engine's tag-missing behavior to this tag.
func (b *Binding) Missing() (string, error) {
	return b.engine.missing(b)
}

// Context returns the render context.
func (b *Binding) Context() context.Context {
	return b.ctx
}

// Engine returns the rendering engine.
func (b *Binding) Engine() *Engine {
	return b.engine
}

// Logger returns the engine logger.
func (b *Binding) Logger() *zap.Logger {
	return b.engine.logger
}
