package ftl

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/itsatony/go-ftl/internal"
)

// renderNodes renders nodes in order under f.
func (e *Engine) renderNodes(ctx context.Context, f frame, nodes []Node) (string, error) {
	var sb strings.Builder
	for _, node := range nodes {
		var (
			out string
			err error
		)
		switch n := node.(type) {
		case *TextNode:
			out, err = e.renderText(ctx, f, n)
		case *TagNode:
			out, err = e.dispatch(ctx, f, n.Name, n.Attributes, n.Children, n.Pos())
		}
		if err != nil {
			return "", err
		}
		sb.WriteString(out)
	}
	return sb.String(), nil
}

// renderText expands the self-closing tags inside a text node. Handler
// output is spliced in and not scanned again.
func (e *Engine) renderText(ctx context.Context, f frame, n *TextNode) (string, error) {
	text := n.Content
	var sb strings.Builder
	pos := 0
	for {
		match, ok := e.scanner.NextSelfClosing(text, pos)
		if !ok {
			sb.WriteString(text[pos:])
			return sb.String(), nil
		}
		sb.WriteString(text[pos:match.Start])

		at := internal.Advance(n.Pos(), text, match.Start)
		out, err := e.dispatch(ctx, f, match.Name, match.Attributes, nil, at)
		if err != nil {
			return "", err
		}
		sb.WriteString(out)
		pos = match.End
	}
}

// dispatch resolves name under f and invokes its handler.
func (e *Engine) dispatch(ctx context.Context, f frame, name string, attrs Attributes, block []Node, pos Position) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if head, tail, ok := internal.SplitCompound(name); ok {
		e.logger.Debug(LogMsgCompoundSplit,
			zap.String(LogFieldTag, name),
			zap.String(LogFieldPath, head))
		child := internal.NewTagNode(tail, attrs, block, pos)
		return e.dispatch(ctx, f, head, Attributes{}, []Node{child}, pos)
	}

	if e.config.maxDepth > 0 && f.depth >= e.config.maxDepth {
		return "", NewMaxDepthError(name, f.depth+1, e.config.maxDepth)
	}

	next := f.enter(name, e.globals)
	b := &Binding{
		Name:    name,
		Attr:    copyAttributes(attrs),
		Block:   block,
		Locals:  next.locals,
		Globals: e.globals,
		Pos:     pos,
		ctx:     ctx,
		engine:  e,
		frame:   next,
	}

	res, ok := e.registry.Qualify(name, f.stack)
	if !ok {
		e.logger.Debug(LogMsgTagMissing,
			zap.String(LogFieldTag, name),
			zap.String(LogFieldNesting, b.callerNesting()),
			zap.String(LogFieldStrategy, e.config.missingStrategy.String()))
		return e.invoke(b, HandlerFunc(e.missing))
	}

	b.Path = res.Path
	e.logger.Debug(LogMsgDispatch,
		zap.String(LogFieldTag, name),
		zap.String(LogFieldPath, res.Path),
		zap.String(LogFieldNesting, b.Nesting()),
		zap.Bool(LogFieldExact, res.Exact),
		zap.Int(LogFieldDepth, next.depth))
	return e.invoke(b, res.Handler)
}

// invoke runs h, converting failures and panics into handler errors.
// Errors that already carry engine classification pass through unchanged.
func (e *Engine) invoke(b *Binding, h Handler) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error(LogMsgHandlerPanic,
				zap.String(LogFieldTag, b.Name),
				zap.String(LogFieldNesting, b.Nesting()),
				zap.Any(LogFieldPanic, r))
			out = ""
			err = NewHandlerError(b.Name, b.Path, b.Nesting(), b.Pos, fmt.Errorf(FmtPanic, r))
		}
	}()

	out, err = h.Render(b)
	if err != nil {
		if isEngineError(err) {
			return "", err
		}
		return "", NewHandlerError(b.Name, b.Path, b.Nesting(), b.Pos, err)
	}
	return out, nil
}

// copyAttributes gives each binding its own map; parsed nodes are shared
// across renders of the same Document.
func copyAttributes(attrs Attributes) Attributes {
	own := make(Attributes, len(attrs))
	for k, v := range attrs {
		own[k] = v
	}
	return own
}
