// Package ftl provides a markup-tag templating engine. Documents mix literal
// text with namespaced tags whose output comes from user-registered handlers.
//
// Tags use a configurable prefix (default "t"):
//
//	Hello <t:user name="Sam"/>!
//	<t:list>...<t:item/>...</t:list>
//
// # Basic Usage
//
// Create an engine, define handlers and render:
//
//	engine := ftl.MustNew()
//	engine.MustDefine("greet", ftl.HandlerFunc(func(b *ftl.Binding) (string, error) {
//	    b.Locals.Set("who", b.Attr.GetDefault("name", "World"))
//	    return b.Expand()
//	}))
//	engine.MustDefine("greet:name", ftl.HandlerFunc(func(b *ftl.Binding) (string, error) {
//	    return b.Locals.GetString("who") + "!", nil
//	}))
//	out, err := engine.Render(ctx, `<t:greet name="Sam">Hi <t:name/></t:greet>`)
//	// out: "Hi Sam!"
//
// # Nested Resolution
//
// Handlers are registered under colon-joined paths. A tag is resolved
// against the stack of tags currently being rendered: an exact registration
// of the full nested path wins, otherwise the registered path that best
// agrees with the innermost part of the stack is chosen. A tag requested as
// "a:b" renders "a" with a single child tag "b".
//
// # Scopes
//
// Every dispatch gets a fresh local Scope chained to its caller's scope, or
// to the engine globals at top level. Reads fall through the chain and
// writes stay local, so a handler can pass values down to the tags in its
// block.
//
// # Error Handling
//
// Errors are github.com/itsatony/go-cuserr errors carrying tag, nesting and
// position metadata. Classify them with errors.Is:
//
//	if errors.Is(err, ftl.ErrTagMissing) { ... }
//
// The tag-missing behavior is configurable with WithMissingStrategy or
// WithMissingFunc.
package ftl

import "github.com/itsatony/go-ftl/internal"

// Node is a parsed text or tag node.
type Node = internal.Node

// TextNode is literal text, possibly containing self-closing tags.
type TextNode = internal.TextNode

// TagNode is a block tag. Children is nil for a single (self-closing) tag.
type TagNode = internal.TagNode

// Attributes holds tag attributes.
type Attributes = internal.Attributes

// Position is a location in the source document.
type Position = internal.Position

// NewTagNode creates a tag node. Pass nil children for a single tag.
func NewTagNode(name string, attrs Attributes, children []Node) *TagNode {
	return internal.NewTagNode(name, attrs, children, Position{})
}

// NewTextNode creates a text node.
func NewTextNode(content string) *TextNode {
	return internal.NewTextNode(content, Position{})
}

// Dump returns an indented outline of nodes.
func Dump(nodes []Node) string {
	return internal.Dump(nodes)
}
