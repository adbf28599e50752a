package internal

import (
	"fmt"
	"sort"
	"strings"
)

// Position represents a location in the source document
type Position struct {
	Offset int // Byte offset from start
	Line   int // 1-indexed line number
	Column int // 1-indexed column number
}

// String returns a human-readable position string
func (p Position) String() string {
	return fmt.Sprintf("line %d, column %d", p.Line, p.Column)
}

// lineIndex maps byte offsets to line/column positions.
type lineIndex []int

// newLineIndex records the offset of every line start in source.
func newLineIndex(source string) lineIndex {
	starts := lineIndex{0}
	for i := 0; i < len(source); i++ {
		if source[i] == CharNewline {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// position returns the Position of offset.
func (l lineIndex) position(offset int) Position {
	line := sort.Search(len(l), func(i int) bool { return l[i] > offset }) - 1
	if line < 0 {
		line = 0
	}
	return Position{Offset: offset, Line: line + 1, Column: offset - l[line] + 1}
}

// Node is the interface all tree nodes implement
type Node interface {
	// Type returns the node type identifier
	Type() NodeType
	// Pos returns the source position of this node
	Pos() Position
	// String returns a human-readable representation
	String() string
}

// TextNode represents literal text. It may still contain self-closing tags,
// which are expanded when the text is rendered.
type TextNode struct {
	pos     Position
	Content string
}

// NewTextNode creates a new text node
func NewTextNode(content string, pos Position) *TextNode {
	return &TextNode{pos: pos, Content: content}
}

// Type returns NodeTypeText
func (n *TextNode) Type() NodeType { return NodeTypeText }

// Pos returns the source position
func (n *TextNode) Pos() Position { return n.pos }

// String returns a string representation
func (n *TextNode) String() string {
	content := n.Content
	if len(content) > MaxStringDisplayLength {
		content = content[:TruncatedStringLength] + TruncationSuffix
	}
	return fmt.Sprintf("TextNode{%q @ %s}", content, n.pos)
}

// TagNode represents a tag occurrence.
//
// Children is nil for a single (self-closing) tag and non-nil, possibly
// empty, for a block tag. The structural pass only ever produces block tags.
type TagNode struct {
	pos        Position
	Name       string
	Attributes Attributes
	Children   []Node
}

// NewBlockTag creates a block tag node. A nil children slice is replaced by
// an empty one so the node keeps its block status.
func NewBlockTag(name string, attrs Attributes, children []Node, pos Position) *TagNode {
	if children == nil {
		children = []Node{}
	}
	return &TagNode{pos: pos, Name: name, Attributes: attrs, Children: children}
}

// NewTagNode creates a tag node whose block is taken as-is (nil means single).
func NewTagNode(name string, attrs Attributes, children []Node, pos Position) *TagNode {
	return &TagNode{pos: pos, Name: name, Attributes: attrs, Children: children}
}

// Type returns NodeTypeTag
func (n *TagNode) Type() NodeType { return NodeTypeTag }

// Pos returns the source position
func (n *TagNode) Pos() Position { return n.pos }

// IsSingle reports whether the tag has no block.
func (n *TagNode) IsSingle() bool { return n.Children == nil }

// String returns a string representation
func (n *TagNode) String() string {
	if n.IsSingle() {
		return fmt.Sprintf("TagNode{%s, single, attrs=%s @ %s}", n.Name, n.Attributes, n.pos)
	}
	return fmt.Sprintf("TagNode{%s, block, attrs=%s, children=%d @ %s}", n.Name, n.Attributes, len(n.Children), n.pos)
}

// Attributes is a map of tag attribute key-value pairs
type Attributes map[string]string

// Get retrieves an attribute value, returning ok=false if not found
func (a Attributes) Get(key string) (string, bool) {
	if a == nil {
		return "", false
	}
	val, ok := a[key]
	return val, ok
}

// GetDefault retrieves an attribute value with a default fallback
func (a Attributes) GetDefault(key, defaultVal string) string {
	if val, ok := a.Get(key); ok {
		return val
	}
	return defaultVal
}

// Has checks if an attribute exists
func (a Attributes) Has(key string) bool {
	_, ok := a.Get(key)
	return ok
}

// Keys returns all attribute keys in sorted order
func (a Attributes) Keys() []string {
	if a == nil {
		return nil
	}
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Map returns a copy of the underlying map
func (a Attributes) Map() map[string]string {
	result := make(map[string]string, len(a))
	for k, v := range a {
		result[k] = v
	}
	return result
}

// String returns a string representation of the attributes
func (a Attributes) String() string {
	if len(a) == 0 {
		return "{}"
	}
	keys := a.Keys()
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("%s=%q", k, a[k]))
	}
	return "{" + strings.Join(pairs, ", ") + "}"
}

// Dump writes an indented outline of nodes, one node per line.
func Dump(nodes []Node) string {
	var sb strings.Builder
	dumpNodes(&sb, nodes, 0)
	return sb.String()
}

func dumpNodes(sb *strings.Builder, nodes []Node, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, node := range nodes {
		sb.WriteString(indent)
		sb.WriteString(node.String())
		sb.WriteByte(CharNewline)
		if tag, ok := node.(*TagNode); ok && len(tag.Children) > 0 {
			dumpNodes(sb, tag.Children, depth+1)
		}
	}
}

// Advance returns the position of offset at within text, where text starts
// at base.
func Advance(base Position, text string, at int) Position {
	if at > len(text) {
		at = len(text)
	}
	prefix := text[:at]
	pos := Position{Offset: base.Offset + at, Line: base.Line, Column: base.Column + at}
	if nl := strings.LastIndexByte(prefix, CharNewline); nl >= 0 {
		pos.Line += strings.Count(prefix, string(CharNewline))
		pos.Column = at - nl
	}
	return pos
}
