package internal

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ErrUnbalancedTag is the sentinel wrapped by every BuildError.
var ErrUnbalancedTag = errors.New("unbalanced tag")

// Builder is the structural pass: it turns markup into a tree of text and
// block tag nodes, checking that open and close tags balance.
type Builder struct {
	scanner *Scanner
	logger  *zap.Logger
}

// NewBuilder creates a builder that recognizes tags via scanner.
func NewBuilder(scanner *Scanner, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Debug(LogMsgBuilderCreated, zap.String(LogFieldPrefix, scanner.Prefix()))
	return &Builder{scanner: scanner, logger: logger}
}

// Build returns the top-level node sequence of src.
func (b *Builder) Build(src string) ([]Node, error) {
	b.logger.Debug(LogMsgBuildStart, zap.Int(LogFieldSource, len(src)))

	state := &buildState{src: src, lines: newLineIndex(src)}
	nodes, _, err := b.buildBlock(state, 0, nil)
	if err != nil {
		return nil, err
	}

	b.logger.Debug(LogMsgBuildEnd, zap.Int(LogFieldNodes, len(nodes)))
	return nodes, nil
}

type buildState struct {
	src   string
	lines lineIndex
}

// buildBlock collects the nodes of one block starting at pos. open is the tag
// owning the block, nil at top level. It returns the offset just past the
// block's close tag.
func (b *Builder) buildBlock(st *buildState, pos int, open *TagMatch) ([]Node, int, error) {
	nodes := []Node{}

	for {
		match, ok := b.scanner.NextStructural(st.src, pos)
		if !ok {
			if open != nil {
				return nil, 0, NewUnterminatedError(open.Name, st.lines.position(open.Start))
			}
			if pos < len(st.src) {
				nodes = append(nodes, NewTextNode(st.src[pos:], st.lines.position(pos)))
			}
			return nodes, len(st.src), nil
		}

		if match.Start > pos {
			nodes = append(nodes, NewTextNode(st.src[pos:match.Start], st.lines.position(pos)))
		}

		switch match.Kind {
		case TagKindOpen:
			children, next, err := b.buildBlock(st, match.End, &match)
			if err != nil {
				return nil, 0, err
			}
			nodes = append(nodes, NewBlockTag(match.Name, match.Attributes, children, st.lines.position(match.Start)))
			pos = next

		case TagKindClose:
			if open == nil {
				return nil, 0, NewMismatchError(ErrMsgUnexpectedClose, StringValueEmpty, match.Name, st.lines.position(match.Start))
			}
			if match.Name != open.Name {
				return nil, 0, NewMismatchError(ErrMsgMismatchedTag, open.Name, match.Name, st.lines.position(match.Start))
			}
			return nodes, match.End, nil
		}
	}
}

// BuildError reports an unbalanced tag structure.
type BuildError struct {
	Message  string
	Tag      string // The offending tag name
	Expected string // Innermost open tag, empty when none was open
	Position Position
}

// NewMismatchError creates an error for a close tag that does not match.
func NewMismatchError(message, expected, actual string, pos Position) *BuildError {
	return &BuildError{Message: message, Tag: actual, Expected: expected, Position: pos}
}

// NewUnterminatedError creates an error for a tag left open at end of input.
func NewUnterminatedError(name string, pos Position) *BuildError {
	return &BuildError{Message: ErrMsgUnterminatedTag, Tag: name, Expected: name, Position: pos}
}

// Error implements the error interface.
func (e *BuildError) Error() string {
	return fmt.Sprintf(ErrFmtWithPosition, e.Message, e.Tag, e.Position)
}

// Unwrap returns ErrUnbalancedTag.
func (e *BuildError) Unwrap() error {
	return ErrUnbalancedTag
}
