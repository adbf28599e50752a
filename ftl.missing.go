package ftl

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// MissingStrategy selects what happens when no handler resolves for a tag.
type MissingStrategy int

const (
	// MissingStrategyThrow fails the render with ErrTagMissing (default).
	MissingStrategyThrow MissingStrategy = iota
	// MissingStrategyRemove renders the tag as nothing.
	MissingStrategyRemove
	// MissingStrategyComment renders an HTML comment naming the tag.
	MissingStrategyComment
	// MissingStrategyLog logs a warning and renders nothing.
	MissingStrategyLog
)

// Strategy name constants
const (
	MissingStrategyNameThrow   = "throw"
	MissingStrategyNameRemove  = "remove"
	MissingStrategyNameComment = "comment"
	MissingStrategyNameLog     = "log"
)

// MissingFunc renders a tag that nothing resolves. The binding carries the
// same information as a normal dispatch.
type MissingFunc func(b *Binding) (string, error)

// String returns the strategy name.
func (s MissingStrategy) String() string {
	switch s {
	case MissingStrategyThrow:
		return MissingStrategyNameThrow
	case MissingStrategyRemove:
		return MissingStrategyNameRemove
	case MissingStrategyComment:
		return MissingStrategyNameComment
	case MissingStrategyLog:
		return MissingStrategyNameLog
	default:
		return fmt.Sprintf("MissingStrategy(%d)", int(s))
	}
}

// ParseMissingStrategy converts a strategy name. The empty string selects
// MissingStrategyThrow.
func ParseMissingStrategy(name string) (MissingStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", MissingStrategyNameThrow:
		return MissingStrategyThrow, nil
	case MissingStrategyNameRemove:
		return MissingStrategyRemove, nil
	case MissingStrategyNameComment:
		return MissingStrategyComment, nil
	case MissingStrategyNameLog:
		return MissingStrategyLog, nil
	default:
		return MissingStrategyThrow, NewConfigError(ErrMsgInvalidStrategy, name, ErrInvalidConfig)
	}
}

// missing applies the configured tag-missing behavior to b.
func (e *Engine) missing(b *Binding) (string, error) {
	if e.config.missingFunc != nil {
		return e.config.missingFunc(b)
	}

	caller := b.callerNesting()
	switch e.config.missingStrategy {
	case MissingStrategyRemove:
		return "", nil
	case MissingStrategyComment:
		return fmt.Sprintf(FmtMissingComment, b.Name, caller), nil
	case MissingStrategyLog:
		e.logger.Warn(LogMsgTagMissing,
			zap.String(LogFieldTag, b.Name),
			zap.String(LogFieldNesting, caller),
			zap.String(LogFieldStrategy, MissingStrategyNameLog))
		return "", nil
	default:
		suggestions := e.suggest(b.Name)
		return "", NewTagMissingError(b.Name, caller, b.Pos, suggestions)
	}
}
