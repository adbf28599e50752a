package ftl

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/itsatony/go-cuserr"

	"github.com/itsatony/go-ftl/internal"
)

// Error message constants - ALL error messages must be constants
const (
	ErrMsgUnbalancedTag     = "unbalanced tag"
	ErrMsgTagMissing        = "tag missing"
	ErrMsgHandlerFailed     = "handler invocation failed"
	ErrMsgNilHandler        = "handler cannot be nil"
	ErrMsgInvalidDefinition = "invalid tag definition"
	ErrMsgInvalidPrefix     = "invalid tag prefix"
	ErrMsgNoBlock           = "tag has no block to expand"
	ErrMsgMaxDepthExceeded  = "maximum nesting depth exceeded"
	ErrMsgDocumentNotFound  = "document not found"
	ErrMsgStoreClosed       = "document store is closed"
	ErrMsgNoStore           = "no document store configured"
	ErrMsgUnknownDriver     = "unknown document store driver"
	ErrMsgInvalidDocName    = "invalid document name"
	ErrMsgStoreFailed       = "document store operation failed"
	ErrMsgConfigRead        = "failed to read config file"
	ErrMsgConfigParse       = "failed to parse config"
	ErrMsgInvalidStrategy   = "invalid tag-missing strategy"

	// ErrFmtTagMissing names the tag and its scope in the error text.
	ErrFmtTagMissing = "tag missing: %q, scope: %q"
)

// Sentinel errors. Every error returned by the engine wraps one of these, so
// callers can classify failures with errors.Is.
var (
	// ErrUnbalancedTag reports a close tag that does not match the innermost
	// open tag, or a tag left open at end of input.
	ErrUnbalancedTag = internal.ErrUnbalancedTag
	// ErrInvalidDefinition reports an unusable tag path, prefix or handler.
	ErrInvalidDefinition = internal.ErrInvalidDefinition
	// ErrTagMissing reports that no handler resolves for a tag.
	ErrTagMissing = errors.New(ErrMsgTagMissing)
	// ErrHandlerInvocation reports a handler that failed or panicked.
	ErrHandlerInvocation = errors.New(ErrMsgHandlerFailed)
	// ErrNoBlock reports Expand on a single tag.
	ErrNoBlock = errors.New(ErrMsgNoBlock)
	// ErrMaxDepthExceeded reports runaway dispatch recursion.
	ErrMaxDepthExceeded = errors.New(ErrMsgMaxDepthExceeded)

	ErrDocumentNotFound   = errors.New(ErrMsgDocumentNotFound)
	ErrStoreClosed        = errors.New(ErrMsgStoreClosed)
	ErrNoStore            = errors.New(ErrMsgNoStore)
	ErrUnknownStoreDriver = errors.New(ErrMsgUnknownDriver)
	ErrInvalidConfig      = errors.New(ErrMsgConfigParse)
)

// HandlerError carries a handler failure together with the tag it happened
// in. It matches both ErrHandlerInvocation and its cause under errors.Is.
type HandlerError struct {
	Tag     string
	Path    string
	Nesting string
	Cause   error
}

// Error implements the error interface.
func (e *HandlerError) Error() string {
	return fmt.Sprintf("%s [%s]: %v", ErrMsgHandlerFailed, e.Nesting, e.Cause)
}

// Unwrap returns the sentinel and the cause.
func (e *HandlerError) Unwrap() []error {
	return []error{ErrHandlerInvocation, e.Cause}
}

// withPosition attaches line, column and offset metadata.
func withPosition(err *cuserr.CustomError, pos Position) *cuserr.CustomError {
	return err.
		WithMetadata(MetaKeyLine, strconv.Itoa(pos.Line)).
		WithMetadata(MetaKeyColumn, strconv.Itoa(pos.Column)).
		WithMetadata(MetaKeyOffset, strconv.Itoa(pos.Offset))
}

// NewUnbalancedTagError converts a structural pass failure.
func NewUnbalancedTagError(cause error) error {
	err := cuserr.WrapStdError(cause, ErrCodeParse, ErrMsgUnbalancedTag)
	var buildErr *internal.BuildError
	if errors.As(cause, &buildErr) {
		err = withPosition(err, buildErr.Position).
			WithMetadata(MetaKeyTag, buildErr.Tag).
			WithMetadata(MetaKeyExpected, buildErr.Expected)
	}
	return err
}

// NewTagMissingError creates an error for a tag nothing resolves.
func NewTagMissingError(tag, nesting string, pos Position, suggestions []string) error {
	err := cuserr.WrapStdError(ErrTagMissing, ErrCodeResolve, fmt.Sprintf(ErrFmtTagMissing, tag, nesting)).
		WithMetadata(MetaKeyTag, tag).
		WithMetadata(MetaKeyNesting, nesting)
	if len(suggestions) > 0 {
		err = err.WithMetadata(MetaKeySuggestions, strings.Join(suggestions, ", "))
	}
	return withPosition(err, pos)
}

// NewHandlerError wraps a handler failure.
func NewHandlerError(tag, path, nesting string, pos Position, cause error) error {
	herr := &HandlerError{Tag: tag, Path: path, Nesting: nesting, Cause: cause}
	err := cuserr.WrapStdError(herr, ErrCodeHandler, ErrMsgHandlerFailed).
		WithMetadata(MetaKeyTag, tag).
		WithMetadata(MetaKeyPath, path).
		WithMetadata(MetaKeyNesting, nesting)
	return withPosition(err, pos)
}

// NewNoBlockError creates an error for Expand on a single tag.
func NewNoBlockError(tag, nesting string) error {
	return cuserr.WrapStdError(ErrNoBlock, ErrCodeRender, ErrMsgNoBlock).
		WithMetadata(MetaKeyTag, tag).
		WithMetadata(MetaKeyNesting, nesting)
}

// NewMaxDepthError creates an error for exceeding the dispatch depth limit.
func NewMaxDepthError(tag string, depth, maxDepth int) error {
	return cuserr.WrapStdError(ErrMaxDepthExceeded, ErrCodeRender, ErrMsgMaxDepthExceeded).
		WithMetadata(MetaKeyTag, tag).
		WithMetadata(MetaKeyCurrentDepth, strconv.Itoa(depth)).
		WithMetadata(MetaKeyMaxDepth, strconv.Itoa(maxDepth))
}

// NewDefinitionError wraps an invalid path, prefix or handler.
func NewDefinitionError(msg, value string, cause error) error {
	if cause == nil {
		cause = internal.NewDefinitionError(msg, value)
	}
	return cuserr.WrapStdError(cause, ErrCodeDefinition, msg).
		WithMetadata(MetaKeyValue, value)
}

// NewDocumentNotFoundError creates an error for a missing stored document.
func NewDocumentNotFoundError(name string) error {
	return cuserr.WrapStdError(ErrDocumentNotFound, ErrCodeStore, ErrMsgDocumentNotFound).
		WithMetadata(MetaKeyDocument, name)
}

// NewStoreError wraps a storage backend failure.
func NewStoreError(msg, name string, cause error) error {
	return cuserr.WrapStdError(cause, ErrCodeStore, msg).
		WithMetadata(MetaKeyDocument, name)
}

// NewUnknownDriverError creates an error for an unregistered store driver.
func NewUnknownDriverError(driver string) error {
	return cuserr.WrapStdError(ErrUnknownStoreDriver, ErrCodeStore, ErrMsgUnknownDriver).
		WithMetadata(MetaKeyDriver, driver)
}

// NewConfigError wraps a configuration loading failure.
func NewConfigError(msg, file string, cause error) error {
	return cuserr.WrapStdError(cause, ErrCodeConfig, msg).
		WithMetadata(MetaKeyFile, file)
}

// isEngineError reports whether err already carries engine classification and
// should pass through a handler boundary unchanged.
func isEngineError(err error) bool {
	for _, sentinel := range []error{
		ErrUnbalancedTag,
		ErrTagMissing,
		ErrHandlerInvocation,
		ErrNoBlock,
		ErrMaxDepthExceeded,
		context.Canceled,
		context.DeadlineExceeded,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
