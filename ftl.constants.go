package ftl

import "github.com/itsatony/go-ftl/internal"

// Default configuration values
const (
	// DefaultTagPrefix is the markup prefix: <t:name>...</t:name>
	DefaultTagPrefix = internal.DefaultTagPrefix
	// DefaultMaxDepth bounds dispatch nesting, including nested parses.
	DefaultMaxDepth = 256
)

// PathSeparator joins tag names into qualified paths and nesting strings.
const PathSeparator = internal.StrPathSeparator

// Error code constants for categorization
const (
	ErrCodeParse      = "FTL_PARSE"
	ErrCodeResolve    = "FTL_RESOLVE"
	ErrCodeHandler    = "FTL_HANDLER"
	ErrCodeRender     = "FTL_RENDER"
	ErrCodeDefinition = "FTL_DEFINITION"
	ErrCodeStore      = "FTL_STORE"
	ErrCodeConfig     = "FTL_CONFIG"
)

// Metadata keys for cuserr.WithMetadata
const (
	MetaKeyTag          = "tag"
	MetaKeyPath         = "path"
	MetaKeyNesting      = "nesting"
	MetaKeyExpected     = "expected"
	MetaKeyLine         = "line"
	MetaKeyColumn       = "column"
	MetaKeyOffset       = "offset"
	MetaKeySuggestions  = "suggestions"
	MetaKeyCurrentDepth = "current_depth"
	MetaKeyMaxDepth     = "max_depth"
	MetaKeyDocument     = "document"
	MetaKeyDriver       = "driver"
	MetaKeyValue        = "value"
	MetaKeyFile         = "file"
)

// Log message constants
const (
	LogMsgEngineCreated   = "engine created"
	LogMsgRenderStart     = "starting render"
	LogMsgRenderEnd       = "render complete"
	LogMsgDispatch        = "dispatching tag"
	LogMsgCompoundSplit   = "compound tag split"
	LogMsgTagMissing      = "tag missing"
	LogMsgHandlerPanic    = "handler panicked"
	LogMsgNestedParse     = "nested parse"
	LogMsgDocumentLoaded  = "document loaded"
	LogMsgStoreOpened     = "document store opened"
	LogMsgConfigLoaded    = "config loaded"
	LogMsgMissingStrategy = "tag-missing strategy applied"
)

// Log field names
const (
	LogFieldTag      = "tag"
	LogFieldPath     = "path"
	LogFieldNesting  = "nesting"
	LogFieldDepth    = "depth"
	LogFieldExact    = "exact"
	LogFieldSource   = "source_length"
	LogFieldNodes    = "nodes"
	LogFieldOutput   = "output_length"
	LogFieldPrefix   = "prefix"
	LogFieldStrategy = "strategy"
	LogFieldDocument = "document"
	LogFieldDriver   = "driver"
	LogFieldFile     = "file"
	LogFieldPanic    = "panic"
)

// Diagnostic output formats
const (
	// FmtMissingComment is what MissingStrategyComment renders.
	FmtMissingComment = "<!-- tag missing: %s, scope: %s -->"
	// FmtPanic describes a recovered handler panic.
	FmtPanic = "handler panic: %v"
)
