package internal

// NodeType identifies AST node types
type NodeType int

// Node type constants
const (
	NodeTypeText NodeType = iota
	NodeTypeTag
)

// Node type string names for debugging
const (
	NodeTypeNameText = "TEXT"
	NodeTypeNameTag  = "TAG"
)

// String returns the string representation of the node type
func (n NodeType) String() string {
	if n == NodeTypeTag {
		return NodeTypeNameTag
	}
	return NodeTypeNameText
}

// TagKind identifies which form of tag the scanner matched
type TagKind int

// Tag kind constants
const (
	TagKindOpen TagKind = iota
	TagKindSelfClose
	TagKindClose
)

// Markup character constants
const (
	CharLess        = '<'
	CharGreater     = '>'
	CharSlash       = '/'
	CharColon       = ':'
	CharEquals      = '='
	CharDoubleQuote = '"'
	CharSingleQuote = '\''
	CharNewline     = '\n'
	CharSpace       = ' '
	CharTab         = '\t'
	CharCarriageRet = '\r'
	CharFormFeed    = '\f'
	CharVerticalTab = '\v'
)

// String constants used by the scanner and resolver
const (
	StrPathSeparator = ":"
	StrDoubleColon   = "::"
	StrSelfCloseEnd  = "/>"
	StrCloseStart    = "</"
	StringValueEmpty = ""
)

// DefaultTagPrefix is the prefix used when none is configured
const DefaultTagPrefix = "t"

// Accuracy scoring constants.
// The skip penalty is weighted by AccuracyDepthWeight so that agreement depth
// only separates candidates with the same number of skipped ancestors.
const (
	AccuracyBase        = 1000
	AccuracyDepthWeight = 1000
)

// Suggestion defaults
const (
	DefaultMaxSuggestions = 3
)

// Display limits for String() helpers
const (
	MaxStringDisplayLength = 40
	TruncatedStringLength  = 37
	TruncationSuffix       = "..."
)

// Log message constants
const (
	LogMsgBuilderCreated    = "builder created"
	LogMsgBuildStart        = "starting build"
	LogMsgBuildEnd          = "build complete"
	LogMsgRegistryCreated   = "registry created"
	LogMsgHandlerDefined    = "handler defined"
	LogMsgHandlerRedefined  = "handler redefined - last writer wins"
	LogMsgQualifyExact      = "exact nested match"
	LogMsgQualifyPartial    = "partial match selected"
	LogMsgQualifyNoMatch    = "no candidate fits nesting"
	LogMsgQualifyNoCandiate = "no candidate with matching name"
)

// Log field names
const (
	LogFieldSource     = "source_length"
	LogFieldNodes      = "node_count"
	LogFieldPath       = "path"
	LogFieldName       = "name"
	LogFieldNesting    = "nesting"
	LogFieldScore      = "score"
	LogFieldCandidates = "candidates"
	LogFieldPrefix     = "prefix"
)

// Error message constants
const (
	ErrMsgMismatchedTag   = "closing tag does not match innermost open tag"
	ErrMsgUnexpectedClose = "closing tag without matching open tag"
	ErrMsgUnterminatedTag = "tag is never closed"
	ErrMsgEmptyPath       = "tag path cannot be empty"
	ErrMsgEmptySegment    = "tag path contains an empty segment"
	ErrMsgInvalidSegment  = "tag path segment contains invalid characters"
	ErrMsgNilHandler      = "handler cannot be nil"
	ErrMsgEmptyPrefix     = "tag prefix cannot be empty"
	ErrMsgInvalidPrefix   = "tag prefix contains invalid characters"
)

// Error format string constants (for Error() methods)
const (
	ErrFmtWithPosition = "%s [%s] at %s"
	ErrFmtTagMessage   = "%s: %s"
)
