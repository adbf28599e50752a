package main

// CLI metadata
const (
	CLIName        = "ftl"
	CLIDescription = "Markup-tag templating CLI"
)

// Command names
const (
	CmdNameRender  = "render"
	CmdNameTree    = "tree"
	CmdNameCheck   = "check"
	CmdNameTags    = "tags"
	CmdNameVersion = "version"
)

// Exit codes
const (
	ExitCodeSuccess    = 0
	ExitCodeError      = 1
	ExitCodeUsageError = 2
	ExitCodeInputError = 4
)

// Input source indicators
const (
	InputSourceStdin = "-"
)

// Output formats
const (
	OutputFormatText = "text"
	OutputFormatJSON = "json"
)

// Profiling modes
const (
	ProfileModeCPU = "cpu"
	ProfileModeMem = "mem"
)

// Error messages - ALL must be constants
const (
	ErrMsgReadFileFailed    = "failed to read input"
	ErrMsgWriteOutputFailed = "failed to write output"
	ErrMsgLoadConfigFailed  = "failed to load config"
	ErrMsgLoadGlobalsFailed = "failed to load globals"
	ErrMsgEngineFailed      = "failed to create engine"
	ErrMsgRenderFailed      = "render failed"
	ErrMsgParseFailed       = "document is not balanced"
	ErrMsgInvalidMissing    = "invalid missing strategy"
	ErrMsgSourceConflict    = "give either a source file or --doc, not both"
	ErrMsgInvalidArguments  = "invalid arguments"
)

// Check output
const (
	CheckTextSuccess = "%s: ok"
	CheckTextFailure = "%s: %v"
	CheckSourceStdin = "<stdin>"
)

// Version output
const (
	VersionTextTemplate = "ftl version %s\nCommit: %s\nBuilt: %s\nGo: %s"
	VersionUnknown      = "unknown"
	VersionsFile        = "versions.yaml"
)

// File permission constant
const (
	FilePermissions = 0644
)

// Format string constants
const (
	FmtErrorWithCause = "%s: %v\n"
	FmtNewline        = "\n"
)

// Log messages
const (
	LogMsgProfileStart = "profiling started"
	LogMsgProfileStop  = "profiling stopped"
	LogMsgCommand      = "running command"
)

// Log field names
const (
	LogFieldMode    = "mode"
	LogFieldDir     = "dir"
	LogFieldCommand = "command"
)
