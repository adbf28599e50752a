package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// cli is the top-level command-line interface.
type cli struct {
	Verbose    bool   `help:"Enable development logging."                 short:"v"`
	Profile    string `default:""  enum:",cpu,mem"                      help:"Enable profiling." placeholder:"cpu|mem"`
	ProfileDir string `default:"." help:"Profile output directory." type:"path"`

	Render  renderCmd  `cmd:"" help:"Render a document."`
	Tree    treeCmd    `cmd:"" help:"Print the parsed tree of a document."`
	Check   checkCmd   `cmd:"" help:"Check that every tag in a document is balanced."`
	Tags    tagsCmd    `cmd:"" help:"List the built-in tag paths."`
	Version versionCmd `cmd:"" help:"Show version information."`
}

// env carries the process streams and logger into commands.
type env struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	logger *zap.Logger
}

// exitError is a command failure with the exit code it maps to.
type exitError struct {
	code int
	msg  string
	err  error
}

func newExitError(code int, msg string, err error) *exitError {
	return &exitError{code: code, msg: msg, err: err}
}

func (e *exitError) Error() string {
	if e.err == nil {
		return e.msg
	}
	return fmt.Sprintf("%s: %v", e.msg, e.err)
}

func (e *exitError) Unwrap() error {
	return e.err
}

// run is the main entry point for the CLI, separated for testing
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var (
		c        cli
		exitCode = ExitCodeSuccess
		exited   bool
	)

	parser, err := kong.New(&c,
		kong.Name(CLIName),
		kong.Description(CLIDescription),
		kong.Writers(stdout, stderr),
		kong.Exit(func(code int) {
			exitCode = code
			exited = true
		}),
		kong.UsageOnError(),
		kong.BindTo(ctx, (*context.Context)(nil)),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			Summary:             true,
			NoExpandSubcommands: true,
		}),
	)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgInvalidArguments, err)
		return ExitCodeError
	}

	kctx, err := parser.Parse(args)
	if exited {
		return exitCode
	}
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgInvalidArguments, err)
		var parseErr *kong.ParseError
		if errors.As(err, &parseErr) && parseErr.Context != nil {
			_ = parseErr.Context.PrintUsage(true)
		}
		return ExitCodeUsageError
	}

	logger := newLogger(c.Verbose, stderr)
	defer func() { _ = logger.Sync() }()

	stop := startProfile(c.Profile, c.ProfileDir, logger)
	defer stop()

	logger.Debug(LogMsgCommand, zap.String(LogFieldCommand, kctx.Command()))

	err = kctx.Run(&env{stdin: stdin, stdout: stdout, stderr: stderr, logger: logger})
	if err == nil {
		return ExitCodeSuccess
	}

	fmt.Fprintln(stderr, err)
	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}
	return ExitCodeError
}

// newLogger writes console-encoded logs to w: debug and up when verbose,
// warnings and up otherwise.
func newLogger(verbose bool, w io.Writer) *zap.Logger {
	level := zapcore.WarnLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.AddSync(w),
		level,
	)
	if verbose {
		return zap.New(core, zap.Development(), zap.AddCaller())
	}
	return zap.New(core)
}
