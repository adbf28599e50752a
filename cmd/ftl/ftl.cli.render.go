package main

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	ftl "github.com/itsatony/go-ftl"
	"github.com/itsatony/go-ftl/stdtags"
)

// engineFlags are shared by every command that builds an engine.
type engineFlags struct {
	Config  string `help:"YAML engine config file."                         short:"c"`
	Globals string `help:"YAML file of global values."                      short:"g"`
	Prefix  string `help:"Tag prefix, overrides the config file."           short:"p"`
	Missing string `default:"" enum:",throw,remove,comment,log" help:"Tag-missing strategy." short:"m"`
}

// engine builds an engine from the flags with the standard tags registered.
func (f *engineFlags) engine(logger *zap.Logger) (*ftl.Engine, error) {
	cfg := &ftl.Config{}
	if f.Config != "" {
		loaded, err := ftl.LoadConfig(f.Config)
		if err != nil {
			return nil, newExitError(ExitCodeInputError, ErrMsgLoadConfigFailed, err)
		}
		cfg = loaded
	}

	extra := []ftl.Option{ftl.WithLogger(logger)}
	if f.Prefix != "" {
		extra = append(extra, ftl.WithTagPrefix(f.Prefix))
	}
	if f.Missing != "" {
		strategy, err := ftl.ParseMissingStrategy(f.Missing)
		if err != nil {
			return nil, newExitError(ExitCodeUsageError, ErrMsgInvalidMissing, err)
		}
		extra = append(extra, ftl.WithMissingStrategy(strategy))
	}
	if f.Globals != "" {
		globals, err := ftl.LoadGlobals(f.Globals)
		if err != nil {
			return nil, newExitError(ExitCodeInputError, ErrMsgLoadGlobalsFailed, err)
		}
		extra = append(extra, ftl.WithGlobals(globals))
	}

	e, err := cfg.NewEngine(extra...)
	if err != nil {
		return nil, newExitError(ExitCodeError, ErrMsgEngineFailed, err)
	}
	if err := stdtags.Register(e); err != nil {
		closeStore(e)
		return nil, newExitError(ExitCodeError, ErrMsgEngineFailed, err)
	}
	return e, nil
}

// parse reads source and runs the structural pass. On failure the engine's
// store is already closed.
func (f *engineFlags) parse(source string, env *env) (*ftl.Engine, *ftl.Document, error) {
	e, err := f.engine(env.logger)
	if err != nil {
		return nil, nil, err
	}
	data, err := readInput(source, env.stdin)
	if err != nil {
		closeStore(e)
		return nil, nil, newExitError(ExitCodeInputError, ErrMsgReadFileFailed, err)
	}
	doc, err := e.Parse(string(data))
	if err != nil {
		closeStore(e)
		return nil, nil, newExitError(ExitCodeError, ErrMsgParseFailed, err)
	}
	return e, doc, nil
}

type renderCmd struct {
	engineFlags `embed:""`

	Doc    string `help:"Render a stored document by name instead of a file." short:"d"`
	Output string `default:"-"                                                  help:"Output file or '-' for stdout." short:"o"`
	Source string `arg:""      default:"-"                                      help:"Source file or '-' for stdin."  optional:""`
}

// Run executes the render command.
func (r *renderCmd) Run(ctx context.Context, env *env) error {
	var out string

	if r.Doc != "" {
		if r.Source != InputSourceStdin {
			return newExitError(ExitCodeUsageError, ErrMsgSourceConflict, nil)
		}
		e, err := r.engine(env.logger)
		if err != nil {
			return err
		}
		defer closeStore(e)
		out, err = e.RenderNamed(ctx, r.Doc)
		if err != nil {
			return renderError(err)
		}
	} else {
		e, doc, err := r.parse(r.Source, env)
		if err != nil {
			return err
		}
		defer closeStore(e)
		out, err = doc.Render(ctx)
		if err != nil {
			return renderError(err)
		}
	}

	if err := writeOutput(r.Output, []byte(out), env.stdout); err != nil {
		return newExitError(ExitCodeError, ErrMsgWriteOutputFailed, err)
	}
	return nil
}

func renderError(err error) error {
	if errors.Is(err, ftl.ErrDocumentNotFound) {
		return newExitError(ExitCodeInputError, ErrMsgRenderFailed, err)
	}
	return newExitError(ExitCodeError, ErrMsgRenderFailed, err)
}

func closeStore(e *ftl.Engine) {
	if store := e.Store(); store != nil {
		_ = store.Close()
	}
}

type treeCmd struct {
	engineFlags `embed:""`

	Source string `arg:"" default:"-" help:"Source file or '-' for stdin." optional:""`
}

// Run executes the tree command.
func (t *treeCmd) Run(env *env) error {
	e, doc, err := t.parse(t.Source, env)
	if err != nil {
		return err
	}
	defer closeStore(e)

	fmt.Fprint(env.stdout, doc.String())
	return nil
}

type checkCmd struct {
	engineFlags `embed:""`

	Sources []string `arg:"" default:"-" help:"Source files or '-' for stdin." optional:""`
}

// Run executes the check command. Every source is checked; the command fails
// if any of them is unbalanced.
func (c *checkCmd) Run(env *env) error {
	e, err := c.engine(env.logger)
	if err != nil {
		return err
	}
	defer closeStore(e)

	var failed error
	for _, source := range c.Sources {
		data, err := readInput(source, env.stdin)
		if err != nil {
			return newExitError(ExitCodeInputError, ErrMsgReadFileFailed, err)
		}
		if _, err := e.Parse(string(data)); err != nil {
			fmt.Fprintf(env.stdout, CheckTextFailure+FmtNewline, sourceName(source), err)
			if failed == nil {
				failed = newExitError(ExitCodeError, ErrMsgParseFailed, err)
			}
			continue
		}
		fmt.Fprintf(env.stdout, CheckTextSuccess+FmtNewline, sourceName(source))
	}
	return failed
}
