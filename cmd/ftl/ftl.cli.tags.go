package main

import (
	"encoding/json"
	"fmt"
	"strings"

	ftl "github.com/itsatony/go-ftl"
	"github.com/itsatony/go-ftl/stdtags"
)

type tagsCmd struct {
	Format string `default:"text" enum:"text,json" help:"Output format." short:"F"`
}

// Run executes the tags command.
func (t *tagsCmd) Run(env *env) error {
	e, err := ftl.New(ftl.WithLogger(env.logger))
	if err != nil {
		return newExitError(ExitCodeError, ErrMsgEngineFailed, err)
	}
	if err := stdtags.Register(e); err != nil {
		return newExitError(ExitCodeError, ErrMsgEngineFailed, err)
	}

	paths := e.Paths()
	if t.Format == OutputFormatJSON {
		data, err := json.MarshalIndent(paths, "", "  ")
		if err != nil {
			return newExitError(ExitCodeError, ErrMsgWriteOutputFailed, err)
		}
		fmt.Fprintln(env.stdout, string(data))
		return nil
	}

	fmt.Fprintln(env.stdout, strings.Join(paths, FmtNewline))
	return nil
}
