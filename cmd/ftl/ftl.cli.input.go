package main

import (
	"io"
	"os"
)

// readInput reads content from a file or stdin
func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "" || path == InputSourceStdin {
		return io.ReadAll(stdin)
	}

	return os.ReadFile(path)
}

// writeOutput writes content to a file or stdout
func writeOutput(path string, data []byte, stdout io.Writer) error {
	if path == "" || path == InputSourceStdin {
		_, err := stdout.Write(data)
		return err
	}

	return os.WriteFile(path, data, FilePermissions)
}

// sourceName is the label used for path in diagnostics.
func sourceName(path string) string {
	if path == "" || path == InputSourceStdin {
		return CheckSourceStdin
	}
	return path
}
