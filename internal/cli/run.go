package cli

import (
	"fmt"
	"io"
	"os"
)

// RunOptions contains all the configuration for the run command.
type RunOptions struct {
	Path        string // Survey definition file
	CatalogPath string // Optional resource catalog file
	SessionID   string
	Debug       bool
	Plain       bool // Disable markdown rendering and the banner

	In  io.Reader
	Out *os.File
}

// Execute handles the run command: it loads the survey and walks it interactively.
func Execute(opts RunOptions) error {
	if opts.Path == "" {
		return fmt.Errorf("a survey file is required")
	}
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	return RunSession(opts)
}
