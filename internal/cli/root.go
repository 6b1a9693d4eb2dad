// Package cli implements the pipelinectl command line.
package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// Set at build time.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// ErrCycle is returned by check when the pipeline is not a DAG.
var ErrCycle = errors.New("pipeline contains a cycle")

// Exit codes.
const (
	ExitOK    = 0
	ExitError = 1
	ExitCycle = 2
)

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "pipelinectl",
		Short: "Validate pipeline graphs",
		Long: `pipelinectl checks that a pipeline graph is a DAG.

Examples:
  # Check a file locally
  pipelinectl check pipeline.json

  # Check stdin against a running server
  cat pipeline.json | pipelinectl check --server http://localhost:8000

  # Print the topological order
  pipelinectl check --order pipeline.json`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newCheckCmd())
	root.AddCommand(newVersionCmd())
	return root
}

// Execute runs the command line with args and returns the process exit code.
func Execute(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrCycle):
		return ExitCycle
	default:
		failColor.Fprintf(stderr, "error: %v\n", err)
		return ExitError
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "pipelinectl\n")
			fmt.Fprintf(w, "  Version:    %s\n", Version)
			fmt.Fprintf(w, "  Git Commit: %s\n", GitCommit)
			fmt.Fprintf(w, "  Build Time: %s\n", BuildTime)
		},
	}
}
