package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/edkuperman/pipelinedag/internal/dag"
	"github.com/edkuperman/pipelinedag/internal/schema"
)

type checkOptions struct {
	server    string
	jsonOut   bool
	showOrder bool
}

func newCheckCmd() *cobra.Command {
	var opts checkOptions
	cmd := &cobra.Command{
		Use:   "check [file|-]",
		Short: "Check that a pipeline is a DAG",
		Long: `Reads a pipeline document ({"nodes": [...], "edges": [...]}) from a file,
or from stdin when the file is "-" or omitted, and reports whether it is a DAG.
Exits with status 2 when a cycle is found.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, args, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.server, "server", "s", "", "analyze on this pipelinedag server instead of locally")
	cmd.Flags().BoolVarP(&opts.jsonOut, "json", "j", false, "print the analysis as JSON")
	cmd.Flags().BoolVar(&opts.showOrder, "order", false, "print the topological order of a DAG")
	cmd.MarkFlagsMutuallyExclusive("server", "order")
	return cmd
}

func runCheck(cmd *cobra.Command, args []string, opts checkOptions) error {
	in := cmd.InOrStdin()
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	p, err := schema.Decode(in)
	if err != nil {
		var verr *schema.ValidationError
		if errors.As(err, &verr) {
			printValidation(cmd.ErrOrStderr(), verr)
		}
		return err
	}

	var a dag.Analysis
	if opts.server != "" {
		a, err = NewClient(opts.server).Parse(cmd.Context(), p)
		if err != nil {
			return err
		}
	} else {
		a = dag.Analyze(p.Nodes, p.Edges)
	}

	out := cmd.OutOrStdout()
	if opts.jsonOut {
		if err := printJSON(out, a); err != nil {
			return err
		}
	} else {
		printAnalysis(out, a, opts.showOrder)
	}

	if !a.IsDAG {
		return ErrCycle
	}
	return nil
}

func printValidation(w io.Writer, verr *schema.ValidationError) {
	failColor.Fprintf(w, "invalid pipeline document:\n")
	for _, d := range verr.Details {
		fmt.Fprintf(w, "  %v: %s (%s)\n", d.Loc, d.Msg, d.Type)
	}
}
