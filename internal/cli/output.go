package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/edkuperman/pipelinedag/internal/dag"
)

var (
	okColor   = color.New(color.FgGreen, color.Bold)
	failColor = color.New(color.FgRed, color.Bold)
	infoColor = color.New(color.FgCyan)
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printAnalysis writes the human summary of a. The topological order is
// listed only when withOrder is set and a is a DAG.
func printAnalysis(w io.Writer, a dag.Analysis, withOrder bool) {
	if a.IsDAG {
		okColor.Fprintf(w, "✔ pipeline is a DAG (%d nodes, %d edges)\n", a.NumNodes, a.NumEdges)
		if withOrder {
			for i, id := range a.Order {
				fmt.Fprintf(w, "  %3d. %s\n", i+1, id)
			}
		}
		return
	}

	failColor.Fprintf(w, "✘ pipeline has a cycle (%d nodes, %d edges)\n", a.NumNodes, a.NumEdges)
	if a.Cycles == nil {
		return
	}
	path := a.Cycles.CyclePath
	if len(path) > 0 {
		fmt.Fprintf(w, "  cycle:  %s -> %s\n", strings.Join(path, " -> "), path[0])
	}
	fmt.Fprintf(w, "  nodes:  %s\n", strings.Join(a.Cycles.CycleNodeIDs, ", "))
	edges := make([]string, len(a.Cycles.CycleEdges))
	for i, e := range a.Cycles.CycleEdges {
		edges[i] = e[0] + "->" + e[1]
	}
	fmt.Fprintf(w, "  edges:  %s\n", strings.Join(edges, ", "))
	if withOrder {
		infoColor.Fprintln(w, "  no topological order: pipeline is cyclic")
	}
}
