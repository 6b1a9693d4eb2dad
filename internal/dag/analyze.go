// Package dag checks pipeline graphs for cycles.
//
// Analyze runs three steps: Build turns nodes and edges into adjacency form,
// Reduce applies Kahn's algorithm, and when some nodes cannot be ordered
// ExtractCycle narrows them to the nodes that really sit on a cycle and picks
// one concrete cycle to report. Everything is allocated per call, so Analyze
// is safe for concurrent use.
package dag

// Analyze reports whether the pipeline is acyclic and, if not, where the
// cycle is. NumNodes and NumEdges echo the input lengths, including
// duplicate nodes and dangling edges.
func Analyze(nodes []Node, edges []Edge) Analysis {
	res := Analysis{
		NumNodes: len(nodes),
		NumEdges: len(edges),
		IsDAG:    true,
	}
	if len(nodes) == 0 {
		res.Order = []string{}
		return res
	}

	g := Build(nodes, edges)
	red := Reduce(g)
	res.Order = red.Visited
	if red.Acyclic() {
		return res
	}

	res.IsDAG = false
	res.Cycles = ExtractCycle(red.Remaining, edges)
	return res
}
