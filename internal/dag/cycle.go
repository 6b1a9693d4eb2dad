package dag

const (
	white = iota // not yet reached
	gray         // on the current DFS path
	black        // fully explored
)

// ExtractCycle describes the cycle structure among the nodes Kahn's algorithm
// could not order. remaining must be in graph id order; edges is the full
// input edge list.
func ExtractCycle(remaining []string, edges []Edge) *CycleInfo {
	nodes := pruneAcyclic(remaining, edges)

	inSet := make(map[string]struct{}, len(nodes))
	for _, id := range nodes {
		inSet[id] = struct{}{}
	}

	adj := make(map[string][]string, len(nodes))
	cycleEdges := make([][2]string, 0)
	for _, e := range edges {
		if !contains(inSet, e.Source) || !contains(inSet, e.Target) {
			continue
		}
		adj[e.Source] = append(adj[e.Source], e.Target)
		cycleEdges = append(cycleEdges, [2]string{e.Source, e.Target})
	}

	return &CycleInfo{
		CyclePath:    findCycle(adj, nodes),
		CycleNodeIDs: nodes,
		CycleEdges:   cycleEdges,
	}
}

// pruneAcyclic strips nodes that have no incoming or no outgoing edge inside
// the induced subgraph, repeating until a fixed point. Such a node cannot sit
// on a cycle, and removing it can expose more of the same. The peel is driven
// by a worklist, so it stays linear in the subgraph size. Order is preserved.
func pruneAcyclic(remaining []string, edges []Edge) []string {
	inSet := make(map[string]struct{}, len(remaining))
	for _, id := range remaining {
		inSet[id] = struct{}{}
	}

	in := make(map[string]int, len(remaining))
	out := make(map[string]int, len(remaining))
	succ := make(map[string][]string, len(remaining))
	pred := make(map[string][]string, len(remaining))
	for _, e := range edges {
		if !contains(inSet, e.Source) || !contains(inSet, e.Target) {
			continue
		}
		out[e.Source]++
		in[e.Target]++
		succ[e.Source] = append(succ[e.Source], e.Target)
		pred[e.Target] = append(pred[e.Target], e.Source)
	}

	removed := make(map[string]struct{})
	var work []string
	for _, id := range remaining {
		if in[id] == 0 || out[id] == 0 {
			removed[id] = struct{}{}
			work = append(work, id)
		}
	}
	for len(work) > 0 {
		u := work[len(work)-1]
		work = work[:len(work)-1]
		for _, v := range succ[u] {
			if contains(removed, v) {
				continue
			}
			in[v]--
			if in[v] == 0 {
				removed[v] = struct{}{}
				work = append(work, v)
			}
		}
		for _, w := range pred[u] {
			if contains(removed, w) {
				continue
			}
			out[w]--
			if out[w] == 0 {
				removed[w] = struct{}{}
				work = append(work, w)
			}
		}
	}

	kept := make([]string, 0, len(remaining)-len(removed))
	for _, id := range remaining {
		if !contains(removed, id) {
			kept = append(kept, id)
		}
	}
	return kept
}

// findCycle runs an iterative three-colour DFS and returns the first cycle it
// meets, ordered from the back-edge target down to the node that closes it.
// Roots are tried in nodes order and neighbours in adj order. It returns an
// empty path if the subgraph is acyclic.
func findCycle(adj map[string][]string, nodes []string) []string {
	color := make(map[string]int, len(nodes))
	parent := make(map[string]string, len(nodes))
	next := make(map[string]int, len(nodes)) // neighbour cursor per node

	for _, root := range nodes {
		if color[root] != white {
			continue
		}
		color[root] = gray
		stack := []string{root}

		for len(stack) > 0 {
			u := stack[len(stack)-1]
			succ := adj[u]
			pushed := false

			for next[u] < len(succ) {
				v := succ[next[u]]
				next[u]++
				switch color[v] {
				case gray:
					return unwind(parent, u, v)
				case white:
					color[v] = gray
					parent[v] = u
					stack = append(stack, v)
					pushed = true
				}
				if pushed {
					break
				}
			}

			if !pushed {
				color[u] = black
				stack = stack[:len(stack)-1]
			}
		}
	}
	return []string{}
}

// unwind follows parent links from u back to v and returns v ... u.
func unwind(parent map[string]string, u, v string) []string {
	path := []string{u}
	for cur := u; cur != v; {
		cur = parent[cur]
		path = append(path, cur)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

func contains(set map[string]struct{}, id string) bool {
	_, ok := set[id]
	return ok
}
