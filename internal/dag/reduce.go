package dag

// Reduction is the result of running Kahn's algorithm over a Graph.
type Reduction struct {
	// Visited holds the ids removed by zero in-degree elimination, in removal order.
	Visited []string
	// Remaining holds the ids that could not be ordered, in graph id order.
	// They lie on a cycle or only downstream of one.
	Remaining []string
}

// Acyclic reports whether every node was ordered.
func (r Reduction) Acyclic() bool { return len(r.Remaining) == 0 }

// Reduce repeatedly removes nodes with in-degree 0. The queue is seeded in
// graph id order, so the result is deterministic for a given input order.
// The graph itself is left untouched.
func Reduce(g *Graph) Reduction {
	inDegree := make(map[string]int, len(g.inDegree))
	for id, d := range g.inDegree {
		inDegree[id] = d
	}

	queue := make([]string, 0, len(g.ids))
	for _, id := range g.ids {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	visited := make(map[string]struct{}, len(g.ids))
	order := make([]string, 0, len(g.ids))
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		visited[u] = struct{}{}
		order = append(order, u)
		for _, v := range g.adj[u] {
			inDegree[v]--
			if inDegree[v] == 0 {
				queue = append(queue, v)
			}
		}
	}

	red := Reduction{Visited: order}
	if len(order) == len(g.ids) {
		return red
	}
	red.Remaining = make([]string, 0, len(g.ids)-len(order))
	for _, id := range g.ids {
		if _, ok := visited[id]; !ok {
			red.Remaining = append(red.Remaining, id)
		}
	}
	return red
}
