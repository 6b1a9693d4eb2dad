package dag

// Graph is the adjacency form of a pipeline. Edges whose endpoints are not
// both known node ids are dropped while building it.
type Graph struct {
	ids      []string // unique, first-occurrence order
	known    map[string]struct{}
	adj      map[string][]string
	inDegree map[string]int
}

// Build normalizes nodes and edges into a Graph. Duplicate node ids collapse
// into one entry; duplicate edges are kept.
func Build(nodes []Node, edges []Edge) *Graph {
	g := &Graph{
		ids:      make([]string, 0, len(nodes)),
		known:    make(map[string]struct{}, len(nodes)),
		adj:      make(map[string][]string, len(nodes)),
		inDegree: make(map[string]int, len(nodes)),
	}
	for _, n := range nodes {
		if _, ok := g.known[n.ID]; ok {
			continue
		}
		g.known[n.ID] = struct{}{}
		g.ids = append(g.ids, n.ID)
		g.inDegree[n.ID] = 0
	}

	for _, e := range edges {
		if !g.Has(e.Source) || !g.Has(e.Target) {
			continue
		}
		g.adj[e.Source] = append(g.adj[e.Source], e.Target)
		g.inDegree[e.Target]++
	}
	return g
}

// IDs returns the node ids in first-occurrence order.
func (g *Graph) IDs() []string { return append([]string(nil), g.ids...) }

func (g *Graph) Has(id string) bool {
	_, ok := g.known[id]
	return ok
}

// Len is the number of distinct node ids.
func (g *Graph) Len() int { return len(g.ids) }

// Successors returns the out-neighbours of id in edge input order.
func (g *Graph) Successors(id string) []string { return g.adj[id] }

func (g *Graph) InDegree(id string) int { return g.inDegree[id] }
