package dag

import (
	"encoding/json"
	"fmt"
)

// Node is a pipeline node. Only ID is inspected; everything else the editor
// sends is carried in Attrs untouched.
type Node struct {
	ID    string
	Attrs map[string]any
}

// Edge is a directed connection Source -> Target.
type Edge struct {
	Source string
	Target string
	Attrs  map[string]any
}

// Pipeline is one submitted graph.
type Pipeline struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// CycleInfo describes the cycle found in a non-DAG pipeline.
//
// CyclePath lists one simple cycle v0 -> v1 -> ... -> vn, the closing edge
// vn -> v0 is implicit. CycleNodeIDs and CycleEdges cover every node and edge
// left after pruning, which can span more than the one exemplar cycle.
type CycleInfo struct {
	CyclePath    []string    `json:"cycle_path"`
	CycleNodeIDs []string    `json:"cycle_node_ids"`
	CycleEdges   [][2]string `json:"cycle_edges"`
}

// Analysis is the outcome of Analyze.
type Analysis struct {
	NumNodes int        `json:"num_nodes"`
	NumEdges int        `json:"num_edges"`
	IsDAG    bool       `json:"is_dag"`
	Cycles   *CycleInfo `json:"cycles"`

	// Order is the elimination order produced by Kahn's algorithm. For a DAG
	// it is a full topological order.
	Order []string `json:"-"`
}

func (n Node) MarshalJSON() ([]byte, error) {
	return marshalWithAttrs(n.Attrs, map[string]any{"id": n.ID})
}

func (n *Node) UnmarshalJSON(b []byte) error {
	fields, err := splitFields(b, "id")
	if err != nil {
		return err
	}
	n.ID = fields.known["id"]
	n.Attrs = fields.attrs
	return nil
}

func (e Edge) MarshalJSON() ([]byte, error) {
	return marshalWithAttrs(e.Attrs, map[string]any{"source": e.Source, "target": e.Target})
}

func (e *Edge) UnmarshalJSON(b []byte) error {
	fields, err := splitFields(b, "source", "target")
	if err != nil {
		return err
	}
	e.Source = fields.known["source"]
	e.Target = fields.known["target"]
	e.Attrs = fields.attrs
	return nil
}

// Known keys win over attrs with the same name.
func marshalWithAttrs(attrs map[string]any, known map[string]any) ([]byte, error) {
	out := make(map[string]any, len(attrs)+len(known))
	for k, v := range attrs {
		out[k] = v
	}
	for k, v := range known {
		out[k] = v
	}
	return json.Marshal(out)
}

type splitResult struct {
	known map[string]string
	attrs map[string]any
}

func splitFields(b []byte, keys ...string) (splitResult, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return splitResult{}, err
	}
	res := splitResult{known: make(map[string]string, len(keys))}
	for _, k := range keys {
		v, ok := raw[k]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return splitResult{}, fmt.Errorf("field %q: %w", k, err)
		}
		res.known[k] = s
		delete(raw, k)
	}
	if len(raw) == 0 {
		return res, nil
	}
	res.attrs = make(map[string]any, len(raw))
	for k, v := range raw {
		var val any
		if err := json.Unmarshal(v, &val); err != nil {
			return splitResult{}, fmt.Errorf("field %q: %w", k, err)
		}
		res.attrs[k] = val
	}
	return res, nil
}
