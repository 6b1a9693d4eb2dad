// Package schema decodes and shape-checks pipeline documents before they
// reach the dag package.
package schema

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/edkuperman/pipelinedag/internal/dag"
)

// FieldError locates one problem in the request body. Loc starts with
// "body" and continues with object keys and array indexes.
type FieldError struct {
	Loc  []any  `json:"loc"`
	Msg  string `json:"msg"`
	Type string `json:"type"`
}

// ValidationError collects every shape problem found in a document.
type ValidationError struct {
	Details []FieldError

	cause error // read or syntax error behind a json_invalid detail
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Details))
	for _, d := range e.Details {
		loc := make([]string, len(d.Loc))
		for i, l := range d.Loc {
			loc[i] = fmt.Sprint(l)
		}
		parts = append(parts, strings.Join(loc, ".")+": "+d.Msg)
	}
	return fmt.Sprintf("%d validation error(s): %s", len(e.Details), strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error { return e.cause }

func (e *ValidationError) add(msg, typ string, loc ...any) {
	e.Details = append(e.Details, FieldError{Loc: append([]any{"body"}, loc...), Msg: msg, Type: typ})
}

// Decode reads one pipeline document. Nodes need a string "id" and edges a
// string "source" and "target"; any other keys are kept as attributes.
// Shape problems are reported together as a *ValidationError.
func Decode(r io.Reader) (dag.Pipeline, error) {
	var body map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&body); err != nil {
		verr := &ValidationError{cause: err}
		verr.add("invalid JSON: "+err.Error(), "json_invalid")
		return dag.Pipeline{}, verr
	}
	if body == nil {
		verr := &ValidationError{}
		verr.add("input should be an object", "model_type")
		return dag.Pipeline{}, verr
	}

	verr := &ValidationError{}
	rawNodes := list(verr, body, "nodes")
	rawEdges := list(verr, body, "edges")

	p := dag.Pipeline{
		Nodes: make([]dag.Node, 0, len(rawNodes)),
		Edges: make([]dag.Edge, 0, len(rawEdges)),
	}
	for i, raw := range rawNodes {
		fields, attrs, ok := object(verr, raw, []any{"nodes", i}, "id")
		if ok {
			p.Nodes = append(p.Nodes, dag.Node{ID: fields["id"], Attrs: attrs})
		}
	}
	for i, raw := range rawEdges {
		fields, attrs, ok := object(verr, raw, []any{"edges", i}, "source", "target")
		if ok {
			p.Edges = append(p.Edges, dag.Edge{Source: fields["source"], Target: fields["target"], Attrs: attrs})
		}
	}

	if len(verr.Details) > 0 {
		return dag.Pipeline{}, verr
	}
	return p, nil
}

func list(verr *ValidationError, body map[string]json.RawMessage, key string) []json.RawMessage {
	raw, ok := body[key]
	if !ok {
		verr.add("field required", "missing", key)
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil || items == nil {
		verr.add("input should be a valid list", "list_type", key)
		return nil
	}
	return items
}

// object splits a JSON object into the required string fields and the rest.
func object(verr *ValidationError, raw json.RawMessage, loc []any, required ...string) (map[string]string, map[string]any, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		verr.add("input should be a valid object", "model_type", loc...)
		return nil, nil, false
	}

	ok := true
	known := make(map[string]string, len(required))
	for _, key := range required {
		v, present := fields[key]
		if !present {
			verr.add("field required", "missing", append(loc, key)...)
			ok = false
			continue
		}
		var s string
		if err := json.Unmarshal(v, &s); err != nil || string(v) == "null" {
			verr.add("input should be a valid string", "string_type", append(loc, key)...)
			ok = false
			continue
		}
		known[key] = s
		delete(fields, key)
	}
	if !ok {
		return nil, nil, false
	}

	var attrs map[string]any
	if len(fields) > 0 {
		attrs = make(map[string]any, len(fields))
		for k, v := range fields {
			var val any
			// Already valid JSON: it came out of a successful decode.
			_ = json.Unmarshal(v, &val)
			attrs[k] = val
		}
	}
	return known, attrs, true
}
