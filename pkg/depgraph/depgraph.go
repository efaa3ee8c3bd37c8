// Package depgraph records which packages each project depends on directly.
//
// The graph is diagnostic only: the resolver fills it while walking
// manifests, and it never influences resolution order. [Graph.ToDOT] exports
// it as Graphviz DOT, and [RenderSVG] renders that DOT.
package depgraph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/goccy/go-graphviz"
)

// Graph maps a project identifier to its ordered direct dependencies.
// The zero value is not usable; use New.
type Graph struct {
	deps map[string][]string
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{deps: make(map[string][]string)}
}

// Set replaces the dependencies recorded for project.
func (g *Graph) Set(project string, deps []string) {
	g.deps[project] = slices.Clone(deps)
}

// Deps returns the dependencies of project in declaration order.
func (g *Graph) Deps(project string) []string {
	return slices.Clone(g.deps[project])
}

// Projects returns every recorded project, sorted.
func (g *Graph) Projects() []string {
	return slices.Sorted(maps.Keys(g.deps))
}

// EdgeCount returns the number of (project, dependency) pairs.
func (g *Graph) EdgeCount() int {
	n := 0
	for _, d := range g.deps {
		n += len(d)
	}
	return n
}

// WriteDOT writes the graph to w as a DOT digraph, one edge per line.
func (g *Graph) WriteDOT(w io.Writer) error {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  label = \"Reky Dependencies\";\n")
	for _, p := range g.Projects() {
		for _, d := range g.deps[p] {
			fmt.Fprintf(&buf, "  %q -> %q [arrowhead = diamond];\n", p, d)
		}
	}
	buf.WriteString("}\n")

	_, err := w.Write(buf.Bytes())
	return err
}

// ToDOT returns the graph as DOT text.
func (g *Graph) ToDOT() string {
	var buf bytes.Buffer
	_ = g.WriteDOT(&buf)
	return buf.String()
}

type jsonGraph struct {
	Nodes []jsonNode `json:"nodes"`
	Edges []jsonEdge `json:"edges"`
}

type jsonNode struct {
	ID string `json:"id"`
}

type jsonEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// WriteJSON writes the graph to w as {"nodes": [...], "edges": [...]}.
// Nodes are every project and dependency, sorted by id.
func (g *Graph) WriteJSON(w io.Writer) error {
	ids := make(map[string]struct{})
	out := jsonGraph{Nodes: []jsonNode{}, Edges: []jsonEdge{}}
	for _, p := range g.Projects() {
		ids[p] = struct{}{}
		for _, d := range g.deps[p] {
			ids[d] = struct{}{}
			out.Edges = append(out.Edges, jsonEdge{From: p, To: d})
		}
	}
	for _, id := range slices.Sorted(maps.Keys(ids)) {
		out.Nodes = append(out.Nodes, jsonNode{ID: id})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// RenderSVG renders DOT text to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
