// Package graph models planned tables and the foreign keys between them,
// for ordering and for rendering plans as text or Mermaid.
package graph

import (
	"sort"

	"github.com/hurou927/schema-sync/internal/schema"
)

// Edge represents a directed edge from child to parent (FK direction).
type Edge struct {
	FK          schema.ForeignKey
	ChildTable  string
	ParentTable string
}

// Graph is a directed graph built from FK relationships.
type Graph struct {
	// Tables maps table name -> plan (children cleared)
	Tables map[string]schema.TablePlan

	// Edges are FK edges (child → parent) between known tables
	Edges []Edge

	// Children maps parent name → list of child names
	Children map[string][]string

	// Parents maps child name → list of parent names
	Parents map[string][]string

	// adjacency for undirected connectivity
	Adjacency map[string]map[string]bool
}

// Build constructs a graph from table plans and all their child plans.
// FKs referencing tables outside the given plans are ignored.
func Build(plans []schema.TablePlan) *Graph {
	g := &Graph{
		Tables:    make(map[string]schema.TablePlan),
		Children:  make(map[string][]string),
		Parents:   make(map[string][]string),
		Adjacency: make(map[string]map[string]bool),
	}

	for _, p := range plans {
		for _, t := range p.Flatten() {
			g.Tables[t.Name] = t
			g.Adjacency[t.Name] = make(map[string]bool)
		}
	}

	for name, tbl := range g.Tables {
		for _, fk := range tbl.ForeignKeys {
			if _, ok := g.Tables[fk.ParentTable]; !ok || fk.ParentTable == name {
				continue
			}
			g.Edges = append(g.Edges, Edge{FK: fk, ChildTable: name, ParentTable: fk.ParentTable})
			g.Children[fk.ParentTable] = append(g.Children[fk.ParentTable], name)
			g.Parents[name] = append(g.Parents[name], fk.ParentTable)
			g.Adjacency[name][fk.ParentTable] = true
			g.Adjacency[fk.ParentTable][name] = true
		}
	}

	return g
}

// Roots returns tables that have no outgoing FK edges (no parents), sorted.
func (g *Graph) Roots() []string {
	var roots []string
	for name := range g.Tables {
		if len(g.Parents[name]) == 0 {
			roots = append(roots, name)
		}
	}
	sort.Strings(roots)
	return roots
}
