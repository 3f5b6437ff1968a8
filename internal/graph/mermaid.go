package graph

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// WriteMermaid writes the graph in Mermaid format to w.
// Each connected component is a subgraph.
func WriteMermaid(w io.Writer, g *Graph) error {
	components := FindComponents(g)

	if _, err := fmt.Fprintln(w, "graph TD"); err != nil {
		return err
	}

	for i, comp := range components {
		fmt.Fprintf(w, "    subgraph %s\n", mermaidID(comp.Tables[0]))

		tableSet := make(map[string]bool, len(comp.Tables))
		for _, t := range comp.Tables {
			tableSet[t] = true
		}

		for _, t := range comp.Tables {
			fmt.Fprintf(w, "        %s[\"%s (%d cols)\"]\n", mermaidID(t), t, len(g.Tables[t].Columns))
		}

		for _, edge := range sortedEdges(g) {
			if !tableSet[edge.ChildTable] {
				continue
			}
			label := strings.Join(edge.FK.ChildColumns, ", ")
			if edge.FK.OnDelete != "" {
				label += " on delete " + strings.ToLower(edge.FK.OnDelete)
			}
			fmt.Fprintf(w, "        %s -->|%s| %s\n",
				mermaidID(edge.ChildTable), label, mermaidID(edge.ParentTable))
		}

		fmt.Fprintln(w, "    end")
		if i < len(components)-1 {
			fmt.Fprintln(w)
		}
	}

	return nil
}

// WriteText writes a text summary of the graph to w: every component in
// creation order with its columns and keys.
func WriteText(w io.Writer, g *Graph) error {
	components := FindComponents(g)

	fmt.Fprintf(w, "Tables: %d\n", len(g.Tables))
	fmt.Fprintf(w, "Foreign Keys: %d\n", len(g.Edges))
	fmt.Fprintf(w, "Connected Components: %d\n", len(components))
	fmt.Fprintf(w, "Root Tables: %s\n\n", strings.Join(g.Roots(), ", "))

	if err := ValidateCycles(TopoSortAll(g)); err != nil {
		fmt.Fprintf(w, "WARNING: %v\n\n", err)
	}

	for i, comp := range components {
		fmt.Fprintf(w, "=== Component %d (%d tables) ===\n", i+1, len(comp.Tables))

		topo := TopoSort(g, comp.Tables)
		for j, t := range topo.Order {
			tbl := g.Tables[t]
			fmt.Fprintf(w, "  %d. %s (PK: %s, %d FKs)\n",
				j+1, t, strings.Join(tbl.PrimaryKey, ", "), len(tbl.ForeignKeys))
			for _, c := range tbl.Columns {
				null := "null"
				if !c.Nullable {
					null = "not null"
				}
				fmt.Fprintf(w, "       - %s %s %s\n", c.Name, c.Type, null)
			}
			for _, k := range tbl.UniqueKeys {
				fmt.Fprintf(w, "       unique (%s)\n", strings.Join(k.Columns, ", "))
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}

	return nil
}

// mermaidID converts a table name to a Mermaid-safe node ID.
func mermaidID(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}

// sortedEdges returns the edges ordered by child then parent table.
func sortedEdges(g *Graph) []Edge {
	edges := append([]Edge(nil), g.Edges...)
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].ChildTable != edges[j].ChildTable {
			return edges[i].ChildTable < edges[j].ChildTable
		}
		return edges[i].ParentTable < edges[j].ParentTable
	})
	return edges
}
