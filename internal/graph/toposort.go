package graph

import (
	"fmt"
	"sort"
)

// TopoResult holds the result of topological sorting.
type TopoResult struct {
	// Order is the creation order (parents before children).
	Order []string
	// HasCycle is true if the tables reference each other in a cycle.
	HasCycle bool
	// CycleTables lists tables involved in cycles (if any).
	CycleTables []string
}

// TopoSort orders the given tables with Kahn's algorithm, parents first.
// Ties are broken by name so the order is deterministic.
func TopoSort(g *Graph, tables []string) TopoResult {
	tables = append([]string(nil), tables...)
	sort.Strings(tables)

	tableSet := make(map[string]bool, len(tables))
	for _, t := range tables {
		tableSet[t] = true
	}

	// In-degree = number of parent edges within the subset
	inDegree := make(map[string]int, len(tables))
	localChildren := make(map[string][]string)
	for _, t := range tables {
		inDegree[t] = 0
		for _, p := range g.Parents[t] {
			if tableSet[p] {
				localChildren[p] = append(localChildren[p], t)
				inDegree[t]++
			}
		}
	}

	var queue []string
	for _, t := range tables {
		if inDegree[t] == 0 {
			queue = append(queue, t)
		}
	}

	var order []string
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		order = append(order, node)

		children := localChildren[node]
		sort.Strings(children)
		for _, child := range children {
			inDegree[child]--
			if inDegree[child] == 0 {
				queue = append(queue, child)
			}
		}
	}

	result := TopoResult{Order: order}
	if len(order) < len(tables) {
		result.HasCycle = true
		for _, t := range tables {
			if inDegree[t] > 0 {
				result.CycleTables = append(result.CycleTables, t)
			}
		}
	}
	return result
}

// TopoSortAll orders every table in the graph.
func TopoSortAll(g *Graph) TopoResult {
	all := make([]string, 0, len(g.Tables))
	for name := range g.Tables {
		all = append(all, name)
	}
	return TopoSort(g, all)
}

// ValidateCycles returns an error naming the tables of a cycle, if any.
func ValidateCycles(result TopoResult) error {
	if !result.HasCycle {
		return nil
	}
	return fmt.Errorf("circular dependency detected among tables: %v", result.CycleTables)
}
