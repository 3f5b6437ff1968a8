package graph

import "sort"

// Component is a set of tables connected by foreign keys: a base table
// and its array tables.
type Component struct {
	Tables []string
}

// FindComponents returns the connected components, each sorted by name and
// ordered by their first table.
func FindComponents(g *Graph) []Component {
	names := make([]string, 0, len(g.Tables))
	for name := range g.Tables {
		names = append(names, name)
	}
	sort.Strings(names)

	visited := make(map[string]bool)
	var components []Component
	for _, name := range names {
		if visited[name] {
			continue
		}
		tables := bfs(g, name, visited)
		sort.Strings(tables)
		components = append(components, Component{Tables: tables})
	}
	return components
}

func bfs(g *Graph, start string, visited map[string]bool) []string {
	queue := []string{start}
	visited[start] = true
	var result []string

	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		result = append(result, node)

		for neighbor := range g.Adjacency[node] {
			if !visited[neighbor] {
				visited[neighbor] = true
				queue = append(queue, neighbor)
			}
		}
	}
	return result
}
