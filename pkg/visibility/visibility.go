package visibility

import (
	"slices"

	"github.com/matzehuels/axonote/pkg/graph"
)

// Walk is the result of a descendant traversal, in breadth-first discovery
// order.
type Walk struct {
	// Nodes are the nodes reached through outgoing edges. The root is only
	// included when a cycle leads back to it.
	Nodes []string
	// Edges are all edges whose source was visited during the walk.
	Edges []string
}

// Result reports how many nodes and edges changed their hidden flag.
type Result struct {
	Nodes int
	Edges int
}

// Changed reports whether any flag changed.
func (r Result) Changed() bool { return r.Nodes > 0 || r.Edges > 0 }

// Descendants walks edges breadth-first from root and returns every node
// reachable from it along with every edge leaving a visited node.
func Descendants(edges []graph.Edge, root string) Walk {
	out := make(map[string][]graph.Edge)
	for _, e := range edges {
		out[e.Source] = append(out[e.Source], e)
	}

	var w Walk
	visited := map[string]bool{}
	expanded := map[string]bool{root: true}
	queue := []string{root}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, e := range out[id] {
			w.Edges = append(w.Edges, e.ID)
			if visited[e.Target] {
				continue
			}
			visited[e.Target] = true
			w.Nodes = append(w.Nodes, e.Target)
			if !expanded[e.Target] {
				expanded[e.Target] = true
				queue = append(queue, e.Target)
			}
		}
	}
	return w
}

// Fold hides every descendant of root and every edge leaving a visited node.
// The root stays visible. Folding a leaf or an unknown node changes nothing.
func Fold(g *graph.Graph, root string) Result {
	if _, ok := g.Node(root); !ok {
		return Result{}
	}
	w := Descendants(g.Edges(), root)
	nodes := slices.DeleteFunc(w.Nodes, func(id string) bool { return id == root })
	n, e := g.SetHidden(nodes, w.Edges, true)
	return Result{Nodes: n, Edges: e}
}

// Expand reveals the direct children of root and the edges from root to
// them. Nodes further down keep their current state.
func Expand(g *graph.Graph, root string) Result {
	if _, ok := g.Node(root); !ok {
		return Result{}
	}
	var nodes, edges []string
	for _, e := range g.OutgoingEdges(root) {
		nodes = append(nodes, e.Target)
		edges = append(edges, e.ID)
	}
	n, e := g.SetHidden(nodes, edges, false)
	return Result{Nodes: n, Edges: e}
}
