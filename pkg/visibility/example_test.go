package visibility_test

import (
	"fmt"

	"github.com/matzehuels/axonote/pkg/graph"
	"github.com/matzehuels/axonote/pkg/visibility"
)

func ExampleFold() {
	// root → a → b, root → c
	g := graph.New()
	_ = g.Replace(
		[]graph.Node{
			{ID: "root", Type: graph.TypeText},
			{ID: "a", Type: graph.TypeText},
			{ID: "b", Type: graph.TypeText},
			{ID: "c", Type: graph.TypeText},
		},
		[]graph.Edge{
			{ID: "root-a", Source: "root", Target: "a"},
			{ID: "a-b", Source: "a", Target: "b"},
			{ID: "root-c", Source: "root", Target: "c"},
		},
	)

	folded := visibility.Fold(g, "root")
	fmt.Println("Fold hid", folded.Nodes, "nodes and", folded.Edges, "edges")

	// Expand only reveals one level; b stays hidden under a.
	expanded := visibility.Expand(g, "root")
	fmt.Println("Expand revealed", expanded.Nodes, "nodes and", expanded.Edges, "edges")

	for _, n := range g.Nodes() {
		fmt.Printf("  %s hidden=%v\n", n.ID, n.Hidden)
	}
	// Output:
	// Fold hid 3 nodes and 3 edges
	// Expand revealed 2 nodes and 2 edges
	//   root hidden=false
	//   a hidden=false
	//   b hidden=true
	//   c hidden=false
}

func ExampleDescendants() {
	edges := []graph.Edge{
		{ID: "e1", Source: "root", Target: "a"},
		{ID: "e2", Source: "a", Target: "b"},
		{ID: "e3", Source: "b", Target: "root"}, // back edge
	}
	w := visibility.Descendants(edges, "root")
	fmt.Println("Nodes:", w.Nodes)
	fmt.Println("Edges:", w.Edges)
	// Output:
	// Nodes: [a b root]
	// Edges: [e1 e2 e3]
}
