package visibility

import (
	"slices"
	"testing"

	"github.com/matzehuels/axonote/pkg/graph"
)

func build(t *testing.T, ids []string, pairs [][2]string) *graph.Graph {
	t.Helper()
	var nodes []graph.Node
	for _, id := range ids {
		nodes = append(nodes, graph.Node{ID: id, Type: graph.TypeText})
	}
	var edges []graph.Edge
	for _, p := range pairs {
		edges = append(edges, graph.Edge{ID: p[0] + ">" + p[1], Source: p[0], Target: p[1]})
	}
	g := graph.New()
	if err := g.Replace(nodes, edges); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	return g
}

func hidden(g *graph.Graph) (nodes, edges []string) {
	for _, n := range g.Nodes() {
		if n.Hidden {
			nodes = append(nodes, n.ID)
		}
	}
	for _, e := range g.Edges() {
		if e.Hidden {
			edges = append(edges, e.ID)
		}
	}
	return nodes, edges
}

func TestDescendants(t *testing.T) {
	tests := []struct {
		name      string
		pairs     [][2]string
		root      string
		wantNodes []string
		wantEdges []string
	}{
		{
			name:      "tree",
			pairs:     [][2]string{{"a", "b"}, {"a", "c"}, {"b", "d"}},
			root:      "a",
			wantNodes: []string{"b", "c", "d"},
			wantEdges: []string{"a>b", "a>c", "b>d"},
		},
		{
			name:      "leaf",
			pairs:     [][2]string{{"a", "b"}},
			root:      "b",
			wantNodes: nil,
			wantEdges: nil,
		},
		{
			name:      "diamond visits shared child once",
			pairs:     [][2]string{{"a", "b"}, {"a", "c"}, {"b", "d"}, {"c", "d"}},
			root:      "a",
			wantNodes: []string{"b", "c", "d"},
			wantEdges: []string{"a>b", "a>c", "b>d", "c>d"},
		},
		{
			name:      "two-cycle",
			pairs:     [][2]string{{"a", "b"}, {"b", "a"}},
			root:      "a",
			wantNodes: []string{"b", "a"},
			wantEdges: []string{"a>b", "b>a"},
		},
		{
			name:      "back edge to ancestor",
			pairs:     [][2]string{{"p", "a"}, {"a", "b"}, {"b", "p"}},
			root:      "a",
			wantNodes: []string{"b", "p", "a"},
			wantEdges: []string{"a>b", "b>p", "p>a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := build(t, []string{"a", "b", "c", "d", "p"}, tt.pairs)
			w := Descendants(g.Edges(), tt.root)
			if !slices.Equal(w.Nodes, tt.wantNodes) {
				t.Errorf("Nodes = %v, want %v", w.Nodes, tt.wantNodes)
			}
			if !slices.Equal(w.Edges, tt.wantEdges) {
				t.Errorf("Edges = %v, want %v", w.Edges, tt.wantEdges)
			}
		})
	}
}

func TestFoldHidesSubtreeButNotRoot(t *testing.T) {
	g := build(t, []string{"a", "b", "c", "x"}, [][2]string{{"a", "b"}, {"b", "c"}, {"x", "a"}})

	r := Fold(g, "a")
	if r.Nodes != 2 || r.Edges != 2 {
		t.Errorf("Fold() = %+v, want 2 nodes and 2 edges", r)
	}

	nodes, edges := hidden(g)
	if !slices.Equal(nodes, []string{"b", "c"}) {
		t.Errorf("hidden nodes = %v, want [b c]", nodes)
	}
	if !slices.Equal(edges, []string{"a>b", "b>c"}) {
		t.Errorf("hidden edges = %v, want [a>b b>c]", edges)
	}
}

func TestFoldIsIdempotent(t *testing.T) {
	g := build(t, []string{"a", "b", "c"}, [][2]string{{"a", "b"}, {"b", "c"}})
	Fold(g, "a")
	before := g.Nodes()

	if r := Fold(g, "a"); r.Changed() {
		t.Errorf("second Fold() = %+v, want no changes", r)
	}
	if !slices.EqualFunc(before, g.Nodes(), func(x, y graph.Node) bool { return x.Hidden == y.Hidden }) {
		t.Error("second Fold changed node visibility")
	}
}

func TestFoldLeafIsNoop(t *testing.T) {
	g := build(t, []string{"a", "b"}, [][2]string{{"a", "b"}})
	if r := Fold(g, "b"); r.Changed() {
		t.Errorf("Fold(leaf) = %+v, want no changes", r)
	}
	if r := Fold(g, "missing"); r.Changed() {
		t.Errorf("Fold(missing) = %+v, want no changes", r)
	}
}

func TestFoldTerminatesOnCycle(t *testing.T) {
	g := build(t, []string{"a", "b"}, [][2]string{{"a", "b"}, {"b", "a"}})
	Fold(g, "a")
	nodes, edges := hidden(g)
	if !slices.Equal(nodes, []string{"b"}) {
		t.Errorf("hidden nodes = %v, want [b]", nodes)
	}
	if len(edges) != 2 {
		t.Errorf("hidden edges = %v, want both", edges)
	}
}

func TestFoldExpandRoundTrip(t *testing.T) {
	g := build(t, []string{"a", "b", "c", "d"}, [][2]string{{"a", "b"}, {"a", "c"}, {"b", "d"}})
	Fold(g, "a")

	r := Expand(g, "a")
	if r.Nodes != 2 || r.Edges != 2 {
		t.Errorf("Expand() = %+v, want 2 nodes and 2 edges", r)
	}

	nodes, edges := hidden(g)
	if !slices.Equal(nodes, []string{"d"}) {
		t.Errorf("hidden nodes after expand = %v, want [d]", nodes)
	}
	if !slices.Equal(edges, []string{"b>d"}) {
		t.Errorf("hidden edges after expand = %v, want [b>d]", edges)
	}
}

func TestExpandIsOneLevel(t *testing.T) {
	g := build(t, []string{"a", "b", "c"}, [][2]string{{"a", "b"}, {"b", "c"}})
	Fold(g, "a")
	Expand(g, "b")

	n, _ := g.Node("c")
	if n.Hidden {
		t.Error("Expand(b) should reveal c")
	}
	n, _ = g.Node("b")
	if !n.Hidden {
		t.Error("Expand(b) should not change b itself")
	}
}
