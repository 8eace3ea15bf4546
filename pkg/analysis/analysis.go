// Package analysis summarizes the structure of a mind map: how many nodes of
// each kind it holds, where its roots and leaves are, how deep it goes and
// which nodes take part in cycles.
//
// Mind maps are meant to be trees, but the editor does not forbid cycles;
// [Analyze] reports them so the user can find and break them.
package analysis

import (
	"cmp"
	"slices"

	gonum "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
	"gonum.org/v1/gonum/graph/traverse"

	"github.com/matzehuels/axonote/pkg/graph"
)

// Stats describes the structure of a graph.
type Stats struct {
	Nodes       int                    `json:"nodes"`
	Edges       int                    `json:"edges"`
	HiddenNodes int                    `json:"hidden_nodes"`
	HiddenEdges int                    `json:"hidden_edges"`
	Roots       []string               `json:"roots"`
	Leaves      []string               `json:"leaves"`
	Depth       int                    `json:"depth"`
	Cycles      [][]string             `json:"cycles"`
	TypeCounts  map[graph.NodeType]int `json:"type_counts"`
}

// Acyclic reports whether no cycles were found.
func (s Stats) Acyclic() bool { return len(s.Cycles) == 0 }

// Analyze computes structural statistics. Roots are nodes without incoming
// edges, leaves nodes without outgoing edges; self-loops count for neither.
// Depth is the largest number of edges on a shortest path from any root.
// Each cycle lists its members in collection order; a self-loop is a cycle
// of one node.
func Analyze(nodes []graph.Node, edges []graph.Edge) Stats {
	s := Stats{
		Nodes:      len(nodes),
		Edges:      len(edges),
		Roots:      []string{},
		Leaves:     []string{},
		Cycles:     [][]string{},
		TypeCounts: map[graph.NodeType]int{},
	}

	g := simple.NewDirectedGraph()
	ids := make(map[string]int64, len(nodes))
	for i, n := range nodes {
		ids[n.ID] = int64(i)
		g.AddNode(simple.Node(i))
		s.TypeCounts[n.Type]++
		if n.Hidden {
			s.HiddenNodes++
		}
	}

	selfLoops := map[int64]bool{}
	for _, e := range edges {
		if e.Hidden {
			s.HiddenEdges++
		}
		from, ok1 := ids[e.Source]
		to, ok2 := ids[e.Target]
		if !ok1 || !ok2 {
			continue
		}
		if from == to {
			selfLoops[from] = true
			continue
		}
		if !g.HasEdgeFromTo(from, to) {
			g.SetEdge(g.NewEdge(g.Node(from), g.Node(to)))
		}
	}

	var roots []gonum.Node
	for i, n := range nodes {
		id := int64(i)
		if g.To(id).Len() == 0 {
			s.Roots = append(s.Roots, n.ID)
			roots = append(roots, g.Node(id))
		}
		if g.From(id).Len() == 0 {
			s.Leaves = append(s.Leaves, n.ID)
		}
	}

	for _, r := range roots {
		var bf traverse.BreadthFirst
		bf.Walk(g, r, func(_ gonum.Node, depth int) bool {
			s.Depth = max(s.Depth, depth)
			return false
		})
	}

	var cycles [][]int64
	inCycle := map[int64]bool{}
	for _, scc := range topo.TarjanSCC(g) {
		if len(scc) < 2 {
			continue
		}
		members := make([]int64, 0, len(scc))
		for _, n := range scc {
			members = append(members, n.ID())
			inCycle[n.ID()] = true
		}
		cycles = append(cycles, members)
	}
	// A self-loop on a member of a larger cycle is part of that cycle.
	for id := range selfLoops {
		if !inCycle[id] {
			cycles = append(cycles, []int64{id})
		}
	}
	for _, c := range cycles {
		slices.Sort(c)
	}
	slices.SortFunc(cycles, func(a, b []int64) int { return cmp.Compare(a[0], b[0]) })

	for _, c := range cycles {
		names := make([]string, len(c))
		for i, id := range c {
			names[i] = nodes[id].ID
		}
		s.Cycles = append(s.Cycles, names)
	}
	return s
}
