package graph

import (
	"errors"
	"testing"
)

func TestApplyNodeChangesAddAndMove(t *testing.T) {
	g := chain(t, "a")
	err := g.ApplyNodeChanges([]NodeChange{
		{Kind: ChangeAdd, Item: &Node{ID: "node_3", Type: TypeFormula, Data: FormulaData{Formula: "x"}}},
		{Kind: ChangePosition, ID: "node_3", Position: &Position{X: 5, Y: 6}},
		{Kind: ChangeDimensions, ID: "a", Size: &Size{Width: 10, Height: 20}},
	})
	if err != nil {
		t.Fatal(err)
	}
	n, ok := g.Node("node_3")
	if !ok {
		t.Fatal("added node missing")
	}
	if n.Position != (Position{X: 5, Y: 6}) {
		t.Errorf("Position = %v, want {5 6}", n.Position)
	}
	if a, _ := g.Node("a"); a.Size == nil || *a.Size != (Size{Width: 10, Height: 20}) {
		t.Errorf("a.Size = %v, want 10x20", a.Size)
	}
	if got := g.NewNodeID(); got != "node_4" {
		t.Errorf("NewNodeID() after add = %q, want node_4", got)
	}
}

func TestApplyNodeChangesIsAtomic(t *testing.T) {
	g := chain(t, "a", "b")
	err := g.ApplyNodeChanges([]NodeChange{
		{Kind: ChangePosition, ID: "a", Position: &Position{X: 100}},
		{Kind: ChangeAdd, Item: &Node{ID: "b", Type: TypeText}},
	})
	if !errors.Is(err, ErrDuplicateNodeID) {
		t.Fatalf("error = %v, want ErrDuplicateNodeID", err)
	}
	if n, _ := g.Node("a"); n.Position.X != 0 {
		t.Error("partial change was applied")
	}
}

func TestApplyNodeChangesRemoveCascadesEdges(t *testing.T) {
	g := chain(t, "a", "b", "c")
	if err := g.ApplyNodeChanges([]NodeChange{{Kind: ChangeRemove, ID: "b"}}); err != nil {
		t.Fatal(err)
	}
	if g.EdgeCount() != 0 {
		t.Errorf("EdgeCount() = %d, want 0 after removing the middle node", g.EdgeCount())
	}
	if err := g.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestApplyNodeChangesSelectionIsExclusive(t *testing.T) {
	tests := []struct {
		name    string
		changes []NodeChange
		want    string
	}{
		{
			name: "select twice",
			changes: []NodeChange{
				{Kind: ChangeSelect, ID: "a", Selected: true},
				{Kind: ChangeSelect, ID: "c", Selected: true},
			},
			want: "c",
		},
		{
			name: "add selected node",
			changes: []NodeChange{
				{Kind: ChangeSelect, ID: "a", Selected: true},
				{Kind: ChangeAdd, Item: &Node{ID: "d", Type: TypeText, Selected: true}},
			},
			want: "d",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := chain(t, "a", "b", "c")
			if err := g.ApplyNodeChanges(tt.changes); err != nil {
				t.Fatal(err)
			}
			if count := selectedCount(g); count != 1 {
				t.Errorf("selected count = %d, want 1", count)
			}
			if n, _ := g.Selected(); n.ID != tt.want {
				t.Errorf("Selected() = %s, want %s", n.ID, tt.want)
			}
		})
	}
}

func selectedCount(g *Graph) int {
	count := 0
	for _, n := range g.Nodes() {
		if n.Selected {
			count++
		}
	}
	return count
}

func TestApplyNodeChangesUnknownKind(t *testing.T) {
	g := chain(t, "a")
	err := g.ApplyNodeChanges([]NodeChange{{Kind: "replace", ID: "a"}})
	if !errors.Is(err, ErrUnknownChange) {
		t.Errorf("error = %v, want ErrUnknownChange", err)
	}
}

func TestApplyEdgeChanges(t *testing.T) {
	g := chain(t, "a", "b")
	err := g.ApplyEdgeChanges([]EdgeChange{
		{Kind: ChangeAdd, Item: &Edge{ID: "dup", Source: "a", Target: "b"}},
		{Kind: ChangeSelect, ID: "dup", Selected: true},
		{Kind: ChangeRemove, ID: "e-a-b"},
	})
	if err != nil {
		t.Fatal(err)
	}
	edges := g.Edges()
	if len(edges) != 1 || edges[0].ID != "dup" {
		t.Errorf("Edges() = %v, want only dup", edges)
	}
}

func TestApplyEdgeChangesRejectsDangling(t *testing.T) {
	g := chain(t, "a")
	err := g.ApplyEdgeChanges([]EdgeChange{{Kind: ChangeAdd, Item: &Edge{ID: "e", Source: "a", Target: "zzz"}}})
	if !errors.Is(err, ErrUnknownTargetNode) {
		t.Errorf("error = %v, want ErrUnknownTargetNode", err)
	}
	if g.EdgeCount() != 0 {
		t.Error("dangling edge was added")
	}
}

func TestApplyChanges(t *testing.T) {
	g := chain(t, "a")
	err := g.ApplyChanges(
		[]NodeChange{{Kind: ChangeAdd, Item: &Node{ID: "b", Type: TypeText}}},
		[]EdgeChange{{Kind: ChangeAdd, Item: &Edge{ID: "e-a-b", Source: "a", Target: "b"}}},
	)
	if err != nil {
		t.Fatal(err)
	}
	if g.NodeCount() != 2 || g.EdgeCount() != 1 {
		t.Errorf("counts = %d nodes, %d edges, want 2 and 1", g.NodeCount(), g.EdgeCount())
	}
}

func TestApplyChangesRollsBackNodesOnEdgeError(t *testing.T) {
	g := chain(t, "a", "b", "c")
	err := g.ApplyChanges(
		[]NodeChange{
			{Kind: ChangeRemove, ID: "c"},
			{Kind: ChangeAdd, Item: &Node{ID: "node_9", Type: TypeText}},
		},
		[]EdgeChange{{Kind: ChangeAdd, Item: &Edge{ID: "x", Source: "a", Target: "ghost"}}},
	)
	if !errors.Is(err, ErrUnknownTargetNode) {
		t.Fatalf("error = %v, want ErrUnknownTargetNode", err)
	}
	if _, ok := g.Node("c"); !ok {
		t.Error("node c was removed by a failed change set")
	}
	if _, ok := g.Node("node_9"); ok {
		t.Error("node_9 was added by a failed change set")
	}
	if g.EdgeCount() != 2 {
		t.Errorf("EdgeCount() = %d, want 2", g.EdgeCount())
	}
	if got := g.NewNodeID(); got != "node_1" {
		t.Errorf("NewNodeID() = %q, want node_1", got)
	}
}
