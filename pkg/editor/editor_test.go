package editor

import (
	"context"
	"errors"
	"runtime"
	"strings"
	"testing"
	"time"

	errs "github.com/matzehuels/axonote/pkg/errors"
	"github.com/matzehuels/axonote/pkg/graph"
	"github.com/matzehuels/axonote/pkg/layout"
)

const mindMap = `{
  "nodes": [
    {"id": "root", "title": "Physics", "position": {"x": 100, "y": 50}, "raw": {"type": "Text", "data": {"text": "y"}}},
    {"id": "sr", "raw": {"type": "Formula", "data": "E = mc^2"}},
    {"id": "gr", "raw": {"type": "Formula", "data": "G = 8 \\pi T"}},
    {"id": "deep", "raw": {"type": "Text", "data": {"text": "deep"}}}
  ],
  "edges": [
    {"source_id": "root", "target_id": "sr"},
    {"source_id": "root", "target_id": "gr"},
    {"source_id": "sr", "target_id": "deep"}
  ]
}`

func newLoaded(t *testing.T, opts ...Option) *Editor {
	t.Helper()
	e := New(opts...)
	if err := e.LoadFromJSON([]byte(mindMap)); err != nil {
		t.Fatalf("LoadFromJSON: %v", err)
	}
	return e
}

func node(t *testing.T, e *Editor, id string) graph.Node {
	t.Helper()
	for _, n := range e.Snapshot().Nodes {
		if n.ID == id {
			return n
		}
	}
	t.Fatalf("node %s not found", id)
	return graph.Node{}
}

func TestLoadFromJSONKeepsGraphOnError(t *testing.T) {
	e := newLoaded(t)

	err := e.LoadFromJSON([]byte(`{"nodes": [`))
	if !errs.Is(err, errs.ErrCodeInvalidDocument) {
		t.Fatalf("error = %v, want INVALID_DOCUMENT", err)
	}
	if !strings.HasPrefix(errs.UserMessage(err), "Invalid JSON format") {
		t.Errorf("UserMessage() = %q", errs.UserMessage(err))
	}

	err = e.LoadFromJSON([]byte(`{"nodes": [{"id": "x", "raw": {"type": "Text"}}], "edges": [{"source_id": "x", "target_id": "y"}]}`))
	if !errs.Is(err, errs.ErrCodeInvalidDocument) {
		t.Fatalf("dangling edge error = %v, want INVALID_DOCUMENT", err)
	}
	if got := len(e.Snapshot().Nodes); got != 4 {
		t.Errorf("nodes after failed loads = %d, want 4", got)
	}
}

func TestNoSelectionIsNoop(t *testing.T) {
	e := newLoaded(t)
	before := e.Snapshot()

	if _, ok := e.AddNode(graph.TypeText); ok {
		t.Error("AddNode without selection should be a no-op")
	}
	if e.Fold() {
		t.Error("Fold without selection should be a no-op")
	}
	if e.Expand() {
		t.Error("Expand without selection should be a no-op")
	}

	after := e.Snapshot()
	if len(after.Nodes) != len(before.Nodes) || len(after.Edges) != len(before.Edges) {
		t.Error("model changed")
	}
	for i := range after.Nodes {
		if after.Nodes[i].Hidden != before.Nodes[i].Hidden {
			t.Errorf("%s visibility changed", after.Nodes[i].ID)
		}
	}
}

func TestSelectIsExclusive(t *testing.T) {
	e := newLoaded(t)
	if !e.Select("sr") || !e.Select("gr") {
		t.Fatal("Select() returned false for a known node")
	}
	if e.Select("nope") {
		t.Error("Select(unknown) = true")
	}

	selected := 0
	for _, n := range e.Snapshot().Nodes {
		if n.Selected {
			selected++
		}
	}
	if selected != 1 || e.Snapshot().Selected != "gr" {
		t.Errorf("selected = %d (%q), want exactly gr", selected, e.Snapshot().Selected)
	}

	e.ClearSelection()
	if s := e.Snapshot().Selected; s != "" {
		t.Errorf("Selected after ClearSelection = %q", s)
	}
}

func TestAddNodeOffsets(t *testing.T) {
	e := New()
	if err := e.LoadFromJSON([]byte(`{"nodes": [{"id": "a", "position": {"x": 10, "y": 20}, "raw": {"type": "Text"}}], "edges": []}`)); err != nil {
		t.Fatal(err)
	}
	e.Select("a")

	first, ok := e.AddNode(graph.TypeFormula)
	if !ok {
		t.Fatal("AddNode() = false with a selection")
	}
	second, _ := e.AddNode(graph.TypeImage)

	if first.Position != (graph.Position{X: 360, Y: 20}) {
		t.Errorf("first.Position = %v, want {360 20}", first.Position)
	}
	if second.Position != (graph.Position{X: 360, Y: 170}) {
		t.Errorf("second.Position = %v, want {360 170}", second.Position)
	}
	if first.ID == second.ID {
		t.Errorf("duplicate ids %s", first.ID)
	}

	edges := e.Snapshot().Edges
	if len(edges) != 2 {
		t.Fatalf("edges = %v, want 2", edges)
	}
	for i, want := range []string{first.ID, second.ID} {
		if edges[i].Source != "a" || edges[i].Target != want {
			t.Errorf("edge[%d] = %s->%s, want a->%s", i, edges[i].Source, edges[i].Target, want)
		}
		if edges[i].ID != "e-a-"+want {
			t.Errorf("edge[%d].ID = %q", i, edges[i].ID)
		}
	}
	if e.Snapshot().Selected != "a" {
		t.Error("anchor should stay selected")
	}
}

func TestAddNodeSkipsHiddenSiblings(t *testing.T) {
	e := newLoaded(t)
	e.Select("root")
	e.Fold()
	n, _ := e.AddNode(graph.TypeText)
	if n.Position.Y != 50 {
		t.Errorf("Y = %v, want 50 when all sibling edges are hidden", n.Position.Y)
	}
}

func TestAddNodeDefaults(t *testing.T) {
	tests := []struct {
		kind graph.NodeType
		want graph.Payload
	}{
		{graph.TypeText, graph.TextData{Title: DefaultTextTitle, Text: DefaultText}},
		{graph.TypeImage, graph.ImageData{Title: "New Image", URL: "https://placehold.co/300x200?text=Axonote"}},
		{graph.TypeFormula, graph.FormulaData{Formula: `c = \pm\sqrt{a^2 + b^2}`}},
		{graph.TypeBibliography, DefaultBibliography},
		{"mystery", graph.TextData{Title: "New Idea", Text: "Free style"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			e := newLoaded(t)
			e.Select("deep")
			n, ok := e.AddNode(tt.kind)
			if !ok {
				t.Fatal("AddNode() = false")
			}
			if n.Data != tt.want {
				t.Errorf("Data = %+v, want %+v", n.Data, tt.want)
			}
		})
	}

	e := newLoaded(t)
	e.Select("deep")
	n, _ := e.AddNode(graph.TypeList)
	if l := n.Data.(graph.ListData); l.Title != "New List" || len(l.Items) != 0 {
		t.Errorf("list = %+v", l)
	}
}

func TestAddNodeIDsAvoidImportedIDs(t *testing.T) {
	e := New()
	err := e.LoadFromJSON([]byte(`{"nodes": [{"id": "node_1", "raw": {"type": "Text"}}, {"id": "node_2", "raw": {"type": "Text"}}], "edges": []}`))
	if err != nil {
		t.Fatal(err)
	}
	e.Select("node_1")
	n, _ := e.AddNode(graph.TypeText)
	if n.ID != "node_3" {
		t.Errorf("ID = %q, want node_3", n.ID)
	}
}

func TestConnect(t *testing.T) {
	e := newLoaded(t)

	first, err := e.Connect("gr", "deep", "uses")
	if err != nil {
		t.Fatal(err)
	}
	second, err := e.Connect("gr", "deep", "")
	if err != nil {
		t.Fatal(err)
	}
	if first.ID == second.ID {
		t.Errorf("parallel edges share id %s", first.ID)
	}
	if first.Label != "uses" {
		t.Errorf("Label = %q", first.Label)
	}

	if _, err := e.Connect("gr", "ghost", ""); !errs.Is(err, errs.ErrCodeNotFound) {
		t.Errorf("Connect(unknown) error = %v, want NOT_FOUND", err)
	}
}

func TestUpdateNodeDataMerges(t *testing.T) {
	e := newLoaded(t)
	ok, err := e.UpdateNodeData("root", graph.Patch{"text": "x"})
	if err != nil || !ok {
		t.Fatalf("UpdateNodeData() = %v, %v", ok, err)
	}
	want := graph.TextData{Title: "Physics", Text: "x"}
	if got := node(t, e, "root").Data; got != want {
		t.Errorf("Data = %+v, want %+v", got, want)
	}

	ok, err = e.UpdateNodeData("ghost", graph.Patch{"text": "x"})
	if ok || err != nil {
		t.Errorf("UpdateNodeData(unknown) = %v, %v, want false, nil", ok, err)
	}
}

func TestDeleteNodeCascades(t *testing.T) {
	e := newLoaded(t)
	if !e.DeleteNode("sr") {
		t.Fatal("DeleteNode() = false")
	}
	s := e.Snapshot()
	for _, edge := range s.Edges {
		if edge.Source == "sr" || edge.Target == "sr" {
			t.Errorf("dangling edge %s left behind", edge.ID)
		}
	}
	if len(s.Edges) != 1 {
		t.Errorf("edges = %d, want 1", len(s.Edges))
	}
	if e.DeleteNode("sr") {
		t.Error("second DeleteNode() = true")
	}
}

func TestDeleteEdge(t *testing.T) {
	e := newLoaded(t)
	id := e.Snapshot().Edges[0].ID
	if !e.DeleteEdge(id) {
		t.Fatal("DeleteEdge() = false")
	}
	if e.DeleteEdge(id) {
		t.Error("second DeleteEdge() = true")
	}
	if len(e.Snapshot().Nodes) != 4 {
		t.Error("DeleteEdge removed nodes")
	}
}

func TestFoldExpand(t *testing.T) {
	e := newLoaded(t)
	e.Select("root")

	if !e.Fold() {
		t.Fatal("Fold() = false with selection")
	}
	for _, id := range []string{"sr", "gr", "deep"} {
		if !node(t, e, id).Hidden {
			t.Errorf("%s visible after fold", id)
		}
	}
	if node(t, e, "root").Hidden {
		t.Error("root hidden after fold")
	}

	if !e.Expand() {
		t.Fatal("Expand() = false with selection")
	}
	if node(t, e, "sr").Hidden || node(t, e, "gr").Hidden {
		t.Error("direct children still hidden after expand")
	}
	if !node(t, e, "deep").Hidden {
		t.Error("expand should not reveal grandchildren")
	}
}

func TestApplyLayout(t *testing.T) {
	engine := layout.EngineFunc(func(_ context.Context, req layout.Request, _ layout.Options) (layout.Result, error) {
		res := layout.Result{}
		for i, b := range req.Nodes {
			res[b.ID] = graph.Position{X: float64(i) * 400, Y: 0}
		}
		return res, nil
	})
	e := newLoaded(t, WithEngine(engine), WithFitViewDelay(time.Millisecond))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	events := e.Subscribe(ctx)

	if err := e.ApplyLayout(ctx); err != nil {
		t.Fatal(err)
	}
	if got := node(t, e, "deep").Position; got != (graph.Position{X: 1200}) {
		t.Errorf("deep.Position = %v, want {1200 0}", got)
	}

	var seen []EventType
	for len(seen) < 2 {
		select {
		case ev := <-events:
			seen = append(seen, ev.Type)
		case <-ctx.Done():
			t.Fatalf("timed out waiting for events, got %v", seen)
		}
	}
	if seen[0] != EventLayoutApplied || seen[1] != EventFitView {
		t.Errorf("events = %v, want [layout_applied fit_view]", seen)
	}
}

func TestApplyLayoutFailureKeepsPositions(t *testing.T) {
	failing := layout.EngineFunc(func(context.Context, layout.Request, layout.Options) (layout.Result, error) {
		return nil, errors.New("boom")
	})
	e := newLoaded(t, WithEngine(failing))

	err := e.ApplyLayout(context.Background())
	if !errs.Is(err, errs.ErrCodeLayoutFailed) {
		t.Fatalf("error = %v, want LAYOUT_FAILED", err)
	}
	if got := node(t, e, "root").Position; got != (graph.Position{X: 100, Y: 50}) {
		t.Errorf("root moved to %v", got)
	}
}

func TestSubscribeVersionsIncrease(t *testing.T) {
	e := New()
	ctx, cancel := context.WithCancel(context.Background())
	events := e.Subscribe(ctx)

	if err := e.LoadFromJSON([]byte(mindMap)); err != nil {
		t.Fatal(err)
	}
	e.Select("root")

	first := <-events
	second := <-events
	if first.Type != EventGraphReplaced || second.Type != EventSelectionChanged {
		t.Errorf("events = %s, %s", first.Type, second.Type)
	}
	if second.Version != first.Version+1 {
		t.Errorf("versions = %d, %d", first.Version, second.Version)
	}

	cancel()
	for range events {
	}
}

func TestCloseEndsSubscriptions(t *testing.T) {
	e := New()
	events := e.Subscribe(context.Background())
	e.Close()
	if _, ok := <-events; ok {
		t.Error("channel still open after Close")
	}
	e.Select("anything")
}

func TestCloseReleasesSubscriptionGoroutines(t *testing.T) {
	e := New()
	base := runtime.NumGoroutine()
	for range 50 {
		e.Subscribe(context.Background())
	}
	e.Close()

	deadline := time.Now().Add(2 * time.Second)
	for runtime.NumGoroutine() > base+5 {
		if time.Now().After(deadline) {
			t.Fatalf("goroutines = %d, want at most %d after Close", runtime.NumGoroutine(), base+5)
		}
		time.Sleep(10 * time.Millisecond)
	}
}
