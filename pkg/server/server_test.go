package server

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/axonote/pkg/analysis"
	"github.com/matzehuels/axonote/pkg/document"
	"github.com/matzehuels/axonote/pkg/editor"
	errs "github.com/matzehuels/axonote/pkg/errors"
	"github.com/matzehuels/axonote/pkg/graph"
	"github.com/matzehuels/axonote/pkg/layout"
	"github.com/matzehuels/axonote/pkg/session"
)

const mindMap = `{
  "nodes": [
    {"id": "root", "title": "Physics", "position": {"x": 100, "y": 50}, "raw": {"type": "Text", "data": {"text": "y"}}},
    {"id": "sr", "raw": {"type": "Formula", "data": "E = mc^2"}},
    {"id": "deep", "raw": {"type": "Text", "data": "deep"}}
  ],
  "edges": [
    {"source_id": "root", "target_id": "sr"},
    {"source_id": "sr", "target_id": "deep"}
  ]
}`

// stepEngine places node i at (i*100, 0).
var stepEngine = layout.EngineFunc(func(_ context.Context, req layout.Request, _ layout.Options) (layout.Result, error) {
	res := layout.Result{}
	for i, b := range req.Nodes {
		res[b.ID] = graph.Position{X: float64(i * 100)}
	}
	return res, nil
})

type testServer struct {
	t   *testing.T
	srv *Server
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := session.NewMemoryStore(time.Hour)
	t.Cleanup(func() { store.Close() })
	srv := New(store, WithEditorFactory(func() *editor.Editor {
		return editor.New(editor.WithEngine(stepEngine), editor.WithFitViewDelay(time.Millisecond))
	}))
	return &testServer{t: t, srv: srv}
}

func (ts *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	ts.t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) create(body string) string {
	ts.t.Helper()
	rec := ts.do(http.MethodPost, "/api/v1/sessions", body)
	if rec.Code != http.StatusCreated {
		ts.t.Fatalf("create session: status = %d, body = %s", rec.Code, rec.Body)
	}
	var resp sessionResponse
	decode(ts.t, rec, &resp)
	return "/api/v1/sessions/" + resp.ID
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %s: %v", rec.Body, err)
	}
}

func wantApplied(t *testing.T, rec *httptest.ResponseRecorder, want bool) {
	t.Helper()
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body)
	}
	var got applied
	decode(t, rec, &got)
	if got.Applied != want {
		t.Errorf("applied = %v, want %v", got.Applied, want)
	}
}

func wantError(t *testing.T, rec *httptest.ResponseRecorder, status int, code errs.Code) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, status, rec.Body)
	}
	var body errorBody
	decode(t, rec, &body)
	if body.Error.Code != code {
		t.Errorf("error code = %q, want %q", body.Error.Code, code)
	}
}

func snapshot(t *testing.T, ts *testServer, base string) editor.Snapshot {
	t.Helper()
	rec := ts.do(http.MethodGet, base, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("snapshot: status = %d", rec.Code)
	}
	var snap editor.Snapshot
	decode(t, rec, &snap)
	return snap
}

func findNode(t *testing.T, snap editor.Snapshot, id string) graph.Node {
	t.Helper()
	for _, n := range snap.Nodes {
		if n.ID == id {
			return n
		}
	}
	t.Fatalf("node %s not in snapshot", id)
	return graph.Node{}
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got healthResponse
	decode(t, rec, &got)
	if got.Status != "ok" {
		t.Errorf("status = %q, want ok", got.Status)
	}
}

func TestCreateSession(t *testing.T) {
	ts := newTestServer(t)

	empty := snapshot(t, ts, ts.create(""))
	if len(empty.Nodes) != 0 {
		t.Errorf("empty session has %d nodes", len(empty.Nodes))
	}

	loaded := snapshot(t, ts, ts.create(mindMap))
	if len(loaded.Nodes) != 3 || len(loaded.Edges) != 2 {
		t.Errorf("loaded session has %d nodes, %d edges, want 3, 2", len(loaded.Nodes), len(loaded.Edges))
	}

	rec := ts.do(http.MethodPost, "/api/v1/sessions", `{"nodes": [`)
	wantError(t, rec, http.StatusBadRequest, errs.ErrCodeInvalidDocument)
}

func TestUnknownSession(t *testing.T) {
	ts := newTestServer(t)
	for _, id := range []string{"nope", session.NewID()} {
		rec := ts.do(http.MethodGet, "/api/v1/sessions/"+id, "")
		wantError(t, rec, http.StatusNotFound, errs.ErrCodeNotFound)
	}
}

func TestDeleteSession(t *testing.T) {
	ts := newTestServer(t)
	base := ts.create(mindMap)

	if rec := ts.do(http.MethodDelete, base, ""); rec.Code != http.StatusNoContent {
		t.Fatalf("delete: status = %d", rec.Code)
	}
	wantError(t, ts.do(http.MethodGet, base, ""), http.StatusNotFound, errs.ErrCodeNotFound)
}

func TestAddNodeNeedsSelection(t *testing.T) {
	ts := newTestServer(t)
	base := ts.create(mindMap)

	rec := ts.do(http.MethodPost, base+"/nodes", `{"type": "formula"}`)
	wantApplied(t, rec, false)

	wantApplied(t, ts.do(http.MethodPost, base+"/select", `{"node_id": "root"}`), true)

	rec = ts.do(http.MethodPost, base+"/nodes", `{"type": "formula"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add node: status = %d, body = %s", rec.Code, rec.Body)
	}
	var resp addNodeResponse
	decode(t, rec, &resp)
	if !resp.Applied || resp.Node == nil {
		t.Fatalf("add node response = %+v", resp)
	}
	if resp.Node.Type != graph.TypeFormula {
		t.Errorf("node type = %q, want formula", resp.Node.Type)
	}
	want := graph.Position{X: 450, Y: 200}
	if resp.Node.Position != want {
		t.Errorf("node position = %+v, want %+v", resp.Node.Position, want)
	}
	if snap := snapshot(t, ts, base); snap.Selected != "root" {
		t.Errorf("selected = %q, want root", snap.Selected)
	}
}

func TestSelect(t *testing.T) {
	ts := newTestServer(t)
	base := ts.create(mindMap)

	wantApplied(t, ts.do(http.MethodPost, base+"/select", `{"node_id": "ghost"}`), false)
	wantApplied(t, ts.do(http.MethodPost, base+"/select", `{"node_id": "sr"}`), true)
	wantApplied(t, ts.do(http.MethodPost, base+"/select", `{"node_id": ""}`), true)
	if snap := snapshot(t, ts, base); snap.Selected != "" {
		t.Errorf("selected = %q after clearing", snap.Selected)
	}

	rec := ts.do(http.MethodPost, base+"/select", `{"id": "sr"}`)
	wantError(t, rec, http.StatusBadRequest, errs.ErrCodeInvalidInput)
}

func TestFoldExpand(t *testing.T) {
	ts := newTestServer(t)
	base := ts.create(mindMap)

	wantApplied(t, ts.do(http.MethodPost, base+"/fold", ""), false)

	ts.do(http.MethodPost, base+"/select", `{"node_id": "root"}`)
	wantApplied(t, ts.do(http.MethodPost, base+"/fold", ""), true)

	snap := snapshot(t, ts, base)
	if !findNode(t, snap, "sr").Hidden || !findNode(t, snap, "deep").Hidden {
		t.Error("descendants visible after fold")
	}
	if findNode(t, snap, "root").Hidden {
		t.Error("fold hid the root")
	}

	wantApplied(t, ts.do(http.MethodPost, base+"/expand", ""), true)
	snap = snapshot(t, ts, base)
	if findNode(t, snap, "sr").Hidden {
		t.Error("direct child hidden after expand")
	}
	if !findNode(t, snap, "deep").Hidden {
		t.Error("grandchild revealed by expand")
	}
}

func TestUpdateAndDeleteNode(t *testing.T) {
	ts := newTestServer(t)
	base := ts.create(mindMap)

	wantApplied(t, ts.do(http.MethodPatch, base+"/nodes/root", `{"text": "updated"}`), true)
	wantApplied(t, ts.do(http.MethodPatch, base+"/nodes/ghost", `{"text": "x"}`), false)

	data := findNode(t, snapshot(t, ts, base), "root").Data.(graph.TextData)
	if data.Text != "updated" || data.Title != "Physics" {
		t.Errorf("root data = %+v, want merged text with title kept", data)
	}

	rec := ts.do(http.MethodPatch, base+"/nodes/root", `{"text": 42}`)
	wantError(t, rec, http.StatusBadRequest, errs.ErrCodeInvalidInput)

	wantApplied(t, ts.do(http.MethodDelete, base+"/nodes/sr", ""), true)
	snap := snapshot(t, ts, base)
	if len(snap.Nodes) != 2 || len(snap.Edges) != 0 {
		t.Errorf("after delete: %d nodes, %d edges, want 2, 0", len(snap.Nodes), len(snap.Edges))
	}
	wantApplied(t, ts.do(http.MethodDelete, base+"/nodes/sr", ""), false)
}

func TestConnectAndDeleteEdge(t *testing.T) {
	ts := newTestServer(t)
	base := ts.create(mindMap)

	rec := ts.do(http.MethodPost, base+"/edges", `{"source": "deep", "target": "root", "label": "back"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("connect: status = %d, body = %s", rec.Code, rec.Body)
	}
	var edge graph.Edge
	decode(t, rec, &edge)
	if edge.ID != "e-deep-root" || edge.Label != "back" {
		t.Errorf("edge = %+v", edge)
	}

	rec = ts.do(http.MethodPost, base+"/edges", `{"source": "deep", "target": "ghost"}`)
	wantError(t, rec, http.StatusNotFound, errs.ErrCodeNotFound)

	wantApplied(t, ts.do(http.MethodDelete, base+"/edges/"+edge.ID, ""), true)
	wantApplied(t, ts.do(http.MethodDelete, base+"/edges/"+edge.ID, ""), false)
}

func TestChanges(t *testing.T) {
	ts := newTestServer(t)
	base := ts.create(mindMap)

	body := `{
	  "nodes": [{"type": "position", "id": "deep", "position": {"x": 7, "y": 9}}],
	  "edges": [{"type": "remove", "id": "e-sr-deep-1"}]
	}`
	wantApplied(t, ts.do(http.MethodPost, base+"/changes", body), true)

	snap := snapshot(t, ts, base)
	if got := findNode(t, snap, "deep").Position; got != (graph.Position{X: 7, Y: 9}) {
		t.Errorf("deep position = %+v", got)
	}
	if len(snap.Edges) != 1 {
		t.Errorf("edges = %d, want 1", len(snap.Edges))
	}

	rec := ts.do(http.MethodPost, base+"/changes", `{"nodes": [{"type": "explode", "id": "deep"}]}`)
	wantError(t, rec, http.StatusBadRequest, errs.ErrCodeInvalidInput)

	body = `{
	  "nodes": [{"type": "remove", "id": "deep"}],
	  "edges": [{"type": "add", "item": {"id": "x", "source": "root", "target": "ghost"}}]
	}`
	rec = ts.do(http.MethodPost, base+"/changes", body)
	wantError(t, rec, http.StatusBadRequest, errs.ErrCodeInvalidInput)
	if snap := snapshot(t, ts, base); len(snap.Nodes) != 3 || len(snap.Edges) != 1 {
		t.Errorf("after failed changes: %d nodes, %d edges, want 3 and 1", len(snap.Nodes), len(snap.Edges))
	}
}

func TestLayoutAndDocument(t *testing.T) {
	ts := newTestServer(t)
	base := ts.create(mindMap)

	wantApplied(t, ts.do(http.MethodPost, base+"/layout", ""), true)
	snap := snapshot(t, ts, base)
	if got := findNode(t, snap, "deep").Position; got.X != 200 {
		t.Errorf("deep x = %v, want 200", got.X)
	}

	rec := ts.do(http.MethodGet, base+"/document", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("export: status = %d", rec.Code)
	}
	doc, err := document.Decode(rec.Body)
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Nodes) != 3 || len(doc.Edges) != 2 {
		t.Errorf("exported %d nodes, %d edges", len(doc.Nodes), len(doc.Edges))
	}

	rec = ts.do(http.MethodPut, base+"/document", `{"nodes": [{"id": "solo", "raw": {"type": "Text", "data": "x"}}], "edges": []}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("load: status = %d, body = %s", rec.Code, rec.Body)
	}
	if snap := snapshot(t, ts, base); len(snap.Nodes) != 1 {
		t.Errorf("nodes after load = %d, want 1", len(snap.Nodes))
	}

	rec = ts.do(http.MethodPut, base+"/document", `not json`)
	wantError(t, rec, http.StatusBadRequest, errs.ErrCodeInvalidDocument)
}

func TestStats(t *testing.T) {
	ts := newTestServer(t)
	base := ts.create(mindMap)

	rec := ts.do(http.MethodGet, base+"/stats", "")
	var stats analysis.Stats
	decode(t, rec, &stats)
	if stats.Nodes != 3 || stats.Depth != 2 {
		t.Errorf("stats = %+v, want 3 nodes at depth 2", stats)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		code errs.Code
		want int
	}{
		{errs.ErrCodeInvalidInput, http.StatusBadRequest},
		{errs.ErrCodeInvalidDocument, http.StatusBadRequest},
		{errs.ErrCodeNotFound, http.StatusNotFound},
		{errs.ErrCodeConflict, http.StatusConflict},
		{errs.ErrCodeLayoutFailed, http.StatusUnprocessableEntity},
		{errs.ErrCodeUnsupported, http.StatusNotImplemented},
		{errs.ErrCodeInternal, http.StatusInternalServerError},
		{"", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.code); got != tt.want {
			t.Errorf("statusFor(%q) = %d, want %d", tt.code, got, tt.want)
		}
	}
}

func TestEvents(t *testing.T) {
	ts := newTestServer(t)
	base := ts.create(mindMap)

	httpSrv := httptest.NewServer(ts.srv.Handler())
	defer httpSrv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, httpSrv.URL+base+"/events", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q", ct)
	}

	lines := bufio.NewReader(resp.Body)
	first, err := lines.ReadString('\n')
	if err != nil || first != ": connected\n" {
		t.Fatalf("first line = %q, %v", first, err)
	}

	ts.do(http.MethodPost, base+"/select", `{"node_id": "sr"}`)

	ev := readEvent(t, lines)
	if ev.Type != editor.EventSelectionChanged || ev.Version == 0 {
		t.Errorf("event = %+v, want selection_changed with a version", ev)
	}
}

func readEvent(t *testing.T, r *bufio.Reader) editor.Event {
	t.Helper()
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				t.Fatal("stream ended before an event")
			}
			t.Fatal(err)
		}
		data, ok := strings.CutPrefix(strings.TrimSpace(line), "data: ")
		if !ok {
			continue
		}
		var ev editor.Event
		if err := json.Unmarshal([]byte(data), &ev); err != nil {
			t.Fatalf("decode event %q: %v", data, err)
		}
		return ev
	}
}
