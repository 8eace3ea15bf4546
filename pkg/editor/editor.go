// Package editor is the mutation API of a mind map. An [Editor] owns one
// graph and exposes the commands a user or a rendering surface can issue:
// importing and exporting documents, selecting, adding, connecting, editing
// and deleting nodes, folding and expanding subtrees and running the
// automatic layout.
//
// Commands whose precondition is not met (for example AddNode, Fold or
// Expand without a selected node) do nothing and report false; they are
// never errors.
//
// An Editor is safe for concurrent use. Mutations are serialized and each one
// replaces the affected collection as a whole, so a [Snapshot] never observes
// a half-applied change. Observers learn about changes through [Editor.Subscribe].
package editor

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/axonote/pkg/analysis"
	"github.com/matzehuels/axonote/pkg/document"
	errs "github.com/matzehuels/axonote/pkg/errors"
	"github.com/matzehuels/axonote/pkg/graph"
	"github.com/matzehuels/axonote/pkg/layout"
	"github.com/matzehuels/axonote/pkg/observability"
	"github.com/matzehuels/axonote/pkg/visibility"
)

// DefaultFitViewDelay is how long after a layout the fit_view event is
// published.
const DefaultFitViewDelay = 100 * time.Millisecond

// fitView is the viewport fit requested after a layout.
var fitView = FitView{Padding: 0.1, DurationMS: 800}

// Editor applies commands to a single graph.
type Editor struct {
	mu     sync.Mutex
	g      *graph.Graph
	events *hub

	engine       layout.Engine
	layoutOpts   layout.Options
	fitViewDelay time.Duration
	logger       *log.Logger
}

// Option configures an Editor.
type Option func(*Editor)

// WithLogger sets the logger. The default discards all output.
func WithLogger(l *log.Logger) Option {
	return func(e *Editor) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithEngine sets the layout engine. The default is a [layout.GraphvizEngine].
func WithEngine(engine layout.Engine) Option {
	return func(e *Editor) {
		if engine != nil {
			e.engine = engine
		}
	}
}

// WithLayoutOptions sets the options passed to the layout engine.
func WithLayoutOptions(opts layout.Options) Option {
	return func(e *Editor) { e.layoutOpts = opts }
}

// WithFitViewDelay sets the delay between a layout and its fit_view event.
func WithFitViewDelay(d time.Duration) Option {
	return func(e *Editor) { e.fitViewDelay = d }
}

// New creates an editor with an empty graph.
func New(opts ...Option) *Editor {
	e := &Editor{
		g:            graph.New(),
		engine:       layout.NewGraphvizEngine(),
		layoutOpts:   layout.DefaultOptions(),
		fitViewDelay: DefaultFitViewDelay,
		logger:       log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.events = newHub(e.logger)
	return e
}

// Snapshot is a consistent copy of the editor state.
type Snapshot struct {
	Nodes    []graph.Node `json:"nodes"`
	Edges    []graph.Edge `json:"edges"`
	Selected string       `json:"selected,omitempty"`
	Version  uint64       `json:"version"`
}

// Snapshot returns copies of both collections and the selected node id.
func (e *Editor) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := Snapshot{
		Nodes:   e.g.Nodes(),
		Edges:   e.g.Edges(),
		Version: e.events.currentVersion(),
	}
	if n, ok := e.g.Selected(); ok {
		s.Selected = n.ID
	}
	return s
}

// Subscribe returns a channel receiving every event published after the
// call. The channel is closed when ctx is done or the editor is closed.
func (e *Editor) Subscribe(ctx context.Context) <-chan Event {
	return e.events.subscribe(ctx)
}

// Close ends all subscriptions. The editor stays usable but publishes no
// further events.
func (e *Editor) Close() {
	e.events.close()
}

// Stats returns structural statistics for the current graph.
func (e *Editor) Stats() analysis.Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return analysis.Analyze(e.g.Nodes(), e.g.Edges())
}

// =============================================================================
// Import / Export
// =============================================================================

// LoadFromJSON parses data as a document and replaces the graph with it.
// On any error the current graph is kept.
func (e *Editor) LoadFromJSON(data []byte) error {
	doc, err := document.Parse(data)
	if err != nil {
		e.record("load", false, err)
		return err
	}
	return e.Import(doc)
}

// Import replaces the graph with the contents of doc.
func (e *Editor) Import(doc document.Document) error {
	nodes, edges, err := document.ToGraph(doc)
	if err == nil {
		e.mu.Lock()
		err = e.g.Replace(nodes, edges)
		if err == nil {
			e.events.publish(EventGraphReplaced, GraphReplaced{Nodes: len(nodes), Edges: len(edges)})
		}
		e.mu.Unlock()
	}
	if err != nil && !errs.Is(err, errs.ErrCodeInvalidDocument) {
		err = errs.Wrap(errs.ErrCodeInvalidDocument, err, "invalid graph")
	}
	e.record("import", err == nil, err)
	if err != nil {
		return err
	}
	e.logger.Debug("imported document", "nodes", len(nodes), "edges", len(edges))
	return nil
}

// Export converts the graph to a document.
func (e *Editor) Export() (document.Document, error) {
	e.mu.Lock()
	nodes, edges := e.g.Nodes(), e.g.Edges()
	e.mu.Unlock()
	return document.FromGraph(nodes, edges)
}

// =============================================================================
// Selection
// =============================================================================

// Select makes id the only selected node. It returns false if id is unknown.
func (e *Editor) Select(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.g.Node(id); !ok {
		return false
	}
	if cur, ok := e.g.Selected(); ok && cur.ID == id {
		return true
	}
	if err := e.g.ApplyNodeChanges([]graph.NodeChange{{Kind: graph.ChangeSelect, ID: id, Selected: true}}); err != nil {
		return false
	}
	e.events.publish(EventSelectionChanged, SelectionChanged{NodeID: id})
	return true
}

// ClearSelection deselects the selected node, if any.
func (e *Editor) ClearSelection() {
	e.mu.Lock()
	defer e.mu.Unlock()
	cur, ok := e.g.Selected()
	if !ok {
		return
	}
	if err := e.g.ApplyNodeChanges([]graph.NodeChange{{Kind: graph.ChangeSelect, ID: cur.ID}}); err == nil {
		e.events.publish(EventSelectionChanged, SelectionChanged{})
	}
}

// =============================================================================
// Node and Edge Mutations
// =============================================================================

// AddNode creates a node of kind t next to the selected node and connects
// the selected node to it. The new node is placed ChildOffsetX to the right
// of its anchor and ChildOffsetY further down for every visible edge already
// leaving the anchor. Without a selection nothing happens and AddNode
// returns false.
func (e *Editor) AddNode(t graph.NodeType) (graph.Node, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	anchor, ok := e.g.Selected()
	if !ok {
		e.record("add_node", false, nil)
		return graph.Node{}, false
	}

	siblings := 0
	for _, edge := range e.g.OutgoingEdges(anchor.ID) {
		if !edge.Hidden {
			siblings++
		}
	}
	pos := graph.Position{
		X: anchor.Position.X + ChildOffsetX,
		Y: anchor.Position.Y + float64(siblings*ChildOffsetY),
	}

	id := e.g.NewNodeID()
	if _, taken := e.g.Node(id); taken {
		// The generator is seeded past every id in the graph.
		panic(fmt.Sprintf("editor: generated node id %q already in use", id))
	}
	n := newNode(id, t, pos)
	edge := graph.Edge{ID: e.uniqueEdgeID(anchor.ID, id), Source: anchor.ID, Target: id}

	if err := e.g.ApplyNodeChanges([]graph.NodeChange{{Kind: graph.ChangeAdd, Item: &n}}); err != nil {
		panic(fmt.Sprintf("editor: add node %s: %v", id, err))
	}
	if err := e.g.ApplyEdgeChanges([]graph.EdgeChange{{Kind: graph.ChangeAdd, Item: &edge}}); err != nil {
		panic(fmt.Sprintf("editor: add edge %s: %v", edge.ID, err))
	}

	e.events.publish(EventNodesChanged, ElementsChanged{IDs: []string{id}})
	e.events.publish(EventEdgesChanged, ElementsChanged{IDs: []string{edge.ID}})
	e.logger.Debug("added node", "id", id, "type", n.Type, "anchor", anchor.ID)
	e.record("add_node", true, nil)

	added, _ := e.g.Node(id)
	return added, true
}

// Connect adds an edge from source to target. Parallel edges are allowed;
// each gets its own id. Unknown endpoints yield a NOT_FOUND error.
func (e *Editor) Connect(source, target, label string) (graph.Edge, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, id := range []string{source, target} {
		if _, ok := e.g.Node(id); !ok {
			err := errs.New(errs.ErrCodeNotFound, "node %q not found", id)
			e.record("connect", false, err)
			return graph.Edge{}, err
		}
	}

	edge := graph.Edge{ID: e.uniqueEdgeID(source, target), Source: source, Target: target, Label: label}
	if err := e.g.ApplyEdgeChanges([]graph.EdgeChange{{Kind: graph.ChangeAdd, Item: &edge}}); err != nil {
		err = errs.Wrap(errs.ErrCodeInvalidInput, err, "connect %s to %s", source, target)
		e.record("connect", false, err)
		return graph.Edge{}, err
	}
	e.events.publish(EventEdgesChanged, ElementsChanged{IDs: []string{edge.ID}})
	e.record("connect", true, nil)
	return edge, nil
}

// UpdateNodeData merges patch into the payload of node id. Fields absent
// from patch keep their value. It returns false if the node does not exist.
func (e *Editor) UpdateNodeData(id string, patch graph.Patch) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ok, err := e.g.UpdateData(id, patch)
	if err != nil {
		err = errs.Wrap(errs.ErrCodeInvalidInput, err, "invalid data for node %s", id)
	}
	if ok {
		e.events.publish(EventNodesChanged, ElementsChanged{IDs: []string{id}})
	}
	e.record("update_node_data", ok, err)
	return ok, err
}

// DeleteNode removes node id together with every edge touching it.
func (e *Editor) DeleteNode(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	n, ok := e.g.Node(id)
	if !ok {
		e.record("delete_node", false, nil)
		return false
	}
	var removedEdges []string
	for _, edge := range e.g.Edges() {
		if edge.Source == id || edge.Target == id {
			removedEdges = append(removedEdges, edge.ID)
		}
	}
	if err := e.g.ApplyNodeChanges([]graph.NodeChange{{Kind: graph.ChangeRemove, ID: id}}); err != nil {
		e.record("delete_node", false, err)
		return false
	}

	e.events.publish(EventNodesChanged, ElementsChanged{IDs: []string{id}})
	if len(removedEdges) > 0 {
		e.events.publish(EventEdgesChanged, ElementsChanged{IDs: removedEdges})
	}
	if n.Selected {
		e.events.publish(EventSelectionChanged, SelectionChanged{})
	}
	e.record("delete_node", true, nil)
	return true
}

// DeleteEdge removes edge id.
func (e *Editor) DeleteEdge(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.g.Edge(id); !ok {
		e.record("delete_edge", false, nil)
		return false
	}
	if err := e.g.ApplyEdgeChanges([]graph.EdgeChange{{Kind: graph.ChangeRemove, ID: id}}); err != nil {
		e.record("delete_edge", false, err)
		return false
	}
	e.events.publish(EventEdgesChanged, ElementsChanged{IDs: []string{id}})
	e.record("delete_edge", true, nil)
	return true
}

// =============================================================================
// Folding
// =============================================================================

// Fold hides every descendant of the selected node. It returns false when
// nothing is selected.
func (e *Editor) Fold() bool {
	return e.visibility("fold", visibility.Fold)
}

// Expand reveals the direct children of the selected node. It returns false
// when nothing is selected.
func (e *Editor) Expand() bool {
	return e.visibility("expand", visibility.Expand)
}

func (e *Editor) visibility(name string, op func(*graph.Graph, string) visibility.Result) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	sel, ok := e.g.Selected()
	if !ok {
		e.record(name, false, nil)
		return false
	}
	before := e.g.Edges()
	beforeNodes := e.g.Nodes()
	r := op(e.g, sel.ID)
	if r.Nodes > 0 {
		e.events.publish(EventNodesChanged, ElementsChanged{IDs: changedNodes(beforeNodes, e.g.Nodes())})
	}
	if r.Edges > 0 {
		e.events.publish(EventEdgesChanged, ElementsChanged{IDs: changedEdges(before, e.g.Edges())})
	}
	e.logger.Debug(name, "root", sel.ID, "nodes", r.Nodes, "edges", r.Edges)
	e.record(name, true, nil)
	return true
}

// =============================================================================
// Layout
// =============================================================================

// ApplyLayout lays out the whole graph, hidden nodes included, and writes the
// positions back. The engine runs without holding the editor lock; nodes
// deleted in the meantime are skipped and concurrent runs resolve in
// last-writer-wins order. On error no position changes.
//
// After a successful run a fit_view event follows after the configured
// delay.
func (e *Editor) ApplyLayout(ctx context.Context) error {
	e.mu.Lock()
	nodes, edges := e.g.Nodes(), e.g.Edges()
	e.mu.Unlock()

	start := time.Now()
	res, err := layout.Compute(ctx, e.engine, nodes, edges, e.layoutOpts)
	if err != nil {
		e.logger.Error("layout failed", "err", err)
		e.record("layout", false, err)
		return err
	}

	e.mu.Lock()
	moved := e.g.SetPositions(res)
	e.events.publish(EventLayoutApplied, LayoutApplied{Moved: moved})
	e.mu.Unlock()

	e.logger.Debug("layout applied", "nodes", moved, "duration", time.Since(start).Round(time.Millisecond))
	e.record("layout", true, nil)

	time.AfterFunc(e.fitViewDelay, func() {
		e.events.publish(EventFitView, fitView)
	})
	return nil
}

// =============================================================================
// Helpers
// =============================================================================

// uniqueEdgeID returns "e-<source>-<target>", suffixed with "-1", "-2", ...
// when that id is taken.
func (e *Editor) uniqueEdgeID(source, target string) string {
	base := fmt.Sprintf("e-%s-%s", source, target)
	id := base
	for i := 1; ; i++ {
		if _, taken := e.g.Edge(id); !taken {
			return id
		}
		id = fmt.Sprintf("%s-%d", base, i)
	}
}

func (e *Editor) record(command string, applied bool, err error) {
	observability.Editor().OnCommand(context.Background(), command, applied, err)
}

func changedNodes(before, after []graph.Node) []string {
	var ids []string
	for i := range after {
		if i < len(before) && before[i].Hidden != after[i].Hidden {
			ids = append(ids, after[i].ID)
		}
	}
	return ids
}

func changedEdges(before, after []graph.Edge) []string {
	var ids []string
	for i := range after {
		if i < len(before) && before[i].Hidden != after[i].Hidden {
			ids = append(ids, after[i].ID)
		}
	}
	return ids
}
