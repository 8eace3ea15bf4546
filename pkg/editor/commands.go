package editor

import (
	"slices"

	errs "github.com/matzehuels/axonote/pkg/errors"
	"github.com/matzehuels/axonote/pkg/graph"
)

// Command is a typed change emitted by a rendering surface. Node components
// report content edits as DataChanged instead of calling back into the
// editor, which keeps the node payloads plain data.
type Command interface {
	command() string
}

// DataChanged patches the payload of one node.
type DataChanged struct {
	NodeID string      `json:"node_id"`
	Patch  graph.Patch `json:"patch"`
}

// NodesChanged applies generic node changes such as drags, resizes,
// selections and removals.
type NodesChanged struct {
	Changes []graph.NodeChange `json:"changes"`
}

// EdgesChanged applies generic edge changes.
type EdgesChanged struct {
	Changes []graph.EdgeChange `json:"changes"`
}

// Connected is a user-drawn edge.
type Connected struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label,omitempty"`
}

func (DataChanged) command() string  { return "data_changed" }
func (NodesChanged) command() string { return "nodes_changed" }
func (EdgesChanged) command() string { return "edges_changed" }
func (Connected) command() string    { return "connected" }

// Dispatch applies cmd. Change lists are applied atomically: if one change
// is invalid none is applied and an INVALID_INPUT error is returned.
func (e *Editor) Dispatch(cmd Command) error {
	switch c := cmd.(type) {
	case DataChanged:
		_, err := e.UpdateNodeData(c.NodeID, c.Patch)
		return err
	case Connected:
		_, err := e.Connect(c.Source, c.Target, c.Label)
		return err
	case NodesChanged:
		return e.applyChanges(c.command(), c.Changes, nil)
	case EdgesChanged:
		return e.applyChanges(c.command(), nil, c.Changes)
	case nil:
		return errs.New(errs.ErrCodeInvalidInput, "nil command")
	default:
		return errs.New(errs.ErrCodeUnsupported, "unsupported command %q", cmd.command())
	}
}

// ApplyChanges applies a node change list and an edge change list as one
// mutation. Node changes run first, so added edges may reference nodes added
// in the same call. If either list is invalid nothing is applied and an
// INVALID_INPUT error is returned.
func (e *Editor) ApplyChanges(nodes []graph.NodeChange, edges []graph.EdgeChange) error {
	return e.applyChanges("changes", nodes, edges)
}

func (e *Editor) applyChanges(op string, nodes []graph.NodeChange, edges []graph.EdgeChange) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	before, hadSel := e.g.Selected()
	edgesBefore := e.g.EdgeCount()
	if err := e.g.ApplyChanges(nodes, edges); err != nil {
		err = errs.Wrap(errs.ErrCodeInvalidInput, err, "invalid %s", op)
		e.record(op, false, err)
		return err
	}

	nodeIDs := changedIDs(nodes, func(c graph.NodeChange) string {
		if c.Kind == graph.ChangeAdd && c.Item != nil {
			return c.Item.ID
		}
		return c.ID
	})
	edgeIDs := changedIDs(edges, func(c graph.EdgeChange) string {
		switch {
		case c.Kind == graph.ChangeSelect:
			return ""
		case c.Kind == graph.ChangeAdd && c.Item != nil:
			return c.Item.ID
		}
		return c.ID
	})
	if len(nodeIDs) > 0 {
		e.events.publish(EventNodesChanged, ElementsChanged{IDs: nodeIDs})
	}
	if len(edgeIDs) > 0 || e.g.EdgeCount() != edgesBefore {
		e.events.publish(EventEdgesChanged, ElementsChanged{IDs: edgeIDs})
	}
	after, hasSel := e.g.Selected()
	if hadSel != hasSel || before.ID != after.ID {
		e.events.publish(EventSelectionChanged, SelectionChanged{NodeID: after.ID})
	}
	e.record(op, true, nil)
	return nil
}

// changedIDs returns the distinct non-empty ids named by changes, in order.
func changedIDs[C any](changes []C, id func(C) string) []string {
	var ids []string
	for _, c := range changes {
		if v := id(c); v != "" && !slices.Contains(ids, v) {
			ids = append(ids, v)
		}
	}
	return ids
}
