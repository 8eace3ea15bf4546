package graph

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrInvalidNodeID is returned when a node id is empty.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned when a node id is already in use.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrInvalidEdgeID is returned when an edge id is empty.
	ErrInvalidEdgeID = errors.New("edge ID must not be empty")

	// ErrDuplicateEdgeID is returned when an edge id is already in use.
	ErrDuplicateEdgeID = errors.New("duplicate edge ID")

	// ErrUnknownSourceNode is returned when an edge's source does not exist.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned when an edge's target does not exist.
	ErrUnknownTargetNode = errors.New("unknown target node")

	// ErrUnknownNodeType is returned for a node type outside the closed set,
	// or when a node's payload does not match its declared type.
	ErrUnknownNodeType = errors.New("unknown node type")

	// ErrUnknownChange is returned for an unsupported change kind.
	ErrUnknownChange = errors.New("unknown change kind")
)

// Graph holds the node and edge collections of one mind map.
//
// The zero value is not usable; create graphs with New.
type Graph struct {
	nodes []Node
	edges []Edge
	ids   *IDGenerator
}

// New creates an empty graph with a fresh id generator.
func New() *Graph {
	return &Graph{ids: NewIDGenerator(DefaultIDPrefix)}
}

// Nodes returns a copy of the node collection in order.
func (g *Graph) Nodes() []Node { return slices.Clone(g.nodes) }

// Edges returns a copy of the edge collection in order.
func (g *Graph) Edges() []Edge { return slices.Clone(g.edges) }

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Node returns the node with the given id.
func (g *Graph) Node(id string) (Node, bool) {
	if i := g.nodeIndex(id); i >= 0 {
		return g.nodes[i], true
	}
	return Node{}, false
}

// Edge returns the edge with the given id.
func (g *Graph) Edge(id string) (Edge, bool) {
	if i := g.edgeIndex(id); i >= 0 {
		return g.edges[i], true
	}
	return Edge{}, false
}

// Selected returns the selected node, if any.
func (g *Graph) Selected() (Node, bool) {
	if i := slices.IndexFunc(g.nodes, func(n Node) bool { return n.Selected }); i >= 0 {
		return g.nodes[i], true
	}
	return Node{}, false
}

// OutgoingEdges returns the edges whose source is id, in collection order.
func (g *Graph) OutgoingEdges(id string) []Edge {
	var out []Edge
	for _, e := range g.edges {
		if e.Source == id {
			out = append(out, e)
		}
	}
	return out
}

// NewNodeID returns the next id from the graph's generator.
func (g *Graph) NewNodeID() string { return g.ids.Next() }

// Replace swaps both collections for the given ones after validating them.
// On error the graph is left unchanged. The id generator is reseeded so that
// it never returns an id present in nodes. If several nodes are marked
// selected, only the last one keeps the mark.
func (g *Graph) Replace(nodes []Node, edges []Edge) error {
	next := make([]Node, 0, len(nodes))
	for _, n := range nodes {
		nn, err := normalizeNode(n)
		if err != nil {
			return err
		}
		next = append(next, nn)
	}
	selected := false
	for i := len(next) - 1; i >= 0; i-- {
		if !next[i].Selected {
			continue
		}
		next[i].Selected = !selected
		selected = true
	}
	if err := validate(next, edges); err != nil {
		return err
	}
	g.nodes = next
	g.edges = slices.Clone(edges)
	g.ids.Reset()
	for _, n := range g.nodes {
		g.ids.Observe(n.ID)
	}
	return nil
}

// Validate checks the model invariants: unique non-empty ids and no edge
// endpoint referencing a missing node.
func (g *Graph) Validate() error { return validate(g.nodes, g.edges) }

// SetHidden sets the hidden flag on the listed nodes and edges and reports
// how many of each actually changed. Unknown ids are ignored.
func (g *Graph) SetHidden(nodeIDs, edgeIDs []string, hidden bool) (nodes, edges int) {
	if len(nodeIDs) > 0 {
		want := toSet(nodeIDs)
		next := slices.Clone(g.nodes)
		for i := range next {
			if want[next[i].ID] && next[i].Hidden != hidden {
				next[i].Hidden = hidden
				nodes++
			}
		}
		if nodes > 0 {
			g.nodes = next
		}
	}
	if len(edgeIDs) > 0 {
		want := toSet(edgeIDs)
		next := slices.Clone(g.edges)
		for i := range next {
			if want[next[i].ID] && next[i].Hidden != hidden {
				next[i].Hidden = hidden
				edges++
			}
		}
		if edges > 0 {
			g.edges = next
		}
	}
	return nodes, edges
}

// SetPositions moves every node named in positions and returns how many were
// moved. Ids that are not in the graph are ignored.
func (g *Graph) SetPositions(positions map[string]Position) int {
	next := slices.Clone(g.nodes)
	moved := 0
	for i := range next {
		if p, ok := positions[next[i].ID]; ok {
			next[i].Position = p
			moved++
		}
	}
	if moved > 0 {
		g.nodes = next
	}
	return moved
}

// UpdateData shallow-merges patch into the payload of node id.
// It returns false with a nil error when the node does not exist.
func (g *Graph) UpdateData(id string, patch Patch) (bool, error) {
	i := g.nodeIndex(id)
	if i < 0 {
		return false, nil
	}
	merged, err := MergePayload(g.nodes[i].Data, patch)
	if err != nil {
		return false, fmt.Errorf("update %s: %w", id, err)
	}
	next := slices.Clone(g.nodes)
	next[i].Data = merged
	g.nodes = next
	return true, nil
}

func (g *Graph) nodeIndex(id string) int {
	return slices.IndexFunc(g.nodes, func(n Node) bool { return n.ID == id })
}

func (g *Graph) edgeIndex(id string) int {
	return slices.IndexFunc(g.edges, func(e Edge) bool { return e.ID == id })
}

// normalizeNode checks the node's id and type and fills a missing payload.
func normalizeNode(n Node) (Node, error) {
	if n.ID == "" {
		return Node{}, ErrInvalidNodeID
	}
	if _, err := ParseNodeType(string(n.Type)); err != nil {
		return Node{}, fmt.Errorf("node %s: %w", n.ID, err)
	}
	if n.Data == nil {
		p, err := ZeroPayload(n.Type)
		if err != nil {
			return Node{}, err
		}
		n.Data = p
	}
	if n.Data.Type() != n.Type {
		return Node{}, fmt.Errorf("node %s: %w: payload %s for type %s", n.ID, ErrUnknownNodeType, n.Data.Type(), n.Type)
	}
	n.Data = clonePayload(n.Data)
	if n.Size != nil {
		s := *n.Size
		n.Size = &s
	}
	return n, nil
}

func validate(nodes []Node, edges []Edge) error {
	ids := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		if n.ID == "" {
			return ErrInvalidNodeID
		}
		if ids[n.ID] {
			return fmt.Errorf("%w: %s", ErrDuplicateNodeID, n.ID)
		}
		ids[n.ID] = true
	}
	edgeIDs := make(map[string]bool, len(edges))
	for _, e := range edges {
		if err := validateEdge(e, ids, edgeIDs); err != nil {
			return err
		}
		edgeIDs[e.ID] = true
	}
	return nil
}

func validateEdge(e Edge, nodes, edges map[string]bool) error {
	if e.ID == "" {
		return ErrInvalidEdgeID
	}
	if edges[e.ID] {
		return fmt.Errorf("%w: %s", ErrDuplicateEdgeID, e.ID)
	}
	if !nodes[e.Source] {
		return fmt.Errorf("edge %s: %w: %s", e.ID, ErrUnknownSourceNode, e.Source)
	}
	if !nodes[e.Target] {
		return fmt.Errorf("edge %s: %w: %s", e.ID, ErrUnknownTargetNode, e.Target)
	}
	return nil
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
