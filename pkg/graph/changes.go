package graph

import (
	"fmt"
	"slices"
)

// ChangeKind names a generic change reported by the rendering surface.
type ChangeKind string

// Supported change kinds.
const (
	ChangeAdd        ChangeKind = "add"
	ChangeRemove     ChangeKind = "remove"
	ChangePosition   ChangeKind = "position"
	ChangeSelect     ChangeKind = "select"
	ChangeDimensions ChangeKind = "dimensions"
)

// NodeChange describes one change to the node collection. Which fields are
// read depends on Kind: Item for add, Position for position, Size for
// dimensions and Selected for select.
type NodeChange struct {
	Kind     ChangeKind `json:"type"`
	ID       string     `json:"id,omitempty"`
	Item     *Node      `json:"item,omitempty"`
	Position *Position  `json:"position,omitempty"`
	Size     *Size      `json:"dimensions,omitempty"`
	Selected bool       `json:"selected,omitempty"`
}

// EdgeChange describes one change to the edge collection. Only add and
// remove alter the model; select is accepted and ignored since edges carry
// no selection state.
type EdgeChange struct {
	Kind     ChangeKind `json:"type"`
	ID       string     `json:"id,omitempty"`
	Item     *Edge      `json:"item,omitempty"`
	Selected bool       `json:"selected,omitempty"`
}

// ApplyNodeChanges applies changes in order and installs the result only if
// every change is valid. Changes that reference an unknown id are skipped.
//
// Removing a node removes its incident edges. Selecting a node, or adding
// one that is already selected, deselects all others.
func (g *Graph) ApplyNodeChanges(changes []NodeChange) error {
	nodes := slices.Clone(g.nodes)
	removed := map[string]bool{}
	var added []string

	index := func(id string) int {
		return slices.IndexFunc(nodes, func(n Node) bool { return n.ID == id })
	}

	for _, c := range changes {
		switch c.Kind {
		case ChangeAdd:
			if c.Item == nil {
				return fmt.Errorf("add change: %w", ErrInvalidNodeID)
			}
			n, err := normalizeNode(*c.Item)
			if err != nil {
				return err
			}
			if index(n.ID) >= 0 {
				return fmt.Errorf("%w: %s", ErrDuplicateNodeID, n.ID)
			}
			if n.Selected {
				for j := range nodes {
					nodes[j].Selected = false
				}
			}
			nodes = append(nodes, n)
			added = append(added, n.ID)
		case ChangeRemove:
			if i := index(c.ID); i >= 0 {
				nodes = slices.Delete(nodes, i, i+1)
				removed[c.ID] = true
			}
		case ChangePosition:
			if i := index(c.ID); i >= 0 && c.Position != nil {
				nodes[i].Position = *c.Position
			}
		case ChangeDimensions:
			if i := index(c.ID); i >= 0 && c.Size != nil {
				s := *c.Size
				nodes[i].Size = &s
			}
		case ChangeSelect:
			i := index(c.ID)
			if i < 0 {
				continue
			}
			if !c.Selected {
				nodes[i].Selected = false
				continue
			}
			for j := range nodes {
				nodes[j].Selected = j == i
			}
		default:
			return fmt.Errorf("%w: %q", ErrUnknownChange, c.Kind)
		}
	}

	edges := g.edges
	if len(removed) > 0 {
		edges = slices.DeleteFunc(slices.Clone(g.edges), func(e Edge) bool {
			return removed[e.Source] || removed[e.Target]
		})
	}

	g.nodes = nodes
	g.edges = edges
	for _, id := range added {
		g.ids.Observe(id)
	}
	return nil
}

// ApplyChanges applies node changes and then edge changes as one unit, so
// added edges may reference nodes added in the same call. If either list is
// invalid the graph is left unchanged.
func (g *Graph) ApplyChanges(nodeChanges []NodeChange, edgeChanges []EdgeChange) error {
	nodes, edges, next := g.nodes, g.edges, g.ids.next
	if err := g.ApplyNodeChanges(nodeChanges); err != nil {
		return err
	}
	if err := g.ApplyEdgeChanges(edgeChanges); err != nil {
		g.nodes, g.edges, g.ids.next = nodes, edges, next
		return err
	}
	return nil
}

// ApplyEdgeChanges applies edge additions and removals. Added edges must have
// a unique id and reference existing nodes; the collection is left unchanged
// if any addition is invalid.
func (g *Graph) ApplyEdgeChanges(changes []EdgeChange) error {
	nodeIDs := make(map[string]bool, len(g.nodes))
	for _, n := range g.nodes {
		nodeIDs[n.ID] = true
	}
	edges := slices.Clone(g.edges)

	for _, c := range changes {
		switch c.Kind {
		case ChangeAdd:
			if c.Item == nil {
				return fmt.Errorf("add change: %w", ErrInvalidEdgeID)
			}
			existing := make(map[string]bool, len(edges))
			for _, e := range edges {
				existing[e.ID] = true
			}
			if err := validateEdge(*c.Item, nodeIDs, existing); err != nil {
				return err
			}
			edges = append(edges, *c.Item)
		case ChangeRemove:
			edges = slices.DeleteFunc(edges, func(e Edge) bool { return e.ID == c.ID })
		case ChangeSelect:
		default:
			return fmt.Errorf("%w: %q", ErrUnknownChange, c.Kind)
		}
	}

	g.edges = edges
	return nil
}
