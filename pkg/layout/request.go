package layout

import (
	"encoding/json"
	"math"

	"github.com/matzehuels/axonote/pkg/graph"
)

// Box is one node of a layout request.
type Box struct {
	ID     string  `json:"id"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Link is one edge of a layout request.
type Link struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Request is the engine-neutral input of a layout run.
type Request struct {
	Nodes []Box  `json:"nodes"`
	Edges []Link `json:"edges"`
}

// Result maps node ids to the top-left corner of their box.
type Result map[string]graph.Position

// NewRequest builds a request from the full node and edge collections.
// Hidden elements are included. Edges whose endpoints are not among nodes
// are left out.
func NewRequest(nodes []graph.Node, edges []graph.Edge, opts Options) Request {
	req := Request{Nodes: make([]Box, 0, len(nodes))}
	known := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		s := opts.SizeOf(n)
		req.Nodes = append(req.Nodes, Box{ID: n.ID, Width: s.Width, Height: s.Height})
		known[n.ID] = true
	}
	for _, e := range edges {
		if known[e.Source] && known[e.Target] {
			req.Edges = append(req.Edges, Link{Source: e.Source, Target: e.Target})
		}
	}
	return req
}

// Key returns a stable encoding of the request for cache keys.
func (r Request) Key() []byte {
	data, _ := json.Marshal(r)
	return data
}

// finite reports whether every position in r is a finite number.
func (r Result) finite() bool {
	for _, p := range r {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
			return false
		}
	}
	return true
}
