package layout

import (
	"fmt"
	"strings"

	"github.com/matzehuels/axonote/pkg/graph"
)

// Direction is the flow direction of the layers.
type Direction string

// Supported directions.
const (
	DirectionRight Direction = "RIGHT"
	DirectionLeft  Direction = "LEFT"
	DirectionDown  Direction = "DOWN"
	DirectionUp    Direction = "UP"
)

// Layout defaults.
const (
	DefaultLayerSpacing = 100
	DefaultNodeSpacing  = 80
	DefaultWidth        = 300
	DefaultHeight       = 150
)

// Options tune a layout run.
type Options struct {
	// Direction in which edges point from one layer to the next.
	Direction Direction
	// LayerSpacing is the gap between adjacent layers in pixels.
	LayerSpacing float64
	// NodeSpacing is the gap between nodes of the same layer in pixels.
	NodeSpacing float64
	// DefaultSize is used for text, list and bibliography nodes that carry
	// no size of their own.
	DefaultSize graph.Size
}

// DefaultOptions returns left-to-right layering with 100px between layers,
// 80px between nodes and 300×150 boxes.
func DefaultOptions() Options {
	return Options{
		Direction:    DirectionRight,
		LayerSpacing: DefaultLayerSpacing,
		NodeSpacing:  DefaultNodeSpacing,
		DefaultSize:  graph.Size{Width: DefaultWidth, Height: DefaultHeight},
	}
}

// ParseDirection accepts the direction names case-insensitively.
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToUpper(strings.TrimSpace(s))); d {
	case DirectionRight, DirectionLeft, DirectionDown, DirectionUp:
		return d, nil
	}
	return "", fmt.Errorf("unknown layout direction %q", s)
}

// Validate reports the first invalid option.
func (o Options) Validate() error {
	if _, err := ParseDirection(string(o.Direction)); err != nil {
		return err
	}
	if o.LayerSpacing <= 0 {
		return fmt.Errorf("layer spacing must be positive, got %v", o.LayerSpacing)
	}
	if o.NodeSpacing <= 0 {
		return fmt.Errorf("node spacing must be positive, got %v", o.NodeSpacing)
	}
	if o.DefaultSize.Width <= 0 || o.DefaultSize.Height <= 0 {
		return fmt.Errorf("default size must be positive, got %vx%v", o.DefaultSize.Width, o.DefaultSize.Height)
	}
	return nil
}

// DefaultSize returns the box size assumed for a node of type t that has no
// size of its own.
func DefaultSize(t graph.NodeType) graph.Size {
	switch t {
	case graph.TypeImage:
		return graph.Size{Width: 300, Height: 200}
	case graph.TypeFormula:
		return graph.Size{Width: 300, Height: 100}
	}
	return graph.Size{Width: DefaultWidth, Height: DefaultHeight}
}

// SizeOf returns the node's declared size, filling missing or non-positive
// dimensions from the type default. Types without a specific default use
// o.DefaultSize.
func (o Options) SizeOf(n graph.Node) graph.Size {
	def := o.DefaultSize
	if n.Type == graph.TypeImage || n.Type == graph.TypeFormula {
		def = DefaultSize(n.Type)
	}
	if def.Width <= 0 || def.Height <= 0 {
		def = DefaultSize(n.Type)
	}
	if n.Size == nil {
		return def
	}
	s := *n.Size
	if s.Width <= 0 {
		s.Width = def.Width
	}
	if s.Height <= 0 {
		s.Height = def.Height
	}
	return s
}
