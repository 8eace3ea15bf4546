package editor

import "github.com/matzehuels/axonote/pkg/graph"

// Placement of nodes created with AddNode relative to their anchor.
const (
	ChildOffsetX = 350
	ChildOffsetY = 150
)

// Default content of nodes created with AddNode.
const (
	DefaultTextTitle = "New Paragraph"
	DefaultText      = "<p>This is a text block. You can use <strong>HTML</strong> tags like <em>emphasis</em>.</p>"
	DefaultImageURL  = "https://placehold.co/300x200?text=Axonote"
	DefaultImageName = "New Image"
	DefaultFormula   = `c = \pm\sqrt{a^2 + b^2}`
	DefaultListTitle = "New List"
	FallbackTitle    = "New Idea"
	FallbackText     = "Free style"
)

// defaultImageWidth is the declared width of new image nodes.
const defaultImageWidth = 300

// DefaultBibliography is the entry a new bibliography node starts with.
var DefaultBibliography = graph.BibliographyData{
	Key:    "einstein1905",
	Author: "Einstein, A.",
	Title:  "On the Electrodynamics of Moving Bodies",
	Year:   "1905",
	DOI:    "10.1002/andp.19053221004",
}

// newNode returns a node of kind t with its default content. Kinds outside
// the known set produce a free-style text node.
func newNode(id string, t graph.NodeType, pos graph.Position) graph.Node {
	n := graph.Node{ID: id, Position: pos}
	switch t {
	case graph.TypeText:
		n.Data = graph.TextData{Title: DefaultTextTitle, Text: DefaultText}
	case graph.TypeImage:
		n.Data = graph.ImageData{Title: DefaultImageName, URL: DefaultImageURL}
		n.Size = &graph.Size{Width: defaultImageWidth}
	case graph.TypeFormula:
		n.Data = graph.FormulaData{Formula: DefaultFormula}
	case graph.TypeBibliography:
		n.Data = DefaultBibliography
	case graph.TypeList:
		n.Data = graph.ListData{Title: DefaultListTitle, Items: []graph.ListItem{}}
	default:
		n.Data = graph.TextData{Title: FallbackTitle, Text: FallbackText}
	}
	n.Type = n.Data.Type()
	return n
}
