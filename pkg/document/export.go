package document

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/matzehuels/axonote/pkg/graph"
)

// FromGraph converts graph collections into a document. Hidden and selected
// flags and edge ids are not part of the format and are dropped.
func FromGraph(nodes []graph.Node, edges []graph.Edge) (Document, error) {
	doc := Document{
		Nodes: make([]Node, 0, len(nodes)),
		Edges: make([]Edge, 0, len(edges)),
	}
	for _, n := range nodes {
		dn, err := fromNode(n)
		if err != nil {
			return Document{}, err
		}
		doc.Nodes = append(doc.Nodes, dn)
	}
	for _, e := range edges {
		doc.Edges = append(doc.Edges, Edge{SourceID: e.Source, TargetID: e.Target, Label: e.Label})
	}
	return doc, nil
}

func fromNode(n graph.Node) (Node, error) {
	pos := n.Position
	out := Node{ID: n.ID, Title: n.Title(), Position: &pos}

	var data any
	switch p := n.Data.(type) {
	case graph.TextData:
		out.Raw.Type = RawText
		data = map[string]string{"text": p.Text}
	case graph.FormulaData:
		out.Raw.Type = RawFormula
		data = p.Formula
	case graph.ListData:
		out.Raw.Type = RawList
		items := p.Items
		if items == nil {
			items = []graph.ListItem{}
		}
		data = items
	case graph.ImageData:
		out.Raw.Type = RawImage
		data = p
	case graph.BibliographyData:
		out.Raw.Type = RawBibliography
		data = p
	default:
		return Node{}, fmt.Errorf("node %s: %w: payload %T", n.ID, graph.ErrUnknownNodeType, n.Data)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(data); err != nil {
		return Node{}, fmt.Errorf("node %s: encode data: %w", n.ID, err)
	}
	out.Raw.Data = bytes.TrimRight(buf.Bytes(), "\n")
	return out, nil
}
