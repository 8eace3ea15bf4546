package graph

import (
	"encoding/json"
	"fmt"
)

// NodeType identifies the kind of content a node holds.
type NodeType string

// Node kinds.
const (
	TypeText         NodeType = "text"
	TypeFormula      NodeType = "formula"
	TypeList         NodeType = "list"
	TypeImage        NodeType = "image"
	TypeBibliography NodeType = "bibliography"
)

// AllNodeTypes lists every supported node kind in toolbar order.
var AllNodeTypes = []NodeType{TypeText, TypeImage, TypeBibliography, TypeFormula, TypeList}

// ParseNodeType returns the NodeType named by s, or ErrUnknownNodeType.
func ParseNodeType(s string) (NodeType, error) {
	switch t := NodeType(s); t {
	case TypeText, TypeFormula, TypeList, TypeImage, TypeBibliography:
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownNodeType, s)
}

// Payload is the typed content of a node. The set of implementations is
// closed; see TextData, FormulaData, ListData, ImageData and BibliographyData.
type Payload interface {
	Type() NodeType
	isPayload()
}

// TextData is a titled rich-markup paragraph.
type TextData struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

// FormulaData holds LaTeX source.
type FormulaData struct {
	Formula string `json:"formula"`
}

// ListData is a titled, ordered list of items.
type ListData struct {
	Title string     `json:"title"`
	Items []ListItem `json:"listItems"`
}

// ImageData references an image by URL.
type ImageData struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// BibliographyData is a single bibliography entry.
type BibliographyData struct {
	Key    string `json:"key"`
	Author string `json:"author,omitempty"`
	Title  string `json:"title,omitempty"`
	Year   string `json:"year,omitempty"`
	DOI    string `json:"doi,omitempty"`
}

func (TextData) Type() NodeType         { return TypeText }
func (FormulaData) Type() NodeType      { return TypeFormula }
func (ListData) Type() NodeType         { return TypeList }
func (ImageData) Type() NodeType        { return TypeImage }
func (BibliographyData) Type() NodeType { return TypeBibliography }

func (TextData) isPayload()         {}
func (FormulaData) isPayload()      {}
func (ListData) isPayload()         {}
func (ImageData) isPayload()        {}
func (BibliographyData) isPayload() {}

// ListItemType tags a ListItem.
type ListItemType string

// List item kinds understood by the renderers. Items with any other type are
// kept as-is.
const (
	ItemText    ListItemType = "Text"
	ItemFormula ListItemType = "Formula"
	ItemLink    ListItemType = "Link"
	ItemImage   ListItemType = "Image"
)

// ListItem is one entry of a list node. Text and Formula items use Data;
// Link and Image items use URL and Title.
type ListItem struct {
	Type  ListItemType `json:"type"`
	Data  string       `json:"data,omitempty"`
	URL   string       `json:"url,omitempty"`
	Title string       `json:"title,omitempty"`
}

// Position is a point on the canvas. Y grows downward.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is the declared or measured size of a node.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Node is a typed content unit positioned on the canvas.
type Node struct {
	ID       string
	Type     NodeType
	Position Position
	Size     *Size // nil means "use the default for Type"
	Data     Payload
	Hidden   bool
	Selected bool
}

// Title returns the display title carried by the payload, or "" for kinds
// without one.
func (n Node) Title() string {
	switch d := n.Data.(type) {
	case TextData:
		return d.Title
	case ListData:
		return d.Title
	case ImageData:
		return d.Title
	case BibliographyData:
		return d.Title
	}
	return ""
}

type nodeJSON struct {
	ID       string          `json:"id"`
	Type     NodeType        `json:"type"`
	Position Position        `json:"position"`
	Size     *Size           `json:"size,omitempty"`
	Data     json.RawMessage `json:"data"`
	Hidden   bool            `json:"hidden,omitempty"`
	Selected bool            `json:"selected,omitempty"`
}

// MarshalJSON encodes the node with its payload under "data".
func (n Node) MarshalJSON() ([]byte, error) {
	data := []byte("null")
	if n.Data != nil {
		var err error
		if data, err = json.Marshal(n.Data); err != nil {
			return nil, fmt.Errorf("encode %s data: %w", n.ID, err)
		}
	}
	return json.Marshal(nodeJSON{
		ID:       n.ID,
		Type:     n.Type,
		Position: n.Position,
		Size:     n.Size,
		Data:     data,
		Hidden:   n.Hidden,
		Selected: n.Selected,
	})
}

// UnmarshalJSON decodes "data" according to "type".
func (n *Node) UnmarshalJSON(b []byte) error {
	var raw nodeJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	t, err := ParseNodeType(string(raw.Type))
	if err != nil {
		return fmt.Errorf("node %s: %w", raw.ID, err)
	}
	p, err := DecodePayload(t, raw.Data)
	if err != nil {
		return fmt.Errorf("node %s: %w", raw.ID, err)
	}
	*n = Node{
		ID:       raw.ID,
		Type:     t,
		Position: raw.Position,
		Size:     raw.Size,
		Data:     p,
		Hidden:   raw.Hidden,
		Selected: raw.Selected,
	}
	return nil
}

// Edge is a directed, optionally labeled relation between two nodes.
type Edge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label,omitempty"`
	Hidden bool   `json:"hidden,omitempty"`
}

// Patch is a partial payload keyed by JSON field name, e.g.
// Patch{"text": "<p>new</p>"} for a text node.
type Patch map[string]any
