package document

import (
	"bytes"
	"encoding/json"
	"fmt"

	errs "github.com/matzehuels/axonote/pkg/errors"
	"github.com/matzehuels/axonote/pkg/graph"
)

// UntitledText is the title of imported text nodes that have none.
const UntitledText = "Untitled Text"

// imageWidth is the declared width of imported image nodes.
const imageWidth = 300

// ToGraph converts doc into graph nodes and edges. Both collections are
// validated together: duplicate or empty node ids and edges referencing
// unknown nodes yield an [errs.ErrCodeInvalidDocument] error.
func ToGraph(doc Document) ([]graph.Node, []graph.Edge, error) {
	nodes := make([]graph.Node, 0, len(doc.Nodes))
	for _, n := range doc.Nodes {
		nodes = append(nodes, toNode(n))
	}

	edges := make([]graph.Edge, 0, len(doc.Edges))
	for i, e := range doc.Edges {
		edges = append(edges, graph.Edge{
			ID:     fmt.Sprintf("e-%s-%s-%d", e.SourceID, e.TargetID, i),
			Source: e.SourceID,
			Target: e.TargetID,
			Label:  e.Label,
		})
	}

	if err := graph.New().Replace(nodes, edges); err != nil {
		return nil, nil, errs.Wrap(errs.ErrCodeInvalidDocument, err, "invalid graph")
	}
	return nodes, edges, nil
}

func toNode(n Node) graph.Node {
	base := graph.Node{ID: n.ID}
	if n.Position != nil {
		base.Position = *n.Position
	}

	switch n.Raw.Type {
	case RawBibliography:
		var b bibliographyEntry
		if decodeStrict(n.Raw.Data, &b) {
			return withPayload(base, graph.BibliographyData{
				Key:    b.Key,
				Author: b.Author,
				Title:  b.Title,
				Year:   string(b.Year),
				DOI:    b.DOI,
			})
		}
	case RawImage:
		var img graph.ImageData
		if decodeStrict(n.Raw.Data, &img) {
			base.Size = &graph.Size{Width: imageWidth}
			return withPayload(base, img)
		}
	case RawText:
		if text, ok := textBody(n.Raw.Data); ok {
			title := n.Title
			if title == "" {
				title = UntitledText
			}
			return withPayload(base, graph.TextData{Title: title, Text: text})
		}
	case RawList:
		if items, ok := listItems(n.Raw.Data); ok {
			return withPayload(base, graph.ListData{Title: titleOr(n), Items: items})
		}
	case RawFormula:
		var f string
		if isNull(n.Raw.Data) || json.Unmarshal(n.Raw.Data, &f) == nil {
			return withPayload(base, graph.FormulaData{Formula: f})
		}
	}
	return withPayload(base, graph.TextData{Title: titleOr(n), Text: fallbackBody(n.Raw)})
}

func withPayload(n graph.Node, p graph.Payload) graph.Node {
	n.Type = p.Type()
	n.Data = p
	return n
}

func titleOr(n Node) string {
	if n.Title != "" {
		return n.Title
	}
	return n.ID
}

// fallbackBody returns data itself when it is a JSON string, otherwise
// "Type: <type>" followed by a blank line and the data indented by two
// spaces with its key order preserved.
func fallbackBody(raw Raw) string {
	var s string
	if json.Unmarshal(raw.Data, &s) == nil {
		return s
	}
	data := bytes.TrimSpace(raw.Data)
	if len(data) == 0 {
		data = []byte("null")
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		buf.Reset()
		buf.Write(data)
	}
	return fmt.Sprintf("Type: %s\n\n%s", raw.Type, buf.String())
}

// textBody accepts {"text": ...} as written by the editor and a bare string
// as written by the markdown compiler.
func textBody(data json.RawMessage) (string, bool) {
	if isNull(data) {
		return "", true
	}
	var s string
	if json.Unmarshal(data, &s) == nil {
		return s, true
	}
	var obj struct {
		Text string `json:"text"`
	}
	if json.Unmarshal(data, &obj) == nil {
		return obj.Text, true
	}
	return "", false
}

// listItems decodes a list payload. Items are either flat
// {"type", "data"|"url"|"title"} records or the nested {"type", "data": {...}}
// form; non-string data of unknown item types is kept as compact JSON.
func listItems(data json.RawMessage) ([]graph.ListItem, bool) {
	if isNull(data) {
		return []graph.ListItem{}, true
	}
	var raws []struct {
		Type  string          `json:"type"`
		Data  json.RawMessage `json:"data"`
		URL   string          `json:"url"`
		Title string          `json:"title"`
	}
	if json.Unmarshal(data, &raws) != nil {
		return nil, false
	}

	items := make([]graph.ListItem, 0, len(raws))
	for _, r := range raws {
		item := graph.ListItem{Type: graph.ListItemType(r.Type), URL: r.URL, Title: r.Title}
		if !isNull(r.Data) {
			var s string
			var link struct {
				URL   string `json:"url"`
				Title string `json:"title"`
			}
			switch {
			case json.Unmarshal(r.Data, &s) == nil:
				item.Data = s
			case (item.Type == graph.ItemLink || item.Type == graph.ItemImage) && json.Unmarshal(r.Data, &link) == nil:
				item.URL, item.Title = link.URL, link.Title
			default:
				var buf bytes.Buffer
				if json.Compact(&buf, r.Data) == nil {
					item.Data = buf.String()
				}
			}
		}
		items = append(items, item)
	}
	return items, true
}

// bibliographyEntry is the import shape of a bibliography payload. Hand
// written documents often give the year as a number.
type bibliographyEntry struct {
	Key    string     `json:"key"`
	Author string     `json:"author"`
	Title  string     `json:"title"`
	Year   flexString `json:"year"`
	DOI    string     `json:"doi"`
}

// flexString decodes from a JSON string or number.
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = flexString(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return err
	}
	*s = flexString(num.String())
	return nil
}

// decodeStrict decodes an object payload and reports whether data had the
// expected shape.
func decodeStrict(data json.RawMessage, v any) bool {
	if isNull(data) {
		return false
	}
	d := bytes.TrimSpace(data)
	if len(d) == 0 || d[0] != '{' {
		return false
	}
	return json.Unmarshal(d, v) == nil
}

func isNull(data json.RawMessage) bool {
	d := bytes.TrimSpace(data)
	return len(d) == 0 || bytes.Equal(d, []byte("null"))
}
