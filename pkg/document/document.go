package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	errs "github.com/matzehuels/axonote/pkg/errors"
	"github.com/matzehuels/axonote/pkg/graph"
)

// Raw type names.
const (
	RawText         = "Text"
	RawFormula      = "Formula"
	RawImage        = "Image"
	RawList         = "List"
	RawBibliography = "Bibliography"
)

// Document is the portable representation of a mind map.
type Document struct {
	Meta  *Meta  `json:"meta,omitempty"`
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Meta is optional descriptive information about the document.
type Meta struct {
	Title  string `json:"title,omitempty"`
	Author string `json:"author,omitempty"`
	Date   string `json:"date,omitempty"`
	CSS    string `json:"css,omitempty"`
}

// Node is a document node. Raw carries the typed content.
type Node struct {
	ID       string          `json:"id"`
	Title    string          `json:"title,omitempty"`
	Position *graph.Position `json:"position,omitempty"`
	Raw      Raw             `json:"raw"`
	Style    json.RawMessage `json:"style,omitempty"`
}

// Raw is the tagged content of a node.
type Raw struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Edge is a document edge.
type Edge struct {
	ID       json.RawMessage `json:"id,omitempty"`
	SourceID string          `json:"source_id"`
	TargetID string          `json:"target_id"`
	Label    string          `json:"label,omitempty"`
}

// Decode reads one document from r. Malformed JSON is reported as an
// [errs.ErrCodeInvalidDocument] error whose user message reads
// "Invalid JSON format: <decoder message>".
func Decode(r io.Reader) (Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return Document{}, errs.Wrap(errs.ErrCodeInvalidDocument, err, "Invalid JSON format")
	}
	return doc, nil
}

// Parse decodes a document from data.
func Parse(data []byte) (Document, error) {
	return Decode(bytes.NewReader(data))
}

// ReadFile decodes the document stored at path.
func ReadFile(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Decode(f)
}

// Encode writes doc to w as indented JSON.
func Encode(w io.Writer, doc Document) error {
	if doc.Nodes == nil {
		doc.Nodes = []Node{}
	}
	if doc.Edges == nil {
		doc.Edges = []Edge{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteFile encodes doc into the file at path.
func WriteFile(path string, doc Document) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Encode(f, doc); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
