package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
)

// DecodePayload decodes raw JSON into the payload variant for t.
// Empty input or JSON null yields the zero payload.
func DecodePayload(t NodeType, raw []byte) (Payload, error) {
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return ZeroPayload(t)
	}
	switch t {
	case TypeText:
		var p TextData
		if err := decodeInto(raw, &p); err != nil {
			return nil, err
		}
		return p, nil
	case TypeFormula:
		var p FormulaData
		if err := decodeInto(raw, &p); err != nil {
			return nil, err
		}
		return p, nil
	case TypeList:
		var p ListData
		if err := decodeInto(raw, &p); err != nil {
			return nil, err
		}
		return p, nil
	case TypeImage:
		var p ImageData
		if err := decodeInto(raw, &p); err != nil {
			return nil, err
		}
		return p, nil
	case TypeBibliography:
		var p BibliographyData
		if err := decodeInto(raw, &p); err != nil {
			return nil, err
		}
		return p, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownNodeType, t)
}

// ZeroPayload returns the empty payload for t.
func ZeroPayload(t NodeType) (Payload, error) {
	switch t {
	case TypeText:
		return TextData{}, nil
	case TypeFormula:
		return FormulaData{}, nil
	case TypeList:
		return ListData{}, nil
	case TypeImage:
		return ImageData{}, nil
	case TypeBibliography:
		return BibliographyData{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownNodeType, t)
}

func decodeInto(raw []byte, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}

// MergePayload shallow-merges patch into p and returns the result as a new
// payload of the same kind. Keys absent from patch keep their value; keys the
// payload does not know are ignored. p itself is not modified.
func MergePayload(p Payload, patch Patch) (Payload, error) {
	if p == nil {
		return nil, fmt.Errorf("merge into nil payload")
	}
	base, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	fields := map[string]any{}
	if err := json.Unmarshal(base, &fields); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	maps.Copy(fields, patch)
	merged, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encode patch: %w", err)
	}
	return DecodePayload(p.Type(), merged)
}

// clonePayload returns a copy of p that shares no mutable state with it.
func clonePayload(p Payload) Payload {
	if l, ok := p.(ListData); ok {
		l.Items = slices.Clone(l.Items)
		return l
	}
	return p
}
