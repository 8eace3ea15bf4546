// Package pkg holds the libraries behind axonote, a mind-map editor.
//
// # Overview
//
// A mind map is a directed graph of content nodes (text, formulas, lists,
// images and bibliography entries). The packages split the editor into
// layers that can be used on their own:
//
//  1. [graph] - nodes, edges, typed payloads and generic change lists
//  2. [visibility] - folding and expanding subtrees
//  3. [layout] - layered layout through Graphviz, with result caching
//  4. [document] - the portable JSON document format
//  5. [editor] - the command surface that ties the above together
//
// Supporting packages provide structural analysis ([analysis]), layout
// caches ([cache]), HTTP sessions ([session], [server]), configuration
// ([config]), coded errors ([errors]) and instrumentation hooks
// ([observability]).
//
// # Architecture
//
// The typical data flow:
//
//	document JSON
//	     ↓
//	[document] package (decode, map node types)
//	     ↓
//	[editor] package (select, add, fold, connect, ...)
//	     ↓
//	[layout] package (Graphviz positions, cached)
//	     ↓
//	[document] package (export) or [server] event stream
//
// # Quick Start
//
//	ed := editor.New()
//	if err := ed.LoadFromJSON(data); err != nil {
//	    return err
//	}
//	ed.Select("root")
//	ed.AddNode(graph.TypeFormula)
//	if err := ed.ApplyLayout(ctx); err != nil {
//	    return err
//	}
//	doc, _ := ed.Export()
package pkg
