// Package layout assigns canvas coordinates to the nodes of a mind map by
// handing the graph to a layered ("hierarchical") layout engine.
//
// The package does not implement a layering algorithm itself. An [Engine]
// receives a [Request] (one box per node, one link per edge) and returns a
// [Result] with the top-left corner of every box. [GraphvizEngine] is the
// production engine; it drives the dot layout of Graphviz through
// github.com/goccy/go-graphviz. [CachedEngine] memoizes any engine in a
// [cache.Cache].
//
// # Contract
//
// Every node in the graph takes part in the request, hidden or not. Positions
// are written back by id: nodes missing from the result keep their previous
// position. A failing engine leaves every position untouched; [Apply] never
// writes a partial result.
//
// # Coordinates
//
// Result positions use the canvas convention: the origin is the top-left
// corner of the drawing, y grows downward and a position names the top-left
// corner of the node's box.
package layout
