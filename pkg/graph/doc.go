// Package graph is the canonical node/edge model of an axonote mind map.
//
// A [Graph] owns two ordered collections, nodes and edges, together with an
// [IDGenerator] that hands out node ids for the lifetime of the graph. There
// is no package-level state: two graphs never share an id sequence.
//
// # Node payloads
//
// Every [Node] carries a typed [Payload]. The payload is a closed sum over the
// five node kinds:
//
//	TextData          {title, text}          rich-markup paragraph
//	FormulaData       {formula}              LaTeX source
//	ListData          {title, listItems}     ordered list of ListItem
//	ImageData         {title, url}
//	BibliographyData  {key, author, title, year, doi}
//
// Code that needs to handle every kind switches on the concrete type and
// treats anything else as [ErrUnknownNodeType].
//
// # Mutation
//
// All mutations are copy-on-write. Applying a change list, replacing the
// collections or toggling visibility builds new slices; values previously
// returned by [Graph.Nodes] or [Graph.Edges] are never modified. Changes are
// expressed the way a canvas library reports them:
//
//	g.ApplyNodeChanges([]graph.NodeChange{
//	    {Kind: graph.ChangePosition, ID: "node_1", Position: &graph.Position{X: 10, Y: 20}},
//	    {Kind: graph.ChangeSelect, ID: "node_1", Selected: true},
//	})
//
// Removing a node also removes every edge that references it, so the model
// never holds a dangling edge.
//
// # Concurrency
//
// Graph is not safe for concurrent use. The editor package serializes access.
package graph
