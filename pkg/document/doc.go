// Package document reads and writes the portable JSON form of a mind map.
//
// # JSON Format
//
//	{
//	  "meta":  {"title": "Relativity", "author": "..."},
//	  "nodes": [
//	    {"id": "intro", "title": "Intro", "position": {"x": 0, "y": 0},
//	     "raw": {"type": "Text", "data": {"text": "<p>Hello</p>"}}},
//	    {"id": "eq", "raw": {"type": "Formula", "data": "E = mc^2"}}
//	  ],
//	  "edges": [
//	    {"source_id": "intro", "target_id": "eq", "label": "derives"}
//	  ]
//	}
//
// "meta", node "style" and numeric edge "id" fields written by the markdown
// compiler are accepted and ignored.
//
// # Raw Types
//
// The "raw.type" discriminator selects the node kind:
//
//   - Text: data is {"text": ...} or a bare string
//   - Formula: data is the LaTeX source string
//   - Image: data is {"url", "title"}
//   - List: data is an array of {"type", "data"|"url"|"title"} items
//   - Bibliography: data is {"key", "author", "title", "year", "doi"}; year may be a string or a number
//
// Any other type, or a known type whose data does not have the expected
// shape, becomes a text node whose body is a dump of the raw type and data.
// Import never drops a node.
//
// Edge ids are not stored in the document; [ToGraph] derives them from the
// endpoints and the edge's position in the list.
package document
