package graph

import (
	"strconv"
	"strings"
)

// DefaultIDPrefix is the prefix of generated node ids ("node_1", "node_2", ...).
const DefaultIDPrefix = "node_"

// IDGenerator hands out node ids from an incrementing counter. Each Graph
// owns its own generator; ids are unique for the lifetime of that graph.
type IDGenerator struct {
	prefix string
	next   int
}

// NewIDGenerator creates a generator whose first id is prefix + "1".
func NewIDGenerator(prefix string) *IDGenerator {
	return &IDGenerator{prefix: prefix, next: 1}
}

// Next returns the next id and advances the counter.
func (g *IDGenerator) Next() string {
	id := g.prefix + strconv.Itoa(g.next)
	g.next++
	return id
}

// Reset restarts the counter at 1.
func (g *IDGenerator) Reset() { g.next = 1 }

// Observe advances the counter past id if id looks like one of ours, so an
// externally supplied "node_7" is never handed out again.
func (g *IDGenerator) Observe(id string) {
	rest, ok := strings.CutPrefix(id, g.prefix)
	if !ok {
		return
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < g.next {
		return
	}
	g.next = n + 1
}
