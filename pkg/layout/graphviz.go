package layout

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"
)

// pointsPerInch converts Graphviz inch attributes to the point (pixel)
// coordinates it reports positions in.
const pointsPerInch = 72.0

// GraphvizEngine lays out requests with the Graphviz dot algorithm.
//
// Each call starts its own wasm Graphviz instance, so a GraphvizEngine is
// safe for concurrent use.
type GraphvizEngine struct{}

// NewGraphvizEngine returns a Graphviz-backed engine.
func NewGraphvizEngine() *GraphvizEngine { return &GraphvizEngine{} }

// Name identifies the engine in logs, hooks and cache keys.
func (*GraphvizEngine) Name() string { return "graphviz" }

// Layout runs dot on the request and converts the reported centers to
// top-left canvas coordinates.
func (e *GraphvizEngine) Layout(ctx context.Context, req Request, opts Options) (Result, error) {
	if len(req.Nodes) == 0 {
		return Result{}, nil
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(ToDOT(req, opts)))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.XDOT, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return parseLaidOut(buf.Bytes(), req)
}

// ToDOT converts a request to a DOT digraph. Nodes are named n0, n1, ... in
// request order so ids never need escaping; the box sizes are fixed.
func ToDOT(req Request, opts Options) string {
	index := make(map[string]int, len(req.Nodes))

	var buf strings.Builder
	buf.WriteString("digraph G {\n")
	fmt.Fprintf(&buf, "  rankdir=%s;\n", rankdir(opts.Direction))
	fmt.Fprintf(&buf, "  ranksep=%s;\n", inches(opts.LayerSpacing))
	fmt.Fprintf(&buf, "  nodesep=%s;\n", inches(opts.NodeSpacing))
	buf.WriteString("  node [shape=box, fixedsize=true, label=\"\"];\n")
	buf.WriteString("\n")

	for i, n := range req.Nodes {
		index[n.ID] = i
		fmt.Fprintf(&buf, "  n%d [width=%s, height=%s];\n", i, inches(n.Width), inches(n.Height))
	}

	buf.WriteString("\n")
	for _, l := range req.Edges {
		src, ok1 := index[l.Source]
		dst, ok2 := index[l.Target]
		if !ok1 || !ok2 {
			continue
		}
		fmt.Fprintf(&buf, "  n%d -> n%d;\n", src, dst)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func rankdir(d Direction) string {
	switch d {
	case DirectionLeft:
		return "RL"
	case DirectionDown:
		return "TB"
	case DirectionUp:
		return "BT"
	}
	return "LR"
}

func inches(px float64) string {
	return strconv.FormatFloat(px/pointsPerInch, 'f', 4, 64)
}

var (
	bbRe   = regexp.MustCompile(`bb="([-0-9.e+]+),([-0-9.e+]+),([-0-9.e+]+),([-0-9.e+]+)"`)
	nodeRe = regexp.MustCompile(`(?m)^\s*n(\d+)\s*\[([^\]]*)\]`)
	posRe  = regexp.MustCompile(`\bpos="([-0-9.e+]+),([-0-9.e+]+)!?"`)
)

// parseLaidOut reads the bounding box and node centers from dot output.
// Graphviz reports centers with y growing upward; they are flipped against
// the top of the bounding box and shifted by half the box size.
func parseLaidOut(out []byte, req Request) (Result, error) {
	text := strings.ReplaceAll(string(out), "\\\n", "")

	bb := bbRe.FindStringSubmatch(text)
	if bb == nil {
		return nil, fmt.Errorf("graphviz output has no bounding box")
	}
	top, err := strconv.ParseFloat(bb[4], 64)
	if err != nil {
		return nil, fmt.Errorf("parse bounding box: %w", err)
	}

	res := make(Result, len(req.Nodes))
	for _, m := range nodeRe.FindAllStringSubmatch(text, -1) {
		i, err := strconv.Atoi(m[1])
		if err != nil || i < 0 || i >= len(req.Nodes) {
			continue
		}
		pos := posRe.FindStringSubmatch(m[2])
		if pos == nil {
			continue
		}
		cx, err := strconv.ParseFloat(pos[1], 64)
		if err != nil {
			return nil, fmt.Errorf("parse position of %s: %w", req.Nodes[i].ID, err)
		}
		cy, err := strconv.ParseFloat(pos[2], 64)
		if err != nil {
			return nil, fmt.Errorf("parse position of %s: %w", req.Nodes[i].ID, err)
		}
		box := req.Nodes[i]
		res[box.ID] = positionOf(cx, top-cy, box)
	}

	if len(res) != len(req.Nodes) {
		return nil, fmt.Errorf("graphviz placed %d of %d nodes", len(res), len(req.Nodes))
	}
	return res, nil
}
