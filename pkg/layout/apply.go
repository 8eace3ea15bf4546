package layout

import (
	"context"
	"fmt"
	"time"

	errs "github.com/matzehuels/axonote/pkg/errors"
	"github.com/matzehuels/axonote/pkg/graph"
	"github.com/matzehuels/axonote/pkg/observability"
)

// Compute lays out the given collections without touching any graph. The
// returned result only contains ids present in nodes. Failures are wrapped
// with [errs.ErrCodeLayoutFailed].
func Compute(ctx context.Context, engine Engine, nodes []graph.Node, edges []graph.Edge, opts Options) (Result, error) {
	req := NewRequest(nodes, edges, opts)

	start := time.Now()
	observability.Layout().OnLayoutStart(ctx, engine.Name(), len(req.Nodes))
	res, err := engine.Layout(ctx, req, opts)
	if err == nil && !res.finite() {
		err = fmt.Errorf("engine returned a non-finite position")
	}
	if err == nil {
		err = ctx.Err()
	}
	observability.Layout().OnLayoutComplete(ctx, engine.Name(), len(res), time.Since(start), err)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeLayoutFailed, err, "layout failed")
	}

	known := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		known[n.ID] = true
	}
	out := make(Result, len(res))
	for id, p := range res {
		if known[id] {
			out[id] = p
		}
	}
	return out, nil
}

// Apply lays out g and writes the positions back. It returns the number of
// nodes moved. On error g is left unchanged.
func Apply(ctx context.Context, g *graph.Graph, engine Engine, opts Options) (int, error) {
	res, err := Compute(ctx, engine, g.Nodes(), g.Edges(), opts)
	if err != nil {
		return 0, err
	}
	return g.SetPositions(res), nil
}
