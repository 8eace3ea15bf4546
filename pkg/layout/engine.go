package layout

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/axonote/pkg/cache"
	"github.com/matzehuels/axonote/pkg/graph"
	"github.com/matzehuels/axonote/pkg/observability"
)

// Engine computes node positions for a request.
type Engine interface {
	Name() string
	Layout(ctx context.Context, req Request, opts Options) (Result, error)
}

// EngineFunc adapts a function to the Engine interface under the name
// "func".
type EngineFunc func(ctx context.Context, req Request, opts Options) (Result, error)

// Name returns "func".
func (EngineFunc) Name() string { return "func" }

// Layout calls f.
func (f EngineFunc) Layout(ctx context.Context, req Request, opts Options) (Result, error) {
	return f(ctx, req, opts)
}

// CachedEngine serves repeated requests from a cache. Cache failures are
// logged and never fail the layout.
type CachedEngine struct {
	inner  Engine
	cache  cache.Cache
	keyer  cache.Keyer
	ttl    time.Duration
	logger *log.Logger
}

// NewCachedEngine wraps inner. A nil keyer selects the default key scheme
// and a nil logger discards cache warnings.
func NewCachedEngine(inner Engine, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *CachedEngine {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	return &CachedEngine{inner: inner, cache: c, keyer: keyer, ttl: cache.TTLLayout, logger: logger}
}

// SetTTL changes the lifetime of stored results. Zero stores them without
// expiry.
func (e *CachedEngine) SetTTL(ttl time.Duration) { e.ttl = ttl }

// Name returns the wrapped engine's name.
func (e *CachedEngine) Name() string { return e.inner.Name() }

// Layout returns the cached result for req if present, otherwise runs the
// wrapped engine and stores its result.
func (e *CachedEngine) Layout(ctx context.Context, req Request, opts Options) (Result, error) {
	key := e.keyer.LayoutKey(cache.Hash(req.Key()), cache.LayoutKeyOpts{
		Engine:       e.inner.Name(),
		Direction:    string(opts.Direction),
		LayerSpacing: opts.LayerSpacing,
		NodeSpacing:  opts.NodeSpacing,
	})

	if data, hit, err := e.cache.Get(ctx, key); err != nil {
		e.warn("layout cache read failed", "err", err)
	} else if hit {
		var res Result
		if err := json.Unmarshal(data, &res); err == nil {
			observability.Cache().OnCacheHit(ctx, "layout")
			return res, nil
		}
		_ = e.cache.Delete(ctx, key)
	}
	observability.Cache().OnCacheMiss(ctx, "layout")

	res, err := e.inner.Layout(ctx, req, opts)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(res); err == nil {
		if err := e.cache.Set(ctx, key, data, e.ttl); err != nil {
			e.warn("layout cache write failed", "err", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "layout", len(data))
		}
	}
	return res, nil
}

func (e *CachedEngine) warn(msg string, kv ...any) {
	if e.logger != nil {
		e.logger.Warn(msg, kv...)
	}
}

// positionOf converts a box center to its top-left corner.
func positionOf(cx, cy float64, b Box) graph.Position {
	return graph.Position{X: cx - b.Width/2, Y: cy - b.Height/2}
}
