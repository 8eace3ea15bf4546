package cli

import (
	"context"
	"io"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a logger with "HH:MM:SS.ms" timestamps writing to w at
// the given level.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress logs the elapsed time of an operation.
// Not safe for concurrent use.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with the elapsed time, e.g. "Laid out 42 nodes (1.234s)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

type ctxKey int

const loggerKey ctxKey = 0

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext returns the logger attached by withLogger, or
// log.Default() when there is none.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}

// =============================================================================
// Observability Hooks
// =============================================================================

// logHooks reports layout, cache and editor events as debug logs and counts
// cache hits for the command summaries.
type logHooks struct {
	logger *log.Logger
	hits   atomic.Int64
}

func newLogHooks(l *log.Logger) *logHooks {
	return &logHooks{logger: l}
}

func (h *logHooks) OnLayoutStart(_ context.Context, engine string, nodes int) {
	h.logger.Debug("layout started", "engine", engine, "nodes", nodes)
}

func (h *logHooks) OnLayoutComplete(_ context.Context, engine string, positioned int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("layout failed", "engine", engine, "duration", d.Round(time.Millisecond), "err", err)
		return
	}
	h.logger.Debug("layout finished", "engine", engine, "positioned", positioned, "duration", d.Round(time.Millisecond))
}

func (h *logHooks) OnCacheHit(_ context.Context, kind string) {
	h.hits.Add(1)
	h.logger.Debug("cache hit", "kind", kind)
}

func (h *logHooks) OnCacheMiss(_ context.Context, kind string) {
	h.logger.Debug("cache miss", "kind", kind)
}

func (h *logHooks) OnCacheSet(_ context.Context, kind string, size int) {
	h.logger.Debug("cache set", "kind", kind, "bytes", size)
}

func (h *logHooks) OnCommand(_ context.Context, command string, applied bool, err error) {
	if err != nil {
		h.logger.Debug("command failed", "command", command, "err", err)
		return
	}
	h.logger.Debug("command", "name", command, "applied", applied)
}

// cacheHits returns the number of cache hits seen so far.
func (h *logHooks) cacheHits() int64 { return h.hits.Load() }
