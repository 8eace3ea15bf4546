package editor

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"
)

// EventType names a change notification.
type EventType string

// Event types published by an Editor.
const (
	EventGraphReplaced    EventType = "graph_replaced"
	EventNodesChanged     EventType = "nodes_changed"
	EventEdgesChanged     EventType = "edges_changed"
	EventSelectionChanged EventType = "selection_changed"
	EventLayoutApplied    EventType = "layout_applied"
	EventFitView          EventType = "fit_view"
)

// Event tells observers that the model changed. Version increases by one for
// every event an editor publishes.
type Event struct {
	Type    EventType `json:"type"`
	Version uint64    `json:"version"`
	Data    any       `json:"data,omitempty"`
}

// Event payloads.
type (
	// GraphReplaced follows a successful import.
	GraphReplaced struct {
		Nodes int `json:"nodes"`
		Edges int `json:"edges"`
	}

	// ElementsChanged lists the ids of nodes or edges that were added,
	// removed or modified.
	ElementsChanged struct {
		IDs []string `json:"ids"`
	}

	// SelectionChanged carries the selected node id, or "" when nothing is
	// selected.
	SelectionChanged struct {
		NodeID string `json:"node_id"`
	}

	// LayoutApplied reports how many nodes were moved by a layout run.
	LayoutApplied struct {
		Moved int `json:"moved"`
	}

	// FitView asks the rendering surface to fit the viewport to the graph.
	FitView struct {
		Padding    float64 `json:"padding"`
		DurationMS int     `json:"duration_ms"`
	}
)

// subscriberBuffer is the channel capacity of each subscription. Events for
// a subscriber whose buffer is full are dropped.
const subscriberBuffer = 64

// hub fans events out to subscribers without blocking the publisher.
type hub struct {
	mu      sync.Mutex
	subs    map[chan Event]struct{}
	version uint64
	closed  bool
	done    chan struct{}
	logger  *log.Logger
}

func newHub(logger *log.Logger) *hub {
	return &hub{subs: make(map[chan Event]struct{}), done: make(chan struct{}), logger: logger}
}

func (h *hub) subscribe(ctx context.Context) <-chan Event {
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch
	}
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			h.unsubscribe(ch)
		case <-h.done:
		}
	}()
	return ch
}

func (h *hub) unsubscribe(ch chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[ch]; ok {
		delete(h.subs, ch)
		close(ch)
	}
}

func (h *hub) publish(t EventType, data any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.version++
	ev := Event{Type: t, Version: h.version, Data: data}
	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
			h.logger.Warn("subscriber too slow, dropping event", "type", t, "version", ev.Version)
		}
	}
}

func (h *hub) currentVersion() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.version
}

func (h *hub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	close(h.done)
	for ch := range h.subs {
		close(ch)
	}
	h.subs = nil
}
