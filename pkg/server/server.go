// Package server exposes mind-map editors over HTTP.
//
// Each session owns one [editor.Editor]. Clients create a session, optionally
// seeding it with a document, then drive it through the command endpoints
// and follow its changes on a server-sent event stream:
//
//	POST   /api/v1/sessions                      create (body: optional document)
//	GET    /api/v1/sessions/{id}                 snapshot
//	DELETE /api/v1/sessions/{id}                 close
//	PUT    /api/v1/sessions/{id}/document        replace graph from document
//	GET    /api/v1/sessions/{id}/document        export document
//	GET    /api/v1/sessions/{id}/stats           structural statistics
//	POST   /api/v1/sessions/{id}/select          {"node_id": "..."}
//	POST   /api/v1/sessions/{id}/layout          run the layered layout
//	POST   /api/v1/sessions/{id}/fold            fold the selected node
//	POST   /api/v1/sessions/{id}/expand          expand the selected node
//	POST   /api/v1/sessions/{id}/nodes           {"type": "text"} add child of selection
//	PATCH  /api/v1/sessions/{id}/nodes/{nodeID}  partial payload
//	DELETE /api/v1/sessions/{id}/nodes/{nodeID}
//	POST   /api/v1/sessions/{id}/edges           {"source", "target", "label"}
//	DELETE /api/v1/sessions/{id}/edges/{edgeID}
//	POST   /api/v1/sessions/{id}/changes         {"nodes": [...], "edges": [...]}
//	GET    /api/v1/sessions/{id}/events          text/event-stream
//
// Commands whose precondition is unmet answer 200 with {"applied": false}.
// Errors answer {"error": {"code", "message"}} with a status derived from
// the error code.
package server

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/matzehuels/axonote/pkg/editor"
	"github.com/matzehuels/axonote/pkg/session"
)

// maxBodyBytes bounds request bodies, documents included.
const maxBodyBytes = 10 << 20

// Server routes HTTP requests to session editors.
type Server struct {
	store     session.Store
	newEditor func() *editor.Editor
	logger    *log.Logger
	origins   []string
	heartbeat time.Duration
	router    chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithEditorFactory sets the constructor for the editors of new sessions.
func WithEditorFactory(f func() *editor.Editor) Option {
	return func(s *Server) {
		if f != nil {
			s.newEditor = f
		}
	}
}

// WithAllowedOrigins enables CORS for the given origins.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) { s.origins = origins }
}

// WithHeartbeat sets the interval of keep-alive comments on event streams.
func WithHeartbeat(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.heartbeat = d
		}
	}
}

// New creates a server backed by store.
func New(store session.Store, opts ...Option) *Server {
	s := &Server{
		store:     store,
		newEditor: func() *editor.Editor { return editor.New() },
		logger:    log.New(io.Discard),
		heartbeat: 15 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(chimiddleware.Recoverer)
	if len(s.origins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.origins,
			AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}))
	}

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreateSession)

		r.Route("/{id}", func(r chi.Router) {
			r.Use(s.sessionCtx)

			r.Get("/", s.handleSnapshot)
			r.Delete("/", s.handleDeleteSession)
			r.Put("/document", s.handleLoadDocument)
			r.Get("/document", s.handleExportDocument)
			r.Get("/stats", s.handleStats)
			r.Post("/select", s.handleSelect)
			r.Post("/layout", s.handleLayout)
			r.Post("/fold", s.handleFold)
			r.Post("/expand", s.handleExpand)
			r.Post("/nodes", s.handleAddNode)
			r.Patch("/nodes/{nodeID}", s.handleUpdateNode)
			r.Delete("/nodes/{nodeID}", s.handleDeleteNode)
			r.Post("/edges", s.handleConnect)
			r.Delete("/edges/{edgeID}", s.handleDeleteEdge)
			r.Post("/changes", s.handleChanges)
			r.Get("/events", s.handleEvents)
		})
	})
	return r
}

// ListenAndServe serves on addr until ctx is done, then shuts down within
// shutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		// Event streams end with ctx, otherwise Shutdown would wait on them.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
