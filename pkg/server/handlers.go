package server

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/axonote/pkg/buildinfo"
	"github.com/matzehuels/axonote/pkg/document"
	"github.com/matzehuels/axonote/pkg/editor"
	errs "github.com/matzehuels/axonote/pkg/errors"
	"github.com/matzehuels/axonote/pkg/graph"
)

// =============================================================================
// Request and response bodies
// =============================================================================

type sessionResponse struct {
	ID        string          `json:"id"`
	CreatedAt time.Time       `json:"created_at"`
	ExpiresAt time.Time       `json:"expires_at"`
	Snapshot  editor.Snapshot `json:"snapshot"`
}

type selectRequest struct {
	NodeID string `json:"node_id"`
}

type addNodeRequest struct {
	Type string `json:"type"`
}

type addNodeResponse struct {
	Applied bool        `json:"applied"`
	Node    *graph.Node `json:"node,omitempty"`
}

type connectRequest struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label,omitempty"`
}

type changesRequest struct {
	Nodes []graph.NodeChange `json:"nodes,omitempty"`
	Edges []graph.EdgeChange `json:"edges,omitempty"`
}

type healthResponse struct {
	Status string         `json:"status"`
	Build  buildinfo.Info `json:"build"`
}

// =============================================================================
// Sessions
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, healthResponse{Status: "ok", Build: buildinfo.Current()})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.respondError(w, r, errs.Wrap(errs.ErrCodeInvalidInput, err, "read body"))
		return
	}

	ed := s.newEditor()
	if len(bytes.TrimSpace(body)) > 0 {
		if err := ed.LoadFromJSON(body); err != nil {
			ed.Close()
			s.respondError(w, r, err)
			return
		}
	}

	sess, err := s.store.Create(r.Context(), ed)
	if err != nil {
		ed.Close()
		s.respondError(w, r, err)
		return
	}
	s.logger.Info("session created", "id", sess.ID, "nodes", len(ed.Snapshot().Nodes))
	respondJSON(w, http.StatusCreated, sessionResponse{
		ID:        sess.ID,
		CreatedAt: sess.CreatedAt,
		ExpiresAt: sess.ExpiresAt,
		Snapshot:  ed.Snapshot(),
	})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, sessionFrom(r).Editor.Snapshot())
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	if err := s.store.Delete(r.Context(), sess.ID); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.logger.Info("session closed", "id", sess.ID)
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Documents
// =============================================================================

func (s *Server) handleLoadDocument(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.respondError(w, r, errs.Wrap(errs.ErrCodeInvalidInput, err, "read body"))
		return
	}
	ed := sessionFrom(r).Editor
	if err := ed.LoadFromJSON(body); err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, ed.Snapshot())
}

func (s *Server) handleExportDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := sessionFrom(r).Editor.Export()
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := document.Encode(w, doc); err != nil {
		s.logger.Warn("write document", "err", err)
	}
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, sessionFrom(r).Editor.Stats())
}

// =============================================================================
// Commands
// =============================================================================

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	ed := sessionFrom(r).Editor
	if req.NodeID == "" {
		ed.ClearSelection()
		respondJSON(w, http.StatusOK, applied{Applied: true})
		return
	}
	respondJSON(w, http.StatusOK, applied{Applied: ed.Select(req.NodeID)})
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	if err := sessionFrom(r).Editor.ApplyLayout(r.Context()); err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, applied{Applied: true})
}

func (s *Server) handleFold(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, applied{Applied: sessionFrom(r).Editor.Fold()})
}

func (s *Server) handleExpand(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, applied{Applied: sessionFrom(r).Editor.Expand()})
}

func (s *Server) handleAddNode(w http.ResponseWriter, r *http.Request) {
	var req addNodeRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	node, ok := sessionFrom(r).Editor.AddNode(graph.NodeType(req.Type))
	if !ok {
		respondJSON(w, http.StatusOK, addNodeResponse{})
		return
	}
	respondJSON(w, http.StatusCreated, addNodeResponse{Applied: true, Node: &node})
}

func (s *Server) handleUpdateNode(w http.ResponseWriter, r *http.Request) {
	var patch graph.Patch
	if err := decodeBody(w, r, &patch); err != nil {
		s.respondError(w, r, err)
		return
	}
	ok, err := sessionFrom(r).Editor.UpdateNodeData(chi.URLParam(r, "nodeID"), patch)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, applied{Applied: ok})
}

func (s *Server) handleDeleteNode(w http.ResponseWriter, r *http.Request) {
	ok := sessionFrom(r).Editor.DeleteNode(chi.URLParam(r, "nodeID"))
	respondJSON(w, http.StatusOK, applied{Applied: ok})
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	var req connectRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	edge, err := sessionFrom(r).Editor.Connect(req.Source, req.Target, req.Label)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, edge)
}

func (s *Server) handleDeleteEdge(w http.ResponseWriter, r *http.Request) {
	ok := sessionFrom(r).Editor.DeleteEdge(chi.URLParam(r, "edgeID"))
	respondJSON(w, http.StatusOK, applied{Applied: ok})
}

// handleChanges applies both change lists as one mutation. Node changes run
// first so that new edges may reference nodes added in the same request.
func (s *Server) handleChanges(w http.ResponseWriter, r *http.Request) {
	var req changesRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if len(req.Nodes)+len(req.Edges) > 0 {
		if err := sessionFrom(r).Editor.ApplyChanges(req.Nodes, req.Edges); err != nil {
			s.respondError(w, r, err)
			return
		}
	}
	respondJSON(w, http.StatusOK, applied{Applied: len(req.Nodes)+len(req.Edges) > 0})
}
