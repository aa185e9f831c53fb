package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dgallion1/docsegment/internal/pathstore"
	"github.com/go-chi/chi/v5"
)

// handleGetDocument returns the stored outline of a document.
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	store := s.orchestrator.Store()
	if store == nil {
		jsonError(w, "outline storage is not configured", http.StatusServiceUnavailable)
		return
	}

	docID := chi.URLParam(r, "docID")
	o, err := store.GetOutline(r.Context(), docID)
	if errors.Is(err, pathstore.ErrNotFound) {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}
	if err != nil {
		jsonError(w, "failed to read outline: "+err.Error(), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(o)
}

// handleDeleteDocument removes everything stored for a document.
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	store := s.orchestrator.Store()
	if store == nil {
		jsonError(w, "outline storage is not configured", http.StatusServiceUnavailable)
		return
	}

	docID := chi.URLParam(r, "docID")
	err := store.DeleteOutline(r.Context(), docID)
	if errors.Is(err, pathstore.ErrNotFound) {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}
	if err != nil {
		jsonError(w, "failed to delete outline: "+err.Error(), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"doc_id": docID, "deleted": true})
}
