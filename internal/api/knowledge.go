package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/apniprogrammingyt09/hindi-voice-search--2/internal/knowledge"
)

// getKnowledge handles GET /api/v1/knowledge?type=<kind>. Without a type all
// three documents are returned, with null for any that are missing.
func (s *Server) getKnowledge(w http.ResponseWriter, r *http.Request) {
	if t := r.URL.Query().Get("type"); t != "" {
		kind, err := knowledge.ParseKind(t)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		doc, err := s.deps.Knowledge.GetKnowledge(r.Context(), kind)
		if errors.Is(err, knowledge.ErrNotFound) {
			writeError(w, http.StatusNotFound, "knowledge not found")
			return
		}
		if err != nil {
			s.logger.Error("get knowledge failed", "kind", kind, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to fetch knowledge")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": doc})
		return
	}

	all := make(map[string]json.RawMessage, len(knowledge.Kinds()))
	for _, kind := range knowledge.Kinds() {
		doc, err := s.deps.Knowledge.GetKnowledge(r.Context(), kind)
		if errors.Is(err, knowledge.ErrNotFound) {
			all[string(kind)] = nil
			continue
		}
		if err != nil {
			s.logger.Error("get knowledge failed", "kind", kind, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to fetch knowledge")
			return
		}
		all[string(kind)] = doc
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": all})
}

// putKnowledge handles PUT /api/v1/knowledge/{kind}
func (s *Server) putKnowledge(w http.ResponseWriter, r *http.Request) {
	kind, err := knowledge.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 4<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}
	if !json.Valid(body) {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if err := s.deps.Knowledge.PutKnowledge(r.Context(), kind, json.RawMessage(body)); err != nil {
		s.logger.Error("put knowledge failed", "kind", kind, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to store knowledge")
		return
	}
	s.logger.Info("knowledge updated", "kind", kind, "bytes", len(body))
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "type": kind})
}

// initKnowledge handles POST /api/v1/knowledge/init
func (s *Server) initKnowledge(w http.ResponseWriter, r *http.Request) {
	written, err := knowledge.SeedFromDir(r.Context(), s.deps.Knowledge, s.deps.KnowledgeDir)
	if err != nil {
		s.logger.Error("knowledge seed failed", "dir", s.deps.KnowledgeDir, "seeded", written, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to initialize knowledge base")
		return
	}
	s.logger.Info("knowledge seeded", "dir", s.deps.KnowledgeDir, "kinds", written)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "seeded": written})
}
