package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/apniprogrammingyt09/hindi-voice-search--2/internal/assistant"
)

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
	UserID    string `json:"userId"`
	UserEmail string `json:"userEmail"`
	UserName  string `json:"userName"`
}

// chat handles POST /api/v1/chat
func (s *Server) chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	resp, err := s.deps.Chat.HandleMessage(r.Context(), assistant.Request{
		Message:   req.Message,
		SessionID: req.SessionID,
		UserID:    req.UserID,
		UserEmail: req.UserEmail,
		UserName:  req.UserName,
	})
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, resp)
	case errors.Is(err, assistant.ErrEmptyMessage):
		writeError(w, http.StatusBadRequest, "message is required")
	case errors.Is(err, assistant.ErrKnowledgeUnavailable):
		writeError(w, http.StatusServiceUnavailable, "knowledge base not available")
	case errors.Is(err, assistant.ErrGeneration):
		writeError(w, http.StatusBadGateway, "AI processing failed")
	default:
		s.logger.Error("chat failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
