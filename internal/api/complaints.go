package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/apniprogrammingyt09/hindi-voice-search--2/internal/complaint"
	"github.com/apniprogrammingyt09/hindi-voice-search--2/internal/triage"
)

// getComplaints handles GET /api/v1/complaints. A reportId returns one
// complaint, a userId that user's complaints; listing everything needs the
// admin token.
func (s *Server) getComplaints(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if reportID := q.Get("reportId"); reportID != "" {
		doc, err := s.deps.Complaints.GetComplaint(r.Context(), reportID)
		if errors.Is(err, complaint.ErrNotFound) {
			writeError(w, http.StatusNotFound, "complaint not found")
			return
		}
		if err != nil {
			s.logger.Error("get complaint failed", "report_id", reportID, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to fetch complaint")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"complaint": doc})
		return
	}

	userID := q.Get("userId")
	if userID == "" && !authorized(r, s.apiToken) {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	docs, err := s.deps.Complaints.ListComplaints(r.Context(), complaint.ListFilter{UserID: userID})
	if err != nil {
		s.logger.Error("list complaints failed", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to fetch complaints")
		return
	}
	if docs == nil {
		docs = []complaint.Document{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"complaints": docs, "count": len(docs)})
}

type statusRequest struct {
	ReportID   string `json:"reportId"`
	Status     string `json:"status"`
	AdminID    string `json:"adminId"`
	AdminEmail string `json:"adminEmail"`
	Reason     string `json:"reason"`
}

// updateStatus handles PUT /api/v1/complaints/status
func (s *Server) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.ReportID == "" || req.Status == "" {
		writeError(w, http.StatusBadRequest, "reportId and status are required")
		return
	}

	status, err := complaint.ParseStatus(req.Status)
	if err != nil {
		valid := make([]string, 0, len(complaint.Statuses()))
		for _, st := range complaint.Statuses() {
			valid = append(valid, string(st))
		}
		writeError(w, http.StatusBadRequest, "invalid status, must be one of: "+strings.Join(valid, ", "))
		return
	}

	doc, err := s.deps.Status.UpdateStatus(r.Context(), complaint.StatusUpdate{
		ReportID:   req.ReportID,
		Status:     status,
		AdminID:    req.AdminID,
		AdminEmail: req.AdminEmail,
		Reason:     req.Reason,
	}, triage.SourceAPI)
	if errors.Is(err, complaint.ErrNotFound) {
		writeError(w, http.StatusNotFound, "complaint not found")
		return
	}
	if err != nil {
		s.logger.Error("status update failed", "report_id", req.ReportID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update status")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "complaint": doc})
}
