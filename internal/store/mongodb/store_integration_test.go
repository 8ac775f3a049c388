//go:build integration

package mongodb

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/apniprogrammingyt09/hindi-voice-search--2/internal/complaint"
	"github.com/apniprogrammingyt09/hindi-voice-search--2/internal/conversation"
	"github.com/apniprogrammingyt09/hindi-voice-search--2/internal/extractor"
	"github.com/apniprogrammingyt09/hindi-voice-search--2/internal/knowledge"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		t.Skip("MONGODB_URI not set, skipping integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, uri, "sahayak_test_"+uuid.New().String()[:8])
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	if err := s.EnsureIndexes(ctx); err != nil {
		t.Fatalf("failed to create indexes: %v", err)
	}

	t.Cleanup(func() {
		_ = s.complaints.Database().Drop(context.Background())
		_ = s.Close(context.Background())
	})
	return s
}

func TestIntegration_ComplaintLifecycle(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	c := &complaint.Complaint{
		ReportID:  complaint.NewReportID(time.Now()),
		SessionID: "s1",
		UserID:    "u1",
		Status:    complaint.InitialStatus,
		History:   []conversation.Turn{{Role: conversation.RoleUser, Content: "पानी नहीं आ रहा"}},
		Record:    extractor.Record{"complaint_type": "WATER"},
	}
	id, err := s.SaveComplaint(ctx, c)
	if err != nil {
		t.Fatalf("SaveComplaint failed: %v", err)
	}

	doc, err := s.GetComplaint(ctx, c.ReportID)
	if err != nil {
		t.Fatalf("GetComplaint failed: %v", err)
	}
	if doc["_id"] != id || doc["complaint_type"] != "WATER" {
		t.Errorf("unexpected document %v", doc)
	}

	updated, err := s.UpdateComplaintStatus(ctx, complaint.StatusUpdate{ReportID: c.ReportID, Status: complaint.StatusApproved, AdminID: "a1"})
	if err != nil {
		t.Fatalf("UpdateComplaintStatus failed: %v", err)
	}
	if updated["status"] != "Approved" {
		t.Errorf("expected Approved, got %v", updated["status"])
	}

	list, err := s.ListComplaints(ctx, complaint.ListFilter{UserID: "u1"})
	if err != nil || len(list) != 1 {
		t.Errorf("expected 1 complaint for u1, got %d (%v)", len(list), err)
	}

	if _, err := s.GetComplaint(ctx, "missing"); !errors.Is(err, complaint.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestIntegration_Knowledge(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	if _, err := s.GetKnowledge(ctx, knowledge.KindServices); !errors.Is(err, knowledge.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := s.PutKnowledge(ctx, knowledge.KindServices, json.RawMessage(`{"services":[{"name":"Water Connection"}]}`)); err != nil {
		t.Fatalf("PutKnowledge failed: %v", err)
	}
	got, err := s.GetKnowledge(ctx, knowledge.KindServices)
	if err != nil {
		t.Fatalf("GetKnowledge failed: %v", err)
	}
	var parsed struct {
		Services []struct{ Name string } `json:"services"`
	}
	if err := json.Unmarshal(got, &parsed); err != nil || len(parsed.Services) != 1 {
		t.Errorf("unexpected document %s (%v)", got, err)
	}
}

func TestIntegration_PortalKnowledgeDocuments(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := s.knowledge.InsertMany(ctx, []any{
		bson.M{"type": "services", "services": bson.A{bson.M{"name": "Water Connection"}}, "createdAt": now, "updatedAt": now},
		bson.M{"type": "individual_service", "name": "Tree Cutting", "createdAt": now, "updatedAt": now},
		bson.M{"type": "complaint_process", "steps": bson.A{"collect", "confirm"}, "createdAt": now, "updatedAt": now},
	})
	if err != nil {
		t.Fatalf("seed knowledge_base: %v", err)
	}
	_, err = s.complaintTypes.InsertOne(ctx, bson.M{
		"type": "complaint_types", "complaint_types": bson.A{bson.M{"type": "WATER"}}, "createdAt": now, "updatedAt": now,
	})
	if err != nil {
		t.Fatalf("seed complaint_types: %v", err)
	}

	tests := []struct {
		kind knowledge.Kind
		want string
	}{
		{knowledge.KindServices, `{"services":[{"name":"Water Connection"},{"name":"Tree Cutting"}]}`},
		{knowledge.KindComplaintTypes, `{"complaint_types":[{"type":"WATER"}]}`},
		{knowledge.KindComplaintProcess, `{"steps":["collect","confirm"]}`},
	}
	for _, tt := range tests {
		got, err := s.GetKnowledge(ctx, tt.kind)
		if err != nil {
			t.Fatalf("GetKnowledge(%s) failed: %v", tt.kind, err)
		}
		if string(got) != tt.want {
			t.Errorf("GetKnowledge(%s): expected %s, got %s", tt.kind, tt.want, got)
		}
	}

	if err := s.PutKnowledge(ctx, knowledge.KindComplaintTypes, json.RawMessage(`{"complaint_types":[{"type":"ROADS"}]}`)); err != nil {
		t.Fatalf("PutKnowledge failed: %v", err)
	}
	var stored bson.M
	if err := s.complaintTypes.FindOne(ctx, bson.M{"type": "complaint_types"}).Decode(&stored); err != nil {
		t.Fatalf("read back complaint_types: %v", err)
	}
	if _, wrapped := stored["data"]; wrapped {
		t.Errorf("expected top level fields, got %v", stored)
	}
	if _, ok := stored["complaint_types"]; !ok || stored["createdAt"] == nil {
		t.Errorf("expected portal shaped document, got %v", stored)
	}
	if n, _ := s.knowledge.CountDocuments(ctx, bson.M{"type": "complaint_types"}); n != 0 {
		t.Errorf("complaint types must not be written to knowledge_base, found %d", n)
	}

	if err := s.PutKnowledge(ctx, knowledge.KindServices, json.RawMessage(`[1,2]`)); err == nil {
		t.Error("expected error for non-object document")
	}
}
