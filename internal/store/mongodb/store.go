package mongodb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/apniprogrammingyt09/hindi-voice-search--2/internal/complaint"
	"github.com/apniprogrammingyt09/hindi-voice-search--2/internal/knowledge"
)

const (
	complaintsCollection     = "complaints"
	knowledgeCollection      = "knowledge_base"
	complaintTypesCollection = "complaint_types"

	// individualServiceType tags single service rows the portal admin adds
	// next to the main services document.
	individualServiceType = "individual_service"
)

// Store keeps complaints and knowledge documents in MongoDB, using the
// collection names and document shapes of the existing portal database.
type Store struct {
	client         *mongo.Client
	complaints     *mongo.Collection
	knowledge      *mongo.Collection
	complaintTypes *mongo.Collection
}

func New(ctx context.Context, uri, dbName string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	collOpts := options.Collection().SetBSONOptions(&options.BSONOptions{DefaultDocumentM: true})
	db := client.Database(dbName)
	return &Store{
		client:         client,
		complaints:     db.Collection(complaintsCollection, collOpts),
		knowledge:      db.Collection(knowledgeCollection, collOpts),
		complaintTypes: db.Collection(complaintTypesCollection, collOpts),
	}, nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// EnsureIndexes creates the lookup indexes used by the queries below.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.complaints.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "reportId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("create complaint indexes: %w", err)
	}
	for _, coll := range []*mongo.Collection{s.knowledge, s.complaintTypes} {
		_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys: bson.D{{Key: "type", Value: 1}},
		})
		if err != nil {
			return fmt.Errorf("create %s index: %w", coll.Name(), err)
		}
	}
	return nil
}

func (s *Store) SaveComplaint(ctx context.Context, c *complaint.Complaint) (string, error) {
	now := time.Now().UTC()
	doc := bson.M{}
	for k, v := range c.Document() {
		doc[k] = v
	}
	doc["createdAt"] = now
	doc["updatedAt"] = now

	res, err := s.complaints.InsertOne(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("insert complaint: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		return oid.Hex(), nil
	}
	return fmt.Sprint(res.InsertedID), nil
}

func (s *Store) GetComplaint(ctx context.Context, reportID string) (complaint.Document, error) {
	var doc bson.M
	err := s.complaints.FindOne(ctx, bson.M{"reportId": reportID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, complaint.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find complaint: %w", err)
	}
	return toDocument(doc), nil
}

func (s *Store) ListComplaints(ctx context.Context, f complaint.ListFilter) ([]complaint.Document, error) {
	filter := bson.M{}
	if f.UserID != "" {
		filter["userId"] = f.UserID
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cur, err := s.complaints.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list complaints: %w", err)
	}
	var docs []bson.M
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode complaints: %w", err)
	}

	out := make([]complaint.Document, 0, len(docs))
	for _, d := range docs {
		out = append(out, toDocument(d))
	}
	return out, nil
}

func (s *Store) UpdateComplaintStatus(ctx context.Context, u complaint.StatusUpdate) (complaint.Document, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	for k, v := range u.Fields() {
		set[k] = v
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc bson.M
	err := s.complaints.FindOneAndUpdate(ctx, bson.M{"reportId": u.ReportID}, bson.M{"$set": set}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, complaint.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update complaint status: %w", err)
	}
	return toDocument(doc), nil
}

// collectionFor returns where the portal keeps documents of kind.
func (s *Store) collectionFor(kind knowledge.Kind) *mongo.Collection {
	if kind == knowledge.KindComplaintTypes {
		return s.complaintTypes
	}
	return s.knowledge
}

func (s *Store) GetKnowledge(ctx context.Context, kind knowledge.Kind) (json.RawMessage, error) {
	coll := s.collectionFor(kind)

	var main bson.M
	err := coll.FindOne(ctx, bson.M{"type": string(kind)}).Decode(&main)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("find knowledge %s: %w", kind, err)
	}

	var extras []bson.M
	if kind == knowledge.KindServices {
		cur, err := coll.Find(ctx, bson.M{"type": individualServiceType})
		if err != nil {
			return nil, fmt.Errorf("find individual services: %w", err)
		}
		if err := cur.All(ctx, &extras); err != nil {
			return nil, fmt.Errorf("decode individual services: %w", err)
		}
	}

	data, ok := portalKnowledge(main, extras)
	if !ok {
		return nil, knowledge.ErrNotFound
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode knowledge %s: %w", kind, err)
	}
	return raw, nil
}

// PutKnowledge replaces the document of kind with doc's fields stored at the
// top level, the way the portal writes them. doc must be a JSON object.
func (s *Store) PutKnowledge(ctx context.Context, kind knowledge.Kind, doc json.RawMessage) error {
	var fields map[string]any
	if err := json.Unmarshal(doc, &fields); err != nil {
		return fmt.Errorf("decode knowledge %s: expected a JSON object: %w", kind, err)
	}
	coll := s.collectionFor(kind)
	filter := bson.M{"type": string(kind)}

	now := time.Now().UTC()
	createdAt := any(now)
	var existing bson.M
	err := coll.FindOne(ctx, filter, options.FindOne().SetProjection(bson.M{"createdAt": 1})).Decode(&existing)
	switch {
	case err == nil:
		if v, ok := existing["createdAt"]; ok {
			createdAt = v
		}
	case !errors.Is(err, mongo.ErrNoDocuments):
		return fmt.Errorf("find knowledge %s: %w", kind, err)
	}

	replacement := bson.M{}
	for k, v := range fields {
		if isMetaField(k) {
			continue
		}
		replacement[k] = v
	}
	replacement["type"] = string(kind)
	replacement["createdAt"] = createdAt
	replacement["updatedAt"] = now

	if _, err := coll.ReplaceOne(ctx, filter, replacement, options.Replace().SetUpsert(true)); err != nil {
		return fmt.Errorf("put knowledge %s: %w", kind, err)
	}
	return nil
}

// portalKnowledge assembles a knowledge document from the stored main
// document and any individual service rows. Service rows are appended to the
// main document's services list, or returned as a list on their own when the
// main document has none.
func portalKnowledge(main bson.M, extras []bson.M) (any, bool) {
	services := make([]any, 0, len(extras))
	for _, e := range extras {
		services = append(services, stripMeta(e))
	}

	if main == nil {
		if len(services) == 0 {
			return nil, false
		}
		return services, true
	}

	body := stripMeta(main)
	if list, ok := body["services"].([]any); ok {
		body["services"] = append(list, services...)
		return body, true
	}
	if len(services) > 0 {
		return services, true
	}
	return body, true
}

// stripMeta normalizes a stored document and drops the bookkeeping fields.
func stripMeta(m bson.M) map[string]any {
	out := normalizeMap(m)
	for k := range out {
		if isMetaField(k) {
			delete(out, k)
		}
	}
	return out
}

func isMetaField(k string) bool {
	switch k {
	case "_id", "type", "createdAt", "updatedAt":
		return true
	}
	return false
}

func toDocument(m bson.M) complaint.Document {
	out, _ := normalize(m).(map[string]any)
	return complaint.Document(out)
}

// normalize converts driver types into plain Go values so documents from every
// store look alike to callers.
func normalize(v any) any {
	switch t := v.(type) {
	case bson.M:
		return normalizeMap(t)
	case map[string]any:
		return normalizeMap(t)
	case bson.D:
		m := make(map[string]any, len(t))
		for _, e := range t {
			m[e.Key] = normalize(e.Value)
		}
		return m
	case bson.A:
		return normalizeSlice(t)
	case []any:
		return normalizeSlice(t)
	case primitive.ObjectID:
		return t.Hex()
	case primitive.DateTime:
		return t.Time().UTC()
	}
	return v
}

func normalizeMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = normalize(v)
	}
	return out
}

func normalizeSlice(s []any) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = normalize(v)
	}
	return out
}
