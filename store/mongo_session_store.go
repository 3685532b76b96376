// api/store/mongo_session_store.go
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"earlyjobs/api/models"
)

// MongoSessionStore persists sessions as single documents. Every mutator is
// one FindOneAndUpdate, so per-session atomicity comes from MongoDB's
// single-document guarantees; no additional locking is needed.
type MongoSessionStore struct {
	coll *mongo.Collection
}

func NewMongoSessionStore(db *mongo.Database) *MongoSessionStore {
	return &MongoSessionStore{coll: db.Collection("marketing_sessions")}
}

// EnsureIndexes creates the lookup and listing indexes. Safe to call on every
// startup; MongoDB treats existing identical indexes as a no-op.
func (s *MongoSessionStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "sessionId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "platform", Value: 1}, {Key: "createdAt", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "createdAt", Value: -1}},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create session indexes: %w", err)
	}
	return nil
}

func (s *MongoSessionStore) Resolve(ctx context.Context, candidateID string, fields CreationFields) (*models.Session, bool, error) {
	if candidateID != "" {
		var existing models.Session
		err := s.coll.FindOne(ctx, bson.M{"sessionId": candidateID}).Decode(&existing)
		if err == nil {
			return &existing, false, nil
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, false, fmt.Errorf("failed to look up session %q: %w", candidateID, err)
		}
		// Unknown candidate: fall through and create under a fresh identifier.
	}

	session := newSession(uuid.New().String(), time.Now().UTC(), fields)
	if _, err := s.coll.InsertOne(ctx, session); err != nil {
		return nil, false, fmt.Errorf("failed to create session: %w", err)
	}
	return session, true, nil
}

func (s *MongoSessionStore) FindBySessionID(ctx context.Context, sessionID string) (*models.Session, error) {
	var session models.Session
	err := s.coll.FindOne(ctx, bson.M{"sessionId": sessionID}).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to find session %q: %w", sessionID, err)
	}
	return &session, nil
}

func (s *MongoSessionStore) AddInteraction(ctx context.Context, sessionID, action string, additionalData map[string]interface{}) (*models.Session, error) {
	now := time.Now().UTC()
	update := bson.M{
		"$push": bson.M{"interactions": models.Interaction{
			Action:         action,
			Timestamp:      now,
			AdditionalData: additionalData,
		}},
		"$set": bson.M{"lastVisit": now, "updatedAt": now},
		"$inc": bson.M{"visitCount": 1},
	}
	return s.findOneAndUpdate(ctx, sessionID, update)
}

func (s *MongoSessionStore) MarkDownloadClicked(ctx context.Context, sessionID, downloadURL string) (*models.Session, error) {
	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"downloadClicked":   true,
			"downloadUrl":       downloadURL,
			"downloadTimestamp": now,
			"updatedAt":         now,
		},
	}
	return s.findOneAndUpdate(ctx, sessionID, update)
}

func (s *MongoSessionStore) RefreshAttribution(ctx context.Context, sessionID string, fields AttributionFields) (*models.Session, error) {
	set := bson.M{}
	if fields.Referrer != "" {
		set["referrer"] = fields.Referrer
	}
	if fields.UTMSource != "" {
		set["utm_source"] = fields.UTMSource
	}
	if fields.UTMMedium != "" {
		set["utm_medium"] = fields.UTMMedium
	}
	if fields.UTMCampaign != "" {
		set["utm_campaign"] = fields.UTMCampaign
	}
	if fields.UTMTerm != "" {
		set["utm_term"] = fields.UTMTerm
	}
	if fields.UTMContent != "" {
		set["utm_content"] = fields.UTMContent
	}

	// Nothing to overwrite: plain read, no write issued.
	if len(set) == 0 {
		return s.FindBySessionID(ctx, sessionID)
	}

	set["updatedAt"] = time.Now().UTC()
	return s.findOneAndUpdate(ctx, sessionID, bson.M{"$set": set})
}

func (s *MongoSessionStore) findOneAndUpdate(ctx context.Context, sessionID string, update bson.M) (*models.Session, error) {
	var updated models.Session
	err := s.coll.FindOneAndUpdate(
		ctx,
		bson.M{"sessionId": sessionID},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to update session %q: %w", sessionID, err)
	}
	return &updated, nil
}

func (s *MongoSessionStore) TotalVisits(ctx context.Context) (int64, error) {
	total, err := s.coll.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return total, nil
}

func (s *MongoSessionStore) PlatformBreakdown(ctx context.Context) ([]models.PlatformCount, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$platform"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}

	cursor, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate platform breakdown: %w", err)
	}
	defer cursor.Close(ctx)

	results := []models.PlatformCount{}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("failed to decode platform breakdown: %w", err)
	}
	return results, nil
}

func (s *MongoSessionStore) DownloadBreakdown(ctx context.Context) ([]models.DownloadCount, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$downloadClicked"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}

	cursor, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate download breakdown: %w", err)
	}
	defer cursor.Close(ctx)

	results := []models.DownloadCount{}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("failed to decode download breakdown: %w", err)
	}
	return results, nil
}

func (s *MongoSessionStore) TopReferrers(ctx context.Context, limit int64) ([]models.ReferrerCount, error) {
	if limit <= 0 {
		limit = 10
	}

	// Count desc with referrer asc as a deterministic tiebreak.
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$referrer"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}}},
		bson.D{{Key: "$limit", Value: limit}},
	}

	cursor, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate top referrers: %w", err)
	}
	defer cursor.Close(ctx)

	results := []models.ReferrerCount{}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("failed to decode top referrers: %w", err)
	}
	return results, nil
}

func (s *MongoSessionStore) ListSessions(ctx context.Context, page, limit int64) ([]models.Session, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	findOpts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)

	cursor, err := s.coll.Find(ctx, bson.D{}, findOpts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer cursor.Close(ctx)

	sessions := []models.Session{}
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, 0, fmt.Errorf("failed to decode session list: %w", err)
	}

	total, err := s.coll.CountDocuments(ctx, bson.D{})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count sessions: %w", err)
	}

	return sessions, total, nil
}
