package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/snehal593/OPEN-DEEP-RESEARCH/internal/models"
)

// MongoStore keeps one history document per session, keyed by session id.
type MongoStore struct {
	client *mongo.Client
	col    *mongo.Collection
	now    func() time.Time
}

func NewMongoStore(client *mongo.Client, database string) *MongoStore {
	return &MongoStore{
		client: client,
		col:    client.Database(database).Collection("history"),
		now:    time.Now,
	}
}

func (s *MongoStore) Save(ctx context.Context, sessionID, title string, messages []models.Message) error {
	doc := models.HistoryEntry{
		SessionID: sessionID,
		Timestamp: s.now(),
		Title:     title,
		Messages:  messages,
	}
	opts := options.Replace().SetUpsert(true)
	if _, err := s.col.ReplaceOne(ctx, bson.M{"_id": sessionID}, doc, opts); err != nil {
		return fmt.Errorf("mongo save: %w", err)
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, sessionID string) (*models.HistoryEntry, error) {
	var doc models.HistoryEntry
	err := s.col.FindOne(ctx, bson.M{"_id": sessionID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mongo get: %w", err)
	}
	return &doc, nil
}

func (s *MongoStore) List(ctx context.Context) ([]models.HistoryEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	cur, err := s.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo list: %w", err)
	}
	defer cur.Close(ctx)

	var docs []models.HistoryEntry
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo list: %w", err)
	}
	return docs, nil
}

func (s *MongoStore) Delete(ctx context.Context, sessionID string) error {
	if _, err := s.col.DeleteOne(ctx, bson.M{"_id": sessionID}); err != nil {
		return fmt.Errorf("mongo delete: %w", err)
	}
	return nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
