package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"netdash/config"
	"netdash/models"
)

const (
	CollectionExports = "exports"
	CollectionActions = "device_actions"
)

// AuditLog records exports and confirmed device commands
type AuditLog interface {
	RecordExport(ctx context.Context, rec *models.ExportRecord) error
	RecordAction(ctx context.Context, rec *models.ActionRecord) error
}

// ExportStore is the MongoDB-backed audit log. Disabled stores accept writes and drop them.
type ExportStore struct {
	client  *mongo.Client
	db      *mongo.Database
	enabled bool
}

func NewExportStore(cfg *config.Config) (*ExportStore, error) {
	if !cfg.MongoDB.Enabled {
		log.Println("MongoDB is disabled in configuration, export audit log off")
		return &ExportStore{enabled: false}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoDB.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	store := &ExportStore{
		client:  client,
		db:      client.Database(cfg.MongoDB.Database),
		enabled: true,
	}

	if err := store.createIndexes(ctx); err != nil {
		log.Printf("⚠️  Failed to create indexes: %v", err)
	}

	log.Printf("✓ MongoDB connected successfully to database: %s", cfg.MongoDB.Database)
	return store, nil
}

func (s *ExportStore) Enabled() bool {
	return s != nil && s.enabled
}

func (s *ExportStore) createIndexes(ctx context.Context) error {
	_, err := s.db.Collection(CollectionExports).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("created_at_desc"),
		},
		{
			Keys:    bson.D{{Key: "kind", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("kind_created_at"),
		},
	})
	if err != nil {
		return err
	}

	_, err = s.db.Collection(CollectionActions).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "device_ip", Value: 1}, {Key: "created_at", Value: -1}},
		Options: options.Index().SetName("device_created_at"),
	})
	return err
}

func (s *ExportStore) Close() error {
	if !s.Enabled() || s.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *ExportStore) RecordExport(ctx context.Context, rec *models.ExportRecord) error {
	if !s.Enabled() {
		return nil
	}
	_, err := s.db.Collection(CollectionExports).InsertOne(ctx, rec)
	return err
}

func (s *ExportStore) RecordAction(ctx context.Context, rec *models.ActionRecord) error {
	if !s.Enabled() {
		return nil
	}
	_, err := s.db.Collection(CollectionActions).InsertOne(ctx, rec)
	return err
}

// RecentExports returns the newest export records first
func (s *ExportStore) RecentExports(ctx context.Context, limit int64) ([]models.ExportRecord, error) {
	if !s.Enabled() {
		return nil, fmt.Errorf("MongoDB not enabled")
	}

	opts := options.Find().SetSort(bson.M{"created_at": -1}).SetLimit(limit)
	cursor, err := s.db.Collection(CollectionExports).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var results []models.ExportRecord
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	return results, nil
}

// ExportCounts groups export records by kind over the last daysBack days
func (s *ExportStore) ExportCounts(ctx context.Context, daysBack int) ([]models.KindCount, error) {
	if !s.Enabled() {
		return nil, fmt.Errorf("MongoDB not enabled")
	}

	startDate := time.Now().AddDate(0, 0, -daysBack)
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"created_at": bson.M{"$gte": startDate}}}},
		{{Key: "$group", Value: bson.M{
			"_id":   "$kind",
			"count": bson.M{"$sum": 1},
			"bytes": bson.M{"$sum": "$bytes"},
		}}},
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
	}

	cursor, err := s.db.Collection(CollectionExports).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var results []models.KindCount
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	return results, nil
}

// RecentActions returns the newest device commands first, optionally for one device
func (s *ExportStore) RecentActions(ctx context.Context, deviceIP string, limit int64) ([]models.ActionRecord, error) {
	if !s.Enabled() {
		return nil, fmt.Errorf("MongoDB not enabled")
	}

	filter := bson.M{}
	if deviceIP != "" {
		filter["device_ip"] = deviceIP
	}

	opts := options.Find().SetSort(bson.M{"created_at": -1}).SetLimit(limit)
	cursor, err := s.db.Collection(CollectionActions).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var results []models.ActionRecord
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	return results, nil
}
