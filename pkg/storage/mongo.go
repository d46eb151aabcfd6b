package storage

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"xscraper/pkg/config"
	errs "xscraper/pkg/errors"
	"xscraper/pkg/models"
)

// harvestDocument is the stored shape of one batch. query, tweets and
// created_at are read by existing downstream consumers.
type harvestDocument struct {
	SessionID string          `bson:"session_id"`
	Query     string          `bson:"query"`
	Label     string          `bson:"label"`
	Reason    string          `bson:"reason"`
	Records   []models.Record `bson:"tweets"`
	CreatedAt time.Time       `bson:"created_at"`
}

func newHarvestDocument(b Batch) harvestDocument {
	created := b.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	records := b.Records
	if records == nil {
		records = []models.Record{}
	}
	return harvestDocument{
		SessionID: b.SessionID,
		Query:     b.Key,
		Label:     b.Label,
		Reason:    b.Reason,
		Records:   records,
		CreatedAt: created.UTC(),
	}
}

// MongoSink inserts one document per batch
type MongoSink struct {
	client     *mongo.Client
	collection *mongo.Collection
	timeout    time.Duration
}

// NewMongoSink connects to cfg.DSN and pings the server
func NewMongoSink(ctx context.Context, cfg config.StorageConfig) (*MongoSink, error) {
	const op = "storage.NewMongoSink"
	if cfg.DSN == "" {
		return nil, errs.New(errs.ErrorTypeFatalConfig, op, "mongo storage requires a DSN")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.DSN).SetConnectTimeout(timeout))
	if err != nil {
		return nil, errs.Wrap(err, errs.ErrorTypeFatalConfig, op, "invalid mongo connection string")
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, errs.Wrap(err, errs.ErrorTypeStorage, op, "mongo server unreachable")
	}

	database := cfg.Database
	if database == "" {
		database = "xscraper"
	}
	collection := cfg.Collection
	if collection == "" {
		collection = "harvests"
	}
	return &MongoSink{
		client:     client,
		collection: client.Database(database).Collection(collection),
		timeout:    timeout,
	}, nil
}

func (s *MongoSink) Save(ctx context.Context, b Batch) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.collection.InsertOne(ctx, newHarvestDocument(b)); err != nil {
		return errs.Wrap(err, errs.ErrorTypeStorage, "storage.MongoSink.Save", "insert failed")
	}
	return nil
}

// Latest returns the newest stored batch for query
func (s *MongoSink) Latest(ctx context.Context, query string) ([]models.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var doc harvestDocument
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})
	err := s.collection.FindOne(ctx, bson.M{"query": query}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errs.New(errs.ErrorTypeNotFound, "storage.MongoSink.Latest", "no harvest stored for "+query)
	}
	if err != nil {
		return nil, errs.Wrap(err, errs.ErrorTypeStorage, "storage.MongoSink.Latest", "find failed")
	}
	return doc.Records, nil
}

func (s *MongoSink) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}
