// Package mongo implements the record store on a MongoDB collection of
// place documents keyed by ObjectID.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"placesearch/internal/domain"
)

// Config selects the database and collection.
type Config struct {
	URI            string
	Database       string
	Collection     string
	ConnectTimeout time.Duration
}

// Store is a MongoDB-backed RecordStore.
type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
}

var (
	_ domain.RecordStore  = (*Store)(nil)
	_ domain.RecordWriter = (*Store)(nil)
)

// Open connects and pings the server.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.URI == "" {
		return nil, errors.New("mongo: empty connection uri")
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	opts := options.Client().ApplyURI(cfg.URI).SetConnectTimeout(cfg.ConnectTimeout)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo: connect: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo: ping: %w", err)
	}
	return &Store{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

// embeddingProjection limits Enumerate to the fields the corpus needs.
var embeddingProjection = bson.D{
	{Key: "_id", Value: 1},
	{Key: "name", Value: 1},
	{Key: "description", Value: 1},
	{Key: "category", Value: 1},
	{Key: "tags", Value: 1},
	{Key: "coordinates", Value: 1},
}

// Enumerate returns the embedding projection of every document in natural
// order.
func (s *Store) Enumerate(ctx context.Context) ([]domain.SourceRecord, error) {
	cur, err := s.coll.Find(ctx, bson.D{}, options.Find().SetProjection(embeddingProjection))
	if err != nil {
		return nil, fmt.Errorf("mongo: enumerate: %w", err)
	}
	return decodeAll(ctx, cur)
}

// Get looks a record up by id. Hex ids match ObjectIDs, anything else
// matches a string _id.
func (s *Store) Get(ctx context.Context, id string) (*domain.SourceRecord, error) {
	if id == "" {
		return nil, domain.ErrRecordNotFound
	}
	var doc document
	err := s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: idValue(id)}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mongo: get %s: %w", id, err)
	}
	rec := doc.record()
	return &rec, nil
}

// GetMany issues one $in query for all non-empty ids.
func (s *Store) GetMany(ctx context.Context, ids []string) ([]domain.SourceRecord, error) {
	filter := manyFilter(ids)
	if filter == nil {
		return nil, nil
	}
	cur, err := s.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("mongo: get many: %w", err)
	}
	return decodeAll(ctx, cur)
}

// Put upserts records. Ids are stored the way idValue renders them, so Get
// and GetMany find every record Put wrote.
func (s *Store) Put(ctx context.Context, records []domain.SourceRecord) error {
	if len(records) == 0 {
		return nil
	}
	models := make([]mongo.WriteModel, 0, len(records))
	for _, r := range records {
		if r.ID == "" {
			return errors.New("mongo: record without id")
		}
		doc := fromRecord(r)
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.D{{Key: "_id", Value: doc.ID}}).
			SetReplacement(doc).
			SetUpsert(true))
	}
	if _, err := s.coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false)); err != nil {
		return fmt.Errorf("mongo: put: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func decodeAll(ctx context.Context, cur *mongo.Cursor) ([]domain.SourceRecord, error) {
	defer cur.Close(ctx)
	var out []domain.SourceRecord
	for cur.Next(ctx) {
		var doc document
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("mongo: decode: %w", err)
		}
		out = append(out, doc.record())
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("mongo: cursor: %w", err)
	}
	return out, nil
}

// idValue is the stored form of a record id: an ObjectID for 24-char hex,
// otherwise the string itself.
func idValue(id string) any {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return oid
	}
	return id
}

// manyFilter builds the $in filter over ids of both forms. Empty ids are
// skipped; nil means nothing to look up.
func manyFilter(ids []string) bson.D {
	values := make(bson.A, 0, len(ids))
	for _, id := range ids {
		if id != "" {
			values = append(values, idValue(id))
		}
	}
	if len(values) == 0 {
		return nil
	}
	return bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: values}}}}
}
