package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const mongoCollection = "motds"

type mongoRecord struct {
	Key   int64  `bson:"_id"`
	Value string `bson:"value"`
}

// MongoStore keys documents by _id. Consistent reads go to the primary,
// others may be served by a secondary.
type MongoStore struct {
	client    *mongo.Client
	primary   *mongo.Collection
	secondary *mongo.Collection
	pageSize  int
}

func NewMongoStore(ctx context.Context, uri, dbName string, pageSize int) (*MongoStore, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	slog.Debug("Connected to MongoDB", "database", dbName)

	db := client.Database(dbName)

	return &MongoStore{
		client:    client,
		primary:   db.Collection(mongoCollection, options.Collection().SetReadPreference(readpref.Primary())),
		secondary: db.Collection(mongoCollection, options.Collection().SetReadPreference(readpref.SecondaryPreferred())),
		pageSize:  pageSize,
	}, nil
}

func (s *MongoStore) collection(consistent bool) *mongo.Collection {
	if consistent {
		return s.primary
	}
	return s.secondary
}

func (s *MongoStore) Get(ctx context.Context, key int64, consistent bool) (*Record, error) {
	var doc mongoRecord
	err := s.collection(consistent).FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get motd %d: %w", key, err)
	}
	return &Record{Key: doc.Key, Value: doc.Value}, nil
}

func (s *MongoStore) InsertIfAbsent(ctx context.Context, rec Record) (bool, error) {
	_, err := s.primary.InsertOne(ctx, mongoRecord{Key: rec.Key, Value: rec.Value})
	return insertOutcome(rec.Key, err)
}

// insertOutcome maps a duplicate _id to "already present".
func insertOutcome(key int64, err error) (bool, error) {
	if mongo.IsDuplicateKeyError(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to insert motd %d: %w", key, err)
	}
	return true, nil
}

// Scan pages by _id. The cursor is the last key of the previous page.
func (s *MongoStore) Scan(ctx context.Context, cursor string, consistent bool) (Page, error) {
	filter, err := scanFilter(cursor)
	if err != nil {
		return Page{}, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetLimit(int64(s.pageSize + 1))

	cur, err := s.collection(consistent).Find(ctx, filter, opts)
	if err != nil {
		return Page{}, fmt.Errorf("failed to scan motds: %w", err)
	}

	var docs []mongoRecord
	if err := cur.All(ctx, &docs); err != nil {
		return Page{}, fmt.Errorf("failed to read motds: %w", err)
	}

	return pageOf(docs, s.pageSize), nil
}

func scanFilter(cursor string) (bson.M, error) {
	if cursor == "" {
		return bson.M{}, nil
	}
	after, err := strconv.ParseInt(cursor, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor %q: %w", cursor, err)
	}
	return bson.M{"_id": bson.M{"$gt": after}}, nil
}

// pageOf expects up to pageSize+1 documents sorted by _id. The extra one
// only signals that another page exists.
func pageOf(docs []mongoRecord, pageSize int) Page {
	var page Page
	for _, doc := range docs {
		page.Records = append(page.Records, Record{Key: doc.Key, Value: doc.Value})
	}
	if len(page.Records) > pageSize {
		page.Records = page.Records[:pageSize]
		page.Next = strconv.FormatInt(page.Records[pageSize-1].Key, 10)
	}
	return page
}

func (s *MongoStore) Count(ctx context.Context) (int, error) {
	n, err := s.primary.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("failed to get motd count: %w", err)
	}
	return int(n), nil
}

func (s *MongoStore) Close() error {
	return s.client.Disconnect(context.Background())
}
