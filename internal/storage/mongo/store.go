// Package mongo stores habits and weeks as documents, one week per document
// with its habit entries embedded.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/julianstephens/weeklit/internal/constants"
)

const (
	habitsCollection   = "habits"
	weeksCollection    = "weeks"
	countersCollection = "counters"

	connectTimeout = 10 * time.Second
)

type Store struct {
	uri    string
	dbName string

	client *mongo.Client
	db     *mongo.Database
}

func New(uri, dbName string) *Store {
	if dbName == "" {
		dbName = constants.DefaultMongoDatabase
	}
	return &Store{uri: uri, dbName: dbName}
}

func (s *Store) connect(ctx context.Context) error {
	if s.client != nil {
		return nil
	}
	opts := options.Client().
		ApplyURI(s.uri).
		SetConnectTimeout(connectTimeout).
		SetServerSelectionTimeout(connectTimeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return fmt.Errorf("failed to reach mongodb: %w", err)
	}
	s.client = client
	s.db = client.Database(s.dbName)
	return nil
}

// Init connects and creates the indexes that back the week invariants.
func (s *Store) Init(ctx context.Context) error {
	if err := s.connect(ctx); err != nil {
		return err
	}
	return s.ensureIndexes(ctx)
}

// Load connects and makes sure the indexes exist, so a database that never
// went through Init still rejects duplicate weeks.
func (s *Store) Load(ctx context.Context) error {
	if err := s.connect(ctx); err != nil {
		return err
	}
	return s.ensureIndexes(ctx)
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.db.Collection(weeksCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "weekStart", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_week_start"),
		},
		{
			Keys: bson.D{{Key: "isCurrent", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetName("single_current_week").
				SetPartialFilterExpression(bson.D{{Key: "isCurrent", Value: true}}),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create week indexes: %w", err)
	}

	_, err = s.db.Collection(habitsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "seq", Value: 1}}, Options: options.Index().SetName("habit_seq")},
		{Keys: bson.D{{Key: "isActive", Value: 1}}, Options: options.Index().SetName("habit_active")},
	})
	if err != nil {
		return fmt.Errorf("failed to create habit indexes: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	if s.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	err := s.client.Disconnect(ctx)
	s.client = nil
	s.db = nil
	return err
}

func (s *Store) Ping(ctx context.Context) error {
	if s.client == nil {
		return fmt.Errorf("database is not open")
	}
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Store) GetConfigPath() string {
	return "mongodb/" + s.dbName
}

// nextSeq hands out increasing numbers so habits list in insertion order.
func (s *Store) nextSeq(ctx context.Context, name string) (int64, error) {
	var out struct {
		Seq int64 `bson:"seq"`
	}
	err := s.db.Collection(countersCollection).FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&out)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate sequence: %w", err)
	}
	return out.Seq, nil
}

func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}
