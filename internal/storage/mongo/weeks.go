package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/julianstephens/weeklit/internal/models"
	"github.com/julianstephens/weeklit/internal/storage"
)

// CreateWeek inserts the week unflagged first, so a duplicate leaves the
// existing current week alone, then moves the current flag onto it. Readers
// may briefly see no current week between the last two steps. If flagging
// fails the week stays stored unflagged until MarkCurrent is retried.
func (s *Store) CreateWeek(ctx context.Context, week models.Week) (models.Week, error) {
	now := time.Now().UTC()
	if week.CreatedAt.IsZero() {
		week.CreatedAt = now
	}
	week.UpdatedAt = week.CreatedAt
	week.IsCurrent = false
	week.Version = 1

	coll := s.db.Collection(weeksCollection)
	if _, err := coll.InsertOne(ctx, toWeekDoc(week)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.Week{}, storage.ErrDuplicateWeek
		}
		return models.Week{}, fmt.Errorf("failed to insert week: %w", err)
	}

	if err := s.flagCurrent(ctx, week.WeekID, now); err != nil {
		return models.Week{}, err
	}
	week.IsCurrent = true
	week.Version++
	return week, nil
}

func (s *Store) MarkCurrent(ctx context.Context, weekID string) (models.Week, error) {
	if _, err := s.GetWeek(ctx, weekID); err != nil {
		return models.Week{}, err
	}
	if err := s.flagCurrent(ctx, weekID, time.Now().UTC()); err != nil {
		return models.Week{}, err
	}
	return s.GetWeek(ctx, weekID)
}

// flagCurrent clears every other current flag, then sets weekID's. The
// single_current_week index rejects the second step if the first was
// undone by a concurrent writer.
func (s *Store) flagCurrent(ctx context.Context, weekID string, now time.Time) error {
	coll := s.db.Collection(weeksCollection)
	if _, err := coll.UpdateMany(ctx,
		bson.M{"isCurrent": true, "_id": bson.M{"$ne": weekID}},
		bson.M{"$set": bson.M{"isCurrent": false, "updatedAt": now}, "$inc": bson.M{"version": int64(1)}},
	); err != nil {
		return fmt.Errorf("failed to clear current week: %w", err)
	}
	if _, err := coll.UpdateOne(ctx,
		bson.M{"_id": weekID, "isCurrent": false},
		bson.M{"$set": bson.M{"isCurrent": true, "updatedAt": now}, "$inc": bson.M{"version": int64(1)}},
	); err != nil {
		return fmt.Errorf("failed to mark week current: %w", err)
	}
	return nil
}

func (s *Store) ImportWeek(ctx context.Context, week models.Week) error {
	if week.UpdatedAt.IsZero() {
		week.UpdatedAt = week.CreatedAt
	}
	week.Version = 1
	if _, err := s.db.Collection(weeksCollection).InsertOne(ctx, toWeekDoc(week)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return storage.ErrDuplicateWeek
		}
		return fmt.Errorf("failed to import week %s: %w", week.WeekID, err)
	}
	return nil
}

func (s *Store) findWeek(ctx context.Context, filter bson.M) (models.Week, error) {
	var doc weekDoc
	err := s.db.Collection(weeksCollection).FindOne(ctx, filter).Decode(&doc)
	if isNoDocuments(err) {
		return models.Week{}, storage.ErrNotFound
	}
	if err != nil {
		return models.Week{}, err
	}
	return doc.model()
}

func (s *Store) GetWeek(ctx context.Context, weekID string) (models.Week, error) {
	return s.findWeek(ctx, bson.M{"_id": weekID})
}

func (s *Store) GetCurrentWeek(ctx context.Context) (models.Week, error) {
	return s.findWeek(ctx, bson.M{"isCurrent": true})
}

func (s *Store) SaveWeek(ctx context.Context, week models.Week) (models.Week, error) {
	week.UpdatedAt = time.Now().UTC()

	coll := s.db.Collection(weeksCollection)
	res, err := coll.UpdateOne(ctx,
		bson.M{"_id": week.WeekID, "version": week.Version},
		bson.M{
			"$set": bson.M{
				"habits":    toEntryDocs(week.Habits),
				"progress":  week.Progress,
				"updatedAt": week.UpdatedAt,
			},
			"$inc": bson.M{"version": int64(1)},
		},
	)
	if err != nil {
		return models.Week{}, fmt.Errorf("failed to save week: %w", err)
	}
	if res.MatchedCount == 0 {
		n, err := coll.CountDocuments(ctx, bson.M{"_id": week.WeekID})
		if err != nil {
			return models.Week{}, err
		}
		if n == 0 {
			return models.Week{}, storage.ErrNotFound
		}
		return models.Week{}, storage.ErrConflict
	}

	week.Version++
	return week, nil
}

func weekFilter(pastOnly bool) bson.M {
	if pastOnly {
		return bson.M{"isCurrent": false}
	}
	return bson.M{}
}

func (s *Store) ListWeeks(ctx context.Context, q storage.WeekQuery) ([]models.Week, error) {
	opts := options.Find().SetSort(bson.D{{Key: "weekStart", Value: -1}})
	if q.Skip > 0 {
		opts.SetSkip(int64(q.Skip))
	}
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}
	return s.findWeeks(ctx, weekFilter(q.PastOnly), opts)
}

func (s *Store) CountWeeks(ctx context.Context, pastOnly bool) (int, error) {
	n, err := s.db.Collection(weeksCollection).CountDocuments(ctx, weekFilter(pastOnly))
	return int(n), err
}

func (s *Store) WeeksBetween(ctx context.Context, from, to time.Time) ([]models.Week, error) {
	filter := bson.M{"weekStart": bson.M{"$gte": storage.OverlapStart(from).UTC(), "$lte": to.UTC()}}
	return s.findWeeks(ctx, filter, options.Find().SetSort(bson.D{{Key: "weekStart", Value: 1}}))
}

func (s *Store) findWeeks(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Week, error) {
	cur, err := s.db.Collection(weeksCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var docs []weekDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	weeks := make([]models.Week, 0, len(docs))
	for _, d := range docs {
		w, err := d.model()
		if err != nil {
			return nil, err
		}
		weeks = append(weeks, w)
	}
	return weeks, nil
}
