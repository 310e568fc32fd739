package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/julianstephens/weeklit/internal/models"
	"github.com/julianstephens/weeklit/internal/storage"
)

func (s *Store) AddHabit(ctx context.Context, habit models.Habit) error {
	seq, err := s.nextSeq(ctx, habitsCollection)
	if err != nil {
		return err
	}
	if _, err := s.db.Collection(habitsCollection).InsertOne(ctx, toHabitDoc(habit, seq)); err != nil {
		return fmt.Errorf("failed to insert habit: %w", err)
	}
	return nil
}

func (s *Store) GetHabit(ctx context.Context, id string) (models.Habit, error) {
	var doc habitDoc
	err := s.db.Collection(habitsCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if isNoDocuments(err) {
		return models.Habit{}, storage.ErrNotFound
	}
	if err != nil {
		return models.Habit{}, err
	}
	return doc.model()
}

func habitFilter(activeOnly bool) bson.M {
	if activeOnly {
		return bson.M{"isActive": true}
	}
	return bson.M{}
}

func (s *Store) ListHabits(ctx context.Context, activeOnly bool) ([]models.Habit, error) {
	cur, err := s.db.Collection(habitsCollection).Find(ctx, habitFilter(activeOnly),
		options.Find().SetSort(bson.D{{Key: "seq", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []habitDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	habits := make([]models.Habit, 0, len(docs))
	for _, d := range docs {
		h, err := d.model()
		if err != nil {
			return nil, err
		}
		habits = append(habits, h)
	}
	return habits, nil
}

func (s *Store) UpdateHabit(ctx context.Context, habit models.Habit) error {
	res, err := s.db.Collection(habitsCollection).UpdateOne(ctx, bson.M{"_id": habit.ID}, bson.M{
		"$set": bson.M{
			"title":         habit.Title,
			"scheduledDays": habit.ScheduledDays.Strings(),
			"isActive":      habit.IsActive,
			"isCompulsory":  habit.IsCompulsory,
			"color":         habit.Color,
			"updatedAt":     habit.UpdatedAt.UTC(),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to update habit: %w", err)
	}
	if res.MatchedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) CountHabits(ctx context.Context, activeOnly bool) (int, error) {
	n, err := s.db.Collection(habitsCollection).CountDocuments(ctx, habitFilter(activeOnly))
	return int(n), err
}
