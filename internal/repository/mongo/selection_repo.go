package mongo

import (
	"alcyxob/challenge-admin/internal/domain"
	"alcyxob/challenge-admin/internal/repository"
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongoMealSelectionRepository implements repository.MealSelectionRepository
type mongoMealSelectionRepository struct {
	collection *mongo.Collection
}

// NewMongoMealSelectionRepository creates a new MealSelection repository.
func NewMongoMealSelectionRepository(db *mongo.Database) repository.MealSelectionRepository {
	return &mongoMealSelectionRepository{
		collection: db.Collection(mealSelectionCollectionName),
	}
}

// selectionQuery translates a filter into a bson document. The second
// return is false when the filter can match nothing.
func selectionQuery(f repository.SelectionFilter) (bson.M, bool) {
	query := bson.M{}
	if f.UserIDs != nil {
		if len(f.UserIDs) == 0 {
			return nil, false
		}
		query["userId"] = bson.M{"$in": f.UserIDs}
	}
	if f.Week != nil {
		query["challengeWeek"] = *f.Week
	}
	if f.From != nil || f.To != nil {
		bounds := bson.M{}
		if f.From != nil {
			bounds["$gte"] = *f.From
		}
		if f.To != nil {
			bounds["$lte"] = *f.To
		}
		query["weekStartDate"] = bounds
	}
	return query, true
}

// Find returns matching selections ordered by week then newest first.
func (r *mongoMealSelectionRepository) Find(ctx context.Context, f repository.SelectionFilter) ([]domain.MealSelection, error) {
	query, ok := selectionQuery(f)
	if !ok {
		return []domain.MealSelection{}, nil
	}
	opts := options.Find().SetSort(bson.D{
		{Key: "challengeWeek", Value: 1},
		{Key: "createdAt", Value: -1},
	})
	return findAll[domain.MealSelection](ctx, r.collection, query, opts)
}

// Count returns the number of matching selections.
func (r *mongoMealSelectionRepository) Count(ctx context.Context, f repository.SelectionFilter) (int64, error) {
	query, ok := selectionQuery(f)
	if !ok {
		return 0, nil
	}
	return r.collection.CountDocuments(ctx, query)
}

// GetByUser returns a participant's selections, latest week first.
func (r *mongoMealSelectionRepository) GetByUser(ctx context.Context, userID primitive.ObjectID) ([]domain.MealSelection, error) {
	opts := options.Find().SetSort(bson.D{{Key: "weekStartDate", Value: -1}})
	return findAll[domain.MealSelection](ctx, r.collection, bson.M{"userId": userID}, opts)
}

func mealSelectionIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "userId", Value: 1}, {Key: "weekStartDate", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "challengeWeek", Value: 1}, {Key: "createdAt", Value: -1}},
		},
	}
}
