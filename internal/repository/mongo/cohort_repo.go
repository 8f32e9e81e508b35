package mongo

import (
	"alcyxob/challenge-admin/internal/domain"
	"alcyxob/challenge-admin/internal/repository"
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongoCohortRepository implements repository.CohortRepository
type mongoCohortRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongoCohortRepository creates a new Cohort repository backed by MongoDB.
// Activation runs in a multi-document transaction, so the deployment must be
// a replica set.
func NewMongoCohortRepository(db *mongo.Database) repository.CohortRepository {
	return &mongoCohortRepository{
		client:     db.Client(),
		collection: db.Collection(cohortCollectionName),
	}
}

// Create inserts a new cohort. New cohorts always start inactive.
func (r *mongoCohortRepository) Create(ctx context.Context, cohort *domain.Cohort) (primitive.ObjectID, error) {
	if cohort.Name == "" {
		return primitive.NilObjectID, errors.New("cohort name is required")
	}
	cohort.ID = primitive.NewObjectID()
	cohort.IsActive = false
	now := time.Now().UTC()
	cohort.CreatedAt = now
	cohort.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, cohort); err != nil {
		return primitive.NilObjectID, err
	}
	return cohort.ID, nil
}

// GetByID retrieves a cohort by its ID.
func (r *mongoCohortRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Cohort, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// GetActive retrieves the single active cohort, if any.
func (r *mongoCohortRepository) GetActive(ctx context.Context) (*domain.Cohort, error) {
	return r.findOne(ctx, bson.M{"isActive": true})
}

func (r *mongoCohortRepository) findOne(ctx context.Context, filter bson.M) (*domain.Cohort, error) {
	var cohort domain.Cohort
	if err := r.collection.FindOne(ctx, filter).Decode(&cohort); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &cohort, nil
}

// List returns every cohort, most recent start date first.
func (r *mongoCohortRepository) List(ctx context.Context) ([]domain.Cohort, error) {
	opts := options.Find().SetSort(bson.D{{Key: "startDate", Value: -1}, {Key: "_id", Value: 1}})
	return findAll[domain.Cohort](ctx, r.collection, bson.M{}, opts)
}

// ListByIDs returns the cohorts with the given ids.
func (r *mongoCohortRepository) ListByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.Cohort, error) {
	if len(ids) == 0 {
		return []domain.Cohort{}, nil
	}
	return findAll[domain.Cohort](ctx, r.collection, bson.M{"_id": bson.M{"$in": ids}})
}

// CountByProgram counts cohorts that reference a meal program.
func (r *mongoCohortRepository) CountByProgram(ctx context.Context, programID primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"mealProgramId": programID})
}

// Update writes name, dates, duration and program. The active flag is only
// changed through Activate/Deactivate.
func (r *mongoCohortRepository) Update(ctx context.Context, cohort *domain.Cohort) error {
	if cohort.ID == primitive.NilObjectID {
		return errors.New("cohort ID is required for update")
	}
	cohort.UpdatedAt = time.Now().UTC()

	set := bson.M{
		"name":          cohort.Name,
		"startDate":     cohort.StartDate,
		"endDate":       cohort.EndDate,
		"durationWeeks": cohort.DurationWeeks,
		"updatedAt":     cohort.UpdatedAt,
	}
	update := bson.M{"$set": set}
	if cohort.MealProgramID != nil {
		set["mealProgramId"] = *cohort.MealProgramID
	} else {
		update["$unset"] = bson.M{"mealProgramId": ""}
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": cohort.ID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Activate deactivates every other cohort and activates id inside one
// transaction, so readers never observe zero or two active cohorts.
func (r *mongoCohortRepository) Activate(ctx context.Context, id primitive.ObjectID) error {
	session, err := r.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		now := time.Now().UTC()
		if _, err := r.collection.UpdateMany(sc,
			bson.M{"_id": bson.M{"$ne": id}, "isActive": true},
			bson.M{"$set": bson.M{"isActive": false, "updatedAt": now}},
		); err != nil {
			return nil, err
		}
		result, err := r.collection.UpdateOne(sc,
			bson.M{"_id": id},
			bson.M{"$set": bson.M{"isActive": true, "updatedAt": now}},
		)
		if err != nil {
			return nil, err
		}
		if result.MatchedCount == 0 {
			return nil, repository.ErrNotFound
		}
		return nil, nil
	})
	return err
}

// Deactivate clears the active flag of one cohort.
func (r *mongoCohortRepository) Deactivate(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"isActive": false, "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes a cohort.
func (r *mongoCohortRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func cohortIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			// The store itself refuses a second active cohort.
			Keys: bson.D{{Key: "isActive", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"isActive": true}),
		},
		{
			Keys: bson.D{{Key: "mealProgramId", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "startDate", Value: -1}},
		},
	}
}
