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

// mongoMealProgramRepository implements repository.MealProgramRepository
type mongoMealProgramRepository struct {
	collection *mongo.Collection
}

// NewMongoMealProgramRepository creates a new MealProgram repository.
func NewMongoMealProgramRepository(db *mongo.Database) repository.MealProgramRepository {
	return &mongoMealProgramRepository{
		collection: db.Collection(mealProgramCollectionName),
	}
}

// Create inserts a new meal program.
func (r *mongoMealProgramRepository) Create(ctx context.Context, program *domain.MealProgram) (primitive.ObjectID, error) {
	if program.Name == "" {
		return primitive.NilObjectID, errors.New("program name is required")
	}
	program.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	program.CreatedAt = now
	program.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, program); err != nil {
		return primitive.NilObjectID, err
	}
	return program.ID, nil
}

// GetByID retrieves a single meal program by its ID.
func (r *mongoMealProgramRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.MealProgram, error) {
	var program domain.MealProgram
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&program); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &program, nil
}

// List returns all programs, newest first.
func (r *mongoMealProgramRepository) List(ctx context.Context) ([]domain.MealProgram, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	return findAll[domain.MealProgram](ctx, r.collection, bson.M{}, opts)
}

// Update writes name and description.
func (r *mongoMealProgramRepository) Update(ctx context.Context, program *domain.MealProgram) error {
	program.UpdatedAt = time.Now().UTC()
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": program.ID},
		bson.M{"$set": bson.M{
			"name":        program.Name,
			"description": program.Description,
			"updatedAt":   program.UpdatedAt,
		}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes a program record. Options are removed separately.
func (r *mongoMealProgramRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}
