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

// mongoMealOptionRepository implements repository.MealOptionRepository
type mongoMealOptionRepository struct {
	collection *mongo.Collection
}

// NewMongoMealOptionRepository creates a new MealOption repository.
func NewMongoMealOptionRepository(db *mongo.Database) repository.MealOptionRepository {
	return &mongoMealOptionRepository{
		collection: db.Collection(mealOptionCollectionName),
	}
}

// Create inserts one option. A second option for the same slot of a program
// fails with repository.ErrDuplicate.
func (r *mongoMealOptionRepository) Create(ctx context.Context, option *domain.MealOption) (primitive.ObjectID, error) {
	if option.ProgramID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("meal option requires programId")
	}
	stampOption(option, time.Now().UTC())

	if _, err := r.collection.InsertOne(ctx, option); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
		return primitive.NilObjectID, err
	}
	return option.ID, nil
}

// CreateMany bulk-inserts options in a single round trip.
func (r *mongoMealOptionRepository) CreateMany(ctx context.Context, opts []domain.MealOption) error {
	if len(opts) == 0 {
		return nil
	}
	now := time.Now().UTC()
	docs := make([]interface{}, len(opts))
	for i := range opts {
		stampOption(&opts[i], now)
		docs[i] = opts[i]
	}
	if _, err := r.collection.InsertMany(ctx, docs); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicate
		}
		return err
	}
	return nil
}

func stampOption(o *domain.MealOption, now time.Time) {
	o.ID = primitive.NewObjectID()
	o.CreatedAt = now
	o.UpdatedAt = now
}

// GetByID retrieves an option by its ID.
func (r *mongoMealOptionRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.MealOption, error) {
	var option domain.MealOption
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&option); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &option, nil
}

// GetByProgram lists the options of a program, optionally for a single week.
func (r *mongoMealOptionRepository) GetByProgram(ctx context.Context, programID primitive.ObjectID, week *int) ([]domain.MealOption, error) {
	filter := bson.M{"programId": programID}
	if week != nil {
		filter["challengeWeek"] = *week
	}
	opts := options.Find().SetSort(bson.D{
		{Key: "challengeWeek", Value: 1},
		{Key: "challengeDay", Value: 1},
		{Key: "mealType", Value: -1}, // "lunch" before "dinner"
	})
	return findAll[domain.MealOption](ctx, r.collection, filter, opts)
}

// CountByImageRef counts options whose A or B alternative uses an image.
func (r *mongoMealOptionRepository) CountByImageRef(ctx context.Context, ref string) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"$or": bson.A{
		bson.M{"optionA.imageRef": ref},
		bson.M{"optionB.imageRef": ref},
	}})
}

// Update writes both alternatives. The slot key is immutable.
func (r *mongoMealOptionRepository) Update(ctx context.Context, option *domain.MealOption) error {
	if option.ID == primitive.NilObjectID {
		return errors.New("meal option ID is required for update")
	}
	option.UpdatedAt = time.Now().UTC()
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": option.ID},
		bson.M{"$set": bson.M{
			"optionA":   option.OptionA,
			"optionB":   option.OptionB,
			"updatedAt": option.UpdatedAt,
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

// DeleteByProgram removes every option of a program.
func (r *mongoMealOptionRepository) DeleteByProgram(ctx context.Context, programID primitive.ObjectID) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"programId": programID})
	return err
}

func mealOptionIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "programId", Value: 1},
				{Key: "challengeWeek", Value: 1},
				{Key: "challengeDay", Value: 1},
				{Key: "mealType", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "optionA.imageRef", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
		{
			Keys:    bson.D{{Key: "optionB.imageRef", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
	}
}
