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

// mongoEnrollmentRepository implements repository.EnrollmentRepository
type mongoEnrollmentRepository struct {
	collection *mongo.Collection
}

// NewMongoEnrollmentRepository creates a new Enrollment repository.
func NewMongoEnrollmentRepository(db *mongo.Database) repository.EnrollmentRepository {
	return &mongoEnrollmentRepository{
		collection: db.Collection(enrollmentCollectionName),
	}
}

// Create inserts a membership record.
func (r *mongoEnrollmentRepository) Create(ctx context.Context, enrollment *domain.Enrollment) (primitive.ObjectID, error) {
	if enrollment.UserID == primitive.NilObjectID || enrollment.CohortID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("enrollment requires userId and cohortId")
	}
	enrollment.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	enrollment.CreatedAt = now
	enrollment.UpdatedAt = now
	if enrollment.Status == "" {
		enrollment.Status = domain.EnrollmentActive
	}

	if _, err := r.collection.InsertOne(ctx, enrollment); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
		return primitive.NilObjectID, err
	}
	return enrollment.ID, nil
}

// GetByUserAndCohort fetches the single record for a (user, cohort) pair.
func (r *mongoEnrollmentRepository) GetByUserAndCohort(ctx context.Context, userID, cohortID primitive.ObjectID) (*domain.Enrollment, error) {
	return r.findOne(ctx, bson.M{"userId": userID, "cohortId": cohortID})
}

// GetActiveByUser fetches the participant's current membership.
func (r *mongoEnrollmentRepository) GetActiveByUser(ctx context.Context, userID primitive.ObjectID) (*domain.Enrollment, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "joinedAt", Value: -1}})
	return r.findOne(ctx, bson.M{"userId": userID, "status": domain.EnrollmentActive}, opts)
}

func (r *mongoEnrollmentRepository) findOne(ctx context.Context, filter bson.M, opts ...*options.FindOneOptions) (*domain.Enrollment, error) {
	var enrollment domain.Enrollment
	if err := r.collection.FindOne(ctx, filter, opts...).Decode(&enrollment); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &enrollment, nil
}

// GetByUser returns the participant's full history, newest first.
func (r *mongoEnrollmentRepository) GetByUser(ctx context.Context, userID primitive.ObjectID) ([]domain.Enrollment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "joinedAt", Value: -1}})
	return findAll[domain.Enrollment](ctx, r.collection, bson.M{"userId": userID}, opts)
}

// GetByCohort lists a cohort's records, optionally restricted to some statuses.
func (r *mongoEnrollmentRepository) GetByCohort(ctx context.Context, cohortID primitive.ObjectID, statuses ...domain.EnrollmentStatus) ([]domain.Enrollment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "joinedAt", Value: 1}})
	return findAll[domain.Enrollment](ctx, r.collection, cohortFilter(cohortID, statuses), opts)
}

// CountByCohort counts a cohort's records, optionally restricted to some statuses.
func (r *mongoEnrollmentRepository) CountByCohort(ctx context.Context, cohortID primitive.ObjectID, statuses ...domain.EnrollmentStatus) (int64, error) {
	return r.collection.CountDocuments(ctx, cohortFilter(cohortID, statuses))
}

func cohortFilter(cohortID primitive.ObjectID, statuses []domain.EnrollmentStatus) bson.M {
	filter := bson.M{"cohortId": cohortID}
	if len(statuses) > 0 {
		filter["status"] = bson.M{"$in": statuses}
	}
	return filter
}

// Update writes status, join and leave timestamps.
func (r *mongoEnrollmentRepository) Update(ctx context.Context, enrollment *domain.Enrollment) error {
	if enrollment.ID == primitive.NilObjectID {
		return errors.New("enrollment ID is required for update")
	}
	enrollment.UpdatedAt = time.Now().UTC()

	update := bson.M{"$set": bson.M{
		"status":    enrollment.Status,
		"joinedAt":  enrollment.JoinedAt,
		"updatedAt": enrollment.UpdatedAt,
	}}
	if enrollment.LeftAt != nil {
		update["$set"].(bson.M)["leftAt"] = *enrollment.LeftAt
	} else {
		update["$unset"] = bson.M{"leftAt": ""}
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": enrollment.ID}, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicate
		}
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func enrollmentIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "cohortId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			// One active membership per participant.
			Keys: bson.D{{Key: "userId", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"status": domain.EnrollmentActive}).
				SetName("userId_active_unique"),
		},
		{
			Keys: bson.D{{Key: "cohortId", Value: 1}, {Key: "status", Value: 1}},
		},
	}
}
