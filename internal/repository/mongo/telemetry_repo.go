package mongo

import (
	"alcyxob/challenge-admin/internal/domain"
	"alcyxob/challenge-admin/internal/repository"
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongoTelemetryRepository reads the habit collections written by the app.
type mongoTelemetryRepository struct {
	habits         *mongo.Collection
	checkIns       *mongo.Collection
	streaks        *mongo.Collection
	weeklyExercise *mongo.Collection
}

// NewMongoTelemetryRepository creates a new read-only telemetry repository.
func NewMongoTelemetryRepository(db *mongo.Database) repository.TelemetryRepository {
	return &mongoTelemetryRepository{
		habits:         db.Collection(dailyHabitCollectionName),
		checkIns:       db.Collection(checkInCollectionName),
		streaks:        db.Collection(streakCollectionName),
		weeklyExercise: db.Collection(weeklyExerciseCollectionName),
	}
}

func latestFirst(limit int64) *options.FindOptions {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	return opts
}

func (r *mongoTelemetryRepository) RecentCheckIns(ctx context.Context, userID primitive.ObjectID, limit int64) ([]domain.CheckIn, error) {
	return findAll[domain.CheckIn](ctx, r.checkIns, bson.M{"userId": userID}, latestFirst(limit))
}

func (r *mongoTelemetryRepository) RecentHabits(ctx context.Context, userID primitive.ObjectID, limit int64) ([]domain.DailyHabit, error) {
	return findAll[domain.DailyHabit](ctx, r.habits, bson.M{"userId": userID}, latestFirst(limit))
}

// HabitsForUsers returns every habit row of the given participants.
func (r *mongoTelemetryRepository) HabitsForUsers(ctx context.Context, userIDs []primitive.ObjectID) ([]domain.DailyHabit, error) {
	if len(userIDs) == 0 {
		return []domain.DailyHabit{}, nil
	}
	return findAll[domain.DailyHabit](ctx, r.habits, bson.M{"userId": bson.M{"$in": userIDs}})
}

// StreakByUser returns repository.ErrNotFound when the participant never checked in.
func (r *mongoTelemetryRepository) StreakByUser(ctx context.Context, userID primitive.ObjectID) (*domain.Streak, error) {
	var streak domain.Streak
	if err := r.streaks.FindOne(ctx, bson.M{"userId": userID}).Decode(&streak); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &streak, nil
}

func (r *mongoTelemetryRepository) StreaksForUsers(ctx context.Context, userIDs []primitive.ObjectID) ([]domain.Streak, error) {
	if len(userIDs) == 0 {
		return []domain.Streak{}, nil
	}
	return findAll[domain.Streak](ctx, r.streaks, bson.M{"userId": bson.M{"$in": userIDs}})
}

func (r *mongoTelemetryRepository) WeeklyExerciseByUser(ctx context.Context, userID primitive.ObjectID) ([]domain.WeeklyExercise, error) {
	opts := options.Find().SetSort(bson.D{{Key: "weekStartDate", Value: -1}})
	return findAll[domain.WeeklyExercise](ctx, r.weeklyExercise, bson.M{"userId": userID}, opts)
}
