package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Default connection timeout
const defaultTimeout = 10 * time.Second

// Collection names, one per record set.
const (
	profileCollectionName        = "profiles"
	cohortCollectionName         = "cohorts"
	mealProgramCollectionName    = "meal_programs"
	mealOptionCollectionName     = "meal_options"
	mealSelectionCollectionName  = "meal_selections"
	enrollmentCollectionName     = "cohort_participants"
	dailyHabitCollectionName     = "daily_habits"
	checkInCollectionName        = "check_ins"
	streakCollectionName         = "streaks"
	weeklyExerciseCollectionName = "weekly_exercise"
	revokedTokenCollectionName   = "revoked_tokens"
)

// ConnectDB establishes a connection to MongoDB using the provided URI.
// It returns the mongo.Client which can be used to access databases and collections.
func ConnectDB(uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	// Ping the primary; the connect call alone does not prove the server answers.
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer pingCancel()

	if err = client.Ping(pingCtx, readpref.Primary()); err != nil {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer disconnectCancel()
		_ = client.Disconnect(disconnectCtx)
		return nil, err
	}

	return client, nil
}

// DisconnectDB gracefully disconnects the MongoDB client.
func DisconnectDB(client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	return client.Disconnect(ctx)
}

// EnsureIndexes creates every index the repositories rely on.
// Call this once during application startup.
func EnsureIndexes(ctx context.Context, db *mongo.Database, logger *zap.Logger) {
	ensure := func(name string, indexes []mongo.IndexModel) {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, indexes); err != nil {
			logger.Warn("Failed to create indexes", zap.String("collection", name), zap.Error(err))
		}
	}
	ensure(profileCollectionName, profileIndexes())
	ensure(cohortCollectionName, cohortIndexes())
	ensure(mealOptionCollectionName, mealOptionIndexes())
	ensure(enrollmentCollectionName, enrollmentIndexes())
	ensure(mealSelectionCollectionName, mealSelectionIndexes())
	ensure(revokedTokenCollectionName, revokedTokenIndexes())
	for _, name := range []string{dailyHabitCollectionName, checkInCollectionName} {
		ensure(name, []mongo.IndexModel{{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "date", Value: -1}}}})
	}
	ensure(weeklyExerciseCollectionName, []mongo.IndexModel{{
		Keys: bson.D{{Key: "userId", Value: 1}, {Key: "weekStartDate", Value: 1}},
	}})
	ensure(streakCollectionName, []mongo.IndexModel{{
		Keys:    bson.D{{Key: "userId", Value: 1}},
		Options: options.Index().SetUnique(true),
	}})
}

// findAll runs a query and decodes every document into a slice.
func findAll[T any](ctx context.Context, coll *mongo.Collection, filter any, opts ...*options.FindOptions) ([]T, error) {
	cursor, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := []T{}
	if err = cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
