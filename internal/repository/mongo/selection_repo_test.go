//go:build integration

package mongo

import (
	"alcyxob/challenge-admin/internal/domain"
	"alcyxob/challenge-admin/internal/repository"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestSelectionRepository_UserScoping(t *testing.T) {
	db := testDatabase(t)
	repo := NewMongoMealSelectionRepository(db)
	ctx := context.Background()
	u1, u2 := primitive.NewObjectID(), primitive.NewObjectID()
	week1, week2 := 1, 2
	start := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)

	docs := []interface{}{
		domain.MealSelection{ID: primitive.NewObjectID(), UserID: u1, ChallengeWeek: &week1, WeekStartDate: start, CreatedAt: start},
		domain.MealSelection{ID: primitive.NewObjectID(), UserID: u2, ChallengeWeek: &week2, WeekStartDate: start.AddDate(0, 0, 7), CreatedAt: start},
	}
	_, err := db.Collection(mealSelectionCollectionName).InsertMany(ctx, docs)
	require.NoError(t, err)

	all, err := repo.Find(ctx, repository.SelectionFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	none, err := repo.Find(ctx, repository.SelectionFilter{UserIDs: []primitive.ObjectID{}})
	require.NoError(t, err)
	assert.Empty(t, none)

	n, err := repo.Count(ctx, repository.SelectionFilter{UserIDs: []primitive.ObjectID{}})
	require.NoError(t, err)
	assert.Zero(t, n)

	scoped, err := repo.Find(ctx, repository.SelectionFilter{UserIDs: []primitive.ObjectID{u2}, Week: &week2})
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, u2, scoped[0].UserID)
}
