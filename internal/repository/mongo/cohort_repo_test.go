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
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func createCohort(t *testing.T, repo repository.CohortRepository, name string) primitive.ObjectID {
	t.Helper()
	c := &domain.Cohort{Name: name, StartDate: time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC), DurationWeeks: 4}
	c.Recompute()
	id, err := repo.Create(context.Background(), c)
	require.NoError(t, err)
	return id
}

func activeCohortIDs(t *testing.T, db *mongo.Database) []primitive.ObjectID {
	t.Helper()
	cohorts, err := findAll[domain.Cohort](context.Background(), db.Collection(cohortCollectionName), bson.M{"isActive": true})
	require.NoError(t, err)
	ids := make([]primitive.ObjectID, 0, len(cohorts))
	for _, c := range cohorts {
		ids = append(ids, c.ID)
	}
	return ids
}

func TestCohortRepository_ActivateSwapsActiveCohort(t *testing.T) {
	db := testDatabase(t)
	repo := NewMongoCohortRepository(db)
	ctx := context.Background()
	a := createCohort(t, repo, "A")
	b := createCohort(t, repo, "B")

	require.NoError(t, repo.Activate(ctx, a))
	assert.Equal(t, []primitive.ObjectID{a}, activeCohortIDs(t, db))

	require.NoError(t, repo.Activate(ctx, b))
	assert.Equal(t, []primitive.ObjectID{b}, activeCohortIDs(t, db))

	active, err := repo.GetActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, b, active.ID)
}

func TestCohortRepository_ActivateUnknownRollsBack(t *testing.T) {
	db := testDatabase(t)
	repo := NewMongoCohortRepository(db)
	ctx := context.Background()
	a := createCohort(t, repo, "A")
	require.NoError(t, repo.Activate(ctx, a))

	err := repo.Activate(ctx, primitive.NewObjectID())
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Equal(t, []primitive.ObjectID{a}, activeCohortIDs(t, db), "prior active cohort survives the aborted swap")
}

func TestCohortRepository_IndexRefusesSecondActive(t *testing.T) {
	db := testDatabase(t)
	repo := NewMongoCohortRepository(db)
	ctx := context.Background()
	a := createCohort(t, repo, "A")
	b := createCohort(t, repo, "B")
	require.NoError(t, repo.Activate(ctx, a))

	_, err := db.Collection(cohortCollectionName).UpdateOne(ctx,
		bson.M{"_id": b}, bson.M{"$set": bson.M{"isActive": true}})
	require.Error(t, err)
	assert.True(t, mongo.IsDuplicateKeyError(err))
}

func TestCohortRepository_NoActive(t *testing.T) {
	db := testDatabase(t)
	repo := NewMongoCohortRepository(db)
	ctx := context.Background()
	a := createCohort(t, repo, "A")
	require.NoError(t, repo.Activate(ctx, a))
	require.NoError(t, repo.Deactivate(ctx, a))

	_, err := repo.GetActive(ctx)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
