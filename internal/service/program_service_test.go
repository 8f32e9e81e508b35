package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"alcyxob/challenge-admin/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newTestProgramService(e *env) ProgramService {
	return NewProgramService(e.programs, e.options, e.cohorts, e.storage, 0, zap.NewNop())
}

func alt(name string) domain.MealAlternative { return domain.MealAlternative{Name: name} }

func seedOptions(t *testing.T, svc ProgramService, programID primitive.ObjectID, weeks int) int {
	t.Helper()
	n := 0
	for w := 1; w <= weeks; w++ {
		for d := 1; d <= 7; d++ {
			for _, m := range domain.MealTypes {
				_, err := svc.CreateOption(context.Background(), programID, MealOptionInput{
					Week: w, Day: d, MealType: m,
					OptionA: domain.MealAlternative{Name: "A dish", ImageRef: "meal-options/shared.jpg"},
					OptionB: alt("B dish"),
				})
				require.NoError(t, err)
				n++
			}
		}
	}
	return n
}

func TestProgramCreateAndUpdate(t *testing.T) {
	e := newEnv()
	svc := newTestProgramService(e)
	ctx := context.Background()

	_, err := svc.Create(ctx, ProgramInput{Name: "  "})
	assert.ErrorIs(t, err, ErrValidation)

	p, err := svc.Create(ctx, ProgramInput{Name: "Lean", Description: " four weeks "})
	require.NoError(t, err)
	assert.Equal(t, "four weeks", p.Description)

	p, err = svc.Update(ctx, p.ID, ProgramInput{Name: "Lean v2"})
	require.NoError(t, err)
	assert.Equal(t, "Lean v2", p.Name)

	_, err = svc.Update(ctx, primitive.NewObjectID(), ProgramInput{Name: "x"})
	assert.ErrorIs(t, err, ErrProgramNotFound)
}

func TestProgramDuplicate_CopiesEveryOption(t *testing.T) {
	e := newEnv()
	src := e.addProgram("Base")
	svc := newTestProgramService(e)
	n := seedOptions(t, svc, src.ID, 2)
	ctx := context.Background()

	cp, err := svc.Duplicate(ctx, src.ID, "")
	require.NoError(t, err)
	assert.NotEqual(t, src.ID, cp.ID)
	assert.Equal(t, "Base (Copy)", cp.Name)

	orig, err := e.options.GetByProgram(ctx, src.ID, nil)
	require.NoError(t, err)
	copies, err := e.options.GetByProgram(ctx, cp.ID, nil)
	require.NoError(t, err)
	require.Len(t, copies, n)

	for i := range orig {
		assert.NotEqual(t, orig[i].ID, copies[i].ID)
		assert.Equal(t, cp.ID, copies[i].ProgramID)
		o, c := orig[i], copies[i]
		o.ID, o.ProgramID = primitive.NilObjectID, primitive.NilObjectID
		c.ID, c.ProgramID = primitive.NilObjectID, primitive.NilObjectID
		assert.Equal(t, o, c)
	}
}

func TestProgramDuplicate_CompensatesOnCopyFailure(t *testing.T) {
	e := newEnv()
	src := e.addProgram("Base")
	svc := newTestProgramService(e)
	seedOptions(t, svc, src.ID, 1)
	e.options.createManyErr = errors.New("bulk write failed")
	ctx := context.Background()

	_, err := svc.Duplicate(ctx, src.ID, "Copy")
	assert.EqualError(t, err, "bulk write failed")

	require.Len(t, e.programs.deleted, 1)
	assert.Len(t, e.programs.byID, 1)
	leftovers, err := e.options.GetByProgram(ctx, e.programs.deleted[0], nil)
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestProgramDelete_GuardedByCohorts(t *testing.T) {
	e := newEnv()
	p := e.addProgram("Base")
	e.addCohort("A", jan6, 4, &p.ID)
	e.addCohort("B", jan6, 4, &p.ID)
	e.addCohort("C", jan6, 4, &p.ID)
	svc := newTestProgramService(e)

	err := svc.Delete(context.Background(), p.ID)
	var integrity *IntegrityError
	require.ErrorAs(t, err, &integrity)
	assert.ErrorIs(t, err, ErrProgramInUse)
	assert.Equal(t, int64(3), integrity.Count)
	assert.Contains(t, err.Error(), "3 cohort(s)")
	assert.Contains(t, e.programs.byID, p.ID)
}

func TestProgramDelete_CascadesOptionsAndReleasesImages(t *testing.T) {
	e := newEnv()
	base := e.addProgram("Base")
	svc := newTestProgramService(e)
	seedOptions(t, svc, base.ID, 1)
	ctx := context.Background()

	cp, err := svc.Duplicate(ctx, base.ID, "")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, base.ID))
	left, _ := e.options.GetByProgram(ctx, base.ID, nil)
	assert.Empty(t, left)
	assert.Empty(t, e.storage.deleted, "the copy still uses the shared image")

	require.NoError(t, svc.Delete(ctx, cp.ID))
	assert.Equal(t, []string{"meal-options/shared.jpg"}, e.storage.deleted)
}

func TestProgramList_Counts(t *testing.T) {
	e := newEnv()
	p := e.addProgram("Base")
	e.addCohort("A", jan6, 4, &p.ID)
	svc := newTestProgramService(e)
	n := seedOptions(t, svc, p.ID, 1)

	list, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, int64(1), list[0].CohortCount)
	assert.Equal(t, n, list[0].OptionCount)
}

func TestCreateOption_Validation(t *testing.T) {
	e := newEnv()
	p := e.addProgram("Base")
	svc := newTestProgramService(e)
	ctx := context.Background()
	ok := MealOptionInput{Week: 1, Day: 3, MealType: domain.MealLunch, OptionA: alt("Chicken Salad"), OptionB: alt("Salmon Bowl")}

	bad := []MealOptionInput{
		{Week: 0, Day: 3, MealType: domain.MealLunch, OptionA: alt("a"), OptionB: alt("b")},
		{Week: 1, Day: 8, MealType: domain.MealLunch, OptionA: alt("a"), OptionB: alt("b")},
		{Week: 1, Day: 3, MealType: "breakfast", OptionA: alt("a"), OptionB: alt("b")},
		{Week: 1, Day: 3, MealType: domain.MealLunch, OptionA: alt(" "), OptionB: alt("b")},
	}
	for _, in := range bad {
		_, err := svc.CreateOption(ctx, p.ID, in)
		assert.ErrorIs(t, err, ErrValidation)
	}

	_, err := svc.CreateOption(ctx, p.ID, ok)
	require.NoError(t, err)
	_, err = svc.CreateOption(ctx, p.ID, ok)
	assert.ErrorIs(t, err, ErrMealOptionExists)
	_, err = svc.CreateOption(ctx, primitive.NewObjectID(), ok)
	assert.ErrorIs(t, err, ErrProgramNotFound)
}

func TestUpdateOption_ReleasesReplacedImage(t *testing.T) {
	e := newEnv()
	p := e.addProgram("Base")
	svc := newTestProgramService(e)
	ctx := context.Background()

	o, err := svc.CreateOption(ctx, p.ID, MealOptionInput{
		Week: 1, Day: 1, MealType: domain.MealDinner,
		OptionA: domain.MealAlternative{Name: "Soup", ImageRef: "meal-options/p/old.jpg"},
		OptionB: domain.MealAlternative{Name: "Stew", ImageRef: "https://cdn.test/stew.jpg"},
	})
	require.NoError(t, err)

	updated, err := svc.UpdateOption(ctx, o.ID,
		domain.MealAlternative{Name: "Soup", ImageRef: "meal-options/p/new.jpg"},
		domain.MealAlternative{Name: "Stew"})
	require.NoError(t, err)
	assert.Equal(t, "meal-options/p/new.jpg", updated.OptionA.ImageRef)
	assert.Equal(t, []string{"meal-options/p/old.jpg"}, e.storage.deleted, "external URLs are never deleted")

	_, err = svc.UpdateOption(ctx, primitive.NewObjectID(), alt("a"), alt("b"))
	assert.ErrorIs(t, err, ErrMealOptionNotFound)
}

func TestListOptions_ImageURLs(t *testing.T) {
	e := newEnv()
	p := e.addProgram("Base")
	svc := newTestProgramService(e)
	ctx := context.Background()
	_, err := svc.CreateOption(ctx, p.ID, MealOptionInput{
		Week: 2, Day: 1, MealType: domain.MealLunch,
		OptionA: domain.MealAlternative{Name: "a", ImageRef: "meal-options/p/a.jpg"},
		OptionB: domain.MealAlternative{Name: "b", ImageRef: "https://cdn.test/b.jpg"},
	})
	require.NoError(t, err)
	_, err = svc.CreateOption(ctx, p.ID, MealOptionInput{Week: 1, Day: 1, MealType: domain.MealLunch, OptionA: alt("x"), OptionB: alt("y")})
	require.NoError(t, err)

	views, err := svc.ListOptions(ctx, p.ID, intPtr(2))
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "https://download.test/meal-options/p/a.jpg", views[0].OptionAImageURL)
	assert.Equal(t, "https://cdn.test/b.jpg", views[0].OptionBImageURL)

	e.storage.failGet = true
	views, err = svc.ListOptions(ctx, p.ID, nil)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Empty(t, views[1].OptionAImageURL)
}

func TestRequestOptionImageUpload(t *testing.T) {
	e := newEnv()
	p := e.addProgram("Base")
	svc := newTestProgramService(e)
	ctx := context.Background()

	resp, err := svc.RequestOptionImageUpload(ctx, p.ID, "image/jpeg")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(resp.ObjectKey, "meal-options/"+p.ID.Hex()+"/"))
	assert.True(t, strings.HasSuffix(resp.ObjectKey, ".jpg"))
	assert.Contains(t, resp.UploadURL, resp.ObjectKey)

	_, err = svc.RequestOptionImageUpload(ctx, p.ID, "text/plain")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.RequestOptionImageUpload(ctx, primitive.NewObjectID(), "image/png")
	assert.ErrorIs(t, err, ErrProgramNotFound)
}
