package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func intPtr(i int) *int { return &i }

func sampleCatalog() *MealCatalog {
	return NewMealCatalog([]MealOption{
		{
			ChallengeWeek: 1, ChallengeDay: 3, MealType: MealLunch,
			OptionA: MealAlternative{Name: "Chicken Salad"},
			OptionB: MealAlternative{Name: "Salmon Bowl"},
		},
		{
			ChallengeWeek: 1, ChallengeDay: 3, MealType: MealDinner,
			OptionA: MealAlternative{Name: "Lentil Soup"},
			OptionB: MealAlternative{Name: "Beef Stew"},
		},
	})
}

func TestMealCatalog_Resolve(t *testing.T) {
	c := sampleCatalog()

	assert.Equal(t, "Chicken Salad", c.Resolve(intPtr(1), 3, MealLunch, ChoiceA))
	assert.Equal(t, "Salmon Bowl", c.Resolve(intPtr(1), 3, MealLunch, ChoiceB))
	assert.Equal(t, "Beef Stew", c.Resolve(intPtr(1), 3, MealDinner, ChoiceB))
}

func TestMealCatalog_ResolveFallsBackToRawChoice(t *testing.T) {
	c := sampleCatalog()

	assert.Equal(t, "A", c.Resolve(intPtr(1), 3, MealType("breakfast"), ChoiceA))
	assert.Equal(t, "B", c.Resolve(intPtr(2), 3, MealLunch, ChoiceB))
	assert.Equal(t, "A", c.Resolve(intPtr(1), 4, MealLunch, ChoiceA))
	assert.Equal(t, "A", c.Resolve(nil, 3, MealLunch, ChoiceA), "nil week short-circuits")
	assert.Equal(t, "C", c.Resolve(intPtr(1), 3, MealLunch, Choice("C")))
}

func TestMealCatalog_NilCatalog(t *testing.T) {
	var c *MealCatalog
	assert.Equal(t, "B", c.Resolve(intPtr(1), 1, MealLunch, ChoiceB))
	assert.Equal(t, 0, c.Len())
}

func TestMealCatalog_FirstDuplicateWins(t *testing.T) {
	c := NewMealCatalog([]MealOption{
		{ChallengeWeek: 1, ChallengeDay: 1, MealType: MealLunch, OptionA: MealAlternative{Name: "First"}},
		{ChallengeWeek: 1, ChallengeDay: 1, MealType: MealLunch, OptionA: MealAlternative{Name: "Second"}},
	})
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, "First", c.Resolve(intPtr(1), 1, MealLunch, ChoiceA))
}

func TestMealOption_CopyDetachesPointers(t *testing.T) {
	orig := MealOption{
		ID:            primitive.NewObjectID(),
		ProgramID:     primitive.NewObjectID(),
		ChallengeWeek: 2,
		ChallengeDay:  5,
		DayOfWeek:     intPtr(5),
		MealType:      MealDinner,
		OptionA:       MealAlternative{Name: "Tofu", ImageRef: "meal-options/a.jpg"},
		OptionB:       MealAlternative{Name: "Pasta"},
	}
	newProgram := primitive.NewObjectID()

	cp := orig.Copy(newProgram)

	assert.Equal(t, primitive.NilObjectID, cp.ID)
	assert.Equal(t, newProgram, cp.ProgramID)
	assert.Equal(t, orig.OptionA, cp.OptionA)
	require.NotNil(t, cp.DayOfWeek)
	*cp.DayOfWeek = 1
	assert.Equal(t, 5, *orig.DayOfWeek)
}

func TestMealSelection_Choice(t *testing.T) {
	s := MealSelection{Slots: []SlotChoice{
		{Day: 1, Meal: MealLunch, Choice: ChoiceA},
		{Day: 1, Meal: MealDinner, Choice: ChoiceB},
		{Day: 2, Meal: MealLunch, Choice: Choice("Z")},
	}}

	c, ok := s.Choice(1, MealDinner)
	assert.True(t, ok)
	assert.Equal(t, ChoiceB, c)

	_, ok = s.Choice(2, MealLunch)
	assert.False(t, ok, "invalid codes are ignored")

	_, ok = s.Choice(7, MealDinner)
	assert.False(t, ok)
}

func TestSlotLabel(t *testing.T) {
	assert.Equal(t, "Day1_Lunch", SlotLabel(1, MealLunch))
	assert.Equal(t, "Day7_Dinner", SlotLabel(7, MealDinner))
}
