package domain

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MealType identifies the slot of a day a meal option fills.
type MealType string

const (
	MealLunch  MealType = "lunch"
	MealDinner MealType = "dinner"
)

// MealTypes is the fixed per-day slot order used by views and exports.
var MealTypes = []MealType{MealLunch, MealDinner}

func (m MealType) Valid() bool {
	return m == MealLunch || m == MealDinner
}

// Choice is the alternative a participant picked for a slot.
type Choice string

const (
	ChoiceA Choice = "A"
	ChoiceB Choice = "B"
)

func (c Choice) Valid() bool {
	return c == ChoiceA || c == ChoiceB
}

// DaysPerProgramWeek bounds ChallengeDay to 1..7.
const DaysPerProgramWeek = 7

// MealAlternative is one of the two named dishes offered for a slot.
// ImageRef is either an absolute URL or an object key in file storage.
type MealAlternative struct {
	Name        string `bson:"name" json:"name"`
	Description string `bson:"description,omitempty" json:"description,omitempty"`
	ImageRef    string `bson:"imageRef,omitempty" json:"imageRef,omitempty"`
}

// MealOption is one lunch-or-dinner slot of a MealProgram.
// (ProgramID, ChallengeWeek, ChallengeDay, MealType) is unique.
type MealOption struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ProgramID     primitive.ObjectID `bson:"programId" json:"programId"`
	ChallengeWeek int                `bson:"challengeWeek" json:"challengeWeek"`
	ChallengeDay  int                `bson:"challengeDay" json:"challengeDay"` // 1-7
	DayOfWeek     *int               `bson:"dayOfWeek,omitempty" json:"dayOfWeek,omitempty"`
	MealType      MealType           `bson:"mealType" json:"mealType"`
	WeekStartDate *time.Time         `bson:"weekStartDate,omitempty" json:"weekStartDate,omitempty"`
	OptionA       MealAlternative    `bson:"optionA" json:"optionA"`
	OptionB       MealAlternative    `bson:"optionB" json:"optionB"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Alternative returns the dish behind a choice code.
func (o *MealOption) Alternative(c Choice) (MealAlternative, bool) {
	switch c {
	case ChoiceA:
		return o.OptionA, true
	case ChoiceB:
		return o.OptionB, true
	}
	return MealAlternative{}, false
}

// Copy returns a detached copy linked to another program, ready for insert.
func (o MealOption) Copy(programID primitive.ObjectID) MealOption {
	o.ID = primitive.NilObjectID
	o.ProgramID = programID
	if o.DayOfWeek != nil {
		d := *o.DayOfWeek
		o.DayOfWeek = &d
	}
	if o.WeekStartDate != nil {
		t := *o.WeekStartDate
		o.WeekStartDate = &t
	}
	return o
}

type slotKey struct {
	week int
	day  int
	meal MealType
}

// MealCatalog resolves choice codes to dish names for one program.
type MealCatalog struct {
	options map[slotKey]MealOption
}

// NewMealCatalog indexes options by (week, day, meal type). If the input
// holds duplicates for a slot the first one wins.
func NewMealCatalog(options []MealOption) *MealCatalog {
	c := &MealCatalog{options: make(map[slotKey]MealOption, len(options))}
	for _, o := range options {
		k := slotKey{week: o.ChallengeWeek, day: o.ChallengeDay, meal: o.MealType}
		if _, dup := c.options[k]; dup {
			continue
		}
		c.options[k] = o
	}
	return c
}

// Lookup finds the option configured for a slot.
func (c *MealCatalog) Lookup(week, day int, meal MealType) (MealOption, bool) {
	if c == nil {
		return MealOption{}, false
	}
	o, ok := c.options[slotKey{week: week, day: day, meal: meal}]
	return o, ok
}

// Resolve turns a choice into the dish name. The raw code comes back when
// week is nil or nothing is configured for the slot.
func (c *MealCatalog) Resolve(week *int, day int, meal MealType, choice Choice) string {
	if week == nil {
		return string(choice)
	}
	o, ok := c.Lookup(*week, day, meal)
	if !ok {
		return string(choice)
	}
	alt, ok := o.Alternative(choice)
	if !ok {
		return string(choice)
	}
	return alt.Name
}

// Len is the number of distinct slots in the catalog.
func (c *MealCatalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.options)
}

// SlotLabel renders a slot the way column headers do, e.g. "Day3_Lunch".
func SlotLabel(day int, meal MealType) string {
	switch meal {
	case MealLunch:
		return fmt.Sprintf("Day%d_Lunch", day)
	case MealDinner:
		return fmt.Sprintf("Day%d_Dinner", day)
	}
	return fmt.Sprintf("Day%d_%s", day, meal)
}
