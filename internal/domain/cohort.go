package domain

import (
	"time"

	"alcyxob/challenge-admin/internal/schedule"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Cohort is a time-boxed challenge group sharing a start date and duration.
type Cohort struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Name          string              `bson:"name" json:"name"`
	StartDate     time.Time           `bson:"startDate" json:"startDate"`
	EndDate       time.Time           `bson:"endDate" json:"endDate"` // Derived, see Recompute
	DurationWeeks int                 `bson:"durationWeeks" json:"durationWeeks"`
	IsActive      bool                `bson:"isActive" json:"isActive"` // At most one system-wide
	MealProgramID *primitive.ObjectID `bson:"mealProgramId,omitempty" json:"mealProgramId,omitempty"`
	CreatedAt     time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// Recompute normalizes the start date and derives the end date from it.
func (c *Cohort) Recompute() {
	c.StartDate = schedule.Date(c.StartDate)
	c.EndDate = schedule.EndDate(c.StartDate, c.DurationWeeks)
}

// CurrentWeek is the 1-based week today falls in, 0 outside the window.
func (c *Cohort) CurrentWeek(today time.Time) (int, schedule.Phase) {
	return schedule.CurrentWeek(c.StartDate, c.DurationWeeks, today)
}

// Weeks lists the week boundaries of the cohort.
func (c *Cohort) Weeks() []schedule.Week {
	return schedule.Weeks(c.StartDate, c.DurationWeeks)
}
