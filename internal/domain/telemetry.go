package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// The records below are produced by the mobile app. The dashboard only reads them.

// DailyHabit is one day of logged habits for a participant.
type DailyHabit struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID         primitive.ObjectID `bson:"userId" json:"userId"`
	Date           time.Time          `bson:"date" json:"date"`
	Steps          *int               `bson:"steps,omitempty" json:"steps,omitempty"`
	WaterML        *int               `bson:"waterMl,omitempty" json:"waterMl,omitempty"`
	WeightKG       *float64           `bson:"weightKg,omitempty" json:"weightKg,omitempty"`
	MealAdherence  *bool              `bson:"mealAdherence,omitempty" json:"mealAdherence,omitempty"`
	StepsLoggedAt  *time.Time         `bson:"stepsLoggedAt,omitempty" json:"stepsLoggedAt,omitempty"`
	WaterLoggedAt  *time.Time         `bson:"waterLoggedAt,omitempty" json:"waterLoggedAt,omitempty"`
	WeightLoggedAt *time.Time         `bson:"weightLoggedAt,omitempty" json:"weightLoggedAt,omitempty"`
	MealLoggedAt   *time.Time         `bson:"mealLoggedAt,omitempty" json:"mealLoggedAt,omitempty"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
}

// CheckIn is a participant's end-of-day reflection.
type CheckIn struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID          primitive.ObjectID `bson:"userId" json:"userId"`
	Date            time.Time          `bson:"date" json:"date"`
	ChallengesFaced string             `bson:"challengesFaced" json:"challengesFaced"`
	HabitsSummary   map[string]any     `bson:"habitsSummary,omitempty" json:"habitsSummary,omitempty"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
}

// Streak tracks consecutive check-in days.
type Streak struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID          primitive.ObjectID `bson:"userId" json:"userId"`
	CurrentStreak   int                `bson:"currentStreak" json:"currentStreak"`
	LongestStreak   int                `bson:"longestStreak" json:"longestStreak"`
	LastCheckInDate *time.Time         `bson:"lastCheckInDate,omitempty" json:"lastCheckInDate,omitempty"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// WeeklyExercise records whether the participant trained 3x in a week.
type WeeklyExercise struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID        primitive.ObjectID `bson:"userId" json:"userId"`
	WeekStartDate time.Time          `bson:"weekStartDate" json:"weekStartDate"`
	Completed3x   bool               `bson:"completed3x" json:"completed3x"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
}
