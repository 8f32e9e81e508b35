package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SlotChoice is what a participant picked for one day/meal of a week.
type SlotChoice struct {
	Day    int      `bson:"day" json:"day"` // 1-7
	Meal   MealType `bson:"meal" json:"meal"`
	Choice Choice   `bson:"choice" json:"choice"`
}

// MealSelection is a participant's weekly pick list, written by the mobile app.
// Once Locked it is never modified.
type MealSelection struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID             primitive.ObjectID `bson:"userId" json:"userId"`
	ChallengeWeek      *int               `bson:"challengeWeek,omitempty" json:"challengeWeek,omitempty"` // nil for legacy rows
	WeekStartDate      time.Time          `bson:"weekStartDate" json:"weekStartDate"`
	Slots              []SlotChoice       `bson:"slots" json:"slots"`
	DeliveryPreference string             `bson:"deliveryPreference,omitempty" json:"deliveryPreference,omitempty"`
	Locked             bool               `bson:"locked" json:"locked"`
	LockedAt           *time.Time         `bson:"lockedAt,omitempty" json:"lockedAt,omitempty"`
	CreatedAt          time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Choice returns the pick for a slot, if any. Later entries for the same
// slot override earlier ones.
func (s *MealSelection) Choice(day int, meal MealType) (Choice, bool) {
	var (
		found Choice
		ok    bool
	)
	for _, sc := range s.Slots {
		if sc.Day == day && sc.Meal == meal && sc.Choice.Valid() {
			found, ok = sc.Choice, true
		}
	}
	return found, ok
}
