package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MealProgram is a reusable N-week template of lunch/dinner A/B choices.
type MealProgram struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}
