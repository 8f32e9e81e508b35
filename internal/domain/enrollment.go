package domain

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EnrollmentStatus type for the participant/cohort membership lifecycle
type EnrollmentStatus string

const (
	EnrollmentActive    EnrollmentStatus = "active"
	EnrollmentCompleted EnrollmentStatus = "completed" // Moved on to another cohort
	EnrollmentLeft      EnrollmentStatus = "left"      // Removed by an admin
)

var ErrInvalidTransition = errors.New("invalid enrollment transition")

// IsTerminal reports whether the status means "not currently enrolled".
func (s EnrollmentStatus) IsTerminal() bool {
	return s == EnrollmentCompleted || s == EnrollmentLeft
}

// Enrollment links a Profile to a Cohort. At most one record exists per
// (UserID, CohortID) and at most one record per UserID is active.
type Enrollment struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	CohortID  primitive.ObjectID `bson:"cohortId" json:"cohortId"`
	JoinedAt  time.Time          `bson:"joinedAt" json:"joinedAt"`
	LeftAt    *time.Time         `bson:"leftAt,omitempty" json:"leftAt,omitempty"`
	Status    EnrollmentStatus   `bson:"status" json:"status"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// NewEnrollment starts an active membership.
func NewEnrollment(userID, cohortID primitive.ObjectID, now time.Time) *Enrollment {
	return &Enrollment{
		UserID:   userID,
		CohortID: cohortID,
		JoinedAt: now,
		Status:   EnrollmentActive,
	}
}

// Complete closes an active membership because the participant moved on.
func (e *Enrollment) Complete(now time.Time) error {
	return e.close(EnrollmentCompleted, now)
}

// Leave closes an active membership because an admin removed the participant.
func (e *Enrollment) Leave(now time.Time) error {
	return e.close(EnrollmentLeft, now)
}

func (e *Enrollment) close(to EnrollmentStatus, now time.Time) error {
	if e.Status != EnrollmentActive {
		return ErrInvalidTransition
	}
	e.Status = to
	e.LeftAt = &now
	return nil
}

// Reactivate reopens a closed membership for the same cohort.
func (e *Enrollment) Reactivate(now time.Time) error {
	if !e.Status.IsTerminal() {
		return ErrInvalidTransition
	}
	e.Status = EnrollmentActive
	e.LeftAt = nil
	e.JoinedAt = now
	return nil
}
