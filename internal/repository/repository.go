package repository

import (
	"alcyxob/challenge-admin/internal/domain"
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for repository layer
var (
	ErrNotFound     = RepositoryError("not found")
	ErrDuplicate    = RepositoryError("duplicate key")
	ErrUpdateFailed = RepositoryError("update failed")
	ErrDeleteFailed = RepositoryError("delete failed")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// ProfileRepository defines the interface for interacting with profile data.
type ProfileRepository interface {
	Create(ctx context.Context, profile *domain.Profile) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.Profile, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Profile, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.Profile, error)
	Update(ctx context.Context, profile *domain.Profile) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// CohortRepository defines the interface for interacting with cohort data.
type CohortRepository interface {
	Create(ctx context.Context, cohort *domain.Cohort) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Cohort, error)
	GetActive(ctx context.Context) (*domain.Cohort, error)
	List(ctx context.Context) ([]domain.Cohort, error) // Newest start date first
	ListByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.Cohort, error)
	CountByProgram(ctx context.Context, programID primitive.ObjectID) (int64, error)
	Update(ctx context.Context, cohort *domain.Cohort) error
	// Activate makes id the only active cohort in a single atomic step.
	Activate(ctx context.Context, id primitive.ObjectID) error
	Deactivate(ctx context.Context, id primitive.ObjectID) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// MealProgramRepository defines the interface for interacting with meal program data.
type MealProgramRepository interface {
	Create(ctx context.Context, program *domain.MealProgram) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.MealProgram, error)
	List(ctx context.Context) ([]domain.MealProgram, error) // Newest first
	Update(ctx context.Context, program *domain.MealProgram) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// MealOptionRepository defines the interface for interacting with meal option data.
type MealOptionRepository interface {
	Create(ctx context.Context, option *domain.MealOption) (primitive.ObjectID, error)
	CreateMany(ctx context.Context, options []domain.MealOption) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.MealOption, error)
	// GetByProgram lists options ordered by week, day and meal type.
	// A nil week returns every week.
	GetByProgram(ctx context.Context, programID primitive.ObjectID, week *int) ([]domain.MealOption, error)
	CountByImageRef(ctx context.Context, ref string) (int64, error)
	Update(ctx context.Context, option *domain.MealOption) error
	DeleteByProgram(ctx context.Context, programID primitive.ObjectID) error
}

// EnrollmentRepository defines the interface for interacting with cohort membership data.
type EnrollmentRepository interface {
	// Create fails with ErrDuplicate when the (user, cohort) pair already exists.
	Create(ctx context.Context, enrollment *domain.Enrollment) (primitive.ObjectID, error)
	GetByUserAndCohort(ctx context.Context, userID, cohortID primitive.ObjectID) (*domain.Enrollment, error)
	// GetActiveByUser returns the most recently joined active record.
	GetActiveByUser(ctx context.Context, userID primitive.ObjectID) (*domain.Enrollment, error)
	GetByUser(ctx context.Context, userID primitive.ObjectID) ([]domain.Enrollment, error) // Newest joined first
	GetByCohort(ctx context.Context, cohortID primitive.ObjectID, statuses ...domain.EnrollmentStatus) ([]domain.Enrollment, error)
	CountByCohort(ctx context.Context, cohortID primitive.ObjectID, statuses ...domain.EnrollmentStatus) (int64, error)
	Update(ctx context.Context, enrollment *domain.Enrollment) error
}

// SelectionFilter narrows meal selection queries.
type SelectionFilter struct {
	UserIDs []primitive.ObjectID // nil means any user, empty means nobody
	Week    *int
	From    *time.Time // Inclusive lower bound on WeekStartDate
	To      *time.Time // Inclusive upper bound on WeekStartDate
}

// MealSelectionRepository is read-only; selections are written by the mobile app.
type MealSelectionRepository interface {
	Find(ctx context.Context, filter SelectionFilter) ([]domain.MealSelection, error) // Week asc, createdAt desc
	Count(ctx context.Context, filter SelectionFilter) (int64, error)
	GetByUser(ctx context.Context, userID primitive.ObjectID) ([]domain.MealSelection, error)
}

// TelemetryRepository gives read access to app-produced habit data.
type TelemetryRepository interface {
	RecentCheckIns(ctx context.Context, userID primitive.ObjectID, limit int64) ([]domain.CheckIn, error)
	RecentHabits(ctx context.Context, userID primitive.ObjectID, limit int64) ([]domain.DailyHabit, error)
	HabitsForUsers(ctx context.Context, userIDs []primitive.ObjectID) ([]domain.DailyHabit, error)
	StreakByUser(ctx context.Context, userID primitive.ObjectID) (*domain.Streak, error)
	StreaksForUsers(ctx context.Context, userIDs []primitive.ObjectID) ([]domain.Streak, error)
	WeeklyExerciseByUser(ctx context.Context, userID primitive.ObjectID) ([]domain.WeeklyExercise, error)
}

// TokenRepository stores revoked session tokens until they would have expired.
type TokenRepository interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
