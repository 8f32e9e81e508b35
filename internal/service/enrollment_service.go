package service

import (
	"alcyxob/challenge-admin/internal/domain"
	"alcyxob/challenge-admin/internal/repository"
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// EnrollmentHistoryEntry is one membership record with its cohort's name.
type EnrollmentHistoryEntry struct {
	domain.Enrollment
	CohortName string `json:"cohortName"`
}

// DeletedCohortName labels history records whose cohort no longer exists.
const DeletedCohortName = "(deleted cohort)"

// EnrollmentService moves participants between cohorts. The enrollment
// records are the only source of membership; a participant's current cohort
// is their active record.
type EnrollmentService interface {
	// Enroll makes cohortID the participant's only active membership. A prior
	// active membership elsewhere is completed; a closed record for the same
	// cohort is reactivated.
	Enroll(ctx context.Context, userID, cohortID primitive.ObjectID) (*domain.Enrollment, error)
	// Remove marks the participant as having left the cohort.
	Remove(ctx context.Context, userID, cohortID primitive.ObjectID) (*domain.Enrollment, error)
	// CurrentCohort returns nil without error when the participant has no active membership.
	CurrentCohort(ctx context.Context, userID primitive.ObjectID) (*domain.Cohort, *domain.Enrollment, error)
	History(ctx context.Context, userID primitive.ObjectID) ([]EnrollmentHistoryEntry, error)
}

type enrollmentService struct {
	enrollmentRepo repository.EnrollmentRepository
	cohortRepo     repository.CohortRepository
	profileRepo    repository.ProfileRepository
	logger         *zap.Logger
	now            func() time.Time
}

// NewEnrollmentService creates a new instance of enrollmentService.
func NewEnrollmentService(
	enrollmentRepo repository.EnrollmentRepository,
	cohortRepo repository.CohortRepository,
	profileRepo repository.ProfileRepository,
	logger *zap.Logger,
) EnrollmentService {
	return &enrollmentService{
		enrollmentRepo: enrollmentRepo,
		cohortRepo:     cohortRepo,
		profileRepo:    profileRepo,
		logger:         logger,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

func (s *enrollmentService) Enroll(ctx context.Context, userID, cohortID primitive.ObjectID) (*domain.Enrollment, error) {
	if err := s.checkParticipant(ctx, userID); err != nil {
		return nil, err
	}
	if _, err := getCohort(ctx, s.cohortRepo, cohortID); err != nil {
		return nil, err
	}
	now := s.now()

	current, err := s.enrollmentRepo.GetActiveByUser(ctx, userID)
	switch {
	case err == nil && current.CohortID == cohortID:
		return current, nil
	case err == nil:
		if err := current.Complete(now); err != nil {
			return nil, err
		}
		if err := s.enrollmentRepo.Update(ctx, current); err != nil {
			s.logger.Error("Failed to complete prior enrollment",
				zap.String("user_id", userID.Hex()),
				zap.String("cohort_id", current.CohortID.Hex()),
				zap.Error(err))
			return nil, err
		}
	case !errors.Is(err, repository.ErrNotFound):
		return nil, err
	}

	enrollment, err := s.enrollInto(ctx, userID, cohortID, now)
	if err != nil && current != nil {
		s.restore(ctx, current, now)
	}
	return enrollment, err
}

// enrollInto reactivates or creates the record for the pair. The caller has
// already closed any other active membership.
func (s *enrollmentService) enrollInto(ctx context.Context, userID, cohortID primitive.ObjectID, now time.Time) (*domain.Enrollment, error) {
	existing, err := s.enrollmentRepo.GetByUserAndCohort(ctx, userID, cohortID)
	if err == nil {
		return s.reactivate(ctx, existing, now)
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	enrollment := domain.NewEnrollment(userID, cohortID, now)
	id, err := s.enrollmentRepo.Create(ctx, enrollment)
	if errors.Is(err, repository.ErrDuplicate) {
		// Either a concurrent insert for the same pair, or a concurrent
		// enroll made another cohort active first.
		s.logger.Info("Enrollment already exists, reactivating",
			zap.String("user_id", userID.Hex()),
			zap.String("cohort_id", cohortID.Hex()))
		existing, err := s.enrollmentRepo.GetByUserAndCohort(ctx, userID, cohortID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrEnrollmentConflict
		}
		if err != nil {
			return nil, err
		}
		return s.reactivate(ctx, existing, now)
	}
	if err != nil {
		return nil, err
	}
	enrollment.ID = id
	return enrollment, nil
}

// restore reopens the membership completed at the start of a failed move,
// keeping its original join time.
func (s *enrollmentService) restore(ctx context.Context, prior *domain.Enrollment, now time.Time) {
	joined := prior.JoinedAt
	if err := prior.Reactivate(now); err != nil {
		return
	}
	prior.JoinedAt = joined
	if err := s.enrollmentRepo.Update(ctx, prior); err != nil {
		s.logger.Error("Failed to restore prior enrollment after a failed move",
			zap.String("user_id", prior.UserID.Hex()),
			zap.String("cohort_id", prior.CohortID.Hex()),
			zap.Error(err))
		return
	}
	s.logger.Warn("Move failed, prior enrollment restored",
		zap.String("user_id", prior.UserID.Hex()),
		zap.String("cohort_id", prior.CohortID.Hex()))
}

func (s *enrollmentService) reactivate(ctx context.Context, e *domain.Enrollment, now time.Time) (*domain.Enrollment, error) {
	if e.Status == domain.EnrollmentActive {
		return e, nil
	}
	if err := e.Reactivate(now); err != nil {
		return nil, err
	}
	if err := s.enrollmentRepo.Update(ctx, e); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEnrollmentConflict
		}
		return nil, err
	}
	return e, nil
}

func (s *enrollmentService) Remove(ctx context.Context, userID, cohortID primitive.ObjectID) (*domain.Enrollment, error) {
	e, err := s.enrollmentRepo.GetByUserAndCohort(ctx, userID, cohortID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrEnrollmentNotFound
		}
		return nil, err
	}
	if e.Status != domain.EnrollmentActive {
		return e, nil
	}
	if err := e.Leave(s.now()); err != nil {
		return nil, err
	}
	if err := s.enrollmentRepo.Update(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *enrollmentService) CurrentCohort(ctx context.Context, userID primitive.ObjectID) (*domain.Cohort, *domain.Enrollment, error) {
	e, err := s.enrollmentRepo.GetActiveByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	cohort, err := s.cohortRepo.GetByID(ctx, e.CohortID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Cohort deleted under an active record; treat as unenrolled.
			return nil, nil, nil
		}
		return nil, nil, err
	}
	return cohort, e, nil
}

func (s *enrollmentService) History(ctx context.Context, userID primitive.ObjectID) ([]EnrollmentHistoryEntry, error) {
	records, err := s.enrollmentRepo.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.CohortID)
	}
	cohorts, err := s.cohortRepo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	names := make(map[primitive.ObjectID]string, len(cohorts))
	for _, c := range cohorts {
		names[c.ID] = c.Name
	}

	history := make([]EnrollmentHistoryEntry, 0, len(records))
	for _, r := range records {
		name, ok := names[r.CohortID]
		if !ok {
			name = DeletedCohortName
		}
		history = append(history, EnrollmentHistoryEntry{Enrollment: r, CohortName: name})
	}
	return history, nil
}

func (s *enrollmentService) checkParticipant(ctx context.Context, userID primitive.ObjectID) error {
	if _, err := s.profileRepo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrParticipantNotFound
		}
		return err
	}
	return nil
}

func getCohort(ctx context.Context, repo repository.CohortRepository, id primitive.ObjectID) (*domain.Cohort, error) {
	cohort, err := repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCohortNotFound
		}
		return nil, err
	}
	return cohort, nil
}
