package service

import (
	"alcyxob/challenge-admin/internal/domain"
	"alcyxob/challenge-admin/internal/repository"
	"alcyxob/challenge-admin/internal/schedule"
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// CohortInput holds the editable fields of a cohort. A zero DurationWeeks
// takes the configured default.
type CohortInput struct {
	Name          string
	StartDate     time.Time
	DurationWeeks int
	MealProgramID *primitive.ObjectID
}

// CohortSummary is a cohort with its current head count.
type CohortSummary struct {
	domain.Cohort
	ParticipantCount int64 `json:"participantCount"`
}

// CohortOverview is the dashboard landing summary for one cohort.
type CohortOverview struct {
	Cohort            domain.Cohort  `json:"cohort"`
	ParticipantCount  int64          `json:"participantCount"`
	SelectionCount    int64          `json:"selectionCount"`
	CurrentWeek       int            `json:"currentWeek"`
	Phase             schedule.Phase `json:"phase"`
	DurationWeeks     int            `json:"durationWeeks"`
	MealAdherenceRate float64        `json:"mealAdherenceRate"` // Percent of logged days on plan
}

type CohortService interface {
	List(ctx context.Context) ([]CohortSummary, error)
	Get(ctx context.Context, id primitive.ObjectID) (*domain.Cohort, error)
	// Active returns nil without error when no cohort is active.
	Active(ctx context.Context) (*domain.Cohort, error)
	Create(ctx context.Context, in CohortInput) (*domain.Cohort, error)
	Update(ctx context.Context, id primitive.ObjectID, in CohortInput) (*domain.Cohort, error)
	Activate(ctx context.Context, id primitive.ObjectID) error
	Deactivate(ctx context.Context, id primitive.ObjectID) error
	// Delete refuses while any participant is still active in the cohort.
	Delete(ctx context.Context, id primitive.ObjectID) error
	Overview(ctx context.Context, id primitive.ObjectID) (*CohortOverview, error)
	Weeks(ctx context.Context, id primitive.ObjectID) ([]schedule.Week, error)
}

type cohortService struct {
	cohortRepo      repository.CohortRepository
	programRepo     repository.MealProgramRepository
	enrollmentRepo  repository.EnrollmentRepository
	selectionRepo   repository.MealSelectionRepository
	telemetryRepo   repository.TelemetryRepository
	defaultDuration int
	logger          *zap.Logger
	now             func() time.Time
}

// NewCohortService creates a new instance of cohortService.
func NewCohortService(
	cohortRepo repository.CohortRepository,
	programRepo repository.MealProgramRepository,
	enrollmentRepo repository.EnrollmentRepository,
	selectionRepo repository.MealSelectionRepository,
	telemetryRepo repository.TelemetryRepository,
	defaultDuration int,
	logger *zap.Logger,
) CohortService {
	if defaultDuration < schedule.MinDurationWeeks || defaultDuration > schedule.MaxDurationWeeks {
		defaultDuration = schedule.DefaultDurationWeeks
	}
	return &cohortService{
		cohortRepo:      cohortRepo,
		programRepo:     programRepo,
		enrollmentRepo:  enrollmentRepo,
		selectionRepo:   selectionRepo,
		telemetryRepo:   telemetryRepo,
		defaultDuration: defaultDuration,
		logger:          logger,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

func (s *cohortService) List(ctx context.Context) ([]CohortSummary, error) {
	cohorts, err := s.cohortRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]CohortSummary, 0, len(cohorts))
	for _, c := range cohorts {
		n, err := s.enrollmentRepo.CountByCohort(ctx, c.ID, domain.EnrollmentActive)
		if err != nil {
			return nil, err
		}
		out = append(out, CohortSummary{Cohort: c, ParticipantCount: n})
	}
	return out, nil
}

func (s *cohortService) Get(ctx context.Context, id primitive.ObjectID) (*domain.Cohort, error) {
	return getCohort(ctx, s.cohortRepo, id)
}

func (s *cohortService) Active(ctx context.Context) (*domain.Cohort, error) {
	return activeCohort(ctx, s.cohortRepo)
}

func activeCohort(ctx context.Context, repo repository.CohortRepository) (*domain.Cohort, error) {
	c, err := repo.GetActive(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return c, err
}

func (s *cohortService) validate(ctx context.Context, in *CohortInput) error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return invalid("cohort name is required")
	}
	if in.StartDate.IsZero() {
		return invalid("start date is required")
	}
	if in.DurationWeeks == 0 {
		in.DurationWeeks = s.defaultDuration
	}
	if in.DurationWeeks < schedule.MinDurationWeeks || in.DurationWeeks > schedule.MaxDurationWeeks {
		return invalid("duration must be between %d and %d weeks", schedule.MinDurationWeeks, schedule.MaxDurationWeeks)
	}
	if in.MealProgramID != nil {
		if _, err := getProgram(ctx, s.programRepo, *in.MealProgramID); err != nil {
			return err
		}
	}
	return nil
}

func (s *cohortService) Create(ctx context.Context, in CohortInput) (*domain.Cohort, error) {
	if err := s.validate(ctx, &in); err != nil {
		return nil, err
	}
	cohort := &domain.Cohort{
		Name:          in.Name,
		StartDate:     in.StartDate,
		DurationWeeks: in.DurationWeeks,
		MealProgramID: in.MealProgramID,
	}
	cohort.Recompute()

	id, err := s.cohortRepo.Create(ctx, cohort)
	if err != nil {
		s.logger.Error("Failed to create cohort", zap.String("name", cohort.Name), zap.Error(err))
		return nil, err
	}
	cohort.ID = id
	return cohort, nil
}

func (s *cohortService) Update(ctx context.Context, id primitive.ObjectID, in CohortInput) (*domain.Cohort, error) {
	cohort, err := getCohort(ctx, s.cohortRepo, id)
	if err != nil {
		return nil, err
	}
	if err := s.validate(ctx, &in); err != nil {
		return nil, err
	}
	cohort.Name = in.Name
	cohort.StartDate = in.StartDate
	cohort.DurationWeeks = in.DurationWeeks
	cohort.MealProgramID = in.MealProgramID
	cohort.Recompute()

	if err := s.cohortRepo.Update(ctx, cohort); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCohortNotFound
		}
		return nil, err
	}
	return cohort, nil
}

func (s *cohortService) Activate(ctx context.Context, id primitive.ObjectID) error {
	if err := s.cohortRepo.Activate(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrCohortNotFound
		}
		s.logger.Error("Failed to activate cohort", zap.String("cohort_id", id.Hex()), zap.Error(err))
		return err
	}
	s.logger.Info("Cohort activated", zap.String("cohort_id", id.Hex()))
	return nil
}

func (s *cohortService) Deactivate(ctx context.Context, id primitive.ObjectID) error {
	if err := s.cohortRepo.Deactivate(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrCohortNotFound
		}
		return err
	}
	return nil
}

func (s *cohortService) Delete(ctx context.Context, id primitive.ObjectID) error {
	if _, err := getCohort(ctx, s.cohortRepo, id); err != nil {
		return err
	}
	n, err := s.enrollmentRepo.CountByCohort(ctx, id, domain.EnrollmentActive)
	if err != nil {
		return err
	}
	if n > 0 {
		return newIntegrityError(ErrCohortHasParticipants, n,
			"cannot delete cohort: %d participant(s) still enrolled", n)
	}
	if err := s.cohortRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrCohortNotFound
		}
		return err
	}
	return nil
}

func (s *cohortService) Weeks(ctx context.Context, id primitive.ObjectID) ([]schedule.Week, error) {
	cohort, err := getCohort(ctx, s.cohortRepo, id)
	if err != nil {
		return nil, err
	}
	return cohort.Weeks(), nil
}

func (s *cohortService) Overview(ctx context.Context, id primitive.ObjectID) (*CohortOverview, error) {
	cohort, err := getCohort(ctx, s.cohortRepo, id)
	if err != nil {
		return nil, err
	}
	active, err := s.enrollmentRepo.GetByCohort(ctx, id, domain.EnrollmentActive)
	if err != nil {
		return nil, err
	}
	userIDs := make([]primitive.ObjectID, 0, len(active))
	for _, e := range active {
		userIDs = append(userIDs, e.UserID)
	}

	selections, err := s.selectionRepo.Count(ctx, cohortSelectionFilter(cohort, userIDs, nil))
	if err != nil {
		return nil, err
	}
	habits, err := s.telemetryRepo.HabitsForUsers(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	week, phase := cohort.CurrentWeek(s.now())
	return &CohortOverview{
		Cohort:            *cohort,
		ParticipantCount:  int64(len(active)),
		SelectionCount:    selections,
		CurrentWeek:       week,
		Phase:             phase,
		DurationWeeks:     cohort.DurationWeeks,
		MealAdherenceRate: mealAdherenceRate(cohort, habits),
	}, nil
}

// cohortSelectionFilter scopes selections to the given users and to weeks
// that start inside the cohort window.
func cohortSelectionFilter(c *domain.Cohort, userIDs []primitive.ObjectID, week *int) repository.SelectionFilter {
	from := c.StartDate
	to := schedule.AddDays(c.EndDate, 1).Add(-time.Nanosecond)
	if userIDs == nil {
		userIDs = []primitive.ObjectID{}
	}
	return repository.SelectionFilter{UserIDs: userIDs, Week: week, From: &from, To: &to}
}

// mealAdherenceRate is the share of logged meal days inside the cohort
// window that were on plan, as a percentage with one decimal. Zero when
// nothing was logged.
func mealAdherenceRate(c *domain.Cohort, habits []domain.DailyHabit) float64 {
	var logged, onPlan int
	for _, h := range habits {
		if h.MealAdherence == nil || !schedule.Contains(c.StartDate, c.DurationWeeks, h.Date) {
			continue
		}
		logged++
		if *h.MealAdherence {
			onPlan++
		}
	}
	if logged == 0 {
		return 0
	}
	return math.Round(float64(onPlan)/float64(logged)*1000) / 10
}
