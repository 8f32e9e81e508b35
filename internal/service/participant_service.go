package service

import (
	"alcyxob/challenge-admin/internal/domain"
	"alcyxob/challenge-admin/internal/repository"
	"alcyxob/challenge-admin/internal/schedule"
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	neverCheckedIn  = "Never"
	recentCheckIns  = 10
	recentHabitDays = 14
)

// ParticipantInput creates a profile from the dashboard. An empty Role
// means a mobile app participant.
type ParticipantInput struct {
	Email    string
	FullName string
	Role     domain.Role
	CohortID *primitive.ObjectID
}

// ParticipantUpdate changes only the non-nil fields. A CohortID different
// from the current one moves the participant.
type ParticipantUpdate struct {
	FullName *string
	Role     *domain.Role
	CohortID *primitive.ObjectID
}

// ParticipantSummary is one roster row.
type ParticipantSummary struct {
	ID            primitive.ObjectID `json:"id"`
	Email         string             `json:"email"`
	FullName      string             `json:"fullName"`
	Role          domain.Role        `json:"role"`
	CohortID      primitive.ObjectID `json:"cohortId"`
	CohortName    string             `json:"cohortName"`
	JoinedAt      time.Time          `json:"joinedAt"`
	CurrentStreak int                `json:"currentStreak"`
	LongestStreak int                `json:"longestStreak"`
	LastCheckIn   string             `json:"lastCheckIn"` // YYYY-MM-DD or "Never"
}

// ParticipantDetail is everything the dashboard shows about one person.
type ParticipantDetail struct {
	Profile        domain.Profile           `json:"profile"`
	CurrentCohort  *domain.Cohort           `json:"currentCohort,omitempty"`
	Streak         *domain.Streak           `json:"streak,omitempty"`
	LastCheckIn    string                   `json:"lastCheckIn"`
	CheckIns       []domain.CheckIn         `json:"checkIns"`
	Habits         []domain.DailyHabit      `json:"habits"`
	Selections     []SelectionView          `json:"selections"`
	History        []EnrollmentHistoryEntry `json:"history"`
	WeeklyExercise []domain.WeeklyExercise  `json:"weeklyExercise"`
}

type ParticipantService interface {
	// List returns the active roster of a cohort, or of the active cohort when cohortID is nil.
	List(ctx context.Context, cohortID *primitive.ObjectID) ([]ParticipantSummary, error)
	Create(ctx context.Context, in ParticipantInput) (*domain.Profile, error)
	Update(ctx context.Context, id primitive.ObjectID, in ParticipantUpdate) (*domain.Profile, error)
	// Delete closes the active membership, then removes the profile.
	Delete(ctx context.Context, id primitive.ObjectID) error
	Detail(ctx context.Context, id primitive.ObjectID) (*ParticipantDetail, error)
}

type participantService struct {
	profileRepo     repository.ProfileRepository
	cohortRepo      repository.CohortRepository
	enrollmentRepo  repository.EnrollmentRepository
	selectionRepo   repository.MealSelectionRepository
	optionRepo      repository.MealOptionRepository
	telemetryRepo   repository.TelemetryRepository
	enrollments     EnrollmentService
	defaultPassword string
	logger          *zap.Logger
}

// NewParticipantService creates a new instance of participantService. When
// defaultPassword is empty new accounts get a random one.
func NewParticipantService(
	profileRepo repository.ProfileRepository,
	cohortRepo repository.CohortRepository,
	enrollmentRepo repository.EnrollmentRepository,
	selectionRepo repository.MealSelectionRepository,
	optionRepo repository.MealOptionRepository,
	telemetryRepo repository.TelemetryRepository,
	enrollments EnrollmentService,
	defaultPassword string,
	logger *zap.Logger,
) ParticipantService {
	return &participantService{
		profileRepo:     profileRepo,
		cohortRepo:      cohortRepo,
		enrollmentRepo:  enrollmentRepo,
		selectionRepo:   selectionRepo,
		optionRepo:      optionRepo,
		telemetryRepo:   telemetryRepo,
		enrollments:     enrollments,
		defaultPassword: defaultPassword,
		logger:          logger,
	}
}

func (s *participantService) getProfile(ctx context.Context, id primitive.ObjectID) (*domain.Profile, error) {
	p, err := s.profileRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrParticipantNotFound
		}
		return nil, err
	}
	p.PasswordHash = ""
	return p, nil
}

func lastCheckIn(streak *domain.Streak) string {
	if streak == nil || streak.LastCheckInDate == nil {
		return neverCheckedIn
	}
	return schedule.FormatDate(*streak.LastCheckInDate)
}

func (s *participantService) List(ctx context.Context, cohortID *primitive.ObjectID) ([]ParticipantSummary, error) {
	var cohort *domain.Cohort
	var err error
	if cohortID != nil {
		cohort, err = getCohort(ctx, s.cohortRepo, *cohortID)
	} else {
		cohort, err = activeCohort(ctx, s.cohortRepo)
	}
	if err != nil {
		return nil, err
	}
	if cohort == nil {
		return []ParticipantSummary{}, nil
	}

	members, err := s.enrollmentRepo.GetByCohort(ctx, cohort.ID, domain.EnrollmentActive)
	if err != nil {
		return nil, err
	}
	joined := make(map[primitive.ObjectID]time.Time, len(members))
	ids := make([]primitive.ObjectID, 0, len(members))
	for _, m := range members {
		joined[m.UserID] = m.JoinedAt
		ids = append(ids, m.UserID)
	}

	profiles, err := s.profileRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	streaks, err := s.telemetryRepo.StreaksForUsers(ctx, ids)
	if err != nil {
		return nil, err
	}
	streakByUser := make(map[primitive.ObjectID]*domain.Streak, len(streaks))
	for i := range streaks {
		streakByUser[streaks[i].UserID] = &streaks[i]
	}

	out := make([]ParticipantSummary, 0, len(profiles))
	for _, p := range profiles {
		row := ParticipantSummary{
			ID:          p.ID,
			Email:       p.Email,
			FullName:    p.FullName,
			Role:        p.Role,
			CohortID:    cohort.ID,
			CohortName:  cohort.Name,
			JoinedAt:    joined[p.ID],
			LastCheckIn: lastCheckIn(streakByUser[p.ID]),
		}
		if st := streakByUser[p.ID]; st != nil {
			row.CurrentStreak = st.CurrentStreak
			row.LongestStreak = st.LongestStreak
		}
		out = append(out, row)
	}
	return out, nil
}

func (s *participantService) Create(ctx context.Context, in ParticipantInput) (*domain.Profile, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(in.Email))
	if err != nil {
		return nil, invalid("a valid email is required")
	}
	if in.Role == "" {
		in.Role = domain.RoleUser
	}
	if !in.Role.Valid() {
		return nil, invalid("role must be user, super_admin or viewer")
	}
	if in.CohortID != nil {
		if _, err := getCohort(ctx, s.cohortRepo, *in.CohortID); err != nil {
			return nil, err
		}
	}

	password := s.defaultPassword
	if password == "" {
		password = uuid.NewString()
	}
	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	profile := &domain.Profile{
		Email:        addr.Address,
		FullName:     strings.TrimSpace(in.FullName),
		Role:         in.Role,
		PasswordHash: hash,
	}
	id, err := s.profileRepo.Create(ctx, profile)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	profile.ID = id
	profile.PasswordHash = ""

	if in.CohortID != nil {
		if _, err := s.enrollments.Enroll(ctx, id, *in.CohortID); err != nil {
			s.logger.Error("Enrollment failed, removing new profile",
				zap.String("user_id", id.Hex()),
				zap.String("cohort_id", in.CohortID.Hex()),
				zap.Error(err))
			// The profile has no memberships yet, so removing it leaves no trace.
			if delErr := s.profileRepo.Delete(ctx, id); delErr != nil {
				s.logger.Error("Failed to remove profile after enrollment failure",
					zap.String("user_id", id.Hex()),
					zap.Error(delErr))
			}
			return nil, err
		}
	}
	return profile, nil
}

func (s *participantService) Update(ctx context.Context, id primitive.ObjectID, in ParticipantUpdate) (*domain.Profile, error) {
	profile, err := s.getProfile(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Role != nil && !in.Role.Valid() {
		return nil, invalid("role must be user, super_admin or viewer")
	}

	if in.FullName != nil || in.Role != nil {
		if in.FullName != nil {
			profile.FullName = strings.TrimSpace(*in.FullName)
		}
		if in.Role != nil {
			profile.Role = *in.Role
		}
		if err := s.profileRepo.Update(ctx, profile); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrParticipantNotFound
			}
			return nil, err
		}
	}

	if in.CohortID != nil {
		if _, err := s.enrollments.Enroll(ctx, id, *in.CohortID); err != nil {
			return nil, err
		}
	}
	return profile, nil
}

func (s *participantService) Delete(ctx context.Context, id primitive.ObjectID) error {
	if _, err := s.getProfile(ctx, id); err != nil {
		return err
	}
	_, current, err := s.enrollments.CurrentCohort(ctx, id)
	if err != nil {
		return err
	}
	if current != nil {
		if _, err := s.enrollments.Remove(ctx, id, current.CohortID); err != nil {
			return err
		}
	}
	if err := s.profileRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrParticipantNotFound
		}
		return err
	}
	s.logger.Info("Participant deleted", zap.String("user_id", id.Hex()))
	return nil
}

func (s *participantService) Detail(ctx context.Context, id primitive.ObjectID) (*ParticipantDetail, error) {
	profile, err := s.getProfile(ctx, id)
	if err != nil {
		return nil, err
	}
	detail := &ParticipantDetail{Profile: *profile}

	if detail.CurrentCohort, _, err = s.enrollments.CurrentCohort(ctx, id); err != nil {
		return nil, err
	}
	if detail.History, err = s.enrollments.History(ctx, id); err != nil {
		return nil, err
	}
	streak, err := s.telemetryRepo.StreakByUser(ctx, id)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	detail.Streak = streak
	detail.LastCheckIn = lastCheckIn(streak)

	if detail.CheckIns, err = s.telemetryRepo.RecentCheckIns(ctx, id, recentCheckIns); err != nil {
		return nil, err
	}
	if detail.Habits, err = s.telemetryRepo.RecentHabits(ctx, id, recentHabitDays); err != nil {
		return nil, err
	}
	if detail.WeeklyExercise, err = s.telemetryRepo.WeeklyExerciseByUser(ctx, id); err != nil {
		return nil, err
	}
	if detail.Selections, err = s.selections(ctx, profile, detail.History); err != nil {
		return nil, err
	}
	return detail, nil
}

// selections resolves each of the participant's selections against the
// program of the cohort whose window contains its week start.
func (s *participantService) selections(ctx context.Context, profile *domain.Profile, history []EnrollmentHistoryEntry) ([]SelectionView, error) {
	selections, err := s.selectionRepo.GetByUser(ctx, profile.ID)
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(history))
	for _, h := range history {
		ids = append(ids, h.CohortID)
	}
	cohorts, err := s.cohortRepo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	catalogs := make(map[primitive.ObjectID]*domain.MealCatalog)
	views := make([]SelectionView, 0, len(selections))
	for _, sel := range selections {
		var catalog *domain.MealCatalog
		for i := range cohorts {
			c := &cohorts[i]
			if c.MealProgramID == nil || !schedule.Contains(c.StartDate, c.DurationWeeks, sel.WeekStartDate) {
				continue
			}
			if catalog = catalogs[*c.MealProgramID]; catalog == nil {
				if catalog, err = cohortCatalog(ctx, s.optionRepo, c); err != nil {
					return nil, err
				}
				catalogs[*c.MealProgramID] = catalog
			}
			break
		}
		views = append(views, SelectionView{
			MealSelection: sel,
			Email:         profile.Email,
			Name:          profile.DisplayName(),
			Resolved:      resolveSlots(sel, catalog),
		})
	}
	return views, nil
}
