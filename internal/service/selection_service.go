package service

import (
	"alcyxob/challenge-admin/internal/domain"
	"alcyxob/challenge-admin/internal/export"
	"alcyxob/challenge-admin/internal/repository"
	"bytes"
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// SelectionQuery scopes selection listings and exports. A nil CohortID
// means the active cohort.
type SelectionQuery struct {
	CohortID *primitive.ObjectID
	Week     *int
}

// ResolvedSlot is one pick with its dish name.
type ResolvedSlot struct {
	Day      int             `json:"day"`
	Meal     domain.MealType `json:"meal"`
	Choice   domain.Choice   `json:"choice"`
	MealName string          `json:"mealName"`
}

// SelectionView is a selection joined with its participant and dish names.
type SelectionView struct {
	domain.MealSelection
	Email    string         `json:"email"`
	Name     string         `json:"name"`
	Resolved []ResolvedSlot `json:"resolved"`
}

// Export is a rendered CSV attachment.
type Export struct {
	Filename string
	Body     []byte
}

type SelectionService interface {
	List(ctx context.Context, q SelectionQuery) ([]SelectionView, error)
	Export(ctx context.Context, q SelectionQuery) (*Export, error)
}

type selectionService struct {
	selectionRepo  repository.MealSelectionRepository
	cohortRepo     repository.CohortRepository
	optionRepo     repository.MealOptionRepository
	enrollmentRepo repository.EnrollmentRepository
	profileRepo    repository.ProfileRepository
	logger         *zap.Logger
}

// NewSelectionService creates a new instance of selectionService.
func NewSelectionService(
	selectionRepo repository.MealSelectionRepository,
	cohortRepo repository.CohortRepository,
	optionRepo repository.MealOptionRepository,
	enrollmentRepo repository.EnrollmentRepository,
	profileRepo repository.ProfileRepository,
	logger *zap.Logger,
) SelectionService {
	return &selectionService{
		selectionRepo:  selectionRepo,
		cohortRepo:     cohortRepo,
		optionRepo:     optionRepo,
		enrollmentRepo: enrollmentRepo,
		profileRepo:    profileRepo,
		logger:         logger,
	}
}

// records loads the selections in scope, joined with their participants,
// and the catalog to resolve them against.
func (s *selectionService) records(ctx context.Context, q SelectionQuery) ([]export.Record, *domain.MealCatalog, error) {
	var cohort *domain.Cohort
	var err error
	if q.CohortID != nil {
		cohort, err = getCohort(ctx, s.cohortRepo, *q.CohortID)
	} else {
		cohort, err = activeCohort(ctx, s.cohortRepo)
	}
	if err != nil {
		return nil, nil, err
	}

	filter := repository.SelectionFilter{Week: q.Week}
	if cohort != nil {
		members, err := s.enrollmentRepo.GetByCohort(ctx, cohort.ID, domain.EnrollmentActive, domain.EnrollmentCompleted)
		if err != nil {
			return nil, nil, err
		}
		userIDs := make([]primitive.ObjectID, 0, len(members))
		for _, m := range members {
			userIDs = append(userIDs, m.UserID)
		}
		filter = cohortSelectionFilter(cohort, userIDs, q.Week)
	}

	selections, err := s.selectionRepo.Find(ctx, filter)
	if err != nil {
		return nil, nil, err
	}
	catalog, err := cohortCatalog(ctx, s.optionRepo, cohort)
	if err != nil {
		return nil, nil, err
	}

	seen := make(map[primitive.ObjectID]bool)
	var ids []primitive.ObjectID
	for _, sel := range selections {
		if !seen[sel.UserID] {
			seen[sel.UserID] = true
			ids = append(ids, sel.UserID)
		}
	}
	profiles, err := s.profileRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	byID := make(map[primitive.ObjectID]domain.Profile, len(profiles))
	for _, p := range profiles {
		byID[p.ID] = p
	}

	records := make([]export.Record, 0, len(selections))
	for _, sel := range selections {
		p := byID[sel.UserID]
		// Name stays empty for profiles without one; the export never repeats the email.
		records = append(records, export.Record{Email: p.Email, Name: p.FullName, Selection: sel})
	}
	return records, catalog, nil
}

// cohortCatalog builds the catalog of the cohort's meal program. Cohorts
// without a program resolve every pick to its raw code.
func cohortCatalog(ctx context.Context, repo repository.MealOptionRepository, cohort *domain.Cohort) (*domain.MealCatalog, error) {
	if cohort == nil || cohort.MealProgramID == nil {
		return domain.NewMealCatalog(nil), nil
	}
	options, err := repo.GetByProgram(ctx, *cohort.MealProgramID, nil)
	if err != nil {
		return nil, err
	}
	return domain.NewMealCatalog(options), nil
}

func (s *selectionService) List(ctx context.Context, q SelectionQuery) ([]SelectionView, error) {
	records, catalog, err := s.records(ctx, q)
	if err != nil {
		return nil, err
	}
	export.Sort(records)

	views := make([]SelectionView, 0, len(records))
	for _, r := range records {
		views = append(views, SelectionView{
			MealSelection: r.Selection,
			Email:         r.Email,
			Name:          r.Name,
			Resolved:      resolveSlots(r.Selection, catalog),
		})
	}
	return views, nil
}

// resolveSlots lists the valid picks of a selection in day/meal order.
func resolveSlots(sel domain.MealSelection, catalog *domain.MealCatalog) []ResolvedSlot {
	var out []ResolvedSlot
	for day := 1; day <= domain.DaysPerProgramWeek; day++ {
		for _, meal := range domain.MealTypes {
			c, ok := sel.Choice(day, meal)
			if !ok {
				continue
			}
			out = append(out, ResolvedSlot{
				Day:      day,
				Meal:     meal,
				Choice:   c,
				MealName: catalog.Resolve(sel.ChallengeWeek, day, meal, c),
			})
		}
	}
	return out
}

func (s *selectionService) Export(ctx context.Context, q SelectionQuery) (*Export, error) {
	records, catalog, err := s.records(ctx, q)
	if err != nil {
		s.logger.Error("Failed to load selections for export", zap.Error(err))
		return nil, err
	}
	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, export.Rows(records, catalog)); err != nil {
		return nil, err
	}
	return &Export{Filename: export.Filename(q.Week), Body: buf.Bytes()}, nil
}
