package service

import (
	"alcyxob/challenge-admin/internal/domain"
	"alcyxob/challenge-admin/internal/repository"
	"alcyxob/challenge-admin/internal/schedule"
	"alcyxob/challenge-admin/internal/storage"
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ProgramInput holds the editable fields of a meal program.
type ProgramInput struct {
	Name        string
	Description string
}

// ProgramSummary is a program with its usage counts.
type ProgramSummary struct {
	domain.MealProgram
	CohortCount int64 `json:"cohortCount"`
	OptionCount int   `json:"optionCount"`
}

// MealOptionInput describes a new slot of a program.
type MealOptionInput struct {
	Week     int
	Day      int
	MealType domain.MealType
	OptionA  domain.MealAlternative
	OptionB  domain.MealAlternative
}

// MealOptionView is an option with browser-usable image URLs.
type MealOptionView struct {
	domain.MealOption
	OptionAImageURL string `json:"optionAImageUrl,omitempty"`
	OptionBImageURL string `json:"optionBImageUrl,omitempty"`
}

// UploadURLResponse structure for returning URL and object key
type UploadURLResponse struct {
	UploadURL string `json:"uploadUrl"`
	ObjectKey string `json:"objectKey"` // Store as an alternative's imageRef once uploaded
}

type ProgramService interface {
	List(ctx context.Context) ([]ProgramSummary, error)
	Get(ctx context.Context, id primitive.ObjectID) (*domain.MealProgram, error)
	Create(ctx context.Context, in ProgramInput) (*domain.MealProgram, error)
	Update(ctx context.Context, id primitive.ObjectID, in ProgramInput) (*domain.MealProgram, error)
	// Delete refuses while any cohort references the program; otherwise the
	// program's options go with it.
	Delete(ctx context.Context, id primitive.ObjectID) error
	// Duplicate deep-copies a program and its options. An empty name yields "<source> (Copy)".
	Duplicate(ctx context.Context, id primitive.ObjectID, name string) (*domain.MealProgram, error)

	ListOptions(ctx context.Context, programID primitive.ObjectID, week *int) ([]MealOptionView, error)
	CreateOption(ctx context.Context, programID primitive.ObjectID, in MealOptionInput) (*domain.MealOption, error)
	// UpdateOption replaces both alternatives of an option.
	UpdateOption(ctx context.Context, optionID primitive.ObjectID, a, b domain.MealAlternative) (*domain.MealOption, error)
	RequestOptionImageUpload(ctx context.Context, programID primitive.ObjectID, contentType string) (*UploadURLResponse, error)
}

type programService struct {
	programRepo   repository.MealProgramRepository
	optionRepo    repository.MealOptionRepository
	cohortRepo    repository.CohortRepository
	fileStorage   storage.FileStorage
	presignExpiry time.Duration
	logger        *zap.Logger
}

// NewProgramService creates a new instance of programService.
func NewProgramService(
	programRepo repository.MealProgramRepository,
	optionRepo repository.MealOptionRepository,
	cohortRepo repository.CohortRepository,
	fileStorage storage.FileStorage,
	presignExpiry time.Duration,
	logger *zap.Logger,
) ProgramService {
	return &programService{
		programRepo:   programRepo,
		optionRepo:    optionRepo,
		cohortRepo:    cohortRepo,
		fileStorage:   fileStorage,
		presignExpiry: presignExpiry,
		logger:        logger,
	}
}

func getProgram(ctx context.Context, repo repository.MealProgramRepository, id primitive.ObjectID) (*domain.MealProgram, error) {
	program, err := repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProgramNotFound
		}
		return nil, err
	}
	return program, nil
}

func (s *programService) List(ctx context.Context) ([]ProgramSummary, error) {
	programs, err := s.programRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ProgramSummary, 0, len(programs))
	for _, p := range programs {
		cohorts, err := s.cohortRepo.CountByProgram(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		options, err := s.optionRepo.GetByProgram(ctx, p.ID, nil)
		if err != nil {
			return nil, err
		}
		out = append(out, ProgramSummary{MealProgram: p, CohortCount: cohorts, OptionCount: len(options)})
	}
	return out, nil
}

func (s *programService) Get(ctx context.Context, id primitive.ObjectID) (*domain.MealProgram, error) {
	return getProgram(ctx, s.programRepo, id)
}

func validateProgram(in *ProgramInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if in.Name == "" {
		return invalid("program name is required")
	}
	return nil
}

func (s *programService) Create(ctx context.Context, in ProgramInput) (*domain.MealProgram, error) {
	if err := validateProgram(&in); err != nil {
		return nil, err
	}
	program := &domain.MealProgram{Name: in.Name, Description: in.Description}
	id, err := s.programRepo.Create(ctx, program)
	if err != nil {
		return nil, err
	}
	program.ID = id
	return program, nil
}

func (s *programService) Update(ctx context.Context, id primitive.ObjectID, in ProgramInput) (*domain.MealProgram, error) {
	if err := validateProgram(&in); err != nil {
		return nil, err
	}
	program, err := getProgram(ctx, s.programRepo, id)
	if err != nil {
		return nil, err
	}
	program.Name = in.Name
	program.Description = in.Description
	if err := s.programRepo.Update(ctx, program); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProgramNotFound
		}
		return nil, err
	}
	return program, nil
}

func (s *programService) Delete(ctx context.Context, id primitive.ObjectID) error {
	if _, err := getProgram(ctx, s.programRepo, id); err != nil {
		return err
	}
	n, err := s.cohortRepo.CountByProgram(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return newIntegrityError(ErrProgramInUse, n,
			"cannot delete meal program: used by %d cohort(s)", n)
	}

	options, err := s.optionRepo.GetByProgram(ctx, id, nil)
	if err != nil {
		return err
	}
	if err := s.optionRepo.DeleteByProgram(ctx, id); err != nil {
		return err
	}
	if err := s.programRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProgramNotFound
		}
		return err
	}

	var refs []string
	for _, o := range options {
		refs = append(refs, o.OptionA.ImageRef, o.OptionB.ImageRef)
	}
	s.releaseImages(ctx, refs...)
	return nil
}

func (s *programService) Duplicate(ctx context.Context, id primitive.ObjectID, name string) (*domain.MealProgram, error) {
	source, err := getProgram(ctx, s.programRepo, id)
	if err != nil {
		return nil, err
	}
	options, err := s.optionRepo.GetByProgram(ctx, id, nil)
	if err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = source.Name + " (Copy)"
	}
	program := &domain.MealProgram{Name: name, Description: source.Description}
	newID, err := s.programRepo.Create(ctx, program)
	if err != nil {
		return nil, err
	}
	program.ID = newID

	copies := make([]domain.MealOption, 0, len(options))
	for _, o := range options {
		copies = append(copies, o.Copy(newID))
	}
	if err := s.optionRepo.CreateMany(ctx, copies); err != nil {
		s.logger.Error("Failed to copy meal options, removing duplicate program",
			zap.String("program_id", id.Hex()),
			zap.String("copy_id", newID.Hex()),
			zap.Error(err))
		// Partial inserts are possible, so clear options before the program.
		if cleanupErr := s.optionRepo.DeleteByProgram(ctx, newID); cleanupErr != nil {
			s.logger.Error("Failed to remove copied options", zap.String("program_id", newID.Hex()), zap.Error(cleanupErr))
		}
		if cleanupErr := s.programRepo.Delete(ctx, newID); cleanupErr != nil {
			s.logger.Error("Failed to remove duplicate program", zap.String("program_id", newID.Hex()), zap.Error(cleanupErr))
		}
		return nil, err
	}

	s.logger.Info("Meal program duplicated",
		zap.String("program_id", id.Hex()),
		zap.String("copy_id", newID.Hex()),
		zap.Int("options", len(copies)))
	return program, nil
}

func (s *programService) ListOptions(ctx context.Context, programID primitive.ObjectID, week *int) ([]MealOptionView, error) {
	if _, err := getProgram(ctx, s.programRepo, programID); err != nil {
		return nil, err
	}
	options, err := s.optionRepo.GetByProgram(ctx, programID, week)
	if err != nil {
		return nil, err
	}
	views := make([]MealOptionView, 0, len(options))
	for _, o := range options {
		views = append(views, MealOptionView{
			MealOption:      o,
			OptionAImageURL: s.imageURL(ctx, o.OptionA.ImageRef),
			OptionBImageURL: s.imageURL(ctx, o.OptionB.ImageRef),
		})
	}
	return views, nil
}

// imageURL renders an image reference for the browser. Storage failures
// leave the image blank rather than failing the listing.
func (s *programService) imageURL(ctx context.Context, ref string) string {
	if ref == "" || !storage.IsObjectKey(ref) {
		return ref
	}
	url, err := s.fileStorage.GeneratePresignedDownloadURL(ctx, ref, s.presignExpiry)
	if err != nil {
		s.logger.Warn("Failed to presign meal image", zap.String("key", ref), zap.Error(err))
		return ""
	}
	return url
}

func validateAlternatives(a, b *domain.MealAlternative) error {
	for _, alt := range []*domain.MealAlternative{a, b} {
		alt.Name = strings.TrimSpace(alt.Name)
		alt.Description = strings.TrimSpace(alt.Description)
		alt.ImageRef = strings.TrimSpace(alt.ImageRef)
	}
	if a.Name == "" || b.Name == "" {
		return invalid("option A and option B names are required")
	}
	return nil
}

func (s *programService) CreateOption(ctx context.Context, programID primitive.ObjectID, in MealOptionInput) (*domain.MealOption, error) {
	if in.Week < 1 || in.Week > schedule.MaxDurationWeeks {
		return nil, invalid("week must be between 1 and %d", schedule.MaxDurationWeeks)
	}
	if in.Day < 1 || in.Day > domain.DaysPerProgramWeek {
		return nil, invalid("day must be between 1 and %d", domain.DaysPerProgramWeek)
	}
	if !in.MealType.Valid() {
		return nil, invalid("meal type must be lunch or dinner")
	}
	if err := validateAlternatives(&in.OptionA, &in.OptionB); err != nil {
		return nil, err
	}
	if _, err := getProgram(ctx, s.programRepo, programID); err != nil {
		return nil, err
	}

	option := &domain.MealOption{
		ProgramID:     programID,
		ChallengeWeek: in.Week,
		ChallengeDay:  in.Day,
		MealType:      in.MealType,
		OptionA:       in.OptionA,
		OptionB:       in.OptionB,
	}
	id, err := s.optionRepo.Create(ctx, option)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrMealOptionExists
		}
		return nil, err
	}
	option.ID = id
	return option, nil
}

func (s *programService) UpdateOption(ctx context.Context, optionID primitive.ObjectID, a, b domain.MealAlternative) (*domain.MealOption, error) {
	if err := validateAlternatives(&a, &b); err != nil {
		return nil, err
	}
	option, err := s.optionRepo.GetByID(ctx, optionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrMealOptionNotFound
		}
		return nil, err
	}

	previous := []string{option.OptionA.ImageRef, option.OptionB.ImageRef}
	option.OptionA = a
	option.OptionB = b
	if err := s.optionRepo.Update(ctx, option); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrMealOptionNotFound
		}
		return nil, err
	}

	var replaced []string
	for _, ref := range previous {
		if ref != a.ImageRef && ref != b.ImageRef {
			replaced = append(replaced, ref)
		}
	}
	s.releaseImages(ctx, replaced...)
	return option, nil
}

// releaseImages deletes stored objects that no option references any more.
// Duplicated programs share image keys, hence the reference count.
func (s *programService) releaseImages(ctx context.Context, refs ...string) {
	seen := make(map[string]bool, len(refs))
	for _, ref := range refs {
		if !storage.IsObjectKey(ref) || seen[ref] {
			continue
		}
		seen[ref] = true
		n, err := s.optionRepo.CountByImageRef(ctx, ref)
		if err != nil {
			s.logger.Warn("Failed to count image references", zap.String("key", ref), zap.Error(err))
			continue
		}
		if n > 0 {
			continue
		}
		if err := s.fileStorage.DeleteObject(ctx, ref); err != nil {
			s.logger.Warn("Failed to delete unused meal image", zap.String("key", ref), zap.Error(err))
		}
	}
}

func (s *programService) RequestOptionImageUpload(ctx context.Context, programID primitive.ObjectID, contentType string) (*UploadURLResponse, error) {
	if _, err := getProgram(ctx, s.programRepo, programID); err != nil {
		return nil, err
	}
	key, err := storage.NewMealImageKey(programID.Hex(), contentType)
	if err != nil {
		return nil, invalid("content type must be image/jpeg, image/png or image/webp")
	}
	url, err := s.fileStorage.GeneratePresignedUploadURL(ctx, key, contentType, s.presignExpiry)
	if err != nil {
		s.logger.Error("Failed to presign meal image upload",
			zap.String("program_id", programID.Hex()),
			zap.Error(err))
		return nil, err
	}
	return &UploadURLResponse{UploadURL: url, ObjectKey: key}, nil
}
