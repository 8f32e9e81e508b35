package service

import (
	"alcyxob/challenge-admin/internal/domain"
	"alcyxob/challenge-admin/internal/repository"
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory repositories for service tests. They honor the same uniqueness
// rules as the Mongo indexes.

type fakeProfiles struct {
	mu   sync.Mutex
	byID map[primitive.ObjectID]domain.Profile
}

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{byID: map[primitive.ObjectID]domain.Profile{}}
}

func (f *fakeProfiles) Create(_ context.Context, p *domain.Profile) (primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p.Email = strings.ToLower(p.Email)
	for _, existing := range f.byID {
		if existing.Email == p.Email {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	p.ID = primitive.NewObjectID()
	f.byID[p.ID] = *p
	return p.ID, nil
}

func (f *fakeProfiles) GetByEmail(_ context.Context, email string) (*domain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.byID {
		if p.Email == strings.ToLower(email) {
			return &p, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeProfiles) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (f *fakeProfiles) GetByIDs(_ context.Context, ids []primitive.ObjectID) ([]domain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.Profile{}
	for _, id := range ids {
		if p, ok := f.byID[id]; ok {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (f *fakeProfiles) Update(_ context.Context, p *domain.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.byID[p.ID]
	if !ok {
		return repository.ErrNotFound
	}
	existing.FullName = p.FullName
	existing.Role = p.Role
	f.byID[p.ID] = existing
	return nil
}

func (f *fakeProfiles) Delete(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

type fakeCohorts struct {
	mu          sync.Mutex
	byID        map[primitive.ObjectID]domain.Cohort
	activateErr error
}

func newFakeCohorts() *fakeCohorts {
	return &fakeCohorts{byID: map[primitive.ObjectID]domain.Cohort{}}
}

func (f *fakeCohorts) Create(_ context.Context, c *domain.Cohort) (primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c.ID = primitive.NewObjectID()
	c.IsActive = false
	f.byID[c.ID] = *c
	return c.ID, nil
}

func (f *fakeCohorts) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Cohort, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (f *fakeCohorts) GetActive(_ context.Context) (*domain.Cohort, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.byID {
		if c.IsActive {
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeCohorts) List(_ context.Context) ([]domain.Cohort, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.Cohort{}
	for _, c := range f.byID {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.After(out[j].StartDate) })
	return out, nil
}

func (f *fakeCohorts) ListByIDs(_ context.Context, ids []primitive.ObjectID) ([]domain.Cohort, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.Cohort{}
	for _, id := range ids {
		if c, ok := f.byID[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCohorts) CountByProgram(_ context.Context, programID primitive.ObjectID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, c := range f.byID {
		if c.MealProgramID != nil && *c.MealProgramID == programID {
			n++
		}
	}
	return n, nil
}

func (f *fakeCohorts) Update(_ context.Context, c *domain.Cohort) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.byID[c.ID]
	if !ok {
		return repository.ErrNotFound
	}
	active := existing.IsActive
	existing = *c
	existing.IsActive = active
	f.byID[c.ID] = existing
	return nil
}

func (f *fakeCohorts) Activate(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.activateErr != nil {
		return f.activateErr
	}
	if _, ok := f.byID[id]; !ok {
		return repository.ErrNotFound
	}
	for cid, c := range f.byID {
		c.IsActive = cid == id
		f.byID[cid] = c
	}
	return nil
}

func (f *fakeCohorts) Deactivate(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	c.IsActive = false
	f.byID[id] = c
	return nil
}

func (f *fakeCohorts) Delete(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeCohorts) activeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.byID {
		if c.IsActive {
			n++
		}
	}
	return n
}

type fakePrograms struct {
	mu        sync.Mutex
	byID      map[primitive.ObjectID]domain.MealProgram
	deleted   []primitive.ObjectID
	createErr error
}

func newFakePrograms() *fakePrograms {
	return &fakePrograms{byID: map[primitive.ObjectID]domain.MealProgram{}}
}

func (f *fakePrograms) Create(_ context.Context, p *domain.MealProgram) (primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return primitive.NilObjectID, f.createErr
	}
	p.ID = primitive.NewObjectID()
	f.byID[p.ID] = *p
	return p.ID, nil
}

func (f *fakePrograms) GetByID(_ context.Context, id primitive.ObjectID) (*domain.MealProgram, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (f *fakePrograms) List(_ context.Context) ([]domain.MealProgram, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.MealProgram{}
	for _, p := range f.byID {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakePrograms) Update(_ context.Context, p *domain.MealProgram) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[p.ID]; !ok {
		return repository.ErrNotFound
	}
	f.byID[p.ID] = *p
	return nil
}

func (f *fakePrograms) Delete(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.byID, id)
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeOptions struct {
	mu            sync.Mutex
	byID          map[primitive.ObjectID]domain.MealOption
	createManyErr error
}

func newFakeOptions() *fakeOptions {
	return &fakeOptions{byID: map[primitive.ObjectID]domain.MealOption{}}
}

func (f *fakeOptions) insert(o *domain.MealOption) error {
	for _, e := range f.byID {
		if e.ProgramID == o.ProgramID && e.ChallengeWeek == o.ChallengeWeek &&
			e.ChallengeDay == o.ChallengeDay && e.MealType == o.MealType {
			return repository.ErrDuplicate
		}
	}
	o.ID = primitive.NewObjectID()
	f.byID[o.ID] = *o
	return nil
}

func (f *fakeOptions) Create(_ context.Context, o *domain.MealOption) (primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.insert(o); err != nil {
		return primitive.NilObjectID, err
	}
	return o.ID, nil
}

func (f *fakeOptions) CreateMany(_ context.Context, opts []domain.MealOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range opts {
		if f.createManyErr != nil && i == len(opts)/2 {
			return f.createManyErr
		}
		if err := f.insert(&opts[i]); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeOptions) GetByID(_ context.Context, id primitive.ObjectID) (*domain.MealOption, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &o, nil
}

func (f *fakeOptions) GetByProgram(_ context.Context, programID primitive.ObjectID, week *int) ([]domain.MealOption, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.MealOption{}
	for _, o := range f.byID {
		if o.ProgramID == programID && (week == nil || o.ChallengeWeek == *week) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.ChallengeWeek != b.ChallengeWeek {
			return a.ChallengeWeek < b.ChallengeWeek
		}
		if a.ChallengeDay != b.ChallengeDay {
			return a.ChallengeDay < b.ChallengeDay
		}
		return a.MealType > b.MealType
	})
	return out, nil
}

func (f *fakeOptions) CountByImageRef(_ context.Context, ref string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, o := range f.byID {
		if o.OptionA.ImageRef == ref || o.OptionB.ImageRef == ref {
			n++
		}
	}
	return n, nil
}

func (f *fakeOptions) Update(_ context.Context, o *domain.MealOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.byID[o.ID]
	if !ok {
		return repository.ErrNotFound
	}
	existing.OptionA = o.OptionA
	existing.OptionB = o.OptionB
	f.byID[o.ID] = existing
	return nil
}

func (f *fakeOptions) DeleteByProgram(_ context.Context, programID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, o := range f.byID {
		if o.ProgramID == programID {
			delete(f.byID, id)
		}
	}
	return nil
}

type fakeEnrollments struct {
	mu   sync.Mutex
	byID map[primitive.ObjectID]domain.Enrollment
	// raceOnCreate inserts a conflicting record right before Create runs.
	raceOnCreate *domain.Enrollment
	createErr    error
}

func newFakeEnrollments() *fakeEnrollments {
	return &fakeEnrollments{byID: map[primitive.ObjectID]domain.Enrollment{}}
}

func (f *fakeEnrollments) violates(e domain.Enrollment) bool {
	for id, other := range f.byID {
		if id == e.ID || other.UserID != e.UserID {
			continue
		}
		if other.CohortID == e.CohortID {
			return true
		}
		if other.Status == domain.EnrollmentActive && e.Status == domain.EnrollmentActive {
			return true
		}
	}
	return false
}

func (f *fakeEnrollments) Create(_ context.Context, e *domain.Enrollment) (primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return primitive.NilObjectID, f.createErr
	}
	if f.raceOnCreate != nil {
		r := *f.raceOnCreate
		r.ID = primitive.NewObjectID()
		f.byID[r.ID] = r
		f.raceOnCreate = nil
	}
	e.ID = primitive.NewObjectID()
	if f.violates(*e) {
		return primitive.NilObjectID, repository.ErrDuplicate
	}
	f.byID[e.ID] = *e
	return e.ID, nil
}

func (f *fakeEnrollments) GetByUserAndCohort(_ context.Context, userID, cohortID primitive.ObjectID) (*domain.Enrollment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.byID {
		if e.UserID == userID && e.CohortID == cohortID {
			return &e, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeEnrollments) GetActiveByUser(_ context.Context, userID primitive.ObjectID) (*domain.Enrollment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.byID {
		if e.UserID == userID && e.Status == domain.EnrollmentActive {
			return &e, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeEnrollments) GetByUser(_ context.Context, userID primitive.ObjectID) ([]domain.Enrollment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.Enrollment{}
	for _, e := range f.byID {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JoinedAt.After(out[j].JoinedAt) })
	return out, nil
}

func matchStatus(s domain.EnrollmentStatus, statuses []domain.EnrollmentStatus) bool {
	if len(statuses) == 0 {
		return true
	}
	for _, want := range statuses {
		if s == want {
			return true
		}
	}
	return false
}

func (f *fakeEnrollments) GetByCohort(_ context.Context, cohortID primitive.ObjectID, statuses ...domain.EnrollmentStatus) ([]domain.Enrollment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.Enrollment{}
	for _, e := range f.byID {
		if e.CohortID == cohortID && matchStatus(e.Status, statuses) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JoinedAt.Before(out[j].JoinedAt) })
	return out, nil
}

func (f *fakeEnrollments) CountByCohort(ctx context.Context, cohortID primitive.ObjectID, statuses ...domain.EnrollmentStatus) (int64, error) {
	list, _ := f.GetByCohort(ctx, cohortID, statuses...)
	return int64(len(list)), nil
}

func (f *fakeEnrollments) Update(_ context.Context, e *domain.Enrollment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[e.ID]; !ok {
		return repository.ErrNotFound
	}
	if f.violates(*e) {
		return repository.ErrDuplicate
	}
	f.byID[e.ID] = *e
	return nil
}

func (f *fakeEnrollments) activeFor(userID primitive.ObjectID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, e := range f.byID {
		if e.UserID == userID && e.Status == domain.EnrollmentActive {
			n++
		}
	}
	return n
}

type fakeSelections struct {
	rows    []domain.MealSelection
	findErr error
}

func (f *fakeSelections) match(s domain.MealSelection, q repository.SelectionFilter) bool {
	if q.UserIDs != nil {
		found := false
		for _, id := range q.UserIDs {
			if id == s.UserID {
				found = true
			}
		}
		if !found {
			return false
		}
	}
	if q.Week != nil && (s.ChallengeWeek == nil || *s.ChallengeWeek != *q.Week) {
		return false
	}
	if q.From != nil && s.WeekStartDate.Before(*q.From) {
		return false
	}
	if q.To != nil && s.WeekStartDate.After(*q.To) {
		return false
	}
	return true
}

func (f *fakeSelections) Find(_ context.Context, q repository.SelectionFilter) ([]domain.MealSelection, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	out := []domain.MealSelection{}
	for _, s := range f.rows {
		if f.match(s, q) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSelections) Count(ctx context.Context, q repository.SelectionFilter) (int64, error) {
	list, err := f.Find(ctx, q)
	return int64(len(list)), err
}

func (f *fakeSelections) GetByUser(_ context.Context, userID primitive.ObjectID) ([]domain.MealSelection, error) {
	out := []domain.MealSelection{}
	for _, s := range f.rows {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeTelemetry struct {
	habits         []domain.DailyHabit
	checkIns       []domain.CheckIn
	streaks        []domain.Streak
	weeklyExercise []domain.WeeklyExercise
}

func (f *fakeTelemetry) RecentCheckIns(_ context.Context, userID primitive.ObjectID, limit int64) ([]domain.CheckIn, error) {
	out := []domain.CheckIn{}
	for _, c := range f.checkIns {
		if c.UserID == userID && int64(len(out)) < limit {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeTelemetry) RecentHabits(_ context.Context, userID primitive.ObjectID, limit int64) ([]domain.DailyHabit, error) {
	out := []domain.DailyHabit{}
	for _, h := range f.habits {
		if h.UserID == userID && int64(len(out)) < limit {
			out = append(out, h)
		}
	}
	return out, nil
}

func (f *fakeTelemetry) HabitsForUsers(_ context.Context, userIDs []primitive.ObjectID) ([]domain.DailyHabit, error) {
	want := map[primitive.ObjectID]bool{}
	for _, id := range userIDs {
		want[id] = true
	}
	out := []domain.DailyHabit{}
	for _, h := range f.habits {
		if want[h.UserID] {
			out = append(out, h)
		}
	}
	return out, nil
}

func (f *fakeTelemetry) StreakByUser(_ context.Context, userID primitive.ObjectID) (*domain.Streak, error) {
	for _, s := range f.streaks {
		if s.UserID == userID {
			return &s, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeTelemetry) StreaksForUsers(_ context.Context, userIDs []primitive.ObjectID) ([]domain.Streak, error) {
	want := map[primitive.ObjectID]bool{}
	for _, id := range userIDs {
		want[id] = true
	}
	out := []domain.Streak{}
	for _, s := range f.streaks {
		if want[s.UserID] {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeTelemetry) WeeklyExerciseByUser(_ context.Context, userID primitive.ObjectID) ([]domain.WeeklyExercise, error) {
	out := []domain.WeeklyExercise{}
	for _, w := range f.weeklyExercise {
		if w.UserID == userID {
			out = append(out, w)
		}
	}
	return out, nil
}

type fakeTokens struct {
	mu      sync.Mutex
	revoked map[string]time.Time
}

func newFakeTokens() *fakeTokens { return &fakeTokens{revoked: map[string]time.Time{}} }

func (f *fakeTokens) Revoke(_ context.Context, id string, exp time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked[id] = exp
	return nil
}

func (f *fakeTokens) IsRevoked(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.revoked[id]
	return ok, nil
}

type fakeStorage struct {
	mu      sync.Mutex
	deleted []string
	failGet bool
}

func (f *fakeStorage) GeneratePresignedUploadURL(_ context.Context, key, contentType string, _ time.Duration) (string, error) {
	return "https://upload.test/" + key + "?ct=" + contentType, nil
}

func (f *fakeStorage) GeneratePresignedDownloadURL(_ context.Context, key string, _ time.Duration) (string, error) {
	if f.failGet {
		return "", errors.New("storage down")
	}
	return "https://download.test/" + key, nil
}

func (f *fakeStorage) DeleteObject(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, key)
	return nil
}

var (
	_ repository.ProfileRepository       = (*fakeProfiles)(nil)
	_ repository.CohortRepository        = (*fakeCohorts)(nil)
	_ repository.MealProgramRepository   = (*fakePrograms)(nil)
	_ repository.MealOptionRepository    = (*fakeOptions)(nil)
	_ repository.EnrollmentRepository    = (*fakeEnrollments)(nil)
	_ repository.MealSelectionRepository = (*fakeSelections)(nil)
	_ repository.TelemetryRepository     = (*fakeTelemetry)(nil)
	_ repository.TokenRepository         = (*fakeTokens)(nil)
)

// env wires every service over a shared set of fakes.
type env struct {
	profiles    *fakeProfiles
	cohorts     *fakeCohorts
	programs    *fakePrograms
	options     *fakeOptions
	enrollments *fakeEnrollments
	selections  *fakeSelections
	telemetry   *fakeTelemetry
	tokens      *fakeTokens
	storage     *fakeStorage
}

func newEnv() *env {
	return &env{
		profiles:    newFakeProfiles(),
		cohorts:     newFakeCohorts(),
		programs:    newFakePrograms(),
		options:     newFakeOptions(),
		enrollments: newFakeEnrollments(),
		selections:  &fakeSelections{},
		telemetry:   &fakeTelemetry{},
		tokens:      newFakeTokens(),
		storage:     &fakeStorage{},
	}
}

func (e *env) addProfile(email string, role domain.Role) domain.Profile {
	p := domain.Profile{Email: email, FullName: strings.Split(email, "@")[0], Role: role}
	_, _ = e.profiles.Create(context.Background(), &p)
	return p
}

func (e *env) addCohort(name string, start time.Time, weeks int, program *primitive.ObjectID) domain.Cohort {
	c := domain.Cohort{Name: name, StartDate: start, DurationWeeks: weeks, MealProgramID: program}
	c.Recompute()
	_, _ = e.cohorts.Create(context.Background(), &c)
	return c
}

func (e *env) addProgram(name string) domain.MealProgram {
	p := domain.MealProgram{Name: name}
	_, _ = e.programs.Create(context.Background(), &p)
	return p
}
