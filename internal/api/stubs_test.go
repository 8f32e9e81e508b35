package api

import (
	"alcyxob/challenge-admin/internal/domain"
	"alcyxob/challenge-admin/internal/service"
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// stubAuth accepts the tokens in its map and revokes on sign out.
type stubAuth struct {
	service.AuthService
	tokens   map[string]*service.Claims
	revoked  map[string]bool
	parseErr error
}

func (s *stubAuth) ParseToken(_ context.Context, token string) (*service.Claims, error) {
	if s.parseErr != nil {
		return nil, s.parseErr
	}
	claims, ok := s.tokens[token]
	if !ok || s.revoked[claims.ID] {
		return nil, service.ErrUnauthorized
	}
	return claims, nil
}

func (s *stubAuth) SignOut(_ context.Context, claims *service.Claims) error {
	if s.revoked == nil {
		s.revoked = map[string]bool{}
	}
	s.revoked[claims.ID] = true
	return nil
}

// stubGate authorizes from an in-memory role table.
type stubGate struct {
	profiles map[string]*domain.Profile
	storeErr error
}

func (g *stubGate) Authorize(_ context.Context, userID string, access service.Access) (*domain.Profile, error) {
	if g.storeErr != nil {
		return nil, g.storeErr
	}
	p, ok := g.profiles[userID]
	if !ok {
		return nil, service.ErrUnauthorized
	}
	allowed := p.Role.CanRead()
	if access == service.AccessWrite {
		allowed = p.Role.CanWrite()
	}
	if !allowed {
		return nil, service.ErrUnauthorized
	}
	return p, nil
}

type stubCohorts struct {
	service.CohortService
	created   []service.CohortInput
	deleteErr error
	getErr    error
}

func (s *stubCohorts) Create(_ context.Context, in service.CohortInput) (*domain.Cohort, error) {
	s.created = append(s.created, in)
	c := &domain.Cohort{ID: primitive.NewObjectID(), Name: in.Name, StartDate: in.StartDate, DurationWeeks: in.DurationWeeks}
	c.Recompute()
	return c, nil
}

func (s *stubCohorts) Get(_ context.Context, id primitive.ObjectID) (*domain.Cohort, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return &domain.Cohort{ID: id, Name: "Spring"}, nil
}

func (s *stubCohorts) Delete(context.Context, primitive.ObjectID) error {
	return s.deleteErr
}

type stubSelections struct {
	service.SelectionService
	export *service.Export
	err    error
	got    []service.SelectionQuery
}

func (s *stubSelections) Export(_ context.Context, q service.SelectionQuery) (*service.Export, error) {
	s.got = append(s.got, q)
	if s.err != nil {
		return nil, s.err
	}
	return s.export, nil
}

var errStoreDown = errors.New("connection refused")
