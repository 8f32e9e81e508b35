package service

import (
	"alcyxob/challenge-admin/internal/domain"
	"alcyxob/challenge-admin/internal/repository"
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Access is the level of dashboard access an operation needs.
type Access int

const (
	AccessRead Access = iota
	AccessWrite
)

func (a Access) String() string {
	if a == AccessWrite {
		return "write"
	}
	return "read"
}

// AccessGate resolves the caller to a profile and checks its role. Every
// failure other than a store error comes back as ErrUnauthorized.
type AccessGate interface {
	Authorize(ctx context.Context, userID string, access Access) (*domain.Profile, error)
}

type accessGate struct {
	profileRepo repository.ProfileRepository
	logger      *zap.Logger
}

// NewAccessGate creates a new AccessGate.
func NewAccessGate(profileRepo repository.ProfileRepository, logger *zap.Logger) AccessGate {
	return &accessGate{profileRepo: profileRepo, logger: logger}
}

func (g *accessGate) Authorize(ctx context.Context, userID string, access Access) (*domain.Profile, error) {
	id, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, ErrUnauthorized
	}
	profile, err := g.profileRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}

	allowed := profile.Role.CanRead()
	if access == AccessWrite {
		allowed = profile.Role.CanWrite()
	}
	if !allowed {
		g.logger.Info("Access denied",
			zap.String("user_id", userID),
			zap.String("role", string(profile.Role)),
			zap.Stringer("access", access))
		return nil, ErrUnauthorized
	}
	return profile, nil
}
