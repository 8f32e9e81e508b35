package service

import (
	"alcyxob/challenge-admin/internal/domain"
	"alcyxob/challenge-admin/internal/repository"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const tokenIssuer = "challenge-admin"

// Claims is the JWT payload issued at sign-in.
type Claims struct {
	UserID string      `json:"uid"`
	Role   domain.Role `json:"role"`
	jwt.RegisteredClaims
}

type AuthService interface {
	// SignIn checks credentials and issues a token. Only dashboard roles may sign in.
	SignIn(ctx context.Context, email, password string) (token string, profile *domain.Profile, err error)
	// SignOut revokes a token until it would have expired.
	SignOut(ctx context.Context, claims *Claims) error
	// ParseToken validates signature, expiry and revocation.
	ParseToken(ctx context.Context, token string) (*Claims, error)
	CurrentProfile(ctx context.Context, userID string) (*domain.Profile, error)
}

// authService implements the AuthService interface.
type authService struct {
	profileRepo   repository.ProfileRepository
	tokenRepo     repository.TokenRepository
	jwtSecret     string
	jwtExpiration time.Duration
	logger        *zap.Logger
}

// NewAuthService creates a new instance of authService.
func NewAuthService(
	profileRepo repository.ProfileRepository,
	tokenRepo repository.TokenRepository,
	jwtSecret string,
	jwtExpiration time.Duration,
	logger *zap.Logger,
) AuthService {
	if jwtSecret == "" {
		panic("JWT secret cannot be empty")
	}
	if jwtExpiration <= 0 {
		jwtExpiration = time.Hour
	}
	return &authService{
		profileRepo:   profileRepo,
		tokenRepo:     tokenRepo,
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
		logger:        logger,
	}
}

func (s *authService) SignIn(ctx context.Context, email, password string) (string, *domain.Profile, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return "", nil, invalid("email and password are required")
	}

	profile, err := s.profileRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, ErrAuthenticationFailed
		}
		return "", nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrAuthenticationFailed
	}
	if !profile.Role.CanRead() {
		s.logger.Info("Sign-in refused for non-dashboard role",
			zap.String("user_id", profile.ID.Hex()),
			zap.String("role", string(profile.Role)))
		return "", nil, ErrUnauthorized
	}

	token, err := s.generateJWT(profile)
	if err != nil {
		s.logger.Error("Failed to sign token", zap.String("user_id", profile.ID.Hex()), zap.Error(err))
		return "", nil, ErrTokenGeneration
	}
	profile.PasswordHash = ""
	return token, profile, nil
}

func (s *authService) generateJWT(profile *domain.Profile) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: profile.ID.Hex(),
		Role:   profile.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   profile.ID.Hex(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtExpiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.jwtSecret))
}

func (s *authService) ParseToken(ctx context.Context, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrUnauthorized
	}
	if claims.UserID == "" || claims.ID == "" || claims.ExpiresAt == nil {
		return nil, ErrUnauthorized
	}

	revoked, err := s.tokenRepo.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrUnauthorized
	}
	return claims, nil
}

func (s *authService) SignOut(ctx context.Context, claims *Claims) error {
	if claims == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return ErrUnauthorized
	}
	if err := s.tokenRepo.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		s.logger.Error("Failed to revoke token", zap.String("user_id", claims.UserID), zap.Error(err))
		return err
	}
	return nil
}

func (s *authService) CurrentProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	id, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, ErrUnauthorized
	}
	profile, err := s.profileRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	profile.PasswordHash = ""
	return profile, nil
}

// hashPassword wraps bcrypt for accounts created from the dashboard.
func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", ErrHashingFailed
	}
	return string(hash), nil
}
