package api

import (
	"alcyxob/challenge-admin/internal/domain"
	"alcyxob/challenge-admin/internal/service"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Constants for context keys
const (
	ContextUserIDKey   = "userID"
	ContextUserRoleKey = "userRole"
	ContextClaimsKey   = "claims"
	ContextProfileKey  = "profile"
)

const unauthorizedMessage = "Unauthorized"

// AuthMiddleware validates the bearer token, including revocation.
// Every token problem yields the same generic 401.
func AuthMiddleware(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		parts := strings.Split(c.GetHeader("Authorization"), " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
			abortWithError(c, http.StatusUnauthorized, unauthorizedMessage)
			return
		}

		claims, err := authService.ParseToken(c.Request.Context(), parts[1])
		if err != nil {
			if errors.Is(err, service.ErrUnauthorized) {
				abortWithError(c, http.StatusUnauthorized, unauthorizedMessage)
			} else {
				abortWithError(c, http.StatusInternalServerError, err.Error())
			}
			return
		}

		c.Set(ContextUserIDKey, claims.UserID)
		c.Set(ContextUserRoleKey, claims.Role)
		c.Set(ContextClaimsKey, claims)
		c.Next()
	}
}

// RoleGate loads the caller's profile and checks it against the required
// access level. The role is read from the store, not from the token, so a
// demotion takes effect on the next request. Must run AFTER AuthMiddleware.
func RoleGate(gate service.AccessGate, access service.Access) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := getUserIDFromContext(c)
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, unauthorizedMessage)
			return
		}
		profile, err := gate.Authorize(c.Request.Context(), userID, access)
		if err != nil {
			if errors.Is(err, service.ErrUnauthorized) {
				abortWithError(c, http.StatusUnauthorized, unauthorizedMessage)
			} else {
				abortWithError(c, http.StatusInternalServerError, err.Error())
			}
			return
		}
		c.Set(ContextProfileKey, profile)
		c.Set(ContextUserRoleKey, profile.Role)
		c.Next()
	}
}

// RequestLogger logs one line per request once the handler chain is done.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if userID, err := getUserIDFromContext(c); err == nil {
			fields = append(fields, zap.String("user_id", userID))
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Warn("HTTP request", fields...)
			return
		}
		logger.Info("HTTP request", fields...)
	}
}

// Helper to return JSON error response and abort request
func abortWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"error": message})
}

// Helper function to get User ID from context (used by handlers)
func getUserIDFromContext(c *gin.Context) (string, error) {
	idRaw, exists := c.Get(ContextUserIDKey)
	if !exists {
		return "", errors.New("user ID not found in context")
	}
	idStr, ok := idRaw.(string)
	if !ok {
		return "", errors.New("invalid user ID type in context")
	}
	return idStr, nil
}

func getClaimsFromContext(c *gin.Context) (*service.Claims, error) {
	raw, exists := c.Get(ContextClaimsKey)
	if !exists {
		return nil, errors.New("claims not found in context")
	}
	claims, ok := raw.(*service.Claims)
	if !ok {
		return nil, errors.New("invalid claims type in context")
	}
	return claims, nil
}

func getProfileFromContext(c *gin.Context) (*domain.Profile, error) {
	raw, exists := c.Get(ContextProfileKey)
	if !exists {
		return nil, errors.New("profile not found in context")
	}
	profile, ok := raw.(*domain.Profile)
	if !ok {
		return nil, errors.New("invalid profile type in context")
	}
	return profile, nil
}
