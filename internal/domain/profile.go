package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role type to distinguish dashboard operators from app users
type Role string

const (
	RoleUser       Role = "user"        // Mobile app participant
	RoleSuperAdmin Role = "super_admin" // Full dashboard access
	RoleViewer     Role = "viewer"      // Read-only dashboard access
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleSuperAdmin, RoleViewer:
		return true
	}
	return false
}

// CanRead reports whether the role may open the dashboard at all.
func (r Role) CanRead() bool {
	return r == RoleSuperAdmin || r == RoleViewer
}

// CanWrite reports whether the role may mutate dashboard data.
func (r Role) CanWrite() bool {
	return r == RoleSuperAdmin
}

// Profile is a person known to the system: a challenge participant or a
// dashboard operator. Cohort membership lives in Enrollment records only.
type Profile struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email        string             `bson:"email" json:"email"` // Unique
	FullName     string             `bson:"fullName,omitempty" json:"fullName,omitempty"`
	PasswordHash string             `bson:"passwordHash" json:"-"`
	Role         Role               `bson:"role" json:"role"`
	PushToken    string             `bson:"pushToken,omitempty" json:"-"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// DisplayName falls back to the email when no name was given.
func (p *Profile) DisplayName() string {
	if p.FullName != "" {
		return p.FullName
	}
	return p.Email
}
