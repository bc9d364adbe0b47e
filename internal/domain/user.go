package domain

import (
	"strings"
	"time"
)

// Role enumerates the access levels a user can hold.
type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleInstructor Role = "instructor"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleInstructor:
		return true
	}
	return false
}

// Skill is a self-declared competency with a 0-100 proficiency.
type Skill struct {
	Name        string `json:"name"`
	Proficiency int    `json:"proficiency"`
}

// Certification is an externally issued credential listed on a profile.
type Certification struct {
	Name   string     `json:"name"`
	Issuer string     `json:"issuer,omitempty"`
	Date   *time.Time `json:"date,omitempty"`
	Score  *float64   `json:"score,omitempty"`
}

// UserStatistics holds denormalized counters for a user.
type UserStatistics struct {
	TotalCoursesCompleted int
	AverageRating         float64
	ProjectsCompleted     int
}

// User is the identity aggregate. Enrollments and activities are owned
// collections loaded through their own repositories.
type User struct {
	ID             string
	Name           string
	Email          string
	PasswordHash   string
	Role           Role
	Avatar         string
	Title          string
	Bio            string
	Skills         []Skill
	Certifications []Certification
	Statistics     UserStatistics
	LastLoginAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

const DefaultAvatar = "default-avatar.png"

// NormalizeEmail lowercases and trims an address so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Sanitized returns a copy without the credential hash.
func (u User) Sanitized() *User {
	u.PasswordHash = ""
	return &u
}

// HasRole reports whether the user holds any of roles.
func (u *User) HasRole(roles ...Role) bool {
	if u == nil {
		return false
	}
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}
