package dto

import (
	"time"

	"github.com/spec-kit/learning-platform/internal/domain"
	"github.com/spec-kit/learning-platform/internal/service"
)

// RegisterRequest payload for new users.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Success   bool          `json:"success"`
	User      *UserResponse `json:"user"`
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expiresAt"`
}

// NewAuthResponse wraps a service result.
func NewAuthResponse(res *service.AuthResult) AuthResponse {
	return AuthResponse{Success: true, User: NewUserResponse(res.User), Token: res.Token, ExpiresAt: res.ExpiresAt}
}

// SkillPayload is a profile skill.
type SkillPayload struct {
	Name        string `json:"name" validate:"required,max=50"`
	Proficiency int    `json:"proficiency" validate:"min=0,max=100"`
}

// CertificationPayload is a profile certification.
type CertificationPayload struct {
	Name   string     `json:"name" validate:"required,max=100"`
	Issuer string     `json:"issuer,omitempty" validate:"max=100"`
	Date   *time.Time `json:"date,omitempty"`
	Score  *float64   `json:"score,omitempty"`
}

// UpdateProfileRequest is a partial profile update.
type UpdateProfileRequest struct {
	Name           *string                 `json:"name" validate:"omitempty,min=1,max=50"`
	Email          *string                 `json:"email" validate:"omitempty,email"`
	Title          *string                 `json:"title" validate:"omitempty,max=100"`
	Bio            *string                 `json:"bio" validate:"omitempty,max=500"`
	Avatar         *string                 `json:"avatar" validate:"omitempty,max=500"`
	Skills         *[]SkillPayload         `json:"skills" validate:"omitempty,dive"`
	Certifications *[]CertificationPayload `json:"certifications" validate:"omitempty,dive"`
}

// ToInput converts the request into service input.
func (r UpdateProfileRequest) ToInput() service.ProfileUpdate {
	in := service.ProfileUpdate{
		Name:   r.Name,
		Email:  r.Email,
		Title:  r.Title,
		Bio:    r.Bio,
		Avatar: r.Avatar,
	}
	if r.Skills != nil {
		skills := make([]domain.Skill, 0, len(*r.Skills))
		for _, s := range *r.Skills {
			skills = append(skills, domain.Skill{Name: s.Name, Proficiency: s.Proficiency})
		}
		in.Skills = &skills
	}
	if r.Certifications != nil {
		certs := make([]domain.Certification, 0, len(*r.Certifications))
		for _, c := range *r.Certifications {
			certs = append(certs, domain.Certification{Name: c.Name, Issuer: c.Issuer, Date: c.Date, Score: c.Score})
		}
		in.Certifications = &certs
	}
	return in
}

// ChangePasswordRequest payload for PUT /users/password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
}

// AdminUpdateUserRequest payload for PUT /users/:id.
type AdminUpdateUserRequest struct {
	Name  *string `json:"name" validate:"omitempty,min=1,max=50"`
	Email *string `json:"email" validate:"omitempty,email"`
	Role  *string `json:"role" validate:"omitempty,user_role"`
}

// ToInput converts the request into service input.
func (r AdminUpdateUserRequest) ToInput() service.AdminUserUpdate {
	in := service.AdminUserUpdate{Name: r.Name, Email: r.Email}
	if r.Role != nil {
		role := domain.Role(*r.Role)
		in.Role = &role
	}
	return in
}

// UserStatisticsResponse mirrors domain.UserStatistics.
type UserStatisticsResponse struct {
	TotalCoursesCompleted int     `json:"totalCoursesCompleted"`
	AverageRating         float64 `json:"averageRating"`
	ProjectsCompleted     int     `json:"projectsCompleted"`
}

// UserResponse is the public view of a user. It never carries the password hash.
type UserResponse struct {
	ID             string                 `json:"id"`
	Name           string                 `json:"name"`
	Email          string                 `json:"email"`
	Role           domain.Role            `json:"role"`
	Avatar         string                 `json:"avatar"`
	Title          string                 `json:"title,omitempty"`
	Bio            string                 `json:"bio,omitempty"`
	Skills         []domain.Skill         `json:"skills"`
	Certifications []domain.Certification `json:"certifications"`
	Statistics     UserStatisticsResponse `json:"statistics"`
	LastLoginAt    *time.Time             `json:"lastLogin,omitempty"`
	CreatedAt      time.Time              `json:"createdAt"`
}

// NewUserResponse maps a domain user.
func NewUserResponse(u *domain.User) *UserResponse {
	if u == nil {
		return nil
	}
	resp := &UserResponse{
		ID:             u.ID,
		Name:           u.Name,
		Email:          u.Email,
		Role:           u.Role,
		Avatar:         u.Avatar,
		Title:          u.Title,
		Bio:            u.Bio,
		Skills:         u.Skills,
		Certifications: u.Certifications,
		Statistics: UserStatisticsResponse{
			TotalCoursesCompleted: u.Statistics.TotalCoursesCompleted,
			AverageRating:         u.Statistics.AverageRating,
			ProjectsCompleted:     u.Statistics.ProjectsCompleted,
		},
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
	if resp.Skills == nil {
		resp.Skills = []domain.Skill{}
	}
	if resp.Certifications == nil {
		resp.Certifications = []domain.Certification{}
	}
	return resp
}

// NewUserResponses maps a slice of users.
func NewUserResponses(users []domain.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, *NewUserResponse(&users[i]))
	}
	return out
}

// EnrollmentResponse is one entry of a user's course list.
type EnrollmentResponse struct {
	CourseID    string                  `json:"courseId"`
	CourseTitle string                  `json:"courseTitle,omitempty"`
	Progress    int                     `json:"progress"`
	Status      domain.EnrollmentStatus `json:"status"`
	EnrolledAt  time.Time               `json:"enrolledAt"`
	CompletedAt *time.Time              `json:"completedAt,omitempty"`
}

// NewEnrollmentResponse maps a domain enrollment.
func NewEnrollmentResponse(e *domain.Enrollment) EnrollmentResponse {
	return EnrollmentResponse{
		CourseID:    e.CourseID,
		CourseTitle: e.CourseTitle,
		Progress:    e.Progress,
		Status:      e.Status,
		EnrolledAt:  e.EnrolledAt,
		CompletedAt: e.CompletedAt,
	}
}

// NewEnrollmentResponses maps a slice of enrollments.
func NewEnrollmentResponses(list []domain.Enrollment) []EnrollmentResponse {
	out := make([]EnrollmentResponse, 0, len(list))
	for i := range list {
		out = append(out, NewEnrollmentResponse(&list[i]))
	}
	return out
}

// ProfileResponse is a user with their enrolled courses.
type ProfileResponse struct {
	*UserResponse
	Courses []EnrollmentResponse `json:"courses"`
}

// NewProfileResponse maps a service profile.
func NewProfileResponse(p *service.Profile) ProfileResponse {
	return ProfileResponse{UserResponse: NewUserResponse(p.User), Courses: NewEnrollmentResponses(p.Enrollments)}
}

// ActivityResponse is one activity log entry.
type ActivityResponse struct {
	ID             string              `json:"id"`
	Type           domain.ActivityType `json:"type"`
	Content        string              `json:"content"`
	Reference      *string             `json:"reference,omitempty"`
	ReferenceModel string              `json:"referenceModel,omitempty"`
	CreatedAt      time.Time           `json:"createdAt"`
}

// NewActivityResponses maps activities.
func NewActivityResponses(list []domain.Activity) []ActivityResponse {
	out := make([]ActivityResponse, 0, len(list))
	for _, a := range list {
		out = append(out, ActivityResponse{
			ID:             a.ID,
			Type:           a.Type,
			Content:        a.Content,
			Reference:      a.ReferenceID,
			ReferenceModel: a.ReferenceModel,
			CreatedAt:      a.CreatedAt,
		})
	}
	return out
}
