package domain

import "time"

// EnrollmentStatus is derived from progress.
type EnrollmentStatus string

const (
	EnrollmentStatusEnrolled   EnrollmentStatus = "enrolled"
	EnrollmentStatusInProgress EnrollmentStatus = "in-progress"
	EnrollmentStatusCompleted  EnrollmentStatus = "completed"
)

const (
	MinProgress = 0
	MaxProgress = 100
)

// Enrollment is a user's relationship to one course. At most one exists
// per (UserID, CourseID).
type Enrollment struct {
	UserID      string
	CourseID    string
	CourseTitle string
	Progress    int
	Status      EnrollmentStatus
	EnrolledAt  time.Time
	CompletedAt *time.Time
	UpdatedAt   time.Time
}

// NewEnrollment returns a fresh entry with zero progress.
func NewEnrollment(userID, courseID string, now time.Time) *Enrollment {
	return &Enrollment{
		UserID:     userID,
		CourseID:   courseID,
		Progress:   0,
		Status:     EnrollmentStatusEnrolled,
		EnrolledAt: now,
		UpdatedAt:  now,
	}
}

// ValidProgress reports whether p is inside [0, 100].
func ValidProgress(p int) bool {
	return p >= MinProgress && p <= MaxProgress
}

// ApplyProgress records p and derives the status. It returns true only on
// the first transition into completed; CompletedAt guards against counting
// a completion twice.
func (e *Enrollment) ApplyProgress(p int, now time.Time) bool {
	e.Progress = p
	e.UpdatedAt = now

	switch {
	case p == MaxProgress:
		e.Status = EnrollmentStatusCompleted
		if e.CompletedAt == nil {
			completedAt := now
			e.CompletedAt = &completedAt
			return true
		}
	case p > MinProgress:
		e.Status = EnrollmentStatusInProgress
	}
	return false
}

// IsCompleted reports whether the entry currently counts as completed.
func (e *Enrollment) IsCompleted() bool {
	return e != nil && e.Status == EnrollmentStatusCompleted
}
