package domain

import "time"

// ActivityType enumerates activity log entries.
type ActivityType string

const (
	ActivityPost     ActivityType = "post"
	ActivityComment  ActivityType = "comment"
	ActivityLike     ActivityType = "like"
	ActivityEnroll   ActivityType = "enroll"
	ActivityComplete ActivityType = "complete"
)

const ReferenceModelCourse = "Course"

// Activity is an entry in a user's activity log.
type Activity struct {
	ID             string
	UserID         string
	Type           ActivityType
	Content        string
	ReferenceID    *string
	ReferenceModel string
	CreatedAt      time.Time
}

// CourseActivity builds an activity that references a course.
func CourseActivity(userID string, kind ActivityType, content, courseID string, now time.Time) *Activity {
	ref := courseID
	return &Activity{
		UserID:         userID,
		Type:           kind,
		Content:        content,
		ReferenceID:    &ref,
		ReferenceModel: ReferenceModelCourse,
		CreatedAt:      now,
	}
}
