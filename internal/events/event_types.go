package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventCourseEnrolled  EventType = "course.enrolled"
	EventCourseCompleted EventType = "course.completed"
	EventCourseRated     EventType = "course.rated"
)

// Event represents a committed domain transition.
type Event struct {
	ID        string          `json:"id"`
	Type      EventType       `json:"type"`
	CourseID  string          `json:"course_id"`
	UserID    string          `json:"user_id"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// NewEvent builds an event with a fresh id and an encoded payload.
func NewEvent(kind EventType, courseID, userID string, payload any, at time.Time) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("encode %s payload: %w", kind, err)
	}
	return Event{
		ID:        uuid.NewString(),
		Type:      kind,
		CourseID:  courseID,
		UserID:    userID,
		Timestamp: at.UTC(),
		Payload:   raw,
	}, nil
}

// DecodePayload unmarshals the payload into dst.
func (e Event) DecodePayload(dst any) error {
	if len(e.Payload) == 0 {
		return fmt.Errorf("event %s has no payload", e.ID)
	}
	return json.Unmarshal(e.Payload, dst)
}

// CourseEnrolledPayload payload.
type CourseEnrolledPayload struct {
	CourseTitle string `json:"course_title"`
}

// CourseCompletedPayload payload.
type CourseCompletedPayload struct {
	CourseTitle string `json:"course_title"`
	UserName    string `json:"user_name"`
	UserEmail   string `json:"user_email"`
}

// CourseRatedPayload payload.
type CourseRatedPayload struct {
	Score         int     `json:"score"`
	Created       bool    `json:"created"`
	AverageRating float64 `json:"average_rating"`
	TotalRatings  int     `json:"total_ratings"`
}
