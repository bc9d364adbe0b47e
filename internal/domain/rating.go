package domain

import "time"

const (
	MinRatingScore = 1
	MaxRatingScore = 5
)

// Rating is one user's score for a course. At most one exists per
// (CourseID, UserID); resubmissions overwrite it.
type Rating struct {
	CourseID string
	UserID   string
	UserName string
	Score    int
	Review   string
	RatedAt  time.Time
}

// Scores extracts the numeric scores from ratings.
func Scores(ratings []Rating) []int {
	out := make([]int, 0, len(ratings))
	for _, r := range ratings {
		out = append(out, r.Score)
	}
	return out
}
