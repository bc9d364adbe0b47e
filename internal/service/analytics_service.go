package service

import (
	"context"
	"math"
	"time"

	"github.com/spec-kit/learning-platform/internal/domain"
	"github.com/spec-kit/learning-platform/internal/repository"
)

const growthWindow = 30 * 24 * time.Hour

// Dashboard aggregates platform-wide numbers for the analytics view.
type Dashboard struct {
	TotalUsers       int               `json:"totalUsers"`
	NewUsers         int               `json:"newUsers"`
	UserGrowth       float64           `json:"userGrowth"`
	TotalCourses     int               `json:"totalCourses"`
	PublishedCourses int               `json:"publishedCourses"`
	TotalEnrollments int               `json:"totalEnrollments"`
	TotalCompletions int               `json:"totalCompletions"`
	CompletionRate   float64           `json:"completionRate"`
	AverageRating    float64           `json:"averageRating"`
	RecentActivity   []domain.Activity `json:"recentActivity"`
}

// AnalyticsService computes the dashboard from stored data.
type AnalyticsService struct {
	store repository.Store
	now   Clock
}

// NewAnalyticsService constructs the service.
func NewAnalyticsService(store repository.Store, clock Clock) *AnalyticsService {
	return &AnalyticsService{store: store, now: clockOrDefault(clock)}
}

// Dashboard returns platform totals and the caller's latest activity.
func (s *AnalyticsService) Dashboard(ctx context.Context, userID string) (*Dashboard, error) {
	users := s.store.Users()
	total, err := users.Count(ctx)
	if err != nil {
		return nil, repoError(err, nil)
	}
	recent, err := users.CountCreatedSince(ctx, s.now().Add(-growthWindow))
	if err != nil {
		return nil, repoError(err, nil)
	}
	summary, err := s.store.Courses().Summary(ctx)
	if err != nil {
		return nil, repoError(err, nil)
	}
	stats, err := s.store.Enrollments().Stats(ctx)
	if err != nil {
		return nil, repoError(err, nil)
	}
	activity, err := s.store.Activities().ListByUser(ctx, userID, recentActivityLimit)
	if err != nil {
		return nil, repoError(err, nil)
	}
	if activity == nil {
		activity = []domain.Activity{}
	}

	return &Dashboard{
		TotalUsers:       total,
		NewUsers:         recent,
		UserGrowth:       percent(recent, total-recent),
		TotalCourses:     summary.Total,
		PublishedCourses: summary.Published,
		TotalEnrollments: stats.Total,
		TotalCompletions: stats.Completed,
		CompletionRate:   percent(stats.Completed, stats.Total),
		AverageRating:    summary.AverageRating,
		RecentActivity:   activity,
	}, nil
}

// percent returns part/whole*100 rounded to one decimal, or 0 when whole is not positive.
func percent(part, whole int) float64 {
	if whole <= 0 {
		return 0
	}
	return math.Round(float64(part)/float64(whole)*1000) / 10
}
