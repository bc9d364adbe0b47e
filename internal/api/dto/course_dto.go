package dto

import (
	"time"

	"github.com/spec-kit/learning-platform/internal/domain"
	"github.com/spec-kit/learning-platform/internal/service"
)

// LessonPayload describes one lesson.
type LessonPayload struct {
	Title    string  `json:"title" validate:"required,max=200"`
	Type     string  `json:"type" validate:"required,lesson_type"`
	Content  string  `json:"content" validate:"required"`
	Duration float64 `json:"duration,omitempty" validate:"min=0"`
	Order    int     `json:"order,omitempty" validate:"min=0"`
}

// ModulePayload describes one module and its lessons.
type ModulePayload struct {
	Title       string          `json:"title" validate:"required,max=200"`
	Description string          `json:"description,omitempty"`
	Duration    float64         `json:"duration,omitempty" validate:"min=0"`
	Lessons     []LessonPayload `json:"lessons" validate:"dive"`
}

func toModules(in []ModulePayload) []domain.Module {
	out := make([]domain.Module, 0, len(in))
	for _, m := range in {
		lessons := make([]domain.Lesson, 0, len(m.Lessons))
		for _, l := range m.Lessons {
			lessons = append(lessons, domain.Lesson{
				Title:    l.Title,
				Type:     domain.LessonType(l.Type),
				Content:  l.Content,
				Duration: l.Duration,
				Order:    l.Order,
			})
		}
		out = append(out, domain.Module{Title: m.Title, Description: m.Description, Duration: m.Duration, Lessons: lessons})
	}
	return out
}

// CreateCourseRequest payload for POST /courses.
type CreateCourseRequest struct {
	Title        string          `json:"title" validate:"required,max=100"`
	Description  string          `json:"description" validate:"required,max=2000"`
	Thumbnail    string          `json:"thumbnail" validate:"omitempty,max=500"`
	Category     string          `json:"category" validate:"required,course_category"`
	Level        string          `json:"level" validate:"required,course_level"`
	Duration     float64         `json:"duration" validate:"required,gt=0"`
	Price        float64         `json:"price" validate:"min=0"`
	Modules      []ModulePayload `json:"modules" validate:"dive"`
	Requirements []string        `json:"requirements"`
	Objectives   []string        `json:"objectives"`
	Tags         []string        `json:"tags"`
	Status       string          `json:"status" validate:"omitempty,course_status"`
	Featured     bool            `json:"featured"`
	StartDate    *time.Time      `json:"startDate"`
	EndDate      *time.Time      `json:"endDate"`
}

// ToInput converts the request into service input.
func (r CreateCourseRequest) ToInput() service.CourseInput {
	return service.CourseInput{
		Title:         r.Title,
		Description:   r.Description,
		Thumbnail:     r.Thumbnail,
		Category:      domain.Category(r.Category),
		Level:         domain.Level(r.Level),
		DurationHours: r.Duration,
		Price:         r.Price,
		Modules:       toModules(r.Modules),
		Requirements:  r.Requirements,
		Objectives:    r.Objectives,
		Tags:          r.Tags,
		Status:        domain.CourseStatus(r.Status),
		Featured:      r.Featured,
		StartDate:     r.StartDate,
		EndDate:       r.EndDate,
	}
}

// UpdateCourseRequest payload for PUT /courses/:id. Absent fields are kept.
type UpdateCourseRequest struct {
	Title        *string          `json:"title" validate:"omitempty,min=1,max=100"`
	Description  *string          `json:"description" validate:"omitempty,max=2000"`
	Thumbnail    *string          `json:"thumbnail" validate:"omitempty,max=500"`
	Category     *string          `json:"category" validate:"omitempty,course_category"`
	Level        *string          `json:"level" validate:"omitempty,course_level"`
	Duration     *float64         `json:"duration" validate:"omitempty,gt=0"`
	Price        *float64         `json:"price" validate:"omitempty,min=0"`
	Modules      *[]ModulePayload `json:"modules" validate:"omitempty,dive"`
	Requirements *[]string        `json:"requirements"`
	Objectives   *[]string        `json:"objectives"`
	Tags         *[]string        `json:"tags"`
	Status       *string          `json:"status" validate:"omitempty,course_status"`
	Featured     *bool            `json:"featured"`
	StartDate    *time.Time       `json:"startDate"`
	EndDate      *time.Time       `json:"endDate"`
}

// ToInput converts the request into service input.
func (r UpdateCourseRequest) ToInput() service.CourseUpdate {
	in := service.CourseUpdate{
		Title:         r.Title,
		Description:   r.Description,
		Thumbnail:     r.Thumbnail,
		DurationHours: r.Duration,
		Price:         r.Price,
		Requirements:  r.Requirements,
		Objectives:    r.Objectives,
		Tags:          r.Tags,
		Featured:      r.Featured,
		StartDate:     r.StartDate,
		EndDate:       r.EndDate,
	}
	if r.Category != nil {
		v := domain.Category(*r.Category)
		in.Category = &v
	}
	if r.Level != nil {
		v := domain.Level(*r.Level)
		in.Level = &v
	}
	if r.Status != nil {
		v := domain.CourseStatus(*r.Status)
		in.Status = &v
	}
	if r.Modules != nil {
		m := toModules(*r.Modules)
		in.Modules = &m
	}
	return in
}

// ProgressRequest payload for PUT /courses/:id/progress.
type ProgressRequest struct {
	Progress *int `json:"progress" validate:"required,min=0,max=100"`
}

// RatingRequest payload for POST /courses/:id/ratings.
type RatingRequest struct {
	Rating *int   `json:"rating" validate:"required,min=1,max=5"`
	Review string `json:"review" validate:"max=2000"`
}

// CourseListQuery binds GET /courses query parameters.
type CourseListQuery struct {
	Category string `query:"category"`
	Level    string `query:"level"`
	Search   string `query:"search"`
	Sort     string `query:"sort"`
	Page     int    `query:"page"`
	Limit    int    `query:"limit"`
}

// ToQuery converts the binding into a service query.
func (q CourseListQuery) ToQuery() service.CourseQuery {
	return service.CourseQuery{
		Category: q.Category,
		Level:    q.Level,
		Search:   q.Search,
		Sort:     q.Sort,
		Page:     q.Page,
		Limit:    q.Limit,
	}
}

// InstructorResponse is the embedded instructor reference.
type InstructorResponse struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// CourseStatisticsResponse mirrors domain.CourseStatistics.
type CourseStatisticsResponse struct {
	TotalEnrolled  int     `json:"totalEnrolled"`
	TotalCompleted int     `json:"totalCompleted"`
	AverageRating  float64 `json:"averageRating"`
	TotalRatings   int     `json:"totalRatings"`
}

// CourseResponse is the public view of a course.
type CourseResponse struct {
	ID           string                   `json:"id"`
	Title        string                   `json:"title"`
	Slug         string                   `json:"slug"`
	Description  string                   `json:"description"`
	Instructor   InstructorResponse       `json:"instructor"`
	Thumbnail    string                   `json:"thumbnail"`
	Category     domain.Category          `json:"category"`
	Level        domain.Level             `json:"level"`
	Duration     float64                  `json:"duration"`
	Price        float64                  `json:"price"`
	Modules      []domain.Module          `json:"modules"`
	Requirements []string                 `json:"requirements"`
	Objectives   []string                 `json:"objectives"`
	Tags         []string                 `json:"tags"`
	Statistics   CourseStatisticsResponse `json:"statistics"`
	Status       domain.CourseStatus      `json:"status"`
	Featured     bool                     `json:"featured"`
	StartDate    *time.Time               `json:"startDate,omitempty"`
	EndDate      *time.Time               `json:"endDate,omitempty"`
	CreatedAt    time.Time                `json:"createdAt"`
	UpdatedAt    time.Time                `json:"updatedAt"`
	Ratings      []RatingResponse         `json:"ratings,omitempty"`
}

// RatingResponse is one rating with the rater's name.
type RatingResponse struct {
	UserID   string    `json:"user"`
	UserName string    `json:"userName,omitempty"`
	Rating   int       `json:"rating"`
	Review   string    `json:"review,omitempty"`
	Date     time.Time `json:"date"`
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// NewCourseResponse maps a domain course.
func NewCourseResponse(c *domain.Course) CourseResponse {
	return CourseResponse{
		ID:           c.ID,
		Title:        c.Title,
		Slug:         c.Slug,
		Description:  c.Description,
		Instructor:   InstructorResponse{ID: c.InstructorID, Name: c.InstructorName},
		Thumbnail:    c.Thumbnail,
		Category:     c.Category,
		Level:        c.Level,
		Duration:     c.DurationHours,
		Price:        c.Price,
		Modules:      orEmpty(c.Modules),
		Requirements: orEmpty(c.Requirements),
		Objectives:   orEmpty(c.Objectives),
		Tags:         orEmpty(c.Tags),
		Statistics: CourseStatisticsResponse{
			TotalEnrolled:  c.Statistics.TotalEnrolled,
			TotalCompleted: c.Statistics.TotalCompleted,
			AverageRating:  c.Statistics.AverageRating,
			TotalRatings:   c.Statistics.TotalRatings,
		},
		Status:    c.Status,
		Featured:  c.Featured,
		StartDate: c.StartDate,
		EndDate:   c.EndDate,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// NewCourseResponses maps a listing page.
func NewCourseResponses(list []domain.Course) []CourseResponse {
	out := make([]CourseResponse, 0, len(list))
	for i := range list {
		out = append(out, NewCourseResponse(&list[i]))
	}
	return out
}

// NewCourseDetailResponse maps a course together with its ratings.
func NewCourseDetailResponse(d *service.CourseDetail) CourseResponse {
	resp := NewCourseResponse(d.Course)
	resp.Ratings = make([]RatingResponse, 0, len(d.Ratings))
	for _, r := range d.Ratings {
		resp.Ratings = append(resp.Ratings, RatingResponse{
			UserID:   r.UserID,
			UserName: r.UserName,
			Rating:   r.Score,
			Review:   r.Review,
			Date:     r.RatedAt,
		})
	}
	return resp
}
