package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/learning-platform/internal/cache"
	"github.com/spec-kit/learning-platform/internal/domain"
	"github.com/spec-kit/learning-platform/internal/repository"
	apperrors "github.com/spec-kit/learning-platform/pkg/util"
)

// CourseService manages the catalog.
type CourseService struct {
	store  repository.Store
	cache  *cache.Helper
	logger *zap.Logger
}

// CourseDependencies bundles the collaborators of CourseService.
type CourseDependencies struct {
	Store  repository.Store
	Cache  *cache.Helper
	Logger *zap.Logger
}

// NewCourseService constructs the service. A nil cache disables caching.
func NewCourseService(deps CourseDependencies) *CourseService {
	return &CourseService{
		store:  deps.Store,
		cache:  deps.Cache,
		logger: loggerOrNop(deps.Logger),
	}
}

// CourseDetail is a course with its ratings.
type CourseDetail struct {
	Course  *domain.Course  `json:"course"`
	Ratings []domain.Rating `json:"ratings"`
}

// CourseQuery carries the catalog listing parameters as received.
type CourseQuery struct {
	Category string
	Level    string
	Search   string
	Sort     string
	Page     int
	Limit    int
}

// CourseInput describes a new course.
type CourseInput struct {
	Title         string
	Description   string
	Thumbnail     string
	Category      domain.Category
	Level         domain.Level
	DurationHours float64
	Price         float64
	Modules       []domain.Module
	Requirements  []string
	Objectives    []string
	Tags          []string
	Status        domain.CourseStatus
	Featured      bool
	StartDate     *time.Time
	EndDate       *time.Time
}

// CourseUpdate is a partial update; nil fields are left alone.
type CourseUpdate struct {
	Title         *string
	Description   *string
	Thumbnail     *string
	Category      *domain.Category
	Level         *domain.Level
	DurationHours *float64
	Price         *float64
	Modules       *[]domain.Module
	Requirements  *[]string
	Objectives    *[]string
	Tags          *[]string
	Status        *domain.CourseStatus
	Featured      *bool
	StartDate     *time.Time
	EndDate       *time.Time
}

// ParseSort turns "price:asc,title:desc" into sort fields. Directions other
// than desc sort ascending; unknown fields are rejected.
func ParseSort(raw string) ([]repository.SortField, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var fields []repository.SortField
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, dir, _ := strings.Cut(part, ":")
		if !repository.IsSortField(name) {
			return nil, apperrors.NewValidationError("Invalid sort field", map[string]any{"sort": name})
		}
		fields = append(fields, repository.SortField{Field: name, Desc: strings.EqualFold(dir, "desc")})
	}
	return fields, nil
}

// List returns one page of the catalog. Only administrators see unpublished courses.
func (s *CourseService) List(ctx context.Context, viewer *domain.User, q CourseQuery) ([]domain.Course, Pagination, error) {
	filter := repository.CourseFilter{Search: strings.TrimSpace(q.Search)}
	if q.Category != "" {
		filter.Category = domain.Category(q.Category)
		if !filter.Category.Valid() {
			return nil, Pagination{}, apperrors.NewValidationError("Invalid category", map[string]any{"category": q.Category})
		}
	}
	if q.Level != "" {
		filter.Level = domain.Level(q.Level)
		if !filter.Level.Valid() {
			return nil, Pagination{}, apperrors.NewValidationError("Invalid level", map[string]any{"level": q.Level})
		}
	}
	sortFields, err := ParseSort(q.Sort)
	if err != nil {
		return nil, Pagination{}, err
	}
	filter.Sort = sortFields
	if !viewer.HasRole(domain.RoleAdmin) {
		filter.Statuses = []domain.CourseStatus{domain.CourseStatusPublished}
	}

	page, limit, offset, err := pageWindow(q.Page, q.Limit)
	if err != nil {
		return nil, Pagination{}, err
	}
	filter.Limit, filter.Offset = limit, offset

	courses, total, err := s.store.Courses().List(ctx, filter)
	if err != nil {
		return nil, Pagination{}, repoError(err, nil)
	}
	return courses, newPagination(page, limit, total), nil
}

// Get returns a course with its ratings, served from the cache when possible.
func (s *CourseService) Get(ctx context.Context, id string) (*CourseDetail, error) {
	return cache.GetOrLoad(ctx, s.cache, id, func() (*CourseDetail, error) {
		return loadCourseDetail(ctx, s.store, id)
	}, func(err error) {
		s.logger.Warn("course cache unavailable", zap.String("course_id", id), zap.Error(err))
	})
}

func loadCourseDetail(ctx context.Context, store repository.Store, id string) (*CourseDetail, error) {
	course, err := store.Courses().GetByID(ctx, id)
	if err != nil {
		return nil, repoError(err, errCourseNotFound)
	}
	ratings, err := store.Ratings().ListByCourse(ctx, id)
	if err != nil {
		return nil, repoError(err, nil)
	}
	if ratings == nil {
		ratings = []domain.Rating{}
	}
	return &CourseDetail{Course: course, Ratings: ratings}, nil
}

// Create adds a course owned by the caller.
func (s *CourseService) Create(ctx context.Context, actor *domain.User, in CourseInput) (*domain.Course, error) {
	if !actor.HasRole(domain.RoleInstructor, domain.RoleAdmin) {
		return nil, apperrors.NewForbidden("Not authorized to create courses")
	}
	if err := checkDates(in.StartDate, in.EndDate); err != nil {
		return nil, err
	}

	course := &domain.Course{
		Description:   in.Description,
		InstructorID:  actor.ID,
		Thumbnail:     in.Thumbnail,
		Category:      in.Category,
		Level:         in.Level,
		DurationHours: in.DurationHours,
		Price:         in.Price,
		Modules:       in.Modules,
		Requirements:  in.Requirements,
		Objectives:    in.Objectives,
		Tags:          in.Tags,
		Status:        in.Status,
		Featured:      in.Featured,
		StartDate:     in.StartDate,
		EndDate:       in.EndDate,
	}
	if course.Thumbnail == "" {
		course.Thumbnail = domain.DefaultThumbnail
	}
	if course.Status == "" {
		course.Status = domain.CourseStatusDraft
	}
	if err := setTitle(course, in.Title); err != nil {
		return nil, err
	}

	if err := s.store.Courses().Create(ctx, course); err != nil {
		return nil, courseWriteError(err, course.Slug)
	}
	course.InstructorName = actor.Name
	s.logger.Info("course created", zap.String("course_id", course.ID), zap.String("instructor_id", actor.ID))
	return course, nil
}

// Update applies a partial update. Only the owner or an administrator may
// change a course.
func (s *CourseService) Update(ctx context.Context, actor *domain.User, id string, in CourseUpdate) (*domain.Course, error) {
	course, err := s.store.Courses().GetByID(ctx, id)
	if err != nil {
		return nil, repoError(err, errCourseNotFound)
	}
	if !canManage(actor, course) {
		return nil, apperrors.NewForbidden("Not authorized to update this course")
	}

	if in.Title != nil {
		if err := setTitle(course, *in.Title); err != nil {
			return nil, err
		}
	}
	if in.Description != nil {
		course.Description = *in.Description
	}
	if in.Thumbnail != nil {
		course.Thumbnail = *in.Thumbnail
	}
	if in.Category != nil {
		course.Category = *in.Category
	}
	if in.Level != nil {
		course.Level = *in.Level
	}
	if in.DurationHours != nil {
		course.DurationHours = *in.DurationHours
	}
	if in.Price != nil {
		course.Price = *in.Price
	}
	if in.Modules != nil {
		course.Modules = *in.Modules
	}
	if in.Requirements != nil {
		course.Requirements = *in.Requirements
	}
	if in.Objectives != nil {
		course.Objectives = *in.Objectives
	}
	if in.Tags != nil {
		course.Tags = *in.Tags
	}
	if in.Status != nil {
		course.Status = *in.Status
	}
	if in.Featured != nil {
		course.Featured = *in.Featured
	}
	if in.StartDate != nil {
		course.StartDate = in.StartDate
	}
	if in.EndDate != nil {
		course.EndDate = in.EndDate
	}
	if err := checkDates(course.StartDate, course.EndDate); err != nil {
		return nil, err
	}

	if err := s.store.Courses().Update(ctx, course); err != nil {
		return nil, courseWriteError(err, course.Slug)
	}
	invalidateCourse(ctx, s.cache, s.logger, course.ID)
	return course, nil
}

// Delete removes a course together with its enrollments and ratings.
func (s *CourseService) Delete(ctx context.Context, actor *domain.User, id string) error {
	course, err := s.store.Courses().GetByID(ctx, id)
	if err != nil {
		return repoError(err, errCourseNotFound)
	}
	if !canManage(actor, course) {
		return apperrors.NewForbidden("Not authorized to delete this course")
	}
	if err := s.store.Courses().Delete(ctx, id); err != nil {
		return repoError(err, errCourseNotFound)
	}
	invalidateCourse(ctx, s.cache, s.logger, id)
	s.logger.Info("course deleted", zap.String("course_id", id), zap.String("actor_id", actor.ID))
	return nil
}

func canManage(actor *domain.User, course *domain.Course) bool {
	return actor.HasRole(domain.RoleAdmin) || (actor != nil && course.IsOwnedBy(actor.ID))
}

func setTitle(course *domain.Course, title string) error {
	title = strings.TrimSpace(title)
	course.SetTitle(title)
	if course.Slug == "" {
		return apperrors.NewValidationError("Title must contain letters or digits", map[string]any{"title": title})
	}
	return nil
}

func checkDates(start, end *time.Time) error {
	if start != nil && end != nil && end.Before(*start) {
		return apperrors.NewValidationError("End date must not be before start date", nil)
	}
	return nil
}

func courseWriteError(err error, slug string) error {
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		return apperrors.NewConflict("A course with this title already exists", map[string]any{"slug": slug})
	case errors.Is(err, repository.ErrReferenced):
		return apperrors.NewValidationError("Instructor does not exist", nil)
	}
	return repoError(err, errCourseNotFound)
}
