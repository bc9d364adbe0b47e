package domain

import (
	"math"
	"regexp"
	"strings"
	"time"
)

// Category is the closed set of catalog categories.
type Category string

const (
	CategoryWebDevelopment    Category = "Web Development"
	CategoryMobileDevelopment Category = "Mobile Development"
	CategoryDataScience       Category = "Data Science"
	CategoryAIML              Category = "AI/ML"
	CategoryCloudComputing    Category = "Cloud Computing"
	CategoryDevOps            Category = "DevOps"
	CategoryCybersecurity     Category = "Cybersecurity"
	CategoryUIUX              Category = "UI/UX"
	CategoryOther             Category = "Other"
)

var categories = map[Category]struct{}{
	CategoryWebDevelopment:    {},
	CategoryMobileDevelopment: {},
	CategoryDataScience:       {},
	CategoryAIML:              {},
	CategoryCloudComputing:    {},
	CategoryDevOps:            {},
	CategoryCybersecurity:     {},
	CategoryUIUX:              {},
	CategoryOther:             {},
}

// Valid reports whether c is part of the catalog taxonomy.
func (c Category) Valid() bool {
	_, ok := categories[c]
	return ok
}

// Level is the difficulty of a course.
type Level string

const (
	LevelBeginner     Level = "Beginner"
	LevelIntermediate Level = "Intermediate"
	LevelAdvanced     Level = "Advanced"
)

func (l Level) Valid() bool {
	switch l {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
		return true
	}
	return false
}

// CourseStatus is the publication state of a course.
type CourseStatus string

const (
	CourseStatusDraft     CourseStatus = "draft"
	CourseStatusPublished CourseStatus = "published"
	CourseStatusArchived  CourseStatus = "archived"
)

func (s CourseStatus) Valid() bool {
	switch s {
	case CourseStatusDraft, CourseStatusPublished, CourseStatusArchived:
		return true
	}
	return false
}

// LessonType describes the lesson medium.
type LessonType string

const (
	LessonTypeVideo   LessonType = "video"
	LessonTypeArticle LessonType = "article"
	LessonTypeQuiz    LessonType = "quiz"
)

func (t LessonType) Valid() bool {
	switch t {
	case LessonTypeVideo, LessonTypeArticle, LessonTypeQuiz:
		return true
	}
	return false
}

// Lesson is a single unit of content inside a module.
type Lesson struct {
	Title    string     `json:"title"`
	Type     LessonType `json:"type"`
	Content  string     `json:"content"`
	Duration float64    `json:"duration,omitempty"`
	Order    int        `json:"order,omitempty"`
}

// Module is an ordered group of lessons.
type Module struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Duration    float64  `json:"duration,omitempty"`
	Lessons     []Lesson `json:"lessons"`
}

// CourseStatistics holds denormalized counters for a course.
type CourseStatistics struct {
	TotalEnrolled  int
	TotalCompleted int
	AverageRating  float64
	TotalRatings   int
}

// Course is the catalog aggregate. Ratings are an owned collection.
type Course struct {
	ID             string
	Title          string
	Slug           string
	Description    string
	InstructorID   string
	InstructorName string
	Thumbnail      string
	Category       Category
	Level          Level
	DurationHours  float64
	Price          float64
	Modules        []Module
	Requirements   []string
	Objectives     []string
	Tags           []string
	Statistics     CourseStatistics
	Status         CourseStatus
	Featured       bool
	StartDate      *time.Time
	EndDate        *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

const DefaultThumbnail = "default-course.jpg"

// IsOwnedBy reports whether userID is the course instructor.
func (c *Course) IsOwnedBy(userID string) bool {
	return c != nil && c.InstructorID == userID
}

// SetTitle updates the title and regenerates the slug when it changed.
// It returns true when the slug was regenerated.
func (c *Course) SetTitle(title string) bool {
	if c.Title == title && c.Slug != "" {
		return false
	}
	c.Title = title
	c.Slug = Slugify(title)
	return true
}

var (
	nonWordOrSpace = regexp.MustCompile(`[^\w ]+`)
	spaceRun       = regexp.MustCompile(` +`)
)

// Slugify lowercases the title, strips everything that is neither a word
// character nor a space, then turns each run of spaces into one hyphen.
func Slugify(title string) string {
	s := strings.ToLower(title)
	s = nonWordOrSpace.ReplaceAllString(s, "")
	return spaceRun.ReplaceAllString(s, "-")
}

// RoundedAverage returns the arithmetic mean of scores rounded to one
// decimal, or 0 when there are no scores.
func RoundedAverage(scores []int) float64 {
	if len(scores) == 0 {
		return 0
	}
	sum := 0
	for _, s := range scores {
		sum += s
	}
	mean := float64(sum) / float64(len(scores))
	return math.Round(mean*10) / 10
}
