package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{title: "Intro to C++!", want: "intro-to-c"},
		{title: "Go   Concurrency Patterns", want: "go-concurrency-patterns"},
		{title: "AI/ML: The Basics", want: "aiml-the-basics"},
		{title: "snake_case stays", want: "snake_case-stays"},
		{title: "Déjà vu", want: "dj-vu"},
		{title: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.title))
		})
	}
}

func TestCourseSetTitle(t *testing.T) {
	c := &Course{}
	assert.True(t, c.SetTitle("Rust for Gophers"))
	assert.Equal(t, "rust-for-gophers", c.Slug)

	assert.False(t, c.SetTitle("Rust for Gophers"))

	assert.True(t, c.SetTitle("Rust for Gophers, Part 2"))
	assert.Equal(t, "rust-for-gophers-part-2", c.Slug)
}

func TestRoundedAverage(t *testing.T) {
	tests := []struct {
		name   string
		scores []int
		want   float64
	}{
		{name: "none", scores: nil, want: 0},
		{name: "single", scores: []int{5}, want: 5.0},
		{name: "exact", scores: []int{5, 3, 4}, want: 4.0},
		{name: "rounds half up", scores: []int{4, 5, 5, 5}, want: 4.8},
		{name: "rounds down", scores: []int{1, 2, 2}, want: 1.7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, RoundedAverage(tt.scores), 1e-9)
		})
	}
}

func TestEnumValidity(t *testing.T) {
	assert.True(t, CategoryAIML.Valid())
	assert.False(t, Category("Cooking").Valid())
	assert.True(t, LevelAdvanced.Valid())
	assert.False(t, Level("advanced").Valid())
	assert.True(t, CourseStatusArchived.Valid())
	assert.True(t, LessonTypeQuiz.Valid())
	assert.True(t, RoleInstructor.Valid())
	assert.False(t, Role("root").Valid())
}
