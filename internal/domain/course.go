package domain

import "context"

// Lesson is a single unit of a course
type Lesson struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Content    string `json:"content"`
	VideoURL   string `json:"videoUrl,omitempty"`
	Instructor string `json:"instructor,omitempty"`
	Duration   string `json:"duration,omitempty"`
}

// Course groups lessons under a title
type Course struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Lessons     []Lesson `json:"lessons"`
}

// Lesson returns the lesson with the given id
func (c Course) Lesson(id string) (Lesson, bool) {
	for _, l := range c.Lessons {
		if l.ID == id {
			return l, true
		}
	}
	return Lesson{}, false
}

// CoursePatch lists the mutable course fields. Lessons replaces the whole list.
type CoursePatch struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Lessons     *[]Lesson `json:"lessons,omitempty"`
}

// Apply merges the patch over c field by field
func (p CoursePatch) Apply(c Course) Course {
	if p.Title != nil {
		c.Title = *p.Title
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.Lessons != nil {
		c.Lessons = append([]Lesson(nil), (*p.Lessons)...)
	}
	return c
}

// LessonPatch lists the mutable lesson fields
type LessonPatch struct {
	Title      *string `json:"title,omitempty"`
	Content    *string `json:"content,omitempty"`
	VideoURL   *string `json:"videoUrl,omitempty"`
	Instructor *string `json:"instructor,omitempty"`
	Duration   *string `json:"duration,omitempty"`
}

// Apply merges the patch over l field by field
func (p LessonPatch) Apply(l Lesson) Lesson {
	if p.Title != nil {
		l.Title = *p.Title
	}
	if p.Content != nil {
		l.Content = *p.Content
	}
	if p.VideoURL != nil {
		l.VideoURL = *p.VideoURL
	}
	if p.Instructor != nil {
		l.Instructor = *p.Instructor
	}
	if p.Duration != nil {
		l.Duration = *p.Duration
	}
	return l
}

// CourseRepository defines data access for courses
type CourseRepository interface {
	ListCourses(ctx context.Context) ([]Course, error)
	CreateCourse(ctx context.Context, course Course) (Course, error)
	UpdateCourse(ctx context.Context, id string, patch CoursePatch) (Course, error)
	DeleteCourse(ctx context.Context, id string) error
}
