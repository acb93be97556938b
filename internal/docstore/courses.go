package docstore

import (
	"context"

	"github.com/gistda/internhub/internal/domain"
)

// ListCourses returns every course with its lessons
func (s *Store) ListCourses(ctx context.Context) ([]domain.Course, error) {
	var out []domain.Course
	err := s.view(ctx, "course", "list", func(doc *Document) error {
		out = orEmpty(doc.Courses)
		return nil
	})
	return out, err
}

// GetCourse returns the course with id
func (s *Store) GetCourse(ctx context.Context, id string) (domain.Course, error) {
	var out domain.Course
	err := s.view(ctx, "course", "get", func(doc *Document) error {
		i := indexOf(doc.Courses, func(c domain.Course) bool { return c.ID == id })
		if i < 0 {
			return domain.NotFound("course")
		}
		out = doc.Courses[i]
		return nil
	})
	return out, err
}

// CreateCourse appends a course. Lessons without an id get one.
func (s *Store) CreateCourse(ctx context.Context, course domain.Course) (domain.Course, error) {
	err := s.update(ctx, "course", "create", func(doc *Document) error {
		course.ID = s.nextID("c", func(id string) bool {
			return indexOf(doc.Courses, func(c domain.Course) bool { return c.ID == id }) >= 0
		})
		course.Lessons = s.assignLessonIDs(doc, course.Lessons)
		doc.Courses = append(doc.Courses, course)
		return nil
	})
	if err != nil {
		return domain.Course{}, err
	}
	return course, nil
}

// UpdateCourse merges patch over the stored course
func (s *Store) UpdateCourse(ctx context.Context, id string, patch domain.CoursePatch) (domain.Course, error) {
	var out domain.Course
	err := s.update(ctx, "course", "update", func(doc *Document) error {
		i := indexOf(doc.Courses, func(c domain.Course) bool { return c.ID == id })
		if i < 0 {
			return domain.NotFound("course")
		}
		doc.Courses[i] = patch.Apply(doc.Courses[i])
		if patch.Lessons != nil {
			doc.Courses[i].Lessons = s.assignLessonIDs(doc, doc.Courses[i].Lessons)
		}
		out = doc.Courses[i]
		return nil
	})
	return out, err
}

// UpdateLesson merges patch over one lesson of a course
func (s *Store) UpdateLesson(ctx context.Context, courseID, lessonID string, patch domain.LessonPatch) (domain.Course, error) {
	var out domain.Course
	err := s.update(ctx, "lesson", "update", func(doc *Document) error {
		i := indexOf(doc.Courses, func(c domain.Course) bool { return c.ID == courseID })
		if i < 0 {
			return domain.NotFound("course")
		}
		lessons := append([]domain.Lesson(nil), doc.Courses[i].Lessons...)
		j := indexOf(lessons, func(l domain.Lesson) bool { return l.ID == lessonID })
		if j < 0 {
			return domain.NotFound("lesson")
		}
		lessons[j] = patch.Apply(lessons[j])
		doc.Courses[i].Lessons = lessons
		out = doc.Courses[i]
		return nil
	})
	return out, err
}

// DeleteCourse removes the course. Unknown ids are ignored.
func (s *Store) DeleteCourse(ctx context.Context, id string) error {
	return s.update(ctx, "course", "delete", func(doc *Document) error {
		doc.Courses = filter(doc.Courses, func(c domain.Course) bool { return c.ID != id })
		return nil
	})
}

func (s *Store) assignLessonIDs(doc *Document, lessons []domain.Lesson) []domain.Lesson {
	if lessons == nil {
		return []domain.Lesson{}
	}
	out := append([]domain.Lesson(nil), lessons...)
	taken := func(id string) bool {
		for _, c := range doc.Courses {
			if _, ok := c.Lesson(id); ok {
				return true
			}
		}
		return indexOf(out, func(l domain.Lesson) bool { return l.ID == id }) >= 0
	}
	for i := range out {
		if out[i].ID == "" {
			out[i].ID = s.nextID("l", taken)
		}
	}
	return out
}
