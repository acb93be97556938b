package docstore

import (
	"time"

	"github.com/gistda/internhub/internal/domain"
)

// SeedPassword is the password of every seeded account
const SeedPassword = "password"

func seedUsers() []domain.User {
	return []domain.User{
		{ID: "u1", Name: "Admin (Mentor)", Email: "admin@example.com", Password: SeedPassword, Role: domain.RoleAdmin},
		{
			ID:       "u2",
			Name:     "Intern User",
			Email:    "intern@example.com",
			Password: SeedPassword,
			Role:     domain.RoleIntern,
			Profile: &domain.InternProfile{
				FirstName:    "Intern",
				LastName:     "User",
				University:   "GISTDA University",
				Faculty:      "Engineering",
				Major:        "Computer Engineering",
				StudentID:    "63010001",
				StartDate:    "2024-01-01",
				EndDate:      "2024-04-30",
				Mobile:       "0812345678",
				AdvisorName:  "Dr. Advisor",
				AdvisorEmail: "advisor@university.ac.th",
			},
		},
		{ID: "u3", Name: "External User", Email: "external@example.com", Password: SeedPassword, Role: domain.RoleExternal},
	}
}

func seedCourses() []domain.Course {
	return []domain.Course{
		{
			ID:          "c1",
			Title:       "Introduction to Space Technology",
			Description: "Learn the basics of space tech and satellite systems.",
			Lessons: []domain.Lesson{
				{ID: "l1", Title: "History of Spaceflight", Content: "Content about history...", VideoURL: "https://www.youtube.com/embed/dQw4w9WgXcQ"},
				{ID: "l2", Title: "Satellite Orbits", Content: "Content about orbits..."},
			},
		},
		{
			ID:          "c2",
			Title:       "GISTDA Orientation",
			Description: "Welcome to GISTDA internship program.",
			Lessons: []domain.Lesson{
				{ID: "l3", Title: "Safety Guidelines", Content: "Safety first..."},
			},
		},
	}
}

func seedSubmissions(now time.Time) []domain.Submission {
	return []domain.Submission{
		{
			ID:          "s1",
			Title:       "Satellite Image Processing using AI",
			Abstract:    "A study on using CNNs to detect deforestation.",
			StudentName: "Intern User",
			StudentID:   "u2",
			ImageURL:    "https://images.unsplash.com/photo-1451187580459-43490279c0fa?w=800&q=80",
			Status:      domain.SubmissionPublished,
			SubmittedAt: now.UTC(),
		},
	}
}
