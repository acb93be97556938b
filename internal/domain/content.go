package domain

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// News is an announcement shown on the landing page
type News struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ImageURL    string    `json:"imageUrl"`
	Category    string    `json:"category"`
	PublishDate time.Time `json:"publishDate"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Plan states
const (
	PlanDraft     = "draft"
	PlanActive    = "active"
	PlanCompleted = "completed"
)

// Mentor is the short form of a mentor account
type Mentor struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ProjectPlan is the project an intern commits to with a mentor
type ProjectPlan struct {
	ID           string    `json:"id"`
	InternID     string    `json:"internId"`
	MentorID     string    `json:"mentorId,omitempty"`
	ProjectTitle string    `json:"projectTitle"`
	Objectives   string    `json:"objectives"`
	Description  string    `json:"description,omitempty"`
	StartDate    string    `json:"startDate,omitempty"`
	EndDate      string    `json:"endDate,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	Intern       *Mentor   `json:"Intern,omitempty"`
	Mentor       *Mentor   `json:"Mentor,omitempty"`
}

// ProjectDocument is a file attached to a project plan
type ProjectDocument struct {
	ID          string    `json:"id"`
	PlanID      string    `json:"planId"`
	FileName    string    `json:"fileName"`
	FileType    string    `json:"fileType"`
	FileURL     string    `json:"fileUrl"`
	FileSize    int64     `json:"fileSize"`
	Description string    `json:"description,omitempty"`
	UploadedAt  time.Time `json:"uploadedAt"`
}

var documentTypes = map[string]string{
	"pdf":  "application/pdf",
	"doc":  "application/msword",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"ppt":  "application/vnd.ms-powerpoint",
	"pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"xls":  "application/vnd.ms-excel",
	"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// DocumentType guesses a MIME type from the file extension
func DocumentType(fileName string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(fileName), "."))
	if t, ok := documentTypes[ext]; ok {
		return t
	}
	return "application/octet-stream"
}

// FormatFileSize renders a byte count as B, KB or MB
func FormatFileSize(bytes int64) string {
	switch {
	case bytes < 1024:
		return fmt.Sprintf("%d B", bytes)
	case bytes < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(bytes)/1024)
	default:
		return fmt.Sprintf("%.1f MB", float64(bytes)/(1024*1024))
	}
}
