package domain

import (
	"context"
	"time"
)

// SubmissionStatus tracks a project submission through review
type SubmissionStatus string

const (
	SubmissionPending   SubmissionStatus = "pending"
	SubmissionApproved  SubmissionStatus = "approved"
	SubmissionRejected  SubmissionStatus = "rejected"
	SubmissionPublished SubmissionStatus = "published"
)

// Valid reports whether s is a known status
func (s SubmissionStatus) Valid() bool {
	switch s {
	case SubmissionPending, SubmissionApproved, SubmissionRejected, SubmissionPublished:
		return true
	}
	return false
}

// Link is an external reference attached to a submission
type Link struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// Submission is an intern project shown in the gallery once published
type Submission struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Abstract    string           `json:"abstract"`
	StudentName string           `json:"studentName"`
	StudentID   string           `json:"studentId"`
	ImageURL    string           `json:"imageUrl"`
	Status      SubmissionStatus `json:"status"`
	SubmittedAt time.Time        `json:"submittedAt"`
	Links       []Link           `json:"links,omitempty"`
}

// SubmissionPatch lists the mutable submission fields. The student identity
// is fixed at creation.
type SubmissionPatch struct {
	Title    *string           `json:"title,omitempty"`
	Abstract *string           `json:"abstract,omitempty"`
	ImageURL *string           `json:"imageUrl,omitempty"`
	Status   *SubmissionStatus `json:"status,omitempty"`
	Links    *[]Link           `json:"links,omitempty"`
}

// Apply merges the patch over s field by field
func (p SubmissionPatch) Apply(s Submission) Submission {
	if p.Title != nil {
		s.Title = *p.Title
	}
	if p.Abstract != nil {
		s.Abstract = *p.Abstract
	}
	if p.ImageURL != nil {
		s.ImageURL = *p.ImageURL
	}
	if p.Status != nil {
		s.Status = *p.Status
	}
	if p.Links != nil {
		s.Links = append([]Link(nil), (*p.Links)...)
	}
	return s
}

// OnlyStatus reports whether the patch touches nothing but the review status
func (p SubmissionPatch) OnlyStatus() bool {
	return p.Status != nil && p.Title == nil && p.Abstract == nil && p.ImageURL == nil && p.Links == nil
}

// SubmissionRepository defines data access for submissions
type SubmissionRepository interface {
	ListSubmissions(ctx context.Context) ([]Submission, error)
	CreateSubmission(ctx context.Context, submission Submission) (Submission, error)
	UpdateSubmission(ctx context.Context, id string, patch SubmissionPatch) (Submission, error)
	DeleteSubmission(ctx context.Context, id string) error
}
