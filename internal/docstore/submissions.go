package docstore

import (
	"context"

	"github.com/gistda/internhub/internal/domain"
)

// ListSubmissions returns every submission
func (s *Store) ListSubmissions(ctx context.Context) ([]domain.Submission, error) {
	var out []domain.Submission
	err := s.view(ctx, "submission", "list", func(doc *Document) error {
		out = orEmpty(doc.Submissions)
		return nil
	})
	return out, err
}

// GetSubmission returns the submission with id
func (s *Store) GetSubmission(ctx context.Context, id string) (domain.Submission, error) {
	var out domain.Submission
	err := s.view(ctx, "submission", "get", func(doc *Document) error {
		i := indexOf(doc.Submissions, func(sub domain.Submission) bool { return sub.ID == id })
		if i < 0 {
			return domain.NotFound("submission")
		}
		out = doc.Submissions[i]
		return nil
	})
	return out, err
}

// CreateSubmission appends a pending submission stamped with the current time
func (s *Store) CreateSubmission(ctx context.Context, submission domain.Submission) (domain.Submission, error) {
	err := s.update(ctx, "submission", "create", func(doc *Document) error {
		submission.ID = s.nextID("s", func(id string) bool {
			return indexOf(doc.Submissions, func(sub domain.Submission) bool { return sub.ID == id }) >= 0
		})
		submission.Status = domain.SubmissionPending
		submission.SubmittedAt = s.now().UTC()
		doc.Submissions = append(doc.Submissions, submission)
		return nil
	})
	if err != nil {
		return domain.Submission{}, err
	}
	return submission, nil
}

// UpdateSubmission merges patch over the stored submission
func (s *Store) UpdateSubmission(ctx context.Context, id string, patch domain.SubmissionPatch) (domain.Submission, error) {
	var out domain.Submission
	err := s.update(ctx, "submission", "update", func(doc *Document) error {
		i := indexOf(doc.Submissions, func(sub domain.Submission) bool { return sub.ID == id })
		if i < 0 {
			return domain.NotFound("submission")
		}
		if patch.Status != nil && !patch.Status.Valid() {
			return domain.Invalid("unknown submission status")
		}
		doc.Submissions[i] = patch.Apply(doc.Submissions[i])
		out = doc.Submissions[i]
		return nil
	})
	return out, err
}

// DeleteSubmission removes the submission. Unknown ids are ignored.
func (s *Store) DeleteSubmission(ctx context.Context, id string) error {
	return s.update(ctx, "submission", "delete", func(doc *Document) error {
		doc.Submissions = filter(doc.Submissions, func(sub domain.Submission) bool { return sub.ID != id })
		return nil
	})
}
