package docstore

import (
	"context"

	"github.com/gistda/internhub/internal/domain"
)

// ListEvaluations returns every evaluation
func (s *Store) ListEvaluations(ctx context.Context) ([]domain.Evaluation, error) {
	var out []domain.Evaluation
	err := s.view(ctx, "evaluation", "list", func(doc *Document) error {
		out = orEmpty(doc.Evaluations)
		return nil
	})
	return out, err
}

// GetEvaluation returns the evaluation with id
func (s *Store) GetEvaluation(ctx context.Context, id string) (domain.Evaluation, error) {
	var out domain.Evaluation
	err := s.view(ctx, "evaluation", "get", func(doc *Document) error {
		i := indexOf(doc.Evaluations, func(e domain.Evaluation) bool { return e.ID == id })
		if i < 0 {
			return domain.NotFound("evaluation")
		}
		out = doc.Evaluations[i]
		return nil
	})
	return out, err
}

// CreateEvaluation validates the scores and appends the evaluation
func (s *Store) CreateEvaluation(ctx context.Context, evaluation domain.Evaluation) (domain.Evaluation, error) {
	if err := evaluation.Validate(); err != nil {
		return domain.Evaluation{}, err
	}
	err := s.update(ctx, "evaluation", "create", func(doc *Document) error {
		evaluation.ID = s.nextID("e", func(id string) bool {
			return indexOf(doc.Evaluations, func(e domain.Evaluation) bool { return e.ID == id }) >= 0
		})
		evaluation.CreatedAt = s.now().UTC()
		doc.Evaluations = append(doc.Evaluations, evaluation)
		return nil
	})
	if err != nil {
		return domain.Evaluation{}, err
	}
	return evaluation, nil
}

// UpdateEvaluation merges patch over the stored evaluation
func (s *Store) UpdateEvaluation(ctx context.Context, id string, patch domain.EvaluationPatch) (domain.Evaluation, error) {
	if patch.Scores != nil {
		if err := patch.Scores.Validate(); err != nil {
			return domain.Evaluation{}, err
		}
	}
	var out domain.Evaluation
	err := s.update(ctx, "evaluation", "update", func(doc *Document) error {
		i := indexOf(doc.Evaluations, func(e domain.Evaluation) bool { return e.ID == id })
		if i < 0 {
			return domain.NotFound("evaluation")
		}
		doc.Evaluations[i] = patch.Apply(doc.Evaluations[i])
		out = doc.Evaluations[i]
		return nil
	})
	return out, err
}

// DeleteEvaluation removes the evaluation. Unknown ids are ignored.
func (s *Store) DeleteEvaluation(ctx context.Context, id string) error {
	return s.update(ctx, "evaluation", "delete", func(doc *Document) error {
		doc.Evaluations = filter(doc.Evaluations, func(e domain.Evaluation) bool { return e.ID != id })
		return nil
	})
}

// EvaluationSummary aggregates the evaluations of one intern
func (s *Store) EvaluationSummary(ctx context.Context, internID string) (domain.EvaluationSummary, error) {
	evaluations, err := s.ListEvaluations(ctx)
	if err != nil {
		return domain.EvaluationSummary{}, err
	}
	return domain.Summarize(internID, evaluations), nil
}

var (
	_ domain.UserRepository       = (*Store)(nil)
	_ domain.CourseRepository     = (*Store)(nil)
	_ domain.SubmissionRepository = (*Store)(nil)
	_ domain.EvaluationRepository = (*Store)(nil)
)
