package domain

import (
	"context"
	"fmt"
	"math"
	"time"
)

// EvaluationScores holds the sixteen criteria a mentor rates from 1 to 5
type EvaluationScores struct {
	QuantityOfWork          int `json:"quantityOfWork"`
	QualityOfWork           int `json:"qualityOfWork"`
	AcademicAbility         int `json:"academicAbility"`
	AbilityToLearn          int `json:"abilityToLearn"`
	JudgmentAndDecision     int `json:"judgmentAndDecision"`
	OrganizationAndPlanning int `json:"organizationAndPlanning"`
	CommunicationSkills     int `json:"communicationSkills"`
	SuitabilityForJob       int `json:"suitabilityForJob"`
	Responsibility          int `json:"responsibility"`
	InterestInWork          int `json:"interestInWork"`
	Initiative              int `json:"initiative"`
	ResponseToSupervision   int `json:"responseToSupervision"`
	Personality             int `json:"personality"`
	InterpersonalSkills     int `json:"interpersonalSkills"`
	Discipline              int `json:"discipline"`
	EthicsAndMorality       int `json:"ethicsAndMorality"`
}

func (s EvaluationScores) values() []int {
	return []int{
		s.QuantityOfWork, s.QualityOfWork, s.AcademicAbility, s.AbilityToLearn,
		s.JudgmentAndDecision, s.OrganizationAndPlanning, s.CommunicationSkills, s.SuitabilityForJob,
		s.Responsibility, s.InterestInWork, s.Initiative, s.ResponseToSupervision,
		s.Personality, s.InterpersonalSkills, s.Discipline, s.EthicsAndMorality,
	}
}

// Validate checks every criterion is within 1..5
func (s EvaluationScores) Validate() error {
	for _, v := range s.values() {
		if v < 1 || v > 5 {
			return fmt.Errorf("%w: scores must be between 1 and 5", ErrValidation)
		}
	}
	return nil
}

// Average is the mean of all criteria
func (s EvaluationScores) Average() float64 {
	vals := s.values()
	total := 0
	for _, v := range vals {
		total += v
	}
	return float64(total) / float64(len(vals))
}

// Evaluation is a mentor's assessment of an intern
type Evaluation struct {
	ID         string `json:"id"`
	InternID   string `json:"internId"`
	MentorID   string `json:"mentorId"`
	MentorName string `json:"mentorName"`
	EvaluationScores
	Comment      string    `json:"comment"`
	Strengths    string    `json:"strengths"`
	Improvements string    `json:"improvements"`
	CreatedAt    time.Time `json:"createdAt"`
}

// EvaluationPatch lists the mutable evaluation fields. Scores replaces all criteria at once.
type EvaluationPatch struct {
	Scores       *EvaluationScores `json:"scores,omitempty"`
	Comment      *string           `json:"comment,omitempty"`
	Strengths    *string           `json:"strengths,omitempty"`
	Improvements *string           `json:"improvements,omitempty"`
}

// Apply merges the patch over e field by field
func (p EvaluationPatch) Apply(e Evaluation) Evaluation {
	if p.Scores != nil {
		e.EvaluationScores = *p.Scores
	}
	if p.Comment != nil {
		e.Comment = *p.Comment
	}
	if p.Strengths != nil {
		e.Strengths = *p.Strengths
	}
	if p.Improvements != nil {
		e.Improvements = *p.Improvements
	}
	return e
}

// EvaluationSummary aggregates the evaluations of one intern
type EvaluationSummary struct {
	HasEvaluations     bool       `json:"hasEvaluations"`
	AverageScore       float64    `json:"averageScore"`
	EvaluationCount    int        `json:"evaluationCount"`
	LastEvaluationDate *time.Time `json:"lastEvaluationDate"`
	ScoreStatus        string     `json:"scoreStatus"`
}

// Summarize builds the summary for the evaluations of internID
func Summarize(internID string, evaluations []Evaluation) EvaluationSummary {
	summary := EvaluationSummary{ScoreStatus: "no_evaluations"}
	total := 0.0
	for _, e := range evaluations {
		if e.InternID != internID {
			continue
		}
		summary.EvaluationCount++
		total += e.Average()
		if summary.LastEvaluationDate == nil || e.CreatedAt.After(*summary.LastEvaluationDate) {
			created := e.CreatedAt
			summary.LastEvaluationDate = &created
		}
	}
	if summary.EvaluationCount == 0 {
		return summary
	}
	summary.HasEvaluations = true
	summary.AverageScore = math.Round(total/float64(summary.EvaluationCount)*100) / 100
	summary.ScoreStatus = scoreStatus(summary.AverageScore)
	return summary
}

func scoreStatus(avg float64) string {
	switch {
	case avg >= 4.5:
		return "excellent"
	case avg >= 3.5:
		return "good"
	case avg >= 2.5:
		return "fair"
	default:
		return "needs_improvement"
	}
}

// EvaluationRepository defines data access for evaluations
type EvaluationRepository interface {
	ListEvaluations(ctx context.Context) ([]Evaluation, error)
	CreateEvaluation(ctx context.Context, evaluation Evaluation) (Evaluation, error)
	UpdateEvaluation(ctx context.Context, id string, patch EvaluationPatch) (Evaluation, error)
	DeleteEvaluation(ctx context.Context, id string) error
}
