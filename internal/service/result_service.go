package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/adewumilot300-rgb/EduNexus/internal/exam"
	"github.com/adewumilot300-rgb/EduNexus/internal/model"
	"github.com/adewumilot300-rgb/EduNexus/internal/repository"
	"github.com/adewumilot300-rgb/EduNexus/internal/response"
)

// QuestionReview is one question of a graded attempt with its verdict.
type QuestionReview struct {
	Question model.QuestionForStudent `json:"question"`
	Given    string                   `json:"given,omitempty"`
	Correct  string                   `json:"correct"`
	Verdict  exam.Verdict             `json:"verdict"`
}

// ResultDetail is a graded attempt expanded for the review screen.
type ResultDetail struct {
	Result     model.ExamResult      `json:"result"`
	ExamTitle  string                `json:"exam_title"`
	Percentage int                   `json:"percentage"`
	Breakdown  exam.Breakdown        `json:"breakdown"`
	Subjects   []exam.SubjectSummary `json:"subjects"`
	Review     []QuestionReview      `json:"review"`
}

// ResultService exposes graded results to students and admins.
type ResultService struct {
	resultRepo *repository.ResultRepository
	examRepo   *repository.ExamRepository
}

// NewResultService creates a new ResultService.
func NewResultService(resultRepo *repository.ResultRepository, examRepo *repository.ExamRepository) *ResultService {
	return &ResultService{resultRepo: resultRepo, examRepo: examRepo}
}

// GetDetail expands one attempt into its per-question review. Unanswered
// questions count against the score but are reported as skipped, not wrong.
func (s *ResultService) GetDetail(ctx context.Context, examID, studentID uuid.UUID) (*ResultDetail, error) {
	res, err := s.resultRepo.GetByExamAndStudent(ctx, examID, studentID)
	if err != nil {
		return nil, fmt.Errorf("get result: %w", err)
	}

	e, err := s.examRepo.GetByID(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("get exam: %w", err)
	}

	review := make([]QuestionReview, len(e.Questions))
	for i, q := range e.Questions {
		given := res.Answers[q.ID.String()]
		review[i] = QuestionReview{
			Question: q.ForStudent(),
			Given:    given,
			Correct:  q.CorrectAnswer,
			Verdict:  exam.ClassifyQuestion(q, res.Answers),
		}
	}

	return &ResultDetail{
		Result:     *res,
		ExamTitle:  e.Title,
		Percentage: exam.Percentage(res.Score, res.TotalQuestions),
		Breakdown:  exam.Summarize(e.Questions, res.Answers),
		Subjects:   exam.SummarizeBySubject(e.Questions, res.Answers),
		Review:     review,
	}, nil
}

// ListByStudent returns a student's graded history, newest first.
func (s *ResultService) ListByStudent(ctx context.Context, studentID uuid.UUID) ([]model.ExamResult, error) {
	results, err := s.resultRepo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []model.ExamResult{}
	}
	return results, nil
}

// ListByExam returns all results for one exam with student identity, for the
// admin review table.
func (s *ResultService) ListByExam(ctx context.Context, examID uuid.UUID, page, perPage int) ([]model.ResultSummary, *response.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}

	limit := perPage
	offset := (page - 1) * perPage

	results, total, err := s.resultRepo.ListByExam(ctx, examID, limit, offset)
	if err != nil {
		return nil, nil, err
	}
	if results == nil {
		results = []model.ResultSummary{}
	}

	totalPages := (total + perPage - 1) / perPage
	pagination := &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: totalPages,
	}
	return results, pagination, nil
}
