package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/adewumilot300-rgb/EduNexus/internal/model"
	"github.com/adewumilot300-rgb/EduNexus/internal/repository"
	"github.com/adewumilot300-rgb/EduNexus/internal/response"
)

// ErrInvalidCorrectAnswer is returned when an MCQ's correct answer is not one
// of its option labels.
var ErrInvalidCorrectAnswer = errors.New("correct answer must match an option label")

// QuestionService handles question bank business logic.
type QuestionService struct {
	questionRepo *repository.QuestionRepository
}

// NewQuestionService creates a new QuestionService.
func NewQuestionService(questionRepo *repository.QuestionRepository) *QuestionService {
	return &QuestionService{questionRepo: questionRepo}
}

// GetByID retrieves one bank question.
func (s *QuestionService) GetByID(ctx context.Context, id uuid.UUID) (*model.Question, error) {
	return s.questionRepo.GetByID(ctx, id)
}

// List retrieves bank questions with pagination and optional subject filter.
func (s *QuestionService) List(ctx context.Context, subject *string, page, perPage int) ([]model.Question, *response.Pagination, error) {
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

	questions, total, err := s.questionRepo.List(ctx, subject, limit, offset)
	if err != nil {
		return nil, nil, err
	}

	if questions == nil {
		questions = []model.Question{}
	}

	totalPages := (total + perPage - 1) / perPage

	pagination := &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: totalPages,
	}

	return questions, pagination, nil
}

// CountBySubject reports bank depth per subject, used by the exam composer UI
// to show how many questions a blueprint can draw from.
func (s *QuestionService) CountBySubject(ctx context.Context) (map[string]int, error) {
	return s.questionRepo.CountBySubject(ctx)
}

// Create validates and inserts a bank question.
func (s *QuestionService) Create(ctx context.Context, req *model.AddQuestionRequest) (*model.Question, error) {
	q, err := questionFromRequest(req)
	if err != nil {
		return nil, err
	}
	if err := s.questionRepo.Create(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// CreateBulk validates and inserts many bank questions in one batch.
func (s *QuestionService) CreateBulk(ctx context.Context, req *model.BulkAddQuestionsRequest) ([]model.Question, error) {
	questions := make([]model.Question, 0, len(req.Questions))
	for i := range req.Questions {
		q, err := questionFromRequest(&req.Questions[i])
		if err != nil {
			return nil, err
		}
		questions = append(questions, *q)
	}
	if err := s.questionRepo.CreateBulk(ctx, questions); err != nil {
		return nil, err
	}
	return questions, nil
}

// Update modifies a bank question. Exams that already froze a copy of this
// question are unaffected.
func (s *QuestionService) Update(ctx context.Context, id uuid.UUID, req *model.AddQuestionRequest) (*model.Question, error) {
	q, err := questionFromRequest(req)
	if err != nil {
		return nil, err
	}
	q.ID = id
	if err := s.questionRepo.Update(ctx, q); err != nil {
		return nil, err
	}
	return s.questionRepo.GetByID(ctx, id)
}

// Delete removes a bank question.
func (s *QuestionService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.questionRepo.Delete(ctx, id)
}

func questionFromRequest(req *model.AddQuestionRequest) (*model.Question, error) {
	qType := model.QuestionType(req.Type)
	if qType.HasOptions() {
		valid := false
		for i := range req.Options {
			if model.OptionLabel(i) == req.CorrectAnswer {
				valid = true
				break
			}
		}
		if !valid {
			return nil, ErrInvalidCorrectAnswer
		}
	}

	difficulty := model.Difficulty(req.Difficulty)
	if difficulty == "" {
		difficulty = model.DifficultyMedium
	}

	return &model.Question{
		ID:            uuid.New(),
		Text:          req.Text,
		Options:       req.Options,
		CorrectAnswer: req.CorrectAnswer,
		Type:          qType,
		Subject:       req.Subject,
		Difficulty:    difficulty,
		ImagePath:     req.ImagePath,
	}, nil
}
