package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/adewumilot300-rgb/EduNexus/internal/config"
	"github.com/adewumilot300-rgb/EduNexus/internal/exam"
	"github.com/adewumilot300-rgb/EduNexus/internal/model"
	"github.com/adewumilot300-rgb/EduNexus/internal/repository"
	"github.com/adewumilot300-rgb/EduNexus/internal/response"
)

// Domain Errors
var (
	ErrNoQuestions   = errors.New("exam has no questions, cannot activate")
	ErrExamNotDraft  = errors.New("exam status is not DRAFT")
	ErrExamNotActive = errors.New("exam status is not ACTIVE")
	ErrNotAssigned   = errors.New("student is not assigned to this exam")
)

// ExamService handles exam composition, lifecycle, and Redis cache warming.
// An exam's question sequence is materialized from its blueprint exactly once
// at creation and never re-drawn afterwards.
type ExamService struct {
	examRepo     *repository.ExamRepository
	questionRepo *repository.QuestionRepository
	composer     *exam.Composer
	rdb          *redis.Client
	log          zerolog.Logger
}

// NewExamService creates a new ExamService.
func NewExamService(
	examRepo *repository.ExamRepository,
	questionRepo *repository.QuestionRepository,
	composer *exam.Composer,
	rdb *redis.Client,
	log zerolog.Logger,
) *ExamService {
	return &ExamService{
		examRepo:     examRepo,
		questionRepo: questionRepo,
		composer:     composer,
		rdb:          rdb,
		log:          log.With().Str("component", "exam_service").Logger(),
	}
}

// GetByID retrieves an exam by its UUID.
func (s *ExamService) GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	return s.examRepo.GetByID(ctx, id)
}

// List retrieves exams with pagination and optional status filter.
func (s *ExamService) List(ctx context.Context, status *model.ExamStatus, page, perPage int) ([]model.Exam, *response.Pagination, error) {
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

	exams, total, err := s.examRepo.ListPaginated(ctx, status, limit, offset)
	if err != nil {
		return nil, nil, err
	}

	if exams == nil {
		exams = []model.Exam{}
	}

	totalPages := (total + perPage - 1) / perPage

	pagination := &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: totalPages,
	}

	return exams, pagination, nil
}

// LobbyExam is a student-facing view of an assigned exam.
type LobbyExam struct {
	ID              uuid.UUID        `json:"id"`
	Title           string           `json:"title"`
	ClassName       string           `json:"class_name"`
	DurationMinutes int              `json:"duration_minutes"`
	Instructions    string           `json:"instructions"`
	Status          model.ExamStatus `json:"status"`
	QuestionCount   int              `json:"question_count"`
}

// Lobby returns the exams assigned to a student, stripped of questions and
// assignment lists.
func (s *ExamService) Lobby(ctx context.Context, studentID uuid.UUID) ([]LobbyExam, error) {
	exams, err := s.examRepo.ListAssignedToStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	lobby := make([]LobbyExam, 0, len(exams))
	for _, e := range exams {
		if e.Status == model.ExamStatusDraft {
			continue
		}
		lobby = append(lobby, LobbyExam{
			ID:              e.ID,
			Title:           e.Title,
			ClassName:       e.ClassName,
			DurationMinutes: e.DurationMinutes,
			Instructions:    e.Instructions,
			Status:          e.Status,
			QuestionCount:   len(e.Questions),
		})
	}
	return lobby, nil
}

// Create composes a new exam as DRAFT. The blueprint is resolved against the
// question bank per subject: filter, shuffle, take up to the requested count,
// concatenate in blueprint order. A subject with fewer questions than
// requested contributes everything it has.
func (s *ExamService) Create(ctx context.Context, req *model.CreateExamRequest) (*model.Exam, error) {
	subjects := make([]string, len(req.Blueprint))
	for i, alloc := range req.Blueprint {
		subjects[i] = alloc.Subject
	}

	pool, err := s.questionRepo.ListBySubjects(ctx, subjects)
	if err != nil {
		return nil, fmt.Errorf("load question pool: %w", err)
	}

	questions := s.composer.Compose(pool, req.Blueprint)
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}

	cfg := model.DefaultExamConfig()
	if req.Config != nil {
		cfg = *req.Config
	}

	e := &model.Exam{
		ID:              uuid.New(),
		Title:           req.Title,
		ClassName:       req.ClassName,
		DurationMinutes: req.DurationMinutes,
		Instructions:    req.Instructions,
		Config:          cfg,
		Blueprint:       req.Blueprint,
		Status:          model.ExamStatusDraft,
		Questions:       questions,
	}

	if err := s.examRepo.Create(ctx, e); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("exam_id", e.ID.String()).
		Int("questions", len(questions)).
		Msg("Exam composed")
	return e, nil
}

// Update modifies an existing draft exam's metadata. The frozen question
// sequence is left untouched.
func (s *ExamService) Update(ctx context.Context, id uuid.UUID, req *model.UpdateExamRequest) (*model.Exam, error) {
	existing, err := s.examRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Status != model.ExamStatusDraft {
		return nil, ErrExamNotDraft
	}

	if req.Title != "" {
		existing.Title = req.Title
	}
	if req.DurationMinutes != nil {
		existing.DurationMinutes = *req.DurationMinutes
	}
	if req.Instructions != nil {
		existing.Instructions = *req.Instructions
	}
	if req.Config != nil {
		existing.Config = *req.Config
	}

	if err := s.examRepo.Update(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

// AssignStudents replaces the set of students allowed to attempt an exam.
func (s *ExamService) AssignStudents(ctx context.Context, id uuid.UUID, studentIDs []uuid.UUID) error {
	if _, err := s.examRepo.GetByID(ctx, id); err != nil {
		return err
	}
	return s.examRepo.UpdateAssignments(ctx, id, studentIDs)
}

// Activate changes exam status to ACTIVE and caches the paper + answer key
// in Redis. This is the critical path that populates the fast lane students
// read their paper from.
func (s *ExamService) Activate(ctx context.Context, examID uuid.UUID) error {
	e, err := s.examRepo.GetByID(ctx, examID)
	if err != nil {
		return fmt.Errorf("get exam: %w", err)
	}

	if e.Status != model.ExamStatusDraft {
		return ErrExamNotDraft
	}

	if err := s.WarmExamCache(ctx, e); err != nil {
		return err
	}

	if err := s.examRepo.UpdateStatus(ctx, examID, model.ExamStatusActive); err != nil {
		return fmt.Errorf("update status: %w", err)
	}

	s.log.Info().Str("exam_id", examID.String()).Msg("Exam activated")
	return nil
}

// Complete closes an ACTIVE exam and evicts its cache entries. Further starts
// are rejected; existing results are unaffected.
func (s *ExamService) Complete(ctx context.Context, examID uuid.UUID) error {
	e, err := s.examRepo.GetByID(ctx, examID)
	if err != nil {
		return fmt.Errorf("get exam: %w", err)
	}
	if e.Status != model.ExamStatusActive {
		return ErrExamNotActive
	}

	if err := s.examRepo.UpdateStatus(ctx, examID, model.ExamStatusCompleted); err != nil {
		return fmt.Errorf("update status: %w", err)
	}

	id := examID.String()
	if err := s.rdb.Del(ctx, config.CacheKey.ExamPaperKey(id)).Err(); err != nil {
		s.log.Warn().Err(err).Str("exam_id", id).Msg("Failed to evict exam cache")
	}

	s.log.Info().Str("exam_id", id).Msg("Exam completed")
	return nil
}

// WarmExamCache loads an exam's student-facing paper from PostgreSQL into
// Redis. Core cache-warming logic used by Activate and PrewarmAllCaches.
// Grading never consults Redis; the answer key stays on the exam row.
func (s *ExamService) WarmExamCache(ctx context.Context, e *model.Exam) error {
	if len(e.Questions) == 0 {
		return ErrNoQuestions
	}

	studentQuestions := make([]model.QuestionForStudent, len(e.Questions))
	for i, q := range e.Questions {
		studentQuestions[i] = q.ForStudent()
	}

	paper := model.ExamPaper{
		ExamID:          e.ID,
		Title:           e.Title,
		DurationMinutes: e.DurationMinutes,
		Instructions:    e.Instructions,
		Questions:       studentQuestions,
	}

	paperJSON, err := json.Marshal(paper)
	if err != nil {
		return fmt.Errorf("marshal paper: %w", err)
	}

	id := e.ID.String()
	if err := s.rdb.Set(ctx, config.CacheKey.ExamPaperKey(id), paperJSON, 0).Err(); err != nil {
		return fmt.Errorf("cache to redis: %w", err)
	}

	s.log.Debug().
		Str("exam_id", id).
		Int("questions", len(e.Questions)).
		Msg("Cache warmed")
	return nil
}

// PrewarmAllCaches loads all active exams into Redis on application startup.
// This prevents lazy-loading race conditions under thundering herd traffic.
func (s *ExamService) PrewarmAllCaches(ctx context.Context) error {
	exams, err := s.examRepo.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list active exams: %w", err)
	}

	if len(exams) == 0 {
		s.log.Info().Msg("No active exams to prewarm")
		return nil
	}

	s.log.Info().Int("count", len(exams)).Msg("Prewarming active exams...")

	warmed := 0
	for i := range exams {
		if err := s.WarmExamCache(ctx, &exams[i]); err != nil {
			s.log.Warn().
				Err(err).
				Str("exam_id", exams[i].ID.String()).
				Msg("Failed to warm exam, skipping")
			continue
		}
		warmed++
	}

	s.log.Info().
		Int("warmed", warmed).
		Int("total", len(exams)).
		Msg("Prewarming complete")
	return nil
}

// GetExamPaper retrieves the cached student paper from Redis, falling back to
// PostgreSQL if the cache entry was evicted.
func (s *ExamService) GetExamPaper(ctx context.Context, examID uuid.UUID) (*model.ExamPaper, error) {
	key := config.CacheKey.ExamPaperKey(examID.String())
	data, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("get paper: %w", err)
		}
		e, dbErr := s.examRepo.GetByID(ctx, examID)
		if dbErr != nil {
			return nil, dbErr
		}
		if e.Status != model.ExamStatusActive {
			return nil, ErrExamNotActive
		}
		if warmErr := s.WarmExamCache(ctx, e); warmErr != nil {
			return nil, warmErr
		}
		data, err = s.rdb.Get(ctx, key).Bytes()
		if err != nil {
			return nil, fmt.Errorf("get paper after warm: %w", err)
		}
	}

	var paper model.ExamPaper
	if err := json.Unmarshal(data, &paper); err != nil {
		return nil, fmt.Errorf("unmarshal paper: %w", err)
	}
	return &paper, nil
}

// Delete removes a draft exam.
func (s *ExamService) Delete(ctx context.Context, id uuid.UUID) error {
	existing, err := s.examRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if existing.Status != model.ExamStatusDraft {
		return ErrExamNotDraft
	}
	return s.examRepo.Delete(ctx, id)
}
