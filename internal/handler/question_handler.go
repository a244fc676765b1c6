package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/adewumilot300-rgb/EduNexus/internal/model"
	"github.com/adewumilot300-rgb/EduNexus/internal/response"
	"github.com/adewumilot300-rgb/EduNexus/internal/service"
	"github.com/adewumilot300-rgb/EduNexus/internal/validator"
)

// QuestionHandler handles question bank management endpoints.
type QuestionHandler struct {
	questionService   *service.QuestionService
	generationService *service.GenerationService
}

// NewQuestionHandler creates a new QuestionHandler.
func NewQuestionHandler(questionService *service.QuestionService, generationService *service.GenerationService) *QuestionHandler {
	return &QuestionHandler{
		questionService:   questionService,
		generationService: generationService,
	}
}

// ListQuestions godoc
// GET /api/v1/admin/questions
// Lists bank questions with pagination, optionally filtered by subject.
func (h *QuestionHandler) ListQuestions(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))

	var subject *string
	if s := c.Query("subject"); s != "" {
		subject = &s
	}

	questions, pagination, err := h.questionService.List(c.Request.Context(), subject, page, perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"questions": questions}, pagination)
}

// GetSubjectCounts godoc
// GET /api/v1/admin/questions/counts
// Returns the number of bank questions per subject, for blueprint planning.
func (h *QuestionHandler) GetSubjectCounts(c *gin.Context) {
	counts, err := h.questionService.CountBySubject(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"counts": counts})
}

// AddQuestion godoc
// POST /api/v1/admin/questions
func (h *QuestionHandler) AddQuestion(c *gin.Context) {
	var req model.AddQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	question, err := h.questionService.Create(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCorrectAnswer) {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"question": question})
}

// AddQuestionsBulk godoc
// POST /api/v1/admin/questions/bulk
// Imports many bank questions in one call. The whole batch is rejected when
// any row is malformed.
func (h *QuestionHandler) AddQuestionsBulk(c *gin.Context) {
	var req model.BulkAddQuestionsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	questions, err := h.questionService.CreateBulk(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCorrectAnswer) {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"questions": questions})
}

// GenerateQuestions godoc
// POST /api/v1/admin/subjects/:subject/questions/generate
// Asks the AI service for MCQs on a topic and stores them under the subject.
func (h *QuestionHandler) GenerateQuestions(c *gin.Context) {
	subject := c.Param("subject")
	if subject == "" {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}

	var req model.GenerateQuestionsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	questions, err := h.generationService.Generate(c.Request.Context(), subject, &req)
	if err != nil {
		if errors.Is(err, service.ErrGenerationDisabled) {
			response.Fail(c, http.StatusServiceUnavailable, response.ErrGenerationDisabled)
			return
		}
		response.Fail(c, http.StatusBadGateway, response.ErrGenerationFailed)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"questions": questions})
}

// UpdateQuestion godoc
// PUT /api/v1/admin/questions/:id
func (h *QuestionHandler) UpdateQuestion(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.AddQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	question, err := h.questionService.Update(c.Request.Context(), id, &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCorrectAnswer) {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"question": question})
}

// DeleteQuestion godoc
// DELETE /api/v1/admin/questions/:id
func (h *QuestionHandler) DeleteQuestion(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.questionService.Delete(c.Request.Context(), id); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "question deleted successfully"})
}
