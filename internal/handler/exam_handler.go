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

// ExamHandler handles admin exam lifecycle endpoints: composition, assignment,
// activation, completion, and result review.
type ExamHandler struct {
	examService   *service.ExamService
	resultService *service.ResultService
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(examService *service.ExamService, resultService *service.ResultService) *ExamHandler {
	return &ExamHandler{
		examService:   examService,
		resultService: resultService,
	}
}

// ListExams godoc
// GET /api/v1/admin/exams
// Lists exams with pagination and optional status filter.
func (h *ExamHandler) ListExams(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))

	var status *model.ExamStatus
	if s := c.Query("status"); s != "" {
		st := model.ExamStatus(s)
		switch st {
		case model.ExamStatusDraft, model.ExamStatusActive, model.ExamStatusCompleted:
			status = &st
		default:
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
			return
		}
	}

	exams, pagination, err := h.examService.List(c.Request.Context(), status, page, perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"exams": exams}, pagination)
}

// GetExam godoc
// GET /api/v1/admin/exams/:exam_id
func (h *ExamHandler) GetExam(c *gin.Context) {
	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	e, err := h.examService.GetByID(c.Request.Context(), examID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"exam": e})
}

// CreateExam godoc
// POST /api/v1/admin/exams
// Composes a new DRAFT exam from a per-subject blueprint. The question
// sequence is frozen at this point.
func (h *ExamHandler) CreateExam(c *gin.Context) {
	var req model.CreateExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	e, err := h.examService.Create(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrNoQuestions) {
			response.Fail(c, http.StatusBadRequest, response.ErrNoQuestions)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"exam": e})
}

// UpdateExam godoc
// PUT /api/v1/admin/exams/:exam_id
// Updates a DRAFT exam's metadata. The frozen question sequence is untouched.
func (h *ExamHandler) UpdateExam(c *gin.Context) {
	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.UpdateExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	e, err := h.examService.Update(c.Request.Context(), examID, &req)
	if err != nil {
		if errors.Is(err, service.ErrExamNotDraft) {
			response.Fail(c, http.StatusBadRequest, response.ErrExamNotDraft)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"exam": e})
}

// AssignStudents godoc
// POST /api/v1/admin/exams/:exam_id/assign
// Replaces the exam's student assignment list.
func (h *ExamHandler) AssignStudents(c *gin.Context) {
	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req struct {
		StudentIDs []uuid.UUID `json:"student_ids" binding:"required,min=1"`
	}
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.examService.AssignStudents(c.Request.Context(), examID, req.StudentIDs); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "students assigned successfully"})
}

// ActivateExam godoc
// POST /api/v1/admin/exams/:exam_id/activate
// Moves a DRAFT exam to ACTIVE and warms the Redis caches.
func (h *ExamHandler) ActivateExam(c *gin.Context) {
	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.examService.Activate(c.Request.Context(), examID); err != nil {
		switch {
		case errors.Is(err, service.ErrExamNotDraft):
			response.Fail(c, http.StatusBadRequest, response.ErrExamNotDraft)
		case errors.Is(err, service.ErrNoQuestions):
			response.Fail(c, http.StatusBadRequest, response.ErrNoQuestions)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "exam activated successfully"})
}

// CompleteExam godoc
// POST /api/v1/admin/exams/:exam_id/complete
// Moves an ACTIVE exam to COMPLETED and drops its Redis caches.
func (h *ExamHandler) CompleteExam(c *gin.Context) {
	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.examService.Complete(c.Request.Context(), examID); err != nil {
		if errors.Is(err, service.ErrExamNotActive) {
			response.Fail(c, http.StatusBadRequest, response.ErrExamNotActive)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "exam completed successfully"})
}

// DeleteExam godoc
// DELETE /api/v1/admin/exams/:exam_id
func (h *ExamHandler) DeleteExam(c *gin.Context) {
	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.examService.Delete(c.Request.Context(), examID); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "exam deleted successfully"})
}

// GetExamResults godoc
// GET /api/v1/admin/exams/:exam_id/results
// Returns paginated graded results for one exam, joined with student identity.
func (h *ExamHandler) GetExamResults(c *gin.Context) {
	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))

	results, pagination, err := h.resultService.ListByExam(c.Request.Context(), examID, page, perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"results": results}, pagination)
}

// GetStudentResult godoc
// GET /api/v1/admin/exams/:exam_id/results/:student_id
// Returns one attempt expanded into its per-question review.
func (h *ExamHandler) GetStudentResult(c *gin.Context) {
	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	studentID, err := uuid.Parse(c.Param("student_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	detail, err := h.resultService.GetDetail(c.Request.Context(), examID, studentID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	response.Success(c, http.StatusOK, detail)
}
