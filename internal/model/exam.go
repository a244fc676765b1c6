package model

import (
	"time"

	"github.com/google/uuid"
)

// ExamStatus enumerates the lifecycle of an exam instance.
type ExamStatus string

const (
	ExamStatusDraft     ExamStatus = "DRAFT"
	ExamStatusActive    ExamStatus = "ACTIVE"
	ExamStatusCompleted ExamStatus = "COMPLETED"
)

// ExamConfig carries the per-exam behaviour flags.
// ShuffleQuestions applies a per-student order permutation at session start;
// the composed question SET itself is frozen at creation time.
type ExamConfig struct {
	ShuffleQuestions bool `json:"shuffle_questions"`
	ShuffleOptions   bool `json:"shuffle_options"`
	AllowBackNav     bool `json:"allow_back_nav"`
}

// DefaultExamConfig is what an exam gets when the admin omits the config
// block: every flag on, matching the creation form's defaults. In particular
// back navigation must not be silently disabled by a zero value.
func DefaultExamConfig() ExamConfig {
	return ExamConfig{
		ShuffleQuestions: true,
		ShuffleOptions:   true,
		AllowBackNav:     true,
	}
}

// SubjectAllocation is one blueprint entry: how many questions to draw for a
// subject when the exam instance is composed.
type SubjectAllocation struct {
	Subject       string `json:"subject" binding:"required,min=2,max=100"`
	QuestionCount int    `json:"question_count" binding:"required,min=1,max=200"`
}

// Exam is a concrete exam instance. Questions is the frozen ordered sequence
// materialized from the blueprint at creation time; every assigned student
// attempts the identical set.
type Exam struct {
	ID                 uuid.UUID           `json:"id"`
	Title              string              `json:"title"`
	ClassName          string              `json:"class_name"`
	DurationMinutes    int                 `json:"duration_minutes"`
	Instructions       string              `json:"instructions"`
	Config             ExamConfig          `json:"config"`
	Blueprint          []SubjectAllocation `json:"blueprint"`
	Status             ExamStatus          `json:"status"`
	Questions          []Question          `json:"questions,omitempty"`
	AssignedStudentIDs []uuid.UUID         `json:"assigned_student_ids,omitempty"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
}

// IsAssigned reports whether a student may attempt this exam.
func (e *Exam) IsAssigned(studentID uuid.UUID) bool {
	for _, id := range e.AssignedStudentIDs {
		if id == studentID {
			return true
		}
	}
	return false
}

// CreateExamRequest is the payload for composing a new exam instance.
type CreateExamRequest struct {
	Title           string              `json:"title" binding:"required,min=3,max=255"`
	ClassName       string              `json:"class_name" binding:"required,min=2,max=100"`
	DurationMinutes int                 `json:"duration_minutes" binding:"required,min=1,max=480"`
	Instructions    string              `json:"instructions" binding:"omitempty,max=2000"`
	Blueprint       []SubjectAllocation `json:"blueprint" binding:"required,min=1,dive"`
	Config          *ExamConfig         `json:"config" binding:"omitempty"`
}

// UpdateExamRequest is the payload for updating a DRAFT exam's metadata.
// The frozen question sequence is never edited through this path.
type UpdateExamRequest struct {
	Title           string      `json:"title" binding:"omitempty,min=3,max=255"`
	DurationMinutes *int        `json:"duration_minutes" binding:"omitempty,min=1,max=480"`
	Instructions    *string     `json:"instructions" binding:"omitempty,max=2000"`
	Config          *ExamConfig `json:"config" binding:"omitempty"`
}

// ExamPaper is the Redis-cached payload sent to students (no correct answers).
type ExamPaper struct {
	ExamID          uuid.UUID            `json:"exam_id"`
	Title           string               `json:"title"`
	DurationMinutes int                  `json:"duration_minutes"`
	Instructions    string               `json:"instructions"`
	Questions       []QuestionForStudent `json:"questions"`
}

// QuestionForStudent is a frozen exam question stripped of its answer key.
type QuestionForStudent struct {
	ID        uuid.UUID    `json:"id"`
	Text      string       `json:"text"`
	Options   []string     `json:"options,omitempty"`
	Type      QuestionType `json:"type"`
	Subject   string       `json:"subject"`
	ImagePath *string      `json:"image_path,omitempty"`
}

// ForStudent strips the answer key from a frozen question.
func (q Question) ForStudent() QuestionForStudent {
	return QuestionForStudent{
		ID:        q.ID,
		Text:      q.Text,
		Options:   q.Options,
		Type:      q.Type,
		Subject:   q.Subject,
		ImagePath: q.ImagePath,
	}
}
