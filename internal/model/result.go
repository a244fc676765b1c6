package model

import (
	"time"

	"github.com/google/uuid"
)

// ResultStatus enumerates grading states of a submitted attempt.
type ResultStatus string

const (
	ResultStatusGraded  ResultStatus = "GRADED"
	ResultStatusPending ResultStatus = "PENDING"
)

// ExamResult is the immutable record produced when a session submits.
// Exactly one result exists per (exam, student) pair; a re-submission
// replaces the previous record rather than appending.
type ExamResult struct {
	ExamID         uuid.UUID         `json:"exam_id"`
	StudentID      uuid.UUID         `json:"student_id"`
	Score          int               `json:"score"`
	TotalQuestions int               `json:"total_questions"`
	Answers        map[string]string `json:"answers"`
	SubmittedAt    time.Time         `json:"submitted_at"`
	Status         ResultStatus      `json:"status"`
}

// ResultSummary joins a result with student identity for admin review lists.
type ResultSummary struct {
	ExamResult
	StudentName string `json:"student_name"`
	Username    string `json:"username"`
	ClassName   string `json:"class_name"`
}
