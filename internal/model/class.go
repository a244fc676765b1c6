package model

import (
	"time"

	"github.com/google/uuid"
)

// Class is an academic class (e.g. "JSS1") with its assigned subjects.
type Class struct {
	ID         uuid.UUID   `json:"id"`
	Name       string      `json:"name"`
	SubjectIDs []uuid.UUID `json:"subject_ids"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// CreateClassRequest is the payload for creating a class.
type CreateClassRequest struct {
	Name string `json:"name" binding:"required,min=2,max=100"`
}

// UpdateClassRequest edits a class name and its subject assignments.
type UpdateClassRequest struct {
	Name       string      `json:"name" binding:"omitempty,min=2,max=100"`
	SubjectIDs []uuid.UUID `json:"subject_ids" binding:"omitempty"`
}
