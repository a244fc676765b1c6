package model

import (
	"time"

	"github.com/google/uuid"
)

// Subject is an academic subject (e.g. "Mathematics") that tags questions
// and appears in exam blueprints by name.
type Subject struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateSubjectRequest is the payload for creating a subject.
type CreateSubjectRequest struct {
	Name string `json:"name" binding:"required,min=2,max=100"`
}
