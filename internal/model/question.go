package model

import (
	"time"

	"github.com/google/uuid"
)

// QuestionType discriminates how a question is presented and answered.
type QuestionType string

const (
	QuestionTypeMCQ      QuestionType = "MCQ"
	QuestionTypeFillGap  QuestionType = "FILL_GAP"
	QuestionTypeImageMCQ QuestionType = "IMAGE_MCQ"
)

// HasOptions reports whether the question type carries an option list.
func (t QuestionType) HasOptions() bool {
	return t == QuestionTypeMCQ || t == QuestionTypeImageMCQ
}

// Difficulty tags a question for bank filtering and AI generation.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// Question is a single bank question. Once frozen into an exam instance it is
// immutable: the exam keeps its own copy of the question rows.
type Question struct {
	ID            uuid.UUID    `json:"id"`
	Text          string       `json:"text"`
	Options       []string     `json:"options,omitempty"`
	CorrectAnswer string       `json:"correct_answer,omitempty"`
	Type          QuestionType `json:"type"`
	Subject       string       `json:"subject"`
	Difficulty    Difficulty   `json:"difficulty"`
	ImagePath     *string      `json:"image_path,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
}

// OptionLabel returns the answer token for an option position (0 -> "A").
func OptionLabel(idx int) string {
	return string(rune('A' + idx))
}

// AddQuestionRequest is the payload for adding a bank question.
type AddQuestionRequest struct {
	Text          string   `json:"text" binding:"required,min=1,max=2000"`
	Options       []string `json:"options" binding:"omitempty,min=2,max=6,dive,required"`
	CorrectAnswer string   `json:"correct_answer" binding:"required,max=100"`
	Type          string   `json:"type" binding:"required,oneof=MCQ FILL_GAP IMAGE_MCQ"`
	Subject       string   `json:"subject" binding:"required,min=2,max=100"`
	Difficulty    string   `json:"difficulty" binding:"omitempty,oneof=Easy Medium Hard"`
	ImagePath     *string  `json:"image_path" binding:"omitempty,max=255"`
}

// BulkAddQuestionsRequest is the payload for spreadsheet-style bulk import.
type BulkAddQuestionsRequest struct {
	Questions []AddQuestionRequest `json:"questions" binding:"required,min=1,dive"`
}

// GenerateQuestionsRequest asks the AI service for new MCQs.
type GenerateQuestionsRequest struct {
	Topic      string `json:"topic" binding:"required,min=2,max=200"`
	Count      int    `json:"count" binding:"required,min=1,max=20"`
	Difficulty string `json:"difficulty" binding:"omitempty,oneof=Easy Medium Hard"`
}
