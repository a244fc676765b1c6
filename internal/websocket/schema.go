package websocket

import (
	"github.com/adewumilot300-rgb/EduNexus/internal/exam"
	"github.com/adewumilot300-rgb/EduNexus/internal/model"
)

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAnswer        Action = "answer"
	ActionNavigate      Action = "navigate"
	ActionJump          Action = "jump"
	ActionKey           Action = "key"
	ActionSubmitRequest Action = "submit_request"
	ActionSubmitConfirm Action = "submit_confirm"
	ActionSubmitCancel  Action = "submit_cancel"
	ActionHelp          Action = "help"
	ActionPing          Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// AnswerRequest records or overwrites the answer for a question.
type AnswerRequest struct {
	Action     Action `json:"action"`
	QuestionID string `json:"question_id"`
	Answer     string `json:"answer"`
}

// NavigateRequest moves one question forward or back.
type NavigateRequest struct {
	Action    Action `json:"action"`
	Direction string `json:"direction"` // "next" or "previous"
}

// JumpRequest moves directly to a question index (question-map sidebar).
type JumpRequest struct {
	Action Action `json:"action"`
	Index  int    `json:"index"`
}

// KeyRequest forwards a raw keyboard key for server-side dispatch.
type KeyRequest struct {
	Action Action `json:"action"`
	Key    string `json:"key"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventState  Event = "state"
	EventSaved  Event = "saved"
	EventGraded Event = "graded"
	EventError  Event = "error"
	EventPong   Event = "pong"
)

// StateEvent pushes the observable session state. Sent on attach (with the
// question paper) and after every change, including each clock tick.
type StateEvent struct {
	Event     Event                      `json:"event"`
	State     exam.Snapshot              `json:"state"`
	Questions []model.QuestionForStudent `json:"questions,omitempty"`
	Answers   map[string]string          `json:"answers,omitempty"`
}

// SavedEvent acknowledges a persisted answer.
type SavedEvent struct {
	Event      Event  `json:"event"`
	QuestionID string `json:"question_id"`
}

// GradedEvent announces the terminal result of the attempt.
type GradedEvent struct {
	Event         Event `json:"event"`
	Score         int   `json:"score"`
	Total         int   `json:"total"`
	Percentage    int   `json:"percentage"`
	AutoSubmitted bool  `json:"auto_submitted"`
}

// ErrorEvent reports a rejected action.
type ErrorEvent struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

// PongEvent answers a keepalive ping.
type PongEvent struct {
	Event Event `json:"event"`
}
