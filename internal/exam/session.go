package exam

import (
	"time"

	"github.com/google/uuid"

	"github.com/adewumilot300-rgb/EduNexus/internal/model"
)

// State is the session lifecycle. There are exactly two states; SUBMITTED is
// terminal and sticky — no operation leaves it.
type State string

const (
	StateInProgress State = "IN_PROGRESS"
	StateSubmitted  State = "SUBMITTED"
)

// Direction is a relative navigation command.
type Direction string

const (
	DirectionNext     Direction = "next"
	DirectionPrevious Direction = "previous"
)

// Modal tracks which blocking dialog, if any, is open. While a modal is open
// the keyboard command surface is gated off in one place (HandleKey), not in
// per-command checks.
type Modal string

const (
	ModalNone   Modal = "NONE"
	ModalSubmit Modal = "SUBMIT"
	ModalHelp   Modal = "HELP"
)

// Clock supplies wall-clock time for submission timestamps. Injectable so
// tests can freeze time.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock.
type SystemClock struct{}

// Now returns the current wall-clock time.
func (SystemClock) Now() time.Time { return time.Now() }

// ResultSink receives the completed result. A session calls it exactly once,
// whether submission was manual or by timeout.
type ResultSink interface {
	SubmitResult(result model.ExamResult)
}

// SinkFunc adapts a function to the ResultSink interface.
type SinkFunc func(result model.ExamResult)

// SubmitResult calls f(result).
func (f SinkFunc) SubmitResult(result model.ExamResult) { f(result) }

// Snapshot is the observable session state pushed to change listeners.
type Snapshot struct {
	State     State  `json:"state"`
	Index     int    `json:"index"`
	Total     int    `json:"total"`
	Answered  int    `json:"answered"`
	Remaining int    `json:"remaining_seconds"`
	Clock     string `json:"clock"`
	Modal     Modal  `json:"modal"`
}

// SessionConfig wires a new Session.
type SessionConfig struct {
	ExamID          uuid.UUID
	StudentID       uuid.UUID
	Questions       []model.Question
	DurationMinutes int
	AllowBackNav    bool
	Clock           Clock
	Sink            ResultSink
	OnChange        func(Snapshot)
}

// Session owns the live state of one student's attempt at one exam instance:
// current position, recorded answers, the countdown, and submission. It is a
// single-actor state machine; callers serialize access (the service layer
// holds a mutex around every operation, including the timer tick).
type Session struct {
	examID        uuid.UUID
	studentID     uuid.UUID
	questions     []model.Question
	answers       map[string]string
	known         map[string]struct{}
	index         int
	remaining     int
	state         State
	modal         Modal
	allowBack     bool
	autoSubmitted bool
	clock         Clock
	sink          ResultSink
	onChange      func(Snapshot)
}

// NewSession starts a session in IN_PROGRESS at question 0 with an empty
// answer map and the full duration on the clock.
func NewSession(cfg SessionConfig) *Session {
	clock := cfg.Clock
	if clock == nil {
		clock = SystemClock{}
	}
	known := make(map[string]struct{}, len(cfg.Questions))
	for _, q := range cfg.Questions {
		known[q.ID.String()] = struct{}{}
	}
	return &Session{
		examID:    cfg.ExamID,
		studentID: cfg.StudentID,
		questions: cfg.Questions,
		answers:   make(map[string]string),
		known:     known,
		remaining: cfg.DurationMinutes * 60,
		state:     StateInProgress,
		modal:     ModalNone,
		allowBack: cfg.AllowBackNav,
		clock:     clock,
		sink:      cfg.Sink,
		onChange:  cfg.OnChange,
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State { return s.state }

// Index returns the current question position.
func (s *Session) Index() int { return s.index }

// Remaining returns the remaining whole seconds.
func (s *Session) Remaining() int { return s.remaining }

// Modal returns the currently open blocking dialog, if any.
func (s *Session) Modal() Modal { return s.modal }

// AutoSubmitted reports whether the terminal submission came from the timer
// rather than user confirmation.
func (s *Session) AutoSubmitted() bool { return s.autoSubmitted }

// CurrentQuestion returns the question at the current position, or nil for an
// empty exam.
func (s *Session) CurrentQuestion() *model.Question {
	if len(s.questions) == 0 {
		return nil
	}
	return &s.questions[s.index]
}

// Questions returns the session's question sequence in presentation order.
func (s *Session) Questions() []model.Question { return s.questions }

// Answers returns a copy of the current answer map.
func (s *Session) Answers() map[string]string {
	out := make(map[string]string, len(s.answers))
	for k, v := range s.answers {
		out[k] = v
	}
	return out
}

// Snapshot builds the observable state for listeners and reconnecting clients.
func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		State:     s.state,
		Index:     s.index,
		Total:     len(s.questions),
		Answered:  len(s.answers),
		Remaining: s.remaining,
		Clock:     FormatClock(s.remaining),
		Modal:     s.modal,
	}
}

// Restore seeds previously autosaved answers into a fresh session. Unknown
// question IDs are dropped. Used on reconnect; not a user-facing transition.
func (s *Session) Restore(saved map[string]string) {
	if s.state != StateInProgress {
		return
	}
	for qid, token := range saved {
		if _, ok := s.known[qid]; ok {
			s.answers[qid] = token
		}
	}
	s.notify()
}

// RestoreClock resets the countdown to a previously computed remaining value.
// Used on reconnect alongside Restore; clamped at zero so a stale value
// cannot extend the attempt.
func (s *Session) RestoreClock(seconds int) {
	if s.state != StateInProgress {
		return
	}
	if seconds < 0 {
		seconds = 0
	}
	s.remaining = seconds
	s.notify()
}

// SelectAnswer records or overwrites the student's answer for a question.
// Re-selecting the same token is observably a no-op. Position is unaffected.
func (s *Session) SelectAnswer(questionID, token string) {
	if s.state != StateInProgress || token == "" {
		return
	}
	if _, ok := s.known[questionID]; !ok {
		return
	}
	if s.answers[questionID] == token {
		return
	}
	s.answers[questionID] = token
	s.notify()
}

// Navigate moves one question forward or back, clamped to [0, lastIndex].
// Navigation never loses or alters answers.
func (s *Session) Navigate(dir Direction) {
	if s.state != StateInProgress {
		return
	}
	switch dir {
	case DirectionNext:
		s.JumpTo(s.index + 1)
	case DirectionPrevious:
		if s.allowBack {
			s.JumpTo(s.index - 1)
		}
	}
}

// JumpTo moves directly to a question index (question-map sidebar). Out of
// range indexes are ignored rather than clamped so a stale click cannot move
// the position.
func (s *Session) JumpTo(index int) {
	if s.state != StateInProgress {
		return
	}
	if index < 0 || index >= len(s.questions) || index == s.index {
		return
	}
	s.index = index
	s.notify()
}

// Tick advances the countdown by one second. When the clock reaches zero the
// session auto-submits through the same path as a manual submission; the
// terminal state guard makes any further tick a no-op.
func (s *Session) Tick() {
	if s.state != StateInProgress {
		return
	}
	s.remaining--
	if s.remaining <= 0 {
		s.remaining = 0
		s.submit(true)
		return
	}
	s.notify()
}

// RequestSubmit opens the submit-confirmation gate. It never submits by
// itself.
func (s *Session) RequestSubmit() {
	if s.state != StateInProgress || s.modal == ModalSubmit {
		return
	}
	s.modal = ModalSubmit
	s.notify()
}

// ConfirmSubmit completes a pending submit request as a manual submission.
func (s *Session) ConfirmSubmit() {
	if s.state != StateInProgress || s.modal != ModalSubmit {
		return
	}
	s.submit(false)
}

// CancelSubmit closes the confirmation gate and returns to the exam.
func (s *Session) CancelSubmit() {
	if s.state != StateInProgress || s.modal != ModalSubmit {
		return
	}
	s.modal = ModalNone
	s.notify()
}

// ToggleHelp opens or closes the shortcut reference dialog.
func (s *Session) ToggleHelp() {
	if s.state != StateInProgress || s.modal == ModalSubmit {
		return
	}
	if s.modal == ModalHelp {
		s.modal = ModalNone
	} else {
		s.modal = ModalHelp
	}
	s.notify()
}

// submit grades the attempt, emits the result exactly once, and locks the
// session in SUBMITTED. A second call — timer firing after a manual submit,
// or the reverse — hits the state guard and does nothing.
func (s *Session) submit(auto bool) {
	if s.state != StateInProgress {
		return
	}
	s.state = StateSubmitted
	s.modal = ModalNone
	s.autoSubmitted = auto

	result := model.ExamResult{
		ExamID:         s.examID,
		StudentID:      s.studentID,
		Score:          Score(s.questions, s.answers),
		TotalQuestions: len(s.questions),
		Answers:        s.Answers(),
		SubmittedAt:    s.clock.Now(),
		Status:         model.ResultStatusGraded,
	}
	if s.sink != nil {
		s.sink.SubmitResult(result)
	}
	s.notify()
}

func (s *Session) notify() {
	if s.onChange != nil {
		s.onChange(s.Snapshot())
	}
}
