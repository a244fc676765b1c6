package exam

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/adewumilot300-rgb/EduNexus/internal/model"
)

type fixedClock struct{ at time.Time }

func (c fixedClock) Now() time.Time { return c.at }

type captureSink struct {
	results []model.ExamResult
}

func (s *captureSink) SubmitResult(r model.ExamResult) {
	s.results = append(s.results, r)
}

var testNow = time.Date(2024, 10, 14, 9, 30, 0, 0, time.UTC)

func newTestSession(t *testing.T, questions []model.Question, durationMinutes int) (*Session, *captureSink) {
	t.Helper()
	sink := &captureSink{}
	s := NewSession(SessionConfig{
		ExamID:          uuid.New(),
		StudentID:       uuid.New(),
		Questions:       questions,
		DurationMinutes: durationMinutes,
		AllowBackNav:    true,
		Clock:           fixedClock{at: testNow},
		Sink:            sink,
	})
	return s, sink
}

func TestSessionInitialState(t *testing.T) {
	questions := gradedExam()
	s, _ := newTestSession(t, questions, 2)

	if s.State() != StateInProgress {
		t.Fatalf("expected IN_PROGRESS, got %s", s.State())
	}
	if s.Index() != 0 {
		t.Fatalf("expected index 0, got %d", s.Index())
	}
	if s.Remaining() != 120 {
		t.Fatalf("expected 120s remaining, got %d", s.Remaining())
	}
	if len(s.Answers()) != 0 {
		t.Fatalf("expected empty answer map")
	}
}

func TestSelectAnswerOverwritesAndIsIdempotent(t *testing.T) {
	questions := gradedExam()
	s, _ := newTestSession(t, questions, 2)
	qid := questions[0].ID.String()

	notifications := 0
	s.onChange = func(Snapshot) { notifications++ }

	s.SelectAnswer(qid, "A")
	if s.Answers()[qid] != "A" {
		t.Fatalf("answer not recorded")
	}
	if s.Index() != 0 {
		t.Fatalf("selecting an answer must not advance position")
	}

	// Re-selecting the same token is observably a no-op.
	before := notifications
	s.SelectAnswer(qid, "A")
	if notifications != before {
		t.Fatalf("idempotent re-select must not notify")
	}

	// A different token overwrites.
	s.SelectAnswer(qid, "C")
	if s.Answers()[qid] != "C" {
		t.Fatalf("expected overwrite to C, got %s", s.Answers()[qid])
	}
	if len(s.Answers()) != 1 {
		t.Fatalf("overwrite must not add entries")
	}
}

func TestSelectAnswerIgnoresUnknownQuestion(t *testing.T) {
	s, _ := newTestSession(t, gradedExam(), 2)

	s.SelectAnswer(uuid.New().String(), "A")
	if len(s.Answers()) != 0 {
		t.Fatalf("unknown question ID must be dropped")
	}
}

func TestSelectAnswerIgnoresEmptyToken(t *testing.T) {
	questions := gradedExam()
	s, _ := newTestSession(t, questions, 2)
	qid := questions[0].ID.String()

	s.SelectAnswer(qid, "")
	if len(s.Answers()) != 0 {
		t.Fatalf("empty token must not record an answer")
	}

	s.SelectAnswer(qid, "A")
	s.SelectAnswer(qid, "")
	if s.Answers()[qid] != "A" {
		t.Fatalf("empty token must never clear a recorded answer, got %q", s.Answers()[qid])
	}
}

func TestNavigationClampsAtBothEnds(t *testing.T) {
	questions := gradedExam()
	s, _ := newTestSession(t, questions, 2)

	s.Navigate(DirectionPrevious)
	if s.Index() != 0 {
		t.Fatalf("previous at 0 must stay at 0, got %d", s.Index())
	}

	last := len(questions) - 1
	for i := 0; i < len(questions)+3; i++ {
		s.Navigate(DirectionNext)
	}
	if s.Index() != last {
		t.Fatalf("next past the end must stay at %d, got %d", last, s.Index())
	}

	s.Navigate(DirectionPrevious)
	if s.Index() != last-1 {
		t.Fatalf("expected %d, got %d", last-1, s.Index())
	}
}

func TestNavigationKeepsAnswers(t *testing.T) {
	questions := gradedExam()
	s, _ := newTestSession(t, questions, 2)
	qid := questions[0].ID.String()

	s.SelectAnswer(qid, "A")
	s.Navigate(DirectionNext)
	s.Navigate(DirectionPrevious)
	s.JumpTo(2)

	if s.Answers()[qid] != "A" {
		t.Fatalf("navigation lost a recorded answer")
	}
}

func TestJumpToRange(t *testing.T) {
	questions := gradedExam()
	s, _ := newTestSession(t, questions, 2)

	s.JumpTo(2)
	if s.Index() != 2 {
		t.Fatalf("expected index 2, got %d", s.Index())
	}

	s.JumpTo(99)
	if s.Index() != 2 {
		t.Fatalf("out-of-range jump must be ignored")
	}
	s.JumpTo(-1)
	if s.Index() != 2 {
		t.Fatalf("negative jump must be ignored")
	}
}

func TestBackNavigationDisabled(t *testing.T) {
	sink := &captureSink{}
	s := NewSession(SessionConfig{
		ExamID:          uuid.New(),
		StudentID:       uuid.New(),
		Questions:       gradedExam(),
		DurationMinutes: 2,
		AllowBackNav:    false,
		Clock:           fixedClock{at: testNow},
		Sink:            sink,
	})

	s.Navigate(DirectionNext)
	s.Navigate(DirectionPrevious)
	if s.Index() != 1 {
		t.Fatalf("previous must be ignored when back navigation is off, got %d", s.Index())
	}
}

func TestDefaultExamConfigAllowsBackNavigation(t *testing.T) {
	cfg := model.DefaultExamConfig()
	if !cfg.AllowBackNav || !cfg.ShuffleQuestions || !cfg.ShuffleOptions {
		t.Fatalf("default config must enable every flag, got %+v", cfg)
	}

	sink := &captureSink{}
	s := NewSession(SessionConfig{
		ExamID:          uuid.New(),
		StudentID:       uuid.New(),
		Questions:       gradedExam(),
		DurationMinutes: 2,
		AllowBackNav:    cfg.AllowBackNav,
		Clock:           fixedClock{at: testNow},
		Sink:            sink,
	})

	s.Navigate(DirectionNext)
	s.Navigate(DirectionNext)
	s.Navigate(DirectionPrevious)
	if s.Index() != 1 {
		t.Fatalf("previous from 2 must land on 1 under the default config, got %d", s.Index())
	}
}

func TestTickCountsDownToExactlyOneAutoSubmit(t *testing.T) {
	questions := gradedExam()
	s, sink := newTestSession(t, questions, 1)

	s.SelectAnswer(questions[0].ID.String(), "A")
	s.JumpTo(1)

	for i := 0; i < 60; i++ {
		s.Tick()
	}

	if s.State() != StateSubmitted {
		t.Fatalf("expected SUBMITTED after timeout, got %s", s.State())
	}
	if s.Remaining() != 0 {
		t.Fatalf("expected 0s remaining, got %d", s.Remaining())
	}
	if len(sink.results) != 1 {
		t.Fatalf("expected exactly one result, got %d", len(sink.results))
	}
	if !s.AutoSubmitted() {
		t.Fatalf("timeout submission must be marked automatic")
	}
	if s.Index() != 1 {
		t.Fatalf("auto-submit must not move the position, got %d", s.Index())
	}

	r := sink.results[0]
	if r.Score != 1 || r.TotalQuestions != 3 {
		t.Fatalf("expected score 1/3, got %d/%d", r.Score, r.TotalQuestions)
	}
	if len(r.Answers) != 1 {
		t.Fatalf("result must carry exactly the answers selected before timeout")
	}

	// Ticks after the terminal state are no-ops.
	s.Tick()
	s.Tick()
	if len(sink.results) != 1 {
		t.Fatalf("ticks after submission must not emit again")
	}
}

func TestManualSubmitFlow(t *testing.T) {
	questions := gradedExam()
	s, sink := newTestSession(t, questions, 2)

	s.SelectAnswer(questions[0].ID.String(), "A")
	s.SelectAnswer(questions[1].ID.String(), "B")

	// RequestSubmit is a gate, not a submission.
	s.RequestSubmit()
	if s.State() != StateInProgress || len(sink.results) != 0 {
		t.Fatalf("request alone must not submit")
	}
	if s.Modal() != ModalSubmit {
		t.Fatalf("expected submit modal open")
	}

	// Cancelling returns to the exam.
	s.CancelSubmit()
	if s.Modal() != ModalNone {
		t.Fatalf("expected modal closed after cancel")
	}

	// Confirm without an open gate is a no-op.
	s.ConfirmSubmit()
	if len(sink.results) != 0 {
		t.Fatalf("confirm without open gate must not submit")
	}

	s.RequestSubmit()
	s.ConfirmSubmit()

	if s.State() != StateSubmitted {
		t.Fatalf("expected SUBMITTED, got %s", s.State())
	}
	if s.AutoSubmitted() {
		t.Fatalf("manual submission must not be marked automatic")
	}
	if len(sink.results) != 1 {
		t.Fatalf("expected one result, got %d", len(sink.results))
	}

	r := sink.results[0]
	if r.Score != 2 || r.TotalQuestions != 3 {
		t.Fatalf("expected 2/3, got %d/%d", r.Score, r.TotalQuestions)
	}
	if r.Status != model.ResultStatusGraded {
		t.Fatalf("expected GRADED, got %s", r.Status)
	}
	if !r.SubmittedAt.Equal(testNow) {
		t.Fatalf("expected clock timestamp %v, got %v", testNow, r.SubmittedAt)
	}

	b := Summarize(questions, r.Answers)
	if b.Correct != 2 || b.Wrong != 0 || b.Skipped != 1 {
		t.Fatalf("expected 2 correct / 1 skipped, got %+v", b)
	}
}

func TestDoubleSubmissionIsNoOp(t *testing.T) {
	questions := gradedExam()
	s, sink := newTestSession(t, questions, 1)

	s.RequestSubmit()
	s.ConfirmSubmit()

	// Timer firing after the manual submit must lose the race silently.
	for i := 0; i < 120; i++ {
		s.Tick()
	}
	s.RequestSubmit()
	s.ConfirmSubmit()

	if len(sink.results) != 1 {
		t.Fatalf("expected exactly one emitted result, got %d", len(sink.results))
	}
}

func TestTerminalStateIsSticky(t *testing.T) {
	questions := gradedExam()
	s, _ := newTestSession(t, questions, 1)
	s.RequestSubmit()
	s.ConfirmSubmit()

	s.SelectAnswer(questions[2].ID.String(), "C")
	s.Navigate(DirectionNext)
	s.JumpTo(2)
	s.ToggleHelp()

	if len(s.Answers()) != 0 {
		t.Fatalf("answers must be frozen after submission")
	}
	if s.Index() != 0 || s.Modal() != ModalNone {
		t.Fatalf("no transition may leave SUBMITTED")
	}
}

func TestEmptyExamSubmitsZeroOverZero(t *testing.T) {
	s, sink := newTestSession(t, nil, 1)

	if s.CurrentQuestion() != nil {
		t.Fatalf("empty exam has no current question")
	}
	s.Navigate(DirectionNext)
	s.Navigate(DirectionPrevious)

	s.RequestSubmit()
	s.ConfirmSubmit()

	if len(sink.results) != 1 {
		t.Fatalf("expected one result")
	}
	r := sink.results[0]
	if r.Score != 0 || r.TotalQuestions != 0 {
		t.Fatalf("expected 0/0, got %d/%d", r.Score, r.TotalQuestions)
	}
	if got := Percentage(r.Score, r.TotalQuestions); got != 0 {
		t.Fatalf("percentage of empty exam must be a defined 0, got %d", got)
	}
}

func TestRestoreFiltersUnknownQuestions(t *testing.T) {
	questions := gradedExam()
	s, _ := newTestSession(t, questions, 2)

	s.Restore(map[string]string{
		questions[0].ID.String(): "A",
		uuid.New().String():      "B",
	})

	if len(s.Answers()) != 1 {
		t.Fatalf("expected only known answers restored, got %d", len(s.Answers()))
	}
}

func TestKeyboardDispatch(t *testing.T) {
	questions := gradedExam()
	s, _ := newTestSession(t, questions, 2)

	if !s.HandleKey("a") {
		t.Fatalf("lowercase letter key must be accepted")
	}
	if s.Answers()[questions[0].ID.String()] != "A" {
		t.Fatalf("A must select the first option")
	}

	if !s.HandleKey("ArrowRight") {
		t.Fatalf("right arrow must navigate")
	}
	if s.Index() != 1 {
		t.Fatalf("expected index 1, got %d", s.Index())
	}
	s.HandleKey("N")
	if s.Index() != 2 {
		t.Fatalf("expected index 2, got %d", s.Index())
	}
	s.HandleKey("p")
	s.HandleKey("ArrowLeft")
	if s.Index() != 0 {
		t.Fatalf("expected index 0, got %d", s.Index())
	}

	if s.HandleKey("Z") {
		t.Fatalf("unmapped key must not be consumed")
	}
	if s.HandleKey("E") {
		t.Fatalf("letters past the option count must not be consumed")
	}
}

func TestKeyboardGatedByModals(t *testing.T) {
	questions := gradedExam()
	s, sink := newTestSession(t, questions, 2)

	// Help dialog: only its toggle key works, nothing else leaks through.
	if !s.HandleKey("F1") {
		t.Fatalf("F1 must open help")
	}
	if s.Modal() != ModalHelp {
		t.Fatalf("expected help modal")
	}
	if s.HandleKey("A") || s.HandleKey("N") || s.HandleKey("S") {
		t.Fatalf("keys must be gated while help is open")
	}
	if s.Index() != 0 || len(s.Answers()) != 0 {
		t.Fatalf("gated keys must not mutate state")
	}
	if !s.HandleKey("Escape") {
		t.Fatalf("escape must close help")
	}

	// Submit gate: every key is ignored until an explicit confirm/cancel.
	s.HandleKey("S")
	if s.Modal() != ModalSubmit {
		t.Fatalf("S must open the submit gate")
	}
	if s.HandleKey("A") || s.HandleKey("S") || s.HandleKey("Escape") {
		t.Fatalf("keys must be gated while the submit dialog is open")
	}
	if len(sink.results) != 0 {
		t.Fatalf("gated keys must not submit")
	}

	s.CancelSubmit()
	if !s.HandleKey("B") {
		t.Fatalf("keys must work again after cancel")
	}
}

func TestTickRunsWhileHelpOpen(t *testing.T) {
	s, sink := newTestSession(t, gradedExam(), 1)

	s.ToggleHelp()
	for i := 0; i < 60; i++ {
		s.Tick()
	}

	if s.State() != StateSubmitted || len(sink.results) != 1 {
		t.Fatalf("the countdown must not pause for dialogs")
	}
}
