package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/adewumilot300-rgb/EduNexus/internal/config"
	"github.com/adewumilot300-rgb/EduNexus/internal/exam"
	"github.com/adewumilot300-rgb/EduNexus/internal/model"
	"github.com/adewumilot300-rgb/EduNexus/internal/repository"
)

// Session errors.
var (
	ErrSessionCompleted = errors.New("exam already submitted by this student")
)

// AutosavePayload is one autosave snapshot queued for background persistence.
type AutosavePayload struct {
	ExamID         uuid.UUID         `json:"exam_id"`
	StudentID      uuid.UUID         `json:"student_id"`
	Answers        map[string]string `json:"answers"`
	TotalQuestions int               `json:"total_questions"`
	SavedAt        time.Time         `json:"saved_at"`
}

type sessionKey struct {
	ExamID    uuid.UUID
	StudentID uuid.UUID
}

// runtimeSession pairs a live state machine with the mutex that serializes
// the ticker against user commands. The WS connection's listener is swapped
// in and out under the same lock.
type runtimeSession struct {
	mu       sync.Mutex
	sess     *exam.Session
	listener func(exam.Snapshot)
}

func (rt *runtimeSession) notify(snap exam.Snapshot) {
	if rt.listener != nil {
		rt.listener(snap)
	}
}

// SessionService owns the registry of live exam sessions. One goroutine
// ticks every live session once per second; every user command and every
// tick for a given session runs under that session's mutex, so the state
// machine itself never sees concurrent access.
type SessionService struct {
	examRepo   *repository.ExamRepository
	resultRepo *repository.ResultRepository
	composer   *exam.Composer
	clock      exam.Clock
	rdb        *redis.Client
	log        zerolog.Logger

	mu       sync.Mutex
	sessions map[sessionKey]*runtimeSession

	stop chan struct{}
	done chan struct{}
}

// NewSessionService creates a new SessionService. A nil clock defaults to
// wall-clock time; tests inject a fixed one.
func NewSessionService(
	examRepo *repository.ExamRepository,
	resultRepo *repository.ResultRepository,
	composer *exam.Composer,
	clock exam.Clock,
	rdb *redis.Client,
	log zerolog.Logger,
) *SessionService {
	if clock == nil {
		clock = exam.SystemClock{}
	}
	return &SessionService{
		examRepo:   examRepo,
		resultRepo: resultRepo,
		composer:   composer,
		clock:      clock,
		rdb:        rdb,
		log:        log.With().Str("component", "session_service").Logger(),
		sessions:   make(map[sessionKey]*runtimeSession),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Start launches the 1 Hz ticker loop.
func (s *SessionService) Start() {
	go s.run()
	s.log.Info().Msg("Session ticker started")
}

// Stop halts the ticker and waits for the loop to exit. Live sessions stay
// recoverable through their Redis autosave state.
func (s *SessionService) Stop() {
	close(s.stop)
	<-s.done
	s.log.Info().Msg("Session ticker stopped")
}

func (s *SessionService) run() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			close(s.done)
			return
		case <-ticker.C:
			s.tickAll()
		}
	}
}

// tickAll advances every live session by one second and sweeps sessions that
// reached the terminal state out of the registry.
func (s *SessionService) tickAll() {
	s.mu.Lock()
	keys := make([]sessionKey, 0, len(s.sessions))
	handles := make([]*runtimeSession, 0, len(s.sessions))
	for k, rt := range s.sessions {
		keys = append(keys, k)
		handles = append(handles, rt)
	}
	s.mu.Unlock()

	var finished []sessionKey
	for i, rt := range handles {
		rt.mu.Lock()
		rt.sess.Tick()
		if rt.sess.State() == exam.StateSubmitted {
			finished = append(finished, keys[i])
		}
		rt.mu.Unlock()
	}

	if len(finished) > 0 {
		s.mu.Lock()
		for _, k := range finished {
			delete(s.sessions, k)
		}
		s.mu.Unlock()
	}
}

// Attach returns a handle to the student's live session for an exam,
// creating it if needed. The onChange listener replaces any previous one;
// single-device login keeps that from racing two real clients.
func (s *SessionService) Attach(ctx context.Context, examID, studentID uuid.UUID, onChange func(exam.Snapshot)) (*SessionHandle, error) {
	key := sessionKey{ExamID: examID, StudentID: studentID}

	s.mu.Lock()
	if rt, ok := s.sessions[key]; ok {
		s.mu.Unlock()
		rt.mu.Lock()
		rt.listener = onChange
		rt.mu.Unlock()
		return &SessionHandle{svc: s, key: key, rt: rt}, nil
	}
	s.mu.Unlock()

	rt, err := s.buildSession(ctx, examID, studentID, onChange)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if existing, ok := s.sessions[key]; ok {
		// Lost the build race to a concurrent attach; use the winner.
		s.mu.Unlock()
		existing.mu.Lock()
		existing.listener = onChange
		existing.mu.Unlock()
		return &SessionHandle{svc: s, key: key, rt: existing}, nil
	}
	s.sessions[key] = rt
	s.mu.Unlock()

	return &SessionHandle{svc: s, key: key, rt: rt}, nil
}

// buildSession loads the exam, enforces access rules, and reconstructs the
// attempt from its Redis autosave state (answers, start time, question order).
func (s *SessionService) buildSession(ctx context.Context, examID, studentID uuid.UUID, onChange func(exam.Snapshot)) (*runtimeSession, error) {
	e, err := s.examRepo.GetByID(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("get exam: %w", err)
	}
	if e.Status != model.ExamStatusActive {
		return nil, ErrExamNotActive
	}
	if !e.IsAssigned(studentID) {
		return nil, ErrNotAssigned
	}

	if res, err := s.resultRepo.GetByExamAndStudent(ctx, examID, studentID); err == nil {
		if res.Status == model.ResultStatusGraded {
			return nil, ErrSessionCompleted
		}
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("check result: %w", err)
	}

	questions, err := s.questionOrder(ctx, e, studentID)
	if err != nil {
		return nil, err
	}

	remaining, err := s.remainingSeconds(ctx, e, studentID)
	if err != nil {
		return nil, err
	}

	rt := &runtimeSession{listener: onChange}
	sess := exam.NewSession(exam.SessionConfig{
		ExamID:          examID,
		StudentID:       studentID,
		Questions:       questions,
		DurationMinutes: e.DurationMinutes,
		AllowBackNav:    e.Config.AllowBackNav,
		Clock:           s.clock,
		Sink:            exam.SinkFunc(s.enqueueResult),
		OnChange:        rt.notify,
	})
	rt.sess = sess

	saved, err := s.rdb.HGetAll(ctx, config.CacheKey.StudentAnswersKey(examID.String(), studentID.String())).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("load autosave: %w", err)
	}
	if len(saved) > 0 {
		sess.Restore(saved)
	}
	sess.RestoreClock(remaining)

	s.log.Debug().
		Str("exam_id", examID.String()).
		Str("student_id", studentID.String()).
		Int("restored_answers", len(saved)).
		Int("remaining", remaining).
		Msg("Session built")
	return rt, nil
}

// questionOrder returns the frozen question sequence, permuted per student
// when the exam's shuffle flag is on. The permutation is drawn once and
// pinned in Redis so reconnects see the same order.
func (s *SessionService) questionOrder(ctx context.Context, e *model.Exam, studentID uuid.UUID) ([]model.Question, error) {
	if !e.Config.ShuffleQuestions {
		return e.Questions, nil
	}

	orderKey := config.CacheKey.StudentQuestionOrderKey(e.ID.String(), studentID.String())
	raw, err := s.rdb.Get(ctx, orderKey).Bytes()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("load question order: %w", err)
	}

	byID := make(map[string]model.Question, len(e.Questions))
	for _, q := range e.Questions {
		byID[q.ID.String()] = q
	}

	if err == nil {
		var ids []string
		if jsonErr := json.Unmarshal(raw, &ids); jsonErr == nil && len(ids) == len(e.Questions) {
			ordered := make([]model.Question, 0, len(ids))
			for _, id := range ids {
				q, ok := byID[id]
				if !ok {
					break
				}
				ordered = append(ordered, q)
			}
			if len(ordered) == len(e.Questions) {
				return ordered, nil
			}
		}
		// Stored order no longer matches the paper; fall through and redraw.
	}

	shuffled := s.composer.ShuffleOrder(e.Questions)
	ids := make([]string, len(shuffled))
	for i, q := range shuffled {
		ids[i] = q.ID.String()
	}
	encoded, err := json.Marshal(ids)
	if err != nil {
		return nil, fmt.Errorf("marshal question order: %w", err)
	}
	if err := s.rdb.Set(ctx, orderKey, encoded, 0).Err(); err != nil {
		return nil, fmt.Errorf("pin question order: %w", err)
	}
	return shuffled, nil
}

// remainingSeconds computes how much time the attempt has left, pinning the
// start time in Redis on first call so reconnects resume the same countdown.
func (s *SessionService) remainingSeconds(ctx context.Context, e *model.Exam, studentID uuid.UUID) (int, error) {
	startKey := config.CacheKey.StudentExamSessionStartKey(e.ID.String(), studentID.String())
	now := s.clock.Now()

	val, err := s.rdb.Get(ctx, startKey).Result()
	if errors.Is(err, redis.Nil) {
		if err := s.rdb.Set(ctx, startKey, now.Unix(), 0).Err(); err != nil {
			return 0, fmt.Errorf("pin start time: %w", err)
		}
		return e.DurationMinutes * 60, nil
	}
	if err != nil {
		return 0, fmt.Errorf("load start time: %w", err)
	}

	startUnix, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid start time in cache: %w", err)
	}

	elapsed := int(now.Unix() - startUnix)
	remaining := e.DurationMinutes*60 - elapsed
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// enqueueResult pushes a graded result onto the persistence queue. Runs
// inside the session mutex, so it must not touch the registry.
func (s *SessionService) enqueueResult(result model.ExamResult) {
	ctx := context.Background()
	payload, err := json.Marshal(result)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to marshal result")
		return
	}
	if err := s.rdb.LPush(ctx, config.WorkerKey.PersistResultsQueue, payload).Err(); err != nil {
		s.log.Error().
			Err(err).
			Str("exam_id", result.ExamID.String()).
			Str("student_id", result.StudentID.String()).
			Msg("Failed to enqueue result")
		return
	}
	s.log.Info().
		Str("exam_id", result.ExamID.String()).
		Str("student_id", result.StudentID.String()).
		Int("score", result.Score).
		Int("total", result.TotalQuestions).
		Msg("Result enqueued")
}

// autosave mirrors the session's answers into the Redis hash used for
// reconnect restore, and queues a snapshot for background DB persistence.
func (s *SessionService) autosave(ctx context.Context, key sessionKey, answers map[string]string, total int) {
	if len(answers) == 0 {
		return
	}
	hashKey := config.CacheKey.StudentAnswersKey(key.ExamID.String(), key.StudentID.String())
	fields := make(map[string]interface{}, len(answers))
	for qid, token := range answers {
		fields[qid] = token
	}
	if err := s.rdb.HSet(ctx, hashKey, fields).Err(); err != nil {
		s.log.Warn().Err(err).Msg("Autosave hash write failed")
	}

	payload, err := json.Marshal(AutosavePayload{
		ExamID:         key.ExamID,
		StudentID:      key.StudentID,
		Answers:        answers,
		TotalQuestions: total,
		SavedAt:        s.clock.Now(),
	})
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to marshal autosave payload")
		return
	}
	if err := s.rdb.LPush(ctx, config.WorkerKey.PersistAnswersQueue, payload).Err(); err != nil {
		s.log.Warn().Err(err).Msg("Autosave enqueue failed")
	}
}

// detach drops the session from the registry. The countdown stops; Redis
// keeps the answers and start time, so a reconnect resumes with the elapsed
// wall time deducted. An attempt that never reconnects produces no result.
func (s *SessionService) detach(key sessionKey, rt *runtimeSession) {
	rt.mu.Lock()
	rt.listener = nil
	rt.mu.Unlock()

	s.mu.Lock()
	if current, ok := s.sessions[key]; ok && current == rt {
		delete(s.sessions, key)
	}
	s.mu.Unlock()
}

// Live reports how many sessions are currently in the registry.
func (s *SessionService) Live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// SessionHandle is a WS connection's view of one live session. Every method
// serializes against the ticker through the session mutex.
type SessionHandle struct {
	svc *SessionService
	key sessionKey
	rt  *runtimeSession
}

// Snapshot returns the current observable state.
func (h *SessionHandle) Snapshot() exam.Snapshot {
	h.rt.mu.Lock()
	defer h.rt.mu.Unlock()
	return h.rt.sess.Snapshot()
}

// Questions returns the attempt's question sequence in presentation order,
// stripped of answer keys.
func (h *SessionHandle) Questions() []model.QuestionForStudent {
	h.rt.mu.Lock()
	defer h.rt.mu.Unlock()
	qs := h.rt.sess.Questions()
	out := make([]model.QuestionForStudent, len(qs))
	for i, q := range qs {
		out[i] = q.ForStudent()
	}
	return out
}

// Answers returns a copy of the current answer map.
func (h *SessionHandle) Answers() map[string]string {
	h.rt.mu.Lock()
	defer h.rt.mu.Unlock()
	return h.rt.sess.Answers()
}

// Answer records an answer and autosaves the updated map.
func (h *SessionHandle) Answer(ctx context.Context, questionID, token string) exam.Snapshot {
	h.rt.mu.Lock()
	h.rt.sess.SelectAnswer(questionID, token)
	snap := h.rt.sess.Snapshot()
	answers := h.rt.sess.Answers()
	total := len(h.rt.sess.Questions())
	h.rt.mu.Unlock()

	h.svc.autosave(ctx, h.key, answers, total)
	return snap
}

// Navigate moves one question in the given direction.
func (h *SessionHandle) Navigate(dir exam.Direction) exam.Snapshot {
	h.rt.mu.Lock()
	defer h.rt.mu.Unlock()
	h.rt.sess.Navigate(dir)
	return h.rt.sess.Snapshot()
}

// Jump moves directly to a question index.
func (h *SessionHandle) Jump(index int) exam.Snapshot {
	h.rt.mu.Lock()
	defer h.rt.mu.Unlock()
	h.rt.sess.JumpTo(index)
	return h.rt.sess.Snapshot()
}

// Key dispatches a raw keyboard key through the session's keymap and
// autosaves if the key recorded an answer.
func (h *SessionHandle) Key(ctx context.Context, key string) (exam.Snapshot, bool) {
	h.rt.mu.Lock()
	before := len(h.rt.sess.Answers())
	consumed := h.rt.sess.HandleKey(key)
	snap := h.rt.sess.Snapshot()
	var answers map[string]string
	total := len(h.rt.sess.Questions())
	if snap.Answered != before {
		answers = h.rt.sess.Answers()
	}
	h.rt.mu.Unlock()

	if answers != nil {
		h.svc.autosave(ctx, h.key, answers, total)
	}
	return snap, consumed
}

// RequestSubmit opens the submit confirmation gate.
func (h *SessionHandle) RequestSubmit() exam.Snapshot {
	h.rt.mu.Lock()
	defer h.rt.mu.Unlock()
	h.rt.sess.RequestSubmit()
	return h.rt.sess.Snapshot()
}

// ConfirmSubmit completes a pending submit request.
func (h *SessionHandle) ConfirmSubmit() exam.Snapshot {
	h.rt.mu.Lock()
	defer h.rt.mu.Unlock()
	h.rt.sess.ConfirmSubmit()
	return h.rt.sess.Snapshot()
}

// CancelSubmit closes the confirmation gate.
func (h *SessionHandle) CancelSubmit() exam.Snapshot {
	h.rt.mu.Lock()
	defer h.rt.mu.Unlock()
	h.rt.sess.CancelSubmit()
	return h.rt.sess.Snapshot()
}

// ToggleHelp opens or closes the shortcut dialog.
func (h *SessionHandle) ToggleHelp() exam.Snapshot {
	h.rt.mu.Lock()
	defer h.rt.mu.Unlock()
	h.rt.sess.ToggleHelp()
	return h.rt.sess.Snapshot()
}

// Submitted reports whether the session reached the terminal state, and
// whether the timer drove it there.
func (h *SessionHandle) Submitted() (bool, bool) {
	h.rt.mu.Lock()
	defer h.rt.mu.Unlock()
	return h.rt.sess.State() == exam.StateSubmitted, h.rt.sess.AutoSubmitted()
}

// Result grades the attempt as it currently stands.
func (h *SessionHandle) Result() (score, total int) {
	h.rt.mu.Lock()
	defer h.rt.mu.Unlock()
	qs := h.rt.sess.Questions()
	return exam.Score(qs, h.rt.sess.Answers()), len(qs)
}

// Detach releases the connection's listener and stops the attempt's clock
// until the student reconnects.
func (h *SessionHandle) Detach() {
	h.svc.detach(h.key, h.rt)
}
