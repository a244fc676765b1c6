package service

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/adewumilot300-rgb/EduNexus/internal/exam"
	"github.com/adewumilot300-rgb/EduNexus/internal/model"
)

type fixedClock struct{ at time.Time }

func (c fixedClock) Now() time.Time { return c.at }

var testNow = time.Date(2024, 10, 14, 9, 30, 0, 0, time.UTC)

// deadRedis returns a client whose commands fail fast. Registry tests never
// depend on a command succeeding; autosave paths just log the failure.
func deadRedis() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 10 * time.Millisecond,
		MaxRetries:  -1,
	})
}

func newTestService() *SessionService {
	return NewSessionService(nil, nil, exam.NewComposer(nil), fixedClock{at: testNow}, deadRedis(), zerolog.Nop())
}

func testQuestions() []model.Question {
	return []model.Question{
		{ID: uuid.New(), Text: "2 + 2?", Options: []string{"3", "4"}, CorrectAnswer: "B", Type: model.QuestionTypeMCQ, Subject: "Mathematics"},
		{ID: uuid.New(), Text: "Capital of France?", Options: []string{"Paris", "Lyon"}, CorrectAnswer: "A", Type: model.QuestionTypeMCQ, Subject: "Geography"},
	}
}

// register builds a live runtime session directly in the registry, bypassing
// the DB-backed attach path, with a capture sink instead of the result queue.
func register(svc *SessionService, durationMinutes int, results *[]model.ExamResult) (sessionKey, *runtimeSession) {
	key := sessionKey{ExamID: uuid.New(), StudentID: uuid.New()}
	rt := &runtimeSession{}
	rt.sess = exam.NewSession(exam.SessionConfig{
		ExamID:          key.ExamID,
		StudentID:       key.StudentID,
		Questions:       testQuestions(),
		DurationMinutes: durationMinutes,
		AllowBackNav:    true,
		Clock:           svc.clock,
		Sink: exam.SinkFunc(func(r model.ExamResult) {
			*results = append(*results, r)
		}),
		OnChange: rt.notify,
	})

	svc.mu.Lock()
	svc.sessions[key] = rt
	svc.mu.Unlock()
	return key, rt
}

func TestTickAllSweepsExpiredSessions(t *testing.T) {
	svc := newTestService()
	var results []model.ExamResult

	expiringKey, expiring := register(svc, 1, &results)
	expiring.mu.Lock()
	expiring.sess.RestoreClock(1)
	expiring.mu.Unlock()
	_, healthy := register(svc, 30, &results)

	svc.tickAll()

	if got := svc.Live(); got != 1 {
		t.Fatalf("expected 1 live session after sweep, got %d", got)
	}
	svc.mu.Lock()
	_, stillThere := svc.sessions[expiringKey]
	svc.mu.Unlock()
	if stillThere {
		t.Fatal("expired session should have been removed from the registry")
	}

	expiring.mu.Lock()
	state := expiring.sess.State()
	auto := expiring.sess.AutoSubmitted()
	expiring.mu.Unlock()
	if state != exam.StateSubmitted || !auto {
		t.Fatalf("expired session should be auto-submitted, got state=%s auto=%v", state, auto)
	}
	if len(results) != 1 {
		t.Fatalf("expected exactly one result from the expired session, got %d", len(results))
	}

	healthy.mu.Lock()
	remaining := healthy.sess.Remaining()
	healthy.mu.Unlock()
	if remaining != 30*60-1 {
		t.Fatalf("healthy session should have ticked once, remaining=%d", remaining)
	}
}

func TestTickAllSubmitsExpiredSessionOnlyOnce(t *testing.T) {
	svc := newTestService()
	var results []model.ExamResult

	_, rt := register(svc, 1, &results)
	rt.mu.Lock()
	rt.sess.RestoreClock(1)
	rt.mu.Unlock()

	svc.tickAll()
	// The sweep removed it; ticking the detached runtime again must not
	// produce a second result.
	rt.mu.Lock()
	rt.sess.Tick()
	rt.sess.Tick()
	rt.mu.Unlock()

	if len(results) != 1 {
		t.Fatalf("expected exactly one result, got %d", len(results))
	}
}

func TestAttachReusesLiveSessionAndSwapsListener(t *testing.T) {
	svc := newTestService()
	var results []model.ExamResult
	key, rt := register(svc, 30, &results)

	var got []exam.Snapshot
	handle, err := svc.Attach(context.Background(), key.ExamID, key.StudentID, func(snap exam.Snapshot) {
		got = append(got, snap)
	})
	if err != nil {
		t.Fatalf("attach to live session: %v", err)
	}
	if handle.rt != rt {
		t.Fatal("attach should return the already-live runtime session")
	}

	handle.Navigate(exam.DirectionNext)
	if len(got) == 0 {
		t.Fatal("swapped-in listener should observe changes")
	}
	if got[len(got)-1].Index != 1 {
		t.Fatalf("expected index 1 after navigate, got %d", got[len(got)-1].Index)
	}
}

func TestDetachStopsNotificationsAndFreesRegistry(t *testing.T) {
	svc := newTestService()
	var results []model.ExamResult
	key, rt := register(svc, 30, &results)

	notified := 0
	handle, err := svc.Attach(context.Background(), key.ExamID, key.StudentID, func(exam.Snapshot) { notified++ })
	if err != nil {
		t.Fatalf("attach: %v", err)
	}

	handle.Detach()

	if got := svc.Live(); got != 0 {
		t.Fatalf("expected empty registry after detach, got %d", got)
	}

	before := notified
	rt.mu.Lock()
	rt.sess.Tick()
	rt.mu.Unlock()
	if notified != before {
		t.Fatal("detached listener must not receive further notifications")
	}
	if len(results) != 0 {
		t.Fatalf("detached attempt must not produce a result, got %d", len(results))
	}
}

func TestDetachIgnoresReplacedRuntime(t *testing.T) {
	svc := newTestService()
	var results []model.ExamResult
	key, oldRT := register(svc, 30, &results)
	staleHandle := &SessionHandle{svc: svc, key: key, rt: oldRT}

	// A reconnect replaced the runtime under the same key.
	svc.mu.Lock()
	delete(svc.sessions, key)
	svc.mu.Unlock()
	_, newRT := register(svc, 30, &results)
	svc.mu.Lock()
	svc.sessions[key] = newRT
	svc.mu.Unlock()

	staleHandle.Detach()

	svc.mu.Lock()
	current, ok := svc.sessions[key]
	svc.mu.Unlock()
	if !ok || current != newRT {
		t.Fatal("detaching a stale handle must not evict the replacement session")
	}
}

func TestHandleCommandsDriveTheSession(t *testing.T) {
	svc := newTestService()
	var results []model.ExamResult
	key, _ := register(svc, 30, &results)

	handle, err := svc.Attach(context.Background(), key.ExamID, key.StudentID, nil)
	if err != nil {
		t.Fatalf("attach: %v", err)
	}

	qs := handle.Questions()
	if len(qs) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(qs))
	}
	raw, err := json.Marshal(qs)
	if err != nil {
		t.Fatalf("marshal student questions: %v", err)
	}
	if bytes.Contains(raw, []byte("correct_answer")) {
		t.Fatal("student view must not carry the answer key")
	}

	first := qs[0].ID.String()
	snap := handle.Answer(context.Background(), first, "B")
	if snap.Answered != 1 {
		t.Fatalf("expected 1 answered, got %d", snap.Answered)
	}
	if handle.Answers()[first] != "B" {
		t.Fatal("answer not recorded")
	}

	if score, total := handle.Result(); score != 1 || total != 2 {
		t.Fatalf("expected 1/2 mid-attempt, got %d/%d", score, total)
	}

	handle.RequestSubmit()
	snap = handle.ConfirmSubmit()
	if snap.State != exam.StateSubmitted {
		t.Fatalf("expected SUBMITTED after confirm, got %s", snap.State)
	}
	if submitted, auto := handle.Submitted(); !submitted || auto {
		t.Fatalf("expected manual submission, got submitted=%v auto=%v", submitted, auto)
	}
	if len(results) != 1 {
		t.Fatalf("expected one result, got %d", len(results))
	}
	if results[0].Score != 1 || results[0].TotalQuestions != 2 {
		t.Fatalf("expected result 1/2, got %d/%d", results[0].Score, results[0].TotalQuestions)
	}
}
