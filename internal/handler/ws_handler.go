package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/adewumilot300-rgb/EduNexus/internal/exam"
	"github.com/adewumilot300-rgb/EduNexus/internal/middleware"
	"github.com/adewumilot300-rgb/EduNexus/internal/service"
	ws "github.com/adewumilot300-rgb/EduNexus/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams a live exam session over WebSocket. The protocol is
// action/event based: the client sends commands, the server pushes state
// snapshots driven by the session's change notifications (including each
// clock tick).
type WSHandler struct {
	sessionService *service.SessionService
	log            zerolog.Logger
	upgrader       websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(sessionService *service.SessionService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		sessionService: sessionService,
		log:            log.With().Str("component", "ws_handler").Logger(),
		upgrader:       buildUpgrader(allowedOrigins),
	}
}

// wsConn serializes concurrent writers (the read loop and the session's
// change notifications fire from different goroutines).
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

// gradedGate defers delivery of the terminal notification until the attach
// has completed. The session's change listener is live inside Attach, so the
// ticker can drive the session terminal before the caller holds a handle
// (a reconnect can restore a clock already at zero); firing the gate in that
// window blocks until bind. Delivery happens at most once.
type gradedGate struct {
	once  sync.Once
	ready chan struct{}
	send  func()
}

func newGradedGate() *gradedGate {
	return &gradedGate{ready: make(chan struct{})}
}

// bind installs the delivery callback and releases pending fires. Binding nil
// releases waiters without delivering (the attach failed).
func (g *gradedGate) bind(send func()) {
	g.send = send
	close(g.ready)
}

func (g *gradedGate) fire() {
	g.once.Do(func() {
		<-g.ready
		if g.send != nil {
			g.send()
		}
	})
}

func (c *wsConn) write(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ws.WriteTyped(c.conn, v)
}

func (c *wsConn) writeError(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = ws.WriteError(c.conn, msg)
}

// SessionStream godoc
// WS /ws/v1/student/exams/:exam_id/session
// Upgrades to WebSocket and attaches to the student's live exam session.
func (h *WSHandler) SessionStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid exam ID"})
		return
	}

	raw, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer raw.Close()

	conn := &wsConn{conn: raw}
	studentID := claims.UserID

	wsLog := h.log.With().
		Str("student_id", studentID.String()).
		Str("exam_id", examID.String()).
		Logger()

	gate := newGradedGate()

	// The listener fires under the session mutex; it only writes to this
	// connection and never calls back into the service synchronously. Grading
	// needs that same mutex, so terminal delivery goes through a goroutine.
	onChange := func(snap exam.Snapshot) {
		_ = conn.write(ws.StateEvent{Event: ws.EventState, State: snap})
		if snap.State == exam.StateSubmitted {
			go gate.fire()
		}
	}

	handle, err := h.sessionService.Attach(c.Request.Context(), examID, studentID, onChange)
	if err != nil {
		gate.bind(nil)
		wsLog.Warn().Err(err).Msg("Attach rejected")
		conn.writeError(attachErrorMessage(err))
		return
	}
	gate.bind(func() {
		score, total := handle.Result()
		_, auto := handle.Submitted()
		_ = conn.write(ws.GradedEvent{
			Event:         ws.EventGraded,
			Score:         score,
			Total:         total,
			Percentage:    exam.Percentage(score, total),
			AutoSubmitted: auto,
		})
		_ = raw.Close()
	})
	defer handle.Detach()

	// Initial push: paper, restored answers, and the full snapshot.
	_ = conn.write(ws.StateEvent{
		Event:     ws.EventState,
		State:     handle.Snapshot(),
		Questions: handle.Questions(),
		Answers:   handle.Answers(),
	})

	// The clock may have run out during the attach itself.
	if submitted, _ := handle.Submitted(); submitted {
		gate.fire()
		return
	}

	wsLog.Info().Msg("Student attached")

	for {
		_, data, err := raw.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		var envelope ws.RequestEnvelope
		if err := json.Unmarshal(data, &envelope); err != nil {
			conn.writeError("malformed message")
			continue
		}

		h.dispatch(c, conn, wsLog, handle, envelope.Action, data)

		if submitted, _ := handle.Submitted(); submitted {
			gate.fire()
			return
		}
	}
}

// dispatch routes one client action to the session handle.
func (h *WSHandler) dispatch(c *gin.Context, conn *wsConn, wsLog zerolog.Logger, handle *service.SessionHandle, action ws.Action, data []byte) {
	ctx := c.Request.Context()

	switch action {
	case ws.ActionAnswer:
		var req ws.AnswerRequest
		if err := json.Unmarshal(data, &req); err != nil || req.QuestionID == "" || req.Answer == "" {
			conn.writeError("question_id and answer are required")
			return
		}
		if _, err := uuid.Parse(req.QuestionID); err != nil {
			conn.writeError("invalid question_id format")
			return
		}
		handle.Answer(ctx, req.QuestionID, req.Answer)
		_ = conn.write(ws.SavedEvent{Event: ws.EventSaved, QuestionID: req.QuestionID})

	case ws.ActionNavigate:
		var req ws.NavigateRequest
		if err := json.Unmarshal(data, &req); err != nil {
			conn.writeError("malformed navigate request")
			return
		}
		switch exam.Direction(req.Direction) {
		case exam.DirectionNext, exam.DirectionPrevious:
			handle.Navigate(exam.Direction(req.Direction))
		default:
			conn.writeError("direction must be next or previous")
		}

	case ws.ActionJump:
		var req ws.JumpRequest
		if err := json.Unmarshal(data, &req); err != nil {
			conn.writeError("malformed jump request")
			return
		}
		handle.Jump(req.Index)

	case ws.ActionKey:
		var req ws.KeyRequest
		if err := json.Unmarshal(data, &req); err != nil || req.Key == "" {
			conn.writeError("key is required")
			return
		}
		handle.Key(ctx, req.Key)

	case ws.ActionSubmitRequest:
		handle.RequestSubmit()

	case ws.ActionSubmitConfirm:
		handle.ConfirmSubmit()

	case ws.ActionSubmitCancel:
		handle.CancelSubmit()

	case ws.ActionHelp:
		handle.ToggleHelp()

	case ws.ActionPing:
		_ = conn.write(ws.PongEvent{Event: ws.EventPong})

	default:
		wsLog.Warn().Str("action", string(action)).Msg("Unknown action")
		conn.writeError("unknown action: " + string(action))
	}
}

// attachErrorMessage maps attach failures to client-facing strings.
func attachErrorMessage(err error) string {
	switch {
	case err == service.ErrExamNotActive:
		return "exam is not active"
	case err == service.ErrNotAssigned:
		return "you are not assigned to this exam"
	case err == service.ErrSessionCompleted:
		return "you have already submitted this exam"
	default:
		return "could not start exam session"
	}
}
