package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/okian/enso/internal/domain/geometry"
	"github.com/okian/enso/internal/domain/types"
	"github.com/okian/enso/pkg/logger"
	"github.com/okian/enso/pkg/metrics"
)

const (
	gestureReadLimit    = 1 << 12
	gestureWriteTimeout = 5 * time.Second
)

// Gesture message types exchanged on the WebSocket.
const (
	MessageStart   = "start"
	MessageMove    = "move"
	MessageEnd     = "end"
	MessageReset   = "reset"
	MessageVerdict = "verdict"
	MessageError   = "error"
)

// GestureDependencies records a gesture point by point.
type GestureDependencies interface {
	Session(ctx context.Context, id string) (types.SessionView, error)
	BeginGesture(ctx context.Context, sessionID string, p geometry.Point) error
	ExtendGesture(ctx context.Context, sessionID string, p geometry.Point) (bool, error)
	FinishGesture(ctx context.Context, sessionID string) (types.AttemptResult, bool, error)
	ResetGesture(ctx context.Context, sessionID string) error
}

// GestureMessage is a client frame.
type GestureMessage struct {
	Type string  `json:"type"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// VerdictMessage is the server frame sent when a gesture ends.
type VerdictMessage struct {
	Type string `json:"type"`
	types.AttemptResult
}

type controlMessage struct {
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// GestureHandler upgrades GET /sessions/{id}/ws and drives the recorder.
type GestureHandler struct {
	deps     GestureDependencies
	upgrader websocket.Upgrader
	logger   logger.Logger
}

// NewGestureHandler creates a new gesture handler.
func NewGestureHandler(deps GestureDependencies) *GestureHandler {
	return &GestureHandler{
		deps: deps,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger: logger.Get().Named("gesture"),
	}
}

// HandleGesture handles GET /sessions/{id}/ws.
func (h *GestureHandler) HandleGesture(w http.ResponseWriter, r *http.Request) {
	const op = "api.gesture"
	id := r.PathValue("id")
	if _, err := h.deps.Session(r.Context(), id); err != nil {
		writeFailure(r.Context(), w, op, err)
		return
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied to the client.
		return
	}
	defer conn.Close()
	metrics.AddGestureConnections(1)
	defer metrics.AddGestureConnections(-1)

	conn.SetReadLimit(gestureReadLimit)
	ctx := r.Context()
	for {
		var msg GestureMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debug(ctx, "gesture connection closed", logger.String("session_id", id), logger.Error(err))
			}
			return
		}
		if err := h.handle(ctx, conn, id, msg); err != nil {
			status, code := classify(err)
			_ = writeFrame(conn, controlMessage{Type: MessageError, Code: code, Message: err.Error()})
			if status == http.StatusNotFound || status == http.StatusServiceUnavailable {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.ClosePolicyViolation, code),
					time.Now().Add(gestureWriteTimeout))
				return
			}
		}
	}
}

func (h *GestureHandler) handle(ctx context.Context, conn *websocket.Conn, id string, msg GestureMessage) error {
	switch msg.Type {
	case MessageStart:
		return h.deps.BeginGesture(ctx, id, geometry.Pt(msg.X, msg.Y))
	case MessageMove:
		_, err := h.deps.ExtendGesture(ctx, id, geometry.Pt(msg.X, msg.Y))
		return err
	case MessageEnd:
		res, ok, err := h.deps.FinishGesture(ctx, id)
		if err != nil || !ok {
			return err
		}
		return writeFrame(conn, VerdictMessage{Type: MessageVerdict, AttemptResult: res})
	case MessageReset:
		if err := h.deps.ResetGesture(ctx, id); err != nil {
			return err
		}
		return writeFrame(conn, controlMessage{Type: MessageReset})
	default:
		return WrapKind("api.gesture", ErrBadRequest, fmt.Errorf("unknown message type %q", msg.Type))
	}
}

func writeFrame(conn *websocket.Conn, v any) error {
	if err := conn.SetWriteDeadline(time.Now().Add(gestureWriteTimeout)); err != nil {
		return err
	}
	if err := conn.WriteJSON(v); err != nil {
		return errors.Join(ErrUnavailable, err)
	}
	return nil
}
