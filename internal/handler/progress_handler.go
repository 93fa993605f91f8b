package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"pdf-toolkit/internal/domain"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	subscribeQueue = 64
)

// ProgressSource is the event feed pushed over the socket.
type ProgressSource interface {
	Since(seq int64) []domain.ProgressEvent
	Subscribe(buffer int) (<-chan domain.ProgressEvent, func())
}

// ProgressHandler streams progress events over a WebSocket.
type ProgressHandler struct {
	source   ProgressSource
	current  func() domain.JobSnapshot
	upgrader websocket.Upgrader
	logger   domain.Logger
}

// NewProgressHandler creates a progress handler. Origins are checked against
// allowedOrigins; an empty list accepts any origin.
func NewProgressHandler(source ProgressSource, current func() domain.JobSnapshot, allowedOrigins []string, logger domain.Logger) *ProgressHandler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = struct{}{}
	}
	return &ProgressHandler{
		source:  source,
		current: current,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" || len(allowed) == 0 {
					return true
				}
				_, ok := allowed[origin]
				return ok
			},
		},
	}
}

type progressMessage struct {
	Type   string                 `json:"type"`
	Job    *domain.JobSnapshot    `json:"job,omitempty"`
	Events []domain.ProgressEvent `json:"events,omitempty"`
	Event  *domain.ProgressEvent  `json:"event,omitempty"`
}

// Stream upgrades the connection, sends the current job and any events after
// ?since=<seq>, then pushes new events until the client goes away.
func (h *ProgressHandler) Stream(w http.ResponseWriter, r *http.Request) {
	var since int64 = -1
	if raw := r.URL.Query().Get("since"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v < 0 {
			writeError(w, http.StatusBadRequest, "since must be a non-negative integer")
			return
		}
		since = v
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("Failed to upgrade to WebSocket", "error", err.Error())
		return
	}
	defer conn.Close()

	events, unsubscribe := h.source.Subscribe(subscribeQueue)
	defer unsubscribe()

	initial := progressMessage{Type: "initial"}
	if h.current != nil {
		snap := h.current()
		initial.Job = &snap
	}
	if since >= 0 {
		initial.Events = h.source.Since(since)
	}
	if err := h.write(conn, initial); err != nil {
		return
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case evt, ok := <-events:
			if !ok {
				return
			}
			if err := h.write(conn, progressMessage{Type: "progress", Event: &evt}); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *ProgressHandler) write(conn *websocket.Conn, msg progressMessage) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(msg); err != nil {
		h.logger.Debug("WebSocket write failed", "error", err.Error())
		return err
	}
	return nil
}
