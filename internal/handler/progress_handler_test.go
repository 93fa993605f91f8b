package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"pdf-toolkit/internal/domain"
	"pdf-toolkit/internal/service"
)

// stubSource never emits anything.
type stubSource struct {
	mu    sync.Mutex
	since []int64
}

func (s *stubSource) Since(seq int64) []domain.ProgressEvent {
	s.mu.Lock()
	s.since = append(s.since, seq)
	s.mu.Unlock()
	return nil
}

func (s *stubSource) Subscribe(int) (<-chan domain.ProgressEvent, func()) {
	ch := make(chan domain.ProgressEvent)
	var once sync.Once
	return ch, func() { once.Do(func() { close(ch) }) }
}

func dialProgress(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/progress" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func TestProgressStream(t *testing.T) {
	hub := service.NewProgressHub(10)
	hub.Publish(domain.ProgressEvent{JobID: "old", Status: domain.JobStatusRunning, Percent: 10})
	hub.Publish(domain.ProgressEvent{JobID: "old", Status: domain.JobStatusRunning, Percent: 40})

	current := func() domain.JobSnapshot {
		return domain.JobSnapshot{ID: "old", Status: domain.JobStatusRunning, Percent: 40}
	}
	logger := NewMockHandlerLogger()
	router := NewRouter(
		NewConversionHandler(&mockConversionService{}, 5, 1<<20, logger),
		NewProgressHandler(hub, current, nil, logger),
		nil,
		logger,
	)
	srv := httptest.NewServer(router)
	defer srv.Close()

	conn := dialProgress(t, srv, "?since=1")

	var initial progressMessage
	if err := conn.ReadJSON(&initial); err != nil {
		t.Fatalf("read initial: %v", err)
	}
	if initial.Type != "initial" || initial.Job == nil || initial.Job.Percent != 40 {
		t.Fatalf("unexpected initial message: %+v", initial)
	}
	if len(initial.Events) != 1 || initial.Events[0].Seq != 2 {
		t.Fatalf("expected backlog after seq 1, got %+v", initial.Events)
	}

	hub.Publish(domain.ProgressEvent{JobID: "old", Status: domain.JobStatusCompleted, Percent: 100})

	var next progressMessage
	if err := conn.ReadJSON(&next); err != nil {
		t.Fatalf("read progress: %v", err)
	}
	if next.Type != "progress" || next.Event == nil || next.Event.Seq != 3 || next.Event.Percent != 100 {
		t.Fatalf("unexpected progress message: %+v", next)
	}
}

func TestProgressStream_NoBacklogWithoutSince(t *testing.T) {
	source := &stubSource{}
	logger := NewMockHandlerLogger()
	srv := httptest.NewServer(NewRouter(
		NewConversionHandler(&mockConversionService{}, 5, 1<<20, logger),
		NewProgressHandler(source, nil, nil, logger),
		nil,
		logger,
	))
	defer srv.Close()

	conn := dialProgress(t, srv, "")

	var initial progressMessage
	if err := conn.ReadJSON(&initial); err != nil {
		t.Fatalf("read initial: %v", err)
	}
	if initial.Job != nil || len(initial.Events) != 0 {
		t.Fatalf("unexpected initial message: %+v", initial)
	}
	source.mu.Lock()
	defer source.mu.Unlock()
	if len(source.since) != 0 {
		t.Fatalf("expected no backlog lookup, got %v", source.since)
	}
}

func TestProgressStream_BadSince(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/progress?since=abc", nil)
	newTestRouter(&mockConversionService{}).ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}
}

func TestProgressStream_RejectsOrigin(t *testing.T) {
	logger := NewMockHandlerLogger()
	h := NewProgressHandler(&stubSource{}, nil, []string{"http://localhost:3000"}, logger)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/progress", nil)
	req.Header.Set("Origin", "http://evil.example")
	if h.upgrader.CheckOrigin(req) {
		t.Fatalf("expected origin to be rejected")
	}
	req.Header.Set("Origin", "http://localhost:3000")
	if !h.upgrader.CheckOrigin(req) {
		t.Fatalf("expected origin to be accepted")
	}
}
