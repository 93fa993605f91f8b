package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pdf-toolkit/internal/domain"
)

type mockConversionService struct {
	outcome   domain.Outcome
	cancelErr error
	artifact  *domain.Artifact
	snapshot  domain.JobSnapshot
	resets    int
	lastTool  domain.Tool
	lastFiles []string
}

func (m *mockConversionService) Run(ctx context.Context, tool domain.Tool, files []domain.FileHandle) domain.Outcome {
	m.lastTool = tool
	for _, f := range files {
		m.lastFiles = append(m.lastFiles, f.Name())
	}
	return m.outcome
}

func (m *mockConversionService) Cancel() error { return m.cancelErr }

func (m *mockConversionService) Reset() {
	m.resets++
	m.snapshot = domain.JobSnapshot{Status: domain.JobStatusIdle}
}

func (m *mockConversionService) Current() domain.JobSnapshot { return m.snapshot }

func (m *mockConversionService) Artifact() (*domain.Artifact, error) {
	if m.artifact == nil {
		return nil, domain.ErrNoArtifact
	}
	return m.artifact, nil
}

func newTestRouter(svc ConversionService) http.Handler {
	logger := NewMockHandlerLogger()
	return NewRouter(
		NewConversionHandler(svc, 5, 1<<20, logger),
		NewProgressHandler(&stubSource{}, svc.Current, nil, logger),
		[]string{"http://localhost:3000"},
		logger,
	)
}

func uploadRequest(t *testing.T, tool string, names ...string) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for _, name := range names {
		part, err := mw.CreateFormFile("files", name)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		_, _ = part.Write([]byte("%PDF-1.7 " + name))
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/convert/"+tool, body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestHealth(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestRouter(&mockConversionService{}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"service":"pdf-toolkit"`) {
		t.Fatalf("unexpected response body: %s", rr.Body.String())
	}
}

func TestListTools(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestRouter(&mockConversionService{}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/tools", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	var tools []domain.ToolInfo
	if err := json.Unmarshal(rr.Body.Bytes(), &tools); err != nil {
		t.Fatalf("decode tools: %v", err)
	}
	if len(tools) != len(domain.AllTools()) {
		t.Fatalf("expected %d tools, got %d", len(domain.AllTools()), len(tools))
	}
	if tools[0].ID != domain.ToolPDFToWord || tools[0].OutputName != "converted-file.docx" {
		t.Fatalf("unexpected first tool: %+v", tools[0])
	}
}

func TestConvert_Retained(t *testing.T) {
	svc := &mockConversionService{outcome: domain.Outcome{
		JobID:   "job-1",
		Tool:    domain.ToolPDFToText,
		Status:  domain.OutcomeCompleted,
		Message: domain.ToolPDFToText.CompletionMessage(),
		Artifact: &domain.Artifact{
			Tool:        domain.ToolPDFToText,
			Filename:    "converted-file.txt",
			ContentType: domain.ContentTypeText,
			Kind:        domain.ArtifactSingle,
			Data:        []byte("hello"),
		},
	}}

	rr := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(rr, uploadRequest(t, "pdf-to-text", "report.pdf"))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rr.Code, rr.Body.String())
	}
	if svc.lastTool != domain.ToolPDFToText {
		t.Fatalf("expected tool pdf-to-text, got %s", svc.lastTool)
	}
	if len(svc.lastFiles) != 1 || svc.lastFiles[0] != "report.pdf" {
		t.Fatalf("unexpected files: %v", svc.lastFiles)
	}

	var resp conversionResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.JobID != "job-1" || resp.Status != "completed" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.DownloadLabel != "TXT" || resp.DownloadURL != "/api/v1/download" {
		t.Fatalf("unexpected download fields: %+v", resp)
	}
	if resp.Artifact == nil || resp.Artifact.Filename != "converted-file.txt" {
		t.Fatalf("expected artifact metadata, got %+v", resp.Artifact)
	}
}

func TestConvert_SplitStreamsArchive(t *testing.T) {
	svc := &mockConversionService{outcome: domain.Outcome{
		Tool:      domain.ToolSplitPDF,
		Status:    domain.OutcomeCompleted,
		AutoSaved: true,
		Artifact: &domain.Artifact{
			Filename:    "split-pages.zip",
			ContentType: domain.ContentTypeZip,
			Kind:        domain.ArtifactArchive,
			Data:        []byte("PK-zip"),
		},
	}}

	rr := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(rr, uploadRequest(t, "split-pdf", "a.pdf"))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if got := rr.Header().Get("Content-Type"); got != domain.ContentTypeZip {
		t.Fatalf("expected zip content type, got %s", got)
	}
	if got := rr.Header().Get("Content-Disposition"); got != `attachment; filename="split-pages.zip"` {
		t.Fatalf("unexpected content disposition: %s", got)
	}
	if got := rr.Header().Get("X-Auto-Saved"); got != "true" {
		t.Fatalf("expected X-Auto-Saved true, got %s", got)
	}
	if rr.Body.String() != "PK-zip" {
		t.Fatalf("unexpected body: %s", rr.Body.String())
	}
}

func TestConvert_UnknownTool(t *testing.T) {
	svc := &mockConversionService{}
	rr := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(rr, uploadRequest(t, "pdf-to-pptx", "a.pdf"))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, rr.Code)
	}
	if svc.lastTool != "" {
		t.Fatalf("expected service not to run")
	}
}

func TestConvert_TooManyFiles(t *testing.T) {
	svc := &mockConversionService{}
	rr := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(rr, uploadRequest(t, "merge-pdf", "1.pdf", "2.pdf", "3.pdf", "4.pdf", "5.pdf", "6.pdf"))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}
	if svc.lastTool != "" {
		t.Fatalf("expected service not to run")
	}
}

func TestConvert_NotMultipart(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/convert/pdf-to-text", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	newTestRouter(&mockConversionService{}).ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}
}

func TestConvert_Failures(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{"validation", &domain.ValidationError{Field: "files", Message: "merge-pdf requires at least 2 files"}, http.StatusBadRequest, "validation"},
		{"parse", &domain.ParseError{File: "a.pdf", Err: io.ErrUnexpectedEOF}, http.StatusUnprocessableEntity, "parse"},
		{"encoding", &domain.EncodingError{Stage: "encode docx", Err: io.ErrClosedPipe}, http.StatusInternalServerError, "encoding"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockConversionService{outcome: domain.Outcome{Status: domain.OutcomeFailed, Err: tt.err, Message: tt.err.Error()}}
			rr := httptest.NewRecorder()
			newTestRouter(svc).ServeHTTP(rr, uploadRequest(t, "pdf-to-word", "a.pdf"))

			if rr.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rr.Code)
			}
			var resp errorResponse
			if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if resp.Type != tt.wantType {
				t.Fatalf("expected type %s, got %s", tt.wantType, resp.Type)
			}
		})
	}
}

func TestConvert_Cancelled(t *testing.T) {
	svc := &mockConversionService{outcome: domain.Outcome{JobID: "job-2", Status: domain.OutcomeCancelled, Err: domain.ErrCancelled}}
	rr := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(rr, uploadRequest(t, "pdf-to-jpg", "a.pdf"))

	if rr.Code != http.StatusAccepted {
		t.Fatalf("expected status %d, got %d", http.StatusAccepted, rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"status":"cancelled"`) {
		t.Fatalf("unexpected response body: %s", rr.Body.String())
	}
}

func TestCancel(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestRouter(&mockConversionService{}).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/cancel", nil))
	if rr.Code != http.StatusAccepted {
		t.Fatalf("expected status %d, got %d", http.StatusAccepted, rr.Code)
	}

	rr = httptest.NewRecorder()
	newTestRouter(&mockConversionService{cancelErr: domain.ErrNoRunningJob}).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/cancel", nil))
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected status %d, got %d", http.StatusConflict, rr.Code)
	}
}

func TestResetAndStatus(t *testing.T) {
	svc := &mockConversionService{snapshot: domain.JobSnapshot{ID: "job-3", Status: domain.JobStatusCompleted, Percent: 100}}
	router := newTestRouter(svc)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))
	if !strings.Contains(rr.Body.String(), `"status":"completed"`) {
		t.Fatalf("unexpected status body: %s", rr.Body.String())
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/reset", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if svc.resets != 1 {
		t.Fatalf("expected one reset, got %d", svc.resets)
	}
	if !strings.Contains(rr.Body.String(), `"status":"idle"`) {
		t.Fatalf("unexpected reset body: %s", rr.Body.String())
	}
}

func TestDownload(t *testing.T) {
	router := newTestRouter(&mockConversionService{})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/download", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, rr.Code)
	}

	svc := &mockConversionService{artifact: &domain.Artifact{
		Filename:    "merged-document.pdf",
		ContentType: domain.ContentTypePDF,
		Data:        []byte("%PDF-merged"),
		CreatedAt:   time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}}
	rr = httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/download", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if got := rr.Header().Get("Content-Length"); got != "11" {
		t.Fatalf("expected content length 11, got %s", got)
	}
	if got := rr.Header().Get("Content-Disposition"); got != `attachment; filename="merged-document.pdf"` {
		t.Fatalf("unexpected content disposition: %s", got)
	}
	if rr.Body.String() != "%PDF-merged" {
		t.Fatalf("unexpected body: %s", rr.Body.String())
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/convert/pdf-to-text", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()

	newTestRouter(&mockConversionService{}).ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Fatalf("expected allowed origin header, got %q", got)
	}
}
