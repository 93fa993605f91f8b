package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"pdf-toolkit/internal/domain"
	"pdf-toolkit/internal/service"
	apperrors "pdf-toolkit/pkg/errors"
)

const (
	multipartMemory = 32 << 20
	formOverhead    = 1 << 20
	downloadPath    = "/api/v1/download"
)

// ConversionService is the conversion core as seen by HTTP.
type ConversionService interface {
	Run(ctx context.Context, tool domain.Tool, files []domain.FileHandle) domain.Outcome
	Cancel() error
	Reset()
	Current() domain.JobSnapshot
	Artifact() (*domain.Artifact, error)
}

// ConversionHandler handles HTTP requests for conversions
type ConversionHandler struct {
	service     ConversionService
	maxFiles    int
	maxFileSize int64
	logger      domain.Logger
}

// NewConversionHandler creates a new conversion handler instance
func NewConversionHandler(svc ConversionService, maxFiles int, maxFileSize int64, logger domain.Logger) *ConversionHandler {
	return &ConversionHandler{
		service:     svc,
		maxFiles:    maxFiles,
		maxFileSize: maxFileSize,
		logger:      logger,
	}
}

type conversionResponse struct {
	JobID         string           `json:"job_id,omitempty"`
	Tool          domain.Tool      `json:"tool"`
	Status        string           `json:"status"`
	Message       string           `json:"message,omitempty"`
	DownloadLabel string           `json:"download_label,omitempty"`
	DownloadURL   string           `json:"download_url,omitempty"`
	AutoSaved     bool             `json:"auto_saved,omitempty"`
	Artifact      *domain.Artifact `json:"artifact,omitempty"`
}

// ListTools returns the tool catalog.
func (h *ConversionHandler) ListTools(w http.ResponseWriter, r *http.Request) {
	tools := make([]domain.ToolInfo, 0, len(domain.AllTools()))
	for _, tool := range domain.AllTools() {
		tools = append(tools, tool.Info())
	}
	writeJSON(w, http.StatusOK, tools)
}

// Convert runs one conversion on the uploaded files and blocks until it ends.
// Split output is streamed back directly as the archive download.
func (h *ConversionHandler) Convert(w http.ResponseWriter, r *http.Request) {
	tool, err := domain.ParseTool(mux.Vars(r)["tool"])
	if err != nil {
		writeAppError(w, apperrors.FromDomain(err))
		return
	}

	if h.maxFileSize > 0 && h.maxFiles > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, int64(h.maxFiles)*h.maxFileSize+formOverhead)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeAppError(w, apperrors.NewValidationError("upload too large", fmt.Sprintf("limit %d bytes", tooLarge.Limit)))
			return
		}
		writeAppError(w, apperrors.NewValidationError("expected multipart form with files", err.Error()))
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		headers = r.MultipartForm.File["file"]
	}
	if h.maxFiles > 0 && len(headers) > h.maxFiles {
		writeAppError(w, apperrors.NewValidationError(fmt.Sprintf("at most %d files per conversion", h.maxFiles)))
		return
	}

	files := make([]domain.FileHandle, len(headers))
	for i, fh := range headers {
		files[i] = service.MultipartFile{Header: fh}
	}

	outcome := h.service.Run(r.Context(), tool, files)
	switch outcome.Status {
	case domain.OutcomeCompleted:
		if tool.Delivery() == domain.DeliverImmediate {
			w.Header().Set("X-Auto-Saved", strconv.FormatBool(outcome.AutoSaved))
			writeAttachment(w, outcome.Artifact)
			return
		}
		writeJSON(w, http.StatusOK, conversionResponse{
			JobID:         outcome.JobID,
			Tool:          tool,
			Status:        string(outcome.Status),
			Message:       outcome.Message,
			DownloadLabel: tool.Info().DownloadLabel,
			DownloadURL:   downloadPath,
			Artifact:      outcome.Artifact,
		})
	case domain.OutcomeCancelled:
		writeJSON(w, http.StatusAccepted, conversionResponse{
			JobID:  outcome.JobID,
			Tool:   tool,
			Status: string(outcome.Status),
		})
	default:
		err := outcome.Err
		if err == nil {
			err = errors.New(outcome.Message)
		}
		writeAppError(w, apperrors.FromDomain(err))
	}
}

// Cancel trips the running job.
func (h *ConversionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Cancel(); err != nil {
		writeAppError(w, apperrors.FromDomain(err))
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "cancelling"})
}

// Reset discards the retained artifact and job state.
func (h *ConversionHandler) Reset(w http.ResponseWriter, r *http.Request) {
	h.service.Reset()
	writeJSON(w, http.StatusOK, h.service.Current())
}

// Status returns the current job snapshot.
func (h *ConversionHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Current())
}

// Download serves the retained artifact.
func (h *ConversionHandler) Download(w http.ResponseWriter, r *http.Request) {
	artifact, err := h.service.Artifact()
	if err != nil {
		writeAppError(w, apperrors.FromDomain(err))
		return
	}
	writeAttachment(w, artifact)
}

func writeAttachment(w http.ResponseWriter, a *domain.Artifact) {
	w.Header().Set("Content-Type", a.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", a.Filename))
	w.Header().Set("Content-Length", strconv.FormatInt(a.Size(), 10))
	w.Header().Set("Last-Modified", a.CreatedAt.UTC().Format(time.RFC1123))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(a.Data)
}
