package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"voice_motto/internal/api/middleware"
	"voice_motto/internal/app/service"
	"voice_motto/internal/common"

	"github.com/go-chi/chi/v5"
)

const uploadFormField = "file"

type UploadResponse struct {
	Message string `json:"message"`
	TaskID  string `json:"task_id"`
}

type TranscriptionHandler struct {
	submissionService *service.SubmissionService
	statusService     *service.StatusService
	maxUploadBytes    int64
	logger            *slog.Logger
}

func NewTranscriptionHandler(ss *service.SubmissionService, st *service.StatusService, maxUploadBytes int64, logger *slog.Logger) *TranscriptionHandler {
	return &TranscriptionHandler{
		submissionService: ss,
		statusService:     st,
		maxUploadBytes:    maxUploadBytes,
		logger:            logger,
	}
}

func (h *TranscriptionHandler) RegisterRoutes(r chi.Router) {
	r.With(middleware.Authenticator).Post("/upload", h.upload)
	r.Get("/task_status/{taskID}", h.taskStatus)
}

func (h *TranscriptionHandler) upload(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Authorization token required")
		return
	}

	if h.maxUploadBytes > 0 {
		if r.ContentLength > h.maxUploadBytes {
			common.RespondWithError(w, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	}
	file, header, err := r.FormFile(uploadFormField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			common.RespondWithError(w, http.StatusRequestEntityTooLarge, "File too large")
		case errors.Is(err, http.ErrMissingFile):
			common.RespondWithError(w, http.StatusBadRequest, common.ErrMissingFile.Error())
		default:
			common.RespondWithError(w, http.StatusBadRequest, "Invalid multipart form: "+err.Error())
		}
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Failed to read upload: "+err.Error())
		return
	}

	taskID, err := h.submissionService.Submit(r.Context(), userID, header.Filename, data)
	if err != nil {
		status := common.HTTPStatusFromError(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("upload failed", "user_id", userID, "error", err)
		}
		common.RespondWithError(w, status, err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, UploadResponse{
		Message: "File uploaded and transcription started",
		TaskID:  taskID,
	})
}

func (h *TranscriptionHandler) taskStatus(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")

	status, err := h.statusService.Status(r.Context(), taskID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			common.RespondWithJSON(w, http.StatusNotFound, map[string]string{
				"state":  "UNKNOWN",
				"status": "Unknown job",
			})
			return
		}
		h.logger.Error("task status lookup failed", "task_id", taskID, "error", err)
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, status)
}
