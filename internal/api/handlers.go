package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"verbitskysystems.com/website/internal/core"
	"verbitskysystems.com/website/internal/store"
)

type APIHandler struct {
	shell   *core.Shell
	library *store.SQLiteStore
	log     zerolog.Logger
}

func NewAPIHandler(shell *core.Shell, library *store.SQLiteStore, logger zerolog.Logger) *APIHandler {
	return &APIHandler{shell: shell, library: library, log: logger}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// --- Chat ---

type chatSessionResponse struct {
	ID           string         `json:"id"`
	State        core.ChatState `json:"state"`
	Messages     []core.Message `json:"messages"`
	MessageCount int            `json:"message_count"`
	Prompts      []string       `json:"prompts,omitempty"`
}

func (h *APIHandler) CreateChatSessionHandler(w http.ResponseWriter, r *http.Request) {
	sess := h.shell.Chat.CreateSession()
	writeJSON(w, http.StatusCreated, chatSessionResponse{
		ID:           sess.ID,
		State:        sess.State(),
		Messages:     sess.Messages(),
		MessageCount: sess.MessageCount(),
		Prompts:      h.shell.Chat.SuggestedPrompts(),
	})
}

func (h *APIHandler) GetChatSessionHandler(w http.ResponseWriter, r *http.Request) {
	sess, err := h.shell.Chat.Session(chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Chat session not found")
		return
	}
	writeJSON(w, http.StatusOK, chatSessionResponse{
		ID:           sess.ID,
		State:        sess.State(),
		Messages:     sess.Messages(),
		MessageCount: sess.MessageCount(),
	})
}

type postMessageRequest struct {
	Content string `json:"content"`
}

func (h *APIHandler) PostChatMessageHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var req postMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	msg, err := h.shell.Chat.Send(sessionID, req.Content)
	switch {
	case errors.Is(err, core.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "Chat session not found")
		return
	case errors.Is(err, core.ErrEmptyMessage):
		writeError(w, http.StatusBadRequest, "Message cannot be empty")
		return
	case errors.Is(err, core.ErrAwaitingResponse):
		writeError(w, http.StatusConflict, "A response is still pending")
		return
	case err != nil:
		h.log.Error().Err(err).Str("session", sessionID).Msg("failed to post chat message")
		writeError(w, http.StatusInternalServerError, "Failed to post message")
		return
	}
	// The assistant reply lands in the transcript after the typing delay.
	writeJSON(w, http.StatusAccepted, msg)
}

func (h *APIHandler) CloseChatSessionHandler(w http.ResponseWriter, r *http.Request) {
	h.shell.Chat.CloseSession(chi.URLParam(r, "sessionID"))
	w.WriteHeader(http.StatusNoContent)
}

// --- Upload queue ---

func (h *APIHandler) CreateUploadQueueHandler(w http.ResponseWriter, r *http.Request) {
	id := h.shell.Uploads.CreateQueue()
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

type addFilesRequest struct {
	Files []core.FileCandidate `json:"files"`
}

func (h *APIHandler) AddFilesHandler(w http.ResponseWriter, r *http.Request) {
	queueID := chi.URLParam(r, "queueID")

	var req addFilesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	report, err := h.shell.Uploads.AddFiles(queueID, req.Files)
	switch {
	case errors.Is(err, core.ErrQueueNotFound):
		writeError(w, http.StatusNotFound, "Upload queue not found")
		return
	case errors.Is(err, core.ErrUploadInProgress):
		writeError(w, http.StatusConflict, "Upload already in progress")
		return
	case err != nil:
		h.log.Error().Err(err).Str("queue", queueID).Msg("failed to stage files")
		writeError(w, http.StatusInternalServerError, "Failed to stage files")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *APIHandler) RemoveFileHandler(w http.ResponseWriter, r *http.Request) {
	queueID := chi.URLParam(r, "queueID")
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "File index must be a number")
		return
	}

	err = h.shell.Uploads.RemoveFile(queueID, index)
	switch {
	case errors.Is(err, core.ErrQueueNotFound):
		writeError(w, http.StatusNotFound, "Upload queue not found")
		return
	case errors.Is(err, core.ErrIndexOutOfRange):
		writeError(w, http.StatusBadRequest, "File index out of range")
		return
	case errors.Is(err, core.ErrUploadInProgress):
		writeError(w, http.StatusConflict, "Upload already in progress")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "Failed to remove file")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type startUploadRequest struct {
	Category string `json:"category"`
}

func (h *APIHandler) StartUploadHandler(w http.ResponseWriter, r *http.Request) {
	queueID := chi.URLParam(r, "queueID")

	var req startUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Category != "" {
		known, err := h.library.CategoryExists(req.Category)
		if err != nil {
			h.log.Error().Err(err).Msg("failed to check category")
			writeError(w, http.StatusInternalServerError, "Failed to check category")
			return
		}
		if !known {
			writeError(w, http.StatusBadRequest, "Unknown document category")
			return
		}
	}

	err := h.shell.Uploads.StartUpload(queueID, req.Category)
	switch {
	case errors.Is(err, core.ErrQueueNotFound):
		writeError(w, http.StatusNotFound, "Upload queue not found")
		return
	case errors.Is(err, core.ErrNoCategory):
		writeError(w, http.StatusBadRequest, "Please select a category for the documents")
		return
	case errors.Is(err, core.ErrQueueEmpty):
		writeError(w, http.StatusBadRequest, "No files staged for upload")
		return
	case errors.Is(err, core.ErrUploadInProgress):
		writeError(w, http.StatusConflict, "Upload already in progress")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "Failed to start upload")
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *APIHandler) GetUploadQueueHandler(w http.ResponseWriter, r *http.Request) {
	snap, err := h.shell.Uploads.Snapshot(chi.URLParam(r, "queueID"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Upload queue not found")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *APIHandler) CloseUploadQueueHandler(w http.ResponseWriter, r *http.Request) {
	h.shell.Uploads.CloseQueue(chi.URLParam(r, "queueID"))
	w.WriteHeader(http.StatusNoContent)
}

// --- Document library ---

func (h *APIHandler) ListDocumentsHandler(w http.ResponseWriter, r *http.Request) {
	docs, err := h.library.ListDocuments(r.URL.Query().Get("category"), r.URL.Query().Get("q"))
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list documents")
		writeError(w, http.StatusInternalServerError, "Failed to list documents")
		return
	}
	if docs == nil {
		docs = []store.Document{}
	}
	writeJSON(w, http.StatusOK, docs)
}

func (h *APIHandler) ListCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	cats, err := h.library.ListCategories()
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list categories")
		writeError(w, http.StatusInternalServerError, "Failed to list categories")
		return
	}
	writeJSON(w, http.StatusOK, cats)
}

type addCategoryRequest struct {
	Name string `json:"name"`
}

func (h *APIHandler) AddCategoryHandler(w http.ResponseWriter, r *http.Request) {
	var req addCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Category name is required")
		return
	}

	cat, err := h.library.AddCategory(req.Name)
	switch {
	case errors.Is(err, store.ErrDuplicateCategory):
		writeError(w, http.StatusConflict, "Category already exists")
		return
	case err != nil:
		h.log.Error().Err(err).Msg("failed to add category")
		writeError(w, http.StatusInternalServerError, "Failed to add category")
		return
	}
	writeJSON(w, http.StatusCreated, cat)
}

// --- Contact bridge ---

func (h *APIHandler) ContactSubmitHandler(w http.ResponseWriter, r *http.Request) {
	var sub core.ContactSubmission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.shell.Contact.Submit(r.Context(), sub)
	if err != nil {
		var fieldErrs core.FieldErrors
		if errors.As(err, &fieldErrs) {
			writeJSON(w, http.StatusBadRequest, map[string]any{"errors": fieldErrs})
			return
		}
		h.log.Error().Err(err).Msg("contact submission failed")
		writeError(w, http.StatusInternalServerError, "Failed to submit contact form")
		return
	}

	if !result.Sent {
		// Relay unreachable: hand the visitor the pre-filled mailto link.
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"success":  false,
			"fallback": result.Fallback,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": result.Message,
	})
}

func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
