// Package httphandler is the HTTP driving adapter serving the REST API
// consumed by agents and operator tooling.
package httphandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"google.golang.org/api/googleapi"

	"github.com/ericfisherdev/mailbridge/internal/application"
	"github.com/ericfisherdev/mailbridge/internal/domain/port/driven"
)

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	mailSvc *application.MailService
	authSvc *application.AuthService
	logger  *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(mailSvc *application.MailService, authSvc *application.AuthService, logger *slog.Logger) *Handler {
	return &Handler{
		mailSvc: mailSvc,
		authSvc: authSvc,
		logger:  logger,
	}
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with logging and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/messages", h.SendMessage)
	mux.HandleFunc("GET /api/v1/messages", h.SearchMessages)
	mux.HandleFunc("GET /api/v1/messages/unread", h.ListUnread)
	mux.HandleFunc("GET /api/v1/messages/{id}", h.GetMessage)
	mux.HandleFunc("POST /api/v1/messages/{id}/trash", h.TrashMessage)
	mux.HandleFunc("POST /api/v1/messages/{id}/read", h.MarkRead)
	mux.HandleFunc("POST /api/v1/messages/{id}/labels", h.ModifyLabels)
	mux.HandleFunc("GET /api/v1/messages/{id}/attachments/{attachmentID}", h.GetAttachment)
	mux.HandleFunc("GET /api/v1/labels", h.ListLabels)
	mux.HandleFunc("POST /api/v1/drafts", h.CreateDraft)
	mux.HandleFunc("GET /api/v1/drafts", h.ListDrafts)
	mux.HandleFunc("GET /api/v1/profile", h.Profile)
	mux.HandleFunc("GET /api/v1/audit", h.AuditLog)
	mux.HandleFunc("GET /api/v1/auth/status", h.AuthStatus)
	mux.HandleFunc("GET /api/v1/health", h.Health)

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = loggingMiddleware(logger, wrapped)

	return wrapped
}

// writeServiceError maps application and credential errors onto HTTP status
// codes. Error bodies never contain token material; credential errors are
// reported by kind only.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, application.ErrInvalidMessage):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, application.ErrClientUnavailable):
		writeError(w, http.StatusServiceUnavailable, "mailbox not configured: authorize first")
	case errors.Is(err, driven.ErrReauthRequired):
		writeJSON(w, http.StatusUnauthorized, errorResponse{
			Error:          "authorization required",
			ReauthRequired: true,
		})
	case errors.Is(err, driven.ErrCredentialCorrupt):
		writeError(w, http.StatusConflict, "stored credential is corrupt; delete the token file and re-authorize")
	case errors.Is(err, driven.ErrRefreshFailed):
		writeError(w, http.StatusBadGateway, "credential refresh failed")
	default:
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code >= 400 && apiErr.Code < 500 {
			// Provider-side client errors (unknown message ID, bad query)
			// pass through with their original status.
			writeError(w, apiErr.Code, apiErr.Message)
			return
		}
		h.logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// parseMaxResults reads the max_results query parameter. Zero means "use the
// service default". The second return is false when the value is malformed.
func parseMaxResults(r *http.Request) (int64, bool) {
	raw := r.URL.Query().Get("max_results")
	if raw == "" {
		return 0, true
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// SendMessage sends an email on behalf of the agent.
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sent, err := h.mailSvc.SendMessage(r.Context(), req.toModel())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, SentMessageResponse{ID: sent.ID, ThreadID: sent.ThreadID})
}

// SearchMessages runs a mailbox query and returns one page of references.
func (h *Handler) SearchMessages(w http.ResponseWriter, r *http.Request) {
	maxResults, ok := parseMaxResults(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid max_results")
		return
	}

	page, err := h.mailSvc.SearchMessages(r.Context(),
		r.URL.Query().Get("q"), maxResults, r.URL.Query().Get("page_token"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toMessagePageResponse(page))
}

// ListUnread returns unread inbox messages.
func (h *Handler) ListUnread(w http.ResponseWriter, r *http.Request) {
	maxResults, ok := parseMaxResults(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid max_results")
		return
	}

	page, err := h.mailSvc.ListUnread(r.Context(), r.URL.Query().Get("q"), maxResults)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toMessagePageResponse(page))
}

// GetMessage returns one message in full.
func (h *Handler) GetMessage(w http.ResponseWriter, r *http.Request) {
	email, err := h.mailSvc.GetMessage(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toEmailResponse(email))
}

// TrashMessage moves a message to the trash.
func (h *Handler) TrashMessage(w http.ResponseWriter, r *http.Request) {
	if err := h.mailSvc.TrashMessage(r.Context(), r.PathValue("id")); err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// MarkRead clears the unread state of a message.
func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	if err := h.mailSvc.MarkRead(r.Context(), r.PathValue("id")); err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ModifyLabels adds and removes labels on a message.
func (h *Handler) ModifyLabels(w http.ResponseWriter, r *http.Request) {
	var req ModifyLabelsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.mailSvc.ModifyLabels(r.Context(), r.PathValue("id"), req.Add, req.Remove); err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetAttachment downloads one attachment of a message.
func (h *Handler) GetAttachment(w http.ResponseWriter, r *http.Request) {
	att, err := h.mailSvc.GetAttachment(r.Context(), r.PathValue("id"), r.PathValue("attachmentID"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, AttachmentResponse{ID: att.ID, Size: att.Size, Data: att.Data})
}

// ListLabels returns all mailbox labels.
func (h *Handler) ListLabels(w http.ResponseWriter, r *http.Request) {
	labels, err := h.mailSvc.ListLabels(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	resp := make([]LabelResponse, 0, len(labels))
	for _, l := range labels {
		resp = append(resp, LabelResponse{ID: l.ID, Name: l.Name, Type: l.Type})
	}

	writeJSON(w, http.StatusOK, resp)
}

// CreateDraft stores a draft without sending it.
func (h *Handler) CreateDraft(w http.ResponseWriter, r *http.Request) {
	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	draft, err := h.mailSvc.CreateDraft(r.Context(), req.toModel())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toDraftResponse(draft))
}

// ListDrafts returns saved drafts.
func (h *Handler) ListDrafts(w http.ResponseWriter, r *http.Request) {
	maxResults, ok := parseMaxResults(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid max_results")
		return
	}

	drafts, err := h.mailSvc.ListDrafts(r.Context(), maxResults)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	resp := make([]DraftResponse, 0, len(drafts))
	for _, d := range drafts {
		resp = append(resp, toDraftResponse(&d))
	}

	writeJSON(w, http.StatusOK, resp)
}

// Profile returns the authenticated mailbox profile.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.mailSvc.Profile(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ProfileResponse{
		EmailAddress:  profile.EmailAddress,
		MessagesTotal: profile.MessagesTotal,
		ThreadsTotal:  profile.ThreadsTotal,
	})
}

// AuditLog returns the most recent audited operations.
func (h *Handler) AuditLog(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	entries, err := h.mailSvc.AuditLog(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list audit log", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]AuditEntryResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, toAuditEntryResponse(e))
	}

	writeJSON(w, http.StatusOK, resp)
}

// AuthStatus reports the authorization state of the stored credential.
func (h *Handler) AuthStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toAuthStatusResponse(h.authSvc.Status(r.Context())))
}

// Health returns a simple health check response.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}
