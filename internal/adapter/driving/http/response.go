package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ericfisherdev/mailbridge/internal/application"
	"github.com/ericfisherdev/mailbridge/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body. ReauthRequired is set
// only on 401 responses caused by a missing or unusable stored credential.
type errorResponse struct {
	Error          string `json:"error"`
	ReauthRequired bool   `json:"reauth_required,omitempty"`
}

// SendMessageRequest is the JSON body for the send and draft endpoints.
type SendMessageRequest struct {
	To           []string                  `json:"to"`
	Cc           []string                  `json:"cc,omitempty"`
	Bcc          []string                  `json:"bcc,omitempty"`
	Subject      string                    `json:"subject"`
	Body         string                    `json:"body,omitempty"`
	BodyMarkdown string                    `json:"body_markdown,omitempty"`
	ThreadID     string                    `json:"thread_id,omitempty"`
	Attachments  []AttachmentUploadRequest `json:"attachments,omitempty"`
}

// AttachmentUploadRequest is one outgoing attachment. Data is standard base64
// in JSON.
type AttachmentUploadRequest struct {
	Filename string `json:"filename"`
	MIMEType string `json:"mime_type,omitempty"`
	Data     []byte `json:"data"`
}

func (r SendMessageRequest) toModel() model.OutgoingMessage {
	attachments := make([]model.OutgoingAttachment, 0, len(r.Attachments))
	for _, a := range r.Attachments {
		attachments = append(attachments, model.OutgoingAttachment{
			Filename: a.Filename,
			MIMEType: a.MIMEType,
			Data:     a.Data,
		})
	}

	return model.OutgoingMessage{
		To:           r.To,
		Cc:           r.Cc,
		Bcc:          r.Bcc,
		Subject:      r.Subject,
		Body:         r.Body,
		BodyMarkdown: r.BodyMarkdown,
		ThreadID:     r.ThreadID,
		Attachments:  attachments,
	}
}

// ModifyLabelsRequest is the JSON body for the label modification endpoint.
type ModifyLabelsRequest struct {
	Add    []string `json:"add,omitempty"`
	Remove []string `json:"remove,omitempty"`
}

// SentMessageResponse is the JSON representation of a send acknowledgement.
type SentMessageResponse struct {
	ID       string `json:"id"`
	ThreadID string `json:"thread_id"`
}

// MessageRefResponse is the JSON representation of a message reference.
type MessageRefResponse struct {
	ID       string `json:"id"`
	ThreadID string `json:"thread_id"`
}

// MessagePageResponse is one page of message references.
type MessagePageResponse struct {
	Messages      []MessageRefResponse `json:"messages"`
	NextPageToken string               `json:"next_page_token,omitempty"`
}

// AttachmentResponse is the JSON representation of an attachment. Data is
// present only on the dedicated attachment endpoint.
type AttachmentResponse struct {
	ID       string `json:"id"`
	Filename string `json:"filename,omitempty"`
	MIMEType string `json:"mime_type,omitempty"`
	Size     int64  `json:"size"`
	Data     []byte `json:"data,omitempty"`
}

// EmailResponse is the JSON representation of a full message.
type EmailResponse struct {
	ID          string               `json:"id"`
	ThreadID    string               `json:"thread_id"`
	Subject     string               `json:"subject"`
	From        string               `json:"from"`
	To          string               `json:"to"`
	Date        string               `json:"date"`
	MessageID   string               `json:"message_id"`
	Body        string               `json:"body"`
	ContentType string               `json:"content_type"`
	Attachments []AttachmentResponse `json:"attachments"`
	WebLink     string               `json:"web_link"`
}

// LabelResponse is the JSON representation of a mailbox label.
type LabelResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// DraftResponse is the JSON representation of a draft.
type DraftResponse struct {
	ID      string             `json:"id"`
	Message MessageRefResponse `json:"message"`
}

// ProfileResponse is the JSON representation of the mailbox profile.
type ProfileResponse struct {
	EmailAddress  string `json:"email_address"`
	MessagesTotal int64  `json:"messages_total"`
	ThreadsTotal  int64  `json:"threads_total"`
}

// AuthStatusResponse is the JSON representation of the authorization state.
type AuthStatusResponse struct {
	State      string `json:"state"`
	Authorized bool   `json:"authorized"`
	Expiry     string `json:"expiry,omitempty"`
}

// AuditEntryResponse is the JSON representation of one audited operation.
type AuditEntryResponse struct {
	ID         int64  `json:"id"`
	Operation  string `json:"operation"`
	MessageID  string `json:"message_id,omitempty"`
	Detail     string `json:"detail,omitempty"`
	OccurredAt string `json:"occurred_at"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

func toMessagePageResponse(page *model.MessagePage) MessagePageResponse {
	refs := make([]MessageRefResponse, 0, len(page.Messages))
	for _, m := range page.Messages {
		refs = append(refs, MessageRefResponse{ID: m.ID, ThreadID: m.ThreadID})
	}
	return MessagePageResponse{Messages: refs, NextPageToken: page.NextPageToken}
}

func toEmailResponse(email *model.Email) EmailResponse {
	attachments := make([]AttachmentResponse, 0, len(email.Attachments))
	for _, a := range email.Attachments {
		attachments = append(attachments, AttachmentResponse{
			ID:       a.ID,
			Filename: a.Filename,
			MIMEType: a.MIMEType,
			Size:     a.Size,
		})
	}

	return EmailResponse{
		ID:          email.ID,
		ThreadID:    email.ThreadID,
		Subject:     email.Subject,
		From:        email.From,
		To:          email.To,
		Date:        email.Date,
		MessageID:   email.MessageID,
		Body:        email.Body,
		ContentType: email.ContentType,
		Attachments: attachments,
		WebLink:     email.WebLink,
	}
}

func toDraftResponse(draft *model.Draft) DraftResponse {
	return DraftResponse{
		ID:      draft.ID,
		Message: MessageRefResponse{ID: draft.Message.ID, ThreadID: draft.Message.ThreadID},
	}
}

func toAuthStatusResponse(status application.AuthStatus) AuthStatusResponse {
	return AuthStatusResponse{
		State:      string(status.State),
		Authorized: status.Authorized,
		Expiry:     status.Expiry,
	}
}

func toAuditEntryResponse(entry model.AuditEntry) AuditEntryResponse {
	return AuditEntryResponse{
		ID:         entry.ID,
		Operation:  entry.Operation,
		MessageID:  entry.MessageID,
		Detail:     entry.Detail,
		OccurredAt: entry.OccurredAt.UTC().Format(time.RFC3339),
	}
}
