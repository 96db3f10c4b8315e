package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ericfisherdev/mailbridge/internal/domain/model"
	"github.com/ericfisherdev/mailbridge/internal/domain/port/driven"
)

// ErrClientUnavailable is returned when no mail client has been configured
// yet, i.e. the application started without stored credentials.
var ErrClientUnavailable = errors.New("mail client unavailable")

// ErrInvalidMessage is returned when an outgoing message fails validation.
// Wrapped errors carry the specific reason.
var ErrInvalidMessage = errors.New("invalid message")

const (
	defaultMaxResults = 20

	opSendMessage  = "send_message"
	opTrashMessage = "trash_message"
	opMarkRead     = "mark_read"
	opModifyLabels = "modify_labels"
	opCreateDraft  = "create_draft"
)

// MailService is the application-layer facade over the mail client. It
// validates input, clamps page sizes, and records every mutating operation
// in the audit log. Audit failures are logged but never fail the operation.
type MailService struct {
	provider      *MailClientProvider
	audit         driven.AuditStore
	maxResultsCap int64
	logger        *slog.Logger
}

// NewMailService creates a MailService. maxResultsCap bounds every listing
// operation; values at or below zero disable the cap.
func NewMailService(provider *MailClientProvider, audit driven.AuditStore, maxResultsCap int64, logger *slog.Logger) *MailService {
	if logger == nil {
		logger = slog.Default()
	}
	return &MailService{
		provider:      provider,
		audit:         audit,
		maxResultsCap: maxResultsCap,
		logger:        logger,
	}
}

func (s *MailService) client() (driven.MailClient, error) {
	client := s.provider.Get()
	if client == nil {
		return nil, ErrClientUnavailable
	}
	return client, nil
}

// clampMaxResults applies the default page size and the configured cap.
func (s *MailService) clampMaxResults(n int64) int64 {
	if n <= 0 {
		n = defaultMaxResults
	}
	if s.maxResultsCap > 0 && n > s.maxResultsCap {
		n = s.maxResultsCap
	}
	return n
}

func validateOutgoing(msg model.OutgoingMessage) error {
	if len(msg.To) == 0 {
		return fmt.Errorf("%w: at least one recipient required", ErrInvalidMessage)
	}
	for _, addr := range append(append(append([]string{}, msg.To...), msg.Cc...), msg.Bcc...) {
		if strings.TrimSpace(addr) == "" {
			return fmt.Errorf("%w: empty recipient address", ErrInvalidMessage)
		}
	}
	if msg.Subject == "" && msg.Body == "" && msg.BodyMarkdown == "" {
		return fmt.Errorf("%w: subject or body required", ErrInvalidMessage)
	}
	for _, a := range msg.Attachments {
		if strings.TrimSpace(a.Filename) == "" {
			return fmt.Errorf("%w: attachment filename required", ErrInvalidMessage)
		}
	}
	return nil
}

// record appends an audit entry. The entry detail never includes message
// bodies or credential material.
func (s *MailService) record(ctx context.Context, operation, messageID, detail string) {
	err := s.audit.Record(ctx, model.AuditEntry{
		Operation: operation,
		MessageID: messageID,
		Detail:    detail,
	})
	if err != nil {
		s.logger.Warn("audit record failed", "operation", operation, "message_id", messageID, "error", err)
	}
}

// SendMessage validates and sends an outgoing message, auditing the send.
func (s *MailService) SendMessage(ctx context.Context, msg model.OutgoingMessage) (*model.SentMessage, error) {
	client, err := s.client()
	if err != nil {
		return nil, err
	}
	if err := validateOutgoing(msg); err != nil {
		return nil, err
	}

	sent, err := client.SendMessage(ctx, msg)
	if err != nil {
		return nil, err
	}

	s.record(ctx, opSendMessage, sent.ID, "to "+strings.Join(msg.To, ", "))
	return sent, nil
}

// SearchMessages runs a mailbox search. An empty query is rejected.
func (s *MailService) SearchMessages(ctx context.Context, query string, maxResults int64, pageToken string) (*model.MessagePage, error) {
	client, err := s.client()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: search query required", ErrInvalidMessage)
	}
	return client.SearchMessages(ctx, query, s.clampMaxResults(maxResults), pageToken)
}

// ListUnread lists unread inbox messages, optionally narrowed by query.
func (s *MailService) ListUnread(ctx context.Context, query string, maxResults int64) (*model.MessagePage, error) {
	client, err := s.client()
	if err != nil {
		return nil, err
	}
	return client.ListUnread(ctx, query, s.clampMaxResults(maxResults))
}

// GetMessage fetches one message in full and clears its unread state, the
// same way a mail client does when a message is opened. The mark-read is
// audited; its failure must not withhold the already-fetched content.
func (s *MailService) GetMessage(ctx context.Context, id string) (*model.Email, error) {
	client, err := s.client()
	if err != nil {
		return nil, err
	}

	email, err := client.GetMessage(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := client.MarkRead(ctx, id); err != nil {
		s.logger.Warn("mark read after fetch failed", "message_id", id, "error", err)
	} else {
		s.record(ctx, opMarkRead, id, "on read")
	}
	return email, nil
}

// TrashMessage moves a message to the trash and audits the action.
func (s *MailService) TrashMessage(ctx context.Context, id string) error {
	client, err := s.client()
	if err != nil {
		return err
	}
	if err := client.TrashMessage(ctx, id); err != nil {
		return err
	}
	s.record(ctx, opTrashMessage, id, "")
	return nil
}

// MarkRead clears the unread state of a message and audits the action.
func (s *MailService) MarkRead(ctx context.Context, id string) error {
	client, err := s.client()
	if err != nil {
		return err
	}
	if err := client.MarkRead(ctx, id); err != nil {
		return err
	}
	s.record(ctx, opMarkRead, id, "")
	return nil
}

// ModifyLabels adds and removes labels on a message and audits the action.
// At least one label change is required.
func (s *MailService) ModifyLabels(ctx context.Context, id string, add, remove []string) error {
	client, err := s.client()
	if err != nil {
		return err
	}
	if len(add) == 0 && len(remove) == 0 {
		return fmt.Errorf("%w: no label changes given", ErrInvalidMessage)
	}
	if err := client.ModifyLabels(ctx, id, add, remove); err != nil {
		return err
	}
	s.record(ctx, opModifyLabels, id, labelChangeDetail(add, remove))
	return nil
}

// ListLabels lists the mailbox labels.
func (s *MailService) ListLabels(ctx context.Context) ([]model.Label, error) {
	client, err := s.client()
	if err != nil {
		return nil, err
	}
	return client.ListLabels(ctx)
}

// CreateDraft validates and stores a draft, auditing the action.
func (s *MailService) CreateDraft(ctx context.Context, msg model.OutgoingMessage) (*model.Draft, error) {
	client, err := s.client()
	if err != nil {
		return nil, err
	}
	if err := validateOutgoing(msg); err != nil {
		return nil, err
	}

	draft, err := client.CreateDraft(ctx, msg)
	if err != nil {
		return nil, err
	}

	s.record(ctx, opCreateDraft, draft.Message.ID, "to "+strings.Join(msg.To, ", "))
	return draft, nil
}

// ListDrafts lists saved drafts.
func (s *MailService) ListDrafts(ctx context.Context, maxResults int64) ([]model.Draft, error) {
	client, err := s.client()
	if err != nil {
		return nil, err
	}
	return client.ListDrafts(ctx, s.clampMaxResults(maxResults))
}

// GetAttachment downloads one attachment of a message.
func (s *MailService) GetAttachment(ctx context.Context, messageID, attachmentID string) (*model.Attachment, error) {
	client, err := s.client()
	if err != nil {
		return nil, err
	}
	return client.GetAttachment(ctx, messageID, attachmentID)
}

// Profile returns the authenticated mailbox profile.
func (s *MailService) Profile(ctx context.Context) (*model.Profile, error) {
	client, err := s.client()
	if err != nil {
		return nil, err
	}
	return client.Profile(ctx)
}

// AuditLog returns the most recent audited operations.
func (s *MailService) AuditLog(ctx context.Context, limit int) ([]model.AuditEntry, error) {
	if limit <= 0 {
		limit = defaultMaxResults
	}
	return s.audit.List(ctx, limit)
}

func labelChangeDetail(add, remove []string) string {
	parts := make([]string, 0, len(add)+len(remove))
	for _, l := range add {
		parts = append(parts, "+"+l)
	}
	for _, l := range remove {
		parts = append(parts, "-"+l)
	}
	return strings.Join(parts, " ")
}
