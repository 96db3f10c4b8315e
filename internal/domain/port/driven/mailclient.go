package driven

import (
	"context"

	"github.com/ericfisherdev/mailbridge/internal/domain/model"
)

// MailClient defines the driven port for the mail provider API. Each method
// maps onto a single provider call; parameter validation and response shaping
// live in the application layer above.
type MailClient interface {
	// SendMessage sends msg and returns the provider's message ID.
	SendMessage(ctx context.Context, msg model.OutgoingMessage) (*model.SentMessage, error)

	// SearchMessages runs a provider search query. maxResults caps the page
	// size; pageToken continues a previous page ("" for the first).
	SearchMessages(ctx context.Context, query string, maxResults int64, pageToken string) (*model.MessagePage, error)

	// ListUnread returns unread inbox messages, optionally narrowed by an
	// additional query fragment.
	ListUnread(ctx context.Context, query string, maxResults int64) (*model.MessagePage, error)

	// GetMessage fetches the full content of one message, including
	// attachment metadata (without attachment data).
	GetMessage(ctx context.Context, id string) (*model.Email, error)

	// TrashMessage moves a message to the trash.
	TrashMessage(ctx context.Context, id string) error

	// MarkRead removes the unread marker from a message.
	MarkRead(ctx context.Context, id string) error

	// ModifyLabels adds and removes label IDs on a message.
	ModifyLabels(ctx context.Context, id string, add, remove []string) error

	// ListLabels returns all labels defined on the mailbox.
	ListLabels(ctx context.Context) ([]model.Label, error)

	// CreateDraft saves msg as a draft and returns its draft ID.
	CreateDraft(ctx context.Context, msg model.OutgoingMessage) (*model.Draft, error)

	// ListDrafts returns up to maxResults drafts.
	ListDrafts(ctx context.Context, maxResults int64) ([]model.Draft, error)

	// GetAttachment downloads one attachment of a message.
	GetAttachment(ctx context.Context, messageID, attachmentID string) (*model.Attachment, error)

	// Profile returns the authenticated mailbox profile.
	Profile(ctx context.Context) (*model.Profile, error)
}
