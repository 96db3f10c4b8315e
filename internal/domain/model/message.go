package model

import "time"

// OutgoingMessage is a message the agent asked us to send or draft.
// Body is plain text. When BodyMarkdown is set the adapter renders it to an
// HTML alternative part alongside the plain-text body.
type OutgoingMessage struct {
	To           []string
	Cc           []string
	Bcc          []string
	Subject      string
	Body         string
	BodyMarkdown string
	// ThreadID places the message in an existing conversation (replies).
	ThreadID string
	// Attachments are included as multipart/mixed parts.
	Attachments []OutgoingAttachment
}

// OutgoingAttachment is one file to attach to an outgoing message. An empty
// MIMEType is sent as application/octet-stream.
type OutgoingAttachment struct {
	Filename string
	MIMEType string
	Data     []byte
}

// MessageRef identifies a message in a search or unread listing. The provider
// returns only IDs at this level; content requires a follow-up GetMessage.
type MessageRef struct {
	ID       string
	ThreadID string
}

// MessagePage is one page of message references plus the token for the next page.
// NextPageToken is empty on the last page.
type MessagePage struct {
	Messages      []MessageRef
	NextPageToken string
}

// Email is the full content of a single message.
type Email struct {
	ID        string
	ThreadID  string
	Subject   string
	From      string
	To        string
	Date      string
	MessageID string
	// Body is the extracted text content. ContentType is "text" when it came
	// from a text/plain part and "html" when it was sanitized from HTML.
	Body        string
	ContentType string
	Attachments []Attachment
	// WebLink opens the message in the provider's web client.
	WebLink string
}

// Attachment describes one attachment of an Email. Data is populated only by
// a dedicated attachment fetch, never on the initial read.
type Attachment struct {
	ID       string
	Filename string
	MIMEType string
	Size     int64
	Data     []byte
}

// Draft is a saved-but-unsent message.
type Draft struct {
	ID      string
	Message MessageRef
}

// Label is a mailbox label (system or user-defined).
type Label struct {
	ID   string
	Name string
	Type string
}

// Profile describes the authenticated mailbox.
type Profile struct {
	EmailAddress  string
	MessagesTotal int64
	ThreadsTotal  int64
}

// SentMessage is the provider's acknowledgement of a send or draft create.
type SentMessage struct {
	ID       string
	ThreadID string
}

// AuditEntry records one mutating mailbox operation performed on behalf of
// the agent. Detail is operation-specific (recipient, label names, ...) and
// never contains message bodies or credentials.
type AuditEntry struct {
	ID         int64
	Operation  string
	MessageID  string
	Detail     string
	OccurredAt time.Time
}
