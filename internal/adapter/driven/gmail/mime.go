package gmail

import (
	"html"
	"mime"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	gmailapi "google.golang.org/api/gmail/v1"

	"github.com/ericfisherdev/mailbridge/internal/domain/model"
)

// htmlStripper reduces HTML-only messages to their text content. StrictPolicy
// drops every tag, leaving entity-encoded text we unescape afterwards.
var htmlStripper = bluemonday.StrictPolicy()

// webLinkBase is the Gmail web client URL prefix that opens a message by ID.
const webLinkBase = "https://mail.google.com/mail/u/0/#inbox/"

// emailFromMessage shapes a full-format Gmail message into the domain Email.
// Plain text parts are preferred for the body; an HTML-only message is
// stripped to text. Attachment metadata is collected without fetching data.
func emailFromMessage(msg *gmailapi.Message) *model.Email {
	email := &model.Email{ID: msg.Id, ThreadID: msg.ThreadId, WebLink: webLinkBase + msg.Id}
	if msg.Payload == nil {
		return email
	}

	for _, h := range msg.Payload.Headers {
		switch strings.ToLower(h.Name) {
		case "subject":
			email.Subject = decodeHeader(h.Value)
		case "from":
			email.From = decodeHeader(h.Value)
		case "to":
			email.To = decodeHeader(h.Value)
		case "date":
			email.Date = h.Value
		case "message-id":
			email.MessageID = h.Value
		}
	}

	plain, htmlPart := extractBodies(msg.Payload)
	switch {
	case plain != "":
		email.Body = plain
		email.ContentType = "text"
	case htmlPart != "":
		email.Body = strings.TrimSpace(html.UnescapeString(htmlStripper.Sanitize(htmlPart)))
		email.ContentType = "html"
	}

	email.Attachments = collectAttachments(msg.Payload, nil)
	return email
}

// extractBodies walks the part tree and returns the first text/plain and the
// first text/html bodies found. Parts that fail to decode are skipped.
func extractBodies(part *gmailapi.MessagePart) (plain, htmlBody string) {
	if part == nil {
		return "", ""
	}

	if part.Filename == "" && part.Body != nil && part.Body.Data != "" {
		if data, err := decodeBody(part.Body.Data); err == nil {
			switch {
			case strings.HasPrefix(part.MimeType, "text/plain") && plain == "":
				plain = string(data)
			case strings.HasPrefix(part.MimeType, "text/html") && htmlBody == "":
				htmlBody = string(data)
			}
		}
	}

	for _, child := range part.Parts {
		childPlain, childHTML := extractBodies(child)
		if plain == "" {
			plain = childPlain
		}
		if htmlBody == "" {
			htmlBody = childHTML
		}
		if plain != "" && htmlBody != "" {
			break
		}
	}
	return plain, htmlBody
}

// collectAttachments gathers metadata for every named part with an attachment
// ID, depth first across nested multiparts.
func collectAttachments(part *gmailapi.MessagePart, acc []model.Attachment) []model.Attachment {
	if part == nil {
		return acc
	}

	if part.Filename != "" && part.Body != nil && part.Body.AttachmentId != "" {
		acc = append(acc, model.Attachment{
			ID:       part.Body.AttachmentId,
			Filename: part.Filename,
			MIMEType: part.MimeType,
			Size:     part.Body.Size,
		})
	}
	for _, child := range part.Parts {
		acc = collectAttachments(child, acc)
	}
	return acc
}

// decodeHeader resolves RFC 2047 encoded words in address and subject
// headers. Undecodable input is returned as-is.
func decodeHeader(value string) string {
	dec := new(mime.WordDecoder)
	decoded, err := dec.DecodeHeader(value)
	if err != nil {
		return value
	}
	return decoded
}
