package gmail

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"mime"
	"mime/multipart"
	"net/textproto"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/ericfisherdev/mailbridge/internal/domain/model"
)

// markdown renders outgoing markdown bodies to HTML. GFM covers the tables
// and task lists agents tend to produce.
var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// buildRaw assembles the RFC 2822 message and encodes it the way the Gmail
// API expects raw payloads (URL-safe base64). Plain-text-only messages stay
// single part; a markdown body produces a multipart/alternative with the
// plain text first and rendered HTML second; attachments wrap everything in
// a multipart/mixed envelope.
func buildRaw(msg model.OutgoingMessage) (string, error) {
	var b strings.Builder
	header := func(name, value string) {
		b.WriteString(name)
		b.WriteString(": ")
		b.WriteString(value)
		b.WriteString("\r\n")
	}

	header("To", strings.Join(msg.To, ", "))
	if len(msg.Cc) > 0 {
		header("Cc", strings.Join(msg.Cc, ", "))
	}
	if len(msg.Bcc) > 0 {
		header("Bcc", strings.Join(msg.Bcc, ", "))
	}
	header("Subject", mime.QEncoding.Encode("utf-8", msg.Subject))
	header("MIME-Version", "1.0")

	switch {
	case len(msg.Attachments) > 0:
		var parts bytes.Buffer
		w := multipart.NewWriter(&parts)
		header("Content-Type", fmt.Sprintf("multipart/mixed; boundary=%q", w.Boundary()))
		b.WriteString("\r\n")

		if err := writeBodyPart(w, msg); err != nil {
			return "", err
		}
		for _, a := range msg.Attachments {
			if err := writeAttachmentPart(w, a); err != nil {
				return "", err
			}
		}
		if err := w.Close(); err != nil {
			return "", fmt.Errorf("build message: %w", err)
		}
		b.Write(parts.Bytes())

	case msg.BodyMarkdown != "":
		var parts bytes.Buffer
		w := multipart.NewWriter(&parts)
		header("Content-Type", fmt.Sprintf("multipart/alternative; boundary=%q", w.Boundary()))
		b.WriteString("\r\n")

		if err := writeAlternativeParts(w, msg); err != nil {
			return "", err
		}
		if err := w.Close(); err != nil {
			return "", fmt.Errorf("build message: %w", err)
		}
		b.Write(parts.Bytes())

	default:
		header("Content-Type", `text/plain; charset="UTF-8"`)
		b.WriteString("\r\n")
		b.WriteString(msg.Body)
	}

	return base64.URLEncoding.EncodeToString([]byte(b.String())), nil
}

// writeBodyPart emits the message body into a multipart/mixed envelope: a
// single text/plain part, or a nested multipart/alternative when a markdown
// body is present.
func writeBodyPart(w *multipart.Writer, msg model.OutgoingMessage) error {
	if msg.BodyMarkdown == "" {
		return writePart(w, textproto.MIMEHeader{"Content-Type": {`text/plain; charset="UTF-8"`}}, []byte(msg.Body))
	}

	var inner bytes.Buffer
	iw := multipart.NewWriter(&inner)
	if err := writeAlternativeParts(iw, msg); err != nil {
		return err
	}
	if err := iw.Close(); err != nil {
		return fmt.Errorf("build message: %w", err)
	}

	hdr := textproto.MIMEHeader{
		"Content-Type": {fmt.Sprintf("multipart/alternative; boundary=%q", iw.Boundary())},
	}
	return writePart(w, hdr, inner.Bytes())
}

// writeAlternativeParts renders the markdown body and emits the plain-text
// part followed by the HTML part. A missing plain-text body falls back to the
// markdown source.
func writeAlternativeParts(w *multipart.Writer, msg model.OutgoingMessage) error {
	htmlBody, err := renderMarkdown(msg.BodyMarkdown)
	if err != nil {
		return err
	}
	plain := msg.Body
	if plain == "" {
		plain = msg.BodyMarkdown
	}

	if err := writePart(w, textproto.MIMEHeader{"Content-Type": {`text/plain; charset="UTF-8"`}}, []byte(plain)); err != nil {
		return err
	}
	return writePart(w, textproto.MIMEHeader{"Content-Type": {`text/html; charset="UTF-8"`}}, []byte(htmlBody))
}

// writeAttachmentPart emits one base64-encoded attachment part.
func writeAttachmentPart(w *multipart.Writer, a model.OutgoingAttachment) error {
	mimeType := a.MIMEType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	hdr := textproto.MIMEHeader{
		"Content-Type":              {fmt.Sprintf("%s; name=%q", mimeType, a.Filename)},
		"Content-Transfer-Encoding": {"base64"},
		"Content-Disposition":       {fmt.Sprintf("attachment; filename=%q", a.Filename)},
	}
	return writePart(w, hdr, wrapBase64(a.Data))
}

func writePart(w *multipart.Writer, hdr textproto.MIMEHeader, body []byte) error {
	pw, err := w.CreatePart(hdr)
	if err != nil {
		return fmt.Errorf("build message: %w", err)
	}
	if _, err := pw.Write(body); err != nil {
		return fmt.Errorf("build message: %w", err)
	}
	return nil
}

// wrapBase64 encodes data and folds it into 76-column lines per RFC 2045.
func wrapBase64(data []byte) []byte {
	enc := base64.StdEncoding.EncodeToString(data)
	var out bytes.Buffer
	for len(enc) > 76 {
		out.WriteString(enc[:76])
		out.WriteString("\r\n")
		enc = enc[76:]
	}
	out.WriteString(enc)
	return out.Bytes()
}

func renderMarkdown(src string) (string, error) {
	var out bytes.Buffer
	if err := markdown.Convert([]byte(src), &out); err != nil {
		return "", fmt.Errorf("render markdown body: %w", err)
	}
	return out.String(), nil
}

// decodeBody decodes a Gmail part body. The API emits URL-safe base64 and is
// inconsistent about padding, so decode unpadded after stripping.
func decodeBody(data string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(data, "="))
}
