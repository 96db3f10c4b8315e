// Package gmail implements the MailClient port using the Gmail REST API.
package gmail

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gregjones/httpcache"
	"golang.org/x/oauth2"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/ericfisherdev/mailbridge/internal/domain/model"
	"github.com/ericfisherdev/mailbridge/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.MailClient = (*Client)(nil)

// userID addresses the authenticated mailbox in every Gmail API call.
const userID = "me"

// defaultUnreadQuery matches what the unread listing returns when the caller
// supplies no extra query fragment.
const defaultUnreadQuery = "in:inbox is:unread category:primary"

// Client implements the driven.MailClient port with the following transport stack:
//  1. httpcache (ETag-based conditional request caching)
//  2. oauth2.Transport fed by the token store (refresh handled by the store,
//     not by the transport)
//  3. generated Gmail API client
type Client struct {
	svc *gmailapi.Service
}

// NewClient creates a Gmail client whose requests are authenticated with
// credentials loaded from tokens. ctx carries the application lifetime; token
// loads triggered by the transport inherit it.
func NewClient(ctx context.Context, tokens driven.TokenStore) (*Client, error) {
	httpClient := &http.Client{
		Transport: &oauth2.Transport{
			Source: oauth2.ReuseTokenSource(nil, newStoreTokenSource(ctx, tokens)),
			Base:   httpcache.NewMemoryCacheTransport(),
		},
	}

	svc, err := gmailapi.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}
	return &Client{svc: svc}, nil
}

// NewClientWithHTTPClient creates a Client against a custom base URL with a
// plain http.Client. This constructor is intended for testing, allowing
// injection of an httptest server.
func NewClientWithHTTPClient(ctx context.Context, httpClient *http.Client, baseURL string) (*Client, error) {
	svc, err := gmailapi.NewService(ctx,
		option.WithHTTPClient(httpClient),
		option.WithEndpoint(baseURL),
	)
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}
	return &Client{svc: svc}, nil
}

// SendMessage builds the RFC 2822 message and sends it, optionally into an
// existing thread.
func (c *Client) SendMessage(ctx context.Context, msg model.OutgoingMessage) (*model.SentMessage, error) {
	raw, err := buildRaw(msg)
	if err != nil {
		return nil, err
	}

	sent, err := c.svc.Users.Messages.Send(userID, &gmailapi.Message{
		Raw:      raw,
		ThreadId: msg.ThreadID,
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("send message: %w", err)
	}
	return &model.SentMessage{ID: sent.Id, ThreadID: sent.ThreadId}, nil
}

// SearchMessages runs a Gmail search query and returns one page of matches.
func (c *Client) SearchMessages(ctx context.Context, query string, maxResults int64, pageToken string) (*model.MessagePage, error) {
	call := c.svc.Users.Messages.List(userID).Q(query).MaxResults(maxResults)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}

	resp, err := call.Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("search messages: %w", err)
	}
	return messagePage(resp), nil
}

// ListUnread returns unread inbox messages. An empty query narrows to the
// primary category; a non-empty one is appended to the unread filter.
func (c *Client) ListUnread(ctx context.Context, query string, maxResults int64) (*model.MessagePage, error) {
	search := defaultUnreadQuery
	if query != "" {
		search = "in:inbox is:unread " + query
	}

	resp, err := c.svc.Users.Messages.List(userID).Q(search).MaxResults(maxResults).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("list unread messages: %w", err)
	}
	return messagePage(resp), nil
}

// GetMessage fetches the full message and shapes it into the domain Email:
// decoded headers, extracted body (plain text preferred, sanitized HTML as
// fallback), and attachment metadata.
func (c *Client) GetMessage(ctx context.Context, id string) (*model.Email, error) {
	msg, err := c.svc.Users.Messages.Get(userID, id).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get message %s: %w", id, err)
	}
	return emailFromMessage(msg), nil
}

// TrashMessage moves the message to the trash. It is never deleted outright.
func (c *Client) TrashMessage(ctx context.Context, id string) error {
	if _, err := c.svc.Users.Messages.Trash(userID, id).Context(ctx).Do(); err != nil {
		return fmt.Errorf("trash message %s: %w", id, err)
	}
	return nil
}

// MarkRead removes the UNREAD label from the message.
func (c *Client) MarkRead(ctx context.Context, id string) error {
	req := &gmailapi.ModifyMessageRequest{RemoveLabelIds: []string{"UNREAD"}}
	if _, err := c.svc.Users.Messages.Modify(userID, id, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("mark message %s read: %w", id, err)
	}
	return nil
}

// ModifyLabels adds and removes label IDs on the message in a single call.
func (c *Client) ModifyLabels(ctx context.Context, id string, add, remove []string) error {
	req := &gmailapi.ModifyMessageRequest{AddLabelIds: add, RemoveLabelIds: remove}
	if _, err := c.svc.Users.Messages.Modify(userID, id, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("modify labels on message %s: %w", id, err)
	}
	return nil
}

// ListLabels returns all labels defined on the mailbox.
func (c *Client) ListLabels(ctx context.Context) ([]model.Label, error) {
	resp, err := c.svc.Users.Labels.List(userID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("list labels: %w", err)
	}

	labels := make([]model.Label, 0, len(resp.Labels))
	for _, l := range resp.Labels {
		labels = append(labels, model.Label{ID: l.Id, Name: l.Name, Type: l.Type})
	}
	return labels, nil
}

// CreateDraft saves the message as a draft without sending it.
func (c *Client) CreateDraft(ctx context.Context, msg model.OutgoingMessage) (*model.Draft, error) {
	raw, err := buildRaw(msg)
	if err != nil {
		return nil, err
	}

	draft, err := c.svc.Users.Drafts.Create(userID, &gmailapi.Draft{
		Message: &gmailapi.Message{Raw: raw, ThreadId: msg.ThreadID},
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("create draft: %w", err)
	}

	out := &model.Draft{ID: draft.Id}
	if draft.Message != nil {
		out.Message = model.MessageRef{ID: draft.Message.Id, ThreadID: draft.Message.ThreadId}
	}
	return out, nil
}

// ListDrafts returns up to maxResults drafts.
func (c *Client) ListDrafts(ctx context.Context, maxResults int64) ([]model.Draft, error) {
	resp, err := c.svc.Users.Drafts.List(userID).MaxResults(maxResults).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("list drafts: %w", err)
	}

	drafts := make([]model.Draft, 0, len(resp.Drafts))
	for _, d := range resp.Drafts {
		draft := model.Draft{ID: d.Id}
		if d.Message != nil {
			draft.Message = model.MessageRef{ID: d.Message.Id, ThreadID: d.Message.ThreadId}
		}
		drafts = append(drafts, draft)
	}
	return drafts, nil
}

// GetAttachment downloads one attachment body. Filename and MIME type are not
// part of the attachment resource; callers take them from the Email metadata.
func (c *Client) GetAttachment(ctx context.Context, messageID, attachmentID string) (*model.Attachment, error) {
	body, err := c.svc.Users.Messages.Attachments.Get(userID, messageID, attachmentID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get attachment %s of message %s: %w", attachmentID, messageID, err)
	}

	data, err := decodeBody(body.Data)
	if err != nil {
		return nil, fmt.Errorf("decode attachment %s: %w", attachmentID, err)
	}
	return &model.Attachment{ID: attachmentID, Size: body.Size, Data: data}, nil
}

// Profile returns the authenticated mailbox profile.
func (c *Client) Profile(ctx context.Context) (*model.Profile, error) {
	p, err := c.svc.Users.GetProfile(userID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &model.Profile{
		EmailAddress:  p.EmailAddress,
		MessagesTotal: p.MessagesTotal,
		ThreadsTotal:  p.ThreadsTotal,
	}, nil
}

func messagePage(resp *gmailapi.ListMessagesResponse) *model.MessagePage {
	page := &model.MessagePage{NextPageToken: resp.NextPageToken}
	page.Messages = make([]model.MessageRef, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		page.Messages = append(page.Messages, model.MessageRef{ID: m.Id, ThreadID: m.ThreadId})
	}
	return page
}
