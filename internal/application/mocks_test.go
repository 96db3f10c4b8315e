package application_test

import (
	"context"

	"github.com/ericfisherdev/mailbridge/internal/domain/model"
)

// mockMailClient implements driven.MailClient with overridable function
// fields. Unset operations return zero values.
type mockMailClient struct {
	sendFn        func(ctx context.Context, msg model.OutgoingMessage) (*model.SentMessage, error)
	searchFn      func(ctx context.Context, query string, maxResults int64, pageToken string) (*model.MessagePage, error)
	listUnreadFn  func(ctx context.Context, query string, maxResults int64) (*model.MessagePage, error)
	getMessageFn  func(ctx context.Context, id string) (*model.Email, error)
	trashFn       func(ctx context.Context, id string) error
	markReadFn    func(ctx context.Context, id string) error
	modifyFn      func(ctx context.Context, id string, add, remove []string) error
	listLabelsFn  func(ctx context.Context) ([]model.Label, error)
	createDraftFn func(ctx context.Context, msg model.OutgoingMessage) (*model.Draft, error)
	listDraftsFn  func(ctx context.Context, maxResults int64) ([]model.Draft, error)
	attachmentFn  func(ctx context.Context, messageID, attachmentID string) (*model.Attachment, error)
	profileFn     func(ctx context.Context) (*model.Profile, error)
}

func (m *mockMailClient) SendMessage(ctx context.Context, msg model.OutgoingMessage) (*model.SentMessage, error) {
	if m.sendFn == nil {
		return &model.SentMessage{}, nil
	}
	return m.sendFn(ctx, msg)
}

func (m *mockMailClient) SearchMessages(ctx context.Context, query string, maxResults int64, pageToken string) (*model.MessagePage, error) {
	if m.searchFn == nil {
		return &model.MessagePage{}, nil
	}
	return m.searchFn(ctx, query, maxResults, pageToken)
}

func (m *mockMailClient) ListUnread(ctx context.Context, query string, maxResults int64) (*model.MessagePage, error) {
	if m.listUnreadFn == nil {
		return &model.MessagePage{}, nil
	}
	return m.listUnreadFn(ctx, query, maxResults)
}

func (m *mockMailClient) GetMessage(ctx context.Context, id string) (*model.Email, error) {
	if m.getMessageFn == nil {
		return &model.Email{ID: id}, nil
	}
	return m.getMessageFn(ctx, id)
}

func (m *mockMailClient) TrashMessage(ctx context.Context, id string) error {
	if m.trashFn == nil {
		return nil
	}
	return m.trashFn(ctx, id)
}

func (m *mockMailClient) MarkRead(ctx context.Context, id string) error {
	if m.markReadFn == nil {
		return nil
	}
	return m.markReadFn(ctx, id)
}

func (m *mockMailClient) ModifyLabels(ctx context.Context, id string, add, remove []string) error {
	if m.modifyFn == nil {
		return nil
	}
	return m.modifyFn(ctx, id, add, remove)
}

func (m *mockMailClient) ListLabels(ctx context.Context) ([]model.Label, error) {
	if m.listLabelsFn == nil {
		return nil, nil
	}
	return m.listLabelsFn(ctx)
}

func (m *mockMailClient) CreateDraft(ctx context.Context, msg model.OutgoingMessage) (*model.Draft, error) {
	if m.createDraftFn == nil {
		return &model.Draft{}, nil
	}
	return m.createDraftFn(ctx, msg)
}

func (m *mockMailClient) ListDrafts(ctx context.Context, maxResults int64) ([]model.Draft, error) {
	if m.listDraftsFn == nil {
		return nil, nil
	}
	return m.listDraftsFn(ctx, maxResults)
}

func (m *mockMailClient) GetAttachment(ctx context.Context, messageID, attachmentID string) (*model.Attachment, error) {
	if m.attachmentFn == nil {
		return &model.Attachment{ID: attachmentID}, nil
	}
	return m.attachmentFn(ctx, messageID, attachmentID)
}

func (m *mockMailClient) Profile(ctx context.Context) (*model.Profile, error) {
	if m.profileFn == nil {
		return &model.Profile{}, nil
	}
	return m.profileFn(ctx)
}

// mockAuditStore records entries in memory.
type mockAuditStore struct {
	entries   []model.AuditEntry
	recordErr error
	listErr   error
}

func (m *mockAuditStore) Record(_ context.Context, entry model.AuditEntry) error {
	if m.recordErr != nil {
		return m.recordErr
	}
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockAuditStore) List(_ context.Context, limit int) ([]model.AuditEntry, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	if limit > len(m.entries) {
		limit = len(m.entries)
	}
	out := make([]model.AuditEntry, 0, limit)
	for i := len(m.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.entries[i])
	}
	return out, nil
}

// mockTokenStore returns a fixed credential or error.
type mockTokenStore struct {
	cred    *model.Credential
	loadErr error
	saveErr error
}

func (m *mockTokenStore) Load(_ context.Context) (*model.Credential, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.cred, nil
}

func (m *mockTokenStore) Save(_ context.Context, _ *model.Credential) error {
	return m.saveErr
}
