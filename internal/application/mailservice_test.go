package application_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/mailbridge/internal/application"
	"github.com/ericfisherdev/mailbridge/internal/domain/model"
)

func newTestService(client *mockMailClient, audit *mockAuditStore) *application.MailService {
	provider := application.NewMailClientProvider(client)
	return application.NewMailService(provider, audit, 100, nil)
}

func TestMailService_SendMessageAudited(t *testing.T) {
	audit := &mockAuditStore{}
	client := &mockMailClient{
		sendFn: func(_ context.Context, msg model.OutgoingMessage) (*model.SentMessage, error) {
			return &model.SentMessage{ID: "m1", ThreadID: "t1"}, nil
		},
	}
	svc := newTestService(client, audit)

	sent, err := svc.SendMessage(context.Background(), model.OutgoingMessage{
		To:      []string{"alice@example.com"},
		Subject: "Hello",
		Body:    "the secret launch codes",
	})

	require.NoError(t, err)
	assert.Equal(t, "m1", sent.ID)

	require.Len(t, audit.entries, 1)
	assert.Equal(t, "send_message", audit.entries[0].Operation)
	assert.Equal(t, "m1", audit.entries[0].MessageID)
	assert.Contains(t, audit.entries[0].Detail, "alice@example.com")
	assert.NotContains(t, audit.entries[0].Detail, "launch codes", "audit detail must not carry bodies")
}

func TestMailService_SendMessageValidation(t *testing.T) {
	svc := newTestService(&mockMailClient{}, &mockAuditStore{})

	tests := []struct {
		name string
		msg  model.OutgoingMessage
	}{
		{name: "no recipients", msg: model.OutgoingMessage{Subject: "x", Body: "y"}},
		{name: "blank recipient", msg: model.OutgoingMessage{To: []string{" "}, Subject: "x", Body: "y"}},
		{name: "no content", msg: model.OutgoingMessage{To: []string{"a@example.com"}}},
		{name: "nameless attachment", msg: model.OutgoingMessage{
			To: []string{"a@example.com"}, Subject: "x",
			Attachments: []model.OutgoingAttachment{{Data: []byte("payload")}},
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.SendMessage(context.Background(), tc.msg)
			require.Error(t, err)
			assert.ErrorIs(t, err, application.ErrInvalidMessage)
		})
	}
}

func TestMailService_NoClientReturnsUnavailable(t *testing.T) {
	provider := application.NewMailClientProvider(nil)
	svc := application.NewMailService(provider, &mockAuditStore{}, 100, nil)

	_, err := svc.SendMessage(context.Background(), model.OutgoingMessage{
		To: []string{"a@example.com"}, Subject: "x",
	})
	assert.ErrorIs(t, err, application.ErrClientUnavailable)

	_, err = svc.ListUnread(context.Background(), "", 10)
	assert.ErrorIs(t, err, application.ErrClientUnavailable)

	err = svc.TrashMessage(context.Background(), "m1")
	assert.ErrorIs(t, err, application.ErrClientUnavailable)
}

func TestMailService_AuditFailureDoesNotFailOperation(t *testing.T) {
	audit := &mockAuditStore{recordErr: errors.New("disk full")}
	client := &mockMailClient{
		trashFn: func(_ context.Context, _ string) error { return nil },
	}
	svc := newTestService(client, audit)

	err := svc.TrashMessage(context.Background(), "m1")
	require.NoError(t, err, "audit failure must not surface")
}

func TestMailService_SendFailureNotAudited(t *testing.T) {
	audit := &mockAuditStore{}
	client := &mockMailClient{
		sendFn: func(_ context.Context, _ model.OutgoingMessage) (*model.SentMessage, error) {
			return nil, errors.New("quota exceeded")
		},
	}
	svc := newTestService(client, audit)

	_, err := svc.SendMessage(context.Background(), model.OutgoingMessage{
		To: []string{"a@example.com"}, Subject: "x",
	})
	require.Error(t, err)
	assert.Empty(t, audit.entries, "failed operations are not audited")
}

func TestMailService_SearchRequiresQuery(t *testing.T) {
	svc := newTestService(&mockMailClient{}, &mockAuditStore{})

	_, err := svc.SearchMessages(context.Background(), "   ", 10, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, application.ErrInvalidMessage)
}

func TestMailService_SearchClampsMaxResults(t *testing.T) {
	var gotMax int64
	client := &mockMailClient{
		searchFn: func(_ context.Context, _ string, maxResults int64, _ string) (*model.MessagePage, error) {
			gotMax = maxResults
			return &model.MessagePage{}, nil
		},
	}
	svc := newTestService(client, &mockAuditStore{})

	_, err := svc.SearchMessages(context.Background(), "from:alice", 5000, "")
	require.NoError(t, err)
	assert.Equal(t, int64(100), gotMax, "cap applies")

	_, err = svc.SearchMessages(context.Background(), "from:alice", 0, "")
	require.NoError(t, err)
	assert.Equal(t, int64(20), gotMax, "default applies")
}

func TestMailService_ModifyLabelsRequiresChange(t *testing.T) {
	svc := newTestService(&mockMailClient{}, &mockAuditStore{})

	err := svc.ModifyLabels(context.Background(), "m1", nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, application.ErrInvalidMessage)
}

func TestMailService_ModifyLabelsAuditDetail(t *testing.T) {
	audit := &mockAuditStore{}
	svc := newTestService(&mockMailClient{}, audit)

	err := svc.ModifyLabels(context.Background(), "m1", []string{"Label_7"}, []string{"INBOX"})
	require.NoError(t, err)

	require.Len(t, audit.entries, 1)
	assert.Equal(t, "modify_labels", audit.entries[0].Operation)
	assert.Equal(t, "+Label_7 -INBOX", audit.entries[0].Detail)
}

func TestMailService_MarkReadAudited(t *testing.T) {
	audit := &mockAuditStore{}
	svc := newTestService(&mockMailClient{}, audit)

	require.NoError(t, svc.MarkRead(context.Background(), "m1"))

	require.Len(t, audit.entries, 1)
	assert.Equal(t, "mark_read", audit.entries[0].Operation)
	assert.Equal(t, "m1", audit.entries[0].MessageID)
}

func TestMailService_CreateDraftAudited(t *testing.T) {
	audit := &mockAuditStore{}
	client := &mockMailClient{
		createDraftFn: func(_ context.Context, _ model.OutgoingMessage) (*model.Draft, error) {
			return &model.Draft{ID: "d1", Message: model.MessageRef{ID: "m1"}}, nil
		},
	}
	svc := newTestService(client, audit)

	draft, err := svc.CreateDraft(context.Background(), model.OutgoingMessage{
		To: []string{"bob@example.com"}, Subject: "draft",
	})
	require.NoError(t, err)
	assert.Equal(t, "d1", draft.ID)

	require.Len(t, audit.entries, 1)
	assert.Equal(t, "create_draft", audit.entries[0].Operation)
}

func TestMailService_ListingsNotAudited(t *testing.T) {
	audit := &mockAuditStore{}
	svc := newTestService(&mockMailClient{}, audit)
	ctx := context.Background()

	_, err := svc.ListUnread(ctx, "", 10)
	require.NoError(t, err)
	_, err = svc.ListLabels(ctx)
	require.NoError(t, err)
	_, err = svc.SearchMessages(ctx, "from:bob", 10, "")
	require.NoError(t, err)

	assert.Empty(t, audit.entries, "listing operations are not audited")
}

func TestMailService_GetMessageMarksRead(t *testing.T) {
	audit := &mockAuditStore{}
	var marked []string
	client := &mockMailClient{
		getMessageFn: func(_ context.Context, id string) (*model.Email, error) {
			return &model.Email{ID: id, Subject: "hello"}, nil
		},
		markReadFn: func(_ context.Context, id string) error {
			marked = append(marked, id)
			return nil
		},
	}
	svc := newTestService(client, audit)

	email, err := svc.GetMessage(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, "hello", email.Subject)

	assert.Equal(t, []string{"m1"}, marked, "opening a message clears its unread state")
	require.Len(t, audit.entries, 1)
	assert.Equal(t, "mark_read", audit.entries[0].Operation)
	assert.Equal(t, "m1", audit.entries[0].MessageID)
	assert.Equal(t, "on read", audit.entries[0].Detail)
}

func TestMailService_GetMessageMarkReadFailureStillReturnsContent(t *testing.T) {
	audit := &mockAuditStore{}
	client := &mockMailClient{
		getMessageFn: func(_ context.Context, id string) (*model.Email, error) {
			return &model.Email{ID: id, Body: "body"}, nil
		},
		markReadFn: func(_ context.Context, _ string) error {
			return errors.New("modify rejected")
		},
	}
	svc := newTestService(client, audit)

	email, err := svc.GetMessage(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, "body", email.Body)
	assert.Empty(t, audit.entries, "a failed mark-read is not audited")
}

func TestMailService_GetMessageFetchFailureSkipsMarkRead(t *testing.T) {
	client := &mockMailClient{
		getMessageFn: func(_ context.Context, _ string) (*model.Email, error) {
			return nil, errors.New("not found")
		},
		markReadFn: func(_ context.Context, _ string) error {
			t.Fatal("mark-read must not run when the fetch failed")
			return nil
		},
	}
	svc := newTestService(client, &mockAuditStore{})

	_, err := svc.GetMessage(context.Background(), "m1")
	require.Error(t, err)
}

func TestMailService_AuditLog(t *testing.T) {
	audit := &mockAuditStore{}
	svc := newTestService(&mockMailClient{}, audit)
	ctx := context.Background()

	require.NoError(t, svc.MarkRead(ctx, "m1"))
	require.NoError(t, svc.TrashMessage(ctx, "m2"))

	entries, err := svc.AuditLog(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "trash_message", entries[0].Operation, "newest first")
}
