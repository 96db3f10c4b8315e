package application_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ericfisherdev/mailbridge/internal/application"
	"github.com/ericfisherdev/mailbridge/internal/domain/model"
	"github.com/ericfisherdev/mailbridge/internal/domain/port/driven"
)

func TestAuthService_Authorized(t *testing.T) {
	expiry := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	store := &mockTokenStore{cred: &model.Credential{AccessToken: "at", Expiry: expiry}}
	svc := application.NewAuthService(store, nil)

	status := svc.Status(context.Background())

	assert.True(t, status.Authorized)
	assert.Equal(t, application.AuthStateAuthorized, status.State)
	assert.Equal(t, "2026-08-26T12:00:00Z", status.Expiry)
}

func TestAuthService_ErrorStates(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want application.AuthState
	}{
		{name: "reauth", err: driven.ErrReauthRequired, want: application.AuthStateReauthRequired},
		{name: "corrupt", err: driven.ErrCredentialCorrupt, want: application.AuthStateCorrupt},
		{name: "refresh failed", err: fmt.Errorf("load: %w", driven.ErrRefreshFailed), want: application.AuthStateRefreshFailed},
		{name: "other", err: errors.New("permission denied"), want: application.AuthStateError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := application.NewAuthService(&mockTokenStore{loadErr: tc.err}, nil)
			status := svc.Status(context.Background())

			assert.False(t, status.Authorized)
			assert.Equal(t, tc.want, status.State)
			assert.Empty(t, status.Expiry)
		})
	}
}
