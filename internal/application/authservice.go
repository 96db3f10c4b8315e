package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ericfisherdev/mailbridge/internal/domain/port/driven"
)

// AuthState names the authorization condition of the stored credential.
type AuthState string

const (
	// AuthStateAuthorized means a valid access token is available now.
	AuthStateAuthorized AuthState = "authorized"
	// AuthStateReauthRequired means the OAuth2 consent flow must be re-run.
	AuthStateReauthRequired AuthState = "reauth_required"
	// AuthStateCorrupt means the token file exists but cannot be read.
	AuthStateCorrupt AuthState = "corrupt"
	// AuthStateRefreshFailed means the provider rejected or did not complete
	// the refresh exchange; the stored credential is retained for retry.
	AuthStateRefreshFailed AuthState = "refresh_failed"
	// AuthStateError covers everything else (I/O failures, key derivation).
	AuthStateError AuthState = "error"
)

// AuthStatus is the externally visible authorization state. It never carries
// token material.
type AuthStatus struct {
	State      AuthState
	Authorized bool
	// Expiry is the RFC 3339 access token expiry when authorized, else empty.
	Expiry string
}

// AuthService reports the authorization state of the credential store.
type AuthService struct {
	tokens driven.TokenStore
	logger *slog.Logger
}

// NewAuthService creates an AuthService over the given token store.
func NewAuthService(tokens driven.TokenStore, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{tokens: tokens, logger: logger}
}

// Status probes the token store. The probe is effectful like any load: it may
// upgrade a legacy file or refresh an expired token as a side effect.
func (s *AuthService) Status(ctx context.Context) AuthStatus {
	cred, err := s.tokens.Load(ctx)
	switch {
	case err == nil:
		return AuthStatus{
			State:      AuthStateAuthorized,
			Authorized: true,
			Expiry:     cred.Expiry.UTC().Format("2006-01-02T15:04:05Z07:00"),
		}
	case errors.Is(err, driven.ErrReauthRequired):
		return AuthStatus{State: AuthStateReauthRequired}
	case errors.Is(err, driven.ErrCredentialCorrupt):
		return AuthStatus{State: AuthStateCorrupt}
	case errors.Is(err, driven.ErrRefreshFailed):
		s.logger.Warn("credential refresh failed during status probe", "error", err)
		return AuthStatus{State: AuthStateRefreshFailed}
	default:
		s.logger.Error("credential status probe failed", "error", err)
		return AuthStatus{State: AuthStateError}
	}
}
