package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/mailbridge/internal/domain/model"
)

// ErrReauthRequired signals that no usable credential exists and the OAuth2
// authorization flow must be run again. It is a normal control-flow signal,
// not a storage failure: callers surface it to the operator instead of
// retrying.
var ErrReauthRequired = errors.New("authorization required: no usable stored credential")

// ErrCredentialCorrupt is returned when the token file exists but is neither
// decryptable with the machine key nor parseable as a legacy plaintext
// credential. The file is left in place for inspection; the operator decides
// whether to delete it and re-authorize.
var ErrCredentialCorrupt = errors.New("stored credential is corrupt: not decryptable and not valid plaintext")

// ErrRefreshFailed marks refresh errors: a stored credential was expired and
// the provider rejected or could not complete the refresh exchange. Matched
// with errors.Is to distinguish upstream failures from local storage states.
var ErrRefreshFailed = errors.New("credential refresh failed")

// TokenStore is the driven port for credential persistence. Implementations
// own encryption at rest, legacy-format upgrades, and lazy refresh.
type TokenStore interface {
	// Load returns a credential whose access token is valid now. It is NOT a
	// pure read: loading may rewrite the backing file (plaintext-to-encrypted
	// upgrade) or invoke the refresh collaborator and persist the result.
	// Returns ErrReauthRequired when no credential exists or the stored one is
	// expired with no refresh token, and ErrCredentialCorrupt for an
	// unreadable file.
	Load(ctx context.Context) (*model.Credential, error)

	// Save persists the credential, always in encrypted form, replacing any
	// previous state atomically.
	Save(ctx context.Context, cred *model.Credential) error
}

// TokenRefresher is the driven port for the OAuth2 refresh collaborator: it
// exchanges a credential's refresh token for a renewed access token. The
// browser-based initial authorization is outside this port.
type TokenRefresher interface {
	Refresh(ctx context.Context, cred *model.Credential) (*model.Credential, error)
}
