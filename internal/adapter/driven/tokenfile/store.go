// Package tokenfile persists the OAuth2 credential in a single encrypted file.
//
// The encryption key is derived from machine identity (user + hostname), so
// the file survives process restarts on the same machine but is useless when
// copied elsewhere. This is a portability boundary, not a security boundary:
// the identity is not secret and offers no protection against an attacker who
// can already read the same user account. Files written by earlier versions
// as plaintext JSON are still readable and are rewritten encrypted on first
// successful load.
package tokenfile

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/ericfisherdev/mailbridge/internal/domain/model"
	"github.com/ericfisherdev/mailbridge/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.TokenStore = (*Store)(nil)

// RefreshError reports that the refresh collaborator rejected the stored
// refresh token or could not be reached. The credential on disk is left
// untouched so a later load can retry.
type RefreshError struct {
	Err error
}

func (e *RefreshError) Error() string {
	return "token refresh failed: " + e.Err.Error()
}

func (e *RefreshError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, driven.ErrRefreshFailed) match without callers
// depending on this package.
func (e *RefreshError) Is(target error) bool {
	return target == driven.ErrRefreshFailed
}

// fileState is the tagged result of classifying the raw token file contents.
type fileState int

const (
	stateEncrypted fileState = iota
	stateLegacyPlaintext
	stateCorrupt
)

// Store is the file-backed TokenStore. A single Store owns a single token
// path; the mutex serializes the whole load -> maybe-refresh -> save sequence
// so two concurrent loads cannot race a refresh against each other. The
// design assumes one process manages a given path at a time.
type Store struct {
	path           string
	refresher      driven.TokenRefresher
	refreshTimeout time.Duration
	logger         *slog.Logger

	// Test seams; production values set by NewStore.
	now      func() time.Time
	identity func() (string, error)

	mu      sync.Mutex
	key     []byte // derived once per Store, memory only, never written to disk
	keyErr  error
	keyOnce bool
}

// NewStore creates a Store for the token file at path. refresher is invoked
// lazily when a loaded credential is expired; refreshTimeout bounds that
// network round trip. refresher may be nil, in which case an expired
// credential always surfaces a re-authorization signal.
func NewStore(path string, refresher driven.TokenRefresher, refreshTimeout time.Duration, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	if refreshTimeout <= 0 {
		refreshTimeout = 30 * time.Second
	}
	return &Store{
		path:           path,
		refresher:      refresher,
		refreshTimeout: refreshTimeout,
		logger:         logger,
		now:            time.Now,
		identity:       machineIdentity,
	}
}

// Load returns a credential whose access token is valid now, refreshing and
// persisting it if necessary. It is not a pure read: a legacy plaintext file
// is rewritten encrypted, and a successful refresh is saved before returning.
func (s *Store) Load(ctx context.Context) (*model.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := readBlob(s.path)
	if errors.Is(err, errNotFound) {
		return nil, fmt.Errorf("%s: %w", s.path, driven.ErrReauthRequired)
	}
	if err != nil {
		return nil, err
	}

	key, keyErr := s.encryptionKey()

	state, cred := classify(raw, key)
	switch state {
	case stateCorrupt:
		// A derivation failure makes encrypted files unreadable without being
		// corrupt; report the real cause. The file is preserved either way.
		if keyErr != nil {
			return nil, fmt.Errorf("token file not plaintext and machine key unavailable: %w", keyErr)
		}
		return nil, fmt.Errorf("%s: %w", s.path, driven.ErrCredentialCorrupt)
	case stateLegacyPlaintext:
		s.upgradeInPlace(cred, key, keyErr)
	}

	if !cred.Expired(s.now()) {
		return cred, nil
	}
	if !cred.Refreshable() || s.refresher == nil {
		return nil, fmt.Errorf("access token expired with no refresh token: %w", driven.ErrReauthRequired)
	}

	refreshCtx, cancel := context.WithTimeout(ctx, s.refreshTimeout)
	defer cancel()

	renewed, err := s.refresher.Refresh(refreshCtx, cred.Clone())
	if err != nil {
		// Last-known-good state stays on disk for a future retry.
		return nil, &RefreshError{Err: err}
	}
	merged := mergeRefreshed(cred, renewed)

	if keyErr != nil {
		return nil, fmt.Errorf("cannot persist refreshed credential: %w", keyErr)
	}
	if err := s.saveLocked(merged, key); err != nil {
		return nil, err
	}
	s.logger.Info("access token refreshed", "expiry", merged.Expiry)
	return merged, nil
}

// Save encodes, encrypts, and atomically writes cred. This is the only path
// that produces new on-disk state; it always writes the encrypted form, which
// is how legacy plaintext files are retired without a one-shot migration.
func (s *Store) Save(ctx context.Context, cred *model.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key, err := s.encryptionKey()
	if err != nil {
		return fmt.Errorf("cannot encrypt credential: %w", err)
	}
	return s.saveLocked(cred, key)
}

func (s *Store) saveLocked(cred *model.Credential, key []byte) error {
	plaintext, err := encodeCredential(cred)
	if err != nil {
		return err
	}
	sealed, err := seal(key, plaintext)
	if err != nil {
		return err
	}
	return writeBlob(s.path, sealed)
}

// upgradeInPlace rewrites a legacy plaintext file through the encrypting
// path. Best effort: a failure here must not cost availability, so it is
// logged and the plaintext credential is still returned to the caller.
func (s *Store) upgradeInPlace(cred *model.Credential, key []byte, keyErr error) {
	if keyErr != nil {
		s.logger.Warn("plaintext token file left unencrypted: machine key unavailable", "error", keyErr)
		return
	}
	if err := s.saveLocked(cred, key); err != nil {
		s.logger.Warn("plaintext token file could not be upgraded to encrypted form", "error", err)
		return
	}
	s.logger.Info("token file upgraded to encrypted form", "path", s.path)
}

// encryptionKey derives the machine key on first use and caches it in memory
// for the lifetime of the Store. Callers must hold s.mu.
func (s *Store) encryptionKey() ([]byte, error) {
	if !s.keyOnce {
		s.keyOnce = true
		id, err := s.identity()
		if err != nil {
			s.keyErr = errKeyUnavailable(err)
		} else {
			s.key = deriveKey(id)
		}
	}
	return s.key, s.keyErr
}

// classify runs the ordered parse attempts against the raw file contents:
// decrypt-then-decode first, plain decode second. The plaintext fallback is
// the sole silent-recovery path and exists only for files written before
// encryption was introduced; when both attempts fail the state is corrupt and
// always surfaced. A nil key skips the decrypt attempt.
func classify(raw, key []byte) (fileState, *model.Credential) {
	if key != nil {
		if plaintext, err := open(key, raw); err == nil {
			if cred, err := decodeCredential(plaintext); err == nil {
				return stateEncrypted, cred
			}
		}
	}
	if cred, err := decodeCredential(raw); err == nil {
		return stateLegacyPlaintext, cred
	}
	return stateCorrupt, nil
}

// mergeRefreshed combines the collaborator's renewed credential with the
// previous one: providers often omit the refresh token and extension fields
// on renewal, and dropping them would strand the user at the next expiry.
func mergeRefreshed(old, renewed *model.Credential) *model.Credential {
	merged := renewed.Clone()
	if merged.RefreshToken == "" {
		merged.RefreshToken = old.RefreshToken
	}
	if merged.TokenType == "" {
		merged.TokenType = old.TokenType
	}
	if merged.Scopes == nil {
		merged.Scopes = append([]string(nil), old.Scopes...)
	}
	if len(old.Extra) > 0 {
		extra := make(map[string]json.RawMessage, len(old.Extra)+len(merged.Extra))
		for k, v := range old.Extra {
			extra[k] = v
		}
		for k, v := range merged.Extra {
			extra[k] = v
		}
		merged.Extra = extra
	}
	return merged
}

// seal encrypts plaintext with AES-256-GCM and returns base64(nonce || ciphertext || tag).
// GCM authenticates the payload: tampering or a foreign machine key fails
// open() instead of yielding garbage plaintext.
func seal(key, plaintext []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("rand nonce: %w", err)
	}

	sealed := gcm.Seal(nonce, nonce, plaintext, nil)
	out := make([]byte, base64.StdEncoding.EncodedLen(len(sealed)))
	base64.StdEncoding.Encode(out, sealed)
	return out, nil
}

// open decrypts data produced by seal.
func open(key, data []byte) ([]byte, error) {
	decoded := make([]byte, base64.StdEncoding.DecodedLen(len(data)))
	n, err := base64.StdEncoding.Decode(decoded, data)
	if err != nil {
		return nil, fmt.Errorf("base64 decode: %w", err)
	}
	decoded = decoded[:n]

	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonceSize := gcm.NonceSize()
	if len(decoded) < nonceSize {
		return nil, errors.New("ciphertext too short")
	}

	nonce, ciphertext := decoded[:nonceSize], decoded[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("gcm.Open: %w", err)
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCM: %w", err)
	}
	return gcm, nil
}
