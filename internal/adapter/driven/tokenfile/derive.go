package tokenfile

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"os/user"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// keyLabel is the fixed, non-secret application label fed to the KDF as
	// its password input. Changing it invalidates every existing token file.
	keyLabel = "mailbridge-token-key"

	// kdfIterations is deliberately high to slow brute-force attempts against
	// copied token files. Fixed: existing files cannot be decrypted if it changes.
	kdfIterations = 100_000

	keyLength = 32
)

// machineIdentity returns the locally observable identity string used as the
// KDF salt: current username followed by hostname. The identity is not a
// secret; it exists so a token file copied to another machine or account does
// not decrypt there. A co-resident reader of the same account can reproduce
// the key; that is an accepted limitation of the scheme, not a bug.
func machineIdentity() (string, error) {
	var username string
	if u, err := user.Current(); err == nil {
		username = u.Username
	} else {
		// Restricted environments (static builds, minimal containers) can
		// fail user lookup; the environment is the remaining signal.
		username = os.Getenv("USER")
	}

	host, err := os.Hostname()
	if err != nil {
		host = ""
	}

	if username == "" && host == "" {
		return "", errors.New("neither current user nor hostname is resolvable")
	}
	return username + host, nil
}

// deriveKey derives the 32-byte symmetric key for the given machine identity
// via PBKDF2-HMAC-SHA256. Deterministic: the same identity always yields the
// same key, which is what lets the store decrypt across process restarts
// without persisting any key material.
func deriveKey(identity string) []byte {
	return pbkdf2.Key([]byte(keyLabel), []byte(identity), kdfIterations, keyLength, sha256.New)
}

// errKeyUnavailable wraps identity-resolution failures so callers can report
// them distinctly from storage and codec failures.
func errKeyUnavailable(cause error) error {
	return fmt.Errorf("derive machine key: %w", cause)
}
