package tokenfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ericfisherdev/mailbridge/internal/domain/model"
)

// The serialized form mirrors the Google authorized-user token file so that
// files written by earlier tooling decode directly as legacy plaintext.
const (
	fieldToken        = "token"
	fieldRefreshToken = "refresh_token"
	fieldTokenType    = "token_type"
	fieldExpiry       = "expiry"
	fieldScopes       = "scopes"
)

// errNotCredential reports input that is structurally not a serialized
// credential. Distinct from a decryption failure: the store orchestrator uses
// the difference to classify file state.
var errNotCredential = errors.New("not a serialized credential")

// encodeCredential serializes cred to JSON. Extra fields are re-emitted
// verbatim alongside the modeled ones, so a decode/encode round trip never
// drops provider-specific state (token_uri, client_id, ...).
func encodeCredential(cred *model.Credential) ([]byte, error) {
	obj := make(map[string]json.RawMessage, len(cred.Extra)+5)
	for k, v := range cred.Extra {
		obj[k] = v
	}

	setString := func(field, value string) error {
		raw, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("encode %s: %w", field, err)
		}
		obj[field] = raw
		return nil
	}

	if err := setString(fieldToken, cred.AccessToken); err != nil {
		return nil, err
	}
	if cred.RefreshToken != "" {
		if err := setString(fieldRefreshToken, cred.RefreshToken); err != nil {
			return nil, err
		}
	}
	if cred.TokenType != "" {
		if err := setString(fieldTokenType, cred.TokenType); err != nil {
			return nil, err
		}
	}
	if !cred.Expiry.IsZero() {
		if err := setString(fieldExpiry, cred.Expiry.UTC().Format(time.RFC3339Nano)); err != nil {
			return nil, err
		}
	}
	if cred.Scopes != nil {
		raw, err := json.Marshal(cred.Scopes)
		if err != nil {
			return nil, fmt.Errorf("encode scopes: %w", err)
		}
		obj[fieldScopes] = raw
	}

	data, err := json.Marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("encode credential: %w", err)
	}
	return data, nil
}

// decodeCredential parses a serialized credential. It fails with
// errNotCredential when data is not a JSON object carrying a string access
// token; all unrecognized top-level fields are kept in Extra.
func decodeCredential(data []byte) (*model.Credential, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("%w: %v", errNotCredential, err)
	}
	if obj == nil {
		return nil, fmt.Errorf("%w: JSON null", errNotCredential)
	}

	cred := &model.Credential{}

	takeString := func(field string, dst *string) error {
		raw, ok := obj[field]
		if !ok {
			return nil
		}
		if err := json.Unmarshal(raw, dst); err != nil {
			return fmt.Errorf("%w: field %s: %v", errNotCredential, field, err)
		}
		delete(obj, field)
		return nil
	}

	if err := takeString(fieldToken, &cred.AccessToken); err != nil {
		return nil, err
	}
	if cred.AccessToken == "" {
		return nil, fmt.Errorf("%w: missing access token", errNotCredential)
	}
	if err := takeString(fieldRefreshToken, &cred.RefreshToken); err != nil {
		return nil, err
	}
	if err := takeString(fieldTokenType, &cred.TokenType); err != nil {
		return nil, err
	}

	var expiry string
	if err := takeString(fieldExpiry, &expiry); err != nil {
		return nil, err
	}
	if expiry != "" {
		t, err := time.Parse(time.RFC3339Nano, expiry)
		if err != nil {
			return nil, fmt.Errorf("%w: expiry %q: %v", errNotCredential, expiry, err)
		}
		cred.Expiry = t
	}

	if raw, ok := obj[fieldScopes]; ok {
		if err := json.Unmarshal(raw, &cred.Scopes); err != nil {
			return nil, fmt.Errorf("%w: scopes: %v", errNotCredential, err)
		}
		delete(obj, fieldScopes)
	}

	if len(obj) > 0 {
		cred.Extra = obj
	}
	return cred, nil
}
