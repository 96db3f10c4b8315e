package model

import (
	"encoding/json"
	"time"
)

// Credential is the OAuth2 token set used to act on the user's mailbox.
// AccessToken is the short-lived bearer secret; RefreshToken is the
// long-lived secret used to mint new access tokens and may be empty in
// partial states. Extra carries provider-specific fields (token_uri,
// client_id, ...) that the store round-trips without interpreting.
type Credential struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	// Expiry is when AccessToken stops being accepted. The zero value means
	// "unknown" and is treated as already expired.
	Expiry time.Time
	Scopes []string
	// Extra holds serialized fields the store does not model. They are
	// preserved verbatim across a decode/encode round trip.
	Extra map[string]json.RawMessage
}

// expirySkew is subtracted from Expiry so a token about to lapse mid-request
// is refreshed rather than handed out.
const expirySkew = 30 * time.Second

// Expired reports whether the access token is unusable at time now.
// A credential with no recorded expiry is considered expired.
func (c *Credential) Expired(now time.Time) bool {
	if c.Expiry.IsZero() {
		return true
	}
	return !now.Before(c.Expiry.Add(-expirySkew))
}

// Refreshable reports whether the credential carries a refresh token.
func (c *Credential) Refreshable() bool {
	return c.RefreshToken != ""
}

// Clone returns a deep copy. Scopes and Extra are copied so mutations of the
// clone never leak into the original.
func (c *Credential) Clone() *Credential {
	out := *c
	if c.Scopes != nil {
		out.Scopes = append([]string(nil), c.Scopes...)
	}
	if c.Extra != nil {
		out.Extra = make(map[string]json.RawMessage, len(c.Extra))
		for k, v := range c.Extra {
			out.Extra[k] = v
		}
	}
	return &out
}
