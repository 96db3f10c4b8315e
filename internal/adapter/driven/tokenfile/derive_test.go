package tokenfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveKeyDeterministic(t *testing.T) {
	a := deriveKey("alice" + "workstation-1")
	b := deriveKey("alice" + "workstation-1")

	require.Len(t, a, keyLength)
	assert.Equal(t, a, b, "same identity must derive the same key across calls")
}

func TestDeriveKeyDifferentIdentities(t *testing.T) {
	a := deriveKey("aliceworkstation-1")
	b := deriveKey("bobworkstation-1")
	c := deriveKey("aliceworkstation-2")

	assert.NotEqual(t, a, b, "different user must derive a different key")
	assert.NotEqual(t, a, c, "different host must derive a different key")
}

func TestMachineIdentityResolves(t *testing.T) {
	// On any machine running the tests at least one of user and hostname
	// should resolve.
	id, err := machineIdentity()
	require.NoError(t, err)
	assert.NotEmpty(t, id)
}
