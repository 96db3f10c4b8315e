package tokenfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadBlobMissingFile(t *testing.T) {
	_, err := readBlob(filepath.Join(t.TempDir(), "absent.json"))
	assert.ErrorIs(t, err, errNotFound)
}

func TestWriteBlobRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")

	require.NoError(t, writeBlob(path, []byte("first")))

	data, err := readBlob(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), data)
}

func TestWriteBlobSetsOwnerOnlyPermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	require.NoError(t, writeBlob(path, []byte("secret")))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(fileMode), info.Mode().Perm())
}

func TestWriteBlobReassertsPermissionsOnExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))

	require.NoError(t, writeBlob(path, []byte("new")))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(fileMode), info.Mode().Perm(),
		"a pre-existing world-readable file must be tightened on rewrite")
}

func TestWriteBlobCreatesParentDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "mailbridge")
	path := filepath.Join(dir, "token.json")

	require.NoError(t, writeBlob(path, []byte("x")))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(dirMode), info.Mode().Perm())
}

func TestWriteBlobLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "token.json")

	require.NoError(t, writeBlob(path, []byte("a")))
	require.NoError(t, writeBlob(path, []byte("b")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "token.json", entries[0].Name())
}

func TestWriteBlobInterruptedStagingKeepsDestinationComplete(t *testing.T) {
	// Simulates a crash after the temp file was staged but before the rename:
	// the destination must still hold the previous complete content, and the
	// next write must replace it wholesale.
	dir := t.TempDir()
	path := filepath.Join(dir, "token.json")
	require.NoError(t, writeBlob(path, []byte("old complete content")))

	stale := filepath.Join(dir, "token.json.1234.tmp")
	require.NoError(t, os.WriteFile(stale, []byte("half-writ"), 0o600))

	data, err := readBlob(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("old complete content"), data)

	require.NoError(t, writeBlob(path, []byte("new complete content")))

	data, err = readBlob(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("new complete content"), data)
}

func TestWriteBlobFailureKeepsPreviousContent(t *testing.T) {
	// A write that cannot even stage its temp file must leave the previous
	// complete content at the destination.
	dir := t.TempDir()
	path := filepath.Join(dir, "token.json")
	require.NoError(t, writeBlob(path, []byte("previous")))

	if os.Geteuid() == 0 {
		t.Skip("directory permissions are not enforced for root")
	}
	require.NoError(t, os.Chmod(dir, 0o500))
	t.Cleanup(func() { _ = os.Chmod(dir, 0o700) })

	err := writeBlob(path, []byte("next"))
	require.Error(t, err)

	require.NoError(t, os.Chmod(dir, 0o700))
	data, err := readBlob(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("previous"), data)
}
