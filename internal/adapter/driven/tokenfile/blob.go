package tokenfile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// fileMode restricts the token file to owner read/write. It is asserted on
// every write, not only on creation, so a file left behind by an earlier
// insecure version (or widened by an external tool) is tightened again.
const fileMode = 0o600

// dirMode restricts the containing directory when the store has to create it.
const dirMode = 0o700

// errNotFound distinguishes a missing token file from an unreadable one.
var errNotFound = errors.New("token file does not exist")

// readBlob returns the raw file contents without interpreting them.
func readBlob(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, errNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read token file: %w", err)
	}
	return data, nil
}

// writeBlob atomically replaces the file at path with data: the bytes are
// written to a temporary file in the same directory, synced, then renamed
// over the destination. A crash at any point leaves either the old complete
// content or the new complete content at path, never a partial file.
func writeBlob(path string, data []byte) error {
	dir := filepath.Dir(path)
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		if err := os.MkdirAll(dir, dirMode); err != nil {
			return fmt.Errorf("create token directory: %w", err)
		}
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp token file: %w", err)
	}
	tmpName := tmp.Name()

	// On any failure below the temp file is removed; the destination is
	// untouched until the rename.
	if err := writeAndClose(tmp, data); err != nil {
		_ = os.Remove(tmpName)
		return err
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace token file: %w", err)
	}

	if err := os.Chmod(path, fileMode); err != nil {
		return fmt.Errorf("restrict token file permissions: %w", err)
	}
	return nil
}

func writeAndClose(f *os.File, data []byte) error {
	if err := f.Chmod(fileMode); err != nil {
		_ = f.Close()
		return fmt.Errorf("restrict temp token file permissions: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("write token file: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("sync token file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close token file: %w", err)
	}
	return nil
}
