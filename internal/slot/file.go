package slot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// File keeps the blob in <dir>/<name>.json.
type File struct {
	name string
	path string
}

// OpenFile prepares a file slot, creating dir if needed.
func OpenFile(dir, name string) (*File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("slot: create data dir: %w", err)
	}
	return &File{name: name, path: filepath.Join(dir, name+".json")}, nil
}

func (f *File) Name() string { return f.name }

// Path is the file the slot reads and writes.
func (f *File) Path() string { return f.path }

func (f *File) Load(_ context.Context) ([]byte, error) {
	b, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("slot: read %s: %w", f.path, err)
	}
	return b, nil
}

func (f *File) Save(_ context.Context, data []byte) error {
	if err := WriteFileAtomic(f.path, data, 0o600); err != nil {
		return fmt.Errorf("slot: write %s: %w", f.path, err)
	}
	return nil
}

func (f *File) Close() error { return nil }

// WriteFileAtomic writes bytes via a temp file, then atomically replaces the target.
func WriteFileAtomic(path string, b []byte, mode os.FileMode) error {
	dir := filepath.Dir(path)
	base := filepath.Base(path)

	f, err := os.CreateTemp(dir, base+".tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()

	// Best-effort cleanup if anything fails before rename.
	defer func() { _ = os.Remove(tmp) }()

	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Chmod(mode); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	return os.Rename(tmp, path)
}
