// Package backup keeps timestamped snapshots of the contact collection in a
// directory, optionally encrypted with a passphrase.
package backup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/AbduSami-bK/contact-manager/internal/slot"
)

const (
	plainExt     = ".json"
	encryptedExt = ".json.enc"
	stampLayout  = "20060102-150405.000000000"
)

// ErrNotFound is returned when a named snapshot does not exist.
var ErrNotFound = errors.New("backup: not found")

// Entry describes one snapshot in the archive.
type Entry struct {
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
	Encrypted bool      `json:"encrypted"`
}

// Dir is a directory of snapshots named <prefix>-<timestamp>.json[.enc].
type Dir struct {
	path       string
	prefix     string
	passphrase string
	now        func() time.Time
}

// NewDir prepares the archive directory. A non-empty passphrase encrypts
// every snapshot written from now on.
func NewDir(path, prefix, passphrase string) (*Dir, error) {
	if prefix == "" {
		return nil, fmt.Errorf("backup: prefix is required")
	}
	if err := os.MkdirAll(path, 0o700); err != nil {
		return nil, fmt.Errorf("backup: create dir: %w", err)
	}
	return &Dir{path: path, prefix: prefix, passphrase: passphrase, now: time.Now}, nil
}

// Path is the directory holding the snapshots.
func (d *Dir) Path() string { return d.path }

// Put writes a new snapshot and returns its name.
func (d *Dir) Put(_ context.Context, data []byte) (string, error) {
	ext := plainExt
	if d.passphrase != "" {
		sealed, err := seal(d.passphrase, data)
		if err != nil {
			return "", fmt.Errorf("backup: encrypt: %w", err)
		}
		data = sealed
		ext = encryptedExt
	}

	base := fmt.Sprintf("%s-%s", d.prefix, d.now().UTC().Format(stampLayout))
	name := base + ext
	for i := 1; d.exists(name); i++ {
		name = fmt.Sprintf("%s_%d%s", base, i, ext)
	}

	if err := slot.WriteFileAtomic(filepath.Join(d.path, name), data, 0o600); err != nil {
		return "", fmt.Errorf("backup: write %s: %w", name, err)
	}
	return name, nil
}

// Get returns the decrypted contents of the named snapshot.
func (d *Dir) Get(_ context.Context, name string) ([]byte, error) {
	if !d.owns(name) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	b, err := os.ReadFile(filepath.Join(d.path, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("backup: read %s: %w", name, err)
	}

	if strings.HasSuffix(name, encryptedExt) {
		if d.passphrase == "" {
			return nil, ErrWrongPassphrase
		}
		return open(d.passphrase, b)
	}
	return b, nil
}

// List returns the snapshots, newest first.
func (d *Dir) List(_ context.Context) ([]Entry, error) {
	items, err := os.ReadDir(d.path)
	if err != nil {
		return nil, fmt.Errorf("backup: list: %w", err)
	}

	var entries []Entry
	for _, item := range items {
		if item.IsDir() || !d.owns(item.Name()) {
			continue
		}
		info, err := item.Info()
		if err != nil {
			continue
		}
		entries = append(entries, Entry{
			Name:      item.Name(),
			Size:      info.Size(),
			CreatedAt: info.ModTime().UTC(),
			Encrypted: strings.HasSuffix(item.Name(), encryptedExt),
		})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name > entries[j].Name })
	return entries, nil
}

// Prune deletes all but the newest keep snapshots. keep <= 0 keeps everything.
func (d *Dir) Prune(ctx context.Context, keep int) (int, error) {
	if keep <= 0 {
		return 0, nil
	}
	entries, err := d.List(ctx)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, e := range entries[min(keep, len(entries)):] {
		if err := os.Remove(filepath.Join(d.path, e.Name)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return removed, fmt.Errorf("backup: remove %s: %w", e.Name, err)
		}
		removed++
	}
	return removed, nil
}

// owns reports whether name is a snapshot of this archive. It also rejects
// anything that could escape the directory.
func (d *Dir) owns(name string) bool {
	if name != filepath.Base(name) || strings.ContainsAny(name, `/\`) {
		return false
	}
	if !strings.HasPrefix(name, d.prefix+"-") {
		return false
	}
	return strings.HasSuffix(name, plainExt) || strings.HasSuffix(name, encryptedExt)
}

func (d *Dir) exists(name string) bool {
	_, err := os.Stat(filepath.Join(d.path, name))
	return err == nil
}
