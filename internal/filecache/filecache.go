// Package filecache reads and writes structured data files (JSON or
// YAML) with selectable write strategies: read-only, standard, atomic
// (temp file + rename) and secure (owner-only permissions). The secure
// store combines atomic and secure: the temp file is created with mode
// 0600, fsynced and renamed over the target, so a crash mid-write never
// leaves a partially written document.
package filecache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Format selects the on-disk serialization.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

// WriteMode selects the write strategy.
type WriteMode int

const (
	// ReadOnly rejects all writes.
	ReadOnly WriteMode = iota
	// StandardWrite writes the target file in place.
	StandardWrite
	// AtomicWrite writes a temp file in the target directory and renames it
	// over the target. The temp file is created with mode 0600 and removed on
	// failure.
	AtomicWrite
	// SecureWrite writes the target file in place with mode 0600.
	SecureWrite
)

// ErrReadOnly is returned by Save on a read-only file.
var ErrReadOnly = errors.New("file is read-only")

// File binds a path to a format and write mode.
type File struct {
	path   string
	format Format
	mode   WriteMode
}

// New returns a File for path. Format and mode apply to all loads and saves.
func New(path string, format Format, mode WriteMode) *File {
	return &File{path: path, format: format, mode: mode}
}

// Path returns the target file path.
func (f *File) Path() string { return f.path }

// Exists reports whether the target file is present.
func (f *File) Exists() bool {
	_, err := os.Stat(f.path)
	return err == nil
}

// Load reads and decodes the file into v. It returns found == false
// without touching v when the file does not exist.
func (f *File) Load(v any) (found bool, err error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read %q: %w", f.path, err)
	}
	switch f.format {
	case FormatYAML:
		err = yaml.Unmarshal(data, v)
	default:
		err = json.Unmarshal(data, v)
	}
	if err != nil {
		return false, fmt.Errorf("failed to parse %q: %w", f.path, err)
	}
	return true, nil
}

// Save encodes v and writes it according to the configured write mode.
func (f *File) Save(v any) error {
	if f.mode == ReadOnly {
		return fmt.Errorf("cannot save %q: %w", f.path, ErrReadOnly)
	}

	data, err := f.marshal(v)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("failed to create directory for %q: %w", f.path, err)
	}

	switch f.mode {
	case AtomicWrite:
		return f.writeAtomic(data)
	case SecureWrite:
		return f.writeDirect(data, 0o600)
	default:
		return f.writeDirect(data, 0o644)
	}
}

// Remove deletes the target file. Removing a missing file is not an error.
func (f *File) Remove() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove %q: %w", f.path, err)
	}
	return nil
}

func (f *File) marshal(v any) ([]byte, error) {
	switch f.format {
	case FormatYAML:
		data, err := yaml.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %q: %w", f.path, err)
		}
		return data, nil
	default:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %q: %w", f.path, err)
		}
		return append(data, '\n'), nil
	}
}

func (f *File) writeDirect(data []byte, perm os.FileMode) error {
	file, err := os.OpenFile(f.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("failed to open %q: %w", f.path, err)
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		return fmt.Errorf("failed to write %q: %w", f.path, err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return fmt.Errorf("failed to sync %q: %w", f.path, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close %q: %w", f.path, err)
	}
	return nil
}

// writeAtomic writes data to a 0600 temp file in the target directory,
// fsyncs it and renames it over the target. The target keeps the temp
// file's permissions, so the written document is always owner-only.
func (f *File) writeAtomic(data []byte) error {
	dir := filepath.Dir(f.path)
	tmp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%s", filepath.Base(f.path), uuid.NewString()))

	file, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create temp file for %q: %w", f.path, err)
	}

	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to write temp file for %q: %w", f.path, err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to sync temp file for %q: %w", f.path, err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to close temp file for %q: %w", f.path, err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace %q: %w", f.path, err)
	}
	return nil
}
