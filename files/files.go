// Package files resolves module paths against an ordered list of search
// paths and opens them as archives.
package files

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/wippyai/slang/archive"
	"github.com/wippyai/slang/errors"
)

// Manager locates and opens files. Relative paths are looked up in each
// search path in order; absolute paths are used as given.
type Manager struct {
	fs          afero.Fs
	order       binary.ByteOrder
	searchPaths []string
}

// Option configures a Manager.
type Option func(*Manager)

// WithByteOrder sets the byte order of opened archives. The default is
// little endian.
func WithByteOrder(order binary.ByteOrder) Option {
	return func(m *Manager) {
		m.order = order
	}
}

// WithSearchPaths adds search paths in order.
func WithSearchPaths(paths ...string) Option {
	return func(m *Manager) {
		for _, p := range paths {
			m.AddSearchPath(p)
		}
	}
}

// NewManager creates a Manager over fs.
func NewManager(fs afero.Fs, opts ...Option) *Manager {
	m := &Manager{fs: fs, order: binary.LittleEndian}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NewOsManager creates a Manager over the host file system.
func NewOsManager(opts ...Option) *Manager {
	return NewManager(afero.NewOsFs(), opts...)
}

// Fs returns the underlying file system.
func (m *Manager) Fs() afero.Fs {
	return m.fs
}

// ByteOrder returns the byte order of opened archives.
func (m *Manager) ByteOrder() binary.ByteOrder {
	return m.order
}

// AddSearchPath appends p to the search paths. Paths are cleaned and made
// absolute; duplicates are ignored.
func (m *Manager) AddSearchPath(p string) {
	p = canonical(p)
	for _, sp := range m.searchPaths {
		if sp == p {
			return
		}
	}
	m.searchPaths = append(m.searchPaths, p)
}

// SearchPaths returns the search paths in lookup order.
func (m *Manager) SearchPaths() []string {
	return append([]string(nil), m.searchPaths...)
}

func canonical(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}

func (m *Manager) stat(p string) (os.FileInfo, bool) {
	fi, err := m.fs.Stat(p)
	if err != nil {
		return nil, false
	}
	return fi, true
}

// find returns the first candidate for p that satisfies match.
func (m *Manager) find(p string, match func(os.FileInfo) bool) (string, bool) {
	if filepath.IsAbs(p) {
		fi, ok := m.stat(p)
		return filepath.Clean(p), ok && match(fi)
	}
	for _, sp := range m.searchPaths {
		candidate := filepath.Join(sp, p)
		if fi, ok := m.stat(candidate); ok && match(fi) {
			return candidate, true
		}
	}
	return "", false
}

func anyEntry(os.FileInfo) bool { return true }

func regularFile(fi os.FileInfo) bool { return fi.Mode().IsRegular() }

func directoryEntry(fi os.FileInfo) bool { return fi.IsDir() }

// Exists reports whether p names any file system entry.
func (m *Manager) Exists(p string) bool {
	_, ok := m.find(p, anyEntry)
	return ok
}

// IsFile reports whether p names a regular file.
func (m *Manager) IsFile(p string) bool {
	_, ok := m.find(p, regularFile)
	return ok
}

// IsDirectory reports whether p names a directory.
func (m *Manager) IsDirectory(p string) bool {
	_, ok := m.find(p, directoryEntry)
	return ok
}

// Resolve returns the clean absolute path of the regular file p. A path
// that only matches directories or other non-regular entries is reported
// as not a file.
func (m *Manager) Resolve(p string) (string, error) {
	if resolved, ok := m.find(p, regularFile); ok {
		return resolved, nil
	}
	if existing, ok := m.find(p, anyEntry); ok {
		return "", errors.NotAFile(existing)
	}
	err := errors.NotFound(errors.PhaseLoad, "file", p)
	if !filepath.IsAbs(p) {
		err.Detail += fmt.Sprintf(" in search paths %v", m.searchPaths)
	}
	return "", err
}

// Open opens p as an archive. For reading, p is resolved like Resolve.
// For writing, an existing file is truncated; a new relative path is
// created under the first search path.
func (m *Manager) Open(p string, mode archive.OpenMode) (*archive.File, error) {
	switch mode {
	case archive.ModeRead:
		resolved, err := m.Resolve(p)
		if err != nil {
			return nil, err
		}
		return archive.OpenFile(m.fs, resolved, mode, m.order)
	case archive.ModeWrite:
		target, err := m.writeTarget(p)
		if err != nil {
			return nil, err
		}
		return archive.OpenFile(m.fs, target, mode, m.order)
	}
	return nil, errors.InvalidInput(errors.PhaseLoad, "invalid open mode "+mode.String())
}

func (m *Manager) writeTarget(p string) (string, error) {
	if filepath.IsAbs(p) {
		return filepath.Clean(p), nil
	}
	if existing, ok := m.find(p, regularFile); ok {
		return existing, nil
	}
	if len(m.searchPaths) == 0 {
		return "", errors.NotFound(errors.PhaseLoad, "search path for new file", p)
	}
	target := filepath.Join(m.searchPaths[0], p)
	if err := m.fs.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", errors.Load("create directory for "+target, err)
	}
	return target, nil
}
