package files

import (
	"encoding/binary"
	stderrors "errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/slang/archive"
	"github.com/wippyai/slang/errors"
)

func newFs(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/proj/lib/std", 0o755))
	require.NoError(t, fs.MkdirAll("/usr/share/slang/std", 0o755))
	require.NoError(t, afero.WriteFile(fs, "/proj/lib/std/io.cmod", []byte("a"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/usr/share/slang/std/io.cmod", []byte("b"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/usr/share/slang/std/math.cmod", []byte("c"), 0o644))
	return fs
}

func TestSearchPaths(t *testing.T) {
	m := NewManager(afero.NewMemMapFs(), WithSearchPaths("/a", "/b/../a", "/c/"))
	assert.Equal(t, []string{"/a", "/c"}, m.SearchPaths())
}

func TestResolve(t *testing.T) {
	m := NewManager(newFs(t), WithSearchPaths("/proj/lib", "/usr/share/slang"))

	tests := []struct {
		name string
		path string
		want string
	}{
		{"first search path wins", "std/io.cmod", "/proj/lib/std/io.cmod"},
		{"later search path", "std/math.cmod", "/usr/share/slang/std/math.cmod"},
		{"absolute", "/usr/share/slang/std/io.cmod", "/usr/share/slang/std/io.cmod"},
		{"absolute unclean", "/usr/share/slang/std/../std/io.cmod", "/usr/share/slang/std/io.cmod"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.Resolve(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveErrors(t *testing.T) {
	m := NewManager(newFs(t), WithSearchPaths("/proj/lib"))

	_, err := m.Resolve("std/missing.cmod")
	assert.True(t, stderrors.Is(err, &errors.Error{Phase: errors.PhaseLoad, Kind: errors.KindNotFound}), "got %v", err)

	_, err = m.Resolve("/proj/lib/std")
	assert.True(t, stderrors.Is(err, &errors.Error{Phase: errors.PhaseLoad, Kind: errors.KindNotAFile}), "got %v", err)

	_, err = m.Resolve("/nowhere/x.cmod")
	assert.True(t, stderrors.Is(err, &errors.Error{Phase: errors.PhaseLoad, Kind: errors.KindNotFound}), "got %v", err)

	_, err = m.Resolve("std")
	assert.True(t, stderrors.Is(err, &errors.Error{Phase: errors.PhaseLoad, Kind: errors.KindNotAFile}), "got %v", err)
	assert.Contains(t, err.Error(), `"/proj/lib/std"`)

	_, err = m.Resolve("std/missing.cmod")
	assert.Contains(t, err.Error(), `file "std/missing.cmod" not found in search paths [/proj/lib]`)
}

func TestPredicates(t *testing.T) {
	m := NewManager(newFs(t), WithSearchPaths("/proj/lib"))

	assert.True(t, m.Exists("std"))
	assert.True(t, m.Exists("std/io.cmod"))
	assert.False(t, m.Exists("std/math.cmod"))

	assert.True(t, m.IsFile("std/io.cmod"))
	assert.False(t, m.IsFile("std"))
	assert.True(t, m.IsFile("/usr/share/slang/std/math.cmod"))

	assert.True(t, m.IsDirectory("std"))
	assert.True(t, m.IsDirectory("/usr/share/slang"))
	assert.False(t, m.IsDirectory("std/io.cmod"))
}

func TestOpen(t *testing.T) {
	fs := newFs(t)
	m := NewManager(fs, WithSearchPaths("/proj/out", "/proj/lib"), WithByteOrder(binary.BigEndian))

	w, err := m.Open("pkg/mod.cmod", archive.ModeWrite)
	require.NoError(t, err)
	assert.Equal(t, "/proj/out/pkg/mod.cmod", w.Path())
	assert.Equal(t, binary.BigEndian, w.ByteOrder())
	v := uint32(0x01020304)
	require.NoError(t, w.Uint32(&v))
	require.NoError(t, w.Close())

	data, err := afero.ReadFile(fs, "/proj/out/pkg/mod.cmod")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4}, data)

	r, err := m.Open("pkg/mod.cmod", archive.ModeRead)
	require.NoError(t, err)
	defer r.Close()
	assert.True(t, r.IsReading())
	var got uint32
	require.NoError(t, r.Uint32(&got))
	assert.Equal(t, v, got)

	_, err = m.Open("missing.cmod", archive.ModeRead)
	assert.Error(t, err)
}

func TestOpenWriteWithoutSearchPath(t *testing.T) {
	m := NewManager(afero.NewMemMapFs())
	_, err := m.Open("x.cmod", archive.ModeWrite)
	assert.True(t, stderrors.Is(err, &errors.Error{Phase: errors.PhaseLoad, Kind: errors.KindNotFound}), "got %v", err)
}
