package resolver

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/slang/archive"
	"github.com/wippyai/slang/errors"
	"github.com/wippyai/slang/files"
	"github.com/wippyai/slang/module"
)

func writeModule(t *testing.T, fs afero.Fs, path string, m *module.Module) {
	t.Helper()
	data, err := m.MarshalBinary()
	require.NoError(t, err)
	require.NoError(t, afero.WriteFile(fs, path, data, 0o644))
}

func testModule(t *testing.T) *module.Module {
	t.Helper()
	m := module.New()
	m.AddPackage("std")
	require.NoError(t, m.AddConstantValue("pi", module.F32(3.14)))
	require.NoError(t, m.AddNativeFunction("len", module.Builtin(module.I32Type),
		[]module.VariableType{module.Builtin(module.StrType)}, "slang"))
	return m
}

type eventRecorder struct {
	events []string
}

func (r *eventRecorder) Section(name string) { r.events = append(r.events, "section "+name) }

func (r *eventRecorder) Export(i int, s module.ExportedSymbol) {
	r.events = append(r.events, fmt.Sprintf("export %d %s %s", i, s.Type, s.Name))
}

func (r *eventRecorder) Constant(i int, c module.Constant) {
	r.events = append(r.events, fmt.Sprintf("constant %d %s", i, c))
}

func (r *eventRecorder) Import(i int, s module.ImportedSymbol) {
	r.events = append(r.events, fmt.Sprintf("import %d %s %s", i, s.Type, s.Name))
}

func TestNew(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/lib", 0o755))
	writeModule(t, fs, "/lib/m.cmod", testModule(t))
	mgr := files.NewManager(fs, files.WithSearchPaths("/lib"))

	rec := &eventRecorder{}
	r, err := New(mgr, "/lib/m.cmod", WithRecorder(rec), WithTransitive(true))
	require.NoError(t, err)

	assert.Equal(t, "/lib/m.cmod", r.Path())
	assert.Len(t, r.Header().Exports, 2)
	assert.Same(t, &r.Module().Header, r.Header())
	assert.True(t, r.IsTransitive())
	r.MakeExplicit()
	assert.False(t, r.IsTransitive())

	assert.Equal(t, []string{
		"section " + SectionExports,
		"export 0 constant pi",
		"export 1 function len",
		"section " + SectionConstants,
		"constant 0 f32 3.14",
		"section " + SectionImports,
		"import 0 package std",
	}, rec.events)
}

func TestNewMissingFile(t *testing.T) {
	mgr := files.NewManager(afero.NewMemMapFs())
	_, err := New(mgr, "/lib/missing.cmod")
	assert.True(t, stderrors.Is(err, &errors.Error{Phase: errors.PhaseLoad, Kind: errors.KindNotFound}), "got %v", err)
}

func TestNewCorruptModule(t *testing.T) {
	fs := afero.NewMemMapFs()
	data, err := testModule(t).MarshalBinary()
	require.NoError(t, err)
	require.NoError(t, afero.WriteFile(fs, "/m.cmod", data[:len(data)/2], 0o644))

	_, err = New(files.NewManager(fs), "/m.cmod")
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, &errors.Error{Phase: errors.PhaseDecode, Kind: errors.KindTruncated}), "got %v", err)

	var pe *archive.ParseError
	require.True(t, stderrors.As(err, &pe))
	assert.Greater(t, pe.Position, 0)
}

type fileCounter struct {
	opened, closed int
}

type closeTrackingFs struct {
	afero.Fs
	opener *fileCounter
}

type trackedFile struct {
	afero.File
	opener *fileCounter
}

func (f trackedFile) Close() error {
	f.opener.closed++
	return f.File.Close()
}

func (fs closeTrackingFs) Open(name string) (afero.File, error) {
	f, err := fs.Fs.Open(name)
	if err != nil {
		return nil, err
	}
	fs.opener.opened++
	return trackedFile{File: f, opener: fs.opener}, nil
}

func TestFileClosedAfterDecode(t *testing.T) {
	base := afero.NewMemMapFs()
	good, err := testModule(t).MarshalBinary()
	require.NoError(t, err)
	require.NoError(t, afero.WriteFile(base, "/good.cmod", good, 0o644))
	require.NoError(t, afero.WriteFile(base, "/bad.cmod", []byte{0, 1, 2}, 0o644))

	counter := &fileCounter{}
	mgr := files.NewManager(closeTrackingFs{Fs: base, opener: counter})

	_, err = New(mgr, "/good.cmod")
	require.NoError(t, err)
	_, err = New(mgr, "/bad.cmod")
	require.Error(t, err)

	assert.Equal(t, 2, counter.opened)
	assert.Equal(t, 2, counter.closed)
}
