package main

import (
	"bytes"
	stderrors "errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wippyai/slang/config"
	"github.com/wippyai/slang/errors"
	"github.com/wippyai/slang/internal/manifest"
	"github.com/wippyai/slang/module"
)

const shapes = `imports:
  - name: geo
    type: package
exports:
  - name: pi
    type: constant
    constant: 0
  - name: Circle
    type: type
    struct:
      members:
        - name: center
          type: Point@0
        - name: radius
          type: f32
  - name: area
    type: function
    function:
      return: f32
      args: [Circle]
      size: 8
constants:
  - type: f32
    value: 3.14
body: "0102030405060708"
`

func newTestState(fs afero.Fs) (*globalState, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return &globalState{
		fs:     fs,
		stdout: out,
		stderr: &bytes.Buffer{},
		cfg:    config.Default(),
		logger: zap.NewNop(),
	}, out
}

func run(t *testing.T, fs afero.Fs, args ...string) (string, error) {
	t.Helper()
	gs, out := newTestState(fs)
	root := newRootCommand(gs)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeModule(t *testing.T, fs afero.Fs, path string, m *module.Module) {
	t.Helper()
	data, err := m.MarshalBinary()
	require.NoError(t, err)
	require.NoError(t, afero.WriteFile(fs, path, data, 0o644))
}

func geoModule(t *testing.T) *module.Module {
	t.Helper()
	m := module.New()
	require.NoError(t, m.AddStruct("Point", []module.Member{
		{Name: "x", Type: module.Builtin(module.F32Type)},
		{Name: "y", Type: module.Builtin(module.F32Type)},
	}, 0))
	return m
}

func assembleShapes(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/lib", 0o755))
	require.NoError(t, afero.WriteFile(fs, "/src/shapes.yaml", []byte(shapes), 0o644))
	writeModule(t, fs, "/lib/geo.cmod", geoModule(t))

	out, err := run(t, fs, "assemble", "/src/shapes.yaml", "-o", "/lib/shapes.cmod")
	require.NoError(t, err)
	assert.Contains(t, out, "wrote /lib/shapes.cmod (3 exports, 8 byte body)")
	return fs
}

func TestAssembleAndInspect(t *testing.T) {
	fs := assembleShapes(t)

	out, err := run(t, fs, "inspect", "/lib/shapes.cmod")
	require.NoError(t, err)
	for _, want := range []string{
		"Export table",
		"constant pi = constant[0]",
		"type     Circle { center: Point@0, radius: f32 }",
		"function area(Circle) -> f32 @0+8",
		"Constant table",
		"f32 3.14",
		"Import table",
		"package  geo",
		"8 byte body, /lib/shapes.cmod",
	} {
		assert.Contains(t, out, want)
	}
	assert.Less(t, strings.Index(out, "Export table"), strings.Index(out, "Constant table"))
	assert.Less(t, strings.Index(out, "Constant table"), strings.Index(out, "Import table"))
}

func TestInspectByImportName(t *testing.T) {
	fs := assembleShapes(t)

	out, err := run(t, fs, "-I", "/lib", "inspect", "shapes", "--format", "yaml")
	require.NoError(t, err)

	got, err := manifest.Unmarshal([]byte(out))
	require.NoError(t, err)
	want, err := manifest.Unmarshal([]byte(shapes))
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = run(t, fs, "-I", "/lib", "inspect", "shapes", "--format", "json")
	assert.Error(t, err)
}

func TestInspectWIT(t *testing.T) {
	fs := assembleShapes(t)

	out, err := run(t, fs, "inspect", "--wit", "/lib/shapes.cmod")
	require.NoError(t, err)
	assert.Equal(t, "/// pi: f32 3.14\n"+
		"interface shapes {\n"+
		"\trecord circle { center: point, radius: f32 }\n"+
		"\tarea: func(arg0: circle) -> f32;\n"+
		"}\n", out)
}

func TestInspectMissing(t *testing.T) {
	_, err := run(t, afero.NewMemMapFs(), "inspect", "/lib/none.cmod")
	assert.True(t, stderrors.Is(err, &errors.Error{Phase: errors.PhaseLoad, Kind: errors.KindNotFound}), "got %v", err)
}

func TestLink(t *testing.T) {
	fs := assembleShapes(t)
	require.NoError(t, afero.WriteFile(fs, config.FileName, []byte("[modules]\nsearch-paths = [\"/lib\"]\n"), 0o644))

	out, err := run(t, fs, "link", "shapes")
	require.NoError(t, err)
	assert.Equal(t, `Modules:
  geo
  shapes
Structs:
  geo::Point { x: f32, y: f32 }
  shapes::Circle { center: geo::Point, radius: f32 }
Constants:
  shapes::pi = f32 3.14
Functions:
  shapes::area(shapes::Circle) -> f32
`, out)
}

func TestLinkErrors(t *testing.T) {
	fs := assembleShapes(t)

	_, err := run(t, fs, "-I", "/lib", "link", "")
	assert.True(t, stderrors.Is(err, &errors.Error{Phase: errors.PhaseLinking, Kind: errors.KindEmptyImport}), "got %v", err)

	_, err = run(t, fs, "-I", "/lib", "link", "nowhere")
	assert.True(t, stderrors.Is(err, &errors.Error{Phase: errors.PhaseLoad, Kind: errors.KindNotFound}), "got %v", err)

	_, err = run(t, fs, "--log-level", "loud", "link", "shapes")
	assert.True(t, stderrors.Is(err, &errors.Error{Phase: errors.PhaseConfig, Kind: errors.KindInvalidInput}), "got %v", err)
}

func TestAssembleErrors(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/bad.yaml", []byte("exports:\n  - name: f\n    type: function\n"), 0o644))

	_, err := run(t, fs, "assemble", "/bad.yaml")
	assert.Error(t, err, "missing -o")

	_, err = run(t, fs, "assemble", "/bad.yaml", "-o", "/out.cmod")
	assert.Error(t, err)

	exists, _ := afero.Exists(fs, "/out.cmod")
	assert.False(t, exists)
}

func TestBrowseRequiresTerminal(t *testing.T) {
	fs := assembleShapes(t)
	_, err := run(t, fs, "browse", "/lib/shapes.cmod")
	assert.True(t, stderrors.Is(err, &errors.Error{Phase: errors.PhaseConfig, Kind: errors.KindUnsupported}), "got %v", err)
}

func TestBrowseModel(t *testing.T) {
	fs := assembleShapes(t)
	gs, _ := newTestState(fs)

	m := newBrowseModel("/lib/shapes.cmod", gs.loadModule)
	assert.Equal(t, "Loading module...", m.View())

	msg := m.loadModule()
	m.Update(msg)
	require.Len(t, m.entries, 5)
	assert.Len(t, m.visible, 5)
	assert.Contains(t, m.View(), "/lib/shapes.cmod")

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("are")})
	require.Len(t, m.visible, 1)
	e, ok := m.current()
	require.True(t, ok)
	assert.Equal(t, "area", e.name)

	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, stateDetail, m.state)
	assert.Contains(t, m.View(), "(Circle) -> f32")

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, stateList, m.state)

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("zzz")})
	assert.Empty(t, m.visible)
	assert.Contains(t, m.View(), "no matches")
}

func TestBrowseModelLoadError(t *testing.T) {
	gs, _ := newTestState(afero.NewMemMapFs())
	m := newBrowseModel("/missing.cmod", gs.loadModule)
	m.Update(m.loadModule())
	assert.Contains(t, m.View(), "Error:")
}

func TestKebab(t *testing.T) {
	tests := map[string]string{
		"Point":       "point",
		"CircleArea":  "circle-area",
		"snake_case":  "snake-case",
		"vec2Length":  "vec2-length",
		"already-ok":  "already-ok",
		"HTTPHandler": "httphandler",
	}
	for in, want := range tests {
		assert.Equal(t, want, kebab(in), in)
	}
}
