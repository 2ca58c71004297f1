package manifest

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/slang/errors"
	"github.com/wippyai/slang/module"
)

const sample = `imports:
  - name: geo
    type: package
  - name: helper
    type: function
    package: 0
exports:
  - name: pi
    type: constant
    constant: 0
  - name: Circle
    type: type
    struct:
      flags: [allow-cast]
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
      offset: 4
      size: 12
      locals: [f32, "i32[]"]
  - name: print
    type: function
    function:
      return: void
      args: [str]
      native: io
constants:
  - type: f32
    value: 3.14
  - type: i32
    value: -7
  - type: str
    value: hello
body: 00ff10
`

func TestDocumentToModule(t *testing.T) {
	d, err := Unmarshal([]byte(sample))
	require.NoError(t, err)

	m, err := d.Module()
	require.NoError(t, err)

	assert.Equal(t, []byte{0x00, 0xff, 0x10}, m.Body)
	assert.Equal(t, []string{"geo"}, m.Header.Packages())
	assert.Equal(t, uint32(0), m.Header.Imports[1].PackageIndex)
	assert.Equal(t, []module.Constant{module.F32(3.14), module.I32(-7), module.Str("hello")}, m.Header.Constants)

	circle, ok := m.Header.Export(module.TypeSymbol, "Circle")
	require.True(t, ok)
	desc, ok := circle.Struct()
	require.True(t, ok)
	assert.Equal(t, module.StructAllowCast, desc.Flags)
	assert.True(t, desc.Members[0].Type.Equal(module.StructType("Point", module.Index(0))))

	area, ok := m.Header.Export(module.FunctionSymbol, "area")
	require.True(t, ok)
	fn, _ := area.Function()
	assert.Equal(t, module.BytecodeDetails{
		Offset: 4,
		Size:   12,
		Locals: []module.VariableType{module.Builtin(module.F32Type), module.ArrayOf(module.I32Type, nil)},
	}, fn.Details)

	printer, ok := m.Header.Export(module.FunctionSymbol, "print")
	require.True(t, ok)
	fn, _ = printer.Function()
	assert.True(t, fn.IsNative())
}

func TestModuleRoundTrip(t *testing.T) {
	d, err := Unmarshal([]byte(sample))
	require.NoError(t, err)
	m, err := d.Module()
	require.NoError(t, err)

	data, err := m.MarshalBinary()
	require.NoError(t, err)
	var decoded module.Module
	require.NoError(t, decoded.UnmarshalBinary(data))

	back, err := FromModule(&decoded)
	require.NoError(t, err)
	assert.Equal(t, d, back)

	out, err := Marshal(back)
	require.NoError(t, err)
	again, err := Unmarshal(out)
	require.NoError(t, err)
	assert.Equal(t, d, again)
}

func TestParseType(t *testing.T) {
	tests := []struct {
		in   string
		want module.VariableType
	}{
		{"i32", module.Builtin(module.I32Type)},
		{"str[]", module.ArrayOf(module.StrType, nil)},
		{"Point@2", module.StructType("Point", module.Index(2))},
		{"Point[]@0", module.ArrayOf("Point", module.Index(0))},
	}
	for _, tt := range tests {
		got, err := ParseType(tt.in)
		require.NoError(t, err, tt.in)
		assert.True(t, got.Equal(tt.want), tt.in)
		assert.Equal(t, tt.in, FormatType(got))
	}

	for _, bad := range []string{"", "void[]", "i32[][]", "P@x", "P@-1", "a;b"} {
		_, err := ParseType(bad)
		assert.Error(t, err, bad)
	}
}

func TestDocumentErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown key", "exports: []\nextra: 1\n"},
		{"symbol type", "imports:\n  - name: x\n    type: macro\n"},
		{"missing payload", "exports:\n  - name: f\n    type: function\n"},
		{"constant range", "exports:\n  - name: c\n    type: constant\n    constant: 3\n"},
		{"constant value", "constants:\n  - type: i32\n    value: hello\n"},
		{"i32 overflow", "constants:\n  - type: i32\n    value: 4294967296\n"},
		{"struct flag", "exports:\n  - name: S\n    type: type\n    struct:\n      flags: [packed]\n"},
		{"body", "body: xyz\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Unmarshal([]byte(tt.doc))
			if err == nil {
				_, err = d.Module()
			}
			require.Error(t, err)
			var e *errors.Error
			assert.True(t, stderrors.As(err, &e), "got %T", err)
		})
	}
}

func TestEmptyDocument(t *testing.T) {
	d, err := Unmarshal(nil)
	require.NoError(t, err)
	m, err := d.Module()
	require.NoError(t, err)
	assert.Empty(t, m.Header.Exports)
	assert.Empty(t, m.Body)
}
