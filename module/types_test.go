package module

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/wippyai/slang/archive"
	"github.com/wippyai/slang/errors"
)

func TestTypeString(t *testing.T) {
	tests := []struct {
		typ  VariableType
		want string
	}{
		{Builtin(VoidType), "v"},
		{Builtin(I32Type), "i"},
		{Builtin(F32Type), "f"},
		{Builtin(StrType), "s"},
		{ArrayOf(I32Type, nil), "[i"},
		{StructType("Point", nil), "CPoint;"},
		{ArrayOf("Point", Index(2)), "[CPoint;"},
	}

	for _, tt := range tests {
		got, err := tt.typ.TypeString()
		if err != nil {
			t.Fatalf("%v: %v", tt.typ, err)
		}
		if got != tt.want {
			t.Errorf("%v: got %q, want %q", tt.typ, got, tt.want)
		}

		parsed, err := ParseTypeString(got)
		if err != nil {
			t.Fatalf("parse %q: %v", got, err)
		}
		if parsed.Base != tt.typ.Base || parsed.Array != tt.typ.Array {
			t.Errorf("parse %q: got %v", got, parsed)
		}
	}
}

func TestParseTypeStringErrors(t *testing.T) {
	tests := []struct {
		in   string
		kind errors.Kind
	}{
		{"", errors.KindInvalidData},
		{"x", errors.KindInvalidData},
		{"[[i", errors.KindUnsupported},
		{"[v", errors.KindInvalidData},
		{"C;", errors.KindInvalidData},
		{"CPoint", errors.KindInvalidData},
		{"Ci32;", errors.KindInvalidData},
		{"Ca;b;", errors.KindInvalidData},
	}
	for _, tt := range tests {
		_, err := ParseTypeString(tt.in)
		if !isKind(err, errors.PhaseDecode, tt.kind) {
			t.Errorf("%q: got %v, want %s", tt.in, err, tt.kind)
		}
	}
}

func TestVariableTypeValidate(t *testing.T) {
	bad := []VariableType{
		{},
		{Base: "a;b"},
		{Base: "[x"},
		{Base: VoidType, Array: true},
		{Base: "S", ImportIndex: Index(-1)},
	}
	for _, v := range bad {
		if err := v.Validate(); err == nil {
			t.Errorf("%+v: expected error", v)
		}
	}
}

func TestTranscodeVariableType(t *testing.T) {
	tests := []VariableType{
		Builtin(I32Type),
		ArrayOf(StrType, nil),
		StructType("Vec", Index(0)),
		ArrayOf("Vec", Index(300)),
	}
	for _, in := range tests {
		w, buf := archive.NewBufferWriter(binary.LittleEndian)
		v := in
		if err := TranscodeVariableType(w, &v); err != nil {
			t.Fatalf("write %v: %v", in, err)
		}
		var out VariableType
		if err := TranscodeVariableType(archive.NewReader(bytes.NewReader(buf.Bytes()), binary.LittleEndian), &out); err != nil {
			t.Fatalf("read %v: %v", in, err)
		}
		if !out.Equal(in) {
			t.Errorf("got %v, want %v", out, in)
		}
	}
}

func TestVariableTypeString(t *testing.T) {
	if got := ArrayOf("Vec", Index(1)).String(); got != "Vec[]@1" {
		t.Errorf("got %q", got)
	}
	if !Builtin(StrType).IsBuiltin() || StructType("S", nil).IsBuiltin() {
		t.Error("IsBuiltin")
	}
	if !StructType("S", nil).IsStruct() {
		t.Error("IsStruct")
	}
	if Builtin(I32Type).Equal(StructType(I32Type, Index(0))) {
		t.Error("Equal should compare import indices")
	}
}

func TestParseEnums(t *testing.T) {
	for s := PackageSymbol; s <= lastSymbolType; s++ {
		got, err := ParseSymbolType(s.String())
		if err != nil || got != s {
			t.Errorf("ParseSymbolType(%q) = %v, %v", s, got, err)
		}
	}
	if _, err := ParseSymbolType("macro"); err == nil {
		t.Error("expected error for unknown symbol type")
	}
	for c := ConstI32; c <= lastConstantType; c++ {
		got, err := ParseConstantType(c.String())
		if err != nil || got != c {
			t.Errorf("ParseConstantType(%q) = %v, %v", c, got, err)
		}
	}
	if SymbolType(9).String() != "symbol(9)" {
		t.Errorf("got %q", SymbolType(9).String())
	}
}
