package module

import (
	"math"
	"strconv"
	"strings"

	"github.com/wippyai/slang/errors"
)

// Binary format constants.
const (
	// Tag identifies a module stream ("sl2c" read as a little-endian word).
	Tag uint32 = 0x63326c73

	// NoPackage is the package index of an import that is not qualified
	// by a package.
	NoPackage uint32 = math.MaxUint32

	// Extension is the file extension of compiled modules.
	Extension = "cmod"
)

// SymbolType is the kind of an imported or exported symbol.
type SymbolType uint8

const (
	PackageSymbol SymbolType = iota
	FunctionSymbol
	TypeSymbol
	ConstantSymbol

	lastSymbolType = ConstantSymbol
)

func (s SymbolType) String() string {
	switch s {
	case PackageSymbol:
		return "package"
	case FunctionSymbol:
		return "function"
	case TypeSymbol:
		return "type"
	case ConstantSymbol:
		return "constant"
	}
	return "symbol(" + strconv.Itoa(int(s)) + ")"
}

// ParseSymbolType parses the String form of a symbol type.
func ParseSymbolType(s string) (SymbolType, error) {
	for t := PackageSymbol; t <= lastSymbolType; t++ {
		if t.String() == s {
			return t, nil
		}
	}
	return 0, errors.InvalidEnum(errors.PhaseDecode, nil, s, "symbol type")
}

// ConstantType is the type of a constant table entry.
type ConstantType uint8

const (
	ConstI32 ConstantType = iota
	ConstF32
	ConstStr

	lastConstantType = ConstStr
)

func (c ConstantType) String() string {
	switch c {
	case ConstI32:
		return "i32"
	case ConstF32:
		return "f32"
	case ConstStr:
		return "str"
	}
	return "constant(" + strconv.Itoa(int(c)) + ")"
}

// ParseConstantType parses the String form of a constant type.
func ParseConstantType(s string) (ConstantType, error) {
	for t := ConstI32; t <= lastConstantType; t++ {
		if t.String() == s {
			return t, nil
		}
	}
	return 0, errors.InvalidEnum(errors.PhaseDecode, nil, s, "constant type")
}

// Constant is an entry of the constant table. Data holds an int32, a
// float32 or a string according to Type.
type Constant struct {
	Data any
	Type ConstantType
}

func I32(v int32) Constant   { return Constant{Type: ConstI32, Data: v} }
func F32(v float32) Constant { return Constant{Type: ConstF32, Data: v} }
func Str(v string) Constant  { return Constant{Type: ConstStr, Data: v} }

// Validate checks that Data matches Type.
func (c Constant) Validate() error {
	ok := false
	switch c.Type {
	case ConstI32:
		_, ok = c.Data.(int32)
	case ConstF32:
		_, ok = c.Data.(float32)
	case ConstStr:
		_, ok = c.Data.(string)
	default:
		return errors.InvalidEnum(errors.PhaseEncode, []string{"constant"}, uint8(c.Type), "constant type")
	}
	if !ok {
		return errors.New(errors.PhaseEncode, errors.KindTypeMismatch).
			Path("constant").
			Value(c.Data).
			Detail("%s constant holds %T", c.Type, c.Data).
			Build()
	}
	return nil
}

func (c Constant) String() string {
	switch v := c.Data.(type) {
	case int32:
		return "i32 " + strconv.FormatInt(int64(v), 10)
	case float32:
		return "f32 " + strconv.FormatFloat(float64(v), 'g', -1, 32)
	case string:
		return "str " + strconv.Quote(v)
	}
	return c.Type.String() + " <invalid>"
}

// Built-in type names.
const (
	VoidType = "void"
	I32Type  = "i32"
	F32Type  = "f32"
	StrType  = "str"
)

var builtinCodes = []struct {
	name string
	code byte
}{
	{VoidType, 'v'},
	{I32Type, 'i'},
	{F32Type, 'f'},
	{StrType, 's'},
}

const (
	arrayPrefix  = '['
	structPrefix = 'C'
	structSuffix = ';'
)

// IsBuiltin reports whether name is a built-in type.
func IsBuiltin(name string) bool {
	for _, b := range builtinCodes {
		if b.name == name {
			return true
		}
	}
	return false
}

// VariableType references a type from a module: a built-in or struct base
// name, an array flag and, for struct types declared in another package,
// the index of that package in the import table.
type VariableType struct {
	ImportIndex *int
	Base        string
	Array       bool
}

// Builtin returns a scalar built-in type.
func Builtin(name string) VariableType {
	return VariableType{Base: name}
}

// ArrayOf returns an array of base.
func ArrayOf(base string, importIndex *int) VariableType {
	return VariableType{Base: base, Array: true, ImportIndex: importIndex}
}

// StructType returns a struct type, optionally qualified by an import index.
func StructType(name string, importIndex *int) VariableType {
	return VariableType{Base: name, ImportIndex: importIndex}
}

// Index returns a pointer to i, for import indices in literals.
func Index(i int) *int {
	return &i
}

// IsBuiltin reports whether the base type is built in.
func (v VariableType) IsBuiltin() bool {
	return IsBuiltin(v.Base)
}

// IsStruct reports whether the base type names a struct.
func (v VariableType) IsStruct() bool {
	return !IsBuiltin(v.Base)
}

func (v VariableType) String() string {
	s := v.Base
	if v.Array {
		s += "[]"
	}
	if v.ImportIndex != nil {
		s += "@" + strconv.Itoa(*v.ImportIndex)
	}
	return s
}

// Equal compares two variable types including the import index.
func (v VariableType) Equal(o VariableType) bool {
	if v.Base != o.Base || v.Array != o.Array {
		return false
	}
	if v.ImportIndex == nil || o.ImportIndex == nil {
		return v.ImportIndex == o.ImportIndex
	}
	return *v.ImportIndex == *o.ImportIndex
}

// Validate checks the type can be represented in the binary format.
func (v VariableType) Validate() error {
	if v.Base == "" {
		return errors.InvalidData(errors.PhaseEncode, []string{"type"}, "empty type name")
	}
	if strings.ContainsRune(v.Base, structSuffix) || v.Base[0] == arrayPrefix {
		return errors.InvalidData(errors.PhaseEncode, []string{"type"}, "invalid type name "+strconv.Quote(v.Base))
	}
	if v.Array && v.Base == VoidType {
		return errors.InvalidData(errors.PhaseEncode, []string{"type"}, "array of void")
	}
	if v.ImportIndex != nil && *v.ImportIndex < 0 {
		return errors.OutOfBounds(errors.PhaseEncode, []string{"type", v.Base}, *v.ImportIndex, 0)
	}
	return nil
}

// TypeString returns the encoded type string: '[' for arrays followed by
// a built-in code or "C<name>;".
func (v VariableType) TypeString() (string, error) {
	if err := v.Validate(); err != nil {
		return "", err
	}
	var b strings.Builder
	if v.Array {
		b.WriteByte(arrayPrefix)
	}
	for _, bc := range builtinCodes {
		if bc.name == v.Base {
			b.WriteByte(bc.code)
			return b.String(), nil
		}
	}
	b.WriteByte(structPrefix)
	b.WriteString(v.Base)
	b.WriteByte(structSuffix)
	return b.String(), nil
}

// ParseTypeString decodes a type string produced by TypeString. The
// import index is not part of the string.
func ParseTypeString(s string) (VariableType, error) {
	var v VariableType
	rest := s
	if strings.HasPrefix(rest, string(arrayPrefix)) {
		v.Array = true
		rest = rest[1:]
	}
	if strings.HasPrefix(rest, string(arrayPrefix)) {
		return v, errors.Unsupported(errors.PhaseDecode, "nested array type "+strconv.Quote(s))
	}

	if len(rest) == 1 {
		for _, bc := range builtinCodes {
			if bc.code == rest[0] {
				v.Base = bc.name
				if v.Array && v.Base == VoidType {
					return v, errors.InvalidData(errors.PhaseDecode, []string{"type"}, "array of void")
				}
				return v, nil
			}
		}
	}

	if len(rest) >= 3 && rest[0] == structPrefix && rest[len(rest)-1] == structSuffix {
		name := rest[1 : len(rest)-1]
		if !strings.ContainsRune(name, structSuffix) && !IsBuiltin(name) {
			v.Base = name
			return v, nil
		}
	}
	return v, errors.InvalidData(errors.PhaseDecode, []string{"type"}, "cannot decode type "+strconv.Quote(s))
}
