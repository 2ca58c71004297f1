// Package manifest converts compiled modules to and from a YAML document
// that is convenient to read and to write by hand.
//
// Types are written as "name", "name[]" and "name@N", where N is an index
// into the import table.
package manifest

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wippyai/slang/errors"
	"github.com/wippyai/slang/module"
)

// Document is the YAML form of a module.
type Document struct {
	Imports   []Import   `yaml:"imports,omitempty"`
	Exports   []Export   `yaml:"exports,omitempty"`
	Constants []Constant `yaml:"constants,omitempty"`
	Body      string     `yaml:"body,omitempty"`
}

// Import is an import table entry.
type Import struct {
	Package *uint32 `yaml:"package,omitempty"`
	Name    string  `yaml:"name"`
	Type    string  `yaml:"type"`
}

// Export is an export table entry. Exactly one payload matches Type;
// package exports carry none.
type Export struct {
	Constant *int      `yaml:"constant,omitempty"`
	Function *Function `yaml:"function,omitempty"`
	Struct   *Struct   `yaml:"struct,omitempty"`
	Name     string    `yaml:"name"`
	Type     string    `yaml:"type"`
}

// Function is a function signature with its location.
type Function struct {
	Return string   `yaml:"return"`
	Args   []string `yaml:"args,omitempty"`
	Native string   `yaml:"native,omitempty"`
	Locals []string `yaml:"locals,omitempty"`
	Offset int      `yaml:"offset,omitempty"`
	Size   int      `yaml:"size,omitempty"`
}

// Struct is a struct layout.
type Struct struct {
	Flags   []string `yaml:"flags,flow,omitempty"`
	Members []Member `yaml:"members,omitempty"`
}

// Member is a struct field.
type Member struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// Constant is a constant table entry.
type Constant struct {
	Value any    `yaml:"value"`
	Type  string `yaml:"type"`
}

var structFlagNames = []struct {
	flag module.StructFlags
	name string
}{
	{module.StructAllowCast, "allow-cast"},
	{module.StructNative, "native"},
}

func invalid(path []string, format string, args ...any) error {
	return errors.New(errors.PhaseDecode, errors.KindInvalidData).
		Path(path...).
		Detail(format, args...).
		Build()
}

// FormatType writes a variable type in manifest notation.
func FormatType(v module.VariableType) string {
	s := v.Base
	if v.Array {
		s += "[]"
	}
	if v.ImportIndex != nil {
		s += "@" + strconv.Itoa(*v.ImportIndex)
	}
	return s
}

// ParseType reads a variable type in manifest notation.
func ParseType(s string) (module.VariableType, error) {
	var v module.VariableType
	if at := strings.LastIndexByte(s, '@'); at >= 0 {
		idx, err := strconv.Atoi(s[at+1:])
		if err != nil || idx < 0 {
			return v, invalid(nil, "bad import index in type %q", s)
		}
		v.ImportIndex = module.Index(idx)
		s = s[:at]
	}
	if base, ok := strings.CutSuffix(s, "[]"); ok {
		v.Array = true
		s = base
	}
	if strings.ContainsAny(s, "[]@") {
		return module.VariableType{}, invalid(nil, "bad type %q", s)
	}
	v.Base = s
	if err := v.Validate(); err != nil {
		return module.VariableType{}, err
	}
	return v, nil
}

func formatTypes(types []module.VariableType) []string {
	if len(types) == 0 {
		return nil
	}
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = FormatType(t)
	}
	return out
}

func parseTypes(path []string, in []string) ([]module.VariableType, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make([]module.VariableType, len(in))
	for i, s := range in {
		t, err := ParseType(s)
		if err != nil {
			return nil, errors.Wrap(errors.PhaseDecode, errors.KindInvalidData, err, strings.Join(append(path, strconv.Itoa(i)), "."))
		}
		out[i] = t
	}
	return out, nil
}

// FromModule builds the document of m.
func FromModule(m *module.Module) (*Document, error) {
	d := &Document{Body: hex.EncodeToString(m.Body)}

	for _, imp := range m.Header.Imports {
		entry := Import{Name: imp.Name, Type: imp.Type.String()}
		if imp.HasPackage() {
			pkg := imp.PackageIndex
			entry.Package = &pkg
		}
		d.Imports = append(d.Imports, entry)
	}

	for i := range m.Header.Exports {
		exp := &m.Header.Exports[i]
		entry := Export{Name: exp.Name, Type: exp.Type.String()}
		switch desc := exp.Desc.(type) {
		case module.ConstantIndex:
			idx := int(desc)
			entry.Constant = &idx
		case *module.FunctionDescriptor:
			entry.Function = fromFunction(desc)
		case *module.StructDescriptor:
			entry.Struct = fromStruct(desc)
		case nil:
		default:
			return nil, errors.Unsupported(errors.PhaseEncode, fmt.Sprintf("export payload %T", desc))
		}
		d.Exports = append(d.Exports, entry)
	}

	for _, c := range m.Header.Constants {
		entry := Constant{Type: c.Type.String(), Value: c.Data}
		switch v := c.Data.(type) {
		case int32:
			entry.Value = int(v)
		case float32:
			// Widen through the shortest decimal form so 3.14 stays 3.14.
			entry.Value, _ = strconv.ParseFloat(strconv.FormatFloat(float64(v), 'g', -1, 32), 64)
		}
		d.Constants = append(d.Constants, entry)
	}
	return d, nil
}

func fromFunction(desc *module.FunctionDescriptor) *Function {
	f := &Function{
		Return: FormatType(desc.Signature.Return),
		Args:   formatTypes(desc.Signature.Args),
	}
	switch details := desc.Details.(type) {
	case module.NativeDetails:
		f.Native = details.Library
	case module.BytecodeDetails:
		f.Offset = details.Offset
		f.Size = details.Size
		f.Locals = formatTypes(details.Locals)
	}
	return f
}

func fromStruct(desc *module.StructDescriptor) *Struct {
	s := &Struct{}
	for _, fl := range structFlagNames {
		if desc.Flags&fl.flag != 0 {
			s.Flags = append(s.Flags, fl.name)
		}
	}
	for _, m := range desc.Members {
		s.Members = append(s.Members, Member{Name: m.Name, Type: FormatType(m.Type)})
	}
	return s
}

// Module builds the module described by d and validates it.
func (d *Document) Module() (*module.Module, error) {
	m := module.New()

	for i, imp := range d.Imports {
		t, err := module.ParseSymbolType(imp.Type)
		if err != nil {
			return nil, errors.Wrap(errors.PhaseDecode, errors.KindInvalidData, err, "imports."+strconv.Itoa(i))
		}
		pkg := module.NoPackage
		if imp.Package != nil {
			pkg = *imp.Package
		}
		m.Header.Imports = append(m.Header.Imports, module.ImportedSymbol{Name: imp.Name, Type: t, PackageIndex: pkg})
	}

	for i, exp := range d.Exports {
		path := []string{"exports", strconv.Itoa(i)}
		sym, err := toExport(path, exp)
		if err != nil {
			return nil, err
		}
		m.Header.Exports = append(m.Header.Exports, sym)
	}

	for i, c := range d.Constants {
		constant, err := toConstant([]string{"constants", strconv.Itoa(i)}, c)
		if err != nil {
			return nil, err
		}
		m.Header.Constants = append(m.Header.Constants, constant)
	}

	body, err := hex.DecodeString(d.Body)
	if err != nil {
		return nil, invalid([]string{"body"}, "body is not hex: %v", err)
	}
	m.SetBody(body)

	if err := m.Header.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func toExport(path []string, exp Export) (module.ExportedSymbol, error) {
	t, err := module.ParseSymbolType(exp.Type)
	if err != nil {
		return module.ExportedSymbol{}, errors.Wrap(errors.PhaseDecode, errors.KindInvalidData, err, strings.Join(path, "."))
	}
	sym := module.ExportedSymbol{Name: exp.Name, Type: t}

	switch t {
	case module.ConstantSymbol:
		if exp.Constant == nil {
			return sym, invalid(path, "constant export %q without index", exp.Name)
		}
		sym.Desc = module.ConstantIndex(*exp.Constant)
	case module.FunctionSymbol:
		if exp.Function == nil {
			return sym, invalid(path, "function export %q without signature", exp.Name)
		}
		desc, err := toFunction(append(path, "function"), exp.Function)
		if err != nil {
			return sym, err
		}
		sym.Desc = desc
	case module.TypeSymbol:
		if exp.Struct == nil {
			return sym, invalid(path, "type export %q without struct", exp.Name)
		}
		desc, err := toStruct(append(path, "struct"), exp.Struct)
		if err != nil {
			return sym, err
		}
		sym.Desc = desc
	}
	return sym, nil
}

func toFunction(path []string, f *Function) (*module.FunctionDescriptor, error) {
	ret, err := ParseType(f.Return)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseDecode, errors.KindInvalidData, err, strings.Join(append(path, "return"), "."))
	}
	args, err := parseTypes(append(path, "args"), f.Args)
	if err != nil {
		return nil, err
	}
	desc := &module.FunctionDescriptor{Signature: module.Signature{Return: ret, Args: args}}
	if f.Native != "" {
		desc.Details = module.NativeDetails{Library: f.Native}
		return desc, nil
	}
	locals, err := parseTypes(append(path, "locals"), f.Locals)
	if err != nil {
		return nil, err
	}
	desc.Details = module.BytecodeDetails{Offset: f.Offset, Size: f.Size, Locals: locals}
	return desc, nil
}

func toStruct(path []string, s *Struct) (*module.StructDescriptor, error) {
	desc := &module.StructDescriptor{}
flags:
	for _, name := range s.Flags {
		for _, fl := range structFlagNames {
			if fl.name == name {
				desc.Flags |= fl.flag
				continue flags
			}
		}
		return nil, invalid(path, "unknown struct flag %q", name)
	}
	for i, m := range s.Members {
		t, err := ParseType(m.Type)
		if err != nil {
			return nil, errors.Wrap(errors.PhaseDecode, errors.KindInvalidData, err, strings.Join(append(path, strconv.Itoa(i)), "."))
		}
		desc.Members = append(desc.Members, module.Member{Name: m.Name, Type: t})
	}
	return desc, nil
}

func toConstant(path []string, c Constant) (module.Constant, error) {
	t, err := module.ParseConstantType(c.Type)
	if err != nil {
		return module.Constant{}, errors.Wrap(errors.PhaseDecode, errors.KindInvalidData, err, strings.Join(path, "."))
	}
	switch t {
	case module.ConstI32:
		if v, ok := c.Value.(int); ok && v >= math.MinInt32 && v <= math.MaxInt32 {
			return module.I32(int32(v)), nil
		}
	case module.ConstF32:
		switch v := c.Value.(type) {
		case float64:
			return module.F32(float32(v)), nil
		case int:
			return module.F32(float32(v)), nil
		}
	case module.ConstStr:
		if v, ok := c.Value.(string); ok {
			return module.Str(v), nil
		}
	}
	return module.Constant{}, invalid(path, "%v is not a valid %s value", c.Value, t)
}

// Marshal encodes d as YAML.
func Marshal(d *Document) ([]byte, error) {
	return yaml.Marshal(d)
}

// Unmarshal decodes a YAML document. Unknown keys are rejected.
func Unmarshal(data []byte) (*Document, error) {
	d := &Document{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(d); err != nil && err != io.EOF {
		return nil, errors.Wrap(errors.PhaseDecode, errors.KindInvalidData, err, "manifest")
	}
	return d, nil
}
