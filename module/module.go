package module

import (
	"strconv"

	"github.com/wippyai/slang/errors"
)

// Header holds a module's import, export and constant tables.
type Header struct {
	Imports   []ImportedSymbol
	Exports   []ExportedSymbol
	Constants []Constant
}

// Module is a compiled module: its header and the opaque body.
type Module struct {
	Body   []byte
	Header Header
}

// New creates an empty module.
func New() *Module {
	return &Module{}
}

// AddImport adds an import and returns its index. An import with the same
// type and name is reused.
func (m *Module) AddImport(t SymbolType, name string, packageIndex uint32) int {
	for i, imp := range m.Header.Imports {
		if imp.Type == t && imp.Name == name {
			return i
		}
	}
	m.Header.Imports = append(m.Header.Imports, ImportedSymbol{
		Type:         t,
		Name:         name,
		PackageIndex: packageIndex,
	})
	return len(m.Header.Imports) - 1
}

// AddPackage adds a package import and returns its index.
func (m *Module) AddPackage(name string) int {
	return m.AddImport(PackageSymbol, name, NoPackage)
}

func (m *Module) checkExport(t SymbolType, name string) error {
	if name == "" {
		return errors.InvalidInput(errors.PhaseEncode, "empty "+t.String()+" name")
	}
	if _, ok := m.Header.Export(t, name); ok {
		return errors.Duplicate(errors.PhaseEncode, t.String(), name)
	}
	return nil
}

// AddFunction exports a bytecode function located at offset in the body.
func (m *Module) AddFunction(name string, ret VariableType, args []VariableType, offset, size int, locals []VariableType) error {
	if err := m.checkExport(FunctionSymbol, name); err != nil {
		return err
	}
	m.Header.Exports = append(m.Header.Exports, ExportedSymbol{
		Type: FunctionSymbol,
		Name: name,
		Desc: &FunctionDescriptor{
			Signature: Signature{Return: ret, Args: args},
			Details:   BytecodeDetails{Offset: offset, Size: size, Locals: locals},
		},
	})
	return nil
}

// AddNativeFunction exports a function implemented by a native library.
func (m *Module) AddNativeFunction(name string, ret VariableType, args []VariableType, library string) error {
	if err := m.checkExport(FunctionSymbol, name); err != nil {
		return err
	}
	m.Header.Exports = append(m.Header.Exports, ExportedSymbol{
		Type: FunctionSymbol,
		Name: name,
		Desc: &FunctionDescriptor{
			Signature: Signature{Return: ret, Args: args},
			Details:   NativeDetails{Library: library},
		},
	})
	return nil
}

// AddStruct exports a struct type.
func (m *Module) AddStruct(name string, members []Member, flags StructFlags) error {
	if err := m.checkExport(TypeSymbol, name); err != nil {
		return err
	}
	if flags&^structFlagsMask != 0 {
		return errors.InvalidData(errors.PhaseEncode, []string{"struct", name}, "unknown struct flags "+strconv.Itoa(int(flags)))
	}
	m.Header.Exports = append(m.Header.Exports, ExportedSymbol{
		Type: TypeSymbol,
		Name: name,
		Desc: &StructDescriptor{Members: members, Flags: flags},
	})
	return nil
}

// AddConstant exports the constant table entry at index under name.
func (m *Module) AddConstant(name string, index int) error {
	if err := m.checkExport(ConstantSymbol, name); err != nil {
		return err
	}
	m.Header.Exports = append(m.Header.Exports, ExportedSymbol{
		Type: ConstantSymbol,
		Name: name,
		Desc: ConstantIndex(index),
	})
	return nil
}

// AddConstantValue appends c to the constant table and exports it.
func (m *Module) AddConstantValue(name string, c Constant) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := m.AddConstant(name, len(m.Header.Constants)); err != nil {
		return err
	}
	m.Header.Constants = append(m.Header.Constants, c)
	return nil
}

// SetConstants replaces the constant table.
func (m *Module) SetConstants(constants []Constant) {
	m.Header.Constants = constants
}

// SetBody replaces the module body.
func (m *Module) SetBody(body []byte) {
	m.Body = body
}

// Export finds an export by type and name.
func (h *Header) Export(t SymbolType, name string) (*ExportedSymbol, bool) {
	for i := range h.Exports {
		if h.Exports[i].Type == t && h.Exports[i].Name == name {
			return &h.Exports[i], true
		}
	}
	return nil, false
}

// Import returns the import at index.
func (h *Header) Import(index int) (ImportedSymbol, error) {
	if index < 0 || index >= len(h.Imports) {
		return ImportedSymbol{}, errors.OutOfBounds(errors.PhaseLinking, []string{"imports"}, index, len(h.Imports))
	}
	return h.Imports[index], nil
}

// Constant returns the constant table entry at index.
func (h *Header) Constant(index ConstantIndex) (Constant, error) {
	i := int(index)
	if i < 0 || i >= len(h.Constants) {
		return Constant{}, errors.OutOfBounds(errors.PhaseLinking, []string{"constants"}, i, len(h.Constants))
	}
	return h.Constants[i], nil
}

// Packages returns the names of all package imports in table order.
func (h *Header) Packages() []string {
	var names []string
	for _, imp := range h.Imports {
		if imp.Type == PackageSymbol {
			names = append(names, imp.Name)
		}
	}
	return names
}

// Validate checks the header for structural consistency: descriptors match
// their symbol types, indices are in range, constants are well typed.
// Whether a type's import index designates a package is checked at link
// time.
func (h *Header) Validate() error {
	for i, imp := range h.Imports {
		if imp.Type > lastSymbolType {
			return errors.InvalidEnum(errors.PhaseEncode, []string{"imports", strconv.Itoa(i)}, uint8(imp.Type), "symbol type")
		}
		if imp.HasPackage() && int(imp.PackageIndex) >= len(h.Imports) {
			return errors.OutOfBounds(errors.PhaseEncode, []string{"imports", imp.Name}, int(imp.PackageIndex), len(h.Imports))
		}
	}

	for i := range h.Exports {
		if err := h.validateExport(&h.Exports[i]); err != nil {
			return err
		}
	}

	for i, c := range h.Constants {
		if err := c.Validate(); err != nil {
			return errors.Wrap(errors.PhaseEncode, errors.KindInvalidData, err, "constant "+strconv.Itoa(i))
		}
	}
	return nil
}

func (h *Header) validateExport(s *ExportedSymbol) error {
	path := []string{"exports", s.Name}
	if s.Type > lastSymbolType {
		return errors.InvalidEnum(errors.PhaseEncode, path, uint8(s.Type), "symbol type")
	}
	if s.Type == PackageSymbol {
		if s.Desc != nil {
			return errors.InvalidData(errors.PhaseEncode, path, "package export with payload")
		}
		return nil
	}
	mismatch := errors.New(errors.PhaseEncode, errors.KindTypeMismatch).
		Path(path...).
		Symbol(s.Name).
		Detail("%s export with %T payload", s.Type, s.Desc)
	if s.Desc == nil || s.Desc.symbolType() != s.Type {
		return mismatch.Build()
	}

	switch d := s.Desc.(type) {
	case ConstantIndex:
		if int(d) < 0 || int(d) >= len(h.Constants) {
			return errors.OutOfBounds(errors.PhaseEncode, path, int(d), len(h.Constants))
		}
	case *FunctionDescriptor:
		if d == nil {
			return mismatch.Detail("%s export with nil function descriptor", s.Type).Build()
		}
		if d.Details == nil {
			return errors.InvalidData(errors.PhaseEncode, path, "function without details")
		}
		types := append([]VariableType{d.Signature.Return}, d.Signature.Args...)
		if bc, ok := d.Details.(BytecodeDetails); ok {
			types = append(types, bc.Locals...)
		}
		for _, t := range types {
			if err := t.Validate(); err != nil {
				return errors.Wrap(errors.PhaseEncode, errors.KindInvalidData, err, "function "+s.Name)
			}
		}
	case *StructDescriptor:
		if d == nil {
			return mismatch.Detail("%s export with nil struct descriptor", s.Type).Build()
		}
		if d.Flags&^structFlagsMask != 0 {
			return errors.InvalidData(errors.PhaseEncode, path, "unknown struct flags "+strconv.Itoa(int(d.Flags)))
		}
		for _, m := range d.Members {
			if err := m.Type.Validate(); err != nil {
				return errors.Wrap(errors.PhaseEncode, errors.KindInvalidData, err, "member "+s.Name+"."+m.Name)
			}
		}
	}
	return nil
}
