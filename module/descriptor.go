package module

// Signature is a function's return and argument types.
type Signature struct {
	Return VariableType
	Args   []VariableType
}

// FunctionDetails describes where a function's implementation lives. It
// is either BytecodeDetails or NativeDetails.
type FunctionDetails interface {
	isFunctionDetails()
}

// BytecodeDetails locates a function in the module body.
type BytecodeDetails struct {
	Locals []VariableType
	Offset int
	Size   int
}

// NativeDetails names the library providing a native function.
type NativeDetails struct {
	Library string
}

func (BytecodeDetails) isFunctionDetails() {}
func (NativeDetails) isFunctionDetails()   {}

// FunctionDescriptor is the export payload of a function.
type FunctionDescriptor struct {
	Details   FunctionDetails
	Signature Signature
}

// IsNative reports whether the function is implemented by a native library.
func (d *FunctionDescriptor) IsNative() bool {
	_, ok := d.Details.(NativeDetails)
	return ok
}

// StructFlags are attributes of an exported struct.
type StructFlags uint8

const (
	StructAllowCast StructFlags = 1 << iota
	StructNative

	structFlagsMask = StructAllowCast | StructNative
)

// Member is a named struct field.
type Member struct {
	Name string
	Type VariableType
}

// StructDescriptor is the export payload of a struct type. Members keep
// declaration order.
type StructDescriptor struct {
	Members []Member
	Flags   StructFlags
}

// Descriptor is the payload of an exported symbol: a ConstantIndex, a
// *FunctionDescriptor or a *StructDescriptor. Package exports carry none.
type Descriptor interface {
	symbolType() SymbolType
}

// ConstantIndex refers to an entry of the constant table.
type ConstantIndex int

func (ConstantIndex) symbolType() SymbolType       { return ConstantSymbol }
func (*FunctionDescriptor) symbolType() SymbolType { return FunctionSymbol }
func (*StructDescriptor) symbolType() SymbolType   { return TypeSymbol }

// ImportedSymbol is an entry of the import table. PackageIndex is the
// index of the package import the symbol belongs to, or NoPackage.
type ImportedSymbol struct {
	Name         string
	PackageIndex uint32
	Type         SymbolType
}

// HasPackage reports whether the import is qualified by a package.
func (s ImportedSymbol) HasPackage() bool {
	return s.PackageIndex != NoPackage
}

// ExportedSymbol is an entry of the export table.
type ExportedSymbol struct {
	Desc Descriptor
	Name string
	Type SymbolType
}

// Function returns the function payload, if the export is a function.
func (s *ExportedSymbol) Function() (*FunctionDescriptor, bool) {
	d, ok := s.Desc.(*FunctionDescriptor)
	return d, ok && d != nil
}

// Struct returns the struct payload, if the export is a type.
func (s *ExportedSymbol) Struct() (*StructDescriptor, bool) {
	d, ok := s.Desc.(*StructDescriptor)
	return d, ok && d != nil
}

// Constant returns the constant table index, if the export is a constant.
func (s *ExportedSymbol) Constant() (ConstantIndex, bool) {
	d, ok := s.Desc.(ConstantIndex)
	return d, ok
}
