// Package codegen collects the external declarations a code generator
// needs to emit calls and field accesses into other modules.
package codegen

import (
	"fmt"

	"github.com/wippyai/slang/errors"
	"github.com/wippyai/slang/module"
)

// Kind is the machine-level kind of a value.
type Kind uint8

const (
	Void Kind = iota
	I32
	F32
	Str
	Struct
)

func (k Kind) String() string {
	switch k {
	case Void:
		return module.VoidType
	case I32:
		return module.I32Type
	case F32:
		return module.F32Type
	case Str:
		return module.StrType
	case Struct:
		return "aggregate"
	}
	return fmt.Sprintf("kind(%d)", k)
}

// KindOf maps a built-in type name to its value kind.
func KindOf(builtin string) (Kind, bool) {
	switch builtin {
	case module.VoidType:
		return Void, true
	case module.I32Type:
		return I32, true
	case module.F32Type:
		return F32, true
	case module.StrType:
		return Str, true
	}
	return 0, false
}

// Value describes the shape of a value. Struct values name their type and
// the package that declares it.
type Value struct {
	Struct  string
	Package string
	Kind    Kind
	Array   bool
}

// Scalar returns a value of a built-in kind.
func Scalar(k Kind, array bool) Value {
	return Value{Kind: k, Array: array}
}

// Aggregate returns a struct value.
func Aggregate(name, pkg string, array bool) Value {
	return Value{Kind: Struct, Struct: name, Package: pkg, Array: array}
}

func (v Value) String() string {
	s := v.Kind.String()
	if v.Kind == Struct {
		s = qualified(v.Package, v.Struct)
	}
	if v.Array {
		s += "[]"
	}
	return s
}

// Member is a struct field.
type Member struct {
	Name  string
	Value Value
}

// Import is an external symbol reference.
type Import struct {
	Package string
	Name    string
	Type    module.SymbolType
}

// Constant is a named compile-time constant.
type Constant struct {
	Name     string
	Package  string
	Constant module.Constant
}

// Prototype is an external function signature.
type Prototype struct {
	Name    string
	Package string
	Args    []Value
	Return  Value
}

func (p *Prototype) String() string {
	s := qualified(p.Package, p.Name) + "("
	for i, a := range p.Args {
		if i > 0 {
			s += ", "
		}
		s += a.String()
	}
	return s + ") -> " + p.Return.String()
}

// StructDef is an external struct definition.
type StructDef struct {
	Name    string
	Package string
	Members []Member
	Flags   module.StructFlags
}

type key struct {
	pkg  string
	name string
}

// Context holds declarations in registration order.
type Context struct {
	importIndex map[key]int
	constIndex  map[key]int
	protoIndex  map[key]int
	structIndex map[key]int
	imports     []Import
	constants   []Constant
	prototypes  []*Prototype
	structs     []*StructDef
}

// NewContext creates an empty Context.
func NewContext() *Context {
	return &Context{
		importIndex: make(map[key]int),
		constIndex:  make(map[key]int),
		protoIndex:  make(map[key]int),
		structIndex: make(map[key]int),
	}
}

func qualified(pkg, name string) string {
	if pkg == "" {
		return name
	}
	return pkg + "::" + name
}

func duplicate(what, pkg, name string) error {
	return errors.Duplicate(errors.PhaseCodegen, what, qualified(pkg, name))
}

// AddImport records an import of name from pkg. Recording the same import
// twice is a no-op; recording it with a different symbol type is an error.
func (c *Context) AddImport(t module.SymbolType, pkg, name string) error {
	k := key{pkg: pkg, name: name}
	if i, ok := c.importIndex[k]; ok {
		if c.imports[i].Type != t {
			return errors.New(errors.PhaseCodegen, errors.KindDuplicate).
				Symbol(name).
				Detail("import already recorded as %s, not %s", c.imports[i].Type, t).
				Build()
		}
		return nil
	}
	c.importIndex[k] = len(c.imports)
	c.imports = append(c.imports, Import{Type: t, Package: pkg, Name: name})
	return nil
}

// AddConstant records a constant declared in pkg.
func (c *Context) AddConstant(name string, value module.Constant, pkg string) error {
	if err := value.Validate(); err != nil {
		return err
	}
	k := key{pkg: pkg, name: name}
	if _, ok := c.constIndex[k]; ok {
		return duplicate("constant", pkg, name)
	}
	c.constIndex[k] = len(c.constants)
	c.constants = append(c.constants, Constant{Name: name, Package: pkg, Constant: value})
	return nil
}

// AddPrototype records a function signature declared in pkg.
func (c *Context) AddPrototype(name string, ret Value, args []Value, pkg string) error {
	k := key{pkg: pkg, name: name}
	if _, ok := c.protoIndex[k]; ok {
		return duplicate("prototype", pkg, name)
	}
	for i, a := range args {
		if a.Kind == Void && !a.Array {
			return errors.New(errors.PhaseCodegen, errors.KindInvalidInput).
				Symbol(name).
				Path(fmt.Sprintf("arg%d", i)).
				Detail("argument has void type").
				Build()
		}
	}
	c.protoIndex[k] = len(c.prototypes)
	c.prototypes = append(c.prototypes, &Prototype{
		Name:    name,
		Package: pkg,
		Return:  ret,
		Args:    append([]Value(nil), args...),
	})
	return nil
}

// AddStruct records a struct definition declared in pkg.
func (c *Context) AddStruct(name string, members []Member, flags module.StructFlags, pkg string) error {
	k := key{pkg: pkg, name: name}
	if _, ok := c.structIndex[k]; ok {
		return duplicate("struct", pkg, name)
	}
	c.structIndex[k] = len(c.structs)
	c.structs = append(c.structs, &StructDef{
		Name:    name,
		Package: pkg,
		Members: append([]Member(nil), members...),
		Flags:   flags,
	})
	return nil
}

// Imports returns the recorded imports in order.
func (c *Context) Imports() []Import {
	return append([]Import(nil), c.imports...)
}

// Constants returns the recorded constants in order.
func (c *Context) Constants() []Constant {
	return append([]Constant(nil), c.constants...)
}

// Prototypes returns the recorded prototypes in order.
func (c *Context) Prototypes() []*Prototype {
	return append([]*Prototype(nil), c.prototypes...)
}

// Structs returns the recorded structs in order.
func (c *Context) Structs() []*StructDef {
	return append([]*StructDef(nil), c.structs...)
}

// Constant looks up a constant.
func (c *Context) Constant(name, pkg string) (Constant, bool) {
	i, ok := c.constIndex[key{pkg: pkg, name: name}]
	if !ok {
		return Constant{}, false
	}
	return c.constants[i], true
}

// Prototype looks up a function prototype.
func (c *Context) Prototype(name, pkg string) (*Prototype, bool) {
	i, ok := c.protoIndex[key{pkg: pkg, name: name}]
	if !ok {
		return nil, false
	}
	return c.prototypes[i], true
}

// Struct looks up a struct definition.
func (c *Context) Struct(name, pkg string) (*StructDef, bool) {
	i, ok := c.structIndex[key{pkg: pkg, name: name}]
	if !ok {
		return nil, false
	}
	return c.structs[i], true
}
