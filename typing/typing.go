// Package typing holds the declarations visible to the type checker:
// imported modules, variables, functions and struct types, each
// attributed to the package that declares it.
package typing

import (
	"fmt"

	"github.com/wippyai/slang/errors"
	"github.com/wippyai/slang/module"
	"github.com/wippyai/slang/token"
)

// Class distinguishes plain types from array and function types.
type Class uint8

const (
	Plain Class = iota
	Array
	Function
)

func (c Class) String() string {
	switch c {
	case Plain:
		return "plain"
	case Array:
		return "array"
	case Function:
		return "function"
	}
	return fmt.Sprintf("class(%d)", c)
}

// TypeInfo describes a type. A zero ID marks a placeholder that has not
// been bound by ResolveTypes yet.
type TypeInfo struct {
	Name    string
	Package string
	Ref     token.Location
	ID      uint64
	Class   Class
}

// IsResolved reports whether t is bound to a registered type.
func (t TypeInfo) IsResolved() bool {
	return t.ID != 0
}

// IsArray reports whether t is an array type.
func (t TypeInfo) IsArray() bool {
	return t.Class == Array
}

// Equal compares resolved types by ID and placeholders by name.
func (t TypeInfo) Equal(o TypeInfo) bool {
	if t.IsResolved() || o.IsResolved() {
		return t.ID == o.ID
	}
	return t.Name == o.Name && t.Package == o.Package && t.Class == o.Class
}

func (t TypeInfo) String() string {
	s := t.Name
	if t.Package != "" {
		s = t.Package + "::" + s
	}
	switch t.Class {
	case Array:
		s += "[]"
	case Function:
		s = "fn " + s
	}
	if !t.IsResolved() {
		s += "?"
	}
	return s
}

// Member is a struct field.
type Member struct {
	Name token.Token
	Type TypeInfo
}

// Variable is a named value. Compile-time constants are declared as
// variables too.
type Variable struct {
	Name    token.Token
	Package string
	Type    TypeInfo
}

// FunctionDecl is a function signature.
type FunctionDecl struct {
	Name    token.Token
	Package string
	Args    []TypeInfo
	Return  TypeInfo
}

// Struct is a struct type declaration.
type Struct struct {
	Name    token.Token
	Package string
	Members []Member
	Type    TypeInfo
}

type typeKey struct {
	pkg   string
	name  string
	class Class
}

type symbolKey struct {
	pkg  string
	name string
}

// Context collects declarations for type checking.
type Context struct {
	types       map[typeKey]uint64
	pending     map[typeKey]TypeInfo
	imports     []token.Token
	importSet   map[string]struct{}
	variables   map[symbolKey]*Variable
	functions   map[symbolKey]*FunctionDecl
	structs     map[symbolKey]*Struct
	varOrder    []symbolKey
	funcOrder   []symbolKey
	structOrder []symbolKey
	nextID      uint64
}

// NewContext creates a Context with the built-in types registered.
func NewContext() *Context {
	c := &Context{
		types:     make(map[typeKey]uint64),
		pending:   make(map[typeKey]TypeInfo),
		importSet: make(map[string]struct{}),
		variables: make(map[symbolKey]*Variable),
		functions: make(map[symbolKey]*FunctionDecl),
		structs:   make(map[symbolKey]*Struct),
	}
	for _, name := range []string{module.VoidType, module.I32Type, module.F32Type, module.StrType} {
		c.register(typeKey{name: name})
	}
	return c
}

func (c *Context) register(k typeKey) uint64 {
	if id, ok := c.types[k]; ok {
		return id
	}
	c.nextID++
	c.types[k] = c.nextID
	return c.nextID
}

func typingError(kind errors.Kind, loc token.Location, format string, args ...any) *errors.Error {
	return errors.New(errors.PhaseTyping, kind).
		At(loc.Line, loc.Column).
		Detail(format, args...).
		Build()
}

// AddImport records an imported module name. It returns false if the
// name was already recorded.
func (c *Context) AddImport(name token.Token) bool {
	if _, ok := c.importSet[name.Text]; ok {
		return false
	}
	c.importSet[name.Text] = struct{}{}
	c.imports = append(c.imports, name)
	return true
}

// ImportedModules returns the imported module names in the order they
// were added.
func (c *Context) ImportedModules() []token.Token {
	return append([]token.Token(nil), c.imports...)
}

// Type returns the resolved type for name. Built-in types ignore pkg.
// Struct types must be declared first; array types are created on demand.
func (c *Context) Type(name token.Token, isArray bool, pkg string) (TypeInfo, error) {
	base := typeKey{pkg: pkg, name: name.Text}
	if module.IsBuiltin(name.Text) {
		base.pkg = ""
	}
	if _, ok := c.types[base]; !ok {
		return TypeInfo{}, typingError(errors.KindNotFound, name.Loc, "unknown type %q", qualified(pkg, name.Text))
	}
	if isArray && name.Text == module.VoidType {
		return TypeInfo{}, typingError(errors.KindInvalidInput, name.Loc, "array of void")
	}

	info := TypeInfo{Name: name.Text, Package: base.pkg, Ref: name.Loc, Class: Plain}
	k := base
	if isArray {
		info.Class = Array
		k.class = Array
	}
	info.ID = c.register(k)
	return info, nil
}

// UnresolvedType returns a placeholder for a type that may be declared
// later. Repeated calls with the same arguments return the same placeholder.
func (c *Context) UnresolvedType(name token.Token, class Class, pkg string) TypeInfo {
	if module.IsBuiltin(name.Text) {
		pkg = ""
	}
	k := typeKey{pkg: pkg, name: name.Text, class: class}
	if t, ok := c.pending[k]; ok {
		return t
	}
	t := TypeInfo{Name: name.Text, Package: pkg, Ref: name.Loc, Class: class}
	c.pending[k] = t
	return t
}

func qualified(pkg, name string) string {
	if pkg == "" {
		return name
	}
	return pkg + "::" + name
}

func (c *Context) valueDeclared(k symbolKey) bool {
	_, v := c.variables[k]
	_, f := c.functions[k]
	return v || f
}

// AddVariable declares a variable in pkg.
func (c *Context) AddVariable(name token.Token, t TypeInfo, pkg string) error {
	k := symbolKey{pkg: pkg, name: name.Text}
	if c.valueDeclared(k) {
		return typingError(errors.KindDuplicate, name.Loc, "redefinition of %q", qualified(pkg, name.Text))
	}
	c.variables[k] = &Variable{Name: name, Package: pkg, Type: t}
	c.varOrder = append(c.varOrder, k)
	return nil
}

// AddFunction declares a function in pkg.
func (c *Context) AddFunction(name token.Token, args []TypeInfo, ret TypeInfo, pkg string) error {
	k := symbolKey{pkg: pkg, name: name.Text}
	if c.valueDeclared(k) {
		return typingError(errors.KindDuplicate, name.Loc, "redefinition of %q", qualified(pkg, name.Text))
	}
	c.functions[k] = &FunctionDecl{
		Name:    name,
		Package: pkg,
		Args:    append([]TypeInfo(nil), args...),
		Return:  ret,
	}
	c.funcOrder = append(c.funcOrder, k)
	return nil
}

// AddStruct declares a struct type in pkg. Member types may be
// placeholders.
func (c *Context) AddStruct(name token.Token, members []Member, pkg string) error {
	if module.IsBuiltin(name.Text) {
		return typingError(errors.KindInvalidInput, name.Loc, "struct name %q shadows a built-in type", name.Text)
	}
	k := symbolKey{pkg: pkg, name: name.Text}
	if _, ok := c.structs[k]; ok {
		return typingError(errors.KindDuplicate, name.Loc, "redefinition of struct %q", qualified(pkg, name.Text))
	}
	seen := make(map[string]struct{}, len(members))
	for _, m := range members {
		if _, ok := seen[m.Name.Text]; ok {
			return typingError(errors.KindDuplicate, m.Name.Loc, "duplicate member %q in struct %q", m.Name.Text, name.Text)
		}
		seen[m.Name.Text] = struct{}{}
	}

	id := c.register(typeKey{pkg: pkg, name: name.Text})
	c.structs[k] = &Struct{
		Name:    name,
		Package: pkg,
		Members: append([]Member(nil), members...),
		Type:    TypeInfo{Name: name.Text, Package: pkg, Ref: name.Loc, ID: id, Class: Plain},
	}
	c.structOrder = append(c.structOrder, k)
	return nil
}

// Variable looks up a variable declared in pkg.
func (c *Context) Variable(name, pkg string) (*Variable, bool) {
	v, ok := c.variables[symbolKey{pkg: pkg, name: name}]
	return v, ok
}

// Function looks up a function declared in pkg.
func (c *Context) Function(name, pkg string) (*FunctionDecl, bool) {
	f, ok := c.functions[symbolKey{pkg: pkg, name: name}]
	return f, ok
}

// Struct looks up a struct declared in pkg.
func (c *Context) Struct(name, pkg string) (*Struct, bool) {
	s, ok := c.structs[symbolKey{pkg: pkg, name: name}]
	return s, ok
}

// Variables returns all variables in declaration order.
func (c *Context) Variables() []*Variable {
	out := make([]*Variable, len(c.varOrder))
	for i, k := range c.varOrder {
		out[i] = c.variables[k]
	}
	return out
}

// Functions returns all functions in declaration order.
func (c *Context) Functions() []*FunctionDecl {
	out := make([]*FunctionDecl, len(c.funcOrder))
	for i, k := range c.funcOrder {
		out[i] = c.functions[k]
	}
	return out
}

// Structs returns all structs in declaration order.
func (c *Context) Structs() []*Struct {
	out := make([]*Struct, len(c.structOrder))
	for i, k := range c.structOrder {
		out[i] = c.structs[k]
	}
	return out
}

// ResolveTypes binds every placeholder held by a declaration to its
// registered type. The first unknown type is reported with the location
// of its reference.
func (c *Context) ResolveTypes() error {
	for _, k := range c.structOrder {
		s := c.structs[k]
		for i := range s.Members {
			if err := c.bind(&s.Members[i].Type); err != nil {
				return err
			}
		}
	}
	for _, k := range c.funcOrder {
		f := c.functions[k]
		for i := range f.Args {
			if err := c.bind(&f.Args[i]); err != nil {
				return err
			}
		}
		if err := c.bind(&f.Return); err != nil {
			return err
		}
	}
	for _, k := range c.varOrder {
		if err := c.bind(&c.variables[k].Type); err != nil {
			return err
		}
	}
	return nil
}

func (c *Context) bind(t *TypeInfo) error {
	if t.IsResolved() {
		return nil
	}
	switch t.Class {
	case Function:
		if _, ok := c.functions[symbolKey{pkg: t.Package, name: t.Name}]; !ok {
			return typingError(errors.KindNotFound, t.Ref, "unknown function %q", qualified(t.Package, t.Name))
		}
		t.ID = c.register(typeKey{pkg: t.Package, name: t.Name, class: Function})
		return nil
	default:
		resolved, err := c.Type(token.Ident(t.Name, t.Ref), t.Class == Array, t.Package)
		if err != nil {
			return err
		}
		*t = resolved
		return nil
	}
}
