package linker

import (
	"github.com/wippyai/slang/codegen"
	"github.com/wippyai/slang/errors"
	"github.com/wippyai/slang/module"
	"github.com/wippyai/slang/token"
	"github.com/wippyai/slang/typing"
)

// Category classifies a variable type for translation.
type Category uint8

const (
	CategoryBuiltin Category = iota
	CategoryArray
	CategoryStruct
)

func (c Category) String() string {
	switch c {
	case CategoryBuiltin:
		return "builtin"
	case CategoryArray:
		return "array"
	case CategoryStruct:
		return "struct"
	}
	return "unknown"
}

// Classify returns the category of vt. The array flag wins over the base
// type.
func Classify(vt module.VariableType) Category {
	switch {
	case vt.Array:
		return CategoryArray
	case module.IsBuiltin(vt.Base):
		return CategoryBuiltin
	default:
		return CategoryStruct
	}
}

// PackageOf returns the package that declares vt. A type without an
// import index belongs to importPath; otherwise the index must designate
// a package entry of h's import table.
func PackageOf(vt module.VariableType, h *module.Header, importPath string) (string, error) {
	if vt.ImportIndex == nil {
		return importPath, nil
	}
	index := *vt.ImportIndex
	imp, err := h.Import(index)
	if err != nil {
		return "", err
	}
	if imp.Type != module.PackageSymbol {
		return "", errors.InvalidImportIndex(index, imp.Name, imp.Type.String())
	}
	return imp.Name, nil
}

// ownerOf is the package used by the projections. Built-in types belong
// to no package and never consult the import table.
func ownerOf(vt module.VariableType, h *module.Header, importPath string) (string, error) {
	if module.IsBuiltin(vt.Base) {
		return "", nil
	}
	return PackageOf(vt, h, importPath)
}

// ValueOf projects vt to a code generation value.
func ValueOf(vt module.VariableType, h *module.Header, importPath string) (codegen.Value, error) {
	pkg, err := ownerOf(vt, h, importPath)
	if err != nil {
		return codegen.Value{}, err
	}
	if k, ok := codegen.KindOf(vt.Base); ok {
		return codegen.Scalar(k, vt.Array), nil
	}
	return codegen.Aggregate(vt.Base, pkg, vt.Array), nil
}

// TypeResolver looks up registered types.
type TypeResolver interface {
	Type(name token.Token, isArray bool, pkg string) (typing.TypeInfo, error)
}

// TypeOf projects vt to a resolved type. Struct types must already be
// registered with ty.
func TypeOf(ty TypeResolver, vt module.VariableType, h *module.Header, importPath string, loc token.Location) (typing.TypeInfo, error) {
	pkg, err := ownerOf(vt, h, importPath)
	if err != nil {
		return typing.TypeInfo{}, err
	}
	return ty.Type(token.Ident(vt.Base, loc), vt.Array, pkg)
}

// PlaceholderResolver creates placeholders for types that are bound later.
type PlaceholderResolver interface {
	UnresolvedType(name token.Token, class typing.Class, pkg string) typing.TypeInfo
}

// UnresolvedTypeOf projects vt to a placeholder bound by a later
// ResolveTypes pass. Struct members may refer to types declared after
// them, including their own struct.
func UnresolvedTypeOf(ty PlaceholderResolver, vt module.VariableType, h *module.Header, importPath string, loc token.Location) (typing.TypeInfo, error) {
	pkg, err := ownerOf(vt, h, importPath)
	if err != nil {
		return typing.TypeInfo{}, err
	}
	class := typing.Plain
	if Classify(vt) == CategoryArray {
		class = typing.Array
	}
	return ty.UnresolvedType(token.Ident(vt.Base, loc), class, pkg), nil
}
