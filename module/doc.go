// Package module defines the compiled module format: the header with its
// import, export and constant tables, the opaque body, and their binary
// encoding.
//
// A module stream is laid out as
//
//	byte order marker  u8 (0 little, 1 big)
//	tag                u32 0x63326c73
//	imports            vle count, (symbol type u8, name, package index u32)*
//	exports            vle count, (symbol type u8, name, payload)*
//	constants          vle count, (constant type u8, value)*
//	body               vle length, bytes
//
// Export payloads depend on the symbol type: a constant table index for
// constants, a FunctionDescriptor for functions, a StructDescriptor for
// types, nothing for packages.
//
// Types are stored as a type string ('[' for arrays, then one of v, i, f, s
// for built-ins or C<name>; for structs) followed by an optional import
// index designating the package that declares the struct.
//
// Modules are built with New and the Add* methods, then written with
// Encode or MarshalBinary:
//
//	m := module.New()
//	_ = m.AddNativeFunction("len", module.Builtin(module.I32Type),
//		[]module.VariableType{module.Builtin(module.StrType)}, "slang")
//	data, err := m.MarshalBinary()
package module
