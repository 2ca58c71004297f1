// Package linker resolves the imports of a compilation unit against
// separately compiled modules.
//
// # Main Types
//
//   - Context: owns the decoded modules and injects their exports
//   - TypeContext, CodeContext: the declaration sinks for type checking
//     and code generation
//   - MacroEnv: supplies imports discovered by macro expansion
//
// # Resolution Order
//
// Imports are linked one at a time, in the order the type context
// records them. For each import:
//
//  1. The module and its package dependencies are loaded, breadth first
//  2. Struct types of the import and its dependencies, dependencies first
//  3. Constants and functions of the import itself
//
// The first import that fails stops linking.
//
// Each module file is decoded once per Context; later lookups return the
// cached resolver.
//
// # Example
//
//	ctx := linker.NewWithDefaults(files.NewOsManager(files.WithSearchPaths("lib")))
//	ty := typing.NewContext()
//	ty.AddImport(token.Ident("std::io", loc))
//	if err := ctx.Link(codegen.NewContext(), ty, nil); err != nil {
//		return err
//	}
//
// # Thread Safety
//
// Context is NOT safe for concurrent use.
package linker
