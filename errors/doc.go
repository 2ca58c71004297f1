// Package errors provides structured error types for the slang toolchain.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type includes rich context: field path, symbol name, source location and
// cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseLinking, errors.KindInvalidImportIndex).
//		Path("exports", "vec_len").
//		Symbol("Vec").
//		At(3, 8).
//		Detail("import index 2 refers to a function").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.InvalidEnum(errors.PhaseDecode, path, 9, "symbol type")
//	err := errors.OutOfBounds(errors.PhaseLinking, path, 10, 5)
//
// Errors carrying a location render as "line:col: [phase] kind ...".
// All errors implement the standard error interface and support errors.Is/As.
package errors
