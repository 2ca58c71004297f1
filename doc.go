// Package slang is the module toolchain of the slang scripting language:
// the compiled module format, its binary codec, and the linker that
// resolves imports across modules.
//
// # Architecture Overview
//
// The library is organized into packages with distinct responsibilities:
//
//	slang/               Root package (documentation only)
//	├── archive/         Symmetric binary archive, VLE integers, file streams
//	├── token/           Source tokens with locations and literal values
//	├── module/          Compiled module header, symbols and descriptors
//	├── files/           Search paths and archive opening
//	├── resolver/        Decoding a single module from a resolved path
//	├── linker/          Import resolution, symbol injection, macro passes
//	├── typing/          Type checker context the linker feeds
//	├── codegen/         Code generator context the linker feeds
//	├── config/          slang.toml loading and logger setup
//	├── errors/          Structured error types for diagnostics
//	└── cmd/slang/       Command line: inspect, assemble, link, browse
//
// # Quick Start
//
// Link a set of imports against modules found under ./lib:
//
//	fm := files.NewOsManager(files.WithSearchPaths("lib"))
//	ctx := linker.NewWithDefaults(fm)
//
//	cg := codegen.NewContext()
//	ty := typing.NewContext()
//	ty.AddImport(token.Ident("std::io", token.Location{Line: 1, Column: 8}))
//
//	if err := ctx.Link(cg, ty, nil); err != nil {
//	    log.Fatal(err)
//	}
//	for _, p := range cg.Prototypes() {
//	    fmt.Println(p)
//	}
//
// # Thread Safety
//
// A linker Context and the collaborator contexts are not safe for
// concurrent use. Decoded modules are immutable after loading and may be
// shared freely.
package slang
