package linker

import (
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/slang/codegen"
	"github.com/wippyai/slang/errors"
	"github.com/wippyai/slang/linker/internal/graph"
	"github.com/wippyai/slang/module"
	"github.com/wippyai/slang/resolver"
	"github.com/wippyai/slang/token"
	"github.com/wippyai/slang/typing"
)

const (
	// DefaultDelimiter separates the components of an import name.
	DefaultDelimiter = "::"

	// DefaultMaxMacroPasses bounds the number of import passes in Link.
	DefaultMaxMacroPasses = 16
)

// Files resolves and opens module files.
type Files interface {
	resolver.Opener
	Resolve(path string) (string, error)
}

// TypeContext receives the declarations of imported modules for type
// checking and reports which modules are imported.
type TypeContext interface {
	AddImport(name token.Token) bool
	ImportedModules() []token.Token
	Type(name token.Token, isArray bool, pkg string) (typing.TypeInfo, error)
	UnresolvedType(name token.Token, class typing.Class, pkg string) typing.TypeInfo
	AddVariable(name token.Token, t typing.TypeInfo, pkg string) error
	AddFunction(name token.Token, args []typing.TypeInfo, ret typing.TypeInfo, pkg string) error
	AddStruct(name token.Token, members []typing.Member, pkg string) error
	ResolveTypes() error
}

// CodeContext receives the declarations of imported modules for code
// generation.
type CodeContext interface {
	AddImport(t module.SymbolType, pkg, name string) error
	AddConstant(name string, c module.Constant, pkg string) error
	AddPrototype(name string, ret codegen.Value, args []codegen.Value, pkg string) error
	AddStruct(name string, members []codegen.Member, flags module.StructFlags, pkg string) error
}

// Options configures import resolution.
type Options struct {
	// Recorder observes every decoded module. Nil records nothing.
	Recorder resolver.Recorder

	// Extension is appended to import paths that have none.
	Extension string

	// Delimiter separates import name components.
	Delimiter string

	// MaxMacroPasses bounds the import passes run by Link.
	MaxMacroPasses int
}

// DefaultOptions returns default resolution configuration.
func DefaultOptions() Options {
	return Options{
		Extension:      module.Extension,
		Delimiter:      DefaultDelimiter,
		MaxMacroPasses: DefaultMaxMacroPasses,
	}
}

// Context owns the decoded modules of one compilation and injects their
// exports into the type checking and code generation contexts.
// Not safe for concurrent use.
type Context struct {
	files     Files
	resolvers map[string]*resolver.Resolver
	graph     *graph.Graph
	// structs and decls record modules whose symbols were injected
	structs map[string]bool
	decls   map[string]bool
	order   []string
	options Options
}

// New creates a resolution context that loads modules through files.
// Zero option fields take their defaults.
func New(files Files, opts Options) *Context {
	def := DefaultOptions()
	if opts.Extension == "" {
		opts.Extension = def.Extension
	}
	if opts.Delimiter == "" {
		opts.Delimiter = def.Delimiter
	}
	if opts.MaxMacroPasses <= 0 {
		opts.MaxMacroPasses = def.MaxMacroPasses
	}
	return &Context{
		files:     files,
		resolvers: make(map[string]*resolver.Resolver),
		graph:     graph.New(),
		structs:   make(map[string]bool),
		decls:     make(map[string]bool),
		options:   opts,
	}
}

// NewWithDefaults creates a resolution context with default options.
func NewWithDefaults(files Files) *Context {
	return New(files, DefaultOptions())
}

// Options returns the configuration.
func (c *Context) Options() Options {
	return c.options
}

// ImportPath converts an import name to a relative module path:
// "std::io" becomes "std/io.cmod".
func (c *Context) ImportPath(name string) string {
	p := filepath.FromSlash(strings.ReplaceAll(name, c.options.Delimiter, "/"))
	if filepath.Ext(p) == "" {
		p += "." + c.options.Extension
	}
	return p
}

// ResolveName returns the path of the module file for an import name.
func (c *Context) ResolveName(name string) (string, error) {
	return c.files.Resolve(c.ImportPath(name))
}

// ResolveModule returns the resolver for name, decoding the module on
// first use. Resolving an explicit import marks a transitively loaded
// module explicit. Failed loads are not cached.
func (c *Context) ResolveModule(name string, transitive bool) (*resolver.Resolver, error) {
	if r, ok := c.resolvers[name]; ok {
		if !transitive && r.IsTransitive() {
			r.MakeExplicit()
		}
		return r, nil
	}

	path, err := c.ResolveName(name)
	if err != nil {
		return nil, err
	}

	opts := []resolver.Option{resolver.WithTransitive(transitive)}
	if c.options.Recorder != nil {
		opts = append(opts, resolver.WithRecorder(c.options.Recorder))
	}
	r, err := resolver.New(c.files, path, opts...)
	if err != nil {
		return nil, err
	}
	if err := c.insert(name, r); err != nil {
		return nil, err
	}

	Logger().Debug("module resolved",
		zap.String("import", name),
		zap.String("path", path),
		zap.Bool("transitive", transitive),
	)
	return r, nil
}

func (c *Context) insert(name string, r *resolver.Resolver) error {
	if _, ok := c.resolvers[name]; ok {
		return errors.Linking(errors.KindAlreadyResolved, "module already resolved").
			Symbol(name).
			Build()
	}
	c.resolvers[name] = r
	c.order = append(c.order, name)
	return nil
}

// Resolver returns the resolver of a loaded module.
func (c *Context) Resolver(name string) (*resolver.Resolver, error) {
	r, ok := c.resolvers[name]
	if !ok {
		return nil, errors.Linking(errors.KindNotLoaded, "module not loaded").
			Symbol(name).
			Build()
	}
	return r, nil
}

// Resolvers returns the import names of all loaded modules in load order.
func (c *Context) Resolvers() []string {
	return append([]string(nil), c.order...)
}

// Graph returns the import graph of all loaded modules.
func (c *Context) Graph() *graph.Graph {
	return c.graph
}

// ResolveImports loads every module imported by ty together with the
// packages those modules depend on, then injects their exports into cg
// and ty. Imports are handled one at a time in the order ty reports them:
// the structs of the import and of its dependencies are injected first,
// dependencies before dependents, then the constants and functions of the
// import itself. Modules injected by an earlier call are skipped.
//
// A failure leaves cg and ty holding whatever was injected before it.
func (c *Context) ResolveImports(cg CodeContext, ty TypeContext) error {
	imports := ty.ImportedModules()
	for _, imp := range imports {
		if imp.Text == "" {
			return emptyImport(imp)
		}
	}

	refs := make(map[string]token.Token, len(imports))
	for _, imp := range imports {
		if _, ok := refs[imp.Text]; !ok {
			refs[imp.Text] = imp
		}
	}

	done := make(map[string]bool, len(imports))
	for _, imp := range imports {
		if done[imp.Text] {
			continue
		}
		done[imp.Text] = true
		if err := c.linkImport(cg, ty, imp.Text, refs); err != nil {
			return err
		}
	}
	return nil
}

func (c *Context) linkImport(cg CodeContext, ty TypeContext, name string, refs map[string]token.Token) error {
	if _, err := c.ResolveModule(name, false); err != nil {
		return importError(refs[name], name, err)
	}
	c.graph.AddModule(name)

	linked, err := c.resolveDependencies(name, refs)
	if err != nil {
		return err
	}
	for _, dep := range linked {
		if err := cg.AddImport(module.PackageSymbol, dep, dep); err != nil {
			return located(err, refs[dep].Loc)
		}
	}

	for _, dep := range c.graph.Closure(name) {
		if c.structs[dep] {
			continue
		}
		if err := c.linkStructs(cg, ty, dep, refs[dep].Loc); err != nil {
			return err
		}
		c.structs[dep] = true
	}

	if c.decls[name] {
		return nil
	}
	if err := c.linkDeclarations(cg, ty, name, refs[name].Loc); err != nil {
		return err
	}
	c.decls[name] = true
	return nil
}

// resolveDependencies walks package imports breadth first from root and
// returns every reached module, root included, in discovery order.
// Dependencies not imported explicitly inherit the reference of the
// import that reached them.
func (c *Context) resolveDependencies(root string, refs map[string]token.Token) ([]string, error) {
	seen := map[string]bool{root: true}
	queue := []string{root}

	for i := 0; i < len(queue); i++ {
		name := queue[i]
		for _, dep := range c.resolvers[name].Header().Packages() {
			c.graph.AddEdge(name, dep)
			if seen[dep] {
				continue
			}
			seen[dep] = true
			if _, ok := refs[dep]; !ok {
				refs[dep] = refs[name]
			}
			if _, err := c.ResolveModule(dep, true); err != nil {
				return nil, importError(refs[dep], dep, err)
			}
			queue = append(queue, dep)
		}
	}
	return queue, nil
}

func (c *Context) linkStructs(cg CodeContext, ty TypeContext, name string, loc token.Location) error {
	h := c.resolvers[name].Header()
	for i := range h.Exports {
		exp := &h.Exports[i]
		if exp.Type != module.TypeSymbol {
			continue
		}
		desc, ok := exp.Struct()
		if !ok {
			return located(errors.Linking(errors.KindInvalidData, "type export without struct descriptor").
				Symbol(exp.Name).Build(), loc)
		}
		if err := linkStruct(cg, ty, h, name, exp.Name, desc, loc); err != nil {
			return located(err, loc)
		}
		Logger().Debug("struct linked", zap.String("module", name), zap.String("struct", exp.Name))
	}
	return nil
}

func (c *Context) linkDeclarations(cg CodeContext, ty TypeContext, name string, loc token.Location) error {
	h := c.resolvers[name].Header()
	for i := range h.Exports {
		exp := &h.Exports[i]
		var err error
		switch exp.Type {
		case module.ConstantSymbol:
			err = linkConstant(cg, ty, h, name, exp, loc)
		case module.FunctionSymbol:
			err = linkFunction(cg, ty, h, name, exp, loc)
		default:
			continue
		}
		if err != nil {
			return located(err, loc)
		}
	}
	Logger().Debug("declarations linked", zap.String("module", name), zap.Int("exports", len(h.Exports)))
	return nil
}

func linkConstant(cg CodeContext, ty TypeContext, h *module.Header, importPath string, exp *module.ExportedSymbol, loc token.Location) error {
	index, ok := exp.Constant()
	if !ok {
		return errors.Linking(errors.KindInvalidData, "constant export without constant index").
			Symbol(exp.Name).Build()
	}
	c, err := h.Constant(index)
	if err != nil {
		return err
	}

	var typeName string
	switch c.Type {
	case module.ConstI32:
		typeName = module.I32Type
	case module.ConstF32:
		typeName = module.F32Type
	case module.ConstStr:
		typeName = module.StrType
	default:
		return errors.Linking(errors.KindInvalidEnum, "unknown constant type id %d", uint8(c.Type)).
			Symbol(exp.Name).Build()
	}

	if err := cg.AddConstant(exp.Name, c, importPath); err != nil {
		return err
	}
	t, err := ty.Type(token.Ident(typeName, loc), false, "")
	if err != nil {
		return err
	}
	return ty.AddVariable(token.Ident(exp.Name, loc), t, importPath)
}

func linkFunction(cg CodeContext, ty TypeContext, h *module.Header, importPath string, exp *module.ExportedSymbol, loc token.Location) error {
	desc, ok := exp.Function()
	if !ok {
		return errors.Linking(errors.KindInvalidData, "function export without function descriptor").
			Symbol(exp.Name).Build()
	}
	sig := desc.Signature

	args := make([]codegen.Value, len(sig.Args))
	argTypes := make([]typing.TypeInfo, len(sig.Args))
	for i, arg := range sig.Args {
		v, err := ValueOf(arg, h, importPath)
		if err != nil {
			return err
		}
		t, err := TypeOf(ty, arg, h, importPath, loc)
		if err != nil {
			return err
		}
		args[i], argTypes[i] = v, t
	}

	ret, err := ValueOf(sig.Return, h, importPath)
	if err != nil {
		return err
	}
	retType, err := TypeOf(ty, sig.Return, h, importPath, loc)
	if err != nil {
		return err
	}

	if err := cg.AddPrototype(exp.Name, ret, args, importPath); err != nil {
		return err
	}
	return ty.AddFunction(token.Ident(exp.Name, loc), argTypes, retType, importPath)
}

func linkStruct(cg CodeContext, ty TypeContext, h *module.Header, importPath, name string, desc *module.StructDescriptor, loc token.Location) error {
	values := make([]codegen.Member, len(desc.Members))
	members := make([]typing.Member, len(desc.Members))
	for i, m := range desc.Members {
		v, err := ValueOf(m.Type, h, importPath)
		if err != nil {
			return err
		}
		t, err := UnresolvedTypeOf(ty, m.Type, h, importPath, loc)
		if err != nil {
			return err
		}
		values[i] = codegen.Member{Name: m.Name, Value: v}
		members[i] = typing.Member{Name: token.Ident(m.Name, loc), Type: t}
	}

	if err := cg.AddStruct(name, values, desc.Flags, importPath); err != nil {
		return err
	}
	return ty.AddStruct(token.Ident(name, loc), members, importPath)
}
