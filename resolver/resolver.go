// Package resolver decodes a single compiled module from a resolved path
// and exposes its header for linking.
package resolver

import (
	"go.uber.org/zap"

	"github.com/wippyai/slang/archive"
	"github.com/wippyai/slang/errors"
	"github.com/wippyai/slang/module"
)

// Opener opens a resolved path as an archive.
type Opener interface {
	Open(path string, mode archive.OpenMode) (*archive.File, error)
}

// Recorder observes the tables of a decoded module. Sections are reported
// in the order exports, constants, imports.
type Recorder interface {
	Section(name string)
	Export(index int, s module.ExportedSymbol)
	Constant(index int, c module.Constant)
	Import(index int, s module.ImportedSymbol)
}

// Section names passed to a Recorder.
const (
	SectionExports   = "Export table"
	SectionConstants = "Constant table"
	SectionImports   = "Import table"
)

// NopRecorder ignores everything. Embed it to implement part of Recorder.
type NopRecorder struct{}

func (NopRecorder) Section(string) {}

func (NopRecorder) Export(int, module.ExportedSymbol) {}

func (NopRecorder) Constant(int, module.Constant) {}

func (NopRecorder) Import(int, module.ImportedSymbol) {}

// Option configures a Resolver.
type Option func(*options)

type options struct {
	recorder   Recorder
	transitive bool
}

// WithRecorder reports the decoded tables to r.
func WithRecorder(r Recorder) Option {
	return func(o *options) {
		o.recorder = r
	}
}

// WithTransitive marks the module as loaded only as a dependency of
// another module.
func WithTransitive(transitive bool) Option {
	return func(o *options) {
		o.transitive = transitive
	}
}

// Resolver holds one decoded module. The file is read completely and
// closed during construction.
type Resolver struct {
	mod        *module.Module
	path       string
	transitive bool
}

// New opens path through opener and decodes the module.
func New(opener Opener, path string, opts ...Option) (*Resolver, error) {
	o := options{recorder: NopRecorder{}}
	for _, opt := range opts {
		opt(&o)
	}

	mod, err := decode(opener, path)
	if err != nil {
		return nil, err
	}

	Logger().Debug("module decoded",
		zap.String("path", path),
		zap.Int("imports", len(mod.Header.Imports)),
		zap.Int("exports", len(mod.Header.Exports)),
		zap.Int("constants", len(mod.Header.Constants)),
		zap.Int("body", len(mod.Body)),
		zap.Bool("transitive", o.transitive),
	)

	record(o.recorder, mod)

	return &Resolver{
		mod:        mod,
		path:       path,
		transitive: o.transitive,
	}, nil
}

func decode(opener Opener, path string) (mod *module.Module, err error) {
	f, err := opener.Open(path, archive.ModeRead)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	mod = &module.Module{}
	if err := mod.Transcode(f); err != nil {
		return nil, errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Value(path).
			Cause(err).
			Detail("decode module %q", path).
			Build()
	}
	return mod, nil
}

func record(r Recorder, mod *module.Module) {
	r.Section(SectionExports)
	for i, s := range mod.Header.Exports {
		r.Export(i, s)
	}
	r.Section(SectionConstants)
	for i, c := range mod.Header.Constants {
		r.Constant(i, c)
	}
	r.Section(SectionImports)
	for i, s := range mod.Header.Imports {
		r.Import(i, s)
	}
}

// Path returns the resolved path the module was read from.
func (r *Resolver) Path() string {
	return r.path
}

// Module returns the decoded module. Callers must not modify it.
func (r *Resolver) Module() *module.Module {
	return r.mod
}

// Header returns the decoded module header. Callers must not modify it.
func (r *Resolver) Header() *module.Header {
	return &r.mod.Header
}

// IsTransitive reports whether the module was only loaded as a dependency.
func (r *Resolver) IsTransitive() bool {
	return r.transitive
}

// MakeExplicit marks a transitively loaded module as explicitly imported.
func (r *Resolver) MakeExplicit() {
	r.transitive = false
}
