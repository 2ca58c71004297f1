package linker

import (
	"go.uber.org/zap"

	"github.com/wippyai/slang/errors"
	"github.com/wippyai/slang/token"
)

// MacroEnv expands macros and reports the import names the expansion
// refers to.
type MacroEnv interface {
	ExpandMacros() ([]token.Token, error)
}

// ImportRecorder records imported module names.
type ImportRecorder interface {
	AddImport(name token.Token) bool
}

// ResolveMacros expands macros in env and records the imports they refer
// to. It reports whether any import was new, in which case another call
// to ResolveImports is needed.
func ResolveMacros(env MacroEnv, ty ImportRecorder) (bool, error) {
	imports, err := env.ExpandMacros()
	if err != nil {
		return false, err
	}
	added := false
	for _, imp := range imports {
		if ty.AddImport(imp) {
			added = true
		}
	}
	return added, nil
}

// Link resolves the imports of ty, alternating with macro expansion until
// no new imports appear, then binds all type placeholders. env may be nil.
func (c *Context) Link(cg CodeContext, ty TypeContext, env MacroEnv) error {
	for pass := 1; ; pass++ {
		if err := c.ResolveImports(cg, ty); err != nil {
			return err
		}
		if env == nil {
			break
		}
		more, err := ResolveMacros(env, ty)
		if err != nil {
			return err
		}
		if !more {
			break
		}
		if pass >= c.options.MaxMacroPasses {
			return errors.Linking(errors.KindOverflow, "macro expansion still adds imports after %d passes", pass).Build()
		}
		Logger().Debug("macro expansion added imports", zap.Int("pass", pass))
	}
	return ty.ResolveTypes()
}
