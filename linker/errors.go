package linker

import (
	"github.com/wippyai/slang/errors"
	"github.com/wippyai/slang/token"
)

// located attaches loc to err unless err already carries a location.
func located(err error, loc token.Location) error {
	e, ok := err.(*errors.Error)
	if !ok || e.HasLocation() || !loc.IsValid() {
		return err
	}
	copied := *e
	copied.Line, copied.Column = loc.Line, loc.Column
	return &copied
}

// importError reports a failure to load the module named by an import.
func importError(ref token.Token, name string, cause error) *errors.Error {
	return errors.Linking(errors.KindNotLoaded, "cannot resolve import").
		At(ref.Loc.Line, ref.Loc.Column).
		Symbol(name).
		Cause(cause).
		Build()
}

func emptyImport(ref token.Token) *errors.Error {
	return errors.Linking(errors.KindEmptyImport, "cannot resolve empty import").
		At(ref.Loc.Line, ref.Loc.Column).
		Build()
}
