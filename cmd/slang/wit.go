package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/slang/module"
)

// witTypes maps struct exports of one module to their record definitions.
type witTypes map[string]*wit.TypeDef

// typeOf projects a variable type onto WIT. Void has no WIT type and
// yields nil. Structs of the module refer to its records; structs of
// other packages become named references.
func (t witTypes) typeOf(vt module.VariableType) wit.Type {
	var elem wit.Type
	switch vt.Base {
	case module.VoidType:
		return nil
	case module.I32Type:
		elem = wit.S32{}
	case module.F32Type:
		elem = wit.F32{}
	case module.StrType:
		elem = wit.String{}
	default:
		if td, ok := t[vt.Base]; ok && vt.ImportIndex == nil {
			elem = td
		} else {
			name := kebab(vt.Base)
			elem = &wit.TypeDef{Name: &name}
		}
	}
	if vt.Array {
		return &wit.TypeDef{Kind: &wit.List{Type: elem}}
	}
	return elem
}

// witInterface projects the exports of h onto a WIT interface: structs
// become records and functions freestanding functions. Constants have no
// WIT form and are listed in the interface docs.
func witInterface(name string, h *module.Header) *wit.Interface {
	ifaceName := interfaceName(name)
	iface := &wit.Interface{Name: &ifaceName}

	types := make(witTypes)
	for i := range h.Exports {
		exp := &h.Exports[i]
		if _, ok := exp.Struct(); !ok || exp.Type != module.TypeSymbol {
			continue
		}
		n := kebab(exp.Name)
		td := &wit.TypeDef{Name: &n, Kind: &wit.Record{}, Owner: iface}
		types[exp.Name] = td
		iface.TypeDefs.Set(n, td)
	}

	var constants []string
	for i := range h.Exports {
		exp := &h.Exports[i]
		switch exp.Type {
		case module.TypeSymbol:
			desc, ok := exp.Struct()
			if !ok {
				continue
			}
			record := types[exp.Name].Kind.(*wit.Record)
			for _, m := range desc.Members {
				if ft := types.typeOf(m.Type); ft != nil {
					record.Fields = append(record.Fields, wit.Field{Name: kebab(m.Name), Type: ft})
				}
			}
		case module.FunctionSymbol:
			desc, ok := exp.Function()
			if !ok {
				continue
			}
			n := kebab(exp.Name)
			f := &wit.Function{Name: n, Kind: &wit.Freestanding{}}
			for i, arg := range desc.Signature.Args {
				if at := types.typeOf(arg); at != nil {
					f.Params = append(f.Params, wit.Param{Name: fmt.Sprintf("arg%d", i), Type: at})
				}
			}
			if rt := types.typeOf(desc.Signature.Return); rt != nil {
				f.Results = []wit.Param{{Type: rt}}
			}
			iface.Functions.Set(n, f)
		case module.ConstantSymbol:
			idx, _ := exp.Constant()
			if c, err := h.Constant(idx); err == nil {
				constants = append(constants, fmt.Sprintf("%s: %s", kebab(exp.Name), c))
			}
		}
	}
	iface.Docs.Contents = strings.Join(constants, "\n")
	return iface
}

// renderWIT prints the exports of h as a WIT interface.
func renderWIT(name string, h *module.Header) string {
	return witInterface(name, h).WIT(nil, "") + "\n"
}

func interfaceName(name string) string {
	name = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	return kebab(strings.NewReplacer("::", "-", ".", "-").Replace(name))
}

// kebab converts CamelCase and snake_case identifiers to kebab-case.
func kebab(s string) string {
	var b strings.Builder
	prevLower := false
	for _, r := range s {
		switch {
		case r == '_' || r == '-':
			if b.Len() > 0 {
				b.WriteByte('-')
			}
			prevLower = false
		case unicode.IsUpper(r):
			if prevLower {
				b.WriteByte('-')
			}
			b.WriteRune(unicode.ToLower(r))
			prevLower = false
		default:
			b.WriteRune(r)
			prevLower = unicode.IsLower(r) || unicode.IsDigit(r)
		}
	}
	return b.String()
}
