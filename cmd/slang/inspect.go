package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/wippyai/slang/errors"
	"github.com/wippyai/slang/internal/manifest"
	"github.com/wippyai/slang/module"
	"github.com/wippyai/slang/resolver"
)

var (
	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7D56F4"))

	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))
)

func getCmdInspect(gs *globalState) *cobra.Command {
	var (
		format string
		asWIT  bool
	)
	inspectCmd := &cobra.Command{
		Use:   "inspect MODULE",
		Short: "Print the tables of a compiled module",
		Long: `Print the import, export and constant tables of a compiled module.

  MODULE is a file path when it has an extension, otherwise an import name
  such as std::io looked up in the search paths.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if asWIT {
				r, err := gs.loadModule(args[0])
				if err != nil {
					return err
				}
				_, err = io.WriteString(gs.stdout, renderWIT(args[0], r.Header()))
				return err
			}

			switch format {
			case "text":
				rec := newTextRecorder(gs.stdout, gs.color)
				r, err := gs.loadModule(args[0], resolver.WithRecorder(rec))
				if err != nil {
					return err
				}
				return rec.finish(r)
			case "yaml":
				r, err := gs.loadModule(args[0])
				if err != nil {
					return err
				}
				doc, err := manifest.FromModule(r.Module())
				if err != nil {
					return err
				}
				out, err := manifest.Marshal(doc)
				if err != nil {
					return err
				}
				_, err = gs.stdout.Write(out)
				return err
			}
			return errors.InvalidInput(errors.PhaseConfig, fmt.Sprintf("unknown format %q", format))
		},
	}
	inspectCmd.Flags().StringVarP(&format, "format", "f", "text", "output format (text, yaml)")
	inspectCmd.Flags().BoolVar(&asWIT, "wit", false, "print the exports as a WIT interface")
	return inspectCmd
}

// textRecorder prints module tables as the resolver reports them.
type textRecorder struct {
	err    error
	w      io.Writer
	styled bool
}

func newTextRecorder(w io.Writer, styled bool) *textRecorder {
	return &textRecorder{w: w, styled: styled}
}

func (r *textRecorder) style(s lipgloss.Style, text string) string {
	if !r.styled {
		return text
	}
	return s.Render(text)
}

func (r *textRecorder) printf(format string, args ...any) {
	if r.err != nil {
		return
	}
	_, r.err = fmt.Fprintf(r.w, format, args...)
}

func (r *textRecorder) Section(name string) {
	r.printf("%s\n", r.style(sectionStyle, name))
}

func (r *textRecorder) Export(i int, s module.ExportedSymbol) {
	r.printf("  %3d %-8s %s%s\n", i, s.Type, r.style(nameStyle, s.Name), r.style(typeStyle, describeExport(&s)))
}

func (r *textRecorder) Constant(i int, c module.Constant) {
	r.printf("  %3d %s\n", i, c)
}

func (r *textRecorder) Import(i int, s module.ImportedSymbol) {
	pkg := ""
	if s.HasPackage() {
		pkg = fmt.Sprintf(" (package %d)", s.PackageIndex)
	}
	r.printf("  %3d %-8s %s%s\n", i, s.Type, r.style(nameStyle, s.Name), pkg)
}

func (r *textRecorder) finish(res *resolver.Resolver) error {
	r.printf("%d byte body, %s\n", len(res.Module().Body), res.Path())
	return r.err
}

func describeTypes(types []module.VariableType) string {
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}

// describeExport renders the payload of an export after its name.
func describeExport(s *module.ExportedSymbol) string {
	switch d := s.Desc.(type) {
	case module.ConstantIndex:
		return fmt.Sprintf(" = constant[%d]", d)
	case *module.FunctionDescriptor:
		sig := fmt.Sprintf("(%s) -> %s", describeTypes(d.Signature.Args), d.Signature.Return)
		switch details := d.Details.(type) {
		case module.NativeDetails:
			return sig + " native " + details.Library
		case module.BytecodeDetails:
			return fmt.Sprintf("%s @%d+%d", sig, details.Offset, details.Size)
		}
		return sig
	case *module.StructDescriptor:
		members := make([]string, len(d.Members))
		for i, m := range d.Members {
			members[i] = m.Name + ": " + m.Type.String()
		}
		return describeFlags(d.Flags) + " { " + strings.Join(members, ", ") + " }"
	}
	return ""
}

func describeFlags(flags module.StructFlags) string {
	var names []string
	if flags&module.StructAllowCast != 0 {
		names = append(names, "allow-cast")
	}
	if flags&module.StructNative != 0 {
		names = append(names, "native")
	}
	if len(names) == 0 {
		return ""
	}
	return " [" + strings.Join(names, ",") + "]"
}
