package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wippyai/slang/codegen"
	"github.com/wippyai/slang/token"
	"github.com/wippyai/slang/typing"
)

func getCmdLink(gs *globalState) *cobra.Command {
	linkCmd := &cobra.Command{
		Use:   "link IMPORT...",
		Short: "Resolve imports and print the linked declarations",
		Long: `Resolve the given import names as a compilation unit would and print
  every declaration the linker injects, with modules in dependency order.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ty := typing.NewContext()
			for _, name := range args {
				ty.AddImport(token.Ident(name, token.Location{}))
			}
			cg := codegen.NewContext()
			ctx := gs.linker()
			if err := ctx.Link(cg, ty, nil); err != nil {
				return err
			}
			return printLinked(gs.stdout, ctx.Graph().Order(), cg)
		},
	}
	return linkCmd
}

func printLinked(w io.Writer, order []string, cg *codegen.Context) error {
	var b strings.Builder

	b.WriteString("Modules:\n")
	for _, name := range order {
		fmt.Fprintf(&b, "  %s\n", name)
	}

	if structs := cg.Structs(); len(structs) > 0 {
		b.WriteString("Structs:\n")
		for _, s := range structs {
			members := make([]string, len(s.Members))
			for i, m := range s.Members {
				members[i] = m.Name + ": " + m.Value.String()
			}
			fmt.Fprintf(&b, "  %s::%s { %s }\n", s.Package, s.Name, strings.Join(members, ", "))
		}
	}

	if constants := cg.Constants(); len(constants) > 0 {
		b.WriteString("Constants:\n")
		for _, c := range constants {
			fmt.Fprintf(&b, "  %s::%s = %s\n", c.Package, c.Name, c.Constant)
		}
	}

	if prototypes := cg.Prototypes(); len(prototypes) > 0 {
		b.WriteString("Functions:\n")
		for _, p := range prototypes {
			fmt.Fprintf(&b, "  %s\n", p)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}
