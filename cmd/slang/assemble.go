package main

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wippyai/slang/archive"
	"github.com/wippyai/slang/errors"
	"github.com/wippyai/slang/internal/manifest"
)

func getCmdAssemble(gs *globalState) *cobra.Command {
	var output string
	assembleCmd := &cobra.Command{
		Use:   "assemble MANIFEST",
		Short: "Build a compiled module from a YAML manifest",
		Long: `Build a compiled module from a YAML manifest.

  The manifest has the layout printed by "slang inspect --format yaml".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				return errors.InvalidInput(errors.PhaseConfig, "missing output path (-o)")
			}

			data, err := afero.ReadFile(gs.fs, args[0])
			if err != nil {
				return errors.Load("read manifest "+args[0], err)
			}
			doc, err := manifest.Unmarshal(data)
			if err != nil {
				return err
			}
			m, err := doc.Module()
			if err != nil {
				return err
			}

			f, err := gs.fileManager().Open(absolute(output), archive.ModeWrite)
			if err != nil {
				return err
			}
			if err := m.Transcode(f); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}

			gs.logger.Info("module assembled",
				zap.String("manifest", args[0]),
				zap.String("output", f.Path()),
				zap.Int("exports", len(m.Header.Exports)),
			)
			_, err = fmt.Fprintf(gs.stdout, "wrote %s (%d exports, %d byte body)\n", f.Path(), len(m.Header.Exports), len(m.Body))
			return err
		},
	}
	assembleCmd.Flags().StringVarP(&output, "output", "o", "", "output module path")
	return assembleCmd
}
