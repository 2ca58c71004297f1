package main

import (
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/slang/config"
	"github.com/wippyai/slang/files"
	"github.com/wippyai/slang/linker"
	"github.com/wippyai/slang/resolver"
)

// globalState holds everything a command touches outside its arguments.
type globalState struct {
	fs     afero.Fs
	stdout io.Writer
	stderr io.Writer
	cfg    *config.Config
	logger *zap.Logger
	flags  globalFlags
	isTTY  bool
	color  bool
}

type globalFlags struct {
	configPath  string
	logLevel    string
	searchPaths []string
	noColor     bool
}

func newGlobalState() *globalState {
	return &globalState{
		fs:     afero.NewOsFs(),
		stdout: os.Stdout,
		stderr: os.Stderr,
		cfg:    config.Default(),
		logger: zap.NewNop(),
		isTTY:  term.IsTerminal(int(os.Stdout.Fd())),
	}
}

func newRootCommand(gs *globalState) *cobra.Command {
	root := &cobra.Command{
		Use:               "slang",
		Short:             "Inspect, assemble and link compiled slang modules",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: gs.persistentPreRunE,
	}
	root.PersistentFlags().AddFlagSet(gs.rootCmdPersistentFlagSet())
	root.SetOut(gs.stdout)
	root.SetErr(gs.stderr)

	root.AddCommand(
		getCmdInspect(gs),
		getCmdAssemble(gs),
		getCmdLink(gs),
		getCmdBrowse(gs),
	)
	return root
}

func (gs *globalState) rootCmdPersistentFlagSet() *pflag.FlagSet {
	flags := pflag.NewFlagSet("", pflag.ContinueOnError)
	flags.StringVarP(&gs.flags.configPath, "config", "c", config.FileName, "TOML config file")
	flags.StringSliceVarP(&gs.flags.searchPaths, "search-path", "I", nil, "module search path, searched before configured paths")
	flags.StringVar(&gs.flags.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.BoolVar(&gs.flags.noColor, "no-color", false, "disable colored output")
	return flags
}

func (gs *globalState) persistentPreRunE(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(gs.fs, gs.flags.configPath)
	if err != nil {
		return err
	}
	if len(gs.flags.searchPaths) > 0 {
		cfg.Modules.SearchPaths = append(append([]string(nil), gs.flags.searchPaths...), cfg.Modules.SearchPaths...)
	}
	if gs.flags.logLevel != "" {
		cfg.Log.Level = gs.flags.logLevel
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	gs.cfg = cfg
	gs.color = gs.isTTY && !gs.flags.noColor

	logger, err := cfg.NewLogger()
	if err != nil {
		return err
	}
	gs.logger = logger.Named(cmd.Name())
	resolver.SetLogger(gs.logger.Named("resolver"))
	linker.SetLogger(gs.logger.Named("linker"))
	return nil
}

func (gs *globalState) fileManager() *files.Manager {
	return files.NewManager(gs.fs, gs.cfg.FileOptions()...)
}

func (gs *globalState) linker() *linker.Context {
	return linker.New(gs.fileManager(), gs.cfg.LinkerOptions())
}

// modulePath resolves a command line module argument. Arguments with an
// extension are paths; anything else is an import name.
func (gs *globalState) modulePath(arg string) (string, error) {
	if filepath.Ext(arg) != "" {
		return gs.fileManager().Resolve(absolute(arg))
	}
	return gs.linker().ResolveName(arg)
}

func (gs *globalState) loadModule(arg string, opts ...resolver.Option) (*resolver.Resolver, error) {
	path, err := gs.modulePath(arg)
	if err != nil {
		return nil, err
	}
	return resolver.New(gs.fileManager(), path, opts...)
}

func absolute(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
