package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/hivekeep/internal/apiary"
	"github.com/roach88/hivekeep/internal/config"
	"github.com/roach88/hivekeep/internal/editor"
	"github.com/roach88/hivekeep/internal/store"
)

// Version is reported by --version.
var Version = "dev"

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	DB         string
	ConfigPath string

	// Config and Logger are resolved before any subcommand runs.
	Config *config.Config
	Logger *slog.Logger
}

// NewRootCommand creates the root command for the hivekeep CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "hivekeep",
		Short: "hivekeep - hive configuration records",
		Long: `Local record keeping for hives: box and frame configuration,
inspections, harvest and treatment history, and JSON backups.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.resolve(cmd)
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.DB, "db", "", "database path (default ~/.config/hivekeep/hivekeep.db)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default ~/.config/hivekeep/config.yaml)")

	cmd.AddCommand(NewHiveCommand(opts))
	cmd.AddCommand(NewBoxCommand(opts))
	cmd.AddCommand(NewFrameCommand(opts))
	cmd.AddCommand(NewInspectCommand(opts))
	cmd.AddCommand(NewEditCommand(opts))
	cmd.AddCommand(NewSummaryCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// Execute runs the command tree with args and returns the process exit code.
// Errors already reported by a command are not printed again.
func Execute(args []string, stdout, stderr io.Writer) int {
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.Execute()
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	// Cobra usage errors: unknown command, bad flag, wrong arg count.
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return ExitCommandError
}

// resolve loads configuration with flags taking precedence and installs
// the logger.
func (o *RootOptions) resolve(cmd *cobra.Command) error {
	loader := config.NewLoader()
	flags := cmd.Root().PersistentFlags()
	if err := loader.BindFlag(config.KeyDB, flags.Lookup("db")); err != nil {
		return o.reportUsage(cmd, err)
	}
	if err := loader.BindFlag(config.KeyFormat, flags.Lookup("format")); err != nil {
		return o.reportUsage(cmd, err)
	}

	cfg, err := loader.Load(o.ConfigPath)
	if err != nil {
		return o.reportUsage(cmd, err)
	}
	o.Config = cfg
	o.Format = cfg.Format
	o.DB = cfg.DB

	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		return o.reportUsage(cmd, err)
	}
	if o.Verbose {
		level = slog.LevelDebug
	}
	o.Logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	if cfg.File != "" {
		o.Logger.Debug("config loaded", "file", cfg.File)
	}
	return nil
}

func (o *RootOptions) reportUsage(cmd *cobra.Command, err error) error {
	f := &OutputFormatter{Format: "text", Writer: cmd.ErrOrStderr()}
	if isValidFormat(o.Format) {
		f.Format = o.Format
	}
	_ = f.Error(CodeUsage, err.Error(), nil)
	return WrapExitError(ExitCommandError, "invalid configuration", err)
}

// logger returns the resolved logger, or a discard logger when the
// subcommand runs without the root.
func (o *RootOptions) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o.Logger
}

// boxDefaults returns the configured size and capacity for new boxes.
func (o *RootOptions) boxDefaults() editor.BoxDefaults {
	if o.Config == nil {
		return editor.BoxDefaults{Size: apiary.SizeDeep, Capacity: 10}
	}
	return editor.BoxDefaults{
		Size:     apiary.BoxSize(o.Config.DefaultBox.Size),
		Capacity: o.Config.DefaultBox.Capacity,
	}
}

// formatter returns an output formatter writing to the command's streams.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// openStore opens the configured database, creating its directory.
func (o *RootOptions) openStore() (*store.Store, error) {
	if o.DB == "" {
		return nil, fmt.Errorf("no database path configured")
	}
	if dir := filepath.Dir(o.DB); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	return store.Open(o.DB, store.WithLogger(o.logger()))
}

// withStore opens the store, runs fn and reports its error.
func (o *RootOptions) withStore(cmd *cobra.Command, fn func(ctx context.Context, st *store.Store, f *OutputFormatter) error) error {
	f := o.formatter(cmd)
	st, err := o.openStore()
	if err != nil {
		_ = f.Error(CodeInternal, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	if err := fn(cmd.Context(), st, f); err != nil {
		return report(f, err)
	}
	return nil
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range config.ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
