package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/hivekeep/internal/backup"
	"github.com/roach88/hivekeep/internal/store"
)

// NewSummaryCommand creates the summary command.
func NewSummaryCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show apiary totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withStore(cmd, func(ctx context.Context, st *store.Store, f *OutputFormatter) error {
				sum, err := st.Summary(ctx)
				if err != nil {
					return err
				}
				text := fmt.Sprintf("Hives:       %d (%d active, %d archived)\nInspections: %d\nHarvested:   %.1f kg\n",
					sum.TotalHives, sum.ActiveHives, sum.ArchivedHives, sum.Inspections, sum.HarvestKg)
				return f.Emit(sum, text)
			})
		},
	}
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a JSON backup of all hives and their records",
		Long: `Write a JSON backup of hives, inspections, harvests and treatments.

The backup goes to stdout unless -o is given. When -o names an existing
directory, the file is created there as apiary_backup_YYYY-MM-DD.json.
Box and frame configuration is not part of the backup format.`,
		Example: `  hivekeep export > backup.json
  hivekeep export -o ~/backups/`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withStore(cmd, func(ctx context.Context, st *store.Store, f *OutputFormatter) error {
				now := time.Now()
				doc, err := backup.Export(ctx, st, now)
				if err != nil {
					return err
				}

				if output == "" {
					return backup.Encode(cmd.OutOrStdout(), doc)
				}

				path := output
				if info, err := os.Stat(output); err == nil && info.IsDir() {
					path = filepath.Join(output, backup.FileName(now))
				}
				var buf bytes.Buffer
				if err := backup.Encode(&buf, doc); err != nil {
					return err
				}
				if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
					return fmt.Errorf("write backup: %w", err)
				}
				f.VerboseLog("wrote %d bytes", buf.Len())

				result := map[string]interface{}{
					"path":        path,
					"hives":       len(doc.Hives),
					"inspections": len(doc.Inspections),
				}
				text := fmt.Sprintf("Exported %d hives and %d inspections to %s\n", len(doc.Hives), len(doc.Inspections), path)
				return f.Emit(result, text)
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file or directory")

	return cmd
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace all records with the contents of a JSON backup",
		Long: `Replace all records with the contents of a JSON backup.

The file is checked in full before anything is written. An invalid backup
leaves the database unchanged. Box and frame configuration is kept for
hives present in the backup and removed for hives that are not.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			data, err := os.ReadFile(args[0])
			if err != nil {
				return usageError(f, "failed to read backup: %v", err)
			}
			return rootOpts.withStore(cmd, func(ctx context.Context, st *store.Store, f *OutputFormatter) error {
				doc, err := backup.Import(ctx, st, data)
				if err != nil {
					return err
				}
				result := map[string]interface{}{
					"hives":       len(doc.Hives),
					"inspections": len(doc.Inspections),
					"harvests":    len(doc.Harvests),
					"treatments":  len(doc.Treatments),
				}
				text := fmt.Sprintf("Imported %d hives, %d inspections, %d harvests, %d treatments\n",
					len(doc.Hives), len(doc.Inspections), len(doc.Harvests), len(doc.Treatments))
				return f.Emit(result, text)
			})
		},
	}
}
