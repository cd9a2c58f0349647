package cli

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/hivekeep/internal/apiary"
	"github.com/roach88/hivekeep/internal/store"
)

// hiveFlags holds the editable hive fields.
type hiveFlags struct {
	ID        string
	Number    string
	Type      string
	Status    string
	Breed     string
	QueenYear int
	Color     string
	Notes     string
}

func (h *hiveFlags) register(cmd *cobra.Command, withID bool) {
	if withID {
		cmd.Flags().StringVar(&h.ID, "id", "", "hive id (generated when empty)")
	}
	cmd.Flags().StringVar(&h.Number, "number", "", "display number")
	cmd.Flags().StringVar(&h.Type, "type", "", "enclosure type, e.g. Dadant")
	cmd.Flags().StringVar(&h.Status, "status", "", "active|archived")
	cmd.Flags().StringVar(&h.Breed, "breed", "", "queen breed")
	cmd.Flags().IntVar(&h.QueenYear, "queen-year", 0, "queen installation year")
	cmd.Flags().StringVar(&h.Color, "color", "", "display color")
	cmd.Flags().StringVar(&h.Notes, "notes", "", "free-text notes")
}

// apply copies every flag that was set on the command line onto hv.
func (h *hiveFlags) apply(cmd *cobra.Command, hv *apiary.Hive) {
	changed := cmd.Flags().Changed
	if changed("number") {
		hv.Number = h.Number
	}
	if changed("type") {
		hv.Type = h.Type
	}
	if changed("status") {
		hv.Status = apiary.HiveStatus(h.Status)
	}
	if changed("breed") {
		hv.Breed = h.Breed
	}
	if changed("queen-year") {
		hv.QueenYear = h.QueenYear
	}
	if changed("color") {
		hv.Color = h.Color
	}
	if changed("notes") {
		hv.Notes = h.Notes
	}
}

// NewHiveCommand creates the hive command group.
func NewHiveCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hive",
		Short: "Create, list and manage hives",
	}

	cmd.AddCommand(newHiveCreateCommand(rootOpts))
	cmd.AddCommand(newHiveListCommand(rootOpts))
	cmd.AddCommand(newHiveShowCommand(rootOpts))
	cmd.AddCommand(newHiveUpdateCommand(rootOpts))
	cmd.AddCommand(newHiveStatusCommand(rootOpts, "archive", apiary.StatusArchived))
	cmd.AddCommand(newHiveStatusCommand(rootOpts, "activate", apiary.StatusActive))
	cmd.AddCommand(newHiveDeleteCommand(rootOpts))

	return cmd
}

func newHiveCreateCommand(rootOpts *RootOptions) *cobra.Command {
	flags := &hiveFlags{}

	cmd := &cobra.Command{
		Use:   "create --number <number>",
		Short: "Register a hive",
		Example: `  hivekeep hive create --number 001 --type Dadant --breed Carniolan --queen-year 2024
  hivekeep hive create --id north-1 --number 002 --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withStore(cmd, func(ctx context.Context, st *store.Store, f *OutputFormatter) error {
				hv := apiary.Hive{ID: flags.ID}
				flags.apply(cmd, &hv)

				created, err := st.CreateHive(ctx, hv)
				if err != nil {
					return err
				}
				return f.Emit(created, fmt.Sprintf("Created hive %s (%s)\n", created.Number, created.ID))
			})
		},
	}
	flags.register(cmd, true)
	_ = cmd.MarkFlagRequired("number")

	return cmd
}

func newHiveListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List hives ordered by number",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withStore(cmd, func(ctx context.Context, st *store.Store, f *OutputFormatter) error {
				hives, err := st.ListHives(ctx)
				if err != nil {
					return err
				}
				return f.Emit(hives, renderHiveTable(hives))
			})
		},
	}
}

func renderHiveTable(hives []apiary.Hive) string {
	if len(hives) == 0 {
		return "No hives.\n"
	}
	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NUMBER\tSTATUS\tTYPE\tBREED\tQUEEN\tID")
	for _, h := range hives {
		queen := "-"
		if h.QueenYear > 0 {
			queen = fmt.Sprint(h.QueenYear)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", h.Number, apiary.Label(h.Status), dash(h.Type), dash(h.Breed), queen, h.ID)
	}
	w.Flush()
	return sb.String()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func newHiveShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <hive-id>",
		Short: "Show a hive with its box and frame configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withStore(cmd, func(ctx context.Context, st *store.Store, f *OutputFormatter) error {
				cfg, err := st.GetFullConfiguration(ctx, args[0])
				if err != nil {
					return err
				}
				return f.Emit(cfg, renderHiveDetail(cfg))
			})
		},
	}
}

func renderHiveDetail(cfg apiary.HiveConfiguration) string {
	var sb strings.Builder
	sb.WriteString(apiary.RenderStack(cfg))
	fmt.Fprintf(&sb, "  id: %s\n", cfg.ID)
	if cfg.Type != "" {
		fmt.Fprintf(&sb, "  type: %s\n", cfg.Type)
	}
	if cfg.Breed != "" {
		fmt.Fprintf(&sb, "  breed: %s\n", cfg.Breed)
	}
	if cfg.QueenYear > 0 {
		fmt.Fprintf(&sb, "  queen year: %d\n", cfg.QueenYear)
	}
	if cfg.Color != "" {
		fmt.Fprintf(&sb, "  color: %s\n", cfg.Color)
	}
	if cfg.Notes != "" {
		fmt.Fprintf(&sb, "  notes: %s\n", cfg.Notes)
	}
	fmt.Fprintf(&sb, "  frames: %d\n", cfg.FrameCount())
	return sb.String()
}

func newHiveUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	flags := &hiveFlags{}

	cmd := &cobra.Command{
		Use:     "update <hive-id>",
		Short:   "Change hive fields; only the flags given are updated",
		Example: `  hivekeep hive update north-1 --breed Buckfast --queen-year 2025`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withStore(cmd, func(ctx context.Context, st *store.Store, f *OutputFormatter) error {
				hv, err := st.GetHive(ctx, args[0])
				if err != nil {
					return err
				}
				flags.apply(cmd, &hv)

				updated, err := st.UpdateHive(ctx, hv)
				if err != nil {
					return err
				}
				return f.Emit(updated, fmt.Sprintf("Updated hive %s (%s)\n", updated.Number, updated.ID))
			})
		},
	}
	flags.register(cmd, false)

	return cmd
}

func newHiveStatusCommand(rootOpts *RootOptions, use string, status apiary.HiveStatus) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <hive-id>",
		Short: fmt.Sprintf("Mark a hive %s", status),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withStore(cmd, func(ctx context.Context, st *store.Store, f *OutputFormatter) error {
				if err := st.SetHiveStatus(ctx, args[0], status); err != nil {
					return err
				}
				data := map[string]string{"id": args[0], "status": string(status)}
				return f.Emit(data, fmt.Sprintf("Hive %s is now %s\n", args[0], status))
			})
		},
	}
}

func newHiveDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <hive-id>",
		Short: "Delete a hive with its boxes, frames, inspections, harvests and treatments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withStore(cmd, func(ctx context.Context, st *store.Store, f *OutputFormatter) error {
				if err := st.DeleteHive(ctx, args[0]); err != nil {
					return err
				}
				return f.Emit(map[string]string{"id": args[0]}, fmt.Sprintf("Deleted hive %s\n", args[0]))
			})
		},
	}
}
