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

// NewInspectCommand creates the inspect command group.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Record and list hive inspections",
	}
	cmd.AddCommand(newInspectAddCommand(rootOpts))
	cmd.AddCommand(newInspectListCommand(rootOpts))
	return cmd
}

func newInspectAddCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		kind        string
		queenSeen   bool
		brood       int
		stores      string
		temperament int
		notes       string
	)

	cmd := &cobra.Command{
		Use:   "add <hive-id>",
		Short: "Record an inspection dated now",
		Example: `  hivekeep inspect add north-1 --queen-seen --brood 6 --stores high
  hivekeep inspect add north-1 --kind clinical --notes "chalkbrood on two frames"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			insp := apiary.Inspection{
				HiveID:        args[0],
				Kind:          apiary.InspectionKind(kind),
				QueenSeen:     queenSeen,
				FramesOfBrood: brood,
				HoneyStores:   apiary.HoneyStores(stores),
				Temperament:   temperament,
				Notes:         notes,
			}
			return rootOpts.withStore(cmd, func(ctx context.Context, st *store.Store, f *OutputFormatter) error {
				created, err := st.AddInspection(ctx, insp)
				if err != nil {
					return err
				}
				text := fmt.Sprintf("Recorded %s inspection %s for hive %s\n", created.Kind, created.ID, created.HiveID)
				return f.Emit(created, text)
			})
		},
	}
	cmd.Flags().StringVar(&kind, "kind", string(apiary.KindGeneral), "general|clinical|config_change")
	cmd.Flags().BoolVar(&queenSeen, "queen-seen", false, "queen was sighted")
	cmd.Flags().IntVar(&brood, "brood", 0, "frames of brood")
	cmd.Flags().StringVar(&stores, "stores", string(apiary.StoresMedium), "honey stores: low|med|high")
	cmd.Flags().IntVar(&temperament, "temperament", 3, "temperament 1 (calm) to 5 (aggressive)")
	cmd.Flags().StringVar(&notes, "notes", "", "free text notes")

	return cmd
}

func newInspectListCommand(rootOpts *RootOptions) *cobra.Command {
	var kinds []string

	cmd := &cobra.Command{
		Use:   "list <hive-id>",
		Short: "List a hive's inspections, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := make([]apiary.InspectionKind, 0, len(kinds))
			for _, k := range kinds {
				filter = append(filter, apiary.InspectionKind(k))
			}
			return rootOpts.withStore(cmd, func(ctx context.Context, st *store.Store, f *OutputFormatter) error {
				list, err := st.ListInspections(ctx, args[0], filter...)
				if err != nil {
					return err
				}
				return f.Emit(list, formatInspections(list))
			})
		},
	}
	cmd.Flags().StringSliceVar(&kinds, "kind", nil, "only these kinds (repeatable)")

	return cmd
}

func formatInspections(list []apiary.Inspection) string {
	if len(list) == 0 {
		return "No inspections.\n"
	}
	var sb strings.Builder
	tw := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tKIND\tQUEEN\tBROOD\tSTORES\tTEMPER\tNOTES")
	for _, i := range list {
		queen := "no"
		if i.QueenSeen {
			queen = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%d\t%s\n",
			i.Date.UTC().Format("2006-01-02 15:04"), i.Kind, queen, i.FramesOfBrood, i.HoneyStores, i.Temperament, i.Notes)
	}
	_ = tw.Flush()
	return sb.String()
}
