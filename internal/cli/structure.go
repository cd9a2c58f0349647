package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/hivekeep/internal/apiary"
	"github.com/roach88/hivekeep/internal/editor"
	"github.com/roach88/hivekeep/internal/store"
)

// auditFlags control the config_change inspection written after a
// structural command.
type auditFlags struct {
	NoAudit bool
	Notes   string
}

func (a *auditFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&a.NoAudit, "no-audit", false, "do not record a config_change inspection")
	cmd.Flags().StringVar(&a.Notes, "notes", "", "notes appended to the audit inspection")
}

// editResult is the JSON payload of a structural command.
type editResult struct {
	Configuration apiary.HiveConfiguration `json:"configuration"`
	Audit         *apiary.Inspection       `json:"audit,omitempty"`
}

// runEdit applies ops to hiveID in one editor session and, unless
// disabled, saves one audit inspection.
func (o *RootOptions) runEdit(cmd *cobra.Command, hiveID string, ops []editor.Op, audit *auditFlags) error {
	return o.withStore(cmd, func(ctx context.Context, st *store.Store, f *OutputFormatter) error {
		sess, err := editor.NewSession(ctx, st, hiveID, editor.WithLogger(o.logger()))
		if err != nil {
			return err
		}
		if err := editor.RunOps(ctx, sess, ops, o.boxDefaults()); err != nil {
			return err
		}

		var res editResult
		if !audit.NoAudit {
			insp, err := sess.Save(ctx, audit.Notes)
			if err != nil {
				return err
			}
			res.Audit = &insp
		}

		res.Configuration, err = sess.Configuration(ctx)
		if err != nil {
			return err
		}
		return f.Emit(res, apiary.RenderStack(res.Configuration))
	})
}

// NewBoxCommand creates the box command group.
func NewBoxCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "box",
		Short: "Add boxes to or remove them from the top of a hive",
	}
	cmd.AddCommand(newBoxAddCommand(rootOpts))
	cmd.AddCommand(newBoxRemoveCommand(rootOpts))
	return cmd
}

func newBoxAddCommand(rootOpts *RootOptions) *cobra.Command {
	audit := &auditFlags{}
	var size string
	var capacity int

	cmd := &cobra.Command{
		Use:   "add <hive-id>",
		Short: "Put an empty box on top of the stack",
		Long: `Put an empty box on top of the stack.

Size and capacity default to the default_box settings (deep, 10).`,
		Example: `  hivekeep box add north-1
  hivekeep box add north-1 --size medium --capacity 8 --notes "honey super"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			op := editor.Op{Op: editor.OpAddBox, Size: apiary.BoxSize(size), Capacity: capacity}
			return rootOpts.runEdit(cmd, args[0], []editor.Op{op}, audit)
		},
	}
	cmd.Flags().StringVar(&size, "size", "", "deep|medium (default from config)")
	cmd.Flags().IntVar(&capacity, "capacity", 0, "frame capacity (default from config)")
	audit.register(cmd)

	return cmd
}

func newBoxRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	audit := &auditFlags{}

	cmd := &cobra.Command{
		Use:   "remove <hive-id>",
		Short: "Take the top box and its frames off the stack",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			op := editor.Op{Op: editor.OpRemoveTopBox}
			return rootOpts.runEdit(cmd, args[0], []editor.Op{op}, audit)
		},
	}
	audit.register(cmd)

	return cmd
}

// NewFrameCommand creates the frame command group.
func NewFrameCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "frame",
		Short: "Place, repaint and remove frames",
		Long: `Place, repaint and remove frames.

Boxes are addressed by stack position (0 = bottom) and frames by slot
within the box (0 = leftmost).`,
	}
	cmd.AddCommand(newFrameCommand(rootOpts, editor.OpAddFrame, "add <hive-id> <box> <slot> <content>", "Place a frame in an empty slot", 4))
	cmd.AddCommand(newFrameCommand(rootOpts, editor.OpSetFrame, "set <hive-id> <box> <slot> <content>", "Change what a frame holds", 4))
	cmd.AddCommand(newFrameCommand(rootOpts, editor.OpDeleteFrame, "delete <hive-id> <box> <slot>", "Remove a frame, leaving its slot empty", 3))
	return cmd
}

func newFrameCommand(rootOpts *RootOptions, opName, use, short string, nargs int) *cobra.Command {
	audit := &auditFlags{}

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(nargs),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			box, err := strconv.Atoi(args[1])
			if err != nil {
				return usageError(f, "box position %q is not a number", args[1])
			}
			slot, err := strconv.Atoi(args[2])
			if err != nil {
				return usageError(f, "slot %q is not a number", args[2])
			}

			op := editor.Op{Op: opName, Box: &box, Slot: &slot}
			if nargs == 4 {
				op.Content = apiary.FrameContent(args[3])
			}
			return rootOpts.runEdit(cmd, args[0], []editor.Op{op}, audit)
		},
	}
	audit.register(cmd)

	return cmd
}

// NewEditCommand creates the edit command.
func NewEditCommand(rootOpts *RootOptions) *cobra.Command {
	var planPath string

	cmd := &cobra.Command{
		Use:   "edit <hive-id> -f <plan.yaml>",
		Short: "Apply a YAML edit plan as one editing session",
		Long: `Apply a YAML edit plan as one editing session.

The ops run in order. When all succeed, one config_change inspection is
recorded with the plan's notes. When an op fails, the ops before it stay
applied and nothing is recorded.

Plan format:

  notes: added a honey super
  ops:
    - op: add_box
      size: medium
      capacity: 10
    - op: add_frame
      box: 1
      slot: 0
      content: honey`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			plan, err := editor.LoadPlan(planPath)
			if err != nil {
				return report(f, err)
			}
			return rootOpts.withStore(cmd, func(ctx context.Context, st *store.Store, f *OutputFormatter) error {
				sess, err := editor.NewSession(ctx, st, args[0], editor.WithLogger(rootOpts.logger()))
				if err != nil {
					return err
				}
				insp, err := editor.Apply(ctx, sess, plan, rootOpts.boxDefaults())
				if err != nil {
					return err
				}
				cfg, err := sess.Configuration(ctx)
				if err != nil {
					return err
				}
				text := apiary.RenderStack(cfg) + fmt.Sprintf("Applied %d ops; recorded %s\n", len(plan.Ops), insp.ID)
				return f.Emit(editResult{Configuration: cfg, Audit: &insp}, text)
			})
		},
	}
	cmd.Flags().StringVarP(&planPath, "file", "f", "", "edit plan file")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}
