package editor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/hivekeep/internal/apiary"
)

// Plan is a scripted editing session.
//
//	notes: added a honey super
//	ops:
//	  - op: add_box
//	    size: medium
//	    capacity: 10
//	  - op: add_frame
//	    box: 1
//	    slot: 0
//	    content: honey
type Plan struct {
	// Notes are appended to the audit inspection written after the ops.
	Notes string `yaml:"notes,omitempty"`

	// Ops run in order. Boxes are addressed by stack position at the time
	// the op runs, so an op can target a box added earlier in the plan.
	Ops []Op `yaml:"ops"`
}

// Op is one plan step.
type Op struct {
	// Op is one of the Op* constants.
	Op string `yaml:"op"`

	// Box is the stack position (0 = bottom). Frame ops only.
	Box *int `yaml:"box,omitempty"`

	// Slot is the frame position within the box. Frame ops only.
	Slot *int `yaml:"slot,omitempty"`

	// Size and Capacity describe a new box. add_box only; zero values fall
	// back to the defaults passed to Apply.
	Size     apiary.BoxSize `yaml:"size,omitempty"`
	Capacity int            `yaml:"capacity,omitempty"`

	// Content is the frame content. add_frame and set_frame only.
	Content apiary.FrameContent `yaml:"content,omitempty"`
}

// Plan op names.
const (
	OpAddBox       = "add_box"
	OpRemoveTopBox = "remove_top_box"
	OpAddFrame     = "add_frame"
	OpSetFrame     = "set_frame"
	OpDeleteFrame  = "delete_frame"
)

// BoxDefaults fill in add_box ops that omit size or capacity.
type BoxDefaults struct {
	Size     apiary.BoxSize
	Capacity int
}

// LoadPlan reads a plan file.
func LoadPlan(path string) (*Plan, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan file: %w", err)
	}
	defer f.Close()
	return ParsePlan(f)
}

// ParsePlan decodes a plan, rejecting unknown fields and malformed ops.
func ParsePlan(r io.Reader) (*Plan, error) {
	var p Plan
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&p); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, apiary.Invalid("plan", "", "empty plan")
		}
		return nil, apiary.WrapInvalid("plan", "failed to parse YAML", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks that every op names a known operation and carries the
// fields it needs.
func (p *Plan) Validate() error {
	if len(p.Ops) == 0 {
		return apiary.Invalid("plan", "", "ops list is required and must be non-empty")
	}
	for i, op := range p.Ops {
		if err := op.validate(); err != nil {
			return apiary.Invalid("plan", "", fmt.Sprintf("op %d (%s): %s", i, op.Op, err))
		}
	}
	return nil
}

func (o Op) validate() error {
	switch o.Op {
	case OpAddBox:
		if o.Size != "" && !o.Size.Valid() {
			return fmt.Errorf("unknown size %q", o.Size)
		}
		if o.Capacity < 0 {
			return fmt.Errorf("capacity must be positive")
		}
		if o.Box != nil || o.Slot != nil || o.Content != "" {
			return fmt.Errorf("takes only size and capacity")
		}
	case OpRemoveTopBox:
		if o.Box != nil || o.Slot != nil || o.Size != "" || o.Capacity != 0 || o.Content != "" {
			return fmt.Errorf("takes no fields")
		}
	case OpAddFrame, OpSetFrame, OpDeleteFrame:
		if o.Box == nil || o.Slot == nil {
			return fmt.Errorf("box and slot are required")
		}
		if *o.Box < 0 || *o.Slot < 0 {
			return fmt.Errorf("box and slot must not be negative")
		}
		if o.Size != "" || o.Capacity != 0 {
			return fmt.Errorf("size and capacity apply to add_box only")
		}
		if o.Op == OpDeleteFrame {
			if o.Content != "" {
				return fmt.Errorf("content is not allowed")
			}
		} else if !o.Content.Valid() {
			return fmt.Errorf("unknown content %q", o.Content)
		}
	default:
		return fmt.Errorf("unknown op")
	}
	return nil
}

// Apply runs the plan in s and, once every op has succeeded, saves the
// session with the plan's notes.
//
// Ops are written one at a time. If an op fails, the ops before it stay
// applied, nothing is saved, and the error names the failing op.
func Apply(ctx context.Context, s *Session, p *Plan, defaults BoxDefaults) (apiary.Inspection, error) {
	if err := p.Validate(); err != nil {
		return apiary.Inspection{}, err
	}
	if err := RunOps(ctx, s, p.Ops, defaults); err != nil {
		return apiary.Inspection{}, err
	}
	return s.Save(ctx, p.Notes)
}

// RunOps applies ops in order within s without saving the session.
// It stops at the first invalid or failing op.
func RunOps(ctx context.Context, s *Session, ops []Op, defaults BoxDefaults) error {
	for i, op := range ops {
		if err := op.validate(); err != nil {
			return apiary.Invalid("plan", "", fmt.Sprintf("op %d (%s): %s", i, op.Op, err))
		}
		if err := applyOp(ctx, s, op, defaults); err != nil {
			return fmt.Errorf("op %d (%s): %w", i, op.Op, err)
		}
	}
	return nil
}

func applyOp(ctx context.Context, s *Session, op Op, defaults BoxDefaults) error {
	switch op.Op {
	case OpAddBox:
		size, capacity := op.Size, op.Capacity
		if size == "" {
			size = defaults.Size
		}
		if capacity == 0 {
			capacity = defaults.Capacity
		}
		_, err := s.AddBox(ctx, size, capacity)
		return err

	case OpRemoveTopBox:
		_, err := s.RemoveTopBox(ctx)
		return err
	}

	box, err := s.boxAt(ctx, *op.Box)
	if err != nil {
		return err
	}
	slot := *op.Slot

	if op.Op == OpAddFrame {
		_, err := s.Click(ctx, box.ID, SlotTarget(slot), Tool(op.Content))
		return err
	}

	frame, ok := box.FrameAt(slot)
	if !ok {
		return apiary.NotFound("frame", fmt.Sprintf("box %d slot %d", *op.Box, slot))
	}
	tool := DeleteTool
	if op.Op == OpSetFrame {
		tool = Tool(op.Content)
	}
	_, err = s.Click(ctx, box.ID, FrameTarget(frame.ID), tool)
	return err
}

// boxAt returns the box at stack position pos with its frames.
func (s *Session) boxAt(ctx context.Context, pos int) (apiary.BoxWithFrames, error) {
	cfg, err := s.Configuration(ctx)
	if err != nil {
		return apiary.BoxWithFrames{}, err
	}
	for _, b := range cfg.Boxes {
		if b.Position == pos {
			return b, nil
		}
	}
	return apiary.BoxWithFrames{}, apiary.NotFound("box", fmt.Sprintf("position %d", pos))
}
