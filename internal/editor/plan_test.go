package editor

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hivekeep/internal/apiary"
)

var defaults = BoxDefaults{Size: apiary.SizeDeep, Capacity: 10}

func TestLoadPlan(t *testing.T) {
	p, err := LoadPlan(filepath.Join("testdata", "super.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "added a honey super", p.Notes)
	require.Len(t, p.Ops, 6)
	assert.Equal(t, OpAddBox, p.Ops[0].Op)
	assert.Equal(t, apiary.SizeMedium, p.Ops[1].Size)
}

func TestLoadPlan_MissingFile(t *testing.T) {
	_, err := LoadPlan(filepath.Join("testdata", "nope.yaml"))
	assert.Error(t, err)
}

func TestParsePlan_Rejects(t *testing.T) {
	tests := map[string]string{
		"empty":            ``,
		"no ops":           `notes: hi`,
		"unknown field":    "ops:\n  - op: add_box\n    colour: red\n",
		"unknown op":       "ops:\n  - op: flip_box\n",
		"frame op no slot": "ops:\n  - op: add_frame\n    box: 0\n    content: honey\n",
		"bad content":      "ops:\n  - op: set_frame\n    box: 0\n    slot: 1\n    content: wax\n",
		"delete content":   "ops:\n  - op: delete_frame\n    box: 0\n    slot: 1\n    content: honey\n",
		"bad size":         "ops:\n  - op: add_box\n    size: jumbo\n",
		"remove with box":  "ops:\n  - op: remove_top_box\n    box: 1\n",
		"negative slot":    "ops:\n  - op: delete_frame\n    box: 0\n    slot: -2\n",
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParsePlan(strings.NewReader(src))
			require.Error(t, err)
			assert.True(t, apiary.IsInvalidInput(err), "got %v", err)
		})
	}
}

func TestApply(t *testing.T) {
	ctx := context.Background()
	s, _, h := setup(t)
	sess, err := NewSession(ctx, s, h.ID)
	require.NoError(t, err)

	p, err := LoadPlan(filepath.Join("testdata", "super.yaml"))
	require.NoError(t, err)

	insp, err := Apply(ctx, sess, p, defaults)
	require.NoError(t, err)
	assert.Equal(t, "Configuration Changed. added a honey super", insp.Notes)

	cfg, err := s.GetFullConfiguration(ctx, h.ID)
	require.NoError(t, err)
	require.Len(t, cfg.Boxes, 2)
	assert.Equal(t, apiary.SizeDeep, cfg.Boxes[0].Size)
	assert.Equal(t, 10, cfg.Boxes[0].Capacity)
	assert.Equal(t, apiary.SizeMedium, cfg.Boxes[1].Size)
	assert.Equal(t, 8, cfg.Boxes[1].Capacity)

	require.Len(t, cfg.Boxes[0].Frames, 1)
	assert.Equal(t, 4, cfg.Boxes[0].Frames[0].Position)
	assert.Equal(t, apiary.ContentBrood, cfg.Boxes[0].Frames[0].Content)
	assert.Empty(t, cfg.Boxes[1].Frames)

	audit, err := s.ListInspections(ctx, h.ID, apiary.KindConfigChange)
	require.NoError(t, err)
	assert.Len(t, audit, 1)
}

func TestApply_StopsAtFailingOp(t *testing.T) {
	ctx := context.Background()
	s, _, h := setup(t)
	sess, err := NewSession(ctx, s, h.ID)
	require.NoError(t, err)

	p, err := ParsePlan(strings.NewReader(`
ops:
  - op: add_box
  - op: add_frame
    box: 0
    slot: 1
    content: honey
  - op: add_frame
    box: 0
    slot: 1
    content: brood
`))
	require.NoError(t, err)

	_, err = Apply(ctx, sess, p, defaults)
	require.Error(t, err)
	assert.True(t, apiary.IsConflict(err))
	assert.Contains(t, err.Error(), "op 2 (add_frame)")

	list, err := s.ListInspections(ctx, h.ID)
	require.NoError(t, err)
	assert.Empty(t, list, "a failed plan is not saved")

	cfg, err := s.GetFullConfiguration(ctx, h.ID)
	require.NoError(t, err)
	require.Len(t, cfg.Boxes, 1)
	assert.Len(t, cfg.Boxes[0].Frames, 1)
}

func TestApply_MissingBoxOrFrame(t *testing.T) {
	ctx := context.Background()
	s, _, h := setup(t)
	sess, err := NewSession(ctx, s, h.ID)
	require.NoError(t, err)

	for _, src := range []string{
		"ops:\n  - op: add_frame\n    box: 0\n    slot: 0\n    content: honey\n",
		"ops:\n  - op: add_box\n  - op: delete_frame\n    box: 0\n    slot: 3\n",
	} {
		p, err := ParsePlan(strings.NewReader(src))
		require.NoError(t, err)
		_, err = Apply(ctx, sess, p, defaults)
		assert.True(t, apiary.IsNotFound(err), "got %v", err)
	}
}

func TestRunOps_DoesNotSave(t *testing.T) {
	ctx := context.Background()
	s, _, h := setup(t)
	sess, err := NewSession(ctx, s, h.ID)
	require.NoError(t, err)

	box, slot := 0, 2
	err = RunOps(ctx, sess, []Op{
		{Op: OpAddBox, Size: apiary.SizeMedium},
		{Op: OpAddFrame, Box: &box, Slot: &slot, Content: apiary.ContentHoney},
	}, defaults)
	require.NoError(t, err)
	assert.Equal(t, 2, sess.Edits())

	cfg, err := s.GetFullConfiguration(ctx, h.ID)
	require.NoError(t, err)
	require.Len(t, cfg.Boxes, 1)
	assert.Equal(t, 10, cfg.Boxes[0].Capacity, "capacity falls back to the defaults")
	assert.Len(t, cfg.Boxes[0].Frames, 1)

	list, err := s.ListInspections(ctx, h.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRunOps_RejectsInvalidOp(t *testing.T) {
	ctx := context.Background()
	s, _, h := setup(t)
	sess, err := NewSession(ctx, s, h.ID)
	require.NoError(t, err)

	err = RunOps(ctx, sess, []Op{{Op: OpSetFrame}}, defaults)
	require.Error(t, err)
	assert.True(t, apiary.IsInvalidInput(err))
	assert.Contains(t, err.Error(), "box and slot are required")
}
