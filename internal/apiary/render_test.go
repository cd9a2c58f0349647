package apiary

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlotRow(t *testing.T) {
	b := BoxWithFrames{
		Box: Box{Capacity: 6},
		Frames: []Frame{
			{Position: 0, Content: ContentHoney},
			{Position: 2, Content: ContentBrood},
			{Position: 3, Content: ContentFoundation},
			{Position: 5, Content: ContentEmpty},
		},
	}
	assert.Equal(t, "H.BF.E", SlotRow(b))
}

func TestSlotRow_IgnoresOutOfRange(t *testing.T) {
	b := BoxWithFrames{
		Box:    Box{Capacity: 3},
		Frames: []Frame{{Position: 7, Content: ContentHoney}},
	}
	assert.Equal(t, "...", SlotRow(b))
}

func TestRenderStack_TopBoxFirst(t *testing.T) {
	cfg := HiveConfiguration{
		Hive: Hive{Number: "001", Status: StatusActive},
		Boxes: []BoxWithFrames{
			{Box: Box{Position: 0, Size: SizeDeep, Capacity: 10}, Frames: []Frame{{Position: 3, Content: ContentHoney}}},
			{Box: Box{Position: 1, Size: SizeMedium, Capacity: 8}},
		},
	}

	want := "Hive 001 (Active)\n" +
		"  1 Medium  8 |........|\n" +
		"  0 Deep   10 |...H......|\n"
	assert.Equal(t, want, RenderStack(cfg))
}

func TestRenderStack_NoBoxes(t *testing.T) {
	cfg := HiveConfiguration{Hive: Hive{Number: "007", Status: StatusArchived}}
	assert.Equal(t, "Hive 007 (Archived)\n  (no boxes)\n", RenderStack(cfg))
}
