package apiary

import (
	"fmt"
	"strings"
)

// slotGlyphs maps frame content to its one-character rendering.
// An unoccupied slot (no frame record) renders as '.'.
var slotGlyphs = map[FrameContent]byte{
	ContentHoney:      'H',
	ContentBrood:      'B',
	ContentFoundation: 'F',
	ContentEmpty:      'E',
}

// SlotRow renders a box's slots left to right, e.g. "H..B......".
func SlotRow(b BoxWithFrames) string {
	row := []byte(strings.Repeat(".", b.Capacity))
	for _, f := range b.Frames {
		if f.Position < 0 || f.Position >= len(row) {
			continue
		}
		if g, ok := slotGlyphs[f.Content]; ok {
			row[f.Position] = g
		}
	}
	return string(row)
}

// RenderStack draws a configuration as plain text with the top box first,
// the way the hive stands.
//
//	Hive 001 (Active)
//	  1 Medium  8 |H.......|
//	  0 Deep   10 |...H......|
func RenderStack(cfg HiveConfiguration) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Hive %s (%s)\n", cfg.Number, Label(cfg.Status))
	if len(cfg.Boxes) == 0 {
		sb.WriteString("  (no boxes)\n")
		return sb.String()
	}
	for i := len(cfg.Boxes) - 1; i >= 0; i-- {
		b := cfg.Boxes[i]
		fmt.Fprintf(&sb, "  %d %-6s %2d |%s|\n", b.Position, Label(b.Size), b.Capacity, SlotRow(b))
	}
	return sb.String()
}
