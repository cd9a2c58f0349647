package editor

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/hivekeep/internal/apiary"
)

// Tool is the active frame tool: one of the frame contents or DeleteTool.
type Tool string

// DeleteTool removes the clicked frame.
const DeleteTool Tool = "delete-frame"

// ParseTool validates a tool name.
func ParseTool(s string) (Tool, error) {
	t := Tool(strings.TrimSpace(s))
	if t == DeleteTool || apiary.FrameContent(t).Valid() {
		return t, nil
	}
	return "", apiary.Invalid("tool", s, "expected a frame content or delete-frame")
}

// Content returns the frame content the tool paints, or false for DeleteTool.
func (t Tool) Content() (apiary.FrameContent, bool) {
	if t == DeleteTool {
		return "", false
	}
	return apiary.FrameContent(t), true
}

const slotPrefix = "slot:"

// Target is what a click landed on: an empty slot or an existing frame.
type Target struct {
	FrameID string // empty for slot targets
	Slot    int
}

// SlotTarget addresses an empty slot.
func SlotTarget(slot int) Target { return Target{Slot: slot} }

// FrameTarget addresses an existing frame.
func FrameTarget(id string) Target { return Target{FrameID: id} }

// IsSlot reports whether the target is an empty slot.
func (t Target) IsSlot() bool { return t.FrameID == "" }

// String returns the click payload form: "slot:N" or the frame id.
func (t Target) String() string {
	if t.IsSlot() {
		return slotPrefix + strconv.Itoa(t.Slot)
	}
	return t.FrameID
}

// ParseTarget parses a click payload. "slot:N" is a slot; anything else
// non-empty is a frame id.
func ParseTarget(payload string) (Target, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return Target{}, apiary.Invalid("target", "", "empty click target")
	}
	rest, ok := strings.CutPrefix(payload, slotPrefix)
	if !ok {
		return FrameTarget(payload), nil
	}
	slot, err := strconv.Atoi(rest)
	if err != nil || slot < 0 {
		return Target{}, apiary.Invalid("target", payload, fmt.Sprintf("bad slot %q", rest))
	}
	return SlotTarget(slot), nil
}

// Action is the effect a click had.
type Action string

const (
	ActionNone    Action = "none"
	ActionAdded   Action = "added"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)
