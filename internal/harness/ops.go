package harness

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"github.com/roach88/hivekeep/internal/apiary"
	"github.com/roach88/hivekeep/internal/backup"
	"github.com/roach88/hivekeep/internal/editor"
)

// operation executes one named store or editor call.
type operation func(ctx context.Context, h *Harness, args map[string]interface{}) (map[string]interface{}, error)

var operations map[string]operation

func init() {
	operations = map[string]operation{
		"createHive":         opCreateHive,
		"setHiveStatus":      opSetHiveStatus,
		"deleteHive":         opDeleteHive,
		"addBox":             opAddBox,
		"removeTopBox":       opRemoveTopBox,
		"addFrame":           opAddFrame,
		"updateFrameContent": opUpdateFrameContent,
		"deleteFrame":        opDeleteFrame,
		"click":              opClick,
		"saveConfiguration":  opSaveConfiguration,
		"addInspection":      opAddInspection,
		"roundTrip":          opRoundTrip,
	}
}

func opCreateHive(ctx context.Context, h *Harness, args map[string]interface{}) (map[string]interface{}, error) {
	hv := apiary.Hive{
		ID:     optString(args, "id", ""),
		Number: optString(args, "number", ""),
		Type:   optString(args, "type", ""),
		Status: apiary.HiveStatus(optString(args, "status", "")),
	}
	created, err := h.store.CreateHive(ctx, hv)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"id": created.ID}, nil
}

func opSetHiveStatus(ctx context.Context, h *Harness, args map[string]interface{}) (map[string]interface{}, error) {
	hive, err := argString(args, "hive")
	if err != nil {
		return nil, err
	}
	status, err := argString(args, "status")
	if err != nil {
		return nil, err
	}
	return nil, h.store.SetHiveStatus(ctx, hive, apiary.HiveStatus(status))
}

func opDeleteHive(ctx context.Context, h *Harness, args map[string]interface{}) (map[string]interface{}, error) {
	hive, err := argString(args, "hive")
	if err != nil {
		return nil, err
	}
	delete(h.sessions, hive)
	return nil, h.store.DeleteHive(ctx, hive)
}

func opAddBox(ctx context.Context, h *Harness, args map[string]interface{}) (map[string]interface{}, error) {
	hive, err := argString(args, "hive")
	if err != nil {
		return nil, err
	}
	size, err := argString(args, "size")
	if err != nil {
		return nil, err
	}
	capacity, err := argInt(args, "capacity")
	if err != nil {
		return nil, err
	}
	b, err := h.store.AddBox(ctx, hive, apiary.BoxSize(size), capacity)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"position": b.Position}, nil
}

func opRemoveTopBox(ctx context.Context, h *Harness, args map[string]interface{}) (map[string]interface{}, error) {
	hive, err := argString(args, "hive")
	if err != nil {
		return nil, err
	}
	removed, err := h.store.RemoveTopBox(ctx, hive)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"removed": removed != ""}, nil
}

func opAddFrame(ctx context.Context, h *Harness, args map[string]interface{}) (map[string]interface{}, error) {
	box, slot, err := h.boxAndSlot(ctx, args)
	if err != nil {
		return nil, err
	}
	content, err := argString(args, "content")
	if err != nil {
		return nil, err
	}
	f, err := h.store.AddFrame(ctx, box.ID, box.HiveID, slot, apiary.FrameContent(content))
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"slot": f.Position}, nil
}

func opUpdateFrameContent(ctx context.Context, h *Harness, args map[string]interface{}) (map[string]interface{}, error) {
	frame, err := h.frameAt(ctx, args)
	if err != nil {
		return nil, err
	}
	content, err := argString(args, "content")
	if err != nil {
		return nil, err
	}
	return nil, h.store.UpdateFrameContent(ctx, frame.ID, apiary.FrameContent(content))
}

func opDeleteFrame(ctx context.Context, h *Harness, args map[string]interface{}) (map[string]interface{}, error) {
	frame, err := h.frameAt(ctx, args)
	if err != nil {
		return nil, err
	}
	return nil, h.store.DeleteFrame(ctx, frame.ID)
}

func opClick(ctx context.Context, h *Harness, args map[string]interface{}) (map[string]interface{}, error) {
	box, slot, err := h.boxAndSlot(ctx, args)
	if err != nil {
		return nil, err
	}
	toolName, err := argString(args, "tool")
	if err != nil {
		return nil, err
	}
	tool, err := editor.ParseTool(toolName)
	if err != nil {
		return nil, err
	}
	sess, err := h.session(ctx, box.HiveID)
	if err != nil {
		return nil, err
	}

	target := editor.SlotTarget(slot)
	if f, ok := box.FrameAt(slot); ok {
		target = editor.FrameTarget(f.ID)
	}
	action, err := sess.Click(ctx, box.ID, target, tool)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"action": string(action)}, nil
}

func opSaveConfiguration(ctx context.Context, h *Harness, args map[string]interface{}) (map[string]interface{}, error) {
	hive, err := argString(args, "hive")
	if err != nil {
		return nil, err
	}
	sess, err := h.session(ctx, hive)
	if err != nil {
		return nil, err
	}
	edits := sess.Edits()
	insp, err := sess.Save(ctx, optString(args, "notes", ""))
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"kind": string(insp.Kind), "edits": edits}, nil
}

func opAddInspection(ctx context.Context, h *Harness, args map[string]interface{}) (map[string]interface{}, error) {
	hive, err := argString(args, "hive")
	if err != nil {
		return nil, err
	}
	temperament, err := optInt(args, "temperament", 3)
	if err != nil {
		return nil, err
	}
	brood, err := optInt(args, "brood", 0)
	if err != nil {
		return nil, err
	}
	queenSeen, _ := args["queen_seen"].(bool)

	insp, err := h.store.AddInspection(ctx, apiary.Inspection{
		HiveID:        hive,
		Kind:          apiary.InspectionKind(optString(args, "kind", string(apiary.KindGeneral))),
		QueenSeen:     queenSeen,
		FramesOfBrood: brood,
		HoneyStores:   apiary.HoneyStores(optString(args, "stores", string(apiary.StoresMedium))),
		Temperament:   temperament,
		Notes:         optString(args, "notes", ""),
	})
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"kind": string(insp.Kind)}, nil
}

func opRoundTrip(ctx context.Context, h *Harness, _ map[string]interface{}) (map[string]interface{}, error) {
	doc, err := backup.Export(ctx, h.store, h.clock.Now())
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := backup.Encode(&buf, doc); err != nil {
		return nil, err
	}
	imported, err := backup.Import(ctx, h.store, buf.Bytes())
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"hives":       len(imported.Hives),
		"inspections": len(imported.Inspections),
		"harvests":    len(imported.Harvests),
		"treatments":  len(imported.Treatments),
	}, nil
}

// boxAndSlot resolves the (hive, box position) pair in args to a box and
// reads the slot argument.
func (h *Harness) boxAndSlot(ctx context.Context, args map[string]interface{}) (apiary.BoxWithFrames, int, error) {
	hive, err := argString(args, "hive")
	if err != nil {
		return apiary.BoxWithFrames{}, 0, err
	}
	pos, err := argInt(args, "box")
	if err != nil {
		return apiary.BoxWithFrames{}, 0, err
	}
	slot, err := argInt(args, "slot")
	if err != nil {
		return apiary.BoxWithFrames{}, 0, err
	}
	cfg, err := h.store.GetFullConfiguration(ctx, hive)
	if err != nil {
		return apiary.BoxWithFrames{}, 0, err
	}
	for _, b := range cfg.Boxes {
		if b.Position == pos {
			return b, slot, nil
		}
	}
	return apiary.BoxWithFrames{}, 0, apiary.NotFound("box", fmt.Sprintf("%s position %d", hive, pos))
}

// frameAt resolves (hive, box, slot) in args to the frame occupying it.
func (h *Harness) frameAt(ctx context.Context, args map[string]interface{}) (apiary.Frame, error) {
	box, slot, err := h.boxAndSlot(ctx, args)
	if err != nil {
		return apiary.Frame{}, err
	}
	f, ok := box.FrameAt(slot)
	if !ok {
		return apiary.Frame{}, apiary.NotFound("frame", fmt.Sprintf("box %d slot %d", box.Position, slot))
	}
	return f, nil
}

func argString(args map[string]interface{}, key string) (string, error) {
	v, ok := args[key]
	if !ok {
		return "", fmt.Errorf("argument %q is required", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("argument %q: expected string, got %T", key, v)
	}
	return s, nil
}

func optString(args map[string]interface{}, key, def string) string {
	if s, ok := args[key].(string); ok {
		return s
	}
	return def
}

func argInt(args map[string]interface{}, key string) (int, error) {
	v, ok := args[key]
	if !ok {
		return 0, fmt.Errorf("argument %q is required", key)
	}
	n, ok := toInt64(v)
	if !ok {
		return 0, fmt.Errorf("argument %q: expected integer, got %T", key, v)
	}
	return int(n), nil
}

func optInt(args map[string]interface{}, key string, def int) (int, error) {
	if _, ok := args[key]; !ok {
		return def, nil
	}
	return argInt(args, key)
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
