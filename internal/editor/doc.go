// Package editor implements the hive configuration editing workflow.
//
// A Session wraps one hive. Structural edits (adding or removing boxes,
// placing, changing or removing frames) are written to the store as they
// happen; Save then records a single config_change inspection describing
// the session. The store does not stamp audit entries itself, so one save
// covers any number of edits.
//
// Frame edits arrive as clicks: a target, either an empty slot
// ("slot:3") or an existing frame id, combined with the active tool,
// either a frame content or "delete-frame".
//
//	target   tool           effect
//	slot:N   content        add frame at N
//	slot:N   delete-frame   nothing
//	frame    content        change frame content
//	frame    delete-frame   delete frame
//
// Plans describe the same edits in YAML, addressing boxes by stack
// position and frames by slot, for non-interactive use.
package editor
