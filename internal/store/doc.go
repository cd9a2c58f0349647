// Package store provides the SQLite-backed Hive Configuration Store.
//
// The store owns the hive/box/frame graph plus the per-hive logs
// (inspections, harvests, treatments) and keeps these structural rules:
//
//   - Box positions for a hive are 0..count-1. Boxes are appended at count
//     and removed only from the top (count-1).
//   - At most one frame per (box, slot); slots are in [0, capacity).
//   - A frame's hive_id always equals its box's hive_id (composite foreign
//     key on boxes(id, hive_id)).
//   - Deleting a hive removes every row that references it; removing a box
//     removes its frames. Both run inside one transaction.
//   - Inspections are append-only; there is no update or delete.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Timestamps are stored as Unix milliseconds. Errors that describe a missing
// record or a violated invariant are *apiary.Error values.
package store
