// Package apiary defines the record types shared by every other hivekeep
// package.
//
// The hive configuration model is relational:
//   - Hive is the root record.
//   - Box belongs to exactly one Hive and sits at a stack position
//     (0 = bottom). Positions for a hive are always 0..count-1.
//   - Frame belongs to exactly one Box and carries a copy of the box's
//     HiveID. A slot with no Frame is implicitly empty; a Frame with
//     content "empty" was explicitly emptied.
//   - Inspection, Harvest and Treatment belong to a Hive. Inspections are
//     append-only.
//
// This package imports nothing internal. JSON tags use the camelCase names
// of the backup document format.
package apiary
