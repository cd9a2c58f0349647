// Package harness runs YAML scenarios against a fresh hive store and checks
// the outcome of every step plus the final state.
//
// # Scenario Format
//
//	name: scenario_name
//	description: "What this scenario validates"
//	setup:
//	  - action: createHive
//	    args: { id: h1, number: "001" }
//	flow:
//	  - invoke: addBox
//	    args: { hive: h1, size: deep, capacity: 10 }
//	    expect:
//	      case: ok
//	      result: { position: 0 }
//	  - invoke: addFrame
//	    args: { hive: h1, box: 0, slot: 3, content: honey }
//	assertions:
//	  - type: frame_at
//	    hive: h1
//	    box: 0
//	    slot: 3
//	    content: honey
//
// Boxes are addressed by stack position and frames by (box, slot), so
// scenarios never mention generated ids.
//
// # Operations
//
//   - createHive {id?, number, status?}
//   - setHiveStatus {hive, status}
//   - deleteHive {hive}
//   - addBox {hive, size, capacity}
//   - removeTopBox {hive}
//   - addFrame {hive, box, slot, content}
//   - updateFrameContent {hive, box, slot, content}
//   - deleteFrame {hive, box, slot}
//   - click {hive, box, slot, tool}: the editor click on a slot, resolved
//     to the frame when the slot is occupied
//   - saveConfiguration {hive, notes?}: the editor save
//   - addInspection {hive, kind?, stores?, temperament?, brood?, queen_seen?, notes?}
//   - roundTrip {}: export then import the whole store
//
// # Expect Clause
//
// case is "ok" or an error code (NOT_FOUND, CONFLICT, INVALID_INPUT). A
// flow step without expect must succeed. result is a subset match against
// the operation's result map.
//
// # Assertions
//
//   - trace_contains, trace_order, trace_count: over executed operations
//   - final_state: a single row of a store table (subset match)
//   - box_count, frame_count, inspection_count: per hive
//   - frame_at: content at (box, slot); an empty content asserts the slot
//     is unoccupied
//   - stack_contiguous: box positions 0..n-1 and every frame inside its
//     box capacity
//   - hive_missing: the hive and every row referencing it are gone
//
// # Determinism
//
// Each run uses an in-memory database, a sequential id generator and a
// clock that advances one minute per reading, so traces and renderings are
// stable and can be compared against golden files.
package harness
