// Package backup implements whole-store export and import.
//
// A backup is a JSON document holding the hive, inspection, harvest and
// treatment collections plus an export timestamp and a format version:
//
//	{
//	  "hives": [...],
//	  "inspections": [...],
//	  "harvests": [...],
//	  "treatments": [...],
//	  "exportedAt": "2024-10-15T12:00:00Z",
//	  "version": 1
//	}
//
// Boxes and frames are not part of the format. Import keeps the
// configuration of hives that appear in the document and drops the
// configuration of hives that do not.
//
// Import is all or nothing. The document is checked in stages (version,
// CUE shape, decoding, record validation, unique ids, hive references)
// before anything is written, and the write itself is one transaction.
// Every rejection is an apiary.Error with code INVALID_INPUT.
package backup
