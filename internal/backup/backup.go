package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/roach88/hivekeep/internal/apiary"
)

// Version is the only backup format version this package reads and writes.
const Version = 1

// Document is the serialized backup.
type Document struct {
	Hives       []apiary.Hive       `json:"hives"`
	Inspections []apiary.Inspection `json:"inspections"`
	Harvests    []apiary.Harvest    `json:"harvests"`
	Treatments  []apiary.Treatment  `json:"treatments"`
	ExportedAt  time.Time           `json:"exportedAt"`
	Version     int                 `json:"version"`
}

// Collections returns the document's records, with absent collections
// as empty slices.
func (d Document) Collections() apiary.Collections {
	return apiary.Collections{
		Hives:       orEmpty(d.Hives),
		Inspections: orEmpty(d.Inspections),
		Harvests:    orEmpty(d.Harvests),
		Treatments:  orEmpty(d.Treatments),
	}
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// Snapshotter reads the backed-up collections.
type Snapshotter interface {
	Snapshot(ctx context.Context) (apiary.Collections, error)
}

// Replacer atomically swaps the backed-up collections.
type Replacer interface {
	ReplaceAll(ctx context.Context, c apiary.Collections) error
}

// Export builds a backup document from the current store state, stamped
// with exportedAt.
func Export(ctx context.Context, src Snapshotter, exportedAt time.Time) (Document, error) {
	c, err := src.Snapshot(ctx)
	if err != nil {
		return Document{}, fmt.Errorf("export: %w", err)
	}
	return Document{
		Hives:       orEmpty(c.Hives),
		Inspections: orEmpty(c.Inspections),
		Harvests:    orEmpty(c.Harvests),
		Treatments:  orEmpty(c.Treatments),
		ExportedAt:  exportedAt.UTC(),
		Version:     Version,
	}, nil
}

// Encode writes doc as indented JSON.
func Encode(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode backup: %w", err)
	}
	return nil
}

// Import checks data and, if it is a valid backup, replaces the store's
// collections with its contents. Prior state is untouched on any error.
func Import(ctx context.Context, dst Replacer, data []byte) (Document, error) {
	doc, err := Decode(data)
	if err != nil {
		return Document{}, err
	}
	if err := dst.ReplaceAll(ctx, doc.Collections()); err != nil {
		return Document{}, fmt.Errorf("import: %w", err)
	}
	return doc, nil
}

// FileName returns the conventional file name for a backup taken at t.
func FileName(t time.Time) string {
	return fmt.Sprintf("apiary_backup_%s.json", t.Format(time.DateOnly))
}
