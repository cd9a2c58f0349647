package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/hivekeep/internal/apiary"
)

// Snapshot reads the four backed-up collections (hives, inspections,
// harvests, treatments) in one transaction. Boxes and frames are not part
// of the backup format and are not included.
func (s *Store) Snapshot(ctx context.Context) (apiary.Collections, error) {
	var c apiary.Collections

	err := s.withTx(ctx, "snapshot", func(tx *sql.Tx) error {
		var err error
		if c.Hives, err = listHives(ctx, tx); err != nil {
			return err
		}
		if c.Inspections, err = queryInspections(ctx, tx, `
			SELECT `+inspectionColumns+` FROM inspections
			ORDER BY date_ms ASC, id COLLATE BINARY ASC
		`); err != nil {
			return err
		}
		if c.Harvests, err = queryHarvests(ctx, tx, `
			SELECT `+harvestColumns+` FROM harvests
			ORDER BY date_ms ASC, id COLLATE BINARY ASC
		`); err != nil {
			return err
		}
		if c.Treatments, err = queryTreatments(ctx, tx, `
			SELECT `+treatmentColumns+` FROM treatments
			ORDER BY date_start_ms ASC, id COLLATE BINARY ASC
		`); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return apiary.Collections{}, err
	}
	return c, nil
}

// ReplaceAll swaps the hive, inspection, harvest and treatment collections
// for c in one transaction. Nothing is changed if any insert fails.
//
// Boxes and frames are kept for hives whose ids appear in c and removed
// with the hives that do not.
func (s *Store) ReplaceAll(ctx context.Context, c apiary.Collections) error {
	keep := make(map[string]bool, len(c.Hives))
	for _, h := range c.Hives {
		keep[h.ID] = true
	}

	var dropped int
	err := s.withTx(ctx, "replace all", func(tx *sql.Tx) error {
		existing, err := listHives(ctx, tx)
		if err != nil {
			return err
		}
		for _, h := range existing {
			if keep[h.ID] {
				continue
			}
			for _, table := range []string{"frames", "boxes"} {
				if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE hive_id = ?`, h.ID); err != nil {
					return fmt.Errorf("replace all: delete %s: %w", table, err)
				}
			}
			if _, err := tx.ExecContext(ctx, `DELETE FROM hives WHERE id = ?`, h.ID); err != nil {
				return fmt.Errorf("replace all: delete hive: %w", err)
			}
			dropped++
		}

		for _, table := range []string{"inspections", "harvests", "treatments"} {
			if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
				return fmt.Errorf("replace all: clear %s: %w", table, err)
			}
		}

		for _, h := range c.Hives {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO hives (`+hiveColumns+`)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT(id) DO UPDATE SET
					number = excluded.number,
					type = excluded.type,
					status = excluded.status,
					breed = excluded.breed,
					queen_year = excluded.queen_year,
					color = excluded.color,
					notes = excluded.notes
			`, h.ID, h.Number, h.Type, string(h.Status), h.Breed, h.QueenYear, h.Color, h.Notes)
			if err != nil {
				return fmt.Errorf("replace all: upsert hive: %w", translateConstraint(err, "hive", h.ID))
			}
		}
		for _, i := range c.Inspections {
			if err := insertInspection(ctx, tx, i); err != nil {
				return fmt.Errorf("replace all: %w", err)
			}
		}
		for _, h := range c.Harvests {
			if err := insertHarvest(ctx, tx, h); err != nil {
				return fmt.Errorf("replace all: %w", err)
			}
		}
		for _, t := range c.Treatments {
			if err := insertTreatment(ctx, tx, t); err != nil {
				return fmt.Errorf("replace all: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("collections replaced",
		"hives", len(c.Hives),
		"hives_dropped", dropped,
		"inspections", len(c.Inspections),
		"harvests", len(c.Harvests),
		"treatments", len(c.Treatments),
	)
	return nil
}

// Summary aggregates dashboard counts across all hives.
func (s *Store) Summary(ctx context.Context) (apiary.Summary, error) {
	var sum apiary.Summary
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM hives),
			(SELECT COUNT(*) FROM hives WHERE status = 'active'),
			(SELECT COUNT(*) FROM hives WHERE status = 'archived'),
			(SELECT COUNT(*) FROM inspections),
			(SELECT COALESCE(SUM(weight_kg), 0.0) FROM harvests)
	`).Scan(&sum.TotalHives, &sum.ActiveHives, &sum.ArchivedHives, &sum.Inspections, &sum.HarvestKg)
	if err != nil {
		return apiary.Summary{}, fmt.Errorf("summary: %w", err)
	}
	return sum, nil
}
