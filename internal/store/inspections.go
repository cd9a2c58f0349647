package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/roach88/hivekeep/internal/apiary"
)

const inspectionColumns = `id, hive_id, date_ms, kind, queen_seen, frames_of_brood, honey_stores, temperament, notes`

func scanInspection(row rowScanner) (apiary.Inspection, error) {
	var i apiary.Inspection
	var dateMs int64
	var kind, stores string
	if err := row.Scan(&i.ID, &i.HiveID, &dateMs, &kind, &i.QueenSeen, &i.FramesOfBrood, &stores, &i.Temperament, &i.Notes); err != nil {
		return apiary.Inspection{}, err
	}
	i.Date = fromMillis(dateMs)
	i.Kind = apiary.InspectionKind(kind)
	i.HoneyStores = apiary.HoneyStores(stores)
	return i, nil
}

// AddInspection appends an inspection to a hive's log. A zero Date is
// stamped from the store clock; an empty ID is generated. The returned
// record carries the stored (millisecond) timestamp.
func (s *Store) AddInspection(ctx context.Context, insp apiary.Inspection) (apiary.Inspection, error) {
	insp.Normalize()
	if insp.Date.IsZero() {
		insp.Date = s.clock.Now()
	}
	insp.Date = truncateMillis(insp.Date)
	if err := insp.Validate(); err != nil {
		return apiary.Inspection{}, err
	}

	err := s.withTx(ctx, "add inspection", func(tx *sql.Tx) error {
		if err := hiveExists(ctx, tx, insp.HiveID); err != nil {
			return err
		}
		if insp.ID == "" {
			insp.ID = s.ids.Generate()
		}
		return insertInspection(ctx, tx, insp)
	})
	if err != nil {
		return apiary.Inspection{}, err
	}

	s.logger.Debug("inspection added", "hive_id", insp.HiveID, "inspection_id", insp.ID, "kind", insp.Kind)
	return insp, nil
}

func insertInspection(ctx context.Context, q queryer, i apiary.Inspection) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO inspections (`+inspectionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, i.ID, i.HiveID, toMillis(i.Date), string(i.Kind), i.QueenSeen, i.FramesOfBrood, string(i.HoneyStores), i.Temperament, i.Notes)
	if err != nil {
		return fmt.Errorf("insert inspection: %w", translateConstraint(err, "inspection", i.ID))
	}
	return nil
}

// ListInspections returns a hive's inspections newest first. When kinds are
// given, only inspections of those kinds are returned.
// Returns an empty slice (not nil) if no records match.
func (s *Store) ListInspections(ctx context.Context, hiveID string, kinds ...apiary.InspectionKind) ([]apiary.Inspection, error) {
	if err := hiveExists(ctx, s.db, hiveID); err != nil {
		return nil, err
	}

	query := `SELECT ` + inspectionColumns + ` FROM inspections WHERE hive_id = ?`
	args := []any{hiveID}
	if len(kinds) > 0 {
		placeholders := make([]string, len(kinds))
		for i, k := range kinds {
			placeholders[i] = "?"
			args = append(args, string(k))
		}
		query += ` AND kind IN (` + strings.Join(placeholders, ", ") + `)`
	}
	query += ` ORDER BY date_ms DESC, id COLLATE BINARY DESC`

	return queryInspections(ctx, s.db, query, args...)
}

func queryInspections(ctx context.Context, q queryer, query string, args ...any) ([]apiary.Inspection, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query inspections: %w", err)
	}
	defer rows.Close()

	inspections := []apiary.Inspection{}
	for rows.Next() {
		i, err := scanInspection(rows)
		if err != nil {
			return nil, fmt.Errorf("scan inspection: %w", err)
		}
		inspections = append(inspections, i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate inspections: %w", err)
	}
	return inspections, nil
}
