package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/hivekeep/internal/apiary"
)

// Harvests and treatments are read and restored from backups only; the
// store exposes no per-record mutation for them.

const harvestColumns = `id, hive_id, date_ms, weight_kg, honey_type`
const treatmentColumns = `id, hive_id, medicine_name, date_start_ms, date_end_ms, dosage`

func scanHarvest(row rowScanner) (apiary.Harvest, error) {
	var h apiary.Harvest
	var dateMs int64
	if err := row.Scan(&h.ID, &h.HiveID, &dateMs, &h.WeightKg, &h.HoneyType); err != nil {
		return apiary.Harvest{}, err
	}
	h.Date = fromMillis(dateMs)
	return h, nil
}

func scanTreatment(row rowScanner) (apiary.Treatment, error) {
	var t apiary.Treatment
	var startMs int64
	var endMs sql.NullInt64
	if err := row.Scan(&t.ID, &t.HiveID, &t.MedicineName, &startMs, &endMs, &t.Dosage); err != nil {
		return apiary.Treatment{}, err
	}
	t.DateStart = fromMillis(startMs)
	if endMs.Valid {
		end := fromMillis(endMs.Int64)
		t.DateEnd = &end
	}
	return t, nil
}

// ListHarvests returns a hive's harvests newest first.
func (s *Store) ListHarvests(ctx context.Context, hiveID string) ([]apiary.Harvest, error) {
	if err := hiveExists(ctx, s.db, hiveID); err != nil {
		return nil, err
	}
	return queryHarvests(ctx, s.db, `
		SELECT `+harvestColumns+` FROM harvests
		WHERE hive_id = ?
		ORDER BY date_ms DESC, id COLLATE BINARY DESC
	`, hiveID)
}

// ListTreatments returns a hive's treatments newest first.
func (s *Store) ListTreatments(ctx context.Context, hiveID string) ([]apiary.Treatment, error) {
	if err := hiveExists(ctx, s.db, hiveID); err != nil {
		return nil, err
	}
	return queryTreatments(ctx, s.db, `
		SELECT `+treatmentColumns+` FROM treatments
		WHERE hive_id = ?
		ORDER BY date_start_ms DESC, id COLLATE BINARY DESC
	`, hiveID)
}

func queryHarvests(ctx context.Context, q queryer, query string, args ...any) ([]apiary.Harvest, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query harvests: %w", err)
	}
	defer rows.Close()

	harvests := []apiary.Harvest{}
	for rows.Next() {
		h, err := scanHarvest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan harvest: %w", err)
		}
		harvests = append(harvests, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate harvests: %w", err)
	}
	return harvests, nil
}

func queryTreatments(ctx context.Context, q queryer, query string, args ...any) ([]apiary.Treatment, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query treatments: %w", err)
	}
	defer rows.Close()

	treatments := []apiary.Treatment{}
	for rows.Next() {
		t, err := scanTreatment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan treatment: %w", err)
		}
		treatments = append(treatments, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate treatments: %w", err)
	}
	return treatments, nil
}

func insertHarvest(ctx context.Context, q queryer, h apiary.Harvest) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO harvests (`+harvestColumns+`)
		VALUES (?, ?, ?, ?, ?)
	`, h.ID, h.HiveID, toMillis(h.Date), h.WeightKg, h.HoneyType)
	if err != nil {
		return fmt.Errorf("insert harvest: %w", translateConstraint(err, "harvest", h.ID))
	}
	return nil
}

func insertTreatment(ctx context.Context, q queryer, t apiary.Treatment) error {
	var endMs sql.NullInt64
	if t.DateEnd != nil {
		endMs = sql.NullInt64{Int64: toMillis(*t.DateEnd), Valid: true}
	}
	_, err := q.ExecContext(ctx, `
		INSERT INTO treatments (`+treatmentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)
	`, t.ID, t.HiveID, t.MedicineName, toMillis(t.DateStart), endMs, t.Dosage)
	if err != nil {
		return fmt.Errorf("insert treatment: %w", translateConstraint(err, "treatment", t.ID))
	}
	return nil
}
