package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/hivekeep/internal/apiary"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

const hiveColumns = `id, number, type, status, breed, queen_year, color, notes`

func scanHive(row rowScanner) (apiary.Hive, error) {
	var h apiary.Hive
	var status string
	if err := row.Scan(&h.ID, &h.Number, &h.Type, &status, &h.Breed, &h.QueenYear, &h.Color, &h.Notes); err != nil {
		return apiary.Hive{}, err
	}
	h.Status = apiary.HiveStatus(status)
	return h, nil
}

// CreateHive inserts a new hive. An empty ID is filled from the id
// generator; an empty status defaults to active.
func (s *Store) CreateHive(ctx context.Context, h apiary.Hive) (apiary.Hive, error) {
	h.Normalize()
	if h.ID == "" {
		h.ID = s.ids.Generate()
	}
	if err := h.Validate(); err != nil {
		return apiary.Hive{}, err
	}

	if err := insertHive(ctx, s.db, h); err != nil {
		return apiary.Hive{}, fmt.Errorf("create hive: %w", err)
	}

	s.logger.Debug("hive created", "hive_id", h.ID, "number", h.Number)
	return h, nil
}

func insertHive(ctx context.Context, q queryer, h apiary.Hive) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO hives (`+hiveColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, h.ID, h.Number, h.Type, string(h.Status), h.Breed, h.QueenYear, h.Color, h.Notes)
	if err != nil {
		return translateConstraint(err, "hive", h.ID)
	}
	return nil
}

// GetHive retrieves a single hive by ID.
func (s *Store) GetHive(ctx context.Context, id string) (apiary.Hive, error) {
	return getHive(ctx, s.db, id)
}

func getHive(ctx context.Context, q queryer, id string) (apiary.Hive, error) {
	row := q.QueryRowContext(ctx, `SELECT `+hiveColumns+` FROM hives WHERE id = ?`, id)
	h, err := scanHive(row)
	if errors.Is(err, sql.ErrNoRows) {
		return apiary.Hive{}, apiary.NotFound("hive", id)
	}
	if err != nil {
		return apiary.Hive{}, fmt.Errorf("get hive: %w", err)
	}
	return h, nil
}

// hiveExists returns NotFound if no hive has the given id.
func hiveExists(ctx context.Context, q queryer, id string) error {
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM hives WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return apiary.NotFound("hive", id)
	}
	if err != nil {
		return fmt.Errorf("check hive: %w", err)
	}
	return nil
}

// ListHives returns all hives ordered by number, then id.
// Returns an empty slice (not nil) if there are none.
func (s *Store) ListHives(ctx context.Context) ([]apiary.Hive, error) {
	return listHives(ctx, s.db)
}

func listHives(ctx context.Context, q queryer) ([]apiary.Hive, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+hiveColumns+`
		FROM hives
		ORDER BY number ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query hives: %w", err)
	}
	defer rows.Close()

	hives := []apiary.Hive{}
	for rows.Next() {
		h, err := scanHive(rows)
		if err != nil {
			return nil, fmt.Errorf("scan hive: %w", err)
		}
		hives = append(hives, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate hives: %w", err)
	}
	return hives, nil
}

// UpdateHive replaces every field of an existing hive.
func (s *Store) UpdateHive(ctx context.Context, h apiary.Hive) (apiary.Hive, error) {
	h.Normalize()
	if err := h.Validate(); err != nil {
		return apiary.Hive{}, err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE hives
		SET number = ?, type = ?, status = ?, breed = ?, queen_year = ?, color = ?, notes = ?
		WHERE id = ?
	`, h.Number, h.Type, string(h.Status), h.Breed, h.QueenYear, h.Color, h.Notes, h.ID)
	if err != nil {
		return apiary.Hive{}, fmt.Errorf("update hive: %w", translateConstraint(err, "hive", h.ID))
	}
	if err := requireAffected(res, "hive", h.ID); err != nil {
		return apiary.Hive{}, err
	}

	s.logger.Debug("hive updated", "hive_id", h.ID)
	return h, nil
}

// SetHiveStatus archives or reactivates a hive.
func (s *Store) SetHiveStatus(ctx context.Context, id string, status apiary.HiveStatus) error {
	if !status.Valid() {
		return apiary.Invalid("hive", id, fmt.Sprintf("unknown status %q", status))
	}

	res, err := s.db.ExecContext(ctx, `UPDATE hives SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("set hive status: %w", err)
	}
	if err := requireAffected(res, "hive", id); err != nil {
		return err
	}

	s.logger.Debug("hive status changed", "hive_id", id, "status", status)
	return nil
}

// DeleteHive removes a hive and every box, frame, inspection, harvest and
// treatment that references it, as one transaction. Returns NotFound (and
// changes nothing) if the hive does not exist.
func (s *Store) DeleteHive(ctx context.Context, id string) error {
	counts := make(map[string]int64, 5)

	err := s.withTx(ctx, "delete hive", func(tx *sql.Tx) error {
		if err := hiveExists(ctx, tx, id); err != nil {
			return err
		}

		// Children first, so each count reflects rows owned by this hive.
		for _, table := range []string{"frames", "boxes", "inspections", "harvests", "treatments"} {
			res, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE hive_id = ?`, id)
			if err != nil {
				return fmt.Errorf("delete hive: delete %s: %w", table, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("delete hive: rows affected: %w", err)
			}
			counts[table] = n
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM hives WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete hive: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("hive deleted",
		"hive_id", id,
		"boxes", counts["boxes"],
		"frames", counts["frames"],
		"inspections", counts["inspections"],
		"harvests", counts["harvests"],
		"treatments", counts["treatments"],
	)
	return nil
}

// requireAffected returns NotFound when an UPDATE or DELETE matched no row.
func requireAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s %s: rows affected: %w", entity, id, err)
	}
	if n == 0 {
		return apiary.NotFound(entity, id)
	}
	return nil
}
