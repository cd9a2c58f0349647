package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/hivekeep/internal/apiary"
)

const boxColumns = `id, hive_id, size, position, capacity`
const frameColumns = `id, box_id, hive_id, position, content`

func scanBox(row rowScanner) (apiary.Box, error) {
	var b apiary.Box
	var size string
	if err := row.Scan(&b.ID, &b.HiveID, &size, &b.Position, &b.Capacity); err != nil {
		return apiary.Box{}, err
	}
	b.Size = apiary.BoxSize(size)
	return b, nil
}

func scanFrame(row rowScanner) (apiary.Frame, error) {
	var f apiary.Frame
	var content string
	if err := row.Scan(&f.ID, &f.BoxID, &f.HiveID, &f.Position, &content); err != nil {
		return apiary.Frame{}, err
	}
	f.Content = apiary.FrameContent(content)
	return f, nil
}

// GetFullConfiguration assembles a hive with its boxes ordered bottom to top
// and each box's frames ordered by slot. Recomputed from the tables on
// every call.
func (s *Store) GetFullConfiguration(ctx context.Context, hiveID string) (apiary.HiveConfiguration, error) {
	var cfg apiary.HiveConfiguration

	// Read inside one transaction so the three lookups see the same state.
	err := s.withTx(ctx, "get configuration", func(tx *sql.Tx) error {
		h, err := getHive(ctx, tx, hiveID)
		if err != nil {
			return err
		}

		boxes, err := listBoxes(ctx, tx, hiveID)
		if err != nil {
			return err
		}

		cfg = apiary.HiveConfiguration{Hive: h, Boxes: make([]apiary.BoxWithFrames, 0, len(boxes))}
		for _, b := range boxes {
			frames, err := listFrames(ctx, tx, b.ID)
			if err != nil {
				return err
			}
			cfg.Boxes = append(cfg.Boxes, apiary.BoxWithFrames{Box: b, Frames: frames})
		}
		return nil
	})
	if err != nil {
		return apiary.HiveConfiguration{}, err
	}
	return cfg, nil
}

func listBoxes(ctx context.Context, q queryer, hiveID string) ([]apiary.Box, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+boxColumns+`
		FROM boxes
		WHERE hive_id = ?
		ORDER BY position ASC
	`, hiveID)
	if err != nil {
		return nil, fmt.Errorf("query boxes: %w", err)
	}
	defer rows.Close()

	boxes := []apiary.Box{}
	for rows.Next() {
		b, err := scanBox(rows)
		if err != nil {
			return nil, fmt.Errorf("scan box: %w", err)
		}
		boxes = append(boxes, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate boxes: %w", err)
	}
	return boxes, nil
}

func listFrames(ctx context.Context, q queryer, boxID string) ([]apiary.Frame, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+frameColumns+`
		FROM frames
		WHERE box_id = ?
		ORDER BY position ASC
	`, boxID)
	if err != nil {
		return nil, fmt.Errorf("query frames: %w", err)
	}
	defer rows.Close()

	frames := []apiary.Frame{}
	for rows.Next() {
		f, err := scanFrame(rows)
		if err != nil {
			return nil, fmt.Errorf("scan frame: %w", err)
		}
		frames = append(frames, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate frames: %w", err)
	}
	return frames, nil
}

// GetBox retrieves a single box by ID.
func (s *Store) GetBox(ctx context.Context, id string) (apiary.Box, error) {
	return getBox(ctx, s.db, id)
}

func getBox(ctx context.Context, q queryer, id string) (apiary.Box, error) {
	row := q.QueryRowContext(ctx, `SELECT `+boxColumns+` FROM boxes WHERE id = ?`, id)
	b, err := scanBox(row)
	if errors.Is(err, sql.ErrNoRows) {
		return apiary.Box{}, apiary.NotFound("box", id)
	}
	if err != nil {
		return apiary.Box{}, fmt.Errorf("get box: %w", err)
	}
	return b, nil
}

// GetFrame retrieves a single frame by ID.
func (s *Store) GetFrame(ctx context.Context, id string) (apiary.Frame, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+frameColumns+` FROM frames WHERE id = ?`, id)
	f, err := scanFrame(row)
	if errors.Is(err, sql.ErrNoRows) {
		return apiary.Frame{}, apiary.NotFound("frame", id)
	}
	if err != nil {
		return apiary.Frame{}, fmt.Errorf("get frame: %w", err)
	}
	return f, nil
}

// AddBox appends an empty box on top of the hive's stack, at
// position = current box count. It does not record an audit inspection.
func (s *Store) AddBox(ctx context.Context, hiveID string, size apiary.BoxSize, capacity int) (apiary.Box, error) {
	if !size.Valid() {
		return apiary.Box{}, apiary.Invalid("box", "", fmt.Sprintf("unknown size %q", size))
	}
	if capacity <= 0 {
		return apiary.Box{}, apiary.Invalid("box", "", fmt.Sprintf("capacity must be positive, got %d", capacity))
	}

	box := apiary.Box{
		HiveID:   hiveID,
		Size:     size,
		Capacity: capacity,
	}

	err := s.withTx(ctx, "add box", func(tx *sql.Tx) error {
		if err := hiveExists(ctx, tx, hiveID); err != nil {
			return err
		}

		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM boxes WHERE hive_id = ?`, hiveID,
		).Scan(&box.Position); err != nil {
			return fmt.Errorf("add box: count boxes: %w", err)
		}

		box.ID = s.ids.Generate()

		_, err := tx.ExecContext(ctx, `
			INSERT INTO boxes (`+boxColumns+`)
			VALUES (?, ?, ?, ?, ?)
		`, box.ID, box.HiveID, string(box.Size), box.Position, box.Capacity)
		if err != nil {
			return fmt.Errorf("add box: %w", translateConstraint(err, "box", box.ID))
		}
		return nil
	})
	if err != nil {
		return apiary.Box{}, err
	}

	s.logger.Debug("box added", "hive_id", hiveID, "box_id", box.ID, "position", box.Position, "capacity", capacity)
	return box, nil
}

// RemoveTopBox deletes the highest-positioned box of the hive together with
// its frames, in one transaction. Returns the removed box id, or "" when
// the hive has no boxes. Only the top box can be removed.
func (s *Store) RemoveTopBox(ctx context.Context, hiveID string) (string, error) {
	var removed string
	var frames int64

	err := s.withTx(ctx, "remove top box", func(tx *sql.Tx) error {
		if err := hiveExists(ctx, tx, hiveID); err != nil {
			return err
		}

		err := tx.QueryRowContext(ctx, `
			SELECT id FROM boxes
			WHERE hive_id = ?
			ORDER BY position DESC
			LIMIT 1
		`, hiveID).Scan(&removed)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("remove top box: find top: %w", err)
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM frames WHERE box_id = ?`, removed)
		if err != nil {
			return fmt.Errorf("remove top box: delete frames: %w", err)
		}
		if frames, err = res.RowsAffected(); err != nil {
			return fmt.Errorf("remove top box: rows affected: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM boxes WHERE id = ?`, removed); err != nil {
			return fmt.Errorf("remove top box: delete box: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	if removed != "" {
		s.logger.Debug("top box removed", "hive_id", hiveID, "box_id", removed, "frames", frames)
	}
	return removed, nil
}

// AddFrame places a new frame in an unoccupied slot of a box.
//
// An empty hiveID is taken from the box; a non-empty one must match the
// box's hive. The slot must lie in [0, capacity) and be free: an occupied
// slot returns Conflict and leaves the existing frame untouched.
func (s *Store) AddFrame(ctx context.Context, boxID, hiveID string, position int, content apiary.FrameContent) (apiary.Frame, error) {
	if !content.Valid() {
		return apiary.Frame{}, apiary.Invalid("frame", "", fmt.Sprintf("unknown content %q", content))
	}

	frame := apiary.Frame{
		BoxID:    boxID,
		HiveID:   hiveID,
		Position: position,
		Content:  content,
	}

	err := s.withTx(ctx, "add frame", func(tx *sql.Tx) error {
		box, err := getBox(ctx, tx, boxID)
		if err != nil {
			return err
		}

		if frame.HiveID == "" {
			frame.HiveID = box.HiveID
		}
		if frame.HiveID != box.HiveID {
			return apiary.Invalid("frame", "", fmt.Sprintf("hive %s does not own box %s", frame.HiveID, boxID))
		}
		if position < 0 || position >= box.Capacity {
			return apiary.Invalid("frame", "", fmt.Sprintf("slot %d outside box capacity %d", position, box.Capacity))
		}

		var occupant string
		err = tx.QueryRowContext(ctx,
			`SELECT id FROM frames WHERE box_id = ? AND position = ?`, boxID, position,
		).Scan(&occupant)
		if err == nil {
			return apiary.Conflict("frame", occupant, fmt.Sprintf("slot %d of box %s is occupied", position, boxID))
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("add frame: check slot: %w", err)
		}

		frame.ID = s.ids.Generate()

		_, err = tx.ExecContext(ctx, `
			INSERT INTO frames (`+frameColumns+`)
			VALUES (?, ?, ?, ?, ?)
		`, frame.ID, frame.BoxID, frame.HiveID, frame.Position, string(frame.Content))
		if err != nil {
			return fmt.Errorf("add frame: %w", translateConstraint(err, "frame", frame.ID))
		}
		return nil
	})
	if err != nil {
		return apiary.Frame{}, err
	}

	s.logger.Debug("frame added", "hive_id", frame.HiveID, "box_id", boxID, "frame_id", frame.ID, "position", position, "content", content)
	return frame, nil
}

// UpdateFrameContent changes what a frame holds. Position and ownership
// are unchanged.
func (s *Store) UpdateFrameContent(ctx context.Context, frameID string, content apiary.FrameContent) error {
	if !content.Valid() {
		return apiary.Invalid("frame", frameID, fmt.Sprintf("unknown content %q", content))
	}

	res, err := s.db.ExecContext(ctx, `UPDATE frames SET content = ? WHERE id = ?`, string(content), frameID)
	if err != nil {
		return fmt.Errorf("update frame: %w", err)
	}
	if err := requireAffected(res, "frame", frameID); err != nil {
		return err
	}

	s.logger.Debug("frame updated", "frame_id", frameID, "content", content)
	return nil
}

// DeleteFrame removes a frame, leaving its slot implicitly empty.
func (s *Store) DeleteFrame(ctx context.Context, frameID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM frames WHERE id = ?`, frameID)
	if err != nil {
		return fmt.Errorf("delete frame: %w", err)
	}
	if err := requireAffected(res, "frame", frameID); err != nil {
		return err
	}

	s.logger.Debug("frame deleted", "frame_id", frameID)
	return nil
}
