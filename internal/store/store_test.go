package store

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("final Open() failed: %v", err)
	}
	defer s.Close()

	for _, table := range []string{"hives", "boxes", "frames", "inspections", "harvests", "treatments"} {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found: %v", table, err)
		}
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing", "dir", "test.db"))
	if err == nil {
		t.Error("Open() with unreachable directory should fail")
	}
}

func TestClose_Twice(t *testing.T) {
	s := createTestStore(t)
	if err := s.Close(); err != nil {
		t.Errorf("first Close() failed: %v", err)
	}
	// database/sql tolerates a second Close.
	_ = s.Close()
}

func TestPragmas(t *testing.T) {
	s := createTestStore(t)

	tests := []struct {
		name     string
		expected string
	}{
		{"journal_mode", "wal"},
		{"synchronous", "1"}, // NORMAL
		{"busy_timeout", "5000"},
		{"foreign_keys", "1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.verifyPragma(tt.name, tt.expected); err != nil {
				t.Error(err)
			}
		})
	}
}

func TestSchema_UserVersion(t *testing.T) {
	s := createTestStore(t)

	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		t.Fatalf("query user_version: %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("user_version = %d, want %d", version, currentSchemaVersion)
	}
}

func TestSchema_Indexes(t *testing.T) {
	s := createTestStore(t)

	expected := map[string][]string{
		"hives":       {"idx_hives_number"},
		"frames":      {"idx_frames_hive"},
		"inspections": {"idx_inspections_hive_date", "idx_inspections_kind"},
		"harvests":    {"idx_harvests_hive_date"},
		"treatments":  {"idx_treatments_hive_start"},
	}
	for table, indexes := range expected {
		got := getTableIndexes(t, s.db, table)
		for _, idx := range indexes {
			if !contains(got, idx) {
				t.Errorf("%s table missing index %q", table, idx)
			}
		}
	}
}

func TestSchema_FrameColumns(t *testing.T) {
	s := createTestStore(t)

	columns := getTableColumns(t, s.db, "frames")
	for _, col := range []string{"id", "box_id", "hive_id", "position", "content"} {
		if !contains(columns, col) {
			t.Errorf("frames table missing column %q", col)
		}
	}
}

func TestConstraint_BoxSizeCheck(t *testing.T) {
	s := createTestStore(t)
	h := createTestHive(t, s, "001")

	_, err := s.db.Exec(
		`INSERT INTO boxes (id, hive_id, size, position, capacity) VALUES ('b1', ?, 'shallow', 0, 10)`, h.ID,
	)
	if err == nil {
		t.Error("insert with unknown size should violate CHECK")
	}
}

func TestConstraint_FrameHiveMustMatchBox(t *testing.T) {
	s := createTestStore(t)
	a := createTestHive(t, s, "001")
	b := createTestHive(t, s, "002")

	if _, err := s.db.Exec(
		`INSERT INTO boxes (id, hive_id, size, position, capacity) VALUES ('box-a', ?, 'deep', 0, 10)`, a.ID,
	); err != nil {
		t.Fatalf("insert box: %v", err)
	}

	_, err := s.db.Exec(
		`INSERT INTO frames (id, box_id, hive_id, position, content) VALUES ('f1', 'box-a', ?, 0, 'honey')`, b.ID,
	)
	if err == nil {
		t.Error("frame whose hive_id differs from its box's hive should be rejected")
	}
}

func getTableColumns(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()
	rows, err := db.Query("PRAGMA table_info(" + table + ")")
	if err != nil {
		t.Fatalf("table_info(%s): %v", table, err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var cid, notNull, pk int
		var name, colType string
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dflt, &pk); err != nil {
			t.Fatalf("scan column: %v", err)
		}
		columns = append(columns, name)
	}
	return columns
}

func getTableIndexes(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()
	rows, err := db.Query(
		"SELECT name FROM sqlite_master WHERE type='index' AND tbl_name=?", table,
	)
	if err != nil {
		t.Fatalf("list indexes of %s: %v", table, err)
	}
	defer rows.Close()

	var indexes []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("scan index: %v", err)
		}
		indexes = append(indexes, name)
	}
	return indexes
}

func contains(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}
