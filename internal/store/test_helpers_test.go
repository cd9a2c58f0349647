package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/hivekeep/internal/apiary"
)

// fixedClock always returns the same instant.
type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

var testEpoch = time.Date(2024, time.May, 1, 9, 0, 0, 0, time.UTC)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, opts...)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestHive inserts an active hive with the given number.
func createTestHive(t *testing.T, s *Store, number string) apiary.Hive {
	t.Helper()
	h, err := s.CreateHive(context.Background(), apiary.Hive{
		Number:    number,
		Type:      "Dadant",
		Breed:     "Carniolan",
		QueenYear: 2024,
		Color:     "white",
	})
	require.NoError(t, err)
	return h
}

// createTestInspection builds a valid general inspection for hiveID.
func createTestInspection(hiveID string, date time.Time) apiary.Inspection {
	return apiary.Inspection{
		HiveID:        hiveID,
		Date:          date,
		Kind:          apiary.KindGeneral,
		QueenSeen:     true,
		FramesOfBrood: 4,
		HoneyStores:   apiary.StoresHigh,
		Temperament:   2,
		Notes:         "calm",
	}
}

// countRows returns the number of rows in table matching hive_id.
func countRows(t *testing.T, s *Store, table, hiveID string) int {
	t.Helper()
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM `+table+` WHERE hive_id = ?`, hiveID).Scan(&n)
	require.NoError(t, err)
	return n
}
