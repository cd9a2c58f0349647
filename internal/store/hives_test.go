package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hivekeep/internal/apiary"
)

func TestCreateHive_Defaults(t *testing.T) {
	s := createTestStore(t, WithIDGenerator(NewFixedGenerator("hive-1")))

	h, err := s.CreateHive(context.Background(), apiary.Hive{Number: " 001 "})
	require.NoError(t, err)
	assert.Equal(t, "hive-1", h.ID)
	assert.Equal(t, "001", h.Number)
	assert.Equal(t, apiary.StatusActive, h.Status)

	got, err := s.GetHive(context.Background(), "hive-1")
	require.NoError(t, err)
	assert.Equal(t, h, got)
}

func TestCreateHive_Invalid(t *testing.T) {
	s := createTestStore(t)

	_, err := s.CreateHive(context.Background(), apiary.Hive{})
	assert.True(t, apiary.IsInvalidInput(err))

	_, err = s.CreateHive(context.Background(), apiary.Hive{Number: "1", Status: "sleeping"})
	assert.True(t, apiary.IsInvalidInput(err))
}

func TestCreateHive_DuplicateID(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.CreateHive(ctx, apiary.Hive{ID: "h1", Number: "001"})
	require.NoError(t, err)

	_, err = s.CreateHive(ctx, apiary.Hive{ID: "h1", Number: "002"})
	assert.True(t, apiary.IsConflict(err))
}

func TestListHives_OrderedByNumber(t *testing.T) {
	s := createTestStore(t)
	createTestHive(t, s, "003")
	createTestHive(t, s, "001")
	createTestHive(t, s, "002")

	hives, err := s.ListHives(context.Background())
	require.NoError(t, err)
	require.Len(t, hives, 3)
	assert.Equal(t, "001", hives[0].Number)
	assert.Equal(t, "002", hives[1].Number)
	assert.Equal(t, "003", hives[2].Number)
}

func TestListHives_Empty(t *testing.T) {
	s := createTestStore(t)

	hives, err := s.ListHives(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, hives)
	assert.Empty(t, hives)
}

func TestUpdateHive(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	h := createTestHive(t, s, "001")

	h.Breed = "Buckfast"
	h.QueenYear = 2025
	h.Notes = "requeened"
	updated, err := s.UpdateHive(ctx, h)
	require.NoError(t, err)

	got, err := s.GetHive(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, updated, got)
	assert.Equal(t, "Buckfast", got.Breed)

	_, err = s.UpdateHive(ctx, apiary.Hive{ID: "missing", Number: "9"})
	assert.True(t, apiary.IsNotFound(err))
}

func TestSetHiveStatus(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	h := createTestHive(t, s, "001")

	require.NoError(t, s.SetHiveStatus(ctx, h.ID, apiary.StatusArchived))
	got, err := s.GetHive(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, apiary.StatusArchived, got.Status)

	assert.True(t, apiary.IsNotFound(s.SetHiveStatus(ctx, "missing", apiary.StatusActive)))
	assert.True(t, apiary.IsInvalidInput(s.SetHiveStatus(ctx, h.ID, "lost")))
}

// populateHive gives h two boxes with frames plus one record in every log.
func populateHive(t *testing.T, s *Store, h apiary.Hive) {
	t.Helper()
	ctx := context.Background()

	b1, err := s.AddBox(ctx, h.ID, apiary.SizeDeep, 10)
	require.NoError(t, err)
	b2, err := s.AddBox(ctx, h.ID, apiary.SizeMedium, 8)
	require.NoError(t, err)
	_, err = s.AddFrame(ctx, b1.ID, h.ID, 0, apiary.ContentBrood)
	require.NoError(t, err)
	_, err = s.AddFrame(ctx, b2.ID, h.ID, 0, apiary.ContentHoney)
	require.NoError(t, err)

	_, err = s.AddInspection(ctx, createTestInspection(h.ID, testEpoch))
	require.NoError(t, err)
	require.NoError(t, insertHarvest(ctx, s.db, apiary.Harvest{
		ID: "harvest-" + h.ID, HiveID: h.ID, Date: testEpoch, WeightKg: 12.5, HoneyType: "acacia",
	}))
	require.NoError(t, insertTreatment(ctx, s.db, apiary.Treatment{
		ID: "treatment-" + h.ID, HiveID: h.ID, MedicineName: "oxalic acid", DateStart: testEpoch,
	}))
}

func TestDeleteHive_Cascades(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	target := createTestHive(t, s, "001")
	neighbour := createTestHive(t, s, "002")
	populateHive(t, s, target)
	populateHive(t, s, neighbour)

	require.NoError(t, s.DeleteHive(ctx, target.ID))

	for _, table := range []string{"boxes", "frames", "inspections", "harvests", "treatments"} {
		assert.Equal(t, 0, countRows(t, s, table, target.ID), "%s rows left for deleted hive", table)
		assert.Equal(t, map[string]int{
			"boxes": 2, "frames": 2, "inspections": 1, "harvests": 1, "treatments": 1,
		}[table], countRows(t, s, table, neighbour.ID), "%s rows of neighbour changed", table)
	}

	_, err := s.GetFullConfiguration(ctx, target.ID)
	assert.True(t, apiary.IsNotFound(err))
}

func TestDeleteHive_NotFound(t *testing.T) {
	s := createTestStore(t)

	err := s.DeleteHive(context.Background(), "missing")
	assert.True(t, apiary.IsNotFound(err))
}

func TestDeleteHive_AtomicOnFailure(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	h := createTestHive(t, s, "001")
	populateHive(t, s, h)

	// Abort at the treatments step, after frames, boxes, inspections and
	// harvests have been deleted inside the transaction.
	_, err := s.db.Exec(`
		CREATE TRIGGER block_treatment_delete BEFORE DELETE ON treatments
		BEGIN SELECT RAISE(ABORT, 'treatment delete blocked'); END
	`)
	require.NoError(t, err)

	require.Error(t, s.DeleteHive(ctx, h.ID))

	cfg, err := s.GetFullConfiguration(ctx, h.ID)
	require.NoError(t, err)
	assert.Len(t, cfg.Boxes, 2)
	assert.Equal(t, 2, cfg.FrameCount())
	for _, table := range []string{"inspections", "harvests", "treatments"} {
		assert.Equal(t, 1, countRows(t, s, table, h.ID), "%s must be intact", table)
	}
}
