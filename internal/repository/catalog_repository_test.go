package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogRepositoryListSubjectsCoalescesLabRoom(t *testing.T) {
	db, mock, cleanup := newTimetableMock(t)
	defer cleanup()
	repo := NewCatalogRepository(db)

	rows := sqlmock.NewRows([]string{"id", "code", "name", "type", "lab_room", "credits", "created_at"}).
		AddRow("sub-1", "CS301", "DBMS", "theory", "", 3, time.Now()).
		AddRow("sub-2", "CS391", "OS Lab", "lab", "Lab 1", 2, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("COALESCE(lab_room, '') AS lab_room")).WillReturnRows(rows)

	subjects, err := repo.ListSubjects(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, subjects, 2)
	assert.Empty(t, subjects[0].LabRoom)
	assert.Equal(t, "Lab 1", subjects[1].LabRoom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogRepositorySnapshotInTransaction(t *testing.T) {
	db, mock, cleanup := newTimetableMock(t)
	defer cleanup()
	repo := NewCatalogRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM time_slots ORDER BY slot_order ASC")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "start_time", "end_time", "slot_order", "created_at"}).
			AddRow("ts-1", "09:30", "10:30", 1, time.Now()))
	mock.ExpectQuery(regexp.QuoteMeta("FROM faculty_subjects")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "faculty_id", "subject_id", "section_id"}).
			AddRow("fs-1", "fac-1", "sub-1", "sec-1"))
	mock.ExpectRollback()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)

	slots, err := repo.ListTimeSlots(context.Background(), tx)
	require.NoError(t, err)
	assert.Equal(t, 1, slots[0].SlotOrder)

	mappings, err := repo.ListFacultySubjects(context.Background(), tx)
	require.NoError(t, err)
	assert.Equal(t, "sec-1", mappings[0].SectionID)

	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogRepositoryListRoomsError(t *testing.T) {
	db, mock, cleanup := newTimetableMock(t)
	defer cleanup()
	repo := NewCatalogRepository(db)

	mock.ExpectQuery("FROM rooms").WillReturnError(errors.New("boom"))

	_, err := repo.ListRooms(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list rooms")
}

func TestCatalogRepositoryStats(t *testing.T) {
	db, mock, cleanup := newTimetableMock(t)
	defer cleanup()
	repo := NewCatalogRepository(db)

	rows := sqlmock.NewRows([]string{"sections", "faculty", "subjects", "rooms", "time_slots", "mappings", "entries", "locked_entries", "lab_entries", "theory_entries"}).
		AddRow(4, 10, 12, 8, 7, 30, 90, 5, 8, 82)
	mock.ExpectQuery(regexp.QuoteMeta("(SELECT COUNT(*) FROM sections) AS sections")).WillReturnRows(rows)

	stats, err := repo.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 90, stats.Entries)
	assert.Equal(t, 5, stats.LockedEntries)
	assert.NoError(t, mock.ExpectationsWereMet())
}
