package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/internal/scheduler"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

type txProviderMock struct {
	db *sqlx.DB
}

func newTxProviderMock(t *testing.T) (txProvider, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &txProviderMock{db: sqlx.NewDb(db, "sqlmock")}, mock
}

func (t *txProviderMock) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return t.db.BeginTxx(ctx, opts)
}

type catalogStub struct {
	mappings  []models.FacultySubject
	sections  []models.Section
	faculty   []models.Faculty
	subjects  []models.Subject
	rooms     []models.Room
	timeSlots []models.TimeSlot
	err       error
}

func (c *catalogStub) ListSections(context.Context, sqlx.ExtContext) ([]models.Section, error) {
	return c.sections, c.err
}

func (c *catalogStub) ListFaculty(context.Context, sqlx.ExtContext) ([]models.Faculty, error) {
	return c.faculty, c.err
}

func (c *catalogStub) ListSubjects(context.Context, sqlx.ExtContext) ([]models.Subject, error) {
	return c.subjects, c.err
}

func (c *catalogStub) ListRooms(context.Context, sqlx.ExtContext) ([]models.Room, error) {
	return c.rooms, c.err
}

func (c *catalogStub) ListTimeSlots(context.Context, sqlx.ExtContext) ([]models.TimeSlot, error) {
	return c.timeSlots, c.err
}

func (c *catalogStub) ListFacultySubjects(context.Context, sqlx.ExtContext) ([]models.FacultySubject, error) {
	return c.mappings, nil
}

type entryStoreStub struct {
	locked      []models.TimetableEntry
	unlocked    int
	deleteCalls int
	inserted    []models.TimetableEntry
	insertErr   error
	sawExecutor bool
}

func (e *entryStoreStub) ListLocked(_ context.Context, exec sqlx.ExtContext) ([]models.TimetableEntry, error) {
	e.sawExecutor = exec != nil
	return e.locked, nil
}

func (e *entryStoreStub) CountUnlocked(context.Context, sqlx.ExtContext) (int, error) {
	return e.unlocked, nil
}

func (e *entryStoreStub) DeleteUnlocked(context.Context, sqlx.ExtContext) (int64, error) {
	e.deleteCalls++
	return int64(e.unlocked), nil
}

func (e *entryStoreStub) InsertBatch(_ context.Context, _ sqlx.ExtContext, entries []models.TimetableEntry) error {
	if e.insertErr != nil {
		return e.insertErr
	}
	e.inserted = append(e.inserted, entries...)
	return nil
}

func sampleCatalog() *catalogStub {
	slots := make([]models.TimeSlot, 0, 7)
	for i := 1; i <= 7; i++ {
		slots = append(slots, models.TimeSlot{
			ID:        fmt.Sprintf("ts-%d", i),
			StartTime: fmt.Sprintf("%02d:30", 8+i),
			EndTime:   fmt.Sprintf("%02d:30", 9+i),
			SlotOrder: i,
		})
	}
	return &catalogStub{
		mappings: []models.FacultySubject{
			{ID: "fs-1", FacultyID: "fac-1", SubjectID: "dbms", SectionID: "sec-a"},
			{ID: "fs-2", FacultyID: "fac-2", SubjectID: "os-lab", SectionID: "sec-a"},
			{ID: "fs-3", FacultyID: "fac-1", SubjectID: "dbms", SectionID: "sec-b"},
		},
		sections: []models.Section{
			{ID: "sec-a", Name: "CSE-A", Classroom: "Room 101"},
			{ID: "sec-b", Name: "CSE-B", Classroom: "Room 102"},
		},
		faculty: []models.Faculty{{ID: "fac-1", Name: "Dr. Rao"}, {ID: "fac-2", Name: "Dr. Iyer"}},
		subjects: []models.Subject{
			{ID: "dbms", Code: "CS301", Name: "DBMS", Type: models.SubjectTypeTheory, Credits: 3},
			{ID: "os-lab", Code: "CS391", Name: "OS Lab", Type: models.SubjectTypeLab, LabRoom: "Lab 1", Credits: 2},
		},
		rooms: []models.Room{
			{ID: "room-101", Name: "Room 101", Type: "classroom"},
			{ID: "room-102", Name: "Room 102", Type: "classroom"},
			{ID: "lab-1", Name: "Lab 1", Type: "lab"},
		},
		timeSlots: slots,
	}
}

func newGeneratorFixture(t *testing.T, catalog *catalogStub, entries *entryStoreStub) (*TimetableGeneratorService, sqlmock.Sqlmock) {
	tx, mock := newTxProviderMock(t)
	svc := NewTimetableGeneratorService(catalog, entries, tx, nil, NewMetricsService(), nil, zap.NewNop(), TimetableGeneratorConfig{Seed: 17})
	return svc, mock
}

func TestTimetableGeneratorServiceRegenerate(t *testing.T) {
	entries := &entryStoreStub{unlocked: 4}
	svc, mock := newGeneratorFixture(t, sampleCatalog(), entries)

	mock.ExpectBegin()
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectCommit()

	resp, err := svc.Generate(context.Background(), dto.GenerateTimetableRequest{Action: dto.ActionRegenerate})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.True(t, strings.HasPrefix(resp.Message, "Generated 5 timetable entries with optimization score"))
	assert.Equal(t, 5, resp.EntriesCount)
	assert.Equal(t, int64(4), resp.DeletedCount)
	assert.Equal(t, 1, entries.deleteCalls)
	assert.True(t, entries.sawExecutor, "snapshot reads run inside the transaction")
	require.Len(t, entries.inserted, 5)
	for _, entry := range entries.inserted {
		assert.False(t, entry.IsLocked)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableGeneratorServiceLabUsesLabRoom(t *testing.T) {
	entries := &entryStoreStub{}
	svc, mock := newGeneratorFixture(t, sampleCatalog(), entries)

	mock.ExpectBegin()
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectCommit()

	_, err := svc.Generate(context.Background(), dto.GenerateTimetableRequest{})
	require.NoError(t, err)
	assert.Zero(t, entries.deleteCalls, "generate never clears entries")

	var labs int
	for _, entry := range entries.inserted {
		if entry.SessionType == models.SessionTypeLab {
			labs++
			assert.Equal(t, "lab-1", entry.RoomID)
		}
	}
	assert.Equal(t, 1, labs)
}

func TestTimetableGeneratorServiceNoMappings(t *testing.T) {
	catalog := sampleCatalog()
	catalog.mappings = nil
	svc, mock := newGeneratorFixture(t, catalog, &entryStoreStub{})

	mock.ExpectBegin()
	mock.ExpectRollback()

	resp, err := svc.Generate(context.Background(), dto.GenerateTimetableRequest{Action: dto.ActionGenerate})
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, scheduler.NoMappingsMessage, resp.Message)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableGeneratorServiceRejectsInvalidAction(t *testing.T) {
	svc, _ := newGeneratorFixture(t, sampleCatalog(), &entryStoreStub{})

	_, err := svc.Generate(context.Background(), dto.GenerateTimetableRequest{Action: "rebuild"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestTimetableGeneratorServiceGenerateWithExistingEntries(t *testing.T) {
	svc, mock := newGeneratorFixture(t, sampleCatalog(), &entryStoreStub{unlocked: 3})

	mock.ExpectBegin()
	mock.ExpectCommit()

	_, err := svc.Generate(context.Background(), dto.GenerateTimetableRequest{Action: dto.ActionGenerate})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableGeneratorServiceConfigurationErrors(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*catalogStub)
		message string
	}{
		{"no rooms", func(c *catalogStub) { c.rooms = nil }, noRoomsMessage},
		{"no time slots", func(c *catalogStub) { c.timeSlots = nil }, noTimeSlotsMessage},
		{"dangling mappings", func(c *catalogStub) { c.sections = nil }, allSkippedMessage},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			catalog := sampleCatalog()
			tc.mutate(catalog)
			entries := &entryStoreStub{}
			svc, mock := newGeneratorFixture(t, catalog, entries)

			mock.ExpectBegin()
			mock.ExpectCommit()

			resp, err := svc.Generate(context.Background(), dto.GenerateTimetableRequest{Action: dto.ActionRegenerate})
			require.NoError(t, err)
			assert.False(t, resp.Success)
			assert.Equal(t, tc.message, resp.Message)
			assert.Empty(t, entries.inserted)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestTimetableGeneratorServiceInsertFailureRollsBack(t *testing.T) {
	entries := &entryStoreStub{insertErr: errors.New("unique violation")}
	svc, mock := newGeneratorFixture(t, sampleCatalog(), entries)

	mock.ExpectBegin()
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.Generate(context.Background(), dto.GenerateTimetableRequest{Action: dto.ActionRegenerate})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErr.Code)
	assert.Equal(t, "failed to insert timetable entries", appErr.Message)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableGeneratorServiceSnapshotReadFailure(t *testing.T) {
	catalog := sampleCatalog()
	catalog.err = errors.New("connection reset")
	svc, mock := newGeneratorFixture(t, catalog, &entryStoreStub{})

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.Generate(context.Background(), dto.GenerateTimetableRequest{})
	require.Error(t, err)
	assert.Equal(t, "failed to load sections", appErrors.FromError(err).Message)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableGeneratorServiceSeedIsReproducible(t *testing.T) {
	seed := int64(99)
	first := &entryStoreStub{}
	svc, mock := newGeneratorFixture(t, sampleCatalog(), first)
	mock.ExpectBegin()
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectCommit()
	_, err := svc.Generate(context.Background(), dto.GenerateTimetableRequest{Seed: &seed})
	require.NoError(t, err)

	second := &entryStoreStub{}
	svc2, mock2 := newGeneratorFixture(t, sampleCatalog(), second)
	mock2.ExpectBegin()
	mock2.ExpectCommit()
	mock2.ExpectBegin()
	mock2.ExpectCommit()
	_, err = svc2.Generate(context.Background(), dto.GenerateTimetableRequest{Seed: &seed})
	require.NoError(t, err)

	require.Equal(t, len(first.inserted), len(second.inserted))
	for i := range first.inserted {
		assert.Equal(t, first.inserted[i].TimeSlotID, second.inserted[i].TimeSlotID)
		assert.Equal(t, first.inserted[i].DayOfWeek, second.inserted[i].DayOfWeek)
	}
}

func TestTimetableGeneratorServiceRejectsConcurrentRun(t *testing.T) {
	svc, mock := newGeneratorFixture(t, sampleCatalog(), &entryStoreStub{})

	svc.mu.Lock()
	_, err := svc.Generate(context.Background(), dto.GenerateTimetableRequest{Action: dto.ActionRegenerate})
	svc.mu.Unlock()

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrBusy.Code, appErrors.FromError(err).Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func (c *catalogStub) snapshot() models.CatalogSnapshot {
	return models.CatalogSnapshot{
		Mappings:  c.mappings,
		Sections:  c.sections,
		Faculty:   c.faculty,
		Subjects:  c.subjects,
		Rooms:     c.rooms,
		TimeSlots: c.timeSlots,
	}
}

func TestPlanOffline(t *testing.T) {
	resp, entries, err := PlanOffline(sampleCatalog().snapshot(), 17, nil)
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, 5, resp.EntriesCount)
	assert.Zero(t, resp.DeletedCount)
	require.Len(t, entries, 5)

	again, _, err := PlanOffline(sampleCatalog().snapshot(), 17, nil)
	require.NoError(t, err)
	assert.Equal(t, resp.Score, again.Score)
}

func TestPlanOfflineReportsOverlappingLockedEntries(t *testing.T) {
	snap := sampleCatalog().snapshot()
	snap.Locked = []models.TimetableEntry{
		{ID: "locked-1", SectionID: "sec-a", SubjectID: "dbms", FacultyID: "fac-1", RoomID: "room-101", TimeSlotID: "ts-2", DayOfWeek: 1, SessionType: models.SessionTypeTheory, IsLocked: true},
		{ID: "locked-2", SectionID: "sec-b", SubjectID: "dbms", FacultyID: "fac-1", RoomID: "room-102", TimeSlotID: "ts-2", DayOfWeek: 1, SessionType: models.SessionTypeTheory, IsLocked: true},
	}

	resp, _, err := PlanOffline(snap, 17, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, resp.LockedCount)
	require.Len(t, resp.LockedCollisions, 1)
	assert.Equal(t, "locked-2", resp.LockedCollisions[0].EntryID)
	assert.Equal(t, scheduler.ResourceFaculty, resp.LockedCollisions[0].Resource)
	assert.Equal(t, "fac-1", resp.LockedCollisions[0].ResourceID)
	assert.Equal(t, scheduler.Cell{Day: 1, Slot: 2}, resp.LockedCollisions[0].Cell)
}

func TestPlanOfflineConfigurationErrors(t *testing.T) {
	resp, entries, err := PlanOffline(models.CatalogSnapshot{}, 1, nil)
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, scheduler.NoMappingsMessage, resp.Message)
	assert.Nil(t, entries)

	snap := sampleCatalog().snapshot()
	snap.Rooms = nil
	resp, _, err = PlanOffline(snap, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, noRoomsMessage, resp.Message)
}

func TestAuditOffline(t *testing.T) {
	slots := sampleCatalog().timeSlots
	entries := []models.TimetableEntry{
		{ID: "e1", SectionID: "sec-a", FacultyID: "fac-1", RoomID: "room-101", TimeSlotID: "ts-1", DayOfWeek: 1, SessionType: models.SessionTypeTheory},
		{ID: "e2", SectionID: "sec-b", FacultyID: "fac-1", RoomID: "room-102", TimeSlotID: "ts-1", DayOfWeek: 1, SessionType: models.SessionTypeTheory},
		{ID: "e3", SectionID: "sec-a", FacultyID: "fac-2", RoomID: "lab-1", TimeSlotID: "ts-3", DayOfWeek: 2, SessionType: models.SessionTypeLab},
	}

	report := AuditOffline(entries, slots)
	assert.Equal(t, 3, report.Checked)
	require.Len(t, report.Conflicts, 1)
	assert.Equal(t, scheduler.ConflictDoubleBooked, report.Conflicts[0].Kind)
	assert.ElementsMatch(t, []string{"e1", "e2"}, report.Conflicts[0].EntryIDs)

	clean := AuditOffline(entries[:1], slots)
	assert.Empty(t, clean.Conflicts)
}
