package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func builderCatalog() Catalog {
	return Catalog{
		Sections: []Section{
			{ID: "sec-a", Name: "CSE-A", Classroom: "Room 101"},
			{ID: "sec-b", Name: "CSE-B", Classroom: "Room 404"},
		},
		Faculty: []Faculty{{ID: "fac-1", Name: "Dr. Rao"}},
		Subjects: []Subject{
			{ID: "dbms", Name: "DBMS", Code: "CS301", Kind: SessionTheory, Credits: 3},
			{ID: "os-lab", Name: "OS Lab", Code: "CS391", Kind: SessionLab, LabRoom: "Lab 1", Credits: 2},
			{ID: "py-lab", Name: "Python Lab", Code: "CS392", Kind: SessionLab, LabRoom: "Lab 9", Credits: 2},
			{ID: "ml-lab", Name: "ML Lab", Code: "CS393", Kind: SessionLab, Credits: 2},
		},
		Rooms: []Room{
			{ID: "room-0", Name: "Seminar Hall", Kind: RoomClassroom},
			{ID: "room-101", Name: "Room 101", Kind: RoomClassroom},
			{ID: "lab-1", Name: "Lab 1", Kind: RoomLab},
		},
	}
}

func TestBuildObligationsResolvesRooms(t *testing.T) {
	rows := []TeachingAssignment{
		{ID: "1", FacultyID: "fac-1", SubjectID: "dbms", SectionID: "sec-a"},
		{ID: "2", FacultyID: "fac-1", SubjectID: "os-lab", SectionID: "sec-a"},
		{ID: "3", FacultyID: "fac-1", SubjectID: "py-lab", SectionID: "sec-a"},
		{ID: "4", FacultyID: "fac-1", SubjectID: "dbms", SectionID: "sec-b"},
		{ID: "5", FacultyID: "fac-1", SubjectID: "ml-lab", SectionID: "sec-a"},
	}

	result, err := BuildObligations(rows, builderCatalog())
	require.NoError(t, err)
	require.Len(t, result.Obligations, 5)
	assert.Empty(t, result.Skipped)

	assert.Equal(t, "room-101", result.Obligations[0].RoomID, "theory uses home classroom")
	assert.Equal(t, "lab-1", result.Obligations[1].RoomID, "lab uses its dedicated room")
	assert.Equal(t, "room-101", result.Obligations[2].RoomID, "unknown lab room falls back to home classroom")
	assert.Equal(t, "room-0", result.Obligations[3].RoomID, "unknown classroom falls back to first room")
	assert.Equal(t, "room-101", result.Obligations[4].RoomID, "lab without lab room uses home classroom")

	assert.Equal(t, SessionTheory, result.Obligations[0].SessionType)
	assert.Equal(t, 2, result.Obligations[0].SessionsRequired)
	assert.Equal(t, SessionLab, result.Obligations[1].SessionType)
	assert.Equal(t, 1, result.Obligations[1].SessionsRequired)
	assert.Equal(t, "Dr. Rao", result.Obligations[0].FacultyName)
	assert.Equal(t, "CS301", result.Obligations[0].SubjectCode)
}

func TestBuildObligationsDuplicateRoomNames(t *testing.T) {
	catalog := builderCatalog()
	catalog.Rooms = []Room{
		{ID: "lab-1-old", Name: "Lab 1", Kind: RoomLab},
		{ID: "room-101-main", Name: "Room 101", Kind: RoomClassroom},
		{ID: "room-101-annex", Name: "Room 101", Kind: RoomClassroom},
		{ID: "lab-1-new", Name: "Lab 1", Kind: RoomLab},
	}
	rows := []TeachingAssignment{
		{ID: "1", FacultyID: "fac-1", SubjectID: "dbms", SectionID: "sec-a"},
		{ID: "2", FacultyID: "fac-1", SubjectID: "os-lab", SectionID: "sec-a"},
		{ID: "3", FacultyID: "fac-1", SubjectID: "dbms", SectionID: "sec-b"},
	}

	result, err := BuildObligations(rows, catalog)
	require.NoError(t, err)
	require.Len(t, result.Obligations, 3)
	assert.Equal(t, "room-101-main", result.Obligations[0].RoomID, "classroom lookup keeps the first room with the name")
	assert.Equal(t, "lab-1-new", result.Obligations[1].RoomID, "lab lookup keeps the last room with the name")
	assert.Equal(t, "lab-1-old", result.Obligations[2].RoomID, "fallback is the first room whatever its kind")
}

func TestBuildObligationsSkipsDanglingRows(t *testing.T) {
	rows := []TeachingAssignment{
		{ID: "1", FacultyID: "fac-1", SubjectID: "missing", SectionID: "sec-a"},
		{ID: "2", FacultyID: "ghost", SubjectID: "dbms", SectionID: "sec-a"},
		{ID: "3", FacultyID: "fac-1", SubjectID: "dbms", SectionID: "nowhere"},
		{ID: "4", FacultyID: "fac-1", SubjectID: "dbms", SectionID: "sec-a"},
	}

	result, err := BuildObligations(rows, builderCatalog())
	require.NoError(t, err)
	require.Len(t, result.Obligations, 1)
	require.Len(t, result.Skipped, 3)
	assert.Equal(t, "subject not found", result.Skipped[0].Reason)
	assert.Equal(t, "faculty not found", result.Skipped[1].Reason)
	assert.Equal(t, "section not found", result.Skipped[2].Reason)
}

func TestBuildObligationsWithoutRooms(t *testing.T) {
	catalog := builderCatalog()
	catalog.Rooms = nil

	_, err := BuildObligations([]TeachingAssignment{{FacultyID: "fac-1", SubjectID: "dbms", SectionID: "sec-a"}}, catalog)
	assert.ErrorIs(t, err, ErrNoRooms)

	result, err := BuildObligations(nil, catalog)
	require.NoError(t, err)
	assert.Empty(t, result.Obligations)
}

func TestSessionsRequired(t *testing.T) {
	cases := []struct {
		name    string
		subject Subject
		want    int
	}{
		{"one credit", Subject{Kind: SessionTheory, Credits: 1}, 1},
		{"three credits", Subject{Kind: SessionTheory, Credits: 3}, 2},
		{"four credits", Subject{Kind: SessionTheory, Credits: 4}, 3},
		{"no credits", Subject{Kind: SessionTheory}, 0},
		{"lab ignores credits", Subject{Kind: SessionLab, Credits: 6}, 1},
		{"unknown kind is theory", Subject{Kind: "seminar", Credits: 2}, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, SessionsRequired(tc.subject))
		})
	}
}
