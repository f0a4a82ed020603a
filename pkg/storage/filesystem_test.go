package storage

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageSaveAndList(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	name, err := store.Save("timetable_all.csv", []byte("id\n"))
	require.NoError(t, err)
	assert.Equal(t, "timetable_all.csv", name)

	old := store.Path("timetable_old.csv")
	_, err = store.Save("timetable_old.csv", []byte("id\n"))
	require.NoError(t, err)
	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(old, past, past))

	names, err := store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"timetable_all.csv", "timetable_old.csv"}, names)

	deleted, err := store.CleanupOlderThan(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, []string{"timetable_old.csv"}, deleted)
}

func TestLocalStorageRejectsEscapingNames(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	for _, name := range []string{"", "../x.csv", "/etc/passwd"} {
		_, err := store.Save(name, []byte("x"))
		assert.Error(t, err, name)
	}
}
