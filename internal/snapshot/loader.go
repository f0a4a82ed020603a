// Package snapshot reads generation inputs from a directory of CSV files so
// a timetable can be planned without a database.
package snapshot

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/pkg/export"
)

// File names expected inside a snapshot directory.
const (
	SectionsFile        = "sections.csv"
	FacultyFile         = "faculty.csv"
	SubjectsFile        = "subjects.csv"
	RoomsFile           = "rooms.csv"
	TimeSlotsFile       = "time_slots.csv"
	FacultySubjectsFile = "faculty_subjects.csv"
	LockedEntriesFile   = "locked_entries.csv"
)

// Load reads every required file from dir. The locked entries file is
// optional; rows read from it are always treated as locked.
func Load(dir string) (models.CatalogSnapshot, error) {
	var snap models.CatalogSnapshot
	required := []struct {
		name string
		out  interface{}
	}{
		{SectionsFile, &snap.Sections},
		{FacultyFile, &snap.Faculty},
		{SubjectsFile, &snap.Subjects},
		{RoomsFile, &snap.Rooms},
		{TimeSlotsFile, &snap.TimeSlots},
		{FacultySubjectsFile, &snap.Mappings},
	}
	for _, file := range required {
		if err := readFile(filepath.Join(dir, file.name), file.out); err != nil {
			return models.CatalogSnapshot{}, err
		}
	}

	err := readFile(filepath.Join(dir, LockedEntriesFile), &snap.Locked)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return models.CatalogSnapshot{}, err
	}
	for i := range snap.Locked {
		snap.Locked[i].IsLocked = true
	}
	return snap, nil
}

// LoadEntries reads a timetable entries file such as the one written by
// the generate command.
func LoadEntries(path string) ([]models.TimetableEntry, error) {
	var entries []models.TimetableEntry
	if err := readFile(path, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func readFile(path string, out interface{}) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	if err := export.ReadCSV(f, out); err != nil {
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return nil
}

// LoadTimeSlots reads only the slot template from dir.
func LoadTimeSlots(dir string) ([]models.TimeSlot, error) {
	var slots []models.TimeSlot
	if err := readFile(filepath.Join(dir, TimeSlotsFile), &slots); err != nil {
		return nil, err
	}
	return slots, nil
}
