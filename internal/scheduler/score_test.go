package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func at(section, faculty string, day, slot int) Assignment {
	return Assignment{
		Obligation: Obligation{SectionID: section, FacultyID: faculty, SessionType: SessionTheory},
		DayOfWeek:  day,
		SlotOrder:  slot,
	}
}

func TestScoreEarlyAndLateSlots(t *testing.T) {
	assignments := []Assignment{
		at("s1", "f1", 1, 1),
		at("s2", "f2", 2, 7),
		at("s3", "f3", 3, 4),
	}
	b := Evaluate(assignments)
	assert.Equal(t, 2, b.EarlySlots)
	assert.Equal(t, 1, b.LateSlots)
	assert.Equal(t, 3, Score(assignments))
}

func TestScoreSectionOverload(t *testing.T) {
	var assignments []Assignment
	for slot := 1; slot <= 7; slot++ {
		assignments = append(assignments, at("s1", "f"+string(rune('a'+slot)), 2, slot))
	}
	b := Evaluate(assignments)
	assert.Equal(t, 6, b.SectionOverload, "two assignments beyond the fifth")
	assert.Equal(t, 0, b.FacultyGaps)
	assert.Equal(t, 2+1+6, b.Total())
}

func TestScoreFacultyGaps(t *testing.T) {
	assignments := []Assignment{
		at("s1", "f1", 1, 2),
		at("s2", "f1", 1, 5),
		at("s3", "f1", 1, 6),
		at("s1", "f1", 2, 3),
		at("s1", "f2", 1, 4),
	}
	b := Evaluate(assignments)
	assert.Equal(t, 4, b.FacultyGaps, "gap of two slots between 2 and 5")
	assert.Equal(t, 4, Score(assignments))
}

func TestScoreIsPure(t *testing.T) {
	assignments := []Assignment{
		at("s1", "f1", 1, 6),
		at("s1", "f1", 1, 1),
		at("s1", "f1", 1, 3),
	}
	first := Score(assignments)
	second := Score(assignments)
	assert.Equal(t, first, second)
	assert.Equal(t, 6, assignments[0].SlotOrder, "input order untouched")
	assert.Equal(t, 0, Score(nil))
}
