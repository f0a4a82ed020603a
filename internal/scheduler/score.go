package scheduler

import (
	"sort"

	"github.com/samber/lo"
)

// ScoreBreakdown splits the soft-constraint penalty by rule.
type ScoreBreakdown struct {
	EarlySlots      int `json:"early_slots"`
	LateSlots       int `json:"late_slots"`
	SectionOverload int `json:"section_overload"`
	FacultyGaps     int `json:"faculty_gaps"`
}

// Total sums the components.
func (b ScoreBreakdown) Total() int {
	return b.EarlySlots + b.LateSlots + b.SectionOverload + b.FacultyGaps
}

// Score returns the additive penalty of an assignment set. Lower is better.
func Score(assignments []Assignment) int {
	return Evaluate(assignments).Total()
}

// Evaluate computes each soft-constraint penalty. It never mutates its input.
func Evaluate(assignments []Assignment) ScoreBreakdown {
	var b ScoreBreakdown

	for _, a := range assignments {
		if a.SlotOrder == earlySlotOrder {
			b.EarlySlots += earlySlotPenalty
		}
		if a.SlotOrder == lateSlotOrder {
			b.LateSlots += lateSlotPenalty
		}
	}

	type sectionDay struct {
		section string
		day     int
	}
	perSection := lo.CountValuesBy(assignments, func(a Assignment) sectionDay {
		return sectionDay{section: a.Obligation.SectionID, day: a.DayOfWeek}
	})
	for _, count := range perSection {
		if count > maxSectionLoadPerDay {
			b.SectionOverload += (count - maxSectionLoadPerDay) * sectionOverloadWeight
		}
	}

	type facultyDay struct {
		faculty string
		day     int
	}
	perFaculty := lo.GroupBy(assignments, func(a Assignment) facultyDay {
		return facultyDay{faculty: a.Obligation.FacultyID, day: a.DayOfWeek}
	})
	for _, group := range perFaculty {
		if len(group) < 2 {
			continue
		}
		orders := lo.Map(group, func(a Assignment, _ int) int { return a.SlotOrder })
		sort.Ints(orders)
		for i := 1; i < len(orders); i++ {
			if gap := orders[i] - orders[i-1] - 1; gap > 0 {
				b.FacultyGaps += gap * facultyGapWeight
			}
		}
	}
	return b
}
