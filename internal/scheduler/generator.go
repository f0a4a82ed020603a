// Package scheduler builds weekly timetables with a first-fit greedy search.
//
// Locked entries are reserved first, labs are placed before theory, and every
// obligation takes the first conflict-free (day, slot) candidate in a fixed
// slot preference order over a shuffled week. There is no backtracking: an
// early placement may crowd out a later obligation, which is then reported as
// a Shortfall rather than an error.
package scheduler

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

// NoMappingsMessage is reported when there is nothing to schedule.
const NoMappingsMessage = "No faculty-subject mappings found. Please add faculty and assign them to subjects first."

// Input is the snapshot a generation run works on.
type Input struct {
	Obligations []Obligation
	TimeSlots   []TimeSlot
	Rooms       []Room
	Locked      []LockedEntry
}

// Result is the outcome of one generation run.
type Result struct {
	Assignments []Assignment `json:"assignments"`
	Shortfalls  []Shortfall  `json:"shortfalls,omitempty"`
	// LockedCollisions lists overlapping locked entries found while seeding.
	LockedCollisions []LockedCollision `json:"locked_collisions,omitempty"`
	Success          bool              `json:"success"`
	Message          string            `json:"message"`
	Score            int               `json:"score"`
	Breakdown        ScoreBreakdown    `json:"breakdown"`
}

type options struct {
	rng    *rand.Rand
	logger *zap.Logger
}

// Option customises a generation run.
type Option func(*options)

// WithRand sets the random source used for shuffling.
func WithRand(rng *rand.Rand) Option {
	return func(o *options) {
		o.rng = rng
	}
}

// WithSeed pins shuffling to a deterministic sequence.
func WithSeed(seed int64) Option {
	return func(o *options) {
		o.rng = rand.New(rand.NewSource(seed))
	}
}

// WithLogger routes placement warnings to logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Generate schedules every obligation in the input. The returned error is
// reserved for internal faults; unplaceable obligations are listed in
// Result.Shortfalls and still produce a successful result.
func Generate(in Input, opts ...Option) (*Result, error) {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.rng == nil {
		o.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	if len(in.Obligations) == 0 {
		return &Result{Success: false, Message: NoMappingsMessage}, nil
	}

	eng := newEngine(newGrid(in.TimeSlots), o.rng, o.logger)
	eng.seedLocked(in.Locked)

	labs, theory := lo.FilterReject(in.Obligations, func(ob Obligation, _ int) bool {
		return ob.SessionType == SessionLab
	})
	if err := eng.scheduleLabs(labs); err != nil {
		return nil, fmt.Errorf("schedule labs: %w", err)
	}
	if err := eng.scheduleTheory(theory); err != nil {
		return nil, fmt.Errorf("schedule theory: %w", err)
	}

	breakdown := Evaluate(eng.assignments)
	score := breakdown.Total()
	o.logger.Info("generated schedule",
		zap.Int("entries", len(eng.assignments)),
		zap.Int("shortfalls", len(eng.shortfalls)),
		zap.Int("locked_collisions", len(eng.collisions)),
		zap.Int("score", score))

	return &Result{
		Assignments:      eng.assignments,
		Shortfalls:       eng.shortfalls,
		LockedCollisions: eng.collisions,
		Success:          true,
		Message:          fmt.Sprintf("Generated %d timetable entries with optimization score %d", len(eng.assignments), score),
		Score:            score,
		Breakdown:        breakdown,
	}, nil
}
