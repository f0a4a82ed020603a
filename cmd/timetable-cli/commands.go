package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/internal/service"
	"github.com/noah-isme/timetable-api/internal/snapshot"
	"github.com/noah-isme/timetable-api/pkg/export"
	"github.com/noah-isme/timetable-api/pkg/storage"
)

var errConflictsFound = errors.New("conflicts found")

type runContext struct {
	logger *zap.Logger
	out    io.Writer
	now    func() time.Time
}

func (c *runContext) clock() time.Time {
	if c.now != nil {
		return c.now()
	}
	return time.Now()
}

// GenerateCmd plans a timetable from CSV inputs and writes the entries,
// locked ones included, to a CSV file.
type GenerateCmd struct {
	Dir  string `arg:"" help:"Snapshot directory holding the input CSV files." type:"existingdir"`
	Seed int64  `help:"Shuffle seed; 0 picks one from the clock." default:"0"`
	Out  string `help:"Directory the entries file is written to." default:"./exports" type:"path"`
	JSON bool   `help:"Print the generation summary as JSON."`
}

func (cmd *GenerateCmd) Run(ctx *runContext) error {
	snap, err := snapshot.Load(cmd.Dir)
	if err != nil {
		return err
	}
	ctx.logger.Info("snapshot loaded",
		zap.String("dir", cmd.Dir),
		zap.Int("mappings", len(snap.Mappings)),
		zap.Int("locked", len(snap.Locked)))

	resp, entries, err := service.PlanOffline(snap, cmd.Seed, ctx.logger)
	if err != nil {
		return err
	}

	if len(entries) > 0 {
		name, err := cmd.write(ctx, snap.Locked, entries)
		if err != nil {
			return err
		}
		ctx.logger.Info("entries written", zap.String("file", name))
		fmt.Fprintf(ctx.out, "Wrote %s\n", filepath.Join(cmd.Out, name))
	}

	if cmd.JSON {
		enc := json.NewEncoder(ctx.out)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}
	printSummary(ctx.out, resp)
	return nil
}

func (cmd *GenerateCmd) write(ctx *runContext, locked, generated []models.TimetableEntry) (string, error) {
	rows := make([]models.TimetableEntry, 0, len(locked)+len(generated))
	rows = append(rows, locked...)
	for _, entry := range generated {
		entry.ID = uuid.NewString()
		rows = append(rows, entry)
	}

	data, err := export.NewCSVExporter().Render(rows)
	if err != nil {
		return "", err
	}
	archive, err := storage.NewLocalStorage(cmd.Out)
	if err != nil {
		return "", err
	}
	name := fmt.Sprintf("timetable_entries_%s.csv", ctx.clock().Format("20060102_150405"))
	return archive.Save(name, data)
}

func printSummary(w io.Writer, resp *dto.GenerateTimetableResponse) {
	fmt.Fprintln(w, resp.Message)
	if !resp.Success && resp.EntriesCount == 0 {
		return
	}
	fmt.Fprintf(w, "Entries: %d (locked kept: %d)\n", resp.EntriesCount, resp.LockedCount)
	fmt.Fprintf(w, "Score: %d\n", resp.Score)
	for _, sf := range resp.Shortfalls {
		fmt.Fprintf(w, "  shortfall %s/%s (%s): placed %d of %d\n", sf.SectionID, sf.SubjectID, sf.SessionType, sf.Placed, sf.Required)
	}
	for _, skipped := range resp.Skipped {
		fmt.Fprintf(w, "  skipped mapping %s: %s\n", skipped.MappingID, skipped.Reason)
	}
	for _, c := range resp.LockedCollisions {
		fmt.Fprintf(w, "  locked entry %s overlaps on %s %s day %d slot %d\n", c.EntryID, c.Resource, c.ResourceID, c.Cell.Day, c.Cell.Slot)
	}
}

// AuditCmd checks an entries file against the slot template of a snapshot.
type AuditCmd struct {
	Entries string `arg:"" help:"Entries CSV file." type:"existingfile"`
	Dir     string `help:"Snapshot directory providing time_slots.csv." type:"existingdir" required:""`
}

func (cmd *AuditCmd) Run(ctx *runContext) error {
	entries, err := snapshot.LoadEntries(cmd.Entries)
	if err != nil {
		return err
	}
	slots, err := snapshot.LoadTimeSlots(cmd.Dir)
	if err != nil {
		return err
	}

	report := service.AuditOffline(entries, slots)
	fmt.Fprintf(ctx.out, "Checked %d entries\n", report.Checked)
	for _, conflict := range report.Conflicts {
		fmt.Fprintf(ctx.out, "  %s %s %s day %d slot %d: %v\n",
			conflict.Kind, conflict.Resource, conflict.ResourceID,
			conflict.Cell.Day, conflict.Cell.Slot, conflict.EntryIDs)
	}
	if len(report.Conflicts) > 0 {
		return fmt.Errorf("%w: %d", errConflictsFound, len(report.Conflicts))
	}
	return nil
}
