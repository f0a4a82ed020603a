package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/pkg/export"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

const (
	exportFormatCSV = "csv"
	exportFormatPDF = "pdf"
)

type exportEntryReader interface {
	List(ctx context.Context, filter models.TimetableFilter) ([]models.TimetableEntryDetail, error)
}

type exportArchive interface {
	Save(filename string, data []byte) (string, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(rows interface{}) ([]byte, error)
}

type pdfRenderer interface {
	Render(grid export.Grid) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	Retention time.Duration
}

// ExportService renders the persisted timetable as CSV rows or a PDF grid
// and keeps a copy of each file in the archive when one is configured.
type ExportService struct {
	entries   exportEntryReader
	slots     timeSlotReader
	archive   exportArchive
	csv       csvRenderer
	pdf       pdfRenderer
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ExportConfig
	now       func() time.Time
}

// NewExportService constructs an ExportService. archive may be nil.
func NewExportService(entries exportEntryReader, slots timeSlotReader, archive exportArchive, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 7 * 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		entries:   entries,
		slots:     slots,
		archive:   archive,
		csv:       csv,
		pdf:       pdf,
		validator: validator.New(),
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

type timetableCSVRow struct {
	Day         string `csv:"day"`
	DayOfWeek   int    `csv:"day_of_week"`
	SlotOrder   int    `csv:"slot_order"`
	Time        string `csv:"time"`
	Section     string `csv:"section"`
	SubjectCode string `csv:"subject_code"`
	Subject     string `csv:"subject"`
	Faculty     string `csv:"faculty"`
	Room        string `csv:"room"`
	SessionType string `csv:"session_type"`
	Locked      bool   `csv:"locked"`
}

// Export renders entries matching the query.
func (s *ExportService) Export(ctx context.Context, query dto.ExportQuery) (*dto.ExportFile, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid export query")
	}
	format := query.Format
	if format == "" {
		format = exportFormatCSV
	}

	entries, err := s.entries.List(ctx, models.TimetableFilter{SectionID: query.SectionID, FacultyID: query.FacultyID, RoomID: query.RoomID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetable entries")
	}

	file := &dto.ExportFile{Filename: s.filename(query, format)}
	switch format {
	case exportFormatPDF:
		slots, err := s.slots.ListTimeSlots(ctx, nil)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list time slots")
		}
		file.ContentType = "application/pdf"
		file.Data, err = s.pdf.Render(buildTimetableGrid(entries, slots, exportScope(query, entries)))
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
	default:
		file.ContentType = "text/csv"
		file.Data, err = s.csv.Render(buildTimetableRows(entries))
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
	}

	s.store(file)
	s.logger.Info("timetable exported", zap.String("format", format), zap.Int("entries", len(entries)), zap.String("file", file.Filename))
	return file, nil
}

// store archives the file. Archive faults never fail the download.
func (s *ExportService) store(file *dto.ExportFile) {
	if s.archive == nil {
		return
	}
	if _, err := s.archive.Save(file.Filename, file.Data); err != nil {
		s.logger.Warn("failed to archive export", zap.String("file", file.Filename), zap.Error(err))
		return
	}
	removed, err := s.archive.CleanupOlderThan(s.cfg.Retention)
	if err != nil {
		s.logger.Warn("failed to prune export archive", zap.Error(err))
		return
	}
	if len(removed) > 0 {
		s.logger.Debug("pruned export archive", zap.Strings("files", removed))
	}
}

func (s *ExportService) filename(query dto.ExportQuery, format string) string {
	scope := "all"
	switch {
	case query.SectionID != "":
		scope = "section_" + sanitizeFilename(query.SectionID)
	case query.FacultyID != "":
		scope = "faculty_" + sanitizeFilename(query.FacultyID)
	case query.RoomID != "":
		scope = "room_" + sanitizeFilename(query.RoomID)
	}
	return fmt.Sprintf("timetable_%s_%s.%s", scope, s.now().UTC().Format("20060102_150405"), format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func buildTimetableRows(entries []models.TimetableEntryDetail) []timetableCSVRow {
	return lo.Map(entries, func(e models.TimetableEntryDetail, _ int) timetableCSVRow {
		return timetableCSVRow{
			Day:         dayName(e.DayOfWeek),
			DayOfWeek:   e.DayOfWeek,
			SlotOrder:   e.SlotOrder,
			Time:        slotLabel(e.StartTime, e.EndTime),
			Section:     e.SectionName,
			SubjectCode: e.SubjectCode,
			Subject:     e.SubjectName,
			Faculty:     e.FacultyName,
			Room:        e.RoomName,
			SessionType: e.SessionType,
			Locked:      e.IsLocked,
		}
	})
}

func exportScope(query dto.ExportQuery, entries []models.TimetableEntryDetail) string {
	if len(entries) == 0 {
		return "All sections"
	}
	switch {
	case query.SectionID != "":
		return "Section " + entries[0].SectionName
	case query.FacultyID != "":
		return "Faculty " + entries[0].FacultyName
	case query.RoomID != "":
		return "Room " + entries[0].RoomName
	}
	return "All sections"
}

// buildTimetableGrid lays entries out as slots by weekday. A lab appears in
// its start slot and again, marked as continued, in the following slot.
func buildTimetableGrid(entries []models.TimetableEntryDetail, slots []models.TimeSlot, scope string) export.Grid {
	ordered := append([]models.TimeSlot(nil), slots...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].SlotOrder < ordered[j].SlotOrder })

	days := lo.Keys(dayNames)
	sort.Ints(days)

	type cellKey struct{ day, slot int }
	cells := make(map[cellKey][]string)
	for _, e := range entries {
		text := fmt.Sprintf("%s\n%s\n%s\n%s", e.SubjectCode, e.SectionName, e.FacultyName, e.RoomName)
		cells[cellKey{e.DayOfWeek, e.SlotOrder}] = append(cells[cellKey{e.DayOfWeek, e.SlotOrder}], text)
		if e.SessionType == models.SessionTypeLab {
			next := cellKey{e.DayOfWeek, e.SlotOrder + 1}
			cells[next] = append(cells[next], fmt.Sprintf("%s (cont.)\n%s", e.SubjectCode, e.SectionName))
		}
	}

	grid := export.Grid{
		Title:    "Weekly Timetable",
		Subtitle: scope,
		Corner:   "Time",
		Columns:  lo.Map(days, func(d int, _ int) string { return dayNames[d] }),
	}
	for _, slot := range ordered {
		row := export.GridRow{Label: slotLabel(slot.StartTime, slot.EndTime)}
		for _, day := range days {
			row.Cells = append(row.Cells, strings.Join(cells[cellKey{day, slot.SlotOrder}], "\n\n"))
		}
		grid.Rows = append(grid.Rows, row)
	}
	return grid
}
