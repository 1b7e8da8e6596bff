package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/i474232898/aquawatch/internal/monitor"
)

const (
	SheetReadings   = "Readings"
	SheetActivities = "Activities"
)

// ReadingsHeader is the header row of the readings sheet.
var ReadingsHeader = []string{"Date", "Time", "Temp (°C)", "pH", "O₂ (mg/L)", "Ammonia", "Status", "Day Status"}

// ActivitiesHeader is the header row of the activities sheet.
var ActivitiesHeader = []string{"Date", "Activity", "Message", "Type", "Created At", "Status"}

// HistoryWorkbook renders the day views as an XLSX workbook with one sheet
// of hourly readings and one of activities, newest day first.
func HistoryWorkbook(days []monitor.DayView) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetReadings); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetActivities); err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	if err := writeRow(f, SheetReadings, 1, toAny(ReadingsHeader), headerStyle); err != nil {
		return nil, err
	}
	if err := writeRow(f, SheetActivities, 1, toAny(ActivitiesHeader), headerStyle); err != nil {
		return nil, err
	}

	readingRow, activityRow := 2, 2
	for _, d := range days {
		dayStatus := ""
		if d.Status.Sensor != nil {
			dayStatus = d.Status.Sensor.String()
		}
		for _, h := range d.Hours {
			for _, s := range h.Samples {
				row := []any{
					d.Date,
					hourRange(s.Hour),
					cellValue(s.AvgTemperature),
					cellValue(s.AvgPH),
					cellValue(s.AvgOxygen),
					cellValue(s.AvgAmmonia),
					s.Severity.String(),
					dayStatus,
				}
				if err := writeRow(f, SheetReadings, readingRow, row, 0); err != nil {
					return nil, err
				}
				readingRow++
			}
		}
		for _, a := range d.Activities {
			row := []any{d.Date, a.Label(), a.Message, a.RawKind, a.CreatedAt, d.Status.Activity}
			if err := writeRow(f, SheetActivities, activityRow, row, 0); err != nil {
				return nil, err
			}
			activityRow++
		}
	}

	for _, sheet := range []string{SheetReadings, SheetActivities} {
		if err := f.SetColWidth(sheet, "A", "H", 16); err != nil {
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any, style int) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("failed to convert coordinates: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d of %s: %w", row, sheet, err)
	}
	if style != 0 {
		last, err := excelize.CoordinatesToCellName(len(values), row)
		if err != nil {
			return fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellStyle(sheet, cell, last, style); err != nil {
			return fmt.Errorf("failed to set header style: %w", err)
		}
	}
	return nil
}

// hourRange formats an hour as the "5:00 - 6:00" span shown on the history
// screen; unknown hours render as "—".
func hourRange(h int) string {
	if h < 0 {
		return "—"
	}
	return fmt.Sprintf("%d:00 - %d:00", h, h+1)
}

func cellValue(v *float64) any {
	if v == nil {
		return "—"
	}
	return *v
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
