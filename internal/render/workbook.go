// Package render turns a plan result into documents for people: an xlsx
// workbook and plain-text tables.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/claude/fitharmony/internal/models"
)

// Workbook sheet names.
const (
	SheetSchedule    = "Schedule"
	SheetWeekly      = "Weekly"
	SheetConstraints = "Constraints"
)

// Workbook builds an xlsx workbook for a plan: the day-by-day schedule,
// the weekly summaries and the constraints the plan was optimized under.
func Workbook(res *models.PlanResult) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", SheetSchedule); err != nil {
		return nil, fmt.Errorf("renaming sheet: %w", err)
	}
	for _, name := range []string{SheetWeekly, SheetConstraints} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("creating sheet %s: %w", name, err)
		}
	}

	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"2E75B6"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("creating header style: %w", err)
	}

	if err := scheduleSheet(f, res, header); err != nil {
		return nil, fmt.Errorf("schedule sheet: %w", err)
	}
	if err := weeklySheet(f, res, header); err != nil {
		return nil, fmt.Errorf("weekly sheet: %w", err)
	}
	if err := constraintsSheet(f, res, header); err != nil {
		return nil, fmt.Errorf("constraints sheet: %w", err)
	}

	f.SetActiveSheet(0)
	return f, nil
}

// WriteWorkbook renders the workbook to w.
func WriteWorkbook(w io.Writer, res *models.PlanResult) error {
	f, err := Workbook(res)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func writeHeader(f *excelize.File, sheet string, style int, titles ...string) error {
	row := make([]any, len(titles))
	for i, t := range titles {
		row[i] = t
	}
	if err := f.SetSheetRow(sheet, "A1", &row); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(titles), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return err
	}
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func scheduleSheet(f *excelize.File, res *models.PlanResult, header int) error {
	sheet := SheetSchedule
	if err := writeHeader(f, sheet, header, "Week", "Day", "Type", "Intensity", "Minutes", "Est. kcal", "Focus"); err != nil {
		return err
	}

	for i, s := range res.Schedule.Days {
		row := []any{s.Week, s.Weekday.Long(), s.Type.String()}
		if s.IsRest() {
			row = append(row, "", "", "", "")
		} else {
			row = append(row, s.Intensity.String(), s.DurationMinutes, s.EstimatedCalories, s.Focus)
		}
		if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return err
		}
	}

	f.SetColWidth(sheet, "A", "A", 8)
	f.SetColWidth(sheet, "B", "C", 18)
	f.SetColWidth(sheet, "D", "F", 11)
	f.SetColWidth(sheet, "G", "G", 40)
	return nil
}

func weeklySheet(f *excelize.File, res *models.PlanResult, header int) error {
	sheet := SheetWeekly
	if err := writeHeader(f, sheet, header, "Week", "Workout days", "Minutes", "Est. kcal", "Resistance", "High intensity"); err != nil {
		return err
	}

	for i, w := range res.Weekly {
		row := []any{w.Week, w.WorkoutDays, w.TotalMinutes, w.EstimatedCalories, w.ResistanceSessions, w.HighIntensitySessions}
		if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return err
		}
	}

	f.SetColWidth(sheet, "A", "F", 15)
	return nil
}

func constraintsSheet(f *excelize.File, res *models.PlanResult, header int) error {
	sheet := SheetConstraints
	if err := writeHeader(f, sheet, header, "Setting", "Value"); err != nil {
		return err
	}

	for i, kv := range summaryRows(res) {
		if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", i+2), &[]any{kv[0], kv[1]}); err != nil {
			return err
		}
	}

	f.SetColWidth(sheet, "A", "A", 28)
	f.SetColWidth(sheet, "B", "B", 40)
	return nil
}

// summaryRows lists the plan-level facts shown beside a schedule.
func summaryRows(res *models.PlanResult) [][2]string {
	pc := res.Constraints
	return [][2]string{
		{"Available days", joinStrings(pc.Available.Days())},
		{"Sessions per week", fmt.Sprintf("%d (max %d)", pc.TargetSessionsPerWeek, pc.MaxSessionsPerWeek)},
		{"Resistance per week", fmt.Sprintf("min %d, target %d", pc.MinResistancePerWeek, pc.TargetResistancePerWeek)},
		{"Cardio per week", fmt.Sprint(pc.TargetCardioPerWeek)},
		{"Flexibility per week", fmt.Sprint(pc.TargetFlexibilityPerWeek)},
		{"Max intensity", pc.MaxIntensity.String()},
		{"Max session minutes", fmt.Sprint(pc.MaxSessionMinutes)},
		{"Target weekly minutes", fmt.Sprint(pc.TargetWeeklyMinutes)},
		{"Lower body share", fmt.Sprintf("%.0f%%", pc.LowerBodyShare*100)},
		{"Excluded", joinStrings(pc.Excluded.Types())},
		{"Fitness", fmt.Sprintf("%.4f", res.Fitness)},
		{"Goal alignment", fmt.Sprintf("%.3f", res.Objectives.GoalAlignment)},
		{"Recovery", fmt.Sprintf("%.3f", res.Objectives.Recovery)},
		{"Variety", fmt.Sprintf("%.3f", res.Objectives.Variety)},
		{"Expected timeframe", res.Timeframe},
		{"Seed", fmt.Sprint(res.Search.Seed)},
	}
}

func joinStrings[T fmt.Stringer](items []T) string {
	if len(items) == 0 {
		return "-"
	}
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = it.String()
	}
	return strings.Join(parts, ", ")
}
