package render

import (
	"fmt"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/claude/fitharmony/internal/models"
)

// ScheduleTable renders the workout days of a plan, one row per session.
// Rest days are omitted.
func ScheduleTable(res *models.PlanResult) string {
	tw := newTable("Week", "Day", "Type", "Intensity", "Minutes", "Est. kcal", "Focus")
	rightAlign(tw, 1, 5, 6)

	for _, s := range res.Schedule.Days {
		if s.IsRest() {
			continue
		}
		tw.AppendRow(table.Row{
			s.Week,
			s.Weekday.Long(),
			s.Type.String(),
			s.Intensity.String(),
			s.DurationMinutes,
			s.EstimatedCalories,
			s.Focus,
		})
	}
	return tw.Render()
}

// WeeklyTable renders the weekly summaries of a plan with a totals footer.
func WeeklyTable(res *models.PlanResult) string {
	tw := newTable("Week", "Workout days", "Minutes", "Est. kcal", "Resistance", "High intensity")
	rightAlign(tw, 1, 2, 3, 4, 5, 6)

	var minutes, kcal int
	for _, w := range res.Weekly {
		tw.AppendRow(table.Row{w.Week, w.WorkoutDays, w.TotalMinutes, w.EstimatedCalories, w.ResistanceSessions, w.HighIntensitySessions})
		minutes += w.TotalMinutes
		kcal += w.EstimatedCalories
	}
	tw.AppendFooter(table.Row{"Total", "", minutes, kcal, "", ""})
	return tw.Render()
}

// SummaryTable renders the constraints and scores behind a plan.
func SummaryTable(res *models.PlanResult) string {
	tw := newTable("Setting", "Value")
	for _, kv := range summaryRows(res) {
		tw.AppendRow(table.Row{kv[0], kv[1]})
	}
	return tw.Render()
}

// CatalogTable renders the accepted biomarkers.
func CatalogTable(specs []models.BiomarkerSpec) string {
	tw := newTable("Biomarker", "Unit", "Range", "Required", "Description")
	for _, s := range specs {
		required := ""
		if s.Required {
			required = "yes"
		}
		tw.AppendRow(table.Row{
			string(s.Name),
			s.Unit,
			fmt.Sprintf("%s-%s", formatFloat(s.Min), formatFloat(s.Max)),
			required,
			s.Description,
		})
	}
	return tw.Render()
}

func newTable(headers ...string) table.Writer {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)
	return tw
}

// rightAlign right-aligns the given 1-based columns.
func rightAlign(tw table.Writer, columns ...int) {
	configs := make([]table.ColumnConfig, 0, len(columns))
	for _, n := range columns {
		configs = append(configs, table.ColumnConfig{
			Number:      n,
			Align:       text.AlignRight,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
