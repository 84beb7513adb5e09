package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/claude/fitharmony/internal/models"
)

func testResult() *models.PlanResult {
	days := make([]models.Session, 7)
	for i := range days {
		days[i] = models.Session{Day: i, Week: 1, Weekday: models.Weekday(i)}
	}
	days[0] = models.Session{Day: 0, Week: 1, Weekday: models.Monday, Type: models.ResistanceUpper,
		Intensity: models.High, DurationMinutes: 45, EstimatedCalories: 351, Focus: "Chest, back and arms"}
	days[2] = models.Session{Day: 2, Week: 1, Weekday: models.Wednesday, Type: models.Cardio,
		Intensity: models.Moderate, DurationMinutes: 30, EstimatedCalories: 270, Focus: "Aerobic base"}

	return &models.PlanResult{
		Schedule: models.Schedule{HorizonWeeks: 1, Days: days},
		Fitness:  0.8123,
		Feasible: true,
		Objectives: models.ObjectiveScores{
			GoalAlignment: 0.9, Recovery: 0.8, Variety: 0.6,
		},
		Weekly: []models.WeeklySummary{
			{Week: 1, WorkoutDays: 2, TotalMinutes: 75, EstimatedCalories: 621, ResistanceSessions: 1, HighIntensitySessions: 1},
		},
		Timeframe: "12-16 weeks",
		Search:    models.SearchStats{Seed: 42},
		Constraints: models.PlanningConstraints{
			Available:             models.NewWeekdaySet(models.Monday, models.Wednesday),
			TargetSessionsPerWeek: 2,
			MaxSessionsPerWeek:    2,
			MaxIntensity:          models.High,
			MaxSessionMinutes:     60,
		},
	}
}

// TestScheduleTableSkipsRestDays verifies only workout days are listed.
func TestScheduleTableSkipsRestDays(t *testing.T) {
	out := ScheduleTable(testResult())

	for _, want := range []string{"Monday", "Wednesday", "resistance_upper", "Chest, back and arms", "351"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Tuesday") || strings.Contains(out, "Sunday") {
		t.Errorf("rest day listed:\n%s", out)
	}
}

// TestWeeklyTableTotals verifies the footer sums minutes and calories.
func TestWeeklyTableTotals(t *testing.T) {
	res := testResult()
	res.Weekly = append(res.Weekly, models.WeeklySummary{Week: 2, WorkoutDays: 1, TotalMinutes: 25, EstimatedCalories: 79})

	out := WeeklyTable(res)
	// go-pretty upper-cases footers.
	if !strings.Contains(out, "TOTAL") || !strings.Contains(out, "100") || !strings.Contains(out, "700") {
		t.Errorf("footer totals missing:\n%s", out)
	}
}

// TestSummaryTable verifies constraints and scores appear.
func TestSummaryTable(t *testing.T) {
	out := SummaryTable(testResult())
	for _, want := range []string{"mon, wed", "0.8123", "12-16 weeks", "42"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

// TestCatalogTable verifies every biomarker gets a row.
func TestCatalogTable(t *testing.T) {
	out := CatalogTable(models.BiomarkerCatalog)
	for _, s := range models.BiomarkerCatalog {
		if !strings.Contains(out, string(s.Name)) {
			t.Errorf("catalog missing %s", s.Name)
		}
	}
}

// TestWorkbookSheets verifies the workbook round-trips through xlsx with
// one schedule row per day.
func TestWorkbookSheets(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteWorkbook(&buf, testResult()); err != nil {
		t.Fatal(err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	if got := f.GetSheetList(); len(got) != 3 || got[0] != SheetSchedule {
		t.Fatalf("sheets = %v", got)
	}

	rows, err := f.GetRows(SheetSchedule)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 8 {
		t.Fatalf("schedule rows = %d, want header + 7", len(rows))
	}
	if rows[1][2] != "resistance_upper" || rows[1][4] != "45" {
		t.Errorf("monday row = %v", rows[1])
	}
	if rows[2][2] != "rest" {
		t.Errorf("tuesday row = %v", rows[2])
	}

	weekly, err := f.GetRows(SheetWeekly)
	if err != nil {
		t.Fatal(err)
	}
	if len(weekly) != 2 || weekly[1][3] != "621" {
		t.Errorf("weekly rows = %v", weekly)
	}

	v, err := f.GetCellValue(SheetConstraints, "B2")
	if err != nil || v != "mon, wed" {
		t.Errorf("available days cell = %q (err %v)", v, err)
	}
}
