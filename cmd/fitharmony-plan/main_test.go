package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/claude/fitharmony/internal/mcp"
)

const requestYAML = `biomarkers:
  skeletal_muscle_mass: {value: 22, unit: kg}
  body_fat_pct: {value: 28}
  bmi: {value: 24}
goals:
  available_days: [mon, tue, thu, fri]
  sessions_per_week: 3
`

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

// TestPlanCommandTables verifies a YAML request prints the summary, schedule
// and weekly tables.
func TestPlanCommandTables(t *testing.T) {
	req := writeFile(t, "request.yaml", requestYAML)

	out, _, err := runCLI(t, "plan", req, "--seed", "3", "--max-iterations", "1500")
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	requireContains(t, out, "resistance_")
	requireContains(t, out, "Expected timeframe")
	requireContains(t, out, "TOTAL")
}

// TestPlanCommandJSONAndWorkbook verifies --json output and the --xlsx file.
func TestPlanCommandJSONAndWorkbook(t *testing.T) {
	reqJSON := `{"biomarkers": {"skeletal_muscle_mass": {"value": 30}, "body_fat_pct": {"value": 20}, "bmi": {"value": 23}},
	  "goals": {"available_days": ["mon", "wed", "fri"], "sessions_per_week": 3}}`
	req := writeFile(t, "request.json", reqJSON)
	xlsx := filepath.Join(t.TempDir(), "plan.xlsx")

	out, _, err := runCLI(t, "plan", req, "--seed", "9", "--max-iterations", "1500", "--json", "--xlsx", xlsx)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}

	var got struct {
		Feasible bool `json:"feasible"`
		Search   struct {
			Seed uint64 `json:"seed"`
		} `json:"search"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if !got.Feasible || got.Search.Seed != 9 {
		t.Errorf("feasible=%v seed=%d", got.Feasible, got.Search.Seed)
	}
	if info, err := os.Stat(xlsx); err != nil || info.Size() == 0 {
		t.Errorf("workbook not written: %v", err)
	}
}

// TestPlanCommandErrors verifies unreadable, unknown-field and infeasible
// requests fail.
func TestPlanCommandErrors(t *testing.T) {
	if _, _, err := runCLI(t, "plan", filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing file: expected error")
	}

	unknown := writeFile(t, "unknown.yaml", requestYAML+"extra: true\n")
	if _, _, err := runCLI(t, "plan", unknown); err == nil || !strings.Contains(err.Error(), "extra") {
		t.Errorf("unknown field: err = %v", err)
	}

	tooFew := writeFile(t, "few.yaml", strings.Replace(requestYAML, "[mon, tue, thu, fri]", "[mon]", 1))
	if _, _, err := runCLI(t, "plan", tooFew); err == nil || !strings.Contains(err.Error(), "infeasible") {
		t.Errorf("infeasible: err = %v", err)
	}
}

// TestCatalogCommand verifies the table and JSON catalog outputs.
func TestCatalogCommand(t *testing.T) {
	out, _, err := runCLI(t, "catalog")
	if err != nil {
		t.Fatal(err)
	}
	requireContains(t, out, "skeletal_muscle_mass")

	out, _, err = runCLI(t, "catalog", "--json")
	if err != nil {
		t.Fatal(err)
	}
	var specs []map[string]any
	if err := json.Unmarshal([]byte(out), &specs); err != nil || len(specs) == 0 {
		t.Errorf("catalog json: %v (%d entries)", err, len(specs))
	}
}

// TestImportCommand verifies an export is stored and a repeat import is
// reported as already stored.
func TestImportCommand(t *testing.T) {
	export := writeFile(t, "export.csv", "Date;Weight(kg);Skeletal Muscle Mass(kg);BMI\n02.05.2026;80,4;31,2;25,1\n")
	db := filepath.Join(t.TempDir(), "readings.db")

	out, _, err := runCLI(t, "import", export, "--user", "3", "--sqlite", db)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	requireContains(t, out, "3 new")

	out, _, err = runCLI(t, "import", export, "--user", "3", "--sqlite", db, "--json")
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	requireContains(t, out, `"readings_skipped": 3`)

	if _, _, err := runCLI(t, "import", export, "--sqlite", db); err == nil {
		t.Error("missing --user: expected error")
	}
	if _, _, err := runCLI(t, "import", export, "--user", "3"); err == nil {
		t.Error("missing store: expected error")
	}
}

// TestMCPBackendSelection verifies --remote picks the REST client and the
// default is the in-process planner.
func TestMCPBackendSelection(t *testing.T) {
	var configFlag string
	var verbose bool
	c := newCommandContext(&configFlag, &verbose)
	log := c.logger(&bytes.Buffer{})

	b, closeFn, err := c.mcpBackend(context.Background(), log, "http://fitharmony.example", "k")
	if err != nil {
		t.Fatal(err)
	}
	closeFn()
	if _, ok := b.(*mcp.HTTPClient); !ok {
		t.Errorf("remote backend = %T, want *mcp.HTTPClient", b)
	}

	b, closeFn, err = c.mcpBackend(context.Background(), log, "", "")
	if err != nil {
		t.Fatal(err)
	}
	closeFn()
	if _, ok := b.(*mcp.Local); !ok {
		t.Errorf("local backend = %T, want *mcp.Local", b)
	}
}
