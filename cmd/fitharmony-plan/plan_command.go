package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/claude/fitharmony/internal/models"
	"github.com/claude/fitharmony/internal/planner"
	"github.com/claude/fitharmony/internal/render"
)

func newPlanCommand(ctx *commandContext) *cobra.Command {
	var (
		seed          uint64
		restarts      int
		maxIterations int
		xlsxPath      string
		jsonOutput    bool
	)

	cmd := &cobra.Command{
		Use:   "plan <request-file>",
		Short: "Optimize a schedule from a YAML or JSON request file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			req, err := readRequest(args[0])
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("seed") {
				req.Search.Seed = &seed
			}
			if flags.Changed("restarts") {
				req.Search.Restarts = restarts
			}
			if flags.Changed("max-iterations") {
				req.Search.MaxIterations = &maxIterations
			}

			p := planner.New(cfg.Planner(), ctx.logger(cmd.ErrOrStderr()))
			res, err := p.Plan(cmd.Context(), req)
			if err != nil {
				var noSchedule *planner.NoScheduleError
				if errors.As(err, &noSchedule) {
					printViolations(cmd.ErrOrStderr(), noSchedule)
				}
				return err
			}

			if xlsxPath != "" {
				if err := writeWorkbookFile(xlsxPath, res); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			fmt.Fprintln(out, render.SummaryTable(res))
			fmt.Fprintln(out, render.ScheduleTable(res))
			fmt.Fprintln(out, render.WeeklyTable(res))
			if xlsxPath != "" {
				fmt.Fprintf(out, "Workbook written to %s\n", xlsxPath)
			}
			return nil
		},
	}

	cmd.Flags().Uint64Var(&seed, "seed", 0, "Random seed (fresh per run when unset)")
	cmd.Flags().IntVar(&restarts, "restarts", 1, "Independent searches to run; the best feasible result wins")
	cmd.Flags().IntVar(&maxIterations, "max-iterations", 0, "Improvisation budget per search")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "Also write the plan as an xlsx workbook to this path")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the plan result as JSON instead of tables")

	return cmd
}

// readRequest decodes a request file. Files ending in .json are strict JSON;
// anything else is YAML. Unknown fields are rejected in both.
func readRequest(path string) (planner.Request, error) {
	var req planner.Request
	data, err := os.ReadFile(path)
	if err != nil {
		return req, fmt.Errorf("reading request: %w", err)
	}

	if strings.EqualFold(filepath.Ext(path), ".json") {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			return req, fmt.Errorf("parsing request %s: %w", path, err)
		}
		return req, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&req); err != nil {
		return req, fmt.Errorf("parsing request %s: %w", path, err)
	}
	return req, nil
}

func writeWorkbookFile(path string, res *models.PlanResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating workbook: %w", err)
	}
	if err := render.WriteWorkbook(f, res); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func printViolations(w io.Writer, e *planner.NoScheduleError) {
	if len(e.Violations) == 0 {
		return
	}
	fmt.Fprintln(w, "Closest candidate breaks:")
	for _, v := range e.Violations {
		fmt.Fprintf(w, "  week %d day %d: %s (%s)\n", v.Week, v.Day, v.Kind, v.Detail)
	}
}
