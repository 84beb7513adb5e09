package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/claude/fitharmony/internal/models"
	"github.com/claude/fitharmony/internal/planner"
)

// --- Tool definitions ---

var toolOptimizeSchedule = mcp.NewTool("optimize_schedule",
	mcp.WithDescription("Optimize a multi-week exercise schedule from body-composition biomarkers and weekly goals. Returns the best feasible day-by-day schedule, its fitness and per-objective scores, weekly summaries, and the constraints derived from the biomarkers."),
	mcp.WithObject("biomarkers", mcp.Description(`Map of biomarker name to {"value": number, "unit": string}, e.g. {"skeletal_muscle_mass": {"value": 24.1, "unit": "kg"}, "body_fat_pct": {"value": 31}, "bmi": {"value": 27.4}}. See list_biomarkers. Required unless user_id is given.`)),
	mcp.WithObject("goals", mcp.Required(), mcp.Description(`Weekly goals: available_days (e.g. ["mon","wed","fri"]), sessions_per_week, and optionally max_sessions_per_week, exclude, prefer (exercise types: cardio, resistance_upper, resistance_lower, resistance_full, flexibility), horizon_weeks, min_rest_days, max_session_minutes.`)),
	mcp.WithObject("search", mcp.Description("Optional search overrides: seed, memory_size, hmcr, par, bandwidth, max_iterations, patience, deadline_ms, restarts, weights {goal_alignment, recovery, variety}.")),
	mcp.WithNumber("user_id", mcp.Description("Plan from this user's latest stored readings; biomarkers given here override the stored values.")),
)

var toolListBiomarkers = mcp.NewTool("list_biomarkers",
	mcp.WithDescription("List every accepted biomarker with its canonical unit, plausible range and whether it is required."),
)

// --- Tool handlers ---

func (h *handlers) optimizeSchedule(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	planReq, err := decodePlanRequest(req.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var data json.RawMessage
	if userID := req.GetInt("user_id", 0); userID > 0 {
		data, err = h.backend.PlanForUser(ctx, userID, planReq)
	} else {
		data, err = h.backend.Plan(ctx, planReq)
	}
	if err != nil {
		h.log.Warn("mcp optimize_schedule", "error", err)
		return mcp.NewToolResultError("optimization failed: " + err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (h *handlers) listBiomarkers(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(models.BiomarkerCatalog)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

// decodePlanRequest converts tool arguments into a planner request with the
// same strictness as the REST API.
func decodePlanRequest(args map[string]any) (planner.Request, error) {
	var req planner.Request
	fields := map[string]any{}
	for _, key := range []string{"biomarkers", "goals", "search"} {
		if v, ok := args[key]; ok && v != nil {
			fields[key] = v
		}
	}
	if _, ok := fields["goals"]; !ok {
		return req, errors.New("goals parameter is required")
	}

	data, err := json.Marshal(fields)
	if err != nil {
		return req, fmt.Errorf("invalid arguments: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return req, fmt.Errorf("invalid arguments: %w", err)
	}
	return req, nil
}
