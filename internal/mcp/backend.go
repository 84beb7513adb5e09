package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/claude/fitharmony/internal/planner"
	"github.com/claude/fitharmony/internal/storage"
)

// Backend runs optimizations for MCP tools. Local (in-process planner) and
// HTTPClient (remote via REST API) satisfy this interface. Results are the
// PlanResult JSON document.
type Backend interface {
	Plan(ctx context.Context, req planner.Request) (json.RawMessage, error)
	PlanForUser(ctx context.Context, userID int, req planner.Request) (json.RawMessage, error)
}

var errNoSource = errors.New("no biomarker source configured")

// Local runs the planner in-process.
type Local struct {
	planner *planner.Planner
	source  storage.Source // may be nil
}

var _ Backend = (*Local)(nil)

// NewLocal creates a Local backend. source may be nil, in which case
// user-scoped plans are unavailable.
func NewLocal(p *planner.Planner, source storage.Source) *Local {
	return &Local{planner: p, source: source}
}

func (l *Local) Plan(ctx context.Context, req planner.Request) (json.RawMessage, error) {
	res, err := l.planner.Plan(ctx, req)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(res)
	if err != nil {
		return nil, fmt.Errorf("encoding plan: %w", err)
	}
	return data, nil
}

func (l *Local) PlanForUser(ctx context.Context, userID int, req planner.Request) (json.RawMessage, error) {
	if l.source == nil {
		return nil, errNoSource
	}
	res, _, err := l.planner.PlanForUser(ctx, l.source, userID, req)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(res)
	if err != nil {
		return nil, fmt.Errorf("encoding plan: %w", err)
	}
	return data, nil
}
