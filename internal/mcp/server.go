// Package mcp exposes schedule optimization to AI assistants as MCP tools
// and resources.
package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// New creates an MCP server with all tools and resources registered.
func New(b Backend, version string, log *slog.Logger) *server.MCPServer {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	s := server.NewMCPServer("FitHarmony", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("FitHarmony exercise schedule optimizer. Submit body-composition biomarkers and weekly goals to optimize_schedule to get a day-by-day plan with per-objective scores and the constraints derived from the biomarkers. Use list_biomarkers to see accepted names, units and plausible ranges."),
	)

	h := &handlers{backend: b, log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolOptimizeSchedule, Handler: h.optimizeSchedule},
		server.ServerTool{Tool: toolListBiomarkers, Handler: h.listBiomarkers},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resBiomarkerCatalog, Handler: h.biomarkerCatalog},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	backend Backend
	log     *slog.Logger
}

// --- Resource definitions ---

var resBiomarkerCatalog = mcp.NewResource(
	"fitharmony://catalog",
	"Biomarker Catalog",
	mcp.WithResourceDescription("Every accepted biomarker with its canonical unit, plausible range and whether it is required"),
	mcp.WithMIMEType("application/json"),
)
