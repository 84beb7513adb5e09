package report

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/claude/fitharmony/internal/ingest"
	"github.com/claude/fitharmony/internal/storage"
)

// Store persists readings. *storage.SQLiteSource satisfies it.
type Store interface {
	InsertReadings(ctx context.Context, userID int, readings []storage.Reading) (int64, error)
}

var _ Store = (*storage.SQLiteSource)(nil)

// Provider processes body-composition CSV exports.
type Provider struct {
	store Store
	log   *slog.Logger
}

// NewProvider creates a new body-composition export provider.
func NewProvider(store Store, log *slog.Logger) *Provider {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Provider{store: store, log: log}
}

// Ingest parses an export and stores its readings for the user. Readings
// already stored for the same metric and time are skipped.
func (p *Provider) Ingest(ctx context.Context, r io.Reader, userID int) (*ingest.Result, error) {
	export, err := Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing export: %w", err)
	}

	result := &ingest.Result{
		RowsReceived:     export.Rows,
		ReadingsReceived: len(export.Readings),
		RejectedColumns:  export.Unmapped,
	}
	if len(export.Unmapped) > 0 {
		p.log.Warn("ignoring unmapped columns", "columns", export.Unmapped)
	}

	if len(export.Readings) > 0 {
		inserted, err := p.store.InsertReadings(ctx, userID, export.Readings)
		if err != nil {
			return nil, fmt.Errorf("inserting readings: %w", err)
		}
		result.ReadingsInserted = inserted
		result.ReadingsSkipped = int64(len(export.Readings)) - inserted
	}

	p.log.Info("export ingested",
		"user_id", userID,
		"rows", result.RowsReceived,
		"inserted", result.ReadingsInserted,
		"skipped", result.ReadingsSkipped,
	)
	return result, nil
}
