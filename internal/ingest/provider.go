// Package ingest loads body-composition exports into a local readings store.
package ingest

// Result holds the outcome of an ingest operation.
type Result struct {
	RowsReceived     int      `json:"rows_received"`
	ReadingsReceived int      `json:"readings_received"`
	ReadingsInserted int64    `json:"readings_inserted"`
	ReadingsSkipped  int64    `json:"readings_skipped"`
	RejectedColumns  []string `json:"rejected_columns,omitempty"`
}
