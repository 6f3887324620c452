// Package sink persists collected moisture rows.
package sink

import (
	"context"
	"time"

	"github.com/eskila/jdoc/internal/moisture"
)

// Sink kinds.
const (
	CSV    = "csv"
	SQLite = "sqlite"
	JSONL  = "jsonl"
)

// TimestampLayout is local wall-clock time with microseconds and no zone, as
// written to the CSV and JSON lines outputs.
const TimestampLayout = "2006-01-02T15:04:05.000000"

// Sink stores rows. Implementations are not safe for concurrent use.
type Sink interface {
	Write(ctx context.Context, row moisture.Row) error
	Close() error
}

// Open returns a sink of the given kind from the Default registry.
func Open(kind, path string) (Sink, error) {
	return Default.Open(kind, path)
}

func formatTimestamp(ts time.Time) string {
	return ts.Local().Format(TimestampLayout)
}
