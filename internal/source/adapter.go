package source

import (
	"context"
	"database/sql"
	"fmt"
)

// DefaultSampleSize is how many records per source the schema detector
// samples for value-shape rules.
const DefaultSampleSize = 5

// Adapter enumerates one source's native fields and streams its records.
// The pipeline never touches bytes directly; each descriptor kind has an
// adapter that knows how to fetch them.
type Adapter interface {
	// Fields returns the source's native field names.
	Fields(ctx context.Context) ([]string, error)
	// Sample returns up to limit values per native field.
	Sample(ctx context.Context, limit int) (map[string][]string, error)
	// Records opens a one-pass iterator over the source's records.
	Records(ctx context.Context) (Iterator, error)
}

// Iterator is a finite, one-pass record stream. Next returns io.EOF once
// the stream is exhausted. Rows that fail to decode are skipped and
// counted, never fatal; only a broken stream ends iteration with an error.
type Iterator interface {
	Next(ctx context.Context) (RawRecord, error)
	// Skipped reports how many malformed rows were dropped so far.
	Skipped() int
	Close() error
}

// NewAdapter selects the adapter for a descriptor. Relational sources need
// a database handle.
func NewAdapter(desc Descriptor, db *sql.DB) (Adapter, error) {
	switch desc.Kind {
	case KindTabularFile:
		return &csvAdapter{path: desc.Location}, nil
	case KindSemiStructuredFile:
		return &jsonAdapter{path: desc.Location}, nil
	case KindRelationalTable:
		if db == nil {
			return nil, fmt.Errorf("%s: no database configured: %w", desc.Key(), ErrSourceUnavailable)
		}
		return &tableAdapter{db: db, table: desc.Table}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedKind, desc.Kind)
	}
}
