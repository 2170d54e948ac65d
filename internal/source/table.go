package source

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	"github.com/lib/pq"
)

// tableAdapter streams the rows of one relational table. Column metadata
// comes from information_schema so any table works without per-table
// wiring.
type tableAdapter struct {
	db    *sql.DB
	table string
}

func (a *tableAdapter) Fields(ctx context.Context) ([]string, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT column_name
		FROM information_schema.columns
		WHERE table_schema = 'public'
		AND table_name = $1
		ORDER BY ordinal_position
	`, a.table)
	if err != nil {
		return nil, unavailable(fmt.Sprintf("columns of %s", a.table), err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var col string
		if err := rows.Scan(&col); err != nil {
			return nil, unavailable(fmt.Sprintf("columns of %s", a.table), err)
		}
		cols = append(cols, col)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(fmt.Sprintf("columns of %s", a.table), err)
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("table %s not found: %w", a.table, ErrSourceUnavailable)
	}
	return cols, nil
}

func (a *tableAdapter) Sample(ctx context.Context, limit int) (map[string][]string, error) {
	it, err := a.query(ctx, fmt.Sprintf("SELECT * FROM %s LIMIT %d", pq.QuoteIdentifier(a.table), limit))
	if err != nil {
		return nil, err
	}
	defer it.Close()

	samples := make(map[string][]string)
	for {
		rec, err := it.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		for k, v := range rec {
			samples[k] = append(samples[k], v)
		}
	}
	return samples, nil
}

func (a *tableAdapter) Records(ctx context.Context) (Iterator, error) {
	return a.query(ctx, fmt.Sprintf("SELECT * FROM %s", pq.QuoteIdentifier(a.table)))
}

func (a *tableAdapter) query(ctx context.Context, stmt string) (Iterator, error) {
	rows, err := a.db.QueryContext(ctx, stmt)
	if err != nil {
		return nil, unavailable(fmt.Sprintf("scan of %s", a.table), err)
	}
	cols, err := rows.Columns()
	if err != nil {
		rows.Close()
		return nil, unavailable(fmt.Sprintf("scan of %s", a.table), err)
	}
	return &rowIterator{rows: rows, cols: cols}, nil
}

type rowIterator struct {
	rows    *sql.Rows
	cols    []string
	skipped int
}

func (it *rowIterator) Next(ctx context.Context) (RawRecord, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !it.rows.Next() {
			if err := it.rows.Err(); err != nil {
				return nil, err
			}
			return nil, io.EOF
		}

		vals := make([]sql.NullString, len(it.cols))
		ptrs := make([]any, len(it.cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := it.rows.Scan(ptrs...); err != nil {
			it.skipped++
			continue
		}

		rec := make(RawRecord, len(it.cols))
		for i, col := range it.cols {
			// NULL columns stay absent.
			if vals[i].Valid {
				rec[col] = vals[i].String
			}
		}
		return rec, nil
	}
}

func (it *rowIterator) Skipped() int { return it.skipped }

func (it *rowIterator) Close() error { return it.rows.Close() }
