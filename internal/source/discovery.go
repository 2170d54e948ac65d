package source

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// Discoverer enumerates the screenable sources: tabular and semi-structured
// files under the configured data directories, plus the tables of the
// configured database.
type Discoverer struct {
	dirs   []string
	db     *sql.DB
	dbName string
	log    *zap.Logger
}

// NewDiscoverer builds a discoverer. db may be nil when no database is
// configured; dbName labels relational descriptors.
func NewDiscoverer(dirs []string, db *sql.DB, dbName string, log *zap.Logger) *Discoverer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Discoverer{dirs: dirs, db: db, dbName: dbName, log: log}
}

// Discover lists every available source, sorted by key. An unreadable
// directory or database is logged and skipped; discovery never fails
// outright.
func (d *Discoverer) Discover(ctx context.Context) []Descriptor {
	var out []Descriptor
	for _, dir := range d.dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			d.log.Warn("skipping data directory", zap.String("dir", dir), zap.Error(err))
			continue
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			path := filepath.Join(dir, e.Name())
			switch strings.ToLower(filepath.Ext(e.Name())) {
			case ".csv":
				out = append(out, Descriptor{Name: e.Name(), Kind: KindTabularFile, Location: path})
			case ".json":
				out = append(out, Descriptor{Name: e.Name(), Kind: KindSemiStructuredFile, Location: path})
			}
		}
	}

	if d.db != nil {
		tables, err := d.listTables(ctx)
		if err != nil {
			d.log.Warn("skipping database tables", zap.Error(err))
		}
		for _, t := range tables {
			out = append(out, Descriptor{Name: t, Kind: KindRelationalTable, Location: d.dbName, Table: t})
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}

func (d *Discoverer) listTables(ctx context.Context) ([]string, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public'
		AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}
