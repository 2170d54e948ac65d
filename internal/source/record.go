package source

import (
	"fmt"

	"github.com/profile-screener/internal/normalize"
	"github.com/profile-screener/internal/schema"
)

// RawRecord is one record exactly as the adapter read it, keyed by native
// field name. A missing key means the field was absent, which is distinct
// from present-but-empty.
type RawRecord map[string]string

// NormalizedCandidate is one retrieved record re-expressed through a schema
// mapping. Fields holds only the canonical fields that carried a usable
// value; Native preserves the original record for display and traceability.
// Candidates live for one screening run and are discarded after ranking.
type NormalizedCandidate struct {
	Source  string                  `json:"source"`
	Ordinal int                     `json:"ordinal"`
	Fields  map[schema.Field]string `json:"fields"`
	Native  RawRecord               `json:"native,omitempty"`
}

// Key returns the record's stable identity within one screening run.
func (c NormalizedCandidate) Key() string {
	return fmt.Sprintf("%s#%d", c.Source, c.Ordinal)
}

// Get returns a canonical field value. Absent fields report ok=false; the
// scorer treats absence as "cannot compare", never as a mismatch.
func (c NormalizedCandidate) Get(f schema.Field) (string, bool) {
	v, ok := c.Fields[f]
	return v, ok
}

// Normalize applies a schema mapping to one raw record. Native values that
// are absent or blank produce absent canonical fields.
func Normalize(sourceKey string, ordinal int, raw RawRecord, mapping schema.Mapping) NormalizedCandidate {
	fields := make(map[schema.Field]string, len(mapping))
	for canonical, det := range mapping {
		v, ok := raw[det.Native]
		if !ok || normalize.IsBlank(v) {
			continue
		}
		fields[canonical] = v
	}
	return NormalizedCandidate{
		Source:  sourceKey,
		Ordinal: ordinal,
		Fields:  fields,
		Native:  raw,
	}
}
