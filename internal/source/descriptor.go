package source

import (
	"fmt"
)

// Kind discriminates which retrieval adapter a source uses.
type Kind string

const (
	KindTabularFile        Kind = "tabular-file"
	KindSemiStructuredFile Kind = "semi-structured-file"
	KindRelationalTable    Kind = "relational-table"
)

// ParseKind validates a kind string from an external caller.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindTabularFile, KindSemiStructuredFile, KindRelationalTable:
		return Kind(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedKind, s)
}

// Descriptor identifies one record collection. Descriptors are provided by
// the caller; the pipeline never mutates or invents them.
type Descriptor struct {
	Name     string `json:"name,omitempty"`
	Kind     Kind   `json:"kind"`
	Location string `json:"location"`
	Table    string `json:"table,omitempty"`
}

// Key returns the stable identity of the source. Record keys, distinct
// source counting and ranking tie-breaks all build on it.
func (d Descriptor) Key() string {
	if d.Kind == KindRelationalTable {
		return fmt.Sprintf("%s:%s/%s", d.Kind, d.Location, d.Table)
	}
	return fmt.Sprintf("%s:%s", d.Kind, d.Location)
}

func (d Descriptor) String() string {
	if d.Name != "" {
		return d.Name
	}
	return d.Key()
}
