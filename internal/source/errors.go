package source

import (
	"errors"
	"fmt"
)

// Retrieval failures are reported per source and never abort the other
// sources of a screening run.
var (
	// ErrSourceUnavailable marks a source whose file or table cannot be
	// opened or read.
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrUnsupportedKind marks a descriptor whose kind has no adapter.
	ErrUnsupportedKind = errors.New("unsupported source kind")
)

func unavailable(what string, err error) error {
	return fmt.Errorf("%s: %w: %w", what, ErrSourceUnavailable, err)
}
