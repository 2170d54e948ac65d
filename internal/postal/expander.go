// Package postal canonicalises addresses with libpostal. It is the only
// package that links the cgo dependency, so binaries that leave address
// expansion disabled stay free of it.
package postal

import (
	"strings"

	expand "github.com/openvenues/gopostal/expand"
)

// Expander rewrites free-form addresses into libpostal's expansions.
type Expander struct{}

func NewExpander() *Expander {
	return &Expander{}
}

// Expand returns the canonical expansions for an address, most complete
// first. Blank input yields nil.
func (e *Expander) Expand(address string) []string {
	if strings.TrimSpace(address) == "" {
		return nil
	}
	return expand.ExpandAddress(address)
}
