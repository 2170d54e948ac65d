//go:build !libpostal

package main

import "github.com/profile-screener/internal/screen"

// newAddressExpander reports that libpostal is not compiled in. Build with
// -tags libpostal to enable address expansion.
func newAddressExpander() screen.AddressExpander {
	return nil
}
