//go:build libpostal

package main

import (
	"github.com/profile-screener/internal/postal"
	"github.com/profile-screener/internal/screen"
)

// newAddressExpander links libpostal when the binary is built with the
// libpostal tag.
func newAddressExpander() screen.AddressExpander {
	return postal.NewExpander()
}
