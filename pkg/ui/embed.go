// Package ui provides embedded HTML assets served by the relay.
package ui

import (
	_ "embed"
)

// StatusHTML is the page served at the root path.
// It polls /ready to show live job counters.
//
//go:embed status.html
var StatusHTML []byte
