package vt

import "github.com/umiterm/umiterm/internal/grid"

// Style is the set of attributes applied to every newly written character
// until the next SGR reset/change.
type Style struct {
	FG    grid.Color
	BG    grid.Color
	Flags grid.StyleFlags
}
