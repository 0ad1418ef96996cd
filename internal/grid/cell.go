// Package grid implements the terminal's cell buffer: a dense, row-major
// array of styled character cells with per-row dirty tracking and O(1)
// scrolling by contiguous slice move.
package grid

import "github.com/mattn/go-runewidth"

// StyleFlags is an 8-bit set of SGR display attributes.
type StyleFlags uint8

const (
	Bold StyleFlags = 1 << iota
	Italic
	Underline
	Blink
	Inverse
	Hidden
	Strikeout
)

// Has reports whether f sets every flag in mask.
func (f StyleFlags) Has(mask StyleFlags) bool { return f&mask == mask }

// ColorMode distinguishes how a Cell's color fields should be interpreted.
type ColorMode uint8

const (
	ColorDefault ColorMode = iota
	ColorANSI              // palette index 0-15
	ColorPalette           // palette index 0-255
	ColorTrueColor         // RGB
)

// Color is a single foreground or background color.
type Color struct {
	Mode    ColorMode
	Palette uint8 // valid when Mode is ColorANSI or ColorPalette
	R, G, B uint8 // valid when Mode is ColorTrueColor
}

// DefaultColor is the zero value: "use the terminal's default color".
var DefaultColor = Color{}

// Cell is a single character position on the screen. Every visible
// position holds exactly one Cell; there is no "unset" state.
type Cell struct {
	Char  rune
	Width uint8 // display width of Char: 1 normal, 2 East-Asian Wide
	FG    Color
	BG    Color
	Style StyleFlags
}

// SpacerCell returns the styled blank placed at the right half of a
// width-2 character, carrying the lead cell's style so background fills
// render contiguously across the pair.
func SpacerCell(lead Cell) Cell {
	return Cell{Char: 0, Width: 0, FG: lead.FG, BG: lead.BG, Style: lead.Style}
}

// IsSpacer reports whether c is the right half of a wide character pair.
func (c Cell) IsSpacer() bool { return c.Width == 0 }

// Blank reports whether c has no visible glyph (plain space or spacer).
func (c Cell) Blank() bool { return c.Char == 0 || c.Char == ' ' }

// RuneWidth returns the terminal display width of r: 1 for ordinary
// characters, 2 for East-Asian Wide codepoints, matching the column
// advance rules input_char depends on.
func RuneWidth(r rune) int {
	w := runewidth.RuneWidth(r)
	if w <= 0 {
		return 1
	}
	return w
}
