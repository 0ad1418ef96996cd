// Package vt implements the terminal state machine: cursor, modes,
// current style, scroll region, main/alternate grids, tab stops, and the
// pending device-status response queue. It is the Terminal of spec.md
// §3/§4.2, generalized from the teacher's single-grid Screen to operate
// against whichever of two grids (main, alternate) is currently active.
package vt

import (
	"go.uber.org/zap"

	"github.com/umiterm/umiterm/internal/applog"
	"github.com/umiterm/umiterm/internal/grid"
)

// Terminal owns the full virtual-screen state driven by the escape
// sequence parser (internal/parser). It implements parser.Handler.
type Terminal struct {
	main, alt *grid.Grid
	cols, rows int

	cursor    Cursor
	savedCursor    Cursor // CSI s / u
	altSavedCursor Cursor // enter/exit alt screen (separate slot; see DESIGN.md)

	modes Modes
	style Style

	scrollTop, scrollBottom int // 0-indexed, inclusive

	tabStops []bool

	Title string
	CWD   string

	responses []byte

	// log receives spec.md §7's debug-level "unrecognized CSI/mode"
	// reports. Nil by default (tests construct Terminal directly via
	// New); SetLogger attaches one.
	log *zap.Logger
}

// SetLogger attaches a logger used to report unrecognized escape
// sequences at debug level (spec.md §4.3/§7). Passing nil disables
// logging, which is also the zero-value behavior.
func (t *Terminal) SetLogger(log *zap.Logger) { t.log = log }

func (t *Terminal) logUnknown(kind string, final byte, params []int) {
	if t.log != nil {
		applog.UnknownSequence(t.log, kind, final, params)
	}
}

// New creates a Terminal with the given grid dimensions. Initial mode
// state is AutoWrap only, cursor visible at (0,0), scroll region spans
// the full grid, tab stops every 8 columns.
func New(cols, rows int) *Terminal {
	t := &Terminal{
		main: grid.New(cols, rows),
		alt:  grid.New(cols, rows),
		cols: cols,
		rows: rows,
	}
	t.modes = AutoWrap
	t.cursor = Cursor{Visible: true}
	t.scrollTop = 0
	t.scrollBottom = rows - 1
	t.recomputeTabStops()
	return t
}

func (t *Terminal) active() *grid.Grid {
	if t.modes.Has(AltScreen) {
		return t.alt
	}
	return t.main
}

// Grid returns the currently active grid (main or alternate) for
// rendering.
func (t *Terminal) Grid() *grid.Grid { return t.active() }

// MainGrid returns the main grid regardless of which is active.
func (t *Terminal) MainGrid() *grid.Grid { return t.main }

// AltGrid returns the alternate grid regardless of which is active.
func (t *Terminal) AltGrid() *grid.Grid { return t.alt }

// Cursor returns the current cursor state.
func (t *Terminal) Cursor() Cursor { return t.cursor }

// Modes returns the current mode flag set.
func (t *Terminal) Modes() Modes { return t.modes }

// Cols/Rows return the terminal's current dimensions.
func (t *Terminal) Cols() int { return t.cols }
func (t *Terminal) Rows() int { return t.rows }

// ScrollRegion returns the inclusive [top,bottom] scroll region, 0-indexed.
func (t *Terminal) ScrollRegion() (top, bottom int) { return t.scrollTop, t.scrollBottom }

func (t *Terminal) recomputeTabStops() {
	t.tabStops = make([]bool, t.cols)
	for c := 0; c < t.cols; c += 8 {
		t.tabStops[c] = true
	}
}

// ---------------------------------------------------------------------
// Character input
// ---------------------------------------------------------------------

// InputChar is the single entry point for printable input (spec.md
// §4.2). Control characters (c < 0x20) are dispatched to
// handleControlChar; other characters advance the cursor by their
// Unicode display width.
func (t *Terminal) InputChar(c rune) {
	if c < 0x20 {
		t.handleControlChar(byte(c))
		return
	}
	t.writeChar(c)
}

func (t *Terminal) writeChar(c rune) {
	width := grid.RuneWidth(c)
	if t.cursor.Col+width > t.cols {
		if t.modes.Has(AutoWrap) {
			t.CarriageReturn()
			t.Linefeed()
		} else {
			t.cursor.Col = t.cols - width
			if t.cursor.Col < 0 {
				t.cursor.Col = 0
			}
			if t.cols-t.cursor.Col < width {
				// No room even after clamping (col+2 > cols, AutoWrap
				// off): the write is a no-op, per spec.md §4.2.
				return
			}
		}
	}

	g := t.active()
	t.clearWideCharPair(g, t.cursor.Col, t.cursor.Row)

	cell := grid.Cell{Char: c, Width: uint8(width), FG: t.style.FG, BG: t.style.BG, Style: t.style.Flags}
	g.Set(t.cursor.Col, t.cursor.Row, cell)
	if width == 2 && t.cursor.Col+1 < t.cols {
		g.Set(t.cursor.Col+1, t.cursor.Row, grid.SpacerCell(cell))
	}
	t.cursor.Col += width
}

// clearWideCharPair implements the orphan-spacer contract (spec.md §9):
// writing to either half of a wide-character pair clears both halves to
// default before the new write proceeds.
func (t *Terminal) clearWideCharPair(g *grid.Grid, col, row int) {
	existing := g.Get(col, row)
	if existing.Width == 2 && col+1 < g.Cols() {
		g.Set(col+1, row, grid.Cell{Char: ' ', Width: 1})
	}
	if existing.IsSpacer() && col-1 >= 0 {
		g.Set(col-1, row, grid.Cell{Char: ' ', Width: 1})
	}
}

func (t *Terminal) handleControlChar(b byte) {
	switch b {
	case 0x08: // BS
		t.Backspace()
	case 0x09: // HT
		t.Tab()
	case 0x0A, 0x0B, 0x0C: // LF, VT, FF
		t.Linefeed()
	case 0x0D: // CR
		t.CarriageReturn()
	case 0x07: // BEL
		// ignored
	default:
		// other C0 controls ignored
	}
}

// ---------------------------------------------------------------------
// Cursor and scrolling
// ---------------------------------------------------------------------

// MoveCursorTo sets the cursor position, clamped to grid bounds.
func (t *Terminal) MoveCursorTo(col, row int) {
	t.cursor.Col, t.cursor.Row = col, row
	t.cursor.clamp(t.cols, t.rows)
}

// MoveCursor offsets the cursor by (dx,dy), then clamps.
func (t *Terminal) MoveCursor(dx, dy int) {
	t.cursor.Col += dx
	t.cursor.Row += dy
	t.cursor.clamp(t.cols, t.rows)
}

// Linefeed advances the cursor row by one, scrolling the region up by
// one if the cursor sits at the scroll region's bottom.
func (t *Terminal) Linefeed() {
	if t.cursor.Row == t.scrollBottom {
		t.active().ScrollUpRegion(t.scrollTop, t.scrollBottom, 1)
		return
	}
	if t.cursor.Row < t.rows-1 {
		t.cursor.Row++
	}
}

// ReverseLinefeed moves the cursor up one line, scrolling the region
// down by one if the cursor sits at the scroll region's top.
func (t *Terminal) ReverseLinefeed() {
	if t.cursor.Row == t.scrollTop {
		t.active().ScrollDownRegion(t.scrollTop, t.scrollBottom, 1)
		return
	}
	if t.cursor.Row > 0 {
		t.cursor.Row--
	}
}

// CarriageReturn sets the cursor column to 0.
func (t *Terminal) CarriageReturn() { t.cursor.Col = 0 }

// Tab advances the cursor to the next tab stop, or to cols-1 if none
// remain.
func (t *Terminal) Tab() {
	for c := t.cursor.Col + 1; c < t.cols; c++ {
		if t.tabStops[c] {
			t.cursor.Col = c
			return
		}
	}
	t.cursor.Col = t.cols - 1
}

// Backspace decrements the cursor column, not below 0.
func (t *Terminal) Backspace() {
	if t.cursor.Col > 0 {
		t.cursor.Col--
	}
}

// ScrollUp shifts the scroll region up by n rows, clearing vacated rows.
func (t *Terminal) ScrollUp(n int) {
	t.active().ScrollUpRegion(t.scrollTop, t.scrollBottom, n)
}

// ScrollDown shifts the scroll region down by n rows, clearing vacated
// rows.
func (t *Terminal) ScrollDown(n int) {
	t.active().ScrollDownRegion(t.scrollTop, t.scrollBottom, n)
}

// SetScrollRegion sets the inclusive scroll region [top,bottom],
// 0-indexed, clamped within [0,rows).
func (t *Terminal) SetScrollRegion(top, bottom int) {
	if top < 0 {
		top = 0
	}
	if bottom >= t.rows {
		bottom = t.rows - 1
	}
	if top > bottom {
		top, bottom = 0, t.rows-1
	}
	t.scrollTop, t.scrollBottom = top, bottom
}

// ---------------------------------------------------------------------
// Erasure — replaces affected cells with default-style blanks (spec.md
// §4.2): a width-1 space with default colors and no style flags, not the
// current SGR style.
// ---------------------------------------------------------------------

func blank() grid.Cell { return grid.Cell{Char: ' ', Width: 1} }

// EraseLineToEnd clears from the cursor to the end of the current line.
func (t *Terminal) EraseLineToEnd() {
	g := t.active()
	row := g.RowSlice(t.cursor.Row)
	for c := t.cursor.Col; c < len(row); c++ {
		row[c] = blank()
	}
	g.MarkDirty(t.cursor.Row)
}

// EraseLineToStart clears from the start of the line to the cursor
// (inclusive).
func (t *Terminal) EraseLineToStart() {
	g := t.active()
	row := g.RowSlice(t.cursor.Row)
	end := t.cursor.Col
	if end >= len(row) {
		end = len(row) - 1
	}
	for c := 0; c <= end; c++ {
		row[c] = blank()
	}
	g.MarkDirty(t.cursor.Row)
}

// EraseLineAll clears the entire current line.
func (t *Terminal) EraseLineAll() {
	t.active().ClearRow(t.cursor.Row)
}

// EraseDisplayToEnd clears from the cursor to the end of the display.
func (t *Terminal) EraseDisplayToEnd() {
	t.EraseLineToEnd()
	g := t.active()
	for r := t.cursor.Row + 1; r < t.rows; r++ {
		g.ClearRow(r)
	}
}

// EraseDisplayToStart clears from the start of the display to the
// cursor (inclusive).
func (t *Terminal) EraseDisplayToStart() {
	g := t.active()
	for r := 0; r < t.cursor.Row; r++ {
		g.ClearRow(r)
	}
	t.EraseLineToStart()
}

// EraseDisplayAll clears the entire display.
func (t *Terminal) EraseDisplayAll() {
	t.active().Clear()
}

// ---------------------------------------------------------------------
// Mode transitions
// ---------------------------------------------------------------------

// SetMode sets or clears one or more mode flags.
func (t *Terminal) SetMode(mask Modes, on bool) { t.modes.set(mask, on) }

// EnterAltScreen switches the active grid to the alternate screen,
// clearing it and saving the pre-alt-screen cursor into a slot
// independent from CSI s/u (see DESIGN.md).
func (t *Terminal) EnterAltScreen() {
	if t.modes.Has(AltScreen) {
		return
	}
	t.altSavedCursor = t.cursor
	t.modes.set(AltScreen, true)
	t.alt.Clear()
}

// ExitAltScreen switches back to the main grid, restores the cursor from
// the alt-screen slot, resets the scroll region to the full grid, and
// marks the main grid all-dirty.
func (t *Terminal) ExitAltScreen() {
	if !t.modes.Has(AltScreen) {
		return
	}
	t.modes.set(AltScreen, false)
	t.cursor = t.altSavedCursor
	t.scrollTop, t.scrollBottom = 0, t.rows-1
	t.main.MarkAllDirty()
}

// SaveCursor stores the full cursor state in the CSI s/u slot.
func (t *Terminal) SaveCursor() { t.savedCursor = t.cursor }

// RestoreCursor restores the cursor state from the CSI s/u slot.
func (t *Terminal) RestoreCursor() { t.cursor = t.savedCursor }

// ---------------------------------------------------------------------
// Resize
// ---------------------------------------------------------------------

// Resize propagates a dimension change to both grids, resets the scroll
// region to the full new grid, clamps the cursor, and recomputes tab
// stops at every multiple of 8.
func (t *Terminal) Resize(cols, rows int) {
	t.main.Resize(cols, rows)
	t.alt.Resize(cols, rows)
	t.cols, t.rows = cols, rows
	t.scrollTop, t.scrollBottom = 0, rows-1
	t.cursor.clamp(cols, rows)
	t.recomputeTabStops()
}

// ---------------------------------------------------------------------
// Device-status response queue
// ---------------------------------------------------------------------

// TakeResponse drains and returns any pending device-status reply bytes
// (spec.md §6), clearing the queue.
func (t *Terminal) TakeResponse() []byte {
	if len(t.responses) == 0 {
		return nil
	}
	out := t.responses
	t.responses = nil
	return out
}

func (t *Terminal) queueResponse(b []byte) {
	t.responses = append(t.responses, b...)
}

// FullReset rebuilds the Terminal's state, preserving its current size
// (ESC c, full reset / RIS).
func (t *Terminal) FullReset() {
	cols, rows := t.cols, t.rows
	*t = *New(cols, rows)
}
