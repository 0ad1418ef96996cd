package vt

import (
	"fmt"

	"github.com/umiterm/umiterm/internal/grid"
)

// Print implements parser.Handler: append a single printable codepoint
// with the current style. The DFA only emits Print for codepoints that
// passed the U+2020/U+2021 filter (spec.md §4.3).
func (t *Terminal) Print(r rune) { t.writeChar(r) }

// Execute implements parser.Handler for C0 control bytes.
func (t *Terminal) Execute(b byte) { t.handleControlChar(b) }

// ESC implements parser.Handler for two-character escape sequences.
func (t *Terminal) ESC(final byte) {
	switch final {
	case '7':
		t.SaveCursor()
	case '8':
		t.RestoreCursor()
	case 'D':
		t.Linefeed()
	case 'E':
		t.Linefeed()
		t.CarriageReturn()
	case 'M':
		t.ReverseLinefeed()
	case 'c':
		t.FullReset()
	default:
		t.logUnknown("ESC", final, nil)
	}
}

// OSC implements parser.Handler for Operating System Command strings.
func (t *Terminal) OSC(code int, payload string) {
	switch code {
	case 0, 2:
		t.Title = payload
	case 7:
		t.CWD = decodeFileURL(payload)
	}
}

// decodeFileURL extracts and percent-decodes the path component of a
// file://[host]/path URL (spec.md §4.3, OSC 7).
func decodeFileURL(payload string) string {
	const prefix = "file://"
	if len(payload) < len(prefix) || payload[:len(prefix)] != prefix {
		return payload
	}
	rest := payload[len(prefix):]
	if i := indexByte(rest, '/'); i >= 0 {
		rest = rest[i:]
	}
	return percentDecode(rest)
}

func indexByte(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}

func percentDecode(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) {
			hi, ok1 := hexVal(s[i+1])
			lo, ok2 := hexVal(s[i+2])
			if ok1 && ok2 {
				out = append(out, byte(hi<<4|lo))
				i += 2
				continue
			}
		}
		out = append(out, s[i])
	}
	return string(out)
}

func hexVal(b byte) (int, bool) {
	switch {
	case b >= '0' && b <= '9':
		return int(b - '0'), true
	case b >= 'a' && b <= 'f':
		return int(b-'a') + 10, true
	case b >= 'A' && b <= 'F':
		return int(b-'A') + 10, true
	}
	return 0, false
}

// CSI implements parser.Handler, dispatching a Control Sequence
// Introducer by its final byte per spec.md §4.3's table.
func (t *Terminal) CSI(params []int, intermediates []byte, private bool, final byte) {
	if private {
		t.csiPrivate(params, final)
		return
	}
	switch final {
	case 'A':
		t.MoveCursor(0, -paramOr(params, 0, 1))
	case 'B':
		t.MoveCursor(0, paramOr(params, 0, 1))
	case 'C':
		t.MoveCursor(paramOr(params, 0, 1), 0)
	case 'D':
		t.MoveCursor(-paramOr(params, 0, 1), 0)
	case 'E':
		t.MoveCursor(0, paramOr(params, 0, 1))
		t.CarriageReturn()
	case 'F':
		t.MoveCursor(0, -paramOr(params, 0, 1))
		t.CarriageReturn()
	case 'G':
		t.MoveCursorTo(paramOr(params, 0, 1)-1, t.cursor.Row)
	case 'H', 'f':
		row := paramOr(params, 0, 1)
		col := paramOr(params, 1, 1)
		t.MoveCursorTo(col-1, row-1)
	case 'J':
		switch paramOr(params, 0, 0) {
		case 0:
			t.EraseDisplayToEnd()
		case 1:
			t.EraseDisplayToStart()
		case 2, 3:
			t.EraseDisplayAll()
		}
	case 'K':
		switch paramOr(params, 0, 0) {
		case 0:
			t.EraseLineToEnd()
		case 1:
			t.EraseLineToStart()
		case 2:
			t.EraseLineAll()
		}
	case 'S':
		t.ScrollUp(paramOr(params, 0, 1))
	case 'T':
		t.ScrollDown(paramOr(params, 0, 1))
	case 'm':
		t.handleSGR(params)
	case 'r':
		top := paramOr(params, 0, 1)
		bottom := paramOr(params, 1, t.rows)
		t.SetScrollRegion(top-1, bottom-1)
		t.MoveCursorTo(0, 0)
	case 's':
		t.SaveCursor()
	case 'u':
		t.RestoreCursor()
	case 'h':
		t.setStandardMode(params, true)
	case 'l':
		t.setStandardMode(params, false)
	case 'q':
		t.setCursorShape(paramOr(params, 0, 0))
	case 'n':
		t.handleDSR(paramOr(params, 0, 0))
	default:
		t.logUnknown("CSI", final, params)
	}
}

func (t *Terminal) setStandardMode(params []int, on bool) {
	for _, p := range params {
		switch p {
		case 4:
			t.SetMode(Insert, on)
		default:
			t.logUnknown("mode", 0, []int{p})
		}
	}
}

// csiPrivate handles CSI sequences with a '?' intermediate: the DEC
// private mode map of spec.md §4.3.
func (t *Terminal) csiPrivate(params []int, final byte) {
	switch final {
	case 'h', 'l':
		on := final == 'h'
		for _, p := range params {
			switch p {
			case 1:
				t.SetMode(CursorKeysApp, on)
			case 7:
				t.SetMode(AutoWrap, on)
			case 25:
				t.cursor.Visible = on
			case 47, 1047, 1049:
				if on {
					t.EnterAltScreen()
				} else {
					t.ExitAltScreen()
				}
			case 1000, 1002, 1003, 1006, 1015:
				t.SetMode(MouseTracking, on)
			case 2004:
				t.SetMode(BracketedPaste, on)
			default:
				t.logUnknown("private-mode", final, []int{p})
			}
		}
	default:
		t.logUnknown("CSI-private", final, params)
	}
}

func (t *Terminal) setCursorShape(p int) {
	switch p {
	case 0, 1:
		t.cursor.Shape, t.cursor.Blinking = CursorBlock, p == 0 || p == 1
	case 2:
		t.cursor.Shape, t.cursor.Blinking = CursorBlock, false
	case 3:
		t.cursor.Shape, t.cursor.Blinking = CursorUnderline, true
	case 4:
		t.cursor.Shape, t.cursor.Blinking = CursorUnderline, false
	case 5:
		t.cursor.Shape, t.cursor.Blinking = CursorBeam, true
	case 6:
		t.cursor.Shape, t.cursor.Blinking = CursorBeam, false
	}
}

// handleDSR answers Device Status Report requests: 5 reports terminal
// OK, 6 reports the cursor position.
func (t *Terminal) handleDSR(kind int) {
	switch kind {
	case 5:
		t.queueResponse([]byte("\x1b[0n"))
	case 6:
		t.queueResponse([]byte(fmt.Sprintf("\x1b[%d;%dR", t.cursor.Row+1, t.cursor.Col+1)))
	}
}

// paramOr returns params[idx] if present and > 0, otherwise def — CSI
// parameters with value 0 or that are omitted both mean "use default"
// per ECMA-48.
func paramOr(params []int, idx, def int) int {
	if idx < len(params) && params[idx] > 0 {
		return params[idx]
	}
	return def
}

// ---------------------------------------------------------------------
// SGR — Select Graphic Rendition
// ---------------------------------------------------------------------

func (t *Terminal) handleSGR(params []int) {
	if len(params) == 0 {
		params = []int{0}
	}
	i := 0
	for i < len(params) {
		p := params[i]
		switch {
		case p == 0:
			t.style = Style{}
		case p == 1:
			t.style.Flags |= grid.Bold
		case p == 3:
			t.style.Flags |= grid.Italic
		case p == 4:
			t.style.Flags |= grid.Underline
		case p == 5:
			t.style.Flags |= grid.Blink
		case p == 7:
			t.style.Flags |= grid.Inverse
		case p == 8:
			t.style.Flags |= grid.Hidden
		case p == 9:
			t.style.Flags |= grid.Strikeout
		case p == 22:
			t.style.Flags &^= grid.Bold
		case p == 23:
			t.style.Flags &^= grid.Italic
		case p == 24:
			t.style.Flags &^= grid.Underline
		case p == 25:
			t.style.Flags &^= grid.Blink
		case p == 27:
			t.style.Flags &^= grid.Inverse
		case p == 28:
			t.style.Flags &^= grid.Hidden
		case p == 29:
			t.style.Flags &^= grid.Strikeout
		case p >= 30 && p <= 37:
			t.style.FG = grid.Color{Mode: grid.ColorANSI, Palette: uint8(p - 30)}
		case p == 38:
			i = t.parseSGRColor(params, i, true)
		case p == 39:
			t.style.FG = grid.DefaultColor
		case p >= 40 && p <= 47:
			t.style.BG = grid.Color{Mode: grid.ColorANSI, Palette: uint8(p - 40)}
		case p == 48:
			i = t.parseSGRColor(params, i, false)
		case p == 49:
			t.style.BG = grid.DefaultColor
		case p >= 90 && p <= 97:
			t.style.FG = grid.Color{Mode: grid.ColorANSI, Palette: uint8(p-90) + 8}
		case p >= 100 && p <= 107:
			t.style.BG = grid.Color{Mode: grid.ColorANSI, Palette: uint8(p-100) + 8}
		}
		i++
	}
}

// parseSGRColor handles "38;5;N" (256-color) and "38;2;R;G;B"
// (truecolor) sub-sequences, returning the updated index into params.
func (t *Terminal) parseSGRColor(params []int, i int, fg bool) int {
	if i+1 >= len(params) {
		return i
	}
	switch params[i+1] {
	case 5:
		if i+2 < len(params) {
			c := grid.Color{Mode: grid.ColorPalette, Palette: uint8(params[i+2])}
			if fg {
				t.style.FG = c
			} else {
				t.style.BG = c
			}
			return i + 2
		}
	case 2:
		if i+4 < len(params) {
			c := grid.Color{Mode: grid.ColorTrueColor, R: uint8(params[i+2]), G: uint8(params[i+3]), B: uint8(params[i+4])}
			if fg {
				t.style.FG = c
			} else {
				t.style.BG = c
			}
			return i + 4
		}
	}
	return i + 1
}

// Palette256ToRGB maps a 256-color palette index to RGB using the
// standard xterm cube/gray-ramp formulas (spec.md §4.3 SGR table).
func Palette256ToRGB(idx uint8) (r, g, b uint8) {
	switch {
	case idx < 16:
		return ansi16RGB(idx)
	case idx < 232:
		n := int(idx) - 16
		steps := [6]uint8{0, 95, 135, 175, 215, 255}
		ri := (n / 36) % 6
		gi := (n / 6) % 6
		bi := n % 6
		return steps[ri], steps[gi], steps[bi]
	default:
		v := uint8(8 + (int(idx)-232)*10)
		return v, v, v
	}
}

func ansi16RGB(idx uint8) (r, g, b uint8) {
	const lo, hi = 0x80, 0xFF
	table := [16][3]uint8{
		{0, 0, 0}, {lo, 0, 0}, {0, lo, 0}, {lo, lo, 0},
		{0, 0, lo}, {lo, 0, lo}, {0, lo, lo}, {lo, lo, lo},
		{0x40, 0x40, 0x40}, {hi, 0, 0}, {0, hi, 0}, {hi, hi, 0},
		{0, 0, hi}, {hi, 0, hi}, {0, hi, hi}, {hi, hi, hi},
	}
	c := table[idx%16]
	return c[0], c[1], c[2]
}
