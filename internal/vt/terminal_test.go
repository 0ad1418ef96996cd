package vt

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func charAt(t *Terminal, col, row int) rune { return t.Grid().Get(col, row).Char }

func TestHello(t *testing.T) {
	term := New(80, 24)
	for _, r := range "Hi" {
		term.InputChar(r)
	}
	if charAt(term, 0, 0) != 'H' || charAt(term, 1, 0) != 'i' {
		t.Fatalf("grid = (%q,%q), want ('H','i')", charAt(term, 0, 0), charAt(term, 1, 0))
	}
	c := term.Cursor()
	if c.Col != 2 || c.Row != 0 {
		t.Errorf("cursor = (%d,%d), want (2,0)", c.Col, c.Row)
	}
}

func TestColorSGR(t *testing.T) {
	term := New(80, 24)
	term.CSI([]int{31}, nil, false, 'm')
	term.InputChar('R')
	term.CSI([]int{0}, nil, false, 'm')
	term.InputChar(' ')
	term.InputChar('N')

	r := term.Grid().Get(0, 0)
	if r.Char != 'R' {
		t.Fatalf("char = %q, want 'R'", r.Char)
	}
	if r.FG.Mode != 1 || r.FG.Palette != 1 { // ColorANSI, red (31-30=1)
		t.Errorf("fg = %+v, want ANSI red", r.FG)
	}
	if r.Style != 0 {
		t.Errorf("style = %v, want empty after reset", r.Style)
	}
	n := term.Grid().Get(2, 0)
	if n.Char != 'N' {
		t.Fatalf("char = %q, want 'N'", n.Char)
	}
	if n.FG.Mode != 0 {
		t.Errorf("fg = %+v, want default", n.FG)
	}
}

func TestScrollOnLinefeed(t *testing.T) {
	term := New(80, 3)
	for _, r := range "1" {
		term.InputChar(r)
	}
	term.CarriageReturn()
	term.Linefeed()
	for _, r := range "2" {
		term.InputChar(r)
	}
	term.CarriageReturn()
	term.Linefeed()
	for _, r := range "3" {
		term.InputChar(r)
	}
	term.CarriageReturn()
	term.Linefeed()
	for _, r := range "4" {
		term.InputChar(r)
	}

	if charAt(term, 0, 0) != '2' || charAt(term, 0, 1) != '3' || charAt(term, 0, 2) != '4' {
		t.Fatalf("rows = (%q,%q,%q), want ('2','3','4')",
			charAt(term, 0, 0), charAt(term, 0, 1), charAt(term, 0, 2))
	}
}

func TestCUP(t *testing.T) {
	term := New(80, 24)
	term.CSI([]int{11, 6}, nil, false, 'H')
	c := term.Cursor()
	if c.Col != 5 || c.Row != 10 {
		t.Errorf("cursor = (%d,%d), want (5,10)", c.Col, c.Row)
	}
}

func TestAltScreenRoundTrip(t *testing.T) {
	term := New(80, 24)
	term.InputChar('A')
	afterA := term.Cursor()

	term.csiPrivate([]int{1049}, 'h')
	term.InputChar('B')
	term.csiPrivate([]int{1049}, 'l')

	if charAt(term, 0, 0) != 'A' {
		t.Fatalf("main grid (0,0) = %q, want 'A'", charAt(term, 0, 0))
	}
	c := term.Cursor()
	if c != afterA {
		t.Errorf("cursor = %+v, want restored %+v", c, afterA)
	}
}

// TestAltScreenSurvivesInterveningSaveRestore documents the Open
// Question resolution in spec.md §9: the alt-screen cursor slot is
// independent of CSI s/u, so an intervening save/restore inside the alt
// screen does not corrupt the restore-on-exit.
func TestAltScreenSurvivesInterveningSaveRestore(t *testing.T) {
	term := New(80, 24)
	term.MoveCursorTo(3, 3)
	preAlt := term.Cursor()

	term.EnterAltScreen()
	term.MoveCursorTo(10, 10)
	term.SaveCursor() // CSI s – must not clobber the alt-screen slot
	term.MoveCursorTo(20, 20)
	term.RestoreCursor() // CSI u – restores to (10,10), not preAlt
	if c := term.Cursor(); c.Col != 10 || c.Row != 10 {
		t.Fatalf("post CSI u cursor = %+v, want (10,10)", c)
	}
	term.ExitAltScreen()

	if c := term.Cursor(); c != preAlt {
		t.Errorf("post exit-alt cursor = %+v, want %+v", c, preAlt)
	}
}

func TestSaveRestoreCursorLaw(t *testing.T) {
	term := New(80, 24)
	term.MoveCursorTo(5, 5)
	term.SaveCursor()
	term.MoveCursorTo(40, 10)
	term.MoveCursor(-3, 2)
	term.RestoreCursor()
	if c := term.Cursor(); c.Col != 5 || c.Row != 5 {
		t.Errorf("cursor = %+v, want (5,5)", c)
	}
}

func TestScrollRegionInvariant(t *testing.T) {
	term := New(80, 24)
	term.CSI([]int{5, 10}, nil, false, 'r')
	top, bottom := term.ScrollRegion()
	if top != 4 || bottom != 9 {
		t.Errorf("scroll region = [%d,%d], want [4,9]", top, bottom)
	}
	if c := term.Cursor(); c.Col != 0 || c.Row != 0 {
		t.Errorf("cursor after DECSTBM = %+v, want (0,0)", c)
	}
}

func TestResizeShrinkTruncatesAndClampsCursor(t *testing.T) {
	term := New(10, 10)
	term.MoveCursorTo(9, 9)
	term.Resize(5, 5)
	c := term.Cursor()
	if c.Col != 4 || c.Row != 4 {
		t.Errorf("cursor after shrink = %+v, want (4,4)", c)
	}
	top, bottom := term.ScrollRegion()
	if top != 0 || bottom != 4 {
		t.Errorf("scroll region after resize = [%d,%d], want [0,4]", top, bottom)
	}
}

func TestAutoWrapOnStartsNewLine(t *testing.T) {
	term := New(3, 2)
	for _, r := range "abcd" {
		term.InputChar(r)
	}
	if charAt(term, 0, 0) != 'a' || charAt(term, 1, 0) != 'b' || charAt(term, 2, 0) != 'c' {
		t.Fatalf("row0 wrong: %q %q %q", charAt(term, 0, 0), charAt(term, 1, 0), charAt(term, 2, 0))
	}
	if charAt(term, 0, 1) != 'd' {
		t.Errorf("row1 col0 = %q, want 'd'", charAt(term, 0, 1))
	}
}

func TestAutoWrapOffOverwritesLastColumn(t *testing.T) {
	term := New(3, 2)
	term.SetMode(AutoWrap, false)
	for _, r := range "abcd" {
		term.InputChar(r)
	}
	if charAt(term, 2, 0) != 'd' {
		t.Errorf("last col = %q, want 'd' (overwritten)", charAt(term, 2, 0))
	}
	if c := term.Cursor(); c.Row != 0 {
		t.Errorf("row = %d, want 0 (no wrap)", c.Row)
	}
}

func TestWideCharacterSpacer(t *testing.T) {
	term := New(10, 3)
	term.InputChar('あ')
	lead := term.Grid().Get(0, 0)
	spacer := term.Grid().Get(1, 0)
	if lead.Width != 2 {
		t.Fatalf("lead width = %d, want 2", lead.Width)
	}
	if !spacer.IsSpacer() {
		t.Errorf("spacer cell not marked as spacer: %+v", spacer)
	}
	if c := term.Cursor(); c.Col != 2 {
		t.Errorf("cursor col = %d, want 2", c.Col)
	}
}

func TestOrphanSpacerClearedOnOverwrite(t *testing.T) {
	term := New(10, 3)
	term.InputChar('あ')
	term.MoveCursorTo(0, 0)
	term.InputChar('x') // width-1 overwrite of the wide lead

	spacer := term.Grid().Get(1, 0)
	if spacer.Width != 1 || spacer.Char != ' ' {
		t.Errorf("orphaned spacer not cleared: %+v", spacer)
	}
}

func TestEraseLineToEndUsesDefaultStyle(t *testing.T) {
	term := New(5, 1)
	term.CSI([]int{41}, nil, false, 'm') // red background
	for _, r := range "abcde" {
		term.InputChar(r)
	}
	term.MoveCursorTo(2, 0)
	term.EraseLineToEnd()

	cell := term.Grid().Get(2, 0)
	if cell.Char != ' ' {
		t.Fatalf("char = %q, want blank", cell.Char)
	}
	if cell.BG.Mode != 0 {
		t.Errorf("erased cell bg = %+v, want default (spec.md default-style blanks)", cell.BG)
	}
}

func TestScrollUpNGreaterEqualRowsClears(t *testing.T) {
	term := New(5, 3)
	term.InputChar('x')
	term.ScrollUp(10)
	for r := 0; r < 3; r++ {
		if charAt(term, 0, r) != ' ' {
			t.Errorf("row %d not cleared by over-scroll", r)
		}
	}
}

func TestDSRCursorPositionReport(t *testing.T) {
	term := New(80, 24)
	term.MoveCursorTo(4, 9)
	term.CSI([]int{6}, nil, false, 'n')
	resp := term.TakeResponse()
	want := "\x1b[10;5R"
	if string(resp) != want {
		t.Errorf("response = %q, want %q", resp, want)
	}
	if term.TakeResponse() != nil {
		t.Error("TakeResponse should drain the queue")
	}
}

func TestUnknownCSILogsAndIgnores(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	term := New(80, 24)
	term.SetLogger(zap.New(core))

	term.CSI(nil, nil, false, '!') // not a final byte this Terminal handles
	if got := logs.FilterMessage("parser: unrecognized sequence").Len(); got != 1 {
		t.Fatalf("got %d unknown-sequence logs, want 1", got)
	}
	if c := term.Cursor(); c.Col != 0 || c.Row != 0 {
		t.Errorf("unknown CSI should be a no-op, cursor moved to (%d,%d)", c.Col, c.Row)
	}
}

func TestUnknownPrivateModeLogsAndIgnores(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	term := New(80, 24)
	term.SetLogger(zap.New(core))

	term.CSI([]int{9999}, nil, true, 'h')
	if got := logs.FilterMessage("parser: unrecognized sequence").Len(); got != 1 {
		t.Fatalf("got %d unknown-sequence logs, want 1", got)
	}
}

func TestNilLoggerDoesNotPanicOnUnknownSequence(t *testing.T) {
	term := New(80, 24)
	term.CSI(nil, nil, false, '!')
}
