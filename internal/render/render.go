// Package render draws one or more panes' terminal grids to a GPU
// surface. It is built on gioui.org — the pack's only pure-Go,
// GPU-accelerated UI toolkit — whose immediate-mode op.Ops list stands
// in for spec.md §4.7's explicit shader/instance-buffer API: recording
// a clip.Op + paint.PaintOp per cell is the idiomatic-Gio expression of
// "push one instance", and Gio's compiler turns the recorded ops into
// actual batched GPU draws. Nothing here is grounded on the teacher,
// which renders ANSI strings through lipgloss to an actual terminal,
// not a GPU surface; the per-frame sequence instead follows spec.md
// §4.7's eight steps directly, and the op-list technique follows Gio's
// own rendering model.
package render

import (
	"errors"
	"image"
	"image/color"

	"gioui.org/f32"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"

	"github.com/umiterm/umiterm/internal/atlas"
	"github.com/umiterm/umiterm/internal/grid"
	"github.com/umiterm/umiterm/internal/vt"
)

// ErrSurfaceLost signals the GPU surface was lost and must be
// reconfigured at the last known size before the next frame.
var ErrSurfaceLost = errors.New("render: surface lost")

// ErrOutOfMemory signals the one GPU error spec.md §7 treats as fatal.
var ErrOutOfMemory = errors.New("render: out of memory")

// Severity classifies a GPU error per spec.md §7's error table.
type Severity int

const (
	SeverityFatal Severity = iota
	SeveritySurfaceLost
	SeveritySoft
)

// Classify maps a raw GPU error to the handling spec.md §7 prescribes:
// surface-lost retries next frame at the last known size, out-of-memory
// is fatal to the host, anything else is logged and the frame is
// skipped.
func Classify(err error) Severity {
	switch {
	case errors.Is(err, ErrOutOfMemory):
		return SeverityFatal
	case errors.Is(err, ErrSurfaceLost):
		return SeveritySurfaceLost
	default:
		return SeveritySoft
	}
}

// PaneView is everything the renderer needs to draw one pane for a
// single frame.
type PaneView struct {
	Rect      image.Rectangle // viewport in screen pixels
	Grid      *grid.Grid
	Cursor    vt.Cursor
	Focused   bool
	Selection Selection
	Border    bool // draw a 1-cell border along the right/bottom edge
}

// Selection marks a rectangular cell range whose fg/bg are substituted
// with the selection palette (spec.md §4.7 step 4). A zero-value
// Selection (Active false) selects nothing.
type Selection struct {
	Active           bool
	StartCol, EndCol int
	StartRow, EndRow int
	FG, BG           color.NRGBA
}

func (s Selection) contains(col, row int) bool {
	if !s.Active {
		return false
	}
	startRow, endRow := s.StartRow, s.EndRow
	if endRow < startRow {
		startRow, endRow = endRow, startRow
	}
	if row < startRow || row > endRow {
		return false
	}
	startCol, endCol := s.StartCol, s.EndCol
	if endCol < startCol {
		startCol, endCol = endCol, startCol
	}
	return col >= startCol && col <= endCol
}

// Renderer owns the glyph atlas and the per-pane-size uniforms
// (screen size, cell size) that the per-cell quad math is derived
// from.
type Renderer struct {
	Atlas           *atlas.Atlas
	Primary         Face
	Fallback        Face
	FontSize        float64
	CellW, CellH    int
	width, height   int // last known surface size, for surface-lost reconfiguration
	atlasImage      paint.ImageOp
	atlasImageValid bool
	glyphMiss       bool // set when a glyph did not fit the atlas during the current Frame
}

// Face is the subset of golang.org/x/image/font.Face the atlas needs;
// declared here so render does not import x/image/font directly.
type Face = atlas.FontFace

// New constructs a Renderer around an already-built glyph atlas.
func New(a *atlas.Atlas, primary, fallback Face, fontSize float64, cellW, cellH int) *Renderer {
	return &Renderer{
		Atlas:    a,
		Primary:  primary,
		Fallback: fallback,
		FontSize: fontSize,
		CellW:    cellW,
		CellH:    cellH,
	}
}

// CellSize returns the pixel size of one grid cell.
func (r *Renderer) CellSize() (w, h int) { return r.CellW, r.CellH }

// Resize records the surface's new pixel size — spec.md §4.7's
// "reconfigures the surface, updates uniforms".
func (r *Renderer) Resize(width, height int) {
	r.width, r.height = width, height
}

// LastSize returns the last size Resize recorded, for surface-lost
// reconfiguration.
func (r *Renderer) LastSize() (width, height int) { return r.width, r.height }

// CalculateTerminalSize converts a pixel viewport into a (cols, rows)
// grid size, per spec.md §4.7: floor(vp_width/cell_width), floor(vp_height/cell_height),
// each clamped to a minimum of 1.
func (r *Renderer) CalculateTerminalSize(viewport image.Point) (cols, rows int) {
	cols = viewport.X / r.CellW
	if cols < 1 {
		cols = 1
	}
	rows = viewport.Y / r.CellH
	if rows < 1 {
		rows = 1
	}
	return cols, rows
}

// Frame records one frame's worth of draw operations into ops,
// following spec.md §4.7 steps 1-6: per pane, walk the grid emitting a
// background fill and (for non-blank cells) a glyph sample per cell,
// the cursor glyph when focused, selection color substitution, and a
// border strip for non-terminal panes; then upload the atlas texture
// if it is dirty.
//
// It returns a non-nil error, classifiable via Classify, when the frame
// should not be presented as recorded: a zero-sized surface (the
// surface was lost and needs reconfiguring at LastSize before retrying)
// or an atlas that ran out of room for a new glyph (the fixed-size GPU
// texture budget is exhausted — spec.md §7 treats this as fatal).
func (r *Renderer) Frame(ops *op.Ops, panes []PaneView) error {
	if r.width == 0 || r.height == 0 {
		return ErrSurfaceLost
	}

	// Insert this frame's glyphs first so the upload below includes them.
	for _, pv := range panes {
		for row := 0; row < pv.Grid.Rows(); row++ {
			for col := 0; col < pv.Grid.Cols(); col++ {
				if cell := pv.Grid.Get(col, row); !cell.Blank() && !cell.IsSpacer() {
					r.Atlas.GetOrInsert(cell.Char, r.Primary, r.Fallback, r.FontSize)
				}
			}
		}
		if pv.Focused && pv.Cursor.Visible {
			r.Atlas.GetOrInsert(cursorGlyph(pv.Cursor.Shape), r.Primary, r.Fallback, r.FontSize)
		}
	}
	if r.Atlas.Dirty() || !r.atlasImageValid {
		r.uploadAtlas()
	}

	r.glyphMiss = false

	// Two passes, background then text, matching spec.md §4.7 step 7's
	// "bind pipeline-bg ... bind pipeline-text" ordering — Gio compiles
	// each clip+paint pair into its own batched draw, so recording all
	// background ops before all text ops keeps the same two-pass shape.
	for _, pv := range panes {
		r.drawBackgrounds(ops, pv)
	}
	for _, pv := range panes {
		r.drawText(ops, pv)
		if pv.Focused && pv.Cursor.Visible {
			r.drawCursor(ops, pv)
		}
		if pv.Border {
			r.drawBorder(ops, pv)
		}
	}

	if r.glyphMiss {
		return ErrOutOfMemory
	}
	return nil
}

func (r *Renderer) uploadAtlas() {
	tex := r.Atlas.Texture()
	img := image.NewAlpha(image.Rect(0, 0, r.Atlas.W, r.Atlas.H))
	copy(img.Pix, tex)
	r.atlasImage = paint.NewImageOp(img)
	r.atlasImageValid = true
}

func (r *Renderer) cellOrigin(pv PaneView, col, row int) image.Point {
	return image.Pt(pv.Rect.Min.X+col*r.CellW, pv.Rect.Min.Y+row*r.CellH)
}

func (r *Renderer) drawBackgrounds(ops *op.Ops, pv PaneView) {
	g := pv.Grid
	for row := 0; row < g.Rows(); row++ {
		for col := 0; col < g.Cols(); col++ {
			cell := g.Get(col, row)
			bg := resolveColor(cell.BG, false)
			if pv.Selection.contains(col, row) {
				bg = pv.Selection.BG
			}
			origin := r.cellOrigin(pv, col, row)
			fillRect(ops, image.Rectangle{Min: origin, Max: origin.Add(image.Pt(r.CellW, r.CellH))}, bg)
		}
	}
}

func (r *Renderer) drawText(ops *op.Ops, pv PaneView) {
	g := pv.Grid
	for row := 0; row < g.Rows(); row++ {
		for col := 0; col < g.Cols(); col++ {
			cell := g.Get(col, row)
			if cell.Blank() || cell.IsSpacer() {
				continue
			}
			fg := resolveColor(cell.FG, true)
			if pv.Selection.contains(col, row) {
				fg = pv.Selection.FG
			}
			r.drawGlyph(ops, cell.Char, r.cellOrigin(pv, col, row), fg)
		}
	}
}

func (r *Renderer) drawCursor(ops *op.Ops, pv PaneView) {
	glyph := cursorGlyph(pv.Cursor.Shape)
	origin := r.cellOrigin(pv, pv.Cursor.Col, pv.Cursor.Row)
	r.drawGlyph(ops, glyph, origin, color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff})
}

func cursorGlyph(shape vt.CursorShape) rune {
	switch shape {
	case vt.CursorUnderline:
		return '_'
	case vt.CursorBeam:
		return '│'
	default:
		return '█'
	}
}

func (r *Renderer) drawBorder(ops *op.Ops, pv PaneView) {
	borderColor := color.NRGBA{R: 0x40, G: 0x40, B: 0x40, A: 0xff}
	right := image.Rect(pv.Rect.Max.X-1, pv.Rect.Min.Y, pv.Rect.Max.X, pv.Rect.Max.Y)
	bottom := image.Rect(pv.Rect.Min.X, pv.Rect.Max.Y-1, pv.Rect.Max.X, pv.Rect.Max.Y)
	fillRect(ops, right, borderColor)
	fillRect(ops, bottom, borderColor)
}

func (r *Renderer) drawGlyph(ops *op.Ops, c rune, origin image.Point, fg color.NRGBA) {
	g, ok := r.Atlas.GetOrInsert(c, r.Primary, r.Fallback, r.FontSize)
	if !ok {
		r.glyphMiss = true
		return
	}
	if g.UW == 0 || g.UH == 0 {
		return
	}
	dst := image.Rectangle{
		Min: origin.Add(image.Pt(g.OffX, g.OffY)),
		Max: origin.Add(image.Pt(g.OffX+g.W, g.OffY+g.H)),
	}
	srcX, srcY := float32(r.Atlas.W)*g.U, float32(r.Atlas.H)*g.V
	offset := f32.Pt(float32(dst.Min.X), float32(dst.Min.Y)).Sub(f32.Pt(srcX, srcY))

	clipStack := clip.Rect(dst).Push(ops)
	transStack := op.Affine(f32.Affine2D{}.Offset(offset)).Push(ops)
	paint.ColorOp{Color: fg}.Add(ops)
	r.atlasImage.Add(ops)
	paint.PaintOp{}.Add(ops)
	transStack.Pop()
	clipStack.Pop()
}

func fillRect(ops *op.Ops, r image.Rectangle, c color.NRGBA) {
	stack := clip.Rect(r).Push(ops)
	paint.ColorOp{Color: c}.Add(ops)
	paint.PaintOp{}.Add(ops)
	stack.Pop()
}

func resolveColor(c grid.Color, fg bool) color.NRGBA {
	switch c.Mode {
	case grid.ColorDefault:
		if fg {
			return color.NRGBA{R: 0xe0, G: 0xe0, B: 0xe0, A: 0xff}
		}
		return color.NRGBA{R: 0x10, G: 0x10, B: 0x10, A: 0xff}
	case grid.ColorANSI, grid.ColorPalette:
		r, g, b := vt.Palette256ToRGB(c.Palette)
		return color.NRGBA{R: r, G: g, B: b, A: 0xff}
	case grid.ColorTrueColor:
		return color.NRGBA{R: c.R, G: c.G, B: c.B, A: 0xff}
	default:
		return color.NRGBA{A: 0xff}
	}
}
