// Package atlas implements the glyph atlas of spec.md §4.6: a single
// shelf-packed, single-channel texture shared by every pane's text
// pass, plus the get_or_insert algorithm that keeps it populated on
// demand. Rasterization is grounded on the domain stack's font path —
// golang.org/x/image/font + golang.org/x/image/font/opentype, the same
// pairing the pack's danielgatis/go-headless-term uses to turn font
// bytes into a font.Face and draw glyphs with a font.Drawer — generalized
// from drawing directly onto an RGBA screenshot into caching each
// glyph's coverage mask in a packed texture instead.
package atlas

import (
	"image"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/mattn/go-runewidth"
)

// FontFace is golang.org/x/image/font.Face, re-exported so callers in
// other packages (e.g. internal/render) don't need to import
// golang.org/x/image/font directly just to hold a face reference.
type FontFace = font.Face

// Glyph is the cached record spec.md §4.6 step 6 describes: a
// normalized UV rectangle into the atlas texture, the baseline offset
// to apply when positioning the quad, and the glyph's pixel size.
type Glyph struct {
	U, V   float32 // top-left UV, normalized [0,1]
	UW, UH float32 // UV size, normalized [0,1]; zero for whitespace
	OffX   int     // baseline offset X, pixels
	OffY   int     // baseline offset Y, pixels
	W, H   int     // glyph pixel size (for whitespace: advance width, font size)
}

// Atlas is a single W x H single-channel coverage texture plus the
// shelf-pack cursor state and the rune-to-Glyph cache.
type Atlas struct {
	W, H int

	texture []uint8 // row-major, one byte of coverage per pixel
	dirty   bool

	cursorX, cursorY, rowHeight int

	cache map[rune]Glyph
}

// New allocates a blank W x H atlas. spec.md §4.6 notes 512x512 or
// 1024x1024 is sufficient for steady-state Latin-script usage.
func New(w, h int) *Atlas {
	return &Atlas{
		W:       w,
		H:       h,
		texture: make([]uint8, w*h),
		cache:   make(map[rune]Glyph),
		dirty:   true,
	}
}

// Texture returns the current coverage buffer and clears the dirty
// flag; the renderer calls this once per frame, only re-uploading to
// the GPU when Dirty() was true.
func (a *Atlas) Texture() []uint8 {
	a.dirty = false
	return a.texture
}

// Dirty reports whether the texture has changed since the last Texture call.
func (a *Atlas) Dirty() bool { return a.dirty }

// GetOrInsert implements spec.md §4.6's five-step algorithm: return a
// cached glyph; otherwise rasterize c from primary (falling back to
// fallback when primary lacks the glyph and a fallback is given),
// cache zero-UV whitespace records directly, shelf-pack non-whitespace
// rasters into the texture, and report (Glyph{}, false) when the atlas
// is full.
func (a *Atlas) GetOrInsert(c rune, primary, fallback font.Face, size float64) (Glyph, bool) {
	if g, ok := a.cache[c]; ok {
		return g, true
	}

	face := primary
	dr, mask, maskp, advance, ok := primary.Glyph(fixed.P(0, 0), c)
	if !ok && fallback != nil {
		if fdr, fmask, fmaskp, fadvance, fok := fallback.Glyph(fixed.P(0, 0), c); fok {
			face, dr, mask, maskp, advance = fallback, fdr, fmask, fmaskp, fadvance
		}
	}
	_ = face

	if dr.Dx() <= 0 || dr.Dy() <= 0 {
		g := Glyph{W: advanceWidth(primary, c, advance), H: int(size + 0.5)}
		a.cache[c] = g
		return g, true
	}

	w, h := dr.Dx(), dr.Dy()
	if a.cursorX+w > a.W {
		a.cursorX = 0
		a.cursorY += a.rowHeight
		a.rowHeight = 0
	}
	if a.cursorY+h > a.H {
		return Glyph{}, false
	}

	a.blit(mask, maskp, dr, a.cursorX, a.cursorY)

	g := Glyph{
		U:    float32(a.cursorX) / float32(a.W),
		V:    float32(a.cursorY) / float32(a.H),
		UW:   float32(w) / float32(a.W),
		UH:   float32(h) / float32(a.H),
		OffX: dr.Min.X,
		OffY: dr.Min.Y,
		W:    w,
		H:    h,
	}
	a.cache[c] = g

	a.cursorX += w + 1
	if h > a.rowHeight {
		a.rowHeight = h
	}
	a.dirty = true
	return g, true
}

// blit copies mask's alpha coverage, starting at maskp, into the
// texture buffer at (x,y), sized by dr.
func (a *Atlas) blit(mask image.Image, maskp image.Point, dr image.Rectangle, x, y int) {
	dst := &image.Alpha{
		Pix:    a.texture,
		Stride: a.W,
		Rect:   image.Rect(0, 0, a.W, a.H),
	}
	srcRect := image.Rectangle{Min: maskp, Max: maskp.Add(dr.Size())}
	draw.Draw(dst, image.Rect(x, y, x+dr.Dx(), y+dr.Dy()), mask, srcRect.Min, draw.Src)
}

// advanceWidth returns the glyph's advance width in pixels, falling
// back to go-runewidth's cell-count heuristic (promoted from the
// teacher's indirect dependency tree) when the font reports no usable
// advance — e.g. a font lacking an hmtx table for this glyph.
func advanceWidth(face font.Face, c rune, fallback fixed.Int26_6) int {
	if adv, ok := face.GlyphAdvance(c); ok && adv > 0 {
		return adv.Ceil()
	}
	if fallback > 0 {
		return fallback.Ceil()
	}
	return runewidth.RuneWidth(c)
}

// LoadFace parses TrueType/OpenType font bytes into a font.Face at the
// given pixel size, the same opentype.Parse/opentype.NewFace path the
// pack's go-headless-term uses for font loading.
func LoadFace(data []byte, size float64) (font.Face, error) {
	ft, err := opentype.Parse(data)
	if err != nil {
		return nil, err
	}
	return opentype.NewFace(ft, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}
