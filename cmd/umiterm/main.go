// Command umiterm is the entrypoint for the GPU-accelerated terminal
// multiplexer: it loads configuration, opens a Gio window, and wires
// panes, the pane-tree layout, and the renderer together into one
// event loop.
package main

import (
	"fmt"
	"image"
	"os"
	"strings"
	"time"

	"gioui.org/app"
	"gioui.org/io/event"
	"gioui.org/io/key"
	"gioui.org/io/pointer"
	"gioui.org/op"
	"gioui.org/unit"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/umiterm/umiterm/internal/applog"
	"github.com/umiterm/umiterm/internal/atlas"
	"github.com/umiterm/umiterm/internal/config"
	"github.com/umiterm/umiterm/internal/layout"
	"github.com/umiterm/umiterm/internal/pane"
	"github.com/umiterm/umiterm/internal/render"
)

// version is stamped at release time; a dev build reports "dev".
var version = "dev"

var (
	flagShell       string
	flagDir         string
	flagCols        int
	flagRows        int
	flagFont        string
	flagFallback    string
	flagAtlasSize   int
	flagConfigPath  string
)

var rootCmd = &cobra.Command{
	Use:   "umiterm",
	Short: "A GPU-accelerated, tiling terminal multiplexer",
	Long: bannerStyle.Render("umiterm") + "\n\n" +
		"A GPU-accelerated terminal multiplexer with a binary-space-partition\n" +
		"pane layout, rendered through gioui.org instead of an ANSI escape\n" +
		"stream to a host terminal.",
	RunE: runMain,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the umiterm version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(bannerStyle.Render("umiterm") + " " + version)
	},
}

var bannerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))

func init() {
	rootCmd.PersistentFlags().StringVar(&flagShell, "shell", "", "shell to spawn for new panes (default: login shell)")
	rootCmd.PersistentFlags().StringVar(&flagDir, "dir", "", "working directory for new panes (default: cwd)")
	rootCmd.PersistentFlags().IntVar(&flagCols, "cols", 0, "initial column count (default: derived from window size)")
	rootCmd.PersistentFlags().IntVar(&flagRows, "rows", 0, "initial row count (default: derived from window size)")
	rootCmd.PersistentFlags().StringVar(&flagFont, "font", "", "primary font file (TrueType/OpenType)")
	rootCmd.PersistentFlags().StringVar(&flagFallback, "fallback-font", "", "fallback font file, consulted when the primary lacks a glyph")
	rootCmd.PersistentFlags().IntVar(&flagAtlasSize, "atlas-size", 0, "glyph atlas size in pixels, square (default: from config)")
	rootCmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "config file path (default: ~/.umitermrc.yaml)")
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runMain(cmd *cobra.Command, args []string) error {
	cfgPath := flagConfigPath
	if cfgPath == "" {
		cfgPath = config.Path()
	}
	cfg := config.LoadFrom(cfgPath)
	applyFlagOverrides(&cfg)

	log, err := applog.New(os.Getenv("UMITERM_DEBUG") != "")
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer log.Sync()

	watcher, err := config.WatchFile(cfgPath)
	if err != nil {
		log.Warn("config: hot reload disabled", zap.Error(err))
	} else {
		defer watcher.Stop()
	}

	host, err := newHost(cfg, log)
	if err != nil {
		return err
	}
	defer host.closeAll()

	if watcher != nil {
		go func() {
			for c := range watcher.Changes {
				host.applyConfig(c)
			}
		}()
	}

	go func() {
		w := new(app.Window)
		w.Option(app.Title("umiterm"), app.Size(unit.Dp(1000), unit.Dp(650)))
		if err := host.run(w); err != nil {
			fmt.Fprintln(os.Stderr, "umiterm:", err)
		}
		os.Exit(0)
	}()
	app.Main()
	return nil
}

func applyFlagOverrides(cfg *config.Config) {
	if flagShell != "" {
		cfg.DefaultShell = flagShell
	}
	if flagDir != "" {
		cfg.DefaultDir = flagDir
	}
	if flagFont != "" {
		cfg.FontPath = flagFont
	}
	if flagFallback != "" {
		cfg.FallbackFontPath = flagFallback
	}
	if flagAtlasSize > 0 {
		cfg.AtlasSize = flagAtlasSize
	}
}

// host owns the live state the window's event loop drives: the pane
// tree, the renderer, and the keyboard/mouse routing between them.
type host struct {
	cfg      config.Config
	log      *zap.Logger
	atlas    *atlas.Atlas
	primary  atlas.FontFace
	fallback atlas.FontFace
	renderer *render.Renderer
	input    *render.InputHandler

	root    *layout.Node
	panes   map[pane.ID]*pane.Pane
	focused pane.ID

	cols, rows int
}

func newHost(cfg config.Config, log *zap.Logger) (*host, error) {
	cellW, cellH := cellSizeFor(cfg.FontSize)

	a := atlas.New(cfg.AtlasSize, cfg.AtlasSize)
	primary, err := loadFace(cfg.FontPath, cfg.FontSize)
	if err != nil {
		return nil, fmt.Errorf("loading primary font: %w", err)
	}
	var fallback atlas.FontFace
	if cfg.FallbackFontPath != "" {
		fallback, err = loadFace(cfg.FallbackFontPath, cfg.FontSize)
		if err != nil {
			log.Warn("config: fallback font failed to load", zap.Error(err))
		}
	}

	cols, rows := flagCols, flagRows
	if cols <= 0 {
		cols = 80
	}
	if rows <= 0 {
		rows = 24
	}

	h := &host{
		cfg:      cfg,
		log:      log,
		atlas:    a,
		primary:  primary,
		fallback: fallback,
		renderer: render.New(a, primary, fallback, cfg.FontSize, cellW, cellH),
		panes:    make(map[pane.ID]*pane.Pane),
		cols:     cols,
		rows:     rows,
	}

	p, err := h.spawnPane(cols, rows)
	if err != nil {
		return nil, err
	}
	h.root = layout.NewLeaf(p.ID)
	h.focused = p.ID
	return h, nil
}

func cellSizeFor(fontSize float64) (w, h int) {
	h = int(fontSize*1.3 + 0.5)
	w = int(fontSize*0.6 + 0.5)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}

func (h *host) spawnPane(cols, rows int) (*pane.Pane, error) {
	shellArgv := shellArgvFor(h.cfg.DefaultShell)
	p, err := pane.Spawn(shellArgv, h.cfg.DefaultDir, os.Environ(), cols, rows, h.log)
	if err != nil {
		return nil, fmt.Errorf("spawning pane: %w", err)
	}
	h.panes[p.ID] = p
	return p, nil
}

func shellArgvFor(shell string) []string {
	if shell == "" {
		return nil
	}
	return strings.Fields(shell)
}

func (h *host) closeAll() {
	for _, p := range h.panes {
		p.Close()
	}
}

func (h *host) applyConfig(cfg config.Config) {
	h.cfg = cfg
}

// run drives the Gio event loop: a ticker goroutine polls all panes for
// new output every 16 ms and invalidates the window when any produced
// some; each frame routes keyboard input to the focused pane, routes
// pointer events to border-drag handling, and hands the pane-tree's
// computed rects to the renderer.
func (h *host) run(w *app.Window) error {
	var ops op.Ops
	inputTag := new(int)
	ticker := time.NewTicker(16 * time.Millisecond)
	defer ticker.Stop()

	go func() {
		for range ticker.C {
			if h.pollPanes() {
				w.Invalidate()
			}
		}
	}()

	for {
		switch e := w.Event().(type) {
		case app.DestroyEvent:
			return e.Err
		case app.FrameEvent:
			gtx := app.NewContext(&ops, e)
			viewport := image.Pt(gtx.Constraints.Max.X, gtx.Constraints.Max.Y)
			cols, rows := h.renderer.CalculateTerminalSize(viewport)
			if cols != h.cols || rows != h.rows {
				h.resizeAll(cols, rows)
			}
			h.renderer.Resize(viewport.X, viewport.Y)

			bounds := layout.Rect{X: 0, Y: 0, W: float64(viewport.X), H: float64(viewport.Y)}
			if h.input == nil {
				h.input = render.NewInputHandler(h.root, bounds, h.cfg.BorderThresholdCells*float64(h.renderer.CellW))
			} else {
				h.input.Root, h.input.Bounds = h.root, bounds
			}

			// Register inputTag as an input area; gioui.org/io/event
			// replaced the old key.InputOp/pointer.InputOp pair.
			event.Op(gtx.Ops, inputTag)
			// Gio's event-filter model (gtx.Source.Event with a pointer/key
			// filter pair), not gtx.Events(tag) from older Gio releases.
			for {
				ev, ok := gtx.Source.Event(
					pointer.Filter{Target: inputTag, Kinds: pointer.Press | pointer.Drag | pointer.Release | pointer.Cancel},
					key.Filter{Focus: inputTag},
				)
				if !ok {
					break
				}
				h.handleEvent(ev)
			}

			if err := h.renderer.Frame(gtx.Ops, h.paneViews(bounds)); err != nil {
				switch render.Classify(err) {
				case render.SeverityFatal:
					applog.GPUOutOfMemory(h.log, err)
					h.closeAll()
					os.Exit(1)
				case render.SeveritySurfaceLost:
					sw, sh := h.renderer.LastSize()
					h.renderer.Resize(sw, sh)
					applog.GPUFrameSkipped(h.log, err)
					w.Invalidate()
				default:
					applog.GPUFrameSkipped(h.log, err)
				}
			} else {
				e.Frame(gtx.Ops)
			}
		}
	}
}

func (h *host) handleEvent(ev interface{}) {
	switch e := ev.(type) {
	case pointer.Event:
		if h.input.HandlePointerEvent(e) {
			return
		}
		if e.Kind == pointer.Press {
			if id, ok := layout.PaneAt(h.root, h.input.Bounds, float64(e.Position.X), float64(e.Position.Y)); ok {
				h.focused = id
			}
		}
	case key.Event:
		h.handleKey(e)
	case key.EditEvent:
		if p := h.panes[h.focused]; p != nil {
			p.Write([]byte(e.Text))
		}
	}
}

func (h *host) handleKey(e key.Event) {
	if e.State != key.Press {
		return
	}
	p := h.panes[h.focused]
	switch {
	case e.Modifiers.Contain(key.ModShortcut) && e.Name == "H":
		h.split(layout.Horizontal)
	case e.Modifiers.Contain(key.ModShortcut) && e.Name == "V":
		h.split(layout.Vertical)
	case e.Modifiers.Contain(key.ModShortcut) && e.Name == "W":
		h.closeFocused()
	case e.Modifiers.Contain(key.ModShortcut) && e.Name == key.NameTab:
		if next, ok := layout.NextPane(h.root, h.focused); ok {
			h.focused = next
		}
	case p != nil:
		p.Write(encodeKey(e))
	}
}

func (h *host) split(o layout.Orientation) {
	p, err := h.spawnPane(h.cols, h.rows)
	if err != nil {
		h.log.Warn("host: split failed to spawn pane", zap.Error(err))
		return
	}
	var ok bool
	if o == layout.Horizontal {
		ok = layout.SplitHorizontal(h.root, h.focused, p.ID)
	} else {
		ok = layout.SplitVertical(h.root, h.focused, p.ID)
	}
	if !ok {
		p.Close()
		delete(h.panes, p.ID)
		return
	}
	h.focused = p.ID
}

func (h *host) closeFocused() {
	if len(h.panes) <= 1 {
		return
	}
	closed := h.focused
	newRoot, ok := layout.RemovePane(h.root, closed)
	if !ok {
		return
	}
	h.root = newRoot
	if p := h.panes[closed]; p != nil {
		p.Close()
	}
	delete(h.panes, closed)
	if leaves := layout.Leaves(h.root); len(leaves) > 0 {
		h.focused = leaves[0]
	}
}

func (h *host) resizeAll(cols, rows int) {
	h.cols, h.rows = cols, rows
	for _, p := range h.panes {
		p.Resize(cols, rows)
	}
}

func (h *host) pollPanes() bool {
	dirty := false
	for _, p := range h.panes {
		if p.Poll() {
			dirty = true
		}
		p.FlushResponses()
	}
	return dirty
}

func (h *host) paneViews(bounds layout.Rect) []render.PaneView {
	rects := layout.CalculateRects(h.root, bounds)
	views := make([]render.PaneView, 0, len(rects))
	for _, pr := range rects {
		p := h.panes[pr.ID]
		if p == nil {
			continue
		}
		views = append(views, render.PaneView{
			Rect: image.Rect(
				int(pr.Rect.X), int(pr.Rect.Y),
				int(pr.Rect.X+pr.Rect.W), int(pr.Rect.Y+pr.Rect.H),
			),
			Grid:    p.Term.Grid(),
			Cursor:  p.Term.Cursor(),
			Focused: pr.ID == h.focused,
			Border:  len(rects) > 1,
		})
		p.ClearDirty()
	}
	return views
}

// encodeKey translates a named, non-text key into the byte sequence a
// shell expects on its stdin. Printable characters arrive separately
// as key.EditEvent, so this only needs the keys a terminal treats
// specially.
func encodeKey(e key.Event) []byte {
	switch e.Name {
	case key.NameReturn:
		return []byte("\r")
	case key.NameDeleteBackward:
		return []byte{0x7f}
	case key.NameEscape:
		return []byte{0x1b}
	case key.NameTab:
		return []byte("\t")
	case key.NameUpArrow:
		return []byte("\x1b[A")
	case key.NameDownArrow:
		return []byte("\x1b[B")
	case key.NameRightArrow:
		return []byte("\x1b[C")
	case key.NameLeftArrow:
		return []byte("\x1b[D")
	default:
		return nil
	}
}

func loadFace(path string, size float64) (atlas.FontFace, error) {
	if path == "" {
		return nil, fmt.Errorf("no font path configured")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return atlas.LoadFace(data, size)
}
