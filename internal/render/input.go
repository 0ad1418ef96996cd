package render

import (
	"gioui.org/io/pointer"

	"github.com/umiterm/umiterm/internal/layout"
)

// DragState tracks an in-progress border drag: spec.md §4.5's "begin
// drag / continue drag / end drag" gesture, expressed here rather than
// in internal/layout because it is transient host-loop state (which
// border is currently being dragged, with the pointer's button still
// down), not a property of the pane tree itself. Only UpdateRatio
// touches the tree.
type DragState struct {
	Active      bool
	Path        []Direction
	Orientation layout.Orientation
	Bounds      layout.Rect // the split's rect at drag start, in the handler's pixel space
}

// Direction re-exports layout.Direction so callers that only import
// render for input handling don't also need to import internal/layout.
type Direction = layout.Direction

// InputHandler turns Gio pointer events over a pane-tree viewport into
// BorderAt hit-tests and UpdateRatio calls, per spec.md §4.5/§4.7's
// "host-level gesture over UpdateRatio" split of responsibility.
type InputHandler struct {
	Root      *layout.Node
	Bounds    layout.Rect // viewport in pixel space
	Threshold float64     // hit-test tolerance, in pixels

	drag DragState
}

// NewInputHandler builds a handler over the given pane tree and pixel
// viewport.
func NewInputHandler(root *layout.Node, bounds layout.Rect, thresholdPx float64) *InputHandler {
	return &InputHandler{Root: root, Bounds: bounds, Threshold: thresholdPx}
}

// Dragging reports whether a border drag is currently in progress.
func (h *InputHandler) Dragging() bool { return h.drag.Active }

// HandlePointerEvent feeds one Gio pointer event through the drag state
// machine: Press hit-tests for a border and begins a drag; Drag
// continues an active drag by recomputing and applying the split's
// ratio; Release or Cancel ends the drag. It reports whether the event
// was consumed by a border drag (so the caller can skip PaneAt
// hit-testing/focus changes for the same event).
func (h *InputHandler) HandlePointerEvent(ev pointer.Event) bool {
	x, y := float64(ev.Position.X), float64(ev.Position.Y)
	switch ev.Kind {
	case pointer.Press:
		return h.beginDrag(x, y)
	case pointer.Drag:
		return h.continueDrag(x, y)
	case pointer.Release, pointer.Cancel:
		return h.endDrag()
	default:
		return false
	}
}

func (h *InputHandler) beginDrag(x, y float64) bool {
	hit, ok := layout.BorderAt(h.Root, h.Bounds, x, y, h.Threshold)
	if !ok {
		return false
	}
	h.drag = DragState{
		Active:      true,
		Path:        append([]Direction(nil), hit.Path...),
		Orientation: hit.Split.Orientation,
		Bounds:      hit.Rect,
	}
	return true
}

func (h *InputHandler) continueDrag(x, y float64) bool {
	if !h.drag.Active {
		return false
	}
	ratio := h.ratioFromPointer(x, y)
	layout.UpdateRatio(h.Root, h.drag.Path, ratio)
	return true
}

func (h *InputHandler) endDrag() bool {
	if !h.drag.Active {
		return false
	}
	h.drag = DragState{}
	return true
}

// ratioFromPointer projects (x,y) onto the dragged split's axis,
// returning the fraction of the split's rect that falls before the
// pointer. UpdateRatio clamps the result to [0.1, 0.9].
func (h *InputHandler) ratioFromPointer(x, y float64) float64 {
	b := h.drag.Bounds
	if h.drag.Orientation == layout.Horizontal {
		if b.W == 0 {
			return 0.5
		}
		return (x - b.X) / b.W
	}
	if b.H == 0 {
		return 0.5
	}
	return (y - b.Y) / b.H
}
