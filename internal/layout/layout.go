// Package layout implements the pane tree of spec.md §4.5: a binary
// space partition whose leaves are pane identifiers and whose internal
// nodes carry an orientation and a split ratio. It replaces the
// teacher's ComputeGrid, a fixed auto-grid with no tree, no ratios, and
// no hit-testing, with the recursive structure the spec requires.
package layout

import "github.com/umiterm/umiterm/internal/pane"

// Orientation names which axis a Split divides along.
type Orientation int

const (
	Horizontal Orientation = iota // left/right children, side by side
	Vertical                      // top/bottom children, stacked
)

// Direction names a step along a border-hit path from the tree root.
type Direction int

const (
	Left Direction = iota
	Right
	Top
	Bottom
)

// Node is the tagged union of the pane tree: either a Leaf holding a
// pane ID, or a Split with two children. Ratio divides the node's
// rectangle along Orientation: Horizontal gives Left a fraction Ratio
// of the width and Right the remainder; Vertical gives Top a fraction
// Ratio of the height and Bottom the remainder.
type Node struct {
	Leaf bool
	ID   pane.ID

	Orientation Orientation
	Ratio       float64
	Left        *Node
	Right       *Node
}

const (
	minRatio = 0.1
	maxRatio = 0.9
)

// NewLeaf returns a single-leaf tree holding id.
func NewLeaf(id pane.ID) *Node {
	return &Node{Leaf: true, ID: id}
}

func clampRatio(r float64) float64 {
	if r < minRatio {
		return minRatio
	}
	if r > maxRatio {
		return maxRatio
	}
	return r
}

// Rect is an axis-aligned rectangle in layout space: the unit square
// [0,1]² or a pixel viewport, whichever bounds the caller passes in.
type Rect struct {
	X, Y, W, H float64
}

// split replaces the leaf holding target in-place with a new split
// node whose children are the original leaf then the new one, ratio
// 0.5 — spec.md §4.5's split_horizontal/split_vertical.
func split(root *Node, target pane.ID, newID pane.ID, o Orientation) bool {
	if root == nil {
		return false
	}
	if root.Leaf {
		if root.ID != target {
			return false
		}
		original := *root
		*root = Node{
			Orientation: o,
			Ratio:       0.5,
			Left:        &original,
			Right:       NewLeaf(newID),
		}
		return true
	}
	return split(root.Left, target, newID, o) || split(root.Right, target, newID, o)
}

// SplitHorizontal locates the leaf holding target and replaces it with
// a left/right split, the original pane on the left.
func SplitHorizontal(root *Node, target, newID pane.ID) bool {
	return split(root, target, newID, Horizontal)
}

// SplitVertical locates the leaf holding target and replaces it with a
// top/bottom split, the original pane on top.
func SplitVertical(root *Node, target, newID pane.ID) bool {
	return split(root, target, newID, Vertical)
}

// RemovePane locates the leaf holding id and replaces the enclosing
// split with its sibling subtree. If root itself is the single leaf
// holding id, RemovePane reports that the whole layout is consumed by
// returning (nil, true).
func RemovePane(root *Node, id pane.ID) (newRoot *Node, ok bool) {
	if root == nil {
		return root, false
	}
	if root.Leaf {
		if root.ID == id {
			return nil, true
		}
		return root, false
	}
	if root.Left.Leaf && root.Left.ID == id {
		return root.Right, true
	}
	if root.Right.Leaf && root.Right.ID == id {
		return root.Left, true
	}
	if newLeft, removed := RemovePane(root.Left, id); removed {
		root.Left = newLeft
		return root, true
	}
	if newRight, removed := RemovePane(root.Right, id); removed {
		root.Right = newRight
		return root, true
	}
	return root, false
}

// PaneRect pairs a pane identifier with its calculated rectangle.
type PaneRect struct {
	ID   pane.ID
	Rect Rect
}

// CalculateRects recursively partitions bounds by each node's
// orientation and ratio, returning one (pane_id, rect) pair per leaf.
func CalculateRects(root *Node, bounds Rect) []PaneRect {
	if root == nil {
		return nil
	}
	if root.Leaf {
		return []PaneRect{{ID: root.ID, Rect: bounds}}
	}
	left, right := splitRect(bounds, root.Orientation, root.Ratio)
	out := CalculateRects(root.Left, left)
	return append(out, CalculateRects(root.Right, right)...)
}

func splitRect(bounds Rect, o Orientation, ratio float64) (first, second Rect) {
	switch o {
	case Horizontal:
		w1 := bounds.W * ratio
		return Rect{bounds.X, bounds.Y, w1, bounds.H},
			Rect{bounds.X + w1, bounds.Y, bounds.W - w1, bounds.H}
	default: // Vertical
		h1 := bounds.H * ratio
		return Rect{bounds.X, bounds.Y, bounds.W, h1},
			Rect{bounds.X, bounds.Y + h1, bounds.W, bounds.H - h1}
	}
}

// PaneAt recursively hit-tests (x,y), given in the same space as bounds, and
// returns the leaf pane under the point.
func PaneAt(root *Node, bounds Rect, x, y float64) (pane.ID, bool) {
	if root == nil {
		return 0, false
	}
	if root.Leaf {
		return root.ID, true
	}
	left, right := splitRect(bounds, root.Orientation, root.Ratio)
	if inRect(left, x, y) {
		return PaneAt(root.Left, left, x, y)
	}
	if inRect(right, x, y) {
		return PaneAt(root.Right, right, x, y)
	}
	return 0, false
}

func inRect(r Rect, x, y float64) bool {
	return x >= r.X && x <= r.X+r.W && y >= r.Y && y <= r.Y+r.H
}

// BorderHit describes a border found by BorderAt: the path of
// directions from the root to the split that owns it, and the split's
// own rectangle (for drawing/drag-axis projection).
type BorderHit struct {
	Path  []Direction
	Rect  Rect
	Split *Node
}

// BorderAt recursively hit-tests (x,y) against every split border
// within threshold (in the same unit space as bounds), returning the
// path of directions from the root to the owning split.
func BorderAt(root *Node, bounds Rect, x, y, threshold float64) (BorderHit, bool) {
	return borderAt(root, bounds, x, y, threshold, nil)
}

func borderAt(root *Node, bounds Rect, x, y, threshold float64, path []Direction) (BorderHit, bool) {
	if root == nil || root.Leaf {
		return BorderHit{}, false
	}
	left, right := splitRect(bounds, root.Orientation, root.Ratio)

	var borderX, borderY float64
	var onBorder bool
	switch root.Orientation {
	case Horizontal:
		borderX, borderY = left.X+left.W, bounds.Y
		onBorder = abs(x-borderX) <= threshold && y >= bounds.Y && y <= bounds.Y+bounds.H
	default:
		borderX, borderY = bounds.X, left.Y+left.H
		onBorder = abs(y-borderY) <= threshold && x >= bounds.X && x <= bounds.X+bounds.W
	}
	if onBorder {
		return BorderHit{Path: path, Rect: bounds, Split: root}, true
	}

	var leftDir, rightDir Direction
	if root.Orientation == Horizontal {
		leftDir, rightDir = Left, Right
	} else {
		leftDir, rightDir = Top, Bottom
	}
	if inRect(left, x, y) {
		return borderAt(root.Left, left, x, y, threshold, append(append([]Direction(nil), path...), leftDir))
	}
	if inRect(right, x, y) {
		return borderAt(root.Right, right, x, y, threshold, append(append([]Direction(nil), path...), rightDir))
	}
	return BorderHit{}, false
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// UpdateRatio follows path from root and clamps the addressed split's
// ratio to [0.1, 0.9].
func UpdateRatio(root *Node, path []Direction, newRatio float64) bool {
	node := root
	for _, d := range path {
		if node == nil || node.Leaf {
			return false
		}
		if d == Left || d == Top {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	if node == nil || node.Leaf {
		return false
	}
	node.Ratio = clampRatio(newRatio)
	return true
}

// leaves returns every pane ID in the tree, in left-to-right (in-order)
// traversal.
func leaves(root *Node, out []pane.ID) []pane.ID {
	if root == nil {
		return out
	}
	if root.Leaf {
		return append(out, root.ID)
	}
	out = leaves(root.Left, out)
	return leaves(root.Right, out)
}

// Leaves returns every pane ID in the tree in in-order traversal.
func Leaves(root *Node) []pane.ID {
	return leaves(root, nil)
}

// NextPane returns the leaf following current in in-order traversal,
// wrapping to the first leaf after the last.
func NextPane(root *Node, current pane.ID) (pane.ID, bool) {
	ids := Leaves(root)
	for i, id := range ids {
		if id == current {
			return ids[(i+1)%len(ids)], true
		}
	}
	return 0, false
}

// PrevPane returns the leaf preceding current in in-order traversal,
// wrapping to the last leaf before the first.
func PrevPane(root *Node, current pane.ID) (pane.ID, bool) {
	ids := Leaves(root)
	for i, id := range ids {
		if id == current {
			return ids[(i-1+len(ids))%len(ids)], true
		}
	}
	return 0, false
}
