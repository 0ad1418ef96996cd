package pane

import "testing"

func TestAllocID_Monotonic(t *testing.T) {
	a := allocID()
	b := allocID()
	c := allocID()
	if !(a < b && b < c) {
		t.Fatalf("ids not monotonic: %d, %d, %d", a, b, c)
	}
}

func TestAllocID_Unique(t *testing.T) {
	seen := make(map[ID]bool)
	for i := 0; i < 100; i++ {
		id := allocID()
		if seen[id] {
			t.Fatalf("duplicate id %d", id)
		}
		seen[id] = true
	}
}
