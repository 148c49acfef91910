package spatial

import (
	"testing"
)

func contains(ids []uint32, id uint32) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// TestGridQueryRadius tests candidates around a point
func TestGridQueryRadius(t *testing.T) {
	g := NewGrid(8)
	g.Insert(0, 0, 0)
	g.Insert(1, 5, 5)
	g.Insert(2, -20, -20)
	g.Insert(3, 100, 100)

	got := g.QueryRadius(0, 0, 6)
	if !contains(got, 0) || !contains(got, 1) {
		t.Errorf("Expected 0 and 1 near origin, got %v", got)
	}
	if contains(got, 3) {
		t.Errorf("Far entity should not be a candidate, got %v", got)
	}

	got = g.QueryRadius(-20, -20, 1)
	if !contains(got, 2) {
		t.Errorf("Negative coordinates should be supported, got %v", got)
	}
}

// TestGridClear tests that clear keeps the grid reusable
func TestGridClear(t *testing.T) {
	g := NewGrid(4)
	for i := uint32(0); i < 10; i++ {
		g.Insert(i, float64(i), 0)
	}
	if s := g.Stats(); s.TotalEntities != 10 {
		t.Errorf("Expected 10 entities, got %d", s.TotalEntities)
	}

	g.Clear()
	if s := g.Stats(); s.TotalEntities != 0 || s.NonEmptyCells != 0 {
		t.Errorf("Expected empty grid after clear, got %+v", s)
	}
	if got := g.QueryRadius(0, 0, 50); len(got) != 0 {
		t.Errorf("Expected no candidates after clear, got %v", got)
	}

	g.Insert(7, 1, 1)
	if got := g.QueryRadius(1, 1, 0.5); !contains(got, 7) {
		t.Errorf("Expected reinserted entity, got %v", got)
	}
}
