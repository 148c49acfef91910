// Package spatial provides the broad phase for sim radius queries.
//
// Entities are stored by integer index (not pointer) so the grid can be
// rebuilt every tick without allocating.
package spatial

import (
	"math"
)

type cellKey struct {
	col, row int32
}

// Grid is an unbounded uniform grid over the horizontal (x, z) plane.
// Cells are created on demand, so negative coordinates and large worlds work
// without preset bounds.
//
// Optimal cell size equals the largest common query radius. For the Slasher
// the plunge impact radius tops out at 11 blocks, so the sim uses 8.
type Grid struct {
	cellSize    float64
	invCellSize float64
	cells       map[cellKey][]uint32
	used        []cellKey // cells touched since the last Clear
	scratch     []uint32  // reusable buffer for query results
}

// NewGrid creates an empty grid.
func NewGrid(cellSize float64) *Grid {
	if cellSize <= 0 {
		cellSize = 8
	}
	return &Grid{
		cellSize:    cellSize,
		invCellSize: 1.0 / cellSize,
		cells:       make(map[cellKey][]uint32),
		scratch:     make([]uint32, 0, 64),
	}
}

func (g *Grid) key(x, z float64) cellKey {
	return cellKey{
		col: int32(math.Floor(x * g.invCellSize)),
		row: int32(math.Floor(z * g.invCellSize)),
	}
}

// Clear empties every cell but keeps their capacity.
func (g *Grid) Clear() {
	for _, k := range g.used {
		g.cells[k] = g.cells[k][:0]
	}
	g.used = g.used[:0]
}

// Insert adds an entity index at (x, z).
func (g *Grid) Insert(index uint32, x, z float64) {
	k := g.key(x, z)
	cell := g.cells[k]
	if len(cell) == 0 {
		g.used = append(g.used, k)
	}
	g.cells[k] = append(cell, index)
}

// QueryRadius returns every index whose cell overlaps the square around
// (cx, cz). Callers still do the exact distance check.
//
// IMPORTANT: The returned slice is reused on subsequent calls.
func (g *Grid) QueryRadius(cx, cz, radius float64) []uint32 {
	g.scratch = g.scratch[:0]

	minK := g.key(cx-radius, cz-radius)
	maxK := g.key(cx+radius, cz+radius)

	for row := minK.row; row <= maxK.row; row++ {
		for col := minK.col; col <= maxK.col; col++ {
			g.scratch = append(g.scratch, g.cells[cellKey{col, row}]...)
		}
	}
	return g.scratch
}

// Stats returns grid statistics for debugging.
func (g *Grid) Stats() GridStats {
	var total, maxInCell int
	for _, k := range g.used {
		n := len(g.cells[k])
		total += n
		if n > maxInCell {
			maxInCell = n
		}
	}
	avg := 0.0
	if len(g.used) > 0 {
		avg = float64(total) / float64(len(g.used))
	}
	return GridStats{
		NonEmptyCells:  len(g.used),
		TotalEntities:  total,
		MaxInCell:      maxInCell,
		AvgPerNonEmpty: avg,
		CellSize:       g.cellSize,
	}
}

// GridStats contains grid statistics for debugging.
type GridStats struct {
	NonEmptyCells  int     `json:"nonEmptyCells"`
	TotalEntities  int     `json:"totalEntities"`
	MaxInCell      int     `json:"maxInCell"`
	AvgPerNonEmpty float64 `json:"avgPerNonEmpty"`
	CellSize       float64 `json:"cellSize"`
}
