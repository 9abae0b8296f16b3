// Package snap corrects the drift in published tile footprints by moving every
// vertex onto the nearest line of the dataset's tile grid, so adjacent footprints
// share their edges exactly.
//
// Vertices are assumed to be off-grid by less than half a cell.
// That is not checked: a vertex that drifted further silently snaps to the wrong grid line.
package snap

import (
	"github.com/go-spatial/geom"

	"github.com/pdok/tilefinder/mathhelp"
)

// Ordinate snaps a single coordinate value v to the nearest multiple of pitch p.
// Exactly halfway rounds up.
// The result is always computed as k*p, which makes snapping idempotent.
func Ordinate(v, p float64) float64 {
	k, r := mathhelp.FloorDivMod(v, p)
	if r < p/2 {
		return k * p // down to the lower grid line
	}
	return (k + 1) * p // up to the upper grid line
}

// Point snaps x with the cell width and y with the cell height, independently.
func (g Grid) Point(pt [2]float64) [2]float64 {
	return [2]float64{
		Ordinate(pt[0], g.CellWidth),
		Ordinate(pt[1], g.CellHeight),
	}
}

// Ring returns a snapped copy of the ring.
// Vertex count and order are preserved, so collapsed edges are kept as duplicate vertices.
func (g Grid) Ring(ring [][2]float64) [][2]float64 {
	snapped := make([][2]float64, len(ring))
	for i, vertex := range ring {
		snapped[i] = g.Point(vertex)
	}
	return snapped
}

// Polygon snaps all rings of the polygon
func (g Grid) Polygon(polygon geom.Polygon) geom.Polygon {
	snapped := make(geom.Polygon, len(polygon))
	for i, ring := range polygon {
		snapped[i] = g.Ring(ring)
	}
	return snapped
}

// Extent returns the extent of the snapped ring without materializing it
func (g Grid) Extent(ring [][2]float64) *geom.Extent {
	if len(ring) == 0 {
		return nil
	}
	extent := geom.NewExtent(g.Point(ring[0]))
	for _, vertex := range ring[1:] {
		extent.AddPoints(g.Point(vertex))
	}
	return extent
}
