package geomhelp

import (
	"math"

	"github.com/go-spatial/geom"
	"github.com/go-spatial/geom/encoding/wkt"
	"github.com/muesli/reflow/truncate"

	"github.com/pdok/tilefinder/mathhelp"
)

// https://en.wikipedia.org/wiki/Shoelace_formula
func Shoelace(pts [][2]float64) float64 {
	sum := 0.
	if len(pts) == 0 {
		return 0.
	}

	p0 := pts[len(pts)-1]
	for _, p1 := range pts {
		sum += p0[1]*p1[0] - p0[0]*p1[1]
		p0 = p1
	}
	return math.Abs(sum / 2)
}

// from paulmach/orb
// Original implementation: http://rosettacode.org/wiki/Ray-casting_algorithm#Go
//
//nolint:cyclop,nestif
func RayIntersect(pt, start, end [2]float64) (intersects, on bool) {
	if start[0] > end[0] {
		start, end = end, start
	}

	if pt[0] == start[0] {
		if pt[1] == start[1] {
			// pt == start
			return false, true
		} else if start[0] == end[0] {
			// vertical segment (start -> end)
			// return true if within the line, check to see if start or end is greater.
			if start[1] > end[1] && start[1] >= pt[1] && pt[1] >= end[1] {
				return false, true
			}

			if end[1] > start[1] && end[1] >= pt[1] && pt[1] >= start[1] {
				return false, true
			}
		}

		// Move the y coordinate to deal with degenerate case
		pt[0] = math.Nextafter(pt[0], math.Inf(1))
	} else if pt[0] == end[0] {
		if pt[1] == end[1] {
			// matching the end point
			return false, true
		}

		pt[0] = math.Nextafter(pt[0], math.Inf(1))
	}

	if pt[0] < start[0] || pt[0] > end[0] {
		return false, false
	}

	if start[1] > end[1] {
		if pt[1] > start[1] {
			return false, false
		} else if pt[1] < end[1] {
			return true, false
		}
	} else {
		if pt[1] > end[1] {
			return false, false
		} else if pt[1] < start[1] {
			return true, false
		}
	}

	rs := (pt[1] - start[1]) / (pt[0] - start[0])
	ds := (end[1] - start[1]) / (end[0] - start[0])

	if rs == ds {
		return false, true
	}

	return rs <= ds, false
}

// RingContains tests a point against a ring by ray casting.
// The ring may or may not repeat its first vertex at the end.
// on is true when the point lies on one of the ring's edges (or vertices),
// in which case inside is false: callers decide whether the boundary counts.
func RingContains(ring [][2]float64, pt [2]float64) (inside, on bool) {
	if len(ring) < 3 {
		return false, false
	}
	if !ExtentCovers(RingExtent(ring), pt) {
		return false, false
	}

	// start with the closing segment, which is degenerate if the ring is explicitly closed
	inside, on = RayIntersect(pt, ring[len(ring)-1], ring[0])
	if on {
		return false, true
	}
	for i := 0; i < len(ring)-1; i++ {
		intersects, onSegment := RayIntersect(pt, ring[i], ring[i+1])
		if onSegment {
			return false, true
		}
		if intersects {
			inside = !inside
		}
	}
	return inside, false
}

// RingCovers is RingContains with the boundary counting as covered
func RingCovers(ring [][2]float64, pt [2]float64) bool {
	inside, on := RingContains(ring, pt)
	return inside || on
}

// RingExtent returns the axis-aligned extent of all vertices of the ring
func RingExtent(ring [][2]float64) *geom.Extent {
	if len(ring) == 0 {
		return nil
	}
	return geom.NewExtent(ring...)
}

// ExtentCovers tests whether the point lies inside or on the edge of the extent
func ExtentCovers(extent *geom.Extent, pt [2]float64) bool {
	if extent == nil {
		return false
	}
	return mathhelp.BetweenInc(pt[0], extent.MinX(), extent.MaxX()) &&
		mathhelp.BetweenInc(pt[1], extent.MinY(), extent.MaxY())
}

// OpenRing returns the ring without its closing vertex, if it has one.
// LinearRings in go-spatial/geom are implicitly closed.
func OpenRing(ring [][2]float64) [][2]float64 {
	n := len(ring)
	if n > 1 && ring[0] == ring[n-1] {
		return ring[:n-1]
	}
	return ring
}

// DistinctVertices counts the unique vertices of a ring
func DistinctVertices(ring [][2]float64) int {
	seen := make(map[[2]float64]struct{}, len(ring))
	for _, vertex := range ring {
		seen[vertex] = struct{}{}
	}
	return len(seen)
}

func WktMustEncode(g geom.Geometry, maxLen uint) string {
	if maxLen == 0 {
		return wkt.MustEncode(g)
	}
	return truncate.StringWithTail(wkt.MustEncode(g), maxLen, "...")
}
