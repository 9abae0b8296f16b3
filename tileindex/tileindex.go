// Package tileindex finds the footprints whose bounding box contains a point.
// It may return false positives, never false negatives.
package tileindex

import (
	"fmt"
	"slices"

	"github.com/dhconnelly/rtreego"
	"github.com/go-spatial/geom"

	"github.com/pdok/tilefinder/catalogue"
	"github.com/pdok/tilefinder/geomhelp"
	"github.com/pdok/tilefinder/mathhelp"
)

const (
	minChildren = 25
	maxChildren = 50
	// rtreego only reports strictly overlapping rectangles, so a point is searched as a tiny box
	// and the exact, edge inclusive test is done afterwards
	queryTolerance = 1e-6
)

// Index is read-only after Build and safe for concurrent queries
type Index struct {
	tree *rtreego.Rtree
}

type indexedExtent struct {
	id     catalogue.ID
	extent geom.Extent
	rect   rtreego.Rect
}

// Bounds implements rtreego.Spatial interface.
func (e *indexedExtent) Bounds() rtreego.Rect {
	return e.rect
}

// Build indexes one extent per catalogue entry, the position in extents being its id
func Build(extents []geom.Extent) (*Index, error) {
	objs := make([]rtreego.Spatial, 0, len(extents))
	for i, extent := range extents {
		if !mathhelp.IsFinite(extent[:]...) {
			return nil, fmt.Errorf("extent %d is not finite: %v", i, extent)
		}
		rect, err := rtreego.NewRectFromPoints(
			rtreego.Point{extent.MinX(), extent.MinY()},
			rtreego.Point{extent.MaxX(), extent.MaxY()},
		)
		if err != nil {
			return nil, fmt.Errorf("extent %d: %w", i, err)
		}
		objs = append(objs, &indexedExtent{id: catalogue.ID(i), extent: extent, rect: rect})
	}
	return &Index{tree: rtreego.NewTree(2, minChildren, maxChildren, objs...)}, nil
}

// Query returns the ids of all extents containing the point, edges included, in ascending order
func (idx *Index) Query(pt [2]float64) []catalogue.ID {
	if idx.tree.Size() == 0 || !mathhelp.IsFinite(pt[0], pt[1]) {
		return nil
	}
	covers := func(_ []rtreego.Spatial, obj rtreego.Spatial) (refuse, abort bool) {
		e := obj.(*indexedExtent)
		return !geomhelp.ExtentCovers(&e.extent, pt), false
	}
	found := idx.tree.SearchIntersect(rtreego.Point{pt[0], pt[1]}.ToRect(queryTolerance), covers)

	ids := make([]catalogue.ID, len(found))
	for i, obj := range found {
		ids[i] = obj.(*indexedExtent).id
	}
	slices.Sort(ids)
	return ids
}

func (idx *Index) Len() int {
	return idx.tree.Size()
}
