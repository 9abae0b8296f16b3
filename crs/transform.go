package crs

import (
	"fmt"

	"github.com/go-spatial/geom"

	"github.com/pdok/tilefinder/mathhelp"
)

// Transform carries points from a source to a target reference system.
// It holds no mutable state and is safe for concurrent use.
type Transform struct {
	source, target ReferenceSystem
	from, to       Projection
}

// New composes a Transform through WGS 84.
// Either side being unsupported yields ErrUnsupportedReferenceSystem.
func New(source, target ReferenceSystem) (*Transform, error) {
	from := ForEPSG(source.Code)
	if source.Authority != "EPSG" || from == nil {
		return nil, fmt.Errorf("source %v: %w", source, ErrUnsupportedReferenceSystem)
	}
	to := ForEPSG(target.Code)
	if target.Authority != "EPSG" || to == nil {
		return nil, fmt.Errorf("target %v: %w", target, ErrUnsupportedReferenceSystem)
	}
	return &Transform{source: source, target: target, from: from, to: to}, nil
}

// MustNew is New for reference systems known to be supported
func MustNew(source, target ReferenceSystem) *Transform {
	t, err := New(source, target)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Transform) Source() ReferenceSystem { return t.source }
func (t *Transform) Target() ReferenceSystem { return t.target }

func (t *Transform) IsIdentity() bool {
	return t.source == t.target
}

func (t *Transform) Inverse() *Transform {
	return &Transform{source: t.target, target: t.source, from: t.to, to: t.from}
}

// Point transforms a single point. Geographic points are (longitude, latitude).
func (t *Transform) Point(pt geom.Point) (geom.Point, error) {
	if !mathhelp.IsFinite(pt[0], pt[1]) {
		return geom.Point{}, t.fail(pt, "non-finite coordinate")
	}
	if t.source.IsGeographic() {
		if !mathhelp.BetweenInc(pt[0], -180, 180) {
			return geom.Point{}, t.fail(pt, "longitude outside [-180, 180]")
		}
		if !mathhelp.BetweenInc(pt[1], -90, 90) {
			return geom.Point{}, t.fail(pt, "latitude outside [-90, 90]")
		}
	}
	if t.IsIdentity() {
		return pt, nil
	}

	lon, lat := t.from.ToGeographic(pt[0], pt[1])
	x, y := t.to.FromGeographic(lon, lat)
	if !mathhelp.IsFinite(x, y) {
		return geom.Point{}, t.fail(pt, "no finite result")
	}
	return geom.Point{x, y}, nil
}

// Ring transforms every vertex into a new ring, preserving vertex count and order
func (t *Transform) Ring(ring [][2]float64) ([][2]float64, error) {
	transformed := make([][2]float64, len(ring))
	for i, vertex := range ring {
		pt, err := t.Point(vertex)
		if err != nil {
			return nil, fmt.Errorf("vertex %d: %w", i, err)
		}
		transformed[i] = pt
	}
	return transformed, nil
}

func (t *Transform) fail(pt geom.Point, reason string) error {
	return &TransformError{Source: t.source, Target: t.target, Point: pt, Reason: reason}
}
