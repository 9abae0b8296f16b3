package resolver

import (
	"errors"
	"fmt"

	"github.com/go-spatial/geom"

	"github.com/pdok/tilefinder/catalogue"
	"github.com/pdok/tilefinder/crs"
)

var (
	// ErrNoTileFound means the point lies outside every footprint: outside the dataset
	ErrNoTileFound = errors.New("no tile found")
	// ErrPointNotInTile means the only candidate's bounding box holds the point but its footprint does not.
	// With a gap-free catalogue this indicates an inconsistency.
	ErrPointNotInTile = errors.New("point not in tile")
)

// FailureKind discriminates the ways a resolution can end without a tile
type FailureKind int

const (
	None FailureKind = iota
	NoTileFound
	PointNotInTile
	CoordinateTransform
	Unknown
)

func (k FailureKind) String() string {
	switch k {
	case None:
		return "resolved"
	case NoTileFound:
		return "no_tile_found"
	case PointNotInTile:
		return "point_not_in_tile"
	case CoordinateTransform:
		return "coordinate_transform"
	default:
		return "unknown"
	}
}

// KindOf classifies an error returned by the resolver
func KindOf(err error) FailureKind {
	var transformErr *crs.TransformError
	switch {
	case err == nil:
		return None
	case errors.Is(err, ErrNoTileFound):
		return NoTileFound
	case errors.Is(err, ErrPointNotInTile):
		return PointNotInTile
	case errors.As(err, &transformErr):
		return CoordinateTransform
	default:
		return Unknown
	}
}

// ResolveError reports a point no tile could be resolved for. It unwraps to ErrNoTileFound or ErrPointNotInTile.
type ResolveError struct {
	Kind       error
	Point      geom.Point
	Projected  geom.Point
	Candidates []catalogue.ID
}

func (e *ResolveError) Error() string {
	switch {
	case errors.Is(e.Kind, ErrPointNotInTile):
		return fmt.Sprintf("%v: the only candidate tile %d does not contain point %v", e.Kind, e.Candidates[0], e.Point)
	case len(e.Candidates) > 0:
		return fmt.Sprintf("%v: none of the %d candidate tiles %v contains point %v", e.Kind, len(e.Candidates), e.Candidates, e.Point)
	default:
		return fmt.Sprintf("%v: no tile could contain point %v", e.Kind, e.Point)
	}
}

func (e *ResolveError) Unwrap() error {
	return e.Kind
}
