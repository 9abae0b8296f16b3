// Package resolver finds the tile whose footprint contains a point, in two stages:
// a bounding box search in the spatial index, then an exact containment test of the
// grid-snapped footprint of every candidate.
package resolver

import (
	"fmt"
	"slices"
	"time"

	"github.com/go-spatial/geom"
	"github.com/rs/zerolog"

	"github.com/pdok/tilefinder/catalogue"
	"github.com/pdok/tilefinder/crs"
	"github.com/pdok/tilefinder/geomhelp"
	"github.com/pdok/tilefinder/snap"
	"github.com/pdok/tilefinder/tileindex"
)

// Observer is told about every resolution, for metrics
type Observer interface {
	ObserveResolve(kind FailureKind, candidates int, duration time.Duration)
}

type Options struct {
	Grid snap.Grid
	// QueryCRS is the reference system of the points to resolve, WGS 84 if zero
	QueryCRS crs.ReferenceSystem
	// ProjectedCRS is the reference system the tile grid is laid out in, S-JTSK if zero
	ProjectedCRS crs.ReferenceSystem
	// CacheSize is the number of snapped footprints to keep, 0 snaps on every test
	CacheSize int
	Logger    zerolog.Logger
	Observer  Observer
}

// Resolver is built once from a catalogue and is safe for concurrent use after that
type Resolver struct {
	catalogue   *catalogue.Catalogue
	toProjected *crs.Transform
	footprints  *footprintStore
	index       *tileindex.Index
	logger      zerolog.Logger
	observer    Observer
}

// Resolution is a resolved tile
type Resolution struct {
	ID    catalogue.ID
	Entry catalogue.Entry
	// Projected is the query point in the projected reference system
	Projected  geom.Point
	Candidates []catalogue.ID
}

// New projects every footprint, indexes the union of its raw and snapped extent
// (so the box covers whatever polygon is tested later) and freezes the result.
func New(cat *catalogue.Catalogue, opts Options) (*Resolver, error) {
	if opts.QueryCRS == (crs.ReferenceSystem{}) {
		opts.QueryCRS = crs.WGS84
	}
	if opts.ProjectedCRS == (crs.ReferenceSystem{}) {
		opts.ProjectedCRS = crs.SJTSK
	}
	if err := opts.Grid.Validate(); err != nil {
		return nil, err
	}
	toProjected, err := crs.New(opts.QueryCRS, opts.ProjectedCRS)
	if err != nil {
		return nil, fmt.Errorf("query transform: %w", err)
	}
	footprintToProjected, err := crs.New(cat.ReferenceSystem(), opts.ProjectedCRS)
	if err != nil {
		return nil, fmt.Errorf("footprint transform: %w", err)
	}

	start := time.Now()
	projected := make([][][2]float64, cat.Len())
	extents := make([]geom.Extent, cat.Len())
	for id := catalogue.ID(0); int(id) < cat.Len(); id++ {
		entry, err := cat.Entry(id)
		if err != nil {
			return nil, err
		}
		ring, err := footprintToProjected.Ring(entry.Footprint)
		if err != nil {
			return nil, fmt.Errorf("footprint %d (%s): %w", id, entry.Code, err)
		}
		projected[id] = ring
		extent := geomhelp.RingExtent(ring)
		extent.Add(opts.Grid.Extent(ring))
		extents[id] = *extent
	}
	footprints, err := newFootprintStore(opts.Grid, projected, opts.CacheSize)
	if err != nil {
		return nil, err
	}
	index, err := tileindex.Build(extents)
	if err != nil {
		return nil, err
	}
	opts.Logger.Info().
		Int("tiles", index.Len()).
		Stringer("catalogueCRS", cat.ReferenceSystem()).
		Stringer("projectedCRS", opts.ProjectedCRS).
		Stringer("grid", opts.Grid).
		Dur("took", time.Since(start)).
		Msg("built tile index")

	return &Resolver{
		catalogue:   cat,
		toProjected: toProjected,
		footprints:  footprints,
		index:       index,
		logger:      opts.Logger,
		observer:    opts.Observer,
	}, nil
}

func (r *Resolver) Catalogue() *catalogue.Catalogue {
	return r.catalogue
}

// ResolveTile returns the id of the tile containing the point, given in the query reference system
func (r *Resolver) ResolveTile(pt geom.Point) (catalogue.ID, error) {
	resolution, err := r.Resolve(pt)
	if err != nil {
		return -1, err
	}
	return resolution.ID, nil
}

// Resolve is ResolveTile with the resolved entry and the details of the search.
// On a point on an edge shared by tiles, the tile with the lowest id wins.
func (r *Resolver) Resolve(pt geom.Point) (Resolution, error) {
	start := time.Now()
	resolution, err := r.resolve(pt)
	kind := KindOf(err)
	if r.observer != nil {
		r.observer.ObserveResolve(kind, len(resolution.Candidates), time.Since(start))
	}
	if e := r.logger.Debug(); e.Enabled() {
		e.Floats64("point", pt[:]).
			Floats64("projected", resolution.Projected[:]).
			Int("candidates", len(resolution.Candidates)).
			Stringer("outcome", kind).
			Int("id", int(resolution.ID)).
			Msg("resolve")
	}
	return resolution, err
}

func (r *Resolver) resolve(pt geom.Point) (Resolution, error) {
	resolution := Resolution{ID: -1}
	projected, err := r.toProjected.Point(pt)
	if err != nil {
		return resolution, err
	}
	resolution.Projected = projected
	resolution.Candidates = r.index.Query(projected)

	switch len(resolution.Candidates) {
	case 0:
		return resolution, r.fail(ErrNoTileFound, pt, resolution)
	case 1:
		id := resolution.Candidates[0]
		if !geomhelp.RingCovers(r.footprints.snap(id), projected) {
			return resolution, r.fail(ErrPointNotInTile, pt, resolution)
		}
		return r.found(id, resolution)
	default:
		for _, id := range resolution.Candidates {
			if geomhelp.RingCovers(r.footprints.snap(id), projected) {
				return r.found(id, resolution)
			}
		}
		return resolution, r.fail(ErrNoTileFound, pt, resolution)
	}
}

func (r *Resolver) found(id catalogue.ID, resolution Resolution) (Resolution, error) {
	entry, err := r.catalogue.Entry(id)
	if err != nil {
		return resolution, err
	}
	resolution.ID = id
	resolution.Entry = entry
	return resolution, nil
}

func (r *Resolver) fail(kind error, pt geom.Point, resolution Resolution) error {
	return &ResolveError{Kind: kind, Point: pt, Projected: resolution.Projected, Candidates: resolution.Candidates}
}

// Footprint returns a tile's footprint in the projected reference system, as published and as snapped
func (r *Resolver) Footprint(id catalogue.ID) (raw, snapped [][2]float64, err error) {
	if id < 0 || int(id) >= r.catalogue.Len() {
		return nil, nil, fmt.Errorf("%w: %d", catalogue.ErrUnknownID, id)
	}
	raw = r.footprints.raw(id)
	snapped = r.footprints.snap(id)
	return slices.Clone(raw), slices.Clone(snapped), nil
}
