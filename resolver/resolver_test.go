package resolver

import (
	"errors"
	"math"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/go-spatial/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdok/tilefinder/catalogue"
	"github.com/pdok/tilefinder/crs"
	"github.com/pdok/tilefinder/snap"
)

const eps = 0.01

// projectedOptions resolves points given in S-JTSK itself
func projectedOptions() Options {
	return Options{Grid: snap.DefaultGrid(), QueryCRS: crs.SJTSK, ProjectedCRS: crs.SJTSK}
}

func newResolver(t *testing.T, opts Options, footprints ...[][2]float64) *Resolver {
	t.Helper()
	entries := make([]catalogue.Entry, len(footprints))
	for i, footprint := range footprints {
		entries[i] = catalogue.Entry{Code: string(rune('A' + i)), Footprint: footprint}
	}
	cat, err := catalogue.New(crs.SJTSK, entries)
	require.NoError(t, err)
	r, err := New(cat, opts)
	require.NoError(t, err)
	return r
}

// two 2500 x 2000 tiles sharing x=2500, every published vertex off the grid by eps
var drifted = [][][2]float64{
	{{eps, -eps}, {2500 - eps, eps}, {2500 + eps, 2000 - eps}, {-eps, 2000 + eps}},
	{{2500 + eps, eps}, {5000 - eps, -eps}, {5000 + eps, 2000 + eps}, {2500 - eps, 2000 - eps}},
}

func TestResolveTile_driftedSharedEdge(t *testing.T) {
	r := newResolver(t, projectedOptions(), drifted...)

	for i := 0; i < 100; i++ {
		id, err := r.ResolveTile(geom.Point{2500, 1000})
		require.NoError(t, err)
		assert.Equal(t, catalogue.ID(0), id)
	}

	// unsnapped, (2500, 1000) would be in neither or both
	resolution, err := r.Resolve(geom.Point{2500, 1000})
	require.NoError(t, err)
	assert.Equal(t, []catalogue.ID{0, 1}, resolution.Candidates)
	assert.Equal(t, "A", resolution.Entry.Code)

	id, err := r.ResolveTile(geom.Point{2500.001, 1000})
	require.NoError(t, err)
	assert.Equal(t, catalogue.ID(1), id)
}

func TestResolveTile_concurrent(t *testing.T) {
	opts := projectedOptions()
	opts.CacheSize = 1
	r := newResolver(t, opts, drifted...)

	var wg sync.WaitGroup
	results := make([]catalogue.ID, 64)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			x := 2500.0
			if i%2 == 1 {
				x = 3750
			}
			id, err := r.ResolveTile(geom.Point{x, 1000})
			assert.NoError(t, err)
			results[i] = id
		}(i)
	}
	wg.Wait()
	for i, id := range results {
		assert.Equal(t, catalogue.ID(i%2), id)
	}
}

// L-shape missing its top right quarter
var lShape = [][2]float64{{0, 0}, {5000, 0}, {5000, 2000}, {2500, 2000}, {2500, 4000}, {0, 4000}}

// the complementary L-shape, wrapping around the first one's missing quarter from the other side
var lShapeComplement = [][2]float64{{5000, 2000}, {7500, 2000}, {7500, 6000}, {2500, 6000}, {2500, 4000}, {5000, 4000}}

func TestResolveTile_singleCandidateMiss(t *testing.T) {
	r := newResolver(t, projectedOptions(), lShape)

	_, err := r.ResolveTile(geom.Point{3750, 3000})
	assert.ErrorIs(t, err, ErrPointNotInTile)
	assert.Equal(t, PointNotInTile, KindOf(err))

	var resolveErr *ResolveError
	require.ErrorAs(t, err, &resolveErr)
	assert.Equal(t, []catalogue.ID{0}, resolveErr.Candidates)
	assert.Equal(t, geom.Point{3750, 3000}, resolveErr.Point)
	assert.Contains(t, err.Error(), "only candidate tile 0")

	id, err := r.ResolveTile(geom.Point{1250, 3000})
	require.NoError(t, err)
	assert.Equal(t, catalogue.ID(0), id)
}

func TestResolveTile_multipleCandidatesMiss(t *testing.T) {
	r := newResolver(t, projectedOptions(), lShape, lShapeComplement)

	// in the boxes of both, in the polygon of neither
	_, err := r.ResolveTile(geom.Point{3750, 3000})
	assert.ErrorIs(t, err, ErrNoTileFound)
	assert.Equal(t, NoTileFound, KindOf(err))

	var resolveErr *ResolveError
	require.ErrorAs(t, err, &resolveErr)
	assert.Equal(t, []catalogue.ID{0, 1}, resolveErr.Candidates)
	assert.Contains(t, err.Error(), "none of the 2 candidate tiles")

	id, err := r.ResolveTile(geom.Point{6000, 3000})
	require.NoError(t, err)
	assert.Equal(t, catalogue.ID(1), id)
}

func TestResolveTile_outsideCoverage(t *testing.T) {
	r := newResolver(t, projectedOptions(), drifted...)

	for _, pt := range []geom.Point{{-1250, 1000}, {2500, 5000}, {5001, 1000}, {-1e6, -1e6}} {
		_, err := r.ResolveTile(pt)
		assert.ErrorIs(t, err, ErrNoTileFound)
		var resolveErr *ResolveError
		require.ErrorAs(t, err, &resolveErr)
		assert.Empty(t, resolveErr.Candidates)
		assert.Contains(t, err.Error(), "no tile could contain point")
	}
}

func TestResolveTile_emptyCatalogue(t *testing.T) {
	r := newResolver(t, projectedOptions())
	_, err := r.ResolveTile(geom.Point{-743204.3, -1044212.4})
	assert.ErrorIs(t, err, ErrNoTileFound)
}

func TestResolveTile_transformError(t *testing.T) {
	cat, err := catalogue.New(crs.SJTSK, []catalogue.Entry{{Code: "A", Footprint: drifted[0]}})
	require.NoError(t, err)
	r, err := New(cat, Options{Grid: snap.DefaultGrid()})
	require.NoError(t, err)

	for _, pt := range []geom.Point{{math.NaN(), 50}, {14.4, 91}, {181, 50}, {math.Inf(1), math.Inf(1)}} {
		id, err := r.ResolveTile(pt)
		assert.Equal(t, catalogue.ID(-1), id)
		assert.Equal(t, CoordinateTransform, KindOf(err))
		var transformErr *crs.TransformError
		assert.True(t, errors.As(err, &transformErr))
		assert.False(t, errors.Is(err, ErrNoTileFound))
	}
}

func TestPartition(t *testing.T) {
	const cols, rows = 6, 4
	grid := snap.DefaultGrid()
	r := rand.New(rand.NewSource(5514))
	drift := func() float64 { return (r.Float64() - 0.5) * 2 } // within a metre

	// a sheet of tiles in the negative S-JTSK quadrant, each vertex drifting on its own
	x0, y0 := -760000.0, -1060000.0
	var footprints [][][2]float64
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			left, bottom := x0+float64(col)*grid.CellWidth, y0+float64(row)*grid.CellHeight
			right, top := left+grid.CellWidth, bottom+grid.CellHeight
			footprints = append(footprints, [][2]float64{
				{left + drift(), bottom + drift()},
				{left + drift(), top + drift()},
				{right + drift(), top + drift()},
				{right + drift(), bottom + drift()},
			})
		}
	}
	res := newResolver(t, projectedOptions(), footprints...)

	for i := 0; i < 5000; i++ {
		pt := geom.Point{
			x0 + r.Float64()*cols*grid.CellWidth,
			y0 + r.Float64()*rows*grid.CellHeight,
		}
		col := int(math.Floor((pt[0] - x0) / grid.CellWidth))
		row := int(math.Floor((pt[1] - y0) / grid.CellHeight))
		id, err := res.ResolveTile(pt)
		require.NoError(t, err, "point %v", pt)
		assert.Equal(t, catalogue.ID(row*cols+col), id, "point %v", pt)
	}

	// on shared edges and corners the lowest id wins
	tests := []struct {
		name string
		pt   geom.Point
		want catalogue.ID
	}{
		{name: "vertical edge", pt: geom.Point{x0 + 2500, y0 + 1000}, want: 0},
		{name: "horizontal edge", pt: geom.Point{x0 + 1250, y0 + 2000}, want: 0},
		{name: "inner corner", pt: geom.Point{x0 + 5000, y0 + 4000}, want: cols + 1},
		{name: "outer corner", pt: geom.Point{x0, y0}, want: 0},
		{name: "far corner", pt: geom.Point{x0 + cols*2500, y0 + rows*2000}, want: cols*rows - 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := res.ResolveTile(tt.pt)
			require.NoError(t, err)
			assert.Equal(t, tt.want, id)
		})
	}
}

type recordingObserver struct {
	mu    sync.Mutex
	kinds []FailureKind
}

func (o *recordingObserver) ObserveResolve(kind FailureKind, _ int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.kinds = append(o.kinds, kind)
}

func TestResolve_observer(t *testing.T) {
	observer := &recordingObserver{}
	opts := projectedOptions()
	opts.Observer = observer
	r := newResolver(t, opts, lShape)

	_, _ = r.Resolve(geom.Point{1250, 1000})
	_, _ = r.Resolve(geom.Point{3750, 3000})
	_, _ = r.Resolve(geom.Point{9000, 9000})
	_, _ = r.Resolve(geom.Point{math.NaN(), 0})
	assert.Equal(t, []FailureKind{None, PointNotInTile, NoTileFound, CoordinateTransform}, observer.kinds)
}

func TestNew_invalidOptions(t *testing.T) {
	cat, err := catalogue.New(crs.SJTSK, nil)
	require.NoError(t, err)

	_, err = New(cat, Options{})
	assert.ErrorContains(t, err, "invalid grid")

	_, err = New(cat, Options{Grid: snap.DefaultGrid(), ProjectedCRS: crs.ReferenceSystem{Authority: "EPSG", Code: 28992}})
	assert.ErrorIs(t, err, crs.ErrUnsupportedReferenceSystem)
}

func TestNew_footprintOutsideProjection(t *testing.T) {
	cat, err := catalogue.New(crs.WGS84, []catalogue.Entry{{Code: "A", Footprint: [][2]float64{{14, 50}, {14, 95}, {15, 95}}}})
	require.NoError(t, err)
	_, err = New(cat, Options{Grid: snap.DefaultGrid()})
	var transformErr *crs.TransformError
	assert.ErrorAs(t, err, &transformErr)
	assert.ErrorContains(t, err, "footprint 0 (A)")
}

func TestFootprint(t *testing.T) {
	r := newResolver(t, projectedOptions(), drifted...)

	raw, snapped, err := r.Footprint(1)
	require.NoError(t, err)
	assert.Equal(t, drifted[1], raw)
	assert.Equal(t, [][2]float64{{2500, 0}, {5000, 0}, {5000, 2000}, {2500, 2000}}, snapped)

	_, _, err = r.Footprint(2)
	assert.ErrorIs(t, err, catalogue.ErrUnknownID)
}

func TestFootprint_cacheDoesNotLeak(t *testing.T) {
	opts := projectedOptions()
	opts.CacheSize = 4
	r := newResolver(t, opts, drifted...)

	_, snapped, err := r.Footprint(0)
	require.NoError(t, err)
	snapped[0] = [2]float64{-1e6, -1e6}

	id, err := r.ResolveTile(geom.Point{1, 1})
	require.NoError(t, err)
	assert.Equal(t, catalogue.ID(0), id)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, None, KindOf(nil))
	assert.Equal(t, Unknown, KindOf(errors.New("boom")))
	assert.Equal(t, "no_tile_found", NoTileFound.String())
	assert.Equal(t, "resolved", None.String())
}
