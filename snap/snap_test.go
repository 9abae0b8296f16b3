package snap

import (
	"testing"

	"github.com/go-spatial/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrdinate(t *testing.T) {
	tests := []struct {
		name string
		v    float64
		p    float64
		want float64
	}{
		{name: "on grid", v: 2500, p: 2500, want: 2500},
		{name: "drift up", v: 2500.01, p: 2500, want: 2500},
		{name: "drift down", v: 2499.99, p: 2500, want: 2500},
		{name: "just below half", v: 1249.99, p: 2500, want: 0},
		{name: "halfway rounds up", v: 1250, p: 2500, want: 2500},
		{name: "zero", v: 0, p: 2000, want: 0},
		{name: "negative drift towards zero", v: -742499.98, p: 2500, want: -742500},
		{name: "negative drift away from zero", v: -742500.02, p: 2500, want: -742500},
		{name: "negative northing", v: -1042000.03, p: 2000, want: -1042000},
		{name: "fractional pitch", v: 0.4201, p: 0.21, want: 0.42},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Ordinate(tt.v, tt.p)
			assert.InDelta(t, tt.want, got, 1e-9)
			// idempotent
			assert.Equal(t, got, Ordinate(got, tt.p))
		})
	}
}

func TestGrid_Ring(t *testing.T) {
	g := Grid{CellWidth: 2500, CellHeight: 2000}
	tests := []struct {
		name string
		ring [][2]float64
		want [][2]float64
	}{
		{
			name: "drifted rectangle",
			ring: [][2]float64{{0.01, -0.02}, {2500.01, 0.01}, {2499.98, 2000.02}, {-0.01, 1999.99}},
			want: [][2]float64{{0, 0}, {2500, 0}, {2500, 2000}, {0, 2000}},
		},
		{
			name: "closed ring keeps closing vertex",
			ring: [][2]float64{{-742499.99, -1042000.01}, {-740000.01, -1041999.99}, {-740000, -1040000}, {-742500, -1040000.01}, {-742499.99, -1042000.01}},
			want: [][2]float64{{-742500, -1042000}, {-740000, -1042000}, {-740000, -1040000}, {-742500, -1040000}, {-742500, -1042000}},
		},
		{
			name: "collapsed edge keeps vertex count",
			ring: [][2]float64{{0, 0}, {10, 0}, {2500, 0}, {2500, 2000}, {0, 2000}},
			want: [][2]float64{{0, 0}, {0, 0}, {2500, 0}, {2500, 2000}, {0, 2000}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := make([][2]float64, len(tt.ring))
			copy(input, tt.ring)

			got := g.Ring(tt.ring)
			require.Len(t, got, len(tt.ring))
			for i := range tt.want {
				assert.InDeltaSlice(t, tt.want[i][:], got[i][:], 1e-9)
			}
			assert.Equal(t, input, tt.ring, "input ring should not be mutated")
			assert.Equal(t, got, g.Ring(got), "snapping twice should be a no-op")
		})
	}
}

func TestGrid_Polygon(t *testing.T) {
	g := DefaultGrid()
	polygon := geom.Polygon{{{0.01, 0.01}, {2500.01, 0}, {2500, 1999.99}, {0, 2000.01}}}
	got := g.Polygon(polygon)
	assert.Equal(t, geom.Polygon{{{0, 0}, {2500, 0}, {2500, 2000}, {0, 2000}}}, got)
}

func TestGrid_Extent(t *testing.T) {
	g := DefaultGrid()
	ring := [][2]float64{{0.01, 0.01}, {2500.01, 0}, {2500, 1999.99}, {0, 2000.01}}
	got := g.Extent(ring)
	require.NotNil(t, got)
	assert.Equal(t, geom.Extent{0, 0, 2500, 2000}, *got)
	assert.Nil(t, g.Extent(nil))
}

func TestGrid_Validate(t *testing.T) {
	assert.NoError(t, DefaultGrid().Validate())
	assert.Equal(t, Grid{CellWidth: 2500, CellHeight: 2000}, DefaultGrid())
	assert.Error(t, Grid{CellWidth: 0, CellHeight: 2000}.Validate())
	assert.Error(t, Grid{CellWidth: 2500, CellHeight: -1}.Validate())
}
