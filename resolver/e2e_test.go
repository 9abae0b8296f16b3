package resolver

import (
	"testing"

	"github.com/go-spatial/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdok/tilefinder/catalogue"
	"github.com/pdok/tilefinder/snap"
)

// A 2 x 2 sheet around Prague published in WGS 84, as the DMR 5G Atom feed does
func TestResolve_atomFeed(t *testing.T) {
	cat, err := catalogue.LoadAtom("../catalogue/testdata/dmr5g-sjtsk.xml", catalogue.DMR5GCodePrefix)
	require.NoError(t, err)
	r, err := New(cat, Options{Grid: snap.DefaultGrid(), CacheSize: 16})
	require.NoError(t, err)

	tests := []struct {
		name string
		pt   geom.Point
		code string
	}{
		{name: "Prague", pt: geom.Point{14.4180764, 50.0762969}, code: "PRAH16"},
		{name: "north east", pt: geom.Point{14.4462838, 50.0897953}, code: "PRAH07"},
		{name: "half a metre below a shared edge", pt: geom.Point{14.4101199, 50.0775150}, code: "PRAH16"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolution, err := r.Resolve(tt.pt)
			require.NoError(t, err)
			assert.Equal(t, tt.code, resolution.Entry.Code)
			assert.Contains(t, resolution.Entry.Location, "CUZK_DMR5G-SJTSK_"+tt.code+".xml")
		})
	}

	resolution, err := r.Resolve(geom.Point{14.4180764, 50.0762969})
	require.NoError(t, err)
	assert.InDelta(t, -743204.3, resolution.Projected[0], 1)
	assert.InDelta(t, -1044212.4, resolution.Projected[1], 1)

	// snapped onto the S-JTSK sheet grid
	_, snapped, err := r.Footprint(0)
	require.NoError(t, err)
	assert.Equal(t, [][2]float64{{-745000, -1046000}, {-745000, -1044000}, {-742500, -1044000}, {-742500, -1046000}}, snapped)

	_, err = r.ResolveTile(geom.Point{14.3236272, 50.0698182})
	assert.ErrorIs(t, err, ErrNoTileFound)
}
