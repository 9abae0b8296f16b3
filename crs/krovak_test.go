package crs

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// IOGP Guidance Note 7-2 worked example, on the Bessel ellipsoid:
// 50°12'32.442"N 16°50'59.179"E -> southing 1050538.63, westing 568991.00
func TestKrovak_project_guidanceNoteExample(t *testing.T) {
	k := NewKrovakEastNorth()
	lat := radians(50 + 12.0/60 + 32.442/3600)
	lon := radians(16 + 50.0/60 + 59.179/3600)

	easting, northing := k.project(lon, lat)
	assert.InDelta(t, -568991.00, easting, 0.05)
	assert.InDelta(t, -1050538.63, northing, 0.05)

	gotLon, gotLat := k.unproject(easting, northing)
	assert.InDelta(t, lon, gotLon, 1e-11)
	assert.InDelta(t, lat, gotLat, 1e-11)
}

var sjtskRefPoints = []struct {
	name              string
	lon, lat          float64
	easting, northing float64
}{
	{name: "Prague", lon: 14.4180764, lat: 50.0762969, easting: -743204.3, northing: -1044212.4},
	{name: "Brno", lon: 16.6068, lat: 49.1951, easting: -598248.8, northing: -1160744.7},
	{name: "Ostrava", lon: 18.2625, lat: 49.8209, easting: -472182.0, northing: -1103062.9},
}

func TestKrovak_FromGeographic(t *testing.T) {
	k := NewKrovakEastNorth()
	for _, ref := range sjtskRefPoints {
		t.Run(ref.name, func(t *testing.T) {
			easting, northing := k.FromGeographic(ref.lon, ref.lat)
			assert.InDelta(t, ref.easting, easting, 1.0)
			assert.InDelta(t, ref.northing, northing, 1.0)
		})
	}
}

func TestKrovak_roundTrip(t *testing.T) {
	k := NewKrovakEastNorth()
	for _, ref := range sjtskRefPoints {
		t.Run(ref.name, func(t *testing.T) {
			lon, lat := k.ToGeographic(k.FromGeographic(ref.lon, ref.lat))
			// a centimetre or so, from inverting the Helmert shift by negation
			assert.InDelta(t, ref.lon, lon, 1e-6)
			assert.InDelta(t, ref.lat, lat, 1e-6)
		})
	}
}

func TestEllipsoid_ECEF(t *testing.T) {
	for _, el := range []Ellipsoid{GRS80Ellipsoid, BesselEllipsoid} {
		lon, lat, h := radians(15.5), radians(49.75), 321.0
		gotLon, gotLat, gotH := el.FromECEF(el.ToECEF(lon, lat, h))
		assert.InDelta(t, lon, gotLon, 1e-12)
		assert.InDelta(t, lat, gotLat, 1e-12)
		assert.InDelta(t, h, gotH, 1e-4)
	}
	x, _, z := GRS80Ellipsoid.ToECEF(0, 0, 0)
	assert.Equal(t, 6378137.0, x)
	assert.InDelta(t, 0, z, 1e-9)
	assert.InDelta(t, 1/298.257223563*(2-1/298.257223563), GRS80Ellipsoid.E2(), 1e-15)
}

func TestHelmert_Inverse(t *testing.T) {
	x, y, z := BesselEllipsoid.ToECEF(radians(15), radians(50), 0)
	gx, gy, gz := sjtskToWGS84.Inverse().Apply(sjtskToWGS84.Apply(x, y, z))
	assert.InDelta(t, x, gx, 0.01)
	assert.InDelta(t, y, gy, 0.01)
	assert.InDelta(t, z, gz, 0.01)

	// a pure translation
	hm := Helmert{Tx: 1, Ty: -2, Tz: 3}
	tx, ty, tz := hm.Apply(10, 10, 10)
	assert.Equal(t, []float64{11, 8, 13}, []float64{tx, ty, tz})
	assert.False(t, math.IsNaN(gx))
}
