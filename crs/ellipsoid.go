package crs

import "math"

const arcSecond = math.Pi / (180 * 3600)

type Ellipsoid struct {
	A    float64 // semi-major axis (m)
	InvF float64 // inverse flattening
}

var (
	GRS80Ellipsoid  = Ellipsoid{A: 6378137, InvF: 298.257223563} // as used by WGS 84
	BesselEllipsoid = Ellipsoid{A: 6377397.155, InvF: 299.1528128}
)

// E2 is the square of the first eccentricity
func (el Ellipsoid) E2() float64 {
	f := 1 / el.InvF
	return f * (2 - f)
}

// ToECEF converts geodetic coordinates (radians, metres) to earth-centred earth-fixed cartesian coordinates
func (el Ellipsoid) ToECEF(lon, lat, h float64) (x, y, z float64) {
	e2 := el.E2()
	sinLat, cosLat := math.Sincos(lat)
	n := el.A / math.Sqrt(1-e2*sinLat*sinLat)
	x = (n + h) * cosLat * math.Cos(lon)
	y = (n + h) * cosLat * math.Sin(lon)
	z = (n*(1-e2) + h) * sinLat
	return
}

// FromECEF is the inverse of ToECEF, solved iteratively for latitude
func (el Ellipsoid) FromECEF(x, y, z float64) (lon, lat, h float64) {
	e2 := el.E2()
	p := math.Hypot(x, y)
	lon = math.Atan2(y, x)
	lat = math.Atan2(z, p*(1-e2))
	for i := 0; i < 10; i++ {
		sinLat := math.Sin(lat)
		n := el.A / math.Sqrt(1-e2*sinLat*sinLat)
		h = p/math.Cos(lat) - n
		next := math.Atan2(z, p*(1-e2*n/(n+h)))
		if math.Abs(next-lat) < 1e-14 {
			lat = next
			break
		}
		lat = next
	}
	return
}

// Helmert is a seven parameter similarity transformation in the position vector convention.
// Translations in metres, rotations in arc seconds, scale in parts per million.
type Helmert struct {
	Tx, Ty, Tz float64
	Rx, Ry, Rz float64
	S          float64
}

func (hm Helmert) Apply(x, y, z float64) (float64, float64, float64) {
	rx, ry, rz := hm.Rx*arcSecond, hm.Ry*arcSecond, hm.Rz*arcSecond
	m := 1 + hm.S*1e-6
	return hm.Tx + m*(x-rz*y+ry*z),
		hm.Ty + m*(rz*x+y-rx*z),
		hm.Tz + m*(-ry*x+rx*y+z)
}

// Inverse negates all parameters, which is accurate to a few millimetres for datum shifts this small
func (hm Helmert) Inverse() Helmert {
	return Helmert{Tx: -hm.Tx, Ty: -hm.Ty, Tz: -hm.Tz, Rx: -hm.Rx, Ry: -hm.Ry, Rz: -hm.Rz, S: -hm.S}
}
