package crs

import "math"

// Krovak implements EPSG:5514 (S-JTSK / Krovak East North): an oblique conformal conic
// projection on the Bessel 1841 ellipsoid, with a Helmert datum shift to and from WGS 84.
// Easting and northing are both negative over the Czech Republic.
//
// Formulas: IOGP Guidance Note 7-2, section 3.2.1 (Krovak) and 3.2.1.1 (Krovak East North).
type Krovak struct {
	ellipsoid Ellipsoid
	toWGS84   Helmert
	fromWGS84 Helmert

	lonO   float64 // longitude of origin, from Greenwich
	alphaC float64 // co-latitude of the cone axis
	latP   float64 // pseudo standard parallel

	e, a, b, t0, n, r0 float64
}

// EPSG dataset transformation 4836, S-JTSK to WGS 84
var sjtskToWGS84 = Helmert{
	Tx: 570.8, Ty: 85.7, Tz: 462.8,
	Rx: 4.998, Ry: 1.587, Rz: 5.261,
	S: 3.56,
}

func NewKrovakEastNorth() *Krovak {
	const (
		latC   = 49.5
		lonO   = 24.0 + 50.0/60.0
		alphaC = 30.0 + 17.0/60.0 + 17.30311/3600.0
		latP   = 78.5
		kP     = 0.9999
	)
	k := &Krovak{
		ellipsoid: BesselEllipsoid,
		toWGS84:   sjtskToWGS84,
		fromWGS84: sjtskToWGS84.Inverse(),
		lonO:      radians(lonO),
		alphaC:    radians(alphaC),
		latP:      radians(latP),
	}
	e2 := k.ellipsoid.E2()
	k.e = math.Sqrt(e2)

	phiC := radians(latC)
	sinC, cosC := math.Sincos(phiC)
	k.a = k.ellipsoid.A * math.Sqrt(1-e2) / (1 - e2*sinC*sinC)
	k.b = math.Sqrt(1 + e2*math.Pow(cosC, 4)/(1-e2))
	gamma0 := math.Asin(sinC / k.b)
	k.t0 = math.Tan(math.Pi/4+gamma0/2) *
		math.Pow((1+k.e*sinC)/(1-k.e*sinC), k.e*k.b/2) /
		math.Pow(math.Tan(math.Pi/4+phiC/2), k.b)
	k.n = math.Sin(k.latP)
	k.r0 = kP * k.a / math.Tan(k.latP)
	return k
}

func (k *Krovak) EPSG() int { return EPSGSJTSK }

// FromGeographic converts WGS 84 longitude/latitude (degrees) to S-JTSK easting/northing (metres)
func (k *Krovak) FromGeographic(lon, lat float64) (x, y float64) {
	// WGS 84 -> ECEF -> Bessel
	wx, wy, wz := GRS80Ellipsoid.ToECEF(radians(lon), radians(lat), 0)
	bx, by, bz := k.fromWGS84.Apply(wx, wy, wz)
	besselLon, besselLat, _ := k.ellipsoid.FromECEF(bx, by, bz)
	return k.project(besselLon, besselLat)
}

// ToGeographic converts S-JTSK easting/northing (metres) to WGS 84 longitude/latitude (degrees)
func (k *Krovak) ToGeographic(x, y float64) (lon, lat float64) {
	besselLon, besselLat := k.unproject(x, y)
	bx, by, bz := k.ellipsoid.ToECEF(besselLon, besselLat, 0)
	wx, wy, wz := k.toWGS84.Apply(bx, by, bz)
	lonR, latR, _ := GRS80Ellipsoid.FromECEF(wx, wy, wz)
	return degrees(lonR), degrees(latR)
}

// project works on Bessel geodetic coordinates in radians
func (k *Krovak) project(lon, lat float64) (easting, northing float64) {
	sinLat := math.Sin(lat)
	u := 2 * (math.Atan(k.t0*math.Pow(math.Tan(lat/2+math.Pi/4), k.b)/
		math.Pow((1+k.e*sinLat)/(1-k.e*sinLat), k.e*k.b/2)) - math.Pi/4)
	v := k.b * (k.lonO - lon)
	sinU, cosU := math.Sincos(u)
	t := math.Asin(math.Cos(k.alphaC)*sinU + math.Sin(k.alphaC)*cosU*math.Cos(v))
	d := math.Asin(cosU * math.Sin(v) / math.Cos(t))
	theta := k.n * d
	r := k.r0 * math.Pow(math.Tan(math.Pi/4+k.latP/2), k.n) / math.Pow(math.Tan(t/2+math.Pi/4), k.n)
	xp := r * math.Cos(theta) // southing
	yp := r * math.Sin(theta) // westing
	return -yp, -xp
}

func (k *Krovak) unproject(easting, northing float64) (lon, lat float64) {
	xp, yp := -northing, -easting
	r := math.Hypot(xp, yp)
	theta := math.Atan2(yp, xp)
	d := theta / math.Sin(k.latP)
	t := 2 * (math.Atan(math.Pow(k.r0/r, 1/k.n)*math.Tan(math.Pi/4+k.latP/2)) - math.Pi/4)
	sinT, cosT := math.Sincos(t)
	u := math.Asin(math.Cos(k.alphaC)*sinT - math.Sin(k.alphaC)*cosT*math.Cos(d))
	v := math.Asin(cosT * math.Sin(d) / math.Cos(u))
	lon = k.lonO - v/k.b

	base := math.Pow(k.t0, -1/k.b) * math.Pow(math.Tan(u/2+math.Pi/4), 1/k.b)
	lat = u
	for i := 0; i < 15; i++ {
		sinLat := math.Sin(lat)
		next := 2 * (math.Atan(base*math.Pow((1+k.e*sinLat)/(1-k.e*sinLat), k.e/2)) - math.Pi/4)
		if math.Abs(next-lat) < 1e-14 {
			lat = next
			break
		}
		lat = next
	}
	return lon, lat
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
func degrees(rad float64) float64 { return rad * 180 / math.Pi }
