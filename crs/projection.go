package crs

// Projection converts between a reference system and WGS 84 longitude/latitude in degrees.
type Projection interface {
	FromGeographic(lon, lat float64) (x, y float64)
	ToGeographic(x, y float64) (lon, lat float64)
	EPSG() int
}

var sjtsk = NewKrovakEastNorth()

// ForEPSG returns the Projection for the given EPSG code, or nil if it is not supported
func ForEPSG(epsg int) Projection {
	switch epsg {
	case EPSGWGS84:
		return Geographic{}
	case EPSGSJTSK:
		return sjtsk
	default:
		return nil
	}
}

// Geographic is the identity projection of WGS 84 itself
type Geographic struct{}

func (Geographic) FromGeographic(lon, lat float64) (x, y float64) { return lon, lat }
func (Geographic) ToGeographic(x, y float64) (lon, lat float64)   { return x, y }
func (Geographic) EPSG() int                                       { return EPSGWGS84 }
