// Package crs holds the small, fixed set of coordinate reference systems needed to
// relate geographic query points to the projected S-JTSK grid the terrain tiles are cut in.
package crs

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	EPSGWGS84 = 4326
	EPSGSJTSK = 5514
)

var (
	WGS84 = ReferenceSystem{Authority: "EPSG", Code: EPSGWGS84}
	SJTSK = ReferenceSystem{Authority: "EPSG", Code: EPSGSJTSK}
)

var (
	crsURIRegexURL   = regexp.MustCompile("^https?://.+/def/crs/(?P<authority>[^/]+)/[^/]+/(?P<code>[^/]+)$")
	crsURIRegexURN   = regexp.MustCompile("^urn:ogc:def:crs:(?P<authority>[^:]+):[^:]*:(?P<code>[^:]+)$")
	crsURIRegexShort = regexp.MustCompile("^(?P<authority>[A-Za-z]+):(?P<code>[^:]+)$")
)

// ReferenceSystem identifies a coordinate reference system by authority and code.
// Geographic systems always use longitude, latitude axis order here.
type ReferenceSystem struct {
	Authority string `validate:"required,eq=EPSG"`
	Code      int    `validate:"required,gt=0"`
}

// Parse accepts EPSG:<code>, urn:ogc:def:crs:EPSG::<code>,
// http(s)://www.opengis.net/def/crs/EPSG/0/<code> and CRS84
func Parse(s string) (ReferenceSystem, error) {
	s = strings.TrimSpace(s)
	switch strings.ToUpper(s) {
	case "CRS84", "OGC:CRS84", "URN:OGC:DEF:CRS:OGC:1.3:CRS84", "HTTP://WWW.OPENGIS.NET/DEF/CRS/OGC/1.3/CRS84":
		return WGS84, nil
	}

	uriParts := crsURIRegexURL.FindStringSubmatch(s)
	if uriParts == nil {
		uriParts = crsURIRegexURN.FindStringSubmatch(s)
	}
	if uriParts == nil {
		uriParts = crsURIRegexShort.FindStringSubmatch(s)
	}
	if uriParts == nil {
		return ReferenceSystem{}, fmt.Errorf(`could not parse crs "%v"`, s)
	}
	code, err := strconv.Atoi(uriParts[2])
	if err != nil {
		return ReferenceSystem{}, fmt.Errorf(`crs code of "%v" is not a number: %w`, s, err)
	}
	rs := ReferenceSystem{Authority: strings.ToUpper(uriParts[1]), Code: code}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err = validate.Struct(rs); err != nil {
		return ReferenceSystem{}, fmt.Errorf(`unsupported crs "%v": %w`, s, err)
	}
	return rs, nil
}

// MustParse is Parse for well-known literals
func MustParse(s string) ReferenceSystem {
	rs, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return rs
}

func (rs ReferenceSystem) String() string {
	return fmt.Sprintf("%s:%d", rs.Authority, rs.Code)
}

func (rs ReferenceSystem) URI() string {
	return fmt.Sprintf("http://www.opengis.net/def/crs/%s/0/%d", rs.Authority, rs.Code)
}

func (rs ReferenceSystem) IsGeographic() bool {
	return rs == WGS84
}
