package crs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    ReferenceSystem
		wantErr bool
	}{
		{name: "short", input: "EPSG:5514", want: SJTSK},
		{name: "short lower case", input: "epsg:4326", want: WGS84},
		{name: "urn", input: "urn:ogc:def:crs:EPSG::5514", want: SJTSK},
		{name: "urn with version", input: "urn:ogc:def:crs:EPSG:9.9:4326", want: WGS84},
		{name: "http", input: "http://www.opengis.net/def/crs/EPSG/0/5514", want: SJTSK},
		{name: "https", input: "https://www.opengis.net/def/crs/EPSG/0/4326", want: WGS84},
		{name: "crs84", input: "CRS84", want: WGS84},
		{name: "ogc crs84", input: "OGC:CRS84", want: WGS84},
		{name: "padded", input: "  EPSG:5514 ", want: SJTSK},
		{name: "other authority", input: "ESRI:102067", wantErr: true},
		{name: "non numeric", input: "EPSG:abc", wantErr: true},
		{name: "zero", input: "EPSG:0", wantErr: true},
		{name: "garbage", input: "krovak", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReferenceSystem_String(t *testing.T) {
	assert.Equal(t, "EPSG:5514", SJTSK.String())
	assert.Equal(t, "http://www.opengis.net/def/crs/EPSG/0/4326", WGS84.URI())
	assert.True(t, WGS84.IsGeographic())
	assert.False(t, SJTSK.IsGeographic())
	assert.Equal(t, SJTSK, MustParse(SJTSK.URI()))
}

func TestMustParse_panics(t *testing.T) {
	assert.Panics(t, func() { MustParse("nope") })
}

func TestForEPSG(t *testing.T) {
	assert.Equal(t, 4326, ForEPSG(4326).EPSG())
	assert.Equal(t, 5514, ForEPSG(5514).EPSG())
	assert.Nil(t, ForEPSG(28992))
}
