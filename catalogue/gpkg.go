package catalogue

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/go-spatial/geom"
	"github.com/go-spatial/geom/encoding/gpkg"

	"github.com/pdok/tilefinder/crs"
)

const (
	DefaultTable          = "tiles"
	DefaultCodeColumn     = "code"
	DefaultLocationColumn = "location"
	defaultGeometryColumn = "geom"
)

// GeoPackageTable names the feature table holding one footprint per row
type GeoPackageTable struct {
	Name           string
	CodeColumn     string
	LocationColumn string // optional
}

func (t GeoPackageTable) withDefaults() GeoPackageTable {
	if t.Name == "" {
		t.Name = DefaultTable
	}
	if t.CodeColumn == "" {
		t.CodeColumn = DefaultCodeColumn
	}
	return t
}

// LoadGeoPackage reads footprints in rowid order from a (multi)polygon table.
// The exterior ring of a polygon, or of a multipolygon's only part, becomes the footprint.
func LoadGeoPackage(path string, table GeoPackageTable) (*Catalogue, error) {
	table = table.withDefaults()
	handle, err := gpkg.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening GeoPackage: %w", err)
	}
	defer handle.Close()

	var gcolumn string
	var srsID int
	row := handle.QueryRow(`SELECT column_name, srs_id FROM gpkg_geometry_columns WHERE table_name = ?;`, table.Name)
	if err = row.Scan(&gcolumn, &srsID); err != nil {
		return nil, fmt.Errorf("no geometry column for table %q: %w", table.Name, err)
	}
	rs, err := referenceSystem(handle, srsID)
	if err != nil {
		return nil, err
	}

	columns := []string{quote(table.CodeColumn), quote(gcolumn)}
	if table.LocationColumn != "" {
		columns = append(columns, quote(table.LocationColumn))
	}
	query := `SELECT ` + strings.Join(columns, `,`) + ` FROM ` + quote(table.Name) + ` ORDER BY rowid;`
	rows, err := handle.Query(query)
	if err != nil {
		return nil, fmt.Errorf("error reading table %q: %w", table.Name, err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var code, location sql.NullString
		var blob []byte
		dest := []interface{}{&code, &blob}
		if table.LocationColumn != "" {
			dest = append(dest, &location)
		}
		if err = rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("err reading row values: %w", err)
		}
		footprint, err := decodeFootprint(blob)
		if err != nil {
			return nil, fmt.Errorf("row %d (%s): %w", len(entries), code.String, err)
		}
		entries = append(entries, Entry{Code: code.String, Location: location.String, Footprint: footprint})
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return New(rs, entries)
}

func decodeFootprint(blob []byte) ([][2]float64, error) {
	if blob == nil {
		return nil, fmt.Errorf("missing geometry")
	}
	sb, err := gpkg.DecodeGeometry(blob)
	if err != nil {
		return nil, fmt.Errorf("error decoding the geometry: %w", err)
	}
	switch g := sb.Geometry.(type) {
	case geom.Polygon:
		if len(g) == 0 {
			return nil, fmt.Errorf("empty polygon")
		}
		return g[0], nil
	case geom.MultiPolygon:
		if len(g) != 1 || len(g[0]) == 0 {
			return nil, fmt.Errorf("multipolygon with %d parts, want exactly 1", len(g))
		}
		return g[0][0], nil
	default:
		return nil, fmt.Errorf("unsupported geometry type %T", sb.Geometry)
	}
}

// referenceSystem resolves a gpkg_spatial_ref_sys row to one of the supported reference systems
func referenceSystem(h *gpkg.Handle, srsID int) (crs.ReferenceSystem, error) {
	var organization string
	var code int
	row := h.QueryRow(`SELECT organization, organization_coordsys_id FROM gpkg_spatial_ref_sys WHERE srs_id = ?;`, srsID)
	if err := row.Scan(&organization, &code); err != nil {
		return crs.ReferenceSystem{}, fmt.Errorf("unknown srs_id %d: %w", srsID, err)
	}
	rs, err := crs.Parse(fmt.Sprintf("%s:%d", organization, code))
	if err != nil {
		return crs.ReferenceSystem{}, fmt.Errorf("srs_id %d: %w", srsID, err)
	}
	if crs.ForEPSG(rs.Code) == nil {
		return crs.ReferenceSystem{}, fmt.Errorf("srs_id %d (%v): %w", srsID, rs, crs.ErrUnsupportedReferenceSystem)
	}
	return rs, nil
}

var spatialReferenceSystems = map[int]gpkg.SpatialReferenceSystem{
	crs.EPSGWGS84: {
		Name:                   "WGS 84 geodetic",
		ID:                     crs.EPSGWGS84,
		Organization:           "EPSG",
		OrganizationCoordsysID: crs.EPSGWGS84,
		Definition:             `GEOGCS["WGS 84",DATUM["WGS_1984",SPHEROID["WGS 84",6378137,298.257223563,AUTHORITY["EPSG","7030"]],AUTHORITY["EPSG","6326"]],PRIMEM["Greenwich",0,AUTHORITY["EPSG","8901"]],UNIT["degree",0.0174532925199433,AUTHORITY["EPSG","9122"]],AUTHORITY["EPSG","4326"]]`,
		Description:            "longitude/latitude coordinates in decimal degrees on the WGS 84 spheroid",
	},
	crs.EPSGSJTSK: {
		Name:                   "S-JTSK / Krovak East North",
		ID:                     crs.EPSGSJTSK,
		Organization:           "EPSG",
		OrganizationCoordsysID: crs.EPSGSJTSK,
		Definition:             `PROJCS["S-JTSK / Krovak East North",GEOGCS["S-JTSK",DATUM["System_Jednotne_Trigonometricke_Site_Katastralni",SPHEROID["Bessel 1841",6377397.155,299.1528128,AUTHORITY["EPSG","7004"]],TOWGS84[570.8,85.7,462.8,4.998,1.587,5.261,3.56],AUTHORITY["EPSG","6156"]],PRIMEM["Greenwich",0,AUTHORITY["EPSG","8901"]],UNIT["degree",0.0174532925199433,AUTHORITY["EPSG","9122"]],AUTHORITY["EPSG","4156"]],PROJECTION["Krovak"],PARAMETER["latitude_of_center",49.5],PARAMETER["longitude_of_center",24.83333333333333],PARAMETER["azimuth",30.28813972222222],PARAMETER["pseudo_standard_parallel_1",78.5],PARAMETER["scale_factor",0.9999],PARAMETER["false_easting",0],PARAMETER["false_northing",0],UNIT["metre",1,AUTHORITY["EPSG","9001"]],AXIS["X",EAST],AXIS["Y",NORTH],AUTHORITY["EPSG","5514"]]`,
		Description:            "S-JTSK / Krovak East North",
	},
}

// WriteGeoPackage stores the catalogue as a polygon table, one row per entry in id order
func WriteGeoPackage(path string, table GeoPackageTable, c *Catalogue) error {
	table = table.withDefaults()
	if table.LocationColumn == "" {
		table.LocationColumn = DefaultLocationColumn
	}
	srs, ok := spatialReferenceSystems[c.rs.Code]
	if !ok {
		return fmt.Errorf("%v: %w", c.rs, crs.ErrUnsupportedReferenceSystem)
	}

	handle, err := gpkg.Open(path)
	if err != nil {
		return fmt.Errorf("error opening GeoPackage: %w", err)
	}
	defer handle.Close()

	if err = handle.UpdateSRS(srs); err != nil {
		return err
	}
	create := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s(fid INTEGER PRIMARY KEY, %s TEXT NOT NULL, %s TEXT, %s POLYGON);`,
		quote(table.Name), quote(table.CodeColumn), quote(table.LocationColumn), quote(defaultGeometryColumn))
	if _, err = handle.Exec(create); err != nil {
		return fmt.Errorf("error building table in target GeoPackage: %w", err)
	}
	err = handle.AddGeometryTable(gpkg.TableDescription{
		Name:          table.Name,
		ShortName:     table.Name,
		Description:   "tile footprints",
		GeometryField: defaultGeometryColumn,
		GeometryType:  gpkg.Polygon,
		SRS:           int32(srs.ID),
		//
		Z: gpkg.Prohibited,
		M: gpkg.Prohibited,
	})
	if err != nil {
		return fmt.Errorf("error adding geometry table in target GeoPackage: %w", err)
	}

	tx, err := handle.Begin()
	if err != nil {
		return fmt.Errorf("could not start a transaction: %w", err)
	}
	insert := fmt.Sprintf(`INSERT INTO %s(fid, %s, %s, %s) VALUES(?, ?, ?, ?)`,
		quote(table.Name), quote(table.CodeColumn), quote(table.LocationColumn), quote(defaultGeometryColumn))
	stmt, err := tx.Prepare(insert)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("could not prepare a statement: %w", err)
	}
	defer stmt.Close()

	var ext *geom.Extent
	for i, entry := range c.entries {
		polygon := geom.Polygon{entry.Footprint}
		sb, err := gpkg.NewBinary(int32(srs.ID), polygon)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("could not create a binary geometry for entry %d: %w", i, err)
		}
		if _, err = stmt.Exec(i+1, entry.Code, entry.Location, sb); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("could not insert entry %d: %w", i, err)
		}
		if ext == nil {
			ext = geom.NewExtent(entry.Footprint...)
		} else {
			ext.AddPoints(entry.Footprint...)
		}
	}
	if err = tx.Commit(); err != nil {
		return err
	}
	if ext == nil {
		return nil
	}
	return handle.UpdateGeometryExtent(table.Name, ext)
}

func quote(identifier string) string {
	return `"` + strings.ReplaceAll(identifier, `"`, `""`) + `"`
}
