package catalogue

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/pdok/tilefinder/crs"
)

const (
	AtomNamespace   = "http://www.w3.org/2005/Atom"
	GeoRSSNamespace = "http://www.georss.org/georss"

	// DMR5GCodePrefix precedes the tile code in the ids of the DMR 5G (S-JTSK) dataset feed,
	// e.g. https://atom.cuzk.cz/DMR5G-SJTSK/datasetFeeds/CUZK_DMR5G-SJTSK_PRAH70.xml
	DMR5GCodePrefix = "CUZK_DMR5G-SJTSK_"
)

// XML structures for parsing an Atom download service feed with GeoRSS footprints
type xmlFeed struct {
	XMLName xml.Name   `xml:"http://www.w3.org/2005/Atom feed"`
	Entries []xmlEntry `xml:"http://www.w3.org/2005/Atom entry"`
}

type xmlEntry struct {
	ID      string    `xml:"http://www.w3.org/2005/Atom id"`
	Title   string    `xml:"http://www.w3.org/2005/Atom title"`
	Links   []xmlLink `xml:"http://www.w3.org/2005/Atom link"`
	Polygon string    `xml:"http://www.georss.org/georss polygon"`
}

type xmlLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

// LoadAtom loads a catalogue from a local copy of an Atom feed
func LoadAtom(path string, codePrefix string) (*Catalogue, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalogue: %w", err)
	}
	defer file.Close()

	return ParseAtom(file, codePrefix)
}

// ParseAtom reads one entry per tile. Each entry's georss:polygon holds "lat lon" pairs in WGS 84,
// the resulting footprints are (lon, lat).
func ParseAtom(r io.Reader, codePrefix string) (*Catalogue, error) {
	var feed xmlFeed
	decoder := xml.NewDecoder(r)
	if err := decoder.Decode(&feed); err != nil {
		return nil, fmt.Errorf("parse XML: %w", err)
	}

	entries := make([]Entry, 0, len(feed.Entries))
	for i, xe := range feed.Entries {
		footprint, err := parseGeoRSSPolygon(xe.Polygon)
		if err != nil {
			return nil, fmt.Errorf("entry %d (%s): %w", i, xe.ID, err)
		}
		entries = append(entries, Entry{
			Code:      TileCode(xe.ID, codePrefix),
			Location:  entryLocation(xe),
			Footprint: footprint,
		})
	}
	return New(crs.WGS84, entries)
}

// TileCode derives a tile's code from the id of its Atom entry: the part after the prefix,
// without extension. Without the prefix the last path segment is used.
func TileCode(atomID string, prefix string) string {
	atomID = strings.TrimSpace(atomID)
	code := path.Base(atomID)
	if i := strings.LastIndex(atomID, prefix); prefix != "" && i >= 0 {
		code = atomID[i+len(prefix):]
	}
	return strings.TrimSuffix(code, path.Ext(code))
}

// entryLocation prefers the entry's dataset feed link over its id
func entryLocation(xe xmlEntry) string {
	for _, link := range xe.Links {
		if link.Rel == "alternate" && strings.Contains(link.Type, "atom") {
			return link.Href
		}
	}
	return strings.TrimSpace(xe.ID)
}

func parseGeoRSSPolygon(text string) ([][2]float64, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil, fmt.Errorf("missing georss:polygon")
	}
	if len(fields)%2 != 0 {
		return nil, fmt.Errorf("georss:polygon has an odd number of values (%d)", len(fields))
	}
	ring := make([][2]float64, len(fields)/2)
	for i := range ring {
		lat, err := strconv.ParseFloat(fields[2*i], 64)
		if err != nil {
			return nil, fmt.Errorf("georss:polygon: %w", err)
		}
		lon, err := strconv.ParseFloat(fields[2*i+1], 64)
		if err != nil {
			return nil, fmt.Errorf("georss:polygon: %w", err)
		}
		ring[i] = [2]float64{lon, lat}
	}
	return ring, nil
}
