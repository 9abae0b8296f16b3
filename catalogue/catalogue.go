// Package catalogue materializes the published list of tile footprints once,
// so entries can be addressed directly by their position.
package catalogue

import (
	"errors"
	"fmt"
	"slices"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/pdok/tilefinder/crs"
	"github.com/pdok/tilefinder/geomhelp"
	"github.com/pdok/tilefinder/mathhelp"
)

// ID is the position of an entry in the catalogue, 0..Len()-1
type ID int

var ErrUnknownID = errors.New("unknown catalogue id")

// Entry pairs a tile footprint with the code that identifies the tile to whoever downloads it
type Entry struct {
	Code string
	// Location is where the tile can be fetched from, if the source knows
	Location string
	// Footprint is an open ring in the catalogue's reference system
	Footprint [][2]float64
}

// Catalogue is immutable after New
type Catalogue struct {
	rs      crs.ReferenceSystem
	entries []Entry
	codes   *orderedmap.OrderedMap[string, ID]
}

// InvalidEntryError indicates an entry that cannot serve as a tile footprint
type InvalidEntryError struct {
	Index  int
	Code   string
	Reason string
}

func (e *InvalidEntryError) Error() string {
	return fmt.Sprintf("invalid catalogue entry %d (%q): %s", e.Index, e.Code, e.Reason)
}

// New validates and copies the entries. A closing vertex equal to the first is dropped.
// Codes need not be unique, Lookup returns the first entry with a code.
func New(rs crs.ReferenceSystem, entries []Entry) (*Catalogue, error) {
	c := &Catalogue{
		rs:      rs,
		entries: make([]Entry, len(entries)),
		codes:   orderedmap.New[string, ID](orderedmap.WithCapacity[string, ID](len(entries))),
	}
	for i, entry := range entries {
		footprint := slices.Clone(geomhelp.OpenRing(entry.Footprint))
		if reason := checkFootprint(footprint); reason != "" {
			return nil, &InvalidEntryError{Index: i, Code: entry.Code, Reason: reason}
		}
		c.entries[i] = Entry{Code: entry.Code, Location: entry.Location, Footprint: footprint}
		if _, present := c.codes.Get(entry.Code); !present {
			c.codes.Set(entry.Code, ID(i))
		}
	}
	return c, nil
}

func checkFootprint(footprint [][2]float64) string {
	for _, vertex := range footprint {
		if !mathhelp.IsFinite(vertex[0], vertex[1]) {
			return "non-finite vertex"
		}
	}
	if geomhelp.DistinctVertices(footprint) < 3 {
		return "fewer than 3 distinct vertices"
	}
	extent := geomhelp.RingExtent(footprint)
	if extent.XSpan() <= 0 || extent.YSpan() <= 0 {
		return "degenerate extent"
	}
	if geomhelp.Shoelace(footprint) == 0 {
		return "zero area"
	}
	return ""
}

func (c *Catalogue) ReferenceSystem() crs.ReferenceSystem {
	return c.rs
}

func (c *Catalogue) Len() int {
	return len(c.entries)
}

// Entry returns a copy of the entry at id
func (c *Catalogue) Entry(id ID) (Entry, error) {
	if id < 0 || int(id) >= len(c.entries) {
		return Entry{}, fmt.Errorf("%w: %d, catalogue has %d entries", ErrUnknownID, id, len(c.entries))
	}
	entry := c.entries[id]
	entry.Footprint = slices.Clone(entry.Footprint)
	return entry, nil
}

// Lookup finds the first entry with the given code
func (c *Catalogue) Lookup(code string) (ID, bool) {
	return c.codes.Get(code)
}

// Codes lists the distinct codes in catalogue order
func (c *Catalogue) Codes() []string {
	codes := make([]string, 0, c.codes.Len())
	for pair := c.codes.Oldest(); pair != nil; pair = pair.Next() {
		codes = append(codes, pair.Key)
	}
	return codes
}

// Reproject returns a copy of the catalogue with every footprint in the target reference system
func (c *Catalogue) Reproject(target crs.ReferenceSystem) (*Catalogue, error) {
	t, err := crs.New(c.rs, target)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, len(c.entries))
	for i, entry := range c.entries {
		footprint, err := t.Ring(entry.Footprint)
		if err != nil {
			return nil, fmt.Errorf("entry %d (%s): %w", i, entry.Code, err)
		}
		entries[i] = Entry{Code: entry.Code, Location: entry.Location, Footprint: footprint}
	}
	return New(target, entries)
}
