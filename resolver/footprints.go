package resolver

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/pdok/tilefinder/catalogue"
	"github.com/pdok/tilefinder/snap"
)

// footprintStore holds every footprint in the projected reference system, indexed by id.
// Snapped footprints are derived on demand and optionally kept in an LRU cache.
type footprintStore struct {
	grid      snap.Grid
	projected [][][2]float64
	snapped   *lru.Cache[catalogue.ID, [][2]float64]
}

func newFootprintStore(grid snap.Grid, projected [][][2]float64, cacheSize int) (*footprintStore, error) {
	store := &footprintStore{grid: grid, projected: projected}
	if cacheSize > 0 {
		cache, err := lru.New[catalogue.ID, [][2]float64](cacheSize)
		if err != nil {
			return nil, err
		}
		store.snapped = cache
	}
	return store, nil
}

func (s *footprintStore) raw(id catalogue.ID) [][2]float64 {
	return s.projected[id]
}

// snap returns the grid-snapped footprint, which callers must not modify
func (s *footprintStore) snap(id catalogue.ID) [][2]float64 {
	if s.snapped == nil {
		return s.grid.Ring(s.projected[id])
	}
	if ring, ok := s.snapped.Get(id); ok {
		return ring
	}
	ring := s.grid.Ring(s.projected[id])
	s.snapped.Add(id, ring)
	return ring
}
