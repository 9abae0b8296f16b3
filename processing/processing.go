// Package processing takes care of the logistics around reading queries from a Source
// and writing results to a Target. Not the resolution itself.
package processing

import (
	"slices"
	"sync"

	"github.com/go-spatial/geom"
	"github.com/rs/zerolog"

	"github.com/pdok/tilefinder/resolver"
)

type ResolveFunc func(pt geom.Point) (resolver.Resolution, error)

// Stats counts the results by outcome
type Stats struct {
	Total      uint64
	ReadErrors uint64
	Outcomes   map[resolver.FailureKind]uint64
}

// resolveQueries resolves the incoming queries until the channel is closed
func resolveQueries(queries <-chan Query, results chan<- Result, resolve ResolveFunc) {
	for query := range queries {
		if query.Err != nil {
			results <- Result{Query: query, Err: query.Err}
			continue
		}
		resolution, err := resolve(query.Point)
		results <- Result{Query: query, Resolution: resolution, Err: err}
	}
}

// orderResults restores the source order of the results the workers finish out of order
func orderResults(unordered <-chan Result, ordered chan<- Result, stats *Stats) {
	pending := make(map[int]Result)
	next := 0
	for result := range unordered {
		pending[result.Query.Seq] = result
		for {
			r, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			stats.count(r)
			ordered <- r
			next++
		}
	}
	// gaps in Seq: flush whatever is left in order
	seqs := make([]int, 0, len(pending))
	for seq := range pending {
		seqs = append(seqs, seq)
	}
	slices.Sort(seqs)
	for _, seq := range seqs {
		stats.count(pending[seq])
		ordered <- pending[seq]
	}
	close(ordered)
}

func (s *Stats) count(r Result) {
	s.Total++
	if r.Query.Err != nil {
		s.ReadErrors++
		return
	}
	s.Outcomes[resolver.KindOf(r.Err)]++
}

// ProcessQueries resolves every query of the source with the given number of workers
// and writes the results, in source order, to the target.
func ProcessQueries(source Source, target Target, resolve ResolveFunc, workers int, logger zerolog.Logger) Stats {
	if workers < 1 {
		workers = 1
	}
	queries := make(chan Query, workers)
	unordered := make(chan Result, workers)
	ordered := make(chan Result)
	stats := Stats{Outcomes: make(map[resolver.FailureKind]uint64)}

	wg := sync.WaitGroup{}
	wg.Add(1)
	go func() {
		defer wg.Done()
		target.WriteResults(ordered)
	}()
	go orderResults(unordered, ordered, &stats)

	workersWg := sync.WaitGroup{}
	for i := 0; i < workers; i++ {
		workersWg.Add(1)
		go func() {
			defer workersWg.Done()
			resolveQueries(queries, unordered, resolve)
		}()
	}
	go func() {
		workersWg.Wait()
		close(unordered)
	}()
	go source.ReadQueries(queries)

	wg.Wait()

	event := logger.Info().Uint64("total", stats.Total).Uint64("readErrors", stats.ReadErrors)
	for kind, n := range stats.Outcomes {
		event = event.Uint64(kind.String(), n)
	}
	event.Msg("processed queries")
	return stats
}
