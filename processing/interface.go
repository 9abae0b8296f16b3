package processing

import (
	"github.com/go-spatial/geom"

	"github.com/pdok/tilefinder/resolver"
)

// Query is a point to resolve. Seq is its position in the source, starting at 0.
type Query struct {
	Seq   int
	ID    string
	Point geom.Point
	// Err is set when the source could not read this query
	Err error
}

type Result struct {
	Query      Query
	Resolution resolver.Resolution
	Err        error
}

// Source sends its queries with ascending Seq and closes the channel when done
type Source interface {
	ReadQueries(chan<- Query)
}

// Target receives the results in Seq order and must drain the channel until it is closed
type Target interface {
	WriteResults(<-chan Result)
}
