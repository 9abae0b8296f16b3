package processing

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-spatial/geom"
	"github.com/rs/zerolog"

	"github.com/pdok/tilefinder/resolver"
)

var csvHeader = []string{"id", "x", "y", "tile", "code", "location", "outcome", "error"}

// CSVSource reads "id,x,y" records, x and y in the query reference system (lon, lat for WGS 84).
// A first record whose coordinates aren't numbers is taken as a header.
type CSVSource struct {
	Reader io.Reader
	Logger zerolog.Logger
}

func (source CSVSource) ReadQueries(queries chan<- Query) {
	defer close(queries)
	reader := csv.NewReader(source.Reader)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	seq := 0
	for first := true; ; first = false {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			var parseErr *csv.ParseError
			if !errors.As(err, &parseErr) {
				// the reader itself failed, nothing more will come
				source.Logger.Error().Err(err).Msg("error reading queries")
				return
			}
			queries <- Query{Seq: seq, Err: err}
			seq++
			continue
		}
		query, err := parseRecord(record)
		if err != nil && first && len(record) == 3 {
			continue // header
		}
		if err != nil {
			line, _ := reader.FieldPos(0)
			err = fmt.Errorf("line %d: %w", line, err)
		}
		query.Seq = seq
		query.Err = err
		queries <- query
		seq++
	}
}

func parseRecord(record []string) (Query, error) {
	if len(record) != 3 {
		return Query{ID: strings.Join(record, ",")}, fmt.Errorf("want 3 fields (id,x,y), got %d", len(record))
	}
	query := Query{ID: record[0]}
	x, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
	if err != nil {
		return query, err
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
	if err != nil {
		return query, err
	}
	query.Point = geom.Point{x, y}
	return query, nil
}

// CSVTarget writes one record per result, preceded by a header
type CSVTarget struct {
	Writer io.Writer
	Logger zerolog.Logger
}

func (target CSVTarget) WriteResults(results <-chan Result) {
	writer := csv.NewWriter(target.Writer)
	failed := false
	write := func(record []string) {
		if failed {
			return
		}
		if err := writer.Write(record); err != nil {
			target.Logger.Error().Err(err).Msg("could not write result")
			failed = true
		}
	}

	write(csvHeader)
	for result := range results {
		write(resultRecord(result))
	}
	writer.Flush()
	if err := writer.Error(); err != nil && !failed {
		target.Logger.Error().Err(err).Msg("could not write results")
	}
}

func resultRecord(result Result) []string {
	record := []string{
		result.Query.ID,
		formatFloat(result.Query.Point[0]),
		formatFloat(result.Query.Point[1]),
		"", "", "",
		resolver.KindOf(result.Err).String(),
		"",
	}
	if result.Query.Err != nil {
		record[1], record[2] = "", ""
		record[6] = "invalid_query"
	}
	if result.Err != nil {
		record[7] = result.Err.Error()
		return record
	}
	record[3] = strconv.Itoa(int(result.Resolution.ID))
	record[4] = result.Resolution.Entry.Code
	record[5] = result.Resolution.Entry.Location
	return record
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
