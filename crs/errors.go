package crs

import (
	"errors"
	"fmt"
)

var ErrUnsupportedReferenceSystem = errors.New("unsupported reference system")

// TransformError indicates a point could not be carried from one reference system to another
type TransformError struct {
	Source, Target ReferenceSystem
	Point          [2]float64
	Reason         string
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("cannot transform (%v, %v) from %v to %v: %s",
		e.Point[0], e.Point[1], e.Source, e.Target, e.Reason)
}
