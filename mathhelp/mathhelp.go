package mathhelp

import (
	"math"

	"golang.org/x/exp/constraints"
)

func BetweenInc[T constraints.Float](f, p, q T) bool {
	if p <= q {
		return p <= f && f <= q
	}
	return q <= f && f <= p
}

// FloorDivMod returns the whole number of m's that fit in d (rounding towards -inf)
// and the non-negative remainder, such that d = k*m + r and 0 <= r < m (for positive m).
// i.e., FloorDivMod(-1, 5) returns -1, 4.
func FloorDivMod[T constraints.Float](d, m T) (k, r T) {
	k = T(math.Floor(float64(d / m)))
	r = d - k*m
	// d/m may have been rounded onto (or just past) a whole number
	switch {
	case r < 0:
		k--
		r += m
	case r >= m:
		k++
		r -= m
	}
	return k, r
}

func IsFinite(fs ...float64) bool {
	for _, f := range fs {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}
