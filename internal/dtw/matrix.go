package dtw

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// FullAlignment is the result of an unbanded, anchored DTW alignment
// between a master matrix and a selected user window, as computed by the
// Finalizer (spec §4.10 step 2). Unlike the running Scorer, the full
// matrix is materialized once, so peak memory is O(len(master)*len(user)),
// not O(len(master)*totalStreamLength).
type FullAlignment struct {
	Cost       float64
	PathLength int
}

// FullCost computes the anchored minimum-cost DTW path between master and
// user (no Sakoe-Chiba band — the Finalizer already narrowed the window),
// returning the raw cumulative cost and the alignment path length used
// for sqrt-normalization.
func FullCost(cfg Config, master, user [][]float64) FullAlignment {
	m, u := len(master), len(user)
	if m == 0 || u == 0 {
		return FullAlignment{Cost: math.Inf(1), PathLength: 1}
	}

	s := &Scorer{cfg: cfg}

	d := mat.NewDense(m, u, nil)
	for i := 0; i < m; i++ {
		for j := 0; j < u; j++ {
			cost := s.distance(master[i], user[j])

			best := math.Inf(1)
			if i > 0 {
				best = math.Min(best, d.At(i-1, j))
			}
			if j > 0 {
				best = math.Min(best, d.At(i, j-1))
			}
			if i > 0 && j > 0 {
				best = math.Min(best, d.At(i-1, j-1))
			}
			if i == 0 && j == 0 {
				d.Set(i, j, cost)
				continue
			}
			d.Set(i, j, cost+best)
		}
	}

	// Backtrack from the anchored end (m-1,u-1) to (0,0) to measure the
	// realized path length for normalization.
	i, j := m-1, u-1
	pathLength := 1
	for i > 0 || j > 0 {
		switch {
		case i == 0:
			j--
		case j == 0:
			i--
		default:
			up, left, diag := d.At(i-1, j), d.At(i, j-1), d.At(i-1, j-1)
			switch min3(diag, up, left) {
			case diag:
				i--
				j--
			case up:
				i--
			default:
				j--
			}
		}
		pathLength++
	}

	return FullAlignment{Cost: d.At(m-1, u-1), PathLength: pathLength}
}

// NormalizedCost applies the mandated sqrt(path_length) normalization
// (spec §9) to a FullAlignment.
func (a FullAlignment) NormalizedCost() float64 {
	if a.PathLength <= 0 {
		return math.Inf(1)
	}
	return a.Cost / math.Pow(float64(a.PathLength), normExponent)
}

func min3(a, b, c float64) float64 {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
