package features

import (
	"math"
	"strconv"

	"github.com/sxyz5675/Steamlit-Dashboard/internal/dataset"
	apierrors "github.com/sxyz5675/Steamlit-Dashboard/internal/errors"
)

// DefaultChargeBins is the number of MonthlyCharges buckets on the dashboard.
const DefaultChargeBins = 10

// Binning is an ordered categorical column. Labels[k] names the interval
// (Edges[k], Edges[k+1]]; the first interval is closed on both ends.
// Assign[i] is the bucket of row i, or -1 when the row has no value.
type Binning struct {
	Edges  []float64
	Labels []string
	Assign []int
}

// Categories returns the number of buckets.
func (b Binning) Categories() int {
	return len(b.Labels)
}

// Label returns the bucket label of row i, or "NaN" for unassigned rows.
func (b Binning) Label(i int) string {
	if k := b.Assign[i]; k >= 0 {
		return b.Labels[k]
	}
	return "NaN"
}

// BinMonthlyCharges cuts MonthlyCharges into bins equal-width intervals over
// the observed [min, max]. The maximum falls in the last bucket. When every
// value is equal there is a single bucket [v, v]; when no row has a value
// there are none.
func BinMonthlyCharges(table *dataset.Table, bins int) (Binning, error) {
	if bins < 1 {
		return Binning{}, apierrors.NewAppValidationError("bins must be at least 1").
			WithContext("bins", bins)
	}

	values := make([]float64, table.Len())
	lo, hi := math.Inf(1), math.Inf(-1)
	for i, c := range table.Customers {
		v := c.MonthlyCharges
		values[i] = v
		if math.IsNaN(v) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	assign := make([]int, len(values))
	for i := range assign {
		assign[i] = -1
	}
	if math.IsInf(lo, 1) {
		return Binning{Assign: assign}, nil
	}

	if lo == hi {
		for i, v := range values {
			if !math.IsNaN(v) {
				assign[i] = 0
			}
		}
		return Binning{
			Edges:  []float64{lo, hi},
			Labels: []string{intervalLabel(lo, hi, true)},
			Assign: assign,
		}, nil
	}

	width := (hi - lo) / float64(bins)
	edges := make([]float64, bins+1)
	for k := range edges {
		edges[k] = lo + float64(k)*width
	}
	edges[bins] = hi

	labels := make([]string, bins)
	for k := range labels {
		labels[k] = intervalLabel(edges[k], edges[k+1], k == 0)
	}

	for i, v := range values {
		if math.IsNaN(v) {
			continue
		}
		assign[i] = bucketOf(v, edges)
	}

	return Binning{Edges: edges, Labels: labels, Assign: assign}, nil
}

// bucketOf finds k with edges[k] < v <= edges[k+1], putting edges[0] in
// bucket 0. The arithmetic guess is corrected against the stored edges.
func bucketOf(v float64, edges []float64) int {
	n := len(edges) - 1
	width := (edges[n] - edges[0]) / float64(n)
	k := int(math.Ceil((v-edges[0])/width)) - 1
	k = max(0, min(k, n-1))
	for k > 0 && v <= edges[k] {
		k--
	}
	for k < n-1 && v > edges[k+1] {
		k++
	}
	return k
}

func intervalLabel(lo, hi float64, closedLeft bool) string {
	open := "("
	if closedLeft {
		open = "["
	}
	return open + formatEdge(lo) + ", " + formatEdge(hi) + "]"
}

func formatEdge(v float64) string {
	return strconv.FormatFloat(math.Round(v*1000)/1000, 'f', -1, 64)
}
