package features

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/sxyz5675/Steamlit-Dashboard/internal/dataset"
	apierrors "github.com/sxyz5675/Steamlit-Dashboard/internal/errors"
)

// MalformedPolicy decides what happens to a TotalCharges value that passes
// the placeholder filter but still is not a number.
type MalformedPolicy string

const (
	// PolicyFail aborts the derivation with a parsing error.
	PolicyFail MalformedPolicy = "fail"
	// PolicySkip drops the row from the subset and records it in Skipped.
	PolicySkip MalformedPolicy = "skip"
)

// DefaultPlaceholder is what the Telco export writes for unbilled customers.
const DefaultPlaceholder = " "

// ChargeSubset is the cleaned TotalCharges projection. Index holds the
// positions of the kept rows in the source table; the other slices are
// aligned with it.
type ChargeSubset struct {
	Index          []int
	TotalCharges   []float64
	MonthlyCharges []float64
	// Skipped lists rows dropped under PolicySkip.
	Skipped []int
}

// Len returns the number of rows kept.
func (s ChargeSubset) Len() int {
	return len(s.Index)
}

// CleanTotalCharges keeps the rows whose TotalCharges does not contain
// placeholder and converts the kept values to numbers. Excluded rows are
// never parsed. An empty placeholder excludes nothing.
func CleanTotalCharges(table *dataset.Table, placeholder string, policy MalformedPolicy) (ChargeSubset, error) {
	var subset ChargeSubset
	for i, c := range table.Customers {
		raw := c.TotalCharges
		if placeholder != "" && strings.Contains(raw, placeholder) {
			continue
		}

		d, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			if policy == PolicySkip {
				subset.Skipped = append(subset.Skipped, i)
				continue
			}
			return ChargeSubset{}, apierrors.NewParsingError(
				fmt.Sprintf("TotalCharges row %d: %q is not numeric", i+1, raw), err).
				WithContext("column", dataset.ColTotalCharges).
				WithContext("row", i+1)
		}

		subset.Index = append(subset.Index, i)
		subset.TotalCharges = append(subset.TotalCharges, d.InexactFloat64())
		subset.MonthlyCharges = append(subset.MonthlyCharges, c.MonthlyCharges)
	}
	return subset, nil
}

// EstimateTenure divides TotalCharges by MonthlyCharges row by row. Zero or
// NaN monthly charges produce Inf or NaN; callers filter before plotting.
func EstimateTenure(subset ChargeSubset) []float64 {
	out := make([]float64, subset.Len())
	for i := range out {
		out[i] = subset.TotalCharges[i] / subset.MonthlyCharges[i]
	}
	return out
}
