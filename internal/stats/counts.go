package stats

import (
	"cmp"
	"slices"
	"strings"
)

// Count is the frequency of one label.
type Count struct {
	Label string
	Count int
	// Share is Count over the number of non-empty values.
	Share float64
}

// ValueCounts tallies non-empty labels, most frequent first with ties
// broken by label. Empty and whitespace-only values are treated as missing.
func ValueCounts(values []string) []Count {
	index := make(map[string]int)
	var counts []Count
	total := 0
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			continue
		}
		total++
		if i, ok := index[v]; ok {
			counts[i].Count++
			continue
		}
		index[v] = len(counts)
		counts = append(counts, Count{Label: v, Count: 1})
	}

	for i := range counts {
		counts[i].Share = float64(counts[i].Count) / float64(total)
	}
	slices.SortStableFunc(counts, func(a, b Count) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Label, b.Label)
	})
	return counts
}

// GroupStat is the mean of one group.
type GroupStat struct {
	Mean float64
	N    int
	// Valid is false for a group with no members.
	Valid bool
}

// GroupMean averages values[i] into group groups[i] for groups 0..k-1.
// Rows with a negative group or include[i] false are skipped; include may
// be nil to keep every row.
func GroupMean(groups []int, values []float64, include []bool, k int) []GroupStat {
	sums := make([]float64, k)
	out := make([]GroupStat, k)
	for i, g := range groups {
		if g < 0 || g >= k || (include != nil && !include[i]) {
			continue
		}
		sums[g] += values[i]
		out[g].N++
	}
	for g := range out {
		if out[g].N > 0 {
			out[g].Mean = sums[g] / float64(out[g].N)
			out[g].Valid = true
		}
	}
	return out
}
