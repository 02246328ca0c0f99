package stats

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Curve is a sampled function, X ascending.
type Curve struct {
	X []float64
	Y []float64
}

// Empty reports whether the curve has no points.
func (c Curve) Empty() bool {
	return len(c.X) == 0
}

// KDE grid and histogram defaults.
const (
	KDEGridSize     = 200
	KDECut          = 3.0
	MaxHistogramBin = 50
)

// Finite returns the finite values of xs and how many were dropped.
func Finite(xs []float64) ([]float64, int) {
	out := make([]float64, 0, len(xs))
	for _, x := range xs {
		if !math.IsNaN(x) && !math.IsInf(x, 0) {
			out = append(out, x)
		}
	}
	return out, len(xs) - len(out)
}

// ScottBandwidth is the Gaussian kernel width n^(-1/5) * sample std.
func ScottBandwidth(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	return math.Pow(float64(len(xs)), -0.2) * stat.StdDev(xs, nil)
}

// KDE evaluates a Gaussian kernel density estimate of xs on gridSize evenly
// spaced points from min-cut*bw to max+cut*bw. Non-finite values are
// ignored. The curve is empty when fewer than two values remain or they do
// not vary.
func KDE(xs []float64, gridSize int, cut float64) Curve {
	data, _ := Finite(xs)
	bw := ScottBandwidth(data)
	if bw == 0 || math.IsNaN(bw) || gridSize < 2 {
		return Curve{}
	}

	lo := floats.Min(data) - cut*bw
	hi := floats.Max(data) + cut*bw
	grid := make([]float64, gridSize)
	floats.Span(grid, lo, hi)

	norm := 1 / (float64(len(data)) * bw * math.Sqrt(2*math.Pi))
	ys := make([]float64, gridSize)
	for i, x := range grid {
		sum := 0.0
		for _, d := range data {
			z := (x - d) / bw
			sum += math.Exp(-0.5 * z * z)
		}
		ys[i] = sum * norm
	}
	return Curve{X: grid, Y: ys}
}

// Histogram holds bin edges and the density of each bin, so the bar areas
// sum to one.
type Histogram struct {
	Edges   []float64
	Density []float64
}

// Bins returns the number of bins.
func (h Histogram) Bins() int {
	return len(h.Density)
}

// FreedmanDiaconisBins picks a bin count from the interquartile range,
// falling back to sqrt(n) when the IQR is zero, capped at maxBins.
func FreedmanDiaconisBins(xs []float64, maxBins int) int {
	n := len(xs)
	if n == 0 {
		return 0
	}
	sorted := slices.Clone(xs)
	slices.Sort(sorted)

	iqr := stat.Quantile(0.75, stat.LinInterp, sorted, nil) - stat.Quantile(0.25, stat.LinInterp, sorted, nil)
	h := 2 * iqr * math.Pow(float64(n), -1.0/3)

	var bins int
	if h == 0 {
		bins = int(math.Sqrt(float64(n)))
	} else {
		bins = int(math.Ceil((sorted[n-1] - sorted[0]) / h))
	}
	return max(1, min(bins, maxBins))
}

// DensityHistogram bins the finite values of xs into equal-width bins chosen
// by FreedmanDiaconisBins. A zero-width range gets a single unit-wide bin
// centred on the value.
func DensityHistogram(xs []float64, maxBins int) Histogram {
	data, _ := Finite(xs)
	if len(data) == 0 {
		return Histogram{}
	}

	bins := FreedmanDiaconisBins(data, maxBins)
	lo, hi := floats.Min(data), floats.Max(data)
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
		bins = 1
	}

	edges := make([]float64, bins+1)
	floats.Span(edges, lo, hi)
	width := (hi - lo) / float64(bins)

	// stat.Histogram treats the last divider as exclusive; widen it by one
	// ulp so the maximum lands in the last bin.
	dividers := slices.Clone(edges)
	dividers[bins] = math.Nextafter(hi, math.Inf(1))
	sorted := slices.Clone(data)
	slices.Sort(sorted)
	counts := stat.Histogram(nil, dividers, sorted, nil)

	density := make([]float64, bins)
	for k, c := range counts {
		density[k] = c / (float64(len(data)) * width)
	}
	return Histogram{Edges: edges, Density: density}
}
