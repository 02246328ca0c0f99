package dashboard

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sxyz5675/Steamlit-Dashboard/internal/dataset"
	"github.com/sxyz5675/Steamlit-Dashboard/internal/features"
	"github.com/sxyz5675/Steamlit-Dashboard/internal/stats"
)

// Colours used by the panels.
const (
	ColorGreen     = "#008000"
	ColorRed       = "#ff0000"
	ColorBlue      = "#0000ff"
	ColorLightBlue = "#add8e6"
	ColorPink      = "#ffc0cb"
	ColorGray      = "#808080"
	DarkBackground = "#2e2e2e"
)

// Pastel is the ten-colour pastel palette cycled over charge buckets.
var Pastel = []string{
	"#a1c9f4", "#ffb482", "#8de5a1", "#ff9f9b", "#d0bbff",
	"#debb9b", "#fab0e4", "#cfcfcf", "#fffea3", "#b9f2f0",
}

// Panel builds one chart from a render context.
type Panel func(ctx context.Context, rc *RenderContext) ChartSpec

// GenderDistribution is the share of customers per gender, in percent.
func GenderDistribution(_ context.Context, rc *RenderContext) ChartSpec {
	genders := make([]string, len(rc.Table.Customers))
	for i, c := range rc.Table.Customers {
		genders[i] = c.Gender
	}

	cycle := []string{ColorGreen, ColorRed}
	counts := stats.ValueCounts(genders)
	bars := make([]Bar, len(counts))
	for i, c := range counts {
		bars[i] = Bar{Label: c.Label, Value: c.Share * 100, Color: cycle[i%len(cycle)]}
	}

	return ChartSpec{
		ID:     "gender",
		Kind:   KindBar,
		Alt:    "Distribution of Gender %",
		YLabel: "Percentage",
		Width:  800,
		Height: 600,
		Bars:   bars,
		YRange: &Range{Min: 0, Max: 100},
	}
}

// TenureComparison overlays the density of recorded tenure and of tenure
// estimated from charges. Non-finite estimates are dropped before the
// density is taken.
func TenureComparison(ctx context.Context, rc *RenderContext) ChartSpec {
	estimates, dropped := stats.Finite(rc.Features.TenureEstimate)
	if dropped > 0 {
		rc.Logger.WarnContext(ctx, "non-finite tenure estimates dropped",
			slog.Int("dropped", dropped),
			slog.Int("kept", len(estimates)))
	}

	actual := stats.KDE(rc.tenures(), stats.KDEGridSize, stats.KDECut)
	calculated := stats.KDE(estimates, stats.KDEGridSize, stats.KDECut)

	spec := ChartSpec{
		ID:         "tenure",
		Kind:       KindLine,
		Alt:        "Tenure comparison",
		XLabel:     "Tenure",
		YLabel:     "Density",
		Width:      800,
		Height:     600,
		ShowLegend: true,
		Series: []Series{
			{Name: "Actual", X: actual.X, Y: actual.Y, Color: ColorBlue, Marker: MarkerCircle},
			{Name: "Calculated", X: calculated.X, Y: calculated.Y, Color: ColorRed, Marker: MarkerPlus, Dashed: true},
		},
	}
	if dropped > 0 {
		spec.Notes = append(spec.Notes, fmt.Sprintf("%d non-finite tenure estimates omitted", dropped))
	}
	return spec
}

// ChurnByCharges is the mean churn flag of each MonthlyCharges bucket in
// bucket order. Rows with an undefined flag are left out of the mean;
// buckets with no rows get no bar.
func ChurnByCharges(_ context.Context, rc *RenderContext) ChartSpec {
	binning := rc.Features.ChargeBins
	flags := rc.Features.ChurnFlags

	values := make([]float64, len(flags))
	include := make([]bool, len(flags))
	for i, f := range flags {
		values[i] = float64(f.Value)
		include[i] = f.Valid
	}

	groups := stats.GroupMean(binning.Assign, values, include, binning.Categories())
	bars := make([]Bar, len(groups))
	for i, g := range groups {
		bars[i] = Bar{
			Label:   binning.Labels[i],
			Value:   g.Mean,
			Color:   Pastel[i%len(Pastel)],
			Missing: !g.Valid,
		}
	}

	return ChartSpec{
		ID:         "churn-by-charges",
		Kind:       KindBar,
		Title:      "Churn rates based on monthly charges",
		XLabel:     features.ColMonthlyChargesCategory,
		YLabel:     features.ColChurnVal,
		Width:      1500,
		Height:     500,
		Bars:       bars,
		Background: DarkBackground,
		Grid:       &Grid{Color: ColorGray, Width: 0.25, Alpha: 0.5},
	}
}

// MonthlyChargesDistribution is a density histogram of MonthlyCharges with a
// KDE overlay.
func MonthlyChargesDistribution(_ context.Context, rc *RenderContext) ChartSpec {
	spec := distribution(rc.monthlyCharges(), ColorLightBlue)
	spec.ID = "monthly-charges"
	spec.Title = "Distribution of Monthly Charges"
	spec.XLabel = dataset.ColMonthlyCharges
	return spec
}

// TenureDistribution is a density histogram of tenure with a KDE overlay.
func TenureDistribution(_ context.Context, rc *RenderContext) ChartSpec {
	spec := distribution(rc.tenures(), ColorPink)
	spec.ID = "tenure-distribution"
	spec.Title = "% of Customers by Tenure"
	spec.XLabel = dataset.ColTenure
	spec.XTicks = []float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90}
	return spec
}

func distribution(xs []float64, color string) ChartSpec {
	hist := stats.DensityHistogram(xs, stats.MaxHistogramBin)
	kde := stats.KDE(xs, stats.KDEGridSize, stats.KDECut)

	spec := ChartSpec{
		Kind:       KindHistogram,
		YLabel:     "Density",
		Width:      600,
		Height:     300,
		XRange:     &Range{Min: 0, Max: 140},
		Background: DarkBackground,
	}
	if hist.Bins() > 0 {
		spec.Histogram = &Bins{Edges: hist.Edges, Heights: hist.Density, Color: color}
	}
	if !kde.Empty() {
		spec.Series = []Series{{Name: "KDE", X: kde.X, Y: kde.Y, Color: color}}
	}
	return spec
}

// Preview is the first rows of the derived table, every column included.
func Preview(rc *RenderContext) TableSpec {
	table := rc.Features.Table
	head := table.Head(rc.Options.PreviewRows)

	rows := make([][]string, len(head))
	for i, r := range head {
		rows[i] = append([]string(nil), r...)
	}
	return TableSpec{
		Title:   "Data View",
		Columns: append([]string(nil), table.Columns...),
		Rows:    rows,
	}
}
