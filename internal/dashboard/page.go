package dashboard

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/sxyz5675/Steamlit-Dashboard/internal/infrastructure"
)

// Page titles and icon.
const (
	Title     = "Customer Churn Analysis Dashboard 📊"
	PageTitle = "Customer Churn Analysis Dashboard"
	Icon      = "✅"
)

// BuildPage lays the panels out: gender and tenure side by side, the
// full-width churn-rate chart, the data view, then the two distributions
// side by side.
func BuildPage(ctx context.Context, rc *RenderContext) PageSpec {
	ctx, span := otel.Tracer(infrastructure.InstrumentationName).Start(ctx, "dashboard.BuildPage")
	defer span.End()

	preview := Preview(rc)
	page := PageSpec{
		Title:     Title,
		PageTitle: PageTitle,
		Icon:      Icon,
		Sections: []Section{
			{
				Layout: LayoutColumns,
				Charts: []ChartSpec{GenderDistribution(ctx, rc), TenureComparison(ctx, rc)},
			},
			{
				Layout: LayoutFull,
				Charts: []ChartSpec{ChurnByCharges(ctx, rc)},
			},
			{
				Layout:  LayoutTable,
				Heading: preview.Title,
				Table:   &preview,
			},
			{
				Layout: LayoutColumns,
				Charts: []ChartSpec{MonthlyChargesDistribution(ctx, rc), TenureDistribution(ctx, rc)},
			},
		},
	}

	span.SetAttributes(
		attribute.Int("dashboard.charts", len(page.Charts())),
		attribute.Int("dashboard.preview_rows", len(preview.Rows)),
	)
	rc.Logger.DebugContext(ctx, "page built",
		slog.Int("charts", len(page.Charts())),
		slog.Int("preview_rows", len(preview.Rows)))
	return page
}
