package dashboard

import (
	"log/slog"

	"github.com/sxyz5675/Steamlit-Dashboard/internal/dataset"
	"github.com/sxyz5675/Steamlit-Dashboard/internal/features"
	"github.com/sxyz5675/Steamlit-Dashboard/internal/infrastructure"
)

// DefaultPreviewRows is how many rows the data view shows.
const DefaultPreviewRows = 10

// Options tunes page construction.
type Options struct {
	PreviewRows int
}

// RenderContext is everything one page build reads. It is created per
// request and dropped once the page is written.
type RenderContext struct {
	// Table is the table as loaded, before derived columns.
	Table    *dataset.Table
	Features *features.Set
	Options  Options
	Logger   *slog.Logger
}

// NewRenderContext bundles a loaded table with its derived features.
func NewRenderContext(table *dataset.Table, set *features.Set, opts Options, logger *slog.Logger) *RenderContext {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	if opts.PreviewRows < 0 {
		opts.PreviewRows = 0
	}
	return &RenderContext{
		Table:    table,
		Features: set,
		Options:  opts,
		Logger:   infrastructure.WithComponent(logger, "dashboard"),
	}
}

func (rc *RenderContext) tenures() []float64 {
	out := make([]float64, len(rc.Table.Customers))
	for i, c := range rc.Table.Customers {
		out[i] = c.Tenure
	}
	return out
}

func (rc *RenderContext) monthlyCharges() []float64 {
	out := make([]float64, len(rc.Table.Customers))
	for i, c := range rc.Table.Customers {
		out[i] = c.MonthlyCharges
	}
	return out
}
