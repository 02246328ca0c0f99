package features

import (
	"context"
	"log/slog"
	"math"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/sxyz5675/Steamlit-Dashboard/internal/dataset"
	apierrors "github.com/sxyz5675/Steamlit-Dashboard/internal/errors"
	"github.com/sxyz5675/Steamlit-Dashboard/internal/infrastructure"
)

// Names of the columns Derive appends to the table.
const (
	ColChurnVal               = "ChurnVal"
	ColMonthlyChargesCategory = "MonthlyChargesCategory"
)

// Options configures Derive.
type Options struct {
	BlankPlaceholder  string
	MalformedCharges  MalformedPolicy
	ChargeBins        int
	StrictChurnLabels bool
	Logger            *slog.Logger
}

// DefaultOptions mirrors the dashboard defaults.
func DefaultOptions() Options {
	return Options{
		BlankPlaceholder: DefaultPlaceholder,
		MalformedCharges: PolicyFail,
		ChargeBins:       DefaultChargeBins,
	}
}

// Set is everything derived from one loaded table.
type Set struct {
	// Table is the source table with ChurnVal and MonthlyChargesCategory appended.
	Table          *dataset.Table
	ChurnFlags     []ChurnFlag
	Charges        ChargeSubset
	TenureEstimate []float64
	ChargeBins     Binning
}

// UndefinedFlags counts rows whose Churn label did not map.
func (s *Set) UndefinedFlags() int {
	return len(UndefinedRows(s.ChurnFlags))
}

// ExcludedRows counts rows missing from the cleaned charge subset.
func (s *Set) ExcludedRows() int {
	return s.Table.Len() - s.Charges.Len()
}

// NonFiniteEstimates counts tenure estimates that are NaN or infinite.
func (s *Set) NonFiniteEstimates() int {
	n := 0
	for _, v := range s.TenureEstimate {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			n++
		}
	}
	return n
}

// Derive runs the four derivations over table and appends the churn flag and
// charge category to a copy of it.
func Derive(ctx context.Context, table *dataset.Table, opts Options) (*Set, error) {
	ctx, span := otel.Tracer(infrastructure.InstrumentationName).Start(ctx, "features.Derive")
	defer span.End()

	logger := opts.Logger
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	logger = infrastructure.WithComponent(logger, "features")

	if opts.MalformedCharges == "" {
		opts.MalformedCharges = PolicyFail
	}
	if opts.ChargeBins == 0 {
		opts.ChargeBins = DefaultChargeBins
	}

	fail := func(err error) (*Set, error) {
		infrastructure.RecordError(ctx, err)
		return nil, err
	}

	flags := DeriveChurnFlag(table)
	if undefined := UndefinedRows(flags); len(undefined) > 0 {
		if opts.StrictChurnLabels {
			row := undefined[0]
			return fail(apierrors.NewMappingError(
				"Churn label "+strconv.Quote(table.Customers[row].Churn)+" is neither Yes nor No").
				WithContext("column", dataset.ColChurn).
				WithContext("row", row+1).
				WithContext("undefined_rows", len(undefined)))
		}
		logger.WarnContext(ctx, "churn labels outside Yes/No left undefined",
			slog.Int("rows", len(undefined)),
			slog.Int("first_row", undefined[0]+1))
	}

	charges, err := CleanTotalCharges(table, opts.BlankPlaceholder, opts.MalformedCharges)
	if err != nil {
		return fail(err)
	}
	if len(charges.Skipped) > 0 {
		logger.WarnContext(ctx, "malformed TotalCharges rows skipped",
			slog.Int("rows", len(charges.Skipped)),
			slog.Int("first_row", charges.Skipped[0]+1))
	}

	estimate := EstimateTenure(charges)

	binning, err := BinMonthlyCharges(table, opts.ChargeBins)
	if err != nil {
		return fail(err)
	}

	flagCol := make([]string, len(flags))
	for i, f := range flags {
		flagCol[i] = f.String()
	}
	catCol := make([]string, len(binning.Assign))
	for i := range catCol {
		catCol[i] = binning.Label(i)
	}

	out, err := table.WithColumn(ColChurnVal, flagCol)
	if err != nil {
		return fail(err)
	}
	if out, err = out.WithColumn(ColMonthlyChargesCategory, catCol); err != nil {
		return fail(err)
	}

	set := &Set{
		Table:          out,
		ChurnFlags:     flags,
		Charges:        charges,
		TenureEstimate: estimate,
		ChargeBins:     binning,
	}

	span.SetAttributes(
		attribute.Int("features.rows", table.Len()),
		attribute.Int("features.charges.kept", charges.Len()),
		attribute.Int("features.churn.undefined", set.UndefinedFlags()),
		attribute.Int("features.bins", binning.Categories()),
	)
	logger.DebugContext(ctx, "features derived",
		slog.Int("rows", table.Len()),
		slog.Int("charges_kept", charges.Len()),
		slog.Int("charges_excluded", set.ExcludedRows()),
		slog.Int("bins", binning.Categories()))

	return set, nil
}
