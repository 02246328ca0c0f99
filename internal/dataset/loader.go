package dataset

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/xuri/excelize/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	apierrors "github.com/sxyz5675/Steamlit-Dashboard/internal/errors"
	"github.com/sxyz5675/Steamlit-Dashboard/internal/infrastructure"
)

// Options controls how Load reads the file.
type Options struct {
	// Delimiter separates fields in text files. Zero sniffs the header line.
	Delimiter rune
	Logger    *slog.Logger
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// candidateDelimiters are tried in order when sniffing; ties go to the first.
var candidateDelimiters = []rune{',', ';', '\t', '|'}

// Load reads the table at path. Delimited text goes through gota with type
// detection off so every cell stays a string; .xlsx workbooks are read with
// excelize. The header is then checked against RequiredColumns and each row
// converted to a Customer.
//
// Errors match ErrDatasetNotFound, ErrParse or ErrSchema under errors.Is.
func Load(ctx context.Context, path string, opts Options) (*Table, error) {
	ctx, span := otel.Tracer(infrastructure.InstrumentationName).Start(ctx, "dataset.Load",
		trace.WithAttributes(attribute.String("dataset.path", path)))
	defer span.End()

	logger := opts.Logger
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	logger = infrastructure.WithComponent(logger, "dataset")
	start := time.Now()

	table, err := load(path, opts.Delimiter)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		logger.ErrorContext(ctx, "dataset load failed",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("dataset.rows", table.Len()),
		attribute.Int("dataset.columns", len(table.Columns)),
	)
	logger.InfoContext(ctx, "dataset loaded",
		slog.String("path", path),
		slog.Int("rows", table.Len()),
		slog.Int("columns", len(table.Columns)),
		slog.Duration("duration", time.Since(start)))

	return table, nil
}

func load(path string, delim rune) (*Table, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apierrors.NewNotFoundError("dataset "+path, err).WithContext("path", path)
		}
		return nil, apierrors.NewParsingError("cannot read dataset "+path, err)
	}
	if info.IsDir() {
		return nil, apierrors.NewNotFoundError("dataset "+path, fmt.Errorf("%s is a directory", path)).
			WithContext("path", path)
	}

	var df dataframe.DataFrame
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		df, err = readWorkbook(path)
	case ".tsv":
		if delim == 0 {
			delim = '\t'
		}
		df, err = readDelimited(path, delim)
	default:
		df, err = readDelimited(path, delim)
	}
	if err != nil {
		return nil, err
	}

	// The frame is loaded headerless, so Records()[0] holds gota's generated
	// names and the file's header is the first data row.
	records := df.Records()
	if len(records) < 2 {
		return nil, apierrors.NewParsingError("dataset "+path+" has no header", nil)
	}
	columns, rows := records[1], records[2:]

	customers, err := buildCustomers(columns, rows)
	if err != nil {
		return nil, err
	}

	return &Table{
		Source:    path,
		Columns:   columns,
		Rows:      rows,
		Customers: customers,
	}, nil
}

// loadOptions reads the header as an ordinary row, which lets a header-only
// file load as a table with no customers.
func loadOptions(delim rune) []dataframe.LoadOption {
	opts := []dataframe.LoadOption{
		dataframe.HasHeader(false),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(nil),
	}
	if delim != 0 {
		opts = append(opts, dataframe.WithDelimiter(delim))
	}
	return opts
}

func readDelimited(path string, delim rune) (dataframe.DataFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		return dataframe.DataFrame{}, apierrors.NewParsingError("cannot open dataset "+path, err)
	}
	defer f.Close()

	br := bufio.NewReaderSize(f, 64*1024)
	if head, _ := br.Peek(len(utf8BOM)); bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	if delim == 0 {
		delim = sniffDelimiter(br)
	}

	df := dataframe.ReadCSV(br, loadOptions(delim)...)
	if df.Err != nil {
		return dataframe.DataFrame{}, apierrors.NewParsingError("malformed dataset "+filepath.Base(path), df.Err).
			WithContext("path", path).
			WithContext("delimiter", string(delim))
	}
	return df, nil
}

// sniffDelimiter picks the candidate that occurs most often in the header
// line, defaulting to a comma.
func sniffDelimiter(br *bufio.Reader) rune {
	buf, _ := br.Peek(br.Size())
	if i := bytes.IndexByte(buf, '\n'); i >= 0 {
		buf = buf[:i]
	}
	header := string(buf)

	best, bestCount := ',', 0
	for _, d := range candidateDelimiters {
		if n := strings.Count(header, string(d)); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

func readWorkbook(path string) (dataframe.DataFrame, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return dataframe.DataFrame{}, apierrors.NewParsingError("cannot open workbook "+path, err)
	}
	defer f.Close()

	sheet, rows, err := findSheet(f)
	if err != nil {
		return dataframe.DataFrame{}, apierrors.NewParsingError("cannot read workbook "+path, err)
	}

	header := rows[0]
	records := [][]string{header}
	for i, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		if len(row) > len(header) {
			return dataframe.DataFrame{}, apierrors.NewParsingError(
				fmt.Sprintf("sheet %q row %d has %d cells, header has %d", sheet, i+2, len(row), len(header)), nil)
		}
		// GetRows drops trailing empty cells.
		padded := make([]string, len(header))
		copy(padded, row)
		records = append(records, padded)
	}

	df := dataframe.LoadRecords(records, loadOptions(0)...)
	if df.Err != nil {
		return dataframe.DataFrame{}, apierrors.NewParsingError("malformed sheet "+sheet, df.Err)
	}
	return df, nil
}

// findSheet returns the first sheet whose header row holds every required
// column, falling back to the first non-empty sheet.
func findSheet(f *excelize.File) (string, [][]string, error) {
	var (
		fallbackName string
		fallbackRows [][]string
	)
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil || len(rows) == 0 {
			continue
		}
		if hasColumns(rows[0], RequiredColumns) {
			return name, rows, nil
		}
		if fallbackRows == nil {
			fallbackName, fallbackRows = name, rows
		}
	}
	if fallbackRows == nil {
		return "", nil, errors.New("workbook has no data")
	}
	return fallbackName, fallbackRows, nil
}

func hasColumns(header, want []string) bool {
	for _, c := range want {
		if !slices.Contains(header, c) {
			return false
		}
	}
	return true
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
