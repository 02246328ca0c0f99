package dashboard

import "slices"

// ChartKind selects how a ChartSpec is drawn.
type ChartKind string

const (
	KindBar       ChartKind = "bar"
	KindLine      ChartKind = "line"
	KindHistogram ChartKind = "histogram"
)

// Marker is the glyph drawn at each point of a line series.
type Marker string

const (
	MarkerNone   Marker = ""
	MarkerCircle Marker = "circle"
	MarkerPlus   Marker = "plus"
)

// Bar is one category of a bar chart. Missing bars keep their slot on the
// category axis but have no height.
type Bar struct {
	Label   string
	Value   float64
	Color   string
	Missing bool
}

// Series is one sampled line.
type Series struct {
	Name   string
	X      []float64
	Y      []float64
	Color  string
	Marker Marker
	Dashed bool
}

// Bins is a density histogram: len(Edges) == len(Heights)+1.
type Bins struct {
	Edges   []float64
	Heights []float64
	Color   string
}

// Range bounds an axis.
type Range struct {
	Min float64
	Max float64
}

// Grid styles the grid lines behind the plot area.
type Grid struct {
	Color string
	Width float64
	Alpha float64
}

// ChartSpec is a complete, backend-independent description of one panel.
// Panels build it once; nothing mutates it afterwards, and accessors hand
// out copies.
type ChartSpec struct {
	ID     string
	Kind   ChartKind
	Title  string
	Alt    string
	XLabel string
	YLabel string

	// Width and Height are the intended drawing size in pixels.
	Width  int
	Height int

	Bars      []Bar
	Series    []Series
	Histogram *Bins

	XRange *Range
	YRange *Range
	XTicks []float64

	Background string
	Grid       *Grid
	ShowLegend bool

	// Notes are short remarks printed under the chart, e.g. how many
	// values were left out.
	Notes []string
}

// Clone returns a deep copy of s.
func (s ChartSpec) Clone() ChartSpec {
	out := s
	out.Bars = slices.Clone(s.Bars)
	if s.Series != nil {
		out.Series = make([]Series, len(s.Series))
		for i, ser := range s.Series {
			ser.X = slices.Clone(ser.X)
			ser.Y = slices.Clone(ser.Y)
			out.Series[i] = ser
		}
	}
	if s.Histogram != nil {
		h := *s.Histogram
		h.Edges = slices.Clone(h.Edges)
		h.Heights = slices.Clone(h.Heights)
		out.Histogram = &h
	}
	if s.XRange != nil {
		r := *s.XRange
		out.XRange = &r
	}
	if s.YRange != nil {
		r := *s.YRange
		out.YRange = &r
	}
	if s.Grid != nil {
		g := *s.Grid
		out.Grid = &g
	}
	out.XTicks = slices.Clone(s.XTicks)
	out.Notes = slices.Clone(s.Notes)
	return out
}

// TableSpec is a tabular preview.
type TableSpec struct {
	Title   string
	Columns []string
	Rows    [][]string
}

// SectionLayout is how a page section arranges its content.
type SectionLayout string

const (
	LayoutColumns SectionLayout = "columns"
	LayoutFull    SectionLayout = "full"
	LayoutTable   SectionLayout = "table"
)

// Section is one row of the page grid.
type Section struct {
	Layout  SectionLayout
	Heading string
	Charts  []ChartSpec
	Table   *TableSpec
}

// PageSpec is the whole dashboard page.
type PageSpec struct {
	Title     string
	PageTitle string
	Icon      string
	Sections  []Section
}

// Charts returns every chart on the page in layout order.
func (p PageSpec) Charts() []ChartSpec {
	var out []ChartSpec
	for _, s := range p.Sections {
		out = append(out, s.Charts...)
	}
	return out
}
