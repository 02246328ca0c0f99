package render

import (
	"bytes"
	"fmt"
	"html"
	"math"
	"strings"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/sxyz5675/Steamlit-Dashboard/internal/dashboard"
	apierrors "github.com/sxyz5675/Steamlit-Dashboard/internal/errors"
)

var (
	axisLight = drawing.ColorFromHex("d0d0d0")
	dashStyle = []float64{6, 4}
)

// SVG draws spec as a standalone SVG document. A spec with nothing to draw
// yields a placeholder of the same size.
func SVG(spec dashboard.ChartSpec) ([]byte, error) {
	var (
		buf bytes.Buffer
		err error
	)
	switch spec.Kind {
	case dashboard.KindBar:
		if len(spec.Bars) == 0 {
			return placeholder(spec), nil
		}
		err = barChart(spec).Render(chart.SVG, &buf)
	case dashboard.KindLine, dashboard.KindHistogram:
		series := lineSeries(spec)
		if len(series) == 0 {
			return placeholder(spec), nil
		}
		c := lineChart(spec, series)
		if spec.ShowLegend {
			c.Elements = []chart.Renderable{chart.Legend(&c)}
		}
		err = c.Render(chart.SVG, &buf)
	default:
		return nil, apierrors.NewRenderError("unknown chart kind", nil).
			WithContext("chart", spec.ID).
			WithContext("kind", string(spec.Kind))
	}
	if err != nil {
		return nil, apierrors.NewRenderError("failed to draw chart", err).
			WithContext("chart", spec.ID)
	}
	return buf.Bytes(), nil
}

func barChart(spec dashboard.ChartSpec) chart.BarChart {
	bars := make([]chart.Value, len(spec.Bars))
	top := 0.0
	for i, b := range spec.Bars {
		v := chart.Value{Label: b.Label, Value: b.Value, Style: chart.Style{
			FillColor:   color(b.Color),
			StrokeColor: color(b.Color),
			StrokeWidth: 1,
		}}
		if b.Missing {
			v.Value = 0
		}
		top = math.Max(top, v.Value)
		bars[i] = v
	}

	yRange := &chart.ContinuousRange{Min: 0, Max: niceTop(top)}
	if spec.YRange != nil {
		yRange = &chart.ContinuousRange{Min: spec.YRange.Min, Max: spec.YRange.Max}
	}

	bc := chart.BarChart{
		Title:      spec.Title,
		TitleStyle: chart.Style{Hidden: spec.Title == ""},
		Width:      spec.Width,
		Height:     spec.Height,
		BarSpacing: 12,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		Canvas:     canvasStyle(spec),
		XAxis:      chart.Style{FontSize: 8},
		YAxis: chart.YAxis{
			Name:  spec.YLabel,
			Range: yRange,
		},
		Bars: bars,
	}
	if g := spec.Grid; g != nil {
		bc.YAxis.GridMajorStyle = gridStyle(g)
	}
	return bc
}

func lineChart(spec dashboard.ChartSpec, series []chart.Series) chart.Chart {
	c := chart.Chart{
		Title:      spec.Title,
		TitleStyle: chart.Style{Hidden: spec.Title == ""},
		Width:      spec.Width,
		Height:     spec.Height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		Canvas:     canvasStyle(spec),
		XAxis:      chart.XAxis{Name: spec.XLabel},
		YAxis:      chart.YAxis{Name: spec.YLabel},
		Series:     series,
	}
	if r := spec.XRange; r != nil {
		c.XAxis.Range = &chart.ContinuousRange{Min: r.Min, Max: r.Max}
	}
	if r := spec.YRange; r != nil {
		c.YAxis.Range = &chart.ContinuousRange{Min: r.Min, Max: r.Max}
	}
	if len(spec.XTicks) > 0 {
		ticks := make([]chart.Tick, len(spec.XTicks))
		for i, v := range spec.XTicks {
			ticks[i] = chart.Tick{Value: v, Label: formatTick(v)}
		}
		c.XAxis.Ticks = ticks
	}
	if g := spec.Grid; g != nil {
		c.XAxis.GridMajorStyle = gridStyle(g)
		c.YAxis.GridMajorStyle = gridStyle(g)
	}
	return c
}

// lineSeries converts the histogram and line series of spec, clipped to the
// x range. Series left with fewer than two points are dropped.
func lineSeries(spec dashboard.ChartSpec) []chart.Series {
	var out []chart.Series

	if h := spec.Histogram; h != nil && len(h.Heights) > 0 {
		xs, ys := steps(h.Edges, h.Heights)
		xs, ys = clip(xs, ys, spec.XRange)
		if len(xs) >= 2 {
			c := color(h.Color)
			out = append(out, chart.ContinuousSeries{
				Name:    "histogram",
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeColor: c,
					StrokeWidth: 1,
					FillColor:   c.WithAlpha(160),
				},
			})
		}
	}

	for _, s := range spec.Series {
		xs, ys := clip(s.X, s.Y, spec.XRange)
		if len(xs) < 2 {
			continue
		}
		c := color(s.Color)
		style := chart.Style{StrokeColor: c, StrokeWidth: 2}
		if s.Dashed {
			style.StrokeDashArray = dashStyle
		}
		if s.Marker == dashboard.MarkerCircle {
			style.DotColor = c
			style.DotWidth = 2
		}
		line := chart.ContinuousSeries{
			Name:    s.Name,
			XValues: xs,
			YValues: ys,
			Style:   style,
		}
		if s.Marker == dashboard.MarkerPlus {
			out = append(out, plusSeries{ContinuousSeries: line, Arm: plusArm})
			continue
		}
		out = append(out, line)
	}
	return out
}

// plusArm is the half-width in pixels of a plus marker.
const plusArm = 3

// plusSeries is a line series that also marks every point with a "+".
type plusSeries struct {
	chart.ContinuousSeries
	Arm int
}

// Render draws the line, then the markers with a solid stroke.
func (ps plusSeries) Render(r chart.Renderer, canvasBox chart.Box, xrange, yrange chart.Range, defaults chart.Style) {
	ps.ContinuousSeries.Render(r, canvasBox, xrange, yrange, defaults)

	style := ps.Style.InheritFrom(defaults)
	chart.Style{
		StrokeColor: style.GetStrokeColor(),
		StrokeWidth: 1,
	}.WriteDrawingOptionsToRenderer(r)

	for i := 0; i < ps.Len(); i++ {
		vx, vy := ps.GetValues(i)
		x := canvasBox.Left + xrange.Translate(vx)
		y := canvasBox.Bottom - yrange.Translate(vy)
		r.MoveTo(x-ps.Arm, y)
		r.LineTo(x+ps.Arm, y)
		r.MoveTo(x, y-ps.Arm)
		r.LineTo(x, y+ps.Arm)
	}
	r.Stroke()
}

// steps outlines histogram bars as one closed polyline starting and ending
// on the baseline.
func steps(edges, heights []float64) ([]float64, []float64) {
	xs := make([]float64, 0, 2*len(heights)+2)
	ys := make([]float64, 0, 2*len(heights)+2)
	xs, ys = append(xs, edges[0]), append(ys, 0)
	for i, h := range heights {
		xs = append(xs, edges[i], edges[i+1])
		ys = append(ys, h, h)
	}
	xs, ys = append(xs, edges[len(edges)-1]), append(ys, 0)
	return xs, ys
}

func clip(xs, ys []float64, r *dashboard.Range) ([]float64, []float64) {
	if r == nil {
		return xs, ys
	}
	var cx, cy []float64
	for i, x := range xs {
		if x < r.Min || x > r.Max {
			continue
		}
		cx = append(cx, x)
		cy = append(cy, ys[i])
	}
	return cx, cy
}

func canvasStyle(spec dashboard.ChartSpec) chart.Style {
	if spec.Background == "" {
		return chart.Style{}
	}
	return chart.Style{FillColor: color(spec.Background), StrokeColor: axisLight}
}

func gridStyle(g *dashboard.Grid) chart.Style {
	return chart.Style{
		StrokeColor: color(g.Color).WithAlpha(uint8(math.Round(g.Alpha * 255))),
		StrokeWidth: g.Width,
	}
}

func color(hex string) drawing.Color {
	if hex == "" {
		return chart.ColorBlue
	}
	return drawing.ColorFromHex(strings.TrimPrefix(hex, "#"))
}

func niceTop(v float64) float64 {
	if v <= 0 {
		return 1
	}
	return v * 1.1
}

func formatTick(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%g", v)
}

// placeholder is an empty frame with a "No data" caption.
func placeholder(spec dashboard.ChartSpec) []byte {
	w, h := spec.Width, spec.Height
	if w <= 0 {
		w = 600
	}
	if h <= 0 {
		h = 300
	}
	fill := spec.Background
	if fill == "" {
		fill = "#ffffff"
	}
	label := "No data"
	if spec.Title != "" {
		label = spec.Title + ": no data"
	}
	return []byte(fmt.Sprintf(
		`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`+
			`<rect width="100%%" height="100%%" fill="%s"/>`+
			`<text x="50%%" y="50%%" text-anchor="middle" fill="#888888" font-family="sans-serif" font-size="14">%s</text></svg>`,
		w, h, w, h, html.EscapeString(fill), html.EscapeString(label)))
}
