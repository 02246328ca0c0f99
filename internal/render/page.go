package render

import (
	"bytes"
	"embed"
	"html/template"
	"io"

	"github.com/sxyz5675/Steamlit-Dashboard/internal/dashboard"
	apierrors "github.com/sxyz5675/Steamlit-Dashboard/internal/errors"
)

//go:embed templates/*.html
var templateFiles embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFiles, "templates/page.html"))

type chartView struct {
	ID    string
	Alt   string
	SVG   template.HTML
	Notes []string
}

type sectionView struct {
	Layout  string
	Heading string
	Charts  []chartView
	Table   *dashboard.TableSpec
}

type pageView struct {
	Title     string
	PageTitle string
	Icon      string
	Sections  []sectionView
}

// Page draws every chart of page and writes the complete HTML document to
// w. Nothing is written when a chart fails to draw.
func Page(w io.Writer, page dashboard.PageSpec) error {
	view := pageView{
		Title:     page.Title,
		PageTitle: page.PageTitle,
		Icon:      page.Icon,
		Sections:  make([]sectionView, len(page.Sections)),
	}

	for i, s := range page.Sections {
		sv := sectionView{Layout: string(s.Layout), Heading: s.Heading, Table: s.Table}
		for _, c := range s.Charts {
			svg, err := SVG(c)
			if err != nil {
				return err
			}
			alt := c.Alt
			if alt == "" {
				alt = c.Title
			}
			sv.Charts = append(sv.Charts, chartView{
				ID:    c.ID,
				Alt:   alt,
				SVG:   template.HTML(svg),
				Notes: c.Notes,
			})
		}
		view.Sections[i] = sv
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, view); err != nil {
		return apierrors.NewRenderError("failed to execute page template", err)
	}
	_, err := buf.WriteTo(w)
	return err
}
