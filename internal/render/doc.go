// Package render draws dashboard chart specs as SVG with go-chart and
// assembles the HTML page around them.
package render
