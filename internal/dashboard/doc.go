// Package dashboard turns a loaded table and its derived features into a
// PageSpec: five chart panels and a data preview, each described by a plain
// value that a rendering backend can draw without further computation.
package dashboard
