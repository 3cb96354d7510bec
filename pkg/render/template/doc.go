// Package template defines the template engine seam HTML renderers use. The
// gotemplate subpackage backs it with pongo2.
package template
