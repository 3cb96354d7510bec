// Package loader reads ShEx schema documents from files, fs.FS values, HTTP
// endpoints and inline text.
package loader
