// Package shex holds the in-memory model of a ShEx schema (ShExJ flavoured),
// its JSON codec, reference resolution, and closed visitors over shape and
// triple expressions.
package shex
