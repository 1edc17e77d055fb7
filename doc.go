// Package tomlspanner parses TOML into a span-preserving, arena-backed
// value tree and deserializes it into Go values.
//
// Every Item produced by Parse carries the byte range of the source text
// it came from, so errors raised during later deserialization can still
// point back at the original document. Table and Array contents, and
// any string requiring escape decoding, live in an Arena passed in by
// the caller and freed as a unit.
package tomlspanner
