// Package pattern implements the bit pattern mini-language.
//
// A pattern such as "0001 [rd:xxx] [:xxx] xx" is a fixed-width sequence of
// significant bits written most significant first. '0' and '1' are fixed
// bits, 'x' is a wildcard, spaces and underscores are layout only, and a
// bracketed group declares a capture, optionally named with a "name:" prefix.
//
// Parsing produces the canonical bit string ("0001xxxxxxxx") and the capture
// table in bit-significance coordinates, where bit 0 is the rightmost
// significant character. The canonical string expands into every concrete
// value it represents, and each capture yields a shift/mask extraction.
//
// Nothing in this package depends on a syntax tree: the rewriter and the
// decoder generator are thin adapters over these plain values.
package pattern
