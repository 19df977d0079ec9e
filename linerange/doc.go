// Package linerange converts between sets of selected paste lines and the
// compact fragment notation fluffy uses in shareable links.
//
// # Notation
//
// A fragment is a comma-joined list of range tokens. A token selects a
// single line or an inclusive run of lines:
//
//	L3          line 3
//	L7-L9       lines 7, 8 and 9
//	L7-9        same as L7-L9
//
// Line numbers are 1-based. Tokens are written in ascending order and no
// two written tokens touch, so a given set of lines has exactly one
// encoding:
//
//	linerange.Encode([]int{9, 3, 8, 7}) // "L3,L7-L9"
//	linerange.Decode("#L3,L7-L9")       // [3 7 8 9]
//
// Decode never fails. Tokens it cannot understand are skipped, as are
// tokens that would expand the fragment past MaxDecodedLines lines.
//
// The paste page of a fluffy server only reads bare range ends, so links
// built for it use EncodeCompact or ApplyCompact:
//
//	linerange.EncodeCompact([]int{1, 3, 4, 6}) // "L1,L3-4,L6"
//
// # Selections
//
// Selection tracks the lines a reader has picked on a paste page,
// supporting single-line toggles and range extension from the last
// picked line:
//
//	sel := linerange.ParseSelection(u.Fragment)
//	sel.Toggle(12)
//	sel.Extend(15)
//	linerange.Apply(u, sel.Lines())
//
// # Highlighting by pattern
//
// Match returns the lines of a document matching a regular expression,
// ready to be passed to Encode when building a link.
package linerange
