// Package csv reads the layer plan: a comma separated, quote aware stream in
// which a quoted field may span several physical lines.
//
// It is deliberately not a general CSV implementation. A record is considered
// complete once the number of double quotes seen since it began is even, and
// fields are split by a two-state machine that understands a doubled quote
// inside a quoted region as one literal quote. Nothing else from RFC 4180 is
// enforced.
//
// The streaming wrappers in this package prepare raw plan files for the
// reader: [SkipBOM] drops a UTF-8 byte order mark, [UTF8Sanitizer] replaces
// invalid bytes, and [CountingReader] tracks bytes for progress reporting.
package csv
