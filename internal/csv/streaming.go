package csv

// streaming.go wraps raw plan input before it reaches the Reader:
//
//   - SkipBOM: drops the UTF-8 BOM (0xEF 0xBB 0xBF) written by Windows tools
//   - UTF8Sanitizer: replaces invalid UTF-8 bytes with '?'
//   - CountingReader: tracks bytes read for progress reporting
//
// WrapForStreaming applies all three in that order.

import (
	"bufio"
	"bytes"
	"io"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// SkipBOM returns a reader that yields r's content without a leading UTF-8
// byte order mark.
func SkipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if b, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(b, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return br
}

// UTF8Sanitizer replaces invalid UTF-8 bytes with '?' as data streams through.
// A multi-byte rune split across two reads is held back until it is complete.
// Callers are expected to read with buffers of at least utf8.UTFMax bytes.
type UTF8Sanitizer struct {
	r       io.Reader
	pending []byte
	err     error
}

// NewUTF8Sanitizer wraps r.
func NewUTF8Sanitizer(r io.Reader) *UTF8Sanitizer {
	return &UTF8Sanitizer{r: r}
}

// Read implements io.Reader.
func (s *UTF8Sanitizer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	for {
		if s.err != nil && len(s.pending) == 0 {
			return 0, s.err
		}

		n := copy(p, s.pending)
		s.pending = s.pending[n:]
		if s.err == nil && n < len(p) {
			var m int
			m, s.err = s.r.Read(p[n:])
			n += m
		}
		if n == 0 {
			return 0, s.err
		}

		end := n
		if s.err == nil {
			end -= incompleteSuffix(p[:n])
		}
		if end == 0 && n == len(p) {
			// p cannot hold a whole rune; pass the bytes through untouched.
			return n, nil
		}
		if end < n {
			held := append([]byte(nil), p[end:n]...)
			s.pending = append(held, s.pending...)
		}
		if end == 0 {
			continue
		}

		w := sanitizeInPlace(p[:end])
		if len(s.pending) > 0 {
			return w, nil
		}
		return w, s.err
	}
}

// sanitizeInPlace rewrites b replacing each invalid byte with '?' and returns
// the new length. The result is never longer than the input.
func sanitizeInPlace(b []byte) int {
	if utf8.Valid(b) {
		return len(b)
	}
	w := 0
	for r := 0; r < len(b); {
		ru, size := utf8.DecodeRune(b[r:])
		if ru == utf8.RuneError && size == 1 {
			b[w] = '?'
			w++
			r++
			continue
		}
		copy(b[w:], b[r:r+size])
		w += size
		r += size
	}
	return w
}

// incompleteSuffix returns how many trailing bytes of b start a multi-byte
// rune that is not finished yet.
func incompleteSuffix(b []byte) int {
	for i := 1; i < utf8.UTFMax && i <= len(b); i++ {
		c := b[len(b)-i]
		if c < utf8.RuneSelf {
			return 0
		}
		if utf8.RuneStart(c) {
			if runeLen(c) > i {
				return i
			}
			return 0
		}
	}
	return 0
}

// runeLen returns the length of the UTF-8 sequence introduced by leading byte c.
func runeLen(c byte) int {
	switch {
	case c >= 0xF0:
		return 4
	case c >= 0xE0:
		return 3
	case c >= 0xC0:
		return 2
	default:
		return 1
	}
}

// CountingReader tracks how many bytes have been read through it.
type CountingReader struct {
	r         io.Reader
	BytesRead int64
	Total     int64 // 0 when unknown
}

// NewCountingReader wraps r; total may be 0 if the size is unknown.
func NewCountingReader(r io.Reader, total int64) *CountingReader {
	return &CountingReader{r: r, Total: total}
}

// Read implements io.Reader.
func (c *CountingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.BytesRead += int64(n)
	return n, err
}

// Percent returns read progress in the range 0-100, or 0 if Total is unknown.
func (c *CountingReader) Percent() int {
	if c.Total <= 0 {
		return 0
	}
	p := int(c.BytesRead * 100 / c.Total)
	if p > 100 {
		return 100
	}
	return p
}

// WrapForStreaming strips a BOM, sanitizes UTF-8 and counts bytes, in that
// order. The returned reader's BytesRead reflects bytes after BOM removal.
func WrapForStreaming(r io.Reader, total int64) *CountingReader {
	return NewCountingReader(NewUTF8Sanitizer(SkipBOM(r)), total)
}
