package core

// streaming.go prepares uploaded import files for tokenizing without
// loading them into memory:
//
//   - a leading UTF-8 BOM (0xEF 0xBB 0xBF) from spreadsheet exports is skipped
//   - invalid UTF-8 bytes are replaced with '?' so names stay printable
//
// NewCSVReader applies both and returns a lenient csv.Reader.

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"io"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// NewCSVReader returns a csv.Reader over r with the BOM skipped and invalid
// UTF-8 replaced. Rows may have any number of fields.
func NewCSVReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(NewUTF8Sanitizer(SkipBOM(r)))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	return cr
}

// SkipBOM returns a reader that yields r without a leading UTF-8 BOM.
func SkipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return br
}

// UTF8Sanitizer replaces invalid UTF-8 bytes with '?' as it reads.
// A multi-byte sequence split across reads is carried to the next call.
type UTF8Sanitizer struct {
	reader  io.Reader
	pending []byte
}

// NewUTF8Sanitizer wraps r.
func NewUTF8Sanitizer(r io.Reader) *UTF8Sanitizer {
	return &UTF8Sanitizer{reader: r, pending: make([]byte, 0, utf8.UTFMax)}
}

// Read implements io.Reader.
func (s *UTF8Sanitizer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	offset := copy(p, s.pending)
	s.pending = s.pending[:0]

	n, err := s.reader.Read(p[offset:])
	n += offset
	if n == 0 {
		return 0, err
	}

	return s.sanitize(p[:n], err != nil), err
}

// sanitize rewrites data in place and returns the number of bytes to emit.
// Unless final, an incomplete trailing sequence is held back in pending.
func (s *UTF8Sanitizer) sanitize(data []byte, final bool) int {
	write := 0
	for read := 0; read < len(data); {
		if data[read] < utf8.RuneSelf {
			data[write] = data[read]
			write++
			read++
			continue
		}

		if !final && !utf8.FullRune(data[read:]) {
			s.pending = append(s.pending, data[read:]...)
			return write
		}

		r, size := utf8.DecodeRune(data[read:])
		if r == utf8.RuneError && size == 1 {
			data[write] = '?'
			write++
			read++
			continue
		}
		copy(data[write:], data[read:read+size])
		write += size
		read += size
	}
	return write
}
