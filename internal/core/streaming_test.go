package core

import (
	"bytes"
	"io"
	"testing"
	"testing/iotest"
)

func TestSkipBOM(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected string
	}{
		{
			name:     "file with BOM",
			input:    append([]byte{0xEF, 0xBB, 0xBF}, []byte("1,Central")...),
			expected: "1,Central",
		},
		{
			name:     "file without BOM",
			input:    []byte("1,Central"),
			expected: "1,Central",
		},
		{
			name:     "empty file",
			input:    []byte{},
			expected: "",
		},
		{
			name:     "only BOM",
			input:    []byte{0xEF, 0xBB, 0xBF},
			expected: "",
		},
		{
			name:     "partial BOM at start",
			input:    []byte{0xEF, 0xBB, 'a', 'b', 'c'},
			expected: string([]byte{0xEF, 0xBB, 'a', 'b', 'c'}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := io.ReadAll(SkipBOM(bytes.NewReader(tt.input)))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(result) != tt.expected {
				t.Errorf("got %q, want %q", string(result), tt.expected)
			}
		})
	}
}

func TestUTF8Sanitizer(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected string
	}{
		{
			name:     "valid ASCII",
			input:    []byte("1,Central"),
			expected: "1,Central",
		},
		{
			name:     "valid multibyte",
			input:    []byte("1,São Bento"),
			expected: "1,São Bento",
		},
		{
			name:     "invalid single byte replaced",
			input:    []byte{'h', 'e', 0x80, 'l', 'o'},
			expected: "he?lo",
		},
		{
			name:     "truncated sequence at end replaced",
			input:    []byte{'a', 0xC3},
			expected: "a?",
		},
		{
			name:     "empty input",
			input:    []byte{},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := io.ReadAll(NewUTF8Sanitizer(bytes.NewReader(tt.input)))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(result) != tt.expected {
				t.Errorf("got %q, want %q", string(result), tt.expected)
			}
		})
	}
}

func TestUTF8SanitizerSplitSequence(t *testing.T) {
	// One byte per read splits "ã" across calls.
	input := []byte("São")
	result, err := io.ReadAll(NewUTF8Sanitizer(iotest.OneByteReader(bytes.NewReader(input))))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(result) != "São" {
		t.Errorf("got %q, want %q", string(result), "São")
	}
}

func TestNewCSVReader(t *testing.T) {
	input := append([]byte{0xEF, 0xBB, 0xBF}, []byte("10,Blue,5,6\n11,Red\n")...)

	records, err := NewCSVReader(bytes.NewReader(input)).ReadAll()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0][0] != "10" {
		t.Errorf("BOM not stripped: first cell %q", records[0][0])
	}
	if len(records[0]) != 4 || len(records[1]) != 2 {
		t.Errorf("variable field counts not preserved: %v", records)
	}
}
