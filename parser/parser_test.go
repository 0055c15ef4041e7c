package parser

import (
	"reflect"
	"strings"
	"testing"

	"github.com/aluiziolira/go-books-catalog/models"
)

func TestParseList(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    []string
		wantOutcome ListOutcome
	}{
		{
			name:        "list literal",
			input:       "['A','B']",
			expected:    []string{"A", "B"},
			wantOutcome: ListParsed,
		},
		{
			name:        "list with spaces and double quotes",
			input:       `[ "Tolkien, J. R. R." , 'Lewis' ]`,
			expected:    []string{"Tolkien, J. R. R.", "Lewis"},
			wantOutcome: ListParsed,
		},
		{
			name:        "empty list",
			input:       "[]",
			expected:    []string{},
			wantOutcome: ListParsed,
		},
		{
			name:        "trailing comma",
			input:       "['Fiction',]",
			expected:    []string{"Fiction"},
			wantOutcome: ListParsed,
		},
		{
			name:        "mixed element types",
			input:       "['A', 1, 2.5, True, None]",
			expected:    []string{"A", "1", "2.5", "True", "None"},
			wantOutcome: ListParsed,
		},
		{
			name:        "nested list element",
			input:       "[['x', 'y'], 'z']",
			expected:    []string{"['x', 'y']", "z"},
			wantOutcome: ListParsed,
		},
		{
			name:        "escaped quote",
			input:       `['O\'Brien']`,
			expected:    []string{"O'Brien"},
			wantOutcome: ListParsed,
		},
		{
			name:        "unicode escape",
			input:       `['Café']`,
			expected:    []string{"Café"},
			wantOutcome: ListParsed,
		},
		{
			name:        "empty string",
			input:       "",
			expected:    []string{},
			wantOutcome: ListEmpty,
		},
		{
			name:        "missing marker",
			input:       "nan",
			expected:    []string{},
			wantOutcome: ListEmpty,
		},
		{
			name:        "integer scalar",
			input:       "5",
			expected:    []string{"5"},
			wantOutcome: ListScalar,
		},
		{
			name:        "string scalar",
			input:       "'Fiction'",
			expected:    []string{"Fiction"},
			wantOutcome: ListScalar,
		},
		{
			name:        "float scalar",
			input:       "3.0",
			expected:    []string{"3.0"},
			wantOutcome: ListScalar,
		},
		{
			name:        "tuple scalar",
			input:       "('a', 'b')",
			expected:    []string{"('a', 'b')"},
			wantOutcome: ListScalar,
		},
		{
			name:        "plain text",
			input:       "not-a-list",
			expected:    []string{"not-a-list"},
			wantOutcome: ListRaw,
		},
		{
			name:        "unterminated list",
			input:       "['A', 'B'",
			expected:    []string{"['A', 'B'"},
			wantOutcome: ListRaw,
		},
		{
			name:        "trailing garbage",
			input:       "['A'] extra",
			expected:    []string{"['A'] extra"},
			wantOutcome: ListRaw,
		},
		{
			name:        "leading zeros",
			input:       "007",
			expected:    []string{"007"},
			wantOutcome: ListRaw,
		},
		{
			name:        "octal escapes",
			input:       `['\012', '\101\0']`,
			expected:    []string{"\n", "A\x00"},
			wantOutcome: ListParsed,
		},
		{
			name:        "long unicode escape",
			input:       `['\U0001F600']`,
			expected:    []string{"\U0001F600"},
			wantOutcome: ListParsed,
		},
		{
			name:        "code point out of range",
			input:       `['\U00110000']`,
			expected:    []string{`['\U00110000']`},
			wantOutcome: ListRaw,
		},
		{
			name:        "nesting at limit",
			input:       strings.Repeat("[", 99) + "'x'" + strings.Repeat("]", 99),
			expected:    []string{strings.Repeat("[", 98) + "'x'" + strings.Repeat("]", 98)},
			wantOutcome: ListParsed,
		},
		{
			name:        "nesting past limit",
			input:       strings.Repeat("[", 101) + strings.Repeat("]", 101),
			expected:    []string{strings.Repeat("[", 101) + strings.Repeat("]", 101)},
			wantOutcome: ListRaw,
		},
		{
			name:        "unclosed deep nesting",
			input:       strings.Repeat("[", 1_000_000),
			expected:    []string{strings.Repeat("[", 1_000_000)},
			wantOutcome: ListRaw,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, outcome := ParseList(tt.input)
			if result == nil {
				t.Fatalf("ParseList(%q) returned nil slice", tt.input)
			}
			if !reflect.DeepEqual(result, tt.expected) {
				t.Errorf("ParseList(%q) = %q, want %q", tt.input, result, tt.expected)
			}
			if outcome != tt.wantOutcome {
				t.Errorf("ParseList(%q) outcome = %s, want %s", tt.input, outcome, tt.wantOutcome)
			}
		})
	}
}

func TestNormalizeCell(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{input: "nan", expected: ""},
		{input: "NaN", expected: ""},
		{input: "NULL", expected: ""},
		{input: "<NA>", expected: ""},
		{input: "", expected: ""},
		{input: "Penguin", expected: "Penguin"},
		{input: " nan ", expected: " nan "},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if result := NormalizeCell(tt.input); result != tt.expected {
				t.Errorf("NormalizeCell(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestParseOptionalFloat(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected *float64
	}{
		{name: "integer", input: "5", expected: ptr(5.0)},
		{name: "decimal with spaces", input: " 4.5 ", expected: ptr(4.5)},
		{name: "missing", input: "nan", expected: nil},
		{name: "empty", input: "", expected: nil},
		{name: "garbage", input: "five", expected: nil},
		{name: "infinite", input: "inf", expected: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ParseOptionalFloat(tt.input)
			if (result == nil) != (tt.expected == nil) {
				t.Fatalf("ParseOptionalFloat(%q) = %v, want %v", tt.input, result, tt.expected)
			}
			if result != nil && *result != *tt.expected {
				t.Errorf("ParseOptionalFloat(%q) = %v, want %v", tt.input, *result, *tt.expected)
			}
		})
	}
}

func TestParseOptionalInt(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected *int64
	}{
		{name: "integer", input: "940636800", expected: ptr(int64(940636800))},
		{name: "float text", input: "940636800.0", expected: ptr(int64(940636800))},
		{name: "negative float", input: "-2.7", expected: ptr(int64(-2))},
		{name: "missing", input: "NaN", expected: nil},
		{name: "garbage", input: "yesterday", expected: nil},
		{name: "max int", input: "9223372036854775807", expected: ptr(int64(9223372036854775807))},
		{name: "float rounds to 2^63", input: "9223372036854775807.0", expected: nil},
		{name: "float min int", input: "-9223372036854775808.0", expected: ptr(int64(-9223372036854775808))},
		{name: "float below min int", input: "-1e19", expected: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ParseOptionalInt(tt.input)
			if (result == nil) != (tt.expected == nil) {
				t.Fatalf("ParseOptionalInt(%q) = %v, want %v", tt.input, result, tt.expected)
			}
			if result != nil && *result != *tt.expected {
				t.Errorf("ParseOptionalInt(%q) = %d, want %d", tt.input, *result, *tt.expected)
			}
		})
	}
}

func TestValidateBook(t *testing.T) {
	tests := []struct {
		name    string
		book    *models.Book
		wantErr bool
	}{
		{
			name:    "valid book",
			book:    &models.Book{Title: "The Hobbit", Authors: []string{"J.R.R. Tolkien"}},
			wantErr: false,
		},
		{
			name:    "missing title",
			book:    &models.Book{ID: 3, Title: "  "},
			wantErr: true,
		},
		{
			name:    "nil book",
			book:    nil,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBook(tt.book)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateBook() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateRating(t *testing.T) {
	tests := []struct {
		name    string
		rating  *models.Rating
		wantErr bool
	}{
		{name: "in range", rating: &models.Rating{Score: ptr(4.0)}, wantErr: false},
		{name: "no score", rating: &models.Rating{}, wantErr: false},
		{name: "too high", rating: &models.Rating{Score: ptr(7.0)}, wantErr: true},
		{name: "zero", rating: &models.Rating{Score: ptr(0.0)}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRating(tt.rating)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRating() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func ptr[T any](v T) *T {
	return &v
}
