package parser

import (
	"strconv"
	"strings"
)

// ListOutcome records which rule produced a parsed list.
type ListOutcome int

const (
	// ListEmpty means the cell was empty or missing.
	ListEmpty ListOutcome = iota
	// ListParsed means the cell held a list literal.
	ListParsed
	// ListScalar means the cell held a non-list literal, wrapped as one element.
	ListScalar
	// ListRaw means the cell was not a literal and the raw text was wrapped.
	ListRaw
)

func (o ListOutcome) String() string {
	switch o {
	case ListEmpty:
		return "empty"
	case ListParsed:
		return "parsed"
	case ListScalar:
		return "scalar"
	case ListRaw:
		return "raw"
	default:
		return "unknown"
	}
}

// ParseList turns a list-valued cell such as "['A', 'B']" into its elements.
//
// Rules, in order: empty or missing input gives an empty slice; a list literal
// gives its elements; any other literal gives its text as the only element;
// input that is not a literal gives the raw text as the only element. The
// returned slice is never nil.
func ParseList(cell string) ([]string, ListOutcome) {
	cell = NormalizeCell(cell)
	if cell == "" {
		return []string{}, ListEmpty
	}

	value, err := parseLiteral(cell)
	if err != nil {
		return []string{cell}, ListRaw
	}

	if list, ok := value.(pyList); ok {
		out := make([]string, 0, len(list))
		for _, elem := range list {
			out = append(out, pyStr(elem))
		}
		return out, ListParsed
	}
	return []string{pyStr(value)}, ListScalar
}

// pyStr renders a literal value the way str() would.
func pyStr(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case pyInt:
		return string(t)
	case float64:
		return formatFloat(t)
	case bool:
		if t {
			return "True"
		}
		return "False"
	case nil:
		return "None"
	case pyList:
		parts := make([]string, len(t))
		for i, elem := range t {
			parts[i] = pyRepr(elem)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case pyTuple:
		parts := make([]string, len(t))
		for i, elem := range t {
			parts[i] = pyRepr(elem)
		}
		if len(parts) == 1 {
			return "(" + parts[0] + ",)"
		}
		return "(" + strings.Join(parts, ", ") + ")"
	default:
		return ""
	}
}

// pyRepr renders nested elements; only strings differ from pyStr.
func pyRepr(v any) string {
	s, ok := v.(string)
	if !ok {
		return pyStr(v)
	}
	quote := byte('\'')
	if strings.ContainsRune(s, '\'') && !strings.ContainsRune(s, '"') {
		quote = '"'
	}
	var b strings.Builder
	b.WriteByte(quote)
	for _, r := range s {
		switch {
		case r == '\\':
			b.WriteString(`\\`)
		case r == rune(quote):
			b.WriteByte('\\')
			b.WriteRune(r)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte(quote)
	return b.String()
}

func formatFloat(f float64) string {
	abs := f
	if abs < 0 {
		abs = -abs
	}
	if abs != 0 && (abs >= 1e16 || abs < 1e-4) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".") {
		s += ".0"
	}
	return s
}
