package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

type (
	pyList  []any
	pyTuple []any
	// pyInt keeps the canonical decimal text so big values survive.
	pyInt string
)

var (
	errTrailing = errors.New("literal: trailing input")
	errTooDeep  = errors.New("literal: nesting too deep")
)

// maxDepth bounds list and tuple nesting so hostile cells fail instead of
// exhausting the stack.
const maxDepth = 100

// parseLiteral evaluates the subset of literal syntax found in list-valued
// columns: quoted strings (with implicit concatenation), decimal numbers,
// True/False/None, lists and tuples.
func parseLiteral(src string) (any, error) {
	p := &literalParser{src: strings.TrimLeft(src, " \t")}
	v, err := p.value()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, errTrailing
	}
	return v, nil
}

type literalParser struct {
	src   string
	pos   int
	depth int
}

func (p *literalParser) enter() error {
	p.depth++
	if p.depth > maxDepth {
		return errTooDeep
	}
	return nil
}

func (p *literalParser) leave() {
	p.depth--
}

func (p *literalParser) skipSpace() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *literalParser) peek() byte {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *literalParser) value() (any, error) {
	p.skipSpace()
	c := p.peek()
	switch {
	case c == 0:
		return nil, errors.New("literal: unexpected end of input")
	case c == '[':
		if err := p.enter(); err != nil {
			return nil, err
		}
		defer p.leave()
		p.pos++
		items, err := p.sequence(']')
		if err != nil {
			return nil, err
		}
		return pyList(items), nil
	case c == '(':
		if err := p.enter(); err != nil {
			return nil, err
		}
		defer p.leave()
		return p.parenthesized()
	case c == '\'' || c == '"':
		return p.strings()
	case (c == 'u' || c == 'U' || c == 'r' || c == 'R') && p.pos+1 < len(p.src) && (p.src[p.pos+1] == '\'' || p.src[p.pos+1] == '"'):
		return p.strings()
	case c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9'):
		return p.number()
	case isNameStart(c):
		return p.name()
	default:
		return nil, fmt.Errorf("literal: unexpected %q at %d", c, p.pos)
	}
}

// sequence reads comma separated values up to the closing byte, allowing a
// trailing comma.
func (p *literalParser) sequence(closing byte) ([]any, error) {
	items := []any{}
	for {
		p.skipSpace()
		if p.peek() == closing {
			p.pos++
			return items, nil
		}
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		items = append(items, v)
		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
		case closing:
			p.pos++
			return items, nil
		default:
			return nil, fmt.Errorf("literal: expected ',' or %q at %d", closing, p.pos)
		}
	}
}

// parenthesized distinguishes a grouped value "(x)" from a tuple "(x,)".
func (p *literalParser) parenthesized() (any, error) {
	p.pos++
	p.skipSpace()
	if p.peek() == ')' {
		p.pos++
		return pyTuple{}, nil
	}
	first, err := p.value()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	switch p.peek() {
	case ')':
		p.pos++
		return first, nil
	case ',':
		p.pos++
		rest, err := p.sequence(')')
		if err != nil {
			return nil, err
		}
		return append(pyTuple{first}, rest...), nil
	default:
		return nil, fmt.Errorf("literal: expected ',' or ')' at %d", p.pos)
	}
}

func (p *literalParser) strings() (any, error) {
	var b strings.Builder
	for {
		s, err := p.quoted()
		if err != nil {
			return nil, err
		}
		b.WriteString(s)
		p.skipSpace()
		c := p.peek()
		if c != '\'' && c != '"' && !((c == 'u' || c == 'U' || c == 'r' || c == 'R') && p.pos+1 < len(p.src) && (p.src[p.pos+1] == '\'' || p.src[p.pos+1] == '"')) {
			return b.String(), nil
		}
	}
}

func (p *literalParser) quoted() (string, error) {
	raw := false
	switch p.peek() {
	case 'r', 'R':
		raw = true
		p.pos++
	case 'u', 'U':
		p.pos++
	}
	quote := p.peek()
	p.pos++

	var b strings.Builder
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch {
		case c == quote:
			p.pos++
			return b.String(), nil
		case c == '\n':
			return "", errors.New("literal: newline in string")
		case c == '\\' && p.pos+1 < len(p.src):
			if raw {
				b.WriteByte(c)
				b.WriteByte(p.src[p.pos+1])
				p.pos += 2
				continue
			}
			if err := p.escape(&b); err != nil {
				return "", err
			}
		default:
			r, size := utf8.DecodeRuneInString(p.src[p.pos:])
			b.WriteRune(r)
			p.pos += size
		}
	}
	return "", errors.New("literal: unterminated string")
}

func (p *literalParser) escape(b *strings.Builder) error {
	next := p.src[p.pos+1]
	p.pos += 2
	switch next {
	case '\\', '\'', '"':
		b.WriteByte(next)
	case 'n':
		b.WriteByte('\n')
	case 't':
		b.WriteByte('\t')
	case 'r':
		b.WriteByte('\r')
	case 'a':
		b.WriteByte('\a')
	case 'b':
		b.WriteByte('\b')
	case 'f':
		b.WriteByte('\f')
	case 'v':
		b.WriteByte('\v')
	case '0', '1', '2', '3', '4', '5', '6', '7':
		p.octalEscape(b)
	case '\n':
	case 'x':
		return p.hexEscape(b, 2)
	case 'u':
		return p.hexEscape(b, 4)
	case 'U':
		return p.hexEscape(b, 8)
	default:
		b.WriteByte('\\')
		b.WriteByte(next)
	}
	return nil
}

// octalEscape decodes up to three octal digits, the first already consumed.
func (p *literalParser) octalEscape(b *strings.Builder) {
	code := rune(p.src[p.pos-1] - '0')
	for i := 0; i < 2 && p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '7'; i++ {
		code = code*8 + rune(p.src[p.pos]-'0')
		p.pos++
	}
	b.WriteRune(code)
}

func (p *literalParser) hexEscape(b *strings.Builder, width int) error {
	if p.pos+width > len(p.src) {
		return errors.New("literal: truncated escape")
	}
	code, err := strconv.ParseUint(p.src[p.pos:p.pos+width], 16, 32)
	if err != nil {
		return fmt.Errorf("literal: bad escape: %w", err)
	}
	if code > utf8.MaxRune {
		return fmt.Errorf("literal: code point %#x out of range", code)
	}
	p.pos += width
	b.WriteRune(rune(code))
	return nil
}

func (p *literalParser) number() (any, error) {
	start := p.pos
	negative := false
	if c := p.peek(); c == '-' || c == '+' {
		negative = c == '-'
		p.pos++
		p.skipSpace()
	}
	digitsStart := p.pos
	isFloat := false
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch {
		case c >= '0' && c <= '9':
		case c == '.':
			isFloat = true
		case c == 'e' || c == 'E':
			isFloat = true
			if p.pos+1 < len(p.src) && (p.src[p.pos+1] == '+' || p.src[p.pos+1] == '-') {
				p.pos++
			}
		default:
			goto done
		}
		p.pos++
	}
done:
	text := p.src[digitsStart:p.pos]
	if text == "" || text == "." {
		return nil, fmt.Errorf("literal: bad number at %d", start)
	}
	if isFloat {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("literal: bad float: %w", err)
		}
		if negative {
			f = -f
		}
		return f, nil
	}
	if len(text) > 1 && text[0] == '0' && strings.Trim(text, "0") != "" {
		return nil, fmt.Errorf("literal: leading zeros in %q", text)
	}
	text = strings.TrimLeft(text, "0")
	if text == "" {
		return pyInt("0"), nil
	}
	if negative {
		text = "-" + text
	}
	return pyInt(text), nil
}

func (p *literalParser) name() (any, error) {
	start := p.pos
	for p.pos < len(p.src) && (isNameStart(p.src[p.pos]) || (p.src[p.pos] >= '0' && p.src[p.pos] <= '9')) {
		p.pos++
	}
	switch word := p.src[start:p.pos]; word {
	case "True":
		return true, nil
	case "False":
		return false, nil
	case "None":
		return nil, nil
	default:
		return nil, fmt.Errorf("literal: unknown name %q", word)
	}
}

func isNameStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
