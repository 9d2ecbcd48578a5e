package resultset

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// decodeStrict normalizes the payload into JSON and decodes it. It succeeds
// for list-of-lists payloads with double-quotable content; tuple rows and
// awkward quoting fall through to the lenient parser.
func decodeStrict(clean string) ([]any, error) {
	normalized := strings.ReplaceAll(clean, "'", `"`)
	normalized = strings.ReplaceAll(normalized, "None", "null")

	var decoded []any
	if err := json.Unmarshal([]byte(normalized), &decoded); err != nil {
		return nil, err
	}
	return decoded, nil
}

// parseLiteral is a dedicated decoder for the result grammar: a bracketed
// sequence of rows, each row a parenthesized or bracketed tuple of scalars
// or a bare scalar. Scalars are None, True, False, numbers, quoted strings,
// and b'...' byte literals.
func parseLiteral(input string) ([]any, error) {
	p := &literalParser{input: input}
	p.skipSpace()
	if !p.consume('[') {
		return nil, fmt.Errorf("expected '[' at offset %d", p.pos)
	}
	rows, err := p.parseSequence(']')
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.input) {
		return nil, fmt.Errorf("trailing data at offset %d", p.pos)
	}
	return rows, nil
}

type literalParser struct {
	input string
	pos   int
}

func (p *literalParser) parseSequence(close byte) ([]any, error) {
	values := []any{}
	p.skipSpace()
	if p.consume(close) {
		return values, nil
	}
	for {
		value, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		values = append(values, value)
		p.skipSpace()
		if p.consume(',') {
			p.skipSpace()
			// trailing comma before the closer is part of one-element tuples
			if p.consume(close) {
				return values, nil
			}
			continue
		}
		if p.consume(close) {
			return values, nil
		}
		return nil, fmt.Errorf("expected ',' or '%c' at offset %d", close, p.pos)
	}
}

func (p *literalParser) parseValue() (any, error) {
	p.skipSpace()
	if p.pos >= len(p.input) {
		return nil, fmt.Errorf("unexpected end of input")
	}

	switch c := p.input[p.pos]; {
	case c == '(':
		p.pos++
		values, err := p.parseSequence(')')
		if err != nil {
			return nil, err
		}
		return values, nil
	case c == '[':
		p.pos++
		values, err := p.parseSequence(']')
		if err != nil {
			return nil, err
		}
		return values, nil
	case c == '\'' || c == '"':
		return p.parseString(c)
	case (c == 'b' || c == 'B') && p.pos+1 < len(p.input) && (p.input[p.pos+1] == '\'' || p.input[p.pos+1] == '"'):
		p.pos++
		text, err := p.parseString(p.input[p.pos])
		if err != nil {
			return nil, err
		}
		return []byte(text), nil
	case strings.HasPrefix(p.input[p.pos:], "None"):
		p.pos += len("None")
		return nil, nil
	case strings.HasPrefix(p.input[p.pos:], "null"):
		p.pos += len("null")
		return nil, nil
	case strings.HasPrefix(p.input[p.pos:], "True"):
		p.pos += len("True")
		return true, nil
	case strings.HasPrefix(p.input[p.pos:], "False"):
		p.pos += len("False")
		return false, nil
	case c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9'):
		return p.parseNumber()
	default:
		return nil, fmt.Errorf("unexpected character %q at offset %d", c, p.pos)
	}
}

func (p *literalParser) parseString(quote byte) (string, error) {
	if !p.consume(quote) {
		return "", fmt.Errorf("expected string quote at offset %d", p.pos)
	}
	var builder strings.Builder
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		switch c {
		case quote:
			p.pos++
			return builder.String(), nil
		case '\\':
			p.pos++
			if p.pos >= len(p.input) {
				return "", fmt.Errorf("unterminated escape at offset %d", p.pos)
			}
			switch esc := p.input[p.pos]; esc {
			case 'n':
				builder.WriteByte('\n')
			case 't':
				builder.WriteByte('\t')
			case 'r':
				builder.WriteByte('\r')
			case '0':
				builder.WriteByte(0)
			case 'x':
				if p.pos+2 >= len(p.input) {
					return "", fmt.Errorf("unterminated hex escape at offset %d", p.pos)
				}
				value, err := strconv.ParseUint(p.input[p.pos+1:p.pos+3], 16, 8)
				if err != nil {
					return "", fmt.Errorf("invalid hex escape at offset %d", p.pos)
				}
				builder.WriteByte(byte(value))
				p.pos += 2
			default:
				builder.WriteByte(esc)
			}
			p.pos++
		default:
			builder.WriteByte(c)
			p.pos++
		}
	}
	return "", fmt.Errorf("unterminated string at offset %d", p.pos)
}

func (p *literalParser) parseNumber() (any, error) {
	start := p.pos
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if (c >= '0' && c <= '9') || c == '-' || c == '+' || c == '.' || c == 'e' || c == 'E' || c == '_' {
			p.pos++
			continue
		}
		break
	}
	token := strings.ReplaceAll(p.input[start:p.pos], "_", "")
	if intValue, err := strconv.ParseInt(token, 10, 64); err == nil {
		return intValue, nil
	}
	floatValue, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number %q at offset %d", token, start)
	}
	return floatValue, nil
}

func (p *literalParser) consume(c byte) bool {
	if p.pos < len(p.input) && p.input[p.pos] == c {
		p.pos++
		return true
	}
	return false
}

func (p *literalParser) skipSpace() {
	for p.pos < len(p.input) {
		switch p.input[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}
