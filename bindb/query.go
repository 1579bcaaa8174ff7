package bindb

import (
	"fmt"
	"strings"
)

// Placeholder is the BinDBQL token resolved by a Run parameter
const Placeholder = "?"

// FieldSelection is the SELECT list of a query: either all fields or a named list.
type FieldSelection struct {
	All   bool
	Names []string
}

// BinToken is the right-hand side of "WHERE bin =": a literal bin or the placeholder.
type BinToken struct {
	Value       string
	Placeholder bool
}

// Query is a parsed BinDBQL statement:
//
//	SELECT <* | field[, field...]> FROM bins WHERE bin = <bin | ?>
type Query struct {
	Raw    string
	Fields FieldSelection
	Bin    BinToken
}

// String returns the canonical form of the query
func (q *Query) String() string {
	fields := "*"
	if !q.Fields.All {
		fields = strings.Join(q.Fields.Names, ",")
	}
	bin := q.Bin.Value
	if q.Bin.Placeholder {
		bin = Placeholder
	}
	return fmt.Sprintf("SELECT %s FROM bins WHERE bin = %s", fields, bin)
}

// ParseQuery parses a BinDBQL statement. Keywords are case-insensitive and any
// ASCII whitespace, including newlines, may separate tokens.
//
// An unquoted bin runs to the next whitespace or ';' and is kept byte for
// byte. A bin may also be written in single or double quotes, in which case
// the quotes are removed and the text between them is used as is.
func ParseQuery(query string) (*Query, error) {
	return newQueryParser(query).parse()
}

// queryParser is a single-pass scanner over the statement
type queryParser struct {
	input    string
	position int
}

func newQueryParser(input string) *queryParser {
	return &queryParser{input: input}
}

func (p *queryParser) parse() (*Query, error) {
	q := &Query{Raw: p.input}

	if err := p.expectKeyword("SELECT"); err != nil {
		return nil, err
	}

	fields, err := p.parseFieldList()
	if err != nil {
		return nil, err
	}
	q.Fields = fields

	for _, kw := range []string{"FROM", "bins", "WHERE", "bin"} {
		if err := p.expectKeyword(kw); err != nil {
			return nil, err
		}
	}

	p.skipWhitespace()
	if p.current() != '=' {
		return nil, p.errorf("expected '='")
	}
	p.position++

	bin, err := p.parseBinToken()
	if err != nil {
		return nil, err
	}
	q.Bin = bin

	p.skipWhitespace()
	if p.current() == ';' {
		p.position++
		p.skipWhitespace()
	}
	if p.position < len(p.input) {
		return nil, p.errorf("unexpected input after bin value: %q", p.input[p.position:])
	}

	return q, nil
}

func (p *queryParser) parseFieldList() (FieldSelection, error) {
	p.skipWhitespace()
	if p.current() == '*' {
		p.position++
		return FieldSelection{All: true}, nil
	}

	var names []string
	for {
		p.skipWhitespace()
		name := p.consumeIdent()
		if name == "" {
			return FieldSelection{}, p.errorf("expected field name or '*'")
		}
		names = append(names, name)

		p.skipWhitespace()
		if p.current() != ',' {
			break
		}
		p.position++
	}

	return FieldSelection{Names: names}, nil
}

func (p *queryParser) parseBinToken() (BinToken, error) {
	p.skipWhitespace()

	switch p.current() {
	case '?':
		p.position++
		return BinToken{Placeholder: true}, nil
	case '"', '\'':
		quote := p.current()
		p.position++
		start := p.position
		for p.position < len(p.input) && p.current() != quote {
			p.position++
		}
		if p.current() != quote {
			return BinToken{}, &ParseError{Query: p.input, Message: "unterminated string", Position: start}
		}
		value := p.input[start:p.position]
		p.position++
		if value == "" {
			return BinToken{}, p.errorf("expected bin value")
		}
		return BinToken{Value: value}, nil
	}

	start := p.position
	for p.position < len(p.input) && !isSpace(p.current()) && p.current() != ';' {
		p.position++
	}
	if start == p.position {
		return BinToken{}, p.errorf("expected bin value or '?'")
	}

	return BinToken{Value: p.input[start:p.position]}, nil
}

// Helper methods for scanning

func (p *queryParser) current() byte {
	if p.position >= len(p.input) {
		return 0
	}
	return p.input[p.position]
}

func (p *queryParser) skipWhitespace() {
	for p.position < len(p.input) && isSpace(p.input[p.position]) {
		p.position++
	}
}

func (p *queryParser) expectKeyword(keyword string) error {
	p.skipWhitespace()
	if !p.consumeKeyword(keyword) {
		return p.errorf("expected %s", strings.ToUpper(keyword))
	}
	return nil
}

func (p *queryParser) consumeKeyword(keyword string) bool {
	end := p.position + len(keyword)
	if end > len(p.input) {
		return false
	}
	if !strings.EqualFold(p.input[p.position:end], keyword) {
		return false
	}
	// "bins" must not match the "bin" keyword and vice versa
	if end < len(p.input) && isIdentChar(p.input[end]) {
		return false
	}
	p.position = end
	return true
}

func (p *queryParser) consumeIdent() string {
	start := p.position
	for p.position < len(p.input) && isIdentChar(p.current()) {
		p.position++
	}
	return p.input[start:p.position]
}

func (p *queryParser) errorf(format string, args ...any) *ParseError {
	return &ParseError{
		Query:    p.input,
		Message:  fmt.Sprintf(format, args...),
		Position: p.position,
	}
}

// isSpace matches ASCII whitespace only, so bytes inside a multibyte
// character never end a token
func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

func isIdentChar(c byte) bool {
	return c == '_' || c == '-' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
