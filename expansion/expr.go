package expansion

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// term is one operand of a concatenation expression: either a literal
// string or the name of a value to resolve from a Scope at evaluation
// time.
type term struct {
	literal bool
	value   string // literal text, or identifier name
}

// expression is a parsed, precompiled "+"-concatenation of literal and
// identifier terms. It intentionally supports nothing beyond
// concatenation: the template grammar spec.md defines has exactly one
// operator and two kinds of term.
type expression struct {
	terms []term
}

// parseExpression parses a string of the form `"lit1"+ident+"lit2"`
// (arbitrary whitespace around `+` and terms is tolerated) into a flat
// list of terms evaluated left to right.
func parseExpression(src string) (*expression, error) {
	var terms []term
	i := 0
	n := len(src)

	skipSpace := func() {
		for i < n && unicode.IsSpace(rune(src[i])) {
			i++
		}
	}

	for {
		skipSpace()
		if i >= n {
			break
		}

		switch {
		case src[i] == '"':
			start := i
			i++
			for i < n && src[i] != '"' {
				if src[i] == '\\' && i+1 < n {
					i++
				}
				i++
			}
			if i >= n {
				return nil, fmt.Errorf("unterminated string literal at offset %d", start)
			}
			i++ // closing quote
			unquoted, err := strconv.Unquote(src[start:i])
			if err != nil {
				return nil, fmt.Errorf("invalid string literal %s: %w", src[start:i], err)
			}
			terms = append(terms, term{literal: true, value: unquoted})

		case src[i] == '+':
			i++ // separator between terms, no-op on its own

		case isIdentStart(rune(src[i])):
			start := i
			for i < n && isIdentPart(rune(src[i])) {
				i++
			}
			terms = append(terms, term{literal: false, value: src[start:i]})

		default:
			return nil, fmt.Errorf("unexpected character %q at offset %d", src[i], i)
		}
	}

	return &expression{terms: terms}, nil
}

func isIdentStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_'
}

func isIdentPart(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

// evaluate resolves every term against scope and concatenates the
// result. An identifier term with no binding in scope is an error:
// every name a template references must be seeded by the caller
// (either a CLI --parameter or a built-in binding like "publisher").
func (e *expression) evaluate(scope *Scope) (string, error) {
	var b strings.Builder
	for _, t := range e.terms {
		if t.literal {
			b.WriteString(t.value)
			continue
		}
		v, ok := scope.Lookup(t.value)
		if !ok {
			return "", fmt.Errorf("unbound name %q", t.value)
		}
		b.WriteString(v)
	}
	return b.String(), nil
}
