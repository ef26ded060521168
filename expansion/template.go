package expansion

import (
	"strconv"
	"strings"

	"github.com/coregrid/mqttverify/verifyerr"
)

// Template is a precompiled string template: literal text interspersed
// with {{ EXPR }} holes, ready to be evaluated repeatedly against any
// Scope without re-parsing.
type Template struct {
	raw  string
	expr *expression
}

// Precompile scans template left to right for {{ ... }} holes, quotes
// each literal segment, pushes each hole's raw body as a bare
// expression token, joins everything with "+", and parses the result
// as a single concatenation expression.
//
// Precompile fails with a *verifyerr.MalformedValueError if a "{{" is
// never closed by a following "}}", or with a
// *verifyerr.MalformedExpressionError if the assembled expression does
// not parse.
func Precompile(template string) (*Template, error) {
	var tokens []string
	cursor := 0

	for {
		rel := strings.Index(template[cursor:], "{{")
		if rel == -1 {
			break
		}
		start := cursor + rel

		if start > cursor {
			tokens = append(tokens, strconv.Quote(template[cursor:start]))
		}

		relEnd := strings.Index(template[start+2:], "}}")
		if relEnd == -1 {
			return nil, &verifyerr.MalformedValueError{Value: template}
		}
		end := start + 2 + relEnd

		tokens = append(tokens, template[start+2:end])
		cursor = end + 2
	}

	if cursor < len(template) {
		tokens = append(tokens, strconv.Quote(template[cursor:]))
	}

	joined := strings.Join(tokens, "+")

	expr, err := parseExpression(joined)
	if err != nil {
		return nil, &verifyerr.MalformedExpressionError{Value: template, Err: err}
	}

	return &Template{raw: template, expr: expr}, nil
}

// Evaluate resolves the template against scope, returning the
// concatenated string.
func (t *Template) Evaluate(scope *Scope) (string, error) {
	return t.expr.evaluate(scope)
}

// String returns the original, uncompiled template text.
func (t *Template) String() string { return t.raw }
