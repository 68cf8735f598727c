// Package parser splits command lines, row literals, and WHERE/SET clauses into tokens.
package parser

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedClause is returned when a WHERE or SET clause is not of the form `column = value`.
var ErrMalformedClause = errors.New("malformed clause")

// Clause is a parsed `column = value` pair.
// It serves both as a WHERE condition and as a SET assignment.
type Clause struct {
	Column string `json:"column"`
	Value  string `json:"value"`
}

// isQuote reports whether r opens or closes a quoted run.
func isQuote(r rune) bool {
	return r == '"' || r == '\''
}

// Tokenize splits a command line on whitespace.
// Quoted runs stay in one token and keep their quote characters,
// so `where name = "Ana Maria"` yields four tokens.
// An unterminated quote consumes the rest of the line.
func Tokenize(line string) []string {
	var tokens []string
	var current strings.Builder
	var quote rune
	inToken := false

	for _, r := range line {
		switch {
		case quote != 0:
			current.WriteRune(r)
			if r == quote {
				quote = 0
			}
		case isQuote(r):
			quote = r
			inToken = true
			current.WriteRune(r)
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			if inToken {
				tokens = append(tokens, current.String())
				current.Reset()
				inToken = false
			}
		default:
			inToken = true
			current.WriteRune(r)
		}
	}
	if inToken {
		tokens = append(tokens, current.String())
	}

	return tokens
}

// ParseRowLiteral parses a value list such as `("Ana", 30, true)`.
//
// The surrounding parentheses are optional. Commas inside a matching pair of
// single or double quotes do not split. Tokens are trimmed but keep their quotes;
// unquoting happens during type coercion. An empty slot between two commas
// yields an empty token, but a trailing comma does not add one. Parsing never
// fails: an unterminated quote runs to the end of the input.
func ParseRowLiteral(text string) []string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "(") && strings.HasSuffix(text, ")") {
		text = text[1 : len(text)-1]
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var values []string
	var current strings.Builder
	var quote rune

	for _, r := range text {
		switch {
		case quote != 0:
			current.WriteRune(r)
			if r == quote {
				quote = 0
			}
		case isQuote(r):
			quote = r
			current.WriteRune(r)
		case r == ',':
			values = append(values, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	if current.Len() > 0 {
		values = append(values, strings.TrimSpace(current.String()))
	}

	return values
}

// ParseCondition parses exactly three tokens `[column, "=", value]`.
func ParseCondition(parts []string) (Clause, error) {
	if len(parts) != 3 || parts[1] != "=" {
		return Clause{}, fmt.Errorf("%w: expected `column = value`, got %q", ErrMalformedClause, strings.Join(parts, " "))
	}
	return Clause{Column: parts[0], Value: Unquote(parts[2])}, nil
}

// ParseAssignment parses `[column, "=", value...]`.
// Everything after the `=` is joined with single spaces, so unquoted
// multi-word strings can be assigned.
func ParseAssignment(parts []string) (Clause, error) {
	if len(parts) < 3 || parts[1] != "=" {
		return Clause{}, fmt.Errorf("%w: expected `column = value`, got %q", ErrMalformedClause, strings.Join(parts, " "))
	}
	return Clause{Column: parts[0], Value: Unquote(strings.Join(parts[2:], " "))}, nil
}

// Unquote strips one layer of matching single or double quotes.
// Values that are not wrapped in a matching pair are returned unchanged.
func Unquote(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if first == last && (first == '"' || first == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
