// Package lexer turns source text into a flat token stream. Tokens are
// transient: they live for one file's analysis and are never part of a report.
package lexer

import (
	"strings"

	"github.com/QTest-hq/codescope/pkg/model"
)

// Kind is the token type
type Kind int

const (
	Identifier Kind = iota
	Keyword
	Operator
	String
	Comment
	Number
	Punctuation
	Newline
	EOF
)

var kindNames = [...]string{"IDENTIFIER", "KEYWORD", "OPERATOR", "STRING", "COMMENT", "NUMBER", "PUNCTUATION", "NEWLINE", "EOF"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "INVALID"
}

// Token is one lexical unit. Line and Column are 1-based; Column counts bytes.
type Token struct {
	Kind   Kind
	Text   string
	Line   int
	Column int
}

// EndLine returns the last line the token covers (multi-line strings and comments)
func (t Token) EndLine() int {
	return t.Line + strings.Count(t.Text, "\n")
}

// Is reports whether the token has the given kind and text
func (t Token) Is(kind Kind, text string) bool {
	return t.Kind == kind && t.Text == text
}

// IsPunct reports whether the token is the given punctuation
func (t Token) IsPunct(text string) bool {
	return t.Kind == Punctuation && t.Text == text
}

// IsKeyword reports whether the token is the given keyword
func (t Token) IsKeyword(text string) bool {
	return t.Kind == Keyword && t.Text == text
}

// IsWord reports whether the token is an identifier or keyword
func (t Token) IsWord() bool {
	return t.Kind == Identifier || t.Kind == Keyword
}

// Significant reports whether the token carries code (not comment, newline or EOF)
func (t Token) Significant() bool {
	return t.Kind != Comment && t.Kind != Newline && t.Kind != EOF
}

// Result is the output of one scan
type Result struct {
	Tokens []Token
	Errors []model.ParseError
	Lines  int // Physical line count of the input
}

// Significant returns the tokens without comments, newlines and EOF
func (r *Result) Significant() []Token {
	out := make([]Token, 0, len(r.Tokens))
	for _, t := range r.Tokens {
		if t.Significant() {
			out = append(out, t)
		}
	}
	return out
}
