// Package formula implements the formula engine: a lexer, a
// recursive-descent parser that produces a dimensionally type-checked AST,
// an evaluator, and a string-interpolation mini-language. Built new (see
// DESIGN.md), following the small, explicit-state parsing style used
// elsewhere in this module (internal/address/expression.go,
// internal/dvparser/parse.go): a cursor index threaded through private
// helpers, no parser generator.
package formula

import "github.com/travnick/wmbusmeters/internal/errs"

// TokenKind enumerates the formula language's lexical categories.
type TokenKind int

const (
	TokEOF TokenKind = iota
	TokNumber
	TokIdent
	TokDateTime
	TokPlus
	TokMinus
	TokStar
	TokSlash
	TokLParen
	TokRParen
)

// Token is one lexical unit. Number carries its parsed value plus the
// unit-suffix text immediately following it with no whitespace");
// DateTime carries the seconds-since-epoch the quoted literal resolved to.
type Token struct {
	Kind     TokenKind
	Text     string
	Number   float64
	Suffix   string
	Seconds  int64
	Start    int
	End      int
}

func (t Token) span() errs.Span { return errs.Span{Start: t.Start, End: t.End} }
