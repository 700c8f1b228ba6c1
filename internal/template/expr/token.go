package expr

import (
	"fmt"
	"unicode"
	"unicode/utf8"
)

// TokenType represents the type of a lexical token.
type TokenType int

const (
	TokenEOF        TokenType = iota // end of input
	TokenIdent                       // identifier
	TokenString                      // "string literal"
	TokenLParen                      // (
	TokenRParen                      // )
	TokenComma                       // ,
	TokenEq                          // =
	TokenWhitespace                  // spaces, tabs, newlines
	TokenBad                         // any other character
)

// String returns a debug-friendly representation of the token type.
func (t TokenType) String() string {
	switch t {
	case TokenEOF:
		return "EOF"
	case TokenIdent:
		return "IDENT"
	case TokenString:
		return "STRING"
	case TokenLParen:
		return "LPAREN"
	case TokenRParen:
		return "RPAREN"
	case TokenComma:
		return "COMMA"
	case TokenEq:
		return "EQ"
	case TokenWhitespace:
		return "WS"
	case TokenBad:
		return "BAD"
	default:
		return fmt.Sprintf("TokenType(%d)", int(t))
	}
}

// Token is a single lexical token.
type Token struct {
	Type  TokenType
	Value string // raw source text
	Pos   int    // byte offset in source
}

// Tokenize splits src into tokens. The result always ends with TokenEOF.
// A string literal missing its closing quote runs to the end of input.
func Tokenize(src string) []Token {
	var tokens []Token
	pos := 0
	for pos < len(src) {
		r, size := utf8.DecodeRuneInString(src[pos:])
		start := pos
		typ := TokenBad

		switch {
		case r == '(':
			typ, pos = TokenLParen, pos+1
		case r == ')':
			typ, pos = TokenRParen, pos+1
		case r == ',':
			typ, pos = TokenComma, pos+1
		case r == '=':
			typ, pos = TokenEq, pos+1
		case r == '"':
			typ, pos = TokenString, scanString(src, pos)
		case unicode.IsSpace(r):
			typ = TokenWhitespace
			pos = scanWhile(src, pos, unicode.IsSpace)
		case isIdentStart(r):
			typ = TokenIdent
			pos = scanWhile(src, pos, isIdentPart)
		default:
			pos += size
		}
		tokens = append(tokens, Token{Type: typ, Value: src[start:pos], Pos: start})
	}
	return append(tokens, Token{Type: TokenEOF, Pos: len(src)})
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func scanWhile(src string, pos int, ok func(rune) bool) int {
	for pos < len(src) {
		r, size := utf8.DecodeRuneInString(src[pos:])
		if !ok(r) {
			break
		}
		pos += size
	}
	return pos
}

// scanString returns the offset just past the literal starting at pos.
func scanString(src string, pos int) int {
	pos++ // opening quote
	for pos < len(src) {
		switch src[pos] {
		case '\\':
			pos += 2
		case '"':
			return pos + 1
		default:
			pos++
		}
	}
	return len(src)
}

// IsValidIdentifier reports whether s lexes as a single identifier.
func IsValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	r, _ := utf8.DecodeRuneInString(s)
	return isIdentStart(r) && scanWhile(s, 0, isIdentPart) == len(s)
}

// unquote decodes a raw string token: strips the quotes and resolves
// backslash escapes. \n \r \t \f map to control characters; any other
// escaped character stands for itself.
func unquote(raw string) string {
	if len(raw) > 0 && raw[0] == '"' {
		raw = raw[1:]
	}
	if n := len(raw); n > 0 && raw[n-1] == '"' && !escapedAt(raw, n-1) {
		raw = raw[:n-1]
	}

	out := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c != '\\' || i+1 >= len(raw) {
			out = append(out, c)
			continue
		}
		i++
		switch raw[i] {
		case 'n':
			out = append(out, '\n')
		case 'r':
			out = append(out, '\r')
		case 't':
			out = append(out, '\t')
		case 'f':
			out = append(out, '\f')
		default:
			out = append(out, raw[i])
		}
	}
	return string(out)
}

// escapedAt reports whether the byte at i is preceded by an odd number of
// backslashes.
func escapedAt(s string, i int) bool {
	n := 0
	for j := i - 1; j >= 0 && s[j] == '\\'; j-- {
		n++
	}
	return n%2 == 1
}

// quote renders s as a string literal that unquote maps back to s.
func quote(s string) string {
	out := make([]byte, 0, len(s)+2)
	out = append(out, '"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\n':
			out = append(out, '\\', 'n')
		case '\r':
			out = append(out, '\\', 'r')
		case '\t':
			out = append(out, '\\', 't')
		case '\f':
			out = append(out, '\\', 'f')
		case '"', '\\':
			out = append(out, '\\', c)
		default:
			out = append(out, c)
		}
	}
	return string(append(out, '"'))
}
