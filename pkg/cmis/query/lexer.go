package query

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/tendant/simple-cmis/pkg/cmis"
)

// Pos is the byte offset of a token in the statement text. Column
// references are keyed by the Pos of their first token.
type Pos int

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokString
	tokNumber
	tokStar
	tokComma
	tokDot
	tokLParen
	tokRParen
	tokEQ
	tokNEQ
	tokLT
	tokLTE
	tokGT
	tokGTE
)

var tokenNames = map[tokenKind]string{
	tokEOF:    "end of statement",
	tokIdent:  "identifier",
	tokString: "string literal",
	tokNumber: "number",
	tokStar:   "'*'",
	tokComma:  "','",
	tokDot:    "'.'",
	tokLParen: "'('",
	tokRParen: "')'",
	tokEQ:     "'='",
	tokNEQ:    "'<>'",
	tokLT:     "'<'",
	tokLTE:    "'<='",
	tokGT:     "'>'",
	tokGTE:    "'>='",
}

type token struct {
	kind tokenKind
	pos  Pos
	text string
}

// keyword reports whether t is the identifier kw, ignoring case.
func (t token) keyword(kw string) bool {
	return t.kind == tokIdent && strings.EqualFold(t.text, kw)
}

var reserved = map[string]bool{
	"SELECT": true, "FROM": true, "WHERE": true, "AND": true, "OR": true, "NOT": true,
	"IN": true, "LIKE": true, "IS": true, "NULL": true, "ANY": true, "AS": true,
	"ORDER": true, "BY": true, "ASC": true, "DESC": true, "TRUE": true, "FALSE": true,
	"TIMESTAMP": true, "JOIN": true, "INNER": true, "LEFT": true, "OUTER": true, "ON": true,
}

func isReserved(t token) bool {
	return t.kind == tokIdent && reserved[strings.ToUpper(t.text)]
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || r == ':' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// lex splits statement into tokens, ending with a tokEOF token.
func lex(statement string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(statement) {
		r, size := utf8.DecodeRuneInString(statement[i:])
		start := i
		switch {
		case unicode.IsSpace(r):
			i += size
			continue
		case isIdentStart(r):
			i += size
			for i < len(statement) {
				r, size = utf8.DecodeRuneInString(statement[i:])
				if !isIdentPart(r) {
					break
				}
				i += size
			}
			toks = append(toks, token{kind: tokIdent, pos: Pos(start), text: statement[start:i]})
			continue
		case r == '\'':
			s, end, err := lexString(statement, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, token{kind: tokString, pos: Pos(start), text: s})
			i = end
			continue
		case unicode.IsDigit(r) || ((r == '-' || r == '+') && i+1 < len(statement) && isDigitOrDot(statement[i+1])) ||
			(r == '.' && i+1 < len(statement) && statement[i+1] >= '0' && statement[i+1] <= '9'):
			end := lexNumber(statement, i)
			toks = append(toks, token{kind: tokNumber, pos: Pos(start), text: statement[start:end]})
			i = end
			continue
		}

		kind := tokEOF
		switch r {
		case '*':
			kind = tokStar
		case ',':
			kind = tokComma
		case '.':
			kind = tokDot
		case '(':
			kind = tokLParen
		case ')':
			kind = tokRParen
		case '=':
			kind = tokEQ
		case '<':
			kind = tokLT
			if strings.HasPrefix(statement[i:], "<>") {
				kind, size = tokNEQ, 2
			} else if strings.HasPrefix(statement[i:], "<=") {
				kind, size = tokLTE, 2
			}
		case '>':
			kind = tokGT
			if strings.HasPrefix(statement[i:], ">=") {
				kind, size = tokGTE, 2
			}
		default:
			return nil, cmis.Errorf(cmis.ErrInvalidArgument, "unexpected character %q at offset %d", r, i)
		}
		i += size
		toks = append(toks, token{kind: kind, pos: Pos(start), text: statement[start:i]})
	}
	toks = append(toks, token{kind: tokEOF, pos: Pos(len(statement))})
	return toks, nil
}

func isDigitOrDot(b byte) bool {
	return (b >= '0' && b <= '9') || b == '.'
}

// lexString scans a quoted literal starting at the opening quote. A quote is
// escaped by doubling it or with a backslash, a backslash by another
// backslash. Any other backslash sequence is kept verbatim so LIKE patterns
// can escape % and _.
func lexString(s string, start int) (string, int, error) {
	var b strings.Builder
	i := start + 1
	for i < len(s) {
		c := s[i]
		switch {
		case c == '\'' && i+1 < len(s) && s[i+1] == '\'':
			b.WriteByte('\'')
			i += 2
		case c == '\'':
			return b.String(), i + 1, nil
		case c == '\\' && i+1 < len(s) && (s[i+1] == '\'' || s[i+1] == '\\'):
			b.WriteByte(s[i+1])
			i += 2
		default:
			b.WriteByte(c)
			i++
		}
	}
	return "", 0, cmis.Errorf(cmis.ErrInvalidArgument, "unterminated string literal at offset %d", start)
}

func lexNumber(s string, start int) int {
	i := start
	if s[i] == '-' || s[i] == '+' {
		i++
	}
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
		}
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '-' || s[j] == '+') {
			j++
		}
		if j < len(s) && s[j] >= '0' && s[j] <= '9' {
			i = j
			for i < len(s) && s[i] >= '0' && s[i] <= '9' {
				i++
			}
		}
	}
	return i
}
