package query

import (
	"strings"

	"github.com/tendant/simple-cmis/pkg/cmis"
)

// TextQuery is a parsed CONTAINS expression: a disjunction of conjunctions
// of terms. A term is a word or a double-quoted phrase, optionally negated
// with a leading '-'. Adjacent terms are ANDed; the keyword OR separates
// alternatives.
type TextQuery struct {
	alternatives [][]textTerm
}

type textTerm struct {
	text   string
	negate bool
}

// ParseTextQuery parses a CONTAINS argument.
func ParseTextQuery(s string) (*TextQuery, error) {
	tq := &TextQuery{}
	var current []textTerm
	i := 0
	for i < len(s) {
		c := s[i]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			i++
			continue
		}
		negate := false
		if c == '-' {
			negate = true
			i++
			if i >= len(s) {
				break
			}
			c = s[i]
		}
		var word string
		if c == '"' {
			end := strings.IndexByte(s[i+1:], '"')
			if end < 0 {
				return nil, cmis.Errorf(cmis.ErrInvalidArgument, "unterminated phrase in CONTAINS %q", s)
			}
			word = s[i+1 : i+1+end]
			i += end + 2
		} else {
			end := strings.IndexAny(s[i:], " \t\n\r")
			if end < 0 {
				end = len(s) - i
			}
			word = s[i : i+end]
			i += end
			if !negate && word == "OR" {
				if len(current) == 0 {
					return nil, cmis.Errorf(cmis.ErrInvalidArgument, "OR without left operand in CONTAINS %q", s)
				}
				tq.alternatives = append(tq.alternatives, current)
				current = nil
				continue
			}
		}
		word = strings.TrimSpace(word)
		if word == "" {
			continue
		}
		current = append(current, textTerm{text: strings.ToLower(word), negate: negate})
	}
	if len(current) == 0 {
		return nil, cmis.Errorf(cmis.ErrInvalidArgument, "empty CONTAINS expression %q", s)
	}
	tq.alternatives = append(tq.alternatives, current)
	return tq, nil
}

// Match reports whether text satisfies the query. Matching is
// case-insensitive substring matching.
func (tq *TextQuery) Match(text string) bool {
	text = strings.ToLower(text)
	for _, terms := range tq.alternatives {
		ok := true
		for _, t := range terms {
			if strings.Contains(text, t.text) == t.negate {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}
