package query

import (
	"regexp"
	"strings"

	"github.com/tendant/simple-cmis/pkg/cmis"
)

// likeToRegexp translates a LIKE pattern to an anchored regular expression.
// % matches any run of characters, _ exactly one; \% and \_ match the
// literal characters and \\ a backslash.
func likeToRegexp(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString(`(?s)^`)
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		switch {
		case c == '\\' && i+1 < len(pattern) && strings.IndexByte(`%_\`, pattern[i+1]) >= 0:
			b.WriteString(regexp.QuoteMeta(pattern[i+1 : i+2]))
			i++
		case c == '%':
			b.WriteString(".*")
		case c == '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(pattern[i : i+1]))
		}
	}
	b.WriteString(`$`)
	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, cmis.Errorf(cmis.ErrInvalidArgument, "invalid LIKE pattern %q", pattern)
	}
	return re, nil
}
