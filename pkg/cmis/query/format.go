package query

import (
	"strconv"
	"strings"
	"time"
)

// Format renders a predicate tree as query text that parses back to an
// equivalent tree.
func Format(e Expr) string {
	if e == nil {
		return ""
	}
	return Dispatch[string](formatter{}, e)
}

type formatter struct{}

var _ Walker[string] = formatter{}

func (f formatter) VisitComparison(e *ComparisonExpr) string {
	return e.Column.String() + " " + string(e.Op) + " " + FormatLiteral(e.Value)
}

func (f formatter) VisitAny(e *AnyExpr) string {
	return FormatLiteral(e.Value) + " " + string(e.Op) + " ANY " + e.Column.String()
}

func (f formatter) VisitIn(e *InExpr) string {
	var b strings.Builder
	if e.Any {
		b.WriteString("ANY ")
	}
	b.WriteString(e.Column.String())
	if e.Not {
		b.WriteString(" NOT")
	}
	b.WriteString(" IN (")
	for i, v := range e.Values {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(FormatLiteral(v))
	}
	b.WriteString(")")
	return b.String()
}

func (f formatter) VisitNull(e *NullExpr) string {
	if e.Not {
		return e.Column.String() + " IS NOT NULL"
	}
	return e.Column.String() + " IS NULL"
}

func (f formatter) VisitLike(e *LikeExpr) string {
	op := " LIKE "
	if e.Not {
		op = " NOT LIKE "
	}
	return e.Column.String() + op + FormatLiteral(e.Pattern)
}

func (f formatter) VisitAnd(e *AndExpr) string {
	return f.operand(e.Left, false) + " AND " + f.operand(e.Right, false)
}

func (f formatter) VisitOr(e *OrExpr) string {
	return Dispatch[string](f, e.Left) + " OR " + Dispatch[string](f, e.Right)
}

func (f formatter) VisitNot(e *NotExpr) string {
	return "NOT " + f.operand(e.X, true)
}

func (f formatter) VisitContains(e *ContainsExpr) string {
	return "CONTAINS(" + qualified(e.Qualifier) + FormatLiteral(e.Text) + ")"
}

func (f formatter) VisitInFolder(e *InFolderExpr) string {
	return "IN_FOLDER(" + qualified(e.Qualifier) + FormatLiteral(e.FolderID) + ")"
}

func (f formatter) VisitInTree(e *InTreeExpr) string {
	return "IN_TREE(" + qualified(e.Qualifier) + FormatLiteral(e.FolderID) + ")"
}

// operand parenthesizes e when it binds looser than its parent: OR under
// AND, and any connective under NOT.
func (f formatter) operand(e Expr, underNot bool) string {
	switch e.(type) {
	case *OrExpr:
		return "(" + Dispatch[string](f, e) + ")"
	case *AndExpr:
		if underNot {
			return "(" + Dispatch[string](f, e) + ")"
		}
	}
	return Dispatch[string](f, e)
}

func qualified(q string) string {
	if q == "" {
		return ""
	}
	return q + ", "
}

// FormatLiteral renders a literal in query syntax.
func FormatLiteral(l *Literal) string {
	switch v := l.Value.(type) {
	case string:
		s := strings.ReplaceAll(v, `\`, `\\`)
		return "'" + strings.ReplaceAll(s, "'", "''") + "'"
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		s := strconv.FormatFloat(v, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		return s
	case bool:
		if v {
			return "TRUE"
		}
		return "FALSE"
	case time.Time:
		return "TIMESTAMP '" + v.Format(time.RFC3339Nano) + "'"
	}
	return "NULL"
}
