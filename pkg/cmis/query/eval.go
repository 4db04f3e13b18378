package query

import (
	"strings"
	"time"
)

// Candidate is one object a query scan considers. Its object and type ids
// are read through cmis:objectId and cmis:objectTypeId.
type Candidate interface {
	// Value returns the value of propertyID; multi-valued properties are
	// returned as []any. ok is false when the property is unset.
	Value(propertyID string) (v any, ok bool)
}

// Source supplies candidates and evaluates the repository-aware predicates.
type Source interface {
	Scan(opts ScanOptions) []Candidate
	InFolder(c Candidate, folderID string) bool
	InTree(c Candidate, folderID string) bool
	// FullText returns the text CONTAINS matches against.
	FullText(c Candidate) string
}

// ScanOptions select the candidates of a scan.
type ScanOptions struct {
	TypeIDs     []string
	AllVersions bool
	Principal   string
}

// evaluator decides a predicate for one candidate. Unset values make every
// comparison false; NOT inverts the result of its operand.
type evaluator struct {
	q   *QueryObject
	src Source
	c   Candidate
}

var _ Walker[bool] = (*evaluator)(nil)

// Matches reports whether c satisfies the WHERE clause of q.
func (q *QueryObject) Matches(src Source, c Candidate) bool {
	if q.stmt.Where == nil {
		return true
	}
	return Dispatch[bool](&evaluator{q: q, src: src, c: c}, q.stmt.Where)
}

func (ev *evaluator) value(col *ColumnRef) (any, bool) {
	ref := ev.q.refs[col.Position]
	v, ok := ev.c.Value(ref.PropertyID)
	if !ok || v == nil {
		return nil, false
	}
	if list, isList := v.([]any); isList && len(list) == 0 {
		return nil, false
	}
	return v, true
}

func (ev *evaluator) VisitComparison(e *ComparisonExpr) bool {
	v, ok := ev.value(e.Column)
	if !ok {
		return false
	}
	c, ok := compareValues(v, e.Value.Value)
	return ok && applyOp(e.Op, c)
}

func (ev *evaluator) VisitAny(e *AnyExpr) bool {
	v, ok := ev.value(e.Column)
	if !ok {
		return false
	}
	for _, item := range asList(v) {
		if c, ok := compareValues(e.Value.Value, item); ok && applyOp(e.Op, c) {
			return true
		}
	}
	return false
}

func (ev *evaluator) VisitIn(e *InExpr) bool {
	v, ok := ev.value(e.Column)
	if !ok {
		return false
	}
	found := false
	for _, item := range asList(v) {
		if inLiterals(item, e.Values) {
			found = true
			break
		}
	}
	return found != e.Not
}

func (ev *evaluator) VisitNull(e *NullExpr) bool {
	_, ok := ev.value(e.Column)
	return ok == e.Not
}

func (ev *evaluator) VisitLike(e *LikeExpr) bool {
	v, ok := ev.value(e.Column)
	if !ok {
		return false
	}
	s, ok := v.(string)
	if !ok {
		return false
	}
	return ev.q.likes[e].MatchString(s) != e.Not
}

func (ev *evaluator) VisitAnd(e *AndExpr) bool {
	return Dispatch[bool](ev, e.Left) && Dispatch[bool](ev, e.Right)
}

func (ev *evaluator) VisitOr(e *OrExpr) bool {
	return Dispatch[bool](ev, e.Left) || Dispatch[bool](ev, e.Right)
}

func (ev *evaluator) VisitNot(e *NotExpr) bool {
	return !Dispatch[bool](ev, e.X)
}

func (ev *evaluator) VisitContains(e *ContainsExpr) bool {
	return ev.q.text != nil && ev.q.text.Match(ev.src.FullText(ev.c))
}

func (ev *evaluator) VisitInFolder(e *InFolderExpr) bool {
	return ev.src.InFolder(ev.c, e.FolderID.Value.(string))
}

func (ev *evaluator) VisitInTree(e *InTreeExpr) bool {
	return ev.src.InTree(ev.c, e.FolderID.Value.(string))
}

func stringValue(c Candidate, propertyID string) string {
	v, _ := c.Value(propertyID)
	s, _ := v.(string)
	return s
}

func asList(v any) []any {
	if list, ok := v.([]any); ok {
		return list
	}
	return []any{v}
}

func inLiterals(v any, lits []*Literal) bool {
	for _, l := range lits {
		if c, ok := compareValues(v, l.Value); ok && c == 0 {
			return true
		}
	}
	return false
}

func applyOp(op CompareOp, c int) bool {
	switch op {
	case OpEQ:
		return c == 0
	case OpNEQ:
		return c != 0
	case OpLT:
		return c < 0
	case OpLTE:
		return c <= 0
	case OpGT:
		return c > 0
	case OpGTE:
		return c >= 0
	}
	return false
}

// compareValues orders two normalized property values. ok is false when the
// values are of incomparable types.
func compareValues(a, b any) (int, bool) {
	switch x := a.(type) {
	case string:
		if y, ok := b.(string); ok {
			return strings.Compare(x, y), true
		}
	case bool:
		if y, ok := b.(bool); ok {
			switch {
			case x == y:
				return 0, true
			case !x:
				return -1, true
			default:
				return 1, true
			}
		}
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Compare(y), true
		}
	case int64:
		switch y := b.(type) {
		case int64:
			return cmpOrdered(x, y), true
		case float64:
			return cmpOrdered(float64(x), y), true
		}
	case float64:
		switch y := b.(type) {
		case float64:
			return cmpOrdered(x, y), true
		case int64:
			return cmpOrdered(x, float64(y)), true
		}
	}
	return 0, false
}

func cmpOrdered[T int64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
