package query

import "fmt"

// Walker has one callback per predicate node kind. Dispatch selects the
// callback for a node; the callback decides whether and in which order to
// descend into the node's operands by calling Dispatch again. Evaluators use
// this to short-circuit AND, OR and NOT, other backends (formatters,
// planners) to produce their own result type.
type Walker[T any] interface {
	VisitComparison(e *ComparisonExpr) T
	VisitAny(e *AnyExpr) T
	VisitIn(e *InExpr) T
	VisitNull(e *NullExpr) T
	VisitLike(e *LikeExpr) T
	VisitAnd(e *AndExpr) T
	VisitOr(e *OrExpr) T
	VisitNot(e *NotExpr) T
	VisitContains(e *ContainsExpr) T
	VisitInFolder(e *InFolderExpr) T
	VisitInTree(e *InTreeExpr) T
}

// Dispatch calls the callback of w matching the dynamic type of e.
func Dispatch[T any](w Walker[T], e Expr) T {
	switch n := e.(type) {
	case *ComparisonExpr:
		return w.VisitComparison(n)
	case *AnyExpr:
		return w.VisitAny(n)
	case *InExpr:
		return w.VisitIn(n)
	case *NullExpr:
		return w.VisitNull(n)
	case *LikeExpr:
		return w.VisitLike(n)
	case *AndExpr:
		return w.VisitAnd(n)
	case *OrExpr:
		return w.VisitOr(n)
	case *NotExpr:
		return w.VisitNot(n)
	case *ContainsExpr:
		return w.VisitContains(n)
	case *InFolderExpr:
		return w.VisitInFolder(n)
	case *InTreeExpr:
		return w.VisitInTree(n)
	}
	panic(fmt.Sprintf("query: unknown expression node %T", e))
}

// Inspect traverses e in pre-order, left to right, calling fn for every
// node. If fn returns false the node's operands are skipped.
func Inspect(e Expr, fn func(Expr) bool) {
	if e == nil || !fn(e) {
		return
	}
	switch n := e.(type) {
	case *AndExpr:
		Inspect(n.Left, fn)
		Inspect(n.Right, fn)
	case *OrExpr:
		Inspect(n.Left, fn)
		Inspect(n.Right, fn)
	case *NotExpr:
		Inspect(n.X, fn)
	}
}

// columnOf returns the column a leaf predicate reads, or nil.
func columnOf(e Expr) *ColumnRef {
	switch n := e.(type) {
	case *ComparisonExpr:
		return n.Column
	case *AnyExpr:
		return n.Column
	case *InExpr:
		return n.Column
	case *NullExpr:
		return n.Column
	case *LikeExpr:
		return n.Column
	}
	return nil
}
