package query

import "time"

// Statement is a parsed SELECT statement before binding.
type Statement struct {
	Select  []*SelectItem
	From    []*FromItem
	Joins   []*Join
	Where   Expr
	OrderBy []*OrderItem
}

// ColumnRef is a reference to a property, optionally qualified by a FROM
// alias or type query name. Name is "*" for wildcard references.
type ColumnRef struct {
	Position  Pos
	Qualifier string
	Name      string
}

func (c *ColumnRef) String() string {
	if c.Qualifier == "" {
		return c.Name
	}
	return c.Qualifier + "." + c.Name
}

// SelectItem is one entry of the select list: either a column reference or
// a function call such as SCORE().
type SelectItem struct {
	Position Pos
	Column   *ColumnRef
	Function string
	Alias    string
}

// FromItem names a type in the FROM clause.
type FromItem struct {
	Position Pos
	TypeName string
	Alias    string
}

// Join is a JOIN clause. Joins parse but are not executed by this engine.
type Join struct {
	Kind  string
	Item  *FromItem
	Left  *ColumnRef
	Right *ColumnRef
}

// OrderItem is one ORDER BY entry.
type OrderItem struct {
	Column *ColumnRef
	Desc   bool
}

// LiteralKind classifies literal values.
type LiteralKind int

const (
	LiteralString LiteralKind = iota
	LiteralInteger
	LiteralDecimal
	LiteralBoolean
	LiteralTimestamp
)

// Literal is a constant operand. Value holds a string, int64, float64, bool
// or time.Time according to Kind.
type Literal struct {
	Position Pos
	Kind     LiteralKind
	Value    any
}

// Timestamp returns the literal's time value.
func (l *Literal) Timestamp() (time.Time, bool) {
	t, ok := l.Value.(time.Time)
	return t, ok
}

// CompareOp is a comparison operator.
type CompareOp string

const (
	OpEQ  CompareOp = "="
	OpNEQ CompareOp = "<>"
	OpLT  CompareOp = "<"
	OpLTE CompareOp = "<="
	OpGT  CompareOp = ">"
	OpGTE CompareOp = ">="
)

// Expr is a node of a WHERE predicate tree.
type Expr interface {
	Pos() Pos
	exprNode()
}

// ComparisonExpr is `column op literal`.
type ComparisonExpr struct {
	Column *ColumnRef
	Op     CompareOp
	Value  *Literal
}

// AnyExpr is the quantified comparison `literal = ANY column`.
type AnyExpr struct {
	Value  *Literal
	Op     CompareOp
	Column *ColumnRef
}

// InExpr is `column [NOT] IN (...)` or, when Any is set,
// `ANY column [NOT] IN (...)`.
type InExpr struct {
	Column *ColumnRef
	Values []*Literal
	Not    bool
	Any    bool
}

// NullExpr is `column IS [NOT] NULL`.
type NullExpr struct {
	Column *ColumnRef
	Not    bool
}

// LikeExpr is `column [NOT] LIKE pattern`.
type LikeExpr struct {
	Column  *ColumnRef
	Pattern *Literal
	Not     bool
}

// AndExpr is a conjunction.
type AndExpr struct {
	Left, Right Expr
}

// OrExpr is a disjunction.
type OrExpr struct {
	Left, Right Expr
}

// NotExpr is a negation.
type NotExpr struct {
	Position Pos
	X        Expr
}

// ContainsExpr is the full-text predicate CONTAINS([qualifier,] 'text').
type ContainsExpr struct {
	Position  Pos
	Qualifier string
	Text      *Literal
}

// InFolderExpr is IN_FOLDER([qualifier,] 'folderId').
type InFolderExpr struct {
	Position  Pos
	Qualifier string
	FolderID  *Literal
}

// InTreeExpr is IN_TREE([qualifier,] 'folderId').
type InTreeExpr struct {
	Position  Pos
	Qualifier string
	FolderID  *Literal
}

func (e *ComparisonExpr) Pos() Pos { return e.Column.Position }
func (e *AnyExpr) Pos() Pos        { return e.Value.Position }
func (e *InExpr) Pos() Pos         { return e.Column.Position }
func (e *NullExpr) Pos() Pos       { return e.Column.Position }
func (e *LikeExpr) Pos() Pos       { return e.Column.Position }
func (e *AndExpr) Pos() Pos        { return e.Left.Pos() }
func (e *OrExpr) Pos() Pos         { return e.Left.Pos() }
func (e *NotExpr) Pos() Pos        { return e.Position }
func (e *ContainsExpr) Pos() Pos   { return e.Position }
func (e *InFolderExpr) Pos() Pos   { return e.Position }
func (e *InTreeExpr) Pos() Pos     { return e.Position }

func (*ComparisonExpr) exprNode() {}
func (*AnyExpr) exprNode()        {}
func (*InExpr) exprNode()         {}
func (*NullExpr) exprNode()       {}
func (*LikeExpr) exprNode()       {}
func (*AndExpr) exprNode()        {}
func (*OrExpr) exprNode()         {}
func (*NotExpr) exprNode()        {}
func (*ContainsExpr) exprNode()   {}
func (*InFolderExpr) exprNode()   {}
func (*InTreeExpr) exprNode()     {}
