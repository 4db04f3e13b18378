package query

import (
	"regexp"
	"sort"

	"github.com/tendant/simple-cmis/pkg/cmis"
	"github.com/tendant/simple-cmis/pkg/cmis/typedef"
)

// Catalog is the part of the type registry the compiler binds against.
// *typedef.Registry implements it.
type Catalog interface {
	GetTypeByQueryName(queryName string) (*typedef.TypeDefinition, error)
	SubtypeIDs(typeID string) []string
}

// Clause identifies where a column reference appears.
type Clause int

const (
	ClauseSelect Clause = iota
	ClauseJoin
	ClauseWhere
	ClauseOrderBy
)

// ScoreColumn is the default label of the SCORE() select function.
const ScoreColumn = "SEARCH_SCORE"

// ColumnReference is a column reference recorded during collection and
// bound to a property definition by ResolveTypes.
type ColumnReference struct {
	Pos       Pos
	Clause    Clause
	Qualifier string
	Name      string
	Alias     string

	// AliasOf is set for references that name a select alias; they share
	// the binding of the aliased select column.
	AliasOf string

	// Binding, valid after ResolveTypes. PropertyID is "*" for wildcards
	// and Function is "SCORE" for references to a SCORE() alias.
	PropertyID string
	Property   *typedef.PropertyDefinition
	Type       *typedef.TypeDefinition
	FromKey    string
	Function   string
}

// Bound reports whether r refers to a single concrete property.
func (r *ColumnReference) Bound() bool {
	return r.Property != nil
}

// Column is one projected result column.
type Column struct {
	Label      string `json:"label"`
	QueryName  string `json:"query_name"`
	PropertyID string `json:"property_id,omitempty"`
	TypeID     string `json:"type_id,omitempty"`
	Function   string `json:"function,omitempty"`
}

// OrderSpec is a resolved ORDER BY entry.
type OrderSpec struct {
	Ref  *ColumnReference
	Desc bool
}

type fromEntry struct {
	key      string
	typeName string
	typ      *typedef.TypeDefinition
}

// QueryObject holds the state of one compiled statement. It is built in two
// phases: Collect records every FROM entry and column reference, then
// ResolveTypes binds references to type and property definitions.
type QueryObject struct {
	catalog  Catalog
	fullText bool

	stmt          *Statement
	from          []*fromEntry
	refs          map[Pos]*ColumnReference
	selectAliases map[string]*SelectItem

	columns []Column
	orderBy []OrderSpec
	likes   map[*LikeExpr]*regexp.Regexp
	text    *TextQuery
}

// CompileOption configures Compile.
type CompileOption func(*QueryObject)

// WithFullText enables or disables CONTAINS. It is enabled by default.
func WithFullText(enabled bool) CompileOption {
	return func(q *QueryObject) {
		q.fullText = enabled
	}
}

// NewQueryObject returns an empty QueryObject binding against catalog.
func NewQueryObject(catalog Catalog, opts ...CompileOption) *QueryObject {
	q := &QueryObject{
		catalog:       catalog,
		fullText:      true,
		refs:          make(map[Pos]*ColumnReference),
		selectAliases: make(map[string]*SelectItem),
		likes:         make(map[*LikeExpr]*regexp.Regexp),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Compile parses statement and runs both binding phases.
func Compile(statement string, catalog Catalog, opts ...CompileOption) (*QueryObject, error) {
	stmt, err := Parse(statement)
	if err != nil {
		return nil, err
	}
	q := NewQueryObject(catalog, opts...)
	if err := q.Collect(stmt); err != nil {
		return nil, err
	}
	if err := q.ResolveTypes(); err != nil {
		return nil, err
	}
	return q, nil
}

// Collect records the FROM entries and every column reference of stmt,
// keyed by source position. Declaring an alias twice fails here.
func (q *QueryObject) Collect(stmt *Statement) error {
	q.stmt = stmt

	addFrom := func(item *FromItem) error {
		key := item.TypeName
		if item.Alias != "" {
			key = item.Alias
		}
		for _, f := range q.from {
			if f.key == key {
				return cmis.Errorf(cmis.ErrInvalidArgument, "alias %q declared twice in FROM", key)
			}
		}
		q.from = append(q.from, &fromEntry{key: key, typeName: item.TypeName})
		return nil
	}
	for _, item := range stmt.From {
		if err := addFrom(item); err != nil {
			return err
		}
	}
	for _, j := range stmt.Joins {
		if err := addFrom(j.Item); err != nil {
			return err
		}
		q.record(j.Left, ClauseJoin, "")
		q.record(j.Right, ClauseJoin, "")
	}

	for _, item := range stmt.Select {
		if item.Alias != "" {
			if _, dup := q.selectAliases[item.Alias]; dup {
				return cmis.Errorf(cmis.ErrInvalidArgument, "alias %q declared twice in SELECT", item.Alias)
			}
			q.selectAliases[item.Alias] = item
		}
		if item.Column != nil {
			q.record(item.Column, ClauseSelect, item.Alias)
		}
	}

	Inspect(stmt.Where, func(e Expr) bool {
		if col := columnOf(e); col != nil {
			q.record(col, ClauseWhere, "")
		}
		return true
	})

	for _, o := range stmt.OrderBy {
		q.record(o.Column, ClauseOrderBy, "")
	}
	return nil
}

func (q *QueryObject) record(col *ColumnRef, clause Clause, alias string) {
	q.refs[col.Position] = &ColumnReference{
		Pos:       col.Position,
		Clause:    clause,
		Qualifier: col.Qualifier,
		Name:      col.Name,
		Alias:     alias,
	}
}

// ResolveTypes binds the FROM types and every recorded column reference.
func (q *QueryObject) ResolveTypes() error {
	if q.stmt == nil {
		return cmis.Errorf(cmis.ErrInvalidArgument, "nothing collected")
	}
	for _, f := range q.from {
		t, err := q.catalog.GetTypeByQueryName(f.typeName)
		if err != nil {
			return cmis.Errorf(cmis.ErrInvalidArgument, "unknown type %q in FROM", f.typeName)
		}
		if !t.Queryable {
			return cmis.Errorf(cmis.ErrInvalidArgument, "type %q is not queryable", f.typeName)
		}
		f.typ = t
	}

	refs := q.References()
	sort.SliceStable(refs, func(i, j int) bool {
		return refs[i].Clause == ClauseSelect && refs[j].Clause != ClauseSelect
	})
	for _, ref := range refs {
		if err := q.bind(ref); err != nil {
			return err
		}
	}

	q.buildColumns()
	for _, o := range q.stmt.OrderBy {
		q.orderBy = append(q.orderBy, OrderSpec{Ref: q.refs[o.Column.Position], Desc: o.Desc})
	}
	return q.validatePredicates()
}

func (q *QueryObject) bind(ref *ColumnReference) error {
	if ref.Clause != ClauseSelect && ref.Qualifier == "" {
		if item, ok := q.selectAliases[ref.Name]; ok {
			ref.AliasOf = ref.Name
			if item.Function != "" {
				ref.Function = item.Function
				return nil
			}
			target := q.refs[item.Column.Position]
			ref.PropertyID, ref.Property, ref.Type, ref.FromKey = target.PropertyID, target.Property, target.Type, target.FromKey
			return q.checkUsage(ref)
		}
	}

	if ref.Name == "*" {
		ref.PropertyID = "*"
		if ref.Qualifier != "" {
			f, err := q.lookupQualifier(ref.Qualifier)
			if err != nil {
				return err
			}
			ref.Type, ref.FromKey = f.typ, f.key
		}
		return nil
	}

	if ref.Qualifier != "" {
		f, err := q.lookupQualifier(ref.Qualifier)
		if err != nil {
			return err
		}
		d, ok := f.typ.PropertyByQueryName(ref.Name)
		if !ok {
			return cmis.Errorf(cmis.ErrInvalidArgument, "unknown column %s.%s", ref.Qualifier, ref.Name)
		}
		ref.PropertyID, ref.Property, ref.Type, ref.FromKey = d.ID, d, f.typ, f.key
		return q.checkUsage(ref)
	}

	var match *fromEntry
	var def *typedef.PropertyDefinition
	for _, f := range q.from {
		d, ok := f.typ.PropertyByQueryName(ref.Name)
		if !ok {
			continue
		}
		if match != nil {
			return cmis.Errorf(cmis.ErrInvalidArgument, "ambiguous column %q: defined by %q and %q",
				ref.Name, match.key, f.key)
		}
		match, def = f, d
	}
	if match == nil {
		return cmis.Errorf(cmis.ErrInvalidArgument, "unknown column %q", ref.Name)
	}
	ref.PropertyID, ref.Property, ref.Type, ref.FromKey = def.ID, def, match.typ, match.key
	return q.checkUsage(ref)
}

func (q *QueryObject) checkUsage(ref *ColumnReference) error {
	switch ref.Clause {
	case ClauseOrderBy:
		if !ref.Property.Orderable {
			return cmis.Errorf(cmis.ErrInvalidArgument, "column %q is not orderable", ref.Name)
		}
	default:
		if !ref.Property.Queryable {
			return cmis.Errorf(cmis.ErrInvalidArgument, "column %q is not queryable", ref.Name)
		}
	}
	return nil
}

// lookupQualifier finds a FROM entry by alias, or by type query name when
// the type was not aliased.
func (q *QueryObject) lookupQualifier(qualifier string) (*fromEntry, error) {
	for _, f := range q.from {
		if f.key == qualifier {
			return f, nil
		}
	}
	return nil, cmis.Errorf(cmis.ErrInvalidArgument, "unknown qualifier %q", qualifier)
}

func (q *QueryObject) buildColumns() {
	expand := func(f *fromEntry) {
		for _, id := range f.typ.PropertyIDs() {
			d := f.typ.PropertyDefinitions[id]
			if !d.Queryable {
				continue
			}
			q.columns = append(q.columns, Column{Label: d.QueryName, QueryName: d.QueryName, PropertyID: d.ID, TypeID: f.typ.ID})
		}
	}
	for _, item := range q.stmt.Select {
		switch {
		case item.Function != "":
			label := item.Alias
			if label == "" {
				label = ScoreColumn
			}
			q.columns = append(q.columns, Column{Label: label, QueryName: ScoreColumn, Function: item.Function})
		case item.Column.Name == "*":
			ref := q.refs[item.Column.Position]
			for _, f := range q.from {
				if ref.FromKey == "" || ref.FromKey == f.key {
					expand(f)
				}
			}
		default:
			ref := q.refs[item.Column.Position]
			label := item.Alias
			if label == "" {
				label = ref.Property.QueryName
			}
			q.columns = append(q.columns, Column{Label: label, QueryName: ref.Property.QueryName, PropertyID: ref.PropertyID, TypeID: ref.Type.ID})
		}
	}
}

func (q *QueryObject) validatePredicates() error {
	contains := 0
	var err error
	Inspect(q.stmt.Where, func(e Expr) bool {
		if err != nil {
			return false
		}
		switch n := e.(type) {
		case *ComparisonExpr:
			err = q.checkOperand(n.Column, false, n.Op, n.Value)
		case *AnyExpr:
			err = q.checkOperand(n.Column, true, n.Op, n.Value)
		case *InExpr:
			for _, v := range n.Values {
				if err = q.checkOperand(n.Column, n.Any, OpEQ, v); err != nil {
					break
				}
			}
		case *NullExpr:
			if ref := q.refs[n.Column.Position]; !ref.Bound() {
				err = cmis.Errorf(cmis.ErrInvalidArgument, "IS NULL needs a property, got %q", n.Column.String())
			}
		case *LikeExpr:
			if err = q.checkOperand(n.Column, false, OpEQ, n.Pattern); err == nil {
				var re *regexp.Regexp
				if re, err = likeToRegexp(n.Pattern.Value.(string)); err == nil {
					q.likes[n] = re
				}
			}
		case *ContainsExpr:
			contains++
			switch {
			case !q.fullText:
				err = cmis.Errorf(cmis.ErrNotSupported, "full-text search is not supported")
			case contains > 1:
				err = cmis.Errorf(cmis.ErrInvalidArgument, "only one CONTAINS predicate is allowed")
			default:
				if err = q.checkQualifier(n.Qualifier); err == nil {
					q.text, err = ParseTextQuery(n.Text.Value.(string))
				}
			}
		case *InFolderExpr:
			err = q.checkQualifier(n.Qualifier)
		case *InTreeExpr:
			err = q.checkQualifier(n.Qualifier)
		}
		return err == nil
	})
	return err
}

func (q *QueryObject) checkQualifier(qualifier string) error {
	if qualifier == "" {
		return nil
	}
	_, err := q.lookupQualifier(qualifier)
	return err
}

// checkOperand validates that the column can be compared with lit using op,
// and that quantified forms are used exactly for multi-valued properties.
func (q *QueryObject) checkOperand(col *ColumnRef, quantified bool, op CompareOp, lit *Literal) error {
	ref := q.refs[col.Position]
	if !ref.Bound() {
		return cmis.Errorf(cmis.ErrInvalidArgument, "predicate needs a property, got %q", col.String())
	}
	d := ref.Property
	switch {
	case quantified && !d.MultiValued():
		return cmis.Errorf(cmis.ErrInvalidArgument, "ANY requires a multi-valued property, %q is single-valued", col.String())
	case !quantified && d.MultiValued():
		return cmis.Errorf(cmis.ErrInvalidArgument, "multi-valued property %q must be used with ANY", col.String())
	}

	ok := false
	switch d.PropertyType {
	case cmis.PropertyTypeString, cmis.PropertyTypeID, cmis.PropertyTypeURI, cmis.PropertyTypeHTML:
		ok = lit.Kind == LiteralString
	case cmis.PropertyTypeInteger, cmis.PropertyTypeDecimal:
		ok = lit.Kind == LiteralInteger || lit.Kind == LiteralDecimal
	case cmis.PropertyTypeBoolean:
		ok = lit.Kind == LiteralBoolean && (op == OpEQ || op == OpNEQ)
	case cmis.PropertyTypeDateTime:
		ok = lit.Kind == LiteralTimestamp
	}
	if !ok {
		return cmis.Errorf(cmis.ErrInvalidArgument, "operand at offset %d cannot be compared with %s property %q using %s",
			lit.Position, d.PropertyType, col.String(), op)
	}
	return nil
}

// Reference returns the reference recorded at pos.
func (q *QueryObject) Reference(pos Pos) (*ColumnReference, bool) {
	r, ok := q.refs[pos]
	return r, ok
}

// References returns every recorded reference in source order.
func (q *QueryObject) References() []*ColumnReference {
	out := make([]*ColumnReference, 0, len(q.refs))
	for _, r := range q.refs {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Pos < out[j].Pos })
	return out
}

// FromTypes returns the FROM aliases mapped to their type query names.
func (q *QueryObject) FromTypes() map[string]string {
	out := make(map[string]string, len(q.from))
	for _, f := range q.from {
		out[f.key] = f.typeName
	}
	return out
}

// MainType returns the type of the first FROM entry.
func (q *QueryObject) MainType() *typedef.TypeDefinition {
	if len(q.from) == 0 {
		return nil
	}
	return q.from[0].typ
}

// Columns returns the projected columns with wildcards expanded.
func (q *QueryObject) Columns() []Column {
	return append([]Column(nil), q.columns...)
}

// OrderBy returns the resolved ORDER BY specs.
func (q *QueryObject) OrderBy() []OrderSpec {
	return append([]OrderSpec(nil), q.orderBy...)
}

// Where returns the predicate tree, or nil.
func (q *QueryObject) Where() Expr {
	return q.stmt.Where
}
