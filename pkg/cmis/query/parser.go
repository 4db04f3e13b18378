package query

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tendant/simple-cmis/pkg/cmis"
)

type parser struct {
	toks []token
	i    int
}

// Parse parses a CMIS query statement. Syntax errors wrap
// cmis.ErrInvalidArgument and carry the offending offset.
func Parse(statement string) (*Statement, error) {
	toks, err := lex(statement)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	return p.statement()
}

func (p *parser) peek() token { return p.toks[p.i] }

func (p *parser) peekAt(n int) token {
	if p.i+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.i+n]
}

func (p *parser) next() token {
	t := p.toks[p.i]
	if t.kind != tokEOF {
		p.i++
	}
	return t
}

func (p *parser) errorf(t token, format string, args ...any) error {
	return cmis.Errorf(cmis.ErrInvalidArgument, "syntax error at offset %d: %s", t.pos, fmt.Sprintf(format, args...))
}

func (p *parser) expect(kind tokenKind) (token, error) {
	t := p.next()
	if t.kind != kind {
		return t, p.errorf(t, "expected %s, found %s", tokenNames[kind], describe(t))
	}
	return t, nil
}

func (p *parser) expectKeyword(kw string) (token, error) {
	t := p.next()
	if !t.keyword(kw) {
		return t, p.errorf(t, "expected %s, found %s", kw, describe(t))
	}
	return t, nil
}

func (p *parser) acceptKeyword(kw string) bool {
	if p.peek().keyword(kw) {
		p.next()
		return true
	}
	return false
}

func describe(t token) string {
	if t.kind == tokEOF {
		return tokenNames[tokEOF]
	}
	return strconv.Quote(t.text)
}

func (p *parser) statement() (*Statement, error) {
	if _, err := p.expectKeyword("SELECT"); err != nil {
		return nil, err
	}
	stmt := &Statement{}
	var err error
	if stmt.Select, err = p.selectList(); err != nil {
		return nil, err
	}
	if _, err := p.expectKeyword("FROM"); err != nil {
		return nil, err
	}
	if err := p.fromClause(stmt); err != nil {
		return nil, err
	}
	if p.acceptKeyword("WHERE") {
		if stmt.Where, err = p.orExpr(); err != nil {
			return nil, err
		}
	}
	if p.acceptKeyword("ORDER") {
		if _, err := p.expectKeyword("BY"); err != nil {
			return nil, err
		}
		if stmt.OrderBy, err = p.orderList(); err != nil {
			return nil, err
		}
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, p.errorf(t, "unexpected %s", describe(t))
	}
	return stmt, nil
}

func (p *parser) selectList() ([]*SelectItem, error) {
	if t := p.peek(); t.kind == tokStar {
		p.next()
		return []*SelectItem{{Position: t.pos, Column: &ColumnRef{Position: t.pos, Name: "*"}}}, nil
	}
	var items []*SelectItem
	for {
		item, err := p.selectItem()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		if p.peek().kind != tokComma {
			return items, nil
		}
		p.next()
	}
}

func (p *parser) selectItem() (*SelectItem, error) {
	t := p.peek()
	item := &SelectItem{Position: t.pos}
	if t.keyword("SCORE") && p.peekAt(1).kind == tokLParen {
		p.next()
		p.next()
		if _, err := p.expect(tokRParen); err != nil {
			return nil, err
		}
		item.Function = "SCORE"
	} else {
		col, err := p.columnRef(true)
		if err != nil {
			return nil, err
		}
		item.Column = col
		if col.Name == "*" {
			return item, nil
		}
	}
	alias, err := p.alias()
	if err != nil {
		return nil, err
	}
	item.Alias = alias
	return item, nil
}

// alias parses an optional `[AS] name`. A bare identifier is an alias
// unless it is a reserved word.
func (p *parser) alias() (string, error) {
	if p.acceptKeyword("AS") {
		t, err := p.expect(tokIdent)
		if err != nil {
			return "", err
		}
		return t.text, nil
	}
	t := p.peek()
	if t.kind == tokIdent && !isReserved(t) {
		p.next()
		return t.text, nil
	}
	return "", nil
}

// columnRef parses `name`, `qualifier.name` and, when allowStar is set,
// `qualifier.*`.
func (p *parser) columnRef(allowStar bool) (*ColumnRef, error) {
	t := p.next()
	if t.kind != tokIdent || isReserved(t) {
		return nil, p.errorf(t, "expected column name, found %s", describe(t))
	}
	col := &ColumnRef{Position: t.pos, Name: t.text}
	if p.peek().kind != tokDot {
		return col, nil
	}
	p.next()
	n := p.next()
	switch {
	case n.kind == tokStar && allowStar:
		col.Qualifier, col.Name = t.text, "*"
	case n.kind == tokIdent:
		col.Qualifier, col.Name = t.text, n.text
	default:
		return nil, p.errorf(n, "expected property name after %q, found %s", t.text+".", describe(n))
	}
	return col, nil
}

func (p *parser) fromItem() (*FromItem, error) {
	t, err := p.expect(tokIdent)
	if err != nil {
		return nil, err
	}
	if isReserved(t) {
		return nil, p.errorf(t, "expected type name, found %s", describe(t))
	}
	alias, err := p.alias()
	if err != nil {
		return nil, err
	}
	return &FromItem{Position: t.pos, TypeName: t.text, Alias: alias}, nil
}

func (p *parser) fromClause(stmt *Statement) error {
	for {
		item, err := p.fromItem()
		if err != nil {
			return err
		}
		stmt.From = append(stmt.From, item)
		if p.peek().kind != tokComma {
			break
		}
		p.next()
	}
	for {
		kind := ""
		switch {
		case p.acceptKeyword("INNER"):
			kind = "INNER"
		case p.acceptKeyword("LEFT"):
			kind = "LEFT"
			p.acceptKeyword("OUTER")
		case p.peek().keyword("JOIN"):
			kind = "INNER"
		default:
			return nil
		}
		if _, err := p.expectKeyword("JOIN"); err != nil {
			return err
		}
		item, err := p.fromItem()
		if err != nil {
			return err
		}
		if _, err := p.expectKeyword("ON"); err != nil {
			return err
		}
		left, err := p.columnRef(false)
		if err != nil {
			return err
		}
		if _, err := p.expect(tokEQ); err != nil {
			return err
		}
		right, err := p.columnRef(false)
		if err != nil {
			return err
		}
		stmt.Joins = append(stmt.Joins, &Join{Kind: kind, Item: item, Left: left, Right: right})
	}
}

func (p *parser) orderList() ([]*OrderItem, error) {
	var items []*OrderItem
	for {
		col, err := p.columnRef(false)
		if err != nil {
			return nil, err
		}
		item := &OrderItem{Column: col}
		if p.acceptKeyword("DESC") {
			item.Desc = true
		} else {
			p.acceptKeyword("ASC")
		}
		items = append(items, item)
		if p.peek().kind != tokComma {
			return items, nil
		}
		p.next()
	}
}

func (p *parser) orExpr() (Expr, error) {
	left, err := p.andExpr()
	if err != nil {
		return nil, err
	}
	for p.acceptKeyword("OR") {
		right, err := p.andExpr()
		if err != nil {
			return nil, err
		}
		left = &OrExpr{Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) andExpr() (Expr, error) {
	left, err := p.notExpr()
	if err != nil {
		return nil, err
	}
	for p.acceptKeyword("AND") {
		right, err := p.notExpr()
		if err != nil {
			return nil, err
		}
		left = &AndExpr{Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) notExpr() (Expr, error) {
	if t := p.peek(); t.keyword("NOT") {
		p.next()
		x, err := p.notExpr()
		if err != nil {
			return nil, err
		}
		return &NotExpr{Position: t.pos, X: x}, nil
	}
	return p.primary()
}

func (p *parser) primary() (Expr, error) {
	t := p.peek()
	switch {
	case t.kind == tokLParen:
		p.next()
		e, err := p.orExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen); err != nil {
			return nil, err
		}
		return e, nil
	case t.keyword("CONTAINS") && p.peekAt(1).kind == tokLParen:
		q, lit, err := p.functionArgs()
		if err != nil {
			return nil, err
		}
		return &ContainsExpr{Position: t.pos, Qualifier: q, Text: lit}, nil
	case t.keyword("IN_FOLDER") && p.peekAt(1).kind == tokLParen:
		q, lit, err := p.functionArgs()
		if err != nil {
			return nil, err
		}
		return &InFolderExpr{Position: t.pos, Qualifier: q, FolderID: lit}, nil
	case t.keyword("IN_TREE") && p.peekAt(1).kind == tokLParen:
		q, lit, err := p.functionArgs()
		if err != nil {
			return nil, err
		}
		return &InTreeExpr{Position: t.pos, Qualifier: q, FolderID: lit}, nil
	case t.keyword("ANY"):
		p.next()
		col, err := p.columnRef(false)
		if err != nil {
			return nil, err
		}
		not := p.acceptKeyword("NOT")
		if _, err := p.expectKeyword("IN"); err != nil {
			return nil, err
		}
		values, err := p.literalList()
		if err != nil {
			return nil, err
		}
		return &InExpr{Column: col, Values: values, Not: not, Any: true}, nil
	case t.kind == tokString || t.kind == tokNumber || t.keyword("TRUE") || t.keyword("FALSE") || t.keyword("TIMESTAMP"):
		lit, err := p.literal()
		if err != nil {
			return nil, err
		}
		opTok := p.next()
		op, ok := compareOps[opTok.kind]
		if !ok {
			return nil, p.errorf(opTok, "expected comparison operator, found %s", describe(opTok))
		}
		if _, err := p.expectKeyword("ANY"); err != nil {
			return nil, err
		}
		col, err := p.columnRef(false)
		if err != nil {
			return nil, err
		}
		return &AnyExpr{Value: lit, Op: op, Column: col}, nil
	}

	col, err := p.columnRef(false)
	if err != nil {
		return nil, err
	}
	opTok := p.peek()
	if op, ok := compareOps[opTok.kind]; ok {
		p.next()
		lit, err := p.literal()
		if err != nil {
			return nil, err
		}
		return &ComparisonExpr{Column: col, Op: op, Value: lit}, nil
	}
	switch {
	case opTok.keyword("IS"):
		p.next()
		not := p.acceptKeyword("NOT")
		if _, err := p.expectKeyword("NULL"); err != nil {
			return nil, err
		}
		return &NullExpr{Column: col, Not: not}, nil
	case opTok.keyword("NOT") || opTok.keyword("IN") || opTok.keyword("LIKE"):
		not := p.acceptKeyword("NOT")
		if p.acceptKeyword("IN") {
			values, err := p.literalList()
			if err != nil {
				return nil, err
			}
			return &InExpr{Column: col, Values: values, Not: not}, nil
		}
		if _, err := p.expectKeyword("LIKE"); err != nil {
			return nil, err
		}
		pt, err := p.expect(tokString)
		if err != nil {
			return nil, err
		}
		return &LikeExpr{Column: col, Pattern: &Literal{Position: pt.pos, Kind: LiteralString, Value: pt.text}, Not: not}, nil
	}
	return nil, p.errorf(opTok, "expected predicate after %q, found %s", col.String(), describe(opTok))
}

var compareOps = map[tokenKind]CompareOp{
	tokEQ:  OpEQ,
	tokNEQ: OpNEQ,
	tokLT:  OpLT,
	tokLTE: OpLTE,
	tokGT:  OpGT,
	tokGTE: OpGTE,
}

// functionArgs parses `NAME([qualifier,] 'literal')` after the name token.
func (p *parser) functionArgs() (string, *Literal, error) {
	p.next()
	p.next()
	qualifier := ""
	if t := p.peek(); t.kind == tokIdent {
		p.next()
		qualifier = t.text
		if _, err := p.expect(tokComma); err != nil {
			return "", nil, err
		}
	}
	t, err := p.expect(tokString)
	if err != nil {
		return "", nil, err
	}
	if _, err := p.expect(tokRParen); err != nil {
		return "", nil, err
	}
	return qualifier, &Literal{Position: t.pos, Kind: LiteralString, Value: t.text}, nil
}

func (p *parser) literalList() ([]*Literal, error) {
	if _, err := p.expect(tokLParen); err != nil {
		return nil, err
	}
	var values []*Literal
	for {
		lit, err := p.literal()
		if err != nil {
			return nil, err
		}
		values = append(values, lit)
		t := p.next()
		if t.kind == tokRParen {
			return values, nil
		}
		if t.kind != tokComma {
			return nil, p.errorf(t, "expected ',' or ')', found %s", describe(t))
		}
	}
}

func (p *parser) literal() (*Literal, error) {
	t := p.next()
	switch {
	case t.kind == tokString:
		return &Literal{Position: t.pos, Kind: LiteralString, Value: t.text}, nil
	case t.kind == tokNumber:
		if !strings.ContainsAny(t.text, ".eE") {
			if n, err := strconv.ParseInt(t.text, 10, 64); err == nil {
				return &Literal{Position: t.pos, Kind: LiteralInteger, Value: n}, nil
			}
		}
		f, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, p.errorf(t, "invalid number %q", t.text)
		}
		return &Literal{Position: t.pos, Kind: LiteralDecimal, Value: f}, nil
	case t.keyword("TRUE"), t.keyword("FALSE"):
		return &Literal{Position: t.pos, Kind: LiteralBoolean, Value: t.keyword("TRUE")}, nil
	case t.keyword("TIMESTAMP"):
		s, err := p.expect(tokString)
		if err != nil {
			return nil, err
		}
		ts, err := time.Parse(time.RFC3339Nano, s.text)
		if err != nil {
			return nil, p.errorf(s, "invalid timestamp %q", s.text)
		}
		return &Literal{Position: t.pos, Kind: LiteralTimestamp, Value: ts.UTC()}, nil
	}
	return nil, p.errorf(t, "expected literal, found %s", describe(t))
}
