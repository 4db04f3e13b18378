package query

import (
	"sort"

	"github.com/tendant/simple-cmis/pkg/cmis"
)

// ExecOptions control one execution of a compiled query.
type ExecOptions struct {
	Principal         string
	SearchAllVersions bool
	// MaxItems limits the returned rows; nil means no limit.
	MaxItems  *int
	SkipCount int
}

// Row is one result row. Values are keyed by column label.
type Row struct {
	ObjectID string         `json:"object_id"`
	TypeID   string         `json:"type_id"`
	Values   map[string]any `json:"values"`
}

// Result is a page of query results.
type Result struct {
	Columns      []Column `json:"columns"`
	Rows         []Row    `json:"rows"`
	NumItems     int      `json:"num_items"`
	HasMoreItems bool     `json:"has_more_items"`
}

// Execute scans src for objects of the FROM type and its subtypes, filters
// them with the WHERE clause, sorts them by ORDER BY and returns the
// requested page. Only single-type queries are executed.
func (q *QueryObject) Execute(src Source, opts ExecOptions) (*Result, error) {
	if len(q.from) != 1 || len(q.stmt.Joins) > 0 {
		return nil, cmis.Errorf(cmis.ErrNotSupported, "joins are not supported")
	}
	if opts.SkipCount < 0 {
		return nil, cmis.Errorf(cmis.ErrInvalidArgument, "skipCount must not be negative")
	}

	main := q.from[0].typ
	candidates := src.Scan(ScanOptions{
		TypeIDs:     q.catalog.SubtypeIDs(main.ID),
		AllVersions: opts.SearchAllVersions,
		Principal:   opts.Principal,
	})

	matches := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if q.Matches(src, c) {
			matches = append(matches, c)
		}
	}
	q.sort(matches)

	res := &Result{Columns: q.Columns(), NumItems: len(matches)}
	start := opts.SkipCount
	if start > len(matches) {
		start = len(matches)
	}
	end := len(matches)
	if opts.MaxItems != nil {
		if *opts.MaxItems < 0 {
			return nil, cmis.Errorf(cmis.ErrInvalidArgument, "maxItems must not be negative")
		}
		end = min(start+*opts.MaxItems, end)
	}
	res.HasMoreItems = end < len(matches)
	res.Rows = make([]Row, 0, end-start)
	for _, c := range matches[start:end] {
		res.Rows = append(res.Rows, q.project(c))
	}
	return res, nil
}

// sort orders candidates by the ORDER BY specs. The sort is stable, so
// candidates equal under every spec keep their scan order.
func (q *QueryObject) sort(cs []Candidate) {
	if len(q.orderBy) == 0 {
		return
	}
	sort.SliceStable(cs, func(i, j int) bool {
		for _, o := range q.orderBy {
			if o.Ref.Function != "" {
				continue
			}
			a, aok := cs[i].Value(o.Ref.PropertyID)
			b, bok := cs[j].Value(o.Ref.PropertyID)
			c := 0
			switch {
			case !aok && !bok:
			case !aok:
				c = -1
			case !bok:
				c = 1
			default:
				c, _ = compareValues(a, b)
			}
			if c == 0 {
				continue
			}
			if o.Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

func (q *QueryObject) project(c Candidate) Row {
	row := Row{
		ObjectID: stringValue(c, cmis.PropObjectID),
		TypeID:   stringValue(c, cmis.PropObjectTypeID),
		Values:   make(map[string]any, len(q.columns)),
	}
	for _, col := range q.columns {
		if col.Function != "" {
			row.Values[col.Label] = 1.0
			continue
		}
		v, _ := c.Value(col.PropertyID)
		row.Values[col.Label] = v
	}
	return row
}
