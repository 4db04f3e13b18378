package query_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-cmis/pkg/cmis"
	"github.com/tendant/simple-cmis/pkg/cmis/query"
)

func TestParse(t *testing.T) {
	t.Run("select list, aliases and order", func(t *testing.T) {
		stmt, err := query.Parse("SELECT d.cmis:name AS n, cmis:objectId, SCORE() s FROM cmis:document d WHERE n LIKE 'a%' ORDER BY n DESC, cmis:objectId")
		require.NoError(t, err)

		require.Len(t, stmt.Select, 3)
		assert.Equal(t, "d", stmt.Select[0].Column.Qualifier)
		assert.Equal(t, "cmis:name", stmt.Select[0].Column.Name)
		assert.Equal(t, "n", stmt.Select[0].Alias)
		assert.Equal(t, query.Pos(7), stmt.Select[0].Column.Position)
		assert.Equal(t, "SCORE", stmt.Select[2].Function)
		assert.Equal(t, "s", stmt.Select[2].Alias)

		require.Len(t, stmt.From, 1)
		assert.Equal(t, "cmis:document", stmt.From[0].TypeName)
		assert.Equal(t, "d", stmt.From[0].Alias)

		like, ok := stmt.Where.(*query.LikeExpr)
		require.True(t, ok)
		assert.Equal(t, "a%", like.Pattern.Value)

		require.Len(t, stmt.OrderBy, 2)
		assert.True(t, stmt.OrderBy[0].Desc)
		assert.False(t, stmt.OrderBy[1].Desc)
	})

	t.Run("precedence", func(t *testing.T) {
		stmt, err := query.Parse("SELECT * FROM cmis:document WHERE a = 1 OR b = 2 AND NOT c = 3")
		require.NoError(t, err)
		or, ok := stmt.Where.(*query.OrExpr)
		require.True(t, ok)
		and, ok := or.Right.(*query.AndExpr)
		require.True(t, ok)
		_, ok = and.Right.(*query.NotExpr)
		assert.True(t, ok)
	})

	t.Run("literals", func(t *testing.T) {
		stmt, err := query.Parse(`SELECT * FROM t WHERE a IN ('it''s', 'back\'slash', -3, 2.5, TRUE, TIMESTAMP '2024-01-02T03:04:05Z')`)
		require.NoError(t, err)
		in := stmt.Where.(*query.InExpr)
		require.Len(t, in.Values, 6)
		assert.Equal(t, "it's", in.Values[0].Value)
		assert.Equal(t, "back'slash", in.Values[1].Value)
		assert.Equal(t, int64(-3), in.Values[2].Value)
		assert.Equal(t, 2.5, in.Values[3].Value)
		assert.Equal(t, true, in.Values[4].Value)
		assert.Equal(t, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), in.Values[5].Value)
	})

	t.Run("quantified forms and functions", func(t *testing.T) {
		stmt, err := query.Parse("SELECT * FROM t WHERE 'x' = ANY tags AND ANY tags NOT IN ('a') AND IN_FOLDER(t, 'f1') AND CONTAINS('hello') AND x IS NOT NULL")
		require.NoError(t, err)

		var kinds []string
		query.Inspect(stmt.Where, func(e query.Expr) bool {
			switch n := e.(type) {
			case *query.AnyExpr:
				kinds = append(kinds, "any")
			case *query.InExpr:
				assert.True(t, n.Any)
				assert.True(t, n.Not)
				kinds = append(kinds, "in")
			case *query.InFolderExpr:
				assert.Equal(t, "t", n.Qualifier)
				kinds = append(kinds, "in_folder")
			case *query.ContainsExpr:
				kinds = append(kinds, "contains")
			case *query.NullExpr:
				assert.True(t, n.Not)
				kinds = append(kinds, "null")
			}
			return true
		})
		assert.Equal(t, []string{"any", "in", "in_folder", "contains", "null"}, kinds)
	})

	t.Run("joins", func(t *testing.T) {
		stmt, err := query.Parse("SELECT * FROM cmis:document d JOIN cmis:folder f ON d.cmis:parentId = f.cmis:objectId")
		require.NoError(t, err)
		require.Len(t, stmt.Joins, 1)
		assert.Equal(t, "f", stmt.Joins[0].Item.Alias)
	})

	t.Run("syntax errors", func(t *testing.T) {
		for _, s := range []string{
			"",
			"SELECT",
			"SELECT * FROM",
			"SELECT * FROM t WHERE",
			"SELECT * FROM t WHERE a =",
			"SELECT * FROM t WHERE a LIKE 5",
			"SELECT * FROM t WHERE name = 'open",
			"SELECT * FROM t ORDER a",
			"SELECT * FROM t extra tokens",
			"SELECT a FROM t WHERE a = 1 #",
		} {
			_, err := query.Parse(s)
			assert.Truef(t, errors.Is(err, cmis.ErrInvalidArgument), "%q: %v", s, err)
		}
	})
}

func TestFormat_RoundTrip(t *testing.T) {
	for _, where := range []string{
		"cmis:name = 'it''s'",
		"a <> 1 AND (b >= 2.5 OR c < -1)",
		"NOT (a = 1 AND b IS NULL)",
		"'x' = ANY tags OR ANY tags NOT IN ('a', 'b')",
		`cmis:name NOT LIKE 'a\%b_%'`,
		"IN_TREE(d, 'f1') AND IN_FOLDER('f2') AND CONTAINS('\"exact phrase\" -other')",
		"created > TIMESTAMP '2024-01-02T03:04:05Z' AND flag = FALSE",
	} {
		stmt, err := query.Parse("SELECT * FROM t d WHERE " + where)
		require.NoError(t, err, where)
		formatted := query.Format(stmt.Where)

		again, err := query.Parse("SELECT * FROM t d WHERE " + formatted)
		require.NoError(t, err, formatted)
		assert.Equal(t, formatted, query.Format(again.Where), where)
	}

	stmt, err := query.Parse("SELECT * FROM t WHERE (a = 1 OR b = 2) AND c = 3")
	require.NoError(t, err)
	assert.Equal(t, "(a = 1 OR b = 2) AND c = 3", query.Format(stmt.Where))
}
